package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eringen/blogform"
	"github.com/eringen/blogform/api"
	"github.com/eringen/blogform/views"
)

func newClient(cfg *blogform.Config) *api.Client {
	return api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout))
}

func newCategoriesCmd(cfg *blogform.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories from the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, err := newClient(cfg).ListCategories(cmd.Context())
			if err != nil {
				return err
			}
			return writeCategories(cmd.OutOrStdout(), cats)
		},
	}
}

func newBlogsCmd(cfg *blogform.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "blogs",
		Short: "List blogs from the API",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient(cfg)
			blogs, err := client.ListBlogs(cmd.Context())
			if err != nil {
				return err
			}
			// Names are best effort; the table falls back to category ids.
			cats, _ := client.ListCategories(cmd.Context())
			return writeBlogs(cmd.OutOrStdout(), blogs, cats)
		},
	}
}

func writeCategories(w io.Writer, cats []api.Category) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME")
	for _, c := range cats {
		fmt.Fprintf(tw, "%d\t%s\n", c.ID, c.Name)
	}
	return tw.Flush()
}

func writeBlogs(w io.Writer, blogs []api.Blog, cats []api.Category) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tCATEGORY\tPUBLISHED")
	for _, b := range blogs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", b.ID, b.Title, b.Author, views.CategoryName(cats, b.Category), views.YesNo(b.IsPublished))
	}
	return tw.Flush()
}
