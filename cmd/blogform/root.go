package main

import (
	"github.com/spf13/cobra"

	"github.com/eringen/blogform"
)

func newRootCmd(cfg *blogform.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "blogform",
		Short:         "blogform - a web console for writing posts to a blog REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.Version = version
	cmd.PersistentFlags().StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "blog API root URL")

	cmd.AddCommand(
		newServeCmd(cfg),
		newCategoriesCmd(cfg),
		newBlogsCmd(cfg),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the blogform version",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("blogform %s\n", version)
		},
	}
}
