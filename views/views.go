// Package views renders the console page and error pages as templ
// components backed by embedded html/template files.
package views

import (
	"embed"
	"html/template"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("views").Funcs(template.FuncMap{
	"id":           ID,
	"yesNo":        YesNo,
	"imageSrc":     ImageSrc,
	"categoryName": CategoryName,
}).ParseFS(templateFS, "templates/*.html"))

type status struct {
	Title   string
	Message string
}

// ConsolePage renders the form and the blog table.
func ConsolePage(p Page) templ.Component {
	return templ.FromGoHTML(templates.Lookup("page.html"), p)
}

// NotFound renders the 404 page.
func NotFound() templ.Component {
	return templ.FromGoHTML(templates.Lookup("status.html"), status{
		Title:   "Not found",
		Message: "That page or blog does not exist.",
	})
}

// ServerError renders the 500 page.
func ServerError() templ.Component {
	return templ.FromGoHTML(templates.Lookup("status.html"), status{
		Title:   "Something went wrong",
		Message: "The console could not handle that request.",
	})
}
