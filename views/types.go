package views

import (
	"github.com/eringen/blogform/api"
	"github.com/eringen/blogform/form"
)

// Page is everything the console page renders: the draft, both lists and
// the notice left by the last action.
type Page struct {
	Form       form.State
	Categories []api.Category
	Blogs      []api.Blog

	Notice      string
	NoticeError bool

	CSRFToken  string
	APIBaseURL string // used to rewrite absolute image URLs to /media/
}
