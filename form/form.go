// Package form holds the editable draft of a single blog post and the
// field-level mutations the console applies to it.
package form

import (
	"strconv"

	"github.com/eringen/blogform/api"
)

// Field names as they appear in the HTML form.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAuthor      = "author"
	FieldCategory    = "category"
	FieldIsPublished = "isPublished"
	FieldImage       = "image"
)

// Image is a file the user has newly chosen. It is never rebuilt from a
// blog's existing image.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// State is the local draft. ID is zero while creating a new post.
type State struct {
	ID          int64
	Title       string
	Description string
	Author      string
	Category    string
	IsPublished bool
	Image       *Image
}

// Empty returns the default state: no id, empty fields, unpublished, no image.
func Empty() State {
	return State{}
}

// Editing reports whether submit will update an existing post.
func (s State) Editing() bool {
	return s.ID != 0
}

// IsEmpty reports whether s equals the default state.
func (s State) IsEmpty() bool {
	return s.ID == 0 && s.Title == "" && s.Description == "" && s.Author == "" &&
		s.Category == "" && !s.IsPublished && s.Image == nil
}

// Heading is the form title shown above the inputs.
func (s State) Heading() string {
	if s.Editing() {
		return "Edit Blog"
	}
	return "Add Blog"
}

// SubmitLabel is the text of the submit button.
func (s State) SubmitLabel() string {
	if s.Editing() {
		return "Update"
	}
	return "SAVE"
}

// Change applies an input event. Text fields replace their value; the
// isPublished checkbox treats any non-empty value other than "false" as
// checked. Unknown names are ignored.
func (s *State) Change(name, value string) {
	switch name {
	case FieldTitle:
		s.Title = value
	case FieldDescription:
		s.Description = value
	case FieldAuthor:
		s.Author = value
	case FieldCategory:
		s.Category = value
	case FieldIsPublished:
		s.IsPublished = checked(value)
	}
}

// SetPublished replaces the published flag and nothing else.
func (s *State) SetPublished(v bool) {
	s.IsPublished = v
}

// SetImage replaces the held file.
func (s *State) SetImage(img *Image) {
	s.Image = img
}

// Reset returns s to Empty.
func (s *State) Reset() {
	*s = Empty()
}

// Edit replaces the whole state with the fields of b. The image is left
// empty since a file input cannot be pre-populated.
func Edit(b api.Blog) State {
	category := ""
	if b.Category != 0 {
		category = strconv.FormatInt(b.Category, 10)
	}
	return State{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		Author:      b.Author,
		Category:    category,
		IsPublished: b.IsPublished,
	}
}

// Payload builds the request body for create or update.
func (s State) Payload() api.Payload {
	p := api.Payload{
		Title:       s.Title,
		Description: s.Description,
		Author:      s.Author,
		Category:    s.Category,
		IsPublished: s.IsPublished,
	}
	if s.Image != nil {
		p.Image = &api.File{
			Name:        s.Image.Name,
			ContentType: s.Image.ContentType,
			Data:        s.Image.Data,
		}
	}
	return p
}

func checked(v string) bool {
	switch v {
	case "", "false", "off", "0":
		return false
	}
	return true
}
