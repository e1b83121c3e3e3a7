package api

import "fmt"

// Category is a server-side tag a blog post belongs to.
type Category struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Blog is a post as returned by /api/blogs/.
type Blog struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Author        string `json:"author"`
	Image         string `json:"image"` // path or absolute URL, empty when unset
	Category      int64  `json:"category"`
	IsPublished   bool   `json:"is_published"`
	PublishedDate string `json:"published_date,omitempty"`
	UpdatedAt     string `json:"updated_at,omitempty"`
}

// File is an image attached to a create or update request.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Payload is the multipart body shared by create and update.
type Payload struct {
	Title       string
	Description string
	Author      string
	Category    string
	IsPublished bool
	Image       *File // omitted from the request when nil
}

// StatusError is returned for responses with status >= 400.
// Body holds the raw response, usually a DRF field error map.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
}
