package blogform

import (
	"context"
	"errors"
	"sync"

	"github.com/eringen/blogform/api"
	"github.com/eringen/blogform/form"
)

// ErrBlogNotFound is returned by Edit when no displayed row has the id.
var ErrBlogNotFound = errors.New("blog not found")

// Notices shown after a submit.
const (
	NoticeCreated = "Blog added successfully!"
	NoticeUpdated = "Blog updated successfully!"
	NoticeFailed  = "Failed to submit blog."
)

// BlogAPI is the subset of the REST client the console needs.
type BlogAPI interface {
	ListCategories(ctx context.Context) ([]api.Category, error)
	ListBlogs(ctx context.Context) ([]api.Blog, error)
	CreateBlog(ctx context.Context, p api.Payload) (api.Blog, error)
	UpdateBlog(ctx context.Context, id int64, p api.Payload) (api.Blog, error)
}

// Logger is satisfied by echo.Logger.
type Logger interface {
	Errorf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// Console is one viewer's form-and-table state: the category list, the
// blog list and the form draft. Network calls run outside the lock, so
// overlapping submits are possible.
type Console struct {
	api BlogAPI
	log Logger

	mu         sync.Mutex
	categories []api.Category
	blogs      []api.Blog
	form       form.State
}

// NewConsole returns a console with empty lists and an empty form.
func NewConsole(client BlogAPI, logger Logger) *Console {
	return &Console{api: client, log: logger}
}

// Snapshot is a copy of console state for rendering.
type Snapshot struct {
	Categories []api.Category
	Blogs      []api.Blog
	Form       form.State
}

// Snapshot copies the current state.
func (c *Console) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Categories: append([]api.Category(nil), c.categories...),
		Blogs:      append([]api.Blog(nil), c.blogs...),
		Form:       c.form,
	}
}

// Form returns the current draft.
func (c *Console) Form() form.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form
}

// Mount loads categories and blogs. The two reads are independent: a
// failure is logged and leaves that list as it was.
func (c *Console) Mount(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		c.loadCategories(ctx)
	}()
	go func() {
		defer wg.Done()
		c.ReloadBlogs(ctx)
	}()
	wg.Wait()
}

func (c *Console) loadCategories(ctx context.Context) {
	cats, err := c.api.ListCategories(ctx)
	if err != nil {
		c.log.Errorf("Error fetching categories: %v", err)
		return
	}
	c.mu.Lock()
	c.categories = cats
	c.mu.Unlock()
}

// ReloadBlogs replaces the blog list on success; on failure it logs and
// keeps the current list.
func (c *Console) ReloadBlogs(ctx context.Context) {
	blogs, err := c.api.ListBlogs(ctx)
	if err != nil {
		c.log.Errorf("Error fetching blogs: %v", err)
		return
	}
	c.mu.Lock()
	c.blogs = blogs
	c.mu.Unlock()
}

// Change applies a text or checkbox input event.
func (c *Console) Change(name, value string) {
	c.mu.Lock()
	c.form.Change(name, value)
	c.mu.Unlock()
}

// SetPublished replaces the published flag.
func (c *Console) SetPublished(v bool) {
	c.mu.Lock()
	c.form.SetPublished(v)
	c.mu.Unlock()
}

// SetImage replaces the held file.
func (c *Console) SetImage(img *form.Image) {
	c.mu.Lock()
	c.form.SetImage(img)
	c.mu.Unlock()
}

// Restore replaces the form with a saved draft.
func (c *Console) Restore(s form.State) {
	c.mu.Lock()
	c.form = s
	c.mu.Unlock()
}

// Edit loads the displayed row with the given id into the form.
func (c *Console) Edit(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range c.blogs {
		if b.ID == id {
			c.form = form.Edit(b)
			return nil
		}
	}
	return ErrBlogNotFound
}

// Reset clears the form.
func (c *Console) Reset() {
	c.mu.Lock()
	c.form.Reset()
	c.mu.Unlock()
}

// Submit sends the draft: update when it has an id, create otherwise.
// On success the form is cleared and the blog list reloaded. On failure
// the form and lists are left untouched and the error is returned along
// with NoticeFailed.
func (c *Console) Submit(ctx context.Context) (string, error) {
	draft := c.Form()
	payload := draft.Payload()

	var (
		notice string
		err    error
	)
	if draft.Editing() {
		_, err = c.api.UpdateBlog(ctx, draft.ID, payload)
		notice = NoticeUpdated
	} else {
		_, err = c.api.CreateBlog(ctx, payload)
		notice = NoticeCreated
	}
	if err != nil {
		c.log.Errorf("Error submitting blog: %v", err)
		return NoticeFailed, err
	}

	c.log.Infof("blog saved: id=%d title=%q", draft.ID, draft.Title)
	c.Reset()
	c.ReloadBlogs(ctx)
	return notice, nil
}
