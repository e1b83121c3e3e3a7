// Package api is an HTTP client for the blog REST API (categories and blogs).
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the API host used when none is configured.
const DefaultBaseURL = "http://127.0.0.1:8000"

const (
	categoriesPath = "/api/categories/"
	blogsPath      = "/api/blogs/"

	maxErrorBody = 4 << 10
	maxMediaSize = 20 << 20
)

// Client talks to the blog API rooted at baseURL.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets a per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a client for baseURL. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getJSON(ctx, categoriesPath, &out); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

func (c *Client) ListBlogs(ctx context.Context) ([]Blog, error) {
	var out []Blog
	if err := c.getJSON(ctx, blogsPath, &out); err != nil {
		return nil, fmt.Errorf("list blogs: %w", err)
	}
	return out, nil
}

// CreateBlog posts p to the collection endpoint.
func (c *Client) CreateBlog(ctx context.Context, p Payload) (Blog, error) {
	blog, err := c.sendMultipart(ctx, http.MethodPost, blogsPath, p)
	if err != nil {
		return Blog{}, fmt.Errorf("create blog: %w", err)
	}
	return blog, nil
}

// UpdateBlog replaces the blog with the given id.
func (c *Client) UpdateBlog(ctx context.Context, id int64, p Payload) (Blog, error) {
	path := blogsPath + strconv.FormatInt(id, 10) + "/"
	blog, err := c.sendMultipart(ctx, http.MethodPut, path, p)
	if err != nil {
		return Blog{}, fmt.Errorf("update blog %d: %w", id, err)
	}
	return blog, nil
}

// FetchMedia downloads a file referenced by a blog's image field.
// path must be relative to the API root.
func (c *Client) FetchMedia(ctx context.Context, path string) ([]byte, string, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, "", fmt.Errorf("fetch media: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) sendMultipart(ctx context.Context, method, path string, p Payload) (Blog, error) {
	body, contentType, err := EncodePayload(p)
	if err != nil {
		return Blog{}, err
	}
	resp, err := c.do(ctx, method, path, body, contentType)
	if err != nil {
		return Blog{}, err
	}
	defer resp.Body.Close()

	var blog Blog
	// Some deployments answer with an empty body; the caller reloads the list anyway.
	if err := json.NewDecoder(resp.Body).Decode(&blog); err != nil && err != io.EOF {
		return Blog{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return blog, nil
}

// do issues the request and returns the response for status < 400.
// The caller closes the body.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{
			Method: method,
			Path:   path,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(raw)),
		}
	}
	return resp, nil
}

// EncodePayload writes p as multipart/form-data and returns the body and
// its Content-Type. is_published is sent as "true" or "false"; image is
// only included when present.
func EncodePayload(p Payload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"title", p.Title},
		{"description", p.Description},
		{"author", p.Author},
		{"category", p.Category},
		{"is_published", strconv.FormatBool(p.IsPublished)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if p.Image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, p.Image.Name))
		ct := p.Image.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(p.Image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
