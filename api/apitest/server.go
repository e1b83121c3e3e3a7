// Package apitest provides an in-memory blog API on httptest.Server for tests.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/eringen/blogform/api"
)

// Request is a write request received by the fake server.
type Request struct {
	Method    string
	Path      string
	Fields    map[string]string
	ImageName string
	ImageData []byte
}

// Server is a fake /api/categories/ + /api/blogs/ backend.
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	categories []api.Category
	blogs      []api.Blog
	requests   []Request
	listCalls  map[string]int
	nextID     int64
	media      map[string][]byte

	// failLists makes GET requests on the named list path answer 500.
	failLists map[string]bool
	// failWrites makes POST and PUT answer 400.
	failWrites bool
}

// NewServer starts a fake API preloaded with categories and blogs.
func NewServer(categories []api.Category, blogs []api.Blog) *Server {
	s := &Server{
		categories: categories,
		blogs:      blogs,
		listCalls:  make(map[string]int),
		media:      make(map[string][]byte),
		failLists:  make(map[string]bool),
		nextID:     1,
	}
	for _, b := range blogs {
		if b.ID >= s.nextID {
			s.nextID = b.ID + 1
		}
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// SetMedia registers a file served at path.
func (s *Server) SetMedia(path string, data []byte) {
	s.mu.Lock()
	s.media[path] = data
	s.mu.Unlock()
}

// Requests returns the write requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ListCalls returns how many GET requests hit path.
func (s *Server) ListCalls(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listCalls[path]
}

// SetFailLists toggles failures for a list path.
func (s *Server) SetFailLists(path string, fail bool) {
	s.mu.Lock()
	s.failLists[path] = fail
	s.mu.Unlock()
}

// SetFailWrites toggles failures for create and update.
func (s *Server) SetFailWrites(fail bool) {
	s.mu.Lock()
	s.failWrites = fail
	s.mu.Unlock()
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case r.Method == http.MethodGet && (r.URL.Path == "/api/categories/" || r.URL.Path == "/api/blogs/"):
		s.listCalls[r.URL.Path]++
		if s.failLists[r.URL.Path] {
			http.Error(w, `{"detail":"boom"}`, http.StatusInternalServerError)
			return
		}
		if r.URL.Path == "/api/categories/" {
			writeJSON(w, http.StatusOK, s.categories)
			return
		}
		writeJSON(w, http.StatusOK, s.blogs)
	case r.Method == http.MethodGet:
		data, ok := s.media[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", http.DetectContentType(data))
		_, _ = w.Write(data)
	case r.Method == http.MethodPost && r.URL.Path == "/api/blogs/":
		s.write(w, r, 0)
	case r.Method == http.MethodPut && strings.HasPrefix(r.URL.Path, "/api/blogs/"):
		idStr := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/blogs/"), "/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		s.write(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, id int64) {
	req := Request{Method: r.Method, Path: r.URL.Path, Fields: make(map[string]string)}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for k, v := range r.MultipartForm.Value {
		if len(v) > 0 {
			req.Fields[k] = v[0]
		}
	}
	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		f, err := files[0].Open()
		if err == nil {
			req.ImageName = files[0].Filename
			req.ImageData, _ = io.ReadAll(f)
			f.Close()
		}
	}
	s.requests = append(s.requests, req)

	if s.failWrites {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}

	category, _ := strconv.ParseInt(req.Fields["category"], 10, 64)
	blog := api.Blog{
		Title:       req.Fields["title"],
		Description: req.Fields["description"],
		Author:      req.Fields["author"],
		Category:    category,
		IsPublished: req.Fields["is_published"] == "true",
	}
	if req.ImageName != "" {
		blog.Image = "/media/blog_images/" + req.ImageName
	}

	if id == 0 {
		blog.ID = s.nextID
		s.nextID++
		s.blogs = append(s.blogs, blog)
		writeJSON(w, http.StatusCreated, blog)
		return
	}
	for i := range s.blogs {
		if s.blogs[i].ID == id {
			blog.ID = id
			if blog.Image == "" {
				blog.Image = s.blogs[i].Image
			}
			s.blogs[i] = blog
			writeJSON(w, http.StatusOK, blog)
			return
		}
	}
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
