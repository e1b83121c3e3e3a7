package blogform

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/gommon/log"

	"github.com/eringen/blogform/api"
	"github.com/eringen/blogform/api/apitest"
)

type testSession struct {
	t       *testing.T
	app     *App
	cookies map[string]*http.Cookie
}

func setupTestApp(t *testing.T) (*App, *apitest.Server, *testSession) {
	t.Helper()
	srv := apitest.NewServer(
		[]api.Category{{ID: 1, Name: "Go"}, {ID: 2, Name: "Web"}},
		[]api.Blog{{ID: 3, Title: "First", Description: "one", Author: "ann", Category: 1, IsPublished: true, Image: "/media/blog_images/a.png"}},
	)
	t.Cleanup(srv.Close)

	app := New(Config{
		APIBaseURL:    srv.URL,
		SessionSecret: "test-secret",
		DraftsPath:    filepath.Join(t.TempDir(), "drafts.db"),
	})
	var logs bytes.Buffer
	app.Echo.Logger.SetOutput(&logs)
	app.Echo.Logger.SetLevel(log.ERROR)
	if err := app.Setup(); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { app.Close() })

	return app, srv, &testSession{t: t, app: app, cookies: make(map[string]*http.Cookie)}
}

func (s *testSession) do(req *http.Request) *httptest.ResponseRecorder {
	s.t.Helper()
	for _, c := range s.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.app.Echo.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		s.cookies[c.Name] = c
	}
	return rec
}

func (s *testSession) get(path string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (s *testSession) csrf() string {
	s.t.Helper()
	c, ok := s.cookies["_csrf"]
	if !ok {
		s.t.Fatal("no _csrf cookie; GET / first")
	}
	return c.Value
}

func (s *testSession) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	s.t.Helper()
	values.Set("_csrf", s.csrf())
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req)
}

func (s *testSession) postMultipart(path string, fields map[string]string, imageName string, image []byte) *httptest.ResponseRecorder {
	s.t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	_ = w.WriteField("_csrf", s.csrf())
	for k, v := range fields {
		_ = w.WriteField(k, v)
	}
	if imageName != "" {
		part, err := w.CreateFormFile("image", imageName)
		if err != nil {
			s.t.Fatalf("create form file: %v", err)
		}
		_, _ = part.Write(image)
	}
	w.Close()
	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return s.do(req)
}

func TestSetupRequiresSessionSecret(t *testing.T) {
	app := New(Config{DraftsPath: filepath.Join(t.TempDir(), "d.db")})
	if err := app.Setup(); err == nil {
		t.Fatal("expected error without SessionSecret")
	}
}

func TestConsolePageMountsBothLists(t *testing.T) {
	_, srv, s := setupTestApp(t)

	rec := s.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<h2>Add Blog</h2>", "<td>First</td>", `<option value="2">Web</option>`, "<td>Go</td>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
	if srv.ListCalls("/api/categories/") != 1 || srv.ListCalls("/api/blogs/") != 1 {
		t.Errorf("list calls = %d/%d, want 1/1", srv.ListCalls("/api/categories/"), srv.ListCalls("/api/blogs/"))
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if _, ok := s.cookies[sessionName]; !ok {
		t.Error("expected a session cookie")
	}
}

func TestConsolePageFetchFailureIsSilent(t *testing.T) {
	_, srv, s := setupTestApp(t)
	srv.SetFailLists("/api/categories/", true)
	srv.SetFailLists("/api/blogs/", true)

	rec := s.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if strings.Contains(body, "<td>First</td>") {
		t.Error("blog list should stay empty when the fetch fails")
	}
	if strings.Contains(body, "role=\"alert\"") {
		t.Error("fetch failures should not show a notice")
	}
}

func TestSubmitCreatesBlog(t *testing.T) {
	_, srv, s := setupTestApp(t)
	s.get("/")

	rec := s.postMultipart("/submit/", map[string]string{
		"title":       "Fresh",
		"description": "new post",
		"author":      "bob",
		"category":    "2",
		"isPublished": "true",
	}, "cover.png", []byte("png-bytes"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("write requests = %d, want 1", len(reqs))
	}
	r := reqs[0]
	if r.Method != http.MethodPost || r.Path != "/api/blogs/" {
		t.Errorf("request = %s %s, want POST /api/blogs/", r.Method, r.Path)
	}
	if r.Fields["title"] != "Fresh" || r.Fields["category"] != "2" || r.Fields["is_published"] != "true" {
		t.Errorf("fields = %v", r.Fields)
	}
	if r.ImageName != "cover.png" || string(r.ImageData) != "png-bytes" {
		t.Errorf("image = %q %q", r.ImageName, r.ImageData)
	}

	body := rec.Body.String()
	if !strings.Contains(body, "Blog added successfully!") {
		t.Error("missing success notice")
	}
	if !strings.Contains(body, "<h2>Add Blog</h2>") || strings.Contains(body, `value="Fresh"`) {
		t.Error("form should be reset after a successful create")
	}
	if !strings.Contains(body, "<td>Fresh</td>") {
		t.Error("blog list should be reloaded with the new post")
	}
	if srv.ListCalls("/api/blogs/") != 2 {
		t.Errorf("blog list calls = %d, want 2", srv.ListCalls("/api/blogs/"))
	}
}

func TestEditThenSubmitUpdatesBlog(t *testing.T) {
	_, srv, s := setupTestApp(t)
	s.get("/")

	rec := s.postForm("/edit/3/", url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("edit status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<h2>Edit Blog</h2>", `value="First"`, ">Update</button>", `<option value="1" selected>Go</option>`} {
		if !strings.Contains(body, want) {
			t.Errorf("edit page missing %q", want)
		}
	}

	rec = s.postMultipart("/submit/", map[string]string{
		"title":       "First, edited",
		"description": "one",
		"author":      "ann",
		"category":    "1",
	}, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d, want 200", rec.Code)
	}
	reqs := srv.Requests()
	if len(reqs) != 1 {
		t.Fatalf("write requests = %d, want 1", len(reqs))
	}
	if reqs[0].Method != http.MethodPut || reqs[0].Path != "/api/blogs/3/" {
		t.Errorf("request = %s %s, want PUT /api/blogs/3/", reqs[0].Method, reqs[0].Path)
	}
	if reqs[0].Fields["is_published"] != "false" {
		t.Errorf("is_published = %q, want false for an unchecked box", reqs[0].Fields["is_published"])
	}
	if reqs[0].ImageName != "" {
		t.Error("update without a new file should not send an image")
	}
	if !strings.Contains(rec.Body.String(), "Blog updated successfully!") {
		t.Error("missing update notice")
	}
}

func TestSubmitFailureKeepsDraftAndList(t *testing.T) {
	_, srv, s := setupTestApp(t)
	s.get("/")
	srv.SetFailWrites(true)

	rec := s.postMultipart("/submit/", map[string]string{"title": "Keep me", "author": "zed"}, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Failed to submit blog.") {
		t.Error("missing failure notice")
	}
	if !strings.Contains(body, `value="Keep me"`) || !strings.Contains(body, `value="zed"`) {
		t.Error("form values should survive a failed submit")
	}
	if !strings.Contains(body, "<td>First</td>") {
		t.Error("list should be left as it was")
	}
	if srv.ListCalls("/api/blogs/") != 1 {
		t.Errorf("blog list calls = %d, want 1 (no reload on failure)", srv.ListCalls("/api/blogs/"))
	}
}

func TestEditThenResetClearsForm(t *testing.T) {
	_, _, s := setupTestApp(t)
	s.get("/")
	s.postForm("/edit/3/", url.Values{})

	rec := s.postForm("/reset/", url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h2>Add Blog</h2>") {
		t.Error("reset should return to create mode")
	}
	if strings.Contains(body, `value="First"`) || strings.Contains(body, " checked>") {
		t.Error("reset should clear title and published flag")
	}
}

func TestEditUnknownBlog(t *testing.T) {
	_, _, s := setupTestApp(t)
	s.get("/")

	if rec := s.postForm("/edit/999/", url.Values{}); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if rec := s.postForm("/edit/abc/", url.Values{}); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFieldEndpointUpdatesDraft(t *testing.T) {
	_, _, s := setupTestApp(t)
	s.get("/")

	if rec := s.postForm("/field/", url.Values{"name": {"title"}, "value": {"Typed"}}); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec := s.postForm("/field/", url.Values{"name": {"isPublished"}, "value": {"true"}}); rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	body := s.get("/").Body.String()
	if !strings.Contains(body, `value="Typed"`) {
		t.Error("title change should be kept in the draft")
	}
	if !strings.Contains(body, " checked>") {
		t.Error("checkbox change should be kept in the draft")
	}

	s.postForm("/field/", url.Values{"name": {"isPublished"}, "value": {"false"}})
	body = s.get("/").Body.String()
	if strings.Contains(body, " checked>") {
		t.Error("unchecking should clear the flag")
	}
	if !strings.Contains(body, `value="Typed"`) {
		t.Error("toggling the checkbox should leave the title alone")
	}
}

func TestFieldEndpointHoldsImage(t *testing.T) {
	app, srv, s := setupTestApp(t)
	s.get("/")

	rec := s.postMultipart("/field/", map[string]string{"name": "image"}, "pic.png", []byte("img"))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if !strings.Contains(s.get("/").Body.String(), "pic.png") {
		t.Error("page should show the held file name")
	}

	// The held image goes out with the next submit even without a new upload.
	s.postMultipart("/submit/", map[string]string{"title": "With pic"}, "", nil)
	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].ImageName != "pic.png" {
		t.Errorf("requests = %+v", reqs)
	}
	if app.Workspace.Len() != 1 {
		t.Errorf("workspace consoles = %d, want 1", app.Workspace.Len())
	}
}

func TestPostWithoutCSRFIsForbidden(t *testing.T) {
	_, srv, s := setupTestApp(t)
	s.get("/")

	req := httptest.NewRequest(http.MethodPost, "/reset/", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if rec := s.do(req); rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if len(srv.Requests()) != 0 {
		t.Error("no API writes expected")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	app, _, s := setupTestApp(t)
	s.get("/")
	s.postForm("/field/", url.Values{"name": {"title"}, "value": {"mine"}})

	other := &testSession{t: t, app: app, cookies: make(map[string]*http.Cookie)}
	if strings.Contains(other.get("/").Body.String(), `value="mine"`) {
		t.Error("another session should not see this draft")
	}
}

func TestMediaRouteServesThumbnail(t *testing.T) {
	_, srv, s := setupTestApp(t)
	srv.SetMedia("/media/blog_images/a.png", testPNG(t, 300, 150))

	rec := s.get("/media/media/blog_images/a.png")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q, want image/jpeg", ct)
	}
	w, h := decodeSize(t, rec.Body.Bytes())
	if w != 100 || h != 50 {
		t.Errorf("size = %dx%d, want 100x50", w, h)
	}

	if rec := s.get("/media/missing.png"); rec.Code != http.StatusNotFound {
		t.Errorf("missing media status = %d, want 404", rec.Code)
	}
}

func TestStylesheetIsEmbedded(t *testing.T) {
	_, _, s := setupTestApp(t)
	rec := s.get("/public/blogform.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), ".blog-form") {
		t.Error("stylesheet content missing")
	}
}
