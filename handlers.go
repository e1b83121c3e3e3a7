package blogform

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"

	"github.com/eringen/blogform/form"
	"github.com/eringen/blogform/views"
)

const maxUploadSize = 10 << 20 // 10MB

// handleConsole mounts the session's console: both lists are fetched
// before the page renders.
func (a *App) handleConsole(c echo.Context) error {
	console, _, err := a.console(c)
	if err != nil {
		return err
	}
	console.Mount(c.Request().Context())
	return a.renderConsole(c, console, "", false)
}

// handleField applies a single input event and answers 204.
func (a *App) handleField(c echo.Context) error {
	console, sid, err := a.console(c)
	if err != nil {
		return err
	}
	name := c.FormValue("name")
	if name == form.FieldImage {
		img, err := formImage(c)
		if err != nil {
			return err
		}
		console.SetImage(img)
	} else {
		console.Change(name, c.FormValue("value"))
	}
	a.Workspace.Persist(sid, console)
	return c.NoContent(http.StatusNoContent)
}

// handleSubmit copies the posted fields into the draft and submits it.
// A failed submit renders the page with the draft and lists untouched.
func (a *App) handleSubmit(c echo.Context) error {
	console, sid, err := a.console(c)
	if err != nil {
		return err
	}
	for _, name := range []string{form.FieldTitle, form.FieldDescription, form.FieldAuthor, form.FieldCategory} {
		console.Change(name, c.FormValue(name))
	}
	console.SetPublished(c.FormValue(form.FieldIsPublished) != "")
	img, err := formImage(c)
	if err != nil {
		return err
	}
	if img != nil {
		console.SetImage(img)
	}

	notice, submitErr := console.Submit(c.Request().Context())
	a.Workspace.Persist(sid, console)
	return a.renderConsole(c, console, notice, submitErr != nil)
}

// handleEdit loads a displayed row into the form.
func (a *App) handleEdit(c echo.Context) error {
	console, sid, err := a.console(c)
	if err != nil {
		return err
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err := console.Edit(id); err != nil {
		if errors.Is(err, ErrBlogNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	a.Workspace.Persist(sid, console)
	return a.renderConsole(c, console, "", false)
}

func (a *App) handleReset(c echo.Context) error {
	console, sid, err := a.console(c)
	if err != nil {
		return err
	}
	console.Reset()
	a.Workspace.Persist(sid, console)
	return a.renderConsole(c, console, "", false)
}

func (a *App) console(c echo.Context) (*Console, string, error) {
	sid, err := SessionID(c)
	if err != nil {
		return nil, "", fmt.Errorf("session: %w", err)
	}
	return a.Workspace.Console(sid), sid, nil
}

func (a *App) renderConsole(c echo.Context, console *Console, notice string, failed bool) error {
	snap := console.Snapshot()
	return Render(c, a.Views.Console(views.Page{
		Form:        snap.Form,
		Categories:  snap.Categories,
		Blogs:       snap.Blogs,
		Notice:      notice,
		NoticeError: failed,
		CSRFToken:   CsrfToken(c),
		APIBaseURL:  a.Config.APIBaseURL,
	}))
}

// formImage reads the optional "image" upload. It returns nil when no
// file was chosen.
func formImage(c echo.Context) (*form.Image, error) {
	fh, err := c.FormFile(form.FieldImage)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid image upload")
	}
	if fh.Size > maxUploadSize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large (max 10MB)")
	}
	return readUpload(fh)
}

func readUpload(fh *multipart.FileHeader) (*form.Image, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()
	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large (max 10MB)")
	}
	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return &form.Image{Name: fh.Filename, ContentType: ct, Data: data}, nil
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

// Render writes a templ component as an HTTP 200 HTML response.
func Render(c echo.Context, cmp templ.Component) error {
	return RenderStatus(c, http.StatusOK, cmp)
}

// RenderStatus writes a templ component with a specific HTTP status code.
func RenderStatus(c echo.Context, code int, cmp templ.Component) error {
	c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
	c.Response().WriteHeader(code)
	return cmp.Render(c.Request().Context(), c.Response().Writer)
}
