// Package blogform is a server-rendered console for writing and editing
// blog posts held by a remote REST API. Each browser session gets its own
// form-and-table state; the API stays the source of truth for posts.
package blogform

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"

	"github.com/eringen/blogform/api"
	"github.com/eringen/blogform/views"
)

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Console     func(p views.Page) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews renders the embedded html templates.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Console:     views.ConsolePage,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App is the central blogform application. It wires together the REST
// client, the draft store, the per-session workspace and the handlers.
type App struct {
	Config    Config
	Echo      *echo.Echo
	Store     *Store
	Workspace *Workspace
	Thumbs    *ThumbCache
	Views     ViewFuncs

	api BlogAPI
}

// New creates an App. Setup or Start must be called before serving.
func New(cfg Config, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Views:  DefaultViews(),
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(log.INFO)

	for _, opt := range opts {
		opt(a)
	}
	if a.api == nil {
		a.api = api.NewClient(cfg.APIBaseURL, api.WithTimeout(cfg.APITimeout))
	}
	return a
}

// Setup opens the draft store and registers middleware and routes.
func (a *App) Setup() error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("blogform: SessionSecret is required")
	}

	store, err := NewStore(a.Config.DraftsPath)
	if err != nil {
		return fmt.Errorf("blogform: init store: %w", err)
	}
	a.Store = store

	a.Workspace = NewWorkspace(a.api, a.Store, a.Echo.Logger, a.Config.SessionMaxAge)

	if media, ok := a.api.(MediaFetcher); ok {
		a.Thumbs = NewThumbCache(media, a.Config.ThumbCacheTTL)
	}

	a.setupMiddleware()
	a.setupRoutes()
	return nil
}

// Start sets the app up and serves until the server is shut down.
func (a *App) Start() error {
	if err := a.Setup(); err != nil {
		return err
	}
	a.Echo.Logger.Infof("blogform listening on %s, API %s", a.Config.Addr, a.Config.APIBaseURL)
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/blogform.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.GET("/", a.handleConsole)
	e.POST("/field/", a.handleField)
	e.POST("/submit/", a.handleSubmit)
	e.POST("/edit/:id/", a.handleEdit)
	e.POST("/reset/", a.handleReset)

	if a.Thumbs != nil {
		e.GET(views.MediaPrefix+"/*", a.handleMedia)
	}
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Workspace != nil {
		a.Workspace.Close()
	}
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
