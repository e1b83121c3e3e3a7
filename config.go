package blogform

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/blogform/api"
)

// Config holds all configuration for a blogform console.
type Config struct {
	APIBaseURL string        // Blog API root (default "http://127.0.0.1:8000")
	APITimeout time.Duration // Per-request timeout, 0 for none (default 0)

	Addr       string // Listen address (default ":3000")
	DraftsPath string // SQLite path for form drafts (default "data/drafts.db")

	SessionSecret string        // Required: session cookie secret
	CookieSecure  bool          // Set true for HTTPS
	SessionMaxAge time.Duration // Session lifetime and console idle limit (default 12h)

	ThumbCacheTTL time.Duration // Thumbnail cache TTL (default 10min)
}

func (c *Config) setDefaults() {
	if c.APIBaseURL == "" {
		c.APIBaseURL = api.DefaultBaseURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DraftsPath == "" {
		c.DraftsPath = "data/drafts.db"
	}
	if c.SessionMaxAge == 0 {
		c.SessionMaxAge = 12 * time.Hour
	}
	if c.ThumbCacheTTL == 0 {
		c.ThumbCacheTTL = 10 * time.Minute
	}
}

// ConfigFromEnv reads BLOGFORM_* variables, loading a .env file first when
// one exists. Unset values keep their defaults.
func ConfigFromEnv() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("blogform: load .env: %w", err)
	}

	cfg := Config{
		APIBaseURL:    EnvOr("BLOGFORM_API_URL", ""),
		Addr:          EnvOr("BLOGFORM_ADDR", ""),
		DraftsPath:    EnvOr("BLOGFORM_DRAFTS_PATH", ""),
		SessionSecret: os.Getenv("BLOGFORM_SESSION_SECRET"),
		CookieSecure:  strings.EqualFold(os.Getenv("BLOGFORM_COOKIE_SECURE"), "true"),
	}
	var err error
	if cfg.APITimeout, err = envDuration("BLOGFORM_API_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if cfg.ThumbCacheTTL, err = envDuration("BLOGFORM_THUMB_TTL"); err != nil {
		return Config{}, err
	}
	if cfg.SessionMaxAge, err = envDuration("BLOGFORM_SESSION_MAX_AGE"); err != nil {
		return Config{}, err
	}
	cfg.setDefaults()
	return cfg, nil
}

// envDuration accepts Go durations ("30s") or plain seconds ("30").
func envDuration(key string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("blogform: invalid %s %q: %w", key, v, err)
	}
	return d, nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Option configures additional App behavior.
type Option func(*App)

// WithAPI replaces the REST client, mainly for tests.
func WithAPI(client BlogAPI) Option {
	return func(a *App) {
		a.api = client
	}
}

// WithViews overrides the default page components.
func WithViews(v ViewFuncs) Option {
	return func(a *App) {
		a.Views = v
	}
}
