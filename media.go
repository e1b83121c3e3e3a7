package blogform

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
)

const (
	thumbWidth   = 100
	jpegQuality  = 80
	maxThumbKeys = 512
)

// MediaFetcher downloads images referenced by blog records.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, path string) ([]byte, string, error)
}

type thumbEntry struct {
	data    []byte
	fetched time.Time
}

// ThumbCache serves table thumbnails of API images, scaled to thumbWidth
// and re-encoded as JPEG, keeping each for ttl.
type ThumbCache struct {
	mu      sync.RWMutex
	entries map[string]thumbEntry
	ttl     time.Duration
	media   MediaFetcher
}

// NewThumbCache creates a ThumbCache backed by media.
func NewThumbCache(media MediaFetcher, ttl time.Duration) *ThumbCache {
	return &ThumbCache{entries: make(map[string]thumbEntry), ttl: ttl, media: media}
}

// Get returns the thumbnail for path, fetching and scaling it on a miss.
func (t *ThumbCache) Get(ctx context.Context, path string) ([]byte, error) {
	t.mu.RLock()
	e, ok := t.entries[path]
	t.mu.RUnlock()
	if ok && time.Since(e.fetched) < t.ttl {
		return e.data, nil
	}

	raw, _, err := t.media.FetchMedia(ctx, path)
	if err != nil {
		return nil, err
	}
	data, err := makeThumbnail(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	if len(t.entries) >= maxThumbKeys {
		t.dropExpiredLocked()
	}
	t.entries[path] = thumbEntry{data: data, fetched: time.Now()}
	t.mu.Unlock()
	return data, nil
}

// Invalidate clears the cache so the next read triggers a fresh load.
func (t *ThumbCache) Invalidate() {
	t.mu.Lock()
	t.entries = make(map[string]thumbEntry)
	t.mu.Unlock()
}

// dropExpiredLocked removes expired entries, or everything when none has
// expired yet.
func (t *ThumbCache) dropExpiredLocked() {
	before := len(t.entries)
	for k, e := range t.entries {
		if time.Since(e.fetched) >= t.ttl {
			delete(t.entries, k)
		}
	}
	if len(t.entries) == before {
		t.entries = make(map[string]thumbEntry)
	}
}

// makeThumbnail decodes an image, scales it down to thumbWidth when wider
// and encodes it as JPEG.
func makeThumbnail(src *bytes.Reader) ([]byte, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > thumbWidth {
		newH := h * thumbWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, thumbWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (a *App) handleMedia(c echo.Context) error {
	path := "/" + strings.TrimLeft(c.Param("*"), "/")
	if path == "/" || strings.Contains(path, "..") {
		return c.NoContent(http.StatusNotFound)
	}
	data, err := a.Thumbs.Get(c.Request().Context(), path)
	if err != nil {
		c.Logger().Errorf("thumbnail %s: %v", path, err)
		return c.NoContent(http.StatusNotFound)
	}
	return c.Blob(http.StatusOK, "image/jpeg", data)
}
