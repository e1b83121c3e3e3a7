package views

import (
	"strconv"
	"strings"

	"github.com/eringen/blogform/api"
)

// MediaPrefix is where the console serves thumbnails of API images.
const MediaPrefix = "/media"

// ImageSrc maps a blog's image field to an <img src>. Paths relative to the
// API host, and absolute URLs under apiBase, go through the thumbnail
// route; other absolute URLs are used as-is.
func ImageSrc(apiBase, image string) string {
	image = strings.TrimSpace(image)
	if image == "" {
		return ""
	}
	base := strings.TrimRight(apiBase, "/")
	if base != "" && strings.HasPrefix(image, base+"/") {
		image = strings.TrimPrefix(image, base)
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	if !strings.HasPrefix(image, "/") {
		image = "/" + image
	}
	return MediaPrefix + image
}

// CategoryName returns the category's display name, or its id when the
// category list does not contain it.
func CategoryName(categories []api.Category, id int64) string {
	for _, c := range categories {
		if c.ID == id {
			return c.Name
		}
	}
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

// YesNo renders the published flag in the table.
func YesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// ID formats an id for form values and URLs.
func ID(id int64) string {
	return strconv.FormatInt(id, 10)
}
