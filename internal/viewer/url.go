package viewer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const viewPrefix = "/view/"

// Location is a parsed view URL.
type Location struct {
	Tag  string
	File string
	Mode Mode
}

// BuildURL returns the view URL for file under tag. Slideshow state and
// delay are carried only while the slideshow is on; random is carried
// whenever it is enabled.
func BuildURL(tag, file string, mode Mode) string {
	q := url.Values{}
	q.Set("file", file)
	if mode.Slideshow {
		q.Set("slideshow", "true")
		q.Set("delay", strconv.Itoa(mode.DelayMs))
	}
	if mode.Random {
		q.Set("random", "true")
	}
	return viewPrefix + url.PathEscape(tag) + "?" + q.Encode()
}

// GalleryURL returns the gallery page of a tag.
func GalleryURL(tag string) string {
	return "/tag/" + url.PathEscape(tag)
}

// ParseURL is the inverse of BuildURL. A missing or malformed delay falls
// back to DefaultDelay; any delay is clamped to the valid range.
func ParseURL(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("parse view URL: %w", err)
	}
	if !strings.HasPrefix(u.Path, viewPrefix) {
		return Location{}, fmt.Errorf("not a view URL: %q", raw)
	}
	tag := strings.TrimPrefix(u.Path, viewPrefix)
	if tag == "" {
		return Location{}, fmt.Errorf("view URL has no tag: %q", raw)
	}

	q := u.Query()
	file := q.Get("file")
	if file == "" {
		return Location{}, fmt.Errorf("view URL has no file: %q", raw)
	}

	delay, err := strconv.Atoi(q.Get("delay"))
	if err != nil {
		delay = DefaultDelay
	}
	return Location{
		Tag:  tag,
		File: file,
		Mode: Mode{
			Slideshow: q.Get("slideshow") == "true",
			Random:    q.Get("random") == "true",
			DelayMs:   ClampDelay(delay),
		},
	}, nil
}

// URL returns the view URL of the location.
func (l Location) URL() string {
	return BuildURL(l.Tag, l.File, l.Mode)
}
