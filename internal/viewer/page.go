package viewer

import (
	"errors"
	"fmt"
	"slices"
)

// ErrFileNotInList is returned when a file is not part of its tag's list.
var ErrFileNotInList = errors.New("file not in tag list")

// Context describes the file a page is showing.
type Context struct {
	Tag      string
	FilePath string
	PrevFile string
	NextFile string
	Index    int // zero-based position in the tag's list
	Total    int

	IsText        bool
	IsConvertible bool

	// Tags and Comment start empty: the JSON API has no per-file read
	// endpoint, so they are filled in from mutation responses.
	Tags    []string
	Comment string
}

// NewContext builds the context for file within tag's ordered list.
// Neighbours wrap around at both ends.
func NewContext(tag, file string, list []string) (Context, error) {
	idx := slices.Index(list, file)
	if idx < 0 {
		return Context{}, fmt.Errorf("%w: %q in %q", ErrFileNotInList, file, tag)
	}
	n := len(list)
	return Context{
		Tag:           tag,
		FilePath:      file,
		PrevFile:      list[(idx-1+n)%n],
		NextFile:      list[(idx+1)%n],
		Index:         idx,
		Total:         n,
		IsText:        IsText(file),
		IsConvertible: IsConvertible(file),
		Tags:          []string{},
	}, nil
}

// Position returns the 1-based "i / n" label for the page.
func (c Context) Position() string {
	if c.Total == 0 {
		return ""
	}
	return fmt.Sprintf("%d / %d", c.Index+1, c.Total)
}
