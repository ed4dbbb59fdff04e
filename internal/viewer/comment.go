package viewer

import "strings"

// CommentPlaceholder is displayed when a file has no comment.
const CommentPlaceholder = "No comment yet"

// CommentSession tracks the displayed comment and an in-progress edit.
type CommentSession struct {
	Display  string // saved comment; "" renders as the placeholder
	Draft    string
	Original string
	Editing  bool
	Saving   bool
}

// Shown returns the text to render when not editing.
func (c *CommentSession) Shown() string {
	if c.Display == "" {
		return CommentPlaceholder
	}
	return c.Display
}

// BeginEdit starts editing. The placeholder is never used as the draft.
func (c *CommentSession) BeginEdit() {
	c.Original = c.Display
	c.Draft = c.Display
	if c.Draft == CommentPlaceholder {
		c.Draft = ""
	}
	c.Editing = true
}

// Commit exits edit mode and returns the trimmed draft to submit.
func (c *CommentSession) Commit() string {
	c.Editing = false
	c.Saving = true
	return strings.TrimSpace(c.Draft)
}

// Cancel exits edit mode without saving.
func (c *CommentSession) Cancel() {
	c.Editing = false
	c.Draft = c.Original
}

// Saved records a successful save of text.
func (c *CommentSession) Saved(text string) {
	c.Saving = false
	c.Display = text
}

// SaveFailed records a failed save; the displayed text is unchanged.
func (c *CommentSession) SaveFailed() {
	c.Saving = false
}
