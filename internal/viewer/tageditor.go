package viewer

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// HeartTag is the favourite tag added by the heart shortcut.
const HeartTag = "❤️"

var starTags = [...]string{"1-★", "2-★★", "3-★★★", "4-★★★★", "5-★★★★★"}

// StarTag returns the rating tag for n stars (1..5).
func StarTag(n int) (string, bool) {
	if n < 1 || n > len(starTags) {
		return "", false
	}
	return starTags[n-1], true
}

// TagEditor is the state of the add-tag input and its suggestions.
type TagEditor struct {
	Active   bool
	Query    string
	Matches  []string
	Selected int // -1 means no suggestion is selected

	vocabulary []string
}

// NewTagEditor returns an inactive editor.
func NewTagEditor() *TagEditor {
	return &TagEditor{Selected: -1}
}

// SetVocabulary replaces the tags offered as suggestions.
func (e *TagEditor) SetVocabulary(tags []string) {
	e.vocabulary = tags
	if !e.Active {
		return
	}
	var highlighted string
	if e.Selected >= 0 && e.Selected < len(e.Matches) {
		highlighted = e.Matches[e.Selected]
	}
	e.SetQuery(e.Query)
	if highlighted != "" {
		e.Selected = slices.Index(e.Matches, highlighted)
	}
}

// Vocabulary returns the known tags.
func (e *TagEditor) Vocabulary() []string { return e.vocabulary }

// Activate enters edit mode with an empty query.
func (e *TagEditor) Activate() {
	e.Active = true
	e.Query = ""
	e.Matches = nil
	e.Selected = -1
}

// SetQuery filters the vocabulary to tags containing text, ignoring case.
// The selection is reset.
func (e *TagEditor) SetQuery(text string) {
	e.Query = text
	e.Selected = -1
	e.Matches = nil
	if text == "" {
		return
	}
	fold := cases.Fold()
	needle := fold.String(text)
	for _, tag := range e.vocabulary {
		if strings.Contains(fold.String(tag), needle) {
			e.Matches = append(e.Matches, tag)
		}
	}
}

// MoveSelection moves the highlighted suggestion, clamped to
// [-1, len(Matches)-1].
func (e *TagEditor) MoveSelection(delta int) {
	e.Selected = min(max(e.Selected+delta, -1), len(e.Matches)-1)
}

// Confirm returns the tag to add: the selected suggestion, else the trimmed
// query. The editor is exited either way.
func (e *TagEditor) Confirm() (string, bool) {
	defer e.Cancel()
	if e.Selected >= 0 && e.Selected < len(e.Matches) {
		return e.Matches[e.Selected], true
	}
	if tag := strings.TrimSpace(e.Query); tag != "" {
		return tag, true
	}
	return "", false
}

// Cancel exits edit mode.
func (e *TagEditor) Cancel() {
	e.Active = false
	e.Query = ""
	e.Matches = nil
	e.Selected = -1
}
