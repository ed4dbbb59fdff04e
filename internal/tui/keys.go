package tui

import (
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
)

// action names a viewer command bound to one or more keys.
type action string

const (
	actionPrev            action = "prev"
	actionNext            action = "next"
	actionEscape          action = "escape"
	actionToggleSlideshow action = "toggle-slideshow"
	actionToggleRandom    action = "toggle-random"
	actionDelete          action = "delete"
	actionFaster          action = "faster"
	actionSlower          action = "slower"
	actionTag             action = "tag"
	actionComment         action = "comment"
	actionQuickLook       action = "quicklook"
	actionHeart           action = "heart"
	actionStar1           action = "star-1"
	actionStar2           action = "star-2"
	actionStar3           action = "star-3"
	actionStar4           action = "star-4"
	actionStar5           action = "star-5"
	actionShutdown        action = "shutdown"
	actionHelp            action = "help"
	actionTagPrev         action = "tag-prev"
	actionTagNext         action = "tag-next"
	actionTagRemove       action = "tag-remove"
	actionTagOpen         action = "tag-open"
)

// keymap maps normalized key strings to actions.
type keymap map[string]action

func (km keymap) bind(a action, keys ...string) {
	for _, k := range keys {
		km[k] = a
	}
}

// lookup returns the action bound to a normalized key.
func (km keymap) lookup(key string) (action, bool) {
	a, ok := km[key]
	return a, ok
}

// defaultKeymap returns the viewer's bindings.
func defaultKeymap() keymap {
	km := keymap{}
	km.bind(actionPrev, "left")
	km.bind(actionNext, "right")
	km.bind(actionEscape, "esc")
	km.bind(actionToggleSlideshow, "s")
	km.bind(actionToggleRandom, "r")
	km.bind(actionDelete, "x")
	km.bind(actionFaster, "+", "=")
	km.bind(actionSlower, "-", "_")
	km.bind(actionTag, "t")
	km.bind(actionComment, "c")
	km.bind(actionQuickLook, "q")
	km.bind(actionHeart, "l")
	km.bind(actionStar1, "1")
	km.bind(actionStar2, "2")
	km.bind(actionStar3, "3")
	km.bind(actionStar4, "4")
	km.bind(actionStar5, "5")
	km.bind(actionShutdown, "ctrl+q")
	km.bind(actionHelp, "?")
	km.bind(actionTagPrev, "[")
	km.bind(actionTagNext, "]")
	km.bind(actionTagRemove, "backspace")
	km.bind(actionTagOpen, "o")
	return km
}

var viewerKeys = defaultKeymap()

// normalizeKey folds single letters to lower case and drops alt-modified
// keys, which are never bound.
func normalizeKey(msg tea.KeyMsg) string {
	if msg.Alt {
		return ""
	}
	s := msg.String()
	if msg.Type == tea.KeyRunes && utf8.RuneCountInString(s) == 1 {
		return strings.ToLower(s)
	}
	return s
}

// handleKeyPress routes a key to the modal, the focused editor, or the
// keymap, in that order.
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		m.slideshow.Stop()
		return m, tea.Quit
	}

	if m.modal != modalNone {
		return m.handleModalKeys(msg)
	}

	switch m.focus {
	case focusTagInput:
		return m.handleTagInputKeys(msg)
	case focusComment:
		return m.handleCommentKeys(msg)
	}

	a, ok := viewerKeys.lookup(normalizeKey(msg))
	if !ok {
		return m, nil
	}
	return m.dispatch(a)
}

// dispatch runs the handler for a.
func (m Model) dispatch(a action) (Model, tea.Cmd) {
	switch a {
	case actionPrev:
		return m.prevFile()
	case actionNext:
		return m.nextFile()
	case actionEscape:
		return m.escape()
	case actionToggleSlideshow:
		return m.toggleSlideshow()
	case actionToggleRandom:
		return m.toggleRandom()
	case actionDelete:
		return m.confirmDelete()
	case actionFaster:
		return m.adjustDelay(true)
	case actionSlower:
		return m.adjustDelay(false)
	case actionTag:
		return m.openTagInput()
	case actionComment:
		return m.editComment()
	case actionQuickLook:
		return m.quickLook()
	case actionHeart:
		return m.addHeart()
	case actionStar1, actionStar2, actionStar3, actionStar4, actionStar5:
		return m.addStars(int(a[len(a)-1] - '0'))
	case actionShutdown:
		return m.confirmShutdown()
	case actionHelp:
		m.modal = modalHelp
		return m, nil
	case actionTagPrev:
		return m.selectTag(-1)
	case actionTagNext:
		return m.selectTag(1)
	case actionTagRemove:
		return m.removeSelectedTag()
	case actionTagOpen:
		return m.openSelectedTag()
	}
	return m, nil
}

// handleTagInputKeys handles keys while the tag input has focus.
func (m Model) handleTagInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		tag, ok := m.tagEditor.Confirm()
		m.closeTagInput()
		if !ok {
			return m, nil
		}
		return m, m.addTag(tag)
	case tea.KeyEsc:
		m.tagEditor.Cancel()
		m.closeTagInput()
		return m, nil
	case tea.KeyUp:
		m.tagEditor.MoveSelection(-1)
		return m, nil
	case tea.KeyDown:
		m.tagEditor.MoveSelection(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.tagInput, cmd = m.tagInput.Update(msg)
	if v := m.tagInput.Value(); v != m.tagEditor.Query {
		m.tagEditor.SetQuery(v)
	}
	return m, cmd
}

// handleCommentKeys handles keys while the comment editor has focus.
func (m Model) handleCommentKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+s", "tab":
		cmd := m.commitComment()
		return m, cmd
	case "esc":
		m.comment.Cancel()
		m.focus = focusNone
		m.commentEditor.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.commentEditor, cmd = m.commentEditor.Update(msg)
	m.comment.Draft = m.commentEditor.Value()
	return m, cmd
}

// handleModalKeys handles keys while a modal is open.
func (m Model) handleModalKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.modal {
	case modalDeleteConfirm:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "y", "Y":
			m.busy = true
			m.modalResult = "Deleting..."
			return m, m.deleteFile()
		case "n", "N", "esc":
			m.modal = modalNone
		}
		return m, nil

	case modalShutdownConfirm:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "y", "Y":
			m.busy = true
			m.modalResult = "Shutting down..."
			return m, m.shutdownServer()
		case "n", "N", "esc":
			m.modal = modalNone
		}
		return m, nil

	case modalDeleteResult:
		// A successful delete advances on its own
		if m.busy {
			return m, nil
		}
		m.modal = modalNone
		m.modalResult = ""
		return m, nil

	case modalShutdownResult:
		// Quitting
		return m, nil

	case modalHelp:
		m.modal = modalNone
		return m, nil
	}
	return m, nil
}
