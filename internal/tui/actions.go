package tui

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/mediaview/internal/remote"
	"github.com/wesm/mediaview/internal/viewer"
)

// prevFile returns to the previously visited page.
func (m Model) prevFile() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	m.closeTagInput()
	return m.goBack()
}

// nextFile opens the next file, or a random one in random mode.
func (m Model) nextFile() (Model, tea.Cmd) {
	m.closeTagInput()
	return m.advance()
}

// escape stops a running slideshow; otherwise it opens the tag's gallery.
func (m Model) escape() (Model, tea.Cmd) {
	if m.mode.Slideshow {
		return m.toggleSlideshow()
	}
	return m.openGallery(m.page.Tag)
}

// openGallery opens the first file of tag in sequential order.
func (m Model) openGallery(tag string) (Model, tea.Cmd) {
	if !m.loaded || tag == "" {
		return m, nil
	}
	m.loading = true
	return m, m.resolveGallery(tag)
}

// toggleSlideshow starts or stops automatic advance.
func (m Model) toggleSlideshow() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	m.mode.Slideshow = !m.mode.Slideshow
	m.loc.Mode = m.mode

	if !m.mode.Slideshow {
		m.slideshow.Stop()
		return m.showFlash("Slideshow stopped")
	}
	start := m.slideshow.Start(m.mode.Interval())
	flash := m.flash("Slideshow started")
	return m, tea.Batch(start, flash)
}

// toggleRandom switches between random and sequential advance.
func (m Model) toggleRandom() (Model, tea.Cmd) {
	m.mode.Random = !m.mode.Random
	m.loc.Mode = m.mode
	if m.mode.Random {
		return m.showFlash("Random mode ON")
	}
	return m.showFlash("Sequential mode ON")
}

// adjustDelay changes the slideshow period by one step and restarts a
// running countdown at the new period.
func (m Model) adjustDelay(faster bool) (Model, tea.Cmd) {
	if faster {
		m.mode = m.mode.Faster()
	} else {
		m.mode = m.mode.Slower()
	}
	m.loc.Mode = m.mode

	retime := m.slideshow.Retime(m.mode.Interval())
	secs := strconv.FormatFloat(float64(m.mode.DelayMs)/1000, 'f', -1, 64)
	flash := m.flash("Timing: " + secs + "s")
	return m, tea.Batch(retime, flash)
}

// openTagInput shows and focuses the add-tag input.
func (m Model) openTagInput() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	m.tagEditor.Activate()
	m.tagInput.Reset()
	m.focus = focusTagInput
	cmd := m.tagInput.Focus()
	return m, cmd
}

// closeTagInput hides the add-tag input without adding anything.
func (m *Model) closeTagInput() {
	if m.tagEditor.Active {
		m.tagEditor.Cancel()
	}
	if m.focus == focusTagInput {
		m.focus = focusNone
	}
	m.tagInput.Blur()
	m.tagInput.Reset()
}

// editComment opens the comment editor on the displayed comment.
func (m Model) editComment() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	m.comment.BeginEdit()
	m.commentEditor.SetValue(m.comment.Draft)
	m.focus = focusComment
	cmd := m.commentEditor.Focus()
	return m, cmd
}

// commitComment leaves the comment editor and saves the trimmed draft.
func (m *Model) commitComment() tea.Cmd {
	m.comment.Draft = m.commentEditor.Value()
	text := m.comment.Commit()
	m.focus = focusNone
	m.commentEditor.Blur()

	client := m.client
	seq := m.pageSeq
	file := m.page.FilePath
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		err := client.SaveComment(ctx, file, text)
		return commentSavedMsg{seq: seq, text: text, err: err}
	}
}

func (m Model) handleCommentSaved(msg commentSavedMsg) (Model, tea.Cmd) {
	if msg.seq != m.pageSeq {
		if msg.err != nil {
			m.logger.Warn("save comment failed after leaving page", "error", msg.err)
		}
		return m, nil
	}
	if msg.err != nil {
		m.comment.SaveFailed()
		m.logger.Warn("save comment failed", "file", m.page.FilePath, "error", msg.err)
		return m.showFlash("Failed to save comment")
	}
	m.comment.Saved(msg.text)
	m.page.Comment = msg.text
	return m.showFlash("Comment saved")
}

// quickLook asks the server to preview the current file.
func (m Model) quickLook() (Model, tea.Cmd) {
	if !m.loaded || m.client == nil {
		return m, nil
	}
	client := m.client
	file := m.page.FilePath
	return m, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return quickLookMsg{err: client.QuickLook(ctx, file)}
	}
}

// addHeart tags the current file as a favourite.
func (m Model) addHeart() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	return m, m.addTag(viewer.HeartTag)
}

// addStars tags the current file with an n-star rating.
func (m Model) addStars(n int) (Model, tea.Cmd) {
	tag, ok := viewer.StarTag(n)
	if !m.loaded || !ok {
		return m, nil
	}
	return m, m.addTag(tag)
}

func (m Model) addTag(tag string) tea.Cmd {
	return m.tagRequest(tag, false)
}

func (m Model) removeTag(tag string) tea.Cmd {
	return m.tagRequest(tag, true)
}

func (m Model) tagRequest(tag string, remove bool) tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}
	seq := m.pageSeq
	file := m.page.FilePath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		var tags []string
		var err error
		if remove {
			tags, err = client.RemoveTag(ctx, file, tag)
		} else {
			tags, err = client.AddTag(ctx, file, tag)
		}
		return tagsUpdatedMsg{seq: seq, remove: remove, tag: tag, tags: tags, err: err}
	}
}

func (m Model) handleTagsUpdated(msg tagsUpdatedMsg) (Model, tea.Cmd) {
	if msg.seq != m.pageSeq {
		return m, nil
	}
	verb := "add"
	if msg.remove {
		verb = "remove"
	}
	if msg.err != nil {
		m.logger.Warn("tag update failed", "op", verb, "tag", msg.tag, "file", m.page.FilePath, "error", msg.err)
		return m.showFlash("Failed to " + verb + " tag: " + msg.tag)
	}

	m.page.Tags = msg.tags
	if m.tagCursor >= len(m.page.Tags) {
		m.tagCursor = len(m.page.Tags) - 1
	}
	if msg.remove {
		return m.showFlash("Tag removed: " + msg.tag)
	}

	if vocab := m.tagEditor.Vocabulary(); !slices.Contains(vocab, msg.tag) {
		m.tagEditor.SetVocabulary(append(slices.Clone(vocab), msg.tag))
	}
	return m.showFlash("Tag added: " + msg.tag)
}

// selectTag moves the selection over the displayed tags, wrapping.
func (m Model) selectTag(delta int) (Model, tea.Cmd) {
	n := len(m.page.Tags)
	if n == 0 {
		m.tagCursor = -1
		return m.showFlash("No tags")
	}
	if m.tagCursor < 0 {
		if delta > 0 {
			m.tagCursor = 0
		} else {
			m.tagCursor = n - 1
		}
		return m, nil
	}
	m.tagCursor = ((m.tagCursor+delta)%n + n) % n
	return m, nil
}

func (m Model) selectedTag() (string, bool) {
	if m.tagCursor < 0 || m.tagCursor >= len(m.page.Tags) {
		return "", false
	}
	return m.page.Tags[m.tagCursor], true
}

// removeSelectedTag removes the selected displayed tag from the file.
func (m Model) removeSelectedTag() (Model, tea.Cmd) {
	tag, ok := m.selectedTag()
	if !ok {
		return m.showFlash("No tag selected")
	}
	return m, m.removeTag(tag)
}

// openSelectedTag opens the gallery of the selected displayed tag.
func (m Model) openSelectedTag() (Model, tea.Cmd) {
	tag, ok := m.selectedTag()
	if !ok {
		return m.showFlash("No tag selected")
	}
	return m.openGallery(tag)
}

// confirmDelete opens the delete confirmation.
func (m Model) confirmDelete() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	m.modal = modalDeleteConfirm
	m.modalResult = ""
	m.busy = false
	return m, nil
}

func (m Model) deleteFile() tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}
	seq := m.pageSeq
	file := m.page.FilePath
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return deleteResultMsg{seq: seq, err: client.DeleteFile(ctx, file)}
	}
}

func (m Model) handleDeleteResult(msg deleteResultMsg) (Model, tea.Cmd) {
	if msg.seq != m.pageSeq {
		return m, nil
	}
	m.modal = modalDeleteResult
	if msg.err != nil {
		m.busy = false
		m.logger.Warn("delete failed", "file", m.page.FilePath, "error", msg.err)
		m.modalResult = "Error: " + errorText(msg.err)
		return m, nil
	}

	m.logger.Info("file deleted", "file", m.page.FilePath)
	m.busy = true
	m.modalResult = "File moved to Trash"
	m.fileList = slices.DeleteFunc(slices.Clone(m.fileList), func(p string) bool {
		return p == m.page.FilePath
	})
	seq := m.pageSeq
	return m, tea.Tick(deleteAdvanceDelay, func(time.Time) tea.Msg {
		return deleteAdvanceMsg{seq: seq}
	})
}

func errorText(err error) string {
	var ne *remote.NetworkError
	if errors.As(err, &ne) && ne.Message != "" {
		return ne.Message
	}
	return err.Error()
}

// confirmShutdown opens the shutdown confirmation.
func (m Model) confirmShutdown() (Model, tea.Cmd) {
	m.modal = modalShutdownConfirm
	m.modalResult = ""
	m.busy = false
	return m, nil
}

func (m Model) shutdownServer() tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return shutdownResultMsg{err: client.Shutdown(ctx)}
	}
}

func (m Model) handleShutdownResult(msg shutdownResultMsg) (Model, tea.Cmd) {
	m.busy = false
	switch {
	case msg.err == nil:
		m.logger.Info("server shutdown requested")
		m.modal = modalShutdownResult
		m.modalResult = "Server shutting down..."
		m.slideshow.Stop()
		return m, quitAfter(shutdownQuitDelay)
	case remote.IsUnreachable(msg.err):
		m.logger.Info("server already stopped", "error", msg.err)
		m.modal = modalShutdownResult
		m.modalResult = "Server already stopped"
		m.slideshow.Stop()
		return m, quitAfter(stoppedQuitDelay)
	default:
		m.logger.Warn("shutdown failed", "error", msg.err)
		m.modal = modalNone
		m.modalResult = ""
		return m.showFlash("Failed to shut down server: " + errorText(msg.err))
	}
}

func quitAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return quitMsg{} })
}
