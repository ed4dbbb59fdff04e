// Package tui provides the terminal viewer for a media server.
package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/mediaview/internal/remote"
	"github.com/wesm/mediaview/internal/viewer"
)

// Client is the subset of the media server API the viewer uses.
type Client interface {
	AllTags(ctx context.Context) ([]string, error)
	Metadata(ctx context.Context, filePath string) (*remote.Metadata, error)
	FileContent(ctx context.Context, filePath string) (string, error)
	AddTag(ctx context.Context, filePath, tag string) ([]string, error)
	RemoveTag(ctx context.Context, filePath, tag string) ([]string, error)
	SaveComment(ctx context.Context, filePath, comment string) error
	QuickLook(ctx context.Context, filePath string) error
	DeleteFile(ctx context.Context, filePath string) error
	Shutdown(ctx context.Context) error
}

// Options configures a viewer model.
type Options struct {
	Client  Client
	Cache   viewer.ListCache
	Fetcher viewer.ListFetcher
	Logger  *slog.Logger
	Version string

	// Intn overrides the random source for random navigation (tests).
	Intn func(int) int
}

// modalType represents the type of modal dialog.
type modalType int

const (
	modalNone modalType = iota
	modalDeleteConfirm
	modalDeleteResult
	modalShutdownConfirm
	modalShutdownResult
	modalHelp
)

// focusTarget is the editor that currently receives keystrokes.
type focusTarget int

const (
	focusNone focusTarget = iota
	focusTagInput
	focusComment
)

// Timing of transient UI.
const (
	flashDuration         = 2 * time.Second
	deleteAdvanceDelay    = 1 * time.Second
	shutdownQuitDelay     = 2 * time.Second
	stoppedQuitDelay      = 1500 * time.Millisecond
	requestTimeout        = 30 * time.Second
	commentEditorHeight   = 3
	tagSuggestionsVisible = 6
)

// Model is the viewer model following the Elm architecture.
type Model struct {
	client  Client
	nav     *viewer.Navigator
	logger  *slog.Logger
	version string

	// Current page. pageSeq increments on every page transition; async
	// results tagged with an older sequence belong to a torn-down page.
	start    viewer.Location
	loc      viewer.Location
	page     viewer.Context
	pageSeq  uint64
	loaded   bool
	fileList []string
	history  viewer.History
	mode     viewer.Mode

	// Page details loaded after the transition
	metaLine       string
	content        string
	contentErr     error
	detailsLoading bool

	slideshow slideshowTimer

	// Tag editing
	tagEditor viewer.TagEditor
	tagInput  textinput.Model
	tagCursor int // selected displayed tag, -1 for none

	// Comment editing
	comment       viewer.CommentSession
	commentEditor textarea.Model

	focus focusTarget

	// Modal state
	modal       modalType
	modalResult string
	busy        bool // a confirmed destructive request is in flight

	// Terminal dimensions
	width  int
	height int

	// Loading state
	loading bool
	err     error

	// Flash message (temporary notification)
	flashMessage   string
	flashExpiresAt time.Time

	quitting bool
}

// New creates a viewer model that opens start on Init.
func New(opts Options, start viewer.Location) Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ti := textinput.New()
	ti.Placeholder = "Add tag..."
	ti.Width = 40

	ta := textarea.New()
	ta.Placeholder = viewer.CommentPlaceholder
	ta.ShowLineNumbers = false
	// Unbounded so SetValue keeps every line of a long saved comment
	ta.MaxHeight = 0
	ta.SetHeight(commentEditorHeight)

	return Model{
		client: opts.Client,
		nav: &viewer.Navigator{
			Cache:   opts.Cache,
			Fetcher: opts.Fetcher,
			Intn:    opts.Intn,
			Logger:  logger,
		},
		logger:        logger,
		version:       opts.Version,
		start:         start,
		mode:          start.Mode,
		tagEditor:     *viewer.NewTagEditor(),
		tagInput:      ti,
		tagCursor:     -1,
		commentEditor: ta,
		loading:       true,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadPage(m.pageSeq, m.start, false)
}

// pageLoadedMsg is sent when a navigation target has been resolved into a
// page context.
type pageLoadedMsg struct {
	fromSeq uint64 // page that issued the navigation
	loc     viewer.Location
	page    viewer.Context
	list    []string
	back    bool
	err     error
}

// pageDetailsMsg carries the vocabulary, metadata and text content loaded
// for a page.
type pageDetailsMsg struct {
	seq        uint64
	vocabulary []string
	vocabErr   error
	metaLine   string
	content    string
	contentErr error
}

// navResolvedMsg is sent when a random navigation target has been picked.
type navResolvedMsg struct {
	fromSeq uint64
	target  viewer.Target
}

// galleryResolvedMsg is sent when a tag's first file is known.
type galleryResolvedMsg struct {
	fromSeq uint64
	tag     string
	list    []string
	err     error
}

// tagsUpdatedMsg is sent when an add or remove tag call completes.
type tagsUpdatedMsg struct {
	seq    uint64
	remove bool
	tag    string
	tags   []string
	err    error
}

// commentSavedMsg is sent when a comment save completes.
type commentSavedMsg struct {
	seq  uint64
	text string
	err  error
}

// quickLookMsg is sent when a quicklook request completes.
type quickLookMsg struct {
	err error
}

// deleteResultMsg is sent when a delete request completes.
type deleteResultMsg struct {
	seq uint64
	err error
}

// deleteAdvanceMsg fires after the delete result has been shown.
type deleteAdvanceMsg struct {
	seq uint64
}

// shutdownResultMsg is sent when a shutdown request completes.
type shutdownResultMsg struct {
	err error
}

// quitMsg ends the program after a delay.
type quitMsg struct{}

// flashClearMsg clears the flash message after timeout.
type flashClearMsg struct{}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 0)
		m.height = max(msg.Height, 0)
		m.commentEditor.SetWidth(max(m.width-4, 10))
		m.tagInput.Width = max(min(m.width-16, 60), 10)
		return m, nil

	case pageLoadedMsg:
		// Another navigation already completed from this page
		if msg.fromSeq != m.pageSeq {
			return m, nil
		}
		if msg.err != nil {
			m.loading = false
			m.logger.Warn("page load failed", "url", msg.loc.URL(), "error", msg.err)
			if !m.loaded {
				m.err = msg.err
				return m, nil
			}
			return m.showFlash("Failed to open file: " + msg.err.Error())
		}
		return m.transition(msg)

	case pageDetailsMsg:
		if msg.seq != m.pageSeq {
			return m, nil
		}
		m.detailsLoading = false
		if msg.vocabErr != nil {
			m.logger.Warn("load tag vocabulary failed", "error", msg.vocabErr)
		} else {
			m.tagEditor.SetVocabulary(msg.vocabulary)
		}
		m.metaLine = msg.metaLine
		m.content = msg.content
		m.contentErr = msg.contentErr
		return m, nil

	case navResolvedMsg:
		if msg.fromSeq != m.pageSeq {
			return m, nil
		}
		if len(msg.target.List) > 0 {
			m.fileList = msg.target.List
		}
		return m.navigate(msg.target.URL, false)

	case galleryResolvedMsg:
		if msg.fromSeq != m.pageSeq {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.logger.Warn("open gallery failed", "tag", msg.tag, "error", msg.err)
			return m.showFlash("Failed to open " + msg.tag + ": " + msg.err.Error())
		}
		if len(msg.list) == 0 {
			return m.showFlash("No files tagged " + msg.tag)
		}
		return m.navigate(viewer.BuildURL(msg.tag, msg.list[0], viewer.Mode{DelayMs: m.mode.DelayMs}), false)

	case slideshowTickMsg:
		if !m.slideshow.Accept(msg) {
			return m, nil
		}
		rearm := m.slideshow.tick()
		if m.modal != modalNone && m.modal != modalHelp {
			// Confirmations pause the show
			return m, rearm
		}
		var cmd tea.Cmd
		m, cmd = m.advance()
		return m, tea.Batch(rearm, cmd)

	case tagsUpdatedMsg:
		return m.handleTagsUpdated(msg)

	case commentSavedMsg:
		return m.handleCommentSaved(msg)

	case quickLookMsg:
		if msg.err != nil {
			m.logger.Warn("quicklook failed", "error", msg.err)
			return m.showFlash("Failed to open QuickLook")
		}
		return m.showFlash("QuickLook opened")

	case deleteResultMsg:
		return m.handleDeleteResult(msg)

	case deleteAdvanceMsg:
		if msg.seq != m.pageSeq {
			return m, nil
		}
		if m.modal == modalDeleteResult {
			m.modal = modalNone
			m.modalResult = ""
		}
		m.busy = false
		return m.advance()

	case shutdownResultMsg:
		return m.handleShutdownResult(msg)

	case quitMsg:
		m.quitting = true
		return m, tea.Quit

	case flashClearMsg:
		// Clear flash message if it hasn't been updated since the timer started
		if time.Now().After(m.flashExpiresAt) || m.flashExpiresAt.IsZero() {
			m.flashMessage = ""
		}
		return m, nil
	}

	// Cursor blink and other editor messages
	var cmd tea.Cmd
	switch m.focus {
	case focusTagInput:
		m.tagInput, cmd = m.tagInput.Update(msg)
	case focusComment:
		m.commentEditor, cmd = m.commentEditor.Update(msg)
	}
	return m, cmd
}

// transition tears down the current page and installs the loaded one.
func (m Model) transition(msg pageLoadedMsg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	m.slideshow.Stop()
	if m.focus == focusComment {
		// Leaving the page blurs the editor, which saves
		cmds = append(cmds, m.commitComment())
	}
	m.closeTagInput()

	if m.loaded && !msg.back {
		m.history.Push(m.loc.URL())
	}

	m.pageSeq++
	m.loaded = true
	m.loading = false
	m.err = nil
	m.loc = msg.loc
	m.page = msg.page
	m.fileList = msg.list
	m.mode = msg.loc.Mode
	m.comment = viewer.CommentSession{}
	m.tagCursor = -1
	m.metaLine = ""
	m.content = ""
	m.contentErr = nil
	m.detailsLoading = true

	m.logger.Debug("page opened", "tag", m.page.Tag, "file", m.page.FilePath, "seq", m.pageSeq)

	cmds = append(cmds, tea.SetWindowTitle(pageTitle(m.page)), m.loadDetails(m.pageSeq, m.page))
	if m.mode.Slideshow {
		cmds = append(cmds, m.slideshow.Start(m.mode.Interval()))
	}
	return m, tea.Batch(cmds...)
}

// navigate starts loading the page at url. back marks a history pop, which
// does not push the current page.
func (m Model) navigate(url string, back bool) (Model, tea.Cmd) {
	loc, err := viewer.ParseURL(url)
	if err != nil {
		m.logger.Warn("invalid navigation target", "url", url, "error", err)
		m.loading = false
		return m.showFlash("Invalid location: " + url)
	}
	m.loading = true
	return m, m.loadPage(m.pageSeq, loc, back)
}

// advance moves to the next file: a random one in random mode, otherwise
// the sequential neighbour.
func (m Model) advance() (Model, tea.Cmd) {
	if !m.loaded {
		return m, nil
	}
	if !m.mode.Random {
		return m.navigate(viewer.BuildURL(m.page.Tag, m.page.NextFile, m.mode), false)
	}
	m.loading = true
	return m, m.resolveRandom()
}

// goBack returns to the previously visited page.
func (m Model) goBack() (Model, tea.Cmd) {
	url, ok := m.history.Pop()
	if !ok {
		return m.showFlash("No previous file in history")
	}
	return m.navigate(url, true)
}

// showFlash displays a temporary flash message.
func (m Model) showFlash(message string) (Model, tea.Cmd) {
	cmd := m.flash(message)
	return m, cmd
}

func (m *Model) flash(message string) tea.Cmd {
	m.flashMessage = message
	m.flashExpiresAt = time.Now().Add(flashDuration)
	return tea.Tick(flashDuration, func(time.Time) tea.Msg {
		return flashClearMsg{}
	})
}

// Page returns the context of the page currently shown.
func (m Model) Page() viewer.Context { return m.page }

// Mode returns the current navigation mode.
func (m Model) Mode() viewer.Mode { return m.mode }

// Err returns the error that prevented the first page from opening.
func (m Model) Err() error { return m.err }
