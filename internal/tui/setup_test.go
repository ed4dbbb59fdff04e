package tui

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/wesm/mediaview/internal/listcache"
	"github.com/wesm/mediaview/internal/remote"
	"github.com/wesm/mediaview/internal/viewer"
)

// ansiStart is the escape sequence prefix found in styled terminal output.
const ansiStart = "\x1b["

// colorProfileMu serializes tests that mutate the global lipgloss color profile.
var colorProfileMu sync.Mutex

// forceColorProfile sets lipgloss to ANSI color output for tests that assert
// on styled output, restoring the original profile via t.Cleanup.
func forceColorProfile(t *testing.T) {
	t.Helper()
	colorProfileMu.Lock()
	orig := lipgloss.ColorProfile()
	lipgloss.SetColorProfile(termenv.ANSI)
	t.Cleanup(func() {
		lipgloss.SetColorProfile(orig)
		colorProfileMu.Unlock()
	})
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// =============================================================================
// Fake media server client
// =============================================================================

var errUnreachable = &remote.NetworkError{Op: "test", Err: errors.New("connection refused")}

// fakeClient is an in-memory Client. It also serves file lists, so it can
// back a listcache.Fetcher.
type fakeClient struct {
	mu         sync.Mutex
	lists      map[string][]string
	vocabulary []string
	meta       map[string]*remote.Metadata
	content    map[string]string
	tags       map[string][]string
	comments   map[string]string
	errs       map[string]error // keyed by method name
	calls      []string
	deleted    []string
	shutdown   bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		lists:    make(map[string][]string),
		meta:     make(map[string]*remote.Metadata),
		content:  make(map[string]string),
		tags:     make(map[string][]string),
		comments: make(map[string]string),
		errs:     make(map[string]error),
	}
}

func (c *fakeClient) record(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, method)
	return c.errs[method]
}

func (c *fakeClient) failWith(method string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errs[method] = err
}

func (c *fakeClient) count(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.calls {
		if m == method {
			n++
		}
	}
	return n
}

func (c *fakeClient) FileList(_ context.Context, tag string) ([]string, error) {
	if err := c.record("FileList"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	list, ok := c.lists[tag]
	if !ok {
		return nil, &remote.NetworkError{Op: "file list", StatusCode: 404, Message: "Category not found"}
	}
	return slices.Clone(list), nil
}

func (c *fakeClient) AllTags(context.Context) ([]string, error) {
	if err := c.record("AllTags"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.vocabulary), nil
}

func (c *fakeClient) Metadata(_ context.Context, filePath string) (*remote.Metadata, error) {
	if err := c.record("Metadata"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if md, ok := c.meta[filePath]; ok {
		return md, nil
	}
	return &remote.Metadata{FileName: filePath}, nil
}

func (c *fakeClient) FileContent(_ context.Context, filePath string) (string, error) {
	if err := c.record("FileContent"); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content[filePath], nil
}

func (c *fakeClient) AddTag(_ context.Context, filePath, tag string) ([]string, error) {
	if err := c.record("AddTag"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !slices.Contains(c.tags[filePath], tag) {
		c.tags[filePath] = append(c.tags[filePath], tag)
	}
	return slices.Clone(c.tags[filePath]), nil
}

func (c *fakeClient) RemoveTag(_ context.Context, filePath, tag string) ([]string, error) {
	if err := c.record("RemoveTag"); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags[filePath] = slices.DeleteFunc(c.tags[filePath], func(t string) bool { return t == tag })
	return append([]string{}, c.tags[filePath]...), nil
}

func (c *fakeClient) SaveComment(_ context.Context, filePath, comment string) error {
	if err := c.record("SaveComment"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.comments[filePath] = comment
	return nil
}

func (c *fakeClient) QuickLook(context.Context, string) error {
	return c.record("QuickLook")
}

func (c *fakeClient) DeleteFile(_ context.Context, filePath string) error {
	if err := c.record("DeleteFile"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, filePath)
	return nil
}

func (c *fakeClient) Shutdown(context.Context) error {
	if err := c.record("Shutdown"); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shutdown = true
	return nil
}

// =============================================================================
// Test Fixtures
// =============================================================================

// TestModelBuilder helps construct Model instances for testing.
type TestModelBuilder struct {
	client  *fakeClient
	cache   *listcache.Cache
	tag     string
	file    string
	mode    viewer.Mode
	width   int
	height  int
	version string
	intn    func(int) int
}

func NewBuilder() *TestModelBuilder {
	client := newFakeClient()
	client.lists["vacation"] = []string{"a.jpg", "b.jpg", "c.jpg"}
	client.vocabulary = []string{"vacation", "sunset", "Sunrise", "beach"}
	return &TestModelBuilder{
		client:  client,
		cache:   listcache.NewMemory(nil),
		tag:     "vacation",
		file:    "b.jpg",
		mode:    viewer.DefaultMode(),
		width:   100,
		height:  24,
		version: "test123",
	}
}

// WithList sets the server-side file list of tag.
func (b *TestModelBuilder) WithList(tag string, files ...string) *TestModelBuilder {
	b.client.lists[tag] = files
	return b
}

// At sets the page the model opens.
func (b *TestModelBuilder) At(tag, file string) *TestModelBuilder {
	b.tag = tag
	b.file = file
	return b
}

func (b *TestModelBuilder) WithMode(mode viewer.Mode) *TestModelBuilder {
	b.mode = mode
	return b
}

func (b *TestModelBuilder) WithSize(width, height int) *TestModelBuilder {
	b.width = width
	b.height = height
	return b
}

func (b *TestModelBuilder) WithIntn(intn func(int) int) *TestModelBuilder {
	b.intn = intn
	return b
}

// Client returns the fake client the model talks to.
func (b *TestModelBuilder) Client() *fakeClient { return b.client }

// Build returns a sized model that has not loaded its first page.
func (b *TestModelBuilder) Build() Model {
	m := New(Options{
		Client:  b.client,
		Cache:   b.cache,
		Fetcher: listcache.NewFetcher(b.client, b.cache, nil),
		Version: b.version,
		Intn:    b.intn,
	}, viewer.Location{Tag: b.tag, File: b.file, Mode: b.mode})
	newM, _ := m.Update(tea.WindowSizeMsg{Width: b.width, Height: b.height})
	return newM.(Model)
}

// BuildLoaded returns a model with its first page and page details loaded.
func (b *TestModelBuilder) BuildLoaded(t *testing.T) Model {
	t.Helper()
	m := b.Build()
	m = settle(t, m, m.Init())
	if !m.loaded {
		t.Fatalf("page %s/%s did not load: %v", b.tag, b.file, m.err)
	}
	return m
}

// =============================================================================
// Command runner
// =============================================================================

// cmdTimeout bounds how long settle waits for one command. Timer commands
// (flash, slideshow, delayed quit) take longer and are dropped.
const cmdTimeout = 100 * time.Millisecond

// settle runs cmd and feeds every resulting message back through Update
// until no immediate work is left.
func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			t.Fatal("settle: command chain did not terminate")
		}
		c := queue[0]
		queue = queue[1:]

		msg, ok := runWithin(c, cmdTimeout)
		if !ok || msg == nil {
			continue
		}
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		var next tea.Cmd
		m, next = sendMsg(t, m, msg)
		queue = append(queue, next)
	}
	return m
}

func runWithin(cmd tea.Cmd, d time.Duration) (tea.Msg, bool) {
	if cmd == nil {
		return nil, false
	}
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(d):
		return nil, false
	}
}

// press sends a key and settles the resulting commands.
func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	m, cmd := sendKey(t, m, k)
	return settle(t, m, cmd)
}

// typeText sends each rune of s as a key press.
func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m, _ = sendKey(t, m, key(r))
	}
	return m
}

// sendKey sends a key message to the model and returns the updated model.
func sendKey(t *testing.T, m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(k)
	return newM.(Model), cmd
}

// sendMsg sends any tea.Msg through Update and returns the concrete Model.
func sendMsg(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

// =============================================================================
// Assertions
// =============================================================================

func assertModal(t *testing.T, m Model, expected modalType) {
	t.Helper()
	if m.modal != expected {
		t.Errorf("expected modal %v, got %v", expected, m.modal)
	}
}

func assertFile(t *testing.T, m Model, expected string) {
	t.Helper()
	if m.page.FilePath != expected {
		t.Errorf("current file = %q, want %q", m.page.FilePath, expected)
	}
}

func assertFlash(t *testing.T, m Model, expected string) {
	t.Helper()
	if m.flashMessage != expected {
		t.Errorf("flash = %q, want %q", m.flashMessage, expected)
	}
}

func assertTags(t *testing.T, m Model, expected ...string) {
	t.Helper()
	if !slices.Equal(m.page.Tags, expected) && !(len(m.page.Tags) == 0 && len(expected) == 0) {
		t.Errorf("tags = %v, want %v", m.page.Tags, expected)
	}
}

// =============================================================================
// Key helpers
// =============================================================================

// key returns a KeyMsg for a single rune
func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// keyAlt returns an alt-modified rune key
func keyAlt(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

func keyEnter() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeyEnter} }
func keyEsc() tea.KeyMsg       { return tea.KeyMsg{Type: tea.KeyEscape} }
func keyTab() tea.KeyMsg       { return tea.KeyMsg{Type: tea.KeyTab} }
func keyUp() tea.KeyMsg        { return tea.KeyMsg{Type: tea.KeyUp} }
func keyDown() tea.KeyMsg      { return tea.KeyMsg{Type: tea.KeyDown} }
func keyLeft() tea.KeyMsg      { return tea.KeyMsg{Type: tea.KeyLeft} }
func keyRight() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeyRight} }
func keyBackspace() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyBackspace} }
func keyCtrlS() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeyCtrlS} }
func keyCtrlQ() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeyCtrlQ} }
func keyCtrlC() tea.KeyMsg     { return tea.KeyMsg{Type: tea.KeyCtrlC} }

// pickIndex returns an Intn stub that always draws i.
func pickIndex(i int) func(int) int {
	return func(int) int { return i }
}

// drawSequence returns an Intn stub yielding draws in order, then the last one.
func drawSequence(draws ...int) func(int) int {
	var mu sync.Mutex
	n := 0
	return func(int) int {
		mu.Lock()
		defer mu.Unlock()
		d := draws[min(n, len(draws)-1)]
		n++
		return d
	}
}

func mustMetadata(w, h int, size int64, created time.Time) *remote.Metadata {
	return &remote.Metadata{FileName: fmt.Sprintf("%dx%d", w, h), Width: w, Height: h, FileSize: size, Created: created}
}
