package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/wesm/mediaview/internal/remote"
	"github.com/wesm/mediaview/internal/textutil"
	"github.com/wesm/mediaview/internal/viewer"
	"golang.org/x/sync/errgroup"
)

// loadPage resolves loc into a page context asynchronously. The file list
// comes from the in-memory list when the tag is unchanged, then the cache,
// then the server. A cached list that no longer contains the file is
// refreshed once.
func (m Model) loadPage(fromSeq uint64, loc viewer.Location, back bool) tea.Cmd {
	nav := m.nav
	var inMemory []string
	if m.loaded && loc.Tag == m.page.Tag {
		inMemory = m.fileList
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := pageLoadedMsg{fromSeq: fromSeq, loc: loc, back: back}

		list, err := nav.ResolveList(ctx, loc.Tag, inMemory)
		if err != nil {
			msg.err = fmt.Errorf("load file list for %q: %w", loc.Tag, err)
			return msg
		}

		page, err := viewer.NewContext(loc.Tag, loc.File, list)
		if errors.Is(err, viewer.ErrFileNotInList) && nav.Fetcher != nil {
			if fresh, ferr := nav.Fetcher.Fetch(ctx, loc.Tag); ferr == nil {
				list = fresh
				page, err = viewer.NewContext(loc.Tag, loc.File, list)
			}
		}
		if err != nil {
			msg.err = err
			return msg
		}

		msg.page = page
		msg.list = list
		return msg
	}
}

// loadDetails fetches the tag vocabulary, metadata and (for text files) the
// content of page concurrently.
func (m Model) loadDetails(seq uint64, page viewer.Context) tea.Cmd {
	client := m.client
	if client == nil {
		return nil
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		msg := pageDetailsMsg{seq: seq}

		// Each goroutine writes its own fields; failures are reported per
		// field rather than through the group.
		var g errgroup.Group
		g.Go(func() error {
			msg.vocabulary, msg.vocabErr = client.AllTags(ctx)
			return nil
		})
		g.Go(func() error {
			meta, err := client.Metadata(ctx, page.FilePath)
			msg.metaLine = formatMetadata(meta, err)
			return nil
		})
		if page.IsText {
			g.Go(func() error {
				content, err := client.FileContent(ctx, page.FilePath)
				msg.content, msg.contentErr = textutil.Displayable([]byte(content)), err
				return nil
			})
		}
		_ = g.Wait()
		return msg
	}
}

// resolveRandom picks a random target for the current page.
func (m Model) resolveRandom() tea.Cmd {
	nav := m.nav
	seq := m.pageSeq
	page := m.page
	mode := m.mode
	list := m.fileList

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return navResolvedMsg{fromSeq: seq, target: nav.Random(ctx, page, mode, list)}
	}
}

// resolveGallery fetches tag's list so its first file can be opened.
func (m Model) resolveGallery(tag string) tea.Cmd {
	nav := m.nav
	seq := m.pageSeq
	var inMemory []string
	if tag == m.page.Tag {
		inMemory = m.fileList
	}

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		list, err := nav.ResolveList(ctx, tag, inMemory)
		return galleryResolvedMsg{fromSeq: seq, tag: tag, list: list, err: err}
	}
}

// formatMetadata renders the metadata line: dimensions, size and creation
// date joined in brackets.
func formatMetadata(meta *remote.Metadata, err error) string {
	if err != nil {
		return "[Error loading metadata]"
	}
	if meta == nil {
		return "[No metadata]"
	}

	var parts []string
	if meta.Width > 0 && meta.Height > 0 {
		parts = append(parts, strconv.Itoa(meta.Width)+"×"+strconv.Itoa(meta.Height))
	}
	if meta.FileSize > 0 {
		parts = append(parts, formatFileSize(meta.FileSize))
	}
	if !meta.Created.IsZero() {
		parts = append(parts, meta.Created.Local().Format("2006-01-02"))
	}
	if len(parts) == 0 {
		return "[No metadata]"
	}
	return "[" + strings.Join(parts, " | ") + "]"
}
