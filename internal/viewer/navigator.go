package viewer

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
)

// ListCache is the durable per-tag file-list store.
type ListCache interface {
	Get(tag string) ([]string, bool)
}

// ListFetcher fetches a tag's file list from the server.
type ListFetcher interface {
	Fetch(ctx context.Context, tag string) ([]string, error)
}

var errNoListSource = errors.New("no file list source")

// Target is where a navigation resolved to.
type Target struct {
	URL string

	// List is the file list used for a random pick, so the caller can keep
	// it for the rest of the page's life. Nil for sequential navigation.
	List []string

	// Degraded is set when the list could not be obtained and the target
	// fell back to the sequential next file.
	Degraded bool
}

// Navigator resolves next and random targets for a page.
type Navigator struct {
	Cache   ListCache
	Fetcher ListFetcher
	Intn    func(int) int // nil means math/rand/v2.IntN
	Logger  *slog.Logger
}

func (n *Navigator) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

func (n *Navigator) intn() func(int) int {
	if n.Intn == nil {
		return rand.IntN
	}
	return n.Intn
}

// Next resolves the "next" target: a random file when random mode is on,
// otherwise the sequential next file.
func (n *Navigator) Next(ctx context.Context, page Context, mode Mode, inMemory []string) Target {
	if mode.Random {
		return n.Random(ctx, page, mode, inMemory)
	}
	return Target{URL: BuildURL(page.Tag, page.NextFile, mode)}
}

// Random resolves a random file of the page's tag other than the current
// one. The list comes from inMemory when non-empty, then the cache, then a
// single fetch. If no list can be obtained, or it is empty, the target is the
// sequential next file.
func (n *Navigator) Random(ctx context.Context, page Context, mode Mode, inMemory []string) Target {
	fallback := Target{URL: BuildURL(page.Tag, page.NextFile, mode)}

	list, err := n.ResolveList(ctx, page.Tag, inMemory)
	if err != nil {
		n.logger().Warn("random navigation: file list unavailable, using next file",
			"tag", page.Tag, "error", err)
		fallback.Degraded = true
		return fallback
	}

	pick, ok := PickRandom(list, page.FilePath, n.intn())
	if !ok {
		fallback.List = list
		return fallback
	}
	return Target{URL: BuildURL(page.Tag, pick, mode), List: list}
}

// ResolveList returns the tag's file list from inMemory, the cache or the
// fetcher, in that order.
func (n *Navigator) ResolveList(ctx context.Context, tag string, inMemory []string) ([]string, error) {
	if len(inMemory) > 0 {
		return inMemory, nil
	}
	if n.Cache != nil {
		if list, ok := n.Cache.Get(tag); ok {
			return list, nil
		}
	}
	if n.Fetcher == nil {
		return nil, errNoListSource
	}
	return n.Fetcher.Fetch(ctx, tag)
}
