package listcache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Source fetches a tag's file list from the media server.
type Source interface {
	FileList(ctx context.Context, tag string) ([]string, error)
}

// Fetcher retrieves file lists from a Source and writes them through to a
// Cache.
type Fetcher struct {
	src    Source
	cache  *Cache
	logger *slog.Logger
}

// NewFetcher creates a Fetcher. cache may be nil.
func NewFetcher(src Source, cache *Cache, logger *slog.Logger) *Fetcher {
	return &Fetcher{src: src, cache: cache, logger: orDefault(logger)}
}

// Fetch issues exactly one request for tag's list. On success the list is
// stored in the cache; on failure the cache is left untouched.
func (f *Fetcher) Fetch(ctx context.Context, tag string) ([]string, error) {
	list, err := f.src.FileList(ctx, tag)
	if err != nil {
		return nil, err
	}
	f.cache.Put(tag, list)
	f.logger.Debug("fetched file list", "tag", tag, "count", len(list))
	return list, nil
}

// WarmResult reports the outcome of warming one tag.
type WarmResult struct {
	Tag   string
	Count int
	Err   error
}

// Warm fetches every tag concurrently, at most limit at a time, and returns
// one result per tag in input order. A failed tag does not stop the others.
func (f *Fetcher) Warm(ctx context.Context, tags []string, limit int) []WarmResult {
	results := make([]WarmResult, len(tags))
	if limit <= 0 {
		limit = 4
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	for i, tag := range tags {
		g.Go(func() error {
			list, err := f.Fetch(ctx, tag)
			mu.Lock()
			results[i] = WarmResult{Tag: tag, Count: len(list), Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}
