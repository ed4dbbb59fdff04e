// Package listcache keeps per-tag file lists across viewer sessions.
//
// A list is stored the first time a tag is fetched and is never invalidated
// by the viewer; staleness is accepted. Storage failures never reach the
// caller: reads degrade to "absent" and writes to no-ops.
package listcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrStorageUnavailable wraps every storage failure the cache swallows.
var ErrStorageUnavailable = errors.New("list cache storage unavailable")

const keyPrefix = "fileList_"

const defaultSQLiteParams = "?_journal_mode=WAL&_busy_timeout=5000"

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Key returns the storage key for a tag's file list.
func Key(tag string) string {
	return keyPrefix + tag
}

// backend is a string key-value store.
type backend interface {
	load(key string) (string, bool, error)
	save(key, value string) error
	close() error
}

// Cache is a durable map from tag to file list.
type Cache struct {
	b      backend
	logger *slog.Logger
}

// Open opens or creates a sqlite-backed cache at path.
func Open(path string, logger *slog.Logger) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+defaultSQLiteParams)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	return &Cache{b: &sqliteBackend{db: db}, logger: orDefault(logger)}, nil
}

// NewMemory returns a cache that lives only as long as the process.
func NewMemory(logger *slog.Logger) *Cache {
	return &Cache{b: &memoryBackend{m: make(map[string]string)}, logger: orDefault(logger)}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}

// Get returns the stored list for tag. A missing entry, an unreadable store
// and a corrupt entry all report ok == false.
func (c *Cache) Get(tag string) ([]string, bool) {
	if c == nil || c.b == nil {
		return nil, false
	}
	raw, ok, err := c.b.load(Key(tag))
	if err != nil {
		c.logger.Debug("list cache read failed", "tag", tag, "error", fmt.Errorf("%w: %v", ErrStorageUnavailable, err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil || list == nil {
		c.logger.Debug("list cache entry corrupt", "tag", tag, "error", fmt.Errorf("%w: %v", ErrStorageUnavailable, err))
		return nil, false
	}
	return list, true
}

// Put stores list under tag, replacing any previous entry. Failures are
// logged and otherwise ignored.
func (c *Cache) Put(tag string, list []string) {
	if c == nil || c.b == nil {
		return
	}
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		c.logger.Debug("list cache encode failed", "tag", tag, "error", err)
		return
	}
	if err := c.b.save(Key(tag), string(data)); err != nil {
		c.logger.Debug("list cache write failed", "tag", tag, "error", fmt.Errorf("%w: %v", ErrStorageUnavailable, err))
	}
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if c == nil || c.b == nil {
		return nil
	}
	return c.b.close()
}

type sqliteBackend struct {
	db *sql.DB
}

func (s *sqliteBackend) load(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *sqliteBackend) save(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	return err
}

func (s *sqliteBackend) close() error {
	return s.db.Close()
}

type memoryBackend struct {
	mu sync.Mutex
	m  map[string]string
}

func (m *memoryBackend) load(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *memoryBackend) save(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	return nil
}

func (m *memoryBackend) close() error { return nil }
