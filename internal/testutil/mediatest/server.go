// Package mediatest provides an in-process fake media server for tests.
//
// The fake speaks the same JSON API as the real server, including its quirks:
// delete failures come back as 200 with {"success":false,"error":...}, and
// the comment endpoint uses a lowercase "filepath" key.
package mediatest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// File is one file known to the fake server.
type File struct {
	Tags    []string
	Comment string
	Content string
	Width   int
	Height  int
	Size    int64
	Created time.Time
}

// Request records one request the server received.
type Request struct {
	Method string
	Path   string
	Body   string
}

// Server is a fake media server backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	files    map[string]*File
	lists    map[string][]string
	failures map[string]int
	requests []Request
	shutdown bool
}

// New starts a fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		files:    make(map[string]*File),
		lists:    make(map[string][]string),
		failures: make(map[string]int),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) router() chi.Router {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Use(s.injectFailures)

	r.Get("/api/filelist", s.handleFileList)
	r.Get("/api/alltags", s.handleAllTags)
	r.Get("/api/metadata/*", s.handleMetadata)
	r.Get("/file/*", s.handleFile)
	r.Post("/api/addtag", s.handleAddTag)
	r.Post("/api/removetag", s.handleRemoveTag)
	r.Post("/api/comment", s.handleComment)
	r.Post("/api/quicklook", s.handleQuickLook)
	r.Post("/api/deletefile", s.handleDeleteFile)
	r.Post("/api/shutdown", s.handleShutdown)
	return r
}

// AddFile registers a file with the given tags.
func (s *Server) AddFile(path string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := f
	cp.Tags = slices.Clone(f.Tags)
	s.files[path] = &cp
}

// SetList sets the ordered file list served for tag. Files not yet known
// are registered with no tags.
func (s *Server) SetList(tag string, paths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[tag] = slices.Clone(paths)
	for _, p := range paths {
		if _, ok := s.files[p]; !ok {
			s.files[p] = &File{}
		}
	}
}

// FailWith makes every request to path answer with status.
// A status of 0 clears the failure.
func (s *Server) FailWith(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many requests hit path.
func (s *Server) Count(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Tags returns the server-side tags of a file.
func (s *Server) Tags(path string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[path]; ok {
		return slices.Clone(f.Tags)
	}
	return nil
}

// Comment returns the server-side comment of a file.
func (s *Server) Comment(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f, ok := s.files[path]; ok {
		return f.Comment
	}
	return ""
}

// Exists reports whether path is still present (not deleted).
func (s *Server) Exists(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok
}

// ShutdownRequested reports whether /api/shutdown was called successfully.
func (s *Server) ShutdownRequested() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shutdown
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failures[r.URL.Path]
		s.mu.Unlock()
		if ok {
			http.Error(w, http.StatusText(status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) handleFileList(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		http.Error(w, "Missing category parameter", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	list, ok := s.lists[category]
	list = slices.Clone(list)
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Category not found", http.StatusNotFound)
		return
	}
	if list == nil {
		list = []string{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAllTags(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	seen := make(map[string]bool)
	for _, f := range s.files {
		for _, t := range f.Tags {
			seen[t] = true
		}
	}
	s.mu.Unlock()

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) lookup(path string) (File, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[path]
	if !ok {
		return File{}, false
	}
	return *f, true
}

func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/metadata/")
	f, ok := s.lookup(path)
	if !ok {
		http.Error(w, "stat "+path+": no such file or directory", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"fileName": path[strings.LastIndex(path, "/")+1:],
		"fileSize": f.Size,
		"created":  f.Created,
		"modified": f.Created,
		"width":    f.Width,
		"height":   f.Height,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/file/")
	f, ok := s.lookup(path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, f.Content)
}

type tagOperation struct {
	FilePath string `json:"filePath"`
	Tag      string `json:"tag"`
}

func (s *Server) handleAddTag(w http.ResponseWriter, r *http.Request) {
	var op tagOperation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	f, ok := s.files[op.FilePath]
	if !ok {
		f = &File{}
		s.files[op.FilePath] = f
	}
	if !slices.Contains(f.Tags, op.Tag) {
		f.Tags = append(f.Tags, op.Tag)
	}
	tags := slices.Clone(f.Tags)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tags": tags})
}

func (s *Server) handleRemoveTag(w http.ResponseWriter, r *http.Request) {
	var op tagOperation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	tags := []string{}
	if f, ok := s.files[op.FilePath]; ok {
		for _, t := range f.Tags {
			if t != op.Tag {
				tags = append(tags, t)
			}
		}
		f.Tags = slices.Clone(tags)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "tags": tags})
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FilePath string `json:"filepath"`
		Comment  string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	f, ok := s.files[req.FilePath]
	if ok {
		f.Comment = req.Comment
	}
	s.mu.Unlock()
	if !ok {
		http.Error(w, "Failed to update comment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

type fileRequest struct {
	FilePath string `json:"filePath"`
}

func (s *Server) handleQuickLook(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, ok := s.lookup(req.FilePath); !ok {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	_, ok := s.files[req.FilePath]
	if ok {
		delete(s.files, req.FilePath)
		for tag, list := range s.lists {
			s.lists[tag] = slices.DeleteFunc(list, func(p string) bool { return p == req.FilePath })
		}
	}
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "error": "File not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "File moved to Trash"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Server shutting down..."})
}
