package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/wesm/mediaview/internal/config"
	"github.com/wesm/mediaview/internal/listcache"
	"github.com/wesm/mediaview/internal/remote"
	"github.com/wesm/mediaview/internal/testutil"
	"github.com/wesm/mediaview/internal/testutil/mediatest"
	"github.com/wesm/mediaview/internal/viewer"
)

// newTestRootCmd creates a fresh root command for testing, avoiding mutation
// of the global rootCmd which could cause race conditions in parallel tests.
func newTestRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mediaview",
		Short: "Terminal viewer for a local media server",
	}
}

// TestExecuteContext_CancellationPropagates verifies that context cancellation
// from ExecuteContext propagates to command handlers.
func TestExecuteContext_CancellationPropagates(t *testing.T) {
	var contextWasCancelled atomic.Bool
	handlerStarted := make(chan struct{})

	testRoot := newTestRootCmd()
	testRoot.AddCommand(&cobra.Command{
		Use: "test-cancel",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			close(handlerStarted)
			select {
			case <-ctx.Done():
				contextWasCancelled.Store(true)
				return ctx.Err()
			case <-time.After(5 * time.Second):
				return nil
			}
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		testRoot.SetArgs([]string{"test-cancel"})
		done <- testRoot.ExecuteContext(ctx)
	}()

	select {
	case <-handlerStarted:
	case <-time.After(2 * time.Second):
		t.Fatal("command handler did not start in time")
	}

	// Simulates SIGINT/SIGTERM
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("expected context.Canceled error, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteContext did not return after context cancellation")
	}

	if !contextWasCancelled.Load() {
		t.Error("command did not observe context cancellation")
	}
}

// loadTestConfig points the package config at a fresh home directory.
func loadTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	c, err := config.Load("", t.TempDir())
	testutil.MustNoErr(t, err, "config.Load")
	cfg = c
	t.Cleanup(func() { cfg = prev })
}

func TestStartLocation(t *testing.T) {
	loadTestConfig(t)
	cfg.Viewer.Random = true
	cfg.Viewer.SlideshowDelayMS = 1200

	tests := []struct {
		name      string
		args      []string
		opts      viewOptions
		randomSet bool
		delaySet  bool
		want      viewer.Location
		wantErr   bool
	}{
		{
			name: "config defaults",
			args: []string{"vacation", "a.jpg"},
			want: viewer.Location{Tag: "vacation", File: "a.jpg", Mode: viewer.Mode{Random: true, DelayMs: 1200}},
		},
		{
			name:      "flags override config",
			args:      []string{"vacation", "a.jpg"},
			opts:      viewOptions{slideshow: true, random: false, delayMs: 99999},
			randomSet: true,
			delaySet:  true,
			want:      viewer.Location{Tag: "vacation", File: "a.jpg", Mode: viewer.Mode{Slideshow: true, DelayMs: viewer.MaxDelay}},
		},
		{
			name: "url",
			opts: viewOptions{url: "/view/vacation?file=b.jpg&slideshow=true&delay=2000"},
			want: viewer.Location{Tag: "vacation", File: "b.jpg", Mode: viewer.Mode{Slideshow: true, DelayMs: 2000}},
		},
		{name: "url and args", args: []string{"vacation", "a.jpg"}, opts: viewOptions{url: "/view/x?file=y"}, wantErr: true},
		{name: "missing file", args: []string{"vacation"}, wantErr: true},
		{name: "bad url", opts: viewOptions{url: "/elsewhere"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := startLocation(tt.args, tt.opts, tt.randomSet, tt.delaySet)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("startLocation() = %+v, want error", got)
				}
				return
			}
			testutil.MustNoErr(t, err, "startLocation")
			if got != tt.want {
				t.Errorf("startLocation() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWarmTags(t *testing.T) {
	srv := mediatest.New(t)
	srv.SetList("vacation", "a.jpg", "b.jpg")
	srv.SetList("work", "c.pdf")

	client, err := remote.New(remote.Config{URL: srv.URL, Timeout: 5 * time.Second})
	testutil.MustNoErr(t, err, "remote.New")
	cache := listcache.NewMemory(nil)
	f := listcache.NewFetcher(client, cache, nil)

	var out bytes.Buffer
	err = warmTags(context.Background(), f, []string{"vacation", "work", "missing"}, 2, &out)
	if err == nil || !strings.Contains(err.Error(), "1 of 3 tags failed") {
		t.Errorf("warmTags() error = %v, want 1 of 3 failed", err)
	}
	testutil.AssertContainsAll(t, out.String(), "vacation", "2 files", "work", "1 files", "missing", "error:")

	list, ok := cache.Get("vacation")
	if !ok {
		t.Fatal("vacation not cached")
	}
	testutil.AssertStrings(t, list, "a.jpg", "b.jpg")
}

func TestWarmTagsAllSucceed(t *testing.T) {
	srv := mediatest.New(t)
	srv.SetList("vacation", "a.jpg")

	client, err := remote.New(remote.Config{URL: srv.URL, Timeout: 5 * time.Second})
	testutil.MustNoErr(t, err, "remote.New")
	f := listcache.NewFetcher(client, listcache.NewMemory(nil), nil)

	var out bytes.Buffer
	testutil.MustNoErr(t, warmTags(context.Background(), f, []string{"vacation"}, 0, &out), "warmTags")
	testutil.AssertContainsAll(t, out.String(), "Cached 1 tags.")
}

func TestPrintTags(t *testing.T) {
	var out bytes.Buffer
	printTags(&out, nil)
	if got := out.String(); got != "No tags found.\n" {
		t.Errorf("printTags(nil) = %q", got)
	}

	out.Reset()
	printTags(&out, []string{"beach", "❤️"})
	if got := out.String(); got != "beach\n❤️\n" {
		t.Errorf("printTags() = %q", got)
	}
}

func TestOpenCacheFallsBackToMemory(t *testing.T) {
	loadTestConfig(t)
	// A directory cannot be opened as a database file
	cfg.Cache.Path = t.TempDir()

	c := openCache(slog.New(slog.DiscardHandler))
	defer c.Close()
	c.Put("vacation", []string{"a.jpg"})
	if _, ok := c.Get("vacation"); !ok {
		t.Error("fallback cache should still hold lists")
	}
}

func TestShutdownCommand(t *testing.T) {
	srv := mediatest.New(t)
	home := t.TempDir()

	rootCmd.SetArgs([]string{"shutdown", "--yes", "--home", home, "--server", srv.URL})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		shutdownYes = false
		serverURL = ""
		homeDir = ""
	})
	testutil.MustNoErr(t, ExecuteContext(context.Background()), "shutdown")

	if !srv.ShutdownRequested() {
		t.Error("server did not receive shutdown request")
	}
}

func TestShutdownCommandServerError(t *testing.T) {
	srv := mediatest.New(t)
	srv.FailWith("/api/shutdown", http.StatusInternalServerError)
	home := t.TempDir()

	rootCmd.SetArgs([]string{"shutdown", "--yes", "--home", home, "--server", srv.URL})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		shutdownYes = false
		serverURL = ""
		homeDir = ""
	})
	if err := ExecuteContext(context.Background()); err == nil {
		t.Error("expected error from failing server")
	}
}

func TestWatchTagsRefreshesUntilCancelled(t *testing.T) {
	srv := mediatest.New(t)
	srv.SetList("vacation", "a.jpg")

	prev := logger
	logger = slog.New(slog.DiscardHandler)
	t.Cleanup(func() { logger = prev })

	client, err := remote.New(remote.Config{URL: srv.URL, Timeout: 5 * time.Second})
	testutil.MustNoErr(t, err, "remote.New")
	cache := listcache.NewMemory(nil)
	f := listcache.NewFetcher(client, cache, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- watchTags(ctx, f, []string{"vacation"}, "@every 1h") }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := cache.Get("vacation"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("initial refresh did not populate the cache")
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		testutil.MustNoErr(t, err, "watchTags")
	case <-time.After(2 * time.Second):
		t.Fatal("watchTags did not return after cancellation")
	}
}

func TestWatchTagsInvalidSchedule(t *testing.T) {
	f := listcache.NewFetcher(nil, listcache.NewMemory(nil), nil)
	if err := watchTags(context.Background(), f, []string{"vacation"}, "not a schedule"); err == nil {
		t.Error("expected error for invalid schedule")
	}
}
