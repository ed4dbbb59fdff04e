package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func noop(context.Context) error { return nil }

// waitIdle polls until no refresh is running.
func waitIdle(t *testing.T, s *Scheduler) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Status().Running {
		if time.Now().After(deadline) {
			t.Fatal("refresh did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewInvalidSchedule(t *testing.T) {
	if _, err := New("invalid cron", noop); err == nil {
		t.Error("New() with invalid cron = nil error, want error")
	}
}

func TestValidateSchedule(t *testing.T) {
	tests := []struct {
		expr    string
		wantErr bool
	}{
		{"*/30 * * * *", false},
		{"0 2 * * *", false},
		{"@every 10m", false},
		{"@hourly", false},
		{"* * *", true},
		{"", true},
		{"0 2 * * * *", true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			err := ValidateSchedule(tt.expr)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchedule(%q) error = %v, wantErr %v", tt.expr, err, tt.wantErr)
			}
		})
	}
}

func TestTriggerRecordsSuccess(t *testing.T) {
	var calls atomic.Int32
	s, err := New("0 2 * * *", func(context.Context) error {
		calls.Add(1)
		return nil
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Stop()

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger() = %v", err)
	}
	waitIdle(t, s)

	st := s.Status()
	if calls.Load() != 1 {
		t.Errorf("refresh called %d times, want 1", calls.Load())
	}
	if st.LastRun.IsZero() {
		t.Error("LastRun not set after success")
	}
	if st.LastError != "" {
		t.Errorf("LastError = %q, want empty", st.LastError)
	}
	if st.Schedule != "0 2 * * *" {
		t.Errorf("Schedule = %q", st.Schedule)
	}
}

func TestTriggerRecordsError(t *testing.T) {
	s, err := New("0 2 * * *", func(context.Context) error {
		return errors.New("server down")
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Stop()

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger() = %v", err)
	}
	waitIdle(t, s)

	st := s.Status()
	if st.LastError != "server down" {
		t.Errorf("LastError = %q, want %q", st.LastError, "server down")
	}
	if !st.LastRun.IsZero() {
		t.Error("LastRun should stay zero after a failed refresh")
	}
}

func TestTriggerWhileRunning(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s, err := New("0 2 * * *", func(context.Context) error {
		close(started)
		<-release
		return nil
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer s.Stop()

	if err := s.Trigger(); err != nil {
		t.Fatalf("first Trigger() = %v", err)
	}
	<-started
	if err := s.Trigger(); !errors.Is(err, ErrRunning) {
		t.Errorf("second Trigger() = %v, want ErrRunning", err)
	}
	close(release)
	waitIdle(t, s)
}

func TestStopCancelsRunningRefresh(t *testing.T) {
	started := make(chan struct{})
	var cancelled atomic.Bool
	s, err := New("0 2 * * *", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		cancelled.Store(true)
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	s.Start()

	if err := s.Trigger(); err != nil {
		t.Fatalf("Trigger() = %v", err)
	}
	<-started

	select {
	case <-s.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Stop() did not finish")
	}
	if !cancelled.Load() {
		t.Error("running refresh was not cancelled")
	}
	if err := s.Trigger(); !errors.Is(err, ErrStopped) {
		t.Errorf("Trigger() after Stop = %v, want ErrStopped", err)
	}
}

func TestStatusNextRun(t *testing.T) {
	s, err := New("@every 1h", noop)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	s.Start()
	defer s.Stop()

	next := s.Status().NextRun
	if next.IsZero() || next.Before(time.Now()) {
		t.Errorf("NextRun = %v, want a future time", next)
	}
}
