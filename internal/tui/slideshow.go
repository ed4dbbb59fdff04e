package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// slideshowTickMsg fires when the slideshow period elapses. gen identifies
// the timer that scheduled it; ticks from a stopped or retimed timer are
// dropped.
type slideshowTickMsg struct {
	gen uint64
}

// slideshowTimer is a repeating timer driven by tea.Tick. At most one
// generation is live at a time.
type slideshowTimer struct {
	gen      uint64
	running  bool
	interval time.Duration
}

// Start arms the timer, replacing any running generation.
func (s *slideshowTimer) Start(interval time.Duration) tea.Cmd {
	s.gen++
	s.running = true
	s.interval = interval
	return s.schedule()
}

// Stop disarms the timer. Stopping a stopped timer is a no-op.
func (s *slideshowTimer) Stop() {
	if !s.running {
		return
	}
	s.gen++
	s.running = false
}

// Retime restarts the countdown at a new interval if the timer is running.
func (s *slideshowTimer) Retime(interval time.Duration) tea.Cmd {
	if !s.running {
		return nil
	}
	return s.Start(interval)
}

// Running reports whether the timer is armed.
func (s *slideshowTimer) Running() bool { return s.running }

// Accept reports whether msg belongs to the live generation.
func (s *slideshowTimer) Accept(msg slideshowTickMsg) bool {
	return s.running && msg.gen == s.gen
}

// tick re-arms the live generation for the next period.
func (s *slideshowTimer) tick() tea.Cmd {
	return s.schedule()
}

func (s *slideshowTimer) schedule() tea.Cmd {
	gen := s.gen
	return tea.Tick(s.interval, func(time.Time) tea.Msg {
		return slideshowTickMsg{gen: gen}
	})
}
