// Package viewer holds the terminal-independent state of the single-file
// viewer: navigation mode, view URLs, random selection, tag editing and
// comment editing. Nothing here performs I/O except Navigator, which talks to
// the file-list cache and fetcher it is given.
package viewer

import (
	"strconv"
	"time"
)

// Slideshow delay bounds, in milliseconds.
const (
	MinDelay     = 250
	MaxDelay     = 25000
	DelayStep    = 50
	DefaultDelay = 3000
)

// Mode is the navigation mode of a page. All combinations are valid; a
// random slideshow advances to a random file on every tick.
type Mode struct {
	Random    bool
	Slideshow bool
	DelayMs   int
}

// DefaultMode returns sequential navigation with no slideshow.
func DefaultMode() Mode {
	return Mode{DelayMs: DefaultDelay}
}

// ClampDelay limits ms to [MinDelay, MaxDelay].
func ClampDelay(ms int) int {
	return min(max(ms, MinDelay), MaxDelay)
}

// Faster shortens the slideshow delay by one step.
func (m Mode) Faster() Mode {
	m.DelayMs = ClampDelay(m.DelayMs - DelayStep)
	return m
}

// Slower lengthens the slideshow delay by one step.
func (m Mode) Slower() Mode {
	m.DelayMs = ClampDelay(m.DelayMs + DelayStep)
	return m
}

// Interval returns the slideshow delay as a duration.
func (m Mode) Interval() time.Duration {
	return time.Duration(ClampDelay(m.DelayMs)) * time.Millisecond
}

// Indicator returns the slideshow status line, or "" when the slideshow is
// off. The delay is shown in seconds without trailing zeros (e.g. "2.95s").
func (m Mode) Indicator() string {
	if !m.Slideshow {
		return ""
	}
	label := "SLIDESHOW"
	if m.Random {
		label = "RANDOM"
	}
	secs := strconv.FormatFloat(float64(m.DelayMs)/1000, 'f', -1, 64)
	return "▶ " + label + ": " + secs + "s"
}
