package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"
)

// formatFileSize formats a byte count in megabytes when at least 1 MB,
// otherwise in kilobytes, with one decimal (e.g., "2.5 MB", "0.5 KB").
func formatFileSize(bytes int64) string {
	const kb = 1024
	const mb = kb * 1024
	if bytes >= mb {
		return fmt.Sprintf("%.1f MB", float64(bytes)/mb)
	}
	return fmt.Sprintf("%.1f KB", float64(bytes)/kb)
}

// padRight fills a title or footer bar out to width cells so its background
// spans the terminal. Styled input is measured by visible width.
func padRight(s string, width int) string {
	if gap := width - lipgloss.Width(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return ansi.Truncate(s, width, "")
}

// lineBreaks flattens text shown on a single row.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", "", "\t", " ")

// truncateRunes fits a file path, comment, or flash onto one row of
// maxWidth cells, ending in "..." when cut.
func truncateRunes(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	s = lineBreaks.Replace(s)
	tail := "..."
	if maxWidth <= len(tail) {
		tail = ""
	}
	return runewidth.Truncate(s, maxWidth, tail)
}

// wrapText splits text file content into rows of at most width cells,
// preferring word boundaries. Tabs expand to four spaces.
func wrapText(text string, width int) []string {
	if width <= 0 {
		width = 80
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\t", "    ")
	return strings.Split(ansi.Wrap(text, width, ""), "\n")
}

// truncateToWidth keeps the left maxWidth cells of a rendered row.
func truncateToWidth(s string, maxWidth int) string {
	return ansi.Truncate(s, maxWidth, "")
}

// skipToWidth drops the left skipWidth cells of a rendered row, keeping the
// part of the page that shows to the right of a modal.
func skipToWidth(s string, skipWidth int) string {
	return ansi.TruncateLeft(s, skipWidth, "")
}
