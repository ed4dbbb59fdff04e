package viewer

// History is the back stack of visited view URLs.
type History struct {
	stack []string
}

// Push records url as visited.
func (h *History) Push(url string) {
	h.stack = append(h.stack, url)
}

// Pop removes and returns the most recent URL.
func (h *History) Pop() (string, bool) {
	if len(h.stack) == 0 {
		return "", false
	}
	url := h.stack[len(h.stack)-1]
	h.stack = h.stack[:len(h.stack)-1]
	return url, true
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.stack) }
