// Package nav models the navigation surface the client runs against: a
// current location plus history mutation, mirroring a browser's URL bar.
package nav

import (
	"fmt"
	"net/url"
	"sync"
)

// Surface is the location collaborator consumed by the guard and the
// handoff handler.
type Surface interface {
	// Current returns the current location.
	Current() *url.URL

	// Replace rewrites the current location without adding a history entry.
	Replace(path string)

	// Push navigates to path, adding a history entry.
	Push(path string)
}

// History is an in-process Surface seeded from a deep-link URL.
type History struct {
	mu      sync.Mutex
	entries []*url.URL
}

// NewHistory creates a history seeded with the given link. An empty link
// starts at "/".
func NewHistory(link string) (*History, error) {
	if link == "" {
		link = "/"
	}

	u, err := url.Parse(link)
	if err != nil {
		return nil, fmt.Errorf("failed to parse link: %w", err)
	}

	return &History{entries: []*url.URL{u}}, nil
}

// Current returns a copy of the current location.
func (h *History) Current() *url.URL {
	h.mu.Lock()
	defer h.mu.Unlock()

	u := *h.entries[len(h.entries)-1]
	return &u
}

// Replace swaps the current entry for path without growing the history.
// An unparseable path is ignored; the surface never fails mid-navigation.
func (h *History) Replace(path string) {
	u, err := url.Parse(path)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[len(h.entries)-1] = u
}

// Push appends a new entry for path.
func (h *History) Push(path string) {
	u, err := url.Parse(path)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, u)
}

// Len returns the number of history entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
