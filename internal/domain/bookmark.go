package domain

import (
	"sort"
	"time"
)

// Bookmark represents one saved URL.
//
// The JSON shape is the persisted wire format: {id, name, url, date}.
type Bookmark struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is assigned at creation and never changes.
	// It is the sole lookup key within a Collection.
	ID int64 `json:"id"`

	// ─────────────────────────────
	// User-supplied content
	// ─────────────────────────────

	// Name is the display label.
	// Example: "Example"
	Name string `json:"name"`

	// URL is the bookmarked address. Not validated.
	// Example: https://example.com
	URL string `json:"url"`

	// ─────────────────────────────
	// Metadata
	// ─────────────────────────────

	// Date is refreshed on create and on every edit.
	// There is no separate created-at.
	Date time.Time `json:"date"`
}

// Collection is the full set of bookmarks held by a store.
// Order carries no meaning; use ByRecent for display.
type Collection []Bookmark

// Clone returns an independent copy. A nil collection clones to an empty one.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Index returns the position of id, or -1.
func (c Collection) Index(id int64) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Find returns the bookmark with the given id.
func (c Collection) Find(id int64) (Bookmark, bool) {
	if i := c.Index(id); i >= 0 {
		return c[i], true
	}
	return Bookmark{}, false
}

// MaxID returns the largest id in the collection, 0 when empty.
func (c Collection) MaxID() int64 {
	var max int64
	for _, b := range c {
		if b.ID > max {
			max = b.ID
		}
	}
	return max
}

// ByRecent returns a copy sorted most-recent date first.
// Equal dates fall back to the higher id first.
func (c Collection) ByRecent() Collection {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// AddedOn counts the bookmarks whose date falls on day's calendar day,
// evaluated in day's location.
func (c Collection) AddedOn(day time.Time) int {
	n := 0
	for _, b := range c {
		if SameDay(b.Date, day) {
			n++
		}
	}
	return n
}

// SameDay reports whether t falls on ref's calendar day in ref's location.
func SameDay(t, ref time.Time) bool {
	y1, m1, d1 := t.In(ref.Location()).Date()
	y2, m2, d2 := ref.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
