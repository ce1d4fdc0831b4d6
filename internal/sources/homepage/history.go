package homepage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

// ErrMalformedHistory is returned by Load when the stored value is not a
// JSON array of URLs.
var ErrMalformedHistory = errors.New("malformed import history")

// History remembers the URLs a bookmarks.yaml already contributed, so that a
// bookmark the user deleted is not imported again by the next sync.
// It lives in its own slot key next to the collection.
type History struct {
	slot slot.Slot
	key  string
}

// HistoryKey derives the history slot key from the collection key.
func HistoryKey(storeKey string) string {
	return storeKey + ":homepage"
}

// NewHistory creates a history stored under key.
func NewHistory(sl slot.Slot, key string) *History {
	return &History{slot: sl, key: key}
}

// Key returns the slot key in use.
func (h *History) Key() string { return h.key }

// Load returns the recorded URLs. A missing key is an empty history.
// A malformed value is reported with ErrMalformedHistory and an empty set.
func (h *History) Load(ctx context.Context) (map[string]bool, error) {
	seen := make(map[string]bool)

	raw, err := h.slot.Get(ctx, h.key)
	if errors.Is(err, slot.ErrSlotNotFound) {
		return seen, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read import history: %w", err)
	}

	var urls []string
	if err := json.Unmarshal(raw, &urls); err != nil {
		return seen, fmt.Errorf("%w: %v", ErrMalformedHistory, err)
	}
	for _, u := range urls {
		seen[u] = true
	}
	return seen, nil
}

// Save replaces the recorded URLs.
func (h *History) Save(ctx context.Context, seen map[string]bool) error {
	urls := make([]string, 0, len(seen))
	for u := range seen {
		urls = append(urls, u)
	}
	slices.Sort(urls)

	data, err := json.Marshal(urls)
	if err != nil {
		return fmt.Errorf("marshal import history: %w", err)
	}
	if err := h.slot.Set(ctx, h.key, data); err != nil {
		return fmt.Errorf("save import history: %w", err)
	}
	return nil
}
