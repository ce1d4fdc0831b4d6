// Package bookmarks owns the bookmark collection and keeps it in sync with
// a persistent slot.
//
// Every mutation writes the full snapshot before returning. Loading is soft:
// an absent or malformed value yields an empty collection. A failed slot
// read also yields an empty view, but the store stays unloaded and refuses
// to write until a later read succeeds.
package bookmarks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

// DefaultKey is the slot key the collection lives under.
const DefaultKey = "bookmarks"

// Store is the sole owner of a bookmark collection.
type Store struct {
	mu     sync.Mutex
	slot   slot.Slot
	key    string
	logger logger.Logger
	now    func() time.Time

	items  domain.Collection
	loaded bool
	lastID int64
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates an unloaded store on top of sl.
func New(sl slot.Slot, opts ...Option) *Store {
	s := &Store{
		slot:   sl,
		key:    DefaultKey,
		logger: logger.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the slot key in use.
func (s *Store) Key() string { return s.key }

// Load reads the slot and replaces the in-memory collection.
// It never fails: a missing, empty or malformed value loads as empty, and so
// does an unreadable slot.
func (s *Store) Load(ctx context.Context) domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.loadLocked(ctx)
	return s.items.Clone()
}

// List returns the current snapshot. It loads on first use but never writes.
func (s *Store) List(ctx context.Context) domain.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.ensureLoaded(ctx)
	return s.items.Clone()
}

// Get returns a single bookmark.
func (s *Store) Get(ctx context.Context, id int64) (domain.Bookmark, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return domain.Bookmark{}, fmt.Errorf("get %d: %w", id, err)
	}
	b, ok := s.items.Find(id)
	if !ok {
		return domain.Bookmark{}, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	return b, nil
}

// Create appends a new bookmark dated now and persists the snapshot.
// name and url are stored as given.
func (s *Store) Create(ctx context.Context, name, url string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return s.items.Clone(), fmt.Errorf("create: %w", err)
	}

	now := s.timestamp()
	b := domain.Bookmark{
		ID:   s.nextID(now),
		Name: name,
		URL:  url,
		Date: now,
	}
	s.items = append(s.items, b)

	s.logger.Debug("bookmark created",
		logger.Int64("id", b.ID),
		logger.String("url", url))

	return s.items.Clone(), s.persist(ctx, "create")
}

// Update replaces name and url of an existing bookmark and refreshes its date.
// An unknown id leaves the collection untouched, skips the write and
// returns ErrNotFound with the current snapshot.
func (s *Store) Update(ctx context.Context, id int64, name, url string) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return s.items.Clone(), fmt.Errorf("update %d: %w", id, err)
	}

	i := s.items.Index(id)
	if i < 0 {
		return s.items.Clone(), fmt.Errorf("update %d: %w", id, ErrNotFound)
	}

	s.items[i].Name = name
	s.items[i].URL = url
	s.items[i].Date = s.timestamp()

	s.logger.Debug("bookmark updated", logger.Int64("id", id))

	return s.items.Clone(), s.persist(ctx, "update")
}

// Delete removes the bookmark with id if present and persists the snapshot.
// Deleting an unknown id is not an error.
func (s *Store) Delete(ctx context.Context, id int64) (domain.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureLoaded(ctx); err != nil {
		return s.items.Clone(), fmt.Errorf("delete %d: %w", id, err)
	}

	if i := s.items.Index(id); i >= 0 {
		s.items = append(s.items[:i], s.items[i+1:]...)
		s.logger.Debug("bookmark deleted", logger.Int64("id", id))
	}

	return s.items.Clone(), s.persist(ctx, "delete")
}

// CountAddedOn returns how many bookmarks are dated on day's calendar day,
// in day's location.
func (s *Store) CountAddedOn(ctx context.Context, day time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	_ = s.ensureLoaded(ctx)
	return s.items.AddedOn(day)
}

func (s *Store) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// loadLocked replaces the collection with the slot content. On a read
// failure the collection is emptied and the store stays unloaded, so the
// next call reads again instead of overwriting the slot.
func (s *Store) loadLocked(ctx context.Context) error {
	items, err := s.read(ctx)
	if err != nil {
		s.items = domain.Collection{}
		s.loaded = false
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.items = items
	s.lastID = max(s.lastID, items.MaxID())
	s.loaded = true
	return nil
}

// read fails only when the slot itself does. A missing or malformed value
// degrades to an empty collection.
func (s *Store) read(ctx context.Context) (domain.Collection, error) {
	raw, err := s.slot.Get(ctx, s.key)
	if errors.Is(err, slot.ErrSlotNotFound) {
		s.logger.Debug("bookmark slot empty", logger.String("key", s.key))
		return domain.Collection{}, nil
	}
	if err != nil {
		s.logger.Warn("failed to read bookmark slot, writes suspended until it recovers",
			logger.String("key", s.key),
			logger.Error(err))
		return nil, err
	}

	items, err := decode(raw)
	if err != nil {
		s.logger.Warn("malformed bookmark slot, starting empty",
			logger.String("key", s.key),
			logger.Error(err))
		return domain.Collection{}, nil
	}

	s.logger.Debug("bookmarks loaded",
		logger.String("key", s.key),
		logger.Int("count", len(items)))
	return items, nil
}

func (s *Store) persist(ctx context.Context, op string) error {
	data, err := encode(s.items)
	if err == nil {
		err = s.slot.Set(ctx, s.key, data)
	}
	if err != nil {
		s.logger.Error("failed to persist bookmarks",
			logger.String("op", op),
			logger.String("key", s.key),
			logger.Error(err))
		return &PersistenceError{Op: op, Key: s.key, Err: err}
	}
	return nil
}

// timestamp is now in UTC at millisecond precision, so that a JSON
// round-trip reproduces it exactly.
func (s *Store) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// nextID derives ids from the millisecond clock and stays strictly above
// every id seen so far.
func (s *Store) nextID(now time.Time) int64 {
	id := now.UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

func encode(items domain.Collection) ([]byte, error) {
	if items == nil {
		items = domain.Collection{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal bookmarks: %w", err)
	}
	return data, nil
}

// decode parses a persisted snapshot. null decodes to empty; a repeated id
// keeps its first occurrence.
func decode(raw []byte) (domain.Collection, error) {
	var items domain.Collection
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal bookmarks: %w", err)
	}

	seen := make(map[int64]struct{}, len(items))
	out := make(domain.Collection, 0, len(items))
	for _, b := range items {
		if _, dup := seen[b.ID]; dup {
			continue
		}
		seen[b.ID] = struct{}{}
		out = append(out, b)
	}
	return out, nil
}
