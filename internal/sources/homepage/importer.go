package homepage

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/domain"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
)

// Creator is the part of the bookmark store the importer needs
type Creator interface {
	List(ctx context.Context) domain.Collection
	Create(ctx context.Context, name, url string) (domain.Collection, error)
}

// ImportResult summarizes an import run
type ImportResult struct {
	Created int
	Skipped int
}

// Importer creates store bookmarks from Homepage entries
type Importer struct {
	store   Creator
	logger  logger.Logger
	history *History
	again   bool
}

// ImporterOption configures an Importer
type ImporterOption func(*Importer)

// WithHistory records imported URLs in h and skips URLs recorded earlier,
// even when the bookmark has since been deleted.
func WithHistory(h *History) ImporterOption {
	return func(im *Importer) { im.history = h }
}

// ReimportAll ignores earlier history entries but still records the run.
func ReimportAll() ImporterOption {
	return func(im *Importer) { im.again = true }
}

// NewImporter creates a new importer
func NewImporter(store Creator, log logger.Logger, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:  store,
		logger: log,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import creates one bookmark per entry whose URL is neither stored nor
// recorded in the history.
// A store error stops the run; bookmarks created before it stay in memory.
func (im *Importer) Import(ctx context.Context, entries []Entry) (ImportResult, error) {
	var res ImportResult

	seen, err := im.loadHistory(ctx)
	if err != nil {
		return res, err
	}
	recorded := make(map[string]bool, len(seen))
	for u := range seen {
		recorded[u] = true
	}
	if im.again {
		seen = map[string]bool{}
	}

	known := make(map[string]bool)
	for _, b := range im.store.List(ctx) {
		known[b.URL] = true
	}

	for _, e := range entries {
		if known[e.URL] || seen[e.URL] {
			res.Skipped++
			recorded[e.URL] = true
			im.logger.Debug("bookmark already imported, skipping",
				logger.String("url", e.URL))
			continue
		}

		if _, err := im.store.Create(ctx, e.Name, e.URL); err != nil {
			if bookmarks.IsPersistenceError(err) {
				res.Created++
				recorded[e.URL] = true
			}
			im.saveHistory(ctx, recorded)
			return res, fmt.Errorf("import %q: %w", e.Name, err)
		}
		known[e.URL] = true
		recorded[e.URL] = true
		res.Created++
	}

	if err := im.saveHistoryErr(ctx, recorded); err != nil {
		return res, err
	}

	im.logger.Info("bookmarks imported",
		logger.Int("created", res.Created),
		logger.Int("skipped", res.Skipped))

	return res, nil
}

// ImportFile loads path and imports every bookmark it lists
func (im *Importer) ImportFile(ctx context.Context, path string) (ImportResult, error) {
	config, err := NewLoader(path).Load()
	if err != nil {
		return ImportResult{}, err
	}
	return im.Import(ctx, Entries(config))
}

func (im *Importer) loadHistory(ctx context.Context) (map[string]bool, error) {
	if im.history == nil {
		return map[string]bool{}, nil
	}
	seen, err := im.history.Load(ctx)
	if errors.Is(err, ErrMalformedHistory) {
		im.logger.Warn("import history unreadable, starting over",
			logger.String("key", im.history.Key()),
			logger.Error(err))
		return seen, nil
	}
	return seen, err
}

func (im *Importer) saveHistoryErr(ctx context.Context, recorded map[string]bool) error {
	if im.history == nil {
		return nil
	}
	return im.history.Save(ctx, recorded)
}

// saveHistory is used on the error path, where the store error wins.
func (im *Importer) saveHistory(ctx context.Context, recorded map[string]bool) {
	if err := im.saveHistoryErr(ctx, recorded); err != nil {
		im.logger.Warn("failed to save import history", logger.Error(err))
	}
}
