package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/sources/homepage"
)

// HomepageSync periodically imports new entries from a Homepage bookmarks.yaml
type HomepageSync struct {
	file     string
	importer *homepage.Importer
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewHomepageSync creates a new homepage sync. With a history, entries
// imported by an earlier run are never imported again.
func NewHomepageSync(
	file string,
	store homepage.Creator,
	history *homepage.History,
	log logger.Logger,
	interval time.Duration,
) *HomepageSync {
	var opts []homepage.ImporterOption
	if history != nil {
		opts = append(opts, homepage.WithHistory(history))
	}
	return &HomepageSync{
		file:     file,
		importer: homepage.NewImporter(store, log, opts...),
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs a first sync and then one per interval until Stop or ctx ends.
// A failing first sync is returned; later failures are only logged.
func (hs *HomepageSync) Start(ctx context.Context) error {
	if err := hs.Sync(ctx); err != nil {
		close(hs.doneCh)
		return fmt.Errorf("initial homepage sync failed: %w", err)
	}

	ticker := time.NewTicker(hs.interval)
	go func() {
		defer close(hs.doneCh)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := hs.Sync(ctx); err != nil {
					hs.logger.Error("failed to sync homepage bookmarks",
						logger.Error(err))
				}
			case <-hs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the sync loop and waits for it to exit
func (hs *HomepageSync) Stop() {
	close(hs.stopCh)
	<-hs.doneCh
}

// Sync imports every entry of the file whose URL is neither stored nor
// already imported
func (hs *HomepageSync) Sync(ctx context.Context) error {
	res, err := hs.importer.ImportFile(ctx, hs.file)
	if err != nil {
		return err
	}

	if res.Created > 0 {
		hs.logger.Info("homepage bookmarks imported",
			logger.String("file", hs.file),
			logger.Int("created", res.Created),
			logger.Int("skipped", res.Skipped))
	} else {
		hs.logger.Debug("homepage bookmarks up to date",
			logger.String("file", hs.file),
			logger.Int("skipped", res.Skipped))
	}
	return nil
}
