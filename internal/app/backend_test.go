package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/MrSnakeDoc/bookmarker/internal/bookmarks"
	"github.com/MrSnakeDoc/bookmarker/internal/config"
	"github.com/MrSnakeDoc/bookmarker/internal/logger"
	"github.com/MrSnakeDoc/bookmarker/internal/slot/memory"
	"github.com/MrSnakeDoc/bookmarker/internal/slot/sqlite"
)

func TestOpenBackendMemory(t *testing.T) {
	b, err := OpenBackend(context.Background(), &config.Config{Storage: config.StorageMemory}, logger.New("error", false))
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	if _, ok := b.Slot.(*memory.Slot); !ok {
		t.Errorf("Slot = %T, want *memory.Slot", b.Slot)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestOpenBackendSQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{
		Storage:     config.StorageSQLite,
		DatabaseURL: filepath.Join(t.TempDir(), "bookmarker.db"),
	}
	log := logger.New("error", false)

	b, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		t.Fatalf("OpenBackend() error = %v", err)
	}
	if _, ok := b.Slot.(*sqlite.Slot); !ok {
		t.Fatalf("Slot = %T, want *sqlite.Slot", b.Slot)
	}

	last, err := bookmarks.New(b.Slot).Create(ctx, "Example", "https://example.com")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := OpenBackend(ctx, cfg, log)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	loaded := bookmarks.New(reopened.Slot).Load(ctx)
	if len(loaded) != 1 || loaded[0] != last[0] {
		t.Errorf("Load() after reopen = %+v, want %+v", loaded, last)
	}
}

func TestOpenBackendUnknown(t *testing.T) {
	if _, err := OpenBackend(context.Background(), &config.Config{Storage: "floppy"}, logger.New("error", false)); err == nil {
		t.Fatal("OpenBackend() with unknown storage should fail")
	}
}
