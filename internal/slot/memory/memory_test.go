package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

func TestSlotGetMissing(t *testing.T) {
	s := New()
	_, err := s.Get(context.Background(), "bookmarks")
	if !errors.Is(err, slot.ErrSlotNotFound) {
		t.Fatalf("Get() error = %v, want ErrSlotNotFound", err)
	}
}

func TestSlotSetGet(t *testing.T) {
	ctx := context.Background()
	s := New()

	value := []byte(`[]`)
	if err := s.Set(ctx, "bookmarks", value); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	value[0] = 'x'

	got, err := s.Get(ctx, "bookmarks")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "[]" {
		t.Errorf("Get() = %q, want %q", got, "[]")
	}
	if s.Writes() != 1 {
		t.Errorf("Writes() = %d, want 1", s.Writes())
	}
}

func TestSlotFailWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("quota exceeded")

	s.FailWrites(boom)
	if err := s.Set(ctx, "k", []byte("v")); !errors.Is(err, boom) {
		t.Fatalf("Set() error = %v, want %v", err, boom)
	}
	if s.Writes() != 0 {
		t.Errorf("Writes() = %d, want 0", s.Writes())
	}

	s.FailWrites(nil)
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() after recovery error = %v", err)
	}
}

func TestSlotFailReads(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	boom := errors.New("connection reset")

	s.FailReads(boom)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Fatalf("Get() error = %v, want %v", err, boom)
	}

	s.FailReads(nil)
	if got, err := s.Get(ctx, "k"); err != nil || string(got) != "v" {
		t.Fatalf("Get() after recovery = %q, %v", got, err)
	}
}

func TestSlotNames(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, k := range []string{"bookmarks:homepage", "bookmarks"} {
		if err := s.Set(ctx, k, []byte("[]")); err != nil {
			t.Fatalf("Set(%q) error = %v", k, err)
		}
	}

	got, err := s.Names(ctx)
	if err != nil {
		t.Fatalf("Names() error = %v", err)
	}
	if want := []string{"bookmarks", "bookmarks:homepage"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
