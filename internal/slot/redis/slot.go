package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/bookmarker/internal/slot"
)

// Slot stores each slot value as a single Redis string without TTL.
type Slot struct {
	client *redis.Client
}

// NewSlot creates a Redis slot on an already connected client
func NewSlot(client *redis.Client) *Slot {
	return &Slot{
		client: client,
	}
}

// Get retrieves the raw value of a slot
func (s *Slot) Get(ctx context.Context, name string) ([]byte, error) {
	data, err := s.client.Get(ctx, SlotKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get %q: %w", name, slot.ErrSlotNotFound)
		}
		return nil, fmt.Errorf("failed to get slot: %w", err)
	}
	return data, nil
}

// Set replaces the value of a slot
func (s *Slot) Set(ctx context.Context, name string, value []byte) error {
	if err := s.client.Set(ctx, SlotKey(name), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save slot: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *Slot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Names lists every slot stored under the prefix, sorted
func (s *Slot) Names(ctx context.Context) ([]string, error) {
	var names []string
	iter := s.client.Scan(ctx, 0, KeyPrefixSlot+"*", 0).Iterator()
	for iter.Next(ctx) {
		name, err := ExtractSlotName(iter.Val())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan slots: %w", err)
	}
	slices.Sort(names)
	return names, nil
}
