package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"trackerbot.app/relay/internal/model"
)

const (
	SnapshotKey  = "existing:issues"
	FirstRunFlag = "task_first_run_flag"
)

// SnapshotCache persists the last observed snapshot between cycles.
type SnapshotCache struct {
	kv KV
}

func NewSnapshotCache(kv KV) *SnapshotCache {
	return &SnapshotCache{kv: kv}
}

// Seeded reports whether a previous cycle stored a baseline snapshot.
func (c *SnapshotCache) Seeded(ctx context.Context) (bool, error) {
	flag, err := c.kv.Exists(ctx, FirstRunFlag)
	if err != nil || !flag {
		return false, err
	}
	return c.kv.Exists(ctx, SnapshotKey)
}

func (c *SnapshotCache) MarkSeeded(ctx context.Context) error {
	return c.kv.Set(ctx, FirstRunFlag, "1", 0)
}

// Load returns the stored snapshot. ok is false when none exists.
func (c *SnapshotCache) Load(ctx context.Context) (snap model.Snapshot, ok bool, err error) {
	raw, err := c.kv.Get(ctx, SnapshotKey)
	if err != nil {
		if errors.Is(err, ErrMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}

	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, false, fmt.Errorf("decoding cached snapshot: %w", err)
	}
	if snap == nil {
		snap = model.Snapshot{}
	}
	return snap, true, nil
}

func (c *SnapshotCache) Save(ctx context.Context, snap model.Snapshot) error {
	if snap == nil {
		snap = model.Snapshot{}
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	return c.kv.Set(ctx, SnapshotKey, string(raw), 0)
}
