// Package storage mirrors scoreboard snapshots to Redis so other displays
// can follow one client.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/tagracer/internal/store"
)

const (
	// DefaultKey holds the latest snapshot and is also the pub/sub channel.
	DefaultKey = "tagracer:snapshot"

	snapshotExpiration = time.Hour

	// DefaultFlushInterval bounds the write rate while notifications decay.
	DefaultFlushInterval = 250 * time.Millisecond
)

// RedisStore stores and publishes snapshots.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a store writing under key (DefaultKey when empty).
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

// Key returns the snapshot key.
func (rs *RedisStore) Key() string {
	return rs.key
}

// SaveSnapshot stores snap and publishes it to followers.
func (rs *RedisStore) SaveSnapshot(ctx context.Context, snap store.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	pipe := rs.client.TxPipeline()
	pipe.Set(ctx, rs.key, data, snapshotExpiration)
	pipe.Publish(ctx, rs.key, data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot, or nil when none exists.
func (rs *RedisStore) LoadSnapshot(ctx context.Context) (*store.Snapshot, error) {
	data, err := rs.client.Get(ctx, rs.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var snap store.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the stored snapshot.
func (rs *RedisStore) DeleteSnapshot(ctx context.Context) error {
	return rs.client.Del(ctx, rs.key).Err()
}

// Follow calls fn with every published snapshot until ctx is done.
func (rs *RedisStore) Follow(ctx context.Context, fn func(store.Snapshot)) error {
	sub := rs.client.Subscribe(ctx, rs.key)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var snap store.Snapshot
			if err := json.Unmarshal([]byte(msg.Payload), &snap); err != nil {
				log.Warn().Err(err).Msg("malformed snapshot ignored")
				continue
			}
			fn(snap)
		}
	}
}

// Source is the state tree being mirrored.
type Source interface {
	Subscribe() <-chan struct{}
	Snapshot() store.Snapshot
}

// Mirror writes src's snapshot after changes, at most once per interval.
type Mirror struct {
	store    *RedisStore
	src      Source
	clock    clockwork.Clock
	interval time.Duration
}

// NewMirror creates a Mirror. A zero interval uses DefaultFlushInterval.
func NewMirror(rs *RedisStore, src Source, clock clockwork.Clock, interval time.Duration) *Mirror {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	return &Mirror{store: rs, src: src, clock: clock, interval: interval}
}

// Run blocks until ctx is done. Pending changes are flushed on exit.
func (m *Mirror) Run(ctx context.Context) {
	changes := m.src.Subscribe()
	ticker := m.clock.NewTicker(m.interval)
	defer ticker.Stop()

	dirty := true // publish the initial state
	for {
		select {
		case <-ctx.Done():
			select {
			case <-changes:
				dirty = true
			default:
			}
			if dirty {
				m.flush(context.WithoutCancel(ctx))
			}
			return
		case <-changes:
			dirty = true
		case <-ticker.Chan():
			if dirty {
				m.flush(ctx)
				dirty = false
			}
		}
	}
}

func (m *Mirror) flush(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := m.store.SaveSnapshot(ctx, m.src.Snapshot()); err != nil {
		log.Error().Err(err).Str("key", m.store.Key()).Msg("mirror snapshot")
	}
}
