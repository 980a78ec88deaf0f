package storage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/tagracer/internal/store"
	"github.com/palemoky/tagracer/internal/store/game"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ""), mr
}

func sampleSnapshot() store.Snapshot {
	return store.Snapshot{
		Session:   &game.Session{GameID: 3, StartTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), Duration: 5 * time.Minute},
		Status:    game.StatusRunning,
		Scores:    []game.ScoreEntry{{PlayerID: "p1", Nickname: "Ann", Points: 10, TagCount: 2}},
		Connected: true,
	}
}

func TestRedisStore_SaveLoadDeleteSnapshot(t *testing.T) {
	t.Parallel()

	rs, mr := newTestRedisStore(t)
	ctx := context.Background()

	loaded, err := rs.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded, "nothing stored yet")

	require.NoError(t, rs.SaveSnapshot(ctx, sampleSnapshot()))
	assert.True(t, mr.Exists(DefaultKey))
	assert.Equal(t, snapshotExpiration, mr.TTL(DefaultKey))

	loaded, err = rs.LoadSnapshot(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.Session)
	assert.Equal(t, int64(3), loaded.Session.GameID)
	assert.Equal(t, 10, loaded.Scores[0].Points)
	assert.True(t, loaded.Connected)

	require.NoError(t, rs.DeleteSnapshot(ctx))
	loaded, err = rs.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_LoadMalformed(t *testing.T) {
	t.Parallel()

	rs, mr := newTestRedisStore(t)
	require.NoError(t, mr.Set(DefaultKey, "{not json"))

	_, err := rs.LoadSnapshot(context.Background())
	assert.ErrorContains(t, err, "decode snapshot")
}

func TestRedisStore_CustomKey(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rs := NewRedisStore(client, "arena:1")

	require.NoError(t, rs.SaveSnapshot(context.Background(), sampleSnapshot()))
	assert.True(t, mr.Exists("arena:1"))
	assert.False(t, mr.Exists(DefaultKey))
}

func TestRedisStore_Follow(t *testing.T) {
	t.Parallel()

	rs, _ := newTestRedisStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan store.Snapshot, 1)
	done := make(chan error, 1)
	go func() {
		done <- rs.Follow(ctx, func(s store.Snapshot) { got <- s })
	}()

	// Publish until the follower has subscribed.
	require.Eventually(t, func() bool {
		_ = rs.SaveSnapshot(context.Background(), sampleSnapshot())
		select {
		case snap := <-got:
			return snap.Session != nil && snap.Session.GameID == 3
		default:
			return false
		}
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Follow did not return after cancel")
	}
}

type fakeSource struct {
	mu      sync.Mutex
	changes chan struct{}
	snap    store.Snapshot
}

func newFakeSource() *fakeSource {
	return &fakeSource{changes: make(chan struct{}, 1), snap: sampleSnapshot()}
}

func (f *fakeSource) Subscribe() <-chan struct{} { return f.changes }

func (f *fakeSource) Snapshot() store.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeSource) set(points int) {
	f.mu.Lock()
	f.snap.Scores = []game.ScoreEntry{{PlayerID: "p1", Points: points}}
	f.mu.Unlock()
	select {
	case f.changes <- struct{}{}:
	default:
	}
}

func TestMirror_FlushesOnTick(t *testing.T) {
	t.Parallel()

	rs, _ := newTestRedisStore(t)
	src := newFakeSource()
	clock := clockwork.NewFakeClock()
	m := NewMirror(rs, src, clock, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()
	loaded, err := rs.LoadSnapshot(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded, "nothing is written before the first tick")

	// The ticker may not exist yet, so keep advancing until a flush lands.
	require.Eventually(t, func() bool {
		clock.Advance(time.Second)
		s, err := rs.LoadSnapshot(context.Background())
		return err == nil && s != nil && s.Scores[0].Points == 10
	}, 2*time.Second, 5*time.Millisecond)

	src.set(42)
	cancel()
	<-done

	s, err := rs.LoadSnapshot(context.Background())
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 42, s.Scores[0].Points, "pending change flushed on shutdown")
}
