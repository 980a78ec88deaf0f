package notify

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 2 * time.Second
	pollAt  = 5 * time.Millisecond
)

func newTestStore(t *testing.T, opts ...Option) (*Store, *clockwork.FakeClock) {
	t.Helper()
	fc := clockwork.NewFakeClock()
	s := New(append([]Option{WithClock(fc)}, opts...)...)
	t.Cleanup(s.Close)
	return s, fc
}

func progressOf(s *Store, id uint64) float64 {
	n, ok := s.Get(id)
	if !ok {
		return -1
	}
	return n.Progress
}

func TestStore_Add(t *testing.T) {
	t.Parallel()

	s, fc := newTestStore(t)
	id := s.Add(Spec{Kind: KindWarning, Title: "Heads up", Message: "battery low", Duration: time.Second})

	n, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, uint64(1), n.ID)
	assert.Equal(t, KindWarning, n.Kind)
	assert.Equal(t, "Heads up", n.Title)
	assert.Equal(t, "battery low", n.Message)
	assert.Equal(t, time.Second, n.Duration)
	assert.Equal(t, 100.0, n.Progress)
	assert.Equal(t, fc.Now(), n.CreatedAt)
	assert.Equal(t, 1, s.loopCount())
}

func TestStore_IDsIncrease(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	first := s.Add(Spec{Kind: KindInfo})
	second := s.Add(Spec{Kind: KindInfo})
	s.Remove(first)
	third := s.Add(Spec{Kind: KindInfo})

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, uint64(3), third, "ids are never reused")
}

func TestStore_SequenceIsPerStore(t *testing.T) {
	t.Parallel()

	a, _ := newTestStore(t)
	b, _ := newTestStore(t)

	assert.Equal(t, uint64(1), a.Add(Spec{}))
	assert.Equal(t, uint64(1), b.Add(Spec{}))

	shared := &Sequence{}
	c, _ := newTestStore(t, WithSequence(shared))
	d, _ := newTestStore(t, WithSequence(shared))
	assert.Equal(t, uint64(1), c.Add(Spec{}))
	assert.Equal(t, uint64(2), d.Add(Spec{}))
}

func TestStore_DecayAndExpire(t *testing.T) {
	t.Parallel()

	s, fc := newTestStore(t)
	id := s.Add(Spec{Kind: KindInfo, Duration: time.Second})
	require.Equal(t, 100.0, progressOf(s, id))

	last := 100.0
	for step := 1; step <= 9; step++ {
		fc.Advance(100 * time.Millisecond)
		expected := 100 - float64(step)*10
		require.Eventually(t, func() bool {
			p := progressOf(s, id)
			return p >= 0 && p <= expected+1e-9 && p >= expected-1e-9
		}, waitFor, pollAt, "step %d", step)

		p := progressOf(s, id)
		assert.Less(t, p, last, "progress strictly decreases")
		last = p
	}

	fc.Advance(100 * time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := s.Get(id)
		return !ok
	}, waitFor, pollAt)
	assert.Equal(t, 0, s.loopCount())
}

func TestStore_DecayJumpsOnStall(t *testing.T) {
	t.Parallel()

	s, fc := newTestStore(t)
	id := s.Add(Spec{Kind: KindInfo, Duration: time.Second})

	// A single late tick well past the duration expires the notification.
	fc.Advance(5 * time.Second)
	require.Eventually(t, func() bool {
		_, ok := s.Get(id)
		return !ok
	}, waitFor, pollAt)
}

func TestStore_ZeroDurationPersists(t *testing.T) {
	t.Parallel()

	s, fc := newTestStore(t)
	id := s.Add(Spec{Kind: KindInfo, Title: "sticky", Duration: 0})
	assert.Equal(t, 0, s.loopCount())

	fc.Advance(time.Hour)
	time.Sleep(20 * time.Millisecond)

	n, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, 100.0, n.Progress)

	s.Remove(id)
	_, ok = s.Get(id)
	assert.False(t, ok)
}

func TestStore_RemoveStopsLoop(t *testing.T) {
	t.Parallel()

	s, fc := newTestStore(t)
	id := s.Add(Spec{Kind: KindError, Duration: time.Second})
	other := s.Add(Spec{Kind: KindError, Duration: 2 * time.Second})

	s.Remove(id)
	assert.Equal(t, 1, s.loopCount())

	fc.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool {
		return progressOf(s, other) == 75
	}, waitFor, pollAt)

	_, ok := s.Get(id)
	assert.False(t, ok, "removed notification does not come back")
}

func TestStore_RemoveIdempotent(t *testing.T) {
	t.Parallel()

	changes := atomic.Int32{}
	s, _ := newTestStore(t, WithOnChange(func() { changes.Add(1) }))
	id := s.Add(Spec{Kind: KindInfo})

	s.Remove(id)
	s.Remove(id)
	s.Remove(12345)

	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int32(2), changes.Load(), "only the add and the first remove change anything")
}

func TestStore_IndependentLoops(t *testing.T) {
	t.Parallel()

	s, fc := newTestStore(t)
	short := s.Add(Spec{Kind: KindSuccess, Duration: time.Second})
	long := s.Add(Spec{Kind: KindError, Duration: 4 * time.Second})

	fc.Advance(time.Second)
	require.Eventually(t, func() bool {
		_, shortAlive := s.Get(short)
		return !shortAlive && progressOf(s, long) == 75
	}, waitFor, pollAt)

	assert.Equal(t, 1, s.Len())
}

func TestStore_ShowDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		show     func(s *Store) uint64
		kind     Kind
		duration time.Duration
	}{
		{"success", func(s *Store) uint64 { return s.ShowSuccess("ok", "saved") }, KindSuccess, 5000 * time.Millisecond},
		{"error", func(s *Store) uint64 { return s.ShowError("X", "Y") }, KindError, 8000 * time.Millisecond},
		{"warning", func(s *Store) uint64 { return s.ShowWarning("w", "m") }, KindWarning, 6000 * time.Millisecond},
		{"info", func(s *Store) uint64 { return s.ShowInfo("i", "m") }, KindInfo, 4000 * time.Millisecond},
		{"explicit duration", func(s *Store) uint64 { return s.ShowError("X", "Y", time.Second) }, KindError, time.Second},
		{"explicit zero", func(s *Store) uint64 { return s.ShowInfo("i", "m", 0) }, KindInfo, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, _ := newTestStore(t)
			n, ok := s.Get(tt.show(s))
			require.True(t, ok)
			assert.Equal(t, tt.kind, n.Kind)
			assert.Equal(t, tt.duration, n.Duration)
		})
	}
}

func TestStore_ShowError_Fields(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	n, ok := s.Get(s.ShowError("X", "Y"))

	require.True(t, ok)
	assert.Equal(t, "X", n.Title)
	assert.Equal(t, "Y", n.Message)
	assert.Equal(t, DefaultErrorDuration, n.Duration)
}

func TestStore_ListOrder(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	s.ShowInfo("a", "")
	s.ShowInfo("b", "")
	s.ShowInfo("c", "")

	var titles []string
	for _, n := range s.List() {
		titles = append(titles, n.Title)
	}
	assert.Equal(t, []string{"a", "b", "c"}, titles)
}

func TestStore_Close(t *testing.T) {
	t.Parallel()

	fc := clockwork.NewFakeClock()
	s := New(WithClock(fc))
	id := s.ShowInfo("bye", "")

	s.Close()
	assert.Equal(t, 0, s.loopCount())

	fc.Advance(time.Minute)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 100.0, progressOf(s, id), "no decay after Close")
}

func TestStore_ConcurrentAdds(t *testing.T) {
	t.Parallel()

	s, _ := newTestStore(t)
	var wg sync.WaitGroup
	ids := make(chan uint64, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- s.ShowInfo("n", "")
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[uint64]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Equal(t, 50, s.Len())
}

func TestDecayProgress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		elapsed  time.Duration
		expected float64
	}{
		{"start", 0, 100},
		{"quarter", 250 * time.Millisecond, 75},
		{"half", 500 * time.Millisecond, 50},
		{"exactly done", time.Second, 0},
		{"overdue", 3 * time.Second, 0},
		{"clock skew", -time.Second, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.InDelta(t, tt.expected, decayProgress(tt.elapsed, time.Second), 1e-9)
		})
	}
}

func TestKind_DefaultDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5*time.Second, KindSuccess.DefaultDuration())
	assert.Equal(t, 8*time.Second, KindError.DefaultDuration())
	assert.Equal(t, 6*time.Second, KindWarning.DefaultDuration())
	assert.Equal(t, 4*time.Second, KindInfo.DefaultDuration())
}
