package notify

import "sync/atomic"

// Sequence hands out notification ids, starting at 1.
type Sequence struct {
	last atomic.Uint64
}

// Next returns the next id.
func (s *Sequence) Next() uint64 {
	return s.last.Add(1)
}
