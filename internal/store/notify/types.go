package notify

import "time"

// Kind is a notification severity.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindWarning Kind = "warning"
	KindInfo    Kind = "info"
)

// Default durations applied by the Show helpers when none is given.
const (
	DefaultSuccessDuration = 5 * time.Second
	DefaultErrorDuration   = 8 * time.Second
	DefaultWarningDuration = 6 * time.Second
	DefaultInfoDuration    = 4 * time.Second
)

// DefaultDuration returns the default duration for kind.
func (k Kind) DefaultDuration() time.Duration {
	switch k {
	case KindSuccess:
		return DefaultSuccessDuration
	case KindError:
		return DefaultErrorDuration
	case KindWarning:
		return DefaultWarningDuration
	default:
		return DefaultInfoDuration
	}
}

// Spec describes a notification to add. A zero Duration never expires.
type Spec struct {
	Kind     Kind
	Title    string
	Message  string
	Duration time.Duration
}

// Notification is a live alert. Progress runs from 100 down to 0.
type Notification struct {
	ID        uint64        `json:"id"`
	Kind      Kind          `json:"kind"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Duration  time.Duration `json:"duration"`
	Progress  float64       `json:"progress"`
	CreatedAt time.Time     `json:"created_at"`
}

// Expires reports whether the notification decays on its own.
func (n Notification) Expires() bool {
	return n.Duration > 0
}

// decayProgress returns the remaining percentage after elapsed of duration.
func decayProgress(elapsed, duration time.Duration) float64 {
	progress := 100 - float64(elapsed)/float64(duration)*100
	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}
