package rtc

import (
	"sync/atomic"
	"time"

	"gotick/systime"
)

// HostClock is a TimeProvider backed by the OS clock. SetTime adjusts
// an offset instead of touching the OS clock, so a simulated system
// can be moved through time freely. Safe for concurrent use.
type HostClock struct {
	offset atomic.Int64
	now    func() time.Time
}

// NewHostClock returns a provider reporting the current OS time.
func NewHostClock() *HostClock {
	return &HostClock{now: time.Now}
}

// Time implements systime.TimeProvider.
func (h *HostClock) Time(out *systime.Seconds) systime.Seconds {
	t := systime.Seconds(h.now().Unix() + h.offset.Load())
	if out != nil {
		*out = t
	}
	return t
}

// SetTime implements systime.TimeProvider.
func (h *HostClock) SetTime(t *systime.Seconds) error {
	if t == nil {
		return systime.ErrNilTime
	}
	h.offset.Store(int64(*t) - h.now().Unix())
	return nil
}
