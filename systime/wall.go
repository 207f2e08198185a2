package systime

import "errors"

// ErrNilTime is returned by SetTime when the new value is absent.
var ErrNilTime = errors.New("systime: nil time value")

// Time returns the current wall-clock seconds. When out is non-nil the
// value is also stored through it. With an external provider installed
// the call is forwarded to it verbatim.
func (s *System) Time(out *Seconds) Seconds {
	if p := s.provider.Load(); p != nil {
		return (*p).Time(out)
	}
	now := Seconds(s.now.Load())
	if out != nil {
		*out = now
	}
	return now
}

// SetTime sets the wall clock to *t. A nil t returns ErrNilTime with
// no state changed. With an external provider installed the call is
// forwarded and the provider's status returned.
func (s *System) SetTime(t *Seconds) error {
	if p := s.provider.Load(); p != nil {
		return (*p).SetTime(t)
	}
	if t == nil {
		return ErrNilTime
	}
	s.now.Store(int64(*t))
	return nil
}

// SetProvider installs an external wall-clock source. Registration is
// one-time and monotonic: the first install wins, later calls and nil
// providers are ignored, and there is no unregister. Once installed,
// the internal seconds counter is never advanced or read again.
func (s *System) SetProvider(p TimeProvider) {
	if p == nil {
		return
	}
	s.provider.CompareAndSwap(nil, &p)
}

// advanceWall bumps the seconds counter once every freq ticks, counted
// from the absolute tick value. An installed provider owns the wall
// clock, so internal accumulation stops permanently then. A zero
// reported frequency disables accumulation for that tick instead of
// faulting the interrupt handler.
func (s *System) advanceWall(tick Ticks) {
	if s.provider.Load() != nil {
		return
	}
	f := s.freq()
	if f == 0 {
		return
	}
	if tick%f == 0 {
		s.now.Add(1)
	}
}
