package systime

// Clock returns the current tick count.
func (s *System) Clock() Ticks {
	return Ticks(s.ticks.Load())
}

// SetClock rebases the tick counter and returns the new value. The
// write is visible to the next foreground read immediately, but an
// in-flight tick interrupt may still have sampled the old value.
// Rebasing does not reset the rollover count used by Uptime.
func (s *System) SetClock(t Ticks) Ticks {
	s.ticks.Store(uint32(t))
	return t
}

// SClock returns the current signed tick count.
func (s *System) SClock() STicks {
	return STicks(s.sticks.Load())
}

// SetSClock rebases the signed tick counter and returns the new value.
func (s *System) SetSClock(t STicks) STicks {
	s.sticks.Store(int32(t))
	return t
}

// Uptime returns the ticks elapsed since system start as a 64-bit
// value assembled from the rollover count and the tick counter. The
// two words cannot be read atomically as a pair, so the rollover count
// is re-read until it is stable around the tick sample.
func (s *System) Uptime() uint64 {
	for {
		hi := s.rolls.Load()
		lo := s.ticks.Load()
		if s.rolls.Load() == hi {
			return uint64(hi)<<32 | uint64(lo)
		}
	}
}
