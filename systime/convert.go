package systime

// TicksFromMS converts milliseconds to ticks at the system tick
// frequency. The intermediate math is 64-bit, so large inputs do not
// overflow before the division.
func (s *System) TicksFromMS(ms uint32) Ticks {
	return Ticks(uint64(ms) * uint64(s.freq()) / 1000)
}

// TicksFromSec converts whole seconds to ticks.
func (s *System) TicksFromSec(sec uint32) Ticks {
	return Ticks(sec) * s.freq()
}

// MSFromTicks converts ticks back to milliseconds.
func (s *System) MSFromTicks(t Ticks) uint32 {
	f := s.freq()
	if f == 0 {
		return 0
	}
	return uint32(uint64(t) * 1000 / uint64(f))
}
