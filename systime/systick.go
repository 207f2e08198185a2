package systime

// SysTick is the tick dispatcher: the single entry point the hardware
// timer driver must invoke, exactly once per tick period, from its
// interrupt handler.
//
// The sequence per invocation is fixed: both tick counters increment
// first, then the wall clock advances, then the cron table is scanned
// — so the wall-clock decision and every cron job for a given tick
// always observe the just-incremented tick value, never a stale one.
func (s *System) SysTick() {
	t := Ticks(s.ticks.Add(1))
	s.sticks.Add(1)
	if t == 0 {
		s.rolls.Add(1)
	}
	s.advanceWall(t)
	s.cron.dispatch(t)
}
