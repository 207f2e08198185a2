// Package systime is a minimal operating-system-like time base for
// targets without an RTOS: a wrapping tick counter driven by a
// periodic timer interrupt, a wall clock derived from it, and a
// fixed-capacity cron table dispatched once per tick.
//
// The hardware timer driver owns the only entry point into the
// package: it must call (*System).SysTick exactly once per tick
// period. Everything else — reading the counters, setting the wall
// clock, registering cron jobs — may be done from foreground code at
// any time, concurrently with the interrupt.
package systime

import "sync/atomic"

// Ticks counts elapsed tick interrupts since system start. It is not
// wall time: one tick is whatever period the hardware timer was
// programmed with. The counter wraps past its maximum back to zero.
type Ticks uint32

// STicks is the signed twin of Ticks, incremented in lockstep. It
// exists for elapsed-time comparisons that span a rollover: the
// symmetric wraparound of a signed counter lets callers difference two
// samples without special-casing sign. See SDiff.
type STicks int32

// Seconds is wall-clock time in whole seconds since the Unix epoch.
type Seconds int64

// FreqFunc reports the tick frequency (ticks per second) of the
// hardware timer driving SysTick. It is called on every tick, so it
// must be cheap and safe to call from the interrupt context.
type FreqFunc func() Ticks

// DefaultFreq is the tick frequency assumed when Config.Freq is nil:
// a 1 kHz tick, the classic SysTick setup.
const DefaultFreq Ticks = 1000

// TimeProvider is an external wall-clock source, typically a
// battery-backed RTC. Once installed via SetProvider it permanently
// replaces the internal seconds counter: System.Time and
// System.SetTime forward to it verbatim.
type TimeProvider interface {
	// Time returns the current wall-clock seconds, also storing the
	// value through out when out is non-nil.
	Time(out *Seconds) Seconds

	// SetTime sets the wall clock. A nil t must be rejected.
	SetTime(t *Seconds) error
}

// Config configures a System.
type Config struct {
	// Freq reports the tick frequency of the timer that will drive
	// SysTick. Nil defaults to DefaultFreq.
	Freq FreqFunc
}

// System owns the tick counters, the derived wall clock and the cron
// table. All writes happen on the SysTick path except the explicit
// Set* rebasing calls; foreground reads race the interrupt, so every
// shared word is an atomic value. Reading two counters together is
// not atomic as a pair.
type System struct {
	ticks  atomic.Uint32
	sticks atomic.Int32
	rolls  atomic.Uint32 // tick counter wraparounds, for Uptime
	now    atomic.Int64  // wall seconds; unused once a provider is set

	provider atomic.Pointer[TimeProvider]
	freq     FreqFunc

	cron Crontab
}

// New returns a System with zeroed counters and an empty cron table.
// The System lives for the rest of the process: there is no teardown.
func New(cfg Config) *System {
	s := &System{freq: cfg.Freq}
	if s.freq == nil {
		s.freq = func() Ticks { return DefaultFreq }
	}
	return s
}

// Freq returns the current tick frequency as reported by the
// configured FreqFunc.
func (s *System) Freq() Ticks { return s.freq() }

// Cron returns the system's cron table.
func (s *System) Cron() *Crontab { return &s.cron }
