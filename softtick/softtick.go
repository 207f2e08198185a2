// Package softtick drives a systime.System from host wall time.
//
// On hardware the tick interrupt is wired directly to SysTick; in
// simulators and tests there is no interrupt, so a Driver owns a
// goroutine that calls System.SysTick at the configured rate. A late
// wakeup is caught up by emitting the missed ticks in a burst, so the
// tick count tracks elapsed real time rather than scheduler luck.
package softtick

import (
	"context"
	"sync"
	"time"

	"gotick/systime"
)

// DefaultResolution is how often the driver wakes to emit ticks.
// Waking less often than the tick period is fine: each wakeup emits
// however many ticks have elapsed.
const DefaultResolution = time.Millisecond

// Config holds driver parameters.
type Config struct {
	// Resolution is the ticker interval for the stepping goroutine.
	// Zero means DefaultResolution.
	Resolution time.Duration

	// MaxBurst caps the number of ticks emitted from a single wakeup,
	// bounding the stall after a long suspend. Zero means no cap.
	MaxBurst uint64
}

// Driver steps a systime.System at its configured tick frequency.
type Driver struct {
	sys *systime.System
	cfg Config

	tickDur time.Duration

	mu   sync.Mutex
	last time.Time
	acc  time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a driver for sys. The tick period is derived from the
// system's frequency at construction time.
func New(sys *systime.System, cfg Config) *Driver {
	if cfg.Resolution <= 0 {
		cfg.Resolution = DefaultResolution
	}
	d := &Driver{
		sys: sys,
		cfg: cfg,
	}
	freq := sys.Freq()
	if freq > 0 {
		d.tickDur = time.Second / time.Duration(freq)
	}
	return d
}

// Step advances the system by n ticks immediately. It is the manual
// alternative to Start for deterministic tests.
func (d *Driver) Step(n uint64) {
	for i := uint64(0); i < n; i++ {
		d.sys.SysTick()
	}
}

// Start launches the stepping goroutine. It returns immediately; the
// goroutine runs until ctx is cancelled or Stop is called. Starting a
// driver whose system has zero frequency is a no-op.
func (d *Driver) Start(ctx context.Context) {
	if d.tickDur <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(ctx)

	d.mu.Lock()
	d.cancel = cancel
	d.last = time.Time{}
	d.acc = 0
	d.done = make(chan struct{})
	done := d.done
	d.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(d.cfg.Resolution)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.advance(time.Now())
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the stepping goroutine and waits for it to exit. Stopping
// a driver that was never started is a no-op.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// advance emits the ticks that elapsed since the previous call. The
// first call only records the baseline.
func (d *Driver) advance(now time.Time) {
	d.mu.Lock()
	if d.last.IsZero() {
		d.last = now
		d.mu.Unlock()
		return
	}
	d.acc += now.Sub(d.last)
	d.last = now

	ticks := uint64(d.acc / d.tickDur)
	if ticks == 0 {
		d.mu.Unlock()
		return
	}
	d.acc -= time.Duration(ticks) * d.tickDur
	if d.cfg.MaxBurst > 0 && ticks > d.cfg.MaxBurst {
		ticks = d.cfg.MaxBurst
		d.acc = 0
	}
	d.mu.Unlock()

	d.Step(ticks)
}
