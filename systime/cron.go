package systime

import "sync/atomic"

// CrontabSize is the fixed capacity of a System's cron table.
const CrontabSize = 10

// Job is a periodic cron callback. Run takes no arguments, returns
// nothing, and executes synchronously in the tick interrupt context:
// a slow job directly delays the next tick, so keep it short and
// never block.
//
// Jobs are matched by interface equality in Remove, so implementations
// should be comparable — a pointer receiver is the usual choice.
type Job interface {
	Run()
}

type funcJob struct {
	fn func()
}

func (j *funcJob) Run() { j.fn() }

// FuncJob wraps a plain function as a Job. The returned value is
// comparable, so keeping it around allows the job to be passed to
// Remove later.
func FuncJob(fn func()) Job {
	return &funcJob{fn: fn}
}

// cronEntry pairs a job with its firing period in ticks.
type cronEntry struct {
	job    Job
	period Ticks
}

// Crontab is a fixed-capacity table of periodic jobs scanned once per
// tick. The zero value is an empty, usable table. Slot order carries
// no meaning beyond occupancy.
//
// Each slot is a single atomic pointer, so foreground Add and Remove
// calls may race the tick-context scan: the scan observes a mutation
// either before or after it happens, with a window of at most one
// pending tick where the old behavior still applies.
type Crontab struct {
	slots [CrontabSize]atomic.Pointer[cronEntry]
}

// Add registers job to fire every period ticks. Firing is aligned to
// absolute tick zero — the job runs whenever the tick counter is a
// multiple of period, regardless of the tick at which it was
// registered — so two jobs with equal periods fire in lockstep.
//
// When the table is full the registration is dropped silently, a
// limitation inherited from the fixed-capacity design. A nil job or a
// zero period is dropped as well: neither could ever fire, and a zero
// period would fault the dispatch scan.
func (c *Crontab) Add(job Job, period Ticks) {
	if job == nil || period == 0 {
		return
	}
	e := &cronEntry{job: job, period: period}
	for i := range c.slots {
		if c.slots[i].CompareAndSwap(nil, e) {
			return
		}
	}
}

// Remove clears every slot whose job equals the argument. Add performs
// no deduplication, so the same job may occupy several slots; all of
// them are cleared.
func (c *Crontab) Remove(job Job) {
	if job == nil {
		return
	}
	for i := range c.slots {
		if e := c.slots[i].Load(); e != nil && e.job == job {
			c.slots[i].CompareAndSwap(e, nil)
		}
	}
}

// Len returns the number of occupied slots.
func (c *Crontab) Len() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].Load() != nil {
			n++
		}
	}
	return n
}

// dispatch runs every job whose period divides tick, synchronously and
// in table order. Runs in the tick interrupt context.
func (c *Crontab) dispatch(tick Ticks) {
	for i := range c.slots {
		if e := c.slots[i].Load(); e != nil && tick%e.period == 0 {
			e.job.Run()
		}
	}
}
