package systime

import "testing"

func TestDispatchOrderCountersBeforeCron(t *testing.T) {
	sys := New(Config{})

	// Every job observes the tick counter already incremented for the
	// tick it fires on.
	var seen []Ticks
	sys.Cron().Add(FuncJob(func() { seen = append(seen, sys.Clock()) }), 1)

	tickN(sys, 3)
	for i, tick := range seen {
		if want := Ticks(i + 1); tick != want {
			t.Errorf("job invocation %d observed tick %d, want %d", i, tick, want)
		}
	}
}

func TestDispatchOrderWallBeforeCron(t *testing.T) {
	sys := New(Config{Freq: fixedFreq(10)})

	// A job firing exactly on a second boundary must see the wall
	// clock already advanced for that boundary.
	var seen []Seconds
	sys.Cron().Add(FuncJob(func() { seen = append(seen, sys.Time(nil)) }), 10)

	tickN(sys, 30)
	want := []Seconds{1, 2, 3}
	if len(seen) != len(want) {
		t.Fatalf("job fired %d times, want %d", len(seen), len(want))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("firing %d observed %d seconds, want %d", i, seen[i], want[i])
		}
	}
}

func TestSignedCounterTracksUnsigned(t *testing.T) {
	sys := New(Config{})
	tickN(sys, 12345)
	if u, s := sys.Clock(), sys.SClock(); Ticks(s) != u {
		t.Errorf("counters diverged: Clock=%d SClock=%d", u, s)
	}
}
