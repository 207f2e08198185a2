package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gotick/host/serial"
	"gotick/protocol"
)

type recordingSink struct {
	mu      sync.Mutex
	samples []Sample
	err     error
}

func (s *recordingSink) Append(ctx context.Context, sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.samples = append(s.samples, sample)
	return nil
}

func (s *recordingSink) all() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sample(nil), s.samples...)
}

func TestIdent(t *testing.T) {
	m := New(Config{})
	m.handle(context.Background(), protocol.Ident{Version: protocol.Version, Freq: 1000, Name: "sim"}, time.Now())

	stats := m.Stats()
	if stats.Board != "sim" {
		t.Errorf("Board = %q, want %q", stats.Board, "sim")
	}
	if stats.Freq != 1000 {
		t.Errorf("Freq = %d, want 1000", stats.Freq)
	}
}

func TestTickRateEstimation(t *testing.T) {
	m := New(Config{})
	ctx := context.Background()
	t0 := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

	m.handle(ctx, protocol.Ident{Version: protocol.Version, Freq: 1000, Name: "sim"}, t0)
	m.handle(ctx, protocol.Clock{Ticks: 1000}, t0)
	m.handle(ctx, protocol.Clock{Ticks: 2000}, t0.Add(time.Second))

	stats := m.Stats()
	if stats.TickRate != 1000 {
		t.Errorf("TickRate = %v, want 1000", stats.TickRate)
	}
	if stats.RatePPM != 0 {
		t.Errorf("RatePPM = %v, want 0", stats.RatePPM)
	}
}

func TestTickRateAcrossWrap(t *testing.T) {
	m := New(Config{})
	ctx := context.Background()
	t0 := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

	// 0xFFFFFF00 -> 100 is 356 ticks once the counter wraps.
	m.handle(ctx, protocol.Clock{Ticks: 0xFFFFFF00}, t0)
	m.handle(ctx, protocol.Clock{Ticks: 100}, t0.Add(time.Second))

	if stats := m.Stats(); stats.TickRate != 356 {
		t.Errorf("TickRate = %v, want 356", stats.TickRate)
	}
}

func TestDriftSample(t *testing.T) {
	sink := &recordingSink{}
	m := New(Config{Sink: sink})
	ctx := context.Background()
	now := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

	m.handle(ctx, protocol.Uptime{Ticks: 123456}, now)
	m.handle(ctx, protocol.Walltime{Seconds: now.Unix() + 5}, now)

	stats := m.Stats()
	if !stats.HaveDrift || stats.Drift != 5 {
		t.Errorf("Drift = %d (have %v), want 5", stats.Drift, stats.HaveDrift)
	}

	samples := sink.all()
	if len(samples) != 1 {
		t.Fatalf("sink received %d samples, want 1", len(samples))
	}
	if samples[0].Drift != 5 || samples[0].Uptime != 123456 {
		t.Errorf("sample = %+v, want drift 5 uptime 123456", samples[0])
	}
}

func TestSinkErrorTolerated(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	m := New(Config{Sink: sink})
	now := time.Date(2026, time.August, 23, 12, 0, 0, 0, time.UTC)

	// Must not panic or lose the in-memory statistic.
	m.handle(context.Background(), protocol.Walltime{Seconds: now.Unix() + 2}, now)
	if stats := m.Stats(); stats.Drift != 2 {
		t.Errorf("Drift = %d, want 2", stats.Drift)
	}
}

func TestRunOverLoopback(t *testing.T) {
	scratch := protocol.NewScratchOutput()
	protocol.EncodeIdent(scratch, 1000, "sim")
	protocol.EncodeUptime(scratch, 42)
	protocol.EncodeWalltime(scratch, time.Now().Unix()+7)

	port := serial.NewLoopback()
	port.Feed(scratch.Result())
	port.Close() // Run drains the queued bytes, then exits cleanly

	sink := &recordingSink{}
	m := New(Config{Sink: sink})

	if err := m.Run(context.Background(), port); err != nil {
		t.Fatalf("Run: %v", err)
	}

	samples := sink.all()
	if len(samples) != 1 {
		t.Fatalf("sink received %d samples, want 1", len(samples))
	}
	if samples[0].Uptime != 42 {
		t.Errorf("sample uptime = %d, want 42", samples[0].Uptime)
	}
	if d := samples[0].Drift; d < 6 || d > 7 {
		t.Errorf("sample drift = %d, want about 7", d)
	}
	if stats := m.Stats(); stats.Board != "sim" {
		t.Errorf("Board = %q, want %q", stats.Board, "sim")
	}
}

func TestRunCancelled(t *testing.T) {
	port := serial.NewLoopback()
	defer port.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	m := New(Config{})
	go func() { errc <- m.Run(ctx, port) }()

	cancel()
	// Unblock the pending read so Run can observe the cancellation.
	port.Feed([]byte{0x00})

	select {
	case err := <-errc:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
