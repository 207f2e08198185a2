// Package monitor consumes a board's telemetry stream and tracks how
// the board's clock behaves against the host's.
//
// Two figures matter: drift, the difference between the board's wall
// clock and the host's whenever a walltime report arrives, and the
// tick rate, estimated from consecutive clock reports using the same
// wrap-safe difference the firmware uses. Samples can be forwarded to
// an optional Sink for persistence.
package monitor

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"gotick/host/serial"
	"gotick/protocol"
	"gotick/systime"
)

// DefaultWindow is how many rate estimates the running average keeps.
const DefaultWindow = 16

// Sample is one drift observation, taken whenever the board reports
// wall time.
type Sample struct {
	When     time.Time
	Drift    int64   // board wall clock minus host wall clock, seconds
	TickRate float64 // windowed ticks-per-second estimate, 0 until known
	Uptime   uint64  // last reported accumulated tick count
}

// Sink receives drift samples. host/store satisfies it.
type Sink interface {
	Append(ctx context.Context, s Sample) error
}

// Config holds monitor parameters.
type Config struct {
	// Log receives structured events. The zero value discards them.
	Log zerolog.Logger

	// Sink, when non-nil, receives every drift sample.
	Sink Sink

	// Window is the number of tick-rate estimates averaged. Zero means
	// DefaultWindow.
	Window int
}

// Stats is a snapshot of what the monitor has learned so far.
type Stats struct {
	Board     string
	Freq      uint32
	TickRate  float64 // windowed average, 0 until two clock reports
	RatePPM   float64 // rate error against the advertised frequency
	Drift     int64
	HaveDrift bool
	Uptime    uint64
	Decoder   protocol.DecoderStats
}

// Monitor decodes telemetry from a serial port and accumulates clock
// statistics. Safe for concurrent use; Run owns the port.
type Monitor struct {
	log    zerolog.Logger
	sink   Sink
	dec    *protocol.Decoder
	errLim *rate.Limiter

	mu        sync.Mutex
	board     string
	freq      uint32
	haveClock bool
	lastTicks systime.Ticks
	lastAt    time.Time
	rates     []float64
	rateIdx   int
	rateN     int
	uptime    uint64
	drift     int64
	haveDrift bool
	seenErrs  uint64
}

// New creates a Monitor.
func New(cfg Config) *Monitor {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	return &Monitor{
		log:    cfg.Log,
		sink:   cfg.Sink,
		dec:    protocol.NewDecoder(),
		errLim: rate.NewLimiter(rate.Every(5*time.Second), 1),
		rates:  make([]float64, window),
	}
}

// Run reads the port until ctx is cancelled or the port closes. A
// closed port returns nil. io.EOF from the port is treated as an idle
// line, which is how serial read timeouts surface.
func (m *Monitor) Run(ctx context.Context, port serial.Port) error {
	buf := make([]byte, 256)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := port.Read(buf)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			continue
		case errors.Is(err, io.ErrClosedPipe), errors.Is(err, os.ErrClosed):
			return nil
		default:
			if m.errLim.Allow() {
				m.log.Warn().Err(err).Msg("serial read failed")
			}
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}

		m.dec.Write(buf[:n])
		now := time.Now()
		for {
			rep := m.dec.Next()
			if rep == nil {
				break
			}
			m.handle(ctx, rep, now)
		}
		m.noteStreamErrors()
	}
}

// Stats returns a snapshot of accumulated statistics.
func (m *Monitor) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Stats{
		Board:     m.board,
		Freq:      m.freq,
		TickRate:  m.meanRate(),
		RatePPM:   ppmError(m.meanRate(), m.freq),
		Drift:     m.drift,
		HaveDrift: m.haveDrift,
		Uptime:    m.uptime,
		Decoder:   m.dec.Stats(),
	}
}

// handle folds one report into the running statistics. now is when the
// report was pulled off the wire.
func (m *Monitor) handle(ctx context.Context, rep protocol.Report, now time.Time) {
	var sample *Sample

	m.mu.Lock()
	switch r := rep.(type) {
	case protocol.Ident:
		changed := r.Name != m.board || r.Freq != m.freq
		m.board = r.Name
		m.freq = r.Freq
		if r.Version != protocol.Version {
			m.log.Warn().
				Uint32("board_version", r.Version).
				Uint32("host_version", protocol.Version).
				Msg("wire format version mismatch")
		} else if changed {
			m.log.Info().
				Str("board", r.Name).
				Uint32("freq", r.Freq).
				Msg("board identified")
		}

	case protocol.Clock:
		ticks := systime.Ticks(r.Ticks)
		if m.haveClock {
			if elapsed := now.Sub(m.lastAt).Seconds(); elapsed > 0 {
				est := float64(systime.Diff(ticks, m.lastTicks)) / elapsed
				m.pushRate(est)
				m.log.Debug().
					Uint32("ticks", r.Ticks).
					Float64("rate", est).
					Float64("ppm", ppmError(est, m.freq)).
					Msg("clock report")
			}
		}
		m.lastTicks = ticks
		m.lastAt = now
		m.haveClock = true

	case protocol.Uptime:
		m.uptime = r.Ticks
		m.log.Debug().Uint64("uptime", r.Ticks).Msg("uptime report")

	case protocol.Walltime:
		m.drift = r.Seconds - now.Unix()
		m.haveDrift = true
		sample = &Sample{
			When:     now,
			Drift:    m.drift,
			TickRate: m.meanRate(),
			Uptime:   m.uptime,
		}
		m.log.Info().
			Int64("board_time", r.Seconds).
			Int64("drift", m.drift).
			Msg("walltime report")
	}
	m.mu.Unlock()

	if sample != nil && m.sink != nil {
		if err := m.sink.Append(ctx, *sample); err != nil {
			m.log.Warn().Err(err).Msg("drift sample store failed")
		}
	}
}

// noteStreamErrors logs once per throttle interval when the decoder
// has hit new trouble since the last check.
func (m *Monitor) noteStreamErrors() {
	stats := m.dec.Stats()
	errs := stats.CRCErrors + stats.Malformed + stats.Resyncs

	m.mu.Lock()
	fresh := errs > m.seenErrs
	m.seenErrs = errs
	m.mu.Unlock()

	if fresh && m.errLim.Allow() {
		m.log.Warn().
			Uint64("crc_errors", stats.CRCErrors).
			Uint64("malformed", stats.Malformed).
			Uint64("resyncs", stats.Resyncs).
			Msg("telemetry stream errors")
	}
}

func (m *Monitor) pushRate(est float64) {
	m.rates[m.rateIdx] = est
	m.rateIdx = (m.rateIdx + 1) % len(m.rates)
	if m.rateN < len(m.rates) {
		m.rateN++
	}
}

func (m *Monitor) meanRate() float64 {
	if m.rateN == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < m.rateN; i++ {
		sum += m.rates[i]
	}
	return sum / float64(m.rateN)
}

// ppmError returns the rate error against the advertised frequency in
// parts per million.
func ppmError(est float64, freq uint32) float64 {
	if freq == 0 || est == 0 {
		return 0
	}
	return (est/float64(freq) - 1) * 1e6
}
