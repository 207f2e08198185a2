// gotick-mon attaches to a board's telemetry stream and reports how
// its clock is doing: tick rate against the advertised frequency and
// wall-clock drift against the host. Samples can be persisted to
// SQLite for later analysis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"gotick/host/config"
	"gotick/host/monitor"
	"gotick/host/serial"
	"gotick/host/store"
)

var (
	configPath = flag.String("config", "", "YAML config file path")
	device     = flag.String("device", "", "serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "baud rate (overrides config)")
	storePath  = flag.String("store", "", "SQLite drift store path (overrides config)")
	logLevel   = flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	summary    = flag.Duration("summary", 30*time.Second, "interval between summary lines, 0 disables")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			return err
		}
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *storePath != "" {
		cfg.StorePath = *storePath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("bad log level %q", cfg.LogLevel)
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).
		Level(level).
		With().Timestamp().Logger()

	mcfg := monitor.Config{Log: log, Window: cfg.Window}
	if cfg.StorePath != "" {
		st, err := store.Open(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open drift store: %w", err)
		}
		defer st.Close()
		mcfg.Sink = st
		log.Info().Str("path", cfg.StorePath).Msg("drift store enabled")
	}

	scfg := serial.DefaultConfig(cfg.Device)
	scfg.Baud = cfg.Baud
	port, err := serial.Open(scfg)
	if err != nil {
		return err
	}
	defer port.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A cancelled context cannot interrupt a blocked serial read;
	// closing the port can.
	go func() {
		<-ctx.Done()
		port.Close()
	}()

	m := monitor.New(mcfg)
	if *summary > 0 {
		go logSummary(ctx, log, m, *summary)
	}

	log.Info().Str("device", cfg.Device).Int("baud", cfg.Baud).Msg("monitoring")
	if err := m.Run(ctx, port); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printStats(log, m.Stats(), "session summary")
	return nil
}

func logSummary(ctx context.Context, log zerolog.Logger, m *monitor.Monitor, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			printStats(log, m.Stats(), "summary")
		case <-ctx.Done():
			return
		}
	}
}

func printStats(log zerolog.Logger, stats monitor.Stats, msg string) {
	ev := log.Info().
		Str("board", stats.Board).
		Uint32("freq", stats.Freq).
		Float64("tick_rate", stats.TickRate).
		Float64("ppm", stats.RatePPM).
		Uint64("uptime", stats.Uptime).
		Uint64("reports", stats.Decoder.Reports).
		Uint64("crc_errors", stats.Decoder.CRCErrors)
	if stats.HaveDrift {
		ev = ev.Int64("drift", stats.Drift)
	}
	ev.Msg(msg)
}
