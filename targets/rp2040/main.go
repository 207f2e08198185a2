//go:build rp2040

package main

import (
	"machine"
	"sync/atomic"
	"time"

	"gotick/protocol"
	"gotick/rtc"
	"gotick/systime"
)

const boardName = "pico"

const (
	heartbeatPeriod = TickFreq / 2 // LED toggle, 1Hz blink
	reportPeriod    = TickFreq     // telemetry burst and PPS, 1Hz
	identPeriod     = 5 * TickFreq // ident refresh for late-attaching hosts
)

const ppsPin = machine.GPIO15

var (
	led   = machine.LED
	ledOn bool

	// Cron jobs run in the tick interrupt, so they only raise flags;
	// the foreground loop does the serial writes.
	reportDue atomic.Bool
	identDue  atomic.Bool

	out = protocol.NewScratchOutput()
)

func main() {
	// Clear any watchdog state left over from a previous reset.
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}

	machine.Serial.Configure(machine.UARTConfig{BaudRate: 115200})
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})

	initRTC()
	pps, ppsErr := NewPPS(ppsPin, 100*time.Millisecond)

	cron := sys.Cron()
	cron.Add(systime.FuncJob(func() {
		ledOn = !ledOn
		led.Set(ledOn)
	}), heartbeatPeriod)
	cron.Add(systime.FuncJob(func() { reportDue.Store(true) }), reportPeriod)
	cron.Add(systime.FuncJob(func() { identDue.Store(true) }), identPeriod)
	if ppsErr == nil {
		cron.Add(systime.FuncJob(pps.Pulse), reportPeriod)
	}

	if err := initSysTick(); err != nil {
		return
	}

	emitIdent()
	for {
		if identDue.Swap(false) {
			emitIdent()
		}
		if reportDue.Swap(false) {
			emitReports()
		}
		time.Sleep(time.Millisecond)
	}
}

// initRTC installs a DS3231 provider when one answers on I2C0. Boards
// without the part keep the internal tick-derived wall clock.
func initRTC() {
	if err := machine.I2C0.Configure(machine.I2CConfig{Frequency: 400_000}); err != nil {
		return
	}
	clock := rtc.NewDS3231(machine.I2C0)
	if err := clock.Configure(); err != nil {
		return
	}
	if !clock.Valid() {
		// Oscillator stopped since the time was last set; the part
		// would report a bogus time.
		return
	}
	sys.SetProvider(clock)
}

// emitIdent announces the board and its tick frequency.
func emitIdent() {
	out.Reset()
	protocol.EncodeIdent(out, uint32(TickFreq), boardName)
	flush()
}

// emitReports sends one telemetry burst: tick counter, 64-bit uptime
// and the wall clock.
func emitReports() {
	out.Reset()
	protocol.EncodeClock(out, uint32(sys.Clock()))
	protocol.EncodeUptime(out, sys.Uptime())
	protocol.EncodeWalltime(out, int64(sys.Time(nil)))
	flush()
}

// flush writes the scratch buffer out, tolerating partial writes. A
// write error drops the rest of the burst; the next one is at most a
// second away.
func flush() {
	data := out.Result()
	for len(data) > 0 {
		n, err := machine.Serial.Write(data)
		if err != nil {
			break
		}
		data = data[n:]
	}
	out.Reset()
}
