// Package rtc provides external time sources for the systime wall
// clock.
//
// A provider installed with System.SetProvider takes over wall time
// entirely. DS3231 delegates to the battery-backed I2C part found on
// most RP2040 carrier boards; HostClock serves simulators and tests.
package rtc

import (
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/ds3231"

	"gotick/systime"
)

// DS3231 adapts the Maxim DS3231 RTC to systime.TimeProvider.
//
// Methods must not be called concurrently; the underlying I2C bus is
// not guarded.
type DS3231 struct {
	dev  ds3231.Device
	last systime.Seconds
}

// NewDS3231 creates a provider on bus. The bus must already be
// configured.
func NewDS3231(bus drivers.I2C) *DS3231 {
	return &DS3231{dev: ds3231.New(bus)}
}

// Configure probes the part and starts its oscillator if stopped.
func (r *DS3231) Configure() error {
	r.dev.Configure()
	if !r.dev.IsRunning() {
		return r.dev.SetRunning(true)
	}
	return nil
}

// Valid reports whether the part considers its time valid, i.e. the
// oscillator has not stopped since the time was last set.
func (r *DS3231) Valid() bool {
	return r.dev.IsTimeValid()
}

// Time implements systime.TimeProvider. A failed bus read returns the
// last value read successfully.
func (r *DS3231) Time(out *systime.Seconds) systime.Seconds {
	if dt, err := r.dev.ReadTime(); err == nil {
		r.last = systime.Seconds(dt.Unix())
	}
	if out != nil {
		*out = r.last
	}
	return r.last
}

// SetTime implements systime.TimeProvider, writing t to the part.
func (r *DS3231) SetTime(t *systime.Seconds) error {
	if t == nil {
		return systime.ErrNilTime
	}
	if err := r.dev.SetTime(time.Unix(int64(*t), 0).UTC()); err != nil {
		return err
	}
	r.last = *t
	return nil
}
