// Package serial provides the host-side serial link to a telemetry
// board.
package serial

import "io"

// Port is the byte stream the monitor reads telemetry from. The two
// implementations are the tarm/serial device port and the in-memory
// Loopback used in tests.
type Port interface {
	io.ReadWriteCloser

	// Flush discards buffered input.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3").
	Device string

	// Baud rate. USB CDC links ignore it, real UARTs do not.
	Baud int

	// Read timeout in milliseconds (0 = blocking).
	ReadTimeout int
}

// DefaultConfig returns the configuration matching the firmware's
// UART settings.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
