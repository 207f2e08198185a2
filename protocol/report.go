package protocol

import "fmt"

// Report is a decoded telemetry frame.
type Report interface {
	// ReportType returns the frame type byte.
	ReportType() uint8
}

// Ident announces a board: wire format version, tick frequency in Hz
// and a human-readable board name. Boards send it once at startup and
// again on request-less intervals so a late-attaching host still
// learns the frequency.
type Ident struct {
	Version uint32
	Freq    uint32
	Name    string
}

// Clock carries a raw tick counter sample.
type Clock struct {
	Ticks uint32
}

// Uptime carries the 64-bit accumulated tick count, split on the wire
// into rollover and counter halves.
type Uptime struct {
	Ticks uint64
}

// Walltime carries a wall-clock sample in whole seconds.
type Walltime struct {
	Seconds int64
}

func (Ident) ReportType() uint8    { return TypeIdent }
func (Clock) ReportType() uint8    { return TypeClock }
func (Uptime) ReportType() uint8   { return TypeUptime }
func (Walltime) ReportType() uint8 { return TypeWalltime }

// EncodeIdent appends an ident frame to output.
func EncodeIdent(output OutputBuffer, freq uint32, name string) {
	EncodeFrame(output, TypeIdent, func(o OutputBuffer) {
		EncodeVLQUint(o, Version)
		EncodeVLQUint(o, freq)
		EncodeVLQString(o, name)
	})
}

// EncodeClock appends a clock frame to output.
func EncodeClock(output OutputBuffer, ticks uint32) {
	EncodeFrame(output, TypeClock, func(o OutputBuffer) {
		EncodeVLQUint(o, ticks)
	})
}

// EncodeUptime appends an uptime frame to output.
func EncodeUptime(output OutputBuffer, uptime uint64) {
	EncodeFrame(output, TypeUptime, func(o OutputBuffer) {
		EncodeVLQUint(o, uint32(uptime>>32))
		EncodeVLQUint(o, uint32(uptime))
	})
}

// EncodeWalltime appends a walltime frame to output.
func EncodeWalltime(output OutputBuffer, seconds int64) {
	EncodeFrame(output, TypeWalltime, func(o OutputBuffer) {
		EncodeVLQUint(o, uint32(uint64(seconds)>>32))
		EncodeVLQUint(o, uint32(uint64(seconds)))
	})
}

// parseReport decodes a frame body into its typed report. The payload
// must be consumed exactly; trailing bytes mean a codec mismatch.
func parseReport(typ uint8, payload []byte) (Report, error) {
	data := payload
	var rep Report

	switch typ {
	case TypeIdent:
		version, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		freq, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		name, err := DecodeVLQString(&data)
		if err != nil {
			return nil, err
		}
		rep = Ident{Version: version, Freq: freq, Name: name}

	case TypeClock:
		ticks, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		rep = Clock{Ticks: ticks}

	case TypeUptime:
		hi, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		lo, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		rep = Uptime{Ticks: uint64(hi)<<32 | uint64(lo)}

	case TypeWalltime:
		hi, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		lo, err := DecodeVLQUint(&data)
		if err != nil {
			return nil, err
		}
		rep = Walltime{Seconds: int64(uint64(hi)<<32 | uint64(lo))}

	default:
		return nil, fmt.Errorf("unknown report type 0x%02x", typ)
	}

	if len(data) != 0 {
		return nil, ErrInvalidVLQ
	}
	return rep, nil
}
