package protocol

import "bytes"

// EncodeFrame appends a complete frame of the given type to output.
// The payload callback writes the body; length and CRC are fixed up
// afterward. Writing through an OutputBuffer keeps the firmware report
// path free of allocation.
func EncodeFrame(output OutputBuffer, typ uint8, payload func(OutputBuffer)) {
	cursor := output.CurPosition()

	// Length placeholder and type.
	output.Output([]byte{0, typ})

	if payload != nil {
		payload(output)
	}

	output.Update(cursor, uint8(len(output.DataSince(cursor))+FrameTrailer))

	crc := CRC16(output.DataSince(cursor))
	output.Output([]byte{
		uint8(crc >> 8),
		uint8(crc & 0xFF),
		SyncByte,
	})
}

// DecoderStats counts what a Decoder has seen.
type DecoderStats struct {
	Reports   uint64 // complete reports returned
	CRCErrors uint64 // frames dropped for a bad checksum
	Malformed uint64 // frames dropped for an undecodable payload
	Resyncs   uint64 // times the scanner had to hunt for a sync byte
}

// Decoder incrementally parses the telemetry byte stream. Raw bytes
// arrive through Write; complete reports come back from Next. After
// garbage or a framing error the decoder discards input up to the next
// sync byte and carries on.
type Decoder struct {
	buf   *FifoBuffer
	sync  bool
	stats DecoderStats
}

// NewDecoder creates a Decoder ready to accept stream data.
func NewDecoder() *Decoder {
	return &Decoder{
		buf:  NewFifoBuffer(1024),
		sync: true,
	}
}

// Write feeds raw stream bytes to the decoder. It implements io.Writer
// so a serial read loop can copy straight in. Write never blocks; if
// the caller lets more than a buffer's worth pile up between Next
// calls the excess is dropped and recovered by resync.
func (d *Decoder) Write(p []byte) (int, error) {
	d.buf.Write(p)
	return len(p), nil
}

// Stats returns counters accumulated since the decoder was created.
func (d *Decoder) Stats() DecoderStats {
	return d.stats
}

// Next returns the next complete report, or nil when the buffered data
// holds none. Frames that fail the length, CRC or trailing-sync checks
// trigger a resync; frames with undecodable payloads are skipped.
func (d *Decoder) Next() Report {
	data := d.buf.Data()
	total := len(data)

	var rep Report
	for len(data) > 0 && rep == nil {
		if !d.sync {
			pos := bytes.IndexByte(data, SyncByte)
			if pos < 0 {
				data = nil
				break
			}
			data = data[pos+1:]
			d.sync = true
			continue
		}

		// Skip idle sync bytes between frames.
		if data[0] == SyncByte {
			data = data[1:]
			continue
		}

		if len(data) < FrameMin {
			break
		}

		n := int(data[0])
		if n < FrameMin || n > FrameMax {
			d.desync()
			continue
		}

		// Wait for the whole frame.
		if len(data) < n {
			break
		}

		if data[n-1] != SyncByte {
			d.desync()
			continue
		}

		crc := uint16(data[n-3])<<8 | uint16(data[n-2])
		if crc != CRC16(data[:n-FrameTrailer]) {
			d.stats.CRCErrors++
			d.desync()
			continue
		}

		typ := data[FrameHeader]
		payload := make([]byte, n-FrameHeader-1-FrameTrailer)
		copy(payload, data[FrameHeader+1:n-FrameTrailer])
		data = data[n:]

		var err error
		rep, err = parseReport(typ, payload)
		if err != nil {
			d.stats.Malformed++
			rep = nil
		}
	}

	d.buf.Pop(total - len(data))
	if rep != nil {
		d.stats.Reports++
	}
	return rep
}

func (d *Decoder) desync() {
	d.sync = false
	d.stats.Resyncs++
}
