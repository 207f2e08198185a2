// Package protocol implements the telemetry wire format spoken from a
// board to the host monitor.
//
// Framing follows the MCU-protocol conventions Klipper established: a
// leading length byte, a CRC-16 over everything before the trailer,
// and a trailing sync byte the host scans for to resynchronize after
// line garbage. Payload integers use the same variable length quantity
// scheme. Traffic is one-way; there are no sequence numbers or ACKs.
package protocol

// Version identifies the wire format. It travels in every ident report
// so the host can reject a board speaking something else.
const Version = 1

// Frame layout: [len][type][payload...][crc hi][crc lo][sync].
// The length byte counts the whole frame, trailer included.
const (
	FrameHeader  = 1
	FrameTrailer = 3
	FrameMin     = FrameHeader + 1 + FrameTrailer
	FrameMax     = 64
	SyncByte     = 0x7E
)

// Report types.
const (
	TypeIdent    = 0x01
	TypeClock    = 0x02
	TypeUptime   = 0x03
	TypeWalltime = 0x04
)
