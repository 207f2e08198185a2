//go:build rp2040

package main

import (
	"machine"
	"time"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// PPS drives a pulse-per-second output. Software only decides when a
// pulse starts; the PIO state machine shapes its width in hardware, so
// tick jitter moves the rising edge but never the pulse length.
//
// Each FIFO word is a hold count in PIO cycles. Program flow:
//
//	pull block      ; wait for a pulse request
//	out x, 32       ; X = hold cycles
//	set pins, 1     ; rising edge
//	jmp x-- .       ; hold
//	set pins, 0     ; falling edge
func buildPPSProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),          // 0: pull block
		asm.Out(rp2pio.OutDestX, 32).Encode(),   // 1: out x, 32 (hold cycles)
		asm.Set(rp2pio.SetDestPins, 1).Encode(), // 2: set pins, 1
		// hold_loop:
		asm.Jmp(3, rp2pio.JmpXNZeroDec).Encode(), // 3: jmp x--, 3
		asm.Set(rp2pio.SetDestPins, 0).Encode(),  // 4: set pins, 0
		// .wrap
	}
}

const ppsPIOOrigin = 0 // Load at offset 0 for correct jump addresses

// ppsClockHz is the state machine clock after division. One PIO cycle
// is one microsecond, so hold counts are microseconds.
const ppsClockHz = 1_000_000

type PPS struct {
	sm    rp2pio.StateMachine
	pin   machine.Pin
	hold  uint32
	drops uint32
}

// NewPPS claims a state machine on PIO1 and configures pin as the
// pulse output with the given pulse width.
func NewPPS(pin machine.Pin, width time.Duration) (*PPS, error) {
	p := &PPS{
		sm:   rp2pio.PIO1.StateMachine(0),
		pin:  pin,
		hold: uint32(width.Microseconds()),
	}
	p.sm.TryClaim()

	program := buildPPSProgram()
	offset, err := rp2pio.PIO1.AddProgram(program, ppsPIOOrigin)
	if err != nil {
		return nil, err
	}

	pin.Configure(machine.PinConfig{Mode: rp2pio.PIO1.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(pin, 1)
	cfg.SetOutShift(true, false, 32)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(uint16(machine.CPUFrequency()/ppsClockHz), 0)

	p.sm.Init(offset, cfg)
	p.sm.SetPindirsConsecutive(pin, 1, true)
	p.sm.SetPinsConsecutive(pin, 1, false)
	p.sm.SetEnabled(true)

	return p, nil
}

// Pulse requests one pulse. Safe from interrupt context: if the FIFO
// is full the request is dropped rather than blocked on.
func (p *PPS) Pulse() {
	if p.sm.IsTxFIFOFull() {
		p.drops++
		return
	}
	p.sm.TxPut(p.hold)
}

// Drops returns the number of pulse requests dropped on a full FIFO.
func (p *PPS) Drops() uint32 {
	return p.drops
}
