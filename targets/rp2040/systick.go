//go:build rp2040

package main

import (
	"device/arm"
	"machine"

	"gotick/systime"
)

// TickFreq is the rate the SysTick timer is programmed to, in ticks
// per second. Reload values must fit the 24-bit SysTick counter, which
// at 125MHz caps the divider well above this.
const TickFreq systime.Ticks = 1000

// sys is the board-wide time base, shared between the tick interrupt
// and foreground code.
var sys = systime.New(systime.Config{
	Freq: func() systime.Ticks { return TickFreq },
})

// initSysTick programs the Cortex-M SysTick timer to fire TickFreq
// times per second from the CPU clock.
func initSysTick() error {
	return arm.SetupSystemTimer(machine.CPUFrequency() / uint32(TickFreq))
}

//export SysTick_Handler
func tickHandler() {
	sys.SysTick()
}
