/* Copyright (c) 2017 Jeffrey Massung
 *
 * This software is provided 'as-is', without any express or implied
 * warranty.  In no event will the authors be held liable for any damages
 * arising from the use of this software.
 *
 * Permission is granted to anyone to use this software for any purpose,
 * including commercial applications, and to alter it and redistribute it
 * freely, subject to the following restrictions:
 *
 * 1. The origin of this software must not be misrepresented; you must not
 *    claim that you wrote the original software. If you use this software
 *    in a product, an acknowledgment in the product documentation would be
 *    appreciated but is not required.
 *
 * 2. Altered source versions must be plainly marked as such, and must not be
 *    misrepresented as being the original software.
 *
 * 3. This notice may not be removed or altered from any source distribution.
 */

// Package vm drives a CHIP-8 guest machine against real time: it picks an
// execution back-end, runs it until the guest cycle count catches up to
// the requested deadline, and keeps the 60 Hz timers consistent with the
// cycles actually retired.
package vm

import (
	"github.com/c8vm/chip8/chip8"
)

// Backend executes guest instructions against a machine state. A step is
// one interpreted instruction or one recompiled basic block.
type Backend interface {
	Step(*chip8.Chip8) error
}

// Interp is the tree-walking interpreter back-end.
type Interp struct{}

// Step executes a single instruction.
func (Interp) Step(state *chip8.Chip8) error {
	return state.Step()
}

// invalidator is implemented by back-ends that cache translated guest
// code and need to hear about stores into it.
type invalidator interface {
	Invalidate(lo, hi uint16)
}

// Machine couples a guest state with an execution back-end.
type Machine struct {
	State   *chip8.Chip8
	backend Backend
}

// New creates a machine driver for a guest state and back-end.
func New(state *chip8.Chip8, backend Backend) *Machine {
	m := &Machine{State: state, backend: backend}

	// let a code-caching back-end see guest stores
	if inv, ok := backend.(invalidator); ok {
		state.CodeWritten = inv.Invalidate
	}

	return m
}

// Run executes until the guest has caught up to ticks milliseconds of
// emulated time since the machine started. It returns early on any error
// other than an unsupported opcode, which is retried on the interpreter.
func (m *Machine) Run(ticks uint32) error {
	target := uint64(ticks) * uint64(m.State.ClockSpeed) / 1000

	for uint64(m.State.Cycles) < target {
		if err := m.Step(); err != nil {
			return err
		}
	}

	return nil
}

// Step dispatches one logical step to the back-end, falling back to a
// single interpreter step when the back-end declines the opcode, then
// decrements the timers for every 60 Hz tick the step crossed.
func (m *Machine) Step() error {
	before := m.State.Cycles

	err := m.backend.Step(m.State)
	if err == chip8.OpcodeNotSupported {
		err = m.State.Step()
	}

	// decrement timers at 60 Hz regardless of the emulation clock speed
	missed := uint64(m.State.Cycles)*60/uint64(m.State.ClockSpeed) -
		uint64(before)*60/uint64(m.State.ClockSpeed)

	if missed > 0 {
		m.State.DT = saturate(m.State.DT, missed)
		m.State.ST = saturate(m.State.ST, missed)
	}

	return err
}

// saturate subtracts n from a timer without wrapping below zero.
func saturate(timer byte, n uint64) byte {
	if uint64(timer) < n {
		return 0
	}

	return timer - byte(n)
}
