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

package chip8

import (
	"io"
	"io/ioutil"
)

// Variant selects the CHIP-8 flavor being emulated. It picks the memory
// size, the display geometry, the initial program counter, and the set of
// opcodes the decoder recognizes.
type Variant int

const (
	// Classic is the original 64x32 CHIP-8.
	Classic Variant = iota

	// TwoPage is the two-page classic CHIP-8 with a 64x64 display and
	// programs starting at 0x2C0.
	TwoPage

	// SuperChip is the CHIP-48/Super-CHIP with a 128x64 display.
	SuperChip

	// XOChip is the XO-CHIP with 64K of memory and a 128x64 display.
	XOChip
)

// Chip8 is the guest machine state.
//
// The first group of fields is addressed directly by recompiled code using
// displacements from a base pointer to the struct, so their order matters:
// keep them at the top and do not interleave new fields. Everything below
// Memory is only ever touched from Go.
type Chip8 struct {
	// V are the 16 virtual registers. VF doubles as the carry, borrow,
	// shift-out and sprite collision flag.
	V [16]byte

	// DT and ST are the delay and sound timers, decremented at 60 Hz by
	// the machine driver.
	DT byte
	ST byte

	// SP indexes the next free stack slot; the stack is empty when 0
	// and full when 16.
	SP byte

	// I is the address register.
	I uint16

	// PC is the program counter.
	PC uint16

	// Cycles counts retired instructions since the machine started.
	Cycles uint32

	// Stack holds subroutine return addresses.
	Stack [16]uint16

	// Memory addressable by the guest. Only the first 4096 bytes are
	// used outside of XO-CHIP; keeping the full 64K inline gives the
	// recompiler a fixed displacement for every variant.
	Memory [65536]byte

	// Display is the framebuffer, one bool per pixel, row-major.
	Display []bool

	// Keyboard holds the current state of the 16-key pad.
	Keyboard [16]bool

	// DisplayDirty is set whenever a draw or clear touched the
	// framebuffer. The display collaborator clears it after presenting.
	DisplayDirty bool

	// Variant of CHIP-8 being emulated.
	Variant Variant

	// Width and Height of the display in pixels.
	Width  int
	Height int

	// ClockSpeed is how many guest cycles execute per second.
	ClockSpeed uint32

	// CodeWritten, when set, is called with a guest address range
	// [lo, hi) after the interpreter stores into memory. The recompiler
	// hooks it to drop cached blocks that overlap the range.
	CodeWritten func(lo, hi uint16)

	// rom is the loaded program, kept so Reset can restore memory.
	rom []byte
}

// fontSprites are the built-in hex digit sprites, 5 bytes per digit,
// resident at the bottom of guest memory.
var fontSprites = [80]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// New creates a guest machine for a variant running at a given clock
// speed (cycles per second).
func New(variant Variant, clockSpeed uint32) *Chip8 {
	vm := &Chip8{
		Variant:    variant,
		ClockSpeed: clockSpeed,
	}

	switch variant {
	case Classic:
		vm.Width, vm.Height = 64, 32
	case TwoPage:
		vm.Width, vm.Height = 64, 64
	default:
		vm.Width, vm.Height = 128, 64
	}

	// one bool per pixel
	vm.Display = make([]bool, vm.Width*vm.Height)

	vm.Reset()

	return vm
}

// MemSize returns the size of addressable guest memory for the variant.
func (vm *Chip8) MemSize() int {
	if vm.Variant == XOChip {
		return 0x10000
	}

	return 0x1000
}

// Base returns the initial program counter for the variant.
func (vm *Chip8) Base() uint16 {
	if vm.Variant == TwoPage {
		return 0x2C0
	}

	return 0x200
}

// Reset restores the machine to its power-on state, with the loaded ROM
// (if any) back in place.
func (vm *Chip8) Reset() {
	vm.Memory = [65536]byte{}
	vm.V = [16]byte{}
	vm.Stack = [16]uint16{}
	vm.Keyboard = [16]bool{}

	for i := range vm.Display {
		vm.Display[i] = false
	}

	// font sprites live at the bottom of memory
	copy(vm.Memory[:], fontSprites[:])
	copy(vm.Memory[0x200:], vm.rom)

	vm.PC = vm.Base()
	vm.SP = 0
	vm.I = 0
	vm.DT = 0
	vm.ST = 0
	vm.Cycles = 0
	vm.DisplayDirty = true
}

// LoadROM places a program at 0x200 in guest memory.
func (vm *Chip8) LoadROM(program []byte) error {
	if len(program)+0x200 > vm.MemSize() {
		return RomTooLong
	}

	vm.rom = append([]byte(nil), program...)
	vm.Reset()

	return nil
}

// LoadFile reads a ROM file from disk and loads it.
func (vm *Chip8) LoadFile(file string) error {
	program, err := ioutil.ReadFile(file)
	if err != nil {
		return RomNotFound
	}

	return vm.LoadROM(program)
}

// PressKey marks a CHIP-8 key as held down.
func (vm *Chip8) PressKey(key uint) {
	if key < 16 {
		vm.Keyboard[key] = true
	}
}

// ReleaseKey marks a CHIP-8 key as released.
func (vm *Chip8) ReleaseKey(key uint) {
	if key < 16 {
		vm.Keyboard[key] = false
	}
}

// Dump writes a snapshot of the machine state. Placeholder.
func (vm *Chip8) Dump(w io.Writer) error {
	return nil
}

// Restore reads a snapshot of the machine state. Placeholder.
func (vm *Chip8) Restore(r io.Reader) error {
	return nil
}
