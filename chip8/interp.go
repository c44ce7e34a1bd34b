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

import "math/rand"

// Step decodes and executes the instruction at PC, then counts the cycle.
// On error PC is left pointing at the faulty instruction so a caller can
// retry it with another back-end.
func (vm *Chip8) Step() error {
	op := vm.Decode(vm.PC)

	if err := vm.exec(op); err != nil {
		return err
	}

	// one cycle per retired instruction
	vm.Cycles++

	return nil
}

// exec dispatches a single decoded opcode. Every branch is responsible for
// advancing (or redirecting) PC itself.
func (vm *Chip8) exec(op Opcode) error {
	switch op.Kind {
	case OpCls:
		vm.cls()
	case OpRet:
		return vm.ret()
	case OpJmpNNN:
		vm.jump(op.NNN)
	case OpCallNNN:
		return vm.call(op.NNN)
	case OpSeVxKK:
		vm.skipIf(vm.V[op.X] == op.KK)
	case OpSneVxKK:
		vm.skipIf(vm.V[op.X] != op.KK)
	case OpSeVxVy:
		vm.skipIf(vm.V[op.X] == vm.V[op.Y])
	case OpLdVxKK:
		vm.loadX(op.X, op.KK)
	case OpAddVxKK:
		vm.addX(op.X, op.KK)
	case OpLdVxVy:
		vm.loadX(op.X, vm.V[op.Y])
	case OpOrVxVy:
		vm.or(op.X, op.Y)
	case OpAndVxVy:
		vm.and(op.X, op.Y)
	case OpXorVxVy:
		vm.xor(op.X, op.Y)
	case OpAddVxVy:
		vm.addXY(op.X, op.Y)
	case OpSubVxVy:
		vm.subXY(op.X, op.Y)
	case OpShrVx:
		vm.shr(op.X)
	case OpSubnVxVy:
		vm.subYX(op.X, op.Y)
	case OpShlVx:
		vm.shl(op.X)
	case OpSneVxVy:
		vm.skipIf(vm.V[op.X] != vm.V[op.Y])
	case OpLdINNN:
		vm.loadI(op.NNN)
	case OpJpV0NNN:
		vm.jump(op.NNN + uint16(vm.V[0]))
	case OpRndVxKK:
		vm.loadRandom(op.X, op.KK)
	case OpDrwVxVyN:
		vm.drawSprite(op.X, op.Y, op.N)
	case OpSkpVx:
		vm.skipIf(vm.Keyboard[vm.V[op.X]&0xF])
	case OpSknpVx:
		vm.skipIf(!vm.Keyboard[vm.V[op.X]&0xF])
	case OpLdVxDT:
		vm.loadX(op.X, vm.DT)
	case OpLdVxK:
		vm.waitKey(op.X)
	case OpLdDTVx:
		vm.DT = vm.V[op.X]
		vm.PC += 2
	case OpLdSTVx:
		vm.ST = vm.V[op.X]
		vm.PC += 2
	case OpAddIVx:
		vm.I += uint16(vm.V[op.X])
		vm.PC += 2
	case OpLdFVx:
		vm.loadF(op.X)
	case OpLdBVx:
		vm.bcd(op.X)
	case OpLdIVx:
		vm.saveRegs(op.X)
	case OpLdVxI:
		vm.loadRegs(op.X)
	case OpExit:
		return Exit
	case OpInvalid:
		return OpcodeInvalid
	default:
		// recognized extension, no execution back-end for it
		return OpcodeNotSupported
	}

	return nil
}

// Clear the display.
func (vm *Chip8) cls() {
	for i := range vm.Display {
		vm.Display[i] = false
	}

	vm.DisplayDirty = true
	vm.PC += 2
}

// Return from a subroutine.
func (vm *Chip8) ret() error {
	if vm.SP == 0 {
		return CallStackEmpty
	}

	// pre-decrement; the slot holds the address of the CALL
	vm.SP--
	vm.PC = vm.Stack[vm.SP] + 2

	return nil
}

// Call a subroutine at an address.
func (vm *Chip8) call(address uint16) error {
	if vm.SP >= 16 {
		return CallStackFull
	}

	// post-increment
	vm.Stack[vm.SP] = vm.PC
	vm.SP++

	vm.PC = address

	return nil
}

// Jump to an address.
func (vm *Chip8) jump(address uint16) {
	vm.PC = address
}

// Skip the next instruction when the condition holds.
func (vm *Chip8) skipIf(cond bool) {
	if cond {
		vm.PC += 4
	} else {
		vm.PC += 2
	}
}

// Load a byte into vx.
func (vm *Chip8) loadX(x, b byte) {
	vm.V[x] = b
	vm.PC += 2
}

// Add a byte to vx. The carry flag is untouched.
func (vm *Chip8) addX(x, b byte) {
	vm.V[x] += b
	vm.PC += 2
}

// Bitwise or vx with vy into vx.
func (vm *Chip8) or(x, y byte) {
	vm.V[x] |= vm.V[y]
	vm.PC += 2
}

// Bitwise and vx with vy into vx.
func (vm *Chip8) and(x, y byte) {
	vm.V[x] &= vm.V[y]
	vm.PC += 2
}

// Bitwise xor vx with vy into vx.
func (vm *Chip8) xor(x, y byte) {
	vm.V[x] ^= vm.V[y]
	vm.PC += 2
}

// Add vy to vx and set the carry.
func (vm *Chip8) addXY(x, y byte) {
	if uint16(vm.V[x])+uint16(vm.V[y]) > 255 {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}

	vm.V[x] += vm.V[y]
	vm.PC += 2
}

// Subtract vy from vx, set vf when vx > vy.
func (vm *Chip8) subXY(x, y byte) {
	if vm.V[x] > vm.V[y] {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}

	vm.V[x] -= vm.V[y]
	vm.PC += 2
}

// Subtract vx from vy into vx, set vf when vy > vx.
func (vm *Chip8) subYX(x, y byte) {
	if vm.V[y] > vm.V[x] {
		vm.V[0xF] = 1
	} else {
		vm.V[0xF] = 0
	}

	vm.V[x] = vm.V[y] - vm.V[x]
	vm.PC += 2
}

// Shift vx right 1 bit, vf receives the bit shifted out.
func (vm *Chip8) shr(x byte) {
	vm.V[0xF] = vm.V[x] & 1
	vm.V[x] >>= 1
	vm.PC += 2
}

// Shift vx left 1 bit, vf receives the bit shifted out.
func (vm *Chip8) shl(x byte) {
	vm.V[0xF] = vm.V[x] >> 7
	vm.V[x] <<= 1
	vm.PC += 2
}

// Load the address register.
func (vm *Chip8) loadI(address uint16) {
	vm.I = address
	vm.PC += 2
}

// Load a masked random byte into vx.
func (vm *Chip8) loadRandom(x, kk byte) {
	vm.V[x] = byte(rand.Intn(256)) & kk
	vm.PC += 2
}

// Wait for any key; PC is left in place until one is down so the same
// instruction re-executes on the next step.
func (vm *Chip8) waitKey(x byte) {
	for i, down := range vm.Keyboard {
		if down {
			vm.V[x] = byte(i)
			vm.PC += 2

			break
		}
	}
}

// Point I at the font sprite for vx.
func (vm *Chip8) loadF(x byte) {
	vm.I = uint16(vm.V[x]) * 5
	vm.PC += 2
}

// Write the BCD digits of vx to memory at I (hundreds, tens, ones).
func (vm *Chip8) bcd(x byte) {
	r := vm.V[x]

	for i := uint16(0); i < 3; i++ {
		vm.Memory[vm.I+2-i] = r % 10
		r /= 10
	}

	vm.codeWritten(vm.I, vm.I+3)
	vm.PC += 2
}

// Store v0..vx at I; I advances past the copied registers.
func (vm *Chip8) saveRegs(x byte) {
	for i := uint16(0); i <= uint16(x); i++ {
		vm.Memory[vm.I+i] = vm.V[i]
	}

	vm.codeWritten(vm.I, vm.I+uint16(x)+1)

	vm.I += uint16(x) + 1
	vm.PC += 2
}

// Load v0..vx from I; I advances past the copied registers.
func (vm *Chip8) loadRegs(x byte) {
	for i := uint16(0); i <= uint16(x); i++ {
		vm.V[i] = vm.Memory[vm.I+i]
	}

	vm.I += uint16(x) + 1
	vm.PC += 2
}

// Draw an n-row sprite from memory at I to (vx, vy), wrapping at the
// display edges. vf is set when a lit pixel was cleared.
func (vm *Chip8) drawSprite(x, y, n byte) {
	x0 := int(vm.V[x])
	y0 := int(vm.V[y])

	vm.V[0xF] = 0

	for row := 0; row < int(n); row++ {
		s := vm.Memory[vm.I+uint16(row)]

		for bit := 0; bit < 8; bit++ {
			if s&(0x80>>uint(bit)) == 0 {
				continue
			}

			// coordinates wrap modulo the display size
			pos := (y0+row)%vm.Height*vm.Width + (x0+bit)%vm.Width

			if vm.Display[pos] {
				vm.V[0xF] = 1
			}

			vm.Display[pos] = !vm.Display[pos]
		}
	}

	vm.DisplayDirty = true
	vm.PC += 2
}

// codeWritten reports a guest store range to the recompiler hook.
func (vm *Chip8) codeWritten(lo, hi uint16) {
	if vm.CodeWritten != nil {
		vm.CodeWritten(lo, hi)
	}
}
