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

package jit

import (
	"unsafe"

	"github.com/c8vm/chip8/chip8"
)

// Field displacements from the guest state base pointer, baked into
// generated code. Computed once; the Chip8 struct keeps these fields at a
// fixed layout for exactly this reason.
var (
	stateProbe chip8.Chip8

	offV      = int32(unsafe.Offsetof(stateProbe.V))
	offDT     = int32(unsafe.Offsetof(stateProbe.DT))
	offST     = int32(unsafe.Offsetof(stateProbe.ST))
	offSP     = int32(unsafe.Offsetof(stateProbe.SP))
	offI      = int32(unsafe.Offsetof(stateProbe.I))
	offPC     = int32(unsafe.Offsetof(stateProbe.PC))
	offCycles = int32(unsafe.Offsetof(stateProbe.Cycles))
	offStack  = int32(unsafe.Offsetof(stateProbe.Stack))
	offMemory = int32(unsafe.Offsetof(stateProbe.Memory))
)

// blockCapacity is the code buffer size of one translated block.
const blockCapacity = 4096

// maxBlockInstrs caps how many guest instructions one block may cover.
// The worst lowering (a full register file transfer) runs to 112 bytes,
// so this bound keeps a block inside its code buffer. It is a function of
// the guest address alone, which keeps the speculative skip measurement
// and the real emission in agreement about where a block ends.
const maxBlockInstrs = 32

// CodeBlock is one translated basic block. Start is the guest address of
// the first instruction; End is one past the last encoded instruction.
type CodeBlock struct {
	Code  *Buffer
	Start uint16
	End   uint16
}

// Cycles returns how many guest instructions the block covers.
func (cb *CodeBlock) Cycles() uint32 {
	return uint32(cb.End-cb.Start) / 2
}

// Close releases the block's code buffer.
func (cb *CodeBlock) Close() error {
	return cb.Code.Close()
}

// translator walks guest memory from a start address and lowers each
// instruction into the block's code buffer. end tracks the address of the
// instruction currently being encoded.
type translator struct {
	b     *Buffer
	state *chip8.Chip8
	start uint16
	end   uint16

	// lastSkip is set when the previous instruction was emitted as a
	// conditional skip.
	lastSkip bool
}

// Translate builds the basic block starting at the guest PC. Translation
// itself never fails; invalid or unsupported instructions are encoded as
// error returns that surface when the block runs.
func Translate(state *chip8.Chip8) (*CodeBlock, error) {
	b, err := NewBuffer(blockCapacity)
	if err != nil {
		return nil, err
	}

	t := &translator{b: b, state: state, start: state.PC, end: state.PC}

	// every block begins by reloading the state base pointer, so it can
	// be invoked without the caller preparing any register
	MovRegImm64(b, RCX, uint64(uintptr(unsafe.Pointer(state))))

	for !t.step() {
		t.end += 2
	}

	if err := b.Lock(); err != nil {
		b.Close()
		return nil, err
	}

	return &CodeBlock{Code: b, Start: t.start, End: t.end + 2}, nil
}

// step translates the instruction at end and reports whether the block is
// finished. An instruction directly after a skip is never allowed to end
// the block: the skip's landing site two instructions ahead must stay
// inside this block.
func (t *translator) step() bool {
	op := t.state.Decode(t.end)

	wasSkip := t.lastSkip
	done := t.encode(op)

	if done && wasSkip {
		done = false
	}

	return done
}

// nextLength measures the encoded size of the following instruction by
// emitting it and rewinding. Emission is pure per (opcode, address), so
// restoring the buffer pointer and end is enough to undo it.
func (t *translator) nextLength() int {
	t.end += 2
	mark := t.b.Len()
	skip := t.lastSkip

	t.step()

	length := t.b.Len() - mark
	t.b.truncate(mark)
	t.end -= 2
	t.lastSkip = skip

	return length
}

// measure returns the encoded size of a single emitter call.
func (t *translator) measure(emit func()) int {
	mark := t.b.Len()
	emit()
	length := t.b.Len() - mark
	t.b.truncate(mark)

	return length
}

// encode lowers one decoded instruction and reports whether it terminates
// the block.
func (t *translator) encode(op chip8.Opcode) bool {
	t.lastSkip = false

	// end the block early rather than run out of code buffer
	if t.end-t.start >= 2*maxBlockInstrs {
		return t.encodeTail(chip8.Ok)
	}

	switch op.Kind {
	case chip8.OpRet:
		return t.encodeRet()
	case chip8.OpJmpNNN:
		return t.encodeJmp(op)
	case chip8.OpCallNNN:
		return t.encodeCall(op)
	case chip8.OpJpV0NNN:
		return t.encodeJpV0(op)

	case chip8.OpSeVxKK:
		return t.encodeSkip(op, true, func() {
			MovRegImm32(t.b, RAX, uint32(op.KK))
		})
	case chip8.OpSneVxKK:
		return t.encodeSkip(op, false, func() {
			MovRegImm32(t.b, RAX, uint32(op.KK))
		})
	case chip8.OpSeVxVy:
		return t.encodeSkip(op, true, func() {
			MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		})
	case chip8.OpSneVxVy:
		return t.encodeSkip(op, false, func() {
			MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		})
	// SKP/SKNP take the unsupported tail below; only an emitted skip
	// sequence sets lastSkip

	case chip8.OpLdVxKK:
		MovRegImm32(t.b, RAX, uint32(op.KK))
		MovMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpAddVxKK:
		MovRegImm32(t.b, RAX, uint32(op.KK))
		AddMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpLdVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		MovMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpOrVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		OrMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpAndVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		AndMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpXorVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		XorMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpAddVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		AddMemReg8(t.b, RCX, offV+int32(op.X), RAX)
		Setc(t.b, RCX, offV+15)
	case chip8.OpSubVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		SubMemReg8(t.b, RCX, offV+int32(op.X), RAX)
		Setnc(t.b, RCX, offV+15)
	case chip8.OpSubnVxVy:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.Y))
		SubRegMem8(t.b, RAX, RCX, offV+int32(op.X))
		Setnc(t.b, RCX, offV+15)
		MovMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpShrVx:
		ShrMem8(t.b, RCX, offV+int32(op.X))
		Setc(t.b, RCX, offV+15)
	case chip8.OpShlVx:
		ShlMem8(t.b, RCX, offV+int32(op.X))
		Setc(t.b, RCX, offV+15)

	case chip8.OpLdINNN:
		MovRegImm32(t.b, RAX, uint32(op.NNN))
		MovMemReg16(t.b, RCX, offI, RAX)
	case chip8.OpAddIVx:
		MovzxRegMem8(t.b, RAX, RCX, offV+int32(op.X))
		AddMemReg16(t.b, RCX, offI, RAX)
	case chip8.OpLdVxDT:
		MovRegMem8(t.b, RAX, RCX, offDT)
		MovMemReg8(t.b, RCX, offV+int32(op.X), RAX)
	case chip8.OpLdDTVx:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.X))
		MovMemReg8(t.b, RCX, offDT, RAX)
	case chip8.OpLdSTVx:
		MovRegMem8(t.b, RAX, RCX, offV+int32(op.X))
		MovMemReg8(t.b, RCX, offST, RAX)

	case chip8.OpLdIVx:
		// rdx = &state + I
		MovzxRegMem16(t.b, RDX, RCX, offI)
		AddRegReg64(t.b, RDX, RCX)

		for i := int32(0); i <= int32(op.X); i++ {
			MovRegMem8(t.b, RAX, RCX, offV+i)
			MovMemReg8(t.b, RDX, offMemory+i, RAX)
		}

		MovRegImm32(t.b, RAX, uint32(op.X)+1)
		AddMemReg16(t.b, RCX, offI, RAX)
	case chip8.OpLdVxI:
		MovzxRegMem16(t.b, RDX, RCX, offI)
		AddRegReg64(t.b, RDX, RCX)

		for i := int32(0); i <= int32(op.X); i++ {
			MovRegMem8(t.b, RAX, RDX, offMemory+i)
			MovMemReg8(t.b, RCX, offV+i, RAX)
		}

		MovRegImm32(t.b, RAX, uint32(op.X)+1)
		AddMemReg16(t.b, RCX, offI, RAX)

	case chip8.OpInvalid:
		return t.encodeTail(chip8.OpcodeInvalid)

	default:
		// CLS, DRW, RND, keyboard and every extension opcode run on
		// the interpreter instead
		return t.encodeTail(chip8.OpcodeNotSupported)
	}

	return false
}

// encodeSkip lowers a conditional skip. The cycle counter is decremented
// up front because the taken branch bypasses the following instruction's
// cycle; the fall-through path re-increments it. The forward jump has to
// clear both that increment and the next translated instruction, whose
// length is found by speculative emission.
func (t *translator) encodeSkip(op chip8.Opcode, whenEqual bool, load func()) bool {
	DecMem32(t.b, RCX, offCycles)

	load()
	CmpRegMem8(t.b, RAX, RCX, offV+int32(op.X))

	incLen := t.measure(func() { IncMem32(t.b, RCX, offCycles) })
	distance := incLen + t.nextLength()

	if whenEqual {
		Jz8(t.b, int8(distance))
	} else {
		Jnz8(t.b, int8(distance))
	}

	IncMem32(t.b, RCX, offCycles)

	t.lastSkip = true

	return false
}

// encodeTail emits the epilogue for a block that ends without a control
// transfer: on an error, PC is left pointing at the offending instruction
// so the interpreter can retry it; either way the cycles retired so far
// are banked before returning the code.
func (t *translator) encodeTail(code chip8.Error) bool {
	if t.start < t.end {
		MovRegImm32(t.b, RAX, uint32(t.end))
		MovMemReg16(t.b, RCX, offPC, RAX)

		MovRegImm32(t.b, RAX, uint32(t.end-t.start)/2)
		AddMemReg32(t.b, RCX, offCycles, RAX)
	}

	MovRegImm32(t.b, RAX, uint32(code))
	Ret(t.b)

	return true
}

// encodeRet lowers 00EE: pop the call site address, resume just past it.
func (t *translator) encodeRet() bool {
	DecMem8(t.b, RCX, offSP)

	// rdx = &state + 2*SP
	MovzxRegMem8(t.b, RDX, RCX, offSP)
	AddRegReg64(t.b, RDX, RDX)
	AddRegReg64(t.b, RDX, RCX)

	// PC = stack[SP] + 2
	MovRegMem16(t.b, RAX, RDX, offStack)
	AddAXImm8(t.b, 2)
	MovMemReg16(t.b, RCX, offPC, RAX)

	t.encodeCycles()

	MovRegImm32(t.b, RAX, uint32(chip8.Ok))
	Ret(t.b)

	return true
}

// encodeCall lowers 2nnn: push the call site address, jump to nnn.
func (t *translator) encodeCall(op chip8.Opcode) bool {
	// rdx = &state + 2*SP
	MovzxRegMem8(t.b, RDX, RCX, offSP)
	AddRegReg64(t.b, RDX, RDX)
	AddRegReg64(t.b, RDX, RCX)

	// stack[SP] = address of this CALL
	MovRegImm32(t.b, RAX, uint32(t.end))
	MovMemReg16(t.b, RDX, offStack, RAX)

	IncMem8(t.b, RCX, offSP)

	MovRegImm32(t.b, RAX, uint32(op.NNN))
	MovMemReg16(t.b, RCX, offPC, RAX)

	t.encodeCycles()

	MovRegImm32(t.b, RAX, uint32(chip8.Ok))
	Ret(t.b)

	return true
}

// encodeJmp lowers 1nnn.
func (t *translator) encodeJmp(op chip8.Opcode) bool {
	MovRegImm32(t.b, RAX, uint32(op.NNN))
	MovMemReg16(t.b, RCX, offPC, RAX)

	t.encodeCycles()

	MovRegImm32(t.b, RAX, uint32(chip8.Ok))
	Ret(t.b)

	return true
}

// encodeJpV0 lowers Bnnn: PC = nnn + V0.
func (t *translator) encodeJpV0(op chip8.Opcode) bool {
	MovRegImm32(t.b, RAX, uint32(op.NNN))
	MovMemReg16(t.b, RCX, offPC, RAX)

	MovzxRegMem8(t.b, RAX, RCX, offV)
	AddMemReg16(t.b, RCX, offPC, RAX)

	t.encodeCycles()

	MovRegImm32(t.b, RAX, uint32(chip8.Ok))
	Ret(t.b)

	return true
}

// encodeCycles banks the retired cycle count of the whole block, the
// terminating instruction included.
func (t *translator) encodeCycles() {
	MovRegImm32(t.b, RAX, 1+uint32(t.end-t.start)/2)
	AddMemReg32(t.b, RCX, offCycles, RAX)
}
