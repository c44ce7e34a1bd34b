package jit

// Reg is an x86-64 general purpose register number as used in ModR/M and
// REX encoding.
type Reg byte

const (
	RAX Reg = 0
	RCX Reg = 1
	RDX Reg = 2
	RBX Reg = 3
	RSP Reg = 4
	RBP Reg = 5
	RSI Reg = 6
	RDI Reg = 7
	R8  Reg = 8
	R9  Reg = 9
	R10 Reg = 10
	R11 Reg = 11
	R12 Reg = 12
	R13 Reg = 13
	R14 Reg = 14
	R15 Reg = 15
)

// modRM packs the mod, reg and r/m fields of a ModR/M byte.
func modRM(b *Buffer, mod, rm byte, reg Reg) {
	b.PushByte(mod<<6 | byte(reg)<<3 | rm)
}

// rex emits a REX prefix. W widens the operand to 64 bits; R, X and B
// extend the reg, index and r/m fields.
func rex(b *Buffer, w, r, x, bb byte) {
	b.PushByte(0x40 | w<<3 | r<<2 | x<<1 | bb)
}

// dispModRM emits the ModR/M byte and displacement for a [base + disp]
// memory operand, picking the shortest displacement encoding: none when
// the displacement is zero, one byte when it fits in a signed 8-bit
// value, four bytes otherwise.
func dispModRM(b *Buffer, reg Reg, base Reg, disp int32) {
	rm := byte(base) & 7

	switch {
	case disp == 0:
		modRM(b, 0, rm, reg&7)
	case disp >= -128 && disp <= 127:
		modRM(b, 1, rm, reg&7)
		b.PushByte(byte(disp))
	default:
		modRM(b, 2, rm, reg&7)
		b.PushDword(uint32(disp))
	}
}

// memOp emits opcode bytes followed by a [base + disp] operand, with a
// REX prefix when either register needs extending.
func memOp(b *Buffer, reg Reg, base Reg, disp int32, opcode ...byte) {
	if reg >= 8 || base >= 8 {
		rex(b, 0, byte(reg>>3), 0, byte(base>>3))
	}

	for _, op := range opcode {
		b.PushByte(op)
	}

	dispModRM(b, reg, base, disp)
}

// MovRegImm32 emits mov reg32, imm32.
func MovRegImm32(b *Buffer, reg Reg, imm uint32) {
	if reg >= 8 {
		rex(b, 0, 0, 0, 1)
	}

	b.PushByte(0xB8 | byte(reg)&7)
	b.PushDword(imm)
}

// MovRegImm64 emits mov reg64, imm64.
func MovRegImm64(b *Buffer, reg Reg, imm uint64) {
	rex(b, 1, 0, 0, byte(reg>>3))
	b.PushByte(0xB8 | byte(reg)&7)
	b.PushQword(imm)
}

// MovzxRegMem8 emits movzx reg64, byte [base + disp].
func MovzxRegMem8(b *Buffer, reg Reg, base Reg, disp int32) {
	rex(b, 1, byte(reg>>3), 0, byte(base>>3))
	b.PushByte(0x0F)
	b.PushByte(0xB6)
	dispModRM(b, reg, base, disp)
}

// MovzxRegMem16 emits movzx reg64, word [base + disp].
func MovzxRegMem16(b *Buffer, reg Reg, base Reg, disp int32) {
	rex(b, 1, byte(reg>>3), 0, byte(base>>3))
	b.PushByte(0x0F)
	b.PushByte(0xB7)
	dispModRM(b, reg, base, disp)
}

// MovRegMem8 emits mov reg8, [base + disp].
func MovRegMem8(b *Buffer, reg Reg, base Reg, disp int32) {
	memOp(b, reg, base, disp, 0x8A)
}

// MovRegMem16 emits mov reg16, [base + disp].
func MovRegMem16(b *Buffer, reg Reg, base Reg, disp int32) {
	b.PushByte(0x66)
	memOp(b, reg, base, disp, 0x8B)
}

// MovRegMem32 emits mov reg32, [base + disp].
func MovRegMem32(b *Buffer, reg Reg, base Reg, disp int32) {
	memOp(b, reg, base, disp, 0x8B)
}

// MovMemReg8 emits mov [base + disp], reg8.
func MovMemReg8(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x88)
}

// MovMemReg16 emits mov [base + disp], reg16.
func MovMemReg16(b *Buffer, base Reg, disp int32, reg Reg) {
	b.PushByte(0x66)
	memOp(b, reg, base, disp, 0x89)
}

// MovMemReg32 emits mov [base + disp], reg32.
func MovMemReg32(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x89)
}

// AddAXImm8 emits add ax, imm8 (sign-extended).
func AddAXImm8(b *Buffer, imm byte) {
	b.PushByte(0x66)
	b.PushByte(0x83)
	b.PushByte(0xC0)
	b.PushByte(imm)
}

// AddMemReg8 emits add [base + disp], reg8.
func AddMemReg8(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x00)
}

// AddMemReg16 emits add [base + disp], reg16.
func AddMemReg16(b *Buffer, base Reg, disp int32, reg Reg) {
	b.PushByte(0x66)
	memOp(b, reg, base, disp, 0x01)
}

// AddMemReg32 emits add [base + disp], reg32.
func AddMemReg32(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x01)
}

// SubMemReg8 emits sub [base + disp], reg8.
func SubMemReg8(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x28)
}

// SubRegMem8 emits sub reg8, [base + disp].
func SubRegMem8(b *Buffer, reg Reg, base Reg, disp int32) {
	memOp(b, reg, base, disp, 0x2A)
}

// OrMemReg8 emits or [base + disp], reg8.
func OrMemReg8(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x08)
}

// AndMemReg8 emits and [base + disp], reg8.
func AndMemReg8(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x20)
}

// XorMemReg8 emits xor [base + disp], reg8.
func XorMemReg8(b *Buffer, base Reg, disp int32, reg Reg) {
	memOp(b, reg, base, disp, 0x30)
}

// CmpRegMem8 emits cmp reg8, [base + disp].
func CmpRegMem8(b *Buffer, reg Reg, base Reg, disp int32) {
	memOp(b, reg, base, disp, 0x3A)
}

// IncMem8 emits inc byte [base + disp].
func IncMem8(b *Buffer, base Reg, disp int32) {
	memOp(b, 0, base, disp, 0xFE)
}

// DecMem8 emits dec byte [base + disp].
func DecMem8(b *Buffer, base Reg, disp int32) {
	memOp(b, 1, base, disp, 0xFE)
}

// IncMem32 emits inc dword [base + disp].
func IncMem32(b *Buffer, base Reg, disp int32) {
	memOp(b, 0, base, disp, 0xFF)
}

// DecMem32 emits dec dword [base + disp].
func DecMem32(b *Buffer, base Reg, disp int32) {
	memOp(b, 1, base, disp, 0xFF)
}

// ShrMem8 emits shr byte [base + disp], 1.
func ShrMem8(b *Buffer, base Reg, disp int32) {
	memOp(b, 5, base, disp, 0xD0)
}

// ShlMem8 emits shl byte [base + disp], 1.
func ShlMem8(b *Buffer, base Reg, disp int32) {
	memOp(b, 4, base, disp, 0xD0)
}

// Setc emits setc byte [base + disp].
func Setc(b *Buffer, base Reg, disp int32) {
	memOp(b, 0, base, disp, 0x0F, 0x92)
}

// Setnc emits setnc byte [base + disp].
func Setnc(b *Buffer, base Reg, disp int32) {
	memOp(b, 0, base, disp, 0x0F, 0x93)
}

// Jz8 emits jz with an 8-bit relative distance.
func Jz8(b *Buffer, distance int8) {
	b.PushByte(0x74)
	b.PushByte(byte(distance))
}

// Jnz8 emits jnz with an 8-bit relative distance.
func Jnz8(b *Buffer, distance int8) {
	b.PushByte(0x75)
	b.PushByte(byte(distance))
}

// AddRegReg64 emits add reg64, reg64.
func AddRegReg64(b *Buffer, reg Reg, rm Reg) {
	rex(b, 1, byte(reg>>3), 0, byte(rm>>3))
	b.PushByte(0x03)
	modRM(b, 3, byte(rm)&7, reg&7)
}

// Ret emits a near return.
func Ret(b *Buffer) {
	b.PushByte(0xC3)
}
