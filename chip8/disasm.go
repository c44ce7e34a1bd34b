package chip8

import "fmt"

// String formats a decoded opcode using the classic mnemonics.
func (op Opcode) String() string {
	switch op.Kind {
	case OpCls:
		return "CLS"
	case OpRet:
		return "RET"
	case OpJmpNNN:
		return fmt.Sprintf("JP     #%04X", op.NNN)
	case OpCallNNN:
		return fmt.Sprintf("CALL   #%04X", op.NNN)
	case OpSeVxKK:
		return fmt.Sprintf("SE     V%X, #%02X", op.X, op.KK)
	case OpSneVxKK:
		return fmt.Sprintf("SNE    V%X, #%02X", op.X, op.KK)
	case OpSeVxVy:
		return fmt.Sprintf("SE     V%X, V%X", op.X, op.Y)
	case OpLdVxKK:
		return fmt.Sprintf("LD     V%X, #%02X", op.X, op.KK)
	case OpAddVxKK:
		return fmt.Sprintf("ADD    V%X, #%02X", op.X, op.KK)
	case OpLdVxVy:
		return fmt.Sprintf("LD     V%X, V%X", op.X, op.Y)
	case OpOrVxVy:
		return fmt.Sprintf("OR     V%X, V%X", op.X, op.Y)
	case OpAndVxVy:
		return fmt.Sprintf("AND    V%X, V%X", op.X, op.Y)
	case OpXorVxVy:
		return fmt.Sprintf("XOR    V%X, V%X", op.X, op.Y)
	case OpAddVxVy:
		return fmt.Sprintf("ADD    V%X, V%X", op.X, op.Y)
	case OpSubVxVy:
		return fmt.Sprintf("SUB    V%X, V%X", op.X, op.Y)
	case OpShrVx:
		return fmt.Sprintf("SHR    V%X", op.X)
	case OpSubnVxVy:
		return fmt.Sprintf("SUBN   V%X, V%X", op.X, op.Y)
	case OpShlVx:
		return fmt.Sprintf("SHL    V%X", op.X)
	case OpSneVxVy:
		return fmt.Sprintf("SNE    V%X, V%X", op.X, op.Y)
	case OpLdINNN:
		return fmt.Sprintf("LD     I, #%03X", op.NNN)
	case OpJpV0NNN:
		return fmt.Sprintf("JP     V0, #%04X", op.NNN)
	case OpRndVxKK:
		return fmt.Sprintf("RND    V%X, #%02X", op.X, op.KK)
	case OpDrwVxVyN:
		return fmt.Sprintf("DRW    V%X, V%X, %d", op.X, op.Y, op.N)
	case OpSkpVx:
		return fmt.Sprintf("SKP    V%X", op.X)
	case OpSknpVx:
		return fmt.Sprintf("SKNP   V%X", op.X)
	case OpLdVxDT:
		return fmt.Sprintf("LD     V%X, DT", op.X)
	case OpLdVxK:
		return fmt.Sprintf("LD     V%X, K", op.X)
	case OpLdDTVx:
		return fmt.Sprintf("LD     DT, V%X", op.X)
	case OpLdSTVx:
		return fmt.Sprintf("LD     ST, V%X", op.X)
	case OpAddIVx:
		return fmt.Sprintf("ADD    I, V%X", op.X)
	case OpLdFVx:
		return fmt.Sprintf("LD     F, V%X", op.X)
	case OpLdBVx:
		return fmt.Sprintf("LD     B, V%X", op.X)
	case OpLdIVx:
		return fmt.Sprintf("LD     [I], V%X", op.X)
	case OpLdVxI:
		return fmt.Sprintf("LD     V%X, [I]", op.X)
	case OpScrollDownN:
		return fmt.Sprintf("SCD    %d", op.N)
	case OpScrollRight:
		return "SCR"
	case OpScrollLeft:
		return "SCL"
	case OpExit:
		return "EXIT"
	case OpLowRes:
		return "LOW"
	case OpHighRes:
		return "HIGH"
	case OpDrwVxVy0:
		return fmt.Sprintf("DRW    V%X, V%X, 0", op.X, op.Y)
	case OpLdHFVx:
		return fmt.Sprintf("LD     HF, V%X", op.X)
	case OpLdRVx:
		return fmt.Sprintf("LD     R, V%X", op.X)
	case OpLdVxR:
		return fmt.Sprintf("LD     V%X, R", op.X)
	case OpScrollUpN:
		return fmt.Sprintf("SCU    %d", op.N)
	case OpLdIVxVy:
		return fmt.Sprintf("LD     [I], V%X-V%X", op.X, op.Y)
	case OpLdVxVyI:
		return fmt.Sprintf("LD     V%X-V%X, [I]", op.X, op.Y)
	case OpLdINNNN:
		return fmt.Sprintf("LD     I, #%04X", op.NNN)
	case OpDrwPlaneN:
		return fmt.Sprintf("PLANE  %d", op.X)
	case OpLdAudioI:
		return "AUDIO"
	}

	// unknown instruction
	return "??"
}

// Disassemble the instruction at a guest address.
func (vm *Chip8) Disassemble(address uint16) string {
	if int(address) >= vm.MemSize()-1 {
		return ""
	}

	// end of program memory?
	if vm.Memory[address] == 0 && vm.Memory[address+1] == 0 {
		return fmt.Sprintf("%04X -", address)
	}

	return fmt.Sprintf("%04X - %s", address, vm.Decode(address))
}
