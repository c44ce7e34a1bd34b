package chip8

import "testing"

// loadWords writes big-endian opcode words at 0x200.
func loadWords(t *testing.T, variant Variant, words ...uint16) *Chip8 {
	t.Helper()

	vm := New(variant, 500)
	rom := make([]byte, 0, len(words)*2)

	for _, w := range words {
		rom = append(rom, byte(w>>8), byte(w))
	}

	if err := vm.LoadROM(rom); err != nil {
		t.Fatalf("LoadROM: %v", err)
	}

	return vm
}

func TestDecodeBaseSet(t *testing.T) {
	tests := []struct {
		raw  uint16
		kind Kind
	}{
		{0x00E0, OpCls},
		{0x00EE, OpRet},
		{0x1208, OpJmpNNN},
		{0x2250, OpCallNNN},
		{0x3210, OpSeVxKK},
		{0x4210, OpSneVxKK},
		{0x5230, OpSeVxVy},
		{0x6255, OpLdVxKK},
		{0x7210, OpAddVxKK},
		{0x8120, OpLdVxVy},
		{0x8121, OpOrVxVy},
		{0x8122, OpAndVxVy},
		{0x8123, OpXorVxVy},
		{0x8124, OpAddVxVy},
		{0x8125, OpSubVxVy},
		{0x8126, OpShrVx},
		{0x8127, OpSubnVxVy},
		{0x812E, OpShlVx},
		{0x9230, OpSneVxVy},
		{0xA123, OpLdINNN},
		{0xB210, OpJpV0NNN},
		{0xC2AA, OpRndVxKK},
		{0xD013, OpDrwVxVyN},
		{0xE29E, OpSkpVx},
		{0xE2A1, OpSknpVx},
		{0xF207, OpLdVxDT},
		{0xF20A, OpLdVxK},
		{0xF215, OpLdDTVx},
		{0xF218, OpLdSTVx},
		{0xF21E, OpAddIVx},
		{0xF229, OpLdFVx},
		{0xF233, OpLdBVx},
		{0xF255, OpLdIVx},
		{0xF265, OpLdVxI},

		// not in the classic set
		{0x0000, OpInvalid},
		{0x0230, OpInvalid},
		{0x00FD, OpInvalid},
		{0x5231, OpInvalid},
		{0x8128, OpInvalid},
		{0x9231, OpInvalid},
		{0xE200, OpInvalid},
		{0xF200, OpInvalid},
	}

	for _, test := range tests {
		vm := loadWords(t, Classic, test.raw)

		if op := vm.Decode(0x200); op.Kind != test.kind {
			t.Errorf("decode %04X: kind = %d, want %d", test.raw, op.Kind, test.kind)
		}
	}
}

func TestDecodeFields(t *testing.T) {
	vm := loadWords(t, Classic, 0xD123)
	op := vm.Decode(0x200)

	if op.X != 1 || op.Y != 2 || op.N != 3 || op.KK != 0x23 || op.NNN != 0x123 || op.Raw != 0xD123 {
		t.Errorf("fields = x%X y%X n%X kk%02X nnn%03X raw%04X", op.X, op.Y, op.N, op.KK, op.NNN, op.Raw)
	}
}

func TestDecodeIsPure(t *testing.T) {
	vm := loadWords(t, Classic, 0x1208)

	vm.Decode(0x200)

	if vm.PC != 0x200 || vm.Cycles != 0 {
		t.Errorf("decode mutated state: PC = %04X Cycles = %d", vm.PC, vm.Cycles)
	}
}

func TestDecodeTwoPage(t *testing.T) {
	vm := loadWords(t, TwoPage, 0x0230)

	// loaded at 0x200 but decoded anywhere; 0230 clears the display
	if op := vm.Decode(0x200); op.Kind != OpCls {
		t.Errorf("kind = %d, want OpCls", op.Kind)
	}
}

func TestDecodeSuperChip(t *testing.T) {
	tests := []struct {
		raw  uint16
		kind Kind
	}{
		{0x00C4, OpScrollDownN},
		{0x00FB, OpScrollRight},
		{0x00FC, OpScrollLeft},
		{0x00FD, OpExit},
		{0x00FE, OpLowRes},
		{0x00FF, OpHighRes},
		{0xD120, OpDrwVxVy0},
		{0xF130, OpLdHFVx},
		{0xF175, OpLdRVx},
		{0xF185, OpLdVxR},

		// XO-CHIP only
		{0x00D4, OpInvalid},
		{0x5122, OpInvalid},
		{0xF002, OpInvalid},
	}

	for _, test := range tests {
		vm := loadWords(t, SuperChip, test.raw)

		if op := vm.Decode(0x200); op.Kind != test.kind {
			t.Errorf("decode %04X: kind = %d, want %d", test.raw, op.Kind, test.kind)
		}
	}
}

func TestDecodeXOChip(t *testing.T) {
	tests := []struct {
		raw  uint16
		kind Kind
	}{
		{0x00D4, OpScrollUpN},
		{0x5122, OpLdIVxVy},
		{0x5123, OpLdVxVyI},
		{0xF101, OpDrwPlaneN},
		{0xF002, OpLdAudioI},

		// Super-CHIP decoding is inherited
		{0x00FD, OpExit},
		{0xF130, OpLdHFVx},
	}

	for _, test := range tests {
		vm := loadWords(t, XOChip, test.raw)

		if op := vm.Decode(0x200); op.Kind != test.kind {
			t.Errorf("decode %04X: kind = %d, want %d", test.raw, op.Kind, test.kind)
		}
	}
}

func TestIsSkip(t *testing.T) {
	skips := []Kind{OpSeVxKK, OpSneVxKK, OpSeVxVy, OpSneVxVy, OpSkpVx, OpSknpVx}

	for _, k := range skips {
		if !k.IsSkip() {
			t.Errorf("kind %d: IsSkip = false", k)
		}
	}

	for _, k := range []Kind{OpInvalid, OpCls, OpJmpNNN, OpLdVxKK, OpDrwVxVyN} {
		if k.IsSkip() {
			t.Errorf("kind %d: IsSkip = true", k)
		}
	}
}

func TestDecodeLongLoad(t *testing.T) {
	vm := loadWords(t, XOChip, 0xF000, 0x1234)
	op := vm.Decode(0x200)

	if op.Kind != OpLdINNNN {
		t.Fatalf("kind = %d, want OpLdINNNN", op.Kind)
	}

	// the operand is the trailing word
	if op.NNN != 0x1234 {
		t.Errorf("NNN = %04X, want 1234", op.NNN)
	}
}
