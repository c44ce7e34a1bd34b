package chip8

import "testing"

// The disassembly of a decoded word must render every operand field, so a
// decode change that drops or garbles a field shows up here.
func TestDisassembleRoundTrip(t *testing.T) {
	tests := []struct {
		variant Variant
		raw     uint16
		text    string
	}{
		{Classic, 0x00E0, "CLS"},
		{Classic, 0x00EE, "RET"},
		{Classic, 0x1208, "JP     #0208"},
		{Classic, 0x2250, "CALL   #0250"},
		{Classic, 0x3210, "SE     V2, #10"},
		{Classic, 0x4210, "SNE    V2, #10"},
		{Classic, 0x5230, "SE     V2, V3"},
		{Classic, 0x6255, "LD     V2, #55"},
		{Classic, 0x7210, "ADD    V2, #10"},
		{Classic, 0x8120, "LD     V1, V2"},
		{Classic, 0x8121, "OR     V1, V2"},
		{Classic, 0x8122, "AND    V1, V2"},
		{Classic, 0x8123, "XOR    V1, V2"},
		{Classic, 0x8124, "ADD    V1, V2"},
		{Classic, 0x8125, "SUB    V1, V2"},
		{Classic, 0x8126, "SHR    V1"},
		{Classic, 0x8127, "SUBN   V1, V2"},
		{Classic, 0x812E, "SHL    V1"},
		{Classic, 0x9230, "SNE    V2, V3"},
		{Classic, 0xA123, "LD     I, #123"},
		{Classic, 0xB210, "JP     V0, #0210"},
		{Classic, 0xC2AA, "RND    V2, #AA"},
		{Classic, 0xD013, "DRW    V0, V1, 3"},
		{Classic, 0xE29E, "SKP    V2"},
		{Classic, 0xE2A1, "SKNP   V2"},
		{Classic, 0xF207, "LD     V2, DT"},
		{Classic, 0xF20A, "LD     V2, K"},
		{Classic, 0xF215, "LD     DT, V2"},
		{Classic, 0xF218, "LD     ST, V2"},
		{Classic, 0xF21E, "ADD    I, V2"},
		{Classic, 0xF229, "LD     F, V2"},
		{Classic, 0xF233, "LD     B, V2"},
		{Classic, 0xF255, "LD     [I], V2"},
		{Classic, 0xF265, "LD     V2, [I]"},
		{Classic, 0x8128, "??"},

		{SuperChip, 0x00C4, "SCD    4"},
		{SuperChip, 0x00FB, "SCR"},
		{SuperChip, 0x00FC, "SCL"},
		{SuperChip, 0x00FD, "EXIT"},
		{SuperChip, 0x00FE, "LOW"},
		{SuperChip, 0x00FF, "HIGH"},
		{SuperChip, 0xD120, "DRW    V1, V2, 0"},
		{SuperChip, 0xF130, "LD     HF, V1"},
		{SuperChip, 0xF175, "LD     R, V1"},
		{SuperChip, 0xF185, "LD     V1, R"},

		{XOChip, 0x00D4, "SCU    4"},
		{XOChip, 0x5122, "LD     [I], V1-V2"},
		{XOChip, 0x5123, "LD     V1-V2, [I]"},
		{XOChip, 0xF301, "PLANE  3"},
		{XOChip, 0xF002, "AUDIO"},
	}

	for _, test := range tests {
		vm := loadWords(t, test.variant, test.raw)

		if s := vm.Decode(0x200).String(); s != test.text {
			t.Errorf("%04X: %q, want %q", test.raw, s, test.text)
		}
	}
}

func TestDisassembleAddress(t *testing.T) {
	vm := loadWords(t, Classic, 0x6255)

	if s := vm.Disassemble(0x200); s != "0200 - LD     V2, #55" {
		t.Errorf("Disassemble = %q", s)
	}

	// empty memory renders as a bare address
	if s := vm.Disassemble(0x300); s != "0300 -" {
		t.Errorf("Disassemble = %q", s)
	}

	// out of range
	if s := vm.Disassemble(0xFFF); s != "" {
		t.Errorf("Disassemble = %q", s)
	}
}

func TestDisassembleLongLoad(t *testing.T) {
	vm := loadWords(t, XOChip, 0xF000, 0x1234)

	if s := vm.Decode(0x200).String(); s != "LD     I, #1234" {
		t.Errorf("String = %q", s)
	}
}
