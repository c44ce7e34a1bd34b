package jit

import (
	"bytes"
	"testing"
)

// emit runs an emitter against a scratch buffer and returns the bytes.
func emit(t *testing.T, f func(*Buffer)) []byte {
	t.Helper()

	b, err := NewBuffer(256)
	if err != nil {
		t.Fatalf("NewBuffer: %v", err)
	}
	defer b.Close()

	f(b)

	return append([]byte(nil), b.Bytes()...)
}

func TestEncodings(t *testing.T) {
	tests := []struct {
		name string
		emit func(*Buffer)
		want []byte
	}{
		{"mov eax, imm32",
			func(b *Buffer) { MovRegImm32(b, RAX, 0x204) },
			[]byte{0xB8, 0x04, 0x02, 0x00, 0x00}},
		{"mov ecx, imm32",
			func(b *Buffer) { MovRegImm32(b, RCX, 0x10) },
			[]byte{0xB9, 0x10, 0x00, 0x00, 0x00}},
		{"mov rcx, imm64",
			func(b *Buffer) { MovRegImm64(b, RCX, 0x1122334455667788) },
			[]byte{0x48, 0xB9, 0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11}},

		{"mov [rcx], al",
			func(b *Buffer) { MovMemReg8(b, RCX, 0, RAX) },
			[]byte{0x88, 0x01}},
		{"mov [rcx+16], al",
			func(b *Buffer) { MovMemReg8(b, RCX, 16, RAX) },
			[]byte{0x88, 0x41, 0x10}},
		{"mov [rcx+0x130], al",
			func(b *Buffer) { MovMemReg8(b, RCX, 0x130, RAX) },
			[]byte{0x88, 0x81, 0x30, 0x01, 0x00, 0x00}},
		{"mov al, [rcx+5]",
			func(b *Buffer) { MovRegMem8(b, RAX, RCX, 5) },
			[]byte{0x8A, 0x41, 0x05}},
		{"mov ax, [rdx+28]",
			func(b *Buffer) { MovRegMem16(b, RAX, RDX, 28) },
			[]byte{0x66, 0x8B, 0x42, 0x1C}},
		{"mov [rcx+20], ax",
			func(b *Buffer) { MovMemReg16(b, RCX, 20, RAX) },
			[]byte{0x66, 0x89, 0x41, 0x14}},
		{"mov eax, [rcx+24]",
			func(b *Buffer) { MovRegMem32(b, RAX, RCX, 24) },
			[]byte{0x8B, 0x41, 0x18}},
		{"mov [rcx+24], eax",
			func(b *Buffer) { MovMemReg32(b, RCX, 24, RAX) },
			[]byte{0x89, 0x41, 0x18}},

		{"movzx rdx, byte [rcx+18]",
			func(b *Buffer) { MovzxRegMem8(b, RDX, RCX, 18) },
			[]byte{0x48, 0x0F, 0xB6, 0x51, 0x12}},
		{"movzx rdx, word [rcx+20]",
			func(b *Buffer) { MovzxRegMem16(b, RDX, RCX, 20) },
			[]byte{0x48, 0x0F, 0xB7, 0x51, 0x14}},

		{"add ax, 2",
			func(b *Buffer) { AddAXImm8(b, 2) },
			[]byte{0x66, 0x83, 0xC0, 0x02}},
		{"add [rcx+16], al",
			func(b *Buffer) { AddMemReg8(b, RCX, 16, RAX) },
			[]byte{0x00, 0x41, 0x10}},
		{"add [rcx+20], ax",
			func(b *Buffer) { AddMemReg16(b, RCX, 20, RAX) },
			[]byte{0x66, 0x01, 0x41, 0x14}},
		{"add [rcx+24], eax",
			func(b *Buffer) { AddMemReg32(b, RCX, 24, RAX) },
			[]byte{0x01, 0x41, 0x18}},
		{"add rdx, rdx",
			func(b *Buffer) { AddRegReg64(b, RDX, RDX) },
			[]byte{0x48, 0x03, 0xD2}},
		{"add rdx, rcx",
			func(b *Buffer) { AddRegReg64(b, RDX, RCX) },
			[]byte{0x48, 0x03, 0xD1}},

		{"sub [rcx+16], al",
			func(b *Buffer) { SubMemReg8(b, RCX, 16, RAX) },
			[]byte{0x28, 0x41, 0x10}},
		{"sub al, [rcx+16]",
			func(b *Buffer) { SubRegMem8(b, RAX, RCX, 16) },
			[]byte{0x2A, 0x41, 0x10}},
		{"or [rcx+16], al",
			func(b *Buffer) { OrMemReg8(b, RCX, 16, RAX) },
			[]byte{0x08, 0x41, 0x10}},
		{"and [rcx+16], al",
			func(b *Buffer) { AndMemReg8(b, RCX, 16, RAX) },
			[]byte{0x20, 0x41, 0x10}},
		{"xor [rcx+16], al",
			func(b *Buffer) { XorMemReg8(b, RCX, 16, RAX) },
			[]byte{0x30, 0x41, 0x10}},
		{"cmp al, [rcx+2]",
			func(b *Buffer) { CmpRegMem8(b, RAX, RCX, 2) },
			[]byte{0x3A, 0x41, 0x02}},

		{"inc byte [rcx+18]",
			func(b *Buffer) { IncMem8(b, RCX, 18) },
			[]byte{0xFE, 0x41, 0x12}},
		{"dec byte [rcx+18]",
			func(b *Buffer) { DecMem8(b, RCX, 18) },
			[]byte{0xFE, 0x49, 0x12}},
		{"inc dword [rcx+24]",
			func(b *Buffer) { IncMem32(b, RCX, 24) },
			[]byte{0xFF, 0x41, 0x18}},
		{"dec dword [rcx+24]",
			func(b *Buffer) { DecMem32(b, RCX, 24) },
			[]byte{0xFF, 0x49, 0x18}},

		{"shr byte [rcx+3], 1",
			func(b *Buffer) { ShrMem8(b, RCX, 3) },
			[]byte{0xD0, 0x69, 0x03}},
		{"shl byte [rcx+3], 1",
			func(b *Buffer) { ShlMem8(b, RCX, 3) },
			[]byte{0xD0, 0x61, 0x03}},

		{"setc byte [rcx+15]",
			func(b *Buffer) { Setc(b, RCX, 15) },
			[]byte{0x0F, 0x92, 0x41, 0x0F}},
		{"setnc byte [rcx+15]",
			func(b *Buffer) { Setnc(b, RCX, 15) },
			[]byte{0x0F, 0x93, 0x41, 0x0F}},

		{"jz +5",
			func(b *Buffer) { Jz8(b, 5) },
			[]byte{0x74, 0x05}},
		{"jnz -2",
			func(b *Buffer) { Jnz8(b, -2) },
			[]byte{0x75, 0xFE}},

		{"ret",
			func(b *Buffer) { Ret(b) },
			[]byte{0xC3}},
	}

	for _, test := range tests {
		if got := emit(t, test.emit); !bytes.Equal(got, test.want) {
			t.Errorf("%s: got % X, want % X", test.name, got, test.want)
		}
	}
}

// The displacement encoding must pick the shortest form: none for zero,
// one byte within a signed 8-bit range, four bytes beyond it.
func TestDisplacementSizing(t *testing.T) {
	tests := []struct {
		disp int32
		want []byte
	}{
		{0, []byte{0x8A, 0x01}},
		{1, []byte{0x8A, 0x41, 0x01}},
		{127, []byte{0x8A, 0x41, 0x7F}},
		{128, []byte{0x8A, 0x81, 0x80, 0x00, 0x00, 0x00}},
		{-1, []byte{0x8A, 0x41, 0xFF}},
		{-128, []byte{0x8A, 0x41, 0x80}},
		{-129, []byte{0x8A, 0x81, 0x7F, 0xFF, 0xFF, 0xFF}},
		{0x12345, []byte{0x8A, 0x81, 0x45, 0x23, 0x01, 0x00}},
	}

	for _, test := range tests {
		got := emit(t, func(b *Buffer) { MovRegMem8(b, RAX, RCX, test.disp) })

		if !bytes.Equal(got, test.want) {
			t.Errorf("disp %d: got % X, want % X", test.disp, got, test.want)
		}
	}
}
