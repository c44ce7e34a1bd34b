package jit

import (
	"encoding/binary"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Buffer is a fixed-capacity executable code buffer. It starts out
// read+write for emission; Lock flips the mapping to read+execute, after
// which the contents are immutable and Run may be called.
type Buffer struct {
	mem    []byte
	n      int
	locked bool
}

// NewBuffer maps an anonymous region of the given capacity.
func NewBuffer(capacity int) (*Buffer, error) {
	mem, err := unix.Mmap(-1, 0, capacity,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}

	return &Buffer{mem: mem}, nil
}

// Len returns how many bytes have been emitted.
func (b *Buffer) Len() int {
	return b.n
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.mem)
}

// Bytes returns the emitted code.
func (b *Buffer) Bytes() []byte {
	return b.mem[:b.n]
}

// PushByte appends a single byte.
func (b *Buffer) PushByte(v byte) {
	if b.locked {
		panic("jit: write to a locked code buffer")
	}
	if b.n >= len(b.mem) {
		panic("jit: code buffer overflow")
	}

	b.mem[b.n] = v
	b.n++
}

// PushDword appends a little-endian 32-bit value.
func (b *Buffer) PushDword(v uint32) {
	if b.locked {
		panic("jit: write to a locked code buffer")
	}
	if b.n+4 > len(b.mem) {
		panic("jit: code buffer overflow")
	}

	binary.LittleEndian.PutUint32(b.mem[b.n:], v)
	b.n += 4
}

// PushQword appends a little-endian 64-bit value.
func (b *Buffer) PushQword(v uint64) {
	if b.locked {
		panic("jit: write to a locked code buffer")
	}
	if b.n+8 > len(b.mem) {
		panic("jit: code buffer overflow")
	}

	binary.LittleEndian.PutUint64(b.mem[b.n:], v)
	b.n += 8
}

// truncate rewinds the emission pointer. The translator uses it to measure
// an instruction by emitting it and rolling back.
func (b *Buffer) truncate(n int) {
	if b.locked {
		panic("jit: write to a locked code buffer")
	}

	b.n = n
}

// Lock makes the buffer executable. No writes are permitted afterwards.
func (b *Buffer) Lock() error {
	if err := unix.Mprotect(b.mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		return err
	}

	b.locked = true

	return nil
}

// Run invokes the buffer as a function of no arguments returning an int32
// in the accumulator register.
func (b *Buffer) Run() int32 {
	if !b.locked {
		panic("jit: running an unlocked code buffer")
	}

	// A Go func value points at a word holding the code address, so a
	// pointer to a pointer to the mapping is callable directly.
	code := unsafe.Pointer(&b.mem[0])
	ptr := &code
	fn := *(*func() int32)(unsafe.Pointer(&ptr))

	return fn()
}

// Close unmaps the buffer.
func (b *Buffer) Close() error {
	if b.mem == nil {
		return nil
	}

	mem := b.mem
	b.mem = nil

	return unix.Munmap(mem)
}
