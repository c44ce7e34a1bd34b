package jit

import (
	"fmt"
	"runtime"

	"github.com/c8vm/chip8/chip8"
)

// Recompiler is the dynamic translation back-end: guest basic blocks are
// compiled to native code on first entry and dispatched from a cache. A
// recompiler is bound to a single guest machine, whose address is baked
// into every block it builds.
type Recompiler struct {
	cache *Cache
}

// NewRecompiler creates the recompiler back-end.
func NewRecompiler() (*Recompiler, error) {
	if runtime.GOARCH != "amd64" {
		return nil, fmt.Errorf("jit: recompiler requires amd64, running on %s", runtime.GOARCH)
	}

	return &Recompiler{cache: NewCache()}, nil
}

// Step fetches (or builds) the block at the guest PC and runs it. The
// block mutates the state in place: on return PC and the cycle counter
// are already up to date. When the block declines an opcode it returns
// OpcodeNotSupported with PC parked on that instruction, and the caller
// falls back to the interpreter for one step.
func (r *Recompiler) Step(state *chip8.Chip8) error {
	block, err := r.cache.Get(state)
	if err != nil {
		return err
	}

	code := chip8.Error(block.Code.Run())
	runtime.KeepAlive(state)

	if code != chip8.Ok {
		return code
	}

	return nil
}

// Invalidate drops cached blocks overlapping a guest address range. The
// machine driver wires this to the interpreter's store notifications.
func (r *Recompiler) Invalidate(lo, hi uint16) {
	r.cache.Invalidate(lo, hi)
}

// Flush drops the whole block cache, e.g. after a machine reset.
func (r *Recompiler) Flush() {
	r.cache.Flush()
}
