package jit

import "github.com/c8vm/chip8/chip8"

// Cache maps a guest address to the translated block entered there.
// Blocks are built on demand and owned by the cache for its lifetime.
type Cache struct {
	blocks map[uint16]*CodeBlock
}

// NewCache creates an empty block cache.
func NewCache() *Cache {
	return &Cache{blocks: make(map[uint16]*CodeBlock)}
}

// Get returns the block starting at the state's PC, translating and
// inserting it on a miss.
func (c *Cache) Get(state *chip8.Chip8) (*CodeBlock, error) {
	if block, ok := c.blocks[state.PC]; ok {
		return block, nil
	}

	block, err := Translate(state)
	if err != nil {
		return nil, err
	}

	c.blocks[state.PC] = block

	return block, nil
}

// Invalidate drops every block whose guest range overlaps [lo, hi).
// Without this, a guest store into translated code would silently keep
// executing the stale block.
func (c *Cache) Invalidate(lo, hi uint16) {
	for pc, block := range c.blocks {
		if block.Start < hi && lo < block.End {
			delete(c.blocks, pc)
			block.Close()
		}
	}
}

// Flush drops every cached block.
func (c *Cache) Flush() {
	for pc, block := range c.blocks {
		delete(c.blocks, pc)
		block.Close()
	}
}
