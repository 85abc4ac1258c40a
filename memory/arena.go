package memory

import (
	"slices"

	"github.com/wippyai/svg-raster/errors"
)

// dangling is the offset returned for zero-size allocations. It lies inside
// the reserved prefix, so it is non-null and never overlaps a real region.
const dangling = 1

type span struct {
	off  uint32
	size uint32
}

func (s span) end() uint32 { return s.off + s.size }

// Arena is a byte-aligned first-fit allocator over a Linear.
//
// Every live allocation's size is recorded. Releasing with a different size,
// or releasing an address the arena never handed out, is a contract
// violation and panics with an *errors.Error, as does running out of memory.
// Compiled to wasm those panics surface to the host as traps.
type Arena struct {
	mem  *Linear
	free []span // sorted by offset, never adjacent
	live map[uint32]uint32
	used uint32
}

// NewArena manages all committed bytes of mem past the reserved prefix.
func NewArena(mem *Linear) *Arena {
	a := &Arena{
		mem:  mem,
		live: make(map[uint32]uint32),
	}
	if mem.Size() > Reserved {
		a.free = append(a.free, span{off: Reserved, size: mem.Size() - Reserved})
	}
	return a
}

// Memory returns the linear memory the arena allocates from.
func (a *Arena) Memory() *Linear {
	return a.mem
}

// Alloc returns the absolute address of size fresh bytes.
// A zero size yields a non-null address that reserves nothing.
func (a *Arena) Alloc(size uint32) uint32 {
	if size == 0 {
		return a.mem.base + dangling
	}

	i := a.firstFit(size)
	if i < 0 {
		a.grow(size)
		i = a.firstFit(size)
		if i < 0 {
			panic(errors.AllocationFailed(errors.PhaseMemory, size, a.available()))
		}
	}

	s := a.free[i]
	if s.size == size {
		a.free = slices.Delete(a.free, i, i+1)
	} else {
		a.free[i] = span{off: s.off + size, size: s.size - size}
	}

	a.live[s.off] = size
	a.used += size
	return a.mem.base + s.off
}

// Free returns a region to the arena. size must match the allocation.
func (a *Arena) Free(addr, size uint32) {
	if size == 0 && addr == a.mem.base+dangling {
		return
	}
	if addr < a.mem.base {
		panic(unknownAddress(addr, size))
	}
	off := addr - a.mem.base

	want, ok := a.live[off]
	if !ok {
		panic(unknownAddress(addr, size))
	}
	if want != size {
		panic(errors.SizeMismatch(errors.PhaseMemory, addr, size, want))
	}

	delete(a.live, off)
	a.used -= size
	a.insert(span{off: off, size: size})
}

// Bytes returns the slice backing a live allocation.
func (a *Arena) Bytes(addr, size uint32) []byte {
	if size == 0 {
		return nil
	}
	return a.mem.bytesAt(addr-a.mem.base, size)
}

// Live returns the number of outstanding allocations.
func (a *Arena) Live() int {
	return len(a.live)
}

// InUse returns the number of bytes held by outstanding allocations.
func (a *Arena) InUse() uint32 {
	return a.used
}

func (a *Arena) available() uint32 {
	var n uint32
	for _, s := range a.free {
		n += s.size
	}
	return n + (a.mem.Limit() - a.mem.Size())
}

func (a *Arena) firstFit(size uint32) int {
	for i, s := range a.free {
		if s.size >= size {
			return i
		}
	}
	return -1
}

// grow commits enough pages for size bytes, counting a free span that
// already reaches the end of committed memory.
func (a *Arena) grow(size uint32) {
	need := uint64(size)
	if n := len(a.free); n > 0 && a.free[n-1].end() == a.mem.Size() {
		need -= uint64(a.free[n-1].size)
	}
	pages := (need + PageSize - 1) / PageSize
	if pages > uint64(a.mem.Limit()/PageSize) {
		return
	}
	start := a.mem.Size()
	if !a.mem.Grow(uint32(pages)) {
		return
	}
	a.insert(span{off: start, size: a.mem.Size() - start})
}

// insert adds s to the free list, merging with neighbours.
func (a *Arena) insert(s span) {
	i, _ := slices.BinarySearchFunc(a.free, s.off, func(e span, off uint32) int {
		switch {
		case e.off < off:
			return -1
		case e.off > off:
			return 1
		}
		return 0
	})

	if i > 0 && a.free[i-1].end() == s.off {
		i--
		s = span{off: a.free[i].off, size: a.free[i].size + s.size}
		a.free = slices.Delete(a.free, i, i+1)
	}
	if i < len(a.free) && s.end() == a.free[i].off {
		s.size += a.free[i].size
		a.free = slices.Delete(a.free, i, i+1)
	}
	a.free = slices.Insert(a.free, i, s)
}

func unknownAddress(addr, size uint32) *errors.Error {
	return errors.New(errors.PhaseMemory, errors.KindInvalidInput).
		Value(addr).
		Detail("release of unknown address %#x with size %d", addr, size).
		Build()
}
