package memory

import (
	"github.com/wippyai/svg-raster/errors"
)

// PageSize is the commit granularity of linear memory, matching a wasm page.
const PageSize = 64 * 1024

// Reserved is the number of bytes at the start of the slab that are never
// handed out, so no allocation can live at address zero.
const Reserved = 8

// MaxPages keeps the slab, and every address in it, within 32 bits.
const MaxPages = 65535

// Config controls linear memory sizing.
type Config struct {
	// LimitPages is the hard ceiling in pages. Default 1024 (64 MiB).
	LimitPages uint32
	// InitialPages are committed up front. Default 1.
	InitialPages uint32
}

func (c Config) withDefaults() Config {
	if c.LimitPages == 0 {
		c.LimitPages = 1024
	}
	if c.LimitPages > MaxPages {
		c.LimitPages = MaxPages
	}
	if c.InitialPages == 0 {
		c.InitialPages = 1
	}
	if c.InitialPages > c.LimitPages {
		c.InitialPages = c.LimitPages
	}
	return c
}

// Linear is a fixed slab of bytes addressed by 32-bit absolute addresses.
// The slab is reserved once and never reallocated, so slices into it stay
// valid for the lifetime of the Linear. Only the committed prefix is
// addressable; it grows in whole pages up to the configured limit.
type Linear struct {
	slab      []byte
	base      uint32
	committed uint32
	limit     uint32
}

// NewLinear reserves a slab for cfg.LimitPages pages.
func NewLinear(cfg Config) *Linear {
	cfg = cfg.withDefaults()
	limit := cfg.LimitPages * PageSize
	slab := make([]byte, limit)
	return &Linear{
		slab:      slab,
		base:      slabBase(slab),
		committed: cfg.InitialPages * PageSize,
		limit:     limit,
	}
}

// Base returns the absolute address of the first slab byte.
func (l *Linear) Base() uint32 {
	return l.base
}

// Size returns the number of committed bytes.
func (l *Linear) Size() uint32 {
	return l.committed
}

// Limit returns the maximum number of bytes that can ever be committed.
func (l *Linear) Limit() uint32 {
	return l.limit
}

// Pages returns the number of committed pages.
func (l *Linear) Pages() uint32 {
	return l.committed / PageSize
}

// Grow commits delta more pages. It reports false, leaving the size
// unchanged, if that would exceed the limit.
func (l *Linear) Grow(delta uint32) bool {
	next := uint64(l.committed) + uint64(delta)*PageSize
	if next > uint64(l.limit) {
		return false
	}
	l.committed = uint32(next)
	return true
}

// View returns a bounds-checked window over [addr, addr+length).
// A zero-length view is valid at any address.
func (l *Linear) View(addr, length uint32) (View, error) {
	if length == 0 {
		return View{addr: addr}, nil
	}
	off, ok := l.offset(addr, length)
	if !ok {
		return View{}, errors.OutOfBounds(errors.PhaseMemory, nil, addr, length, l.committed)
	}
	return View{addr: addr, data: l.slab[off : off+length : off+length]}, nil
}

// Read returns the committed bytes at [addr, addr+length). The returned
// slice aliases linear memory.
func (l *Linear) Read(addr, length uint32) ([]byte, error) {
	v, err := l.View(addr, length)
	if err != nil {
		return nil, err
	}
	return v.Bytes(), nil
}

// Write copies data into linear memory at addr.
func (l *Linear) Write(addr uint32, data []byte) error {
	v, err := l.View(addr, uint32(len(data)))
	if err != nil {
		return err
	}
	copy(v.data, data)
	return nil
}

func (l *Linear) offset(addr, length uint32) (uint32, bool) {
	if addr < l.base {
		return 0, false
	}
	off := addr - l.base
	end := uint64(off) + uint64(length)
	if end > uint64(l.committed) {
		return 0, false
	}
	return off, true
}

// bytesAt is the unchecked slice used by the arena for regions it owns.
func (l *Linear) bytesAt(off, length uint32) []byte {
	return l.slab[off : off+length : off+length]
}
