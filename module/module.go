package module

import (
	"math"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/wippyai/svg-raster/abi"
	"github.com/wippyai/svg-raster/errors"
	"github.com/wippyai/svg-raster/fontdb"
	"github.com/wippyai/svg-raster/memory"
	"github.com/wippyai/svg-raster/raster"
	"github.com/wippyai/svg-raster/scene"
)

// Module is the renderer's complete state: linear memory and its arena,
// the font registry and the result and error buffers. Every exported
// operation is a method. A Module is not safe for concurrent use; callers
// make one call at a time.
type Module struct {
	cfg    Config
	mem    *memory.Linear
	arena  *memory.Arena
	fonts  *fontdb.Registry
	result *memory.Buffer
	errBuf *memory.Buffer
}

// New creates a module with an uninitialized font registry.
func New(cfg Config) *Module {
	mem := memory.NewLinear(cfg.memory())
	arena := memory.NewArena(mem)
	m := &Module{
		cfg:    cfg,
		mem:    mem,
		arena:  arena,
		fonts:  fontdb.NewRegistry(),
		result: memory.NewBuffer(arena),
		errBuf: memory.NewBuffer(arena),
	}
	Logger().Debug("module created",
		zap.Uint32("base", mem.Base()),
		zap.Uint32("limit", mem.Limit()))
	return m
}

// Memory returns the module's linear memory. Hosts write staged input
// into it and read results out of it.
func (m *Module) Memory() *memory.Linear {
	return m.mem
}

// Arena returns the allocator behind Allocate and Release.
func (m *Module) Arena() *memory.Arena {
	return m.arena
}

// Fonts returns the font registry.
func (m *Module) Fonts() *fontdb.Registry {
	return m.fonts
}

// Allocate reserves size bytes for the host and returns their address.
// Exhausting memory panics.
func (m *Module) Allocate(size uint32) uint32 {
	return m.arena.Alloc(size)
}

// Release returns a region obtained from Allocate. size must equal the
// allocated size; any other value panics.
func (m *Module) Release(addr, size uint32) {
	m.arena.Free(addr, size)
}

// FontInit replaces the font database with a fresh empty one.
func (m *Module) FontInit() {
	m.fonts.Init()
}

// FontSetSansSerif sets the family used for the sans-serif generic.
func (m *Module) FontSetSansSerif(addr, length uint32) int32 {
	return m.setFamily(fontdb.SansSerif, addr, length)
}

// FontSetMonospace sets the family used for the monospace generic.
func (m *Module) FontSetMonospace(addr, length uint32) int32 {
	return m.setFamily(fontdb.Monospace, addr, length)
}

func (m *Module) setFamily(g fontdb.Generic, addr, length uint32) int32 {
	name, err := m.text(addr, length, g.String())
	if err != nil {
		return m.fail(err)
	}
	if err := m.fonts.SetGenericFamily(g, name); err != nil {
		return m.fail(err)
	}
	return abi.StatusOK
}

// FontAdd loads the font blob at [addr, addr+length). Data that is not a
// usable font is skipped without error.
func (m *Module) FontAdd(addr, length uint32) int32 {
	v, err := m.mem.View(addr, length)
	if err != nil {
		return m.fail(err)
	}
	if _, err := m.fonts.LoadFont(v.Bytes()); err != nil {
		return m.fail(err)
	}
	return abi.StatusOK
}

// ResultAddress returns the address of the last PNG, or 0 when empty.
func (m *Module) ResultAddress() uint32 { return m.result.Addr() }

// ResultLength returns the length of the last PNG.
func (m *Module) ResultLength() uint32 { return m.result.Len() }

// ErrorAddress returns the address of the last error message, or 0.
func (m *Module) ErrorAddress() uint32 { return m.errBuf.Addr() }

// ErrorLength returns the length of the last error message.
func (m *Module) ErrorLength() uint32 { return m.errBuf.Len() }

// Render converts the SVG markup at [addr, addr+length) to PNG at the
// scale whose float64 bit pattern is scaleBits. Both buffers are cleared
// first; on success the PNG is in the result buffer, otherwise the message
// is in the error buffer.
func (m *Module) Render(addr, length uint32, scaleBits uint64) int32 {
	m.result.Clear()
	m.errBuf.Clear()

	data, err := m.render(addr, length, math.Float64frombits(scaleBits))
	if err != nil {
		return m.fail(err)
	}
	m.result.Set(data)
	return abi.StatusOK
}

func (m *Module) render(addr, length uint32, scale float64) ([]byte, error) {
	svg, err := m.text(addr, length, "svg")
	if err != nil {
		return nil, err
	}

	lease, err := m.fonts.Borrow()
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	tree, err := scene.Parse(svg, m.cfg.Parse, lease)
	if err != nil {
		return nil, err
	}

	w, h := pixels(tree.Width*scale), pixels(tree.Height*scale)
	if w == 0 || h == 0 {
		return nil, errors.EmptyOutput(w, h)
	}

	s, err := raster.NewSurface(w, h, m.cfg.limits())
	if err != nil {
		return nil, err
	}
	defer s.Close()

	raster.Render(tree, gg.Scale(scale, scale), s)

	data, err := s.EncodePNG()
	if err != nil {
		return nil, err
	}
	Logger().Debug("rendered",
		zap.Float64("scale", scale),
		zap.Uint32("width", w),
		zap.Uint32("height", h),
		zap.Int("bytes", len(data)))
	return data, nil
}

// text decodes a host-provided UTF-8 string.
func (m *Module) text(addr, length uint32, what string) (string, error) {
	v, err := m.mem.View(addr, length)
	if err != nil {
		return "", err
	}
	if !v.ValidUTF8() {
		return "", errors.InvalidUTF8(errors.PhaseDecode, []string{what}, v.Bytes())
	}
	return v.String(), nil
}

func (m *Module) fail(err error) int32 {
	msg := err.Error()
	m.errBuf.SetString(msg)
	Logger().Debug("operation failed", zap.String("error", msg))
	return abi.StatusError
}

// pixels rounds a scaled dimension up to whole pixels, saturating at the
// uint32 range. NaN and non-positive values give 0.
func pixels(v float64) uint32 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(math.Ceil(v))
}
