// Package module is the SVG renderer behind the guest boundary: a single
// Module holding linear memory, an allocator, the font registry and the
// result and error buffers.
//
// Every exported operation takes and returns plain integers so it can be
// bound directly to a wasm export. Strings and blobs are passed as an
// (address, length) pair into the module's own memory, staged by the host
// with Allocate and freed with Release:
//
//	m := module.New(module.Config{})
//	m.FontInit()
//	addr := m.Allocate(uint32(len(svg)))
//	m.Memory().Write(addr, svg)
//	if m.Render(addr, uint32(len(svg)), math.Float64bits(2)) == abi.StatusOK {
//		png, _ := m.Memory().Read(m.ResultAddress(), m.ResultLength())
//	}
//	m.Release(addr, uint32(len(svg)))
//
// Recoverable failures return abi.StatusError with the message in the error
// buffer. Allocator misuse and memory exhaustion panic.
package module
