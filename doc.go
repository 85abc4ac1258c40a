// Package svgraster is a sandboxed SVG to PNG renderer that talks to its host
// through a flat, byte-oriented function boundary.
//
// The host and the renderer share no types, allocator or runtime. The host
// stages input bytes by asking the module for an address, writing into the
// module's linear memory and calling an export with an (address, length)
// pair. Exports return status codes; output and diagnostics are read back
// through address/length accessor pairs.
//
// # Architecture Overview
//
//	svgraster/           Root package with Memory and Allocator interfaces
//	├── memory/          Linear memory slab, arena allocator, bounds-checked views
//	├── fontdb/          Font database and the registry guarding exclusive access
//	├── scene/           SVG markup to scene tree
//	├── raster/          Surface allocation, rasterization and PNG encoding
//	├── module/          The exported operations and their singleton state
//	├── abi/             Export names, WIT signatures and status codes
//	├── host/            wazero and in-process bindings, Renderer client
//	├── errors/          Structured error types shared by guest and host
//	└── cmd/
//	    ├── svgraster-wasm/  wasip1 reactor exporting the ABI
//	    └── svgraster/       Command line renderer
//
// # Protocol
//
// A full render from the host side:
//
//	addr := alloc_mem(len(svg))
//	write(addr, svg)
//	status := render(addr, len(svg), float64bits(scale))
//	dealloc_mem(addr, len(svg))
//	if status < 0 {
//	    msg := read(error_ptr(), error_len())
//	} else {
//	    png := read(result_ptr(), result_len())
//	}
//
// The bytes behind result_ptr/error_ptr stay valid only until the next call
// that mutates them; every render clears both at its start.
//
// # Go Hosts
//
// The host package wraps the protocol:
//
//	r, err := host.NewRenderer(ctx, host.NewLocal(module.New(module.Config{})), host.RendererConfig{
//	    SansSerif: "Go",
//	    Fonts:     [][]byte{goregular.TTF},
//	})
//	png, err := r.Render(ctx, svg, 2.0)
//
// # Thread Safety
//
// A module is single-threaded and non-reentrant. host.Renderer serializes
// callers; module.Module must not be shared without external locking.
package svgraster
