// Package abi defines the flat function boundary between the renderer
// guest and its host.
//
// The guest exports eleven functions over core wasm values (see WIT).
// Fallible operations return StatusOK or StatusError; on error the message
// is read through error_ptr/error_len, on success the PNG through
// result_ptr/result_len. Both buffers stay valid until the next call that
// changes them.
//
// A typical render from the host side:
//
//	addr := alloc_mem(len(svg))       // write svg bytes at addr
//	status := render(addr, len(svg), math.Float64bits(scale))
//	dealloc_mem(addr, len(svg))
//	if status == StatusOK {
//		read result_len() bytes at result_ptr()
//	}
package abi
