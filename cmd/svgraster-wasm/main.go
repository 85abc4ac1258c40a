//go:build wasip1

// Command svgraster-wasm is the renderer built as a WASI reactor:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o svgraster.wasm ./cmd/svgraster-wasm
//
// Each export forwards to a single module.Module. Addresses it hands out
// point into the Go heap, which lives in the wasm linear memory the host
// reads and writes.
package main

import (
	"github.com/wippyai/svg-raster/module"
)

var m *module.Module

func init() {
	m = module.New(module.Config{})
}

func main() {}

//go:wasmexport alloc_mem
func allocMem(size uint32) uint32 { return m.Allocate(size) }

//go:wasmexport dealloc_mem
func deallocMem(addr, size uint32) { m.Release(addr, size) }

//go:wasmexport font_db_init
func fontDBInit() { m.FontInit() }

//go:wasmexport font_db_set_sans_serif
func fontDBSetSansSerif(addr, length uint32) int32 { return m.FontSetSansSerif(addr, length) }

//go:wasmexport font_db_set_monospace
func fontDBSetMonospace(addr, length uint32) int32 { return m.FontSetMonospace(addr, length) }

//go:wasmexport font_db_add
func fontDBAdd(addr, length uint32) int32 { return m.FontAdd(addr, length) }

//go:wasmexport render
func render(addr, length uint32, scaleBits uint64) int32 { return m.Render(addr, length, scaleBits) }

//go:wasmexport result_ptr
func resultPtr() uint32 { return m.ResultAddress() }

//go:wasmexport result_len
func resultLen() uint32 { return m.ResultLength() }

//go:wasmexport error_ptr
func errorPtr() uint32 { return m.ErrorAddress() }

//go:wasmexport error_len
func errorLen() uint32 { return m.ErrorLength() }
