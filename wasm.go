package svgraster

// Memory represents a module's linear memory as seen across the boundary.
// Addresses are absolute; implementations reject any access that falls
// outside the currently committed size.
type Memory interface {
	Read(addr uint32, length uint32) ([]byte, error)
	Write(addr uint32, data []byte) error
}

// MemorySizer provides the current size of linear memory in bytes.
type MemorySizer interface {
	Size() uint32
}

// Allocator hands out byte regions of a module's linear memory from the
// host side. Free must be called with the same size that was passed to Alloc.
type Allocator interface {
	Alloc(size uint32) (uint32, error)
	Free(addr, size uint32)
}
