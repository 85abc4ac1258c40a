// Package memory implements the guest side of the boundary memory protocol.
//
// # Linear Memory
//
// Linear is a slab reserved once at its configured limit and committed in
// 64 KiB pages. Addresses are absolute: on wasip1 they are real pointers
// into the module's memory, elsewhere they are offsets into the slab. The
// first Reserved bytes are never allocated, so address 0 is never valid.
//
// # Arena
//
// Arena is a first-fit allocator with byte alignment and free-span
// coalescing:
//
//	lin := memory.NewLinear(memory.Config{LimitPages: 256})
//	arena := memory.NewArena(lin)
//	addr := arena.Alloc(uint32(len(svg)))
//	...
//	arena.Free(addr, uint32(len(svg)))
//
// Misuse (unknown address, size mismatch) and exhaustion panic.
//
// # Views and Buffers
//
// View is the only way pipeline code reads host-provided bytes; it is built
// by Linear.View, which checks the whole range against committed memory.
// Buffer holds module-produced output inside the arena.
package memory
