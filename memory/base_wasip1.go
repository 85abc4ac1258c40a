//go:build wasip1

package memory

import "unsafe"

// slabBase returns the slab's real address in the module's linear memory,
// so addresses handed to the host can be used with its memory view directly.
func slabBase(slab []byte) uint32 {
	return uint32(uintptr(unsafe.Pointer(unsafe.SliceData(slab))))
}
