//go:build !wasip1

package memory

// slabBase is zero outside wasm: addresses are plain slab offsets.
func slabBase([]byte) uint32 {
	return 0
}
