package host

import (
	"sync"

	svgraster "github.com/wippyai/svg-raster"
)

// Allocation is one region staged in guest memory.
type Allocation struct {
	Addr uint32
	Size uint32
}

// AllocationList records staged regions so they can all be released once
// a call returns, whatever its outcome.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 4)}
	},
}

// NewAllocationList returns an empty list from the pool.
func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

const maxPooledAllocationCapacity = 64

// Release returns the list to the pool. Call after Free; the list must not
// be used afterwards.
func (al *AllocationList) Release() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.Reset()
	allocationListPool.Put(al)
}

// FreeAndRelease frees every region and returns the list to the pool.
func (al *AllocationList) FreeAndRelease(allocator svgraster.Allocator) {
	al.Free(allocator)
	al.Release()
}

// Add records a region.
func (al *AllocationList) Add(addr, size uint32) {
	al.allocations = append(al.allocations, Allocation{Addr: addr, Size: size})
}

// Free releases every recorded region, newest first.
func (al *AllocationList) Free(allocator svgraster.Allocator) {
	if allocator == nil {
		return
	}
	for i := len(al.allocations) - 1; i >= 0; i-- {
		if a := al.allocations[i]; a.Addr != 0 {
			allocator.Free(a.Addr, a.Size)
		}
	}
	al.Reset()
}

// Reset forgets every region without freeing it.
func (al *AllocationList) Reset() {
	al.allocations = al.allocations[:0]
}

// Count returns the number of recorded regions.
func (al *AllocationList) Count() int {
	return len(al.allocations)
}

// Stage allocates len(data) bytes in the guest, copies data there and
// records the region.
func (al *AllocationList) Stage(allocator svgraster.Allocator, mem svgraster.Memory, data []byte) (uint32, uint32, error) {
	size := uint32(len(data))
	addr, err := allocator.Alloc(size)
	if err != nil {
		return 0, 0, err
	}
	al.Add(addr, size)
	if err := mem.Write(addr, data); err != nil {
		return 0, 0, err
	}
	return addr, size, nil
}
