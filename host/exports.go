package host

import (
	"context"

	"go.uber.org/zap"

	svgraster "github.com/wippyai/svg-raster"
	"github.com/wippyai/svg-raster/abi"
	"github.com/wippyai/svg-raster/errors"
)

// Exports is a guest reachable by export name. Params and results use the
// core wasm encoding: i32 values in the low 32 bits, i64 values as is.
type Exports interface {
	Call(ctx context.Context, name string, params ...uint64) ([]uint64, error)
	Memory() svgraster.Memory
	Close(ctx context.Context) error
}

// call invokes name and returns its single result, or 0 for exports that
// return nothing.
func call(ctx context.Context, ex Exports, name string, params ...uint64) (uint64, error) {
	res, err := ex.Call(ctx, name, params...)
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, nil
	}
	return res[0], nil
}

// call32 invokes an export returning a u32.
func call32(ctx context.Context, ex Exports, name string, params ...uint64) (uint32, error) {
	v, err := call(ctx, ex, name, params...)
	return uint32(v), err
}

// guestAllocator adapts the alloc_mem and dealloc_mem exports to an Allocator.
type guestAllocator struct {
	ctx context.Context
	ex  Exports
}

var _ svgraster.Allocator = (*guestAllocator)(nil)

func (a *guestAllocator) Alloc(size uint32) (uint32, error) {
	addr, err := call32(a.ctx, a.ex, abi.Allocate, uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseHost, errors.KindAllocation, err, "guest allocation failed")
	}
	if addr == 0 {
		return 0, errors.AllocationFailed(errors.PhaseHost, size, 0)
	}
	return addr, nil
}

func (a *guestAllocator) Free(addr, size uint32) {
	if _, err := a.ex.Call(a.ctx, abi.Release, uint64(addr), uint64(size)); err != nil {
		Logger().Warn("guest release failed",
			zap.Uint32("addr", addr), zap.Uint32("size", size), zap.Error(err))
	}
}
