package host

import (
	"context"
	"fmt"

	svgraster "github.com/wippyai/svg-raster"
	"github.com/wippyai/svg-raster/abi"
	"github.com/wippyai/svg-raster/errors"
	"github.com/wippyai/svg-raster/module"
)

// Local binds a Module running in this process to the Exports interface,
// so the same host code drives it and a compiled guest.
type Local struct {
	m *module.Module
}

var _ Exports = (*Local)(nil)

// NewLocal returns exports backed by m.
func NewLocal(m *module.Module) *Local {
	return &Local{m: m}
}

// Module returns the underlying module.
func (l *Local) Module() *module.Module {
	return l.m
}

// Call dispatches to the Module method for name. A panic inside the module
// is returned as a guest_error, the way a wasm trap would be.
func (l *Local) Call(_ context.Context, name string, params ...uint64) (res []uint64, err error) {
	sig, err := abi.Lookup(name)
	if err != nil {
		return nil, err
	}
	if len(params) != len(sig.Params) {
		return nil, errors.InvalidInput(errors.PhaseHost,
			fmt.Sprintf("%s takes %d params, got %d", name, len(sig.Params), len(params)))
	}

	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v", r)
			}
			res, err = nil, errors.Wrap(errors.PhaseHost, errors.KindGuestError, cause, "call "+name)
		}
	}()

	u32 := func(i int) uint32 { return uint32(params[i]) }
	status := func(s int32) []uint64 { return []uint64{uint64(uint32(s))} }

	m := l.m
	switch name {
	case abi.Allocate:
		return []uint64{uint64(m.Allocate(u32(0)))}, nil
	case abi.Release:
		m.Release(u32(0), u32(1))
		return nil, nil
	case abi.FontInit:
		m.FontInit()
		return nil, nil
	case abi.FontSetSansSerif:
		return status(m.FontSetSansSerif(u32(0), u32(1))), nil
	case abi.FontSetMonospace:
		return status(m.FontSetMonospace(u32(0), u32(1))), nil
	case abi.FontAdd:
		return status(m.FontAdd(u32(0), u32(1))), nil
	case abi.Render:
		return status(m.Render(u32(0), u32(1), params[2])), nil
	case abi.ResultAddress:
		return []uint64{uint64(m.ResultAddress())}, nil
	case abi.ResultLength:
		return []uint64{uint64(m.ResultLength())}, nil
	case abi.ErrorAddress:
		return []uint64{uint64(m.ErrorAddress())}, nil
	case abi.ErrorLength:
		return []uint64{uint64(m.ErrorLength())}, nil
	}
	return nil, errors.InvalidInput(errors.PhaseHost, "unknown export "+name)
}

// Memory returns the module's linear memory.
func (l *Local) Memory() svgraster.Memory {
	return l.m.Memory()
}

// Close is a no-op; the module is reclaimed by the garbage collector.
func (l *Local) Close(context.Context) error {
	return nil
}
