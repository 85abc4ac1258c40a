package host

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	svgraster "github.com/wippyai/svg-raster"
	"github.com/wippyai/svg-raster/abi"
	"github.com/wippyai/svg-raster/errors"
)

// Config holds configuration for loading a compiled guest.
type Config struct {
	// MemoryLimitPages caps guest memory in pages (64KB each).
	// 0 means the wazero default.
	MemoryLimitPages uint32

	// Stdout and Stderr receive the guest's WASI output. Nil discards it.
	Stdout io.Writer
	Stderr io.Writer
}

// Instance is a compiled guest running under wazero.
type Instance struct {
	runtime  wazero.Runtime
	module   api.Module
	memory   *wasmMemory
	funcs    map[string]api.Function
	closeMu  sync.Mutex
	isClosed bool
}

var _ Exports = (*Instance)(nil)

// Load compiles and instantiates a guest, checking that it exports every
// function of the renderer ABI with the right core signature.
func Load(ctx context.Context, wasm []byte, cfg Config) (*Instance, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	inst, err := instantiate(ctx, rt, wasm, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return inst, nil
}

func instantiate(ctx context.Context, rt wazero.Runtime, wasm []byte, cfg Config) (*Instance, error) {
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		return nil, errors.Load("instantiate WASI", err)
	}

	compiled, err := rt.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile guest", err)
	}

	defs := compiled.ExportedFunctions()
	if err := checkExports(func(name string) ([]api.ValueType, []api.ValueType, bool) {
		def, ok := defs[name]
		if !ok {
			return nil, nil, false
		}
		return def.ParamTypes(), def.ResultTypes(), true
	}); err != nil {
		return nil, err
	}

	modCfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions("_initialize")
	if cfg.Stdout != nil {
		modCfg = modCfg.WithStdout(cfg.Stdout)
	}
	if cfg.Stderr != nil {
		modCfg = modCfg.WithStderr(cfg.Stderr)
	}

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		return nil, errors.Load("instantiate guest", err)
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.Load("guest exports no memory", nil)
	}

	inst := &Instance{
		runtime: rt,
		module:  mod,
		memory:  &wasmMemory{mem: mem},
		funcs:   make(map[string]api.Function, len(abi.Names)),
	}
	for _, name := range abi.Names {
		inst.funcs[name] = mod.ExportedFunction(name)
	}

	Logger().Debug("guest loaded",
		zap.Int("bytes", len(wasm)),
		zap.Uint32("memory", mem.Size()))
	return inst, nil
}

// Call invokes an ABI export. A trap, including a guest panic, is returned
// as a guest_error.
func (i *Instance) Call(ctx context.Context, name string, params ...uint64) ([]uint64, error) {
	fn, ok := i.funcs[name]
	if !ok {
		return nil, errors.InvalidInput(errors.PhaseHost, "unknown export "+name)
	}
	res, err := fn.Call(ctx, params...)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseHost, errors.KindGuestError, err, "call "+name)
	}
	return res, nil
}

// Memory returns the guest's linear memory.
func (i *Instance) Memory() svgraster.Memory {
	return i.memory
}

// Close releases the guest and its runtime. It is safe to call more than once.
func (i *Instance) Close(ctx context.Context) error {
	i.closeMu.Lock()
	defer i.closeMu.Unlock()
	if i.isClosed {
		return nil
	}
	i.isClosed = true
	return i.runtime.Close(ctx)
}

// checkExports reports every ABI export that lookup cannot find or whose
// core signature differs from the one its WIT type lowers to.
func checkExports(lookup func(name string) (params, results []api.ValueType, ok bool)) error {
	sigs, err := abi.Signatures()
	if err != nil {
		return err
	}

	var missing []errors.MissingExport
	for _, name := range abi.Names {
		sig := sigs[name]
		params, results, ok := lookup(name)
		if !ok {
			missing = append(missing, errors.MissingExport{Name: name})
			continue
		}
		wantParams, wantResults := coreTypes(sig.Params), coreTypes(sig.Results)
		if !slices.Equal(params, wantParams) || !slices.Equal(results, wantResults) {
			missing = append(missing, errors.MissingExport{
				Name: name,
				Reason: fmt.Sprintf("signature %s, want %s",
					signature(params, results), signature(wantParams, wantResults)),
			})
		}
	}
	if len(missing) > 0 {
		return &errors.MissingExportsError{Exports: missing}
	}
	return nil
}

func coreTypes(types []wit.Type) []api.ValueType {
	out := make([]api.ValueType, 0, len(types))
	for _, t := range types {
		switch t.(type) {
		case wit.U64, wit.S64:
			out = append(out, api.ValueTypeI64)
		case wit.F32:
			out = append(out, api.ValueTypeF32)
		case wit.F64:
			out = append(out, api.ValueTypeF64)
		default:
			out = append(out, api.ValueTypeI32)
		}
	}
	return out
}

func signature(params, results []api.ValueType) string {
	names := func(types []api.ValueType) string {
		s := make([]string, len(types))
		for i, t := range types {
			s[i] = api.ValueTypeName(t)
		}
		return strings.Join(s, ", ")
	}
	return "(" + names(params) + ") -> (" + names(results) + ")"
}
