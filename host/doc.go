// Package host drives the renderer across its integer-only ABI.
//
// The same code serves two kinds of guest: a compiled wasm module loaded
// with Load and run under wazero, and a module.Module in this process
// wrapped with NewLocal. Both implement Exports.
//
//	ex, err := host.Load(ctx, wasm, host.Config{MemoryLimitPages: 1024})
//	if err != nil {
//		return err
//	}
//	r, err := host.NewRenderer(ctx, ex, host.RendererConfig{
//		SansSerif: "Go",
//		Fonts:     [][]byte{goregular.TTF},
//	})
//	png, err := r.Render(ctx, svg, 2)
//
// Renderer stages every input in guest memory, releases it when the call
// returns, and copies results out before the guest can reuse the region.
// Guest failures come back as *errors.Error rebuilt from the guest's error
// text, so errors.Is matches on phase and kind.
//
// RendererConfig.CacheSize keeps recent outputs in an LRU, and
// RendererConfig.Metrics exports Prometheus collectors from NewMetrics.
package host
