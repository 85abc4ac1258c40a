package host

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/wippyai/svg-raster/abi"
	"github.com/wippyai/svg-raster/errors"
)

// RendererConfig is the font setup a Renderer applies to its guest.
type RendererConfig struct {
	// SansSerif and Monospace name the families substituted for those
	// generics. Empty keeps the guest default.
	SansSerif string
	Monospace string
	// Fonts are TrueType or OpenType blobs loaded in order.
	Fonts [][]byte
	// CacheSize keeps the PNGs of that many recent renders, keyed by
	// markup and scale. Any font change empties the cache. 0 disables it.
	CacheSize int
	// Metrics, if set, records every render.
	Metrics *Metrics
}

// Renderer drives a guest through the renderer ABI. It is safe for
// concurrent use; calls are serialized because the guest is not reentrant.
type Renderer struct {
	mu      sync.Mutex
	exports Exports
	cache   *lru.Cache[uint64, []byte]
	metrics *Metrics
	cfg     RendererConfig
}

// NewRenderer initializes the guest's font database from cfg.
func NewRenderer(ctx context.Context, exports Exports, cfg RendererConfig) (*Renderer, error) {
	r := &Renderer{exports: exports, metrics: cfg.Metrics}
	r.cfg.SansSerif, r.cfg.Monospace = cfg.SansSerif, cfg.Monospace
	r.cfg.Fonts = append(r.cfg.Fonts, cfg.Fonts...)
	if cfg.CacheSize > 0 {
		cache, err := lru.New[uint64, []byte](cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		r.cache = cache
	}

	if err := r.reset(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Render rasterizes svg at scale and returns the PNG bytes.
func (r *Renderer) Render(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	start := time.Now()
	key := cacheKey(svg, scale)
	if r.cache != nil {
		if out, ok := r.cache.Get(key); ok {
			r.metrics.cacheHit()
			r.metrics.observe(start, out, nil)
			return bytes.Clone(out), nil
		}
	}

	out, err := r.render(ctx, svg, scale)
	r.metrics.observe(start, out, err)
	if err != nil {
		return nil, err
	}
	if r.cache != nil {
		r.cache.Add(key, bytes.Clone(out))
	}
	return out, nil
}

func (r *Renderer) render(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	alloc := &guestAllocator{ctx: ctx, ex: r.exports}
	list := NewAllocationList()
	defer list.FreeAndRelease(alloc)

	addr, size, err := list.Stage(alloc, r.exports.Memory(), svg)
	if err != nil {
		return nil, err
	}
	if err := r.checked(ctx, abi.Render, uint64(addr), uint64(size), math.Float64bits(scale)); err != nil {
		return nil, err
	}

	out, err := r.read(ctx, abi.ResultAddress, abi.ResultLength)
	if err != nil {
		return nil, err
	}
	Logger().Debug("render complete",
		zap.Int("svg_bytes", len(svg)),
		zap.Float64("scale", scale),
		zap.Int("png_bytes", len(out)))
	return out, nil
}

// AddFont loads data into the guest. The font is replayed by Reset.
func (r *Renderer) AddFont(ctx context.Context, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purge()
	if err := r.addFont(ctx, data); err != nil {
		return err
	}
	r.cfg.Fonts = append(r.cfg.Fonts, data)
	return nil
}

// SetFamilies changes the sans-serif and monospace families. Empty
// arguments leave that family unchanged.
func (r *Renderer) SetFamilies(ctx context.Context, sansSerif, monospace string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.purge()
	if err := r.setFamilies(ctx, sansSerif, monospace); err != nil {
		return err
	}
	if sansSerif != "" {
		r.cfg.SansSerif = sansSerif
	}
	if monospace != "" {
		r.cfg.Monospace = monospace
	}
	return nil
}

// Reset re-initializes the guest's font database and replays the
// configured families and fonts.
func (r *Renderer) Reset(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reset(ctx)
}

// Close closes the underlying exports.
func (r *Renderer) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.exports.Close(ctx)
}

func (r *Renderer) reset(ctx context.Context) error {
	r.purge()
	if _, err := r.exports.Call(ctx, abi.FontInit); err != nil {
		return err
	}
	if err := r.setFamilies(ctx, r.cfg.SansSerif, r.cfg.Monospace); err != nil {
		return err
	}
	for i, font := range r.cfg.Fonts {
		if err := r.addFont(ctx, font); err != nil {
			return fmt.Errorf("font %d: %w", i, err)
		}
	}
	Logger().Debug("font database ready",
		zap.String("sans_serif", r.cfg.SansSerif),
		zap.String("monospace", r.cfg.Monospace),
		zap.Int("fonts", len(r.cfg.Fonts)))
	return nil
}

func (r *Renderer) setFamilies(ctx context.Context, sansSerif, monospace string) error {
	for _, f := range []struct{ export, name string }{
		{abi.FontSetSansSerif, sansSerif},
		{abi.FontSetMonospace, monospace},
	} {
		if f.name == "" {
			continue
		}
		if !utf8.ValidString(f.name) {
			return errors.InvalidUTF8(errors.PhaseHost, []string{f.export}, []byte(f.name))
		}
		if err := r.stageAndCall(ctx, f.export, []byte(f.name)); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) addFont(ctx context.Context, data []byte) error {
	return r.stageAndCall(ctx, abi.FontAdd, data)
}

// stageAndCall copies data into the guest, calls export with its address
// and length, and frees it again.
func (r *Renderer) stageAndCall(ctx context.Context, export string, data []byte) error {
	alloc := &guestAllocator{ctx: ctx, ex: r.exports}
	list := NewAllocationList()
	defer list.FreeAndRelease(alloc)

	addr, size, err := list.Stage(alloc, r.exports.Memory(), data)
	if err != nil {
		return err
	}
	return r.checked(ctx, export, uint64(addr), uint64(size))
}

// checked calls an export returning a status and turns a failure status
// into the guest's error message.
func (r *Renderer) checked(ctx context.Context, export string, params ...uint64) error {
	v, err := call(ctx, r.exports, export, params...)
	if err != nil {
		return err
	}
	if int32(uint32(v)) == abi.StatusOK {
		return nil
	}
	msg, err := r.read(ctx, abi.ErrorAddress, abi.ErrorLength)
	if err != nil {
		return err
	}
	return errors.FromMessage(string(msg))
}

// read copies a guest buffer out through its address and length exports.
func (r *Renderer) read(ctx context.Context, addrExport, lenExport string) ([]byte, error) {
	addr, err := call32(ctx, r.exports, addrExport)
	if err != nil {
		return nil, err
	}
	length, err := call32(ctx, r.exports, lenExport)
	if err != nil {
		return nil, err
	}
	data, err := r.exports.Memory().Read(addr, length)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(data), nil
}

func (r *Renderer) purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// cacheKey hashes the markup together with the scale's bit pattern.
func cacheKey(svg []byte, scale float64) uint64 {
	d := xxhash.New()
	_, _ = d.Write(svg)
	var bits [8]byte
	binary.LittleEndian.PutUint64(bits[:], math.Float64bits(scale))
	_, _ = d.Write(bits[:])
	return d.Sum64()
}
