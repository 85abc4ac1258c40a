package raster

import (
	"bytes"
	"fmt"
	"image"
	"math"

	"github.com/gogpu/gg"

	"github.com/wippyai/svg-raster/errors"
)

// DefaultMaxPixels bounds a surface to 64 Mpx (256 MiB of RGBA).
const DefaultMaxPixels = 1 << 26

// Limits bounds surface allocation.
type Limits struct {
	// MaxPixels is the largest width*height accepted. Default DefaultMaxPixels.
	MaxPixels uint64
}

func (l Limits) maxPixels() uint64 {
	if l.MaxPixels == 0 {
		return DefaultMaxPixels
	}
	return l.MaxPixels
}

// Surface is an RGBA pixel buffer being drawn into.
type Surface struct {
	ctx    *gg.Context
	width  uint32
	height uint32
}

// NewSurface allocates a transparent width x height surface.
func NewSurface(width, height uint32, lim Limits) (s *Surface, err error) {
	switch {
	case width == 0 || height == 0:
		return nil, errors.SurfaceAllocation(width, height, "zero dimension")
	case uint64(width)*4 > math.MaxInt32:
		return nil, errors.SurfaceAllocation(width, height, "row stride overflows")
	case uint64(width)*uint64(height) > lim.maxPixels():
		return nil, errors.SurfaceAllocation(width, height,
			fmt.Sprintf("exceeds %d pixel limit", lim.maxPixels()))
	}

	defer func() {
		if r := recover(); r != nil {
			s, err = nil, errors.SurfaceAllocation(width, height, fmt.Sprint(r))
		}
	}()
	ctx := gg.NewContext(int(width), int(height))
	ctx.SetTextMode(gg.TextModeVector)
	return &Surface{ctx: ctx, width: width, height: height}, nil
}

// Width returns the surface width in pixels.
func (s *Surface) Width() uint32 { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() uint32 { return s.height }

// Image returns a copy of the current pixels.
func (s *Surface) Image() image.Image {
	return s.ctx.Image()
}

// EncodePNG encodes the surface as a PNG with alpha.
func (s *Surface) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.ctx.EncodePNG(&buf); err != nil {
		return nil, errors.EncodingFailed("png", err)
	}
	if buf.Len() == 0 {
		return nil, errors.EncodingFailed("png", fmt.Errorf("encoder produced no bytes"))
	}
	return buf.Bytes(), nil
}

// Close releases the drawing context.
func (s *Surface) Close() error {
	return s.ctx.Close()
}
