package module

import (
	"github.com/wippyai/svg-raster/memory"
	"github.com/wippyai/svg-raster/raster"
	"github.com/wippyai/svg-raster/scene"
)

// Config holds module configuration.
type Config struct {
	// MemoryLimitPages caps linear memory in 64 KiB pages. Default 1024.
	MemoryLimitPages uint32
	// InitialPages are committed at startup. Default 1.
	InitialPages uint32
	// MaxSurfacePixels bounds width*height of a render target.
	// Default raster.DefaultMaxPixels.
	MaxSurfacePixels uint64
	// Parse controls markup interpretation. Zero fields take scene defaults.
	Parse scene.Options
}

func (c Config) memory() memory.Config {
	return memory.Config{LimitPages: c.MemoryLimitPages, InitialPages: c.InitialPages}
}

func (c Config) limits() raster.Limits {
	return raster.Limits{MaxPixels: c.MaxSurfacePixels}
}
