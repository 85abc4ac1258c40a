package main

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/svg-raster/module"
	"github.com/wippyai/svg-raster/scene"
)

// Config is the complete render setup. It is read from an optional YAML
// file and then overridden by flags.
type Config struct {
	Scale            float64  `yaml:"scale"`
	Output           string   `yaml:"output"`
	Fonts            []string `yaml:"fonts"`
	SansSerif        string   `yaml:"sans_serif"`
	Monospace        string   `yaml:"monospace"`
	NoEmbeddedFonts  bool     `yaml:"no_embedded_fonts"`
	Wasm             string   `yaml:"wasm"`
	MemoryLimitPages uint32   `yaml:"memory_limit_pages"`
	MaxSurfacePixels uint64   `yaml:"max_surface_pixels"`
	DPI              float64  `yaml:"dpi"`
	FontFamily       string   `yaml:"font_family"`
	FontSize         float64  `yaml:"font_size"`
	CacheSize        int      `yaml:"cache_size"`
}

func defaultConfig() Config {
	return Config{
		Scale:     1,
		SansSerif: embeddedSansSerif,
		Monospace: embeddedMonospace,
	}
}

// loadConfig reads path over the defaults. Unknown keys are rejected.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) || c.Scale <= 0 {
		return fmt.Errorf("scale must be a positive number, got %v", c.Scale)
	}
	if c.DPI < 0 || c.FontSize < 0 || c.CacheSize < 0 {
		return fmt.Errorf("dpi, font_size and cache_size must not be negative")
	}
	return nil
}

func (c Config) module() module.Config {
	return module.Config{
		MemoryLimitPages: c.MemoryLimitPages,
		MaxSurfacePixels: c.MaxSurfacePixels,
		Parse: scene.Options{
			DPI:        c.DPI,
			FontFamily: c.FontFamily,
			FontSize:   c.FontSize,
		},
	}
}
