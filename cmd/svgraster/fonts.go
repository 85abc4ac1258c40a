package main

import (
	"fmt"
	"os"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/goregular"
)

// Families of the built-in Go fonts.
const (
	embeddedSansSerif = "Go"
	embeddedMonospace = "Go Mono"
)

var embeddedFonts = [][]byte{
	goregular.TTF,
	gobold.TTF,
	goitalic.TTF,
	gobolditalic.TTF,
	gomono.TTF,
	gomonobold.TTF,
}

// fontData returns the blobs to load: the built-in fonts unless disabled,
// then each configured file in order.
func fontData(cfg Config) ([][]byte, error) {
	var fonts [][]byte
	if !cfg.NoEmbeddedFonts {
		fonts = append(fonts, embeddedFonts...)
	}
	for _, path := range cfg.Fonts {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		fonts = append(fonts, data)
	}
	return fonts, nil
}
