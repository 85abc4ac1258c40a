// Package raster draws scene trees into bounded RGBA surfaces and encodes
// them as PNG.
//
//	s, err := raster.NewSurface(w, h, raster.Limits{})
//	if err != nil {
//		return err // surface_allocation
//	}
//	defer s.Close()
//	raster.Render(tree, gg.Scale(scale, scale), s)
//	png, err := s.EncodePNG()
//
// Drawing goes through gogpu/gg's software renderer. Group opacity is
// composited with layers, and text is drawn as glyph outlines so it follows
// every transform.
package raster
