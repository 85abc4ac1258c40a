// Package scene converts SVG markup into a render tree.
//
// Parse decodes the document with encoding/xml, resolves presentation
// attributes and the style attribute into inherited styles, and produces
// a Tree of groups, paths and text runs in user units:
//
//	tree, err := scene.Parse(svg, scene.DefaultOptions(), fonts)
//	if err != nil {
//		return err // *errors.Error with kind parse_error
//	}
//
// Shapes (rect, circle, ellipse, line, polyline, polygon, path) become
// absolute path segments; arcs are approximated by cubic Béziers. Text is
// split into spans that each carry a resolved font face.
//
// Only structural problems fail the parse: malformed XML, a non-svg root,
// excessive nesting, a negative root size or an invalid root viewBox.
// Invalid attribute values are ignored, invalid path data keeps its valid
// prefix and unsupported elements are skipped, each with a warning logged
// once per document.
package scene
