package scene

import (
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/gg"
)

// svgMatrix converts SVG matrix(a b c d e f) order to gg's row layout.
func svgMatrix(a, b, c, d, e, f float64) gg.Matrix {
	return gg.Matrix{A: a, B: c, C: e, D: b, E: d, F: f}
}

// parseTransform parses a transform list. The result applies the listed
// transforms right to left, so the first one is outermost.
func parseTransform(s string) (gg.Matrix, error) {
	m := gg.Identity()
	sc := scanner{s: s}
	sc.skipSpaces()

	for !sc.done() {
		start := sc.i
		for sc.i < len(sc.s) && (sc.s[sc.i] >= 'a' && sc.s[sc.i] <= 'z' || sc.s[sc.i] >= 'A' && sc.s[sc.i] <= 'Z') {
			sc.i++
		}
		name := sc.s[start:sc.i]
		sc.skipSpaces()
		if name == "" || sc.peek() != '(' {
			return gg.Identity(), fmt.Errorf("expected transform function at offset %d", start)
		}
		sc.i++
		sc.skipSpaces()

		var args []float64
		for sc.peek() != ')' {
			v, ok := sc.number()
			if !ok {
				return gg.Identity(), fmt.Errorf("invalid %s argument at offset %d", name, sc.i)
			}
			args = append(args, v)
			sc.skipSeparator()
		}
		sc.i++

		t, err := transformFunc(name, args)
		if err != nil {
			return gg.Identity(), err
		}
		m = m.Multiply(t)
		sc.skipSeparator()
	}
	return m, nil
}

func transformFunc(name string, args []float64) (gg.Matrix, error) {
	bad := func() (gg.Matrix, error) {
		return gg.Identity(), fmt.Errorf("%s takes a different number of arguments than %d", name, len(args))
	}
	switch name {
	case "matrix":
		if len(args) != 6 {
			return bad()
		}
		return svgMatrix(args[0], args[1], args[2], args[3], args[4], args[5]), nil
	case "translate":
		switch len(args) {
		case 1:
			return gg.Translate(args[0], 0), nil
		case 2:
			return gg.Translate(args[0], args[1]), nil
		}
		return bad()
	case "scale":
		switch len(args) {
		case 1:
			return gg.Scale(args[0], args[0]), nil
		case 2:
			return gg.Scale(args[0], args[1]), nil
		}
		return bad()
	case "rotate":
		switch len(args) {
		case 1:
			return gg.Rotate(args[0] * math.Pi / 180), nil
		case 3:
			cx, cy := args[1], args[2]
			return gg.Translate(cx, cy).
				Multiply(gg.Rotate(args[0] * math.Pi / 180)).
				Multiply(gg.Translate(-cx, -cy)), nil
		}
		return bad()
	case "skewX":
		if len(args) != 1 {
			return bad()
		}
		return gg.Shear(math.Tan(args[0]*math.Pi/180), 0), nil
	case "skewY":
		if len(args) != 1 {
			return bad()
		}
		return gg.Shear(0, math.Tan(args[0]*math.Pi/180)), nil
	}
	return gg.Identity(), fmt.Errorf("unknown transform function %q", name)
}

// viewBox is a parsed viewBox attribute.
type viewBox struct {
	X, Y, W, H float64
}

func parseViewBox(s string) (viewBox, error) {
	nums, ok := parseNumbers(s)
	if !ok || len(nums) != 4 {
		return viewBox{}, fmt.Errorf("viewBox %q must be four numbers", s)
	}
	vb := viewBox{X: nums[0], Y: nums[1], W: nums[2], H: nums[3]}
	if vb.W <= 0 || vb.H <= 0 {
		return viewBox{}, fmt.Errorf("viewBox %q must have a positive size", s)
	}
	return vb, nil
}

type align uint8

const (
	alignNone align = iota
	alignMin
	alignMid
	alignMax
)

// aspectRatio is a parsed preserveAspectRatio attribute.
type aspectRatio struct {
	none  bool
	x, y  align
	slice bool
}

func defaultAspectRatio() aspectRatio {
	return aspectRatio{x: alignMid, y: alignMid}
}

func parseAspectRatio(s string) aspectRatio {
	fields := strings.Fields(s)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	ar := defaultAspectRatio()
	if len(fields) == 0 {
		return ar
	}
	if fields[0] == "none" {
		ar.none = true
	} else if len(fields[0]) == 8 && fields[0][0] == 'x' && fields[0][4] == 'Y' {
		ax, okx := parseAlign(fields[0][1:4])
		ay, oky := parseAlign(fields[0][5:8])
		if !okx || !oky {
			return defaultAspectRatio()
		}
		ar.x, ar.y = ax, ay
	} else {
		return defaultAspectRatio()
	}
	if len(fields) > 1 && fields[1] == "slice" {
		ar.slice = true
	}
	return ar
}

func parseAlign(s string) (align, bool) {
	switch s {
	case "Min":
		return alignMin, true
	case "Mid":
		return alignMid, true
	case "Max":
		return alignMax, true
	}
	return alignNone, false
}

// viewBoxTransform maps vb onto a w by h viewport.
func viewBoxTransform(vb viewBox, ar aspectRatio, w, h float64) gg.Matrix {
	sx := w / vb.W
	sy := h / vb.H
	if ar.none {
		return gg.Scale(sx, sy).Multiply(gg.Translate(-vb.X, -vb.Y))
	}

	s := math.Min(sx, sy)
	if ar.slice {
		s = math.Max(sx, sy)
	}
	tx := -vb.X * s
	ty := -vb.Y * s
	switch ar.x {
	case alignMid:
		tx += (w - vb.W*s) / 2
	case alignMax:
		tx += w - vb.W*s
	}
	switch ar.y {
	case alignMid:
		ty += (h - vb.H*s) / 2
	case alignMax:
		ty += h - vb.H*s
	}
	return gg.Matrix{A: s, C: tx, E: s, F: ty}
}
