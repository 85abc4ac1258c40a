package scene

import (
	"strconv"
	"strings"

	"github.com/gogpu/gg"
	"golang.org/x/image/colornames"
)

type paintKind uint8

const (
	paintNone paintKind = iota
	paintColor
	paintCurrentColor
)

// paint is a parsed fill or stroke value.
type paint struct {
	kind  paintKind
	color gg.RGBA
}

// parsePaint parses a paint value. Paint servers (url(...)) are not
// supported; their fallback color is used when given, otherwise none.
func parsePaint(s string) (paint, bool) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "url(") {
		end := strings.IndexByte(s, ')')
		if end < 0 {
			return paint{}, false
		}
		fallback := strings.TrimSpace(s[end+1:])
		if fallback == "" {
			return paint{kind: paintNone}, true
		}
		return parsePaint(fallback)
	}
	switch strings.ToLower(s) {
	case "none":
		return paint{kind: paintNone}, true
	case "currentcolor":
		return paint{kind: paintCurrentColor}, true
	}
	c, ok := parseColor(s)
	if !ok {
		return paint{}, false
	}
	return paint{kind: paintColor, color: c}, true
}

// parseColor parses #rgb, #rgba, #rrggbb, #rrggbbaa, rgb(), rgba(),
// "transparent" and the CSS named colors.
func parseColor(s string) (gg.RGBA, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return gg.RGBA{}, false
	}
	if s[0] == '#' {
		return parseHexColor(s[1:])
	}

	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(") {
		return parseRGBFunc(lower)
	}
	if lower == "transparent" {
		return gg.RGBA{}, true
	}
	if c, ok := colornames.Map[lower]; ok {
		return gg.RGBA{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: 1,
		}, true
	}
	return gg.RGBA{}, false
}

func parseHexColor(h string) (gg.RGBA, bool) {
	var digits [8]uint8
	n := len(h)
	if n != 3 && n != 4 && n != 6 && n != 8 {
		return gg.RGBA{}, false
	}
	for i := 0; i < n; i++ {
		v, ok := hexDigit(h[i])
		if !ok {
			return gg.RGBA{}, false
		}
		digits[i] = v
	}

	var r, g, b, a uint8 = 0, 0, 0, 255
	switch n {
	case 3, 4:
		r, g, b = digits[0]*17, digits[1]*17, digits[2]*17
		if n == 4 {
			a = digits[3] * 17
		}
	case 6, 8:
		r = digits[0]<<4 | digits[1]
		g = digits[2]<<4 | digits[3]
		b = digits[4]<<4 | digits[5]
		if n == 8 {
			a = digits[6]<<4 | digits[7]
		}
	}
	return gg.RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}, true
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func parseRGBFunc(s string) (gg.RGBA, bool) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return gg.RGBA{}, false
	}
	args := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/' || r == '\t'
	})
	if len(args) != 3 && len(args) != 4 {
		return gg.RGBA{}, false
	}

	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, ok := parseChannel(args[i])
		if !ok {
			return gg.RGBA{}, false
		}
		ch[i] = v
	}
	alpha := 1.0
	if len(args) == 4 {
		a, ok := parseAlpha(args[3])
		if !ok {
			return gg.RGBA{}, false
		}
		alpha = a
	}
	return gg.RGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, true
}

// parseChannel parses an rgb() component, 0-255 or a percentage.
func parseChannel(s string) (float64, bool) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		return clamp01(v / 100), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v / 255), true
}

func parseAlpha(s string) (float64, bool) {
	if p, ok := strings.CutSuffix(s, "%"); ok {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return 0, false
		}
		return clamp01(v / 100), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clamp01(v), true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
