package scene

import (
	"strconv"
	"strings"

	"github.com/gogpu/gg"

	"github.com/wippyai/svg-raster/fontdb"
)

// style holds the inherited presentation properties of an element.
type style struct {
	fill          paint
	fillOpacity   float64
	fillRule      gg.FillRule
	stroke        paint
	strokeOpacity float64
	strokeWidth   Length
	lineCap       gg.LineCap
	lineJoin      gg.LineJoin
	miterLimit    float64
	dash          []Length
	dashOffset    Length
	color         gg.RGBA
	visible       bool

	families   []fontdb.Family
	fontSize   float64
	fontWeight int
	italic     bool
	anchor     Anchor
}

func initialStyle(opts Options) style {
	return style{
		fill:          paint{kind: paintColor, color: gg.RGBA{A: 1}},
		fillOpacity:   1,
		fillRule:      gg.FillRuleNonZero,
		stroke:        paint{kind: paintNone},
		strokeOpacity: 1,
		strokeWidth:   Length{Value: 1},
		lineCap:       gg.LineCapButt,
		lineJoin:      gg.LineJoinMiter,
		miterLimit:    4,
		color:         gg.RGBA{A: 1},
		visible:       true,
		families:      fontdb.ParseFamilies(opts.FontFamily),
		fontSize:      opts.FontSize,
		fontWeight:    fontdb.WeightNormal,
	}
}

// properties merges presentation attributes with the style attribute,
// which takes precedence.
func properties(el *element) map[string]string {
	decl, ok := el.attrs["style"]
	if !ok {
		return el.attrs
	}
	props := make(map[string]string, len(el.attrs)+4)
	for k, v := range el.attrs {
		props[k] = v
	}
	for _, d := range strings.Split(decl, ";") {
		name, value, found := strings.Cut(d, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		if name != "" {
			props[name] = value
		}
	}
	return props
}

// fontSizeKeywords scale the default font size.
var fontSizeKeywords = map[string]float64{
	"xx-small": 3.0 / 5,
	"x-small":  3.0 / 4,
	"small":    8.0 / 9,
	"medium":   1,
	"large":    6.0 / 5,
	"x-large":  3.0 / 2,
	"xx-large": 2,
}

// cascade computes an element's style from its parent's and its own
// properties. Invalid values are ignored, leaving the inherited value.
func (c *converter) cascade(parent style, props map[string]string) style {
	st := parent

	// font-size first: em lengths in other properties depend on it
	if v, ok := props["font-size"]; ok && v != "inherit" {
		if k, ok := fontSizeKeywords[v]; ok {
			st.fontSize = c.opts.FontSize * k
		} else if v == "larger" {
			st.fontSize = parent.fontSize * 1.2
		} else if v == "smaller" {
			st.fontSize = parent.fontSize / 1.2
		} else if l, ok := parseLength(v); ok && l.Value >= 0 {
			u := units{dpi: c.opts.DPI, fontSize: parent.fontSize, viewW: parent.fontSize, viewH: parent.fontSize}
			if l.Unit == UnitPercent {
				st.fontSize = parent.fontSize * l.Value / 100
			} else {
				st.fontSize = u.resolve(l, axisX)
			}
		}
	}

	for name, v := range props {
		if v == "inherit" {
			continue
		}
		switch name {
		case "fill":
			if p, ok := parsePaint(v); ok {
				st.fill = p
			}
		case "fill-opacity":
			if o, ok := parseOpacity(v); ok {
				st.fillOpacity = o
			}
		case "fill-rule":
			switch v {
			case "nonzero":
				st.fillRule = gg.FillRuleNonZero
			case "evenodd":
				st.fillRule = gg.FillRuleEvenOdd
			}
		case "stroke":
			if p, ok := parsePaint(v); ok {
				st.stroke = p
			}
		case "stroke-opacity":
			if o, ok := parseOpacity(v); ok {
				st.strokeOpacity = o
			}
		case "stroke-width":
			if l, ok := parseLength(v); ok && l.Value >= 0 {
				st.strokeWidth = l
			}
		case "stroke-linecap":
			switch v {
			case "butt":
				st.lineCap = gg.LineCapButt
			case "round":
				st.lineCap = gg.LineCapRound
			case "square":
				st.lineCap = gg.LineCapSquare
			}
		case "stroke-linejoin":
			switch v {
			case "miter", "miter-clip", "arcs":
				st.lineJoin = gg.LineJoinMiter
			case "round":
				st.lineJoin = gg.LineJoinRound
			case "bevel":
				st.lineJoin = gg.LineJoinBevel
			}
		case "stroke-miterlimit":
			if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 1 {
				st.miterLimit = f
			}
		case "stroke-dasharray":
			if v == "none" {
				st.dash = nil
			} else if ls, ok := parseLengths(v); ok {
				st.dash = ls
			}
		case "stroke-dashoffset":
			if l, ok := parseLength(v); ok {
				st.dashOffset = l
			}
		case "color":
			if col, ok := parseColor(v); ok {
				st.color = col
			}
		case "visibility":
			st.visible = v == "visible"
		case "font-family":
			if fams := fontdb.ParseFamilies(v); len(fams) > 0 {
				st.families = fams
			}
		case "font-weight":
			st.fontWeight = parseFontWeight(v, parent.fontWeight)
		case "font-style":
			switch v {
			case "normal":
				st.italic = false
			case "italic", "oblique":
				st.italic = true
			}
		case "text-anchor":
			switch v {
			case "start":
				st.anchor = AnchorStart
			case "middle":
				st.anchor = AnchorMiddle
			case "end":
				st.anchor = AnchorEnd
			}
		}
	}
	return st
}

func parseOpacity(v string) (float64, bool) {
	l, ok := parseLength(v)
	if !ok {
		return 0, false
	}
	switch l.Unit {
	case UnitNone:
		return clamp01(l.Value), true
	case UnitPercent:
		return clamp01(l.Value / 100), true
	}
	return 0, false
}

func parseFontWeight(v string, parent int) int {
	switch v {
	case "normal":
		return fontdb.WeightNormal
	case "bold":
		return fontdb.WeightBold
	case "bolder":
		return min(parent+300, fontdb.WeightBlack)
	case "lighter":
		return max(parent-300, fontdb.WeightThin)
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 1000 {
		return n
	}
	return parent
}

// resolvePaint returns the effective color of p, or false for none.
func resolvePaint(p paint, current gg.RGBA) (gg.RGBA, bool) {
	switch p.kind {
	case paintColor:
		return p.color, true
	case paintCurrentColor:
		return current, true
	}
	return gg.RGBA{}, false
}

func (c *converter) fill(st style) *Fill {
	col, ok := resolvePaint(st.fill, st.color)
	if !ok {
		return nil
	}
	col.A *= st.fillOpacity
	return &Fill{Color: col, Rule: st.fillRule}
}

func (c *converter) stroke(st style, u units) *Stroke {
	col, ok := resolvePaint(st.stroke, st.color)
	if !ok {
		return nil
	}
	width := u.resolve(st.strokeWidth, axisDiag)
	if width <= 0 {
		return nil
	}
	col.A *= st.strokeOpacity

	s := &Stroke{
		Color:      col,
		Width:      width,
		Cap:        st.lineCap,
		Join:       st.lineJoin,
		MiterLimit: st.miterLimit,
	}

	if len(st.dash) > 0 {
		dash := make([]float64, 0, len(st.dash)*2)
		sum := 0.0
		valid := true
		for _, l := range st.dash {
			d := u.resolve(l, axisDiag)
			if d < 0 {
				valid = false
				break
			}
			dash = append(dash, d)
			sum += d
		}
		if valid && sum > 0 {
			if len(dash)%2 == 1 {
				dash = append(dash, dash...)
			}
			s.Dash = dash
			s.DashOffset = u.resolve(st.dashOffset, axisDiag)
		}
	}
	return s
}
