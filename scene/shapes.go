package scene

import (
	"strings"

	"github.com/gogpu/gg"
	"go.uber.org/zap"
)

// shape converts a basic shape or path element. known is false for
// element names that are not shapes; p is nil when the shape draws nothing.
func (c *converter) shape(el *element, st style, path []string) (p *Path, known bool) {
	u := c.units(st)

	var segs []Segment
	switch el.name {
	case "path":
		d := el.attrs["d"]
		var err error
		segs, err = parsePathData(d)
		if err != nil {
			c.warnOnce("d:"+strings.Join(path, "."), "path data error, rendering valid prefix",
				zap.String("element", strings.Join(path, ".")), zap.Error(err))
		}
	case "rect":
		segs = c.rect(el, u)
	case "circle":
		r := c.length(el, "r", axisDiag, u, 0)
		segs = ellipse(c.length(el, "cx", axisX, u, 0), c.length(el, "cy", axisY, u, 0), r, r)
	case "ellipse":
		rx, hasRX := c.optLength(el, "rx", axisX, u)
		ry, hasRY := c.optLength(el, "ry", axisY, u)
		if !hasRX {
			rx = ry
		}
		if !hasRY {
			ry = rx
		}
		segs = ellipse(c.length(el, "cx", axisX, u, 0), c.length(el, "cy", axisY, u, 0), rx, ry)
	case "line":
		var b pathBuilder
		b.moveTo(gg.Pt(c.length(el, "x1", axisX, u, 0), c.length(el, "y1", axisY, u, 0)))
		b.lineTo(gg.Pt(c.length(el, "x2", axisX, u, 0), c.length(el, "y2", axisY, u, 0)))
		segs = b.segs
	case "polyline", "polygon":
		segs = polyline(el.attrs["points"], el.name == "polygon")
	default:
		return nil, false
	}

	if len(segs) < 2 || !st.visible {
		return nil, true
	}
	p = &Path{
		ID:       el.attrs["id"],
		Segments: segs,
		Fill:     c.fill(st),
		Stroke:   c.stroke(st, u),
	}
	if p.Fill == nil && p.Stroke == nil {
		return nil, true
	}
	return p, true
}

func (c *converter) optLength(el *element, attr string, a axis, u units) (float64, bool) {
	s, ok := el.attrs[attr]
	if !ok || strings.TrimSpace(s) == "auto" {
		return 0, false
	}
	l, ok := parseLength(s)
	if !ok {
		return 0, false
	}
	return u.resolve(l, a), true
}

func (c *converter) rect(el *element, u units) []Segment {
	x := c.length(el, "x", axisX, u, 0)
	y := c.length(el, "y", axisY, u, 0)
	w := c.length(el, "width", axisX, u, 0)
	h := c.length(el, "height", axisY, u, 0)
	if w <= 0 || h <= 0 {
		return nil
	}

	rx, hasRX := c.optLength(el, "rx", axisX, u)
	ry, hasRY := c.optLength(el, "ry", axisY, u)
	switch {
	case !hasRX && !hasRY:
		rx, ry = 0, 0
	case !hasRX:
		rx = ry
	case !hasRY:
		ry = rx
	}
	rx = min(max(rx, 0), w/2)
	ry = min(max(ry, 0), h/2)

	var b pathBuilder
	if rx == 0 || ry == 0 {
		b.moveTo(gg.Pt(x, y))
		b.lineTo(gg.Pt(x+w, y))
		b.lineTo(gg.Pt(x+w, y+h))
		b.lineTo(gg.Pt(x, y+h))
		b.close()
		return b.segs
	}

	b.moveTo(gg.Pt(x+rx, y))
	b.lineTo(gg.Pt(x+w-rx, y))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(x+w, y+ry))
	b.lineTo(gg.Pt(x+w, y+h-ry))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(x+w-rx, y+h))
	b.lineTo(gg.Pt(x+rx, y+h))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(x, y+h-ry))
	b.lineTo(gg.Pt(x, y+ry))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(x+rx, y))
	b.close()
	return b.segs
}

func ellipse(cx, cy, rx, ry float64) []Segment {
	if rx <= 0 || ry <= 0 {
		return nil
	}
	var b pathBuilder
	b.moveTo(gg.Pt(cx+rx, cy))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(cx, cy+ry))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(cx-rx, cy))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(cx, cy-ry))
	b.arcTo(rx, ry, 0, false, true, gg.Pt(cx+rx, cy))
	b.close()
	return b.segs
}

// polyline builds a path from a points list. A trailing odd coordinate
// is ignored.
func polyline(points string, closed bool) []Segment {
	nums, _ := parseNumbers(points)
	if len(nums) < 4 {
		return nil
	}
	var b pathBuilder
	b.moveTo(gg.Pt(nums[0], nums[1]))
	for i := 2; i+1 < len(nums); i += 2 {
		b.lineTo(gg.Pt(nums[i], nums[i+1]))
	}
	if closed {
		b.close()
	}
	return b.segs
}
