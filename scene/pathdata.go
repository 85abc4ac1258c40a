package scene

import (
	"fmt"
	"math"

	"github.com/gogpu/gg"
)

// pathBuilder accumulates segments in absolute user coordinates.
type pathBuilder struct {
	segs  []Segment
	start gg.Point
	cur   gg.Point
	// ctrl is the last control point of the previous curve, for S and T.
	ctrl     gg.Point
	lastVerb byte
	open     bool
}

func (b *pathBuilder) moveTo(p gg.Point) {
	b.segs = append(b.segs, Segment{Verb: MoveTo, Pts: [3]gg.Point{p}})
	b.start, b.cur = p, p
	b.open = true
}

func (b *pathBuilder) lineTo(p gg.Point) {
	b.segs = append(b.segs, Segment{Verb: LineTo, Pts: [3]gg.Point{p}})
	b.cur = p
}

func (b *pathBuilder) quadTo(c, p gg.Point) {
	b.segs = append(b.segs, Segment{Verb: QuadTo, Pts: [3]gg.Point{c, p}})
	b.ctrl, b.cur = c, p
}

func (b *pathBuilder) cubicTo(c1, c2, p gg.Point) {
	b.segs = append(b.segs, Segment{Verb: CubicTo, Pts: [3]gg.Point{c1, c2, p}})
	b.ctrl, b.cur = c2, p
}

func (b *pathBuilder) close() {
	if !b.open {
		return
	}
	b.segs = append(b.segs, Segment{Verb: Close})
	b.cur = b.start
}

// arcTo appends an SVG elliptical arc as cubic segments.
func (b *pathBuilder) arcTo(rx, ry, rotation float64, large, sweep bool, p gg.Point) {
	p0 := b.cur
	if p0 == p {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		b.lineTo(p)
		return
	}

	phi := rotation * math.Pi / 180
	sinPhi, cosPhi := math.Sincos(phi)

	dx2 := (p0.X - p.X) / 2
	dy2 := (p0.Y - p.Y) / 2
	x1p := cosPhi*dx2 + sinPhi*dy2
	y1p := -sinPhi*dx2 + cosPhi*dy2

	if lambda := (x1p*x1p)/(rx*rx) + (y1p*y1p)/(ry*ry); lambda > 1 {
		s := math.Sqrt(lambda)
		rx *= s
		ry *= s
	}

	rx2, ry2 := rx*rx, ry*ry
	num := rx2*ry2 - rx2*y1p*y1p - ry2*x1p*x1p
	den := rx2*y1p*y1p + ry2*x1p*x1p
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1p / ry
	cyp := -coef * ry * x1p / rx

	cx := cosPhi*cxp - sinPhi*cyp + (p0.X+p.X)/2
	cy := sinPhi*cxp + cosPhi*cyp + (p0.Y+p.Y)/2

	theta1 := vecAngle(1, 0, (x1p-cxp)/rx, (y1p-cyp)/ry)
	dtheta := vecAngle((x1p-cxp)/rx, (y1p-cyp)/ry, (-x1p-cxp)/rx, (-y1p-cyp)/ry)
	if !sweep && dtheta > 0 {
		dtheta -= 2 * math.Pi
	} else if sweep && dtheta < 0 {
		dtheta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(dtheta) / (math.Pi / 2)))
	if n < 1 {
		n = 1
	}
	delta := dtheta / float64(n)
	t := 4.0 / 3.0 * math.Tan(delta/4)

	mapPt := func(ux, uy float64) gg.Point {
		return gg.Pt(
			cx+rx*ux*cosPhi-ry*uy*sinPhi,
			cy+rx*ux*sinPhi+ry*uy*cosPhi,
		)
	}

	a1 := theta1
	for i := 0; i < n; i++ {
		a2 := a1 + delta
		s1, c1 := math.Sincos(a1)
		s2, c2 := math.Sincos(a2)
		cp1 := mapPt(c1-t*s1, s1+t*c1)
		cp2 := mapPt(c2+t*s2, s2-t*c2)
		end := mapPt(c2, s2)
		if i == n-1 {
			end = p
		}
		b.cubicTo(cp1, cp2, end)
		a1 = a2
	}
}

func vecAngle(ux, uy, vx, vy float64) float64 {
	return math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
}

// argCounts is the number of arguments each command consumes.
var argCounts = map[byte]int{
	'M': 2, 'L': 2, 'H': 1, 'V': 1, 'C': 6, 'S': 4, 'Q': 4, 'T': 2, 'A': 7, 'Z': 0,
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// parsePathData parses SVG path data. On malformed input it returns the
// segments built before the error together with the error, so callers can
// render the valid prefix.
func parsePathData(d string) ([]Segment, error) {
	var b pathBuilder
	sc := scanner{s: d}
	sc.skipSpaces()

	var cmd byte
	first := true
	for !sc.done() {
		c := sc.peek()
		if _, ok := argCounts[upper(c)]; ok {
			cmd = c
			sc.i++
			sc.skipSpaces()
		} else if cmd == 0 || upper(cmd) == 'Z' {
			return b.segs, fmt.Errorf("unexpected %q at offset %d", c, sc.i)
		}
		if first && upper(cmd) != 'M' {
			return b.segs, fmt.Errorf("path data must start with a moveto, got %q", cmd)
		}
		first = false

		abs := cmd == upper(cmd)
		var args [7]float64
		n := argCounts[upper(cmd)]
		for i := 0; i < n; i++ {
			var ok bool
			if upper(cmd) == 'A' && (i == 3 || i == 4) {
				var f bool
				f, ok = sc.flag()
				if f {
					args[i] = 1
				}
			} else {
				args[i], ok = sc.number()
			}
			if !ok {
				return b.segs, fmt.Errorf("expected argument %d of %q at offset %d", i+1, cmd, sc.i)
			}
			sc.skipSeparator()
		}

		rel := func(x, y float64) gg.Point {
			if abs {
				return gg.Pt(x, y)
			}
			return gg.Pt(b.cur.X+x, b.cur.Y+y)
		}

		prev := b.lastVerb
		switch upper(cmd) {
		case 'M':
			b.moveTo(rel(args[0], args[1]))
			// subsequent coordinate pairs are implicit linetos
			if abs {
				cmd = 'L'
			} else {
				cmd = 'l'
			}
		case 'L':
			b.lineTo(rel(args[0], args[1]))
		case 'H':
			x := args[0]
			if !abs {
				x += b.cur.X
			}
			b.lineTo(gg.Pt(x, b.cur.Y))
		case 'V':
			y := args[0]
			if !abs {
				y += b.cur.Y
			}
			b.lineTo(gg.Pt(b.cur.X, y))
		case 'C':
			b.cubicTo(rel(args[0], args[1]), rel(args[2], args[3]), rel(args[4], args[5]))
		case 'S':
			c1 := b.cur
			if prev == 'C' || prev == 'S' {
				c1 = gg.Pt(2*b.cur.X-b.ctrl.X, 2*b.cur.Y-b.ctrl.Y)
			}
			b.cubicTo(c1, rel(args[0], args[1]), rel(args[2], args[3]))
		case 'Q':
			b.quadTo(rel(args[0], args[1]), rel(args[2], args[3]))
		case 'T':
			c := b.cur
			if prev == 'Q' || prev == 'T' {
				c = gg.Pt(2*b.cur.X-b.ctrl.X, 2*b.cur.Y-b.ctrl.Y)
			}
			b.quadTo(c, rel(args[0], args[1]))
		case 'A':
			b.arcTo(args[0], args[1], args[2], args[3] != 0, args[4] != 0, rel(args[5], args[6]))
		case 'Z':
			b.close()
		}
		b.lastVerb = upper(cmd)
	}
	return b.segs, nil
}
