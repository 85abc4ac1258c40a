package raster

import (
	"math"
	"sync"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"
	"go.uber.org/zap"

	"github.com/wippyai/svg-raster/scene"
)

var shaperOnce sync.Once

// Render draws tree onto s. transform maps user units to pixels,
// typically gg.Scale(scale, scale).
func Render(tree *scene.Tree, transform gg.Matrix, s *Surface) {
	shaperOnce.Do(func() {
		text.SetShaper(text.NewGoTextShaper())
	})

	r := &renderer{
		ctx:   s.ctx,
		faces: make(map[faceKey]text.Face),
	}
	r.group(tree.Root, transform)
	s.ctx.SetTransform(gg.Identity())

	Logger().Debug("tree rendered",
		zap.Uint32("width", s.width),
		zap.Uint32("height", s.height),
		zap.Int("paths", r.paths),
		zap.Int("spans", r.spans))
}

type faceKey struct {
	src  *text.FontSource
	size float64
}

// maxDashes bounds the dashes generated in one render. Strokes that would
// take the total past it are skipped: a pattern that fine is not visible and
// would exhaust memory.
const maxDashes = 100_000

type renderer struct {
	ctx    *gg.Context
	faces  map[faceKey]text.Face
	paths  int
	spans  int
	dashes float64
}

func (r *renderer) group(g *scene.Group, m gg.Matrix) {
	if g.Opacity <= 0 {
		return
	}
	m = m.Multiply(g.Transform)

	layered := g.Opacity < 1
	if layered {
		r.ctx.PushLayer(gg.BlendNormal, g.Opacity)
		defer r.ctx.PopLayer()
	}

	for _, child := range g.Children {
		switch n := child.(type) {
		case *scene.Group:
			r.group(n, m)
		case *scene.Path:
			r.path(n, m)
		case *scene.Text:
			r.text(n, m)
		}
	}
}

func (r *renderer) trace(p *scene.Path) {
	r.ctx.ClearPath()
	for _, seg := range p.Segments {
		pt := seg.Pts
		switch seg.Verb {
		case scene.MoveTo:
			r.ctx.MoveTo(pt[0].X, pt[0].Y)
		case scene.LineTo:
			r.ctx.LineTo(pt[0].X, pt[0].Y)
		case scene.QuadTo:
			r.ctx.QuadraticTo(pt[0].X, pt[0].Y, pt[1].X, pt[1].Y)
		case scene.CubicTo:
			r.ctx.CubicTo(pt[0].X, pt[0].Y, pt[1].X, pt[1].Y, pt[2].X, pt[2].Y)
		case scene.Close:
			r.ctx.ClosePath()
		}
	}
}

func (r *renderer) path(p *scene.Path, m gg.Matrix) {
	ctx := r.ctx
	ctx.SetTransform(m)

	if f := p.Fill; f != nil && f.Color.A > 0 {
		r.trace(p)
		ctx.SetFillRule(f.Rule)
		ctx.SetFillBrush(gg.Solid(f.Color))
		r.check(ctx.Fill(), p.ID, "fill")
	}

	if s := p.Stroke; s != nil && s.Color.A > 0 && r.dashable(p, s, m) {
		r.trace(p)
		stroke := gg.Stroke{
			Width:      s.Width,
			Cap:        s.Cap,
			Join:       s.Join,
			MiterLimit: s.MiterLimit,
		}
		if len(s.Dash) > 0 {
			stroke.Dash = gg.NewDash(s.Dash...).WithOffset(s.DashOffset)
		}
		ctx.SetStroke(stroke)
		ctx.SetStrokeBrush(gg.Solid(s.Color))
		r.check(ctx.Stroke(), p.ID, "stroke")
	}
	r.paths++
}

// dashable charges the stroke's dash count to the render's budget and
// reports whether it fits.
func (r *renderer) dashable(p *scene.Path, s *scene.Stroke, m gg.Matrix) bool {
	if len(s.Dash) == 0 {
		return true
	}
	n := dashCount(p, s.Dash, m)
	if !(r.dashes+n <= maxDashes) {
		Logger().Debug("skipping stroke with too many dashes",
			zap.String("id", p.ID), zap.Float64("dashes", n), zap.Float64("used", r.dashes))
		return false
	}
	r.dashes += n
	return true
}

// dashCount estimates the dash periods along p in device space. The control
// polygon bounds the outline length from above.
func dashCount(p *scene.Path, dash []float64, m gg.Matrix) float64 {
	period := 0.0
	for _, d := range dash {
		period += d
	}
	period *= math.Sqrt(math.Abs(m.A*m.E - m.B*m.D))
	if !(period > 0) {
		return math.Inf(1)
	}

	var length float64
	var cur, start gg.Point
	for _, seg := range p.Segments {
		n := 0
		switch seg.Verb {
		case scene.MoveTo:
			cur = m.TransformPoint(seg.Pts[0])
			start = cur
			continue
		case scene.Close:
			length += math.Hypot(start.X-cur.X, start.Y-cur.Y)
			cur = start
			continue
		case scene.LineTo:
			n = 1
		case scene.QuadTo:
			n = 2
		case scene.CubicTo:
			n = 3
		}
		for _, pt := range seg.Pts[:n] {
			next := m.TransformPoint(pt)
			length += math.Hypot(next.X-cur.X, next.Y-cur.Y)
			cur = next
		}
	}
	return length / period
}

func (r *renderer) check(err error, id, op string) {
	if err != nil {
		Logger().Warn("draw operation failed",
			zap.String("op", op), zap.String("id", id), zap.Error(err))
	}
}

func (r *renderer) face(span *scene.TextSpan) text.Face {
	if span.Face == nil || span.Face.Source == nil || span.FontSize <= 0 {
		return nil
	}
	key := faceKey{src: span.Face.Source, size: span.FontSize}
	f, ok := r.faces[key]
	if !ok {
		f = span.Face.Source.Face(span.FontSize)
		r.faces[key] = f
	}
	return f
}

// text lays spans out along the baseline. Each span that sets an absolute
// x or y starts a new chunk, and text-anchor aligns whole chunks.
func (r *renderer) text(t *scene.Text, m gg.Matrix) {
	ctx := r.ctx
	ctx.SetTransform(m)
	ctx.SetFillRule(gg.FillRuleNonZero)

	var x, y float64
	for start := 0; start < len(t.Spans); {
		end := start + 1
		for end < len(t.Spans) && !t.Spans[end].HasX && !t.Spans[end].HasY {
			end++
		}
		chunk := t.Spans[start:end]

		if chunk[0].HasX {
			x = chunk[0].X
		}
		if chunk[0].HasY {
			y = chunk[0].Y
		}

		width := 0.0
		for i := range chunk {
			width += chunk[i].DX
			if f := r.face(&chunk[i]); f != nil {
				width += f.Advance(chunk[i].Text)
			}
		}
		switch chunk[0].Anchor {
		case scene.AnchorMiddle:
			x -= width / 2
		case scene.AnchorEnd:
			x -= width
		}

		for i := range chunk {
			span := &chunk[i]
			x += span.DX
			y += span.DY
			f := r.face(span)
			if f == nil {
				continue
			}
			if span.Fill != nil && span.Fill.Color.A > 0 && span.Text != "" {
				ctx.SetFont(f)
				ctx.SetFillBrush(gg.Solid(span.Fill.Color))
				ctx.DrawString(span.Text, x, y)
				r.spans++
			}
			x += f.Advance(span.Text)
		}
		start = end
	}
}
