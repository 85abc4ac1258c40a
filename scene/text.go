package scene

import (
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/wippyai/svg-raster/fontdb"
)

// position is the x, y, dx, dy of a text or tspan element. Only the first
// value of each list is honoured and applies to the first emitted span.
type position struct {
	x, y       float64
	hasX, hasY bool
	dx, dy     float64
}

func (c *converter) position(el *element, u units) (position, bool) {
	var p position
	first := func(attr string, a axis) (float64, bool) {
		s, ok := el.attrs[attr]
		if !ok {
			return 0, false
		}
		ls, _ := parseLengths(s)
		if len(ls) == 0 {
			return 0, false
		}
		return u.resolve(ls[0], a), true
	}
	p.x, p.hasX = first("x", axisX)
	p.y, p.hasY = first("y", axisY)
	dx, hasDX := first("dx", axisX)
	dy, hasDY := first("dy", axisY)
	p.dx, p.dy = dx, dy
	return p, p.hasX || p.hasY || hasDX || hasDY
}

type textBuilder struct {
	c        *converter
	spans    []TextSpan
	preserve []bool
	pending  *position
	faces    map[string]*fontdb.Face
}

// text converts a <text> element. It returns nil when nothing is drawable.
func (c *converter) text(el *element, st style) *Text {
	b := &textBuilder{c: c, faces: make(map[string]*fontdb.Face)}
	pos, _ := c.position(el, c.units(st))
	pos.hasX, pos.hasY = true, true
	b.pending = &pos
	b.walk(el, st)

	spans := collapse(b.spans, b.preserve)
	drawable := false
	for _, s := range spans {
		if s.Fill != nil && s.Text != "" {
			drawable = true
			break
		}
	}
	if !drawable {
		return nil
	}
	return &Text{ID: el.attrs["id"], Spans: spans}
}

func (b *textBuilder) walk(el *element, st style) {
	for _, child := range el.children {
		if child.name == "" {
			b.add(child.text, child.preserve, st)
			continue
		}
		switch child.name {
		case "tspan", "a":
			props := properties(child)
			if strings.TrimSpace(props["display"]) == "none" {
				continue
			}
			cst := b.c.cascade(st, props)
			if pos, ok := b.c.position(child, b.c.units(cst)); ok {
				b.pending = &pos
			}
			b.walk(child, cst)
		default:
			b.c.warnOnce("text:"+child.name, "skipping unsupported text content", zap.String("element", child.name))
		}
	}
}

func (b *textBuilder) add(s string, preserve bool, st style) {
	if s == "" {
		return
	}
	span := TextSpan{
		Text:     normalizeSpace(s, preserve),
		FontSize: st.fontSize,
		Anchor:   st.anchor,
	}
	if st.visible {
		span.Fill = b.c.fill(st)
	}
	if p := b.pending; p != nil {
		span.X, span.HasX = p.x, p.hasX
		span.Y, span.HasY = p.y, p.hasY
		span.DX, span.DY = p.dx, p.dy
		b.pending = nil
	}
	span.Face = b.face(st, span.Text)
	b.spans = append(b.spans, span)
	b.preserve = append(b.preserve, preserve)
}

// face resolves the face for a span, falling back to any face that covers
// the first visible character.
func (b *textBuilder) face(st style, s string) *fontdb.Face {
	if b.c.fonts == nil {
		return nil
	}
	q := fontdb.Query{Families: st.families, Weight: st.fontWeight, Italic: st.italic}
	key := fmt.Sprintf("%s/%d/%t/%c", familyList(q.Families), q.Weight, q.Italic, firstVisible(s))
	if f, ok := b.faces[key]; ok {
		return f
	}

	f, ok := b.c.fonts.Query(q)
	if !ok {
		r := firstVisible(s)
		if r != 0 {
			f, ok = b.c.fonts.Fallback(r, q)
		}
	}
	if !ok {
		b.c.warnOnce("font:"+familyList(st.families), "no font face matched, text not rendered",
			zap.String("families", familyList(st.families)), zap.Int("loaded", b.c.fonts.Len()))
		f = nil
	}
	b.faces[key] = f
	return f
}

func familyList(fams []fontdb.Family) string {
	names := make([]string, len(fams))
	for i, f := range fams {
		if f.IsName {
			names[i] = f.Name
		} else {
			names[i] = f.Generic.String()
		}
	}
	return strings.Join(names, ", ")
}

func firstVisible(s string) rune {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return r
		}
	}
	return 0
}

// normalizeSpace applies xml:space handling to one run of character data.
// Newlines are dropped in default mode and become spaces when preserving.
func normalizeSpace(s string, preserve bool) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\n':
			if preserve {
				sb.WriteByte(' ')
			}
		case '\r':
		case '\t':
			sb.WriteByte(' ')
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// collapse merges runs of spaces across span boundaries and trims the
// ends of the text. Spans under xml:space="preserve" keep their spacing.
func collapse(spans []TextSpan, preserve []bool) []TextSpan {
	prevSpace := true
	for i := range spans {
		if preserve[i] {
			prevSpace = strings.HasSuffix(spans[i].Text, " ")
			continue
		}
		var sb strings.Builder
		for _, r := range spans[i].Text {
			if r == ' ' {
				if prevSpace {
					continue
				}
				prevSpace = true
			} else {
				prevSpace = false
			}
			sb.WriteRune(r)
		}
		spans[i].Text = sb.String()
	}
	for i := len(spans) - 1; i >= 0 && !preserve[i]; i-- {
		trimmed := strings.TrimRight(spans[i].Text, " ")
		spans[i].Text = trimmed
		if trimmed != "" {
			break
		}
	}

	out := spans[:0]
	for _, s := range spans {
		if s.Text != "" || s.HasX || s.HasY {
			out = append(out, s)
		}
	}
	return out
}
