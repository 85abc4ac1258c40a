package scene

import (
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/wippyai/svg-raster/errors"
	"github.com/wippyai/svg-raster/fontdb"
)

const (
	svgNS = "http://www.w3.org/2000/svg"
	xmlNS = "http://www.w3.org/XML/1998/namespace"
)

// element is a node of the decoded document. Character data is stored as
// an element with an empty name.
type element struct {
	name     string
	attrs    map[string]string
	children []*element
	text     string
	preserve bool
}

// skipped elements carry no directly rendered content.
var skipped = map[string]bool{
	"defs": true, "title": true, "desc": true, "metadata": true, "style": true,
	"symbol": true, "clipPath": true, "mask": true, "pattern": true, "marker": true,
	"linearGradient": true, "radialGradient": true, "filter": true, "script": true,
}

// Parse converts SVG markup into a scene tree. fonts resolves text faces
// and may be nil, in which case text is kept without faces.
func Parse(text string, opts Options, fonts fontdb.Reader) (*Tree, error) {
	opts = opts.withDefaults()
	root, err := readDocument(text, opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	c := &converter{
		opts:   opts,
		fonts:  fonts,
		warned: make(map[string]bool),
	}
	return c.tree(root)
}

// readDocument decodes markup into an element tree rooted at <svg>.
func readDocument(text string, maxDepth int) (*element, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	var root *element
	var stack []*element
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.ParseFailed(nil, "malformed markup", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 && root != nil {
				return nil, errors.ParseFailed(nil, "document has more than one root element", nil)
			}
			if len(stack) >= maxDepth {
				return nil, errors.ParseFailed(nil, fmt.Sprintf("elements nested deeper than %d", maxDepth), nil)
			}
			el := newElement(t)
			if len(stack) == 0 {
				if el.name != "svg" {
					return nil, errors.ParseFailed(nil, fmt.Sprintf("root element is %q, not svg", t.Name.Local), nil)
				}
				root = el
			} else {
				parent := stack[len(stack)-1]
				if !el.preserve && parent.preserve && !hasSpaceAttr(t) {
					el.preserve = true
				}
				parent.children = append(parent.children, el)
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, &element{text: string(t), preserve: parent.preserve})
			}
		}
	}

	if root == nil {
		return nil, errors.ParseFailed(nil, "document has no root element", nil)
	}
	return root, nil
}

func newElement(t xml.StartElement) *element {
	name := t.Name.Local
	if t.Name.Space != "" && t.Name.Space != svgNS {
		name = "{" + t.Name.Space + "}" + name
	}
	el := &element{name: name, attrs: make(map[string]string, len(t.Attr))}
	for _, a := range t.Attr {
		switch {
		case a.Name.Space == "":
			el.attrs[a.Name.Local] = a.Value
		case a.Name.Space == xmlNS && a.Name.Local == "space":
			el.preserve = a.Value == "preserve"
		}
	}
	return el
}

func hasSpaceAttr(t xml.StartElement) bool {
	for _, a := range t.Attr {
		if a.Name.Space == xmlNS && a.Name.Local == "space" {
			return true
		}
	}
	return false
}

// converter turns decoded elements into scene nodes.
type converter struct {
	opts   Options
	fonts  fontdb.Reader
	warned map[string]bool
	viewW  float64
	viewH  float64
}

func (c *converter) warnOnce(key, msg string, fields ...zap.Field) {
	if c.warned[key] {
		return
	}
	c.warned[key] = true
	Logger().Warn(msg, fields...)
}

func (c *converter) units(st style) units {
	return units{dpi: c.opts.DPI, fontSize: st.fontSize, viewW: c.viewW, viewH: c.viewH}
}

func (c *converter) tree(root *element) (*Tree, error) {
	path := []string{"svg"}
	st := c.cascade(initialStyle(c.opts), properties(root))
	u := units{dpi: c.opts.DPI, fontSize: st.fontSize, viewW: c.opts.DefaultWidth, viewH: c.opts.DefaultHeight}

	var vb *viewBox
	if s, ok := root.attrs["viewBox"]; ok {
		v, err := parseViewBox(s)
		if err != nil {
			return nil, errors.ParseFailed(path, err.Error(), nil)
		}
		vb = &v
		u.viewW, u.viewH = v.W, v.H
	}

	width, err := rootSize(root, "width", axisX, vb, u, c.opts.DefaultWidth)
	if err != nil {
		return nil, errors.ParseFailed(path, err.Error(), nil)
	}
	height, err := rootSize(root, "height", axisY, vb, u, c.opts.DefaultHeight)
	if err != nil {
		return nil, errors.ParseFailed(path, err.Error(), nil)
	}

	g := &Group{ID: root.attrs["id"], Transform: gg.Identity(), Opacity: 1}
	c.viewW, c.viewH = width, height
	if vb != nil {
		g.Transform = viewBoxTransform(*vb, parseAspectRatio(root.attrs["preserveAspectRatio"]), width, height)
		c.viewW, c.viewH = vb.W, vb.H
	}
	if o, ok := parseOpacity(properties(root)["opacity"]); ok {
		g.Opacity = o
	}

	c.children(g, root, st, path)
	return &Tree{Width: width, Height: height, Root: g}, nil
}

// rootSize resolves the outermost width or height. A missing value falls
// back to the viewBox, then to the default size. Zero is allowed.
func rootSize(root *element, attr string, a axis, vb *viewBox, u units, def float64) (float64, error) {
	s, ok := root.attrs[attr]
	if !ok || strings.TrimSpace(s) == "auto" {
		if vb != nil {
			if a == axisX {
				return vb.W, nil
			}
			return vb.H, nil
		}
		return def, nil
	}
	l, ok := parseLength(s)
	if !ok {
		return 0, fmt.Errorf("invalid %s %q", attr, s)
	}
	if l.Unit == UnitPercent && vb == nil {
		return def * l.Value / 100, checkSize(attr, def*l.Value/100)
	}
	v := u.resolve(l, a)
	return v, checkSize(attr, v)
}

func checkSize(attr string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must not be negative, got %v", attr, v)
	}
	return nil
}

func (c *converter) children(g *Group, el *element, st style, path []string) {
	for _, child := range el.children {
		if child.name == "" {
			continue
		}
		if n, ok := c.convert(child, st, childPath(path, child.name)); ok {
			g.Children = append(g.Children, n)
		}
	}
}

func childPath(path []string, name string) []string {
	return append(path[:len(path):len(path)], name)
}

// convert builds the node for one element. It reports false when the
// element produces nothing to draw.
func (c *converter) convert(el *element, parent style, path []string) (Node, bool) {
	props := properties(el)
	if strings.TrimSpace(props["display"]) == "none" {
		return nil, false
	}
	if skipped[el.name] {
		return nil, false
	}

	st := c.cascade(parent, props)
	transform := gg.Identity()
	if s, ok := el.attrs["transform"]; ok {
		m, err := parseTransform(s)
		if err != nil {
			c.warnOnce("transform:"+s, "ignoring invalid transform",
				zap.String("element", strings.Join(path, ".")), zap.Error(err))
		} else {
			transform = m
		}
	}
	opacity := 1.0
	if o, ok := parseOpacity(props["opacity"]); ok {
		opacity = o
	}

	switch el.name {
	case "g", "a":
		g := &Group{ID: el.attrs["id"], Transform: transform, Opacity: opacity}
		c.children(g, el, st, path)
		return g, len(g.Children) > 0
	case "switch":
		g := &Group{ID: el.attrs["id"], Transform: transform, Opacity: opacity}
		for _, child := range el.children {
			if child.name == "" {
				continue
			}
			if n, ok := c.convert(child, st, childPath(path, child.name)); ok {
				g.Children = append(g.Children, n)
				break
			}
		}
		return g, len(g.Children) > 0
	case "svg":
		return c.nested(el, st, transform, opacity, path)
	case "text":
		t := c.text(el, st)
		if t == nil {
			return nil, false
		}
		return wrap(t, el.attrs["id"], transform, opacity), true
	}

	p, known := c.shape(el, st, path)
	if !known {
		c.warnOnce("element:"+el.name, "skipping unsupported element", zap.String("element", el.name))
		return nil, false
	}
	if p == nil {
		return nil, false
	}
	return wrap(p, el.attrs["id"], transform, opacity), true
}

// wrap puts n in a group when it has its own transform or opacity.
func wrap(n Node, id string, transform gg.Matrix, opacity float64) Node {
	if transform.IsIdentity() && opacity >= 1 {
		return n
	}
	return &Group{ID: id, Transform: transform, Opacity: opacity, Children: []Node{n}}
}

// nested converts an inner <svg> into a group positioned at x, y with its
// own viewport.
func (c *converter) nested(el *element, st style, transform gg.Matrix, opacity float64, path []string) (Node, bool) {
	u := c.units(st)
	x := c.length(el, "x", axisX, u, 0)
	y := c.length(el, "y", axisY, u, 0)
	w := c.length(el, "width", axisX, u, c.viewW)
	h := c.length(el, "height", axisY, u, c.viewH)
	if w <= 0 || h <= 0 {
		return nil, false
	}

	g := &Group{
		ID:        el.attrs["id"],
		Transform: transform.Multiply(gg.Translate(x, y)),
		Opacity:   opacity,
	}

	savedW, savedH := c.viewW, c.viewH
	defer func() { c.viewW, c.viewH = savedW, savedH }()
	c.viewW, c.viewH = w, h

	if s, ok := el.attrs["viewBox"]; ok {
		vb, err := parseViewBox(s)
		if err == nil {
			g.Transform = g.Transform.Multiply(viewBoxTransform(vb, parseAspectRatio(el.attrs["preserveAspectRatio"]), w, h))
			c.viewW, c.viewH = vb.W, vb.H
		}
	}

	c.children(g, el, st, path)
	return g, len(g.Children) > 0
}

// length resolves a single-length attribute, returning def when it is
// absent or invalid.
func (c *converter) length(el *element, attr string, a axis, u units, def float64) float64 {
	s, ok := el.attrs[attr]
	if !ok {
		return def
	}
	l, ok := parseLength(s)
	if !ok {
		return def
	}
	return u.resolve(l, a)
}
