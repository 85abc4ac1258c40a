package scene

import (
	"github.com/gogpu/gg"

	"github.com/wippyai/svg-raster/fontdb"
)

// Tree is a parsed document ready for rasterization.
type Tree struct {
	// Width and Height are the intrinsic size in user units.
	Width  float64
	Height float64
	// Root carries the viewBox transform and the document content.
	Root *Group
}

// Node is an element of the scene tree: *Group, *Path or *Text.
type Node interface {
	node()
}

// Group applies a transform and opacity to its children.
type Group struct {
	ID        string
	Transform gg.Matrix
	Opacity   float64
	Children  []Node
}

// Verb is a path construction command.
type Verb uint8

const (
	MoveTo Verb = iota
	LineTo
	QuadTo
	CubicTo
	Close
)

// Segment is one path command. Pts holds 1 point for MoveTo and LineTo,
// 2 for QuadTo (control, end) and 3 for CubicTo (control, control, end).
type Segment struct {
	Verb Verb
	Pts  [3]gg.Point
}

// Fill describes how a path interior is painted.
type Fill struct {
	Color gg.RGBA
	Rule  gg.FillRule
}

// Stroke describes how a path outline is painted.
type Stroke struct {
	Color      gg.RGBA
	Width      float64
	Cap        gg.LineCap
	Join       gg.LineJoin
	MiterLimit float64
	Dash       []float64
	DashOffset float64
}

// Path is a filled and/or stroked outline in user space.
type Path struct {
	ID       string
	Segments []Segment
	Fill     *Fill
	Stroke   *Stroke
}

// Anchor is the text-anchor alignment of a text chunk.
type Anchor uint8

const (
	AnchorStart Anchor = iota
	AnchorMiddle
	AnchorEnd
)

// TextSpan is a run of characters sharing one face and paint.
// A span with HasX or HasY starts a new chunk at that absolute position.
type TextSpan struct {
	Text     string
	X, Y     float64
	HasX     bool
	HasY     bool
	DX, DY   float64
	Face     *fontdb.Face // nil when no loaded face matched
	FontSize float64
	Anchor   Anchor
	Fill     *Fill
}

// Text is a sequence of spans laid out left to right along one baseline.
type Text struct {
	ID    string
	Spans []TextSpan
}

func (*Group) node() {}
func (*Path) node()  {}
func (*Text) node()  {}
