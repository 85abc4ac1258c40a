package scene

// Options controls markup interpretation.
type Options struct {
	// DPI converts physical units (in, cm, mm, pt, pc). Default 96.
	DPI float64
	// FontFamily is used when no font-family is specified. Default "Times New Roman".
	FontFamily string
	// FontSize is the initial font-size in user units. Default 12.
	FontSize float64
	// DefaultWidth and DefaultHeight size a root element that has neither
	// width/height nor viewBox. Default 100x100.
	DefaultWidth  float64
	DefaultHeight float64
	// MaxDepth bounds element nesting. Default 1024.
	MaxDepth int
}

// DefaultOptions returns Options with every field at its default.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.DPI <= 0 {
		o.DPI = 96
	}
	if o.FontFamily == "" {
		o.FontFamily = "Times New Roman"
	}
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
	if o.DefaultWidth <= 0 {
		o.DefaultWidth = 100
	}
	if o.DefaultHeight <= 0 {
		o.DefaultHeight = 100
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = 1024
	}
	return o
}
