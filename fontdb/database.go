package fontdb

import (
	"bytes"

	gotext "github.com/go-text/typesetting/font"
	"github.com/gogpu/gg/text"
	"go.uber.org/zap"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/text/cases"
)

// Weight values on the CSS 100-900 scale.
const (
	WeightThin       = 100
	WeightExtraLight = 200
	WeightLight      = 300
	WeightNormal     = 400
	WeightMedium     = 500
	WeightSemiBold   = 600
	WeightBold       = 700
	WeightExtraBold  = 800
	WeightBlack      = 900
)

// ID identifies a face within one database.
type ID uint32

// Face is a loaded font face.
type Face struct {
	ID        ID
	Family    string
	Subfamily string
	Weight    int
	Italic    bool
	Source    *text.FontSource

	font   *gotext.Font
	folded string
}

// HasGlyph reports whether the face maps r to a glyph.
func (f *Face) HasGlyph(r rune) bool {
	_, ok := f.font.NominalGlyph(r)
	return ok
}

// Query selects a face by family list and style.
type Query struct {
	Families []Family
	Weight   int
	Italic   bool
}

// Reader is read-only access to a font database.
type Reader interface {
	// Query returns the best face for the first family in q that has one.
	Query(q Query) (*Face, bool)
	// Fallback returns a face covering r, preferring q's style.
	Fallback(r rune, q Query) (*Face, bool)
	// Family returns the concrete name substituted for g.
	Family(g Generic) string
	// Len returns the number of loaded faces.
	Len() int
}

// Database holds loaded faces and generic family substitutions.
type Database struct {
	families [genericCount]string
	faces    []*Face
	fold     cases.Caser
	nextID   ID
}

var _ Reader = (*Database)(nil)

// NewDatabase returns an empty database with default generic families.
func NewDatabase() *Database {
	return &Database{
		families: defaultFamilies,
		fold:     cases.Fold(),
	}
}

// SetFamily sets the concrete family name substituted for g.
func (d *Database) SetFamily(g Generic, name string) {
	if g < 0 || g >= genericCount {
		return
	}
	d.families[g] = name
}

// Family returns the concrete family name substituted for g.
func (d *Database) Family(g Generic) string {
	if g < 0 || g >= genericCount {
		return ""
	}
	return d.families[g]
}

// Len returns the number of loaded faces.
func (d *Database) Len() int {
	return len(d.faces)
}

// Faces returns the loaded faces in load order.
func (d *Database) Faces() []*Face {
	return d.faces
}

// LoadFontData parses a TrueType or OpenType font, or every member of a
// collection, and adds the faces. Data that cannot be decoded is logged and
// skipped, so the result is the number of faces added. data is copied.
func (d *Database) LoadFontData(data []byte) int {
	log := Logger()
	if len(data) == 0 {
		log.Warn("skipping empty font data")
		return 0
	}
	if !isCollection(data) {
		if d.loadFace(bytes.Clone(data)) {
			return 1
		}
		return 0
	}

	c, err := opentype.ParseCollection(data)
	if err != nil {
		log.Warn("skipping undecodable font collection", zap.Int("bytes", len(data)), zap.Error(err))
		return 0
	}
	added := 0
	for i := 0; i < c.NumFonts(); i++ {
		member, err := collectionMember(data, i)
		if err != nil {
			log.Warn("skipping collection member", zap.Int("index", i), zap.Error(err))
			continue
		}
		if d.loadFace(member) {
			added++
		}
	}
	log.Debug("font collection loaded", zap.Int("fonts", c.NumFonts()), zap.Int("added", added))
	return added
}

// loadFace adds the single font in data, which the database then owns.
func (d *Database) loadFace(data []byte) bool {
	log := Logger()

	meta, err := opentype.Parse(data)
	if err != nil {
		log.Warn("skipping undecodable font data", zap.Int("bytes", len(data)), zap.Error(err))
		return false
	}
	coverage, err := gotext.ParseTTF(bytes.NewReader(data))
	if err != nil {
		log.Warn("skipping font without usable tables", zap.Int("bytes", len(data)), zap.Error(err))
		return false
	}
	source, err := text.NewFontSource(data)
	if err != nil {
		log.Warn("skipping font rejected by rasterizer", zap.Int("bytes", len(data)), zap.Error(err))
		return false
	}

	desc := coverage.Describe()
	family := firstName(meta, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
	if family == "" {
		family = desc.Family
	}
	if family == "" {
		family = source.Name()
	}
	sub := firstName(meta, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
	weight := int(desc.Aspect.Weight)
	if weight <= 0 {
		weight = WeightNormal
	}
	italic := desc.Aspect.Style == gotext.StyleItalic

	d.nextID++
	face := &Face{
		ID:        d.nextID,
		Family:    family,
		Subfamily: sub,
		Weight:    weight,
		Italic:    italic,
		Source:    source,
		font:      coverage.Font,
		folded:    d.fold.String(family),
	}
	d.faces = append(d.faces, face)

	log.Debug("font loaded",
		zap.Uint32("id", uint32(face.ID)),
		zap.String("family", family),
		zap.String("subfamily", sub),
		zap.Int("weight", weight),
		zap.Bool("italic", italic))
	return true
}

// Query returns the best face for the first family in q with any faces.
// Generic entries resolve through the substitution table.
func (d *Database) Query(q Query) (*Face, bool) {
	for _, fam := range q.Families {
		name := fam.Name
		if !fam.IsName {
			name = d.Family(fam.Generic)
		}
		if name == "" {
			continue
		}
		if f := d.bestMatch(d.fold.String(name), q); f != nil {
			return f, true
		}
	}
	return nil, false
}

// Fallback returns a face that maps r, choosing the closest style.
func (d *Database) Fallback(r rune, q Query) (*Face, bool) {
	var best *Face
	bestScore := -1
	for _, f := range d.faces {
		if !f.HasGlyph(r) {
			continue
		}
		if s := styleScore(f, q); best == nil || s < bestScore {
			best, bestScore = f, s
		}
	}
	return best, best != nil
}

func (d *Database) bestMatch(folded string, q Query) *Face {
	var best *Face
	bestScore := -1
	for _, f := range d.faces {
		if f.folded != folded {
			continue
		}
		if s := styleScore(f, q); best == nil || s < bestScore {
			best, bestScore = f, s
		}
	}
	return best
}

// styleScore ranks a face against the requested style; lower is better.
// Italic mismatch dominates, then weight distance, with the CSS bias
// toward lighter faces for light requests and heavier for bold ones.
func styleScore(f *Face, q Query) int {
	want := q.Weight
	if want == 0 {
		want = WeightNormal
	}
	score := 0
	if f.Italic != q.Italic {
		score += 10000
	}
	diff := f.Weight - want
	if diff < 0 {
		diff = -diff
		if want > WeightMedium {
			score += 1000
		}
	} else if diff > 0 && want < WeightNormal {
		score += 1000
	}
	return score + diff
}

func firstName(f *opentype.Font, ids ...sfnt.NameID) string {
	var buf sfnt.Buffer
	for _, id := range ids {
		if name, err := f.Name(&buf, id); err == nil && name != "" {
			return name
		}
	}
	return ""
}
