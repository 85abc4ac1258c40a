package fontdb

import "strings"

// Generic is a CSS generic font family.
type Generic int

const (
	Serif Generic = iota
	SansSerif
	Cursive
	Fantasy
	Monospace

	genericCount
)

var genericNames = [genericCount]string{
	Serif:     "serif",
	SansSerif: "sans-serif",
	Cursive:   "cursive",
	Fantasy:   "fantasy",
	Monospace: "monospace",
}

// defaultFamilies are the substitutions a fresh database starts with.
var defaultFamilies = [genericCount]string{
	Serif:     "Times New Roman",
	SansSerif: "Arial",
	Cursive:   "Comic Sans MS",
	Fantasy:   "Impact",
	Monospace: "Courier New",
}

func (g Generic) String() string {
	if g < 0 || g >= genericCount {
		return "unknown"
	}
	return genericNames[g]
}

// ParseGeneric maps a CSS generic family keyword to its Generic.
func ParseGeneric(name string) (Generic, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for g, n := range genericNames {
		if n == name {
			return Generic(g), true
		}
	}
	return 0, false
}

// Family is one entry of a font-family list: a generic keyword or a name.
type Family struct {
	Name    string
	Generic Generic
	IsName  bool
}

// Named returns a Family for a concrete family name.
func Named(name string) Family {
	return Family{Name: name, IsName: true}
}

// GenericFamily returns a Family for a generic keyword.
func GenericFamily(g Generic) Family {
	return Family{Generic: g}
}

// ParseFamilies splits a CSS font-family value into entries.
// Quoted names are taken verbatim; unquoted generic keywords map to Generic.
func ParseFamilies(value string) []Family {
	var out []Family
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if q := part[0]; (q == '"' || q == '\'') && len(part) >= 2 && part[len(part)-1] == q {
			if name := strings.TrimSpace(part[1 : len(part)-1]); name != "" {
				out = append(out, Named(name))
			}
			continue
		}
		if g, ok := ParseGeneric(part); ok {
			out = append(out, GenericFamily(g))
			continue
		}
		out = append(out, Named(strings.Join(strings.Fields(part), " ")))
	}
	return out
}
