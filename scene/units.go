package scene

import (
	"math"
	"strconv"
	"strings"
)

// scanner tokenizes the number-based microsyntaxes of SVG attributes.
type scanner struct {
	s string
	i int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func (sc *scanner) done() bool { return sc.i >= len(sc.s) }

func (sc *scanner) peek() byte {
	if sc.i >= len(sc.s) {
		return 0
	}
	return sc.s[sc.i]
}

func (sc *scanner) skipSpaces() {
	for sc.i < len(sc.s) && isSpace(sc.s[sc.i]) {
		sc.i++
	}
}

// skipSeparator consumes whitespace with at most one comma.
func (sc *scanner) skipSeparator() {
	sc.skipSpaces()
	if sc.peek() == ',' {
		sc.i++
		sc.skipSpaces()
	}
}

// number reads an SVG number such as "-1.5e3" or ".5".
func (sc *scanner) number() (float64, bool) {
	start := sc.i
	i := sc.i
	if i < len(sc.s) && (sc.s[i] == '+' || sc.s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(sc.s) && isDigit(sc.s[i]) {
		i++
		digits++
	}
	if i < len(sc.s) && sc.s[i] == '.' {
		i++
		for i < len(sc.s) && isDigit(sc.s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(sc.s) && (sc.s[i] == 'e' || sc.s[i] == 'E') {
		j := i + 1
		if j < len(sc.s) && (sc.s[j] == '+' || sc.s[j] == '-') {
			j++
		}
		if j < len(sc.s) && isDigit(sc.s[j]) {
			for j < len(sc.s) && isDigit(sc.s[j]) {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(sc.s[start:i], 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	sc.i = i
	return v, true
}

// flag reads an arc flag, which may be packed without separators.
func (sc *scanner) flag() (bool, bool) {
	switch sc.peek() {
	case '0':
		sc.i++
		return false, true
	case '1':
		sc.i++
		return true, true
	}
	return false, false
}

// Unit is a length unit.
type Unit uint8

const (
	UnitNone Unit = iota
	UnitPx
	UnitPt
	UnitPc
	UnitMm
	UnitCm
	UnitIn
	UnitEm
	UnitEx
	UnitPercent
)

// Length is a number with a unit.
type Length struct {
	Value float64
	Unit  Unit
}

var unitSuffixes = []struct {
	suffix string
	unit   Unit
}{
	{"px", UnitPx},
	{"pt", UnitPt},
	{"pc", UnitPc},
	{"mm", UnitMm},
	{"cm", UnitCm},
	{"in", UnitIn},
	{"em", UnitEm},
	{"ex", UnitEx},
	{"%", UnitPercent},
}

func (sc *scanner) length() (Length, bool) {
	v, ok := sc.number()
	if !ok {
		return Length{}, false
	}
	rest := sc.s[sc.i:]
	for _, u := range unitSuffixes {
		if strings.HasPrefix(rest, u.suffix) {
			sc.i += len(u.suffix)
			return Length{Value: v, Unit: u.unit}, true
		}
	}
	return Length{Value: v}, true
}

// parseLength parses an attribute that holds exactly one length.
func parseLength(s string) (Length, bool) {
	sc := scanner{s: strings.TrimSpace(s)}
	l, ok := sc.length()
	if !ok || !sc.done() {
		return Length{}, false
	}
	return l, true
}

// parseNumbers parses a whitespace and/or comma separated number list.
func parseNumbers(s string) ([]float64, bool) {
	sc := scanner{s: s}
	sc.skipSpaces()
	var out []float64
	for !sc.done() {
		v, ok := sc.number()
		if !ok {
			return out, false
		}
		out = append(out, v)
		sc.skipSeparator()
	}
	return out, true
}

// parseLengths parses a comma or whitespace separated list of lengths.
func parseLengths(s string) ([]Length, bool) {
	sc := scanner{s: s}
	sc.skipSpaces()
	var out []Length
	for !sc.done() {
		l, ok := sc.length()
		if !ok {
			return out, false
		}
		out = append(out, l)
		sc.skipSeparator()
	}
	return out, true
}

type axis uint8

const (
	axisX axis = iota
	axisY
	axisDiag
)

// units converts lengths to user units for one element.
type units struct {
	dpi      float64
	fontSize float64
	viewW    float64
	viewH    float64
}

func (u units) resolve(l Length, a axis) float64 {
	switch l.Unit {
	case UnitPt:
		return l.Value * u.dpi / 72
	case UnitPc:
		return l.Value * u.dpi / 6
	case UnitMm:
		return l.Value * u.dpi / 25.4
	case UnitCm:
		return l.Value * u.dpi / 2.54
	case UnitIn:
		return l.Value * u.dpi
	case UnitEm:
		return l.Value * u.fontSize
	case UnitEx:
		return l.Value * u.fontSize / 2
	case UnitPercent:
		switch a {
		case axisX:
			return l.Value / 100 * u.viewW
		case axisY:
			return l.Value / 100 * u.viewH
		default:
			return l.Value / 100 * math.Sqrt((u.viewW*u.viewW+u.viewH*u.viewH)/2)
		}
	default:
		return l.Value
	}
}
