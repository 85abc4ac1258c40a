package errors

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseMemory Phase = "memory" // linear memory and allocator
	PhaseFonts  Phase = "fonts"  // font registry operations
	PhaseDecode Phase = "decode" // boundary bytes to Go values
	PhaseParse  Phase = "parse"  // markup to scene tree
	PhaseLayout Phase = "layout" // intrinsic size to pixel size
	PhaseRaster Phase = "raster" // surface allocation and drawing
	PhaseEncode Phase = "encode" // surface to output bytes
	PhaseHost   Phase = "host"   // host-side calls into the guest
	PhaseLoad   Phase = "load"   // guest module loading
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidUTF8       Kind = "invalid_utf8"
	KindNotInitialized    Kind = "not_initialized"
	KindParseError        Kind = "parse_error"
	KindEmptyOutput       Kind = "empty_output"
	KindSurfaceAllocation Kind = "surface_allocation"
	KindEncodingError     Kind = "encoding_error"
	KindContention        Kind = "contention"
	KindOutOfBounds       Kind = "out_of_bounds"
	KindAllocation        Kind = "allocation"
	KindSizeMismatch      Kind = "size_mismatch"
	KindMissingExport     Kind = "missing_export"
	KindInvalidInput      Kind = "invalid_input"
	KindGuestError        Kind = "guest_error"
)

// Error is the structured error type used on both sides of the boundary
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the element path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidUTF8 creates an invalid UTF-8 error naming the first bad byte.
func InvalidUTF8(phase Phase, path []string, data []byte) *Error {
	idx := firstInvalidUTF8(data)
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidUTF8,
		Path:   path,
		Detail: fmt.Sprintf("invalid UTF-8 sequence at byte %d of %d", idx, len(data)),
		Value:  idx,
	}
}

func firstInvalidUTF8(data []byte) int {
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(data)
}

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// Contention creates an error for a mutation attempted while readers hold a lease.
func Contention(phase Phase, component string, readers uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindContention,
		Detail: fmt.Sprintf("%s is borrowed by %d reader(s)", component, readers),
		Value:  readers,
	}
}

// ParseFailed creates a markup parse error
func ParseFailed(path []string, detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindParseError,
		Path:   path,
		Detail: detail,
		Cause:  cause,
	}
}

// EmptyOutput creates an error for a raster with a zero dimension
func EmptyOutput(width, height uint32) *Error {
	return &Error{
		Phase:  PhaseLayout,
		Kind:   KindEmptyOutput,
		Detail: fmt.Sprintf("SVG has zero dimensions (%dx%d)", width, height),
	}
}

// SurfaceAllocation creates a surface allocation error
func SurfaceAllocation(width, height uint32, reason string) *Error {
	return &Error{
		Phase:  PhaseRaster,
		Kind:   KindSurfaceAllocation,
		Detail: fmt.Sprintf("failed to create %dx%d surface: %s", width, height, reason),
	}
}

// EncodingFailed creates an output encoding error
func EncodingFailed(format string, cause error) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindEncodingError,
		Detail: fmt.Sprintf("%s encode failed", format),
		Cause:  cause,
	}
}

// AllocationFailed creates an allocation failure error
func AllocationFailed(phase Phase, size, available uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindAllocation,
		Detail: fmt.Sprintf("failed to allocate %d bytes (%d available)", size, available),
		Value:  size,
	}
}

// SizeMismatch creates an error for a release whose size differs from its allocation
func SizeMismatch(phase Phase, addr, got, want uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindSizeMismatch,
		Detail: fmt.Sprintf("release of %#x with size %d, allocated with size %d", addr, got, want),
		Value:  addr,
	}
}

// OutOfBounds creates an out of bounds error for an address range
func OutOfBounds(phase Phase, path []string, addr, length, size uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Path:   path,
		Detail: fmt.Sprintf("range [%#x, +%d) outside memory of %d bytes", addr, length, size),
		Value:  addr,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidInput,
		Detail: detail,
		Cause:  cause,
	}
}

// FromMessage rebuilds an Error from text produced by (*Error).Error, such as
// the contents of a guest error buffer. Phase, kind and path are recovered;
// everything after them, including any cause text, becomes Detail. Text in
// any other shape yields a host-phase guest_error carrying it verbatim.
func FromMessage(msg string) *Error {
	rest, ok := strings.CutPrefix(msg, "[")
	if !ok {
		return &Error{Phase: PhaseHost, Kind: KindGuestError, Detail: msg}
	}
	phase, rest, ok := strings.Cut(rest, "] ")
	if !ok || phase == "" {
		return &Error{Phase: PhaseHost, Kind: KindGuestError, Detail: msg}
	}

	e := &Error{Phase: Phase(phase)}

	end := strings.IndexAny(rest, " :")
	if end < 0 {
		e.Kind = Kind(rest)
		return e
	}
	e.Kind = Kind(rest[:end])
	rest = rest[end:]

	if p, ok := strings.CutPrefix(rest, " at "); ok {
		path, tail, found := strings.Cut(p, ": ")
		if !found {
			path, tail = p, ""
		}
		e.Path = strings.Split(path, ".")
		e.Detail = tail
		return e
	}
	e.Detail = strings.TrimPrefix(rest, ": ")
	return e
}

// MissingExport represents a single absent or mistyped guest export
type MissingExport struct {
	Name   string // e.g., "render"
	Reason string // empty when absent, otherwise the signature problem
}

// MissingExportsError is returned when a guest module lacks required exports
type MissingExportsError struct {
	Exports []MissingExport
}

func (e *MissingExportsError) Error() string {
	if len(e.Exports) == 0 {
		return "[load] missing_export: no exports specified"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "guest module has %d unusable export(s):\n", len(e.Exports))
	for _, exp := range e.Exports {
		b.WriteString("  - ")
		b.WriteString(exp.Name)
		if exp.Reason != "" {
			b.WriteString(": ")
			b.WriteString(exp.Reason)
		} else {
			b.WriteString(": not exported")
		}
		b.WriteByte('\n')
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Is reports whether target matches this error type
func (e *MissingExportsError) Is(target error) bool {
	_, ok := target.(*MissingExportsError)
	return ok
}
