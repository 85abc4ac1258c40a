// Package errors provides structured error types for svg-raster.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type carries an optional element path, detail text and cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseParse, errors.KindParseError).
//		Path("svg", "g", "path").
//		Detail("unexpected command %q", 'X').
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.InvalidUTF8(errors.PhaseDecode, nil, data)
//	err := errors.EmptyOutput(0, 5)
//
// The guest reports failures by writing (*Error).Error() into its error
// buffer. Hosts turn that text back into an *Error with FromMessage, so
// errors.Is works across the boundary:
//
//	err := errors.FromMessage(msg)
//	if errors.Is(err, &errors.Error{Phase: errors.PhaseLayout, Kind: errors.KindEmptyOutput}) { ... }
//
// All errors implement the standard error interface and support errors.Is/As.
package errors
