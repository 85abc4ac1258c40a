// Package fontdb holds the fonts available to the renderer.
//
// A Database stores loaded faces and the concrete family names substituted
// for the five CSS generic families. Faces are matched by family list,
// weight and slant; Fallback finds any face that covers a given rune.
//
// A Registry wraps an optional Database with an explicit access state:
//
//	uninitialized --Init--> idle --Borrow--> borrowed --Release--> idle
//
// Mutating calls (SetGenericFamily, LoadFont) fail with a contention error
// in the borrowed state instead of aborting, and with not_initialized before
// the first Init. Init always yields a fresh empty database with default
// substitutions.
package fontdb
