package memory

import "unicode/utf8"

// View is a bounds-checked window into linear memory, built once where an
// (address, length) pair crosses the boundary. Holders never index linear
// memory themselves.
type View struct {
	addr uint32
	data []byte
}

// Addr returns the absolute start address.
func (v View) Addr() uint32 { return v.addr }

// Len returns the number of bytes in the view.
func (v View) Len() uint32 { return uint32(len(v.data)) }

// Bytes returns the viewed bytes. The slice aliases linear memory and must
// not be retained past the call that produced the view.
func (v View) Bytes() []byte { return v.data }

// Clone returns an owned copy of the viewed bytes.
func (v View) Clone() []byte {
	if len(v.data) == 0 {
		return nil
	}
	out := make([]byte, len(v.data))
	copy(out, v.data)
	return out
}

// String copies the viewed bytes into a string.
func (v View) String() string { return string(v.data) }

// ValidUTF8 reports whether the viewed bytes are valid UTF-8.
func (v View) ValidUTF8() bool { return utf8.Valid(v.data) }
