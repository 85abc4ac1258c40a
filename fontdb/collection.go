package fontdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	collectionTag   = "ttcf"
	sfntHeaderSize  = 12
	tableRecordSize = 16
)

// isCollection reports whether data starts with a TrueType/OpenType
// collection header.
func isCollection(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte(collectionTag))
}

// collectionMember rebuilds face i of a collection as a standalone font
// file. The rasterizer and shaper only take single fonts, so each member's
// tables are copied behind a table directory of its own.
func collectionMember(data []byte, i int) ([]byte, error) {
	be := binary.BigEndian
	if !isCollection(data) || len(data) < 12 {
		return nil, fmt.Errorf("not a font collection")
	}
	count := int(be.Uint32(data[8:]))
	if i < 0 || i >= count || 12+4*(i+1) > len(data) {
		return nil, fmt.Errorf("member %d out of range (%d fonts)", i, count)
	}

	dir := int(be.Uint32(data[12+4*i:]))
	if dir+sfntHeaderSize > len(data) {
		return nil, fmt.Errorf("member %d: table directory out of range", i)
	}
	numTables := int(be.Uint16(data[dir+4:]))
	dirLen := sfntHeaderSize + tableRecordSize*numTables
	if dir+dirLen > len(data) {
		return nil, fmt.Errorf("member %d: table records out of range", i)
	}

	out := make([]byte, dirLen, len(data))
	copy(out, data[dir:dir+dirLen])
	for t := 0; t < numTables; t++ {
		rec := sfntHeaderSize + tableRecordSize*t
		off := int(be.Uint32(out[rec+8:]))
		length := int(be.Uint32(out[rec+12:]))
		if off < 0 || length < 0 || off+length > len(data) {
			return nil, fmt.Errorf("member %d: table %q out of range", i, out[rec:rec+4])
		}
		for len(out)%4 != 0 {
			out = append(out, 0)
		}
		be.PutUint32(out[rec+8:], uint32(len(out)))
		out = append(out, data[off:off+length]...)
	}
	return out, nil
}
