package memory

// Buffer is a module-owned byte region in the arena, used for result and
// error output. Because it is allocated from the same arena as host
// requests, its region never overlaps one of theirs.
type Buffer struct {
	arena *Arena
	addr  uint32
	size  uint32
}

// NewBuffer returns an empty buffer backed by a.
func NewBuffer(a *Arena) *Buffer {
	return &Buffer{arena: a}
}

// Set replaces the contents with a copy of data.
func (b *Buffer) Set(data []byte) {
	b.Clear()
	if len(data) == 0 {
		return
	}
	n := uint32(len(data))
	b.addr = b.arena.Alloc(n)
	b.size = n
	copy(b.arena.Bytes(b.addr, n), data)
}

// SetString replaces the contents with the bytes of s.
func (b *Buffer) SetString(s string) {
	b.Clear()
	if s == "" {
		return
	}
	n := uint32(len(s))
	b.addr = b.arena.Alloc(n)
	b.size = n
	copy(b.arena.Bytes(b.addr, n), s)
}

// Clear releases the contents.
func (b *Buffer) Clear() {
	if b.size == 0 {
		return
	}
	b.arena.Free(b.addr, b.size)
	b.addr, b.size = 0, 0
}

// Addr returns the absolute address of the contents, or 0 when empty.
func (b *Buffer) Addr() uint32 { return b.addr }

// Len returns the length of the contents in bytes.
func (b *Buffer) Len() uint32 { return b.size }

// Bytes returns the contents. The slice aliases linear memory.
func (b *Buffer) Bytes() []byte { return b.arena.Bytes(b.addr, b.size) }
