package host

import (
	"github.com/tetratelabs/wazero/api"

	svgraster "github.com/wippyai/svg-raster"
	"github.com/wippyai/svg-raster/errors"
)

// wasmMemory adapts a wazero api.Memory to svgraster.Memory.
type wasmMemory struct {
	mem api.Memory
}

var (
	_ svgraster.Memory      = (*wasmMemory)(nil)
	_ svgraster.MemorySizer = (*wasmMemory)(nil)
)

// Read returns a view of guest memory. It is invalidated by the next call
// that grows memory.
func (m *wasmMemory) Read(addr, length uint32) ([]byte, error) {
	data, ok := m.mem.Read(addr, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseHost, []string{"read"}, addr, length, m.mem.Size())
	}
	return data, nil
}

func (m *wasmMemory) Write(addr uint32, data []byte) error {
	if !m.mem.Write(addr, data) {
		return errors.OutOfBounds(errors.PhaseHost, []string{"write"}, addr, uint32(len(data)), m.mem.Size())
	}
	return nil
}

func (m *wasmMemory) Size() uint32 {
	return m.mem.Size()
}
