package wasm

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/lean-runtime/errors"
)

// memory adapts the guest's linear memory. The ABI has no error channel, so
// out of bounds accesses panic with a PhaseABI trap error.
type memory struct {
	mem api.Memory
}

func outOfBounds(op string, offset, length uint32) *errors.Error {
	return errors.New(errors.PhaseABI, errors.KindTrap).
		Name(op).
		Detail("memory %s out of bounds: offset=%d, length=%d", op, offset, length).
		Build()
}

// read returns a view of guest memory. Writes to the view are visible to
// the guest until memory grows.
func (m *memory) read(offset, length uint32) []byte {
	if length == 0 {
		return []byte{}
	}
	data, ok := m.mem.Read(offset, length)
	if !ok {
		panic(outOfBounds("read", offset, length))
	}
	return data
}

func (m *memory) write(offset uint32, data []byte) {
	if !m.mem.Write(offset, data) {
		panic(outOfBounds("write", offset, uint32(len(data))))
	}
}

func (m *memory) writeByte(offset uint32, v byte) {
	if !m.mem.WriteByte(offset, v) {
		panic(outOfBounds("write", offset, 1))
	}
}

func (m *memory) readU32(offset uint32) uint32 {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		panic(outOfBounds("read", offset, 4))
	}
	return v
}

func (m *memory) writeU32(offset uint32, v uint32) {
	if !m.mem.WriteUint32Le(offset, v) {
		panic(outOfBounds("write", offset, 4))
	}
}
