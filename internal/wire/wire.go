// Package wire provides small helpers shared by every import namespace for
// reading and writing scalars and byte buffers across plugin linear memory,
// and for building wazero host modules with a uniform function signature.
package wire

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// I32, I64, F32 and F64 are the scalar ValueType shorthands every host
// function signature here is built from; most imports take/return i32
// offsets, rids, or small integers, with i64 for timestamps and int values
// and the float types for float values and durations.
var (
	I32 = api.ValueTypeI32
	I64 = api.ValueTypeI64
	F32 = api.ValueTypeF32
	F64 = api.ValueTypeF64
)

// Func pairs a host function with its wasm signature.
type Func struct {
	Name    string
	Fn      api.GoModuleFunc
	Params  []api.ValueType
	Results []api.ValueType
}

// Module builds and instantiates a host module under the given import
// namespace name (e.g. "std", "net", "html").
func Module(ctx context.Context, rt wazero.Runtime, name string, fns []Func) error {
	b := rt.NewHostModuleBuilder(name)
	for _, f := range fns {
		b.NewFunctionBuilder().WithGoModuleFunction(f.Fn, f.Params, f.Results).Export(f.Name)
	}
	_, err := b.Instantiate(ctx)
	return err
}

// ReadString reads a (ptr, len) pair as a UTF-8 string from plugin memory.
func ReadString(mod api.Module, ptr, length uint32) (string, bool) {
	b, ok := mod.Memory().Read(ptr, length)
	if !ok {
		return "", false
	}
	return string(b), true
}

// WriteBytes copies b into plugin memory at ptr, failing if it would run
// past the end of the plugin's linear memory.
func WriteBytes(mod api.Module, ptr uint32, b []byte) bool {
	return mod.Memory().Write(ptr, b)
}

// ReadResultBuffer implements the §4.2 result-pointer convention shared by
// every plugin-to-host handoff of a length-prefixed buffer: ptr == 0 or a
// header length <= 8 is an empty payload; otherwise the first 4 bytes at
// ptr are a little-endian total length L, the next 4 are an ignored
// capacity, and the payload is the L-8 bytes that follow. The returned
// slice is a copy — callers do not need to keep the plugin's allocation
// alive (or free it) to use it.
func ReadResultBuffer(mod api.Module, ptr uint32) ([]byte, bool) {
	if ptr == 0 {
		return nil, true
	}
	header, ok := mod.Memory().Read(ptr, 8)
	if !ok {
		return nil, false
	}
	total := uint32(header[0]) | uint32(header[1])<<8 | uint32(header[2])<<16 | uint32(header[3])<<24
	if total <= 8 {
		return nil, true
	}
	body, ok := mod.Memory().Read(ptr+8, total-8)
	if !ok {
		return nil, false
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, true
}
