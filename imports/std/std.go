// Package std implements the std import namespace (§4.4): the unified
// destroy/buffer/typeof surface over resource.KindValue entries, plus date
// parsing and the wall clock.
package std

import (
	"context"
	"time"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// std error codes (§7), returned as small negative i32s. object_get/
// object_set/array_get/array_append reuse InvalidDescriptor for a
// wrong-kind handle — §7's std list has no dedicated "wrong kind" code.
// ErrInvalidDateString is unused: parse_date returns an i64 Unix
// timestamp with no side channel for an i32 error code, and 0 would be
// indistinguishable from the legitimate epoch, so a parse failure just
// reports 0 and the caller treats it as an absent date.
const (
	ErrInvalidDescriptor = -1
	ErrInvalidBufferSize = -2
	ErrFailedMemoryWrite = -3
	ErrInvalidString     = -4
	ErrInvalidDateString = -5
)

// Register builds the "std" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "std", []wire.Func{
		{Name: "destroy", Fn: destroy(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "buffer_len", Fn: bufferLen(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "read_buffer", Fn: readBuffer(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "typeof", Fn: typeOf(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "create_null", Fn: create(env, func() value.Value { return value.Null() }), Results: []api.ValueType{wire.I32}},
		{Name: "create_int", Fn: createInt(env), Params: []api.ValueType{wire.I64}, Results: []api.ValueType{wire.I32}},
		{Name: "create_float", Fn: createFloat(env), Params: []api.ValueType{wire.F64}, Results: []api.ValueType{wire.I32}},
		{Name: "create_bool", Fn: createBool(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "create_string", Fn: createString(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "create_object", Fn: create(env, func() value.Value { return value.Object() }), Results: []api.ValueType{wire.I32}},
		{Name: "create_array", Fn: create(env, func() value.Value { return value.Array() }), Results: []api.ValueType{wire.I32}},
		{Name: "create_date", Fn: createDate(env), Params: []api.ValueType{wire.I64}, Results: []api.ValueType{wire.I32}},
		{Name: "copy", Fn: copyOp(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "object_len", Fn: objectLen(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "object_get", Fn: objectGet(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "object_set", Fn: objectSet(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "array_len", Fn: arrayLen(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "array_get", Fn: arrayGet(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "array_append", Fn: arrayAppend(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "read_int", Fn: readInt(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I64}},
		{Name: "read_float", Fn: readFloat(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.F64}},
		{Name: "read_bool", Fn: readBool(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "current_date", Fn: currentDate(env), Results: []api.ValueType{wire.F64}},
		{Name: "utc_offset", Fn: utcOffset(env), Results: []api.ValueType{wire.I64}},
		{Name: "parse_date", Fn: parseDate(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32, wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I64}},
	})
}

func destroy(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		if env.Table.Destroy(h) {
			stack[0] = 1
		} else {
			stack[0] = 0
		}
	}
}

func getValue(env *hostenv.Env, h resource.Handle) (value.Value, bool) {
	raw, ok := env.Table.GetTyped(h, resource.KindValue)
	if !ok {
		return value.Value{}, false
	}
	v, ok := raw.(value.Value)
	return v, ok
}

func bufferLen(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		encoded, ok := value.EncodeBuffer(env.Table, v)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		env.Table.Update(h, withRawCache(v, encoded))
		stack[0] = uint64(uint32(len(encoded)))
	}
}

// withRawCache stores the freshly-encoded buffer form back on the value so
// a subsequent read_buffer observes identical bytes (§4.1 Update).
func withRawCache(v value.Value, encoded []byte) value.Value {
	v.Raw = encoded
	return v
}

func readBuffer(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		outPtr := uint32(stack[1])
		size := uint32(stack[2])

		v, ok := getValue(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		encoded := v.Raw
		if encoded == nil {
			enc, ok := value.EncodeBuffer(env.Table, v)
			if !ok {
				stack[0] = errCode(ErrInvalidDescriptor)
				return
			}
			encoded = enc
		}
		if int(size) > len(encoded) {
			stack[0] = errCode(ErrInvalidBufferSize)
			return
		}
		if !mod.Memory().Write(outPtr, encoded[:size]) {
			stack[0] = errCode(ErrFailedMemoryWrite)
			return
		}
		stack[0] = 0
	}
}

func typeOf(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok {
			stack[0] = uint64(value.KindUnknown)
			return
		}
		stack[0] = uint64(v.Kind)
	}
}

func create(env *hostenv.Env, build func() value.Value) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := env.Table.Insert(resource.KindValue, build())
		stack[0] = uint64(h)
	}
}

func createInt(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := env.Table.Insert(resource.KindValue, value.Int64(int64(stack[0])))
		stack[0] = uint64(h)
	}
}

func createFloat(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := env.Table.Insert(resource.KindValue, value.Float64(api.DecodeF64(stack[0])))
		stack[0] = uint64(h)
	}
}

func createBool(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := env.Table.Insert(resource.KindValue, value.Bool(uint32(stack[0]) != 0))
		stack[0] = uint64(h)
	}
}

func createString(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		s, ok := wire.ReadString(mod, uint32(stack[0]), uint32(stack[1]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		h := env.Table.Insert(resource.KindValue, value.Str(s))
		stack[0] = uint64(h)
	}
}

func createDate(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := env.Table.Insert(resource.KindValue, value.DateValue(int64(stack[0])))
		stack[0] = uint64(h)
	}
}

// copyOp shallow-copies by re-inserting the same logical value under a new
// id (§4.1).
func copyOp(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		newHandle := env.Table.Insert(resource.KindValue, v)
		stack[0] = uint64(newHandle)
	}
}

func objectLen(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok || v.Kind != value.KindObject {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(uint32(len(v.Object)))
	}
}

func objectGet(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok || v.Kind != value.KindObject {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		key, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		field, found := v.Object[key]
		if !found {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(field)
	}
}

func objectSet(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok || v.Kind != value.KindObject {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		key, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		fieldHandle := resource.Handle(uint32(stack[3]))
		if v.Object == nil {
			v.Object = map[string]resource.Handle{}
		}
		v.Object[key] = fieldHandle
		env.Table.Update(h, v)
		stack[0] = 0
	}
}

func arrayLen(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		v, ok := getValue(env, h)
		if !ok || v.Kind != value.KindArray {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(uint32(len(v.Array)))
	}
}

func arrayGet(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		idx := uint32(stack[1])
		v, ok := getValue(env, h)
		if !ok || v.Kind != value.KindArray || idx >= uint32(len(v.Array)) {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(v.Array[idx])
	}
}

func arrayAppend(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		elem := resource.Handle(uint32(stack[1]))
		v, ok := getValue(env, h)
		if !ok || v.Kind != value.KindArray {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		v.Array = append(v.Array, elem)
		env.Table.Update(h, v)
		stack[0] = 0
	}
}

func readInt(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		v, ok := getValue(env, resource.Handle(uint32(stack[0])))
		if !ok {
			stack[0] = 0
			return
		}
		n, err := value.ReadInt(v)
		if err != nil {
			stack[0] = 0
			return
		}
		stack[0] = uint64(n)
	}
}

func readFloat(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		v, ok := getValue(env, resource.Handle(uint32(stack[0])))
		if !ok {
			stack[0] = 0
			return
		}
		f, err := value.ReadFloat(v)
		if err != nil {
			stack[0] = 0
			return
		}
		stack[0] = api.EncodeF64(f)
	}
}

func readBool(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		v, ok := getValue(env, resource.Handle(uint32(stack[0])))
		if !ok {
			stack[0] = 0
			return
		}
		b, err := value.ReadBool(v)
		if err != nil || !b {
			stack[0] = 0
			return
		}
		stack[0] = 1
	}
}

func currentDate(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		now := env.Now
		if now == nil {
			now = time.Now
		}
		stack[0] = api.EncodeF64(float64(now().Unix()))
	}
}

func utcOffset(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		now := env.Now
		if now == nil {
			now = time.Now
		}
		_, offset := now().Zone()
		stack[0] = uint64(int64(offset))
	}
}

func parseDate(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		input, ok1 := wire.ReadString(mod, uint32(stack[0]), uint32(stack[1]))
		format, ok2 := wire.ReadString(mod, uint32(stack[2]), uint32(stack[3]))
		locale, ok3 := wire.ReadString(mod, uint32(stack[4]), uint32(stack[5]))
		timezone, ok4 := wire.ReadString(mod, uint32(stack[6]), uint32(stack[7]))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			stack[0] = 0
			return
		}
		now := env.Now
		if now == nil {
			now = time.Now
		}
		seconds, err := value.ParseDate(input, format, locale, timezone, now())
		if err != nil {
			stack[0] = 0
			return
		}
		stack[0] = uint64(seconds)
	}
}

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}
