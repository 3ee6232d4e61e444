// Package defaults implements the defaults import namespace (§4.7): a
// thin postcard-encoding bridge over the embedder's injected
// wasmhost.SettingsGetter/SettingsSetter. The core is not the persistence
// layer — it only translates between Go values and the plugin's wire
// convention.
package defaults

import (
	"context"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// defaults error codes, returned as small negative i32s.
const (
	ErrInvalidKey   = -1
	ErrNoGetter     = -2
	ErrNoSetter     = -3
	ErrInvalidKind  = -4
	ErrInvalidValue = -5
)

// Set-value kind tags (§4.7).
const (
	kindData        = 0
	kindBool        = 1
	kindInt         = 2
	kindFloat       = 3
	kindString      = 4
	kindStringArray = 5
	kindNull        = 6
)

// Register builds the "defaults" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "defaults", []wire.Func{
		{Name: "get", Fn: get(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "set", Fn: set(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

func get(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		key, ok := wire.ReadString(mod, uint32(stack[0]), uint32(stack[1]))
		if !ok {
			stack[0] = errCode(ErrInvalidKey)
			return
		}
		if env.Settings.Getter == nil {
			stack[0] = errCode(ErrNoGetter)
			return
		}
		raw, found := env.Settings.Getter.GetSetting(key)
		encoded := encodeSetting(raw, found)
		handle := env.Table.Insert(resource.KindValue, value.Raw(encoded))
		stack[0] = uint64(handle)
	}
}

// encodeSetting postcard-encodes a settings value per §4.7: bool → bool
// byte; integer → zigzag varint; float → f32; string → string; []string →
// vec<string>; anything else (including !found) → empty (null).
func encodeSetting(raw any, found bool) []byte {
	w := postcard.NewWriter()
	if !found || raw == nil {
		return w.Bytes()
	}
	switch v := raw.(type) {
	case bool:
		w.Bool(v)
	case int:
		w.Varint(int64(v))
	case int64:
		w.Varint(v)
	case float64:
		w.F32(float32(v))
	case float32:
		w.F32(v)
	case string:
		w.String(v)
	case []string:
		w.StringSlice(v)
	}
	return w.Bytes()
}

func set(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		key, ok := wire.ReadString(mod, uint32(stack[0]), uint32(stack[1]))
		if !ok {
			stack[0] = errCode(ErrInvalidKey)
			return
		}
		kind := uint32(stack[2])
		ptr := uint32(stack[3])
		length := uint32(stack[4])

		if env.Settings.Setter == nil {
			stack[0] = errCode(ErrNoSetter)
			return
		}

		decoded, err := decodeSetting(mod, kind, ptr, length)
		if err != nil {
			stack[0] = errCode(ErrInvalidValue)
			return
		}
		if setErr := env.Settings.Setter.SetSetting(key, decoded); setErr != nil {
			stack[0] = errCode(ErrInvalidValue)
			return
		}
		stack[0] = 0
	}
}

func decodeSetting(mod api.Module, kind, ptr, length uint32) (any, error) {
	switch kind {
	case kindNull:
		return nil, nil
	case kindData:
		b, ok := mod.Memory().Read(ptr, length)
		if !ok {
			return nil, errInvalid
		}
		return append([]byte(nil), b...), nil
	case kindBool:
		b, ok := mod.Memory().Read(ptr, length)
		if !ok {
			return nil, errInvalid
		}
		r := postcard.NewReader(b)
		v, err := r.Bool()
		if err != nil {
			return nil, err
		}
		return v, nil
	case kindInt:
		b, ok := mod.Memory().Read(ptr, length)
		if !ok {
			return nil, errInvalid
		}
		r := postcard.NewReader(b)
		v, err := r.Varint()
		if err != nil {
			return nil, err
		}
		return v, nil
	case kindFloat:
		b, ok := mod.Memory().Read(ptr, length)
		if !ok {
			return nil, errInvalid
		}
		r := postcard.NewReader(b)
		v, err := r.F32()
		if err != nil {
			return nil, err
		}
		return float64(v), nil
	case kindString:
		s, ok := wire.ReadString(mod, ptr, length)
		if !ok {
			return nil, errInvalid
		}
		return s, nil
	case kindStringArray:
		b, ok := mod.Memory().Read(ptr, length)
		if !ok {
			return nil, errInvalid
		}
		r := postcard.NewReader(b)
		v, err := r.StringSlice()
		if err != nil {
			return nil, err
		}
		return v, nil
	}
	return nil, errInvalidKind
}

var errInvalid = errKind("defaults: invalid memory access")
var errInvalidKind = errKind("defaults: invalid kind tag")

type errKind string

func (e errKind) Error() string { return string(e) }

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}
