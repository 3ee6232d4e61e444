// Package json implements the standalone "json" import namespace (§6): a
// single parse operation plugins use to interpret an arbitrary buffer rid
// as JSON, independent of net's own response-parsing json() method (§4.5);
// both go through value.ParseJSON and value.Materialize.
package json

import (
	"context"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// json has no dedicated error-code list in §7; a failure here reflects a
// caller-supplied rid problem, so it reuses std's InvalidDescriptor value
// rather than inventing a namespace-specific code the spec doesn't define.
const ErrInvalidDescriptor = -1

// Register builds the "json" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "json", []wire.Func{
		{Name: "parse", Fn: parse(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

func parse(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		raw, ok := env.Table.GetTyped(h, resource.KindValue)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		v, ok := raw.(value.Value)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		encoded, ok := value.EncodeBuffer(env.Table, v)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		parsed, err := value.ParseJSON(encoded)
		if err != nil {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(value.Materialize(env.Table, parsed))
	}
}

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}
