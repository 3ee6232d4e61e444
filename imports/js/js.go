// Package js implements the js import namespace (§4.9): a minimal,
// sandboxed expression evaluator so plugins can run small scraper helper
// snippets embedded in HTML. Each context is a goja.Runtime with no file
// system, network, or plugin-memory access wired in — goja's default
// global object never exposes any of those, so the sandbox is the absence
// of bindings rather than an explicit deny-list.
package js

import (
	"context"
	"encoding/json"

	"github.com/dop251/goja"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// js error codes, returned as small negative i32s (§7). Eval failures and
// the webview stubs (no webview is ever wired into this host) both report
// MissingResult — the spec's js list has no dedicated "eval threw" code.
const (
	ErrMissingResult  = -1
	ErrInvalidContext = -2
	ErrInvalidString  = -3
)

// Context is the payload stored under resource.KindJSContext.
type Context struct {
	VM *goja.Runtime
}

// Register builds the "js" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "js", []wire.Func{
		{Name: "context_create", Fn: contextCreate(env), Results: []api.ValueType{wire.I32}},
		{Name: "context_eval", Fn: contextEval(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "context_get", Fn: contextGet(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "webview_create", Fn: notImplemented(), Results: []api.ValueType{wire.I32}},
		{Name: "webview_load", Fn: notImplemented(), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "webview_eval", Fn: notImplemented(), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "webview_wait_for_load", Fn: notImplemented(), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

func contextCreate(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		vm := goja.New()
		handle := env.Table.Insert(resource.KindJSContext, &Context{VM: vm})
		stack[0] = uint64(handle)
	}
}

func getContext(env *hostenv.Env, h resource.Handle) (*Context, bool) {
	raw, ok := env.Table.GetTyped(h, resource.KindJSContext)
	if !ok {
		return nil, false
	}
	return raw.(*Context), true
}

// contextEval runs src against the context's persistent global scope and
// returns a string descriptor of the result: objects are JSON-stringified,
// everything else uses goja's default string coercion.
func contextEval(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		c, ok := getContext(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidContext)
			return
		}
		src, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		result, err := c.VM.RunString(src)
		if err != nil {
			stack[0] = errCode(ErrMissingResult)
			return
		}
		descriptor := describeValue(c.VM, result)
		resultHandle := env.Table.Insert(resource.KindValue, value.Str(descriptor))
		stack[0] = uint64(resultHandle)
	}
}

func describeValue(vm *goja.Runtime, v goja.Value) string {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if obj, ok := v.(*goja.Object); ok {
		if data, err := json.Marshal(exportJSON(vm, obj)); err == nil {
			return string(data)
		}
	}
	return v.String()
}

func exportJSON(vm *goja.Runtime, v goja.Value) any {
	return v.Export()
}

func contextGet(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		c, ok := getContext(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidContext)
			return
		}
		name, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		v := c.VM.Get(name)
		descriptor := describeValue(c.VM, v)
		resultHandle := env.Table.Insert(resource.KindValue, value.Str(descriptor))
		stack[0] = uint64(resultHandle)
	}
}

func notImplemented() api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		stack[0] = errCode(ErrMissingResult)
	}
}

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}
