// Package net implements the net import namespace (§4.5): a synchronous
// request/response lifecycle keyed by resource.KindRequest entries,
// dispatched through the injected hostapi.HttpBridge.
package net

import (
	"context"
	"strings"

	"github.com/aidoku-host/wasmhost/hostapi"
	"github.com/aidoku-host/wasmhost/imports/canvas"
	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/imports/html"
	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/internal/logging"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// methods is the fixed index → HTTP method mapping (§4.5). Any index
// outside this range maps to GET (§8 property 12).
var methods = []string{"GET", "POST", "PUT", "HEAD", "DELETE", "PATCH", "OPTIONS", "CONNECT", "TRACE"}

func methodFor(index int32) string {
	if index < 0 || int(index) >= len(methods) {
		return "GET"
	}
	return methods[index]
}

// net error codes (§7), returned as small negative i32s. ErrInvalidMethod
// and ErrInvalidUrl are reserved: methodFor never fails (out-of-range
// indices default to GET per §8 property 12) and URLs are only ever
// parsed host-side in HostOf, which likewise has no failure path of its
// own to report through this namespace.
const (
	ErrInvalidDescriptor = -1
	ErrInvalidString     = -2
	ErrInvalidMethod      = -3
	ErrInvalidUrl         = -4
	ErrInvalidHtml        = -5
	ErrInvalidBufferSize  = -6
	ErrMissingData        = -7
	ErrMissingResponse    = -8
	ErrMissingUrl         = -9
	ErrRequestError       = -10
	ErrFailedMemoryWrite  = -11
	ErrNotAnImage         = -12
)

// pending is the payload stored under resource.KindRequest across its
// lifecycle: built up by init/set_url/set_header/set_body, then populated
// by send.
type pending struct {
	method  string
	url     string
	headers map[string]string
	body    []byte

	sent        bool
	status      int
	respHeaders map[string]string
	respBody    []byte
	bytesRead   int
	failed      bool
}

// Register builds the "net" host module.
func Register(ctx context.Context, rt wazero.Runtime, env *hostenv.Env) error {
	return wire.Module(ctx, rt, "net", []wire.Func{
		{Name: "init", Fn: initReq(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "set_url", Fn: setURL(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "set_header", Fn: setHeader(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "set_body", Fn: setBody(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "send", Fn: send(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "send_all", Fn: sendAll(env), Params: []api.ValueType{wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "data_len", Fn: dataLen(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "read_data", Fn: readData(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "get_status_code", Fn: statusCode(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "get_header", Fn: getHeader(env), Params: []api.ValueType{wire.I32, wire.I32, wire.I32, wire.I32, wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "get_image", Fn: getImage(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "html", Fn: parseHTML(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
		{Name: "json", Fn: parseJSON(env), Params: []api.ValueType{wire.I32}, Results: []api.ValueType{wire.I32}},
	})
}

func initReq(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		methodIndex := int32(uint32(stack[0]))
		p := &pending{method: methodFor(methodIndex), headers: map[string]string{"User-Agent": "wasmhost/1.0"}}
		handle := env.Table.Insert(resource.KindRequest, p)
		stack[0] = uint64(handle)
	}
}

func getPending(env *hostenv.Env, h resource.Handle) (*pending, bool) {
	raw, ok := env.Table.GetTyped(h, resource.KindRequest)
	if !ok {
		return nil, false
	}
	return raw.(*pending), true
}

func setURL(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		s, ok := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		p.url = s
		stack[0] = 0
	}
}

func setHeader(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		k, ok1 := wire.ReadString(mod, uint32(stack[1]), uint32(stack[2]))
		v, ok2 := wire.ReadString(mod, uint32(stack[3]), uint32(stack[4]))
		if !ok1 || !ok2 {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		p.headers[k] = v
		stack[0] = 0
	}
}

func setBody(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		b, ok := mod.Memory().Read(uint32(stack[1]), uint32(stack[2]))
		if !ok {
			stack[0] = errCode(ErrInvalidBufferSize)
			return
		}
		p.body = append([]byte(nil), b...)
		stack[0] = 0
	}
}

func send(env *hostenv.Env) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		stack[0] = uint64(uint32(int32(doSend(ctx, env, h))))
	}
}

// doSend implements the §4.5 send lifecycle: validate, merge cookies,
// invoke the bridge, normalise headers, store cookies, cache the body.
func doSend(ctx context.Context, env *hostenv.Env, h resource.Handle) int32 {
	p, ok := getPending(env, h)
	if !ok {
		return ErrInvalidDescriptor
	}
	if p.url == "" {
		return ErrMissingUrl
	}

	headers := make(map[string]string, len(p.headers)+1)
	for k, v := range p.headers {
		headers[k] = v
	}
	if env.Jar != nil {
		if cookies := env.Jar.CookiesFor(HostOf(p.url)); cookies != "" {
			if existing, has := headers["Cookie"]; has {
				headers["Cookie"] = cookies + "; " + existing
			} else {
				headers["Cookie"] = cookies
			}
		}
	}

	resp, err := env.Bridge.Do(ctx, hostapi.HttpRequest{URL: p.url, Method: p.method, Headers: headers, Body: p.body})
	if err != nil {
		logging.Logger().Sugar().Debugw("net.send failed", "url", p.url, "error", err)
		p.failed = true
		p.respBody = nil
		p.respHeaders = nil
		p.status = 0
		return ErrRequestError
	}

	normalised := make(map[string]string, len(resp.Headers))
	var setCookies []string
	for k, v := range resp.Headers {
		lower := strings.ToLower(k)
		if lower == "set-cookie" {
			setCookies = append(setCookies, v)
		}
		if existing, has := normalised[lower]; has {
			normalised[lower] = existing + ", " + v
		} else {
			normalised[lower] = v
		}
	}
	if env.Jar != nil && len(setCookies) > 0 {
		env.Jar.Store(HostOf(p.url), setCookies)
	}

	p.sent = true
	p.status = resp.Status
	p.respHeaders = normalised
	p.respBody = resp.Body
	p.bytesRead = 0
	p.failed = false
	return 0
}

func sendAll(env *hostenv.Env) api.GoModuleFunc {
	return func(ctx context.Context, mod api.Module, stack []uint64) {
		idsPtr := uint32(stack[0])
		n := uint32(stack[1])
		buf, ok := mod.Memory().Read(idsPtr, n*4)
		if !ok {
			stack[0] = errCode(ErrInvalidBufferSize)
			return
		}
		out := make([]byte, len(buf))
		copy(out, buf)
		for i := uint32(0); i < n; i++ {
			off := i * 4
			rid := resource.Handle(uint32(out[off]) | uint32(out[off+1])<<8 | uint32(out[off+2])<<16 | uint32(out[off+3])<<24)
			code := doSend(ctx, env, rid)
			u := uint32(int32(code))
			out[off] = byte(u)
			out[off+1] = byte(u >> 8)
			out[off+2] = byte(u >> 16)
			out[off+3] = byte(u >> 24)
		}
		if !mod.Memory().Write(idsPtr, out) {
			stack[0] = errCode(ErrFailedMemoryWrite)
			return
		}
		stack[0] = 0
	}
}

func dataLen(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(uint32(len(p.respBody)))
	}
}

func readData(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		outPtr := uint32(stack[1])
		size := uint32(stack[2])
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		if !p.sent {
			stack[0] = errCode(ErrMissingResponse)
			return
		}
		if int(size) > len(p.respBody) {
			stack[0] = errCode(ErrInvalidBufferSize)
			return
		}
		if !mod.Memory().Write(outPtr, p.respBody[:size]) {
			stack[0] = errCode(ErrFailedMemoryWrite)
			return
		}
		stack[0] = 0
	}
}

func statusCode(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		stack[0] = uint64(uint32(int32(p.status)))
	}
}

func getHeader(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		keyPtr, keyLen := uint32(stack[1]), uint32(stack[2])
		outPtr, outLen := uint32(stack[3]), uint32(stack[4])

		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		if !p.sent {
			stack[0] = errCode(ErrMissingResponse)
			return
		}
		key, ok := wire.ReadString(mod, keyPtr, keyLen)
		if !ok {
			stack[0] = errCode(ErrInvalidString)
			return
		}
		v, found := p.respHeaders[strings.ToLower(key)]
		if !found {
			stack[0] = errCode(ErrMissingData)
			return
		}
		if uint32(len(v)) > outLen {
			stack[0] = errCode(ErrInvalidBufferSize)
			return
		}
		if !mod.Memory().Write(outPtr, []byte(v)) {
			stack[0] = errCode(ErrFailedMemoryWrite)
			return
		}
		stack[0] = uint64(uint32(len(v)))
	}
}

func getImage(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		if !p.sent {
			stack[0] = errCode(ErrMissingResponse)
			return
		}
		imgHandle, err := canvas.DecodeImageBytes(env.Table, p.respBody)
		if err != nil {
			stack[0] = errCode(ErrNotAnImage)
			return
		}
		stack[0] = uint64(imgHandle)
	}
}

func parseHTML(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		if !p.sent {
			stack[0] = errCode(ErrMissingResponse)
			return
		}
		docHandle, err := html.Parse(env.Table, p.respBody, p.url)
		if err != nil {
			stack[0] = errCode(ErrInvalidHtml)
			return
		}
		stack[0] = uint64(docHandle)
	}
}

func parseJSON(env *hostenv.Env) api.GoModuleFunc {
	return func(_ context.Context, mod api.Module, stack []uint64) {
		h := resource.Handle(uint32(stack[0]))
		p, ok := getPending(env, h)
		if !ok {
			stack[0] = errCode(ErrInvalidDescriptor)
			return
		}
		if !p.sent {
			stack[0] = errCode(ErrMissingResponse)
			return
		}
		v, err := value.ParseJSON(p.respBody)
		if err != nil {
			stack[0] = errCode(ErrMissingData)
			return
		}
		stack[0] = uint64(value.Materialize(env.Table, v))
	}
}

func errCode(code int) uint64 {
	return uint64(uint32(int32(code)))
}
