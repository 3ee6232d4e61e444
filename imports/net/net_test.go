package net

import (
	"context"
	"testing"

	"github.com/aidoku-host/wasmhost/hostapi"
	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/tetratelabs/wazero/experimental/wazerotest"
)

type fakeBridge struct {
	resp hostapi.HttpResponse
	err  error
	got  hostapi.HttpRequest
}

func (f *fakeBridge) Do(_ context.Context, req hostapi.HttpRequest) (hostapi.HttpResponse, error) {
	f.got = req
	return f.resp, f.err
}

func newTestEnv(bridge hostapi.HttpBridge, jar hostenv.CookieJar) (*hostenv.Env, *wazerotest.Module) {
	tbl := resource.NewTable()
	env := hostenv.New(tbl, bridge, hostenv.SettingsPair{}, jar)
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	return env, mod
}

func TestInitSetURLSend(t *testing.T) {
	bridge := &fakeBridge{resp: hostapi.HttpResponse{
		Status:  200,
		Headers: map[string]string{"Content-Type": "text/plain"},
		Body:    []byte("ok"),
	}}
	env, mod := newTestEnv(bridge, nil)
	ctx := context.Background()

	stack := []uint64{0}
	initReq(env)(ctx, mod, stack)
	h := resource.Handle(uint32(stack[0]))

	url := "https://example.com/manga"
	if !mod.Memory().Write(0, []byte(url)) {
		t.Fatal("failed to seed memory")
	}
	stack = []uint64{uint64(h), 0, uint64(len(url))}
	setURL(env)(ctx, mod, stack)
	if stack[0] != 0 {
		t.Fatalf("set_url returned error %d", int32(stack[0]))
	}

	stack = []uint64{uint64(h)}
	send(env)(ctx, mod, stack)
	if int32(stack[0]) != 0 {
		t.Fatalf("send returned error %d", int32(stack[0]))
	}
	if bridge.got.Method != "GET" || bridge.got.URL != url {
		t.Fatalf("bridge got %+v", bridge.got)
	}

	stack = []uint64{uint64(h)}
	statusCode(env)(ctx, mod, stack)
	if int32(stack[0]) != 200 {
		t.Fatalf("status = %d, want 200", int32(stack[0]))
	}

	stack = []uint64{uint64(h)}
	dataLen(env)(ctx, mod, stack)
	if uint32(stack[0]) != 2 {
		t.Fatalf("data_len = %d, want 2", stack[0])
	}

	stack = []uint64{uint64(h), 200, 2}
	readData(env)(ctx, mod, stack)
	got, _ := mod.Memory().Read(200, 2)
	if string(got) != "ok" {
		t.Fatalf("read_data wrote %q", got)
	}
}

func TestSendMissingURL(t *testing.T) {
	env, mod := newTestEnv(&fakeBridge{}, nil)
	ctx := context.Background()

	stack := []uint64{0}
	initReq(env)(ctx, mod, stack)
	h := resource.Handle(uint32(stack[0]))

	stack = []uint64{uint64(h)}
	send(env)(ctx, mod, stack)
	if int32(stack[0]) != ErrMissingUrl {
		t.Fatalf("send = %d, want ErrMissingUrl", int32(stack[0]))
	}
}

func TestSendUsesJarCookies(t *testing.T) {
	jar := NewJar()
	jar.Store("example.com", []string{"session=abc123"})
	bridge := &fakeBridge{resp: hostapi.HttpResponse{Status: 200}}
	env, mod := newTestEnv(bridge, jar)
	ctx := context.Background()

	stack := []uint64{0}
	initReq(env)(ctx, mod, stack)
	h := resource.Handle(uint32(stack[0]))

	url := "https://example.com/list"
	mod.Memory().Write(0, []byte(url))
	stack = []uint64{uint64(h), 0, uint64(len(url))}
	setURL(env)(ctx, mod, stack)

	stack = []uint64{uint64(h)}
	send(env)(ctx, mod, stack)

	if bridge.got.Headers["Cookie"] != "session=abc123" {
		t.Fatalf("request cookie header = %q", bridge.got.Headers["Cookie"])
	}
}

func TestMethodForOutOfRangeDefaultsToGet(t *testing.T) {
	if got := methodFor(99); got != "GET" {
		t.Fatalf("methodFor(99) = %q, want GET", got)
	}
	if got := methodFor(1); got != "POST" {
		t.Fatalf("methodFor(1) = %q, want POST", got)
	}
}
