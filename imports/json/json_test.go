package json

import (
	"context"
	"testing"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero/experimental/wazerotest"
)

func newTestEnv() (*hostenv.Env, *wazerotest.Module) {
	tbl := resource.NewTable()
	env := hostenv.New(tbl, nil, hostenv.SettingsPair{}, nil)
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	return env, mod
}

func TestParseObject(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	h := env.Table.Insert(resource.KindValue, value.Raw([]byte(`{"title":"Chainsaw Man","pages":12}`)))

	stack := []uint64{uint64(h)}
	parse(env)(ctx, mod, stack)
	if int32(uint32(stack[0])) < 0 {
		t.Fatalf("parse returned error code %d", int32(uint32(stack[0])))
	}

	raw, ok := env.Table.GetTyped(resource.Handle(uint32(stack[0])), resource.KindValue)
	if !ok {
		t.Fatal("parsed result not found in table")
	}
	v, ok := raw.(value.Value)
	if !ok || v.Kind != value.KindObject {
		t.Fatalf("parsed value = %+v, want KindObject", raw)
	}
	titleHandle, present := v.Object["title"]
	if !present {
		t.Fatal("parsed object missing \"title\" field")
	}
	titleRaw, _ := env.Table.GetTyped(titleHandle, resource.KindValue)
	titleVal, ok := titleRaw.(value.Value)
	if !ok || titleVal.Str != "Chainsaw Man" {
		t.Fatalf("title field = %+v", titleRaw)
	}
}

func TestParseInvalidDescriptor(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	stack := []uint64{999}
	parse(env)(ctx, mod, stack)
	if int32(uint32(stack[0])) != ErrInvalidDescriptor {
		t.Fatalf("parse error = %d, want %d", int32(uint32(stack[0])), ErrInvalidDescriptor)
	}
}

func TestParseMalformedJSON(t *testing.T) {
	env, mod := newTestEnv()
	ctx := context.Background()

	h := env.Table.Insert(resource.KindValue, value.Raw([]byte(`{not json`)))
	stack := []uint64{uint64(h)}
	parse(env)(ctx, mod, stack)
	if int32(uint32(stack[0])) != ErrInvalidDescriptor {
		t.Fatalf("parse error = %d, want %d", int32(uint32(stack[0])), ErrInvalidDescriptor)
	}
}
