package defaults

import (
	"context"
	"testing"

	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/postcard"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/aidoku-host/wasmhost/value"
	"github.com/tetratelabs/wazero/experimental/wazerotest"
)

type fakeGetter struct {
	values map[string]any
}

func (f *fakeGetter) GetSetting(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

type fakeSetter struct {
	last  string
	value any
	err   error
}

func (f *fakeSetter) SetSetting(key string, value any) error {
	f.last = key
	f.value = value
	return f.err
}

func newTestEnv(getter *fakeGetter, setter *fakeSetter) (*hostenv.Env, *wazerotest.Module) {
	tbl := resource.NewTable()
	pair := hostenv.SettingsPair{}
	if getter != nil {
		pair.Getter = getter
	}
	if setter != nil {
		pair.Setter = setter
	}
	env := hostenv.New(tbl, nil, pair, nil)
	mod := wazerotest.NewModule(wazerotest.NewMemory(65536))
	return env, mod
}

func TestGetBoolSetting(t *testing.T) {
	getter := &fakeGetter{values: map[string]any{"nsfw": true}}
	env, mod := newTestEnv(getter, nil)
	ctx := context.Background()

	key := "nsfw"
	mod.Memory().Write(0, []byte(key))
	stack := []uint64{0, uint64(len(key))}
	get(env)(ctx, mod, stack)
	h := resource.Handle(uint32(stack[0]))

	raw, ok := env.Table.GetTyped(h, resource.KindValue)
	if !ok {
		t.Fatal("get did not store a value")
	}
	v := raw.(value.Value)
	r := postcard.NewReader(v.Raw)
	b, err := r.Bool()
	if err != nil || !b {
		t.Fatalf("decoded bool = %v, err=%v", b, err)
	}
}

func TestGetMissingKeyEncodesEmpty(t *testing.T) {
	getter := &fakeGetter{values: map[string]any{}}
	env, mod := newTestEnv(getter, nil)
	ctx := context.Background()

	key := "missing"
	mod.Memory().Write(0, []byte(key))
	stack := []uint64{0, uint64(len(key))}
	get(env)(ctx, mod, stack)
	h := resource.Handle(uint32(stack[0]))

	raw, _ := env.Table.GetTyped(h, resource.KindValue)
	v := raw.(value.Value)
	if len(v.Raw) != 0 {
		t.Fatalf("expected empty encoding for missing key, got %v", v.Raw)
	}
}

func TestSetStringSetting(t *testing.T) {
	setter := &fakeSetter{}
	env, mod := newTestEnv(nil, setter)
	ctx := context.Background()

	key := "language"
	mod.Memory().Write(0, []byte(key))
	val := "en"
	mod.Memory().Write(100, []byte(val))

	stack := []uint64{0, uint64(len(key)), kindString, 100, uint64(len(val))}
	set(env)(ctx, mod, stack)
	if int32(stack[0]) != 0 {
		t.Fatalf("set returned error %d", int32(stack[0]))
	}
	if setter.last != key || setter.value != val {
		t.Fatalf("setter got key=%q value=%v", setter.last, setter.value)
	}
}

func TestSetWithoutSetterFails(t *testing.T) {
	env, mod := newTestEnv(nil, nil)
	ctx := context.Background()

	key := "x"
	mod.Memory().Write(0, []byte(key))
	stack := []uint64{0, uint64(len(key)), kindNull, 0, 0}
	set(env)(ctx, mod, stack)
	if int32(stack[0]) != ErrNoSetter {
		t.Fatalf("set = %d, want ErrNoSetter", int32(stack[0]))
	}
}

func TestSetIntSetting(t *testing.T) {
	setter := &fakeSetter{}
	env, mod := newTestEnv(nil, setter)
	ctx := context.Background()

	key := "retries"
	mod.Memory().Write(0, []byte(key))
	w := postcard.NewWriter()
	w.Varint(-7)
	encoded := w.Bytes()
	mod.Memory().Write(100, encoded)

	stack := []uint64{0, uint64(len(key)), kindInt, 100, uint64(len(encoded))}
	set(env)(ctx, mod, stack)
	if int32(stack[0]) != 0 {
		t.Fatalf("set returned error %d", int32(stack[0]))
	}
	if setter.value != int64(-7) {
		t.Fatalf("setter got value=%v, want -7", setter.value)
	}
}
