package wasmhost

import (
	"context"
	"testing"
)

// minimalWasm is the smallest valid core WASM module: magic + version, no
// sections, no exports — enough for wazero to compile and instantiate.
var minimalWasm = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
}

func TestLoadPluginMinimalModule(t *testing.T) {
	ctx := context.Background()
	host, err := New(ctx, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer host.Close(ctx)

	plugin, err := host.LoadPlugin(ctx, minimalWasm)
	if err != nil {
		t.Fatalf("LoadPlugin: %v", err)
	}
	defer plugin.Close(ctx)

	// No exports at all: mode detection falls back to its modern default.
	if plugin.Mode().String() != "modern" {
		t.Fatalf("Mode() = %v, want modern", plugin.Mode())
	}
	caps := plugin.Capabilities()
	if caps.HasHome || caps.HasImageProcessor || caps.HasListingProvider {
		t.Fatalf("capabilities = %+v, want none set for an export-less module", caps)
	}
}

func TestLoadPluginTwiceFromOneHost(t *testing.T) {
	ctx := context.Background()
	host, err := New(ctx, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer host.Close(ctx)

	first, err := host.LoadPlugin(ctx, minimalWasm)
	if err != nil {
		t.Fatalf("LoadPlugin (first): %v", err)
	}
	defer first.Close(ctx)

	second, err := host.LoadPlugin(ctx, minimalWasm)
	if err != nil {
		t.Fatalf("LoadPlugin (second): %v", err)
	}
	defer second.Close(ctx)
}

func TestLoadPluginNamedLoadsModule(t *testing.T) {
	ctx := context.Background()
	host, err := New(ctx, Config{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer host.Close(ctx)

	plugin, err := host.LoadPluginNamed(ctx, minimalWasm, "my-source")
	if err != nil {
		t.Fatalf("LoadPluginNamed: %v", err)
	}
	defer plugin.Close(ctx)
}
