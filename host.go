package wasmhost

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/aidoku-host/wasmhost/abidispatch"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/tetratelabs/wazero"
)

// Config configures a Host: the collaborators every loaded Plugin shares
// (the injected HTTP bridge and settings store) and the wazero runtime
// limits applied to each plugin's own runtime.
type Config struct {
	Bridge         HttpBridge
	SettingsGetter SettingsGetter
	SettingsSetter SettingsSetter

	// MemoryLimitPages caps a plugin instance's linear memory (64KiB per
	// page); 0 means wazero's own default. WASM memory can only grow, never
	// shrink, so this is the only backstop against a plugin that never
	// frees what it allocates between sweeps.
	MemoryLimitPages uint32

	// Sweeper tunes the per-plugin resource.Sweeper's age/cap thresholds;
	// the zero value applies resource.SweeperConfig's own defaults.
	Sweeper resource.SweeperConfig
}

// Host is the embedding entry point: one Host per process (or per
// independent sandbox domain), loading any number of Plugin instances that
// each get their own wazero.Runtime and resource table so no state leaks
// between plugin sources.
type Host struct {
	cfg    Config
	nextID atomic.Uint64
}

// New constructs a Host from cfg. The returned Host holds no wazero runtime
// of its own — each LoadPlugin call builds one for that plugin alone, so
// that a crashed or misbehaving plugin never affects another.
func New(ctx context.Context, cfg Config) (*Host, error) {
	return &Host{cfg: cfg}, nil
}

// LoadPlugin compiles and instantiates wasmBytes as a new, independent
// Plugin instance, auto-assigning it a source id for diagnostics.
func (h *Host) LoadPlugin(ctx context.Context, wasmBytes []byte) (*Plugin, error) {
	return h.LoadPluginNamed(ctx, wasmBytes, fmt.Sprintf("plugin-%d", h.nextID.Add(1)))
}

// LoadPluginNamed is LoadPlugin with an explicit source id, used in the
// FatalError "[source-id] Abort: ..." prefix and anywhere an embedder
// juggles more than one plugin and needs to tell their aborts apart.
func (h *Host) LoadPluginNamed(ctx context.Context, wasmBytes []byte, sourceID string) (*Plugin, error) {
	runtimeCfg := wazero.NewRuntimeConfig()
	if h.cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(h.cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	loaded, err := abidispatch.Load(ctx, rt, wasmBytes, abidispatch.LoadConfig{
		SourceID:       sourceID,
		Bridge:         h.cfg.Bridge,
		SettingsGetter: h.cfg.SettingsGetter,
		SettingsSetter: h.cfg.SettingsSetter,
		Sweeper:        h.cfg.Sweeper,
	})
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	return &Plugin{loaded}, nil
}

// Close is a no-op placeholder for symmetry with Plugin.Close; a Host holds
// no resources of its own to release — every wazero.Runtime belongs to the
// Plugin it was created for.
func (h *Host) Close(ctx context.Context) error { return nil }

// Plugin is the embedder-facing loaded-plugin handle: the full
// abidispatch.Plugin surface (Mode, Capabilities, every modern/legacy
// export method, Close) re-exported at the module root so callers never
// need to import abidispatch directly.
type Plugin struct {
	*abidispatch.Plugin
}
