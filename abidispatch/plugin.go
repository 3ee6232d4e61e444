// Package abidispatch loads a compiled content-source plugin, detects which
// ABI dialect it speaks (§4.2), and drives its exports — encoding arguments
// as scoped resource descriptors, decoding the result-pointer convention
// (or, in legacy mode, the generic object rid a legacy export returns) back
// into domain values.
package abidispatch

import (
	"context"

	"github.com/aidoku-host/wasmhost/hostapi"
	"github.com/aidoku-host/wasmhost/hosterr"
	"github.com/aidoku-host/wasmhost/imports/canvas"
	"github.com/aidoku-host/wasmhost/imports/defaults"
	"github.com/aidoku-host/wasmhost/imports/envaidoku"
	"github.com/aidoku-host/wasmhost/imports/hostenv"
	"github.com/aidoku-host/wasmhost/imports/html"
	"github.com/aidoku-host/wasmhost/imports/js"
	"github.com/aidoku-host/wasmhost/imports/json"
	"github.com/aidoku-host/wasmhost/imports/net"
	"github.com/aidoku-host/wasmhost/imports/std"
	"github.com/aidoku-host/wasmhost/resource"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// LoadConfig carries the per-plugin collaborators a Host's Config supplies
// (§4.11's injected HTTP bridge, §4.7's injected settings getter/setter) plus
// the source id §6's fatal-error format prefixes onto an env.abort.
type LoadConfig struct {
	SourceID       string
	Bridge         hostapi.HttpBridge
	SettingsGetter hostapi.SettingsGetter
	SettingsSetter hostapi.SettingsSetter
	Sweeper        resource.SweeperConfig
}

// Plugin is one loaded content-source instance: its own wazero.Runtime (so
// its host-module namespaces and hostenv.Env are never shared with another
// instance — §5 requires the resource table, cookie jar, and partial-home
// accumulator to be per-instance), the compiled module, its detected Mode
// and Capabilities.
type Plugin struct {
	sourceID  string
	rt        wazero.Runtime
	mod       api.Module
	env       *hostenv.Env
	table     resource.Table
	mode      Mode
	caps      Capabilities
	stopSweep context.CancelFunc
}

// Load compiles and instantiates wasmBytes: registers every import
// namespace against a fresh hostenv.Env, instantiates the plugin module,
// calls its start export (if present), and detects ABI mode and
// capabilities from the resulting export set.
func Load(ctx context.Context, rt wazero.Runtime, wasmBytes []byte, cfg LoadConfig) (*Plugin, error) {
	table := resource.NewTable()
	jar := net.NewJar()
	bridge := cfg.Bridge
	if bridge == nil {
		bridge = net.NewDefaultBridge()
	}
	env := hostenv.New(table, bridge, hostenv.SettingsPair{Getter: cfg.SettingsGetter, Setter: cfg.SettingsSetter}, jar)

	for _, register := range []func(context.Context, wazero.Runtime, *hostenv.Env) error{
		envaidoku.Register,
		std.Register,
		net.Register,
		html.Register,
		json.Register,
		defaults.Register,
		canvas.Register,
		js.Register,
	} {
		if err := register(ctx, rt, env); err != nil {
			return nil, hosterr.Wrap(hosterr.PhaseDispatch, hosterr.KindInstantiation, err, "register host import namespace")
		}
	}

	compiled, err := rt.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, hosterr.Instantiation(err)
	}

	modInst, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		return nil, hosterr.Instantiation(err)
	}

	if start := modInst.ExportedFunction("start"); start != nil {
		if _, err := start.Call(ctx); err != nil {
			return nil, asFatal(cfg.SourceID, err)
		}
	}

	defs := modInst.ExportedFunctionDefinitions()
	exports := make(map[string]bool, len(defs))
	for name := range defs {
		exports[name] = true
	}
	mode := DetectMode(exports)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	resource.NewSweeper(table, cfg.Sweeper).Run(sweepCtx)

	p := &Plugin{
		sourceID:  cfg.SourceID,
		rt:        rt,
		mod:       modInst,
		env:       env,
		table:     table,
		mode:      mode,
		caps:      DetectCapabilities(mode, exports),
		stopSweep: stopSweep,
	}
	return p, nil
}

// Mode reports the detected ABI dialect.
func (p *Plugin) Mode() Mode { return p.mode }

// Capabilities reports the detected optional-feature booleans.
func (p *Plugin) Capabilities() Capabilities { return p.caps }

// Close stops the sweeper, releases the plugin's resource table, and tears
// down its runtime.
func (p *Plugin) Close(ctx context.Context) error {
	p.stopSweep()
	if err := p.table.Close(); err != nil {
		return err
	}
	return p.rt.Close(ctx)
}
