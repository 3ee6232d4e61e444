package abidispatch

import (
	"context"

	"github.com/aidoku-host/wasmhost/hosterr"
	"github.com/tetratelabs/wazero/api"
)

// callExport invokes a plugin export by name and converts an env.abort
// panic (recovered by wazero and surfaced as a wrapped error from Call)
// into a *FatalError carrying sourceID.
func callExport(ctx context.Context, mod api.Module, sourceID, name string, args ...uint64) ([]uint64, error) {
	fn := mod.ExportedFunction(name)
	if fn == nil {
		return nil, hosterr.NotFound(hosterr.PhaseDispatch, "export", name)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, asFatal(sourceID, err)
	}
	return results, nil
}

// callExportResultPtr is callExport for the common modern-ABI shape: a
// single i32 result interpreted as a result pointer.
func callExportResultPtr(ctx context.Context, mod api.Module, sourceID, name string, args ...uint64) (int32, error) {
	results, err := callExport(ctx, mod, sourceID, name, args...)
	if err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, hosterr.InvalidInput(hosterr.PhaseDispatch, "export %q returned no value", name)
	}
	return api.DecodeI32(results[0]), nil
}
