package abidispatch

import (
	"context"

	"github.com/aidoku-host/wasmhost/internal/wire"
	"github.com/aidoku-host/wasmhost/internal/logging"
	"github.com/tetratelabs/wazero/api"
)

// ResultStatus classifies a modern-ABI result pointer's sign (§4.2).
type ResultStatus uint8

const (
	ResultOK ResultStatus = iota
	ResultGeneralError
	ResultUnimplemented
	ResultRequestError
)

func classifyNegative(p int32) ResultStatus {
	switch p {
	case -1:
		return ResultGeneralError
	case -2:
		return ResultUnimplemented
	case -3:
		return ResultRequestError
	default:
		return ResultGeneralError
	}
}

// readModernResult implements §4.2's result-pointer convention: a negative
// pointer is an ABI-level error (never a Go error — §7's propagation rule
// treats it the same as a decode failure, so the caller logs and falls
// back to an empty domain value); zero or a short header is an empty
// payload; otherwise the length-prefixed buffer at p is copied out and
// free_result (if the plugin exports it) is called to hand the allocation
// back.
func readModernResult(ctx context.Context, mod api.Module, p int32) (payload []byte, status ResultStatus) {
	if p < 0 {
		return nil, classifyNegative(p)
	}
	buf, ok := wire.ReadResultBuffer(mod, uint32(p))
	if !ok {
		logging.Logger().Sugar().Debugw("abidispatch: result buffer read failed", "ptr", p)
		return nil, ResultGeneralError
	}
	if p > 0 {
		freeResult(ctx, mod, uint32(p))
	}
	return buf, ResultOK
}

func freeResult(ctx context.Context, mod api.Module, p uint32) {
	fn := mod.ExportedFunction("free_result")
	if fn == nil {
		return
	}
	if _, err := fn.Call(ctx, uint64(p)); err != nil {
		logging.Logger().Sugar().Debugw("abidispatch: free_result failed", "ptr", p, "error", err)
	}
}
