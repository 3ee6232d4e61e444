package abidispatch

import (
	"errors"
	"fmt"

	"github.com/aidoku-host/wasmhost/imports/envaidoku"
)

// FatalError is raised when a plugin calls env.abort (§6). Unlike every
// other import failure — which returns a negative ABI error code and lets
// the plugin keep running — an abort unwinds the whole call: the plugin
// considered its own state unrecoverable.
type FatalError struct {
	SourceID string
	Abort    *envaidoku.AbortError
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("[%s] %s", e.SourceID, e.Abort.Error())
}

func (e *FatalError) Unwrap() error { return e.Abort }

// asFatal converts a wazero Call error into a *FatalError when its cause
// chain holds an *envaidoku.AbortError (wazero's interpreter recovers Go
// panics that implement error and re-wraps them with %w, which preserves
// the chain — see envaidoku.AbortError.Error), prefixing §6's
// "[source-id] Abort: ..." format. Any other error is returned unchanged.
func asFatal(sourceID string, err error) error {
	if err == nil {
		return nil
	}
	var abortErr *envaidoku.AbortError
	if errors.As(err, &abortErr) {
		return &FatalError{SourceID: sourceID, Abort: abortErr}
	}
	return err
}
