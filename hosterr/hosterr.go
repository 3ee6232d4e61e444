// Package hosterr provides structured error types for the wasmhost library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error
// category). The Error type carries rich context: a field path, a detail
// message, and a cause chain.
//
// Use the Builder for structured construction:
//
//	err := hosterr.New(hosterr.PhaseCodec, hosterr.KindInvalidData).
//		Path("page", "0", "variant").
//		Detail("unknown Page variant tag %d", tag).
//		Build()
//
// Or use the convenience constructors for common patterns:
//
//	err := hosterr.NotFound(hosterr.PhaseTable, "resource", rid)
//	err := hosterr.Wrap(hosterr.PhaseBridge, hosterr.KindUnsupported, cause, "send request")
//
// This is the structured error type for host-internal Go-level failures
// (loading a plugin, a SettingsGetter panicking). It is independent of the
// plugin-facing ABI error codes (small negative ints) returned across
// imports — those never become a *hosterr.Error.
package hosterr

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred.
type Phase string

const (
	PhaseTable    Phase = "table"    // resource table operations
	PhaseDispatch Phase = "dispatch" // ABI dispatcher / plugin loading
	PhaseCodec    Phase = "codec"    // postcard encode/decode
	PhaseImport   Phase = "import"   // import namespace handlers
	PhaseBridge   Phase = "bridge"   // HTTP bridge / settings collaborators
)

// Kind categorizes the error.
type Kind string

const (
	KindInvalidData    Kind = "invalid_data"
	KindNotFound       Kind = "not_found"
	KindUnsupported    Kind = "unsupported"
	KindInvalidInput   Kind = "invalid_input"
	KindOverflow       Kind = "overflow"
	KindNotInitialized Kind = "not_initialized"
	KindInstantiation  Kind = "instantiation"
)

// Error is the structured error type used throughout the module.
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New starts a builder for the given phase and kind.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *Builder) Build() *Error {
	return &b.err
}

// NotFound builds a KindNotFound error for a missing resource.
func NotFound(phase Phase, what string, id any) *Error {
	return New(phase, KindNotFound).Detail("%s %v not found", what, id).Build()
}

// InvalidInput builds a KindInvalidInput error.
func InvalidInput(phase Phase, detail string, args ...any) *Error {
	return New(phase, KindInvalidInput).Detail(detail, args...).Build()
}

// Wrap builds an error wrapping a cause.
func Wrap(phase Phase, kind Kind, cause error, detail string, args ...any) *Error {
	return New(phase, kind).Cause(cause).Detail(detail, args...).Build()
}

// NotInitialized builds a KindNotInitialized error.
func NotInitialized(phase Phase, what string) *Error {
	return New(phase, KindNotInitialized).Detail("%s not initialized", what).Build()
}

// Instantiation builds a KindInstantiation error wrapping a cause.
func Instantiation(cause error) *Error {
	return New(PhaseDispatch, KindInstantiation).Cause(cause).Detail("instantiate plugin module").Build()
}
