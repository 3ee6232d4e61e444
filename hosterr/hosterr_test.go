package hosterr

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseCodec,
				Kind:   KindInvalidData,
				Path:   []string{"page", "0", "variant"},
				Detail: "unknown variant tag",
			},
			contains: []string{"[codec]", "invalid_data", "page.0.variant", "unknown variant tag"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseTable,
				Kind:  KindNotFound,
			},
			contains: []string{"[table]", "not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseBridge,
				Kind:   KindUnsupported,
				Detail: "request failed",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[bridge]", "unsupported", "request failed", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{Phase: PhaseDispatch, Kind: KindInstantiation, Cause: cause}

	if !errors.Is(err, err) {
		t.Fatal("error should be equal to itself via Is")
	}
	if errors.Unwrap(err) != cause {
		t.Fatal("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	a := New(PhaseCodec, KindInvalidData).Build()
	b := New(PhaseCodec, KindInvalidData).Detail("different detail").Build()
	c := New(PhaseCodec, KindOverflow).Build()

	if !errors.Is(a, b) {
		t.Error("errors with same phase/kind should match")
	}
	if errors.Is(a, c) {
		t.Error("errors with different kind should not match")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseImport, KindInvalidInput).
		Path("net", "send").
		Detail("missing url").
		Build()

	if err.Phase != PhaseImport || err.Kind != KindInvalidInput {
		t.Fatalf("unexpected phase/kind: %v/%v", err.Phase, err.Kind)
	}
	if got := err.Error(); !strings.Contains(got, "missing url") {
		t.Fatalf("expected detail in message, got %q", got)
	}
}

func TestNotFound(t *testing.T) {
	err := NotFound(PhaseTable, "resource", 42)
	if !strings.Contains(err.Error(), "resource 42 not found") {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}
