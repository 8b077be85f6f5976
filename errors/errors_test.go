package errors_test

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/wippyai/wasm-bindgen/errors"
)

func TestErrorFormat(t *testing.T) {
	err := errors.New(errors.PhaseExport, errors.KindMissingExport).
		Binding("add").
		Detail("export %q not found", "__wbindgen_malloc").
		Build()

	msg := err.Error()
	for _, want := range []string{"[export]", "missing_export", "`add`", "__wbindgen_malloc"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestErrorIsMatchesPhaseAndKind(t *testing.T) {
	err := errors.DuplicateConstructor("Point", "new")

	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseClass, Kind: errors.KindDuplicateCtor}) {
		t.Error("expected Is to match on phase+kind")
	}
	if stderrors.Is(err, &errors.Error{Phase: errors.PhaseImport, Kind: errors.KindDuplicateCtor}) {
		t.Error("Is matched with wrong phase")
	}
}

func TestUnwrap(t *testing.T) {
	cause := stderrors.New("underlying")
	err := errors.BadDescriptor("foo", cause)

	if !stderrors.Is(err, cause) {
		t.Error("expected Unwrap to expose the cause")
	}
	if !strings.Contains(err.Error(), "caused by: underlying") {
		t.Errorf("cause not rendered: %q", err.Error())
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err   *errors.Error
		phase errors.Phase
		kind  errors.Kind
	}{
		{errors.MissingExport(errors.PhaseExport, "f", "__wbindgen_malloc"), errors.PhaseExport, errors.KindMissingExport},
		{errors.UnresolvedTarget("shim", "Foo.prototype.bar"), errors.PhaseImport, errors.KindUnresolvedTarget},
		{errors.DisallowedImport("shim", "./mod", "use --nodejs or --browser"), errors.PhaseImport, errors.KindDisallowedImport},
		{errors.MissingMemory(), errors.PhaseFinalize, errors.KindMissingMemory},
		{errors.InterpreterFailed("f", nil), errors.PhaseDescribe, errors.KindInterpreterFailed},
	}
	for _, tt := range tests {
		if tt.err.Phase != tt.phase || tt.err.Kind != tt.kind {
			t.Errorf("%v: got phase=%s kind=%s", tt.err, tt.err.Phase, tt.err.Kind)
		}
	}
}
