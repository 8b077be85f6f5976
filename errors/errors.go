package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the generation run the error occurred
type Phase string

const (
	PhaseParse    Phase = "parse"    // binary module or metadata decoding
	PhaseDescribe Phase = "describe" // descriptor recovery and decoding
	PhaseExport   Phase = "export"   // module→host glue generation
	PhaseImport   Phase = "import"   // host→module shim generation
	PhaseClass    Phase = "class"    // exported class finalization
	PhaseClosure  Phase = "closure"  // closure reification
	PhaseFinalize Phase = "finalize" // assembly, gc and import rewriting
)

// Kind categorizes the error
type Kind string

const (
	KindMissingExport     Kind = "missing_export"     // required wasm export absent
	KindDuplicateCtor     Kind = "duplicate_ctor"     // second constructor on a class
	KindUnresolvedTarget  Kind = "unresolved_target"  // nominal import target cannot be named
	KindBadDescriptor     Kind = "bad_descriptor"     // malformed descriptor encoding
	KindDisallowedImport  Kind = "disallowed_import"  // import shape invalid for loader mode
	KindUnsupported       Kind = "unsupported"        // descriptor shape with no conversion
	KindInvalidData       Kind = "invalid_data"       // malformed binary or metadata
	KindMissingMemory     Kind = "missing_memory"     // module neither defines nor imports memory
	KindInterpreterFailed Kind = "interpreter_failed" // descriptor query evaluation failed
)

// Error is the structured error type used throughout the generator.
// Binding names the offending export or import so a failed run always
// identifies which declaration could not be processed.
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Binding string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Binding != "" {
		b.WriteString(" in `")
		b.WriteString(e.Binding)
		b.WriteByte('`')
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

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Binding names the export or import the error belongs to
func (b *Builder) Binding(name string) *Builder {
	b.err.Binding = name
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MissingExport reports a wasm export required by generated glue that the
// module was not compiled with.
func MissingExport(phase Phase, binding, export string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindMissingExport,
		Binding: binding,
		Detail: fmt.Sprintf(
			"the exported function %q is required to generate bindings but was not found in the wasm module",
			export),
	}
}

// DuplicateConstructor reports a second constructor declared on a class.
func DuplicateConstructor(class, ctor string) *Error {
	return &Error{
		Phase:   PhaseClass,
		Kind:    KindDuplicateCtor,
		Binding: class,
		Detail:  fmt.Sprintf("found duplicate constructor %q", ctor),
	}
}

// UnresolvedTarget reports a nominal import whose host target cannot be
// expressed under the active configuration.
func UnresolvedTarget(binding, target string) *Error {
	return &Error{
		Phase:   PhaseImport,
		Kind:    KindUnresolvedTarget,
		Binding: binding,
		Detail:  fmt.Sprintf("host target %q cannot be resolved", target),
	}
}

// BadDescriptor reports a malformed descriptor encoding. Fatal to the one
// binding it names, not to the whole run.
func BadDescriptor(binding string, cause error) *Error {
	return &Error{
		Phase:   PhaseDescribe,
		Kind:    KindBadDescriptor,
		Binding: binding,
		Detail:  "malformed type descriptor",
		Cause:   cause,
	}
}

// DisallowedImport reports an import shape the configured loader cannot
// express, e.g. a module import under the no-modules convention.
func DisallowedImport(binding, module, hint string) *Error {
	return &Error{
		Phase:   PhaseImport,
		Kind:    KindDisallowedImport,
		Binding: binding,
		Detail:  fmt.Sprintf("import from %q module not allowed; %s", module, hint),
	}
}

// Unsupported reports a descriptor shape with no marshaling strategy.
func Unsupported(phase Phase, binding, what string) *Error {
	return &Error{
		Phase:   phase,
		Kind:    KindUnsupported,
		Binding: binding,
		Detail:  what,
	}
}

// InvalidData reports malformed binary module or metadata content.
func InvalidData(phase Phase, detail string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}

// MissingMemory reports a module with neither a defined nor imported memory.
func MissingMemory() *Error {
	return &Error{
		Phase:  PhaseFinalize,
		Kind:   KindMissingMemory,
		Detail: "module neither defines nor imports a linear memory",
	}
}

// InterpreterFailed reports a descriptor query that could not be evaluated.
func InterpreterFailed(binding string, cause error) *Error {
	return &Error{
		Phase:   PhaseDescribe,
		Kind:    KindInterpreterFailed,
		Binding: binding,
		Detail:  "descriptor query evaluation failed",
		Cause:   cause,
	}
}
