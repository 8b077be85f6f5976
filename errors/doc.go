// Package errors provides structured error types for the wasm-bindgen generator.
//
// Errors are categorized by Phase (where in the run the error occurred) and
// Kind (error category). Every error carries the name of the binding it
// belongs to, so a failed run identifies the offending export or import.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseExport, errors.KindMissingExport).
//		Binding("add").
//		Detail("export `__wbindgen_malloc` not found").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.MissingExport(errors.PhaseExport, "add", "__wbindgen_malloc")
//	err := errors.DuplicateConstructor("Point", "new")
//
// All errors implement the standard error interface and support errors.Is/As.
// Fatal generation errors abort the whole run; a missing descriptor for one
// binding (the binding itself was dead-code-eliminated) is reported as a
// skip by the callers, never through this package.
package errors
