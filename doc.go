// Package wasmbindgen generates the JavaScript glue and TypeScript
// declarations a compiled WebAssembly module needs to talk to a host
// environment, and rewrites the module binary to match.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasmbindgen/
//	├── bindgen/     glue and declaration generation over a parsed module
//	├── program/     boundary metadata decoding and naming conventions
//	├── descriptor/  type descriptors recovered from the module
//	├── interp/      wazero-backed evaluation of descriptor queries
//	├── wasm/        binary parsing, rewriting and section-level gc
//	├── reftable/    executable model of the host handle protocol
//	├── errors/      structured error types for failed runs
//	└── cmd/         the wasm-bindgen command line front end
//
// # Quick Start
//
// Generate bindings for a compiled module:
//
//	module, err := wasm.ParseModule(data)
//	prog, err := bindgen.DecodeProgram(module)
//	it, err := interp.New(ctx, data)
//	defer it.Close(ctx)
//
//	out, err := bindgen.Process(module, prog, func(query string) ([]uint32, error) {
//		return it.Interpret(ctx, query)
//	}, "app", bindgen.Options{})
//
// out carries the glue JS, the declaration text and the rewritten binary,
// ready to be written next to each other as app.js, app.d.ts and
// app_bg.wasm.
package wasmbindgen
