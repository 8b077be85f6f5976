// Package wasm provides the binary-module mutation primitives the glue
// generator needs: parse a module, rewrite its import origins, retain or
// strip export entries, inspect memory limits, and encode it back out.
//
// Unlike a general-purpose codec, parsing here is section-preserving:
// every section is kept in original order with its raw payload, and only
// the import, export and memory sections are decoded into mutable
// structures. Code, data, types and all other sections round-trip byte
// for byte, which makes rewrites cheap and keeps the package honest about
// what it understands.
//
//	m, err := wasm.ParseModule(data)
//	for i := range m.Imports {
//	    if m.Imports[i].Module == "__wbindgen_placeholder__" {
//	        m.Imports[i].Module = "./my_module"
//	    }
//	}
//	out := m.Encode()
//
// GC is the dead-code elimination collaborator invoked during assembly;
// it is idempotent, so running it twice over an already-finalized module
// changes nothing.
package wasm
