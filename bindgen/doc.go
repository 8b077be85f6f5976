// Package bindgen generates the JS glue module and TypeScript declarations
// for a compiled wasm module, and rewrites the module binary to match.
//
// Generation is driven by three inputs: the parsed binary (package wasm),
// the program description compiled into its custom section (package
// program), and type descriptors recovered by evaluating query exports
// (package interp via the DescribeFunc). A Context accumulates emitted
// text across all passes; Finalize binds the live intrinsics, retargets
// the module's placeholder imports at the glue itself, trims internal
// exports nothing ended up using and assembles the output for the
// configured loader.
//
// Handles passed across the boundary follow the split reference table
// protocol modeled by package reftable: even handles own refcounted slab
// cells, odd handles borrow stack slots scoped to one call.
package bindgen
