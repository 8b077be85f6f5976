// Package descriptor models the tagged type descriptions that drive
// marshaling code generation.
//
// A Descriptor is recovered per binding by evaluating a convention-named
// query export inside the wasm module (see the interp package); the query
// streams one u32 per tag plus payload words, and Decode turns that stream
// into the closed Descriptor sum consumed by the generators.
//
// Descriptors are ephemeral: decoded once per query, walked once during
// generation, then dropped. Every consumption site switches exhaustively
// over Kind so a new descriptor shape is a compile-visible change.
package descriptor
