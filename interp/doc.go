// Package interp recovers type descriptors from a compiled module.
//
// The AOT compiler emits one query export per described binding
// (program.DescribeQuery) whose body streams the binding's descriptor,
// one u32 at a time, through the __wbindgen_describe import. This package
// instantiates the module under wazero with that import recording and all
// other imports stubbed, invokes the query export, and hands the recorded
// stream to descriptor.Decode.
//
// A query export that no longer exists means the binding was eliminated
// before generation ran; Interpret reports that as (nil, nil) so callers
// skip the binding instead of failing the run.
package interp
