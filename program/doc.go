// Package program models the structured program description driving
// generation: exported and imported functions, structs with fields, and
// enums with named integer variants.
//
// The description is produced by the AOT compiler and embedded in the
// module as a msgpack-encoded custom section; Decode recovers it. The
// package also centralizes the export-name conventions (describe queries,
// destructor and accessor export names, the placeholder import origin)
// shared with the compiler.
package program
