// Package reftable is the executable model of the reference-table
// protocol the generator emits into JS glue.
//
// The protocol lets numeric-only module code refer to opaque host values:
// a growable, reference-counted slab for values of indeterminate lifetime
// (even handles) and a bounded borrow stack for call-scoped values (odd
// handles). Freed slab cells thread a free list through the vacated slot,
// so allocation and release are O(1) and a handle is never reused while
// its refcount is nonzero.
//
// The generator emits this logic as JS text (see the bindgen package);
// this package implements identical semantics in Go so the protocol's
// invariants are tested directly rather than by eyeballing emitted source.
package reftable
