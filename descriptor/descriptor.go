package descriptor

// Descriptor is the tagged description of a value's shape. Descriptors are
// immutable: produced by Decode once per query and consumed by the
// generators, never mutated or shared across runs.
type Descriptor struct {
	Kind    Kind
	Inner   *Descriptor // element of Ref/RefMut/Slice/Vector/Option
	Name    string      // Struct name
	Func    *Function   // Function/Closure signature
	Closure *Closure    // Closure dispatch info
	Clamped bool        // u8 vectors surfaced as Uint8ClampedArray
}

// Function is a function-shaped descriptor. The arity of Args always equals
// the number of formal parameters in the described signature.
type Function struct {
	Args []Descriptor
	Ret  Descriptor
}

// Closure carries the module-side representation of a reified closure:
// the trampoline table index, the destructor shim and the signature.
type Closure struct {
	ShimIdx uint32
	DtorIdx uint32
	Mutable bool
	Func    Function
}

// Unwrap strips Ref/RefMut wrappers, returning the referent shape.
func (d *Descriptor) Unwrap() *Descriptor {
	cur := d
	for cur.Kind == KindRef || cur.Kind == KindRefMut {
		cur = cur.Inner
	}
	return cur
}

// GetFunction returns the function signature behind d, looking through
// references. Returns nil when d is not function-shaped.
func (d *Descriptor) GetFunction() *Function {
	u := d.Unwrap()
	if u.Kind == KindFunction || u.Kind == KindClosure {
		return u.Func
	}
	return nil
}

// VectorKind classifies the element shape of a Slice or Vector descriptor
// so generators can pick the matching typed view and pass/get helper.
func (d *Descriptor) VectorKind() (VectorKind, bool) {
	u := d.Unwrap()
	if u.Kind == KindString {
		return VectorString, true
	}
	if u.Kind != KindSlice && u.Kind != KindVector {
		return 0, false
	}
	switch u.Inner.Kind {
	case KindString:
		return VectorString, true
	case KindI8:
		return VectorI8, true
	case KindU8:
		if u.Inner.Clamped {
			return VectorClampedU8, true
		}
		return VectorU8, true
	case KindI16:
		return VectorI16, true
	case KindU16:
		return VectorU16, true
	case KindI32:
		return VectorI32, true
	case KindU32:
		return VectorU32, true
	case KindI64:
		return VectorI64, true
	case KindU64:
		return VectorU64, true
	case KindF32:
		return VectorF32, true
	case KindF64:
		return VectorF64, true
	case KindAnyref:
		return VectorAnyref, true
	default:
		return 0, false
	}
}

// VectorKind classifies vector element shapes.
type VectorKind uint8

const (
	VectorString VectorKind = iota
	VectorI8
	VectorU8
	VectorClampedU8
	VectorI16
	VectorU16
	VectorI32
	VectorU32
	VectorI64
	VectorU64
	VectorF32
	VectorF64
	VectorAnyref
)

// Size returns the element width in bytes inside linear memory.
func (v VectorKind) Size() int {
	switch v {
	case VectorString, VectorI8, VectorU8, VectorClampedU8:
		return 1
	case VectorI16, VectorU16:
		return 2
	case VectorI32, VectorU32, VectorF32, VectorAnyref:
		return 4
	case VectorI64, VectorU64, VectorF64:
		return 8
	}
	return 0
}

// TS returns the TypeScript surface type for the vector.
func (v VectorKind) TS() string {
	switch v {
	case VectorString:
		return "string"
	case VectorI8:
		return "Int8Array"
	case VectorU8:
		return "Uint8Array"
	case VectorClampedU8:
		return "Uint8ClampedArray"
	case VectorI16:
		return "Int16Array"
	case VectorU16:
		return "Uint16Array"
	case VectorI32:
		return "Int32Array"
	case VectorU32:
		return "Uint32Array"
	case VectorI64:
		return "BigInt64Array"
	case VectorU64:
		return "BigUint64Array"
	case VectorF32:
		return "Float32Array"
	case VectorF64:
		return "Float64Array"
	case VectorAnyref:
		return "any[]"
	}
	return "any"
}
