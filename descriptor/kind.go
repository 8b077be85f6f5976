package descriptor

// Kind tags the shape of a value crossing the host boundary.
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32
	KindI64
	KindU64
	KindF32
	KindF64
	KindChar
	KindString
	KindRef
	KindRefMut
	KindSlice
	KindVector
	KindAnyref
	KindEnum
	KindStruct
	KindOption
	KindFunction
	KindClosure
)

var kindNames = [...]string{
	KindUnit:     "unit",
	KindBool:     "bool",
	KindI8:       "i8",
	KindU8:       "u8",
	KindI16:      "i16",
	KindU16:      "u16",
	KindI32:      "i32",
	KindU32:      "u32",
	KindI64:      "i64",
	KindU64:      "u64",
	KindF32:      "f32",
	KindF64:      "f64",
	KindChar:     "char",
	KindString:   "string",
	KindRef:      "ref",
	KindRefMut:   "refmut",
	KindSlice:    "slice",
	KindVector:   "vector",
	KindAnyref:   "anyref",
	KindEnum:     "enum",
	KindStruct:   "struct",
	KindOption:   "option",
	KindFunction: "function",
	KindClosure:  "closure",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsNumber reports whether the kind is passed as a plain JS number.
func (k Kind) IsNumber() bool {
	switch k {
	case KindI8, KindU8, KindI16, KindU16, KindI32, KindU32, KindF32, KindF64, KindEnum:
		return true
	default:
		return false
	}
}

// Is64 reports whether the kind needs the 64-bit conversion shims.
func (k Kind) Is64() bool {
	return k == KindI64 || k == KindU64
}

// IsSigned64 reports whether the kind is the signed wide integer.
func (k Kind) IsSigned64() bool {
	return k == KindI64
}
