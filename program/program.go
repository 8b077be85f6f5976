package program

// Program is the structured description of a module's boundary surface,
// decoded from compiled-in metadata. It drives all generation passes.
type Program struct {
	Exports []Export `msgpack:"exports"`
	Imports []Import `msgpack:"imports"`
	Structs []Struct `msgpack:"structs"`
	Enums   []Enum   `msgpack:"enums"`
}

// Export is a module-defined function exposed to the host, optionally
// attached to a class.
type Export struct {
	Name          string   `msgpack:"name"`
	Class         string   `msgpack:"class"` // empty for free functions
	Method        bool     `msgpack:"method"`
	Consumed      bool     `msgpack:"consumed"` // takes ownership of the receiver
	IsConstructor bool     `msgpack:"is_constructor"`
	Comments      []string `msgpack:"comments"`
}

// ImportKind discriminates the import variants.
type ImportKind uint8

const (
	ImportKindFunction ImportKind = iota
	ImportKindStatic
	ImportKindType
	ImportKindEnum
)

// Import is a host-side item the module expects to call or reference.
type Import struct {
	Kind      ImportKind      `msgpack:"kind"`
	Module    string          `msgpack:"module"` // origin module, empty for the global namespace
	Namespace string          `msgpack:"namespace"`
	Function  *ImportFunction `msgpack:"function"`
	Static    *ImportStatic   `msgpack:"static"`
	Type      *ImportType     `msgpack:"type"`
}

// ImportFunction is a callable host target resolved by a placeholder import.
type ImportFunction struct {
	Name       string  `msgpack:"name"`
	Shim       string  `msgpack:"shim"` // placeholder import field name
	Structural bool    `msgpack:"structural"`
	Catch      bool    `msgpack:"catch"`
	Variadic   bool    `msgpack:"variadic"`
	Method     *Method `msgpack:"method"`
}

// ImportStatic is a host value imported by identity.
type ImportStatic struct {
	Name string `msgpack:"name"`
	Shim string `msgpack:"shim"`
}

// ImportType is a host class referenced for instanceof checks.
type ImportType struct {
	Name           string `msgpack:"name"`
	InstanceofShim string `msgpack:"instanceof_shim"`
}

// MethodKind discriminates constructor calls from operations.
type MethodKind uint8

const (
	MethodConstructor MethodKind = iota
	MethodOperation
)

// OperationKind classifies how an operation binds to its receiver.
type OperationKind uint8

const (
	OpRegular OperationKind = iota
	OpGetter
	OpSetter
	OpIndexingGetter
	OpIndexingSetter
	OpIndexingDeleter
)

// Method describes how an imported function binds to a host class.
type Method struct {
	Class    string        `msgpack:"class"`
	Kind     MethodKind    `msgpack:"kind"`
	Op       OperationKind `msgpack:"op"`
	IsStatic bool          `msgpack:"is_static"`
	Name     string        `msgpack:"name"` // property name for getters/setters
}

// Struct is a module-defined type exposed to the host as a class.
type Struct struct {
	Name     string   `msgpack:"name"`
	Fields   []Field  `msgpack:"fields"`
	Comments []string `msgpack:"comments"`
}

// Field is one public struct field surfaced as an accessor pair.
type Field struct {
	Name     string   `msgpack:"name"`
	Readonly bool     `msgpack:"readonly"`
	Comments []string `msgpack:"comments"`
}

// Enum is a module-defined enum with named integer variants.
type Enum struct {
	Name     string        `msgpack:"name"`
	Variants []EnumVariant `msgpack:"variants"`
	Comments []string      `msgpack:"comments"`
}

// EnumVariant is one named integer value.
type EnumVariant struct {
	Name  string `msgpack:"name"`
	Value uint32 `msgpack:"value"`
}
