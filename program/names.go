package program

import "strings"

// Export-name conventions shared between the AOT compiler and this
// generator. The module is compiled against these exact strings; changing
// one here without the matching compiler change breaks every binding.

// PlaceholderModule is the origin the compiler records on every import
// that generation later resolves to host glue.
const PlaceholderModule = "__wbindgen_placeholder__"

// Well-known internal exports required by generated glue.
const (
	ExportMalloc       = "__wbindgen_malloc"
	ExportGlobalArgPtr = "__wbindgen_global_argument_ptr"
)

// InternalPrefix marks module exports that exist only to support generated
// glue and are stripped when no emission step required them.
const InternalPrefix = "__wbindgen"

// FunctionTableExport is the name under which the module's function table
// is exported when closure reification needs it.
const FunctionTableExport = "__wbg_function_table"

// ProgramSection is the custom section carrying the msgpack-encoded
// Program description.
const ProgramSection = "__wasm_bindgen_program"

// DescribeQuery returns the convention-named query export whose evaluation
// yields the type descriptor for name.
func DescribeQuery(name string) string {
	return "__wbindgen_describe_" + name
}

// FreeFunction returns the destructor export for a class.
func FreeFunction(class string) string {
	return "__wbg_" + strings.ToLower(class) + "_free"
}

// NewFunction returns the wrap-from-raw-pointer shim import for a class.
func NewFunction(class string) string {
	return "__wbg_" + strings.ToLower(class) + "_new"
}

// FieldGetter returns the getter export for a struct field.
func FieldGetter(class, field string) string {
	return "__wbg_get_" + strings.ToLower(class) + "_" + field
}

// FieldSetter returns the setter export for a struct field.
func FieldSetter(class, field string) string {
	return "__wbg_set_" + strings.ToLower(class) + "_" + field
}

// StructFunction returns the export name of a class-attached function.
func StructFunction(class, fn string) string {
	return strings.ToLower(class) + "_" + fn
}
