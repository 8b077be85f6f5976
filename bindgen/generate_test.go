package bindgen_test

import (
	"strings"
	"testing"

	"github.com/wippyai/wasm-bindgen/bindgen"
	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

// descriptor streams used across the tests, in wire form
var (
	fnI32I32toI32 = []uint32{11, 2, 4, 4, 4}      // function(i32, i32) -> i32
	fnVoid        = []uint32{11, 0, 23}           // function() -> unit
	fnRefStrVoid  = []uint32{11, 1, 14, 13, 23}   // function(&str) -> unit
	fnRefAnyVoid  = []uint32{11, 1, 14, 18, 23}   // function(&anyref) -> unit
	fnToString    = []uint32{11, 0, 13}           // function() -> string
	fnF64SliceSum = []uint32{11, 1, 14, 16, 9, 9} // function(&[f64]) -> f64
	descF64       = []uint32{9}                   // f64 field
)

func describeMap(m map[string][]uint32) bindgen.DescribeFunc {
	return func(query string) ([]uint32, error) {
		return m[query], nil
	}
}

func plainModule(exports ...string) *wasm.Module {
	m := &wasm.Module{Memories: []wasm.MemoryType{{Min: 1}}}
	for i, name := range exports {
		m.Exports = append(m.Exports, wasm.Export{Name: name, Kind: wasm.KindFunc, Index: uint32(i)})
	}
	return m
}

func generate(t *testing.T, m *wasm.Module, prog *program.Program, desc bindgen.DescribeFunc, opts bindgen.Options) *bindgen.Output {
	t.Helper()
	out, err := bindgen.Process(m, prog, desc, "test", opts)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	return out
}

func TestNumericExportBypassesRefTable(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "add"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("add"): fnI32I32toI32})

	out := generate(t, plainModule("add"), prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "export function add(arg0, arg1)") {
		t.Errorf("missing export function:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "return wasm.add(arg0, arg1);") {
		t.Errorf("missing direct call:\n%s", out.JS)
	}
	for _, banned := range []string{"addHeapObject", "slab", "stack"} {
		if strings.Contains(out.JS, banned) {
			t.Errorf("numeric-only glue pulled in %q:\n%s", banned, out.JS)
		}
	}
	if !strings.Contains(out.TypeScript, "export function add(arg0: number, arg1: number): number;") {
		t.Errorf("typescript surface wrong:\n%s", out.TypeScript)
	}
}

func TestDebugModeEmitsArgumentAssertions(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "add"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("add"): fnI32I32toI32})

	plain := generate(t, plainModule("add"), prog, desc, bindgen.Options{})
	if strings.Contains(plain.JS, "_assertNum") {
		t.Errorf("assertions emitted without debug:\n%s", plain.JS)
	}

	debug := generate(t, plainModule("add"), prog, desc, bindgen.Options{Debug: true})
	if !strings.Contains(debug.JS, "_assertNum(arg0);") {
		t.Errorf("debug assertions missing:\n%s", debug.JS)
	}
}

func TestBorrowedStringArgumentFreedAfterCall(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "greet"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("greet"): fnRefStrVoid})
	m := plainModule("greet", "__wbindgen_malloc", "__wbindgen_free")

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "passStringToWasm(arg0)") {
		t.Errorf("missing string copy-in:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm.__wbindgen_free(ptr0, len0 * 1);") {
		t.Errorf("borrowed string not freed:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "try {") || !strings.Contains(out.JS, "} finally {") {
		t.Errorf("free not in finally:\n%s", out.JS)
	}
}

func TestSliceArgumentCopiedThroughTypedView(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "sum"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("sum"): fnF64SliceSum})
	m := plainModule("sum", "__wbindgen_malloc", "__wbindgen_free")

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "const [ptr0, len0] = passArrayF64ToWasm(arg0);") {
		t.Errorf("missing array copy-in:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "getFloat64Memory().set(arg, ptr / 8);") {
		t.Errorf("pass helper does not write through the f64 view:\n%s", out.JS)
	}
	if strings.Contains(out.JS, "(MISSING)") {
		t.Errorf("pass helper text corrupted:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm.sum(ptr0, len0)") {
		t.Errorf("(ptr, len) pair not passed:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm.__wbindgen_free(ptr0, len0 * 8);") {
		t.Errorf("borrowed slice not freed:\n%s", out.JS)
	}
	if !strings.Contains(out.TypeScript, "arg0: Float64Array") {
		t.Errorf("typescript surface wrong:\n%s", out.TypeScript)
	}
}

func TestBorrowedObjectBalancesStack(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "inspect"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("inspect"): fnRefAnyVoid})

	out := generate(t, plainModule("inspect"), prog, desc, bindgen.Options{Debug: true})

	if !strings.Contains(out.JS, "addBorrowedObject(arg0)") {
		t.Errorf("missing borrowed push:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "stack.pop();") {
		t.Errorf("missing stack pop in finally:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "assertStackEmpty") {
		t.Errorf("debug stack assertion not exported:\n%s", out.JS)
	}
}

func TestStringReturnUsesRetptrAndFrees(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "describe"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("describe"): fnToString})
	m := plainModule("describe", "__wbindgen_free", "__wbindgen_global_argument_ptr")

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "const retptr = globalArgumentPtr();") {
		t.Errorf("missing retptr reservation:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm.describe(retptr)") {
		t.Errorf("retptr not passed first:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm.__wbindgen_free(rustptr, rustlen * 1);") {
		t.Errorf("returned string not freed:\n%s", out.JS)
	}
}

func TestStringReturnWithoutScratchExportFails(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "describe"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("describe"): fnToString})

	_, err := bindgen.Process(plainModule("describe"), prog, desc, "test", bindgen.Options{})
	if err == nil {
		t.Fatal("expected missing export error")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindMissingExport {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestConsumingMethodZeroesReceiver(t *testing.T) {
	prog := &program.Program{
		Exports: []program.Export{
			{Name: "consume", Class: "Point", Method: true, Consumed: true},
		},
		Structs: []program.Struct{{Name: "Point"}},
	}
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery(program.StructFunction("Point", "consume")): fnVoid,
	})

	out := generate(t, plainModule(), prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "const ptr = this.ptr;\nthis.ptr = 0;") {
		t.Errorf("receiver not zeroed before call:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm.point_consume(ptr)") {
		t.Errorf("zeroed ptr not passed:\n%s", out.JS)
	}
}

func TestClassSurface(t *testing.T) {
	prog := &program.Program{
		Exports: []program.Export{
			{Name: "new", Class: "Point", IsConstructor: true},
			{Name: "norm", Class: "Point", Method: true},
		},
		Structs: []program.Struct{{
			Name: "Point",
			Fields: []program.Field{
				{Name: "x"},
				{Name: "y", Readonly: true},
			},
		}},
	}
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery(program.StructFunction("Point", "new")):  fnVoid,
		program.DescribeQuery(program.StructFunction("Point", "norm")): fnVoid,
		program.DescribeQuery(program.FieldGetter("Point", "x")):       descF64,
		program.DescribeQuery(program.FieldGetter("Point", "y")):       descF64,
	})

	out := generate(t, plainModule(), prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "export class Point {") {
		t.Errorf("missing class declaration:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "get x(") || !strings.Contains(out.JS, "set x(") {
		t.Errorf("mutable field needs both accessors:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "get y(") {
		t.Errorf("readonly field needs a getter:\n%s", out.JS)
	}
	if strings.Contains(out.JS, "set y(") {
		t.Errorf("readonly field must not have a setter:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "freePoint(ptr)") || !strings.Contains(out.JS, "wasm.__wbg_point_free(ptr)") {
		t.Errorf("missing free plumbing:\n%s", out.JS)
	}
	if !strings.Contains(out.TypeScript, "readonly y: number") {
		t.Errorf("readonly marker missing in typescript:\n%s", out.TypeScript)
	}
	if !strings.Contains(out.TypeScript, "free(): void;") {
		t.Errorf("free missing in typescript:\n%s", out.TypeScript)
	}
}

func TestDuplicateConstructorFails(t *testing.T) {
	prog := &program.Program{
		Exports: []program.Export{
			{Name: "new", Class: "Point", IsConstructor: true},
			{Name: "origin", Class: "Point", IsConstructor: true},
		},
	}
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery(program.StructFunction("Point", "new")):    fnVoid,
		program.DescribeQuery(program.StructFunction("Point", "origin")): fnVoid,
	})

	_, err := bindgen.Process(plainModule(), prog, desc, "test", bindgen.Options{})
	if err == nil {
		t.Fatal("expected duplicate constructor error")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindDuplicateCtor || e.Binding != "Point" {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestEliminatedBindingIsSkipped(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "gone"}, {Name: "add"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("add"): fnI32I32toI32})

	out := generate(t, plainModule("add"), prog, desc, bindgen.Options{})

	if strings.Contains(out.JS, "gone") {
		t.Errorf("eliminated binding still surfaced:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "export function add") {
		t.Errorf("surviving binding missing:\n%s", out.JS)
	}
}

func TestEnumSurface(t *testing.T) {
	prog := &program.Program{Enums: []program.Enum{{
		Name: "Color",
		Variants: []program.EnumVariant{
			{Name: "Red", Value: 0},
			{Name: "Green", Value: 1},
		},
	}}}

	out := generate(t, plainModule(), prog, describeMap(nil), bindgen.Options{})

	if !strings.Contains(out.JS, "Object.freeze({ Red:0,Green:1, })") {
		t.Errorf("enum object wrong:\n%s", out.JS)
	}
	if !strings.Contains(out.TypeScript, "export enum Color {Red,Green,}") {
		t.Errorf("enum typescript wrong:\n%s", out.TypeScript)
	}
}
