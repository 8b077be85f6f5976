package bindgen_test

import (
	"strings"
	"testing"

	"github.com/wippyai/wasm-bindgen/bindgen"
	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

func placeholderImport(name string) wasm.Import {
	return wasm.Import{Module: program.PlaceholderModule, Name: name, Kind: wasm.KindFunc}
}

func TestPlaceholderImportsRetargeted(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbindgen_object_drop_ref"))

	out := generate(t, m, &program.Program{}, describeMap(nil), bindgen.Options{})

	if !strings.Contains(out.JS, "export function __wbindgen_object_drop_ref(i)") {
		t.Errorf("intrinsic not bound:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "function dropRef(idx)") {
		t.Errorf("dropRef helper not exposed:\n%s", out.JS)
	}
	if m.Imports[0].Module != "./test" {
		t.Errorf("placeholder import not retargeted, got %q", m.Imports[0].Module)
	}
}

func TestIntrinsicNotBoundWithoutImport(t *testing.T) {
	out := generate(t, plainModule(), &program.Program{}, describeMap(nil), bindgen.Options{})

	if strings.Contains(out.JS, "__wbindgen_object_drop_ref") {
		t.Errorf("intrinsic bound without an import:\n%s", out.JS)
	}
}

func TestMathImportRewritten(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports,
		wasm.Import{Module: "env", Name: "Math_tan", Kind: wasm.KindFunc},
		wasm.Import{Module: "env", Name: "some_host_fn", Kind: wasm.KindFunc})

	out := generate(t, m, &program.Program{}, describeMap(nil), bindgen.Options{})

	if m.Imports[0].Module != "./test" || m.Imports[0].Name != "__wbindgen_Math_tan" {
		t.Errorf("math import not rewritten: %+v", m.Imports[0])
	}
	if !strings.Contains(out.JS, "export function __wbindgen_Math_tan(x)") {
		t.Errorf("math shim not exported:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "return Math.tan(x);") {
		t.Errorf("math shim body wrong:\n%s", out.JS)
	}
	if m.Imports[1].Module != "env" || m.Imports[1].Name != "some_host_fn" {
		t.Errorf("unrelated env import touched: %+v", m.Imports[1])
	}
}

func TestUnusedInternalExportsTrimmed(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "greet"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("greet"): fnRefStrVoid})
	m := plainModule("greet", "__wbindgen_malloc", "__wbindgen_free", "__wbindgen_global_argument_ptr")

	generate(t, m, prog, desc, bindgen.Options{})

	if !m.HasExport("__wbindgen_malloc") || !m.HasExport("__wbindgen_free") {
		t.Error("exports needed by the glue were trimmed")
	}
	if m.HasExport("__wbindgen_global_argument_ptr") {
		t.Error("unused internal export survived")
	}
	if !m.HasExport("greet") {
		t.Error("public export trimmed")
	}
}

func TestClosureWrapperFactory(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbindgen_closure_wrapper42"))
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery("__wbindgen_closure_wrapper42"): {12, 7, 8, 0, 11, 1, 4, 23},
	})

	out := generate(t, m, &program.Program{}, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "cb.f = wasm.__wbg_function_table.get(7);") {
		t.Errorf("trampoline not looked up by shim index:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "cb.original = cb;") {
		t.Errorf("disposal anchor missing:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "return addHeapObject(cb);") {
		t.Errorf("factory must hand back a heap handle:\n%s", out.JS)
	}
	if !m.HasExport(program.FunctionTableExport) {
		t.Error("function table not exported")
	}
}

func TestImportedMemoryReExported(t *testing.T) {
	m := &wasm.Module{Imports: []wasm.Import{
		{Module: "env", Name: "memory", Kind: wasm.KindMemory, Memory: &wasm.MemoryType{Min: 17}},
		placeholderImport("__wbindgen_memory"),
	}}

	out := generate(t, m, &program.Program{}, describeMap(nil), bindgen.Options{})

	if !strings.Contains(out.JS, "export const memory = new WebAssembly.Memory({initial:17});") {
		t.Errorf("glue-owned memory not exported:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "return addHeapObject(memory);") {
		t.Errorf("memory intrinsic must use the glue-owned memory:\n%s", out.JS)
	}
	if m.Imports[0].Module != "./test" {
		t.Errorf("memory import not retargeted, got %q", m.Imports[0].Module)
	}
}

func TestNodeAssembly(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "add"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("add"): fnI32I32toI32})

	out := generate(t, plainModule("add"), prog, desc, bindgen.Options{Mode: bindgen.ModeNode})

	if !strings.Contains(out.JS, "var wasm;") {
		t.Errorf("missing deferred wasm binding:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "wasm = require('./test_bg');") {
		t.Errorf("missing footer require:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "module.exports.add = function(arg0, arg1)") {
		t.Errorf("export not phrased for commonjs:\n%s", out.JS)
	}
	if strings.Contains(out.JS, "import * as wasm") {
		t.Errorf("esm import leaked into commonjs output:\n%s", out.JS)
	}
}

func TestNoModulesAssembly(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "add"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("add"): fnI32I32toI32})

	out := generate(t, plainModule("add"), prog, desc,
		bindgen.Options{Mode: bindgen.ModeNoModules, NoModulesGlobal: "my_app"})

	for _, want := range []string{
		"const __exports = {};",
		"__exports.add = function(arg0, arg1)",
		"WebAssembly.instantiateStreaming(fetchPromise, { './test': __exports });",
		"self.my_app = Object.assign(init, __exports);",
	} {
		if !strings.Contains(out.JS, want) {
			t.Errorf("missing %q:\n%s", want, out.JS)
		}
	}
}

func TestNoModulesRejectsModuleImports(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_f_abc123"))
	prog := &program.Program{Imports: []program.Import{{
		Kind:     program.ImportKindFunction,
		Module:   "some-npm-package",
		Function: &program.ImportFunction{Name: "f", Shim: "__wbg_f_abc123"},
	}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("__wbg_f_abc123"): fnVoid})

	_, err := bindgen.Process(m, prog, desc, "test", bindgen.Options{Mode: bindgen.ModeNoModules})
	if err == nil {
		t.Fatal("expected disallowed import error")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindDisallowedImport {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestImportIdentifierDedup(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports,
		placeholderImport("__wbg_now_a"),
		placeholderImport("__wbg_now_b"),
		placeholderImport("__wbg_now_c"))
	prog := &program.Program{Imports: []program.Import{
		{Kind: program.ImportKindFunction, Module: "perf-a",
			Function: &program.ImportFunction{Name: "now", Shim: "__wbg_now_a"}},
		{Kind: program.ImportKindFunction, Module: "perf-a",
			Function: &program.ImportFunction{Name: "now", Shim: "__wbg_now_b"}},
		{Kind: program.ImportKindFunction, Module: "perf-b",
			Function: &program.ImportFunction{Name: "now", Shim: "__wbg_now_c"}},
	}}
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery("__wbg_now_a"): fnVoid,
		program.DescribeQuery("__wbg_now_b"): fnVoid,
		program.DescribeQuery("__wbg_now_c"): fnVoid,
	})

	out := generate(t, m, prog, desc, bindgen.Options{})

	if got := strings.Count(out.JS, "import { now } from 'perf-a';"); got != 1 {
		t.Errorf("same-origin import emitted %d times:\n%s", got, out.JS)
	}
	if !strings.Contains(out.JS, "import { now as now2 } from 'perf-b';") {
		t.Errorf("colliding identifier not aliased:\n%s", out.JS)
	}
}

func TestNominalMethodFallsBackAtCallTime(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_bar_xyz"))
	prog := &program.Program{Imports: []program.Import{{
		Kind:   program.ImportKindFunction,
		Module: "host-lib",
		Function: &program.ImportFunction{
			Name: "bar",
			Shim: "__wbg_bar_xyz",
			Method: &program.Method{
				Class: "Foo",
				Kind:  program.MethodOperation,
				Op:    program.OpRegular,
			},
		},
	}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("__wbg_bar_xyz"): fnRefAnyVoid})

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "const __wbg_bar_xyz_target = Foo.prototype.bar || function() {") {
		t.Errorf("prototype lookup not captured with fallback:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "throw new Error(`wasm-bindgen: Foo.prototype.bar does not exist`);") {
		t.Errorf("missing call-time failure:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "__wbg_bar_xyz_target.call(getObject(arg0))") {
		t.Errorf("shim must invoke through the captured target:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "import { Foo } from 'host-lib';") {
		t.Errorf("host class not imported:\n%s", out.JS)
	}
}

func TestMethodImportWithoutClassFails(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_bar_xyz"))
	prog := &program.Program{Imports: []program.Import{{
		Kind:   program.ImportKindFunction,
		Module: "host-lib",
		Function: &program.ImportFunction{
			Name:   "bar",
			Shim:   "__wbg_bar_xyz",
			Method: &program.Method{Kind: program.MethodOperation, Op: program.OpRegular},
		},
	}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("__wbg_bar_xyz"): fnRefAnyVoid})

	_, err := bindgen.Process(m, prog, desc, "test", bindgen.Options{})
	if err == nil {
		t.Fatal("expected unresolved target error")
	}
	e, ok := err.(*errors.Error)
	if !ok || e.Kind != errors.KindUnresolvedTarget {
		t.Fatalf("wrong error: %v", err)
	}
}

func TestStructuralGetterLooksUpPerCall(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_value_get"))
	prog := &program.Program{Imports: []program.Import{{
		Kind: program.ImportKindFunction,
		Function: &program.ImportFunction{
			Name:       "value",
			Shim:       "__wbg_value_get",
			Structural: true,
			Method: &program.Method{
				Class: "Foo",
				Kind:  program.MethodOperation,
				Op:    program.OpGetter,
				Name:  "value",
			},
		},
	}}}
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery("__wbg_value_get"): {11, 1, 14, 18, 9},
	})

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "return this.value;") {
		t.Errorf("structural getter must read off the receiver:\n%s", out.JS)
	}
	if strings.Contains(out.JS, "GetOwnOrInheritedPropertyDescriptor") {
		t.Errorf("structural getter captured a descriptor:\n%s", out.JS)
	}
}

func TestCatchImportWritesExceptionFlags(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_risky_op"))
	prog := &program.Program{Imports: []program.Import{{
		Kind: program.ImportKindFunction,
		Function: &program.ImportFunction{
			Name:  "risky",
			Shim:  "__wbg_risky_op",
			Catch: true,
		},
	}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("__wbg_risky_op"): fnVoid})

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "view[exnptr / 4] = 1;") {
		t.Errorf("exception flag not written:\n%s", out.JS)
	}
	if !strings.Contains(out.JS, "view[exnptr / 4 + 1] = addHeapObject(e);") {
		t.Errorf("caught exception not handed over:\n%s", out.JS)
	}
}

func TestVariadicImportSpreadsLastArgument(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_join_all"))
	prog := &program.Program{Imports: []program.Import{{
		Kind: program.ImportKindFunction,
		Function: &program.ImportFunction{
			Name:     "join",
			Shim:     "__wbg_join_all",
			Variadic: true,
		},
	}}}
	desc := describeMap(map[string][]uint32{
		program.DescribeQuery("__wbg_join_all"): {11, 2, 18, 18, 23},
	})

	out := generate(t, m, prog, desc, bindgen.Options{})

	if !strings.Contains(out.JS, "join(takeObject(arg0), ...takeObject(arg1))") {
		t.Errorf("last argument not spread:\n%s", out.JS)
	}
}

func TestInstanceofShim(t *testing.T) {
	m := plainModule()
	m.Imports = append(m.Imports, placeholderImport("__wbg_instanceof_Foo"))
	prog := &program.Program{Imports: []program.Import{{
		Kind:   program.ImportKindType,
		Module: "host-lib",
		Type:   &program.ImportType{Name: "Foo", InstanceofShim: "__wbg_instanceof_Foo"},
	}}}

	out := generate(t, m, prog, describeMap(nil), bindgen.Options{})

	if !strings.Contains(out.JS, "return getObject(idx) instanceof Foo ? 1 : 0;") {
		t.Errorf("instanceof shim wrong:\n%s", out.JS)
	}
}

func TestBlankLineRunsCollapsed(t *testing.T) {
	prog := &program.Program{Exports: []program.Export{{Name: "add"}}}
	desc := describeMap(map[string][]uint32{program.DescribeQuery("add"): fnI32I32toI32})

	out := generate(t, plainModule("add"), prog, desc, bindgen.Options{})

	if strings.Contains(out.JS, "\n\n\n") {
		t.Errorf("triple blank line survived finalization:\n%q", out.JS)
	}
}
