package bindgen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

// mathShims are the compiler-emitted env imports with no wasm opcode
// equivalent, rebound to JS Math calls on the glue module.
var mathShims = map[string]string{
	"Math_acos":  "(x) { return Math.acos(x); }",
	"Math_asin":  "(x) { return Math.asin(x); }",
	"Math_atan":  "(x) { return Math.atan(x); }",
	"Math_atan2": "(x, y) { return Math.atan2(x, y); }",
	"Math_cbrt":  "(x) { return Math.cbrt(x); }",
	"Math_cosh":  "(x) { return Math.cosh(x); }",
	"Math_expm1": "(x) { return Math.expm1(x); }",
	"Math_hypot": "(x, y) { return Math.hypot(x, y); }",
	"Math_log1p": "(x) { return Math.log1p(x); }",
	"Math_sinh":  "(x) { return Math.sinh(x); }",
	"Math_tan":   "(x) { return Math.tan(x); }",
	"Math_tanh":  "(x) { return Math.tanh(x); }",
}

// Finalize writes the accumulated classes, binds every live intrinsic,
// rewrites the module's import table to point at the glue, trims unused
// internal exports and assembles the output per the loader mode.
func (cx *Context) Finalize(moduleName string) (js, ts string, err error) {
	if err := cx.writeClasses(); err != nil {
		return "", "", err
	}
	if err := cx.bindIntrinsics(); err != nil {
		return "", "", err
	}

	cx.createMemoryExport()
	cx.unexportUnusedInternalExports()
	if err := cx.bindClosureWrappers(); err != nil {
		return "", "", err
	}
	cx.gc()

	// throw binds after gc: __wbindgen_malloc may call it, so it is only
	// live when malloc survived the collection above
	err = cx.bind("__wbindgen_throw", func() (string, error) {
		cx.exposeGetStringFromWasm()
		return `
function(ptr, len) {
    throw new Error(getStringFromWasm(ptr, len));
}
`, nil
	})
	if err != nil {
		return "", "", err
	}

	cx.rewriteImports(moduleName)
	out := cx.assemble(moduleName)

	cx.exportTable()
	cx.gc()
	if cx.opts.Demangle {
		cx.module.RenameFunctionNames(demangleName)
	}

	for strings.Contains(out, "\n\n\n") {
		out = strings.ReplaceAll(out, "\n\n\n", "\n\n")
	}

	Logger().Debug("finalized glue module",
		zap.String("module", moduleName),
		zap.Int("js_bytes", len(out)),
		zap.Bool("function_table", cx.functionTableNeeded))
	return out, cx.typescript, nil
}

// bindIntrinsics emits every placeholder intrinsic the module actually
// imports. Order is load-bearing only for readers; each bind is skipped
// when the import is absent.
func (cx *Context) bindIntrinsics() error {
	binds := []struct {
		name string
		gen  func() (string, error)
	}{
		{"__wbindgen_object_clone_ref", func() (string, error) {
			cx.exposeAddHeapObject()
			cx.exposeGetObject()
			bumpCnt := "val.cnt += 1;"
			if cx.opts.Debug {
				bumpCnt = "if (typeof(val) === 'number') throw new Error('corrupt slab');\n    " + bumpCnt
			}
			return fmt.Sprintf(`
function(idx) {
    // If this object is on the stack promote it to the heap.
    if ((idx & 1) === 1) return addHeapObject(getObject(idx));

    // Otherwise if the object is on the heap just bump the
    // refcount and move on
    const val = slab[idx >> 1];
    %s
    return idx;
}
`, bumpCnt), nil
		}},
		{"__wbindgen_object_drop_ref", func() (string, error) {
			cx.exposeDropRef()
			return `
function(i) {
    dropRef(i);
}
`, nil
		}},
		{"__wbindgen_string_new", func() (string, error) {
			cx.exposeAddHeapObject()
			cx.exposeGetStringFromWasm()
			return `
function(p, l) {
    return addHeapObject(getStringFromWasm(p, l));
}
`, nil
		}},
		{"__wbindgen_number_new", func() (string, error) {
			cx.exposeAddHeapObject()
			return `
function(i) {
    return addHeapObject(i);
}
`, nil
		}},
		{"__wbindgen_number_get", func() (string, error) {
			cx.exposeGetObject()
			cx.exposeUint8Memory()
			return `
function(n, invalid) {
    let obj = getObject(n);
    if (typeof(obj) === 'number') return obj;
    getUint8Memory()[invalid] = 1;
    return 0;
}
`, nil
		}},
		{"__wbindgen_is_null", func() (string, error) {
			cx.exposeGetObject()
			return `
function(idx) {
    return getObject(idx) === null ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_is_undefined", func() (string, error) {
			cx.exposeGetObject()
			return `
function(idx) {
    return getObject(idx) === undefined ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_boolean_get", func() (string, error) {
			cx.exposeGetObject()
			return `
function(i) {
    let v = getObject(i);
    if (typeof(v) === 'boolean') {
        return v ? 1 : 0;
    } else {
        return 2;
    }
}
`, nil
		}},
		{"__wbindgen_symbol_new", func() (string, error) {
			cx.exposeGetStringFromWasm()
			cx.exposeAddHeapObject()
			return `
function(ptr, len) {
    let a;
    if (ptr === 0) {
        a = Symbol();
    } else {
        a = Symbol(getStringFromWasm(ptr, len));
    }
    return addHeapObject(a);
}
`, nil
		}},
		{"__wbindgen_is_symbol", func() (string, error) {
			cx.exposeGetObject()
			return `
function(i) {
    return typeof(getObject(i)) === 'symbol' ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_is_object", func() (string, error) {
			cx.exposeGetObject()
			return `
function(i) {
    const val = getObject(i);
    return typeof(val) === 'object' && val !== null ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_is_function", func() (string, error) {
			cx.exposeGetObject()
			return `
function(i) {
    return typeof(getObject(i)) === 'function' ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_is_string", func() (string, error) {
			cx.exposeGetObject()
			return `
function(i) {
    return typeof(getObject(i)) === 'string' ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_string_get", func() (string, error) {
			if err := cx.exposePassStringToWasm(); err != nil {
				return "", err
			}
			cx.exposeGetObject()
			cx.exposeUint32Memory()
			return `
function(i, len_ptr) {
    let obj = getObject(i);
    if (typeof(obj) !== 'string') return 0;
    const [ptr, len] = passStringToWasm(obj);
    getUint32Memory()[len_ptr / 4] = len;
    return ptr;
}
`, nil
		}},
		{"__wbindgen_cb_drop", func() (string, error) {
			cx.exposeGetObject()
			cx.exposeDropRef()
			return `
function(i) {
    let obj = getObject(i).original;
    obj.a = obj.b = 0;
    dropRef(i);
}
`, nil
		}},
		{"__wbindgen_cb_forget", func() (string, error) {
			cx.exposeDropRef()
			return `
function(i) {
    dropRef(i);
}
`, nil
		}},
		{"__wbindgen_json_parse", func() (string, error) {
			cx.exposeAddHeapObject()
			cx.exposeGetStringFromWasm()
			return `
function(ptr, len) {
    return addHeapObject(JSON.parse(getStringFromWasm(ptr, len)));
}
`, nil
		}},
		{"__wbindgen_json_serialize", func() (string, error) {
			cx.exposeGetObject()
			if err := cx.exposePassStringToWasm(); err != nil {
				return "", err
			}
			cx.exposeUint32Memory()
			return `
function(idx, ptrptr) {
    const [ptr, len] = passStringToWasm(JSON.stringify(getObject(idx)));
    getUint32Memory()[ptrptr / 4] = ptr;
    return len;
}
`, nil
		}},
		{"__wbindgen_jsval_eq", func() (string, error) {
			cx.exposeGetObject()
			return `
function(a, b) {
    return getObject(a) === getObject(b) ? 1 : 0;
}
`, nil
		}},
		{"__wbindgen_memory", func() (string, error) {
			cx.exposeAddHeapObject()
			mem := cx.memory()
			return fmt.Sprintf(`
function() {
    return addHeapObject(%s);
}
`, mem), nil
		}},
		{"__wbindgen_rethrow", func() (string, error) {
			cx.exposeTakeObject()
			return "function(idx) { throw takeObject(idx); }", nil
		}},
	}
	for _, b := range binds {
		cx.binding = b.name
		if err := cx.bind(b.name, b.gen); err != nil {
			return err
		}
	}
	return nil
}

// createMemoryExport emits the WebAssembly.Memory the glue owns when the
// module imports its memory instead of defining it.
func (cx *Context) createMemoryExport() {
	if cx.memoryInit == nil {
		return
	}
	init := fmt.Sprintf("new WebAssembly.Memory({initial:%d", cx.memoryInit.Min)
	if cx.memoryInit.Max != nil {
		init += fmt.Sprintf(",maximum:%d", *cx.memoryInit.Max)
	}
	if cx.memoryInit.Shared {
		init += ",shared:true"
	}
	init += "})"
	cx.export("memory", init, "")
}

// unexportUnusedInternalExports drops every internal export no emitted
// helper ended up needing, so gc can reclaim the functions behind them.
func (cx *Context) unexportUnusedInternalExports() {
	dropped := 0
	cx.module.RetainExports(func(e wasm.Export) bool {
		if !strings.HasPrefix(e.Name, program.InternalPrefix) {
			return true
		}
		if _, ok := cx.requiredInternalExports[e.Name]; ok {
			return true
		}
		dropped++
		return false
	})
	if dropped > 0 {
		Logger().Debug("trimmed unused internal exports", zap.Int("count", dropped))
	}
}

// rewriteImports retargets placeholder imports at the glue module itself
// and rebinds env math imports to renamed shims exported from the glue.
func (cx *Context) rewriteImports(moduleName string) {
	for _, m := range cx.doRewriteImports(moduleName) {
		cx.export(m[0], m[1], "")
	}
}

func (cx *Context) doRewriteImports(moduleName string) [][2]string {
	var math [][2]string
	for i := range cx.module.Imports {
		imp := &cx.module.Imports[i]
		if imp.Module == program.PlaceholderModule {
			imp.Module = "./" + moduleName
			continue
		}
		if imp.Module != "env" {
			continue
		}

		// an imported memory was re-exported from the glue, import it
		// back from there
		if imp.Name == "memory" {
			imp.Module = "./" + moduleName
			continue
		}

		expr, ok := mathShims[imp.Name]
		if !ok {
			continue
		}
		renamed := "__wbindgen_" + imp.Name
		math = append(math, [2]string{renamed, "function" + expr})
		imp.Module = "./" + moduleName
		imp.Name = renamed
	}
	return math
}

// exportTable surfaces the module's function table when closure glue needs
// to look trampolines up by index.
func (cx *Context) exportTable() {
	if !cx.functionTableNeeded {
		return
	}
	cx.module.Exports = append(cx.module.Exports, wasm.Export{
		Name:  program.FunctionTableExport,
		Kind:  wasm.KindTable,
		Index: 0,
	})
}

func (cx *Context) gc() {
	wasm.GC(cx.module, cx.opts.KeepDebug || cx.opts.Debug)
}

// assemble lays the accumulated fragments out per the loader mode.
func (cx *Context) assemble(moduleName string) string {
	if cx.opts.Mode == ModeNoModules {
		return fmt.Sprintf(`(function() {
    var wasm;
    const __exports = {};
    %s
    function init(wasm_path) {
        const fetchPromise = fetch(wasm_path);
        let resultPromise;
        if (typeof WebAssembly.instantiateStreaming === 'function') {
            resultPromise = WebAssembly.instantiateStreaming(fetchPromise, { './%s': __exports });
        } else {
            resultPromise = fetchPromise
                .then(response => response.arrayBuffer())
                .then(buffer => WebAssembly.instantiate(buffer, { './%s': __exports }));
        }
        return resultPromise.then(({instance}) => {
            wasm = init.wasm = instance.exports;
            return;
        });
    };
    self.%s = Object.assign(init, __exports);
})();`, cx.globals, moduleName, moduleName, cx.opts.noModulesGlobal())
	}

	importWasm := ""
	if len(cx.globals) > 0 {
		if cx.useNodeRequire() {
			cx.footer += fmt.Sprintf("wasm = require('./%s_bg');", moduleName)
			importWasm = "var wasm;"
		} else {
			importWasm = fmt.Sprintf("import * as wasm from './%s_bg';", moduleName)
		}
	}

	return fmt.Sprintf("/* tslint:disable */\n%s\n%s\n\n%s\n%s",
		importWasm, cx.imports, cx.globals, cx.footer)
}
