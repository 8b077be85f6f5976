package bindgen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
)

// closureWrapperPrefix marks the placeholder imports the module calls to
// turn a (fnptr, data) pair into a live JS callable.
const closureWrapperPrefix = "__wbindgen_closure_wrapper"

// closureShim renders the callable body shared by both closure flavors:
// convert the JS arguments to their flat encodings, dispatch through the
// trampoline with the environment pair prepended, convert the result back.
// f, a and b are the expressions naming the trampoline and the pair.
func closureShim(cx *Context, binding string, fn *descriptor.Function, f, a, b string) (string, error) {
	var params []string
	callArgs := []string{a, b}
	prelude := ""
	if cx.opts.Debug {
		prelude = fmt.Sprintf("if (%s === 0) throw new Error('closure invoked after being dropped');\n", a)
	}

	for i := range fn.Args {
		d := &fn.Args[i]
		p := fmt.Sprintf("p%d", i)
		params = append(params, p)
		if vk, ok := d.VectorKind(); ok {
			pass, err := cx.passToWasmFunction(vk)
			if err != nil {
				return "", err
			}
			prelude += fmt.Sprintf("const [ptr%d, len%d] = %s(%s);\n", i, i, pass, p)
			callArgs = append(callArgs, fmt.Sprintf("ptr%d", i), fmt.Sprintf("len%d", i))
			continue
		}
		switch {
		case d.Kind.IsNumber():
			callArgs = append(callArgs, p)
		case d.Kind == descriptor.KindBool:
			callArgs = append(callArgs, p+" ? 1 : 0")
		case d.Kind == descriptor.KindChar:
			callArgs = append(callArgs, p+".codePointAt(0)")
		case d.Unwrap().Kind == descriptor.KindAnyref:
			cx.exposeAddHeapObject()
			callArgs = append(callArgs, fmt.Sprintf("addHeapObject(%s)", p))
		default:
			return "", errors.Unsupported(errors.PhaseClosure, binding,
				fmt.Sprintf("closure argument of type %s cannot be passed to the module", d.Kind))
		}
	}

	call := fmt.Sprintf("%s(%s)", f, strings.Join(callArgs, ", "))
	var ret string
	switch {
	case fn.Ret.Kind == descriptor.KindUnit:
		ret = call + ";"
	case fn.Ret.Kind.IsNumber():
		ret = "return " + call + ";"
	case fn.Ret.Kind == descriptor.KindBool:
		ret = "return (" + call + ") !== 0;"
	default:
		return "", errors.Unsupported(errors.PhaseClosure, binding,
			fmt.Sprintf("closure return of type %s cannot be received from the module", fn.Ret.Kind))
	}

	return fmt.Sprintf("function(%s) {\n%s%s\n}", strings.Join(params, ", "), prelude, ret), nil
}

// bindClosureWrappers emits one factory per closure wrapper import. The
// factory builds the callable, records it as its own disposal anchor and
// hands the module back a heap handle; __wbindgen_cb_drop neutralizes the
// pair through that anchor so a callable retained by the host faults
// instead of running on freed state.
func (cx *Context) bindClosureWrappers() error {
	for i := range cx.module.Imports {
		imp := &cx.module.Imports[i]
		if imp.Module != program.PlaceholderModule || !strings.HasPrefix(imp.Name, closureWrapperPrefix) {
			continue
		}
		name := imp.Name
		cx.binding = name

		d, err := cx.describe(name)
		if err != nil {
			return err
		}
		if d == nil {
			continue
		}
		if d.Kind != descriptor.KindClosure || d.Closure == nil {
			return errors.Unsupported(errors.PhaseClosure, name,
				"closure wrapper import lacks a closure descriptor")
		}
		cl := d.Closure

		cx.functionTableNeeded = true
		cx.exposeAddHeapObject()
		shim, err := closureShim(cx, name, &cl.Func, "cb.f", "cb.a", "cb.b")
		if err != nil {
			return err
		}
		cx.export(name, fmt.Sprintf(`
function(a, b) {
    const cb = %s;
    cb.f = wasm.__wbg_function_table.get(%d);
    cb.a = a;
    cb.b = b;
    cb.original = cb;
    return addHeapObject(cb);
}
`, shim, cl.ShimIdx), "")
		Logger().Debug("bound closure wrapper",
			zap.String("import", name),
			zap.Uint32("shim", cl.ShimIdx),
			zap.Uint32("dtor", cl.DtorIdx),
			zap.Bool("mutable", cl.Mutable))
	}
	return nil
}
