package bindgen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
)

// importBuilder assembles one shim the module calls in place of a host
// function. The shim decodes its flat wasm arguments back into JS values,
// invokes the resolved host target and encodes the result for the module.
type importBuilder struct {
	cx   *Context
	name string

	shimArgs []string // formal parameters of the shim
	prelude  string
	finally  string
	jsArgs   []string // expressions handed to the host target
	retExpr  string   // return statement with JS standing for the invocation

	catch    bool
	variadic bool

	argIdx    int
	globalIdx int // scratch slots consumed by stack closures
}

func newImportBuilder(cx *Context, name string) *importBuilder {
	return &importBuilder{cx: cx, name: name, retExpr: "JS;"}
}

func (b *importBuilder) setCatch(catch bool) *importBuilder {
	b.catch = catch
	return b
}

func (b *importBuilder) setVariadic(variadic bool) *importBuilder {
	b.variadic = variadic
	return b
}

func (b *importBuilder) shimArgument() string {
	name := fmt.Sprintf("arg%d", len(b.shimArgs))
	b.shimArgs = append(b.shimArgs, name)
	return name
}

func (b *importBuilder) addPrelude(s string) {
	b.prelude += strings.TrimSpace(s) + "\n"
}

func (b *importBuilder) process(fn *descriptor.Function) (*importBuilder, error) {
	for i := range fn.Args {
		if err := b.argument(&fn.Args[i]); err != nil {
			return nil, err
		}
	}
	if err := b.ret(&fn.Ret); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *importBuilder) argument(d *descriptor.Descriptor) error {
	i := b.argIdx
	b.argIdx++

	if d.Kind == descriptor.KindOption {
		return b.optionalArgument(d.Inner)
	}
	if d.Kind == descriptor.KindClosure {
		return b.closureArgument()
	}
	if d.Kind == descriptor.KindRef && d.Inner.Kind == descriptor.KindFunction {
		return b.stackClosureArgument(i, d.Inner.Func)
	}

	if vk, ok := d.VectorKind(); ok {
		ptr := b.shimArgument()
		length := b.shimArgument()
		get := b.cx.getVectorFromWasm(vk)
		v := fmt.Sprintf("v%d", i)
		b.addPrelude(fmt.Sprintf("let %s = %s(%s, %s);", v, get, ptr, length))
		if d.Kind != descriptor.KindRef && d.Kind != descriptor.KindRefMut {
			// the module handed ownership over, copy out then release
			if err := b.cx.requireInternalExport("__wbindgen_free"); err != nil {
				return err
			}
			if vk != descriptor.VectorString && vk != descriptor.VectorAnyref {
				b.addPrelude(fmt.Sprintf("%s = %s.slice();", v, v))
			}
			b.addPrelude(fmt.Sprintf("wasm.__wbindgen_free(%s, %s * %d);", ptr, length, vk.Size()))
		}
		b.jsArgs = append(b.jsArgs, v)
		return nil
	}

	abi := b.shimArgument()
	u := d.Unwrap()
	byRef := d.Kind == descriptor.KindRef || d.Kind == descriptor.KindRefMut

	if u.Kind == descriptor.KindStruct {
		b.cx.requireClassWrap(u.Name)
		b.jsArgs = append(b.jsArgs, fmt.Sprintf("%s.__wrap(%s)", u.Name, abi))
		return nil
	}

	switch {
	case d.Kind.Is64():
		hi := b.shimArgument()
		shim := b.cx.cvtShim(d)
		v := fmt.Sprintf("v%d", i)
		b.addPrelude(fmt.Sprintf("u32CvtShim[0] = %s;\nu32CvtShim[1] = %s;\nconst %s = %s[0];",
			abi, hi, v, shim))
		b.jsArgs = append(b.jsArgs, v)
	case d.Kind.IsNumber():
		b.jsArgs = append(b.jsArgs, abi)
	case d.Kind == descriptor.KindBool:
		b.jsArgs = append(b.jsArgs, abi+" !== 0")
	case d.Kind == descriptor.KindChar:
		b.jsArgs = append(b.jsArgs, fmt.Sprintf("String.fromCodePoint(%s)", abi))
	case u.Kind == descriptor.KindAnyref && byRef:
		b.cx.exposeGetObject()
		b.jsArgs = append(b.jsArgs, fmt.Sprintf("getObject(%s)", abi))
	case u.Kind == descriptor.KindAnyref:
		b.cx.exposeTakeObject()
		b.jsArgs = append(b.jsArgs, fmt.Sprintf("takeObject(%s)", abi))
	default:
		return errors.Unsupported(errors.PhaseImport, b.name,
			fmt.Sprintf("argument of type %s cannot be received from the module", d.Kind))
	}
	return nil
}

func (b *importBuilder) optionalArgument(inner *descriptor.Descriptor) error {
	abi := b.shimArgument()
	u := inner.Unwrap()
	switch u.Kind {
	case descriptor.KindAnyref:
		// handle 0 marks an absent value, present values own a slab cell
		b.cx.exposeTakeObject()
		b.jsArgs = append(b.jsArgs, fmt.Sprintf("%s === 0 ? undefined : takeObject(%s)", abi, abi))
		return nil
	}
	return errors.Unsupported(errors.PhaseImport, b.name,
		fmt.Sprintf("optional argument of type %s cannot be received from the module", u.Kind))
}

// closureArgument receives a long-lived closure as a heap handle. The JS
// callable behind the handle was built by the closure factory shim and
// stays alive until the module runs its destructor.
func (b *importBuilder) closureArgument() error {
	abi := b.shimArgument()
	b.cx.exposeGetObject()
	b.jsArgs = append(b.jsArgs, fmt.Sprintf("getObject(%s)", abi))
	return nil
}

// stackClosureArgument reifies a call-scoped closure from its (fnptr, data)
// pair. The trampoline index arrives through the global scratch area, and
// the pair is zeroed when the import returns so a retained callable faults
// inside the module instead of running on freed state.
func (b *importBuilder) stackClosureArgument(i int, fn *descriptor.Function) error {
	a := b.shimArgument()
	d := b.shimArgument()
	if err := b.cx.exposeGetGlobalArgument(); err != nil {
		return err
	}
	b.cx.functionTableNeeded = true

	shim, err := closureShim(b.cx, b.name, fn, "this.f", "this.a", "this.b")
	if err != nil {
		return err
	}
	cb := fmt.Sprintf("cb%d", i)
	b.addPrelude(fmt.Sprintf(`const %s = %s;
%s.f = wasm.__wbg_function_table.get(getGlobalArgument(%d));
%s.a = %s;
%s.b = %s;`, cb, shim, cb, b.globalIdx, cb, a, cb, d))
	b.globalIdx++
	b.finally += fmt.Sprintf("%s.a = %s.b = 0;\n", cb, cb)
	b.jsArgs = append(b.jsArgs, fmt.Sprintf("%s.bind(%s)", cb, cb))
	return nil
}

func (b *importBuilder) ret(d *descriptor.Descriptor) error {
	if d.Kind == descriptor.KindUnit {
		b.retExpr = "JS;"
		return nil
	}

	if d.Kind == descriptor.KindOption {
		u := d.Inner.Unwrap()
		if u.Kind == descriptor.KindAnyref {
			b.cx.exposeIsLikeNone()
			b.cx.exposeAddHeapObject()
			b.retExpr = "const val = JS;\nreturn isLikeNone(val) ? 0 : addHeapObject(val);"
			return nil
		}
		return errors.Unsupported(errors.PhaseImport, b.name,
			fmt.Sprintf("optional return of type %s cannot be passed to the module", u.Kind))
	}

	if vk, ok := d.VectorKind(); ok {
		pass, err := b.cx.passToWasmFunction(vk)
		if err != nil {
			return err
		}
		b.cx.exposeUint32Memory()
		// the module passes the output slot address as the first argument
		b.shimArgs = append([]string{"ret"}, b.shimArgs...)
		b.retExpr = fmt.Sprintf(`const [retptr, retlen] = %s(JS);
const mem = getUint32Memory();
mem[ret / 4] = retptr;
mem[ret / 4 + 1] = retlen;`, pass)
		return nil
	}

	u := d.Unwrap()
	switch {
	case d.Kind.Is64():
		shim := b.cx.cvtShim(d)
		b.cx.exposeUint32Memory()
		b.shimArgs = append([]string{"ret"}, b.shimArgs...)
		b.retExpr = fmt.Sprintf(`%s[0] = JS;
const mem = getUint32Memory();
mem[ret / 4] = u32CvtShim[0];
mem[ret / 4 + 1] = u32CvtShim[1];`, shim)
	case d.Kind.IsNumber():
		b.retExpr = "return JS;"
	case d.Kind == descriptor.KindBool:
		b.retExpr = "return JS ? 1 : 0;"
	case d.Kind == descriptor.KindChar:
		b.retExpr = "return JS.codePointAt(0);"
	case u.Kind == descriptor.KindAnyref && d.Kind != descriptor.KindAnyref:
		return errors.Unsupported(errors.PhaseImport, b.name,
			"borrowed values cannot be returned to the module")
	case u.Kind == descriptor.KindAnyref:
		b.cx.exposeAddHeapObject()
		b.retExpr = "return addHeapObject(JS);"
	default:
		return errors.Unsupported(errors.PhaseImport, b.name,
			fmt.Sprintf("return of type %s cannot be passed to the module", d.Kind))
	}
	return nil
}

// finish renders the shim around the resolved host target.
func (b *importBuilder) finish(target string) string {
	jsArgs := b.jsArgs
	invocArgs := strings.Join(jsArgs, ", ")
	if b.variadic && len(jsArgs) > 0 {
		last := len(jsArgs) - 1
		invocArgs = strings.Join(jsArgs[:last], ", ")
		if last > 0 {
			invocArgs += ", "
		}
		invocArgs += "..." + jsArgs[last]
	}
	invoc := strings.Replace(b.retExpr, "JS", target+"("+invocArgs+")", 1)

	if b.catch {
		b.cx.exposeUint32Memory()
		b.cx.exposeAddHeapObject()
		b.shimArgs = append(b.shimArgs, "exnptr")
		invoc = fmt.Sprintf(`try {
%s
} catch (e) {
    const view = getUint32Memory();
    view[exnptr / 4] = 1;
    view[exnptr / 4 + 1] = addHeapObject(e);
}`, invoc)
	}
	if b.finally != "" {
		invoc = fmt.Sprintf("try {\n%s\n} finally {\n%s}", invoc, b.finally)
	}

	return fmt.Sprintf("function(%s) {\n%s%s\n}", strings.Join(b.shimArgs, ", "), b.prelude, invoc)
}

// generateImport dispatches one host import declaration.
func (cx *Context) generateImport(imp *program.Import) error {
	switch imp.Kind {
	case program.ImportKindFunction:
		return cx.generateImportFunction(imp)
	case program.ImportKindStatic:
		return cx.generateImportStatic(imp)
	case program.ImportKindType:
		return cx.generateImportType(imp)
	case program.ImportKindEnum:
		// host enums are plain numbers on the wire, nothing to emit
		return nil
	}
	return nil
}

func (cx *Context) generateImportStatic(imp *program.Import) error {
	st := imp.Static
	cx.binding = st.Shim
	// the same static can be imported from several sites
	if _, dup := cx.importedStatics[st.Shim]; dup {
		return nil
	}
	cx.importedStatics[st.Shim] = struct{}{}

	obj, err := cx.importName(imp, st.Name)
	if err != nil {
		return err
	}
	cx.exposeAddHeapObject()
	cx.export(st.Shim, fmt.Sprintf(`
function() {
    return addHeapObject(%s);
}
`, obj), "")
	return nil
}

func (cx *Context) generateImportType(imp *program.Import) error {
	ty := imp.Type
	cx.binding = ty.InstanceofShim
	if !cx.wasmImportNeeded(ty.InstanceofShim) {
		return nil
	}
	name, err := cx.importName(imp, ty.Name)
	if err != nil {
		return err
	}
	cx.exposeGetObject()
	cx.export(ty.InstanceofShim, fmt.Sprintf(`
function(idx) {
    return getObject(idx) instanceof %s ? 1 : 0;
}
`, name), "")
	return nil
}

func (cx *Context) generateImportFunction(imp *program.Import) error {
	fn := imp.Function
	cx.binding = fn.Shim
	if !cx.wasmImportNeeded(fn.Shim) {
		return nil
	}
	// the same function can be imported from several sites
	if _, dup := cx.importedFunctions[fn.Shim]; dup {
		return nil
	}
	cx.importedFunctions[fn.Shim] = struct{}{}

	d, err := cx.describe(fn.Shim)
	if err != nil || d == nil {
		return err
	}
	sig := d.GetFunction()
	if sig == nil {
		return errors.Unsupported(errors.PhaseImport, fn.Shim, "import is not function-shaped")
	}

	target, err := cx.importTarget(imp, fn, sig)
	if err != nil {
		return err
	}

	b, err := newImportBuilder(cx, fn.Shim).
		setCatch(fn.Catch).
		setVariadic(fn.Variadic).
		process(sig)
	if err != nil {
		return err
	}
	cx.export(fn.Shim, b.finish(target), "")
	Logger().Debug("generated import shim",
		zap.String("shim", fn.Shim),
		zap.String("target", target))
	return nil
}

// importTarget resolves the JS expression the shim invokes. Free functions
// bind to their import; methods bind either structurally (looked up on the
// receiver per call) or nominally (a prototype lookup captured once at
// load, with resolution failures deferred to call time).
func (cx *Context) importTarget(imp *program.Import, fn *program.ImportFunction, sig *descriptor.Function) (string, error) {
	m := fn.Method
	if m == nil {
		name, err := cx.importName(imp, fn.Name)
		if err != nil {
			return "", err
		}
		if strings.Contains(name, ".") {
			cx.global(fmt.Sprintf("const %s_target = %s;", fn.Shim, name))
			return fn.Shim + "_target", nil
		}
		return name, nil
	}

	if m.Class == "" {
		return "", errors.UnresolvedTarget(fn.Shim, "method import names no host class")
	}
	class, err := cx.importName(imp, m.Class)
	if err != nil {
		return "", err
	}
	if m.Kind == program.MethodConstructor {
		return "new " + class, nil
	}

	var target string
	if fn.Structural {
		location := "this"
		if m.IsStatic {
			location = class
		}
		switch m.Op {
		case program.OpRegular:
			nargs := len(sig.Args) - 1
			var params []string
			for i := 0; i < nargs; i++ {
				params = append(params, fmt.Sprintf("x%d", i))
			}
			list := strings.Join(params, ", ")
			target = fmt.Sprintf("function(%s) {\nreturn this.%s(%s);\n}", list, fn.Name, list)
		case program.OpGetter:
			target = fmt.Sprintf("function() {\n    return %s.%s;\n}", location, m.Name)
		case program.OpSetter:
			target = fmt.Sprintf("function(y) {\n    %s.%s = y;\n}", location, m.Name)
		case program.OpIndexingGetter:
			target = fmt.Sprintf("function(y) {\n    return %s[y];\n}", location)
		case program.OpIndexingSetter:
			target = fmt.Sprintf("function(y, z) {\n    %s[y] = z;\n}", location)
		case program.OpIndexingDeleter:
			target = fmt.Sprintf("function(y) {\n    delete %s[y];\n}", location)
		}
	} else {
		location, binding := ".prototype", ""
		if m.IsStatic {
			location, binding = "", fmt.Sprintf(".bind(%s)", class)
		}
		switch m.Op {
		case program.OpRegular:
			target = fmt.Sprintf("%s%s.%s%s", class, location, fn.Name, binding)
		case program.OpGetter:
			cx.exposeGetInheritedDescriptor()
			target = fmt.Sprintf("GetOwnOrInheritedPropertyDescriptor(%s%s, '%s').get%s",
				class, location, m.Name, binding)
		case program.OpSetter:
			cx.exposeGetInheritedDescriptor()
			target = fmt.Sprintf("GetOwnOrInheritedPropertyDescriptor(%s%s, '%s').set%s",
				class, location, m.Name, binding)
		default:
			return "", errors.Unsupported(errors.PhaseImport, fn.Shim,
				"indexing operations must be structural")
		}
	}

	// nominal lookups can come up empty when the host class lacks the
	// member; keep loading alive and fail at call time instead
	fallback := ""
	if !fn.Structural {
		fallback = fmt.Sprintf(" || function() {\nthrow new Error(`wasm-bindgen: %s does not exist`);\n}", target)
	}
	cx.global(fmt.Sprintf("const %s_target = %s%s;", fn.Shim, target, fallback))
	call := ".call"
	if m.IsStatic {
		call = ""
	}
	return fn.Shim + "_target" + call, nil
}
