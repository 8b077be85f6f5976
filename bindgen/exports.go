package bindgen

import (
	"fmt"
	"strings"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
)

// exportBuilder assembles one JS function that marshals its arguments into
// a wasm export call and marshals the result back. The same builder serves
// free functions, methods, static methods, field accessors and
// constructors.
type exportBuilder struct {
	cx   *Context
	name string

	jsArgs   []string // formal parameter names
	jsArgTys []string // TypeScript types, parallel to jsArgs
	prelude  string
	finally  string
	wasmArgs []string // expressions handed to the wasm call

	retTy   string // TypeScript return type
	retExpr string // return statement with RET standing for the call
	ctor    string // class name when building a constructor

	argIdx int
}

func newExportBuilder(cx *Context, name string) *exportBuilder {
	return &exportBuilder{
		cx:      cx,
		name:    name,
		retTy:   "void",
		retExpr: "RET;",
	}
}

// method binds the receiver: its ptr becomes the first wasm argument.
// A consuming method zeroes this.ptr before the call so a second use
// faults inside the module instead of double-freeing.
func (b *exportBuilder) method(consumed bool) *exportBuilder {
	if consumed {
		b.addPrelude("const ptr = this.ptr;\nthis.ptr = 0;")
		b.wasmArgs = append(b.wasmArgs, "ptr")
	} else {
		b.wasmArgs = append(b.wasmArgs, "this.ptr")
	}
	return b
}

// constructor redirects the return value into this.ptr.
func (b *exportBuilder) constructor(class string) *exportBuilder {
	b.ctor = class
	return b
}

func (b *exportBuilder) addPrelude(s string) {
	b.prelude += strings.TrimSpace(s) + "\n"
}

func (b *exportBuilder) addFinally(s string) {
	b.finally += strings.TrimSpace(s) + "\n"
}

// process runs all arguments then the return shape through the builder.
func (b *exportBuilder) process(fn *descriptor.Function) (*exportBuilder, error) {
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

func (b *exportBuilder) argument(d *descriptor.Descriptor) error {
	i := b.argIdx
	b.argIdx++
	name := fmt.Sprintf("arg%d", i)
	b.jsArgs = append(b.jsArgs, name)

	if d.Kind == descriptor.KindOption {
		return b.optionalArgument(i, name, d.Inner)
	}

	if vk, ok := d.VectorKind(); ok {
		pass, err := b.cx.passToWasmFunction(vk)
		if err != nil {
			return err
		}
		b.addPrelude(fmt.Sprintf("const [ptr%d, len%d] = %s(%s);", i, i, pass, name))
		if d.Kind == descriptor.KindRef || d.Kind == descriptor.KindRefMut {
			// borrowed views are copied in for the duration of the call
			if err := b.cx.requireInternalExport("__wbindgen_free"); err != nil {
				return err
			}
			b.addFinally(fmt.Sprintf("wasm.__wbindgen_free(ptr%d, len%d * %d);", i, i, vk.Size()))
		}
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("ptr%d", i), fmt.Sprintf("len%d", i))
		b.jsArgTys = append(b.jsArgTys, vk.TS())
		return nil
	}

	u := d.Unwrap()
	byRef := d.Kind == descriptor.KindRef || d.Kind == descriptor.KindRefMut

	if u.Kind == descriptor.KindStruct {
		if b.cx.opts.Debug {
			b.cx.exposeAssertClass()
			b.addPrelude(fmt.Sprintf("_assertClass(%s, %s);", name, u.Name))
		}
		if byRef {
			b.wasmArgs = append(b.wasmArgs, name+".ptr")
		} else {
			b.addPrelude(fmt.Sprintf("const ptr%d = %s.ptr;\n%s.ptr = 0;", i, name, name))
			b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("ptr%d", i))
		}
		b.jsArgTys = append(b.jsArgTys, u.Name)
		return nil
	}

	switch {
	case d.Kind.Is64():
		shim := b.cx.cvtShim(d)
		b.addPrelude(fmt.Sprintf("%s[0] = %s;\nconst lo%d = u32CvtShim[0];\nconst hi%d = u32CvtShim[1];",
			shim, name, i, i))
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("lo%d", i), fmt.Sprintf("hi%d", i))
		b.jsArgTys = append(b.jsArgTys, "BigInt")
	case d.Kind.IsNumber():
		if b.cx.opts.Debug {
			b.cx.exposeAssertNum()
			b.addPrelude(fmt.Sprintf("_assertNum(%s);", name))
		}
		b.wasmArgs = append(b.wasmArgs, name)
		b.jsArgTys = append(b.jsArgTys, "number")
	case d.Kind == descriptor.KindBool:
		if b.cx.opts.Debug {
			b.cx.exposeAssertBool()
			b.addPrelude(fmt.Sprintf("_assertBoolean(%s);", name))
		}
		b.wasmArgs = append(b.wasmArgs, name)
		b.jsArgTys = append(b.jsArgTys, "boolean")
	case d.Kind == descriptor.KindChar:
		b.wasmArgs = append(b.wasmArgs, name+".codePointAt(0)")
		b.jsArgTys = append(b.jsArgTys, "string")
	case u.Kind == descriptor.KindAnyref && byRef:
		b.cx.exposeBorrowedObjects()
		b.addFinally("stack.pop();")
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("addBorrowedObject(%s)", name))
		b.jsArgTys = append(b.jsArgTys, "any")
	case u.Kind == descriptor.KindAnyref:
		b.cx.exposeAddHeapObject()
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("addHeapObject(%s)", name))
		b.jsArgTys = append(b.jsArgTys, "any")
	default:
		return errors.Unsupported(errors.PhaseExport, b.name,
			fmt.Sprintf("argument of type %s cannot be passed to the module", d.Kind))
	}
	return nil
}

// optionalArgument marshals an absent value as the zero sentinel of the
// wrapped shape: handle 0 (the seeded undefined cell) for objects, null
// ptr for classes, a (0, 0) pair for strings and vectors.
func (b *exportBuilder) optionalArgument(i int, name string, inner *descriptor.Descriptor) error {
	b.cx.exposeIsLikeNone()

	if vk, ok := inner.VectorKind(); ok {
		pass, err := b.cx.passToWasmFunction(vk)
		if err != nil {
			return err
		}
		b.addPrelude(fmt.Sprintf("const [ptr%d, len%d] = isLikeNone(%s) ? [0, 0] : %s(%s);",
			i, i, name, pass, name))
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("ptr%d", i), fmt.Sprintf("len%d", i))
		b.jsArgTys = append(b.jsArgTys, vk.TS()+" | undefined")
		return nil
	}

	u := inner.Unwrap()
	switch u.Kind {
	case descriptor.KindAnyref:
		b.cx.exposeAddHeapObject()
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("isLikeNone(%s) ? 0 : addHeapObject(%s)", name, name))
		b.jsArgTys = append(b.jsArgTys, "any")
	case descriptor.KindStruct:
		if b.cx.opts.Debug {
			b.cx.exposeAssertClass()
			b.addPrelude(fmt.Sprintf("if (!isLikeNone(%s)) _assertClass(%s, %s);", name, name, u.Name))
		}
		b.wasmArgs = append(b.wasmArgs, fmt.Sprintf("isLikeNone(%s) ? 0 : %s.ptr", name, name))
		b.jsArgTys = append(b.jsArgTys, u.Name+" | undefined")
	default:
		return errors.Unsupported(errors.PhaseExport, b.name,
			fmt.Sprintf("optional argument of type %s cannot be passed to the module", u.Kind))
	}
	return nil
}

func (b *exportBuilder) ret(d *descriptor.Descriptor) error {
	if b.ctor != "" {
		b.retExpr = "this.ptr = RET;"
		if b.cx.opts.WeakRefs {
			b.cx.exposeCleanupGroups()
			b.retExpr += fmt.Sprintf("\naddCleanup(this, this.ptr, free%s);", b.ctor)
		}
		return nil
	}

	if d.Kind == descriptor.KindUnit {
		b.retTy = "void"
		b.retExpr = "return RET;"
		return nil
	}

	if d.Kind == descriptor.KindOption {
		return b.optionalRet(d.Inner)
	}

	if vk, ok := d.VectorKind(); ok {
		return b.vectorRet(vk, false)
	}

	u := d.Unwrap()
	byRef := d.Kind == descriptor.KindRef || d.Kind == descriptor.KindRefMut

	if u.Kind == descriptor.KindStruct {
		b.cx.requireClassWrap(u.Name)
		b.retTy = u.Name
		b.retExpr = fmt.Sprintf("return %s.__wrap(RET);", u.Name)
		return nil
	}

	switch {
	case d.Kind.Is64():
		if err := b.retptr(); err != nil {
			return err
		}
		shim := b.cx.cvtShim(d)
		b.cx.exposeUint32Memory()
		b.retTy = "BigInt"
		b.retExpr = fmt.Sprintf(`RET;
const mem = getUint32Memory();
u32CvtShim[0] = mem[retptr / 4];
u32CvtShim[1] = mem[retptr / 4 + 1];
return %s[0];`, shim)
	case d.Kind.IsNumber():
		b.retTy = "number"
		b.retExpr = "return RET;"
	case d.Kind == descriptor.KindBool:
		b.retTy = "boolean"
		b.retExpr = "return (RET) !== 0;"
	case d.Kind == descriptor.KindChar:
		b.retTy = "string"
		b.retExpr = "return String.fromCodePoint(RET);"
	case u.Kind == descriptor.KindAnyref && byRef:
		b.cx.exposeGetObject()
		b.retTy = "any"
		b.retExpr = "return getObject(RET);"
	case u.Kind == descriptor.KindAnyref:
		b.cx.exposeTakeObject()
		b.retTy = "any"
		b.retExpr = "return takeObject(RET);"
	default:
		return errors.Unsupported(errors.PhaseExport, b.name,
			fmt.Sprintf("return of type %s cannot be received from the module", d.Kind))
	}
	return nil
}

func (b *exportBuilder) optionalRet(inner *descriptor.Descriptor) error {
	if vk, ok := inner.VectorKind(); ok {
		return b.vectorRet(vk, true)
	}
	u := inner.Unwrap()
	switch u.Kind {
	case descriptor.KindAnyref:
		// handle 0 is the seeded undefined cell, takeObject covers both
		b.cx.exposeTakeObject()
		b.retTy = "any"
		b.retExpr = "return takeObject(RET);"
		return nil
	case descriptor.KindStruct:
		b.cx.requireClassWrap(u.Name)
		b.retTy = u.Name + " | undefined"
		b.retExpr = fmt.Sprintf(`const rustptr = RET;
return rustptr === 0 ? undefined : %s.__wrap(rustptr);`, u.Name)
		return nil
	}
	return errors.Unsupported(errors.PhaseExport, b.name,
		fmt.Sprintf("optional return of type %s cannot be received from the module", u.Kind))
}

// retptr reserves the global scratch slot that carries multi-word returns
// and makes its address the first wasm argument.
func (b *exportBuilder) retptr() error {
	if err := b.cx.exposeGlobalArgumentPtr(); err != nil {
		return err
	}
	b.addPrelude("const retptr = globalArgumentPtr();")
	b.wasmArgs = append([]string{"retptr"}, b.wasmArgs...)
	return nil
}

// vectorRet reads the (ptr, len) pair the module wrote through the retptr,
// copies the content out and frees the module-side allocation.
func (b *exportBuilder) vectorRet(vk descriptor.VectorKind, optional bool) error {
	if err := b.retptr(); err != nil {
		return err
	}
	if err := b.cx.requireInternalExport("__wbindgen_free"); err != nil {
		return err
	}
	b.cx.exposeUint32Memory()
	get := b.cx.getVectorFromWasm(vk)

	// typed array helpers return live views, copy before freeing
	copyOut := ""
	switch vk {
	case descriptor.VectorString, descriptor.VectorAnyref:
	default:
		copyOut = ".slice()"
	}

	b.retTy = vk.TS()
	body := `RET;
const mem = getUint32Memory();
const rustptr = mem[retptr / 4];
const rustlen = mem[retptr / 4 + 1];`
	if optional {
		b.retTy += " | undefined"
		body += "\nif (rustptr === 0) return undefined;"
	}
	body += fmt.Sprintf(`
const realRet = %s(rustptr, rustlen)%s;
wasm.__wbindgen_free(rustptr, rustlen * %d);
return realRet;`, get, copyOut, vk.Size())
	b.retExpr = body
	return nil
}

// finish renders the function. prefix is "function" for free functions and
// empty for class members; invoc is the wasm call target.
func (b *exportBuilder) finish(prefix, invoc string) (js, ts, jsDoc string) {
	js = prefix + "(" + strings.Join(b.jsArgs, ", ") + ") {\n"
	js += b.prelude
	call := invoc + "(" + strings.Join(b.wasmArgs, ", ") + ")"
	body := strings.Replace(b.retExpr, "RET", call, 1)
	if b.finally != "" {
		body = "try {\n" + body + "\n} finally {\n" + strings.TrimSpace(b.finally) + "\n}"
	}
	js += body + "\n}"

	var tsArgs, doc strings.Builder
	for i, a := range b.jsArgs {
		if i > 0 {
			tsArgs.WriteString(", ")
		}
		tsArgs.WriteString(a + ": " + b.jsArgTys[i])
		doc.WriteString(fmt.Sprintf("@param {%s} %s\n", b.jsArgTys[i], a))
	}
	if b.ctor != "" {
		ts = fmt.Sprintf("%s(%s);\n", b.name, tsArgs.String())
	} else {
		if prefix != "" {
			prefix += " "
		}
		ts = fmt.Sprintf("%s%s(%s): %s;\n", prefix, b.name, tsArgs.String(), b.retTy)
		doc.WriteString(fmt.Sprintf("@returns {%s}", b.retTy))
	}
	return js, ts, doc.String()
}

// generateExport emits the JS surface for one module export, either a free
// function or a class member.
func (cx *Context) generateExport(export *program.Export) error {
	cx.binding = export.Name
	if export.Class != "" {
		return cx.generateExportForClass(export)
	}

	d, err := cx.describe(export.Name)
	if err != nil || d == nil {
		return err
	}
	fn := d.GetFunction()
	if fn == nil {
		return errors.Unsupported(errors.PhaseExport, export.Name, "export is not function-shaped")
	}

	b, err := newExportBuilder(cx, export.Name).process(fn)
	if err != nil {
		return err
	}
	js, ts, jsDoc := b.finish("function", "wasm."+export.Name)
	cx.export(export.Name, js, formatDocComments(export.Comments, jsDoc))
	cx.globals += "\n"
	cx.typescript += "export " + ts + "\n"
	return nil
}

func (cx *Context) generateExportForClass(export *program.Export) error {
	wasmName := program.StructFunction(export.Class, export.Name)
	cx.binding = wasmName

	d, err := cx.describe(wasmName)
	if err != nil || d == nil {
		return err
	}
	fn := d.GetFunction()
	if fn == nil {
		return errors.Unsupported(errors.PhaseExport, wasmName, "export is not function-shaped")
	}

	fnName := export.Name
	if export.IsConstructor {
		fnName = "constructor"
	}
	b := newExportBuilder(cx, fnName)
	if export.Method {
		b.method(export.Consumed)
	}
	if export.IsConstructor {
		b.constructor(export.Class)
	}
	if _, err := b.process(fn); err != nil {
		return err
	}
	js, ts, jsDoc := b.finish("", "wasm."+wasmName)

	class := cx.exportedClass(export.Class)
	class.contents += formatDocComments(export.Comments, jsDoc)
	if export.IsConstructor {
		if class.hasConstructor {
			return errors.DuplicateConstructor(export.Class, export.Name)
		}
		class.hasConstructor = true
	} else if !export.Method {
		class.contents += "static "
		class.typescript += "static "
	}
	class.contents += fnName + js + "\n"
	class.typescript += ts
	return nil
}
