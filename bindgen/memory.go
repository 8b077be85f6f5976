package bindgen

import (
	"fmt"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/program"
)

// memview emits one cached typed-array view over linear memory. The cache
// is rebuilt whenever the backing buffer identity changes, which is how
// memory growth invalidates old views.
func (cx *Context) memview(name, js string) {
	if !cx.expose(name) {
		return
	}
	mem := cx.memory()
	cx.global(fmt.Sprintf(`
let cache%[1]s = null;
function %[1]s() {
    if (cache%[1]s === null || cache%[1]s.buffer !== %[3]s.buffer) {
        cache%[1]s = new %[2]s(%[3]s.buffer);
    }
    return cache%[1]s;
}
`, name, js, mem))
}

func (cx *Context) exposeInt8Memory()    { cx.memview("getInt8Memory", "Int8Array") }
func (cx *Context) exposeUint8Memory()   { cx.memview("getUint8Memory", "Uint8Array") }
func (cx *Context) exposeClampedMemory() { cx.memview("getUint8ClampedMemory", "Uint8ClampedArray") }
func (cx *Context) exposeInt16Memory()   { cx.memview("getInt16Memory", "Int16Array") }
func (cx *Context) exposeUint16Memory()  { cx.memview("getUint16Memory", "Uint16Array") }
func (cx *Context) exposeInt32Memory()   { cx.memview("getInt32Memory", "Int32Array") }
func (cx *Context) exposeUint32Memory()  { cx.memview("getUint32Memory", "Uint32Array") }
func (cx *Context) exposeInt64Memory()   { cx.memview("getInt64Memory", "BigInt64Array") }
func (cx *Context) exposeUint64Memory()  { cx.memview("getUint64Memory", "BigUint64Array") }
func (cx *Context) exposeF32Memory()     { cx.memview("getFloat32Memory", "Float32Array") }
func (cx *Context) exposeF64Memory()     { cx.memview("getFloat64Memory", "Float64Array") }

func (cx *Context) exposeTextEncoder() {
	if !cx.expose("text_encoder") {
		return
	}
	switch cx.opts.Mode {
	case ModeNodeESM:
		cx.imports += "import { TextEncoder } from 'util';\n"
	case ModeNode:
		cx.global("const TextEncoder = require('util').TextEncoder;")
	case ModeBrowser, ModeNoModules:
		// the global is always present
	default:
		cx.global(`
const TextEncoder = typeof self === 'object' && self.TextEncoder
    ? self.TextEncoder
    : require('util').TextEncoder;
`)
	}
	cx.global("let cachedEncoder = new TextEncoder('utf-8');")
}

func (cx *Context) exposeTextDecoder() {
	if !cx.expose("text_decoder") {
		return
	}
	switch cx.opts.Mode {
	case ModeNodeESM:
		cx.imports += "import { TextDecoder } from 'util';\n"
	case ModeNode:
		cx.global("const TextDecoder = require('util').TextDecoder;")
	case ModeBrowser, ModeNoModules:
	default:
		cx.global(`
const TextDecoder = typeof self === 'object' && self.TextDecoder
    ? self.TextDecoder
    : require('util').TextDecoder;
`)
	}
	cx.global("let cachedDecoder = new TextDecoder('utf-8');")
}

func (cx *Context) exposePassStringToWasm() error {
	if !cx.expose("pass_string_to_wasm") {
		return nil
	}
	if err := cx.requireInternalExport(program.ExportMalloc); err != nil {
		return err
	}
	cx.exposeTextEncoder()
	cx.exposeUint8Memory()
	debug := ""
	if cx.opts.Debug {
		debug = "if (typeof(arg) !== 'string') throw new Error('expected a string argument');\n    "
	}
	cx.global(fmt.Sprintf(`
function passStringToWasm(arg) {
    %sconst buf = cachedEncoder.encode(arg);
    const ptr = wasm.__wbindgen_malloc(buf.length);
    getUint8Memory().set(buf, ptr);
    return [ptr, buf.length];
}
`, debug))
	return nil
}

func (cx *Context) passArrayToWasm(name, delegate string, size int) error {
	if !cx.expose(name) {
		return nil
	}
	if err := cx.requireInternalExport(program.ExportMalloc); err != nil {
		return err
	}
	cx.global(fmt.Sprintf(`
function %s(arg) {
    const ptr = wasm.__wbindgen_malloc(arg.length * %[3]d);
    %[2]s().set(arg, ptr / %[3]d);
    return [ptr, arg.length];
}
`, name, delegate, size))
	return nil
}

func (cx *Context) exposePassArrayJsValueToWasm() error {
	if !cx.expose("pass_array_jsvalue") {
		return nil
	}
	if err := cx.requireInternalExport(program.ExportMalloc); err != nil {
		return err
	}
	cx.exposeUint32Memory()
	cx.exposeAddHeapObject()
	cx.global(`
function passArrayJsValueToWasm(array) {
    const ptr = wasm.__wbindgen_malloc(array.length * 4);
    const mem = getUint32Memory();
    for (let i = 0; i < array.length; i++) {
        mem[ptr / 4 + i] = addHeapObject(array[i]);
    }
    return [ptr, array.length];
}
`)
	return nil
}

// passToWasmFunction exposes and names the copy-in helper for one vector
// element shape.
func (cx *Context) passToWasmFunction(vk descriptor.VectorKind) (string, error) {
	switch vk {
	case descriptor.VectorString:
		return "passStringToWasm", cx.exposePassStringToWasm()
	case descriptor.VectorI8, descriptor.VectorU8, descriptor.VectorClampedU8:
		cx.exposeUint8Memory()
		return "passArray8ToWasm", cx.passArrayToWasm("passArray8ToWasm", "getUint8Memory", 1)
	case descriptor.VectorI16, descriptor.VectorU16:
		cx.exposeUint16Memory()
		return "passArray16ToWasm", cx.passArrayToWasm("passArray16ToWasm", "getUint16Memory", 2)
	case descriptor.VectorI32, descriptor.VectorU32:
		cx.exposeUint32Memory()
		return "passArray32ToWasm", cx.passArrayToWasm("passArray32ToWasm", "getUint32Memory", 4)
	case descriptor.VectorI64, descriptor.VectorU64:
		cx.exposeUint64Memory()
		return "passArray64ToWasm", cx.passArrayToWasm("passArray64ToWasm", "getUint64Memory", 8)
	case descriptor.VectorF32:
		cx.exposeF32Memory()
		return "passArrayF32ToWasm", cx.passArrayToWasm("passArrayF32ToWasm", "getFloat32Memory", 4)
	case descriptor.VectorF64:
		cx.exposeF64Memory()
		return "passArrayF64ToWasm", cx.passArrayToWasm("passArrayF64ToWasm", "getFloat64Memory", 8)
	case descriptor.VectorAnyref:
		return "passArrayJsValueToWasm", cx.exposePassArrayJsValueToWasm()
	}
	return "", fmt.Errorf("bindgen: no pass helper for vector kind %d", vk)
}

func (cx *Context) exposeGetStringFromWasm() {
	if !cx.expose("get_string_from_wasm") {
		return
	}
	cx.exposeTextDecoder()
	cx.exposeUint8Memory()

	// TextDecoder rejects views over shared buffers, so shared memories
	// copy the bytes out first. Non-shared memories decode a plain view.
	mem, _, _ := cx.module.Memory()
	method := "subarray"
	if mem.Shared {
		method = "slice"
	}
	cx.global(fmt.Sprintf(`
function getStringFromWasm(ptr, len) {
    return cachedDecoder.decode(getUint8Memory().%s(ptr, ptr + len));
}
`, method))
}

func (cx *Context) exposeGetArrayJsValueFromWasm() {
	if !cx.expose("get_array_jsvalue_from_wasm") {
		return
	}
	cx.exposeUint32Memory()
	cx.exposeTakeObject()
	cx.global(`
function getArrayJsValueFromWasm(ptr, len) {
    const mem = getUint32Memory();
    const slice = mem.subarray(ptr / 4, ptr / 4 + len);
    const result = [];
    for (let i = 0; i < slice.length; i++) {
        result.push(takeObject(slice[i]));
    }
    return result;
}
`)
}

func (cx *Context) arrayGet(name, mem string, size int) {
	if !cx.expose(name) {
		return
	}
	cx.global(fmt.Sprintf(`
function %s(ptr, len) {
    return %s().subarray(ptr / %[3]d, ptr / %[3]d + len);
}
`, name, mem, size))
}

// getVectorFromWasm exposes and names the copy-out helper for one vector
// element shape.
func (cx *Context) getVectorFromWasm(vk descriptor.VectorKind) string {
	switch vk {
	case descriptor.VectorString:
		cx.exposeGetStringFromWasm()
		return "getStringFromWasm"
	case descriptor.VectorI8:
		cx.exposeInt8Memory()
		cx.arrayGet("getArrayI8FromWasm", "getInt8Memory", 1)
		return "getArrayI8FromWasm"
	case descriptor.VectorU8:
		cx.exposeUint8Memory()
		cx.arrayGet("getArrayU8FromWasm", "getUint8Memory", 1)
		return "getArrayU8FromWasm"
	case descriptor.VectorClampedU8:
		cx.exposeClampedMemory()
		cx.arrayGet("getClampedArrayU8FromWasm", "getUint8ClampedMemory", 1)
		return "getClampedArrayU8FromWasm"
	case descriptor.VectorI16:
		cx.exposeInt16Memory()
		cx.arrayGet("getArrayI16FromWasm", "getInt16Memory", 2)
		return "getArrayI16FromWasm"
	case descriptor.VectorU16:
		cx.exposeUint16Memory()
		cx.arrayGet("getArrayU16FromWasm", "getUint16Memory", 2)
		return "getArrayU16FromWasm"
	case descriptor.VectorI32:
		cx.exposeInt32Memory()
		cx.arrayGet("getArrayI32FromWasm", "getInt32Memory", 4)
		return "getArrayI32FromWasm"
	case descriptor.VectorU32:
		cx.exposeUint32Memory()
		cx.arrayGet("getArrayU32FromWasm", "getUint32Memory", 4)
		return "getArrayU32FromWasm"
	case descriptor.VectorI64:
		cx.exposeInt64Memory()
		cx.arrayGet("getArrayI64FromWasm", "getInt64Memory", 8)
		return "getArrayI64FromWasm"
	case descriptor.VectorU64:
		cx.exposeUint64Memory()
		cx.arrayGet("getArrayU64FromWasm", "getUint64Memory", 8)
		return "getArrayU64FromWasm"
	case descriptor.VectorF32:
		cx.exposeF32Memory()
		cx.arrayGet("getArrayF32FromWasm", "getFloat32Memory", 4)
		return "getArrayF32FromWasm"
	case descriptor.VectorF64:
		cx.exposeF64Memory()
		cx.arrayGet("getArrayF64FromWasm", "getFloat64Memory", 8)
		return "getArrayF64FromWasm"
	case descriptor.VectorAnyref:
		cx.exposeGetArrayJsValueFromWasm()
		return "getArrayJsValueFromWasm"
	}
	return ""
}

func (cx *Context) exposeGlobalArgumentPtr() error {
	if !cx.expose("global_argument_ptr") {
		return nil
	}
	if err := cx.requireInternalExport(program.ExportGlobalArgPtr); err != nil {
		return err
	}
	cx.global(`
let cachedGlobalArgumentPtr = null;
function globalArgumentPtr() {
    if (cachedGlobalArgumentPtr === null) {
        cachedGlobalArgumentPtr = wasm.__wbindgen_global_argument_ptr();
    }
    return cachedGlobalArgumentPtr;
}
`)
	return nil
}

func (cx *Context) exposeGetGlobalArgument() error {
	if !cx.expose("get_global_argument") {
		return nil
	}
	cx.exposeUint32Memory()
	if err := cx.exposeGlobalArgumentPtr(); err != nil {
		return err
	}
	cx.global(`
function getGlobalArgument(arg) {
    const idx = globalArgumentPtr() / 4 + arg;
    return getUint32Memory()[idx];
}
`)
	return nil
}

func (cx *Context) exposeAssertNum() {
	if !cx.expose("assert_num") {
		return
	}
	cx.global(`
function _assertNum(n) {
    if (typeof(n) !== 'number') throw new Error('expected a number argument');
}
`)
}

func (cx *Context) exposeAssertBool() {
	if !cx.expose("assert_bool") {
		return
	}
	cx.global(`
function _assertBoolean(n) {
    if (typeof(n) !== 'boolean') {
        throw new Error('expected a boolean argument');
    }
}
`)
}

func (cx *Context) exposeAssertClass() {
	if !cx.expose("assert_class") {
		return
	}
	cx.global(`
function _assertClass(instance, klass) {
    if (!(instance instanceof klass)) {
        throw new Error(` + "`expected instance of ${klass.name}`" + `);
    }
    return instance.ptr;
}
`)
}

func (cx *Context) exposeIsLikeNone() {
	if !cx.expose("is_like_none") {
		return
	}
	cx.global(`
function isLikeNone(x) {
    return x === undefined || x === null;
}
`)
}

// exposeGetInheritedDescriptor emits the prototype-chain walk used when a
// browser hoists accessor descriptors up the chain, which would otherwise
// break the precise descriptor lookups nominal imports rely on.
func (cx *Context) exposeGetInheritedDescriptor() {
	if !cx.expose("get_inherited_descriptor") {
		return
	}
	cx.global(`
function GetOwnOrInheritedPropertyDescriptor(obj, id) {
    while (obj) {
        let desc = Object.getOwnPropertyDescriptor(obj, id);
        if (desc) return desc;
        obj = Object.getPrototypeOf(obj);
    }
    throw new Error(` + "`descriptor for id='${id}' not found`" + `);
}
`)
}

func (cx *Context) exposeU32CvtShim() string {
	if cx.expose("u32CvtShim") {
		cx.global("const u32CvtShim = new Uint32Array(2);")
	}
	return "u32CvtShim"
}

func (cx *Context) exposeInt64CvtShim() string {
	if cx.expose("int64CvtShim") {
		n := cx.exposeU32CvtShim()
		cx.global(fmt.Sprintf("const int64CvtShim = new BigInt64Array(%s.buffer);", n))
	}
	return "int64CvtShim"
}

func (cx *Context) exposeUint64CvtShim() string {
	if cx.expose("uint64CvtShim") {
		n := cx.exposeU32CvtShim()
		cx.global(fmt.Sprintf("const uint64CvtShim = new BigUint64Array(%s.buffer);", n))
	}
	return "uint64CvtShim"
}

func (cx *Context) cvtShim(d *descriptor.Descriptor) string {
	cx.exposeU32CvtShim()
	if d.Kind.IsSigned64() {
		return cx.exposeInt64CvtShim()
	}
	return cx.exposeUint64CvtShim()
}

// exposeCleanupGroups emits the weak-reference machinery that frees leaked
// class instances. Explicit free cancels the registered cleanup through
// the ptr-keyed map so the destructor never runs twice.
func (cx *Context) exposeCleanupGroups() {
	if !cx.expose("cleanup_groups") {
		return
	}
	cx.global(`
const CLEANUPS = new WeakRefGroup(x => x.holdings());
const CLEANUPS_MAP = new Map();

function addCleanup(obj, ptr, free) {
    const ref = CLEANUPS.makeRef(obj, () => free(ptr));
    CLEANUPS_MAP.set(ptr, ref);
}
`)
}
