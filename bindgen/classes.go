package bindgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/program"
)

// ExportedClass accumulates the members of one module-defined class before
// the surrounding declaration is written during finalization.
type ExportedClass struct {
	comments       string
	contents       string
	typescript     string
	hasConstructor bool
	wrapNeeded     bool
	fields         []classField
}

type classField struct {
	name     string
	readonly bool
	comments []string
}

func (cx *Context) exportedClass(name string) *ExportedClass {
	c, ok := cx.exportedClasses[name]
	if !ok {
		c = &ExportedClass{}
		cx.exportedClasses[name] = c
	}
	return c
}

// requireClassWrap marks that generated glue constructs instances of the
// class from raw pointers, so the class needs its __wrap factory.
func (cx *Context) requireClassWrap(name string) {
	cx.exportedClass(name).wrapNeeded = true
}

func (cx *Context) writeClasses() error {
	names := make([]string, 0, len(cx.exportedClasses))
	for name := range cx.exportedClasses {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cx.writeClass(name, cx.exportedClasses[name]); err != nil {
			return err
		}
	}
	return nil
}

func (cx *Context) writeClass(name string, class *ExportedClass) error {
	cx.binding = name
	dst := fmt.Sprintf("class %s {\n", name)
	tsDst := "export " + dst

	// weak refs free instances the host leaked; explicit free cancels the
	// registered cleanup so the destructor runs exactly once
	mkweakref, freeref := "", ""
	if cx.opts.WeakRefs {
		cx.exposeCleanupGroups()
		mkweakref = fmt.Sprintf("addCleanup(this, this.ptr, free%s);", name)
		freeref = "CLEANUPS_MAP.get(ptr).drop();\n    CLEANUPS_MAP.delete(ptr);\n    "
	}

	if cx.opts.Debug && !class.hasConstructor {
		dst += `
constructor() {
    throw new Error('cannot invoke ` + "`new`" + ` directly');
}
`
	}

	wrapNeeded := class.wrapNeeded
	newName := program.NewFunction(name)
	if cx.wasmImportNeeded(newName) {
		cx.exposeAddHeapObject()
		wrapNeeded = true
		cx.export(newName, fmt.Sprintf(`
function(ptr) {
    return addHeapObject(%s.__wrap(ptr));
}
`, name), "")
	}

	if wrapNeeded {
		inject := ""
		if mkweakref != "" {
			inject = "\n    " + strings.ReplaceAll(mkweakref, "this", "obj")
		}
		dst += fmt.Sprintf(`
static __wrap(ptr) {
    const obj = Object.create(%s.prototype);
    obj.ptr = ptr;%s
    return obj;
}
`, name, inject)
	}

	for _, field := range class.fields {
		getter := program.FieldGetter(name, field.name)
		setter := program.FieldSetter(name, field.name)
		d, err := cx.describe(getter)
		if err != nil {
			return err
		}
		if d == nil {
			continue
		}

		set := newExportBuilder(cx, field.name)
		set.method(false)
		if err := set.argument(d); err != nil {
			return err
		}
		if err := set.ret(&descriptor.Descriptor{Kind: descriptor.KindUnit}); err != nil {
			return err
		}
		setJs, _, _ := set.finish("", "wasm."+setter)
		readonly := ""
		if field.readonly {
			readonly = "readonly "
		}
		tsDst += fmt.Sprintf("%s%s: %s\n", readonly, field.name, set.jsArgTys[0])

		get := newExportBuilder(cx, field.name)
		get.method(false)
		if err := get.ret(d); err != nil {
			return err
		}
		getJs, _, jsDoc := get.finish("", "wasm."+getter)

		dst += "\n"
		dst += formatDocComments(field.comments, jsDoc)
		dst += "get " + field.name + getJs + "\n"
		if !field.readonly {
			dst += "set " + field.name + setJs + "\n"
		}
	}

	cx.global(fmt.Sprintf(`
function free%s(ptr) {
    %swasm.%s(ptr);
}
`, name, freeref, program.FreeFunction(name)))

	dst += fmt.Sprintf(`
free() {
    const ptr = this.ptr;
    this.ptr = 0;
    free%s(ptr);
}
`, name)
	tsDst += "free(): void;\n"
	dst += class.contents
	tsDst += class.typescript
	dst += "}\n"
	tsDst += "}\n"

	cx.export(name, dst, class.comments)
	cx.typescript += tsDst
	return nil
}
