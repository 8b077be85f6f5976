package bindgen

import "fmt"

// seededSlabValues occupy the first slab cells so their doubled handles are
// constants the module can synthesize without calling into the glue.
var seededSlabValues = []string{"undefined", "null", "true", "false"}

func (cx *Context) exposeGlobalStack() {
	if !cx.expose("stack") {
		return
	}
	cx.global("const stack = [];")
	if cx.opts.Debug {
		cx.export("assertStackEmpty", `
function() {
    if (stack.length === 0) return;
    throw new Error('stack is not currently empty');
}
`, "")
	}
}

func (cx *Context) exposeGlobalSlab() {
	if !cx.expose("slab") {
		return
	}
	cells := ""
	for i, v := range seededSlabValues {
		if i > 0 {
			cells += ", "
		}
		cells += fmt.Sprintf("{ obj: %s }", v)
	}
	cx.global(fmt.Sprintf("const slab = [%s];", cells))
	if cx.opts.Debug {
		cx.export("assertSlabEmpty", fmt.Sprintf(`
function() {
    for (let i = %d; i < slab.length; i++) {
        if (typeof(slab[i]) === 'number') continue;
        throw new Error('slab is not currently empty');
    }
}
`, len(seededSlabValues)), "")
	}
}

func (cx *Context) exposeGlobalSlabNext() {
	if !cx.expose("slab_next") {
		return
	}
	cx.exposeGlobalSlab()
	cx.global("let slab_next = slab.length;")
}

func (cx *Context) exposeDropRef() {
	if !cx.expose("drop_ref") {
		return
	}
	cx.exposeGlobalSlab()
	cx.exposeGlobalSlabNext()
	validateOwned := ""
	if cx.opts.Debug {
		validateOwned = "if ((idx & 1) === 1) throw new Error('cannot drop ref of stack objects');\n    "
	}
	decRef := "obj.cnt -= 1;\n    if (obj.cnt > 0) return;"
	if cx.opts.Debug {
		decRef = "if (typeof(obj) === 'number') throw new Error('corrupt slab');\n    " + decRef
	}
	cx.global(fmt.Sprintf(`
function dropRef(idx) {
    %sidx = idx >> 1;
    if (idx < %d) return;
    let obj = slab[idx];
    %s
    // If we hit 0 then free up our space in the slab
    slab[idx] = slab_next;
    slab_next = idx;
}
`, validateOwned, len(seededSlabValues), decRef))
}

func (cx *Context) exposeGetObject() {
	if !cx.expose("get_object") {
		return
	}
	cx.exposeGlobalStack()
	cx.exposeGlobalSlab()
	getObj := "return val.obj;"
	if cx.opts.Debug {
		getObj = "if (typeof(val) === 'number') throw new Error('corrupt slab');\n        " + getObj
	}
	cx.global(fmt.Sprintf(`
function getObject(idx) {
    if ((idx & 1) === 1) {
        return stack[idx >> 1];
    } else {
        const val = slab[idx >> 1];
        %s
    }
}
`, getObj))
}

func (cx *Context) exposeAddHeapObject() {
	if !cx.expose("add_heap_object") {
		return
	}
	cx.exposeGlobalSlab()
	cx.exposeGlobalSlabNext()
	setSlabNext := "slab_next = next;"
	if cx.opts.Debug {
		setSlabNext = "if (typeof(next) !== 'number') throw new Error('corrupt slab');\n    " + setSlabNext
	}
	cx.global(fmt.Sprintf(`
function addHeapObject(obj) {
    if (slab_next === slab.length) slab.push(slab.length + 1);
    const idx = slab_next;
    const next = slab[idx];
    %s
    slab[idx] = { obj, cnt: 1 };
    return idx << 1;
}
`, setSlabNext))
}

func (cx *Context) exposeBorrowedObjects() {
	if !cx.expose("borrowed_objects") {
		return
	}
	cx.exposeGlobalStack()
	cx.global(`
function addBorrowedObject(obj) {
    stack.push(obj);
    return ((stack.length - 1) << 1) | 1;
}
`)
}

func (cx *Context) exposeTakeObject() {
	if !cx.expose("take_object") {
		return
	}
	cx.exposeGetObject()
	cx.exposeDropRef()
	cx.global(`
function takeObject(idx) {
    const ret = getObject(idx);
    dropRef(idx);
    return ret;
}
`)
}
