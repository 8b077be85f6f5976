package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/wippyai/wasm-bindgen/bindgen"
	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/interp"
	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

// binding is one row of the module's boundary surface as shown by inspect
// and browse.
type binding struct {
	name      string
	kind      string
	signature string
}

type surface struct {
	filename string
	module   *wasm.Module
	program  *program.Program
	bindings []binding
}

// loadSurface parses the module, decodes its program description and
// recovers a human-readable signature for every binding by evaluating the
// descriptor queries.
func loadSurface(ctx context.Context, filename string) (*surface, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("read module: %w", err)
	}
	module, err := wasm.ParseModule(data)
	if err != nil {
		return nil, err
	}
	prog, err := bindgen.DecodeProgram(module)
	if err != nil {
		return nil, err
	}
	it, err := interp.New(ctx, data)
	if err != nil {
		return nil, err
	}
	defer it.Close(ctx)

	describe := func(name string) string {
		words, err := it.Interpret(ctx, program.DescribeQuery(name))
		if err != nil || words == nil {
			return ""
		}
		d, err := descriptor.Decode(words)
		if err != nil {
			return ""
		}
		return descStr(d)
	}

	s := &surface{filename: filename, module: module, program: prog}
	for _, e := range prog.Exports {
		if e.Class == "" {
			s.bindings = append(s.bindings, binding{
				name:      e.Name,
				kind:      "fn",
				signature: describe(e.Name),
			})
			continue
		}
		kind := "static"
		switch {
		case e.IsConstructor:
			kind = "ctor"
		case e.Method:
			kind = "method"
		}
		s.bindings = append(s.bindings, binding{
			name:      e.Class + "." + e.Name,
			kind:      kind,
			signature: describe(program.StructFunction(e.Class, e.Name)),
		})
	}
	for _, st := range prog.Structs {
		for _, f := range st.Fields {
			sig := describe(program.FieldGetter(st.Name, f.Name))
			if f.Readonly {
				sig += " (readonly)"
			}
			s.bindings = append(s.bindings, binding{
				name:      st.Name + "." + f.Name,
				kind:      "field",
				signature: sig,
			})
		}
	}
	for i := range prog.Imports {
		imp := &prog.Imports[i]
		switch imp.Kind {
		case program.ImportKindFunction:
			s.bindings = append(s.bindings, binding{
				name:      imp.Function.Name,
				kind:      "import",
				signature: describe(imp.Function.Shim),
			})
		case program.ImportKindStatic:
			s.bindings = append(s.bindings, binding{
				name:      imp.Static.Name,
				kind:      "import",
				signature: "host value",
			})
		case program.ImportKindType:
			s.bindings = append(s.bindings, binding{
				name:      imp.Type.Name,
				kind:      "import",
				signature: "host class",
			})
		}
	}
	for _, e := range prog.Enums {
		var vs []string
		for _, v := range e.Variants {
			vs = append(vs, fmt.Sprintf("%s = %d", v.Name, v.Value))
		}
		s.bindings = append(s.bindings, binding{
			name:      e.Name,
			kind:      "enum",
			signature: strings.Join(vs, ", "),
		})
	}
	sort.Slice(s.bindings, func(i, j int) bool { return s.bindings[i].name < s.bindings[j].name })
	return s, nil
}

func descStr(d *descriptor.Descriptor) string {
	switch d.Kind {
	case descriptor.KindRef:
		return "&" + descStr(d.Inner)
	case descriptor.KindRefMut:
		return "&mut " + descStr(d.Inner)
	case descriptor.KindSlice, descriptor.KindVector:
		return "[" + descStr(d.Inner) + "]"
	case descriptor.KindOption:
		return descStr(d.Inner) + "?"
	case descriptor.KindStruct:
		return d.Name
	case descriptor.KindFunction:
		return fnStr(d.Func)
	case descriptor.KindClosure:
		return "closure " + fnStr(d.Func)
	default:
		return d.Kind.String()
	}
}

func fnStr(fn *descriptor.Function) string {
	if fn == nil {
		return "fn(?)"
	}
	var args []string
	for i := range fn.Args {
		args = append(args, descStr(&fn.Args[i]))
	}
	out := "fn(" + strings.Join(args, ", ") + ")"
	if fn.Ret.Kind != descriptor.KindUnit {
		out += " -> " + descStr(&fn.Ret)
	}
	return out
}
