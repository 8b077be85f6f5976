package bindgen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-bindgen/descriptor"
	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

// DescribeFunc evaluates one descriptor query export and returns the
// recorded u32 stream. A nil stream with a nil error means the query
// export no longer exists and the binding must be skipped.
type DescribeFunc func(query string) ([]uint32, error)

// Context accumulates the generated JS module across all generation
// passes. Text lands in four ordered fragments (imports, globals, footer,
// typescript) that Finalize assembles per the configured loader mode.
type Context struct {
	opts       Options
	module     *wasm.Module
	describeFn DescribeFunc

	globals    string
	imports    string
	footer     string
	typescript string

	// binding names the export or import currently being generated so
	// errors raised deep in emission identify their declaration.
	binding string

	exposedGlobals          map[string]struct{}
	requiredInternalExports map[string]struct{}

	importedFunctions   map[string]struct{}
	importedStatics     map[string]struct{}
	importedNames       map[string]map[string]string
	importedIdentifiers map[string]int

	exportedClasses map[string]*ExportedClass

	functionTableNeeded bool

	// memoryInit holds the limits of an imported memory; the glue module
	// then owns the WebAssembly.Memory and re-exports it to the wasm side.
	memoryInit *wasm.MemoryType
}

// NewContext prepares a generation run over the parsed module. The module
// must define or import a linear memory.
func NewContext(module *wasm.Module, describe DescribeFunc, opts Options) (*Context, error) {
	if _, _, ok := module.Memory(); !ok {
		return nil, errors.MissingMemory()
	}
	return &Context{
		opts:       opts,
		module:     module,
		describeFn: describe,

		typescript: "/* tslint:disable */\n",

		exposedGlobals:          map[string]struct{}{},
		requiredInternalExports: map[string]struct{}{},
		importedFunctions:       map[string]struct{}{},
		importedStatics:         map[string]struct{}{},
		importedNames:           map[string]map[string]string{},
		importedIdentifiers:     map[string]int{},
		exportedClasses:         map[string]*ExportedClass{},
	}, nil
}

// expose records that the named helper has been emitted. It returns false
// when the helper is already present, making every expose* method
// idempotent.
func (cx *Context) expose(name string) bool {
	if _, ok := cx.exposedGlobals[name]; ok {
		return false
	}
	cx.exposedGlobals[name] = struct{}{}
	return true
}

// global appends one item to the module body, keeping a blank line between
// adjacent items. An item directly following its doc comment stays attached.
func (cx *Context) global(s string) {
	s = strings.TrimSpace(s)
	for !strings.HasSuffix(cx.globals, "\n\n\n") && !strings.HasSuffix(cx.globals, "*/\n") {
		cx.globals += "\n"
	}
	cx.globals += s
	cx.globals += "\n"
}

func (cx *Context) useNodeRequire() bool {
	return cx.opts.Mode == ModeNode
}

// export emits one named export of the generated JS module, phrased per
// the loader mode. contents is either a function body starting with
// "function", a class declaration starting with "class", or an expression.
func (cx *Context) export(name, contents, comments string) {
	contents = strings.TrimSpace(contents)
	if comments != "" {
		cx.globals += "\n" + comments
	}
	var global string
	switch {
	case cx.useNodeRequire():
		if strings.HasPrefix(contents, "class") {
			global = fmt.Sprintf("%s\nmodule.exports.%s = %s;\n", contents, name, name)
		} else {
			global = fmt.Sprintf("module.exports.%s = %s;\n", name, contents)
		}
	case cx.opts.Mode == ModeNoModules:
		if strings.HasPrefix(contents, "class") {
			global = fmt.Sprintf("%s\n__exports.%s = %s;\n", contents, name, name)
		} else {
			global = fmt.Sprintf("__exports.%s = %s;\n", name, contents)
		}
	default:
		switch {
		case strings.HasPrefix(contents, "function"):
			global = "export function " + name + strings.TrimPrefix(contents, "function") + "\n"
		case strings.HasPrefix(contents, "class"):
			global = "export " + contents + "\n"
		default:
			global = "export const " + name + " = " + contents + ";\n"
		}
	}
	cx.global(global)
}

// bind generates glue for one internal placeholder import, skipping it
// entirely when the module never imports it.
func (cx *Context) bind(name string, gen func() (string, error)) error {
	if !cx.wasmImportNeeded(name) {
		return nil
	}
	contents, err := gen()
	if err != nil {
		return err
	}
	cx.export(name, contents, "")
	return nil
}

// wasmImportNeeded reports whether the module imports name from the
// placeholder origin.
func (cx *Context) wasmImportNeeded(name string) bool {
	return cx.module.HasImport(program.PlaceholderModule, name)
}

// requireInternalExport marks an internal module export as needed by the
// emitted glue. It fails when the module was compiled without it.
func (cx *Context) requireInternalExport(name string) error {
	if _, ok := cx.requiredInternalExports[name]; ok {
		return nil
	}
	if !cx.module.HasExport(name) {
		return errors.MissingExport(errors.PhaseExport, cx.binding, name)
	}
	cx.requiredInternalExports[name] = struct{}{}
	return nil
}

// describe recovers the type descriptor for the named binding. A (nil, nil)
// return means the query export was eliminated and the binding is skipped.
func (cx *Context) describe(name string) (*descriptor.Descriptor, error) {
	query := program.DescribeQuery(name)
	words, err := cx.describeFn(query)
	if err != nil {
		return nil, err
	}
	if words == nil {
		Logger().Debug("descriptor query eliminated, skipping binding",
			zap.String("binding", name))
		return nil, nil
	}
	d, err := descriptor.Decode(words)
	if err != nil {
		return nil, errors.BadDescriptor(name, err)
	}
	return d, nil
}

// memory returns the JS expression naming the module's linear memory.
// A defined memory is reached through the instance exports; an imported
// one is created by the glue itself and re-exported to the module.
func (cx *Context) memory() string {
	mem, imported, ok := cx.module.Memory()
	if ok && imported {
		cx.memoryInit = &mem
		return "memory"
	}
	return "wasm.memory"
}

// importName resolves the local identifier for one host import, emitting
// the import statement on first use. The same (origin, identifier) pair
// always resolves to the same local name; colliding identifiers from
// different origins get numeric-suffix aliases.
func (cx *Context) importName(imp *program.Import, item string) (string, error) {
	if cx.opts.Mode == ModeNoModules && imp.Module != "" {
		return "", errors.DisallowedImport(item, imp.Module,
			"use the nodejs or browser conventions instead")
	}

	nameToImport := item
	if imp.Namespace != "" {
		nameToImport = imp.Namespace
	}

	byName, ok := cx.importedNames[imp.Module]
	if !ok {
		byName = map[string]string{}
		cx.importedNames[imp.Module] = byName
	}
	identifier, ok := byName[nameToImport]
	if !ok {
		identifier = cx.generateIdentifier(nameToImport)
		byName[nameToImport] = identifier
		if imp.Module != "" {
			switch {
			case cx.useNodeRequire():
				cx.imports += fmt.Sprintf("const %s = require(String.raw`%s`).%s;\n",
					identifier, imp.Module, nameToImport)
			case identifier == nameToImport:
				cx.imports += fmt.Sprintf("import { %s } from '%s';\n", identifier, imp.Module)
			default:
				cx.imports += fmt.Sprintf("import { %s as %s } from '%s';\n",
					nameToImport, identifier, imp.Module)
			}
		}
	}

	// With a namespace the namespace itself was imported, the item is
	// reached through it.
	if imp.Namespace != "" {
		return identifier + "." + item, nil
	}
	return identifier, nil
}

func (cx *Context) generateIdentifier(name string) string {
	cx.importedIdentifiers[name]++
	cnt := cx.importedIdentifiers[name]
	if cnt == 1 {
		return name
	}
	return fmt.Sprintf("%s%d", name, cnt)
}

// formatDocComments renders source comments plus generated jsdoc lines as
// one block comment ending in "*/\n".
func formatDocComments(comments []string, jsDoc string) string {
	var b strings.Builder
	b.WriteString("/**\n")
	for _, c := range comments {
		b.WriteString("*")
		b.WriteString(strings.Trim(c, "\""))
		b.WriteString("\n")
	}
	if jsDoc != "" {
		for _, l := range strings.Split(strings.TrimRight(jsDoc, "\n"), "\n") {
			b.WriteString("* ")
			b.WriteString(l)
			b.WriteString(" \n")
		}
	}
	b.WriteString("*/\n")
	return b.String()
}
