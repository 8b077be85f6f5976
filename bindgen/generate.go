package bindgen

import (
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

// Output is the result of one generation run.
type Output struct {
	// JS is the emitted glue module.
	JS string
	// TypeScript is the emitted .d.ts declaration file.
	TypeScript string
	// Module is the rewritten wasm binary: internal exports trimmed,
	// placeholder imports retargeted at the glue module, function table
	// exported when closures need it.
	Module []byte
}

// Process runs the whole pipeline over a parsed module: per-declaration
// generation, class finalization, intrinsic binding, module rewriting and
// loader assembly. moduleName is the basename the emitted files import the
// wasm module under.
func Process(module *wasm.Module, prog *program.Program, describe DescribeFunc, moduleName string, opts Options) (*Output, error) {
	cx, err := NewContext(module, describe, opts)
	if err != nil {
		return nil, err
	}
	if err := cx.Generate(prog); err != nil {
		return nil, err
	}
	js, ts, err := cx.Finalize(moduleName)
	if err != nil {
		return nil, err
	}
	return &Output{JS: js, TypeScript: ts, Module: module.Encode()}, nil
}

// Generate runs the per-declaration passes: exports, imports, enums, then
// struct metadata merged into the accumulated classes.
func (cx *Context) Generate(prog *program.Program) error {
	Logger().Debug("generating bindings",
		zap.Int("exports", len(prog.Exports)),
		zap.Int("imports", len(prog.Imports)),
		zap.Int("structs", len(prog.Structs)),
		zap.Int("enums", len(prog.Enums)),
		zap.String("mode", cx.opts.Mode.String()))

	for i := range prog.Exports {
		if err := cx.generateExport(&prog.Exports[i]); err != nil {
			return err
		}
	}
	for i := range prog.Imports {
		if err := cx.generateImport(&prog.Imports[i]); err != nil {
			return err
		}
	}
	for i := range prog.Enums {
		cx.generateEnum(&prog.Enums[i])
	}
	for i := range prog.Structs {
		s := &prog.Structs[i]
		class := cx.exportedClass(s.Name)
		class.comments = formatDocComments(s.Comments, "")
		for _, f := range s.Fields {
			class.fields = append(class.fields, classField{
				name:     f.Name,
				readonly: f.Readonly,
				comments: f.Comments,
			})
		}
	}
	return nil
}

// DecodeProgram extracts and decodes the program description compiled into
// the module's custom section.
func DecodeProgram(module *wasm.Module) (*program.Program, error) {
	payload, ok := module.CustomSection(program.ProgramSection)
	if !ok {
		return nil, errors.New(errors.PhaseParse, errors.KindInvalidData).
			Detail("module carries no %s section; was it compiled for binding generation?", program.ProgramSection).
			Build()
	}
	return program.Decode(payload)
}
