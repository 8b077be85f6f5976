package interp

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wasm-bindgen/errors"
	"github.com/wippyai/wasm-bindgen/program"
	"github.com/wippyai/wasm-bindgen/wasm"
)

// DescribeImport is the recording import every descriptor query calls.
const DescribeImport = "__wbindgen_describe"

// Interpreter evaluates convention-named query exports to recover type
// descriptors. The module is instantiated once with every import stubbed
// and the describe import recording; each query invocation replays into a
// fresh recording buffer.
type Interpreter struct {
	runtime  wazero.Runtime
	instance api.Module
	recorded []uint32
}

// New compiles and instantiates the module for descriptor queries.
func New(ctx context.Context, moduleBytes []byte) (*Interpreter, error) {
	i := &Interpreter{}
	i.runtime = wazero.NewRuntimeWithConfig(ctx, wazero.NewRuntimeConfigInterpreter())

	compiled, err := i.runtime.CompileModule(ctx, moduleBytes)
	if err != nil {
		i.runtime.Close(ctx)
		return nil, errors.InvalidData(errors.PhaseDescribe, "compile module for descriptor queries", err)
	}

	if err := i.satisfyImports(ctx, compiled, moduleBytes); err != nil {
		i.runtime.Close(ctx)
		return nil, err
	}

	cfg := wazero.NewModuleConfig().WithName("describe_target").WithStartFunctions()
	i.instance, err = i.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		i.runtime.Close(ctx)
		return nil, errors.InvalidData(errors.PhaseDescribe, "instantiate module for descriptor queries", err)
	}
	return i, nil
}

// satisfyImports registers a host module per import origin: the describe
// import records its argument, every other function import is a zero stub,
// and imported memories are provided by synthesized exporter modules.
func (i *Interpreter) satisfyImports(ctx context.Context, compiled wazero.CompiledModule, moduleBytes []byte) error {
	builders := map[string]wazero.HostModuleBuilder{}
	builder := func(origin string) wazero.HostModuleBuilder {
		b, ok := builders[origin]
		if !ok {
			b = i.runtime.NewHostModuleBuilder(origin)
			builders[origin] = b
		}
		return b
	}

	for _, def := range compiled.ImportedFunctions() {
		origin, name, ok := def.Import()
		if !ok {
			continue
		}
		params, results := def.ParamTypes(), def.ResultTypes()

		if origin == program.PlaceholderModule && name == DescribeImport {
			b := builder(origin)
			b.NewFunctionBuilder().
				WithGoFunction(api.GoFunc(func(_ context.Context, stack []uint64) {
					i.recorded = append(i.recorded, uint32(stack[0]))
				}), params, results).
				Export(name)
			continue
		}

		b := builder(origin)
		b.NewFunctionBuilder().
			WithGoFunction(api.GoFunc(func(_ context.Context, stack []uint64) {
				for n := range results {
					stack[n] = 0
				}
			}), params, results).
			Export(name)
	}

	for origin, b := range builders {
		if _, err := b.Instantiate(ctx); err != nil {
			return errors.InvalidData(errors.PhaseDescribe, "register import stubs for "+origin, err)
		}
	}

	return i.satisfyMemoryImports(ctx, moduleBytes, builders)
}

// satisfyMemoryImports synthesizes one memory-exporting module per origin
// that imports a memory, built with this repo's own wasm encoder. Host
// module builders cannot export memories, so real modules stand in.
func (i *Interpreter) satisfyMemoryImports(ctx context.Context, moduleBytes []byte, funcOrigins map[string]wazero.HostModuleBuilder) error {
	parsed, err := wasm.ParseModule(moduleBytes)
	if err != nil {
		return errors.InvalidData(errors.PhaseDescribe, "parse module for memory imports", err)
	}
	for _, imp := range parsed.Imports {
		if imp.Kind != wasm.KindMemory || imp.Memory == nil {
			continue
		}
		if _, taken := funcOrigins[imp.Module]; taken {
			return errors.InvalidData(errors.PhaseDescribe,
				"origin "+imp.Module+" mixes function and memory imports", nil)
		}
		exporter := &wasm.Module{
			Memories: []wasm.MemoryType{*imp.Memory},
			Exports:  []wasm.Export{{Name: imp.Name, Kind: wasm.KindMemory, Index: 0}},
		}
		cfg := wazero.NewModuleConfig().WithName(imp.Module)
		if _, err := i.runtime.InstantiateWithConfig(ctx, exporter.Encode(), cfg); err != nil {
			return errors.InvalidData(errors.PhaseDescribe, "synthesize memory exporter "+imp.Module, err)
		}
	}
	return nil
}

// Interpret evaluates the query export and returns the recorded u32
// stream. A missing export returns (nil, nil): the binding was eliminated
// before generation and callers skip it.
func (i *Interpreter) Interpret(ctx context.Context, query string) ([]uint32, error) {
	fn := i.instance.ExportedFunction(query)
	if fn == nil {
		return nil, nil
	}
	i.recorded = i.recorded[:0]
	if _, err := fn.Call(ctx); err != nil {
		return nil, errors.InterpreterFailed(query, err)
	}
	out := make([]uint32, len(i.recorded))
	copy(out, i.recorded)
	return out, nil
}

// Close releases the underlying runtime.
func (i *Interpreter) Close(ctx context.Context) error {
	return i.runtime.Close(ctx)
}
