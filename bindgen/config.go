package bindgen

// Mode selects the loader convention the emitted JS module follows.
type Mode uint8

const (
	// ModeBundler emits an ES module for bundlers. Node builtins are
	// feature-detected so the same output runs under node test harnesses.
	ModeBundler Mode = iota
	// ModeNode emits a CommonJS module loaded with require.
	ModeNode
	// ModeNodeESM emits an ES module for node's experimental module
	// support, importing node builtins directly.
	ModeNodeESM
	// ModeBrowser emits an ES module that relies only on browser globals.
	ModeBrowser
	// ModeNoModules emits a self-executing expression that installs an
	// init function and the exports on a configurable global.
	ModeNoModules
)

func (m Mode) String() string {
	switch m {
	case ModeBundler:
		return "bundler"
	case ModeNode:
		return "nodejs"
	case ModeNodeESM:
		return "nodejs-experimental-modules"
	case ModeBrowser:
		return "browser"
	case ModeNoModules:
		return "no-modules"
	}
	return "unknown"
}

// Options configures one generation run.
type Options struct {
	// Mode picks the loader convention for the emitted module.
	Mode Mode

	// NoModulesGlobal names the global the no-modules output installs
	// itself on. Empty means "wasm_bindgen".
	NoModulesGlobal string

	// Debug emits runtime assertions: argument type checks, slab and
	// stack integrity checks, and invoke-after-drop guards on closures.
	Debug bool

	// WeakRefs registers every exported class instance with a weak
	// reference group so leaked instances are eventually freed. Explicit
	// free still works and cancels the registered cleanup.
	WeakRefs bool

	// KeepDebug retains the name custom section through gc.
	KeepDebug bool

	// Demangle rewrites mangled symbols in the retained name section into
	// readable paths. Only observable together with KeepDebug or Debug,
	// since gc strips the name section otherwise.
	Demangle bool
}

func (o *Options) noModulesGlobal() string {
	if o.NoModulesGlobal == "" {
		return "wasm_bindgen"
	}
	return o.NoModulesGlobal
}
