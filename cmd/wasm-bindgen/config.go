package main

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/wippyai/wasm-bindgen/bindgen"
)

// fileConfig mirrors bindgen.toml. Flags set on the command line override
// whatever the file says.
type fileConfig struct {
	OutDir          string `toml:"out-dir"`
	OutName         string `toml:"out-name"`
	Target          string `toml:"target"`
	NoModulesGlobal string `toml:"no-modules-global"`
	Debug           bool   `toml:"debug"`
	KeepDebug       bool   `toml:"keep-debug"`
	Demangle        bool   `toml:"demangle"`
	WeakRefs        bool   `toml:"weak-refs"`
	NoTypescript    bool   `toml:"no-typescript"`
}

// loadConfig reads the named file, or bindgen.toml from the working
// directory when no path is given. A missing default file is not an error.
func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{}
	if path == "" {
		path = "bindgen.toml"
		if _, err := os.Stat(path); err != nil {
			return cfg, nil
		}
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func parseTarget(s string) (bindgen.Mode, error) {
	switch s {
	case "", "bundler":
		return bindgen.ModeBundler, nil
	case "nodejs":
		return bindgen.ModeNode, nil
	case "nodejs-experimental-modules":
		return bindgen.ModeNodeESM, nil
	case "browser":
		return bindgen.ModeBrowser, nil
	case "no-modules":
		return bindgen.ModeNoModules, nil
	}
	return 0, fmt.Errorf("unknown target %q (want bundler, nodejs, nodejs-experimental-modules, browser or no-modules)", s)
}
