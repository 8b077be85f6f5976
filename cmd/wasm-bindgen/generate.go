package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/wippyai/wasm-bindgen/bindgen"
	"github.com/wippyai/wasm-bindgen/interp"
	"github.com/wippyai/wasm-bindgen/wasm"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#90EE90"))
	fileStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func newGenerateCmd() *cobra.Command {
	var (
		configPath      string
		outDir          string
		outName         string
		target          string
		noModulesGlobal string
		debug           bool
		keepDebug       bool
		demangle        bool
		weakRefs        bool
		noTypescript    bool
	)

	cmd := &cobra.Command{
		Use:   "generate <module.wasm>",
		Short: "Generate the glue module, declarations and rewritten binary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("out-dir") {
				cfg.OutDir = outDir
			}
			if flags.Changed("out-name") {
				cfg.OutName = outName
			}
			if flags.Changed("target") {
				cfg.Target = target
			}
			if flags.Changed("no-modules-global") {
				cfg.NoModulesGlobal = noModulesGlobal
			}
			if flags.Changed("debug") {
				cfg.Debug = debug
			}
			if flags.Changed("keep-debug") {
				cfg.KeepDebug = keepDebug
			}
			if flags.Changed("demangle") {
				cfg.Demangle = demangle
			}
			if flags.Changed("weak-refs") {
				cfg.WeakRefs = weakRefs
			}
			if flags.Changed("no-typescript") {
				cfg.NoTypescript = noTypescript
			}
			return runGenerate(args[0], cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a bindgen.toml (default: ./bindgen.toml when present)")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory to write output files to")
	cmd.Flags().StringVar(&outName, "out-name", "", "basename for output files (default: input basename)")
	cmd.Flags().StringVar(&target, "target", "bundler", "loader convention: bundler, nodejs, nodejs-experimental-modules, browser, no-modules")
	cmd.Flags().StringVar(&noModulesGlobal, "no-modules-global", "", "global the no-modules output installs itself on")
	cmd.Flags().BoolVar(&debug, "debug", false, "emit runtime assertions in the glue")
	cmd.Flags().BoolVar(&keepDebug, "keep-debug", false, "retain the name section in the rewritten binary")
	cmd.Flags().BoolVar(&demangle, "demangle", false, "rewrite mangled symbols in the retained name section")
	cmd.Flags().BoolVar(&weakRefs, "weak-refs", false, "free leaked class instances through weak references")
	cmd.Flags().BoolVar(&noTypescript, "no-typescript", false, "skip the .d.ts output")
	return cmd
}

func runGenerate(input string, cfg *fileConfig) error {
	ctx := context.Background()

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}
	module, err := wasm.ParseModule(data)
	if err != nil {
		return err
	}
	prog, err := bindgen.DecodeProgram(module)
	if err != nil {
		return err
	}
	mode, err := parseTarget(cfg.Target)
	if err != nil {
		return err
	}

	it, err := interp.New(ctx, data)
	if err != nil {
		return err
	}
	defer it.Close(ctx)

	name := cfg.OutName
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(input), ".wasm")
	}

	out, err := bindgen.Process(module, prog, func(query string) ([]uint32, error) {
		return it.Interpret(ctx, query)
	}, name, bindgen.Options{
		Mode:            mode,
		NoModulesGlobal: cfg.NoModulesGlobal,
		Debug:           cfg.Debug,
		KeepDebug:       cfg.KeepDebug,
		Demangle:        cfg.Demangle,
		WeakRefs:        cfg.WeakRefs,
	})
	if err != nil {
		return err
	}

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	written := []struct {
		path string
		data []byte
	}{
		{filepath.Join(outDir, name+".js"), []byte(out.JS)},
		{filepath.Join(outDir, name+"_bg.wasm"), out.Module},
	}
	if !cfg.NoTypescript {
		written = append(written, struct {
			path string
			data []byte
		}{filepath.Join(outDir, name+".d.ts"), []byte(out.TypeScript)})
	}

	for _, f := range written {
		if err := os.WriteFile(f.path, f.data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", f.path, err)
		}
		fmt.Printf("%s %s %s\n",
			okStyle.Render("wrote"),
			fileStyle.Render(f.path),
			dimStyle.Render(fmt.Sprintf("(%d bytes)", len(f.data))))
	}
	return nil
}
