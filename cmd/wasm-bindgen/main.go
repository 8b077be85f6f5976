package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-bindgen/bindgen"
)

var verbose bool

func main() {
	root := &cobra.Command{
		Use:           "wasm-bindgen",
		Short:         "Generate JS glue and TypeScript declarations for a wasm module",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			if !verbose {
				return
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return
			}
			bindgen.SetLogger(logger)
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.AddCommand(newGenerateCmd(), newInspectCmd(), newBrowseCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
