package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <module.wasm>",
		Short: "List the module's bindings and their signatures",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInspect(args[0])
		},
	}
}

func runInspect(filename string) error {
	s, err := loadSurface(context.Background(), filename)
	if err != nil {
		return err
	}

	fmt.Printf("%s %s\n", titleStyle.Render("Module"), filename)
	fmt.Printf("%s\n\n", dimStyle.Render(fmt.Sprintf(
		"%d wasm imports, %d wasm exports, %d bindings",
		len(s.module.Imports), len(s.module.Exports), len(s.bindings))))

	for _, b := range s.bindings {
		fmt.Printf("  %s %s  %s\n",
			dimStyle.Render(fmt.Sprintf("%-7s", b.kind)),
			funcStyle.Render(b.name),
			typeStyle.Render(b.signature))
	}
	return nil
}
