// Command wgmesh is the CLI front end over pkg/mesh: a thin cobra layer
// that loads the mesh document, dispatches to a verb, and maps the result
// to an exit code.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if err != errFailed {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// errFailed is returned by a verb's RunE when it already logged the reason
// for failure through the mesh's own convergence logging; main must still
// exit 1, but printing the error again would be noise.
var errFailed = fmt.Errorf("wgmesh: operation failed")

func newRootCmd() *cobra.Command {
	opts := &globalOpts{file: "mesh.yaml"}

	root := &cobra.Command{
		Use:           "mesh",
		Short:         "Declaratively manage a WireGuard+GRETAP overlay mesh over SSH.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.quiet {
				devnull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
				if err != nil {
					return fmt.Errorf("open %s: %w", os.DevNull, err)
				}
				os.Stderr = devnull
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.file, "file", "f", opts.file, "mesh document path, or - for stdin")
	root.PersistentFlags().BoolVarP(&opts.jsonIn, "json", "j", false, "parse the mesh document as JSON instead of YAML")
	root.PersistentFlags().BoolVarP(&opts.jsonOut, "json-out", "J", false, "print info output as JSON instead of YAML")
	root.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress convergence logging")

	root.AddCommand(
		newUpCmd(opts),
		newDownCmd(opts),
		newSyncCmd(opts),
		newShowCmd(opts),
		newInfoCmd(opts),
		newConfCmd(opts),
	)

	return root
}

type globalOpts struct {
	file    string
	jsonIn  bool
	jsonOut bool
	quiet   bool
}
