package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sitbon/wgmesh/pkg/mesh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newInfoCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Print the mesh's current observed state.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMesh(opts)
			if err != nil {
				return err
			}
			return printInfo(cmd, m, opts)
		},
	}
}

func printInfo(cmd *cobra.Command, m *mesh.Mesh, opts *globalOpts) error {
	info := m.Info()

	if opts.jsonOut {
		encoded, err := json.MarshalIndent(info, "", "    ")
		if err != nil {
			return fmt.Errorf("encode mesh info: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(encoded))
		return nil
	}

	encoded, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("encode mesh info: %w", err)
	}
	fmt.Fprint(os.Stdout, string(encoded))
	return nil
}
