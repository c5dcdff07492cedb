package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newConfCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "conf",
		Short: "Peer the mesh in memory and print each node's computed wg-quick config.",
		Long: "Peer the mesh in memory and print each node's computed wg-quick config.\n" +
			"Node identity is still adopted over SSH, same as every other verb, but " +
			"conf never writes a config file or changes interface state on any remote host.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMesh(opts)
			if err != nil {
				return err
			}
			if err := m.PeerAll(); err != nil {
				return fmt.Errorf("conf: %w", err)
			}

			for _, name := range m.Names() {
				n, _ := m.Node(name)
				fmt.Fprintf(os.Stdout, "# %s\n%s\n", name, n.RenderConfig())
			}
			return nil
		},
	}
}
