package main

import (
	"github.com/sitbon/wgmesh/pkg/node"
	"github.com/spf13/cobra"
)

func newDownCmd(opts *globalOpts) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Bring down every node in the mesh.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMesh(opts)
			if err != nil {
				return err
			}

			removeState := node.Skip
			if remove {
				removeState = node.Force
			}

			if !m.Down(removeState) {
				return errFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&remove, "remove", "r", false, "also remove each node's WireGuard config file")
	return cmd
}
