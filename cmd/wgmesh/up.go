package main

import (
	"github.com/sitbon/wgmesh/pkg/node"
	"github.com/spf13/cobra"
)

func newUpCmd(opts *globalOpts) *cobra.Command {
	var info bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Peer and bring up every node in the mesh.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMesh(opts)
			if err != nil {
				return err
			}

			up := m.Up(node.Auto)
			if up == nil || !*up {
				return errFailed
			}

			if info {
				return printInfo(cmd, m, opts)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&info, "info", "i", false, "print mesh info after bringing it up")
	return cmd
}
