package main

import (
	"github.com/sitbon/wgmesh/pkg/node"
	"github.com/spf13/cobra"
)

func newSyncCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reconcile every node's remote config with its computed one.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMesh(opts)
			if err != nil {
				return err
			}
			if !m.Sync(node.Auto) {
				return errFailed
			}
			return nil
		},
	}
}
