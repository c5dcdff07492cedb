package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newShowCmd(opts *globalOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print each node's live `wg show` output.",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadMesh(opts)
			if err != nil {
				return err
			}
			m.Show(os.Stdout)
			return nil
		},
	}
}
