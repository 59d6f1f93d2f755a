package cmd

import (
	"github.com/spf13/cobra"

	"github.com/resctl/resctl/pkg/loader"
)

func newTreeCommand(global *globalParams) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the loaders a pipeline consists of",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, _, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			l, err := pipeline(r, label)
			if err != nil {
				return err
			}
			return loader.Render(cmd.OutOrStdout(), loader.Dump(l))
		},
	}

	cmd.Flags().StringVarP(&label, "pipeline", "p", "", "show this pipeline instead of the root")
	return cmd
}
