package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/resctl/resctl/internal/config"
)

func newValidateCommand(global *globalParams) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration without opening any loader",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			bs, err := global.configBytes()
			if err != nil {
				return err
			}
			if err := config.Validate(bs); err != nil {
				return configError(err)
			}
			root, err := config.Parse(bs)
			if err != nil {
				return configError(err)
			}
			if _, err := root.TopologicalSortedPipelines(); err != nil {
				return configError(err)
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "configuration valid: %d pipelines, root %v\n", len(root.Pipelines), root.RootLabels())
			return err
		},
	}
}
