package cmd

import (
	"errors"
	"fmt"

	"github.com/akedrou/textdiff"
	"github.com/spf13/cobra"

	"github.com/resctl/resctl/pkg/loader"
)

type diffParams struct {
	left  string
	right string
}

func newDiffCommand(global *globalParams) *cobra.Command {
	var params diffParams

	cmd := &cobra.Command{
		Use:   "diff NAME --left PIPELINE --right PIPELINE",
		Short: "Compare what a name resolves to in two pipelines",
		Long: `Resolve the same name through two pipelines and print a unified diff
of the results. A name missing from one side compares as empty. Nothing is
printed when both sides are equal.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			name := args[0]
			left, err := pipeline(r, params.left)
			if err != nil {
				return err
			}
			right, err := pipeline(r, params.right)
			if err != nil {
				return err
			}

			a, aok := loader.ReadAll(cmd.Context(), left, name)
			b, bok := loader.ReadAll(cmd.Context(), right, name)
			if !aok && !bok {
				return &ExitError{Code: exitFailure, Err: fmt.Errorf("%s: not found in either pipeline", name)}
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), textdiff.Unified(label(params.left, name), label(params.right, name), string(a), string(b)))
			return err
		},
	}

	cmd.Flags().StringVar(&params.left, "left", "", "pipeline for the old side")
	cmd.Flags().StringVar(&params.right, "right", "", "pipeline for the new side")
	if err := errors.Join(cmd.MarkFlagRequired("left"), cmd.MarkFlagRequired("right")); err != nil {
		panic(err)
	}
	return cmd
}

func label(pipeline, name string) string {
	return pipeline + "/" + name
}
