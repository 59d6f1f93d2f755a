package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/resctl/resctl/internal/resolver"
	"github.com/resctl/resctl/pkg/builder"
	"github.com/resctl/resctl/pkg/loader"
)

type resolveParams struct {
	pipeline string
	output   string
}

func newResolveCommand(global *globalParams) *cobra.Command {
	var params resolveParams

	cmd := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Write the content a name resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			l, err := pipeline(r, params.pipeline)
			if err != nil {
				return err
			}

			rc, ok := l.Resolve(cmd.Context(), args[0])
			if !ok {
				return &ExitError{Code: exitFailure, Err: fmt.Errorf("%s: not found", args[0])}
			}
			defer rc.Close()

			w := cmd.OutOrStdout()
			if params.output != "" && params.output != "-" {
				f, err := os.Create(params.output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			if _, err := io.Copy(w, rc); err != nil {
				return fmt.Errorf("failed to write %s: %w", args[0], err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.pipeline, "pipeline", "p", "", "resolve through this pipeline instead of the root")
	cmd.Flags().StringVarP(&params.output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}

// pipeline returns the named pipeline, or the root when label is empty.
func pipeline(r *resolver.Resolver, label string) (loader.Loader, error) {
	if label == "" {
		return r.Root(), nil
	}
	l, ok := r.Pipeline(label)
	if !ok {
		return nil, configError(fmt.Errorf("%q: %w", label, builder.ErrUnknownPipeline))
	}
	return l, nil
}
