package cmd

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/resctl/resctl/pkg/loader"
)

type checkParams struct {
	pipeline    string
	concurrency int
	progress    bool
}

func newCheckCommand(global *globalParams) *cobra.Command {
	params := checkParams{concurrency: 8}

	cmd := &cobra.Command{
		Use:   "check NAME...",
		Short: "Verify that every name resolves",
		Long: `Resolve every name given and report the ones that are missing.

The command exits with a non-zero status if any name cannot be resolved,
which makes it suitable for validating a deployment at startup.`,
		Args: cobra.MinimumNArgs(1),
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

			missing, err := check(cmd, l, args, params)
			if err != nil {
				return err
			}
			if len(missing) > 0 {
				return &ExitError{
					Code: exitFailure,
					Err:  fmt.Errorf("%d of %d names not found: %s", len(missing), len(args), strings.Join(missing, ", ")),
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d names resolved\n", len(args))
			return nil
		},
	}

	cmd.Flags().StringVarP(&params.pipeline, "pipeline", "p", "", "check against this pipeline instead of the root")
	cmd.Flags().IntVar(&params.concurrency, "concurrency", params.concurrency, "number of names resolved in parallel")
	cmd.Flags().BoolVar(&params.progress, "progress", false, "show a progress bar on stderr")
	return cmd
}

func check(cmd *cobra.Command, l loader.Loader, names []string, params checkParams) ([]string, error) {
	var w io.Writer = io.Discard
	if params.progress {
		w = cmd.ErrOrStderr()
	}
	bar := progressbar.NewOptions(len(names),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("resolving"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
	)
	defer bar.Close()

	var (
		mu      sync.Mutex
		missing []string
	)

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(params.concurrency, 1))

	for _, name := range names {
		g.Go(func() error {
			rc, ok := l.Resolve(ctx, name)
			if ok {
				rc.Close()
			} else {
				mu.Lock()
				missing = append(missing, name)
				mu.Unlock()
			}
			return bar.Add(1)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.Sort(missing)
	return missing, nil
}
