package cmd

import (
	"fmt"
	"io/fs"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/resctl/resctl/internal/fs/mountfs"
	"github.com/resctl/resctl/pkg/loader"
)

type listParams struct {
	pipeline string
	all      bool
}

func newListCommand(global *globalParams) *cobra.Command {
	var params listParams

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List the names a pipeline can resolve",
		Long: `List the names a pipeline can resolve, with their sizes.

Only loaders that can enumerate their content contribute: archives,
embedded resources, databases, git repositories and hardcoded entries.
Resources found on the file system are listed relative to the working
directory. With --all, every pipeline is listed under its own label.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, log, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			var fsys fs.FS
			if params.all {
				mounts := map[string]fs.FS{}
				for _, label := range r.Labels() {
					l, _ := r.Pipeline(label)
					if sub, ok := loader.ListFS(cmd.Context(), l); ok {
						mounts[label] = sub
					} else {
						log.Infof("pipeline %q cannot be listed", label)
					}
				}
				fsys = mountfs.New(mounts)
			} else {
				l, err := pipeline(r, params.pipeline)
				if err != nil {
					return err
				}
				var ok bool
				if fsys, ok = loader.ListFS(cmd.Context(), l); !ok {
					return &ExitError{Code: exitFailure, Err: fmt.Errorf("%s cannot be listed", l.Describe())}
				}
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("Name", "Size")

			err = fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
				if err != nil {
					log.Warnf("listing %s: %v", p, err)
					return nil
				}
				if d.IsDir() {
					return nil
				}
				size := "-"
				if info, err := d.Info(); err == nil {
					size = strconv.FormatInt(info.Size(), 10)
				}
				return table.Append(p, size)
			})
			if err != nil {
				return err
			}
			return table.Render()
		},
	}

	cmd.Flags().StringVarP(&params.pipeline, "pipeline", "p", "", "list this pipeline instead of the root")
	cmd.Flags().BoolVar(&params.all, "all", false, "list every pipeline, prefixed by its label")
	return cmd
}
