package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImageCommand(global *globalParams) *cobra.Command {
	return &cobra.Command{
		Use:   "image NAME",
		Short: "Decode a resource as an image and print its format and size",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, _, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			img, format, ok := r.Root().ResolveFormat(cmd.Context(), args[0])
			if !ok {
				return &ExitError{Code: exitFailure, Err: fmt.Errorf("%s: not found or not an image", args[0])}
			}

			b := img.Bounds()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s %dx%d\n", format, b.Dx(), b.Dy())
			return err
		},
	}
}
