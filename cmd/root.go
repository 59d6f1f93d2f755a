// Package cmd implements the resctl command line.
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/thediveo/enumflag/v2"

	"github.com/resctl/resctl/internal/config"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/resolver"
	"github.com/resctl/resctl/pkg/builder"
)

const (
	exitFailure = 1
	exitConfig  = 2
)

// ExitError carries the process exit status of a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func configError(err error) error {
	return &ExitError{Code: exitConfig, Err: err}
}

type globalParams struct {
	configFiles []string
	logLevel    logging.Level
	logJSON     bool
	trace       bool
}

// New returns the root command with all subcommands attached.
func New() *cobra.Command {
	params := &globalParams{logLevel: logging.LevelWarn}

	root := &cobra.Command{
		Use:           "resctl",
		Short:         "Resolve resource names through configurable loader pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringSliceVarP(&params.configFiles, "config", "c", []string{"config.yaml"}, "configuration files or directories, merged in order")
	flags.Var(enumflag.New(&params.logLevel, "level", logging.LevelIDs, enumflag.EnumCaseInsensitive), "log-level", "log level: error, warn, info, debug")
	flags.BoolVar(&params.logJSON, "log-json", false, "log JSON objects instead of text")
	flags.BoolVar(&params.trace, "trace", false, "log every resolution attempt, implies --log-level=debug")

	root.AddCommand(
		newResolveCommand(params),
		newTreeCommand(params),
		newListCommand(params),
		newCheckCommand(params),
		newDiffCommand(params),
		newImageCommand(params),
		newValidateCommand(params),
		newWatchCommand(params),
	)
	return root
}

// Execute runs the command line and returns the process exit status.
func Execute() int {
	root := New()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "error:", err)
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	var cfg *builder.ConfigError
	if errors.As(err, &cfg) {
		return exitConfig
	}
	return exitFailure
}

func (p *globalParams) logger(w io.Writer) *logging.Logger {
	level := p.logLevel
	if p.trace {
		level = logging.LevelDebug
	}
	return logging.New(logging.Config{Level: level, JSON: p.logJSON, Output: w})
}

func (p *globalParams) configBytes() ([]byte, error) {
	bs, err := config.Merge(p.configFiles, true)
	if err != nil {
		return nil, configError(err)
	}
	return bs, nil
}

func (p *globalParams) config() (*config.Root, error) {
	bs, err := p.configBytes()
	if err != nil {
		return nil, err
	}
	root, err := config.Parse(bs)
	if err != nil {
		return nil, configError(err)
	}
	if p.trace {
		root.Trace = true
	}
	return root, nil
}

// open assembles the configured pipelines. The caller closes the Resolver.
func (p *globalParams) open(cmd *cobra.Command) (*resolver.Resolver, *logging.Logger, error) {
	cfg, err := p.config()
	if err != nil {
		return nil, nil, err
	}

	log := p.logger(cmd.ErrOrStderr())
	r, err := resolver.New().
		WithConfig(cfg).
		WithLogger(log).
		Build(cmd.Context())
	if err != nil {
		return nil, nil, configError(err)
	}
	return r, log, nil
}
