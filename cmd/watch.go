package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/zeebo/blake3"

	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/pool"
	"github.com/resctl/resctl/pkg/loader"
)

type watchParams struct {
	pipeline string
	interval time.Duration
	rounds   int
	workers  int
}

func newWatchCommand(global *globalParams) *cobra.Command {
	params := watchParams{interval: 30 * time.Second, workers: 4}

	cmd := &cobra.Command{
		Use:   "watch NAME...",
		Short: "Resolve names periodically and report when they change",
		Long: `Resolve every name on a fixed interval and print a line whenever a name
appears, disappears or its content changes. The first round prints the
initial state of every name.

Archives with cache_all are populated once, so only changes coming from
other loaders are observed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, log, err := global.open(cmd)
			if err != nil {
				return err
			}
			defer r.Close()

			l, err := pipeline(r, params.pipeline)
			if err != nil {
				return err
			}

			return watch(cmd.Context(), cmd.OutOrStdout(), l, args, params, log)
		},
	}

	cmd.Flags().StringVarP(&params.pipeline, "pipeline", "p", "", "watch this pipeline instead of the root")
	cmd.Flags().DurationVar(&params.interval, "interval", params.interval, "time between two resolutions of a name")
	cmd.Flags().IntVar(&params.rounds, "rounds", 0, "stop after resolving every name this many times, 0 runs until interrupted")
	cmd.Flags().IntVar(&params.workers, "workers", params.workers, "number of names resolved in parallel")
	return cmd
}

// watcher tracks the last observed state of one name.
type watcher struct {
	name  string
	l     loader.Loader
	left  int // rounds left, negative for unlimited
	every time.Duration
	seen  bool
	sum   string
	out   *syncWriter
	log   *logging.Logger
}

func (w *watcher) run(ctx context.Context) time.Time {
	sum := ""
	if bs, ok := loader.ReadAll(ctx, w.l, w.name); ok {
		h := blake3.Sum256(bs)
		sum = hex.EncodeToString(h[:8])
	}

	switch {
	case !w.seen:
		w.out.printf("%s %s\n", w.name, state(sum))
	case sum != w.sum:
		w.log.Infof("watch %s: %s -> %s", w.name, state(w.sum), state(sum))
		w.out.printf("%s %s\n", w.name, state(sum))
	}
	w.seen, w.sum = true, sum

	if w.left > 0 {
		w.left--
	}
	if w.left == 0 {
		return time.Time{}
	}
	return time.Now().Add(w.every)
}

func state(sum string) string {
	if sum == "" {
		return "missing"
	}
	return "found " + sum
}

func watch(ctx context.Context, out io.Writer, l loader.Loader, names []string, params watchParams, log *logging.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	left := params.rounds
	if left <= 0 {
		left = -1
	}

	w := &syncWriter{w: out}
	p := pool.New(ctx, params.workers)
	for _, name := range names {
		ws := &watcher{name: name, l: l, left: left, every: params.interval, out: w, log: log}
		p.Add(name, ws.run)
	}

	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()

	select {
	case <-done:
		return w.err
	case <-ctx.Done():
		return nil
	}
}

type syncWriter struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err == nil {
		_, s.err = fmt.Fprintf(s.w, format, args...)
	}
}
