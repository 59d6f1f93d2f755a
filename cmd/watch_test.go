package cmd

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/pkg/loader"
)

func TestWatchReportsChanges(t *testing.T) {
	var calls atomic.Int32
	l := loader.Func{
		Name: "changing",
		Fn: func(_ context.Context, name string) (io.ReadCloser, bool) {
			switch calls.Add(1) {
			case 1, 2:
				return loader.Bytes([]byte("v1")), true
			case 3:
				return nil, false
			default:
				return loader.Bytes([]byte("v2")), true
			}
		},
	}

	var out bytes.Buffer
	params := watchParams{interval: time.Millisecond, rounds: 5, workers: 1}
	if err := watch(t.Context(), &out, l, []string{"x"}, params, logging.NewNop()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if exp, act := 3, len(lines); exp != act {
		t.Fatalf("expected %d lines, got %d:\n%s", exp, act, out.String())
	}
	if !strings.HasPrefix(lines[0], "x found ") || lines[1] != "x missing" || !strings.HasPrefix(lines[2], "x found ") {
		t.Fatalf("unexpected output:\n%s", out.String())
	}
	if lines[0] == lines[2] {
		t.Fatalf("expected different content hashes:\n%s", out.String())
	}
}

func TestWatchStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	l := loader.Func{Name: "never", Fn: func(context.Context, string) (io.ReadCloser, bool) { return nil, false }}
	params := watchParams{interval: 10 * time.Millisecond, workers: 1}
	if err := watch(ctx, io.Discard, l, []string{"x"}, params, logging.NewNop()); err != nil {
		t.Fatal(err)
	}
}
