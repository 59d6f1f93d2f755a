package loader

import (
	"context"
	"io"
	"io/fs"

	"github.com/resctl/resctl/internal/logging"
)

// Trace logs every resolution attempt of the wrapped loader at debug level.
type Trace struct {
	inner Loader
	log   *logging.Logger
}

func NewTrace(inner Loader, log *logging.Logger) *Trace {
	return &Trace{inner: inner, log: log}
}

func (t *Trace) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	rc, ok := t.inner.Resolve(ctx, name)
	if ok {
		t.log.Debugf("Resolve(%s) via %s => found", name, t.inner.Describe())
	} else {
		t.log.Debugf("Resolve(%s) via %s => not found", name, t.inner.Describe())
	}
	return rc, ok
}

func (t *Trace) Describe() string {
	return "Trace"
}

func (t *Trace) Children() []Loader {
	return []Loader{t.inner}
}

func (t *Trace) FS(ctx context.Context) (fs.FS, bool) {
	return ListFS(ctx, t.inner)
}
