package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
)

const kindFS = "fs"

// FS resolves names against resources compiled into the binary, usually an
// embed.FS. Names starting with "/" are looked up from the root of the file
// system, all others relative to the origin directory.
type FS struct {
	fsys   fs.FS
	origin string
	log    *logging.Logger
}

func NewFS(fsys fs.FS, origin string) *FS {
	return &FS{fsys: fsys, origin: strings.Trim(origin, "/"), log: logging.NewNop()}
}

func (l *FS) WithLogger(log *logging.Logger) *FS {
	l.log = log
	return l
}

func (l *FS) path(name string) string {
	if strings.HasPrefix(name, "/") {
		return strings.TrimPrefix(name, "/")
	}
	if l.origin == "" {
		return name
	}
	return path.Join(l.origin, name)
}

func (l *FS) Resolve(_ context.Context, name string) (io.ReadCloser, bool) {
	p := l.path(name)
	if !fs.ValidPath(p) || p == "." {
		metrics.Miss(kindFS)
		return nil, false
	}

	f, err := l.fsys.Open(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			l.log.Warnf("open %q: %v", p, err)
			metrics.Fault(kindFS)
			return nil, false
		}
		metrics.Miss(kindFS)
		return nil, false
	}

	fi, err := f.Stat()
	if err != nil || fi.IsDir() {
		f.Close()
		metrics.Miss(kindFS)
		return nil, false
	}

	metrics.Hit(kindFS)
	return f, true
}

func (l *FS) Describe() string {
	return fmt.Sprintf("FS(origin=%q)", l.origin)
}

func (l *FS) FS(context.Context) (fs.FS, bool) {
	if l.origin == "" {
		return l.fsys, true
	}
	sub, err := fs.Sub(l.fsys, l.origin)
	if err != nil {
		return nil, false
	}
	return sub, true
}
