package loader

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
)

const kindFileSystem = "filesystem"

// FileSystem resolves names as OS paths, relative to the working directory
// unless absolute. Paths that do not exist, are not regular files or cannot
// be opened are not found.
type FileSystem struct {
	log *logging.Logger
}

func NewFileSystem() *FileSystem {
	return &FileSystem{log: logging.NewNop()}
}

func (l *FileSystem) WithLogger(log *logging.Logger) *FileSystem {
	l.log = log
	return l
}

func (l *FileSystem) Resolve(_ context.Context, name string) (io.ReadCloser, bool) {
	if name == "" {
		metrics.Miss(kindFileSystem)
		return nil, false
	}

	p := filepath.FromSlash(name)
	fi, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENOTDIR):
		metrics.Miss(kindFileSystem)
		return nil, false
	case err != nil:
		l.log.Warnf("stat %s: %v", p, err)
		metrics.Fault(kindFileSystem)
		return nil, false
	case !fi.Mode().IsRegular():
		metrics.Miss(kindFileSystem)
		return nil, false
	}

	f, err := os.Open(p)
	if err != nil {
		l.log.Warnf("open %s: %v", p, err)
		metrics.Fault(kindFileSystem)
		return nil, false
	}

	metrics.Hit(kindFileSystem)
	return f, true
}

func (*FileSystem) Describe() string {
	return "FileSystem"
}

func (*FileSystem) FS(context.Context) (fs.FS, bool) {
	return os.DirFS("."), true
}
