package fs

import (
	"errors"
	"io/fs"
	"testing/fstest"
)

// MapFS returns a read-only file system holding the given files. Parent
// directories are synthesized.
func MapFS(m map[string][]byte) fs.FS {
	m0 := make(map[string]*fstest.MapFile, len(m))
	for p, data := range m {
		if !fs.ValidPath(p) {
			continue
		}
		m0[p] = &fstest.MapFile{Data: data, Mode: 0444}
	}
	return fstest.MapFS(m0)
}

// Files lists every regular file in fsys, in lexical order.
func Files(fsys fs.FS) ([]string, error) {
	var files []string
	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	return files, err
}

var errStop = errors.New("stop")

// ContainsFiles reports whether fsys holds at least one regular file. A
// missing root counts as empty.
func ContainsFiles(fsys fs.FS) (bool, error) {
	err := fs.WalkDir(fsys, ".", func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return errStop
		}
		return nil
	})
	switch {
	case err == errStop:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, err
}
