// Package mountfs presents several file systems as directories of a single
// read-only tree.
package mountfs

import (
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
	"time"
)

// MountFS maps mount points (slash separated, no leading slash) to the file
// systems mounted there. Directories above mount points are synthesized.
// Mount points must not be added while the MountFS is in use.
type MountFS map[string]fs.FS

func New(m map[string]fs.FS) MountFS {
	return m
}

var _ fs.FS = MountFS(nil)

func (m MountFS) Open(name string) (fs.File, error) {
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}

	if fsys, ok := m[name]; ok {
		return &dir{name: name, list: func() ([]fs.DirEntry, error) { return fs.ReadDir(fsys, ".") }}, nil
	}

	var best string
	for mnt := range m {
		if strings.HasPrefix(name, mnt+"/") && len(mnt) > len(best) {
			best = mnt
		}
	}
	if best != "" {
		return m[best].Open(name[len(best)+1:])
	}

	children := m.children(name)
	if len(children) == 0 && name != "." {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
	return &dir{name: name, list: func() ([]fs.DirEntry, error) {
		entries := make([]fs.DirEntry, 0, len(children))
		for _, c := range children {
			entries = append(entries, fs.FileInfoToDirEntry(dirInfo(c)))
		}
		return entries, nil
	}}, nil
}

// children returns the sorted names of the synthesized entries directly
// below name.
func (m MountFS) children(name string) []string {
	prefix := name + "/"
	if name == "." {
		prefix = ""
	}
	seen := map[string]struct{}{}
	for mnt := range m {
		rest, ok := strings.CutPrefix(mnt, prefix)
		if !ok || rest == "" {
			continue
		}
		elem, _, _ := strings.Cut(rest, "/")
		seen[elem] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

type dirInfo string

func (d dirInfo) Name() string     { return path.Base(string(d)) }
func (dirInfo) Size() int64        { return 0 }
func (dirInfo) Mode() fs.FileMode  { return fs.ModeDir | 0555 }
func (dirInfo) ModTime() time.Time { return time.Time{} }
func (dirInfo) IsDir() bool        { return true }
func (dirInfo) Sys() any           { return nil }

type dir struct {
	name    string
	list    func() ([]fs.DirEntry, error)
	entries []fs.DirEntry
	read    bool
}

func (d *dir) Stat() (fs.FileInfo, error) { return dirInfo(d.name), nil }
func (*dir) Close() error                 { return nil }
func (d *dir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.name, Err: fs.ErrInvalid}
}

func (d *dir) ReadDir(n int) ([]fs.DirEntry, error) {
	if !d.read {
		entries, err := d.list()
		if err != nil {
			return nil, err
		}
		d.entries, d.read = entries, true
	}
	if n <= 0 {
		out := d.entries
		d.entries = nil
		return out, nil
	}
	if len(d.entries) == 0 {
		return nil, io.EOF
	}
	n = min(n, len(d.entries))
	out := d.entries[:n]
	d.entries = d.entries[n:]
	return out, nil
}
