package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"strings"
)

// Prefix prepends a fixed string to every name before delegating.
type Prefix struct {
	inner  Loader
	prefix string
}

func NewPrefix(inner Loader, prefix string) *Prefix {
	return &Prefix{inner: inner, prefix: prefix}
}

func (p *Prefix) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	return p.inner.Resolve(ctx, p.prefix+name)
}

func (p *Prefix) Describe() string {
	return fmt.Sprintf("Prefix(%q)", p.prefix)
}

func (p *Prefix) Children() []Loader {
	return []Loader{p.inner}
}

// FS lists the part of the inner listing below the prefix. Only relative
// prefixes naming a directory ("", "a/b/") can be listed: inner listings
// hold relative names, so an absolute prefix such as "/" has none.
func (p *Prefix) FS(ctx context.Context) (fs.FS, bool) {
	if strings.HasPrefix(p.prefix, "/") {
		return nil, false
	}
	if p.prefix != "" && !strings.HasSuffix(p.prefix, "/") {
		return nil, false
	}
	fsys, ok := ListFS(ctx, p.inner)
	if !ok {
		return nil, false
	}
	dir := strings.TrimSuffix(p.prefix, "/")
	if dir == "" {
		return fsys, true
	}
	if !fs.ValidPath(dir) {
		return nil, false
	}
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return nil, false
	}
	return sub, true
}

// FixedName ignores the requested name and always asks the inner loader
// for the same one. It is used to locate an archive file regardless of the
// entry that is eventually looked up inside it.
type FixedName struct {
	inner Loader
	name  string
}

func NewFixedName(inner Loader, name string) *FixedName {
	return &FixedName{inner: inner, name: name}
}

func (f *FixedName) Resolve(ctx context.Context, _ string) (io.ReadCloser, bool) {
	return f.inner.Resolve(ctx, f.name)
}

func (f *FixedName) Describe() string {
	return fmt.Sprintf("FixedName(%q)", f.name)
}

func (f *FixedName) Children() []Loader {
	return []Loader{f.inner}
}

// Name is the name always requested from the inner loader.
func (f *FixedName) Name() string {
	return f.name
}
