package loader

import (
	"bytes"
	"context"
	"io"
	"io/fs"
)

// Loader resolves a logical resource name to its content. A false result
// means not found: faults are never surfaced to the caller, they are
// logged and counted by the loader that hit them. The caller owns the
// returned stream and must close it.
type Loader interface {
	Resolve(ctx context.Context, name string) (io.ReadCloser, bool)
	Describe() string
}

// Parent is implemented by loaders that delegate to other loaders. Dump
// uses it to walk a pipeline.
type Parent interface {
	Children() []Loader
}

// Lister is implemented by loaders that can enumerate what they resolve.
// The returned file system is read-only; the second result is false when
// the backing store cannot be listed.
type Lister interface {
	FS(ctx context.Context) (fs.FS, bool)
}

// Func adapts a function into a Loader.
type Func struct {
	Name string
	Fn   func(ctx context.Context, name string) (io.ReadCloser, bool)
}

func (f Func) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	return f.Fn(ctx, name)
}

func (f Func) Describe() string {
	return f.Name
}

// ReadAll resolves name and reads the stream to its end, closing it.
// A read error counts as not found.
func ReadAll(ctx context.Context, l Loader, name string) ([]byte, bool) {
	rc, ok := l.Resolve(ctx, name)
	if !ok {
		return nil, false
	}
	defer rc.Close()

	bs, err := io.ReadAll(rc)
	if err != nil {
		return nil, false
	}
	return bs, true
}

// Bytes returns a fresh stream over bs.
func Bytes(bs []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(bs))
}

// ListFS returns the listing of l, if it has one.
func ListFS(ctx context.Context, l Loader) (fs.FS, bool) {
	if lister, ok := l.(Lister); ok {
		return lister.FS(ctx)
	}
	return nil, false
}
