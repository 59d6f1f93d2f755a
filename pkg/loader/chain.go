package loader

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	"github.com/yalue/merged_fs"
)

// Chain tries its loaders in order and returns the first hit.
type Chain struct {
	loaders []Loader
}

func NewChain(loaders ...Loader) *Chain {
	return &Chain{loaders: loaders}
}

func (c *Chain) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	for _, l := range c.loaders {
		if ctx.Err() != nil {
			return nil, false
		}
		if rc, ok := l.Resolve(ctx, name); ok {
			return rc, true
		}
	}
	return nil, false
}

func (c *Chain) Describe() string {
	return fmt.Sprintf("Chain(%d)", len(c.loaders))
}

func (c *Chain) Children() []Loader {
	return c.loaders
}

// FS merges the listings of all listable children. Earlier children
// shadow later ones, matching resolution order.
func (c *Chain) FS(ctx context.Context) (fs.FS, bool) {
	fses := make([]fs.FS, 0, len(c.loaders))
	for _, l := range c.loaders {
		if fsys, ok := ListFS(ctx, l); ok {
			fses = append(fses, fsys)
		}
	}
	if len(fses) == 0 {
		return nil, false
	}
	return merged_fs.MergeMultiple(fses...), true
}
