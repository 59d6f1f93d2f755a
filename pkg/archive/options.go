package archive

import (
	"fmt"

	"github.com/gobwas/glob"
)

// Options configures both archive loaders. The zero value reads an
// uncompressed zip archive and keeps every entry.
type Options struct {
	// Name labels the archive in descriptions, logs and metrics, usually
	// the archive file name.
	Name        string
	Format      Format
	Compression Compression
	// Include and Exclude are glob patterns ("/" separated) restricting
	// the entries that can be resolved. An empty Include keeps everything.
	Include []string
	Exclude []string
}

type filter struct {
	include []glob.Glob
	exclude []glob.Glob
}

func (o Options) filter() (filter, error) {
	var f filter
	for _, p := range o.Include {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return f, fmt.Errorf("invalid include pattern %q: %w", p, err)
		}
		f.include = append(f.include, g)
	}
	for _, p := range o.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return f, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		f.exclude = append(f.exclude, g)
	}
	return f, nil
}

func (f filter) match(name string) bool {
	for _, g := range f.exclude {
		if g.Match(name) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, g := range f.include {
		if g.Match(name) {
			return true
		}
	}
	return false
}
