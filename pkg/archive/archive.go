// Package archive resolves names against the entries of a zip or tar
// archive, itself fetched through another loader and optionally wrapped in
// gzip, zstd or lz4 compression.
//
// Two strategies exist. Streaming scans the archive on every lookup and
// holds nothing between calls. Caching reads all file entries into memory
// on first use, once, and serves every later lookup from memory.
package archive

import (
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/pkg/loader"
)

// New returns a Caching loader when cacheAll is set and a Streaming loader
// otherwise.
func New(upstream loader.Loader, opts Options, cacheAll bool, log *logging.Logger) (loader.Loader, error) {
	if cacheAll {
		c, err := NewCaching(upstream, opts)
		if err != nil {
			return nil, err
		}
		return c.WithLogger(log), nil
	}
	s, err := NewStreaming(upstream, opts)
	if err != nil {
		return nil, err
	}
	return s.WithLogger(log), nil
}
