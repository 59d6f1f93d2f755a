package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"sync"
	"time"

	resfs "github.com/resctl/resctl/internal/fs"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
	"github.com/resctl/resctl/pkg/loader"
)

const kindCaching = "archive_caching"

// Caching reads every file entry of the archive into memory on first use
// and answers all lookups from that copy. The upstream loader is asked for
// the archive exactly once per Caching instance, even when that fails.
// A failure while reading keeps the entries read before it. Population
// ignores cancellation of the caller that triggers it, since every later
// caller shares the result.
type Caching struct {
	upstream loader.Loader
	opts     Options
	filter   filter
	log      *logging.Logger

	once    sync.Once
	entries map[string][]byte // read-only after once
}

func NewCaching(upstream loader.Loader, opts Options) (*Caching, error) {
	f, err := opts.filter()
	if err != nil {
		return nil, err
	}
	return &Caching{upstream: upstream, opts: opts, filter: f, log: logging.NewNop()}, nil
}

func (c *Caching) WithLogger(log *logging.Logger) *Caching {
	c.log = log
	return c
}

func (c *Caching) populate(ctx context.Context, name string) {
	c.once.Do(func() {
		c.entries = map[string][]byte{}
		start := time.Now()
		defer func() {
			metrics.ArchivePopulationDuration.WithLabelValues(c.opts.Name).Observe(time.Since(start).Seconds())
			metrics.ArchiveCachedEntries.WithLabelValues(c.opts.Name).Set(float64(len(c.entries)))
		}()

		raw, ok := c.upstream.Resolve(context.WithoutCancel(ctx), name)
		if !ok {
			c.log.Debugf("archive %s: not found, cache stays empty", c.opts.Name)
			return
		}
		defer raw.Close()

		metrics.ArchiveScans.WithLabelValues(c.opts.Name, "caching").Inc()

		if err := collect(raw, c.opts, c.filter, c.entries, c.log); err != nil {
			c.log.Warnf("archive %s: read stopped after %d entries: %v", c.opts.Name, len(c.entries), err)
			metrics.Fault(kindCaching)
		}
	})
}

func (c *Caching) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	c.populate(ctx, name)

	bs, ok := c.entries[name]
	if !ok {
		metrics.Miss(kindCaching)
		return nil, false
	}
	metrics.Hit(kindCaching)
	metrics.ResolveBytes.WithLabelValues(kindCaching).Add(float64(len(bs)))
	return loader.Bytes(bs), true
}

// Warm populates the cache without resolving anything.
func (c *Caching) Warm(ctx context.Context) {
	c.populate(ctx, c.opts.Name)
}

// Entries returns the sorted names held by the cache, populating it first.
func (c *Caching) Entries(ctx context.Context) []string {
	c.Warm(ctx)
	return slices.Sorted(maps.Keys(c.entries))
}

func (c *Caching) FS(ctx context.Context) (fs.FS, bool) {
	c.Warm(ctx)
	return resfs.MapFS(c.entries), true
}

func (c *Caching) Describe() string {
	return fmt.Sprintf("ArchiveCaching(%s, %s, %s)", c.opts.Name, c.opts.Format, c.opts.Compression)
}

func (c *Caching) Children() []loader.Loader {
	return []loader.Loader{c.upstream}
}
