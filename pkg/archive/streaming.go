package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"

	resfs "github.com/resctl/resctl/internal/fs"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
	"github.com/resctl/resctl/pkg/loader"
)

const kindStreaming = "archive_streaming"

// Streaming fetches and scans the archive again on every call and returns
// the first entry whose name equals the requested name byte for byte.
type Streaming struct {
	upstream loader.Loader
	opts     Options
	filter   filter
	log      *logging.Logger
}

func NewStreaming(upstream loader.Loader, opts Options) (*Streaming, error) {
	f, err := opts.filter()
	if err != nil {
		return nil, err
	}
	return &Streaming{upstream: upstream, opts: opts, filter: f, log: logging.NewNop()}, nil
}

func (s *Streaming) WithLogger(log *logging.Logger) *Streaming {
	s.log = log
	return s
}

func (s *Streaming) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	if !s.filter.match(name) {
		metrics.Miss(kindStreaming)
		return nil, false
	}

	raw, ok := s.upstream.Resolve(ctx, name)
	if !ok {
		metrics.Miss(kindStreaming)
		return nil, false
	}
	defer raw.Close()

	metrics.ArchiveScans.WithLabelValues(s.opts.Name, "streaming").Inc()

	r, err := s.opts.Compression.reader(raw)
	if err != nil {
		s.log.Warnf("archive %s: %v", s.opts.Name, err)
		metrics.Fault(kindStreaming)
		return nil, false
	}
	defer r.Close()

	var (
		found []byte
		hit   bool
	)
	err = walk(r, s.opts.Format, func(e entry) error {
		if e.dir || e.name != name {
			return nil
		}
		bs, err := e.read()
		if err != nil {
			return err
		}
		found, hit = bs, true
		return errStop
	})
	if err != nil {
		s.log.Warnf("archive %s: lookup of %q: %v", s.opts.Name, name, err)
		metrics.Fault(kindStreaming)
		return nil, false
	}
	if !hit {
		metrics.Miss(kindStreaming)
		return nil, false
	}

	metrics.Hit(kindStreaming)
	metrics.ResolveBytes.WithLabelValues(kindStreaming).Add(float64(len(found)))
	return loader.Bytes(found), true
}

func (s *Streaming) Describe() string {
	return fmt.Sprintf("ArchiveStreaming(%s, %s, %s)", s.opts.Name, s.opts.Format, s.opts.Compression)
}

func (s *Streaming) Children() []loader.Loader {
	return []loader.Loader{s.upstream}
}

// FS scans the archive once and lists its file entries. The listing is a
// snapshot; Resolve keeps scanning on every call.
func (s *Streaming) FS(ctx context.Context) (fs.FS, bool) {
	raw, ok := s.upstream.Resolve(ctx, s.opts.Name)
	if !ok {
		return nil, false
	}
	defer raw.Close()

	entries := map[string][]byte{}
	if err := collect(raw, s.opts, s.filter, entries, s.log); err != nil {
		s.log.Warnf("archive %s: listing: %v", s.opts.Name, err)
	}
	return resfs.MapFS(entries), true
}
