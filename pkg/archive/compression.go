package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression is the wrapping applied to a whole archive file.
type Compression int

const (
	None Compression = iota
	Gzip
	Zstd
	LZ4
)

// CompressionIDs maps every compression to its accepted spellings.
var CompressionIDs = map[Compression][]string{
	None: {"none", ""},
	Gzip: {"gzip", "gz"},
	Zstd: {"zstd", "zst"},
	LZ4:  {"lz4"},
}

func (c Compression) String() string {
	if ids, ok := CompressionIDs[c]; ok {
		return ids[0]
	}
	return fmt.Sprintf("compression(%d)", int(c))
}

func ParseCompression(s string) (Compression, error) {
	s = strings.ToLower(s)
	for c, ids := range CompressionIDs {
		for _, id := range ids {
			if s == id {
				return c, nil
			}
		}
	}
	return None, fmt.Errorf("unknown compression %q", s)
}

// CompressionFor guesses the compression from a file name suffix.
func CompressionFor(name string) Compression {
	switch {
	case strings.HasSuffix(name, ".gz"), strings.HasSuffix(name, ".tgz"):
		return Gzip
	case strings.HasSuffix(name, ".zst"):
		return Zstd
	case strings.HasSuffix(name, ".lz4"):
		return LZ4
	}
	return None
}

func (c Compression) reader(r io.Reader) (io.ReadCloser, error) {
	switch c {
	case None:
		return io.NopCloser(r), nil
	case Gzip:
		return gzip.NewReader(r)
	case Zstd:
		d, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return d.IOReadCloser(), nil
	case LZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	}
	return nil, fmt.Errorf("unknown compression %d", int(c))
}
