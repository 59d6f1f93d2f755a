package loader

import (
	"context"
	"image"
	_ "image/gif" // register decoders
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"

	lru "github.com/hashicorp/golang-lru"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
)

// Image passes resolution through unchanged and adds decoding of the
// resolved content into an image.Image. Decoded images can optionally be
// kept in a bounded LRU cache keyed by name.
type Image struct {
	inner Loader
	cache *lru.Cache
	log   *logging.Logger
}

type decoded struct {
	img    image.Image
	format string
}

func NewImage(inner Loader) *Image {
	return &Image{inner: inner, log: logging.NewNop()}
}

func (i *Image) WithLogger(log *logging.Logger) *Image {
	i.log = log
	return i
}

// WithCacheSize enables caching of up to n decoded images. n <= 0 disables
// the cache.
func (i *Image) WithCacheSize(n int) *Image {
	if n <= 0 {
		i.cache = nil
		return i
	}
	c, err := lru.New(n)
	if err != nil {
		panic(err) // only fails for n <= 0
	}
	i.cache = c
	return i
}

func (i *Image) Resolve(ctx context.Context, name string) (io.ReadCloser, bool) {
	return i.inner.Resolve(ctx, name)
}

func (i *Image) Describe() string {
	return "Image"
}

func (i *Image) Children() []Loader {
	return []Loader{i.inner}
}

func (i *Image) FS(ctx context.Context) (fs.FS, bool) {
	return ListFS(ctx, i.inner)
}

// ResolveImage resolves name and decodes it. Content that is not found or
// cannot be decoded yields false.
func (i *Image) ResolveImage(ctx context.Context, name string) (image.Image, bool) {
	img, _, ok := i.ResolveFormat(ctx, name)
	return img, ok
}

// ResolveFormat is ResolveImage that also reports the codec that decoded
// the content, e.g. "gif".
func (i *Image) ResolveFormat(ctx context.Context, name string) (image.Image, string, bool) {
	if i.cache != nil {
		if v, ok := i.cache.Get(name); ok {
			d := v.(decoded)
			return d.img, d.format, true
		}
	}

	rc, ok := i.inner.Resolve(ctx, name)
	if !ok {
		return nil, "", false
	}
	defer rc.Close()

	img, format, err := image.Decode(rc)
	if err != nil {
		i.log.Warnf("decode image %q: %v", name, err)
		metrics.ImageDecodeFailed.Inc()
		return nil, "", false
	}

	if i.cache != nil {
		i.cache.Add(name, decoded{img: img, format: format})
	}
	return img, format, true
}
