package builder

import (
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/pkg/archive"
	"github.com/resctl/resctl/pkg/loader"
)

// Builder assembles loader pipelines. Loaders added with the LookIn*
// methods accumulate in a preparing list; NameThat turns that list into a
// named pipeline and Build returns it. Named pipelines only live as long as
// the Builder.
//
// The first configuration error poisons the Builder: later calls are
// ignored and Build returns the error.
type Builder struct {
	preparing []loader.Loader
	named     map[string]loader.Loader
	labels    []string
	log       *logging.Logger
	trace     bool
	err       error
}

func New() *Builder {
	return &Builder{
		named: map[string]loader.Loader{},
		log:   logging.NewNop(),
	}
}

func (b *Builder) WithLogger(log *logging.Logger) *Builder {
	b.log = log
	return b
}

// WithTrace wraps every pipeline produced by NameThat and Build so that
// each resolution attempt is logged at debug level.
func (b *Builder) WithTrace(trace bool) *Builder {
	b.trace = trace
	return b
}

func (b *Builder) fail(op, label string, err error) *Builder {
	if b.err == nil {
		b.err = &ConfigError{Op: op, Label: label, Err: err}
		b.log.Errorf("pipeline configuration: %v", b.err)
	}
	return b
}

func (b *Builder) add(l loader.Loader) *Builder {
	if b.err == nil {
		b.preparing = append(b.preparing, l)
	}
	return b
}

// Err returns the configuration error recorded so far, if any.
func (b *Builder) Err() error {
	return b.err
}

// LookIn adds any loader, including ones defined outside this module.
func (b *Builder) LookIn(l loader.Loader) *Builder {
	if l == nil {
		return b.fail("LookIn", "", ErrInvalidLoader)
	}
	return b.add(l)
}

// LookInFS adds resources compiled into the binary. Names are tried both
// relative to origin and from the root of fsys.
func (b *Builder) LookInFS(fsys fs.FS, origin string) *Builder {
	if fsys == nil {
		return b.fail("LookInFS", origin, ErrInvalidLoader)
	}
	l := loader.NewFS(fsys, origin).WithLogger(b.log)
	return b.add(loader.NewPrefix(l, "")).add(loader.NewPrefix(l, "/"))
}

// LookInFileSystem adds one filesystem loader per prefix, in order. A
// prefix is prepended to every name, so it must be empty or name a
// directory ending with "/".
func (b *Builder) LookInFileSystem(prefixes ...string) *Builder {
	if len(prefixes) == 0 {
		prefixes = []string{""}
	}
	l := loader.NewFileSystem().WithLogger(b.log)
	for _, p := range prefixes {
		if p != "" && !strings.HasSuffix(p, "/") {
			return b.fail("LookInFileSystem", p, ErrMalformedPrefix)
		}
		b.add(loader.NewPrefix(l, p))
	}
	return b
}

// LookInHardcoded adds a loader serving base64 literals, matched by the
// last path segment of the requested name.
func (b *Builder) LookInHardcoded(entries map[string]string) *Builder {
	l, err := loader.NewHardcoded(entries)
	if err != nil {
		return b.fail("LookInHardcoded", "", fmt.Errorf("%w: %w", ErrInvalidLoader, err))
	}
	return b.add(l)
}

// LookInZipFile adds the entries of a zip archive found by the pipeline
// named previousLabel, gunzipping it first when gzip is set.
func (b *Builder) LookInZipFile(name string, gzip bool, previousLabel string, cacheAll bool) *Builder {
	a := Archive{Name: name, From: previousLabel, CacheAll: cacheAll}
	if gzip {
		a.Compression = archive.Gzip
	}
	return b.LookInArchive(a)
}

// LookInArchive adds the entries of an archive found by the pipeline named
// a.From.
func (b *Builder) LookInArchive(a Archive) *Builder {
	if b.err != nil {
		return b
	}
	if a.Name == "" {
		return b.fail("LookInArchive", a.From, fmt.Errorf("%w: missing archive name", ErrInvalidLoader))
	}
	upstream, ok := b.named[a.From]
	if !ok {
		return b.fail("LookInArchive", a.From, ErrUnknownPipeline)
	}
	l, err := archive.New(loader.NewFixedName(upstream, a.Name), a.options(), a.CacheAll, b.log)
	if err != nil {
		return b.fail("LookInArchive", a.Name, fmt.Errorf("%w: %w", ErrInvalidLoader, err))
	}
	return b.add(l)
}

// CombineNamedLoaders adds a chain of previously named pipelines, in the
// given order.
func (b *Builder) CombineNamedLoaders(labels ...string) *Builder {
	if b.err != nil {
		return b
	}
	if len(labels) == 0 {
		return b.fail("CombineNamedLoaders", "", ErrEmptyPipeline)
	}
	ls := make([]loader.Loader, 0, len(labels))
	for _, label := range labels {
		l, ok := b.named[label]
		if !ok {
			return b.fail("CombineNamedLoaders", label, ErrUnknownPipeline)
		}
		ls = append(ls, l)
	}
	if len(ls) == 1 {
		return b.add(ls[0])
	}
	return b.add(loader.NewChain(ls...))
}

// NameThat turns the preparing list into a pipeline registered under label
// and starts a new, empty preparing list.
func (b *Builder) NameThat(label string) *Builder {
	if b.err != nil {
		return b
	}
	if _, ok := b.named[label]; ok {
		return b.fail("NameThat", label, ErrDuplicateLabel)
	}
	l, err := b.finalize()
	if err != nil {
		return b.fail("NameThat", label, err)
	}
	b.named[label] = l
	b.labels = append(b.labels, label)
	return b
}

// Build turns the preparing list into a pipeline and returns it.
func (b *Builder) Build() (loader.Loader, error) {
	if b.err != nil {
		return nil, b.err
	}
	l, err := b.finalize()
	if err != nil {
		b.fail("Build", "", err)
		return nil, b.err
	}
	return l, nil
}

func (b *Builder) finalize() (loader.Loader, error) {
	var l loader.Loader
	switch len(b.preparing) {
	case 0:
		return nil, ErrEmptyPipeline
	case 1:
		l = b.preparing[0]
	default:
		l = loader.NewChain(b.preparing...)
	}
	b.preparing = nil
	if _, traced := l.(*loader.Trace); b.trace && !traced {
		l = loader.NewTrace(l, b.log)
	}
	return l, nil
}

// Named returns the pipeline registered under label.
func (b *Builder) Named(label string) (loader.Loader, bool) {
	l, ok := b.named[label]
	return l, ok
}

// Labels returns the registered labels in registration order.
func (b *Builder) Labels() []string {
	return slices.Clone(b.labels)
}
