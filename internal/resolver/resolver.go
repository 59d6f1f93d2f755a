// Package resolver assembles the loader pipelines described by a
// configuration file into a ready-to-use root loader.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/resctl/resctl/assets"
	"github.com/resctl/resctl/internal/config"
	"github.com/resctl/resctl/internal/database"
	"github.com/resctl/resctl/internal/gitrepo"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/pkg/archive"
	"github.com/resctl/resctl/pkg/builder"
	"github.com/resctl/resctl/pkg/loader"
)

// Resolver holds the root pipeline and every named pipeline of a
// configuration, along with the resources (database connections) they
// keep open.
type Resolver struct {
	root    *loader.Image
	b       *builder.Builder
	closers []io.Closer
}

type Builder struct {
	config   *config.Root
	embedded fs.FS
	logger   *logging.Logger
}

func New() *Builder {
	return &Builder{
		embedded: assets.FS,
		logger:   logging.NewNop(),
	}
}

func (b *Builder) WithConfig(c *config.Root) *Builder {
	b.config = c
	return b
}

// WithEmbedded replaces the file system served by "embedded" loaders.
func (b *Builder) WithEmbedded(fsys fs.FS) *Builder {
	b.embedded = fsys
	return b
}

func (b *Builder) WithLogger(logger *logging.Logger) *Builder {
	b.logger = logger
	return b
}

// Build opens every loader of the configuration and combines the root
// labels. Pipelines are assembled in dependency order so that archive and
// pipeline loaders can refer to any other pipeline. On error, everything
// opened so far is closed again.
func (b *Builder) Build(ctx context.Context) (*Resolver, error) {
	if b.config == nil {
		return nil, errors.New("no configuration")
	}

	sorted, err := b.config.TopologicalSortedPipelines()
	if err != nil {
		return nil, err
	}

	r := &Resolver{
		b: builder.New().WithLogger(b.logger).WithTrace(b.config.Trace),
	}

	for _, p := range sorted {
		for i, l := range p.Loaders {
			if err := b.add(ctx, r, l); err != nil {
				r.Close()
				return nil, fmt.Errorf("pipeline %q, loader %d: %w", p.Name, i, err)
			}
		}
		if err := r.b.NameThat(p.Name).Err(); err != nil {
			r.Close()
			return nil, fmt.Errorf("pipeline %q: %w", p.Name, err)
		}
	}

	root, err := r.b.CombineNamedLoaders(b.config.RootLabels()...).Build()
	if err != nil {
		r.Close()
		return nil, err
	}

	r.root = loader.NewImage(root).WithLogger(b.logger).WithCacheSize(b.config.ImageCacheSize)
	b.logger.Debugf("assembled %d pipelines: %v", len(sorted), r.b.Labels())
	return r, nil
}

func (b *Builder) add(ctx context.Context, r *Resolver, l *config.Loader) error {
	typed, err := l.Typed()
	if err != nil {
		return err
	}

	switch t := typed.(type) {
	case config.LoaderFileSystem:
		r.b.LookInFileSystem(t.Prefix)

	case config.LoaderEmbedded:
		r.b.LookInFS(b.embedded, t.Origin)

	case config.LoaderArchive:
		a, err := archiveOf(t)
		if err != nil {
			return err
		}
		r.b.LookInArchive(a)

	case config.LoaderHardcoded:
		entries := t.Entries
		if len(entries) == 0 {
			entries = loader.DefaultEntries
		}
		r.b.LookInHardcoded(entries)

	case config.LoaderSQL:
		db, err := database.Open(ctx, t.DSN, t.Table, b.logger)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, db)
		r.b.LookIn(db)

	case config.LoaderGit:
		repo, err := gitrepo.Open(t.Path, t.Revision, t.Prefix, b.logger)
		if err != nil {
			return err
		}
		r.b.LookIn(repo)

	case config.LoaderPipeline:
		r.b.CombineNamedLoaders(t.Name)

	default:
		return fmt.Errorf("unsupported loader %T", typed)
	}

	return r.b.Err()
}

func archiveOf(t config.LoaderArchive) (builder.Archive, error) {
	a := builder.Archive{
		Name:          t.Name,
		From:          t.From,
		CacheAll:      t.CacheAll,
		IncludedFiles: t.Include,
		ExcludedFiles: t.Exclude,
	}

	if t.Compression == "" {
		a.Compression = archive.CompressionFor(t.Name)
	} else {
		c, err := archive.ParseCompression(t.Compression)
		if err != nil {
			return a, err
		}
		a.Compression = c
	}

	f, err := archive.ParseFormat(t.Format)
	if err != nil {
		return a, err
	}
	a.Format = f
	return a, nil
}

// Root is the combined root pipeline, with image decoding.
func (r *Resolver) Root() *loader.Image {
	return r.root
}

// Pipeline returns the named pipeline label.
func (r *Resolver) Pipeline(label string) (loader.Loader, bool) {
	return r.b.Named(label)
}

// Labels returns the pipeline labels in the order they were assembled.
func (r *Resolver) Labels() []string {
	return r.b.Labels()
}

func (r *Resolver) Close() error {
	var errs []error
	for _, c := range r.closers {
		errs = append(errs, c.Close())
	}
	r.closers = nil
	return errors.Join(errs...)
}
