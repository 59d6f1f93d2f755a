// Package builder assembles resource loader pipelines with a fluent API.
//
// Loaders are accumulated in a preparing list and either registered under a
// label with NameThat, so that later steps can refer to them, or returned
// with Build. A preparing list of one loader becomes that loader, a longer
// one becomes a chain tried in insertion order.
//
// # Basic Usage
//
// Look in the binary's embedded resources, then in two directories:
//
//	import "github.com/resctl/resctl/pkg/builder"
//
//	//go:embed resources
//	var resources embed.FS
//
//	l, err := builder.New().
//	    LookInFS(resources, "resources").
//	    LookInFileSystem("", "src/main/resources/").
//	    Build()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rc, ok := l.Resolve(ctx, "images/lcd_14x23/gray/0.gif")
//
// # Archives
//
// Archive entries become resolvable by naming the pipeline that finds the
// archive file, then looking inside it:
//
//	l, err := builder.New().
//	    LookInFileSystem("", "src/main/resources/").
//	    NameThat("disk").
//	    LookInZipFile("images.zip.gz", true, "disk", true). // gzip, cache all entries
//	    NameThat("zip").
//	    CombineNamedLoaders("zip", "disk").
//	    Build()
//
// The archive loader always asks the "disk" pipeline for "images.zip.gz",
// whatever entry is being resolved. With cacheAll set the archive is read
// once, on first use; otherwise it is scanned for every lookup.
//
// LookInArchive accepts other containers and compressions:
//
//	b.LookInArchive(builder.Archive{
//	    Name:          "images.tar.zst",
//	    From:          "disk",
//	    Format:        archive.Tar,
//	    Compression:   archive.Zstd,
//	    CacheAll:      true,
//	    IncludedFiles: []string{"images/**"},
//	})
//
// # Errors
//
// Configuration mistakes are fatal and cannot be fixed by falling through:
// finalizing an empty preparing list, referring to an unknown label,
// registering a label twice, or a filesystem prefix that does not end with
// "/". The first such error poisons the Builder; Build and Err return it as
// a *ConfigError wrapping one of the Err* sentinels:
//
//	if _, err := builder.New().Build(); errors.Is(err, builder.ErrEmptyPipeline) {
//	    // nothing to look in
//	}
//
// # Thread Safety
//
// Builder instances are NOT thread-safe. The loaders they return are.
package builder
