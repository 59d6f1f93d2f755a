package builder

import "github.com/resctl/resctl/pkg/archive"

// Archive describes an archive file whose entries become resolvable. The
// archive file itself is looked up through a previously named pipeline.
type Archive struct {
	// Name is the file name requested from the source pipeline (required),
	// e.g. "images.zip.gz". Every lookup asks for this name, whatever entry
	// is being resolved.
	Name string

	// From is the label of the pipeline that resolves Name (required).
	From string

	// Compression wrapping the whole archive file. The zero value is none.
	Compression archive.Compression

	// Format of the container. The zero value is zip.
	Format archive.Format

	// CacheAll reads every file entry into memory on first use and serves
	// all later lookups from there. Without it the archive is fetched and
	// scanned again for every lookup.
	CacheAll bool

	// IncludedFiles restricts the resolvable entries to those matching any
	// of these glob patterns. Empty means all entries.
	IncludedFiles []string

	// ExcludedFiles removes entries matching any of these glob patterns.
	ExcludedFiles []string
}

func (a Archive) options() archive.Options {
	return archive.Options{
		Name:        a.Name,
		Format:      a.Format,
		Compression: a.Compression,
		Include:     a.IncludedFiles,
		Exclude:     a.ExcludedFiles,
	}
}
