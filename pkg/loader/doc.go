// Package loader resolves logical resource names, such as
// "images/lcd_14x23/gray/0.gif", to their content.
//
// A Loader answers a single question: give me the bytes for this name, or
// report that it cannot. Leaf loaders read from a concrete store and
// wrappers adapt names or results before delegating:
//
//   - FS reads resources compiled into the binary (an embed.FS).
//   - FileSystem reads OS paths.
//   - Hardcoded serves a few base64 literals as a last resort.
//   - Prefix prepends a string to every name.
//   - FixedName always asks for the same name, e.g. an archive file.
//   - Image adds ResolveImage, decoding the resolved content.
//   - Trace logs every attempt.
//   - Chain tries loaders in order until one resolves the name.
//
// Archive loaders live in the archive package and pipelines are usually
// assembled with the builder package:
//
//	fsys := loader.NewChain(
//	    loader.NewPrefix(loader.NewFileSystem(), ""),
//	    loader.NewPrefix(loader.NewFileSystem(), "src/main/resources/"),
//	)
//	rc, ok := fsys.Resolve(ctx, "images.zip.gz")
//	if !ok {
//	    // not found anywhere
//	}
//	defer rc.Close()
//
// # Errors
//
// Resolution never returns an error. Not found and faults (unreadable
// files, corrupt archives) both yield false so that a chain can fall
// through to its next strategy. Faults are logged at warn level and counted
// in the resctl_resolve_total metric with outcome "fault".
//
// # Debugging
//
// Dump turns a pipeline into a tree of descriptions and Render prints it:
//
//	Chain(2)
//	  ArchiveCaching(images.zip.gz, zip, gzip)
//	    FixedName("images.zip.gz")
//	      Prefix("")
//	        FileSystem
//	  Prefix("")
//	    FileSystem
//
// # Thread Safety
//
// All loaders in this package are safe for concurrent use once built.
package loader
