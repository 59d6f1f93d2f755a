// Package gitrepo resolves names against the files of a local git
// repository as of a fixed revision. Nothing is fetched from remotes.
package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	resfs "github.com/resctl/resctl/internal/fs"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
	"github.com/resctl/resctl/pkg/loader"
)

const kindGit = "git"

type Loader struct {
	path     string
	revision string
	prefix   string
	commit   plumbing.Hash
	log      *logging.Logger

	mu   sync.Mutex // guards tree, the object storage is not safe for concurrent use
	tree *object.Tree
}

// Open opens the repository at repoPath and pins revision, HEAD if empty.
// Names are looked up below prefix inside the commit's tree.
func Open(repoPath, revision, prefix string, log *logging.Logger) (*Loader, error) {
	if revision == "" {
		revision = "HEAD"
	}

	repository, err := git.PlainOpen(repoPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository %s: %w", repoPath, err)
	}

	hash, err := repository.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve revision %q in %s: %w", revision, repoPath, err)
	}

	commit, err := repository.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("failed to read tree of %s: %w", hash, err)
	}

	log.Debugf("git %s: pinned %s at %s", repoPath, revision, hash)

	return &Loader{
		path:     repoPath,
		revision: revision,
		prefix:   strings.Trim(prefix, "/"),
		commit:   *hash,
		log:      log,
		tree:     tree,
	}, nil
}

// Commit is the hash the revision resolved to.
func (l *Loader) Commit() string {
	return l.commit.String()
}

func (l *Loader) Resolve(_ context.Context, name string) (io.ReadCloser, bool) {
	p := path.Join(l.prefix, name)
	if name == "" || !fs.ValidPath(p) {
		metrics.Miss(kindGit)
		return nil, false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry, err := l.tree.FindEntry(p)
	if err != nil || !entry.Mode.IsFile() {
		metrics.Miss(kindGit)
		return nil, false
	}

	f, err := l.tree.File(p)
	if errors.Is(err, object.ErrFileNotFound) {
		metrics.Miss(kindGit)
		return nil, false
	}
	if err != nil {
		l.log.Warnf("git %s: lookup of %q: %v", l.path, p, err)
		metrics.Fault(kindGit)
		return nil, false
	}

	bs, err := read(f)
	if err != nil {
		l.log.Warnf("git %s: reading %q: %v", l.path, p, err)
		metrics.Fault(kindGit)
		return nil, false
	}

	metrics.Hit(kindGit)
	metrics.ResolveBytes.WithLabelValues(kindGit).Add(float64(len(bs)))
	return loader.Bytes(bs), true
}

func read(f *object.File) ([]byte, error) {
	rc, err := f.Reader()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (l *Loader) Describe() string {
	return fmt.Sprintf("Git(%s@%s, prefix=%q)", l.path, l.revision, l.prefix)
}

// FS lists the files below the prefix, with their content as of the pinned
// commit.
func (l *Loader) FS(context.Context) (fs.FS, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	files := map[string][]byte{}
	err := l.tree.Files().ForEach(func(f *object.File) error {
		name := f.Name
		if l.prefix != "" {
			var ok bool
			if name, ok = strings.CutPrefix(f.Name, l.prefix+"/"); !ok {
				return nil
			}
		}
		bs, err := read(f)
		if err != nil {
			return err
		}
		files[name] = bs
		return nil
	})
	if err != nil {
		l.log.Warnf("git %s: listing: %v", l.path, err)
		return nil, false
	}
	return resfs.MapFS(files), true
}
