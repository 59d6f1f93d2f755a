package loader_test

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	resfs "github.com/resctl/resctl/internal/fs"
	"github.com/resctl/resctl/internal/logging"
	"github.com/resctl/resctl/internal/metrics"
	"github.com/resctl/resctl/pkg/loader"
)

// recorder is a loader backed by a map that records every requested name.
type recorder struct {
	files map[string]string
	asked []string
}

func (r *recorder) Resolve(_ context.Context, name string) (io.ReadCloser, bool) {
	r.asked = append(r.asked, name)
	s, ok := r.files[name]
	if !ok {
		return nil, false
	}
	return io.NopCloser(strings.NewReader(s)), true
}

func (*recorder) Describe() string { return "recorder" }

func read(t *testing.T, l loader.Loader, name string) (string, bool) {
	t.Helper()
	bs, ok := loader.ReadAll(t.Context(), l, name)
	return string(bs), ok
}

func TestNotFoundEverywhere(t *testing.T) {
	inner := &recorder{files: map[string]string{"a.txt": "1"}}
	hc, err := loader.NewHardcoded(loader.DefaultEntries)
	if err != nil {
		t.Fatal(err)
	}

	loaders := map[string]loader.Loader{
		"fs":         loader.NewFS(fstest.MapFS{"a.txt": {Data: []byte("1")}}, ""),
		"filesystem": loader.NewFileSystem(),
		"hardcoded":  hc,
		"prefix":     loader.NewPrefix(inner, "x/"),
		"chain":      loader.NewChain(inner, hc),
		"image":      loader.NewImage(inner),
		"trace":      loader.NewTrace(inner, logging.NewNop()),
	}

	for note, l := range loaders {
		t.Run(note, func(t *testing.T) {
			if _, ok := l.Resolve(t.Context(), "does/not/exist.bin"); ok {
				t.Fatal("expected not found")
			}
		})
	}
}

func TestPrefix(t *testing.T) {
	inner := &recorder{files: map[string]string{"p/a": "A", "a": "plain"}}
	l := loader.NewPrefix(inner, "p/")

	for _, name := range []string{"a", "b", ""} {
		got, gotOK := read(t, l, name)
		exp, expOK := read(t, inner, "p/"+name)
		if got != exp || gotOK != expOK {
			t.Fatalf("%q: expected (%q, %v), got (%q, %v)", name, exp, expOK, got, gotOK)
		}
	}
}

func TestFixedName(t *testing.T) {
	inner := &recorder{files: map[string]string{"images.zip": "Z"}}
	l := loader.NewFixedName(inner, "images.zip")

	a, aok := read(t, l, "one")
	b, bok := read(t, l, "two")
	if a != b || !aok || !bok || a != "Z" {
		t.Fatalf("expected identical hits, got (%q, %v) and (%q, %v)", a, aok, b, bok)
	}
	if diff := cmp.Diff([]string{"images.zip", "images.zip"}, inner.asked); diff != "" {
		t.Fatalf("unexpected requests (-want, +got):\n%s", diff)
	}
}

func TestChain(t *testing.T) {
	l1 := &recorder{files: map[string]string{"a": "from-1", "both": "first"}}
	l2 := &recorder{files: map[string]string{"b": "from-2", "both": "second"}}
	c := loader.NewChain(l1, l2)

	cases := []struct {
		note  string
		name  string
		exp   string
		found bool
	}{
		{note: "first child", name: "a", exp: "from-1", found: true},
		{note: "second child", name: "b", exp: "from-2", found: true},
		{note: "priority", name: "both", exp: "first", found: true},
		{note: "missing", name: "c", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			act, ok := read(t, c, tc.name)
			if ok != tc.found {
				t.Fatalf("expected found=%v, got %v", tc.found, ok)
			}
			if act != tc.exp {
				t.Fatalf("expected %q, got %q", tc.exp, act)
			}
		})
	}

	t.Run("retries every child each call", func(t *testing.T) {
		l1.asked, l2.asked = nil, nil
		read(t, c, "c")
		read(t, c, "c")
		if exp, act := 2, len(l2.asked); exp != act {
			t.Fatalf("expected %d requests to second child, got %d", exp, act)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, ok := c.Resolve(ctx, "a"); ok {
			t.Fatal("expected not found on cancelled context")
		}
	})
}

func TestFS(t *testing.T) {
	fsys := fstest.MapFS{
		"res/images/0.gif": {Data: []byte("relative")},
		"images/0.gif":     {Data: []byte("absolute")},
	}
	l := loader.NewFS(fsys, "res")

	cases := []struct {
		note  string
		name  string
		exp   string
		found bool
	}{
		{note: "relative to origin", name: "images/0.gif", exp: "relative", found: true},
		{note: "absolute", name: "/images/0.gif", exp: "absolute", found: true},
		{note: "directory", name: "images", found: false},
		{note: "root", name: "/", found: false},
		{note: "missing", name: "images/1.gif", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			act, ok := read(t, l, tc.name)
			if ok != tc.found || act != tc.exp {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.exp, tc.found, act, ok)
			}
		})
	}
}

func TestFileSystem(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "sub", "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	l := loader.NewFileSystem()

	cases := []struct {
		note  string
		name  string
		exp   string
		found bool
	}{
		{note: "relative", name: "sub/a.txt", exp: "hello", found: true},
		{note: "absolute", name: filepath.ToSlash(filepath.Join(dir, "sub", "a.txt")), exp: "hello", found: true},
		{note: "directory", name: "sub", found: false},
		{note: "missing", name: "sub/b.txt", found: false},
		{note: "empty", name: "", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			act, ok := read(t, l, tc.name)
			if ok != tc.found || act != tc.exp {
				t.Fatalf("expected (%q, %v), got (%q, %v)", tc.exp, tc.found, act, ok)
			}
		})
	}

	t.Run("prefixed", func(t *testing.T) {
		act, ok := read(t, loader.NewPrefix(l, "sub/"), "a.txt")
		if !ok || act != "hello" {
			t.Fatalf("expected hit, got (%q, %v)", act, ok)
		}
	})
}

func TestHardcoded(t *testing.T) {
	l, err := loader.NewHardcoded(map[string]string{"x.txt": "aGVsbG8="})
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		note  string
		name  string
		found bool
	}{
		{note: "bare", name: "x.txt", found: true},
		{note: "trailing segment", name: "images/led/x.txt", found: true},
		{note: "suffix only", name: "images/led/ax.txt", found: false},
		{note: "trailing slash", name: "x.txt/", found: false},
		{note: "empty", name: "", found: false},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			act, ok := read(t, l, tc.name)
			if ok != tc.found {
				t.Fatalf("expected found=%v, got %v", tc.found, ok)
			}
			if ok && act != "hello" {
				t.Fatalf("expected hello, got %q", act)
			}
		})
	}

	t.Run("invalid base64", func(t *testing.T) {
		if _, err := loader.NewHardcoded(map[string]string{"bad": "!!!"}); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestImage(t *testing.T) {
	hc, err := loader.NewHardcoded(loader.DefaultEntries)
	if err != nil {
		t.Fatal(err)
	}
	inner := loader.NewChain(&recorder{files: map[string]string{"broken.gif": "not a gif"}}, hc)
	l := loader.NewImage(inner).WithCacheSize(4)

	img, format, ok := l.ResolveFormat(t.Context(), "images/blank.gif")
	if !ok {
		t.Fatal("expected image")
	}
	if exp, act := "gif", format; exp != act {
		t.Fatalf("expected format %q, got %q", exp, act)
	}
	if exp, act := 1, img.Bounds().Dx(); exp != act {
		t.Fatalf("expected width %d, got %d", exp, act)
	}

	cached, ok := l.ResolveImage(t.Context(), "images/blank.gif")
	if !ok || cached != img {
		t.Fatal("expected cached image")
	}

	if _, ok := l.ResolveImage(t.Context(), "broken.gif"); ok {
		t.Fatal("expected decode failure to be not found")
	}

	if _, ok := l.Resolve(t.Context(), "broken.gif"); !ok {
		t.Fatal("expected raw resolution to pass through")
	}
}

func TestDump(t *testing.T) {
	fsl := loader.NewFileSystem()
	l := loader.NewChain(
		loader.NewFixedName(loader.NewPrefix(fsl, "res/"), "a.zip"),
		fsl,
	)

	exp := `Chain(2)
  FixedName("a.zip")
    Prefix("res/")
      FileSystem
  FileSystem
`
	if diff := cmp.Diff(exp, loader.DumpString(l)); diff != "" {
		t.Fatalf("unexpected dump (-want, +got):\n%s", diff)
	}

	node := loader.Dump(l)
	b, ok := node.(loader.Branch)
	if !ok {
		t.Fatalf("expected branch, got %T", node)
	}
	if exp, act := 3, len(b); exp != act {
		t.Fatalf("expected %d elements, got %d", exp, act)
	}
	if exp, act := loader.Leaf("FileSystem"), b[2]; exp != act {
		t.Fatalf("expected %v, got %v", exp, act)
	}
}

func TestRenderNested(t *testing.T) {
	n := loader.Branch{
		loader.Leaf("root"),
		loader.Branch{loader.Leaf("a"), loader.Leaf("a1")},
		loader.Leaf("b"),
	}
	var sb strings.Builder
	if err := loader.Render(&sb, n); err != nil {
		t.Fatal(err)
	}
	if exp, act := "root\n  a\n    a1\n  b\n", sb.String(); exp != act {
		t.Fatalf("expected %q, got %q", exp, act)
	}
}

func TestChainFS(t *testing.T) {
	a := loader.NewFS(fstest.MapFS{"x/1.gif": {Data: []byte("a1")}}, "")
	b, err := loader.NewHardcoded(map[string]string{"blank.gif": loader.DefaultEntries["blank.gif"]})
	if err != nil {
		t.Fatal(err)
	}
	c := loader.NewChain(a, &recorder{}, b)

	fsys, ok := c.FS(t.Context())
	if !ok {
		t.Fatal("expected listing")
	}
	files, err := resfs.Files(fsys)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"blank.gif", "x/1.gif"}, files); diff != "" {
		t.Fatalf("unexpected files (-want, +got):\n%s", diff)
	}

	if _, ok := loader.ListFS(t.Context(), &recorder{}); ok {
		t.Fatal("expected recorder not to be listable")
	}

	sub, ok := loader.NewPrefix(a, "x/").FS(t.Context())
	if !ok {
		t.Fatal("expected prefix listing")
	}
	if _, err := fs.Stat(sub, "1.gif"); err != nil {
		t.Fatal(err)
	}
}

func TestPrefixFS(t *testing.T) {
	embedded := loader.NewFS(fstest.MapFS{"res/x/1.gif": {Data: []byte("a1")}}, "res")

	cases := []struct {
		note   string
		loader loader.Loader
		listed bool
	}{
		{note: "empty", loader: loader.NewPrefix(embedded, ""), listed: true},
		{note: "directory", loader: loader.NewPrefix(embedded, "x/"), listed: true},
		{note: "not a directory", loader: loader.NewPrefix(embedded, "x"), listed: false},
		{note: "absolute over fs", loader: loader.NewPrefix(embedded, "/"), listed: false},
		{note: "absolute over filesystem", loader: loader.NewPrefix(loader.NewFileSystem(), "/"), listed: false},
		{note: "absolute directory", loader: loader.NewPrefix(loader.NewFileSystem(), "/etc/"), listed: false},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			if _, act := loader.ListFS(t.Context(), tc.loader); act != tc.listed {
				t.Fatalf("expected listed=%v, got %v", tc.listed, act)
			}
		})
	}
}

func TestFunc(t *testing.T) {
	f := loader.Func{
		Name: "upper",
		Fn: func(_ context.Context, name string) (io.ReadCloser, bool) {
			return loader.Bytes([]byte(strings.ToUpper(name))), true
		},
	}
	act, ok := read(t, loader.NewChain(f), "abc")
	if !ok || act != "ABC" {
		t.Fatalf("expected ABC, got (%q, %v)", act, ok)
	}
	if exp, act := "Chain(1)\n  upper\n", loader.DumpString(loader.NewChain(f)); exp != act {
		t.Fatalf("expected %q, got %q", exp, act)
	}
}

func TestTrace(t *testing.T) {
	var buf strings.Builder
	log := logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf})
	l := loader.NewTrace(&recorder{files: map[string]string{"a": "1"}}, log)

	read(t, l, "a")
	read(t, l, "b")

	out := buf.String()
	for _, exp := range []string{"Resolve(a) via recorder => found", "Resolve(b) via recorder => not found"} {
		if !strings.Contains(out, exp) {
			t.Errorf("expected %q in:\n%s", exp, out)
		}
	}
}

type brokenFS struct{}

func (brokenFS) Open(string) (fs.File, error) { return nil, fs.ErrPermission }

func TestFaultsAreCounted(t *testing.T) {
	fault := metrics.ResolveTotal.WithLabelValues("fs", metrics.OutcomeFault)
	miss := metrics.ResolveTotal.WithLabelValues("fs", metrics.OutcomeMiss)
	faults, misses := testutil.ToFloat64(fault), testutil.ToFloat64(miss)

	if _, ok := loader.NewFS(brokenFS{}, "").Resolve(t.Context(), "a.gif"); ok {
		t.Fatal("expected fault to be reported as not found")
	}
	if _, ok := loader.NewFS(fstest.MapFS{}, "").Resolve(t.Context(), "a.gif"); ok {
		t.Fatal("expected not found")
	}

	if exp, act := faults+1, testutil.ToFloat64(fault); exp != act {
		t.Fatalf("expected %v faults, got %v", exp, act)
	}
	if exp, act := misses+1, testutil.ToFloat64(miss); exp != act {
		t.Fatalf("expected %v misses, got %v", exp, act)
	}
}
