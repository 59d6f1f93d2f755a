package cmd

import (
	"bytes"
	"encoding/base64"
	"os"
	"strings"
	"testing"

	"github.com/resctl/resctl/internal/logging"
)

const testConfig = `
pipelines:
  disk:
    loaders:
      - type: filesystem
        prefix: res/
  old:
    loaders:
      - type: filesystem
        prefix: old/
  fallback:
    loaders:
      - type: hardcoded
root: [disk, fallback]
`

func setup(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())

	gif, err := base64.StdEncoding.DecodeString("R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7")
	if err != nil {
		t.Fatal(err)
	}
	files := map[string][]byte{
		"config.yaml":   []byte(testConfig),
		"res/hello.txt": []byte("hello\nworld\n"),
		"old/hello.txt": []byte("hello\nthere\n"),
		"res/dot.gif":   gif,
	}
	for name, data := range files {
		if err := os.MkdirAll(dirOf(name), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(name, data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func dirOf(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i]
	}
	return "."
}

func run(t *testing.T, args ...string) (string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := New()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	if err := root.ExecuteContext(t.Context()); err != nil {
		return errOut.String() + err.Error(), exitCode(err)
	}
	return out.String(), 0
}

func TestCommands(t *testing.T) {
	setup(t)

	cases := []struct {
		note     string
		args     []string
		contains []string
		code     int
	}{
		{
			note:     "resolve",
			args:     []string{"resolve", "hello.txt"},
			contains: []string{"hello\nworld\n"},
		},
		{
			note:     "resolve through pipeline",
			args:     []string{"resolve", "-p", "old", "hello.txt"},
			contains: []string{"hello\nthere\n"},
		},
		{
			note:     "resolve missing",
			args:     []string{"resolve", "nope.txt"},
			contains: []string{"nope.txt: not found"},
			code:     exitFailure,
		},
		{
			note:     "resolve unknown pipeline",
			args:     []string{"resolve", "-p", "nope", "hello.txt"},
			contains: []string{"unknown pipeline"},
			code:     exitConfig,
		},
		{
			note:     "tree",
			args:     []string{"tree"},
			contains: []string{"Image\n  Chain(2)\n    Prefix(\"res/\")\n      FileSystem\n    Hardcoded[blank.gif]\n"},
		},
		{
			note:     "ls",
			args:     []string{"ls", "-p", "fallback"},
			contains: []string{"blank.gif", "42"},
		},
		{
			note:     "ls all",
			args:     []string{"ls", "--all"},
			contains: []string{"disk/hello.txt", "fallback/blank.gif", "old/hello.txt"},
		},
		{
			note:     "check",
			args:     []string{"check", "hello.txt", "images/blank.gif"},
			contains: []string{"2 names resolved"},
		},
		{
			note:     "check missing",
			args:     []string{"check", "hello.txt", "a.txt", "b.txt"},
			contains: []string{"2 of 3 names not found: a.txt, b.txt"},
			code:     exitFailure,
		},
		{
			note:     "diff",
			args:     []string{"diff", "hello.txt", "--left", "old", "--right", "disk"},
			contains: []string{"--- old/hello.txt", "+++ disk/hello.txt", "-there", "+world"},
		},
		{
			note:     "image",
			args:     []string{"image", "dot.gif"},
			contains: []string{"gif 1x1"},
		},
		{
			note:     "image not decodable",
			args:     []string{"image", "hello.txt"},
			contains: []string{"not an image"},
			code:     exitFailure,
		},
		{
			note:     "validate",
			args:     []string{"validate"},
			contains: []string{"configuration valid: 3 pipelines, root [disk fallback]"},
		},
		{
			note:     "watch",
			args:     []string{"watch", "--rounds", "1", "--interval", "1ms", "hello.txt", "nope.txt"},
			contains: []string{"hello.txt found ", "nope.txt missing"},
		},
		{
			note: "missing config",
			args: []string{"validate", "--config", "nope.yaml"},
			code: exitConfig,
		},
	}

	for _, tc := range cases {
		t.Run(tc.note, func(t *testing.T) {
			out, code := run(t, tc.args...)
			if code != tc.code {
				t.Fatalf("expected exit code %d, got %d: %s", tc.code, code, out)
			}
			for _, s := range tc.contains {
				if !strings.Contains(out, s) {
					t.Fatalf("expected %q in output:\n%s", s, out)
				}
			}
		})
	}
}

func TestConfigErrorExitCode(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg := "pipelines:\n  a:\n    loaders: []\n"
	if err := os.WriteFile("config.yaml", []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	out, code := run(t, "tree")
	if code != exitConfig {
		t.Fatalf("expected exit code %d, got %d: %s", exitConfig, code, out)
	}
	if !strings.Contains(out, "no loaders to combine") {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestLogLevelFlag(t *testing.T) {
	root := New()
	if err := root.PersistentFlags().Parse([]string{"--log-level", "DEBUG"}); err != nil {
		t.Fatal(err)
	}
	if exp, act := logging.LevelDebug.String(), root.PersistentFlags().Lookup("log-level").Value.String(); exp != act {
		t.Fatalf("expected %s, got %s", exp, act)
	}

	if err := root.PersistentFlags().Parse([]string{"--log-level", "verbose"}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}
