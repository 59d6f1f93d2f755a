package loader

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strings"

	resfs "github.com/resctl/resctl/internal/fs"
	"github.com/resctl/resctl/internal/metrics"
)

const kindHardcoded = "hardcoded"

// DefaultEntries is the built-in fallback content: a 1x1 transparent GIF.
var DefaultEntries = map[string]string{
	"blank.gif": "R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7",
}

// Hardcoded serves a small fixed set of base64 literals. A name matches an
// entry when its last path segment equals the entry key exactly, so both
// "blank.gif" and "images/x/blank.gif" resolve the key "blank.gif".
type Hardcoded struct {
	entries map[string][]byte
}

// NewHardcoded decodes entries up front. Invalid base64 is an error.
func NewHardcoded(entries map[string]string) (*Hardcoded, error) {
	decoded := make(map[string][]byte, len(entries))
	for k, v := range entries {
		bs, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("hardcoded entry %q: %w", k, err)
		}
		decoded[k] = bs
	}
	return &Hardcoded{entries: decoded}, nil
}

func (h *Hardcoded) Resolve(_ context.Context, name string) (io.ReadCloser, bool) {
	bs, ok := h.entries[name[strings.LastIndex(name, "/")+1:]]
	if !ok {
		metrics.Miss(kindHardcoded)
		return nil, false
	}
	metrics.Hit(kindHardcoded)
	metrics.ResolveBytes.WithLabelValues(kindHardcoded).Add(float64(len(bs)))
	return Bytes(bs), true
}

func (h *Hardcoded) Describe() string {
	return fmt.Sprintf("Hardcoded%v", slices.Sorted(maps.Keys(h.entries)))
}

func (h *Hardcoded) FS(context.Context) (fs.FS, bool) {
	return resfs.MapFS(h.entries), true
}
