package loader

import (
	"fmt"
	"io"
	"strings"
)

// Node is a debug tree produced by Dump: either a Leaf or a Branch.
type Node interface {
	node()
}

// Leaf is a single description line.
type Leaf string

// Branch is a loader description followed by the trees of its children.
type Branch []Node

func (Leaf) node()   {}
func (Branch) node() {}

// Dump describes l and, recursively, every loader it delegates to.
func Dump(l Loader) Node {
	p, ok := l.(Parent)
	if !ok {
		return Leaf(l.Describe())
	}
	children := p.Children()
	if len(children) == 0 {
		return Leaf(l.Describe())
	}
	b := make(Branch, 0, len(children)+1)
	b = append(b, Leaf(l.Describe()))
	for _, c := range children {
		b = append(b, Dump(c))
	}
	return b
}

// Render writes n as indented lines, two spaces per depth. The first
// element of a branch is printed at the branch's depth, the others one
// level deeper.
func Render(w io.Writer, n Node) error {
	return render(w, n, 0)
}

func render(w io.Writer, n Node, depth int) error {
	switch n := n.(type) {
	case Leaf:
		_, err := fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth), string(n))
		return err
	case Branch:
		for i, c := range n {
			d := depth
			if i > 0 {
				d++
			}
			if err := render(w, c, d); err != nil {
				return err
			}
		}
	}
	return nil
}

// DumpString renders the tree of l.
func DumpString(l Loader) string {
	var sb strings.Builder
	_ = Render(&sb, Dump(l))
	return sb.String()
}
