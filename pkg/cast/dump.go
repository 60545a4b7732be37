package cast

import (
	"fmt"
	"io"
	"strings"
)

// DumpOptions controls the text rendering of a Cast tree.
type DumpOptions struct {
	// MaxValues limits how many values are printed per property (0 = all).
	MaxValues int
	// Hashes prints node hashes. Disable to compare files whose hashes differ.
	Hashes bool
}

// Dump writes an indented text view of every root node in the file.
func Dump(w io.Writer, file *File, opts DumpOptions) error {
	fmt.Fprintf(w, "cast v%d (%d roots)\n", file.Version, len(file.Roots))
	for _, root := range file.Roots {
		if err := DumpNode(w, root, opts); err != nil {
			return err
		}
	}
	return nil
}

// DumpNode writes node and its subtree.
func DumpNode(w io.Writer, node *Node, opts DumpOptions) error {
	var err error
	node.Walk(func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		indent := strings.Repeat("  ", depth)
		if opts.Hashes {
			_, err = fmt.Fprintf(w, "%s[%s] hash=%#x\n", indent, n.ID, n.Hash)
		} else {
			_, err = fmt.Fprintf(w, "%s[%s]\n", indent, n.ID)
		}
		for _, p := range n.Properties() {
			if err != nil {
				break
			}
			_, err = fmt.Fprintf(w, "%s  %s:%s[%d] %s\n", indent, p.Name, p.Type.Tag(), len(p.Values), formatValues(p.Values, opts.MaxValues))
		}
		return true
	})
	return err
}

func formatValues(values []Value, limit int) string {
	n := len(values)
	if limit > 0 && n > limit {
		n = limit
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = values[i].String()
	}
	s := strings.Join(parts, " ")
	if n < len(values) {
		s += fmt.Sprintf(" ... (+%d)", len(values)-n)
	}
	return s
}
