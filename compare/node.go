package compare

import "fmt"

// NodeKind discriminates a diff tree node.
type NodeKind int

// Node kinds.
const (
	NodeEqual NodeKind = iota
	NodeDifferent
	NodeExcluded
	NodeGroup
)

func (k NodeKind) String() string {
	switch k {
	case NodeEqual:
		return "equal"
	case NodeDifferent:
		return "different"
	case NodeExcluded:
		return "excluded"
	case NodeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// Node is one node of a diff tree: a leaf comparison result (Equal,
// Different or Excluded) or a Group of child nodes.
type Node struct {
	Path     string
	Kind     NodeKind
	A, B     string
	Reason   string
	Children []*Node
}

// OK reports whether n passes the verdict: a leaf passes if it is Equal
// or Excluded; a Group passes iff every child passes.
func (n *Node) OK() bool {
	switch n.Kind {
	case NodeEqual, NodeExcluded:
		return true
	case NodeDifferent:
		return false
	case NodeGroup:
		for _, c := range n.Children {
			if !c.OK() {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func leaf(s *state, path string, equal bool, a, b string) *Node {
	if s.isExcluded(path) {
		return &Node{Path: path, Kind: NodeExcluded, A: a, B: b}
	}
	if equal {
		return &Node{Path: path, Kind: NodeEqual, A: a, B: b}
	}
	return &Node{Path: path, Kind: NodeDifferent, A: a, B: b}
}

func group(path string, children ...*Node) *Node {
	return &Node{Path: path, Kind: NodeGroup, Children: children}
}

func different(path, reason string) *Node {
	return &Node{Path: path, Kind: NodeDifferent, Reason: reason}
}

// glyph returns the emoji used by Render for n's own kind (ignoring
// children).
func glyph(k NodeKind) string {
	switch k {
	case NodeEqual:
		return "✅" // white_check_mark
	case NodeDifferent:
		return "❌" // cross_mark
	case NodeExcluded:
		return "◯" // large circle (outline)
	default:
		return " "
	}
}

// Render writes a human-readable, indented rendering of the tree rooted
// at n to a string, one line per node, dot-separated full paths.
func Render(n *Node) string {
	var buf []byte
	buf = renderNode(buf, n, "", 0)
	return string(buf)
}

func renderNode(buf []byte, n *Node, prefix string, depth int) []byte {
	full := n.Path
	if prefix != "" && n.Path != "" {
		full = prefix + "." + n.Path
	} else if prefix != "" {
		full = prefix
	}

	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}

	if n.Kind == NodeGroup {
		status := glyph(NodeEqual)
		if !n.OK() {
			status = glyph(NodeDifferent)
		}
		line := fmt.Sprintf("%s%s %s\n", indent, status, full)
		buf = append(buf, line...)
		if n.Reason != "" {
			buf = append(buf, fmt.Sprintf("%s    reason: %s\n", indent, n.Reason)...)
		}
		for _, c := range n.Children {
			buf = renderNode(buf, c, full, depth+1)
		}
		return buf
	}

	line := fmt.Sprintf("%s%s %s", indent, glyph(n.Kind), full)
	if n.Kind != NodeExcluded {
		line += fmt.Sprintf(" (a=%s b=%s)", n.A, n.B)
	}
	if n.Reason != "" {
		line += " reason: " + n.Reason
	}
	buf = append(buf, line+"\n"...)
	return buf
}
