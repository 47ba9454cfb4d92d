// Package nodetree holds an already-parsed document as an arena of nodes
// linked by index, and walks it with an explicit stack. Extraction code
// works on the arena, never on live parser nodes.
package nodetree

import (
	"strings"

	"golang.org/x/net/html"
)

// None marks a missing parent, child or sibling.
const None = -1

type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
)

// Node is one arena entry. Links are indices into Tree.Nodes.
type Node struct {
	Kind  NodeKind
	Tag   string // lowercased element name; "" for text
	Text  string // text nodes only
	Attrs map[string]string

	Parent      int
	FirstChild  int
	LastChild   int
	NextSibling int
}

// Tree is the arena. Nodes[0] is always the document root.
type Tree struct {
	Nodes []Node
}

// New returns a tree holding only the document root.
func New() *Tree {
	return &Tree{Nodes: []Node{{
		Kind:        DocumentNode,
		Tag:         "#document",
		Parent:      None,
		FirstChild:  None,
		LastChild:   None,
		NextSibling: None,
	}}}
}

// Root is the index of the document node.
func (t *Tree) Root() int { return 0 }

// Len is the number of nodes including the root.
func (t *Tree) Len() int { return len(t.Nodes) }

// Add appends n as the last child of parent and returns its index.
func (t *Tree) Add(parent int, n Node) int {
	id := len(t.Nodes)
	n.Parent = parent
	n.FirstChild = None
	n.LastChild = None
	n.NextSibling = None
	t.Nodes = append(t.Nodes, n)

	p := &t.Nodes[parent]
	if p.LastChild == None {
		p.FirstChild = id
	} else {
		t.Nodes[p.LastChild].NextSibling = id
	}
	p.LastChild = id
	return id
}

// Element appends an element child.
func (t *Tree) Element(parent int, tag string, attrs map[string]string) int {
	return t.Add(parent, Node{Kind: ElementNode, Tag: strings.ToLower(tag), Attrs: attrs})
}

// Text appends a text child.
func (t *Tree) Text(parent int, text string) int {
	return t.Add(parent, Node{Kind: TextNode, Text: text})
}

// Children returns the child indices of id in document order.
func (t *Tree) Children(id int) []int {
	var out []int
	for c := t.Nodes[id].FirstChild; c != None; c = t.Nodes[c].NextSibling {
		out = append(out, c)
	}
	return out
}

// Attr returns an attribute value or "".
func (t *Tree) Attr(id int, key string) string {
	return t.Nodes[id].Attrs[key]
}

// Find returns the first element with tag in document order, or None.
func (t *Tree) Find(tag string) int {
	for i, n := range t.Nodes {
		if n.Kind == ElementNode && n.Tag == tag {
			return i
		}
	}
	return None
}

// TextContent concatenates all text under id.
func (t *Tree) TextContent(id int) string {
	var sb strings.Builder
	Walk(t, id, VisitorFuncs{
		EnterFunc: func(t *Tree, id int) bool {
			if t.Nodes[id].Kind == TextNode {
				sb.WriteString(t.Nodes[id].Text)
			}
			return true
		},
	})
	return sb.String()
}

// FromHTML copies a parsed x/net/html document into an arena. Comments and
// doctypes are dropped.
func FromHTML(doc *html.Node) *Tree {
	t := New()
	if doc == nil {
		return t
	}

	type item struct {
		n      *html.Node
		parent int
	}

	var stack []item
	pushChildren := func(n *html.Node, parent int) {
		var kids []*html.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			kids = append(kids, c)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, item{kids[i], parent})
		}
	}

	if doc.Type == html.DocumentNode {
		pushChildren(doc, t.Root())
	} else {
		stack = append(stack, item{doc, t.Root()})
	}

	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch it.n.Type {
		case html.ElementNode:
			var attrs map[string]string
			if len(it.n.Attr) > 0 {
				attrs = make(map[string]string, len(it.n.Attr))
				for _, a := range it.n.Attr {
					attrs[strings.ToLower(a.Key)] = a.Val
				}
			}
			id := t.Element(it.parent, it.n.Data, attrs)
			pushChildren(it.n, id)
		case html.TextNode:
			t.Text(it.parent, it.n.Data)
		case html.DocumentNode:
			pushChildren(it.n, it.parent)
		}
	}
	return t
}
