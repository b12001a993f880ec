package fragment

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// containerTags are the elements recognized as a modal container when they
// carry the container class. Other elements keep the class as plain content.
var containerTags = map[atom.Atom]bool{
	atom.Div:     true,
	atom.Section: true,
	atom.Article: true,
	atom.Main:    true,
	atom.Aside:   true,
	atom.Dialog:  true,
}

// dismissTags are the elements an existing dismiss control may keep when it
// is moved to the top of the container.
var dismissTags = map[atom.Atom]bool{
	atom.Span:   true,
	atom.Button: true,
	atom.A:      true,
	atom.I:      true,
	atom.B:      true,
	atom.Em:     true,
	atom.Strong: true,
	atom.Small:  true,
	atom.Div:    true,
}

// Normalize guarantees that raw is a single modal container whose first
// child is exactly one dismiss control bound to dismissID, followed by an
// optional header and a body region, with every log table wrapped in a
// horizontally scrollable wrapper. Normalize is idempotent.
func Normalize(raw, dismissID string) string {
	nodes, err := Parse(raw)
	if err != nil {
		nodes = []*html.Node{Text(raw)}
	}
	holder := Div("")
	for _, n := range nodes {
		holder.AppendChild(n)
	}
	return Render(NormalizeTree(holder, dismissID))
}

// NormalizeTree restructures the children of holder into a single container
// node and returns it. holder is left holding nothing of interest.
func NormalizeTree(holder *html.Node, dismissID string) *html.Node {
	containers := findContainers(holder)

	var root *html.Node
	if len(containers) == 0 {
		root = Div(ContainerClass)
		moveChildren(holder, root)
	} else {
		root = containers[0]
		parent := root.Parent
		parent.RemoveChild(root)
		pruneEmptyAncestors(parent, holder)
	}

	// Merge any further containers into the chosen root.
	for _, c := range findContainers(root) {
		unwrap(c)
	}
	for _, c := range findContainers(holder) {
		unwrap(c)
	}

	dismiss := extractDismiss(root, holder, dismissID)

	var extras []*html.Node
	for c := holder.FirstChild; c != nil; {
		next := c.NextSibling
		holder.RemoveChild(c)
		if !isBlankText(c) {
			extras = append(extras, c)
		}
		c = next
	}

	var header *html.Node
	var rest []*html.Node
	for c := root.FirstChild; c != nil; {
		next := c.NextSibling
		root.RemoveChild(c)
		switch {
		case isBlankText(c):
		case header == nil && hasClass(c, HeaderClass):
			header = c
		default:
			rest = append(rest, c)
		}
		c = next
	}

	body := -1
	for i, c := range rest {
		if hasClass(c, BodyClass) && containerTags[c.DataAtom] {
			body = i
			break
		}
	}
	var bodyNode *html.Node
	if body < 0 {
		bodyNode = Body(rest...)
	} else {
		// Siblings of an existing body move into it, keeping document order.
		bodyNode = rest[body]
		first := bodyNode.FirstChild
		for _, c := range rest[:body] {
			bodyNode.InsertBefore(c, first)
		}
		for _, c := range rest[body+1:] {
			bodyNode.AppendChild(c)
		}
	}
	for _, e := range extras {
		bodyNode.AppendChild(e)
	}

	root.AppendChild(dismiss)
	if header != nil {
		root.AppendChild(header)
	}
	root.AppendChild(bodyNode)

	wrapLogTables(root)
	return root
}

// extractDismiss removes every dismiss control under root and holder and
// returns the one to keep, rebound to dismissID.
func extractDismiss(root, holder *html.Node, dismissID string) *html.Node {
	found := find(root, "."+DismissClass)
	found = append(found, find(holder, "."+DismissClass)...)

	var keep *html.Node
	for _, d := range found {
		if d.Parent != nil {
			d.Parent.RemoveChild(d)
		}
		if keep == nil && dismissTags[d.DataAtom] {
			keep = d
		}
	}
	if keep == nil {
		return Dismiss(dismissID)
	}
	BindDismiss(keep, dismissID)
	return keep
}

// BindDismiss points a dismiss control at dismissID, replacing any inline
// handler it was authored with.
func BindDismiss(n *html.Node, dismissID string) {
	setAttr(n, DismissAttr, dismissID)
	removeAttr(n, "onclick")
}

// wrapLogTables wraps each log table that is not already inside a
// table wrapper.
func wrapLogTables(root *html.Node) {
	for _, t := range find(root, "table."+LogTableClass) {
		if hasAncestorClass(t, TableWrapperClass) {
			continue
		}
		w := Div(TableWrapperClass)
		t.Parent.InsertBefore(w, t)
		t.Parent.RemoveChild(t)
		w.AppendChild(t)
	}
}

func findContainers(n *html.Node) []*html.Node {
	var out []*html.Node
	for _, c := range find(n, "."+ContainerClass) {
		if containerTags[c.DataAtom] {
			out = append(out, c)
		}
	}
	return out
}

// find returns the descendants of n matching selector, in document order.
func find(n *html.Node, selector string) []*html.Node {
	return goquery.NewDocumentFromNode(n).Find(selector).Nodes
}

// unwrap replaces n with its children.
func unwrap(n *html.Node) {
	parent := n.Parent
	if parent == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		parent.InsertBefore(c, n)
		c = next
	}
	parent.RemoveChild(n)
}

// pruneEmptyAncestors removes wrappers left empty after the container was
// lifted out of them, stopping at stop.
func pruneEmptyAncestors(n, stop *html.Node) {
	for n != nil && n != stop {
		if !isEmpty(n) {
			return
		}
		up := n.Parent
		up.RemoveChild(n)
		n = up
	}
}

func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		next := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = next
	}
}

func isEmpty(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.CommentNode || isBlankText(c) {
			continue
		}
		return false
	}
	return true
}

func isBlankText(n *html.Node) bool {
	return n.Type == html.TextNode && strings.TrimSpace(n.Data) == ""
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, f := range strings.Fields(getAttr(n, "class")) {
		if f == class {
			return true
		}
	}
	return false
}

func hasAncestorClass(n *html.Node, class string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if hasClass(p, class) {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			continue
		}
		out = append(out, a)
	}
	n.Attr = out
}
