package site

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
	"github.com/ziadkadry99/kqlcatalog/internal/table"
)

// NavNode is an entry in the sidebar navigation. Platform nodes link to a
// platform page and hold one child per rule, which links to the rule's row.
type NavNode struct {
	Key      string
	Title    string
	Path     string // page path relative to the site root
	Anchor   string // fragment within Path, rule nodes only
	Children []*NavNode
}

// platformPath returns the page path of a platform relative to the site root.
func platformPath(key string) string {
	return "platforms/" + key + "/index.html"
}

// BuildNav constructs the navigation tree for a catalog. Platforms and rules
// keep catalog order, which is also table order.
func BuildNav(c *catalog.Catalog) []*NavNode {
	nodes := make([]*NavNode, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		node := &NavNode{Key: p.Key, Title: p.Name, Path: platformPath(p.Key)}
		for _, r := range p.Rules {
			node.Children = append(node.Children, &NavNode{
				Key:    p.Key,
				Title:  r.Name,
				Path:   node.Path,
				Anchor: table.Anchor(r),
			})
		}
		nodes = append(nodes, node)
	}
	return nodes
}

// NavHTML renders the navigation as nested <ul><li> HTML. activeKey is the
// platform of the current page ("" on the index page); basePath is the
// relative prefix back to the site root, e.g. "../../".
func NavHTML(nodes []*NavNode, activeKey, basePath string) string {
	var b strings.Builder
	homeActive := ""
	if activeKey == "" {
		homeActive = ` class="active"`
	}
	fmt.Fprintf(&b, `<ul><li class="file home-link"><a href="%sindex.html"%s>All Sources</a></li></ul>`+"\n", basePath, homeActive)

	b.WriteString("<ul>\n")
	for _, n := range nodes {
		expanded := ""
		if n.Key == activeKey {
			expanded = " expanded"
		}
		fmt.Fprintf(&b, `<li class="dir%s" data-source="%s"><a class="dir-link" href="%s%s">%s</a>`+"\n",
			expanded, esc(n.Key), basePath, esc(n.Path), esc(n.Title))
		if len(n.Children) > 0 {
			b.WriteString("<ul>\n")
			for _, c := range n.Children {
				fmt.Fprintf(&b, `<li class="file"><a href="%s%s#%s">%s</a></li>`+"\n",
					basePath, esc(c.Path), esc(c.Anchor), esc(c.Title))
			}
			b.WriteString("</ul>\n")
		}
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>\n")
	return b.String()
}

func esc(s string) string { return template.HTMLEscapeString(s) }
