package fragment

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Class names that make up the modal structure.
const (
	ContainerClass    = "modal-content"
	BodyClass         = "modal-body"
	HeaderClass       = "modal-header"
	TitleClass        = "modal-title"
	ActionsClass      = "modal-actions"
	DismissClass      = "close-btn"
	LogTableClass     = "log-table"
	TableWrapperClass = "table-wrapper"

	// DismissAttr binds a dismiss control to the modal it closes.
	DismissAttr = "data-dismiss"
)

// Attr is shorthand for building an html.Attribute.
func Attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// Element creates an element node with the given attributes and children.
func Element(tag string, attrs []html.Attribute, children ...*html.Node) *html.Node {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
		Attr:     attrs,
	}
	for _, c := range children {
		if c != nil {
			n.AppendChild(c)
		}
	}
	return n
}

// Div creates a <div class="..."> holding children.
func Div(class string, children ...*html.Node) *html.Node {
	return Element("div", classAttrs(class), children...)
}

// Text creates a text node. Rendering escapes it.
func Text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// Dismiss creates the dismiss control bound to dismissID.
func Dismiss(dismissID string) *html.Node {
	return Element("span", []html.Attribute{
		Attr("class", DismissClass),
		Attr(DismissAttr, dismissID),
		Attr("role", "button"),
		Attr("aria-label", "Close"),
	}, Text("×"))
}

// Action is a header button that triggers a client-side behaviour.
type Action struct {
	Name  string // value of data-action, e.g. "copy"
	Class string
	Label string
	// Target is an optional element id the action refers to.
	Target string
}

// Header creates a modal header with a title and optional action buttons.
func Header(title string, actions ...Action) *html.Node {
	h := Div(HeaderClass, Div(TitleClass, Text(title)))
	if len(actions) == 0 {
		return h
	}
	bar := Div(ActionsClass)
	for _, a := range actions {
		attrs := []html.Attribute{Attr("type", "button")}
		attrs = append(attrs, classAttrs(a.Class)...)
		attrs = append(attrs, Attr("data-action", a.Name))
		if a.Target != "" {
			attrs = append(attrs, Attr("data-target", a.Target))
		}
		bar.AppendChild(Element("button", attrs, Text(a.Label)))
	}
	h.AppendChild(bar)
	return h
}

// Body creates the modal body region.
func Body(children ...*html.Node) *html.Node {
	return Div(BodyClass, children...)
}

// Container assembles container -> dismiss control -> optional header -> body.
func Container(dismissID string, header *html.Node, body ...*html.Node) *html.Node {
	return Div(ContainerClass, Dismiss(dismissID), header, Body(body...))
}

// Parse parses an HTML fragment in the context of a <div>.
func Parse(raw string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(raw), ctx)
}

// Render serializes nodes back to HTML.
func Render(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		// Rendering into a strings.Builder cannot fail.
		_ = html.Render(&b, n)
	}
	return b.String()
}

func classAttrs(class string) []html.Attribute {
	if class == "" {
		return nil
	}
	return []html.Attribute{Attr("class", class)}
}
