package modal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/kqlcatalog/internal/content"
	"github.com/ziadkadry99/kqlcatalog/internal/fragment"
)

// ExplanationSectionID is the element id the explain action scrolls to.
const ExplanationSectionID = "explanation-section"

// Client-side actions carried by header buttons.
const (
	ActionCopy    = "copy"
	ActionExplain = "explain"
)

// LoadingFragment is shown while a resource is being fetched.
func LoadingFragment(id string, kind content.Kind) string {
	msg := "Loading content..."
	if kind == content.KindQuery {
		msg = "Loading query..."
	}
	return fragment.Render(fragment.Container(id, nil, fragment.Div("modal-loading", fragment.Text(msg))))
}

// ErrorFragment is the standard fragment for a failed fetch. When err is a
// *content.FetchError the status code and attempted path are shown.
func ErrorFragment(id string, kind content.Kind, err error) string {
	title, what := "Error Loading Content", "the content"
	if kind == content.KindQuery {
		title, what = "Error Loading Query", "the KQL query"
	}

	body := []*html.Node{
		paragraph(fmt.Sprintf("There was an error loading %s: %s", what, describe(err))),
	}
	var fe *content.FetchError
	if errors.As(err, &fe) {
		body = append(body, paragraph("Path attempted: "+fe.Path))
		if fe.Status != 0 {
			body = append(body, paragraph("Status: "+strconv.Itoa(fe.Status)))
		}
	}
	return fragment.Render(fragment.Container(id, fragment.Header(title), body...))
}

func describe(err error) string {
	var fe *content.FetchError
	if errors.As(err, &fe) {
		if fe.Status != 0 {
			return fmt.Sprintf("HTTP %d", fe.Status)
		}
		if fe.Err != nil {
			return fe.Err.Error()
		}
	}
	return err.Error()
}

// QueryTitle derives the modal title from a query file name.
func QueryTitle(fileName string) string {
	return strings.Replace(fileName, content.QueryExt, " - Detection Query", 1)
}

// QueryFragment composes the query modal: a shell-styled display of the
// escaped query text, the copy and explain actions, and the explanation
// section.
func QueryFragment(id, title, fileName, query string, explanation *html.Node) string {
	header := fragment.Header(title,
		fragment.Action{Name: ActionCopy, Class: "copy-btn", Label: "📋 Copy Query"},
		fragment.Action{Name: ActionExplain, Class: "explain-btn", Label: "📖 Explain", Target: "#" + ExplanationSectionID},
	)

	controls := fragment.Div("shell-controls",
		fragment.Element("span", []html.Attribute{fragment.Attr("class", "shell-control close")}),
		fragment.Element("span", []html.Attribute{fragment.Attr("class", "shell-control minimize")}),
		fragment.Element("span", []html.Attribute{fragment.Attr("class", "shell-control maximize")}),
	)
	shell := fragment.Div("query-container",
		fragment.Div("shell-header", controls, fragment.Div("shell-title", fragment.Text(fileName))),
		fragment.Div("shell-content",
			fragment.Element("pre", []html.Attribute{fragment.Attr("class", "kql-query")},
				fragment.Element("code", nil, fragment.Text(query)))),
	)

	return fragment.Render(fragment.Container(id, header, shell, explanation))
}

// ExplanationSection wraps fetched explanation HTML in the section the
// explain action targets.
func ExplanationSection(raw string) *html.Node {
	sec := fragment.Element("div", []html.Attribute{
		fragment.Attr("id", ExplanationSectionID),
		fragment.Attr("class", "query-explanation"),
	})
	nodes, err := fragment.Parse(raw)
	if err != nil {
		sec.AppendChild(fragment.Text(raw))
		return sec
	}
	for _, n := range nodes {
		sec.AppendChild(n)
	}
	return sec
}

// MissingExplanation is the placeholder used when no explanation could be
// fetched for a query.
func MissingExplanation() *html.Node {
	return fragment.Element("div", []html.Attribute{fragment.Attr("id", ExplanationSectionID)},
		fragment.Element("h3", nil, fragment.Text("Explanation")),
		paragraph("Explanation content not available."),
	)
}

func paragraph(s string) *html.Node {
	return fragment.Element("p", nil, fragment.Text(s))
}
