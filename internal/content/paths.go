package content

import (
	"fmt"
	"path"
	"strings"
)

// Kind selects which static-file category a resource belongs to.
type Kind string

const (
	KindQuery       Kind = "query"
	KindLog         Kind = "log"
	KindExplanation Kind = "explanation"
)

// Subdirectories and suffixes of the static content layout.
const (
	QueriesDir      = "Queries"
	LogsDir         = "logs"
	ExplainedDir    = "explained"
	QueryExt        = ".kql"
	LogExt          = ".html"
	ExplainedSuffix = "-explained.html"
	querySuffix     = "-kql"
)

// ParseKind converts a string into a Kind. "logs" and "explained" are
// accepted as aliases used by older page markup.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "query", "queries":
		return KindQuery, nil
	case "log", "logs":
		return KindLog, nil
	case "explanation", "explained":
		return KindExplanation, nil
	default:
		return "", fmt.Errorf("unknown resource kind %q: must be one of query, log, explanation", s)
	}
}

// Platform identifies the content directory a resource lives under.
type Platform struct {
	Key  string // short key, also the id prefix stripped from explanations (e.g. "aws")
	Name string // directory name (e.g. "Amazon Web Services")
}

// ExplanationID derives the explanation file stem from a query modal id: the
// "<platform>-" prefix is dropped if present, then the "-kql" suffix.
func ExplanationID(platformKey, modalID string) string {
	id := modalID
	if platformKey != "" {
		id = strings.TrimPrefix(id, platformKey+"-")
	}
	return strings.TrimSuffix(id, querySuffix)
}

// Segments returns the path segments of a resource below the content root.
// Query identifiers are file names; any directory part is dropped and the
// .kql extension is appended when missing.
func Segments(kind Kind, p Platform, id string) ([]string, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("platform name is required")
	}
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("resource identifier is required")
	}
	switch kind {
	case KindQuery:
		file := path.Base(strings.ReplaceAll(id, "\\", "/"))
		if !strings.HasSuffix(strings.ToLower(file), QueryExt) {
			file += QueryExt
		}
		return []string{p.Name, QueriesDir, file}, nil
	case KindLog:
		return []string{p.Name, LogsDir, id + LogExt}, nil
	case KindExplanation:
		return []string{p.Name, ExplainedDir, ExplanationID(p.Key, id) + ExplainedSuffix}, nil
	default:
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
}

// ResourcePath returns the slash-separated path of a resource relative to the
// content root, e.g. "/Amazon Web Services/logs/imdsv1-logs.html".
func ResourcePath(kind Kind, p Platform, id string) (string, error) {
	segs, err := Segments(kind, p, id)
	if err != nil {
		return "", err
	}
	return "/" + strings.Join(segs, "/"), nil
}
