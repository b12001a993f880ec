// Package table expands detection rules into the rows of the platform rule
// table and writes them as HTML.
package table

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
)

var (
	// ErrUnknownSeverity is returned when a rule's severity has no indicator.
	ErrUnknownSeverity = errors.New("unknown severity")
	// ErrNoClassifications is returned for a rule with an empty
	// classification list.
	ErrNoClassifications = errors.New("rule has no classifications")
)

// TimestampLayout is how last-detected times are displayed.
const TimestampLayout = "Jan 02, 2006, 03:04 PM MST"

var severityClasses = map[catalog.Severity]string{
	catalog.SeverityLow:      "severity-low",
	catalog.SeverityMedium:   "severity-medium",
	catalog.SeverityHigh:     "severity-high",
	catalog.SeverityCritical: "severity-critical",
}

// SeverityClass returns the indicator class for s.
func SeverityClass(s catalog.Severity) (string, error) {
	c, ok := severityClasses[s]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSeverity, s)
	}
	return c, nil
}

// Row is one table row. A header row carries the rule and spans RowSpan
// rows; the rows after it carry only one further classification each.
type Row struct {
	Header         bool
	RowSpan        int
	Rule           catalog.Rule
	SeverityClass  string
	Classification catalog.Classification
}

// Render expands rules into rows, preserving order: one header row per rule
// holding its first classification, then one row per remaining
// classification. Rendering stops at the first invalid rule.
func Render(rules []catalog.Rule) ([]Row, error) {
	rows := make([]Row, 0, catalog.ClassificationCount(rules))
	for _, r := range rules {
		if len(r.Classifications) == 0 {
			return nil, fmt.Errorf("rendering %q: %w", r.Name, ErrNoClassifications)
		}
		class, err := SeverityClass(r.Severity)
		if err != nil {
			return nil, fmt.Errorf("rendering %q: %w", r.Name, err)
		}
		rows = append(rows, Row{
			Header:         true,
			RowSpan:        len(r.Classifications),
			Rule:           r,
			SeverityClass:  class,
			Classification: r.Classifications[0],
		})
		for _, c := range r.Classifications[1:] {
			rows = append(rows, Row{RowSpan: 1, Classification: c})
		}
	}
	return rows, nil
}

// ResultsCount formats the number of rules shown, e.g. "1 result" or
// "3 results".
func ResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

// FormatTimestamp formats t for display. The zero time renders as "Never".
func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "Never"
	}
	return t.Format(TimestampLayout)
}

// Anchor returns the element id of a rule's header row, e.g.
// "rule-s3-bucket-policy-modified".
func Anchor(r catalog.Rule) string {
	var b strings.Builder
	b.WriteString("rule-")
	dash := false
	for _, c := range strings.ToLower(r.Name) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
			dash = false
			continue
		}
		if !dash && b.Len() > len("rule-") {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
