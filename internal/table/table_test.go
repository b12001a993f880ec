package table

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"pgregory.net/rapid"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
)

func imdsRule() catalog.Rule {
	return catalog.Rule{
		Name:           "EC2 Instance Created with IMDSv1",
		Description:    "Identifies EC2 instances launched with IMDSv1 <optional>",
		Severity:       catalog.SeverityHigh,
		LastDetected:   time.Date(2025, 5, 15, 14, 23, 45, 0, time.UTC),
		DetectionCount: 3,
		Classifications: []catalog.Classification{
			{Category: "Initial Access (TA0001)", Label: "T1078.004 - Cloud Accounts"},
			{Category: "Credential Access (TA0006)", Label: "T1552.005 - Cloud Instance Metadata API"},
			{Category: "Privilege Escalation (TA0004)", Label: "T1078.004 - Cloud Accounts"},
		},
		SourceSystem:        "AWS EC2",
		QueryResourceID:     "aws-imdsv1-kql",
		QueryFileName:       "ATT4CKQL - AWS - EC2 - Instance Created with IMDSv1.kql",
		ReferenceURL:        "https://example.com/pacu",
		ReferenceLabel:      "Pacu IMDS v1 Attack",
		SampleLogResourceID: "imdsv1-logstest",
	}
}

func TestRenderExpandsClassifications(t *testing.T) {
	rows, err := Render([]catalog.Rule{imdsRule()})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if !rows[0].Header || rows[0].RowSpan != 3 {
		t.Errorf("first row = header %v rowspan %d, want header rowspan 3", rows[0].Header, rows[0].RowSpan)
	}
	if rows[0].SeverityClass != "severity-high" {
		t.Errorf("severity class = %q", rows[0].SeverityClass)
	}
	want := []string{"Initial Access (TA0001)", "Credential Access (TA0006)", "Privilege Escalation (TA0004)"}
	for i, r := range rows {
		if r.Classification.Category != want[i] {
			t.Errorf("row %d category = %q, want %q", i, r.Classification.Category, want[i])
		}
		if i > 0 && r.Header {
			t.Errorf("row %d should not be a header row", i)
		}
	}
}

func TestRenderErrors(t *testing.T) {
	bad := imdsRule()
	bad.Severity = "urgent"
	if _, err := Render([]catalog.Rule{imdsRule(), bad}); !errors.Is(err, ErrUnknownSeverity) {
		t.Errorf("expected ErrUnknownSeverity, got %v", err)
	}

	empty := imdsRule()
	empty.Classifications = nil
	if _, err := Render([]catalog.Rule{empty}); !errors.Is(err, ErrNoClassifications) {
		t.Errorf("expected ErrNoClassifications, got %v", err)
	}
}

func TestResultsCount(t *testing.T) {
	tests := map[int]string{0: "0 results", 1: "1 result", 2: "2 results", 12: "12 results"}
	for n, want := range tests {
		if got := ResultsCount(n); got != want {
			t.Errorf("ResultsCount(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	got := FormatTimestamp(time.Date(2025, 5, 15, 14, 23, 45, 0, time.UTC))
	if got != "May 15, 2025, 02:23 PM UTC" {
		t.Errorf("FormatTimestamp = %q", got)
	}
	if FormatTimestamp(time.Time{}) != "Never" {
		t.Error("zero time should render as Never")
	}
}

func TestWriteHTML(t *testing.T) {
	rows, err := Render([]catalog.Rule{imdsRule()})
	if err != nil {
		t.Fatal(err)
	}
	var b strings.Builder
	if err := WriteHTML(&b, "Amazon Web Services", rows); err != nil {
		t.Fatalf("WriteHTML: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tbody>" + b.String() + "</tbody></table>"))
	if err != nil {
		t.Fatal(err)
	}
	if n := doc.Find("tr.detection-row").Length(); n != 1 {
		t.Errorf("detection rows = %d, want 1", n)
	}
	if n := doc.Find("tr.mitre-additional-row").Length(); n != 2 {
		t.Errorf("additional rows = %d, want 2", n)
	}
	if span := doc.Find("td.detection-name-cell").AttrOr("rowspan", ""); span != "3" {
		t.Errorf("rowspan = %q", span)
	}
	if !doc.Find(".severity-indicator").HasClass("severity-high") {
		t.Error("missing severity-high indicator")
	}
	q := doc.Find("button.view-query-btn")
	if q.AttrOr("data-modal-id", "") != "aws-imdsv1-kql" || q.AttrOr("data-kind", "") != "query" {
		t.Errorf("query button attrs = %v", q.Nodes[0].Attr)
	}
	if q.AttrOr("data-file", "") != "ATT4CKQL - AWS - EC2 - Instance Created with IMDSv1.kql" {
		t.Errorf("data-file = %q", q.AttrOr("data-file", ""))
	}
	if doc.Find("button.view-logs-btn").AttrOr("data-modal-id", "") != "imdsv1-logstest" {
		t.Error("log button not bound to the sample log id")
	}
	if _, ok := doc.Find("button").Attr("onclick"); ok {
		t.Error("buttons must not carry inline handlers")
	}
	if got := doc.Find(".detection-count").Text(); got != "3 results" {
		t.Errorf("detection count = %q", got)
	}
	if got := strings.TrimSpace(doc.Find(".description-cell").Text()); got != "Identifies EC2 instances launched with IMDSv1 <optional>" {
		t.Errorf("description = %q", got)
	}
	if !strings.Contains(b.String(), "&lt;optional&gt;") {
		t.Error("description should be escaped")
	}
}

func TestWriteHTMLEmpty(t *testing.T) {
	var b strings.Builder
	if err := WriteHTML(&b, "Azure", nil); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(b.String(), "No detection rules available for Azure") {
		t.Errorf("unexpected output %q", b.String())
	}
}

func TestSearchAndFilter(t *testing.T) {
	s3 := catalog.Rule{
		Name:            "S3 Bucket Policy Modified",
		Description:     "Detects bucket policy changes",
		Severity:        catalog.SeverityMedium,
		SourceSystem:    "AWS S3",
		Classifications: []catalog.Classification{{Category: "Exfiltration (TA0010)", Label: "T1537"}},
	}
	rules := []catalog.Rule{imdsRule(), s3}

	tests := []struct {
		term string
		want []string
	}{
		{"", []string{imdsRule().Name, s3.Name}},
		{"imdsv1", []string{imdsRule().Name}},
		{"aws s3", []string{s3.Name}},
		{"exfiltration", []string{s3.Name}},
		{"t1552.005", []string{imdsRule().Name}},
		{"AWS", []string{imdsRule().Name, s3.Name}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		got := Search(rules, tt.term)
		var names []string
		for _, r := range got {
			names = append(names, r.Name)
		}
		if strings.Join(names, "|") != strings.Join(tt.want, "|") {
			t.Errorf("Search(%q) = %v, want %v", tt.term, names, tt.want)
		}
	}

	medium := Filter(rules, BySeverity(catalog.SeverityMedium))
	if len(medium) != 1 || medium[0].Name != s3.Name {
		t.Errorf("Filter(medium) = %v", medium)
	}
	if len(rules) != 2 {
		t.Error("filtering must not modify the input")
	}
}

func TestRowCountProperty(t *testing.T) {
	severities := []catalog.Severity{catalog.SeverityLow, catalog.SeverityMedium, catalog.SeverityHigh, catalog.SeverityCritical}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "rules")
		rules := make([]catalog.Rule, n)
		want := 0
		for i := range rules {
			k := rapid.IntRange(1, 6).Draw(t, "classifications")
			rules[i] = catalog.Rule{
				Name:            rapid.StringMatching(`[A-Za-z ]{1,12}`).Draw(t, "name"),
				Severity:        rapid.SampledFrom(severities).Draw(t, "severity"),
				Classifications: make([]catalog.Classification, k),
			}
			want += k
		}

		rows, err := Render(rules)
		if err != nil {
			t.Fatalf("Render: %v", err)
		}
		if len(rows) != want {
			t.Fatalf("rows = %d, want %d", len(rows), want)
		}
		headers := 0
		for i, r := range rows {
			if !r.Header {
				continue
			}
			if r.Rule.Name != rules[headers].Name {
				t.Fatalf("row %d: header for %q, want %q", i, r.Rule.Name, rules[headers].Name)
			}
			if r.RowSpan != len(rules[headers].Classifications) {
				t.Fatalf("row %d: rowspan %d", i, r.RowSpan)
			}
			headers++
		}
		if headers != n {
			t.Fatalf("headers = %d, want %d", headers, n)
		}
	})
}

func TestAnchor(t *testing.T) {
	tests := map[string]string{
		"S3 Bucket Policy Modified":        "rule-s3-bucket-policy-modified",
		"EC2 Instance Created with IMDSv1": "rule-ec2-instance-created-with-imdsv1",
		"  Okta / MFA -- Bypass!":          "rule-okta-mfa-bypass",
	}
	for name, want := range tests {
		if got := Anchor(catalog.Rule{Name: name}); got != want {
			t.Errorf("Anchor(%q) = %q, want %q", name, got, want)
		}
	}
}
