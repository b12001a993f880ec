package catalog

import (
	"strings"
	"testing"
)

func TestLoadSampleCatalog(t *testing.T) {
	c, err := Load("../../testdata/catalog.yml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Title != "ATT4CKQL" {
		t.Errorf("title = %q, want ATT4CKQL", c.Title)
	}
	if got := strings.Join(c.Keys(), ","); got != "aws,entraid" {
		t.Errorf("keys = %q, want aws,entraid", got)
	}

	aws, ok := c.Platform("aws")
	if !ok {
		t.Fatal("aws platform missing")
	}
	if aws.Name != "Amazon Web Services" {
		t.Errorf("aws name = %q", aws.Name)
	}
	if len(aws.Rules) != 2 {
		t.Fatalf("aws rules = %d, want 2", len(aws.Rules))
	}
	first := aws.Rules[0]
	if first.Severity != SeverityHigh {
		t.Errorf("severity = %q, want high", first.Severity)
	}
	if len(first.Classifications) != 3 {
		t.Errorf("classifications = %d, want 3", len(first.Classifications))
	}
	if first.LastDetected.IsZero() {
		t.Error("last_detected should be parsed")
	}
	if got := ClassificationCount(aws.Rules); got != 5 {
		t.Errorf("ClassificationCount = %d, want 5", got)
	}
}

func TestFindRule(t *testing.T) {
	c, err := Load("../../testdata/catalog.yml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	aws, _ := c.Platform("aws")

	if r, ok := aws.FindRule("aws-imdsv1-kql"); !ok || r.Name != "EC2 Instance Created with IMDSv1" {
		t.Errorf("FindRule by query id = %+v, %v", r, ok)
	}
	if r, ok := aws.FindRule("s3-bucket-modification-logs"); !ok || r.Name != "S3 Bucket Policy Modified" {
		t.Errorf("FindRule by log id = %+v, %v", r, ok)
	}
	if _, ok := aws.FindRule("missing"); ok {
		t.Error("FindRule should miss unknown ids")
	}
}

func TestParseRejectsInvalidRules(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "no classifications",
			yaml: `platforms:
  - key: aws
    name: AWS
    rules:
      - name: r1
        severity: low
`,
			wantErr: "at least one classification",
		},
		{
			name: "unknown severity",
			yaml: `platforms:
  - key: aws
    name: AWS
    rules:
      - name: r1
        severity: urgent
        classifications: [{category: c, label: l}]
`,
			wantErr: "invalid severity",
		},
		{
			name: "negative count",
			yaml: `platforms:
  - key: aws
    name: AWS
    rules:
      - name: r1
        severity: low
        detection_count: -1
        classifications: [{category: c, label: l}]
`,
			wantErr: "non-negative",
		},
		{
			name: "duplicate platform",
			yaml: `platforms:
  - key: aws
    name: AWS
  - key: aws
    name: AWS again
`,
			wantErr: "duplicate key",
		},
		{
			name: "unknown field",
			yaml: `platforms:
  - key: aws
    name: AWS
    colour: red
`,
			wantErr: "colour",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestSeverityValid(t *testing.T) {
	for _, s := range []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Severity("HIGH").Valid() {
		t.Error("severity lookup is case-sensitive")
	}
}

func TestPlatformAccent(t *testing.T) {
	tests := []struct {
		p    Platform
		want string
	}{
		{Platform{Key: "aws", Color: "#123456"}, "#123456"},
		{Platform{Key: "gcp"}, "#4285F4"},
		{Platform{Key: "splunk"}, "#6C757D"},
	}
	for _, tt := range tests {
		if got := tt.p.Accent(); got != tt.want {
			t.Errorf("Accent(%q) = %q, want %q", tt.p.Key, got, tt.want)
		}
	}
}

func TestSources(t *testing.T) {
	c := &Catalog{Platforms: []Platform{
		{Key: "aws", Name: "Amazon Web Services"},
		{Key: "entraid", Name: "Entra ID"},
	}}
	got := c.Sources()
	if len(got) != 2 || got[0].Name != "Amazon Web Services" || got[1].Key != "entraid" {
		t.Errorf("Sources = %+v", got)
	}
}
