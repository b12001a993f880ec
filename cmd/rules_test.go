package cmd

import (
	"testing"

	"github.com/ziadkadry99/kqlcatalog/internal/catalog"
)

func TestFindRule(t *testing.T) {
	cat, err := catalog.Load("../testdata/catalog.yml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	p, r, err := findRule(cat, "", "password-spray-logs")
	if err != nil {
		t.Fatalf("findRule: %v", err)
	}
	if p.Key != "entraid" || r.QueryResourceID != "entraid-password-spray-kql" {
		t.Errorf("got %s / %s", p.Key, r.QueryResourceID)
	}

	if _, _, err := findRule(cat, "aws", "password-spray-logs"); err == nil {
		t.Error("expected error when the id is not in the given platform")
	}
	if _, _, err := findRule(cat, "splunk", "x"); err == nil {
		t.Error("expected error for unknown platform")
	}
}
