package progress

import (
	"bytes"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewLines(&buf)
	r.Start(2)
	r.Update(1, "index.html")
	r.Update(2, "platforms/aws/index.html")
	r.Finish()

	want := "Generating 2 pages\n[1/2] index.html\n[2/2] platforms/aws/index.html\nSite generation complete\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := NewLogged(zap.New(core))
	r.Start(3)
	r.Update(1, "index.html")
	r.Finish()

	entries := logs.All()
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Message != "generating site" || entries[0].ContextMap()["pages"] != int64(3) {
		t.Errorf("start entry = %+v", entries[0])
	}
	if entries[1].Level != zapcore.DebugLevel || entries[1].ContextMap()["page_name"] != "index.html" {
		t.Errorf("update entry = %+v", entries[1])
	}
}

func TestNewReporter(t *testing.T) {
	t.Setenv("GITHUB_ACTIONS", "")
	t.Setenv("CI", "true")
	if _, ok := NewReporter(&bytes.Buffer{}).(*Lines); !ok {
		t.Error("CI should get line output")
	}

	t.Setenv("CI", "")
	r := NewReporter(&bytes.Buffer{})
	if _, ok := r.(*Bar); !ok {
		t.Fatal("terminals should get a progress bar")
	}
	r.Start(1)
	r.Update(1, "index.html")
	r.Finish()
}

func TestNop(t *testing.T) {
	r := Nop()
	r.Start(1)
	r.Update(1, "x")
	r.Finish()
}
