package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level, format string
		want          zapcore.Level
		wantErr       bool
	}{
		{"debug", "json", zapcore.DebugLevel, false},
		{"WARN", "console", zapcore.WarnLevel, false},
		{"", "", zapcore.InfoLevel, false},
		{"loud", "json", zapcore.InfoLevel, false},
		{"info", "xml", 0, true},
	}
	for _, tt := range tests {
		l, err := New(tt.level, tt.format)
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q, %q): expected error", tt.level, tt.format)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q, %q): %v", tt.level, tt.format, err)
		}
		if !l.Core().Enabled(tt.want) || (tt.want > zapcore.DebugLevel && l.Core().Enabled(tt.want-1)) {
			t.Errorf("New(%q, %q): level is not %v", tt.level, tt.format, tt.want)
		}
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	l, _ := New("info", "json")
	if OrNop(l) != l {
		t.Error("OrNop should return a non-nil logger unchanged")
	}
}
