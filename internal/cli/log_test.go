package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level log.Level
		emit  func(*log.Logger)
		want  bool
	}{
		{"info at info", log.InfoLevel, func(l *log.Logger) { l.Info("graph updated") }, true},
		{"debug at info", log.InfoLevel, func(l *log.Logger) { l.Debug("opened environment") }, false},
		{"debug at debug", log.DebugLevel, func(l *log.Logger) { l.Debug("opened environment") }, true},
		{"warn at info", log.InfoLevel, func(l *log.Logger) { l.Warn("poll failed") }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.emit(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.want {
				t.Errorf("wrote output = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewLoggerKeyValues(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, log.InfoLevel).Info("graph updated", "created", 2)
	out := buf.String()
	if !strings.Contains(out, "graph updated") || !strings.Contains(out, "created") {
		t.Errorf("output %q should contain message and key", out)
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.InfoLevel)).done("Rendered 1 artifact(s)")
	out := buf.String()
	if !strings.Contains(out, "Rendered 1 artifact(s)") {
		t.Errorf("output %q should contain the message", out)
	}
	if !strings.Contains(out, "took") {
		t.Errorf("output %q should contain the elapsed time", out)
	}
}
