package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		name string
		want Level
	}{
		{"debug", DebugLevel},
		{"info", InfoLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"ERROR", ErrorLevel},
		{"bogus", InfoLevel},
		{"", InfoLevel},
	}
	for _, c := range cases {
		if got := ParseLevel(c.name); got != c.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("dropped", nil)
	logger.Info("dropped", nil)
	logger.Warn("kept", nil)
	logger.Error("kept too", nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if !strings.Contains(lines[0], "[warn] kept") {
		t.Errorf("unexpected first line: %s", lines[0])
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})

	logger.Info("cache hit", map[string]interface{}{"path": "/ws/a.py", "count": 3})

	var e struct {
		Timestamp string                 `json:"timestamp"`
		Level     string                 `json:"level"`
		Message   string                 `json:"message"`
		Fields    map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if e.Level != "info" || e.Message != "cache hit" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.Fields["path"] != "/ws/a.py" {
		t.Errorf("field lost: %+v", e.Fields)
	}
	if e.Timestamp == "" {
		t.Error("missing timestamp")
	}
}

func TestHumanFormatSortsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: DebugLevel, Output: &buf})

	logger.Info("msg", map[string]interface{}{"zebra": 1, "alpha": 2})

	out := buf.String()
	if strings.Index(out, "alpha=2") > strings.Index(out, "zebra=1") {
		t.Errorf("fields not sorted: %s", out)
	}
}

func TestWithAttachesBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: DebugLevel, Output: &buf})
	child := logger.With(map[string]interface{}{"component": "watcher"})

	child.Info("started", map[string]interface{}{"root": "/ws"})

	var e struct {
		Fields map[string]interface{} `json:"fields"`
	}
	if err := json.Unmarshal(buf.Bytes(), &e); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if e.Fields["component"] != "watcher" {
		t.Errorf("base field missing: %+v", e.Fields)
	}
	if e.Fields["root"] != "/ws" {
		t.Errorf("call field missing: %+v", e.Fields)
	}
}

func TestDiscardDropsEverything(t *testing.T) {
	// Must not panic or write anywhere
	logger := Discard()
	logger.Error("ignored", map[string]interface{}{"k": "v"})
}
