package shared

import (
	"bytes"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	seen := map[string]bool{}
	for range 100 {
		id := GenerateID()
		if len(id) != 36 {
			t.Fatalf("expected a 36-char uuid, got %q", id)
		}
		if seen[id] {
			t.Fatalf("duplicate id generated: %s", id)
		}
		seen[id] = true
	}
}

func TestHostname(t *testing.T) {
	if Hostname() == "" {
		t.Error("expected a non-empty hostname")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)
	if logger == nil {
		t.Fatal("expected a logger")
	}

	logger.Info("hello", "key", "value")
	if got := buf.String(); !strings.Contains(got, "hello") || !strings.Contains(got, "value") {
		t.Errorf("log output missing message or field: %s", got)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	child := WithLogger(NewLogger(&buf), "device", "dev-a")

	child.Info("scoped")
	if got := buf.String(); !strings.Contains(got, "dev-a") {
		t.Errorf("expected the child logger to carry its fields: %s", got)
	}
}
