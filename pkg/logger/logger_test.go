package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestWithFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf)

	log.WithFields(map[string]interface{}{
		"strategy": "swing",
		"count":    3,
	}).Info("scan complete")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if entry["strategy"] != "swing" {
		t.Errorf("expected strategy=swing, got %v", entry["strategy"])
	}
	if entry["count"] != float64(3) {
		t.Errorf("expected count=3, got %v", entry["count"])
	}
	if entry["message"] != "scan complete" {
		t.Errorf("expected message, got %v", entry["message"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWriter(&buf)

	log.WithError(errors.New("fetch failed")).Warn("degrading to empty result")

	if !strings.Contains(buf.String(), "fetch failed") {
		t.Errorf("expected error field in output, got %s", buf.String())
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must not write anywhere
	log := Nop()
	log.Info("ignored")
	log.WithField("k", "v").Error("ignored")
}
