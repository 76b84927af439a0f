package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestStageFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.InfoLevel)

	log.Info("Tiler", "slices enumerated", map[string]interface{}{"sample": "NEEM_1", "slices": 3})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log line %q: %v", buf.String(), err)
	}
	if entry["component"] != "Tiler" {
		t.Errorf("Expected component Tiler, got %v", entry["component"])
	}
	if entry["sample"] != "NEEM_1" {
		t.Errorf("Expected sample field NEEM_1, got %v", entry["sample"])
	}
	if entry["message"] != "slices enumerated" {
		t.Errorf("Unexpected message %v", entry["message"])
	}
}

func TestStageLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Info("Labeler", "should be dropped", nil)
	log.Debug("Labeler", "should be dropped", nil)
	if buf.Len() != 0 {
		t.Fatalf("Expected no output below warn level, got %q", buf.String())
	}

	log.Error("Labeler", errors.New("disk full"), nil)
	if !bytes.Contains(buf.Bytes(), []byte("disk full")) {
		t.Errorf("Expected error text in output, got %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"info", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.name); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestStageErrorEntry(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Error("Segmenter", errors.New("rename failed"), map[string]interface{}{"slice": 4})
	log.Debug("Cleaner", "no fields", nil)

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	if len(lines) != 2 {
		t.Fatalf("Expected 2 entries, got %d: %q", len(lines), buf.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(lines[0], &entry); err != nil {
		t.Fatalf("Failed to parse log line: %v", err)
	}
	if entry["component"] != "Segmenter" || entry["error"] != "rename failed" || entry["slice"] != float64(4) {
		t.Errorf("Unexpected error entry %v", entry)
	}
	if entry["level"] != "error" {
		t.Errorf("Expected level error, got %v", entry["level"])
	}
}

func TestNopDiscards(t *testing.T) {
	log := Nop()
	log.Info("Tiler", "dropped", map[string]interface{}{"sample": "x"})
	log.Error("Tiler", errors.New("dropped"), nil)
}
