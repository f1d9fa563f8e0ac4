package logging_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"uplink/internal/logging"
)

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logging.NewComponentLogger(logger, "hq").Info("stage emitted",
		logging.String(logging.FieldStage, "broadcast"),
		logging.String(logging.FieldAssetID, "img/x1"),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO hq: stage emitted") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "stage=broadcast") || !strings.Contains(line, "asset_id=img/x1") {
		t.Fatalf("missing attrs in line: %q", line)
	}
}

func TestJSONHandlerEmitsLowercaseLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Warn("drain stalled", logging.String(logging.FieldTopic, "pipeline"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("log line not JSON: %v", err)
	}
	if record["level"] != "warn" || record["msg"] != "drain stalled" {
		t.Fatalf("unexpected record: %#v", record)
	}
	if record["topic"] != "pipeline" {
		t.Fatalf("missing topic attr: %#v", record)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestDebugSuppressedAtInfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	logger.Debug("noise")
	if buf.Len() != 0 {
		t.Fatalf("debug record emitted at info level: %q", buf.String())
	}
}
