package telemetry

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestInfoWritesJSONWithFields(t *testing.T) {
	var buf bytes.Buffer
	restore := SetOutput(&buf)
	defer restore()

	Info("unit.test", map[string]any{"user_id": "u1", "count": 2, "err": errors.New("boom")})

	var payload map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(buf.String())), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["msg"] != "unit.test" {
		t.Fatalf("unexpected msg: %v", payload["msg"])
	}
	if payload["level"] != "info" {
		t.Fatalf("unexpected level: %v", payload["level"])
	}
	if payload["user_id"] != "u1" {
		t.Fatalf("unexpected user_id: %v", payload["user_id"])
	}
	if payload["err"] != "boom" {
		t.Fatalf("expected error string, got %v", payload["err"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("missing ts")
	}
}

func TestInitRejectsUnknownLevel(t *testing.T) {
	if err := Init("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if err := Init("info"); err != nil {
		t.Fatalf("init info: %v", err)
	}
}
