package events

import (
	"encoding/json"
	"testing"
)

func TestUpstreamFailureEventJSON(t *testing.T) {
	e := NewUpstreamFailureEvent("op-1", "page 2: status 503")
	if e.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be set")
	}

	body, err := e.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded["operator_id"] != "op-1" || decoded["reason"] != "page 2: status 503" {
		t.Errorf("unexpected payload: %s", body)
	}
}

func TestSnapshotRecordedEventJSON(t *testing.T) {
	body, err := NewSnapshotRecordedEvent("op-1", "2025-08", 123400).ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded SnapshotRecordedEvent
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.Month != "2025-08" || decoded.TotalMRRCents != 123400 {
		t.Errorf("round trip mismatch: %+v", decoded)
	}
}
