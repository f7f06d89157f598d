package events

import (
	"context"
	"encoding/json"
	"testing"
)

func TestNewPatientRegistered(t *testing.T) {
	evt := NewPatientRegistered("001", "123456789012", "Asha", true)
	if evt.EventType != PatientRegistered {
		t.Errorf("expected %s, got %s", PatientRegistered, evt.EventType)
	}
	if evt.EventID == "" {
		t.Error("expected event id to be set")
	}
	if evt.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
	if !evt.IsNewPatient {
		t.Error("expected is_new_patient true")
	}
}

func TestEventMarshalsWithEnvelopeFields(t *testing.T) {
	evt := NewLabTestResultUpdated(5, 9, "001", "Positive")
	body, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(body, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"event_type", "event_id", "timestamp", "test_id", "visit_id", "result"} {
		if _, ok := m[key]; !ok {
			t.Errorf("expected key %s in payload", key)
		}
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = Noop{}
	if err := p.Publish(context.Background(), PatientRegistered, struct{}{}); err != nil {
		t.Errorf("noop publish returned error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("noop close returned error: %v", err)
	}
}
