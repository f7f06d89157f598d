package events

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys for the hms.events topic exchange.
const (
	PatientRegistered    = "patient.registered"
	VisitPrescribed      = "visit.prescribed"
	LabTestResultUpdated = "labtest.result_updated"
)

// Envelope carries the fields common to every published event.
type Envelope struct {
	EventType string    `json:"event_type"`
	EventID   string    `json:"event_id"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
}

func newEnvelope(eventType string) Envelope {
	return Envelope{
		EventType: eventType,
		EventID:   uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Service:   "hms",
	}
}

// PatientRegisteredEvent is published when a registration completes, for both
// new and returning patients.
type PatientRegisteredEvent struct {
	Envelope
	PatientID    string `json:"patient_id"`
	NationalID   string `json:"national_id"`
	Name         string `json:"name"`
	IsNewPatient bool   `json:"is_new_patient"`
}

// NewPatientRegistered builds a PatientRegisteredEvent.
func NewPatientRegistered(patientID, nationalID, name string, isNew bool) PatientRegisteredEvent {
	return PatientRegisteredEvent{
		Envelope:     newEnvelope(PatientRegistered),
		PatientID:    patientID,
		NationalID:   nationalID,
		Name:         name,
		IsNewPatient: isNew,
	}
}

// VisitPrescribedEvent is published when a visit update first records a
// prescription for a patient.
type VisitPrescribedEvent struct {
	Envelope
	VisitID   int64  `json:"visit_id"`
	PatientID string `json:"patient_id"`
}

// NewVisitPrescribed builds a VisitPrescribedEvent.
func NewVisitPrescribed(visitID int64, patientID string) VisitPrescribedEvent {
	return VisitPrescribedEvent{
		Envelope:  newEnvelope(VisitPrescribed),
		VisitID:   visitID,
		PatientID: patientID,
	}
}

// LabTestResultUpdatedEvent is published when a lab test result changes.
type LabTestResultUpdatedEvent struct {
	Envelope
	TestID    int64  `json:"test_id"`
	VisitID   int64  `json:"visit_id"`
	PatientID string `json:"patient_id,omitempty"`
	Result    string `json:"result"`
}

// NewLabTestResultUpdated builds a LabTestResultUpdatedEvent.
func NewLabTestResultUpdated(testID, visitID int64, patientID, result string) LabTestResultUpdatedEvent {
	return LabTestResultUpdatedEvent{
		Envelope:  newEnvelope(LabTestResultUpdated),
		TestID:    testID,
		VisitID:   visitID,
		PatientID: patientID,
		Result:    result,
	}
}
