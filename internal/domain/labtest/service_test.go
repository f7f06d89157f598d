package labtest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/arogith/hms/internal/platform/events"
)

type mockRepo struct {
	tests  map[int64]*LabTest
	nextID int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{tests: map[int64]*LabTest{}}
}

func (m *mockRepo) Insert(ctx context.Context, t *LabTest) error {
	m.nextID++
	t.TestID = m.nextID
	cp := *t
	m.tests[t.TestID] = &cp
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (*LabTest, error) {
	t, ok := m.tests[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) Update(ctx context.Context, t *LabTest) error {
	if _, ok := m.tests[t.TestID]; !ok {
		return ErrNotFound
	}
	cp := *t
	m.tests[t.TestID] = &cp
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.tests[id]; !ok {
		return ErrNotFound
	}
	delete(m.tests, id)
	return nil
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	var out []*LabTest
	for _, t := range m.tests {
		cp := *t
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) ListByPatient(ctx context.Context, patientID string) ([]*LabTest, error) {
	var out []*LabTest
	for _, t := range m.tests {
		if t.PatientID == patientID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) Count(ctx context.Context) (int, error) {
	return len(m.tests), nil
}

func (m *mockRepo) byVisit(visitID int64) []*LabTest {
	var out []*LabTest
	for _, t := range m.tests {
		if t.VisitID == visitID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out
}

func (m *mockRepo) ByVisitDirect(ctx context.Context, visitID int64) ([]*LabTest, error) {
	return m.byVisit(visitID), nil
}

func (m *mockRepo) ByVisitMapped(ctx context.Context, visitID int64) ([]*LabTest, error) {
	return m.byVisit(visitID), nil
}

func (m *mockRepo) ByVisitNative(ctx context.Context, visitID int64) ([]*LabTest, error) {
	return m.byVisit(visitID), nil
}

func (m *mockRepo) ByVisitComprehensive(ctx context.Context, visitID int64) ([]*LabTest, error) {
	return m.byVisit(visitID), nil
}

func (m *mockRepo) ByVisitAndPatient(ctx context.Context, visitID int64, patientID string) ([]*LabTest, error) {
	var out []*LabTest
	for _, t := range m.byVisit(visitID) {
		if t.PatientID == patientID {
			out = append(out, t)
		}
	}
	return out, nil
}

type capturePublisher struct {
	keys []string
}

func (p *capturePublisher) Publish(ctx context.Context, key string, event interface{}) error {
	p.keys = append(p.keys, key)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func newTestService(repo *mockRepo, pub events.Publisher) *Service {
	return NewService(repo, NewResolver(repo, zerolog.Nop()), pub, zerolog.Nop())
}

func TestAddAppliesDefaults(t *testing.T) {
	svc := newTestService(newMockRepo(), &capturePublisher{})

	lt, err := svc.Add(context.Background(), CreateRequest{VisitID: 1})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if lt.TestName != DefaultTestName {
		t.Fatalf("TestName = %q, want %q", lt.TestName, DefaultTestName)
	}
	if lt.ReferenceRange != DefaultReferenceRange {
		t.Fatalf("ReferenceRange = %q, want %q", lt.ReferenceRange, DefaultReferenceRange)
	}
	if lt.Status != DefaultStatus {
		t.Fatalf("Status = %q, want %q", lt.Status, DefaultStatus)
	}
	if lt.TestGivenAt.IsZero() {
		t.Fatal("TestGivenAt not stamped")
	}
	if lt.ResultUpdatedAt != nil {
		t.Fatal("ResultUpdatedAt must stay unset without a result")
	}
}

func TestAddWithResultStampsResultUpdatedAt(t *testing.T) {
	svc := newTestService(newMockRepo(), &capturePublisher{})

	lt, err := svc.Add(context.Background(), CreateRequest{VisitID: 1, Name: "CBC", Result: "normal"})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if lt.ResultUpdatedAt == nil {
		t.Fatal("ResultUpdatedAt must be stamped when the request carries a result")
	}
}

func TestAddRequiresVisitID(t *testing.T) {
	svc := newTestService(newMockRepo(), &capturePublisher{})
	_, err := svc.Add(context.Background(), CreateRequest{Name: "CBC"})
	if !errors.Is(err, ErrMissingVisitID) {
		t.Fatalf("Add() error = %v, want ErrMissingVisitID", err)
	}
}

func TestUpdateChangedResultStampsNow(t *testing.T) {
	repo := newMockRepo()
	pub := &capturePublisher{}
	svc := newTestService(repo, pub)

	lt, _ := svc.Add(context.Background(), CreateRequest{VisitID: 1, Name: "CBC"})

	result := "elevated"
	updated, err := svc.Update(context.Background(), lt.TestID, UpdateRequest{Result: &result})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Result != "elevated" {
		t.Fatalf("Result = %q", updated.Result)
	}
	if updated.ResultUpdatedAt == nil {
		t.Fatal("ResultUpdatedAt must be stamped for a changed result")
	}
	if len(pub.keys) != 1 || pub.keys[0] != events.LabTestResultUpdated {
		t.Fatalf("published keys = %v", pub.keys)
	}
}

func TestUpdateExplicitTimestampWins(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &capturePublisher{})

	lt, _ := svc.Add(context.Background(), CreateRequest{VisitID: 1, Name: "CBC"})

	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	result := "normal"
	updated, err := svc.Update(context.Background(), lt.TestID, UpdateRequest{Result: &result, ResultUpdatedAt: &at})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.ResultUpdatedAt == nil || !updated.ResultUpdatedAt.Equal(at) {
		t.Fatalf("ResultUpdatedAt = %v, want explicit %v", updated.ResultUpdatedAt, at)
	}
}

func TestUpdateUnchangedResultDoesNotStamp(t *testing.T) {
	repo := newMockRepo()
	pub := &capturePublisher{}
	svc := newTestService(repo, pub)

	lt, _ := svc.Add(context.Background(), CreateRequest{VisitID: 1, Name: "CBC", Result: "normal"})
	before := *lt.ResultUpdatedAt

	result := "normal"
	status := "completed"
	updated, err := svc.Update(context.Background(), lt.TestID, UpdateRequest{Result: &result, Status: &status})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != "completed" {
		t.Fatalf("Status = %q", updated.Status)
	}
	if !updated.ResultUpdatedAt.Equal(before) {
		t.Fatal("an unchanged result must not restamp ResultUpdatedAt")
	}
	if len(pub.keys) != 0 {
		t.Fatalf("published keys = %v, unchanged result must not publish", pub.keys)
	}
}

func TestUpdateNotFound(t *testing.T) {
	svc := newTestService(newMockRepo(), &capturePublisher{})
	result := "x"
	_, err := svc.Update(context.Background(), 99, UpdateRequest{Result: &result})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &capturePublisher{})

	lt, _ := svc.Add(context.Background(), CreateRequest{VisitID: 1, Name: "CBC"})
	if err := svc.Delete(context.Background(), lt.TestID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), lt.TestID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestByVisitThroughService(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &capturePublisher{})

	if _, err := svc.Add(context.Background(), CreateRequest{VisitID: 5, Name: "CBC"}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got := svc.ByVisit(context.Background(), 5)
	if len(got) != 1 || got[0].TestName != "CBC" {
		t.Fatalf("ByVisit() = %+v", got)
	}
	if empty := svc.ByVisit(context.Background(), 99); len(empty) != 0 {
		t.Fatalf("ByVisit(99) = %+v, want empty", empty)
	}
}

func TestCount(t *testing.T) {
	repo := newMockRepo()
	svc := newTestService(repo, &capturePublisher{})
	svc.Add(context.Background(), CreateRequest{VisitID: 1})
	svc.Add(context.Background(), CreateRequest{VisitID: 2})

	n, err := svc.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Count() = %d, want 2", n)
	}
}
