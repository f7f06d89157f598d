package visit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/arogith/hms/internal/platform/db"
	"github.com/arogith/hms/internal/platform/events"
)

type txHandle interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func beginTx(ctx context.Context) (context.Context, txHandle, error) {
	return db.WithTx(ctx)
}

// Service manages the visit lifecycle from registration through consult.
type Service struct {
	repo      Repository
	labs      LabTestResolver
	publisher events.Publisher
	logger    zerolog.Logger
	begin     func(ctx context.Context) (context.Context, txHandle, error)
	now       func() time.Time
}

func NewService(repo Repository, labs LabTestResolver, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		labs:      labs,
		publisher: publisher,
		logger:    logger.With().Str("component", "visit_service").Logger(),
		begin:     beginTx,
		now:       time.Now,
	}
}

// InitialVisit carries the vitals captured at the registration desk.
type InitialVisit struct {
	PatientID   string
	BP          string
	Weight      string
	Temperature string
	Symptoms    string
	Complaint   string
	Status      string
}

// CreateInitial persists the visit seeded from a registration. It runs under
// the caller's transaction: the patient row and this visit commit together.
func (s *Service) CreateInitial(ctx context.Context, iv InitialVisit) (*Visit, error) {
	v := &Visit{
		PatientID:   iv.PatientID,
		BP:          iv.BP,
		Weight:      iv.Weight,
		Temperature: iv.Temperature,
		Symptoms:    iv.Symptoms,
		Complaint:   iv.Complaint,
		Status:      iv.Status,
		VisitDate:   s.now(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Create records a standalone visit for an existing patient.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Visit, error) {
	if req.PatientID == "" {
		return nil, ErrMissingPatient
	}
	exists, err := s.repo.PatientExists(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrPatientNotFound, req.PatientID)
	}

	v := &Visit{
		PatientID:   req.PatientID,
		DoctorID:    req.DoctorID,
		OpNo:        req.OpNo,
		RegNo:       req.RegNo,
		BP:          req.BP,
		Weight:      req.Weight,
		Temperature: req.Temperature,
		Symptoms:    req.Symptoms,
		Complaint:   req.Complaint,
		Status:      req.Status,
		VisitDate:   s.now(),
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("visit_id", v.VisitID).Str("patient_id", v.PatientID).Msg("visit created")
	return v, nil
}

// Get returns a single visit.
func (s *Service) Get(ctx context.Context, id int64) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update to a visit. When the update carries the
// patient's first prescription, the patient's visit count moves to one inside
// the same transaction as the visit row.
func (s *Service) Update(ctx context.Context, id int64, u Update) (*Visit, error) {
	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin visit update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	v, err := s.repo.GetByID(txCtx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(v, u)

	if err := s.repo.Update(txCtx, v); err != nil {
		return nil, err
	}

	prescribed := false
	if u.Prescription != nil && *u.Prescription != "" {
		total, err := s.repo.PatientTotalVisits(txCtx, v.PatientID)
		if err != nil {
			return nil, err
		}
		if ShouldIncrementVisitCount(total, u) {
			if err := s.repo.MarkFirstPrescription(txCtx, v.PatientID); err != nil {
				return nil, err
			}
		}
		prescribed = true
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit visit update: %w", err)
	}

	if prescribed {
		if err := s.publisher.Publish(ctx, events.VisitPrescribed,
			events.NewVisitPrescribed(v.VisitID, v.PatientID)); err != nil {
			s.logger.Warn().Err(err).Int64("visit_id", v.VisitID).Msg("publish visit.prescribed failed")
		}
	}

	return v, nil
}

func applyUpdate(v *Visit, u Update) {
	if u.DoctorID != nil {
		v.DoctorID = *u.DoctorID
	}
	if u.OpNo != nil {
		v.OpNo = *u.OpNo
	}
	if u.RegNo != nil {
		v.RegNo = *u.RegNo
	}
	if u.BP != nil {
		v.BP = *u.BP
	}
	if u.Weight != nil {
		v.Weight = *u.Weight
	}
	if u.Temperature != nil {
		v.Temperature = *u.Temperature
	}
	if u.Symptoms != nil {
		v.Symptoms = *u.Symptoms
	}
	if u.Complaint != nil {
		v.Complaint = *u.Complaint
	}
	if u.Status != nil {
		v.Status = *u.Status
	}
	if u.Prescription != nil && *u.Prescription != "" {
		v.Prescription = *u.Prescription
	}
	if u.Notes != nil {
		v.Notes = *u.Notes
	}
}

// List returns paginated visits, newest first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Visit, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListByPatient returns the patient's visit history with doctor names and
// each visit's lab tests.
func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*View, error) {
	views, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, view := range views {
		tests, err := s.labs.ByVisit(ctx, view.VisitID)
		if err != nil {
			s.logger.Warn().Err(err).Int64("visit_id", view.VisitID).Msg("lab test lookup failed")
			tests = nil
		}
		if tests == nil {
			tests = []LabTestInfo{}
		}
		view.LabTests = tests
	}
	return views, nil
}

// ListByDoctor returns a doctor's visits, newest first.
func (s *Service) ListByDoctor(ctx context.Context, doctorID string) ([]*Visit, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// ListToday returns today's visits.
func (s *Service) ListToday(ctx context.Context) ([]*Visit, error) {
	return s.repo.ListOnDay(ctx, s.now())
}

// ListYesterday returns yesterday's visits.
func (s *Service) ListYesterday(ctx context.Context) ([]*Visit, error) {
	return s.repo.ListOnDay(ctx, s.now().AddDate(0, 0, -1))
}
