package labtest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/arogith/hms/internal/platform/events"
)

// Service owns the lab test lifecycle and the visit-association reads.
type Service struct {
	repo      Repository
	resolver  *Resolver
	publisher events.Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

func NewService(repo Repository, resolver *Resolver, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		resolver:  resolver,
		publisher: publisher,
		logger:    logger.With().Str("component", "labtest_service").Logger(),
		now:       time.Now,
	}
}

// Add records a lab test. result_updated_at is stamped at creation only when
// the request already carries a result.
func (s *Service) Add(ctx context.Context, req CreateRequest) (*LabTest, error) {
	if req.VisitID == 0 {
		return nil, ErrMissingVisitID
	}
	req.Normalize()

	t := &LabTest{
		VisitID:        req.VisitID,
		PatientID:      req.PatientID,
		TestName:       req.TestName,
		Result:         req.Result,
		ReferenceRange: req.ReferenceRange,
		Status:         req.Status,
		TestGivenAt:    s.now(),
	}
	if t.Result != "" {
		at := s.now()
		t.ResultUpdatedAt = &at
	}

	if err := s.repo.Insert(ctx, t); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("test_id", t.TestID).Int64("visit_id", t.VisitID).Msg("lab test recorded")
	return t, nil
}

// Update applies a partial update. A changed non-empty result stamps
// result_updated_at with the current time unless the request supplies an
// explicit timestamp.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*LabTest, error) {
	req.Normalize()

	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resultChanged := false
	if req.TestName != nil {
		t.TestName = *req.TestName
	}
	if req.ReferenceRange != nil {
		t.ReferenceRange = *req.ReferenceRange
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Result != nil && *req.Result != "" && *req.Result != t.Result {
		t.Result = *req.Result
		resultChanged = true
	}
	if req.ResultUpdatedAt != nil {
		t.ResultUpdatedAt = req.ResultUpdatedAt
	} else if resultChanged {
		at := s.now()
		t.ResultUpdatedAt = &at
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	if resultChanged {
		if err := s.publisher.Publish(ctx, events.LabTestResultUpdated,
			events.NewLabTestResultUpdated(t.TestID, t.VisitID, t.PatientID, t.Result)); err != nil {
			s.logger.Warn().Err(err).Int64("test_id", t.TestID).Msg("publish labtest.result_updated failed")
		}
	}

	return t, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*LabTest, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ListByPatient(ctx context.Context, patientID string) ([]*LabTest, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("test_id", id).Msg("lab test deleted")
	return nil
}

func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

// ByVisit resolves a visit's lab tests through the fallback chain.
func (s *Service) ByVisit(ctx context.Context, visitID int64) []*LabTest {
	return s.resolver.ByVisit(ctx, visitID)
}

// ByVisitAndPatient resolves with the combined filter, falling back to the
// visit-only chain.
func (s *Service) ByVisitAndPatient(ctx context.Context, visitID int64, patientID string) []*LabTest {
	return s.resolver.ByVisitAndPatient(ctx, visitID, patientID)
}

// ByVisitDirect resolves with the native filter, retrying comprehensively on
// an empty answer.
func (s *Service) ByVisitDirect(ctx context.Context, visitID int64) []*LabTest {
	return s.resolver.ByVisitDirect(ctx, visitID)
}
