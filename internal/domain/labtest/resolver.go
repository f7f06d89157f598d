package labtest

import (
	"context"

	"github.com/rs/zerolog"
)

// strategy is one way of answering "which lab tests belong to this visit".
type strategy struct {
	name  string
	fetch func(ctx context.Context, visitID int64) ([]*LabTest, error)
}

// Resolver answers visit-association queries over lab test rows whose
// visit_id column cannot be fully trusted. It tries an ordered list of
// strategies and degrades to an empty result rather than failing a read.
type Resolver struct {
	repo   Repository
	chain  []strategy
	logger zerolog.Logger
}

func NewResolver(repo Repository, logger zerolog.Logger) *Resolver {
	r := &Resolver{
		repo:   repo,
		logger: logger.With().Str("component", "labtest_resolver").Logger(),
	}
	r.chain = []strategy{
		{name: "direct", fetch: repo.ByVisitDirect},
		{name: "mapped", fetch: repo.ByVisitMapped},
		{name: "native", fetch: repo.ByVisitNative},
		{name: "comprehensive", fetch: repo.ByVisitComprehensive},
	}
	return r
}

// ByVisit walks the strategy chain and returns the first successful answer.
// A strategy error logs a warning and falls through to the next; when every
// strategy fails the result is an empty slice, never an error.
func (r *Resolver) ByVisit(ctx context.Context, visitID int64) []*LabTest {
	for _, s := range r.chain {
		tests, err := s.fetch(ctx, visitID)
		if err != nil {
			r.logger.Warn().Err(err).Str("strategy", s.name).Int64("visit_id", visitID).
				Msg("lab test strategy failed")
			continue
		}
		if tests == nil {
			tests = []*LabTest{}
		}
		return tests
	}
	return []*LabTest{}
}

// ByVisitAndPatient filters on both columns; legacy rows may carry a stale or
// empty patient id, so an error or an empty answer falls back to the
// visit-only chain.
func (r *Resolver) ByVisitAndPatient(ctx context.Context, visitID int64, patientID string) []*LabTest {
	tests, err := r.repo.ByVisitAndPatient(ctx, visitID, patientID)
	if err != nil {
		r.logger.Warn().Err(err).Int64("visit_id", visitID).Str("patient_id", patientID).
			Msg("combined lab test filter failed")
		return r.ByVisit(ctx, visitID)
	}
	if len(tests) == 0 {
		return r.ByVisit(ctx, visitID)
	}
	return tests
}

// ByVisitDirect runs the native filter alone; an empty answer retries the
// comprehensive union, and an error degrades to an empty slice.
func (r *Resolver) ByVisitDirect(ctx context.Context, visitID int64) []*LabTest {
	tests, err := r.repo.ByVisitNative(ctx, visitID)
	if err != nil {
		r.logger.Warn().Err(err).Int64("visit_id", visitID).Msg("native lab test filter failed")
		return []*LabTest{}
	}
	if len(tests) == 0 {
		tests, err = r.repo.ByVisitComprehensive(ctx, visitID)
		if err != nil {
			r.logger.Warn().Err(err).Int64("visit_id", visitID).Msg("comprehensive lab test filter failed")
			return []*LabTest{}
		}
	}
	if tests == nil {
		tests = []*LabTest{}
	}
	return tests
}
