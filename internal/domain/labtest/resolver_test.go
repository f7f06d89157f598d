package labtest

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

// strategyRepo fails or answers each access path independently.
type strategyRepo struct {
	Repository

	direct        []*LabTest
	directErr     error
	mapped        []*LabTest
	mappedErr     error
	native        []*LabTest
	nativeErr     error
	comprehensive []*LabTest
	compErr       error
	combined      []*LabTest
	combinedErr   error

	calls []string
}

func (r *strategyRepo) ByVisitDirect(ctx context.Context, visitID int64) ([]*LabTest, error) {
	r.calls = append(r.calls, "direct")
	return r.direct, r.directErr
}

func (r *strategyRepo) ByVisitMapped(ctx context.Context, visitID int64) ([]*LabTest, error) {
	r.calls = append(r.calls, "mapped")
	return r.mapped, r.mappedErr
}

func (r *strategyRepo) ByVisitNative(ctx context.Context, visitID int64) ([]*LabTest, error) {
	r.calls = append(r.calls, "native")
	return r.native, r.nativeErr
}

func (r *strategyRepo) ByVisitComprehensive(ctx context.Context, visitID int64) ([]*LabTest, error) {
	r.calls = append(r.calls, "comprehensive")
	return r.comprehensive, r.compErr
}

func (r *strategyRepo) ByVisitAndPatient(ctx context.Context, visitID int64, patientID string) ([]*LabTest, error) {
	r.calls = append(r.calls, "combined")
	return r.combined, r.combinedErr
}

func tests(names ...string) []*LabTest {
	out := make([]*LabTest, 0, len(names))
	for i, n := range names {
		out = append(out, &LabTest{TestID: int64(i + 1), TestName: n})
	}
	return out
}

func TestByVisitFirstStrategyWins(t *testing.T) {
	repo := &strategyRepo{direct: tests("CBC")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisit(context.Background(), 1)
	if len(got) != 1 || got[0].TestName != "CBC" {
		t.Fatalf("ByVisit() = %+v", got)
	}
	if len(repo.calls) != 1 || repo.calls[0] != "direct" {
		t.Fatalf("calls = %v, later strategies must not run", repo.calls)
	}
}

func TestByVisitEmptySuccessStillReturns(t *testing.T) {
	// An empty answer is an answer: only errors fall through.
	repo := &strategyRepo{mapped: tests("never reached")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisit(context.Background(), 1)
	if len(got) != 0 {
		t.Fatalf("ByVisit() = %+v, want empty from the direct strategy", got)
	}
	if len(repo.calls) != 1 {
		t.Fatalf("calls = %v", repo.calls)
	}
}

func TestByVisitFallsThroughOnError(t *testing.T) {
	boom := errors.New("boom")
	repo := &strategyRepo{
		directErr: boom,
		mappedErr: boom,
		native:    tests("LFT"),
	}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisit(context.Background(), 1)
	if len(got) != 1 || got[0].TestName != "LFT" {
		t.Fatalf("ByVisit() = %+v", got)
	}
	want := []string{"direct", "mapped", "native"}
	if len(repo.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", repo.calls, want)
	}
	for i := range want {
		if repo.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", repo.calls, want)
		}
	}
}

func TestByVisitExhaustionDegradesToEmpty(t *testing.T) {
	boom := errors.New("boom")
	repo := &strategyRepo{directErr: boom, mappedErr: boom, nativeErr: boom, compErr: boom}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisit(context.Background(), 1)
	if got == nil || len(got) != 0 {
		t.Fatalf("ByVisit() = %v, want empty slice on exhaustion", got)
	}
	if len(repo.calls) != 4 {
		t.Fatalf("calls = %v, all four strategies must be tried", repo.calls)
	}
}

func TestByVisitChainCoversEveryAccessPath(t *testing.T) {
	r := NewResolver(&strategyRepo{}, zerolog.Nop())

	want := []string{"direct", "mapped", "native", "comprehensive"}
	if len(r.chain) != len(want) {
		t.Fatalf("chain has %d strategies, want %d", len(r.chain), len(want))
	}
	for i, s := range r.chain {
		if s.name != want[i] {
			t.Fatalf("chain[%d] = %q, want %q", i, s.name, want[i])
		}
	}
}

func TestByVisitAndPatientCombinedHit(t *testing.T) {
	repo := &strategyRepo{combined: tests("CBC")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisitAndPatient(context.Background(), 1, "001")
	if len(got) != 1 || got[0].TestName != "CBC" {
		t.Fatalf("ByVisitAndPatient() = %+v", got)
	}
	if len(repo.calls) != 1 || repo.calls[0] != "combined" {
		t.Fatalf("calls = %v", repo.calls)
	}
}

func TestByVisitAndPatientEmptyFallsBack(t *testing.T) {
	repo := &strategyRepo{direct: tests("legacy row")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisitAndPatient(context.Background(), 1, "001")
	if len(got) != 1 || got[0].TestName != "legacy row" {
		t.Fatalf("ByVisitAndPatient() = %+v, empty combined answer must fall back", got)
	}
}

func TestByVisitAndPatientErrorFallsBack(t *testing.T) {
	repo := &strategyRepo{combinedErr: errors.New("boom"), direct: tests("CBC")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisitAndPatient(context.Background(), 1, "001")
	if len(got) != 1 || got[0].TestName != "CBC" {
		t.Fatalf("ByVisitAndPatient() = %+v", got)
	}
}

func TestByVisitDirectEmptyRetriesComprehensive(t *testing.T) {
	repo := &strategyRepo{comprehensive: tests("joined row")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisitDirect(context.Background(), 1)
	if len(got) != 1 || got[0].TestName != "joined row" {
		t.Fatalf("ByVisitDirect() = %+v", got)
	}
	want := []string{"native", "comprehensive"}
	if len(repo.calls) != 2 || repo.calls[0] != want[0] || repo.calls[1] != want[1] {
		t.Fatalf("calls = %v, want %v", repo.calls, want)
	}
}

func TestByVisitDirectErrorDegradesToEmpty(t *testing.T) {
	repo := &strategyRepo{nativeErr: errors.New("boom")}
	r := NewResolver(repo, zerolog.Nop())

	got := r.ByVisitDirect(context.Background(), 1)
	if got == nil || len(got) != 0 {
		t.Fatalf("ByVisitDirect() = %v, want empty slice", got)
	}
	if len(repo.calls) != 1 {
		t.Fatalf("calls = %v, errors must not retry comprehensively", repo.calls)
	}
}
