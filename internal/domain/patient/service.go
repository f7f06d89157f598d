package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/arogith/hms/internal/platform/db"
	"github.com/arogith/hms/internal/platform/events"
)

// InitialVisitCreator persists the visit seeded from a registration request.
// It runs under the registration transaction carried in ctx.
type InitialVisitCreator interface {
	CreateInitial(ctx context.Context, v InitialVisit) error
}

// txHandle is the slice of pgx.Tx the registration flow needs.
type txHandle interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

func beginTx(ctx context.Context) (context.Context, txHandle, error) {
	return db.WithTx(ctx)
}

// Service implements patient registration with identity resolution, plus the
// read and update paths over the flattened patient view.
type Service struct {
	repo      Repository
	allocator IDAllocator
	visits    InitialVisitCreator
	publisher events.Publisher
	logger    zerolog.Logger
	begin     func(ctx context.Context) (context.Context, txHandle, error)
}

func NewService(repo Repository, allocator IDAllocator, visits InitialVisitCreator, publisher events.Publisher, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		allocator: allocator,
		visits:    visits,
		publisher: publisher,
		logger:    logger.With().Str("component", "patient_service").Logger(),
		begin:     beginTx,
	}
}

// Register resolves the request against existing patients by national id and
// either creates a new patient or records a revisit for a returning one. The
// patient row and the initial visit commit together.
func (s *Service) Register(ctx context.Context, req RegistrationRequest) (*RegistrationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	photo, err := DecodePhoto(req.Photo)
	if err != nil {
		return nil, err
	}

	result, err := s.registerTx(ctx, req, photo)
	if errors.Is(err, ErrDuplicateNationalID) {
		// A concurrent registration with the same national id won the
		// insert, which aborts our transaction. Run a fresh one; the
		// lookup now sees the winning row and resolves as a revisit.
		result, err = s.registerTx(ctx, req, photo)
	}
	if err != nil {
		return nil, err
	}

	if err := s.publisher.Publish(ctx, events.PatientRegistered,
		events.NewPatientRegistered(result.Patient.PatientID, req.NationalID, req.Name, result.IsNewPatient)); err != nil {
		s.logger.Warn().Err(err).Str("patient_id", result.Patient.PatientID).Msg("publish patient.registered failed")
	}

	return result, nil
}

func (s *Service) registerTx(ctx context.Context, req RegistrationRequest, photo []byte) (*RegistrationResult, error) {
	txCtx, tx, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin registration tx: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.register(txCtx, req, photo)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit registration: %w", err)
	}
	return result, nil
}

func (s *Service) register(ctx context.Context, req RegistrationRequest, photo []byte) (*RegistrationResult, error) {
	existing, err := s.repo.GetByNationalID(ctx, req.NationalID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if existing != nil {
		return s.registerRevisit(ctx, existing, req)
	}

	id, err := s.allocator.Next(ctx)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		PatientID:   id,
		Surname:     req.Surname,
		Name:        req.Name,
		FatherName:  req.FatherName,
		Age:         req.Age,
		BloodGroup:  req.BloodGroup,
		Gender:      req.Gender,
		NationalID:  req.NationalID,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
		Photo:       photo,
		TotalVisits: 0,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if err := s.visits.CreateInitial(ctx, initialVisitFrom(p.PatientID, req)); err != nil {
		return nil, fmt.Errorf("create initial visit: %w", err)
	}

	s.logger.Info().Str("patient_id", p.PatientID).Msg("patient registered")

	latest, err := s.repo.LatestVisit(ctx, p.PatientID)
	if err != nil {
		return nil, err
	}
	return &RegistrationResult{
		Patient:      ComposeView(p, latest),
		IsNewPatient: true,
		Message:      "Patient registered successfully",
	}, nil
}

func (s *Service) registerRevisit(ctx context.Context, existing *Patient, req RegistrationRequest) (*RegistrationResult, error) {
	if !sameIdentity(existing, req) {
		return nil, fmt.Errorf("%w: %s", ErrIdentityConflict, req.NationalID)
	}

	// The stored row is returned as-is; total_visits only moves when a
	// first prescription is recorded against a visit.
	if err := s.visits.CreateInitial(ctx, initialVisitFrom(existing.PatientID, req)); err != nil {
		return nil, fmt.Errorf("create revisit: %w", err)
	}

	s.logger.Info().Str("patient_id", existing.PatientID).Msg("returning patient revisit recorded")

	latest, err := s.repo.LatestVisit(ctx, existing.PatientID)
	if err != nil {
		return nil, err
	}
	return &RegistrationResult{
		Patient:      ComposeView(existing, latest),
		IsNewPatient: false,
		Message:      "Patient already registered, visit recorded",
	}, nil
}

// sameIdentity compares first names case-insensitively. The national id
// already matched; only a differing first name means two people share the
// submitted id.
func sameIdentity(p *Patient, req RegistrationRequest) bool {
	return strings.EqualFold(p.Name, req.Name)
}

func initialVisitFrom(patientID string, req RegistrationRequest) InitialVisit {
	return InitialVisit{
		PatientID:   patientID,
		BP:          req.BP,
		Weight:      req.Weight,
		Temperature: req.Temperature,
		Symptoms:    req.Symptoms,
		Complaint:   req.Complaint,
		Status:      req.Status,
	}
}

// Get returns a single patient view with the latest visit overlaid.
func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	latest, err := s.repo.LatestVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	return ComposeView(p, latest), nil
}

// List returns paginated patient views.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*View, int, error) {
	patients, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.composeAll(ctx, patients)
	return views, total, err
}

// Search returns paginated patient views matching a name, surname or national
// id substring.
func (s *Service) Search(ctx context.Context, q string, limit, offset int) ([]*View, int, error) {
	patients, total, err := s.repo.Search(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.composeAll(ctx, patients)
	return views, total, err
}

// Date-category names accepted by ListByCategory.
const (
	CategoryToday     = "today"
	CategoryYesterday = "yesterday"
	CategoryAll       = "all"
)

// ErrUnknownCategory rejects category values outside today/yesterday/all.
var ErrUnknownCategory = errors.New("unknown visit date category")

// ListByCategory returns patient views filtered by visit date: patients with
// a visit today, yesterday, or everyone. Each patient appears once, with the
// most recent visit overlaid.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]*View, error) {
	var day time.Time
	switch category {
	case CategoryAll:
		patients, err := s.repo.All(ctx)
		if err != nil {
			return nil, err
		}
		views, err := s.composeAll(ctx, patients)
		if err != nil {
			return nil, err
		}
		if views == nil {
			views = []*View{}
		}
		return views, nil
	case CategoryToday:
		day = time.Now()
	case CategoryYesterday:
		day = time.Now().AddDate(0, 0, -1)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCategory, category)
	}

	ids, err := s.repo.IDsVisitedOn(ctx, day)
	if err != nil {
		return nil, err
	}

	views := make([]*View, 0, len(ids))
	for _, id := range ids {
		v, err := s.Get(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

// Update applies a partial patient update and returns the refreshed view. A
// photo is replaced only for data:image payloads; a decode failure on update
// is logged and skipped rather than failing the request.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*View, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Surname != nil {
		p.Surname = *req.Surname
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.FatherName != nil {
		p.FatherName = *req.FatherName
	}
	if req.Age != nil {
		p.Age = *req.Age
	}
	if req.BloodGroup != nil {
		p.BloodGroup = *req.BloodGroup
	}
	if req.Gender != nil {
		p.Gender = *req.Gender
	}
	if req.NationalID != nil {
		p.NationalID = *req.NationalID
	}
	if req.PhoneNumber != nil {
		p.PhoneNumber = *req.PhoneNumber
	}
	if req.Address != nil {
		p.Address = *req.Address
	}
	if req.Photo != nil && strings.HasPrefix(*req.Photo, "data:image") {
		photo, err := DecodePhoto(*req.Photo)
		if err != nil {
			s.logger.Warn().Err(err).Str("patient_id", id).Msg("photo update skipped")
		} else {
			p.Photo = photo
		}
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	latest, err := s.repo.LatestVisit(ctx, id)
	if err != nil {
		return nil, err
	}
	return ComposeView(p, latest), nil
}

func (s *Service) composeAll(ctx context.Context, patients []*Patient) ([]*View, error) {
	views := make([]*View, 0, len(patients))
	for _, p := range patients {
		latest, err := s.repo.LatestVisit(ctx, p.PatientID)
		if err != nil {
			return nil, err
		}
		views = append(views, ComposeView(p, latest))
	}
	return views, nil
}
