package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medevalink/be-ts-requests/internal/domain"
	"github.com/medevalink/be-ts-requests/internal/errors"
	"github.com/medevalink/be-ts-requests/internal/logger"
	"github.com/medevalink/be-ts-requests/internal/reporting"
	"github.com/medevalink/be-ts-requests/internal/repository"
	"github.com/medevalink/be-ts-requests/internal/triage"
	"github.com/medevalink/be-ts-requests/internal/validation"
	"github.com/medevalink/be-ts-requests/internal/workflow"
)

// RequestStore is the persistence surface the service needs.
type RequestStore interface {
	Create(ctx context.Context, req *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	GetByNumber(ctx context.Context, number string) (*domain.Request, error)
	List(ctx context.Context, filter repository.ListFilter) ([]*domain.Request, error)
	Save(ctx context.Context, req *domain.Request, expectedHistoryLen int) error
	NextProgressiveNumber(ctx context.Context, year int) (string, error)
}

// RequestService orchestrates the request lifecycle: draft, submission,
// triage, workflow transitions and reporting.
type RequestService struct {
	store RequestStore
	log   *logger.Logger
	now   func() time.Time
}

// NewRequestService creates a new request service.
func NewRequestService(store RequestStore, log *logger.Logger) *RequestService {
	return &RequestService{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// WithClock overrides the service clock. Intended for tests.
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

// CreateDraft stores a new request in BOZZA with a fresh id and the next
// progressive number for the current year. The draft's sub-record shape is
// checked up front so malformed flag combinations never reach the store.
func (s *RequestService) CreateDraft(ctx context.Context, draft *domain.Request, actor domain.User) (*domain.Request, error) {
	if err := draft.ValidateShape(); err != nil {
		return nil, err
	}

	now := s.now()
	req := draft.Clone()
	req.ID = uuid.NewString()
	req.Status = domain.StatusBozza
	req.RequesterID = actor.ID
	req.CreatedAt = now
	req.UpdatedAt = now
	req.Track = nil
	req.TrackAssignedAt = nil
	req.History = nil

	number, err := s.store.NextProgressiveNumber(ctx, now.Year())
	if err != nil {
		return nil, err
	}
	req.Number = number

	to := domain.StatusBozza
	req.History = append(req.History, domain.HistoryEntry{
		ID:        uuid.NewString(),
		At:        now,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    "Richiesta creata",
		ToStatus:  &to,
	})

	if err := s.store.Create(ctx, req); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", req.ID).
		Str("number", req.Number).
		Str("requester_id", req.RequesterID).
		Msg("Request draft created")
	return req, nil
}

// Submit runs the composite validator and moves the draft to SOTTOMESSA.
// Blocking validation errors abort the submission; warnings are returned to
// the caller alongside the updated request.
func (s *RequestService) Submit(ctx context.Context, id string, actor domain.User) (*domain.Request, []string, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != domain.StatusBozza {
		return nil, nil, errors.Conflict("only drafts can be submitted")
	}
	if err := req.ValidateShape(); err != nil {
		return nil, nil, err
	}

	now := s.now()
	result := validation.ValidateRequest(req, now)
	if !result.Valid {
		return nil, result.Warnings, errors.InvalidInput("request", strings.Join(result.Errors, "; "))
	}

	loadedLen := len(req.History)
	from := req.Status
	to := domain.StatusSottomessa

	next := req.Clone()
	next.Status = to
	next.UpdatedAt = now
	next.History = append(next.History, domain.HistoryEntry{
		ID:         uuid.NewString(),
		At:         now,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "Richiesta sottomessa",
		FromStatus: &from,
		ToStatus:   &to,
	})

	if err := s.store.Save(ctx, next, loadedLen); err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("request_id", next.ID).
		Str("number", next.Number).
		Int("warnings", len(result.Warnings)).
		Msg("Request submitted")
	return next, result.Warnings, nil
}

// PerformTriage classifies a submitted request, assigns its track and records
// the triage audit fields.
func (s *RequestService) PerformTriage(ctx context.Context, id string, coordinator domain.User, notes *string) (*domain.Request, *triage.Result, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if req.Status != domain.StatusSottomessa && req.Status != domain.StatusInTriage {
		return nil, nil, errors.Conflict("request is not awaiting triage")
	}

	now := s.now()
	result := triage.Classify(req)

	loadedLen := len(req.History)
	from := req.Status
	to := domain.StatusAssegnatoTrack

	next := req.Clone()
	next.Status = to
	next.Track = &result.Track
	next.TrackAssignedAt = &now
	next.TrackReason = &result.Reason
	next.TriageAt = &now
	next.TriageCoordinatorID = &coordinator.ID
	next.TriageNotes = notes
	next.UpdatedAt = now
	next.History = append(next.History, domain.HistoryEntry{
		ID:         uuid.NewString(),
		At:         now,
		ActorID:    coordinator.ID,
		ActorRole:  coordinator.Role,
		Action:     "Triage completato: " + result.Criterion,
		FromStatus: &from,
		ToStatus:   &to,
		Note:       notes,
	})

	if err := s.store.Save(ctx, next, loadedLen); err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("request_id", next.ID).
		Str("track", string(result.Track)).
		Bool("automatic", result.Automatic).
		Msg("Triage performed")
	return next, &result, nil
}

// ExecuteTransition applies one workflow transition and persists the result.
func (s *RequestService) ExecuteTransition(ctx context.Context, id string, actor domain.User, to domain.Status, note *string) (*domain.Request, error) {
	return s.apply(ctx, id, func(req *domain.Request) (*domain.Request, error) {
		return workflow.Execute(req, actor, to, note, s.now())
	})
}

// Approve advances the request one approval stage.
func (s *RequestService) Approve(ctx context.Context, id string, actor domain.User, note *string) (*domain.Request, error) {
	return s.apply(ctx, id, func(req *domain.Request) (*domain.Request, error) {
		next, err := workflow.Approve(req, actor, note, s.now())
		if err != nil {
			return nil, err
		}
		if next.Status == domain.StatusApprovata {
			now := s.now()
			outcome := domain.OutcomeApprovato
			next.FinalOutcome = &outcome
			next.AdminDirectionAt = &now
			next.AdminDirectionID = &actor.ID
		}
		return next, nil
	})
}

// Reject moves the request to RESPINTA with a mandatory reason.
func (s *RequestService) Reject(ctx context.Context, id string, actor domain.User, reason string) (*domain.Request, error) {
	return s.apply(ctx, id, func(req *domain.Request) (*domain.Request, error) {
		return workflow.Reject(req, actor, reason, s.now())
	})
}

// Return sends the request back for supplementary material.
func (s *RequestService) Return(ctx context.Context, id string, actor domain.User, reason string) (*domain.Request, error) {
	return s.apply(ctx, id, func(req *domain.Request) (*domain.Request, error) {
		return workflow.Return(req, actor, reason, s.now())
	})
}

// apply loads a request, runs fn over it and persists the successor with the
// loaded history length, so a concurrent writer surfaces as a conflict.
func (s *RequestService) apply(ctx context.Context, id string, fn func(req *domain.Request) (*domain.Request, error)) (*domain.Request, error) {
	req, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	loadedLen := len(req.History)

	next, err := fn(req)
	if err != nil {
		return nil, err
	}

	if err := s.store.Save(ctx, next, loadedLen); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("request_id", next.ID).
		Str("status", string(next.Status)).
		Msg("Request updated")
	return next, nil
}

// DashboardStats aggregates the full stored collection into the dashboard
// snapshot.
func (s *RequestService) DashboardStats(ctx context.Context) (reporting.DashboardStats, error) {
	requests, err := s.store.List(ctx, repository.ListFilter{})
	if err != nil {
		return reporting.DashboardStats{}, err
	}
	return reporting.ComputeDashboardStats(requests, s.now()), nil
}

// QuarterlyReport generates the quarterly rendicontazione over the stored
// collection.
func (s *RequestService) QuarterlyReport(ctx context.Context, year, quarter int, generatedBy domain.User) (*reporting.QuarterlyReport, error) {
	requests, err := s.store.List(ctx, repository.ListFilter{})
	if err != nil {
		return nil, err
	}
	return reporting.GenerateQuarterlyReport(year, quarter, requests, generatedBy, s.now())
}

// WorkflowStats measures residency times across the stored collection.
func (s *RequestService) WorkflowStats(ctx context.Context) (workflow.Stats, error) {
	requests, err := s.store.List(ctx, repository.ListFilter{})
	if err != nil {
		return workflow.Stats{}, err
	}
	return workflow.ComputeStats(requests, s.now()), nil
}
