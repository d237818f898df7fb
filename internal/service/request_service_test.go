package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medevalink/be-ts-requests/internal/domain"
	"github.com/medevalink/be-ts-requests/internal/errors"
	"github.com/medevalink/be-ts-requests/internal/logger"
	"github.com/medevalink/be-ts-requests/internal/repository"
)

var testNow = time.Date(2026, time.May, 20, 14, 30, 0, 0, time.UTC)

// fakeStore is an in-memory RequestStore with the same optimistic-concurrency
// contract as the SQL implementation.
type fakeStore struct {
	requests map[string]*domain.Request
	seq      map[int]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		requests: make(map[string]*domain.Request),
		seq:      make(map[int]int),
	}
}

func (s *fakeStore) Create(_ context.Context, req *domain.Request) error {
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *fakeStore) GetByID(_ context.Context, id string) (*domain.Request, error) {
	req, ok := s.requests[id]
	if !ok {
		return nil, errors.NotFound("request", id)
	}
	return req.Clone(), nil
}

func (s *fakeStore) GetByNumber(_ context.Context, number string) (*domain.Request, error) {
	for _, req := range s.requests {
		if req.Number == number {
			return req.Clone(), nil
		}
	}
	return nil, errors.NotFound("request", number)
}

func (s *fakeStore) List(_ context.Context, _ repository.ListFilter) ([]*domain.Request, error) {
	var out []*domain.Request
	for _, req := range s.requests {
		out = append(out, req.Clone())
	}
	return out, nil
}

func (s *fakeStore) Save(_ context.Context, req *domain.Request, expectedHistoryLen int) error {
	stored, ok := s.requests[req.ID]
	if !ok {
		return errors.NotFound("request", req.ID)
	}
	if len(stored.History) != expectedHistoryLen {
		return errors.Conflict("request was modified concurrently")
	}
	s.requests[req.ID] = req.Clone()
	return nil
}

func (s *fakeStore) NextProgressiveNumber(_ context.Context, year int) (string, error) {
	s.seq[year]++
	return fmt.Sprintf("%d-%03d", year, s.seq[year]), nil
}

func newTestService(store *fakeStore) *RequestService {
	return NewRequestService(store, logger.Nop()).WithClock(func() time.Time { return testNow })
}

func requester() domain.User {
	return domain.User{ID: "u-req", Role: domain.RoleResponsabileUO}
}

func coordinator() domain.User {
	return domain.User{ID: "u-coord", Role: domain.RoleCoordinatoreCommAz}
}

func validDraft() *domain.Request {
	return &domain.Request{
		OperatingUnit:   "Cardiologia",
		Department:      "Dipartimento Medico",
		AcquisitionType: domain.AcquisitionSostituzione,
		EquipmentType:   domain.EquipmentEcografo,
		EquipmentName:   "Ecografo portatile",
		Description:     "Sostituzione ecografo reparto",
		Justification:   "Apparecchiatura obsoleta",
		IsReplacement:   true,
		Budget: domain.BudgetCoverage{
			EstimatedValue:  12000,
			FundingSource:   domain.FundingFondoIndistinto,
			ReferenceYear:   2026,
			BudgetAvailable: true,
		},
	}
}

func TestCreateDraft(t *testing.T) {
	t.Run("assigns id, number and BOZZA", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)

		req, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)

		assert.NotEmpty(t, req.ID)
		assert.Equal(t, "2026-001", req.Number)
		assert.Equal(t, domain.StatusBozza, req.Status)
		assert.Equal(t, "u-req", req.RequesterID)
		assert.Nil(t, req.Track)
		require.Len(t, req.History, 1)
		assert.Equal(t, "Richiesta creata", req.History[0].Action)
	})

	t.Run("numbers are progressive within the year", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)

		first, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)
		second, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)

		assert.Equal(t, "2026-001", first.Number)
		assert.Equal(t, "2026-002", second.Number)
	})

	t.Run("malformed shape is rejected", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)

		draft := validDraft()
		draft.RequiresService = true // flag without sub-record

		_, err := svc.CreateDraft(context.Background(), draft, requester())

		assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
		assert.Empty(t, store.requests)
	})
}

func TestSubmit(t *testing.T) {
	t.Run("moves a valid draft to SOTTOMESSA", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		draft, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)

		submitted, warnings, err := svc.Submit(context.Background(), draft.ID, requester())
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSottomessa, submitted.Status)
		assert.Empty(t, warnings)
		require.Len(t, submitted.History, 2)
		assert.Equal(t, "Richiesta sottomessa", submitted.History[1].Action)
	})

	t.Run("blocking validation errors abort", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		bad := validDraft()
		bad.Budget.EstimatedValue = -5
		draft, err := svc.CreateDraft(context.Background(), bad, requester())
		require.NoError(t, err)

		_, _, err = svc.Submit(context.Background(), draft.ID, requester())

		require.Error(t, err)
		assert.Equal(t, errors.ErrCodeInvalidInput, errors.CodeOf(err))
		assert.Contains(t, err.Error(), "Il valore stimato deve essere maggiore di zero")

		stored, err := store.GetByID(context.Background(), draft.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusBozza, stored.Status)
	})

	t.Run("warnings do not block", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		draft := validDraft()
		draft.Budget.FundingSource = domain.FundingFondiStatali
		created, err := svc.CreateDraft(context.Background(), draft, requester())
		require.NoError(t, err)

		submitted, warnings, err := svc.Submit(context.Background(), created.ID, requester())
		require.NoError(t, err)

		assert.Equal(t, domain.StatusSottomessa, submitted.Status)
		assert.NotEmpty(t, warnings)
	})

	t.Run("only drafts can be submitted", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		draft, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)
		_, _, err = svc.Submit(context.Background(), draft.ID, requester())
		require.NoError(t, err)

		_, _, err = svc.Submit(context.Background(), draft.ID, requester())

		assert.Equal(t, errors.ErrCodeConflict, errors.CodeOf(err))
	})
}

func TestPerformTriage(t *testing.T) {
	submitted := func(t *testing.T, svc *RequestService) *domain.Request {
		t.Helper()
		draft, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)
		req, _, err := svc.Submit(context.Background(), draft.ID, requester())
		require.NoError(t, err)
		return req
	}

	t.Run("assigns track with audit fields", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		req := submitted(t, svc)
		notes := "verificata delibera ESTAR"

		triaged, result, err := svc.PerformTriage(context.Background(), req.ID, coordinator(), &notes)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusAssegnatoTrack, triaged.Status)
		require.NotNil(t, triaged.Track)
		assert.Equal(t, domain.TrackFastTrack, *triaged.Track)
		assert.Equal(t, "Fast Track - Sostituzione già aggiudicata", result.Criterion)
		require.NotNil(t, triaged.TrackAssignedAt)
		assert.Equal(t, testNow, *triaged.TrackAssignedAt)
		require.NotNil(t, triaged.TriageCoordinatorID)
		assert.Equal(t, "u-coord", *triaged.TriageCoordinatorID)
		assert.Len(t, triaged.History, len(req.History)+1)
	})

	t.Run("drafts cannot be triaged", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		draft, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)

		_, _, err = svc.PerformTriage(context.Background(), draft.ID, coordinator(), nil)

		assert.Equal(t, errors.ErrCodeConflict, errors.CodeOf(err))
	})
}

func TestWorkflowOperations(t *testing.T) {
	triaged := func(t *testing.T, svc *RequestService) *domain.Request {
		t.Helper()
		draft, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)
		_, _, err = svc.Submit(context.Background(), draft.ID, requester())
		require.NoError(t, err)
		req, _, err := svc.PerformTriage(context.Background(), draft.ID, coordinator(), nil)
		require.NoError(t, err)
		return req
	}

	t.Run("reject records the final outcome", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		req := triaged(t, svc)
		da := domain.User{ID: "u-da", Role: domain.RoleDirezioneAmministrativa}

		rejected, err := svc.Reject(context.Background(), req.ID, da, "Fondi esauriti")
		require.NoError(t, err)

		assert.Equal(t, domain.StatusRespinta, rejected.Status)
		require.NotNil(t, rejected.FinalOutcome)
		assert.Equal(t, domain.OutcomeRespinto, *rejected.FinalOutcome)

		stored, err := store.GetByID(context.Background(), req.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusRespinta, stored.Status)
	})

	t.Run("unauthorized transition leaves the store untouched", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		req := triaged(t, svc)

		_, err := svc.ExecuteTransition(context.Background(), req.ID, requester(), domain.StatusInApprovazioneDA, nil)

		assert.Equal(t, errors.ErrCodeUnauthorized, errors.CodeOf(err))
		stored, getErr := store.GetByID(context.Background(), req.ID)
		require.NoError(t, getErr)
		assert.Equal(t, domain.StatusAssegnatoTrack, stored.Status)
	})

	t.Run("stale save surfaces as conflict", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		req := triaged(t, svc)

		// Another writer appends an entry between load and save.
		concurrent := store.requests[req.ID]
		concurrent.History = append(concurrent.History, domain.HistoryEntry{ID: "h-x", At: testNow})

		err := store.Save(context.Background(), req, len(req.History))

		assert.Equal(t, errors.ErrCodeConflict, errors.CodeOf(err))
	})
}

func TestReportingOperations(t *testing.T) {
	t.Run("dashboard over the stored collection", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		draft, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)
		_, _, err = svc.Submit(context.Background(), draft.ID, requester())
		require.NoError(t, err)

		stats, err := svc.DashboardStats(context.Background())
		require.NoError(t, err)

		assert.Equal(t, 1, stats.InProgress)
		assert.Equal(t, 12000.0, stats.BudgetRequestedEuro)
	})

	t.Run("quarterly report", func(t *testing.T) {
		store := newFakeStore()
		svc := newTestService(store)
		_, err := svc.CreateDraft(context.Background(), validDraft(), requester())
		require.NoError(t, err)

		report, err := svc.QuarterlyReport(context.Background(), 2026, 2, coordinator())
		require.NoError(t, err)

		assert.Equal(t, 1, report.TotalRequests)
		assert.Equal(t, 2026, report.Year)
	})
}
