// Package workflow drives purchase requests through their per-track approval
// chains. All operations are pure over the request value: they return a new
// Request with exactly one appended history entry and never mutate the input.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/medevalink/be-ts-requests/internal/domain"
	"github.com/medevalink/be-ts-requests/internal/errors"
)

// CanExecute reports whether actor may move req to the given status.
// A request without an assigned track has no executable transitions.
func CanExecute(actor domain.User, req *domain.Request, to domain.Status) bool {
	if req.Track == nil {
		return false
	}

	t := findTransition(*req.Track, req.Status, to)
	if t == nil {
		return false
	}

	allowed := false
	for _, role := range t.Roles {
		if role == actor.Role {
			allowed = true
			break
		}
	}
	if !allowed {
		return false
	}

	if t.Validate != nil && !t.Validate(req) {
		return false
	}
	return true
}

// Execute moves req to the given status. It fails closed: any transition not
// explicitly allowed by CanExecute is rejected with an authorization error.
// The returned request carries one new history entry recording the old and
// new status, the actor and the timestamp.
func Execute(req *domain.Request, actor domain.User, to domain.Status, note *string, now time.Time) (*domain.Request, error) {
	if !CanExecute(actor, req, to) {
		return nil, errors.Unauthorized(fmt.Sprintf("transition %s -> %s not allowed for role %s", req.Status, to, actor.Role))
	}

	from := req.Status
	next := req.Clone()
	next.Status = to
	next.UpdatedAt = now
	next.History = append(next.History, domain.HistoryEntry{
		ID:         uuid.NewString(),
		At:         now,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     fmt.Sprintf("Transizione: %s → %s", from, to),
		FromStatus: &from,
		ToStatus:   &to,
		Note:       note,
	})
	return next, nil
}

// NextStatus is one candidate move out of the current status.
type NextStatus struct {
	Status      domain.Status
	Description string
	CanExecute  bool
}

// NextStatuses lists the transitions leaving the request's current status,
// each annotated with whether actor may execute it. Empty when no track is
// assigned yet.
func NextStatuses(req *domain.Request, actor domain.User) []NextStatus {
	if req.Track == nil {
		return nil
	}

	var out []NextStatus
	for _, t := range Transitions[*req.Track] {
		if t.From != req.Status {
			continue
		}
		out = append(out, NextStatus{
			Status:      t.To,
			Description: t.Description,
			CanExecute:  CanExecute(actor, req, t.To),
		})
	}
	return out
}

// Approve advances the request one approval stage. The successor is fixed:
// committee evaluation goes to DS, DS to DA, DA to approved. Any other
// current status is not an approval stage.
func Approve(req *domain.Request, actor domain.User, note *string, now time.Time) (*domain.Request, error) {
	next, ok := approvalSuccessors[req.Status]
	if !ok {
		return nil, errors.New(errors.ErrCodeConflict, fmt.Sprintf("status %s is not an approval stage", req.Status))
	}
	return Execute(req, actor, next, note, now)
}

// Reject moves the request to RESPINTA and records the final outcome. The
// reason is mandatory: a rejection without motivation is not auditable.
func Reject(req *domain.Request, actor domain.User, reason string, now time.Time) (*domain.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.InvalidInput("reason", "rejection reason is required")
	}

	from := req.Status
	to := domain.StatusRespinta
	outcome := domain.OutcomeRespinto

	next := req.Clone()
	next.Status = to
	next.FinalOutcome = &outcome
	next.FinalOutcomeReason = &reason
	next.UpdatedAt = now
	next.History = append(next.History, domain.HistoryEntry{
		ID:         uuid.NewString(),
		At:         now,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "Richiesta respinta",
		FromStatus: &from,
		ToStatus:   &to,
		Note:       &reason,
	})
	return next, nil
}

// Return sends the request back to the requester for supplementary material.
// No transition leads out of RINVIATA: resubmission produces a new request.
func Return(req *domain.Request, actor domain.User, reason string, now time.Time) (*domain.Request, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, errors.InvalidInput("reason", "return reason is required")
	}

	from := req.Status
	to := domain.StatusRinviata

	next := req.Clone()
	next.Status = to
	next.UpdatedAt = now
	next.History = append(next.History, domain.HistoryEntry{
		ID:         uuid.NewString(),
		At:         now,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "Richiesta rinviata per integrazioni",
		FromStatus: &from,
		ToStatus:   &to,
		Note:       &reason,
	})
	return next, nil
}
