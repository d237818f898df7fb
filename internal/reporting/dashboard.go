// Package reporting aggregates request populations into dashboard figures and
// quarterly reports. Everything here is read-only over the inputs; callers
// pass the reference time so results are reproducible.
package reporting

import (
	"time"

	"github.com/medevalink/be-ts-requests/internal/domain"
)

// DashboardStats is the operational snapshot shown on the landing page.
type DashboardStats struct {
	InProgress          int
	CompletedLastMonth  int
	AvgApprovalDays     float64
	RequestsPerTrack    map[domain.Track]int
	RequestsPerStatus   map[domain.Status]int
	OverdueAlerts       []*domain.Request
	BudgetApprovedEuro  float64
	BudgetRequestedEuro float64
	BudgetRemainingEuro float64
}

// ComputeDashboardStats summarizes the given requests at time now. Overdue
// alerts list requests with an assigned track, a non-terminal status and an
// exhausted day budget.
func ComputeDashboardStats(requests []*domain.Request, now time.Time) DashboardStats {
	stats := DashboardStats{
		RequestsPerTrack:  make(map[domain.Track]int),
		RequestsPerStatus: make(map[domain.Status]int),
	}

	monthAgo := now.AddDate(0, -1, 0)
	var approvalDays []float64

	for _, req := range requests {
		stats.RequestsPerStatus[req.Status]++
		if req.Track != nil {
			stats.RequestsPerTrack[*req.Track]++
		}

		switch {
		case req.Status == domain.StatusCompletata:
			if req.UpdatedAt.After(monthAgo) {
				stats.CompletedLastMonth++
			}
		case req.Status != domain.StatusRespinta:
			stats.InProgress++
		}

		if req.Status == domain.StatusApprovata && req.TrackAssignedAt != nil {
			approvalDays = append(approvalDays, now.Sub(*req.TrackAssignedAt).Hours()/24)
		}

		if req.Track != nil && !req.Status.IsTerminal() && req.IsOverdue(now) {
			stats.OverdueAlerts = append(stats.OverdueAlerts, req)
		}

		stats.BudgetRequestedEuro += req.Budget.EstimatedValue
		// Approved budget follows the recorded final outcome, not the current
		// status, so an approved request keeps counting after it moves on to
		// procurement and completion.
		if req.FinalOutcome != nil && *req.FinalOutcome == domain.OutcomeApprovato {
			stats.BudgetApprovedEuro += req.Budget.EstimatedValue
		}
	}

	if len(approvalDays) > 0 {
		sum := 0.0
		for _, d := range approvalDays {
			sum += d
		}
		stats.AvgApprovalDays = sum / float64(len(approvalDays))
	}
	stats.BudgetRemainingEuro = stats.BudgetRequestedEuro - stats.BudgetApprovedEuro

	return stats
}
