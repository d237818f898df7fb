package reporting

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medevalink/be-ts-requests/internal/domain"
	"github.com/medevalink/be-ts-requests/internal/errors"
	"github.com/medevalink/be-ts-requests/internal/workflow"
)

// TrackVolume is the per-track slice of a quarterly report.
type TrackVolume struct {
	Track    domain.Track
	Total    int
	Approved int
	Rejected int
	Returned int
	AvgDays  float64
}

// PhaseBottleneck is a workflow phase flagged as slow, with a remediation hint.
type PhaseBottleneck struct {
	Phase       domain.Status
	Description string
	AvgDays     float64
	Suggestion  string
}

// QuarterlyReport is the full quarterly rendicontazione.
type QuarterlyReport struct {
	ID                  string
	Year                int
	Quarter             int
	GeneratedAt         time.Time
	GeneratedBy         domain.User
	VolumesPerTrack     []TrackVolume
	TotalRequests       int
	TotalApproved       int
	TotalRejected       int
	TotalReturned       int
	BudgetRequestedEuro float64
	BudgetApprovedEuro  float64
	Bottlenecks         []PhaseBottleneck
	Recommendations     []string
}

// quarterRange returns the closed calendar range [start, end] of the quarter.
func quarterRange(year, quarter int) (time.Time, time.Time) {
	startMonth := time.Month(3*(quarter-1) + 1)
	start := time.Date(year, startMonth, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0).Add(-time.Nanosecond)
	return start, end
}

// GenerateQuarterlyReport buckets requests into the given calendar quarter by
// creation date and aggregates volumes, outcomes, budget and bottlenecks.
func GenerateQuarterlyReport(year, quarter int, requests []*domain.Request, generatedBy domain.User, now time.Time) (*QuarterlyReport, error) {
	if quarter < 1 || quarter > 4 {
		return nil, errors.InvalidInput("quarter", "quarter must be between 1 and 4")
	}

	start, end := quarterRange(year, quarter)
	var inQuarter []*domain.Request
	for _, req := range requests {
		if !req.CreatedAt.Before(start) && !req.CreatedAt.After(end) {
			inQuarter = append(inQuarter, req)
		}
	}

	report := &QuarterlyReport{
		ID:          fmt.Sprintf("REPORT-%d-Q%d-%s", year, quarter, uuid.NewString()),
		Year:        year,
		Quarter:     quarter,
		GeneratedAt: now,
		GeneratedBy: generatedBy,
	}

	for _, track := range domain.AllTracks {
		vol := TrackVolume{Track: track}
		var approvalDays []float64
		for _, req := range inQuarter {
			if req.Track == nil || *req.Track != track {
				continue
			}
			vol.Total++
			if req.FinalOutcome == nil {
				continue
			}
			switch *req.FinalOutcome {
			case domain.OutcomeApprovato:
				vol.Approved++
				if req.TrackAssignedAt != nil {
					approvalDays = append(approvalDays, approvalLatencyDays(req))
				}
			case domain.OutcomeRespinto:
				vol.Rejected++
			case domain.OutcomeRinviato:
				vol.Returned++
			}
		}
		if len(approvalDays) > 0 {
			sum := 0.0
			for _, d := range approvalDays {
				sum += d
			}
			vol.AvgDays = sum / float64(len(approvalDays))
		}
		report.VolumesPerTrack = append(report.VolumesPerTrack, vol)
	}

	report.TotalRequests = len(inQuarter)
	for _, req := range inQuarter {
		report.BudgetRequestedEuro += req.Budget.EstimatedValue
		if req.FinalOutcome == nil {
			continue
		}
		switch *req.FinalOutcome {
		case domain.OutcomeApprovato:
			report.TotalApproved++
			report.BudgetApprovedEuro += req.Budget.EstimatedValue
		case domain.OutcomeRespinto:
			report.TotalRejected++
		case domain.OutcomeRinviato:
			report.TotalReturned++
		}
	}

	stats := workflow.ComputeStats(inQuarter, now)
	for _, b := range stats.Bottlenecks {
		report.Bottlenecks = append(report.Bottlenecks, PhaseBottleneck{
			Phase:       b.Status,
			Description: fmt.Sprintf("Tempo medio: %.1f giorni", b.AvgDays),
			AvgDays:     b.AvgDays,
			Suggestion:  phaseSuggestion(b.Status, b.AvgDays),
		})
	}

	report.Recommendations = buildRecommendations(report)
	return report, nil
}

// approvalLatencyDays measures track assignment to the DA decision, falling
// back to the last modification when no DA timestamp was recorded.
func approvalLatencyDays(req *domain.Request) float64 {
	decided := req.UpdatedAt
	if req.AdminDirectionAt != nil {
		decided = *req.AdminDirectionAt
	}
	return floorDays(*req.TrackAssignedAt, decided)
}

func floorDays(from, to time.Time) float64 {
	days := to.Sub(from).Hours() / 24
	return float64(int64(days))
}

var phaseSuggestions = map[domain.Status]string{
	domain.StatusInValidazioneDipartimento: "Automatizzare notifiche ai Direttori. Considerare delega per validazioni semplici.",
	domain.StatusInPrescreening:            "Aumentare risorse Coordinatore CommAz. Implementare checklist standardizzate.",
	domain.StatusInValutazioneCommAz:       "Ottimizzare calendario riunioni CommAz. Preparare documentazione in anticipo.",
	domain.StatusInApprovazioneDS:          "Sessioni dedicate DS per approvazioni batch. Notifiche prioritarie.",
	domain.StatusInApprovazioneDA:          "Calendario fisso approvazioni DA. Pre-screening documentale.",
}

func phaseSuggestion(phase domain.Status, avgDays float64) string {
	if s, ok := phaseSuggestions[phase]; ok {
		return s
	}
	return fmt.Sprintf("Analizzare cause ritardo (%.1f gg medi).", avgDays)
}

// buildRecommendations derives advisory notes from the quarter's figures.
func buildRecommendations(report *QuarterlyReport) []string {
	var recs []string

	track1Count := 0
	for _, v := range report.VolumesPerTrack {
		if v.Track == domain.TrackUrgenzaCritica {
			track1Count = v.Total
		}
	}
	if report.TotalRequests > 0 && float64(track1Count) > float64(report.TotalRequests)*0.2 {
		recs = append(recs, fmt.Sprintf(
			"ATTENZIONE: %d richieste urgenza critica (%.1f%% del totale). Verificare se criteri urgenza sono applicati correttamente o se esiste problema sistemico.",
			track1Count, float64(track1Count)/float64(report.TotalRequests)*100))
	}

	approvalRate := 0.0
	if report.TotalRequests > 0 {
		approvalRate = float64(report.TotalApproved) / float64(report.TotalRequests) * 100
	}
	if approvalRate < 60 {
		recs = append(recs, fmt.Sprintf(
			"Tasso approvazione basso (%.1f%%). Migliorare formazione richiedenti su criteri eligibilità. Potenziare fase pre-screening.",
			approvalRate))
	}

	for _, v := range report.VolumesPerTrack {
		maxDays := float64(domain.MaxDaysForTrack(v.Track))
		if v.AvgDays > maxDays*1.2 {
			recs = append(recs, fmt.Sprintf(
				"Track %s: tempo medio %.1f gg supera SLA (%.0f gg). Ottimizzare processo o rivedere tempi target.",
				v.Track, v.AvgDays, maxDays))
		}
	}

	if len(report.Bottlenecks) > 0 {
		top := report.Bottlenecks[0]
		recs = append(recs, fmt.Sprintf(
			"Principale collo di bottiglia: %s (%.1f gg medi). %s",
			top.Phase, top.AvgDays, top.Suggestion))
	}

	if approvalRate >= 80 {
		recs = append(recs, fmt.Sprintf(
			"Ottimo tasso approvazione (%.1f%%). Sistema di pre-screening efficace. Mantenere standard qualitativi.",
			approvalRate))
	}

	if report.TotalRequests > 0 {
		recs = append(recs, "Budget: analizzare trend spesa per pianificazione budget prossimo anno.")
	}

	return recs
}

// Trends compares a quarter against the previous one, in percentage points
// for the approval rate and relative percentages elsewhere.
type Trends struct {
	RequestsDeltaPercent    float64
	BudgetDeltaPercent      float64
	ApprovalRateDeltaPoints float64
	AvgDaysDeltaPercent     float64
}

// ComputeTrends returns all-zero trends when previous is nil or degenerate.
func ComputeTrends(current, previous *QuarterlyReport) Trends {
	var t Trends
	if previous == nil {
		return t
	}

	if previous.TotalRequests > 0 {
		t.RequestsDeltaPercent = float64(current.TotalRequests-previous.TotalRequests) / float64(previous.TotalRequests) * 100
	}
	if previous.BudgetApprovedEuro > 0 {
		t.BudgetDeltaPercent = (current.BudgetApprovedEuro - previous.BudgetApprovedEuro) / previous.BudgetApprovedEuro * 100
	}

	currentRate := 0.0
	if current.TotalRequests > 0 {
		currentRate = float64(current.TotalApproved) / float64(current.TotalRequests) * 100
	}
	previousRate := 0.0
	if previous.TotalRequests > 0 {
		previousRate = float64(previous.TotalApproved) / float64(previous.TotalRequests) * 100
	}
	t.ApprovalRateDeltaPoints = currentRate - previousRate

	currentAvg := avgTrackDays(current)
	previousAvg := avgTrackDays(previous)
	if previousAvg > 0 {
		t.AvgDaysDeltaPercent = (currentAvg - previousAvg) / previousAvg * 100
	}
	return t
}

func avgTrackDays(report *QuarterlyReport) float64 {
	if len(report.VolumesPerTrack) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range report.VolumesPerTrack {
		sum += v.AvgDays
	}
	return sum / float64(len(report.VolumesPerTrack))
}
