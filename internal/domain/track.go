package domain

import (
	"math"
	"time"
)

// Business thresholds shared by triage, validation and reporting. These are
// fixed constants of the procedure, not configuration.
const (
	// FastTrackBudgetCeiling: below this estimated value a request qualifies
	// for the fast track (euro).
	FastTrackBudgetCeiling = 15000.0

	// ServiceAnnualFeeCeiling: a service contract above this annual fee
	// requires the full HTA track (euro/year).
	ServiceAnnualFeeCeiling = 30000.0

	// ConsumablesAnnualCeiling: annual consumption above this value requires
	// the full HTA track (euro/year).
	ConsumablesAnnualCeiling = 50000.0

	// DonationHTAFloor: donations at or above this value require the full
	// HTA track (euro).
	DonationHTAFloor = 50000.0

	// FullHTABudgetFloor: estimated values at or above this always take the
	// full HTA track (euro).
	FullHTABudgetFloor = 100000.0

	// ServiceMaxDurationYears: contract durations beyond this escalate.
	ServiceMaxDurationYears = 5

	// ServiceMaxPenaltyPercent: early-exit penalties beyond this escalate.
	ServiceMaxPenaltyPercent = 30.0

	// VolumeIncreaseWarnPercent: consumables volume increases beyond this
	// raise a sustainability warning.
	VolumeIncreaseWarnPercent = 50.0

	// BottleneckThresholdDays: a status whose average residency exceeds this
	// is reported as a bottleneck.
	BottleneckThresholdDays = 5.0
)

// TrackConfig is static per-track reference data.
type TrackConfig struct {
	Track       Track
	Name        string
	MaxDays     int
	Color       string
	Description string
	Criteria    []string
}

// TrackConfigs maps each track to its SLA and display configuration.
var TrackConfigs = map[Track]TrackConfig{
	TrackUrgenzaCritica: {
		Track:       TrackUrgenzaCritica,
		Name:        "Urgenza Critica",
		MaxDays:     2,
		Color:       "#dc2626",
		Description: "24-48h per urgenze critiche safety",
		Criteria: []string{
			"Safety critica con rischio immediato pazienti",
			"Blocco servizio essenziale senza alternative",
			"Obbligo normativo urgente",
		},
	},
	TrackFastTrack: {
		Track:       TrackFastTrack,
		Name:        "Fast Track",
		MaxDays:     7,
		Color:       "#f59e0b",
		Description: "5-7 giorni per sostituzioni e urgenze operative",
		Criteria: []string{
			"Sostituzioni 1:1 già aggiudicate",
			"Urgenze operative con workaround",
			"Service/consumabili ESTAR",
			"Sotto soglia €15.000",
		},
	},
	TrackSemplificata: {
		Track:       TrackSemplificata,
		Name:        "Procedura Semplificata",
		MaxDays:     20,
		Color:       "#3b82f6",
		Description: "15-20 giorni per donazioni e ampliamenti",
		Criteria: []string{
			"Donazioni <€50K senza consumabili dedicati",
			"Ampliamenti dotazione",
			"Upgrade programmabili",
		},
	},
	TrackHTACompleto: {
		Track:       TrackHTACompleto,
		Name:        "HTA Completo",
		MaxDays:     45,
		Color:       "#8b5cf6",
		Description: "30-45 giorni per nuove tecnologie e alto impatto",
		Criteria: []string{
			"Nuove tecnologie non aggiudicate",
			"Alto impatto organizzativo",
			"Donazioni >€50K",
			"Consumabili dedicati",
			"Innovativi classe IIb/III",
		},
	},
}

// MaxDaysForTrack returns the SLA day budget of a track.
func MaxDaysForTrack(track Track) int {
	return TrackConfigs[track].MaxDays
}

// daysBetween truncates to whole elapsed days, matching calendar-day math
// used throughout reporting.
func daysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// ElapsedDays returns whole days since the track was assigned, as of now.
// Requests without an assigned track report zero.
func (r *Request) ElapsedDays(now time.Time) int {
	if r.Track == nil || r.TrackAssignedAt == nil {
		return 0
	}
	return daysBetween(*r.TrackAssignedAt, now)
}

// RemainingDays returns the days left in the track's SLA, as of now.
// Negative values mean the request is overdue; requests without a track
// report zero.
func (r *Request) RemainingDays(now time.Time) int {
	if r.Track == nil || r.TrackAssignedAt == nil {
		return 0
	}
	return MaxDaysForTrack(*r.Track) - r.ElapsedDays(now)
}

// IsOverdue reports whether the request has exceeded its track SLA.
func (r *Request) IsOverdue(now time.Time) bool {
	if r.Track == nil || r.TrackAssignedAt == nil {
		return false
	}
	return r.RemainingDays(now) < 0
}
