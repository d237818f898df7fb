// Package triage classifies requests into one of the four tracks.
//
// Classification is an ordered decision list: rules are evaluated
// top-to-bottom and the first match wins. The order is part of the contract:
// critical urgency short-circuits everything, the service/consumables
// escalation pre-checks run before the full-HTA rule set so a disqualifying
// sub-record cannot be masked by an otherwise-eligible fast path, and the
// full-HTA checks run before the fast-track ones so high-value replacements
// are caught by the budget ceiling.
package triage

import (
	"fmt"
	"strings"

	"github.com/medevalink/be-ts-requests/internal/domain"
)

// Result is the outcome of a classification run.
type Result struct {
	Track     domain.Track
	Reason    string
	Criterion string
	Automatic bool
	Warnings  []string
}

// SubCheckResult is the outcome of a service or consumables escalation check.
type SubCheckResult struct {
	RequiresFullHTA bool
	Reason          string
}

// match is one fired classification rule.
type match struct {
	reason    string
	criterion string
	warnings  []string
}

// rule is a single (predicate, outcome) pair of the decision list.
type rule struct {
	track domain.Track
	check func(r *domain.Request) *match
}

// rules is the decision list in evaluation order.
var rules = []rule{
	{domain.TrackUrgenzaCritica, checkCriticalUrgency},
	{domain.TrackHTACompleto, checkServiceEscalation},
	{domain.TrackHTACompleto, checkConsumablesEscalation},
	{domain.TrackHTACompleto, checkFullHTA},
	{domain.TrackFastTrack, checkFastTrack},
	{domain.TrackSemplificata, checkSimplified},
}

// Classify assigns a track to a (possibly partial) request. It is total:
// when no rule matches, the request falls back to the full HTA track with
// Automatic=false.
func Classify(r *domain.Request) Result {
	for _, rl := range rules {
		if m := rl.check(r); m != nil {
			return Result{
				Track:     rl.track,
				Reason:    m.reason,
				Criterion: m.criterion,
				Automatic: true,
				Warnings:  m.warnings,
			}
		}
	}

	return Result{
		Track:     domain.TrackHTACompleto,
		Reason:    "Non rientra nei criteri di Fast Track o Procedura Semplificata",
		Criterion: "Default - valutazione completa necessaria",
		Automatic: false,
	}
}

// ── Track 1: critical urgency ────────────────────────────────────────────────

func checkCriticalUrgency(r *domain.Request) *match {
	justification := strings.ToLower(r.Justification)
	description := strings.ToLower(r.Description)

	safetyCritical := strings.Contains(justification, "safety") ||
		strings.Contains(justification, "rischio pazient") ||
		strings.Contains(justification, "emergenza") ||
		strings.Contains(description, "pericolo")
	if safetyCritical {
		return &match{
			reason:    "Safety critica con rischio immediato per pazienti",
			criterion: "Urgenza Critica - Safety",
		}
	}

	serviceBlocked := strings.Contains(justification, "blocco servizio") ||
		strings.Contains(justification, "unica apparecchiatura") ||
		strings.Contains(justification, "senza alternative")
	if serviceBlocked && r.IsReplacement &&
		r.ReplacementReason != nil && *r.ReplacementReason == domain.ReplacementNonRiparabile {
		return &match{
			reason:    "Blocco servizio essenziale senza alternative",
			criterion: "Urgenza Critica - Blocco Servizio",
		}
	}

	regulatory := strings.Contains(justification, "obbligo normativo") ||
		strings.Contains(justification, "compliance") ||
		strings.Contains(description, "alert sicurezza")
	if regulatory {
		return &match{
			reason:    "Obbligo normativo urgente",
			criterion: "Urgenza Critica - Obbligo Normativo",
		}
	}

	return nil
}

// ── Escalation pre-checks ────────────────────────────────────────────────────

func checkServiceEscalation(r *domain.Request) *match {
	if !r.RequiresService || r.Service == nil {
		return nil
	}
	res := CheckServiceForTrack(r.Service)
	if !res.RequiresFullHTA {
		return nil
	}
	return &match{
		reason:    fmt.Sprintf("Service: %s", res.Reason),
		criterion: "Service con criticità",
	}
}

func checkConsumablesEscalation(r *domain.Request) *match {
	if !r.RequiresConsumables || r.Consumables == nil {
		return nil
	}
	res := CheckConsumablesForTrack(r.Consumables)
	if !res.RequiresFullHTA {
		return nil
	}
	return &match{
		reason:    fmt.Sprintf("Consumabili: %s", res.Reason),
		criterion: "Consumabili con criticità",
	}
}

// CheckServiceForTrack decides whether a service contract forces the full
// HTA track on its own.
func CheckServiceForTrack(s *domain.ServiceContract) SubCheckResult {
	if !s.AwardedESTAR {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          "Service non ancora aggiudicato ESTAR",
		}
	}

	if s.ConsumablesBundled == domain.InclusioneDedicati {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          "Service con consumabili dedicati - rischio vendor lock-in",
		}
	}

	if s.AnnualFee > domain.ServiceAnnualFeeCeiling {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          fmt.Sprintf("Valore annuo service elevato (€%.0f > €30.000)", s.AnnualFee),
		}
	}

	if s.DurationYears > domain.ServiceMaxDurationYears {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          fmt.Sprintf("Durata contrattuale eccessiva (%d anni > 5 anni)", s.DurationYears),
		}
	}

	if s.EarlyExitPenalty && s.PenaltyPercent != nil && *s.PenaltyPercent > domain.ServiceMaxPenaltyPercent {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          fmt.Sprintf("Penali uscita elevate (%.0f%% > 30%%)", *s.PenaltyPercent),
		}
	}

	if s.RequestKind == domain.ServiceNuovo {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          "Prima attivazione service - richiede valutazione approfondita",
		}
	}

	return SubCheckResult{
		Reason: "Service eligibile per Fast Track o Procedura Semplificata",
	}
}

// CheckConsumablesForTrack decides whether a consumables request forces the
// full HTA track on its own.
func CheckConsumablesForTrack(c *domain.Consumables) SubCheckResult {
	if !c.AwardedESTAR {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          "Consumabili non ancora in gara ESTAR",
		}
	}

	if c.Exclusivity == domain.ConsumabileDedicato && !c.AlternativesExist {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          "Consumabili dedicati senza alternative di mercato - vendor lock-in",
		}
	}

	if c.AnnualConsumption > domain.ConsumablesAnnualCeiling {
		return SubCheckResult{
			RequiresFullHTA: true,
			Reason:          fmt.Sprintf("Consumo annuo elevato (€%.0f > €50.000)", c.AnnualConsumption),
		}
	}

	return SubCheckResult{
		Reason: "Consumabili eligibili per Fast Track o Procedura Semplificata",
	}
}

// ── Track 4: full HTA ────────────────────────────────────────────────────────

func checkFullHTA(r *domain.Request) *match {
	if r.AcquisitionType == domain.AcquisitionNonProgrammato && !r.IsReplacement {
		return &match{
			reason:    "Nuova tecnologia non ancora aggiudicata",
			criterion: "HTA Completo - Nuova tecnologia",
		}
	}

	if r.RequiresStructuralWork || r.FeasibilityStudyRequired {
		return &match{
			reason:    "Alto impatto organizzativo/logistico - richiede adeguamenti strutturali",
			criterion: "HTA Completo - Alto impatto",
		}
	}

	if r.IsDonation && r.Donation != nil && r.Donation.Value >= domain.DonationHTAFloor {
		return &match{
			reason:    fmt.Sprintf("Donazione valore elevato (€%.0f >= €50.000)", r.Donation.Value),
			criterion: "HTA Completo - Donazione alto valore",
		}
	}

	if r.IsDonation && r.Donation != nil && r.Donation.DedicatedMaterials {
		return &match{
			reason:    "Donazione con materiali d'uso dedicati - richiede valutazione approfondita per DGR 306/2024",
			criterion: "HTA Completo - Vincolo DGR 306/2024",
		}
	}

	if r.AcquisitionType == domain.AcquisitionComodato {
		return &match{
			reason:    "Comodato d'uso con implicazioni contrattuali complesse",
			criterion: "HTA Completo - Comodato",
		}
	}

	if r.RequiresRegionalHTA {
		return &match{
			reason:    "Tecnologia innovativa classe IIb/III richiede HTA Regionale",
			criterion: "HTA Completo - Innovativo DGR 737/2022",
		}
	}

	if r.Budget.EstimatedValue >= domain.FullHTABudgetFloor {
		return &match{
			reason:    fmt.Sprintf("Budget significativo (€%.0f >= €100.000)", r.Budget.EstimatedValue),
			criterion: "HTA Completo - Budget elevato",
		}
	}

	return nil
}

// ── Track 2: fast track ──────────────────────────────────────────────────────

func checkFastTrack(r *domain.Request) *match {
	// A: 1:1 replacement already awarded
	if r.IsReplacement && r.AcquisitionType == domain.AcquisitionSostituzione &&
		r.Budget.EstimatedValue > 0 {
		return &match{
			reason:    "Sostituzione 1:1 apparecchiatura fuori uso",
			criterion: "Fast Track - Sostituzione già aggiudicata",
		}
	}

	// B: operational urgency with a workaround available
	if r.ReplacementReason != nil && r.AlternativesExist {
		return &match{
			reason:    "Urgenza operativa con workaround temporaneo disponibile",
			criterion: "Fast Track - Urgenza con workaround",
		}
	}

	// C: forced upgrade
	if r.ReplacementReason != nil && *r.ReplacementReason == domain.ReplacementUpgradeObbligato {
		return &match{
			reason:    "Upgrade obbligato per fine supporto fornitore",
			criterion: "Fast Track - Upgrade obbligato",
		}
	}

	// D: below the economic threshold
	if r.Budget.EstimatedValue > 0 && r.Budget.EstimatedValue < domain.FastTrackBudgetCeiling {
		return &match{
			reason:    fmt.Sprintf("Valore sotto soglia (€%.0f < €15.000)", r.Budget.EstimatedValue),
			criterion: "Fast Track - Sotto soglia economica",
		}
	}

	// F: renewal of an ESTAR-awarded service
	if r.RequiresService && r.Service != nil &&
		r.Service.AwardedESTAR && r.Service.RequestKind == domain.ServiceRinnovo {
		return &match{
			reason:    "Rinnovo service già aggiudicato ESTAR",
			criterion: "Fast Track - Service ESTAR",
		}
	}

	// G: volume increase on ESTAR-awarded consumables
	if r.RequiresConsumables && r.Consumables != nil &&
		r.Consumables.AwardedESTAR && r.Consumables.Motivation == domain.MotivazioneIncrementoVolumi {
		return &match{
			reason:    "Incremento volumi consumabili già a gara ESTAR",
			criterion: "Fast Track - Consumabili ESTAR",
		}
	}

	return nil
}

// ── Track 3: simplified procedure ────────────────────────────────────────────

func checkSimplified(r *domain.Request) *match {
	// A: donations under specific conditions
	if r.IsDonation && r.Donation != nil {
		d := r.Donation

		// DGR 306/2024: dedicated-use materials disqualify outright
		if d.DedicatedMaterials {
			return nil
		}
		if d.Value >= domain.DonationHTAFloor {
			return nil
		}
		if !d.TechnologyAwarded && !d.TechnologyKnown {
			return nil
		}

		return &match{
			reason:    fmt.Sprintf("Donazione valore €%.0f < €50.000, tecnologia conosciuta, conforme DGR 306/2024", d.Value),
			criterion: "Procedura Semplificata - Donazione",
		}
	}

	// B: planned expansion of existing equipment
	if r.AcquisitionType == domain.AcquisitionProgrammato &&
		strings.Contains(strings.ToLower(r.Justification), "ampliamento") {
		return &match{
			reason:    "Ampliamento dotazione tecnologica esistente",
			criterion: "Procedura Semplificata - Ampliamento",
		}
	}

	// C: forced upgrade funded by the investment plan
	if r.ReplacementReason != nil && *r.ReplacementReason == domain.ReplacementUpgradeObbligato &&
		r.Budget.FundingSource == domain.FundingPianoInvestimenti {
		return &match{
			reason:    "Upgrade funzionale programmato nel piano investimenti",
			criterion: "Procedura Semplificata - Upgrade",
		}
	}

	return nil
}
