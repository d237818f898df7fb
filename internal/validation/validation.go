// Package validation holds the pure compliance validators for request
// sub-records. Validators never mutate their input and never fail hard:
// they return a Result with blocking errors and advisory warnings, and the
// caller decides whether to block.
package validation

import (
	"fmt"
	"math"
	"time"

	"github.com/medevalink/be-ts-requests/internal/domain"
)

// Result is the outcome of one validation run. Errors block submission;
// warnings are surfaced but never block.
type Result struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// merge folds another result into this one, recomputing validity.
func (r *Result) merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.Valid = len(r.Errors) == 0
}

func result(errors, warnings []string) Result {
	return Result{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}

// ValidateBudget checks the financial coverage sub-record. The reference
// year is compared against the calendar year of now, which the caller
// injects for testability.
func ValidateBudget(b *domain.BudgetCoverage, now time.Time) Result {
	var errs, warns []string

	if b.EstimatedValue <= 0 {
		errs = append(errs, "Il valore stimato deve essere maggiore di zero")
	}

	if b.FundingSource == "" {
		errs = append(errs, "La fonte di finanziamento deve essere specificata")
	}
	if b.FundingSource == domain.FundingAltro && strOrEmpty(b.FundingDetail) == "" {
		errs = append(errs, "Specificare il dettaglio della fonte di finanziamento")
	}

	if !b.BudgetAvailable {
		warns = append(warns, "Budget attualmente non disponibile")

		if !b.SupplementAsked {
			errs = append(errs, "Se il budget non è disponibile, è necessario richiedere integrazione")
		} else if b.SupplementAmount == nil || *b.SupplementAmount <= 0 {
			errs = append(errs, "Specificare l'importo dell'integrazione richiesta")
		}
	}

	// Shortfall: available but not enough to cover the estimate.
	if b.BudgetAvailable && b.AvailableAmount != nil {
		if *b.AvailableAmount < b.EstimatedValue {
			shortfall := b.EstimatedValue - *b.AvailableAmount
			warns = append(warns, fmt.Sprintf("Budget disponibile insufficiente (mancano €%.2f)", shortfall))

			if !b.SupplementAsked {
				errs = append(errs, "Budget insufficiente: è necessario richiedere integrazione")
			}
		}
	}

	if b.ReferenceYear < now.Year() {
		errs = append(errs, fmt.Sprintf("Anno di riferimento non valido (%d < %d)", b.ReferenceYear, now.Year()))
	}

	if b.FundingSource == domain.FundingFondiStatali && strOrEmpty(b.FundingDetail) == "" {
		warns = append(warns, "Per fondi statali specificare riferimenti normativi (es. art. 20 L. 67/88)")
	}

	return result(errs, warns)
}

// ValidateServiceContract checks a service contract for completeness and
// vendor lock-in criticality.
func ValidateServiceContract(s *domain.ServiceContract) Result {
	var errs, warns []string

	if s.Supplier == "" {
		errs = append(errs, "Il fornitore deve essere specificato")
	}
	if s.AnnualFee <= 0 {
		errs = append(errs, "Il canone annuo deve essere maggiore di zero")
	}
	if s.DurationYears <= 0 {
		errs = append(errs, "La durata contrattuale deve essere maggiore di zero")
	}

	if !s.AwardedESTAR {
		warns = append(warns, "Service NON ancora aggiudicato ESTAR - richiede HTA Completo")
	} else if strOrEmpty(s.ESTARDecisionNo) == "" {
		errs = append(errs, "Per service ESTAR è obbligatorio il numero delibera")
	}

	if s.ConsumablesBundled == domain.InclusioneDedicati {
		warns = append(warns,
			"VENDOR LOCK-IN: Service con consumabili dedicati - verifica alternative di mercato",
			"Se donazione con consumabili dedicati: VIETATO da DGR 306/2024")
	}

	if s.AnnualFee > domain.ServiceAnnualFeeCeiling {
		warns = append(warns, fmt.Sprintf("Valore annuo elevato (€%.0f) - richiede HTA Completo", s.AnnualFee))
	}

	if s.DurationYears > domain.ServiceMaxDurationYears {
		warns = append(warns, fmt.Sprintf("Durata contrattuale eccessiva (%d anni) - rischio lock-in lungo termine", s.DurationYears))
	}

	if s.EarlyExitPenalty {
		if s.PenaltyPercent == nil || *s.PenaltyPercent <= 0 {
			errs = append(errs, "Specificare la percentuale delle penali di uscita")
		} else if *s.PenaltyPercent > domain.ServiceMaxPenaltyPercent {
			warns = append(warns, fmt.Sprintf("Penali uscita elevate (%.0f%%) - vincolo contrattuale forte", *s.PenaltyPercent))
		}
	}

	if s.RequestKind == domain.ServiceRinnovo && !s.AwardedESTAR {
		errs = append(errs, "Un rinnovo richiede un service già aggiudicato ESTAR")
	}

	// Declared total must equal fee × duration within rounding tolerance.
	computed := s.AnnualFee * float64(s.DurationYears)
	if math.Abs(s.TotalValue-computed) > 1 {
		errs = append(errs, fmt.Sprintf("Valore totale contratto non coerente (dichiarato: €%.0f, calcolato: €%.0f)", s.TotalValue, computed))
	}

	return result(errs, warns)
}

// ValidateConsumables checks a consumables sub-record for completeness and
// vendor lock-in criticality.
func ValidateConsumables(c *domain.Consumables) Result {
	var errs, warns []string

	if c.Kind == "" {
		errs = append(errs, "La tipologia di consumabili deve essere specificata")
	}
	if c.Supplier == "" {
		errs = append(errs, "Il fornitore deve essere specificato")
	}
	if c.AnnualConsumption <= 0 {
		errs = append(errs, "Il consumo annuo stimato deve essere maggiore di zero")
	}

	if !c.AwardedESTAR {
		warns = append(warns, "Consumabili NON in gara ESTAR - richiede HTA Completo")
	} else if strOrEmpty(c.ESTARDecisionNo) == "" {
		errs = append(errs, "Per consumabili ESTAR è obbligatorio il numero delibera")
	}

	if c.Exclusivity == domain.ConsumabileDedicato {
		warns = append(warns, "VENDOR LOCK-IN: Consumabili dedicati - compatibili solo con tecnologia specifica")

		if !c.AlternativesExist {
			warns = append(warns,
				"VENDOR LOCK-IN CRITICO: Fornitore unico senza alternative di mercato",
				"Valutare impatto economico a lungo termine e rischi supply chain")
		}
	}

	if c.AnnualConsumption > domain.ConsumablesAnnualCeiling {
		warns = append(warns, fmt.Sprintf("Consumo annuo elevato (€%.0f) - impatto significativo su budget corrente", c.AnnualConsumption))
	}

	if c.Motivation == domain.MotivazioneIncrementoVolumi {
		if c.IncreasePercent == nil || *c.IncreasePercent <= 0 {
			errs = append(errs, "Per incremento volumi specificare la percentuale di incremento")
		} else if *c.IncreasePercent > domain.VolumeIncreaseWarnPercent {
			warns = append(warns, fmt.Sprintf("Incremento volumi significativo (+%.0f%%) - verificare sostenibilità organizzativa", *c.IncreasePercent))
		}
	}

	if c.Motivation == domain.MotivazioneAltro && strOrEmpty(c.OtherReason) == "" {
		errs = append(errs, "Specificare la motivazione per \"Altro\"")
	}

	return result(errs, warns)
}

// ValidateDonation checks DGR 306/2024 compliance for a donation.
// Dedicated-use materials are a hard regulatory violation; high value is a
// warning here because the routing decision belongs to triage.
func ValidateDonation(d *domain.Donation) Result {
	var errs, warns []string

	if d.DedicatedMaterials {
		errs = append(errs,
			"VIOLAZIONE DGR 306/2024: Vietate donazioni con materiale d'uso dedicato",
			"La donazione deve essere rifiutata o il fornitore deve garantire materiali compatibili con mercato libero")
	}

	if !d.DonorIdentified {
		errs = append(errs, "Il donatore deve essere identificato e trasparente")
	}

	if d.Value <= 0 {
		errs = append(errs, "Il valore della donazione deve essere maggiore di zero")
	}

	if d.Value >= domain.DonationHTAFloor {
		warns = append(warns, fmt.Sprintf("Donazione di valore elevato (€%.0f) - richiede HTA Completo", d.Value))
	}

	return result(errs, warns)
}

// ValidateRequestCoherence checks cross-field consistency across the
// optional sub-records of a request.
func ValidateRequestCoherence(r *domain.Request) Result {
	var errs, warns []string

	if r.IsDonation && r.Donation != nil &&
		r.RequiresService && r.Service != nil &&
		r.Service.ConsumablesBundled == domain.InclusioneDedicati {
		errs = append(errs, "VIOLAZIONE DGR 306/2024: Donazione con service che include consumabili dedicati VIETATA")
	}

	// Raised again at the composite level on purpose: the donation validator
	// reports it too, but a coherence pass must not rely on that having run.
	if r.IsDonation && r.Donation != nil && r.Donation.DedicatedMaterials {
		errs = append(errs, "VIOLAZIONE DGR 306/2024: Donazione con materiali d'uso dedicati VIETATA")
	}

	if r.IsDonation && r.Budget.FundingSource != domain.FundingDonazione {
		warns = append(warns, "Per donazioni, la fonte di finanziamento dovrebbe essere \"DONAZIONE\"")
	}

	if r.RequiresService && r.Service != nil &&
		r.Service.ConsumablesBundled != domain.InclusioneNessuno &&
		r.RequiresConsumables {
		warns = append(warns, "ATTENZIONE: Service include già consumabili. Verificare se la richiesta consumabili separata è necessaria.")
	}

	return result(errs, warns)
}

// ValidateRequest runs every validator applicable to the request, honoring
// the presence flags, and merges the outcomes. This is the submission gate.
func ValidateRequest(r *domain.Request, now time.Time) Result {
	out := Result{Valid: true}

	out.merge(ValidateBudget(&r.Budget, now))

	if r.RequiresService && r.Service != nil {
		out.merge(ValidateServiceContract(r.Service))
	}
	if r.RequiresConsumables && r.Consumables != nil {
		out.merge(ValidateConsumables(r.Consumables))
	}
	if r.IsDonation && r.Donation != nil {
		out.merge(ValidateDonation(r.Donation))
	}

	out.merge(ValidateRequestCoherence(r))

	return out
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
