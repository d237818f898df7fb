package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medevalink/be-ts-requests/internal/domain"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func floatPtr(f float64) *float64 { return &f }
func strPtr(s string) *string     { return &s }

func validBudget() domain.BudgetCoverage {
	return domain.BudgetCoverage{
		EstimatedValue:  25000,
		FundingSource:   domain.FundingFondoIndistinto,
		ReferenceYear:   2026,
		BudgetAvailable: true,
	}
}

func TestValidateBudget(t *testing.T) {
	t.Run("valid budget passes", func(t *testing.T) {
		b := validBudget()

		res := ValidateBudget(&b, testNow)

		assert.True(t, res.Valid)
		assert.Empty(t, res.Errors)
	})

	t.Run("non positive estimate", func(t *testing.T) {
		b := validBudget()
		b.EstimatedValue = 0

		res := ValidateBudget(&b, testNow)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Il valore stimato deve essere maggiore di zero")
	})

	t.Run("unavailable budget without supplement", func(t *testing.T) {
		b := validBudget()
		b.BudgetAvailable = false

		res := ValidateBudget(&b, testNow)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Se il budget non è disponibile, è necessario richiedere integrazione")
		assert.Contains(t, res.Warnings, "Budget attualmente non disponibile")
	})

	t.Run("shortfall produces warning with exact amount", func(t *testing.T) {
		b := validBudget()
		b.EstimatedValue = 100
		b.AvailableAmount = floatPtr(50)

		res := ValidateBudget(&b, testNow)

		require.NotEmpty(t, res.Errors)
		assert.Contains(t, res.Warnings, "Budget disponibile insufficiente (mancano €50.00)")
	})

	t.Run("shortfall with supplement asked is only a warning", func(t *testing.T) {
		b := validBudget()
		b.EstimatedValue = 100
		b.AvailableAmount = floatPtr(50)
		b.SupplementAsked = true
		b.SupplementAmount = floatPtr(50)

		res := ValidateBudget(&b, testNow)

		assert.True(t, res.Valid)
		assert.NotEmpty(t, res.Warnings)
	})

	t.Run("past reference year", func(t *testing.T) {
		b := validBudget()
		b.ReferenceYear = 2025

		res := ValidateBudget(&b, testNow)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Anno di riferimento non valido (2025 < 2026)")
	})

	t.Run("state funds without references warns", func(t *testing.T) {
		b := validBudget()
		b.FundingSource = domain.FundingFondiStatali

		res := ValidateBudget(&b, testNow)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "Per fondi statali specificare riferimenti normativi (es. art. 20 L. 67/88)")
	})
}

func TestValidateServiceContract(t *testing.T) {
	valid := func() domain.ServiceContract {
		return domain.ServiceContract{
			AwardedESTAR:       true,
			ESTARDecisionNo:    strPtr("456/2025"),
			Supplier:           "MedService SpA",
			DurationYears:      3,
			AnnualFee:          12000,
			TotalValue:         36000,
			ConsumablesBundled: domain.InclusioneNessuno,
			RequestKind:        domain.ServiceRinnovo,
		}
	}

	t.Run("valid contract passes", func(t *testing.T) {
		s := valid()

		res := ValidateServiceContract(&s)

		assert.True(t, res.Valid)
	})

	t.Run("missing ESTAR deliberation number", func(t *testing.T) {
		s := valid()
		s.ESTARDecisionNo = nil

		res := ValidateServiceContract(&s)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Per service ESTAR è obbligatorio il numero delibera")
	})

	t.Run("renewal without award is an error", func(t *testing.T) {
		s := valid()
		s.AwardedESTAR = false
		s.ESTARDecisionNo = nil

		res := ValidateServiceContract(&s)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Un rinnovo richiede un service già aggiudicato ESTAR")
		assert.Contains(t, res.Warnings, "Service NON ancora aggiudicato ESTAR - richiede HTA Completo")
	})

	t.Run("inconsistent total value", func(t *testing.T) {
		s := valid()
		s.TotalValue = 40000

		res := ValidateServiceContract(&s)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Valore totale contratto non coerente (dichiarato: €40000, calcolato: €36000)")
	})

	t.Run("rounding tolerance on total value", func(t *testing.T) {
		s := valid()
		s.TotalValue = 36000.99

		res := ValidateServiceContract(&s)

		assert.True(t, res.Valid)
	})

	t.Run("dedicated consumables warn about lock-in", func(t *testing.T) {
		s := valid()
		s.ConsumablesBundled = domain.InclusioneDedicati

		res := ValidateServiceContract(&s)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "VENDOR LOCK-IN: Service con consumabili dedicati - verifica alternative di mercato")
	})

	t.Run("penalty flag without percent", func(t *testing.T) {
		s := valid()
		s.EarlyExitPenalty = true

		res := ValidateServiceContract(&s)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Specificare la percentuale delle penali di uscita")
	})
}

func TestValidateConsumables(t *testing.T) {
	valid := func() domain.Consumables {
		return domain.Consumables{
			AwardedESTAR:      true,
			ESTARDecisionNo:   strPtr("789/2025"),
			Kind:              "Reagenti laboratorio",
			Supplier:          "LabChem Srl",
			AnnualConsumption: 18000,
			Exclusivity:       domain.ConsumabileGenerico,
			Motivation:        domain.MotivazioneRiordinoUrgente,
		}
	}

	t.Run("valid consumables pass", func(t *testing.T) {
		c := valid()

		res := ValidateConsumables(&c)

		assert.True(t, res.Valid)
	})

	t.Run("volume increase requires percent", func(t *testing.T) {
		c := valid()
		c.Motivation = domain.MotivazioneIncrementoVolumi

		res := ValidateConsumables(&c)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Per incremento volumi specificare la percentuale di incremento")
	})

	t.Run("large volume increase warns", func(t *testing.T) {
		c := valid()
		c.Motivation = domain.MotivazioneIncrementoVolumi
		c.IncreasePercent = floatPtr(75)

		res := ValidateConsumables(&c)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "Incremento volumi significativo (+75%) - verificare sostenibilità organizzativa")
	})

	t.Run("dedicated without alternatives is critical lock-in", func(t *testing.T) {
		c := valid()
		c.Exclusivity = domain.ConsumabileDedicato

		res := ValidateConsumables(&c)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "VENDOR LOCK-IN CRITICO: Fornitore unico senza alternative di mercato")
	})

	t.Run("other motivation requires detail", func(t *testing.T) {
		c := valid()
		c.Motivation = domain.MotivazioneAltro

		res := ValidateConsumables(&c)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Specificare la motivazione per \"Altro\"")
	})
}

func TestValidateDonation(t *testing.T) {
	t.Run("compliant donation passes", func(t *testing.T) {
		d := domain.Donation{
			DonorIdentified:   true,
			Value:             20000,
			TechnologyAwarded: true,
		}

		res := ValidateDonation(&d)

		assert.True(t, res.Valid)
	})

	t.Run("dedicated materials violate DGR 306/2024", func(t *testing.T) {
		d := domain.Donation{
			DonorIdentified:    true,
			Value:              20000,
			DedicatedMaterials: true,
		}

		res := ValidateDonation(&d)

		assert.False(t, res.Valid)
		assert.GreaterOrEqual(t, len(res.Errors), 1)
		assert.Contains(t, res.Errors, "VIOLAZIONE DGR 306/2024: Vietate donazioni con materiale d'uso dedicato")
	})

	t.Run("high value warns", func(t *testing.T) {
		d := domain.Donation{
			DonorIdentified: true,
			Value:           80000,
		}

		res := ValidateDonation(&d)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "Donazione di valore elevato (€80000) - richiede HTA Completo")
	})
}

func TestValidateRequestCoherence(t *testing.T) {
	t.Run("donation with dedicated service consumables is forbidden", func(t *testing.T) {
		req := &domain.Request{
			IsDonation: true,
			Donation:   &domain.Donation{DonorIdentified: true, Value: 20000},
			Budget: domain.BudgetCoverage{
				FundingSource: domain.FundingDonazione,
			},
			RequiresService: true,
			Service: &domain.ServiceContract{
				ConsumablesBundled: domain.InclusioneDedicati,
			},
		}

		res := ValidateRequestCoherence(req)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "VIOLAZIONE DGR 306/2024: Donazione con service che include consumabili dedicati VIETATA")
	})

	t.Run("donation funding source mismatch warns", func(t *testing.T) {
		req := &domain.Request{
			IsDonation: true,
			Donation:   &domain.Donation{DonorIdentified: true, Value: 20000},
			Budget: domain.BudgetCoverage{
				FundingSource: domain.FundingFondoIndistinto,
			},
		}

		res := ValidateRequestCoherence(req)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "Per donazioni, la fonte di finanziamento dovrebbe essere \"DONAZIONE\"")
	})

	t.Run("overlapping consumables warn", func(t *testing.T) {
		req := &domain.Request{
			RequiresService: true,
			Service: &domain.ServiceContract{
				ConsumablesBundled: domain.InclusioneGenerici,
			},
			RequiresConsumables: true,
			Consumables:         &domain.Consumables{},
		}

		res := ValidateRequestCoherence(req)

		assert.True(t, res.Valid)
		assert.Contains(t, res.Warnings, "ATTENZIONE: Service include già consumabili. Verificare se la richiesta consumabili separata è necessaria.")
	})
}

func TestValidateRequest(t *testing.T) {
	t.Run("merges sub-validators honoring flags", func(t *testing.T) {
		req := &domain.Request{
			Budget: validBudget(),
			// Present but not flagged: must not be validated.
			Service: &domain.ServiceContract{},
		}

		res := ValidateRequest(req, testNow)

		assert.True(t, res.Valid)
	})

	t.Run("collects errors from every active sub-record", func(t *testing.T) {
		req := &domain.Request{
			Budget: domain.BudgetCoverage{
				EstimatedValue:  -1,
				FundingSource:   domain.FundingDonazione,
				ReferenceYear:   2026,
				BudgetAvailable: true,
			},
			IsDonation: true,
			Donation: &domain.Donation{
				DedicatedMaterials: true,
				Value:              20000,
				DonorIdentified:    true,
			},
		}

		res := ValidateRequest(req, testNow)

		assert.False(t, res.Valid)
		assert.Contains(t, res.Errors, "Il valore stimato deve essere maggiore di zero")
		assert.Contains(t, res.Errors, "VIOLAZIONE DGR 306/2024: Vietate donazioni con materiale d'uso dedicato")
		// The coherence pass reports the dedicated-materials violation too.
		assert.Contains(t, res.Errors, "VIOLAZIONE DGR 306/2024: Donazione con materiali d'uso dedicati VIETATA")
	})
}
