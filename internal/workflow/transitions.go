package workflow

import (
	"github.com/medevalink/be-ts-requests/internal/domain"
)

// Transition is one legal status change inside a track's approval chain.
// Roles is the exact set of roles allowed to execute it; there is no
// hierarchy or superuser bypass in the core. Validate, when set, adds a
// request-specific gate on top of the role check.
type Transition struct {
	From        domain.Status
	To          domain.Status
	Roles       []domain.Role
	Validate    func(r *domain.Request) bool
	Description string
}

// Transitions maps each track to its ordered approval chain. The tables are
// data on purpose: CanExecute and NextStatuses are generic over all four
// tracks with one implementation. More urgent tracks have shorter chains.
var Transitions = map[domain.Track][]Transition{
	// Track 1: critical urgency, 24-48h
	domain.TrackUrgenzaCritica: {
		{
			From:        domain.StatusSottomessa,
			To:          domain.StatusInTriage,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz},
			Description: "Coordinatore CommAz riceve richiesta urgente",
		},
		{
			From:        domain.StatusInTriage,
			To:          domain.StatusAssegnatoTrack,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz, domain.RoleDirezioneSanitaria},
			Description: "Verifica criterio urgenza (max 4h)",
		},
		{
			From:        domain.StatusAssegnatoTrack,
			To:          domain.StatusInApprovazioneDA,
			Roles:       []domain.Role{domain.RoleDirezioneAmministrativa},
			Description: "Decisione DA finale (entro 24h)",
		},
		{
			From:        domain.StatusInApprovazioneDA,
			To:          domain.StatusApprovata,
			Roles:       []domain.Role{domain.RoleDirezioneAmministrativa},
			Description: "Approvazione urgenza critica",
		},
	},

	// Track 2: fast track, 5-7 days
	domain.TrackFastTrack: {
		{
			From:        domain.StatusSottomessa,
			To:          domain.StatusInValidazioneDipartimento,
			Roles:       []domain.Role{domain.RoleDirettoreDipartimento, domain.RoleResponsabileZona},
			Description: "Validazione Direttore Dipartimento (2 gg)",
		},
		{
			From:        domain.StatusInValidazioneDipartimento,
			To:          domain.StatusInPrescreening,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz},
			Description: "Pre-screening CoordCommAz (3 gg)",
		},
		{
			From:        domain.StatusInPrescreening,
			To:          domain.StatusInApprovazioneDA,
			Roles:       []domain.Role{domain.RoleDirezioneSanitaria, domain.RoleDirezioneAmministrativa},
			Description: "Approvazione DS/DA (2 gg)",
		},
		{
			From:        domain.StatusInApprovazioneDA,
			To:          domain.StatusApprovata,
			Roles:       []domain.Role{domain.RoleDirezioneAmministrativa},
			Description: "Decisione finale DA",
		},
	},

	// Track 3: simplified procedure, 15-20 days
	domain.TrackSemplificata: {
		{
			From:        domain.StatusSottomessa,
			To:          domain.StatusInValidazioneDipartimento,
			Roles:       []domain.Role{domain.RoleDirettoreDipartimento},
			Description: "Validazione Dipartimento + Pre-screening (5 gg)",
		},
		{
			From:        domain.StatusInValidazioneDipartimento,
			To:          domain.StatusInPrescreening,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz},
			Description: "Valutazione tecnico-economica CoordCommAz",
		},
		{
			From:        domain.StatusInPrescreening,
			To:          domain.StatusInValutazioneCommAz,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz, domain.RoleMembroCommAz},
			Description: "CommAz ristretta - solo membri core (7 gg)",
		},
		{
			From:        domain.StatusInValutazioneCommAz,
			To:          domain.StatusInApprovazioneDA,
			Roles:       []domain.Role{domain.RoleDirezioneSanitaria, domain.RoleDirezioneAmministrativa},
			Description: "Approvazione DS/DA (3 gg)",
		},
		{
			From:        domain.StatusInApprovazioneDA,
			To:          domain.StatusApprovata,
			Roles:       []domain.Role{domain.RoleDirezioneAmministrativa},
			Description: "Decisione finale DA",
		},
	},

	// Track 4: full HTA, 30-45 days
	domain.TrackHTACompleto: {
		{
			From:        domain.StatusSottomessa,
			To:          domain.StatusInPrescreening,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz},
			Description: "Istruttoria approfondita CoordCommAz",
		},
		{
			From:        domain.StatusInPrescreening,
			To:          domain.StatusInValutazioneCommAz,
			Roles:       []domain.Role{domain.RoleCoordinatoreCommAz, domain.RoleMembroCommAz},
			Description: "CommAz completa con audizioni e MCDA",
		},
		{
			From:        domain.StatusInValutazioneCommAz,
			To:          domain.StatusInApprovazioneDS,
			Roles:       []domain.Role{domain.RoleDirezioneSanitaria},
			Description: "Ratifica parere tecnico DS",
		},
		{
			From:        domain.StatusInApprovazioneDS,
			To:          domain.StatusInApprovazioneDA,
			Roles:       []domain.Role{domain.RoleDirezioneAmministrativa},
			Description: "Autorizzazione finale DA",
		},
		{
			From:        domain.StatusInApprovazioneDA,
			To:          domain.StatusApprovata,
			Roles:       []domain.Role{domain.RoleDirezioneAmministrativa},
			Description: "Decisione finale e comunicazione",
		},
	},
}

// approvalSuccessors is the fixed lookup used by Approve: each approval
// stage maps to the single status an approval moves it to.
var approvalSuccessors = map[domain.Status]domain.Status{
	domain.StatusInValutazioneCommAz: domain.StatusInApprovazioneDS,
	domain.StatusInApprovazioneDS:    domain.StatusInApprovazioneDA,
	domain.StatusInApprovazioneDA:    domain.StatusApprovata,
}

// findTransition returns the row matching (from, to) for the track, or nil.
func findTransition(track domain.Track, from, to domain.Status) *Transition {
	for i := range Transitions[track] {
		t := &Transitions[track][i]
		if t.From == from && t.To == to {
			return t
		}
	}
	return nil
}
