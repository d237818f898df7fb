package domain

// ── Workflow enums ───────────────────────────────────────────────────────────

// Track is one of the four urgency/complexity classes a request is routed to.
type Track string

const (
	TrackUrgenzaCritica Track = "TRACK_1" // 24-48h
	TrackFastTrack      Track = "TRACK_2" // 5-7 days
	TrackSemplificata   Track = "TRACK_3" // 15-20 days
	TrackHTACompleto    Track = "TRACK_4" // 30-45 days
)

// AllTracks lists the tracks in escalation order.
var AllTracks = []Track{
	TrackUrgenzaCritica,
	TrackFastTrack,
	TrackSemplificata,
	TrackHTACompleto,
}

// Status is a request workflow state, shared across tracks.
type Status string

const (
	StatusBozza                     Status = "BOZZA"
	StatusSottomessa                Status = "SOTTOMESSA"
	StatusInTriage                  Status = "IN_TRIAGE"
	StatusAssegnatoTrack            Status = "ASSEGNATO_TRACK"
	StatusInValidazioneDipartimento Status = "IN_VALIDAZIONE_DIPARTIMENTO"
	StatusInPrescreening            Status = "IN_PRESCREENING"
	StatusInValutazioneCommAz       Status = "IN_VALUTAZIONE_COMMAZ"
	StatusInApprovazioneDS          Status = "IN_APPROVAZIONE_DS"
	StatusInApprovazioneDA          Status = "IN_APPROVAZIONE_DA"
	StatusApprovata                 Status = "APPROVATA"
	StatusRespinta                  Status = "RESPINTA"
	StatusRinviata                  Status = "RINVIATA"
	StatusInAcquisizioneESTAR       Status = "IN_ACQUISIZIONE_ESTAR"
	StatusCompletata                Status = "COMPLETATA"
)

// AllStatuses lists every workflow state.
var AllStatuses = []Status{
	StatusBozza,
	StatusSottomessa,
	StatusInTriage,
	StatusAssegnatoTrack,
	StatusInValidazioneDipartimento,
	StatusInPrescreening,
	StatusInValutazioneCommAz,
	StatusInApprovazioneDS,
	StatusInApprovazioneDA,
	StatusApprovata,
	StatusRespinta,
	StatusRinviata,
	StatusInAcquisizioneESTAR,
	StatusCompletata,
}

// IsTerminal reports whether no further workflow transitions are defined.
func (s Status) IsTerminal() bool {
	return s == StatusApprovata || s == StatusRespinta || s == StatusCompletata
}

// Role identifies the organizational role of an actor. Roles are flat:
// a transition lists the exact set allowed, membership is the only check.
type Role string

const (
	RoleResponsabileUO          Role = "RESPONSABILE_UO"
	RoleDirettoreUOC            Role = "DIRETTORE_UOC"
	RoleDirettoreDipartimento   Role = "DIRETTORE_DIPARTIMENTO"
	RoleResponsabileZona        Role = "RESPONSABILE_ZONA_DISTRETTO"
	RoleCoordinatoreCommAz      Role = "COORDINATORE_COMMAZ"
	RoleMembroCommAz            Role = "MEMBRO_COMMAZ"
	RoleUSLTS                   Role = "USL_TS"
	RoleUSLPM                   Role = "USL_PM"
	RoleESTARTS                 Role = "ESTAR_TS"
	RoleDirezioneSanitaria      Role = "DIREZIONE_SANITARIA"
	RoleDirezioneAmministrativa Role = "DIREZIONE_AMMINISTRATIVA"
	RoleAdmin                   Role = "ADMIN"
)

// ── Classification enums ─────────────────────────────────────────────────────

// AcquisitionType is the purchase modality declared on the request.
type AcquisitionType string

const (
	AcquisitionProgrammato    AcquisitionType = "PROGRAMMATO"
	AcquisitionNonProgrammato AcquisitionType = "NON_PROGRAMMATO"
	AcquisitionSostituzione   AcquisitionType = "SOSTITUZIONE"
	AcquisitionDonazione      AcquisitionType = "DONAZIONE"
	AcquisitionComodato       AcquisitionType = "COMODATO"
	AcquisitionNoleggio       AcquisitionType = "NOLEGGIO"
)

// EquipmentType is the broad equipment category.
type EquipmentType string

const (
	EquipmentGenerale       EquipmentType = "GENERALE"
	EquipmentEcografo       EquipmentType = "ECOGRAFO"
	EquipmentDiagnostica    EquipmentType = "DIAGNOSTICA"
	EquipmentLaboratorio    EquipmentType = "LABORATORIO"
	EquipmentTerapia        EquipmentType = "TERAPIA"
	EquipmentRiabilitazione EquipmentType = "RIABILITAZIONE"
	EquipmentAltro          EquipmentType = "ALTRO"
)

// Priority is the urgency tier used on the fast track.
type Priority string

const (
	PriorityA Priority = "A" // maximum urgency
	PriorityB Priority = "B"
	PriorityC Priority = "C"
)

// ReplacementReason explains why equipment is being replaced.
type ReplacementReason string

const (
	ReplacementNonRiparabile    ReplacementReason = "NON_RIPARABILE"
	ReplacementObsoleto         ReplacementReason = "OBSOLETO"
	ReplacementUpgradeObbligato ReplacementReason = "UPGRADE_OBBLIGATO"
	ReplacementAltro            ReplacementReason = "ALTRO"
)

// FundingSource is the budget funding category.
type FundingSource string

const (
	FundingPianoInvestimenti FundingSource = "PIANO_INVESTIMENTI"
	FundingFondoIndistinto   FundingSource = "FONDO_INDISTINTO"
	FundingFondiStatali      FundingSource = "FONDI_STATALI"
	FundingDonazione         FundingSource = "DONAZIONE"
	FundingAltro             FundingSource = "ALTRO"
)

// ConsumablesInclusion is the consumables mode bundled inside a service contract.
type ConsumablesInclusion string

const (
	InclusioneDedicati ConsumablesInclusion = "DEDICATI"
	InclusioneGenerici ConsumablesInclusion = "GENERICI"
	InclusioneNessuno  ConsumablesInclusion = "NESSUNO"
)

// ConsumableKind is the exclusivity class of a standalone consumables request.
type ConsumableKind string

const (
	ConsumabileDedicato ConsumableKind = "DEDICATI"
	ConsumabileGenerico ConsumableKind = "GENERICI"
)

// ServiceRequestKind distinguishes renewals from extensions and first activations.
type ServiceRequestKind string

const (
	ServiceRinnovo    ServiceRequestKind = "RINNOVO"
	ServiceEstensione ServiceRequestKind = "ESTENSIONE"
	ServiceNuovo      ServiceRequestKind = "NUOVO"
)

// ConsumablesMotivation is the declared reason for a consumables request.
type ConsumablesMotivation string

const (
	MotivazioneIncrementoVolumi ConsumablesMotivation = "INCREMENTO_VOLUMI"
	MotivazioneNuovaTecnologia  ConsumablesMotivation = "NUOVA_TECNOLOGIA"
	MotivazioneRiordinoUrgente  ConsumablesMotivation = "RIORDINO_URGENTE"
	MotivazioneAltro            ConsumablesMotivation = "ALTRO"
)

// Outcome is the decision recorded at an approval stage.
type Outcome string

const (
	OutcomeApprovato Outcome = "APPROVATO"
	OutcomeRespinto  Outcome = "RESPINTO"
	OutcomeRinviato  Outcome = "RINVIATO"
)

// PrescreeningOutcome is the result of the technical-economic pre-screening.
type PrescreeningOutcome string

const (
	PrescreeningApprovato            PrescreeningOutcome = "APPROVATO"
	PrescreeningRespinto             PrescreeningOutcome = "RESPINTO"
	PrescreeningRichiedeIntegrazione PrescreeningOutcome = "RICHIEDE_INTEGRAZIONE"
)

// CommitteeOutcome is the committee's technical opinion.
type CommitteeOutcome string

const (
	CommAzFavorevole                CommitteeOutcome = "FAVOREVOLE"
	CommAzContrario                 CommitteeOutcome = "CONTRARIO"
	CommAzFavorevoleConPrescrizioni CommitteeOutcome = "FAVOREVOLE_CON_PRESCRIZIONI"
)
