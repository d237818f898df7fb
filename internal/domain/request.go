package domain

import (
	"time"

	"github.com/medevalink/be-ts-requests/internal/errors"
)

// User is the actor value supplied by the external identity provider.
// The core trusts the role field as given and performs no authentication.
type User struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Email         string     `json:"email"`
	Role          Role       `json:"role"`
	OperatingUnit *string    `json:"operating_unit,omitempty"`
	Department    *string    `json:"department,omitempty"`
	DistrictZone  *string    `json:"district_zone,omitempty"`
	Active        bool       `json:"active"`
	CreatedAt     time.Time  `json:"created_at"`
}

// BudgetCoverage is the mandatory financial sub-record of a request.
type BudgetCoverage struct {
	EstimatedValue    float64       `json:"estimated_value"` // euro
	VATExcluded       bool          `json:"vat_excluded"`
	FundingSource     FundingSource `json:"funding_source"`
	FundingDetail     *string       `json:"funding_detail,omitempty"`
	ReferenceYear     int           `json:"reference_year"`
	BudgetChapter     *string       `json:"budget_chapter,omitempty"`
	BudgetAvailable   bool          `json:"budget_available"`
	AvailableAmount   *float64      `json:"available_amount,omitempty"`
	SupplementAsked   bool          `json:"supplement_asked"`
	SupplementAmount  *float64      `json:"supplement_amount,omitempty"`
	ValidatedByUSLPM  bool          `json:"validated_by_usl_pm"`
	USLPMValidatedAt  *time.Time    `json:"usl_pm_validated_at,omitempty"`
	USLPMNotes        *string       `json:"usl_pm_notes,omitempty"`
}

// ServiceContract is the optional maintenance-service sub-record, present
// only when Request.RequiresService is true.
type ServiceContract struct {
	AwardedESTAR       bool                 `json:"awarded_estar"`
	ESTARDecisionNo    *string              `json:"estar_decision_no,omitempty"`
	ESTARDecisionDate  *time.Time           `json:"estar_decision_date,omitempty"`
	Supplier           string               `json:"supplier"`
	DurationYears      int                  `json:"duration_years"`
	StartDate          *time.Time           `json:"start_date,omitempty"`
	EndDate            *time.Time           `json:"end_date,omitempty"`
	AnnualFee          float64              `json:"annual_fee"` // VAT excluded
	TotalValue         float64              `json:"total_value"`
	ConsumablesBundled ConsumablesInclusion `json:"consumables_bundled"`
	EarlyExitPenalty   bool                 `json:"early_exit_penalty"`
	PenaltyPercent     *float64             `json:"penalty_percent,omitempty"`
	RequestKind        ServiceRequestKind   `json:"request_kind"`
}

// Consumables is the optional consumables sub-record, present only when
// Request.RequiresConsumables is true.
type Consumables struct {
	AwardedESTAR      bool                  `json:"awarded_estar"`
	ESTARDecisionNo   *string               `json:"estar_decision_no,omitempty"`
	ESTARDecisionDate *time.Time            `json:"estar_decision_date,omitempty"`
	Kind              string                `json:"kind"` // free-text tipologia
	Supplier          string                `json:"supplier"`
	AnnualConsumption float64               `json:"annual_consumption"` // euro/year
	Exclusivity       ConsumableKind        `json:"exclusivity"`
	Motivation        ConsumablesMotivation `json:"motivation"`
	IncreasePercent   *float64              `json:"increase_percent,omitempty"`
	OtherReason       *string               `json:"other_reason,omitempty"`
	AlternativesExist bool                  `json:"alternatives_exist"`
	AlternativesNotes *string               `json:"alternatives_notes,omitempty"`
}

// Donation is the optional donation sub-record, present only when
// Request.IsDonation is true. The DGR 306/2024 flags drive the compliance
// validator and the simplified-procedure eligibility.
type Donation struct {
	DonorIdentified    bool     `json:"donor_identified"`
	DonorName          *string  `json:"donor_name,omitempty"`
	Value              float64  `json:"value"`
	DedicatedMaterials bool     `json:"dedicated_materials"`
	CompliantDGR306    bool     `json:"compliant_dgr306"`
	TechnologyAwarded  bool     `json:"technology_awarded"`
	TechnologyKnown    bool     `json:"technology_known"`
	SimplifiedEligible bool     `json:"simplified_eligible"`
	HTAReason          *string  `json:"hta_reason,omitempty"`
}

// Attachment is document metadata only; the file itself lives elsewhere.
type Attachment struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploaded_at"`
	UploadedBy string    `json:"uploaded_by"`
}

// HistoryEntry is one immutable record in a request's audit trail. Entries
// are owned by their request and are never deleted or reordered.
type HistoryEntry struct {
	ID            string    `json:"id"`
	At            time.Time `json:"at"`
	ActorID       string    `json:"actor_id"`
	ActorRole     Role      `json:"actor_role"`
	Action        string    `json:"action"`
	FromStatus    *Status   `json:"from_status,omitempty"`
	ToStatus      *Status   `json:"to_status,omitempty"`
	Note          *string   `json:"note,omitempty"`
	ChangedFields []string  `json:"changed_fields,omitempty"`
}

// Request is the central entity: a healthcare-technology purchase request.
type Request struct {
	// Identity
	ID        string    `json:"id"`
	Number    string    `json:"number"` // progressive, e.g. 2025-001
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Workflow tracking
	Status          Status     `json:"status"`
	Track           *Track     `json:"track,omitempty"`
	TrackAssignedAt *time.Time `json:"track_assigned_at,omitempty"`
	TrackReason     *string    `json:"track_reason,omitempty"` // motivation recorded at triage

	// Requester and organizational placement
	RequesterID   string  `json:"requester_id"`
	Requester     *User   `json:"requester,omitempty"`
	OperatingUnit string  `json:"operating_unit"`
	Department    string  `json:"department"`
	DistrictZone  *string `json:"district_zone,omitempty"`

	// Department validation stage
	DepartmentDirectorID    *string    `json:"department_director_id,omitempty"`
	DepartmentValidatedAt   *time.Time `json:"department_validated_at,omitempty"`
	DepartmentDirectorNotes *string    `json:"department_director_notes,omitempty"`

	// Classification
	AcquisitionType AcquisitionType `json:"acquisition_type"`
	EquipmentType   EquipmentType   `json:"equipment_type"`
	Priority        *Priority       `json:"priority,omitempty"`

	// Equipment description
	EquipmentName     string `json:"equipment_name"`
	Description       string `json:"description"`
	TechnicalFeatures string `json:"technical_features"`

	// Clinical/organizational motivation
	Justification           string  `json:"justification"`
	CareImpact              string  `json:"care_impact"`
	AlternativesExist       bool    `json:"alternatives_exist"`
	AlternativesDescription *string `json:"alternatives_description,omitempty"`

	// Replacement sub-record
	IsReplacement           bool               `json:"is_replacement"`
	ReplacedEquipment       *string            `json:"replaced_equipment,omitempty"`
	ReplacementReason       *ReplacementReason `json:"replacement_reason,omitempty"`
	ReplacementReasonDetail *string            `json:"replacement_reason_detail,omitempty"`

	// Financial coverage (always present)
	Budget BudgetCoverage `json:"budget"`

	// Optional sub-records, keyed by their flags
	RequiresService     bool             `json:"requires_service"`
	Service             *ServiceContract `json:"service,omitempty"`
	RequiresConsumables bool             `json:"requires_consumables"`
	Consumables         *Consumables     `json:"consumables,omitempty"`
	IsDonation          bool             `json:"is_donation"`
	Donation            *Donation        `json:"donation,omitempty"`

	// Structural impact
	RequiresStructuralWork    bool    `json:"requires_structural_work"`
	StructuralWorkDetail      *string `json:"structural_work_detail,omitempty"`
	FeasibilityStudyRequired  bool    `json:"feasibility_study_required"`
	FeasibilityStudyCompleted *bool   `json:"feasibility_study_completed,omitempty"`

	// Triage stage audit
	TriageAt            *time.Time `json:"triage_at,omitempty"`
	TriageCoordinatorID *string    `json:"triage_coordinator_id,omitempty"`
	TriageNotes         *string    `json:"triage_notes,omitempty"`

	// Pre-screening stage audit
	PrescreeningAt      *time.Time           `json:"prescreening_at,omitempty"`
	PrescreeningOutcome *PrescreeningOutcome `json:"prescreening_outcome,omitempty"`
	PrescreeningNotes   *string              `json:"prescreening_notes,omitempty"`

	// Committee stage audit
	CommitteeConvenedAt *time.Time        `json:"committee_convened_at,omitempty"`
	CommitteeMinutesID  *string           `json:"committee_minutes_id,omitempty"`
	CommitteeOutcome    *CommitteeOutcome `json:"committee_outcome,omitempty"`
	CommitteeNotes      *string           `json:"committee_notes,omitempty"`

	// Regional HTA (innovative device classes)
	RequiresRegionalHTA bool       `json:"requires_regional_hta"`
	RegionalHTASentAt   *time.Time `json:"regional_hta_sent_at,omitempty"`
	RegionalHTAOutcome  *string    `json:"regional_hta_outcome,omitempty"`

	// Health direction stage audit
	HealthDirectionAt      *time.Time `json:"health_direction_at,omitempty"`
	HealthDirectionID      *string    `json:"health_direction_id,omitempty"`
	HealthDirectionOutcome *Outcome   `json:"health_direction_outcome,omitempty"`
	HealthDirectionNotes   *string    `json:"health_direction_notes,omitempty"`

	// Administrative direction stage audit (final)
	AdminDirectionAt    *time.Time `json:"admin_direction_at,omitempty"`
	AdminDirectionID    *string    `json:"admin_direction_id,omitempty"`
	FinalOutcome        *Outcome   `json:"final_outcome,omitempty"`
	FinalOutcomeReason  *string    `json:"final_outcome_reason,omitempty"`
	AdminDirectionNotes *string    `json:"admin_direction_notes,omitempty"`

	// ESTAR dispatch
	ESTARSentAt        *time.Time `json:"estar_sent_at,omitempty"`
	ESTARRequestNumber *string    `json:"estar_request_number,omitempty"`

	// Documents and audit trail
	Attachments []Attachment   `json:"attachments,omitempty"`
	History     []HistoryEntry `json:"history"`

	// Metadata
	Tags         []string `json:"tags,omitempty"`
	PublicNotes  *string  `json:"public_notes,omitempty"`
	PrivateNotes *string  `json:"private_notes,omitempty"`
}

// ValidateShape checks the flag/sub-record contract: an optional sub-record
// must be present exactly when its flag is set. This catches the
// "flag true but record nil" class of defect at construction time instead of
// deep inside triage or validation.
func (r *Request) ValidateShape() error {
	if r.RequiresService && r.Service == nil {
		return errors.InvalidInput("service", "requires_service is set but the service sub-record is missing")
	}
	if !r.RequiresService && r.Service != nil {
		return errors.InvalidInput("service", "service sub-record present without requires_service")
	}
	if r.RequiresConsumables && r.Consumables == nil {
		return errors.InvalidInput("consumables", "requires_consumables is set but the consumables sub-record is missing")
	}
	if !r.RequiresConsumables && r.Consumables != nil {
		return errors.InvalidInput("consumables", "consumables sub-record present without requires_consumables")
	}
	if r.IsDonation && r.Donation == nil {
		return errors.InvalidInput("donation", "is_donation is set but the donation sub-record is missing")
	}
	if !r.IsDonation && r.Donation != nil {
		return errors.InvalidInput("donation", "donation sub-record present without is_donation")
	}
	return nil
}

// clonePtr copies a pointed-to scalar to a fresh pointer; nil stays nil.
func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (u User) clone() User {
	u.OperatingUnit = clonePtr(u.OperatingUnit)
	u.Department = clonePtr(u.Department)
	u.DistrictZone = clonePtr(u.DistrictZone)
	return u
}

func (b BudgetCoverage) clone() BudgetCoverage {
	b.FundingDetail = clonePtr(b.FundingDetail)
	b.BudgetChapter = clonePtr(b.BudgetChapter)
	b.AvailableAmount = clonePtr(b.AvailableAmount)
	b.SupplementAmount = clonePtr(b.SupplementAmount)
	b.USLPMValidatedAt = clonePtr(b.USLPMValidatedAt)
	b.USLPMNotes = clonePtr(b.USLPMNotes)
	return b
}

func (s ServiceContract) clone() ServiceContract {
	s.ESTARDecisionNo = clonePtr(s.ESTARDecisionNo)
	s.ESTARDecisionDate = clonePtr(s.ESTARDecisionDate)
	s.StartDate = clonePtr(s.StartDate)
	s.EndDate = clonePtr(s.EndDate)
	s.PenaltyPercent = clonePtr(s.PenaltyPercent)
	return s
}

func (c Consumables) clone() Consumables {
	c.ESTARDecisionNo = clonePtr(c.ESTARDecisionNo)
	c.ESTARDecisionDate = clonePtr(c.ESTARDecisionDate)
	c.IncreasePercent = clonePtr(c.IncreasePercent)
	c.OtherReason = clonePtr(c.OtherReason)
	c.AlternativesNotes = clonePtr(c.AlternativesNotes)
	return c
}

func (d Donation) clone() Donation {
	d.DonorName = clonePtr(d.DonorName)
	d.HTAReason = clonePtr(d.HTAReason)
	return d
}

func (e HistoryEntry) clone() HistoryEntry {
	e.FromStatus = clonePtr(e.FromStatus)
	e.ToStatus = clonePtr(e.ToStatus)
	e.Note = clonePtr(e.Note)
	if e.ChangedFields != nil {
		cf := make([]string, len(e.ChangedFields))
		copy(cf, e.ChangedFields)
		e.ChangedFields = cf
	}
	return e
}

// Clone returns a deep copy of the request. Every pointer field is copied to
// a fresh pointer and the history, attachment and tag slices are
// re-allocated, so no write through the copy can ever reach the original.
func (r *Request) Clone() *Request {
	out := *r

	out.Track = clonePtr(r.Track)
	out.TrackAssignedAt = clonePtr(r.TrackAssignedAt)
	out.TrackReason = clonePtr(r.TrackReason)
	out.DistrictZone = clonePtr(r.DistrictZone)
	out.DepartmentDirectorID = clonePtr(r.DepartmentDirectorID)
	out.DepartmentValidatedAt = clonePtr(r.DepartmentValidatedAt)
	out.DepartmentDirectorNotes = clonePtr(r.DepartmentDirectorNotes)
	out.Priority = clonePtr(r.Priority)
	out.AlternativesDescription = clonePtr(r.AlternativesDescription)
	out.ReplacedEquipment = clonePtr(r.ReplacedEquipment)
	out.ReplacementReason = clonePtr(r.ReplacementReason)
	out.ReplacementReasonDetail = clonePtr(r.ReplacementReasonDetail)
	out.StructuralWorkDetail = clonePtr(r.StructuralWorkDetail)
	out.FeasibilityStudyCompleted = clonePtr(r.FeasibilityStudyCompleted)
	out.TriageAt = clonePtr(r.TriageAt)
	out.TriageCoordinatorID = clonePtr(r.TriageCoordinatorID)
	out.TriageNotes = clonePtr(r.TriageNotes)
	out.PrescreeningAt = clonePtr(r.PrescreeningAt)
	out.PrescreeningOutcome = clonePtr(r.PrescreeningOutcome)
	out.PrescreeningNotes = clonePtr(r.PrescreeningNotes)
	out.CommitteeConvenedAt = clonePtr(r.CommitteeConvenedAt)
	out.CommitteeMinutesID = clonePtr(r.CommitteeMinutesID)
	out.CommitteeOutcome = clonePtr(r.CommitteeOutcome)
	out.CommitteeNotes = clonePtr(r.CommitteeNotes)
	out.RegionalHTASentAt = clonePtr(r.RegionalHTASentAt)
	out.RegionalHTAOutcome = clonePtr(r.RegionalHTAOutcome)
	out.HealthDirectionAt = clonePtr(r.HealthDirectionAt)
	out.HealthDirectionID = clonePtr(r.HealthDirectionID)
	out.HealthDirectionOutcome = clonePtr(r.HealthDirectionOutcome)
	out.HealthDirectionNotes = clonePtr(r.HealthDirectionNotes)
	out.AdminDirectionAt = clonePtr(r.AdminDirectionAt)
	out.AdminDirectionID = clonePtr(r.AdminDirectionID)
	out.FinalOutcome = clonePtr(r.FinalOutcome)
	out.FinalOutcomeReason = clonePtr(r.FinalOutcomeReason)
	out.AdminDirectionNotes = clonePtr(r.AdminDirectionNotes)
	out.ESTARSentAt = clonePtr(r.ESTARSentAt)
	out.ESTARRequestNumber = clonePtr(r.ESTARRequestNumber)
	out.PublicNotes = clonePtr(r.PublicNotes)
	out.PrivateNotes = clonePtr(r.PrivateNotes)

	out.Budget = r.Budget.clone()
	if r.Requester != nil {
		u := r.Requester.clone()
		out.Requester = &u
	}
	if r.Service != nil {
		s := r.Service.clone()
		out.Service = &s
	}
	if r.Consumables != nil {
		c := r.Consumables.clone()
		out.Consumables = &c
	}
	if r.Donation != nil {
		d := r.Donation.clone()
		out.Donation = &d
	}

	out.History = make([]HistoryEntry, len(r.History))
	for i, e := range r.History {
		out.History[i] = e.clone()
	}
	out.Attachments = make([]Attachment, len(r.Attachments))
	copy(out.Attachments, r.Attachments)
	if r.Tags != nil {
		out.Tags = make([]string, len(r.Tags))
		copy(out.Tags, r.Tags)
	}

	return &out
}
