package models

import (
	"time"

	"arho/internal/plan/fingerprint"
	id "arho/pkg/domain"
)

// Geometry is a geometry in well-known text. The engine never interprets it.
type Geometry string

// PlanMatter is the administrative case owning one or more plan versions.
type PlanMatter struct {
	State
	Name                    string `json:"name,omitempty"`
	Description             string `json:"description,omitempty"`
	PlanTypeID              id.ID  `json:"plan_type_id,omitempty"`
	RecordNumber            string `json:"record_number,omitempty"`
	CaseIdentifier          string `json:"case_identifier,omitempty"`
	PermanentPlanIdentifier string `json:"permanent_plan_identifier,omitempty"`
	ProducersPlanIdentifier string `json:"producers_plan_identifier,omitempty"`
	OrganisationID          id.ID  `json:"organisation_id,omitempty"`
}

// NewPlanMatter returns a fresh, unsaved plan matter.
func NewPlanMatter(name string) *PlanMatter {
	m := &PlanMatter{State: Fresh(), Name: name}
	m.Normalize()
	return m
}

func (m *PlanMatter) Fingerprint(w *fingerprint.Writer) {
	if m == nil {
		return
	}
	w.String("name", m.Name)
	w.String("description", m.Description)
	w.String("plan_type_id", string(m.PlanTypeID))
	w.String("record_number", m.RecordNumber)
	w.String("case_identifier", m.CaseIdentifier)
	w.String("permanent_plan_identifier", m.PermanentPlanIdentifier)
	w.String("producers_plan_identifier", m.ProducersPlanIdentifier)
	w.String("organisation_id", string(m.OrganisationID))
}

// Plan is one version of a land-use plan inside a plan matter.
type Plan struct {
	State
	Name               string             `json:"name,omitempty"`
	Description        string             `json:"description,omitempty"`
	Scale              *int               `json:"scale,omitempty"`
	LifecycleStatusID  id.ID              `json:"lifecycle_status_id,omitempty"`
	Geometry           Geometry           `json:"geom,omitempty"`
	PlanMatterID       id.ID              `json:"plan_matter_id,omitempty"`
	GeneralRegulations []*RegulationGroup `json:"general_regulations"`
	Documents          []*Document        `json:"documents"`
	LegalEffectIDs     []id.ID            `json:"legal_effect_ids"`
}

// NewPlan returns a fresh, unsaved plan.
func NewPlan(name string) *Plan {
	p := &Plan{State: Fresh(), Name: name}
	p.Normalize()
	return p
}

func (p *Plan) Fingerprint(w *fingerprint.Writer) {
	if p == nil {
		return
	}
	w.String("name", p.Name)
	w.String("description", p.Description)
	w.Int("scale", p.Scale)
	w.String("lifecycle_status_id", string(p.LifecycleStatusID))
	fingerprint.SetOf(w, "legal_effect_ids", p.LegalEffectIDs)
	w.String("geometry", string(p.Geometry))
}

// Document is a file or link attached to a plan.
type Document struct {
	State
	Name                  string     `json:"name,omitempty"`
	URL                   string     `json:"url,omitempty"`
	TypeID                id.ID      `json:"type_of_document_id,omitempty"`
	Accessible            bool       `json:"accessibility"`
	Identifier            string     `json:"identifier,omitempty"`
	PublicityID           id.ID      `json:"category_of_publicity_id,omitempty"`
	PersonalDataContentID id.ID      `json:"personal_data_content_id,omitempty"`
	RetentionTimeID       id.ID      `json:"retention_time_id,omitempty"`
	LanguageID            id.ID      `json:"language_id,omitempty"`
	DocumentDate          *time.Time `json:"document_date,omitempty"`
	ConfirmationDate      *time.Time `json:"confirmation_date,omitempty"`
	ArrivalDate           *time.Time `json:"arrival_date,omitempty"`
	PlanID                id.ID      `json:"plan_id,omitempty"`
}

// NewDocument returns a fresh, unsaved document.
func NewDocument(name, url string) *Document {
	d := &Document{State: Fresh(), Name: name, URL: url}
	d.Normalize()
	return d
}

func (d *Document) Fingerprint(w *fingerprint.Writer) {
	if d == nil {
		return
	}
	w.String("name", d.Name)
	w.String("url", d.URL)
	w.String("type_id", string(d.TypeID))
	w.Bool("accessible", d.Accessible)
	w.String("identifier", d.Identifier)
	w.String("publicity_id", string(d.PublicityID))
	w.String("personal_data_content_id", string(d.PersonalDataContentID))
	w.String("retention_time_id", string(d.RetentionTimeID))
	w.String("language_id", string(d.LanguageID))
	w.Time("document_date", d.DocumentDate)
	w.Time("confirmation_date", d.ConfirmationDate)
	w.Time("arrival_date", d.ArrivalDate)
}
