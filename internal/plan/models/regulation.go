package models

import (
	"arho/internal/plan/fingerprint"
	id "arho/pkg/domain"
)

// AdditionalInformation qualifies a Regulation.
type AdditionalInformation struct {
	State
	TypeID       id.ID           `json:"additional_information_type_id"`
	Value        *AttributeValue `json:"value,omitempty"`
	RegulationID id.ID           `json:"plan_regulation_id,omitempty"`
}

// NewAdditionalInformation returns a fresh, unsaved entity.
func NewAdditionalInformation(typeID id.ID, value *AttributeValue) *AdditionalInformation {
	info := &AdditionalInformation{State: Fresh(), TypeID: typeID, Value: value}
	info.Normalize()
	return info
}

func (a *AdditionalInformation) Fingerprint(w *fingerprint.Writer) {
	if a == nil {
		return
	}
	w.String("type_id", string(a.TypeID))
	w.Nested("value", a.Value)
}

// Regulation is a single binding rule inside a RegulationGroup.
//
// Files are transient and take no part in comparison or hashing.
type Regulation struct {
	State
	TypeID                  id.ID                    `json:"regulation_type_id"`
	Value                   *AttributeValue          `json:"value,omitempty"`
	AdditionalInformation   []*AdditionalInformation `json:"additional_information"`
	Number                  *int                     `json:"regulation_number,omitempty"`
	Files                   []string                 `json:"files,omitempty"`
	ThemeIDs                []id.ID                  `json:"theme_ids"`
	SubjectIdentifiers      []string                 `json:"subject_identifiers"`
	VerbalRegulationTypeIDs []id.ID                  `json:"verbal_regulation_type_ids"`
	GroupID                 id.ID                    `json:"regulation_group_id,omitempty"`
}

// NewRegulation returns a fresh, unsaved regulation of the given type.
func NewRegulation(typeID id.ID) *Regulation {
	r := &Regulation{State: Fresh(), TypeID: typeID}
	r.Normalize()
	return r
}

func (r *Regulation) Fingerprint(w *fingerprint.Writer) {
	if r == nil {
		return
	}
	w.String("type_id", string(r.TypeID))
	w.Nested("value", r.Value)
	fingerprint.Children(w, "additional_information", r.AdditionalInformation)
	w.Int("number", r.Number)
	fingerprint.SetOf(w, "theme_ids", r.ThemeIDs)
	w.Set("subject_identifiers", r.SubjectIdentifiers)
	fingerprint.SetOf(w, "verbal_regulation_type_ids", r.VerbalRegulationTypeIDs)
}

// Proposition is a non-binding recommendation inside a RegulationGroup.
type Proposition struct {
	State
	Value    string  `json:"value"`
	ThemeIDs []id.ID `json:"theme_ids"`
	Number   *int    `json:"proposition_number,omitempty"`
	GroupID  id.ID   `json:"regulation_group_id,omitempty"`
}

// NewProposition returns a fresh, unsaved proposition.
func NewProposition(value string) *Proposition {
	p := &Proposition{State: Fresh(), Value: value}
	p.Normalize()
	return p
}

func (p *Proposition) Fingerprint(w *fingerprint.Writer) {
	if p == nil {
		return
	}
	w.String("value", p.Value)
	fingerprint.SetOf(w, "theme_ids", p.ThemeIDs)
	w.Int("number", p.Number)
}

// DefaultCategory is assigned to template groups that name none.
const DefaultCategory = "Muut"

// RegulationGroup is a named, shareable bundle of regulations and propositions.
//
// Invariants:
//   - a group is shared by ID; every plan object or plan linking the same ID sees
//     the same content
//   - PlanID names the plan the group belongs to, for general regulation groups
//     and for groups of the plan's objects alike
//   - Category is presentation metadata and is ignored by comparison
type RegulationGroup struct {
	State
	TypeCodeID   id.ID          `json:"type_code_id,omitempty"`
	Heading      string         `json:"heading,omitempty"`
	LetterCode   string         `json:"letter_code,omitempty"`
	ColorCode    string         `json:"color_code,omitempty"`
	GroupNumber  *int           `json:"group_number,omitempty"`
	Category     string         `json:"category,omitempty"`
	Regulations  []*Regulation  `json:"regulations"`
	Propositions []*Proposition `json:"propositions"`
	PlanID       id.ID          `json:"plan_id,omitempty"`
}

// NewRegulationGroup returns a fresh, unsaved group.
func NewRegulationGroup(heading, letterCode string) *RegulationGroup {
	g := &RegulationGroup{State: Fresh(), Heading: heading, LetterCode: letterCode}
	g.Normalize()
	return g
}

func (g *RegulationGroup) Fingerprint(w *fingerprint.Writer) {
	if g == nil {
		return
	}
	w.String("type_code_id", string(g.TypeCodeID))
	w.String("heading", g.Heading)
	w.String("letter_code", g.LetterCode)
	w.String("color_code", g.ColorCode)
	w.Int("group_number", g.GroupNumber)
	fingerprint.Children(w, "regulations", g.Regulations)
	fingerprint.Children(w, "propositions", g.Propositions)
}

// Unlink detaches the group and its whole subtree from their persisted rows so
// the next save writes an independent copy. Other referrers keep the original.
func (g *RegulationGroup) Unlink() {
	g.Detach()
	for _, r := range g.Regulations {
		r.Detach()
		r.GroupID = ""
		for _, info := range r.AdditionalInformation {
			info.Detach()
			info.RegulationID = ""
		}
	}
	for _, p := range g.Propositions {
		p.Detach()
		p.GroupID = ""
	}
}

// Label is the short human-readable name of the group.
func (g *RegulationGroup) Label() string {
	switch {
	case g.LetterCode != "" && g.Heading != "":
		return g.LetterCode + " - " + g.Heading
	case g.LetterCode != "":
		return g.LetterCode
	default:
		return g.Heading
	}
}
