package mapper

import (
	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
)

// Target kinds of association tables that link to a single code list.
const (
	TargetLegalEffect = "type_of_legal_effects"
	TargetTheme       = "plan_theme"
	TargetVerbalType  = "type_of_verbal_plan_regulation"
)

// Association maps link rows of one association table.
type Association interface {
	Kind() store.Kind
	ToRecord(link models.Link) store.Record
	// FromRecord returns a link with a zero OwnerID when the row belongs to a
	// different owner column of a shared table.
	FromRecord(record store.Record) models.Link
	// Filter selects rows by the non-zero parts of the composite key.
	Filter(ownerID id.ID, targetKind string, targetID id.ID) store.Filter
	// Link builds a link in this table's orientation.
	Link(ownerID id.ID, targetKind string, targetID id.ID) models.Link
}

// LinkMapper is an Association over three columns. When KindColumn is empty the
// target kind is the constant FixedKind.
type LinkMapper struct {
	Table        store.Kind
	OwnerColumn  string
	KindColumn   string
	FixedKind    string
	TargetColumn string
}

var _ Association = LinkMapper{}

func (m LinkMapper) Kind() store.Kind { return m.Table }

func (m LinkMapper) ToRecord(l models.Link) store.Record {
	rec := store.Record{
		m.OwnerColumn:  ref(l.OwnerID),
		m.TargetColumn: ref(l.TargetID),
	}
	if m.KindColumn != "" {
		rec[m.KindColumn] = text(l.TargetKind)
	}
	return rec
}

func (m LinkMapper) FromRecord(r store.Record) models.Link {
	kind := m.FixedKind
	if m.KindColumn != "" {
		kind = r.String(m.KindColumn)
	}
	return models.Link{
		ID:         r.ID(),
		OwnerID:    r.Ref(m.OwnerColumn),
		TargetKind: kind,
		TargetID:   r.Ref(m.TargetColumn),
	}
}

func (m LinkMapper) Filter(ownerID id.ID, targetKind string, targetID id.ID) store.Filter {
	f := store.Filter{}
	if !ownerID.IsZero() {
		f[m.OwnerColumn] = []string{string(ownerID)}
	}
	if targetKind != "" && m.KindColumn != "" {
		f[m.KindColumn] = []string{targetKind}
	}
	if !targetID.IsZero() {
		f[m.TargetColumn] = []string{string(targetID)}
	}
	return f
}

// Link builds a link in this table's orientation.
func (m LinkMapper) Link(ownerID id.ID, targetKind string, targetID id.ID) models.Link {
	if m.KindColumn == "" {
		targetKind = m.FixedKind
	}
	return models.Link{OwnerID: ownerID, TargetKind: targetKind, TargetID: targetID}
}

// GroupLinks links a regulation group (owner) to a feature of a layer, or to a
// plan for general regulation groups.
var GroupLinks = LinkMapper{
	Table:        store.KindGroupAssociation,
	OwnerColumn:  "plan_regulation_group_id",
	KindColumn:   "layer_name",
	TargetColumn: "feature_id",
}

// LegalEffects links a plan to a legal effect code.
var LegalEffects = LinkMapper{
	Table:        store.KindLegalEffectAssoc,
	OwnerColumn:  "plan_id",
	FixedKind:    TargetLegalEffect,
	TargetColumn: "type_of_legal_effects_id",
}

// RegulationThemes links a regulation to a plan theme code.
var RegulationThemes = LinkMapper{
	Table:        store.KindThemeAssociation,
	OwnerColumn:  "plan_regulation_id",
	FixedKind:    TargetTheme,
	TargetColumn: "plan_theme_id",
}

// PropositionThemes links a proposition to a plan theme code. It shares the
// table with RegulationThemes.
var PropositionThemes = LinkMapper{
	Table:        store.KindThemeAssociation,
	OwnerColumn:  "plan_proposition_id",
	FixedKind:    TargetTheme,
	TargetColumn: "plan_theme_id",
}

// VerbalTypes links a regulation to a verbal regulation type code.
var VerbalTypes = LinkMapper{
	Table:        store.KindVerbalTypeAssociation,
	OwnerColumn:  "plan_regulation_id",
	FixedKind:    TargetVerbalType,
	TargetColumn: "type_of_verbal_plan_regulation_id",
}
