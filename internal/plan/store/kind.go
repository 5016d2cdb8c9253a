package store

import "slices"

// Kind names a table in the plan store. Plan object kinds equal their layer name.
type Kind string

const (
	KindPlanMatter            Kind = "plan_matter"
	KindPlan                  Kind = "plan"
	KindLandUseArea           Kind = "land_use_area"
	KindOtherArea             Kind = "other_area"
	KindLine                  Kind = "line"
	KindLandUsePoint          Kind = "land_use_point"
	KindOtherPoint            Kind = "other_point"
	KindRegulationGroup       Kind = "plan_regulation_group"
	KindRegulation            Kind = "plan_regulation"
	KindProposition           Kind = "plan_proposition"
	KindAdditionalInformation Kind = "additional_information"
	KindDocument              Kind = "document"
	KindGroupAssociation      Kind = "regulation_group_association"
	KindLegalEffectAssoc      Kind = "legal_effects_association"
	KindThemeAssociation      Kind = "plan_theme_association"
	KindVerbalTypeAssociation Kind = "type_of_verbal_regulation_association"
	KindCode                  Kind = "code_value"
)

// ColumnType decides how a column is stored and decoded.
type ColumnType int

const (
	ColumnText ColumnType = iota
	ColumnInt
	ColumnFloat
	ColumnBool
	ColumnTime
	// ColumnList holds a list of strings.
	ColumnList
)

// Column is one non-key column of a table. Every table also has a text "id" key.
type Column struct {
	Name string
	Type ColumnType
}

// Table describes a kind's physical layout.
type Table struct {
	Kind    Kind
	Columns []Column
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	i := slices.IndexFunc(t.Columns, func(c Column) bool { return c.Name == name })
	if i < 0 {
		return Column{}, false
	}
	return t.Columns[i], true
}

func text(names ...string) []Column {
	cols := make([]Column, len(names))
	for i, n := range names {
		cols[i] = Column{Name: n, Type: ColumnText}
	}
	return cols
}

func cols(groups ...[]Column) []Column {
	return slices.Concat(groups...)
}

var attributeValueColumns = cols(
	text("value_data_type"),
	[]Column{
		{"numeric_value", ColumnFloat},
		{"numeric_range_min", ColumnFloat},
		{"numeric_range_max", ColumnFloat},
	},
	text("unit", "text_value", "text_syntax", "code_list", "code_value", "code_title", "height_reference_point"),
)

var featureColumns = cols(text("geom", "type_of_underground_id", "name", "description", "plan_id"))

// Tables is the schema shared by every gateway backend.
var Tables = map[Kind]Table{
	KindPlanMatter: {KindPlanMatter, text(
		"name", "description", "plan_type_id", "record_number", "case_identifier",
		"permanent_plan_identifier", "producers_plan_identifier", "organisation_id",
	)},
	KindPlan: {KindPlan, cols(
		text("name", "description"),
		[]Column{{"scale", ColumnInt}},
		text("lifecycle_status_id", "geom", "plan_matter_id"),
	)},
	KindLandUseArea:  {KindLandUseArea, featureColumns},
	KindOtherArea:    {KindOtherArea, featureColumns},
	KindLine:         {KindLine, featureColumns},
	KindLandUsePoint: {KindLandUsePoint, featureColumns},
	KindOtherPoint:   {KindOtherPoint, featureColumns},
	KindRegulationGroup: {KindRegulationGroup, cols(
		text("type_of_plan_regulation_group_id", "name", "short_name", "color_code"),
		[]Column{{"ordering", ColumnInt}},
		text("category", "plan_id"),
	)},
	KindRegulation: {KindRegulation, cols(
		text("type_of_plan_regulation_id", "plan_regulation_group_id"),
		[]Column{{"ordering", ColumnInt}, {"subject_identifiers", ColumnList}},
		attributeValueColumns,
	)},
	KindProposition: {KindProposition, cols(
		text("plan_regulation_group_id", "text_value"),
		[]Column{{"ordering", ColumnInt}},
	)},
	KindAdditionalInformation: {KindAdditionalInformation, cols(
		text("plan_regulation_id", "type_additional_information_id"),
		attributeValueColumns,
	)},
	KindDocument: {KindDocument, cols(
		text("plan_id", "name", "url", "type_of_document_id"),
		[]Column{{"accessibility", ColumnBool}},
		text("permanent_document_identifier", "category_of_publicity_id", "personal_data_content_id",
			"retention_time_id", "language_id"),
		[]Column{{"document_date", ColumnTime}, {"confirmation_date", ColumnTime}, {"arrival_date", ColumnTime}},
	)},
	KindGroupAssociation:      {KindGroupAssociation, text("plan_regulation_group_id", "layer_name", "feature_id")},
	KindLegalEffectAssoc:      {KindLegalEffectAssoc, text("plan_id", "type_of_legal_effects_id")},
	KindThemeAssociation:      {KindThemeAssociation, text("plan_theme_id", "plan_regulation_id", "plan_proposition_id")},
	KindVerbalTypeAssociation: {KindVerbalTypeAssociation, text("plan_regulation_id", "type_of_verbal_plan_regulation_id")},
	KindCode: {KindCode, text(
		"code_list", "value", "title", "value_data_type", "unit",
	)},
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(Tables))
	for k := range Tables {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// TableFor returns the layout of kind.
func TableFor(kind Kind) (Table, bool) {
	t, ok := Tables[kind]
	return t, ok
}
