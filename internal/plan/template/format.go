// Package template reads and writes YAML template libraries of regulation
// groups and plan features, resolving code values through a codes.Registry.
package template

// Library types carried in the library_type key of a template document.
const (
	KindRegulationGroupLibrary = "regulation_group"
	KindPlanFeatureLibrary     = "plan_feature"
)

// RegulationGroupLibraryDoc is the document form of a regulation group library.
type RegulationGroupLibraryDoc struct {
	LibraryType string     `yaml:"library_type"`
	Name        string     `yaml:"name,omitempty"`
	Version     *int       `yaml:"version,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Groups      []GroupDoc `yaml:"plan_regulation_groups,omitempty"`
}

// PlanFeatureLibraryDoc is the document form of a plan feature library.
type PlanFeatureLibraryDoc struct {
	LibraryType string       `yaml:"library_type"`
	Name        string       `yaml:"name,omitempty"`
	Version     *int         `yaml:"version,omitempty"`
	Description string       `yaml:"description,omitempty"`
	Features    []FeatureDoc `yaml:"plan_features,omitempty"`
}

type GroupDoc struct {
	Type         string           `yaml:"type,omitempty"`
	Heading      string           `yaml:"heading,omitempty"`
	LetterCode   string           `yaml:"letter_code,omitempty"`
	ColorCode    string           `yaml:"color_code,omitempty"`
	GroupNumber  *int             `yaml:"group_number,omitempty"`
	Regulations  []RegulationDoc  `yaml:"plan_regulations,omitempty"`
	Propositions []PropositionDoc `yaml:"plan_propositions,omitempty"`
	Category     string           `yaml:"category,omitempty"`
}

// ValueDoc is an attribute value flattened into its owner. A missing unit
// falls back to the type's default unit; an explicit empty one does not.
type ValueDoc struct {
	DataType             string   `yaml:"value_data_type,omitempty"`
	NumericValue         *float64 `yaml:"numeric_value,omitempty"`
	NumericRangeMin      *float64 `yaml:"numeric_range_min,omitempty"`
	NumericRangeMax      *float64 `yaml:"numeric_range_max,omitempty"`
	Unit                 *string  `yaml:"unit,omitempty"`
	TextValue            string   `yaml:"text_value,omitempty"`
	TextSyntax           string   `yaml:"text_syntax,omitempty"`
	CodeList             string   `yaml:"code_list,omitempty"`
	CodeValue            string   `yaml:"code_value,omitempty"`
	CodeTitle            string   `yaml:"code_title,omitempty"`
	HeightReferencePoint string   `yaml:"height_reference_point,omitempty"`
}

type RegulationDoc struct {
	Code                  string `yaml:"regulation_code"`
	ValueDoc              `yaml:",inline"`
	AdditionalInformation []InformationDoc `yaml:"additional_information,omitempty"`
	Number                *int             `yaml:"regulation_number,omitempty"`
	SubjectIdentifiers    []string         `yaml:"subject_identifiers,omitempty"`
	VerbalTypes           []string         `yaml:"verbal_regulation_types,omitempty"`
}

type InformationDoc struct {
	Type     string `yaml:"type"`
	ValueDoc `yaml:",inline"`
}

type PropositionDoc struct {
	Value  string `yaml:"value"`
	Number *int   `yaml:"proposition_number,omitempty"`
}

type FeatureDoc struct {
	UndergroundType  string     `yaml:"type_of_underground,omitempty"`
	Layer            string     `yaml:"layer_name,omitempty"`
	Name             string     `yaml:"name,omitempty"`
	Description      string     `yaml:"description,omitempty"`
	RegulationGroups []GroupDoc `yaml:"regulation_groups,omitempty"`
}
