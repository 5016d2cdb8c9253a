package models

import "arho/internal/plan/fingerprint"

// DataType tags the payload an AttributeValue carries.
type DataType string

const (
	DataTypeLocalizedText        DataType = "LocalizedText"
	DataTypeText                 DataType = "Text"
	DataTypeNumeric              DataType = "Numeric"
	DataTypeNumericRange         DataType = "NumericRange"
	DataTypePositiveNumeric      DataType = "PositiveNumeric"
	DataTypePositiveNumericRange DataType = "PositiveNumericRange"
	DataTypeDecimal              DataType = "Decimal"
	DataTypeDecimalRange         DataType = "DecimalRange"
	DataTypePositiveDecimal      DataType = "PositiveDecimal"
	DataTypePositiveDecimalRange DataType = "PositiveDecimalRange"
	DataTypeCode                 DataType = "Code"
	DataTypeIdentifier           DataType = "Identifier"
	DataTypeSpotElevation        DataType = "SpotElevation"
	DataTypeTimePeriod           DataType = "TimePeriod"
	DataTypeTimePeriodDateOnly   DataType = "TimePeriodDateOnly"
)

var dataTypes = map[DataType]struct{}{
	DataTypeLocalizedText: {}, DataTypeText: {}, DataTypeNumeric: {}, DataTypeNumericRange: {},
	DataTypePositiveNumeric: {}, DataTypePositiveNumericRange: {}, DataTypeDecimal: {},
	DataTypeDecimalRange: {}, DataTypePositiveDecimal: {}, DataTypePositiveDecimalRange: {},
	DataTypeCode: {}, DataTypeIdentifier: {}, DataTypeSpotElevation: {}, DataTypeTimePeriod: {},
	DataTypeTimePeriodDateOnly: {},
}

// IsValid reports whether t is a known data type.
func (t DataType) IsValid() bool {
	_, ok := dataTypes[t]
	return ok
}

// AttributeValue is the value payload of a Regulation or AdditionalInformation.
// Which fields are meaningful depends on DataType. Numeric zero is a value.
type AttributeValue struct {
	DataType             DataType `json:"value_data_type,omitempty"`
	NumericValue         *float64 `json:"numeric_value,omitempty"`
	NumericRangeMin      *float64 `json:"numeric_range_min,omitempty"`
	NumericRangeMax      *float64 `json:"numeric_range_max,omitempty"`
	Unit                 string   `json:"unit,omitempty"`
	TextValue            string   `json:"text_value,omitempty"`
	TextSyntax           string   `json:"text_syntax,omitempty"`
	CodeList             string   `json:"code_list,omitempty"`
	CodeValue            string   `json:"code_value,omitempty"`
	CodeTitle            string   `json:"code_title,omitempty"`
	HeightReferencePoint string   `json:"height_reference_point,omitempty"`
}

// IsEmpty reports whether every field is unset.
func (v *AttributeValue) IsEmpty() bool {
	if v == nil {
		return true
	}
	return *v == AttributeValue{}
}

func (v *AttributeValue) Fingerprint(w *fingerprint.Writer) {
	if v.IsEmpty() {
		return
	}
	w.String("data_type", string(v.DataType))
	w.Float("numeric_value", v.NumericValue)
	w.Float("numeric_range_min", v.NumericRangeMin)
	w.Float("numeric_range_max", v.NumericRangeMax)
	w.String("unit", v.Unit)
	w.String("text_value", v.TextValue)
	w.String("text_syntax", v.TextSyntax)
	w.String("code_list", v.CodeList)
	w.String("code_value", v.CodeValue)
	w.String("code_title", v.CodeTitle)
	w.String("height_reference_point", v.HeightReferencePoint)
}

// WithDefaults fills DataType and Unit from def when v leaves them unset.
func (v *AttributeValue) WithDefaults(def *AttributeValue) *AttributeValue {
	if def == nil {
		return v
	}
	out := AttributeValue{}
	if v != nil {
		out = *v
	}
	if out.DataType == "" {
		out.DataType = def.DataType
	}
	if out.Unit == "" {
		out.Unit = def.Unit
	}
	return &out
}

// Float is a convenience for building numeric payloads.
func Float(v float64) *float64 { return &v }

// Int is a convenience for optional integer fields.
func Int(v int) *int { return &v }
