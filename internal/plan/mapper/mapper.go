// Package mapper translates between plan entities and store records. The
// orchestrator only sees the Mapper capability; column names stay here.
package mapper

import (
	"time"

	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
)

// Mapper converts one entity variant to and from its table.
//
// ToRecord sets the parent key to parentID when it is non-zero and keeps the
// entity's own parent key otherwise. FromRecord returns a normalized, unmodified
// entity whose child collections are empty.
type Mapper[T models.Entity] interface {
	Kind() store.Kind
	ToRecord(entity T, parentID id.ID) store.Record
	FromRecord(record store.Record) T
	ByParent(parentID id.ID) store.Filter
}

func text(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func ref(v id.ID) any { return text(string(v)) }

func parentOr(parentID, own id.ID) any {
	if !parentID.IsZero() {
		return ref(parentID)
	}
	return ref(own)
}

func integer(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func float(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func instant(v *time.Time) any {
	if v == nil || v.IsZero() {
		return nil
	}
	return v.UTC()
}

func list(v []string) any {
	if len(v) == 0 {
		return nil
	}
	return append([]string(nil), v...)
}

func byColumn(col string, parentID id.ID) store.Filter {
	return store.Where(col, string(parentID))
}

func putValue(rec store.Record, v *models.AttributeValue) {
	if v == nil {
		v = &models.AttributeValue{}
	}
	rec["value_data_type"] = text(string(v.DataType))
	rec["numeric_value"] = float(v.NumericValue)
	rec["numeric_range_min"] = float(v.NumericRangeMin)
	rec["numeric_range_max"] = float(v.NumericRangeMax)
	rec["unit"] = text(v.Unit)
	rec["text_value"] = text(v.TextValue)
	rec["text_syntax"] = text(v.TextSyntax)
	rec["code_list"] = text(v.CodeList)
	rec["code_value"] = text(v.CodeValue)
	rec["code_title"] = text(v.CodeTitle)
	rec["height_reference_point"] = text(v.HeightReferencePoint)
}

func getValue(rec store.Record) *models.AttributeValue {
	return &models.AttributeValue{
		DataType:             models.DataType(rec.String("value_data_type")),
		NumericValue:         rec.Float("numeric_value"),
		NumericRangeMin:      rec.Float("numeric_range_min"),
		NumericRangeMax:      rec.Float("numeric_range_max"),
		Unit:                 rec.String("unit"),
		TextValue:            rec.String("text_value"),
		TextSyntax:           rec.String("text_syntax"),
		CodeList:             rec.String("code_list"),
		CodeValue:            rec.String("code_value"),
		CodeTitle:            rec.String("code_title"),
		HeightReferencePoint: rec.String("height_reference_point"),
	}
}
