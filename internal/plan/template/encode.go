package template

import (
	"gopkg.in/yaml.v3"

	"arho/internal/plan/codes"
	"arho/internal/plan/models"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// Encoder writes entities back into template documents. Codes are rendered by
// value; an id the registry does not know is an error.
type Encoder struct {
	codes *codes.Registry
}

func NewEncoder(registry *codes.Registry) *Encoder {
	return &Encoder{codes: registry}
}

// RegulationGroupLibrary renders lib as a YAML document.
func (e *Encoder) RegulationGroupLibrary(lib *models.RegulationGroupLibrary) ([]byte, error) {
	doc := RegulationGroupLibraryDoc{
		LibraryType: KindRegulationGroupLibrary,
		Name:        lib.Name,
		Version:     lib.Version,
		Description: lib.Description,
	}
	for _, g := range lib.Groups {
		gd, err := e.RegulationGroup(g)
		if err != nil {
			return nil, err
		}
		doc.Groups = append(doc.Groups, gd)
	}
	return marshal(doc)
}

// PlanFeatureLibrary renders lib as a YAML document.
func (e *Encoder) PlanFeatureLibrary(lib *models.PlanFeatureLibrary) ([]byte, error) {
	doc := PlanFeatureLibraryDoc{
		LibraryType: KindPlanFeatureLibrary,
		Name:        lib.Name,
		Version:     lib.Version,
		Description: lib.Description,
	}
	for _, o := range lib.Features {
		fd, err := e.PlanObject(o)
		if err != nil {
			return nil, err
		}
		doc.Features = append(doc.Features, fd)
	}
	return marshal(doc)
}

func marshal(doc any) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode template document")
	}
	return out, nil
}

func (e *Encoder) RegulationGroup(g *models.RegulationGroup) (GroupDoc, error) {
	d := GroupDoc{
		Heading:     g.Heading,
		LetterCode:  g.LetterCode,
		ColorCode:   g.ColorCode,
		GroupNumber: g.GroupNumber,
		Category:    g.Category,
	}
	if !g.TypeCodeID.IsZero() {
		v, err := e.value("RegulationGroup", g.TypeCodeID)
		if err != nil {
			return GroupDoc{}, err
		}
		d.Type = v
	}
	for _, r := range g.Regulations {
		rd, err := e.Regulation(r)
		if err != nil {
			return GroupDoc{}, err
		}
		d.Regulations = append(d.Regulations, rd)
	}
	for _, p := range g.Propositions {
		d.Propositions = append(d.Propositions, PropositionDoc{Value: p.Value, Number: p.Number})
	}
	return d, nil
}

func (e *Encoder) Regulation(r *models.Regulation) (RegulationDoc, error) {
	code, err := e.value("Regulation", r.TypeID)
	if err != nil {
		return RegulationDoc{}, err
	}
	d := RegulationDoc{
		Code:               code,
		ValueDoc:           e.valueDoc(r.Value, r.TypeID),
		Number:             r.Number,
		SubjectIdentifiers: r.SubjectIdentifiers,
	}
	for _, info := range r.AdditionalInformation {
		typ, err := e.value("AdditionalInformation", info.TypeID)
		if err != nil {
			return RegulationDoc{}, err
		}
		d.AdditionalInformation = append(d.AdditionalInformation, InformationDoc{Type: typ, ValueDoc: e.valueDoc(info.Value, info.TypeID)})
	}
	for _, v := range r.VerbalRegulationTypeIDs {
		verbal, err := e.value("Regulation", v)
		if err != nil {
			return RegulationDoc{}, err
		}
		d.VerbalTypes = append(d.VerbalTypes, verbal)
	}
	return d, nil
}

func (e *Encoder) PlanObject(o *models.PlanObject) (FeatureDoc, error) {
	d := FeatureDoc{Layer: string(o.Layer), Name: o.Name, Description: o.Description}
	if !o.UndergroundTypeID.IsZero() {
		v, err := e.value("PlanObject", o.UndergroundTypeID)
		if err != nil {
			return FeatureDoc{}, err
		}
		d.UndergroundType = v
	}
	for _, g := range o.RegulationGroups {
		gd, err := e.RegulationGroup(g)
		if err != nil {
			return FeatureDoc{}, err
		}
		d.RegulationGroups = append(d.RegulationGroups, gd)
	}
	return d, nil
}

func (e *Encoder) value(what string, v id.ID) (string, error) {
	c, ok := e.codes.ByID(v)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s: unknown code id %q", what, v)
	}
	return c.Value, nil
}

// valueDoc writes the unit only when it differs from the type default, so
// that parsing the output restores the same value.
func (e *Encoder) valueDoc(v *models.AttributeValue, typeID id.ID) ValueDoc {
	if v == nil {
		return ValueDoc{}
	}
	d := ValueDoc{
		DataType:             string(v.DataType),
		NumericValue:         v.NumericValue,
		NumericRangeMin:      v.NumericRangeMin,
		NumericRangeMax:      v.NumericRangeMax,
		TextValue:            v.TextValue,
		TextSyntax:           v.TextSyntax,
		CodeList:             v.CodeList,
		CodeValue:            v.CodeValue,
		CodeTitle:            v.CodeTitle,
		HeightReferencePoint: v.HeightReferencePoint,
	}
	if v.Unit != e.codes.Defaults(typeID).Unit {
		unit := v.Unit
		d.Unit = &unit
	}
	return d
}
