package template

import (
	"bytes"
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"arho/internal/plan/codes"
	"arho/internal/plan/models"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// Parser turns template documents into fresh, unsaved entities. Any unknown
// code or missing required key fails the whole construction with a
// CodeValidation error; no partial entity is returned.
type Parser struct {
	codes *codes.Registry
}

func NewParser(registry *codes.Registry) *Parser {
	return &Parser{codes: registry}
}

// ReadRegulationGroupLibrary parses the library file at path.
func (p *Parser) ReadRegulationGroupLibrary(path string, libType models.LibraryType) (*models.RegulationGroupLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "library file not readable")
	}
	return p.RegulationGroupLibrary(data, libType, path)
}

// ReadPlanFeatureLibrary parses the library file at path.
func (p *Parser) ReadPlanFeatureLibrary(path string, libType models.LibraryType) (*models.PlanFeatureLibrary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "library file not readable")
	}
	return p.PlanFeatureLibrary(data, libType, path)
}

// RegulationGroupLibrary parses a regulation group library document. An empty
// document yields a library with Status false.
func (p *Parser) RegulationGroupLibrary(data []byte, libType models.LibraryType, filePath string) (*models.RegulationGroupLibrary, error) {
	var doc RegulationGroupLibraryDoc
	empty, err := decode(data, &doc)
	if err != nil {
		return nil, err
	}
	lib := &models.RegulationGroupLibrary{
		Library: models.Library{FilePath: filePath, Type: libType},
		Groups:  []*models.RegulationGroup{},
	}
	if empty {
		return lib, nil
	}
	if doc.LibraryType != KindRegulationGroupLibrary {
		return nil, dErrors.Newf(dErrors.CodeValidation, "RegulationGroupLibrary: library_type %q, want %q", doc.LibraryType, KindRegulationGroupLibrary)
	}
	for _, gd := range doc.Groups {
		g, err := p.RegulationGroup(gd)
		if err != nil {
			return nil, err
		}
		lib.Groups = append(lib.Groups, g)
	}
	lib.Name, lib.Version, lib.Description, lib.Status = doc.Name, doc.Version, doc.Description, true
	return lib, nil
}

// PlanFeatureLibrary parses a plan feature library document. An empty
// document yields a library with Status false.
func (p *Parser) PlanFeatureLibrary(data []byte, libType models.LibraryType, filePath string) (*models.PlanFeatureLibrary, error) {
	var doc PlanFeatureLibraryDoc
	empty, err := decode(data, &doc)
	if err != nil {
		return nil, err
	}
	lib := &models.PlanFeatureLibrary{
		Library:  models.Library{FilePath: filePath, Type: libType},
		Features: []*models.PlanObject{},
	}
	if empty {
		return lib, nil
	}
	if doc.LibraryType != KindPlanFeatureLibrary {
		return nil, dErrors.Newf(dErrors.CodeValidation, "PlanFeatureLibrary: library_type %q, want %q", doc.LibraryType, KindPlanFeatureLibrary)
	}
	for _, fd := range doc.Features {
		o, err := p.PlanObject(fd)
		if err != nil {
			return nil, err
		}
		lib.Features = append(lib.Features, o)
	}
	lib.Name, lib.Version, lib.Description, lib.Status = doc.Name, doc.Version, doc.Description, true
	return lib, nil
}

func decode(data []byte, out any) (bool, error) {
	err := yaml.NewDecoder(bytes.NewReader(data)).Decode(out)
	if errors.Is(err, io.EOF) {
		return true, nil
	}
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeValidation, "invalid template document")
	}
	return false, nil
}

// RegulationGroup builds a group from its template.
func (p *Parser) RegulationGroup(d GroupDoc) (*models.RegulationGroup, error) {
	g := models.NewRegulationGroup(d.Heading, d.LetterCode)
	if d.Type != "" {
		typeID, err := p.resolve("RegulationGroup", codes.ListRegulationGroupType, d.Type)
		if err != nil {
			return nil, err
		}
		g.TypeCodeID = typeID
	}
	g.ColorCode = d.ColorCode
	g.GroupNumber = d.GroupNumber
	g.Category = d.Category
	if g.Category == "" {
		g.Category = models.DefaultCategory
	}
	for _, rd := range d.Regulations {
		r, err := p.Regulation(rd)
		if err != nil {
			return nil, err
		}
		g.Regulations = append(g.Regulations, r)
	}
	for _, pd := range d.Propositions {
		prop := models.NewProposition(pd.Value)
		prop.Number = pd.Number
		g.Propositions = append(g.Propositions, prop)
	}
	g.Normalize()
	return g, nil
}

// Regulation builds a regulation from its template. The value inherits the
// data type and unit defaults of the regulation type.
func (p *Parser) Regulation(d RegulationDoc) (*models.Regulation, error) {
	const what = "Regulation"
	if d.Code == "" {
		return nil, missing(what, "regulation_code")
	}
	typeID, err := p.resolve(what, codes.ListRegulationType, d.Code)
	if err != nil {
		return nil, err
	}
	r := models.NewRegulation(typeID)
	if r.Value, err = p.value(what, d.ValueDoc, typeID); err != nil {
		return nil, err
	}
	for _, idoc := range d.AdditionalInformation {
		info, err := p.AdditionalInformation(idoc)
		if err != nil {
			return nil, err
		}
		r.AdditionalInformation = append(r.AdditionalInformation, info)
	}
	r.Number = d.Number
	r.SubjectIdentifiers = d.SubjectIdentifiers
	for _, v := range d.VerbalTypes {
		verbal, err := p.resolve(what, codes.ListVerbalRegulationType, v)
		if err != nil {
			return nil, err
		}
		r.VerbalRegulationTypeIDs = append(r.VerbalRegulationTypeIDs, verbal)
	}
	r.Normalize()
	return r, nil
}

// AdditionalInformation builds an additional information entry from its
// template.
func (p *Parser) AdditionalInformation(d InformationDoc) (*models.AdditionalInformation, error) {
	const what = "AdditionalInformation"
	if d.Type == "" {
		return nil, missing(what, "type")
	}
	typeID, err := p.resolve(what, codes.ListAdditionalInformationType, d.Type)
	if err != nil {
		return nil, err
	}
	value, err := p.value(what, d.ValueDoc, typeID)
	if err != nil {
		return nil, err
	}
	return models.NewAdditionalInformation(typeID, value), nil
}

// PlanObject builds a geometry-less feature template.
func (p *Parser) PlanObject(d FeatureDoc) (*models.PlanObject, error) {
	const what = "PlanObject"
	layer := models.Layer(d.Layer)
	if d.Layer != "" && !layer.IsFeature() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s: unknown layer_name %q", what, d.Layer)
	}
	o := models.NewPlanObject(layer, "")
	if d.UndergroundType != "" {
		underground, err := p.resolve(what, codes.ListUndergroundType, d.UndergroundType)
		if err != nil {
			return nil, err
		}
		o.UndergroundTypeID = underground
	}
	o.Name = d.Name
	o.Description = d.Description
	for _, gd := range d.RegulationGroups {
		g, err := p.RegulationGroup(gd)
		if err != nil {
			return nil, err
		}
		o.RegulationGroups = append(o.RegulationGroups, g)
	}
	o.Normalize()
	return o, nil
}

func (p *Parser) value(what string, d ValueDoc, typeID id.ID) (*models.AttributeValue, error) {
	dataType := models.DataType(d.DataType)
	if d.DataType != "" && !dataType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeValidation, "%s: unknown value_data_type %q", what, d.DataType)
	}
	v := &models.AttributeValue{
		DataType:             dataType,
		NumericValue:         d.NumericValue,
		NumericRangeMin:      d.NumericRangeMin,
		NumericRangeMax:      d.NumericRangeMax,
		TextValue:            d.TextValue,
		TextSyntax:           d.TextSyntax,
		CodeList:             d.CodeList,
		CodeValue:            d.CodeValue,
		CodeTitle:            d.CodeTitle,
		HeightReferencePoint: d.HeightReferencePoint,
	}
	def := p.codes.Defaults(typeID)
	if d.Unit != nil {
		v.Unit = *d.Unit
		def.Unit = ""
	}
	v = v.WithDefaults(&def)
	if v.IsEmpty() {
		return nil, nil
	}
	return v, nil
}

func (p *Parser) resolve(what, list, value string) (id.ID, error) {
	v, ok := p.codes.ID(list, value)
	if !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "%s: unknown %s %q", what, list, value)
	}
	return v, nil
}

func missing(what, key string) error {
	return dErrors.Newf(dErrors.CodeValidation, "%s: missing required key %q", what, key)
}
