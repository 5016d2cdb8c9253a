package mapper

import (
	"fmt"

	"arho/internal/plan/models"
	"arho/pkg/platform/sentinel"
)

// Set holds one mapper per entity variant and one per association table.
type Set struct {
	PlanMatters  Mapper[*models.PlanMatter]
	Plans        Mapper[*models.Plan]
	Groups       Mapper[*models.RegulationGroup]
	Regulations  Mapper[*models.Regulation]
	Propositions Mapper[*models.Proposition]
	Information  Mapper[*models.AdditionalInformation]
	Documents    Mapper[*models.Document]

	GroupLinks        Association
	LegalEffects      Association
	RegulationThemes  Association
	PropositionThemes Association
	VerbalTypes       Association

	features map[models.Layer]Mapper[*models.PlanObject]
}

// Default returns the mappers for the standard schema.
func Default() *Set {
	features := make(map[models.Layer]Mapper[*models.PlanObject], len(models.FeatureLayers))
	for _, l := range models.FeatureLayers {
		features[l] = FeatureMapper{Layer: l}
	}
	return &Set{
		PlanMatters:       PlanMatterMapper{},
		Plans:             PlanMapper{},
		Groups:            GroupMapper{},
		Regulations:       RegulationMapper{},
		Propositions:      PropositionMapper{},
		Information:       InformationMapper{},
		Documents:         DocumentMapper{},
		GroupLinks:        GroupLinks,
		LegalEffects:      LegalEffects,
		RegulationThemes:  RegulationThemes,
		PropositionThemes: PropositionThemes,
		VerbalTypes:       VerbalTypes,
		features:          features,
	}
}

// Feature returns the mapper of a plan object layer.
func (s *Set) Feature(layer models.Layer) (Mapper[*models.PlanObject], error) {
	m, ok := s.features[layer]
	if !ok {
		return nil, fmt.Errorf("layer %q: %w", layer, sentinel.ErrUnknownKind)
	}
	return m, nil
}

// WithFeature registers or replaces the mapper of a layer.
func (s *Set) WithFeature(layer models.Layer, m Mapper[*models.PlanObject]) *Set {
	s.features[layer] = m
	return s
}
