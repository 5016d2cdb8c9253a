package models

import (
	"time"

	id "arho/pkg/domain"
	pstrings "arho/pkg/platform/strings"
)

// Normalize brings an entity into its canonical form: an all-empty value
// becomes nil and nil collections become empty. Every constructor and every
// record mapper runs it, so hashing and comparison never see two spellings of
// "nothing". Subject identifiers are trimmed here, never during hashing.

func (a *AdditionalInformation) Normalize() {
	a.Value = normalizeValue(a.Value)
}

func (r *Regulation) Normalize() {
	r.Value = normalizeValue(r.Value)
	r.AdditionalInformation = nonNil(r.AdditionalInformation)
	for _, info := range r.AdditionalInformation {
		info.Normalize()
	}
	r.Files = nonNil(r.Files)
	r.ThemeIDs = nonNil(r.ThemeIDs)
	r.SubjectIdentifiers = nonNil(pstrings.DedupeAndTrim(r.SubjectIdentifiers))
	r.VerbalRegulationTypeIDs = nonNil(r.VerbalRegulationTypeIDs)
}

func (p *Proposition) Normalize() {
	p.ThemeIDs = nonNil(p.ThemeIDs)
}

func (g *RegulationGroup) Normalize() {
	g.Regulations = nonNil(g.Regulations)
	for _, r := range g.Regulations {
		r.Normalize()
	}
	g.Propositions = nonNil(g.Propositions)
	for _, p := range g.Propositions {
		p.Normalize()
	}
}

func (o *PlanObject) Normalize() {
	o.RegulationGroups = nonNil(o.RegulationGroups)
	for _, g := range o.RegulationGroups {
		g.Normalize()
	}
}

func (p *Plan) Normalize() {
	p.GeneralRegulations = nonNil(p.GeneralRegulations)
	for _, g := range p.GeneralRegulations {
		g.Normalize()
	}
	p.Documents = nonNil(p.Documents)
	p.LegalEffectIDs = nonNil(p.LegalEffectIDs)
}

func (m *PlanMatter) Normalize() {}

func (d *Document) Normalize() {
	for _, t := range []**time.Time{&d.DocumentDate, &d.ConfirmationDate, &d.ArrivalDate} {
		if *t != nil && (*t).IsZero() {
			*t = nil
		}
	}
}

func normalizeValue(v *AttributeValue) *AttributeValue {
	if v.IsEmpty() {
		return nil
	}
	return v
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// IDs collects the non-zero identifiers of entities.
func IDs[E interface{ Identity() id.ID }](entities []E) []id.ID {
	out := make([]id.ID, 0, len(entities))
	for _, e := range entities {
		if v := e.Identity(); !v.IsZero() {
			out = append(out, v)
		}
	}
	return out
}
