package mapper

import (
	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
)

// PlanMatterMapper maps plan matters. They have no parent.
type PlanMatterMapper struct{}

func (PlanMatterMapper) Kind() store.Kind { return store.KindPlanMatter }

func (PlanMatterMapper) ToRecord(m *models.PlanMatter, _ id.ID) store.Record {
	return store.Record{
		"name":                      text(m.Name),
		"description":               text(m.Description),
		"plan_type_id":              ref(m.PlanTypeID),
		"record_number":             text(m.RecordNumber),
		"case_identifier":           text(m.CaseIdentifier),
		"permanent_plan_identifier": text(m.PermanentPlanIdentifier),
		"producers_plan_identifier": text(m.ProducersPlanIdentifier),
		"organisation_id":           ref(m.OrganisationID),
	}
}

func (PlanMatterMapper) FromRecord(r store.Record) *models.PlanMatter {
	m := &models.PlanMatter{
		State:                   models.Loaded(r.ID()),
		Name:                    r.String("name"),
		Description:             r.String("description"),
		PlanTypeID:              r.Ref("plan_type_id"),
		RecordNumber:            r.String("record_number"),
		CaseIdentifier:          r.String("case_identifier"),
		PermanentPlanIdentifier: r.String("permanent_plan_identifier"),
		ProducersPlanIdentifier: r.String("producers_plan_identifier"),
		OrganisationID:          r.Ref("organisation_id"),
	}
	m.Normalize()
	return m
}

func (PlanMatterMapper) ByParent(id.ID) store.Filter { return nil }

// PlanMapper maps plans under their plan matter.
type PlanMapper struct{}

func (PlanMapper) Kind() store.Kind { return store.KindPlan }

func (PlanMapper) ToRecord(p *models.Plan, parentID id.ID) store.Record {
	return store.Record{
		"name":                text(p.Name),
		"description":         text(p.Description),
		"scale":               integer(p.Scale),
		"lifecycle_status_id": ref(p.LifecycleStatusID),
		"geom":                text(string(p.Geometry)),
		"plan_matter_id":      parentOr(parentID, p.PlanMatterID),
	}
}

func (PlanMapper) FromRecord(r store.Record) *models.Plan {
	p := &models.Plan{
		State:             models.Loaded(r.ID()),
		Name:              r.String("name"),
		Description:       r.String("description"),
		Scale:             r.Int("scale"),
		LifecycleStatusID: r.Ref("lifecycle_status_id"),
		Geometry:          models.Geometry(r.String("geom")),
		PlanMatterID:      r.Ref("plan_matter_id"),
	}
	p.Normalize()
	return p
}

func (PlanMapper) ByParent(parentID id.ID) store.Filter { return byColumn("plan_matter_id", parentID) }

// FeatureMapper maps plan objects of one layer.
type FeatureMapper struct {
	Layer models.Layer
}

func (m FeatureMapper) Kind() store.Kind { return store.Kind(m.Layer) }

func (m FeatureMapper) ToRecord(o *models.PlanObject, parentID id.ID) store.Record {
	return store.Record{
		"geom":                   text(string(o.Geometry)),
		"type_of_underground_id": ref(o.UndergroundTypeID),
		"name":                   text(o.Name),
		"description":            text(o.Description),
		"plan_id":                parentOr(parentID, o.PlanID),
	}
}

func (m FeatureMapper) FromRecord(r store.Record) *models.PlanObject {
	o := &models.PlanObject{
		State:             models.Loaded(r.ID()),
		Geometry:          models.Geometry(r.String("geom")),
		UndergroundTypeID: r.Ref("type_of_underground_id"),
		Layer:             m.Layer,
		Name:              r.String("name"),
		Description:       r.String("description"),
		PlanID:            r.Ref("plan_id"),
	}
	o.Normalize()
	return o
}

func (FeatureMapper) ByParent(parentID id.ID) store.Filter { return byColumn("plan_id", parentID) }

// GroupMapper maps regulation groups. The parent is the owning plan.
type GroupMapper struct{}

func (GroupMapper) Kind() store.Kind { return store.KindRegulationGroup }

func (GroupMapper) ToRecord(g *models.RegulationGroup, parentID id.ID) store.Record {
	return store.Record{
		"type_of_plan_regulation_group_id": ref(g.TypeCodeID),
		"name":                             text(g.Heading),
		"short_name":                       text(g.LetterCode),
		"color_code":                       text(g.ColorCode),
		"ordering":                         integer(g.GroupNumber),
		"category":                         text(g.Category),
		"plan_id":                          parentOr(parentID, g.PlanID),
	}
}

func (GroupMapper) FromRecord(r store.Record) *models.RegulationGroup {
	g := &models.RegulationGroup{
		State:       models.Loaded(r.ID()),
		TypeCodeID:  r.Ref("type_of_plan_regulation_group_id"),
		Heading:     r.String("name"),
		LetterCode:  r.String("short_name"),
		ColorCode:   r.String("color_code"),
		GroupNumber: r.Int("ordering"),
		Category:    r.String("category"),
		PlanID:      r.Ref("plan_id"),
	}
	g.Normalize()
	return g
}

func (GroupMapper) ByParent(parentID id.ID) store.Filter { return byColumn("plan_id", parentID) }

// RegulationMapper maps regulations. Theme and verbal type ids live in
// association rows and are not part of the record.
type RegulationMapper struct{}

func (RegulationMapper) Kind() store.Kind { return store.KindRegulation }

func (RegulationMapper) ToRecord(r *models.Regulation, parentID id.ID) store.Record {
	rec := store.Record{
		"type_of_plan_regulation_id": ref(r.TypeID),
		"plan_regulation_group_id":   parentOr(parentID, r.GroupID),
		"ordering":                   integer(r.Number),
		"subject_identifiers":        list(r.SubjectIdentifiers),
	}
	putValue(rec, r.Value)
	return rec
}

func (RegulationMapper) FromRecord(rec store.Record) *models.Regulation {
	r := &models.Regulation{
		State:              models.Loaded(rec.ID()),
		TypeID:             rec.Ref("type_of_plan_regulation_id"),
		Value:              getValue(rec),
		Number:             rec.Int("ordering"),
		SubjectIdentifiers: rec.List("subject_identifiers"),
		GroupID:            rec.Ref("plan_regulation_group_id"),
	}
	r.Normalize()
	return r
}

func (RegulationMapper) ByParent(parentID id.ID) store.Filter {
	return byColumn("plan_regulation_group_id", parentID)
}

// PropositionMapper maps propositions.
type PropositionMapper struct{}

func (PropositionMapper) Kind() store.Kind { return store.KindProposition }

func (PropositionMapper) ToRecord(p *models.Proposition, parentID id.ID) store.Record {
	return store.Record{
		"plan_regulation_group_id": parentOr(parentID, p.GroupID),
		"text_value":               text(p.Value),
		"ordering":                 integer(p.Number),
	}
}

func (PropositionMapper) FromRecord(r store.Record) *models.Proposition {
	p := &models.Proposition{
		State:   models.Loaded(r.ID()),
		Value:   r.String("text_value"),
		Number:  r.Int("ordering"),
		GroupID: r.Ref("plan_regulation_group_id"),
	}
	p.Normalize()
	return p
}

func (PropositionMapper) ByParent(parentID id.ID) store.Filter {
	return byColumn("plan_regulation_group_id", parentID)
}

// InformationMapper maps additional information rows.
type InformationMapper struct{}

func (InformationMapper) Kind() store.Kind { return store.KindAdditionalInformation }

func (InformationMapper) ToRecord(a *models.AdditionalInformation, parentID id.ID) store.Record {
	rec := store.Record{
		"plan_regulation_id":             parentOr(parentID, a.RegulationID),
		"type_additional_information_id": ref(a.TypeID),
	}
	putValue(rec, a.Value)
	return rec
}

func (InformationMapper) FromRecord(r store.Record) *models.AdditionalInformation {
	a := &models.AdditionalInformation{
		State:        models.Loaded(r.ID()),
		TypeID:       r.Ref("type_additional_information_id"),
		Value:        getValue(r),
		RegulationID: r.Ref("plan_regulation_id"),
	}
	a.Normalize()
	return a
}

func (InformationMapper) ByParent(parentID id.ID) store.Filter {
	return byColumn("plan_regulation_id", parentID)
}

// DocumentMapper maps plan documents.
type DocumentMapper struct{}

func (DocumentMapper) Kind() store.Kind { return store.KindDocument }

func (DocumentMapper) ToRecord(d *models.Document, parentID id.ID) store.Record {
	return store.Record{
		"plan_id":                       parentOr(parentID, d.PlanID),
		"name":                          text(d.Name),
		"url":                           text(d.URL),
		"type_of_document_id":           ref(d.TypeID),
		"accessibility":                 d.Accessible,
		"permanent_document_identifier": text(d.Identifier),
		"category_of_publicity_id":      ref(d.PublicityID),
		"personal_data_content_id":      ref(d.PersonalDataContentID),
		"retention_time_id":             ref(d.RetentionTimeID),
		"language_id":                   ref(d.LanguageID),
		"document_date":                 instant(d.DocumentDate),
		"confirmation_date":             instant(d.ConfirmationDate),
		"arrival_date":                  instant(d.ArrivalDate),
	}
}

func (DocumentMapper) FromRecord(r store.Record) *models.Document {
	d := &models.Document{
		State:                 models.Loaded(r.ID()),
		Name:                  r.String("name"),
		URL:                   r.String("url"),
		TypeID:                r.Ref("type_of_document_id"),
		Accessible:            r.Bool("accessibility"),
		Identifier:            r.String("permanent_document_identifier"),
		PublicityID:           r.Ref("category_of_publicity_id"),
		PersonalDataContentID: r.Ref("personal_data_content_id"),
		RetentionTimeID:       r.Ref("retention_time_id"),
		LanguageID:            r.Ref("language_id"),
		DocumentDate:          r.Time("document_date"),
		ConfirmationDate:      r.Time("confirmation_date"),
		ArrivalDate:           r.Time("arrival_date"),
		PlanID:                r.Ref("plan_id"),
	}
	d.Normalize()
	return d
}

func (DocumentMapper) ByParent(parentID id.ID) store.Filter { return byColumn("plan_id", parentID) }
