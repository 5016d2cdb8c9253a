package mapper_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arho/internal/plan/fingerprint"
	"arho/internal/plan/mapper"
	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	"arho/pkg/platform/sentinel"
)

type MapperSuite struct {
	suite.Suite
	ctx     context.Context
	gateway *store.InMemory
	set     *mapper.Set
}

func TestMapperSuite(t *testing.T) {
	suite.Run(t, new(MapperSuite))
}

func (s *MapperSuite) SetupTest() {
	s.ctx = context.Background()
	s.gateway = store.NewInMemory()
	s.set = mapper.Default()
}

func (s *MapperSuite) TestRegulationThroughStore() {
	r := models.NewRegulation("type-floors")
	r.Value = &models.AttributeValue{DataType: models.DataTypePositiveNumeric, NumericValue: models.Float(0), Unit: "kpl"}
	r.Number = models.Int(2)
	r.SubjectIdentifiers = []string{"S-2", "S-1"}
	r.Files = []string{"ignored.pdf"}

	m := s.set.Regulations
	v, err := s.gateway.Upsert(s.ctx, m.Kind(), m.ToRecord(r, "group-1"), "")
	s.Require().NoError(err)

	rec, err := s.gateway.GetByID(s.ctx, m.Kind(), v)
	s.Require().NoError(err)
	loaded := m.FromRecord(rec)

	s.Equal(v, loaded.Identity())
	s.False(loaded.IsModified())
	s.Equal(id.ID("group-1"), loaded.GroupID)
	s.Empty(loaded.Files)
	s.Equal(fingerprint.Of(r), fingerprint.Of(loaded))
	s.False(models.Changed(r, loaded))
}

func (s *MapperSuite) TestEmptyValueLoadsAsNil() {
	info := models.NewAdditionalInformation("info-type", nil)
	m := s.set.Information
	v, err := s.gateway.Upsert(s.ctx, m.Kind(), m.ToRecord(info, "reg-1"), "")
	s.Require().NoError(err)

	rec, err := s.gateway.GetByID(s.ctx, m.Kind(), v)
	s.Require().NoError(err)
	loaded := m.FromRecord(rec)
	s.Nil(loaded.Value)
	s.Equal(id.ID("reg-1"), loaded.RegulationID)
}

func (s *MapperSuite) TestParentKey() {
	g := models.NewRegulationGroup("General", "")
	g.PlanID = "plan-own"

	s.Equal("plan-own", s.set.Groups.ToRecord(g, "")["plan_id"])
	s.Equal("plan-given", s.set.Groups.ToRecord(g, "plan-given")["plan_id"])
	s.Equal(store.Where("plan_id", "plan-1"), s.set.Groups.ByParent("plan-1"))
	s.Nil(s.set.PlanMatters.ByParent("x"))
}

func (s *MapperSuite) TestDocumentDates() {
	at := time.Date(2023, 11, 5, 0, 0, 0, 0, time.FixedZone("EET", 7200))
	d := models.NewDocument("Decision", "https://example.test/d")
	d.Accessible = true
	d.DocumentDate = &at

	rec := s.set.Documents.ToRecord(d, "plan-1")
	s.Equal(at.UTC(), rec["document_date"])
	s.Nil(rec["arrival_date"])

	loaded := s.set.Documents.FromRecord(rec)
	s.True(loaded.Accessible)
	s.True(at.Equal(*loaded.DocumentDate))
}

func (s *MapperSuite) TestFeatureLayers() {
	m, err := s.set.Feature(models.LayerLine)
	s.Require().NoError(err)
	s.Equal(store.KindLine, m.Kind())

	o := m.FromRecord(store.Record{store.IDColumn: "f-1", "name": "Road"})
	s.Equal(models.LayerLine, o.Layer)
	s.NotNil(o.RegulationGroups)

	_, err = s.set.Feature(models.LayerPlan)
	s.Require().ErrorIs(err, sentinel.ErrUnknownKind)
}

func (s *MapperSuite) TestLinkMappers() {
	s.Run("group links carry the layer", func() {
		l := mapper.GroupLinks.Link("group-1", string(models.LayerLine), "f-1")
		rec := mapper.GroupLinks.ToRecord(l)
		s.Equal(store.Record{"plan_regulation_group_id": "group-1", "layer_name": "line", "feature_id": "f-1"}, rec)

		rec[store.IDColumn] = "link-1"
		back := mapper.GroupLinks.FromRecord(rec)
		s.Equal(l.Key(), back.Key())
		s.Equal(id.ID("link-1"), back.ID)

		s.Equal(store.Filter{"layer_name": {"line"}, "feature_id": {"f-1"}},
			mapper.GroupLinks.Filter("", "line", "f-1"))
	})

	s.Run("fixed kind tables ignore the requested kind", func() {
		l := mapper.LegalEffects.Link("plan-1", "whatever", "effect-1")
		s.Equal(mapper.TargetLegalEffect, l.TargetKind)
		s.Equal(store.Filter{"plan_id": {"plan-1"}}, mapper.LegalEffects.Filter("plan-1", "whatever", ""))
	})

	s.Run("shared theme table separates owners", func() {
		rec := store.Record{store.IDColumn: "t-1", "plan_theme_id": "theme-1", "plan_proposition_id": "prop-1"}
		s.True(mapper.RegulationThemes.FromRecord(rec).OwnerID.IsZero())
		s.Equal(id.ID("prop-1"), mapper.PropositionThemes.FromRecord(rec).OwnerID)
	})
}
