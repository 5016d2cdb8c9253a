package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"arho/internal/plan/fingerprint"
	"arho/internal/plan/models"
	id "arho/pkg/domain"
)

type ModelsSuite struct {
	suite.Suite
}

func TestModelsSuite(t *testing.T) {
	suite.Run(t, new(ModelsSuite))
}

func (s *ModelsSuite) group(heading string) *models.RegulationGroup {
	g := models.NewRegulationGroup(heading, "AK")
	r1 := models.NewRegulation("type-building-area")
	r1.Value = &models.AttributeValue{DataType: models.DataTypePositiveNumeric, NumericValue: models.Float(1200), Unit: "k-m2"}
	r1.ThemeIDs = []id.ID{"theme-a", "theme-b"}
	r1.AdditionalInformation = []*models.AdditionalInformation{
		models.NewAdditionalInformation("info-main-use", nil),
	}
	r2 := models.NewRegulation("type-floors")
	r2.Value = &models.AttributeValue{DataType: models.DataTypePositiveNumeric, NumericValue: models.Float(3)}
	g.Regulations = []*models.Regulation{r1, r2}
	g.Propositions = []*models.Proposition{models.NewProposition("Preserve the tree line")}
	return g
}

func (s *ModelsSuite) TestContentHash() {
	s.Run("independently authored groups hash equal", func() {
		a, b := s.group("Residential"), s.group("Residential")
		s.Equal(fingerprint.Of(a), fingerprint.Of(b))
	})

	s.Run("identity and write intent are ignored", func() {
		a, b := s.group("Residential"), s.group("Residential")
		b.MarkSaved("group-1")
		b.Regulations[0].MarkSaved("reg-1")
		b.Regulations[0].GroupID = "group-1"
		b.Regulations[0].Files = []string{"/tmp/a.pdf"}
		b.Category = "Asuminen"
		b.PlanID = "plan-1"
		s.Equal(fingerprint.Of(a), fingerprint.Of(b))
	})

	s.Run("child reordering keeps the hash", func() {
		a, b := s.group("Residential"), s.group("Residential")
		b.Regulations[0], b.Regulations[1] = b.Regulations[1], b.Regulations[0]
		b.Regulations[1].ThemeIDs = []id.ID{"theme-b", "theme-a", "theme-a"}
		s.Equal(fingerprint.Of(a), fingerprint.Of(b))
	})

	s.Run("any content field changes the hash", func() {
		base := fingerprint.Of(s.group("Residential"))

		heading := s.group("Commercial")
		s.NotEqual(base, fingerprint.Of(heading))

		value := s.group("Residential")
		value.Regulations[1].Value.NumericValue = models.Float(4)
		s.NotEqual(base, fingerprint.Of(value))

		extra := s.group("Residential")
		extra.Regulations = append(extra.Regulations, models.NewRegulation("type-floors"))
		s.NotEqual(base, fingerprint.Of(extra))

		info := s.group("Residential")
		info.Regulations[0].AdditionalInformation[0].TypeID = "info-other"
		s.NotEqual(base, fingerprint.Of(info))
	})

	s.Run("empty attribute value hashes as absent", func() {
		withEmpty := models.NewRegulation("t")
		withEmpty.Value = &models.AttributeValue{}
		withNil := models.NewRegulation("t")
		s.Equal(fingerprint.Of(withEmpty), fingerprint.Of(withNil))

		s.Nil(models.NewAdditionalInformation("i", &models.AttributeValue{}).Value)
	})

	s.Run("numeric zero is a value", func() {
		zero := models.NewRegulation("t")
		zero.Value = &models.AttributeValue{NumericValue: models.Float(0)}
		s.NotEqual(fingerprint.Of(zero), fingerprint.Of(models.NewRegulation("t")))
	})

	s.Run("document dates compare as instants", func() {
		at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		local := at.In(time.FixedZone("EET", 7200))
		a, b := models.NewDocument("Report", "https://example.test/r"), models.NewDocument("Report", "https://example.test/r")
		a.DocumentDate, b.DocumentDate = &at, &local
		s.Equal(fingerprint.Of(a), fingerprint.Of(b))
	})
}

func (s *ModelsSuite) TestFreshEntities() {
	g := models.NewRegulationGroup("Heading", "")
	s.True(g.IsNew())
	s.True(g.IsModified())
	s.NotNil(g.Regulations)
	s.NotNil(g.Propositions)

	g.MarkSaved("group-1")
	s.Equal(id.ID("group-1"), g.Identity())
	s.False(g.IsModified())
	s.False(g.IsNew())
}

func (s *ModelsSuite) TestUnlink() {
	g := s.group("Residential")
	g.MarkSaved("group-1")
	for i, r := range g.Regulations {
		r.MarkSaved(id.ID("reg-" + string(rune('1'+i))))
		r.GroupID = "group-1"
	}
	g.Regulations[0].AdditionalInformation[0].MarkSaved("info-1")
	g.Propositions[0].MarkSaved("prop-1")
	before := fingerprint.Of(g)

	g.Unlink()

	s.True(g.IsNew())
	s.True(g.IsModified())
	for _, r := range g.Regulations {
		s.True(r.IsNew())
		s.True(r.IsModified())
		s.True(r.GroupID.IsZero())
		for _, info := range r.AdditionalInformation {
			s.True(info.IsNew())
		}
	}
	s.True(g.Propositions[0].IsNew())
	s.Equal(before, fingerprint.Of(g), "unlinking keeps the content")
}

func (s *ModelsSuite) TestChanged() {
	original := s.group("Residential")
	original.MarkSaved("group-1")

	s.Run("identity and ordering are not changes", func() {
		edited := s.group("Residential")
		edited.MarkSaved("other")
		edited.Category = "Other"
		edited.Regulations[0], edited.Regulations[1] = edited.Regulations[1], edited.Regulations[0]
		s.False(models.Changed(original, edited))
		s.False(models.MarkIfChanged(original, edited))
		s.False(edited.IsModified())
		s.Empty(models.Diff(original, edited))
	})

	s.Run("content edits mark the snapshot modified", func() {
		edited := s.group("Residential")
		edited.MarkSaved("group-1")
		edited.LetterCode = "AP"
		s.True(models.MarkIfChanged(original, edited))
		s.True(edited.IsModified())
		s.NotEmpty(models.Diff(original, edited))
	})

	s.Run("child edits leave the parent unmodified", func() {
		edited := s.group("Residential")
		edited.MarkSaved("group-1")
		for _, r := range edited.Regulations {
			r.MarkSaved(r.TypeID + "-row")
		}
		edited.Regulations[0].TypeID = "type-floor-area"
		edited.Regulations[1].ThemeIDs = []id.ID{"theme-c"}
		edited.Propositions = nil

		s.False(models.MarkIfChanged(original, edited))
		s.False(edited.IsModified())
		s.NotEqual(fingerprint.Of(original), fingerprint.Of(edited), "the hash still sees the children")

		s.True(models.MarkIfChanged(original.Regulations[0], edited.Regulations[0]))
		s.True(edited.Regulations[0].IsModified())
		s.False(models.Changed(original.Regulations[1], edited.Regulations[1]), "theme links are reconciled on save")
	})

	s.Run("plan object ignores its groups", func() {
		a := models.NewPlanObject(models.LayerLand, "POLYGON((0 0,1 0,1 1,0 0))")
		a.MarkSaved("area-1")
		b := models.NewPlanObject(models.LayerLand, "POLYGON((0 0,1 0,1 1,0 0))")
		b.MarkSaved("area-1")
		b.RegulationGroups = []*models.RegulationGroup{s.group("Park")}
		s.False(models.Changed(a, b))

		b.Name = "Puisto"
		s.True(models.Changed(a, b))
	})

	s.Run("plan ignores general groups and documents", func() {
		a, b := models.NewPlan("P"), models.NewPlan("P")
		b.GeneralRegulations = []*models.RegulationGroup{s.group("General")}
		b.Documents = []*models.Document{models.NewDocument("Map", "https://example.org/map.pdf")}
		s.False(models.Changed(a, b))
	})

	s.Run("whitespace in subject identifiers is a change until normalized", func() {
		a, b := models.NewRegulation("type-floors"), models.NewRegulation("type-floors")
		a.SubjectIdentifiers = []string{"a"}
		b.SubjectIdentifiers = []string{" a "}
		s.True(models.Changed(a, b))
		s.NotEqual(fingerprint.Of(a), fingerprint.Of(b))

		b.Normalize()
		s.Equal([]string{"a"}, b.SubjectIdentifiers)
		s.False(models.Changed(a, b))
		s.Equal(fingerprint.Of(a), fingerprint.Of(b))
	})

	s.Run("nil and empty collections are equal", func() {
		a := &models.Plan{Name: "P"}
		b := models.NewPlan("P")
		s.False(models.Changed(a, b))
	})
}

func (s *ModelsSuite) TestLibrary() {
	a, b := s.group("Residential"), s.group("Residential")
	c := models.NewRegulationGroup("Park", "VP")
	c.Category = "Virkistys"
	b.LetterCode = "AK"
	lib := &models.RegulationGroupLibrary{
		Library: models.Library{Name: "Default", Type: models.LibraryDefault, Status: true},
		Groups:  []*models.RegulationGroup{a, b, c},
	}

	s.Equal([]string{"AK", "VP"}, lib.LetterCodes())

	m := lib.HashIndex().Resolve(s.group("Residential"))
	s.Equal(fingerprint.AmbiguousMatch, m.Outcome)
	s.Len(m.Matches, 2)

	m = lib.HashIndex().Resolve(models.NewRegulationGroup("Park", "VP"))
	s.Equal(fingerprint.UniqueMatch, m.Outcome)

	categories := lib.Categories()
	s.Len(categories[models.DefaultCategory], 2)
	s.Len(categories["Virkistys"], 1)
}

func (s *ModelsSuite) TestLayers() {
	s.True(models.LayerLine.IsFeature())
	s.False(models.LayerPlan.IsFeature())
}

func (s *ModelsSuite) TestAttributeValueDefaults() {
	def := &models.AttributeValue{DataType: models.DataTypePositiveDecimal, Unit: "m"}
	got := (&models.AttributeValue{NumericValue: models.Float(2)}).WithDefaults(def)
	s.Equal(models.DataTypePositiveDecimal, got.DataType)
	s.Equal("m", got.Unit)

	kept := (&models.AttributeValue{DataType: models.DataTypeText, Unit: "x"}).WithDefaults(def)
	s.Equal(models.DataTypeText, kept.DataType)
	s.Equal("x", kept.Unit)

	s.True(models.DataTypeSpotElevation.IsValid())
	s.False(models.DataType("Bogus").IsValid())
}
