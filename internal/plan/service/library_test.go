package service_test

import (
	"arho/internal/plan/fingerprint"
	"arho/internal/plan/mapper"
	"arho/internal/plan/models"
	"arho/internal/plan/service"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// =============================================================================
// Association Reconciler Tests
// =============================================================================

func (s *ServiceSuite) TestEnsureIsIdempotent() {
	links := s.service.Links()
	l := mapper.GroupLinks.Link("group-1", string(models.LayerLand), "feature-1")

	created, err := links.Ensure(s.ctx, mapper.GroupLinks, l)
	s.Require().NoError(err)
	s.True(created)

	created, err = links.Ensure(s.ctx, mapper.GroupLinks, l)
	s.Require().NoError(err)
	s.False(created)
	s.Equal(1, s.count(store.KindGroupAssociation))

	_, err = links.Ensure(s.ctx, mapper.GroupLinks, mapper.GroupLinks.Link("", "line", "feature-1"))
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestSharedThemeTable() {
	links := s.service.Links()
	_, err := links.Ensure(s.ctx, mapper.RegulationThemes, mapper.RegulationThemes.Link("reg-1", "", "theme-x"))
	s.Require().NoError(err)
	_, err = links.Ensure(s.ctx, mapper.PropositionThemes, mapper.PropositionThemes.Link("prop-1", "", "theme-x"))
	s.Require().NoError(err)
	s.Equal(2, s.count(store.KindThemeAssociation))

	s.Run("target view skips rows of the other owner column", func() {
		got, err := links.ForTarget(s.ctx, mapper.RegulationThemes, mapper.TargetTheme, "theme-x")
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(id.ID("reg-1"), got[0].OwnerID)
	})

	s.Run("dangling is computed per owner", func() {
		got, err := links.Dangling(s.ctx, mapper.RegulationThemes, "reg-1", mapper.TargetTheme, nil)
		s.Require().NoError(err)
		s.Len(got, 1)
		got, err = links.Dangling(s.ctx, mapper.RegulationThemes, "reg-1", mapper.TargetTheme, []id.ID{"theme-x"})
		s.Require().NoError(err)
		s.Empty(got)
	})

	s.Run("unlink by key is idempotent", func() {
		l := mapper.RegulationThemes.Link("reg-1", "", "theme-x")
		s.Require().NoError(links.Unlink(s.ctx, mapper.RegulationThemes, l))
		s.Require().NoError(links.Unlink(s.ctx, mapper.RegulationThemes, l))
		s.Equal(1, s.count(store.KindThemeAssociation))
	})
}

func (s *ServiceSuite) TestDanglingOwners() {
	links := s.service.Links()
	for _, g := range []id.ID{"group-1", "group-2"} {
		_, err := links.Ensure(s.ctx, mapper.GroupLinks, mapper.GroupLinks.Link(g, string(models.LayerLine), "feature-1"))
		s.Require().NoError(err)
	}
	_, err := links.Ensure(s.ctx, mapper.GroupLinks, mapper.GroupLinks.Link("group-3", string(models.LayerPoint), "feature-1"))
	s.Require().NoError(err)

	got, err := links.DanglingOwners(s.ctx, mapper.GroupLinks, string(models.LayerLine), "feature-1", []id.ID{"group-2"})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(id.ID("group-1"), got[0].OwnerID)
}

// =============================================================================
// Library Operation Tests
// =============================================================================

func (s *ServiceSuite) TestGroupFeatureLinks() {
	groups := []id.ID{"group-1", "group-2"}
	features := []service.FeatureRef{
		{Layer: models.LayerLand, ID: "area-1"},
		{Layer: models.LayerLine, ID: "line-1"},
	}

	s.Require().NoError(s.service.AddGroupsToFeatures(s.ctx, groups, features))
	s.Require().NoError(s.service.AddGroupsToFeatures(s.ctx, groups, features))
	s.Equal(4, s.count(store.KindGroupAssociation))

	s.Require().NoError(s.service.RemoveGroupsFromFeatures(s.ctx, groups[:1], features))
	s.Equal(2, s.count(store.KindGroupAssociation))

	s.Require().NoError(s.service.RemoveAllGroupsFromFeatures(s.ctx, features[:1]))
	s.Equal(1, s.count(store.KindGroupAssociation))

	s.Run("unknown layer fails only its feature", func() {
		err := s.service.AddGroupsToFeatures(s.ctx, groups, []service.FeatureRef{
			{Layer: "parcel", ID: "x"},
			{Layer: models.LayerPoint, ID: "point-1"},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal(3, s.count(store.KindGroupAssociation))
	})
}

func (s *ServiceSuite) TestDeleteGroups() {
	o := models.NewPlanObject(models.LayerLand, "POLYGON((0 0,1 0,1 1,0 0))")
	o.RegulationGroups = []*models.RegulationGroup{groupTree()}
	_, err := s.service.SavePlanObject(s.ctx, s.scope, o, "")
	s.Require().NoError(err)

	changed, err := s.service.DeleteGroups(s.ctx, []id.ID{o.RegulationGroups[0].ID, "missing"})
	s.Require().NoError(err)
	s.True(changed)

	for _, kind := range []store.Kind{
		store.KindRegulationGroup, store.KindRegulation, store.KindProposition,
		store.KindAdditionalInformation, store.KindThemeAssociation,
		store.KindVerbalTypeAssociation, store.KindGroupAssociation,
	} {
		s.Zero(s.count(kind), string(kind))
	}
	s.Equal(1, s.count(store.KindLandUseArea))

	changed, err = s.service.DeleteGroups(s.ctx, []id.ID{"missing"})
	s.Require().NoError(err)
	s.False(changed)
}

// activePlan saves a plan with one general group and one feature carrying a
// group, and returns the scope that selects it.
func (s *ServiceSuite) activePlan() (models.Scope, *models.RegulationGroup) {
	p := models.NewPlan("Keskusta")
	general := models.NewRegulationGroup("Yleismääräykset", "")
	general.TypeCodeID = "type-general"
	p.GeneralRegulations = []*models.RegulationGroup{general}
	pid, err := s.service.SavePlan(s.ctx, models.Scope{PlanMatterID: "matter-1"}, p, "")
	s.Require().NoError(err)

	scope := models.Scope{PlanMatterID: "matter-1", PlanID: pid}
	feature := groupTree()
	o := models.NewPlanObject(models.LayerLand, "POLYGON((0 0,1 0,1 1,0 0))")
	o.RegulationGroups = []*models.RegulationGroup{feature}
	_, err = s.service.SavePlanObject(s.ctx, scope, o, "")
	s.Require().NoError(err)
	return scope, feature
}

func (s *ServiceSuite) TestActivePlanLibrary() {
	scope, feature := s.activePlan()

	lib, err := s.service.ActivePlanLibrary(s.ctx, scope)
	s.Require().NoError(err)

	s.Equal(models.LibraryActivePlan, lib.Type)
	s.Equal(service.ActivePlanLibraryName, lib.Name)
	s.Require().Len(lib.Groups, 1, "general groups are excluded")
	s.Equal(scope.PlanID, feature.PlanID, "feature groups carry their plan")
	s.Equal(feature.ID, lib.Groups[0].ID)
	s.Equal(fingerprint.Of(feature), fingerprint.Of(lib.Groups[0]))
	s.Equal([]string{"AK"}, lib.LetterCodes())

	s.Run("no plan selected yields an empty library", func() {
		lib, err := s.service.ActivePlanLibrary(s.ctx, models.Scope{})
		s.Require().NoError(err)
		s.Empty(lib.Groups)
	})

	s.Run("general group type excludes unlinked groups too", func() {
		svc := service.New(s.rows, service.WithLogger(discardLogger()), service.WithGeneralGroupType("type-general"))
		orphan := models.NewRegulationGroup("Irrallinen", "")
		orphan.TypeCodeID = "type-general"
		_, err := svc.SaveRegulationGroup(s.ctx, scope, orphan, "")
		s.Require().NoError(err)

		lib, err := svc.ActivePlanLibrary(s.ctx, scope)
		s.Require().NoError(err)
		s.Len(lib.Groups, 1)
	})
}

func (s *ServiceSuite) TestLoadRegulationGroupNotFound() {
	_, err := s.service.LoadRegulationGroup(s.ctx, "missing")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSaveOrLinkGroup() {
	scope, feature := s.activePlan()
	target := service.FeatureRef{Layer: models.LayerPoint, ID: "point-1"}

	s.Run("identical content links the existing group", func() {
		gid, outcome, err := s.service.SaveOrLinkGroup(s.ctx, scope, groupTree(), target)
		s.Require().NoError(err)
		s.Equal(fingerprint.UniqueMatch, outcome)
		s.Equal(feature.ID, gid)
		s.Equal(2, s.count(store.KindRegulationGroup))

		links, err := s.service.Links().ForTarget(s.ctx, mapper.GroupLinks, string(models.LayerPoint), "point-1")
		s.Require().NoError(err)
		s.Len(links, 1)
	})

	s.Run("new content is saved and linked", func() {
		candidate := models.NewRegulationGroup("Commercial", "K")
		gid, outcome, err := s.service.SaveOrLinkGroup(s.ctx, scope, candidate, target)
		s.Require().NoError(err)
		s.Equal(fingerprint.NoMatch, outcome)
		s.Equal(candidate.ID, gid)
		s.Equal(scope.PlanID, candidate.PlanID)
		s.Equal(3, s.count(store.KindRegulationGroup))
	})

	s.Run("several matches are a conflict", func() {
		twin := groupTree()
		_, err := s.service.SaveRegulationGroup(s.ctx, scope, twin, "")
		s.Require().NoError(err)
		before := s.count(store.KindGroupAssociation)

		_, outcome, err := s.service.SaveOrLinkGroup(s.ctx, scope, groupTree(), target)
		s.Equal(fingerprint.AmbiguousMatch, outcome)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal(before, s.count(store.KindGroupAssociation))
	})

	s.Run("a persisted candidate is not its own match", func() {
		candidate, err := s.service.LoadRegulationGroup(s.ctx, feature.ID)
		s.Require().NoError(err)

		gid, outcome, err := s.service.SaveOrLinkGroup(s.ctx, scope, candidate, target)
		s.Require().NoError(err, "only the twin is left to match")
		s.Equal(fingerprint.UniqueMatch, outcome)
		s.NotEqual(candidate.ID, gid)
	})
}

func (s *ServiceSuite) TestSaveOrLinkGroupPersistedWithoutTwin() {
	scope, feature := s.activePlan()
	candidate, err := s.service.LoadRegulationGroup(s.ctx, feature.ID)
	s.Require().NoError(err)

	gid, outcome, err := s.service.SaveOrLinkGroup(s.ctx, scope, candidate, service.FeatureRef{Layer: models.LayerPoint, ID: "point-2"})
	s.Require().NoError(err)
	s.Equal(fingerprint.NoMatch, outcome)
	s.Equal(feature.ID, gid, "the candidate itself is linked")
	s.Equal(2, s.count(store.KindRegulationGroup), "general and feature group only")
}
