package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"arho/internal/plan/fingerprint"
	"arho/internal/plan/models"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
	"arho/pkg/platform/sentinel"
)

// ActivePlanLibraryName is the display name of the library built from the
// groups already used by the selected plan.
const ActivePlanLibraryName = "Käytössä olevat kaavamääräysryhmät"

// FeatureRef addresses one plan object row.
type FeatureRef struct {
	Layer models.Layer `json:"layer"`
	ID    id.ID        `json:"id"`
}

// AddGroupsToFeatures links every group to every feature. Existing links are
// left alone.
func (s *Service) AddGroupsToFeatures(ctx context.Context, groups []id.ID, features []FeatureRef) error {
	return s.library(ctx, "add_groups", func(ctx context.Context, c *cascade) {
		for _, f := range features {
			if !c.checkLayer(f) {
				continue
			}
			for _, g := range groups {
				if g.IsZero() {
					continue
				}
				c.ensure(ctx, s.mappers.GroupLinks, s.mappers.GroupLinks.Link(g, string(f.Layer), f.ID))
			}
		}
	})
}

// RemoveGroupsFromFeatures removes the links between the groups and the
// features. Group rows are kept.
func (s *Service) RemoveGroupsFromFeatures(ctx context.Context, groups []id.ID, features []FeatureRef) error {
	return s.library(ctx, "remove_groups", func(ctx context.Context, c *cascade) {
		links := s.Links()
		for _, f := range features {
			if !c.checkLayer(f) {
				continue
			}
			for _, g := range groups {
				if err := links.Unlink(ctx, s.mappers.GroupLinks, s.mappers.GroupLinks.Link(g, string(f.Layer), f.ID)); err != nil {
					c.fail(err)
				}
			}
		}
	})
}

// RemoveAllGroupsFromFeatures removes every group link of the features.
func (s *Service) RemoveAllGroupsFromFeatures(ctx context.Context, features []FeatureRef) error {
	return s.library(ctx, "remove_all_groups", func(ctx context.Context, c *cascade) {
		for _, f := range features {
			if !c.checkLayer(f) {
				continue
			}
			links, err := s.Links().ForTarget(ctx, s.mappers.GroupLinks, string(f.Layer), f.ID)
			c.unlinkEach(ctx, s.mappers.GroupLinks, links, err)
		}
	})
}

// DeleteGroups removes each group with its regulations, propositions and
// links. It reports whether any group was removed.
func (s *Service) DeleteGroups(ctx context.Context, groups []id.ID) (bool, error) {
	changed := false
	err := s.library(ctx, "delete_groups", func(ctx context.Context, c *cascade) {
		for _, g := range groups {
			if g.IsZero() {
				continue
			}
			if _, err := s.gateway.GetByID(ctx, s.mappers.Groups.Kind(), g); err != nil {
				if !errors.Is(err, sentinel.ErrNotFound) {
					c.fail(newOpError(s.mappers.Groups.Kind(), OpQuery, g, err))
				}
				continue
			}
			if c.pruneGroup(ctx, g) {
				changed = true
			}
		}
	})
	return changed, err
}

// ActivePlanLibrary collects the regulation groups of the selected plan,
// excluding general regulation groups, into a library.
func (s *Service) ActivePlanLibrary(ctx context.Context, scope models.Scope) (*models.RegulationGroupLibrary, error) {
	lib := &models.RegulationGroupLibrary{
		Library: models.Library{Name: ActivePlanLibraryName, Status: true, Type: models.LibraryActivePlan},
		Groups:  []*models.RegulationGroup{},
	}
	if !scope.HasPlan() {
		return lib, nil
	}
	m := s.mappers
	recs, err := s.gateway.Query(ctx, m.Groups.Kind(), m.Groups.ByParent(scope.PlanID))
	if err != nil {
		return nil, newOpError(m.Groups.Kind(), OpQuery, scope.PlanID, err)
	}
	generalLinks, err := s.Links().ForTarget(ctx, m.GroupLinks, string(models.LayerPlan), scope.PlanID)
	if err != nil {
		return nil, err
	}
	general := id.NewIDSet()
	for _, l := range generalLinks {
		general.Add(l.OwnerID)
	}
	for _, rec := range recs {
		g := m.Groups.FromRecord(rec)
		if general.Has(g.ID) || (!s.generalGroupType.IsZero() && g.TypeCodeID == s.generalGroupType) {
			continue
		}
		if err := s.loadGroupChildren(ctx, g); err != nil {
			return nil, err
		}
		lib.Groups = append(lib.Groups, g)
	}
	return lib, nil
}

// LoadRegulationGroup rebuilds a persisted group with its regulations,
// propositions, additional information and code links.
func (s *Service) LoadRegulationGroup(ctx context.Context, v id.ID) (*models.RegulationGroup, error) {
	kind := s.mappers.Groups.Kind()
	rec, err := s.gateway.GetByID(ctx, kind, v)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "regulation group %s not found", v)
	}
	if err != nil {
		return nil, newOpError(kind, OpQuery, v, err)
	}
	g := s.mappers.Groups.FromRecord(rec)
	if err := s.loadGroupChildren(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) loadGroupChildren(ctx context.Context, g *models.RegulationGroup) error {
	m := s.mappers
	links := s.Links()
	recs, err := s.gateway.Query(ctx, m.Regulations.Kind(), m.Regulations.ByParent(g.ID))
	if err != nil {
		return newOpError(m.Regulations.Kind(), OpQuery, g.ID, err)
	}
	for _, rec := range recs {
		r := m.Regulations.FromRecord(rec)
		infos, err := s.gateway.Query(ctx, m.Information.Kind(), m.Information.ByParent(r.ID))
		if err != nil {
			return newOpError(m.Information.Kind(), OpQuery, r.ID, err)
		}
		for _, info := range infos {
			r.AdditionalInformation = append(r.AdditionalInformation, m.Information.FromRecord(info))
		}
		themes, err := links.ForOwner(ctx, m.RegulationThemes, r.ID, "")
		if err != nil {
			return err
		}
		r.ThemeIDs = targets(themes)
		verbal, err := links.ForOwner(ctx, m.VerbalTypes, r.ID, "")
		if err != nil {
			return err
		}
		r.VerbalRegulationTypeIDs = targets(verbal)
		g.Regulations = append(g.Regulations, r)
	}
	recs, err = s.gateway.Query(ctx, m.Propositions.Kind(), m.Propositions.ByParent(g.ID))
	if err != nil {
		return newOpError(m.Propositions.Kind(), OpQuery, g.ID, err)
	}
	for _, rec := range recs {
		p := m.Propositions.FromRecord(rec)
		themes, err := links.ForOwner(ctx, m.PropositionThemes, p.ID, "")
		if err != nil {
			return err
		}
		p.ThemeIDs = targets(themes)
		g.Propositions = append(g.Propositions, p)
	}
	return nil
}

func targets(links []models.Link) []id.ID {
	out := make([]id.ID, 0, len(links))
	for _, l := range links {
		out = append(out, l.TargetID)
	}
	return out
}

// SaveOrLinkGroup links feature to a group of the active plan with the same
// content as candidate, or saves candidate as a new group when none matches.
// A persisted candidate never matches itself.
// Several matches are a conflict the caller has to resolve; nothing is
// written then. The returned outcome tells which case applied.
func (s *Service) SaveOrLinkGroup(ctx context.Context, scope models.Scope, candidate *models.RegulationGroup, feature FeatureRef) (id.ID, fingerprint.Outcome, error) {
	if candidate == nil {
		return "", fingerprint.NoMatch, errNilEntity(s.mappers.Groups.Kind())
	}
	lib, err := s.ActivePlanLibrary(ctx, scope)
	if err != nil {
		return "", fingerprint.NoMatch, err
	}
	others := lib.Groups
	if !candidate.IsNew() {
		others = slices.DeleteFunc(slices.Clone(lib.Groups), func(g *models.RegulationGroup) bool {
			return g.ID == candidate.ID
		})
	}
	match := fingerprint.BuildIndex(others).Resolve(candidate)
	switch match.Outcome {
	case fingerprint.AmbiguousMatch:
		return "", match.Outcome, dErrors.Newf(dErrors.CodeConflict,
			"%d regulation groups match %q", len(match.Matches), candidate.Label())
	case fingerprint.UniqueMatch:
		existing, _ := match.Unique()
		return existing.ID, match.Outcome, s.AddGroupsToFeatures(ctx, []id.ID{existing.ID}, []FeatureRef{feature})
	}
	gid, err := s.SaveRegulationGroup(ctx, scope, candidate, scope.PlanID)
	if gid.IsZero() {
		return "", match.Outcome, err
	}
	if linkErr := s.AddGroupsToFeatures(ctx, []id.ID{gid}, []FeatureRef{feature}); linkErr != nil {
		return gid, match.Outcome, errors.Join(err, linkErr)
	}
	return gid, match.Outcome, err
}

func (s *Service) library(ctx context.Context, op string, fn func(context.Context, *cascade)) error {
	start := time.Now()
	kind := s.mappers.GroupLinks.Kind()
	ctx, span := s.startSpan(ctx, kind, op, models.Scope{})
	c := &cascade{s: s}
	fn(ctx, c)
	return s.finish(span, kind, op, start, &c.report, nil)
}

// checkLayer records a validation failure for features of unknown layers.
func (c *cascade) checkLayer(f FeatureRef) bool {
	if _, err := c.s.mappers.Feature(f.Layer); err != nil {
		c.report.add(&OpError{
			Kind: c.s.mappers.GroupLinks.Kind(),
			Op:   OpLink,
			ID:   f.ID,
			Err:  dErrors.Wrap(err, dErrors.CodeValidation, "unknown plan object layer"),
		})
		return false
	}
	return true
}
