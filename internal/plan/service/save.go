package service

import (
	"context"
	"time"

	"arho/internal/plan/mapper"
	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// Every Save call writes the entity itself first. A failure there is returned
// as an *OpError and nothing below it is touched. Once the node is written its
// subtree and links are reconciled; their failures are returned together as a
// *SaveReport next to the node's id. On success each written entity carries its
// id with Modified cleared, so saving the same tree again writes nothing.

// SavePlanMatter writes a plan matter.
func (s *Service) SavePlanMatter(ctx context.Context, scope models.Scope, m *models.PlanMatter, _ id.ID) (id.ID, error) {
	kind := s.mappers.PlanMatters.Kind()
	if m == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		v, _, err := write(ctx, c, s.mappers.PlanMatters, m, "")
		return v, err
	})
}

// SavePlan writes a plan with its general regulation groups, legal effect
// links and documents. The plan matter defaults to the scope's.
func (s *Service) SavePlan(ctx context.Context, scope models.Scope, p *models.Plan, parentID id.ID) (id.ID, error) {
	kind := s.mappers.Plans.Kind()
	if p == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.savePlan(ctx, p, parentID)
	})
}

// SavePlanObject writes a feature and links its regulation groups. The plan
// defaults to the scope's.
func (s *Service) SavePlanObject(ctx context.Context, scope models.Scope, o *models.PlanObject, parentID id.ID) (id.ID, error) {
	if o == nil {
		return "", errNilEntity("plan_object")
	}
	return s.save(ctx, store.Kind(o.Layer), scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.savePlanObject(ctx, o, parentID)
	})
}

// SaveRegulationGroup writes a group with its regulations and propositions.
func (s *Service) SaveRegulationGroup(ctx context.Context, scope models.Scope, g *models.RegulationGroup, parentID id.ID) (id.ID, error) {
	kind := s.mappers.Groups.Kind()
	if g == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.saveGroup(ctx, g, parentID)
	})
}

// SaveRegulation writes a regulation with its additional information, theme
// and verbal type links.
func (s *Service) SaveRegulation(ctx context.Context, scope models.Scope, r *models.Regulation, parentID id.ID) (id.ID, error) {
	kind := s.mappers.Regulations.Kind()
	if r == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.saveRegulation(ctx, r, parentID)
	})
}

// SaveProposition writes a proposition with its theme links.
func (s *Service) SaveProposition(ctx context.Context, scope models.Scope, p *models.Proposition, parentID id.ID) (id.ID, error) {
	kind := s.mappers.Propositions.Kind()
	if p == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.saveProposition(ctx, p, parentID)
	})
}

// SaveAdditionalInformation writes one additional information row.
func (s *Service) SaveAdditionalInformation(ctx context.Context, scope models.Scope, a *models.AdditionalInformation, parentID id.ID) (id.ID, error) {
	kind := s.mappers.Information.Kind()
	if a == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.saveInformation(ctx, a, parentID)
	})
}

// SaveDocument writes one document. The plan defaults to the scope's.
func (s *Service) SaveDocument(ctx context.Context, scope models.Scope, d *models.Document, parentID id.ID) (id.ID, error) {
	kind := s.mappers.Documents.Kind()
	if d == nil {
		return "", errNilEntity(kind)
	}
	return s.save(ctx, kind, scope, func(ctx context.Context, c *cascade) (id.ID, error) {
		return c.saveDocument(ctx, d, parentID)
	})
}

func (s *Service) save(ctx context.Context, kind store.Kind, scope models.Scope, fn func(context.Context, *cascade) (id.ID, error)) (id.ID, error) {
	start := time.Now()
	ctx = withScope(ctx, scope)
	ctx, span := s.startSpan(ctx, kind, "save", scope)
	c := &cascade{s: s, scope: scope}
	v, nodeErr := fn(ctx, c)
	err := s.finish(span, kind, "save", start, &c.report, nodeErr)
	if nodeErr != nil {
		return "", err
	}
	return v, err
}

func errNilEntity(kind store.Kind) error {
	return &OpError{Kind: kind, Op: OpInsert, Err: dErrors.New(dErrors.CodeInvalidInput, "entity is required")}
}

func (c *cascade) savePlan(ctx context.Context, p *models.Plan, parentID id.ID) (id.ID, error) {
	m := c.s.mappers
	parent := firstNonZero(parentID, p.PlanMatterID, c.scope.PlanMatterID)
	reparent(p, &p.PlanMatterID, parent)
	pid, editing, err := write(ctx, c, m.Plans, p, parent)
	if err != nil {
		return "", err
	}
	planKind := string(models.LayerPlan)
	if editing {
		links := c.s.Links()
		dangling, err := links.DanglingOwners(ctx, m.GroupLinks, planKind, pid, models.IDs(p.GeneralRegulations))
		c.unlinkEach(ctx, m.GroupLinks, dangling, err)
		dangling, err = links.Dangling(ctx, m.LegalEffects, pid, mapper.TargetLegalEffect, p.LegalEffectIDs)
		c.unlinkEach(ctx, m.LegalEffects, dangling, err)
		c.pruneMissing(ctx, m.Documents.Kind(), m.Documents.ByParent(pid), models.IDs(p.Documents), c.deleter(m.Documents.Kind()))
	}
	for _, g := range p.GeneralRegulations {
		gid, err := c.saveGroup(ctx, g, pid)
		if err != nil {
			c.fail(err)
			continue
		}
		c.ensure(ctx, m.GroupLinks, m.GroupLinks.Link(gid, planKind, pid))
	}
	c.ensureAll(ctx, m.LegalEffects, pid, mapper.TargetLegalEffect, p.LegalEffectIDs)
	for _, d := range p.Documents {
		if _, err := c.saveDocument(ctx, d, pid); err != nil {
			c.fail(err)
		}
	}
	return pid, nil
}

func (c *cascade) savePlanObject(ctx context.Context, o *models.PlanObject, parentID id.ID) (id.ID, error) {
	m := c.s.mappers
	fm, err := m.Feature(o.Layer)
	if err != nil {
		return "", &OpError{
			Kind: store.Kind(o.Layer),
			Op:   OpInsert,
			ID:   o.Identity(),
			Err:  dErrors.Wrap(err, dErrors.CodeValidation, "unknown plan object layer"),
		}
	}
	parent := firstNonZero(parentID, o.PlanID, c.scope.PlanID)
	reparent(o, &o.PlanID, parent)
	oid, editing, err := write(ctx, c, fm, o, parent)
	if err != nil {
		return "", err
	}
	layer := string(o.Layer)
	if editing {
		dangling, err := c.s.Links().DanglingOwners(ctx, m.GroupLinks, layer, oid, models.IDs(o.RegulationGroups))
		c.unlinkEach(ctx, m.GroupLinks, dangling, err)
	}
	for _, g := range o.RegulationGroups {
		gid, err := c.saveGroup(ctx, g, firstNonZero(g.PlanID, parent))
		if err != nil {
			c.fail(err)
			continue
		}
		c.ensure(ctx, m.GroupLinks, m.GroupLinks.Link(gid, layer, oid))
	}
	return oid, nil
}

func (c *cascade) saveGroup(ctx context.Context, g *models.RegulationGroup, planID id.ID) (id.ID, error) {
	m := c.s.mappers
	parent := firstNonZero(planID, g.PlanID, c.scope.PlanID)
	reparent(g, &g.PlanID, parent)
	gid, editing, err := write(ctx, c, m.Groups, g, parent)
	if err != nil {
		return "", err
	}
	if editing {
		c.pruneMissing(ctx, m.Regulations.Kind(), m.Regulations.ByParent(gid), models.IDs(g.Regulations), c.pruneRegulation)
		c.pruneMissing(ctx, m.Propositions.Kind(), m.Propositions.ByParent(gid), models.IDs(g.Propositions), c.pruneProposition)
	}
	for _, r := range g.Regulations {
		if _, err := c.saveRegulation(ctx, r, gid); err != nil {
			c.fail(err)
		}
	}
	for _, p := range g.Propositions {
		if _, err := c.saveProposition(ctx, p, gid); err != nil {
			c.fail(err)
		}
	}
	return gid, nil
}

func (c *cascade) saveRegulation(ctx context.Context, r *models.Regulation, groupID id.ID) (id.ID, error) {
	m := c.s.mappers
	reparent(r, &r.GroupID, groupID)
	rid, editing, err := write(ctx, c, m.Regulations, r, groupID)
	if err != nil {
		return "", err
	}
	if editing {
		links := c.s.Links()
		c.pruneMissing(ctx, m.Information.Kind(), m.Information.ByParent(rid), models.IDs(r.AdditionalInformation), c.deleter(m.Information.Kind()))
		dangling, err := links.Dangling(ctx, m.VerbalTypes, rid, mapper.TargetVerbalType, r.VerbalRegulationTypeIDs)
		c.unlinkEach(ctx, m.VerbalTypes, dangling, err)
		dangling, err = links.Dangling(ctx, m.RegulationThemes, rid, mapper.TargetTheme, r.ThemeIDs)
		c.unlinkEach(ctx, m.RegulationThemes, dangling, err)
	}
	for _, info := range r.AdditionalInformation {
		if _, err := c.saveInformation(ctx, info, rid); err != nil {
			c.fail(err)
		}
	}
	c.ensureAll(ctx, m.VerbalTypes, rid, mapper.TargetVerbalType, r.VerbalRegulationTypeIDs)
	c.ensureAll(ctx, m.RegulationThemes, rid, mapper.TargetTheme, r.ThemeIDs)
	return rid, nil
}

func (c *cascade) saveProposition(ctx context.Context, p *models.Proposition, groupID id.ID) (id.ID, error) {
	m := c.s.mappers
	reparent(p, &p.GroupID, groupID)
	pid, editing, err := write(ctx, c, m.Propositions, p, groupID)
	if err != nil {
		return "", err
	}
	if editing {
		dangling, err := c.s.Links().Dangling(ctx, m.PropositionThemes, pid, mapper.TargetTheme, p.ThemeIDs)
		c.unlinkEach(ctx, m.PropositionThemes, dangling, err)
	}
	c.ensureAll(ctx, m.PropositionThemes, pid, mapper.TargetTheme, p.ThemeIDs)
	return pid, nil
}

func (c *cascade) saveInformation(ctx context.Context, a *models.AdditionalInformation, regulationID id.ID) (id.ID, error) {
	reparent(a, &a.RegulationID, regulationID)
	v, _, err := write(ctx, c, c.s.mappers.Information, a, regulationID)
	return v, err
}

func (c *cascade) saveDocument(ctx context.Context, d *models.Document, planID id.ID) (id.ID, error) {
	parent := firstNonZero(planID, d.PlanID, c.scope.PlanID)
	reparent(d, &d.PlanID, parent)
	v, _, err := write(ctx, c, c.s.mappers.Documents, d, parent)
	return v, err
}
