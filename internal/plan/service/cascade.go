package service

import (
	"context"
	"errors"

	"arho/internal/plan/mapper"
	"arho/internal/plan/metrics"
	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	"arho/pkg/platform/sentinel"
)

// cascade is the state of one top-level save or library call. Child failures
// are collected into report; siblings keep going.
type cascade struct {
	s      *Service
	scope  models.Scope
	report SaveReport
}

func (c *cascade) fail(err error) {
	c.report.add(asOpError("", err))
}

// write inserts a new entity or updates a modified one and reports whether a
// row existed before. A persisted, unmodified entity is not written.
func write[T models.Entity](ctx context.Context, c *cascade, m mapper.Mapper[T], e T, parentID id.ID) (id.ID, bool, error) {
	kind := m.Kind()
	if !e.IsNew() && !e.IsModified() {
		c.s.incrementWrite(kind, OpUpdate, metrics.OutcomeSkipped)
		return e.Identity(), true, nil
	}
	op := OpUpdate
	if e.IsNew() {
		op = OpInsert
	}
	v, err := c.s.gateway.Upsert(ctx, kind, m.ToRecord(e, parentID), e.Identity())
	if err != nil {
		c.s.recordWrite(ctx, kind, op, e.Identity(), err)
		return "", false, newOpError(kind, op, e.Identity(), err)
	}
	e.MarkSaved(v)
	c.s.recordWrite(ctx, kind, op, v, nil)
	return v, op == OpUpdate, nil
}

// reparent points fk at parentID. A persisted entity that moves is marked
// modified so its row follows.
func reparent(e models.Entity, fk *id.ID, parentID id.ID) {
	if parentID.IsZero() || *fk == parentID {
		return
	}
	*fk = parentID
	if !e.IsNew() {
		e.MarkModified()
	}
}

func firstNonZero(ids ...id.ID) id.ID {
	for _, v := range ids {
		if !v.IsZero() {
			return v
		}
	}
	return ""
}

// pruneMissing prunes the rows selected by filter that are not in keep. It
// reports whether every prune succeeded.
func (c *cascade) pruneMissing(ctx context.Context, kind store.Kind, filter store.Filter, keep []id.ID, prune func(context.Context, id.ID) bool) bool {
	recs, err := c.s.gateway.Query(ctx, kind, filter)
	if err != nil {
		c.fail(newOpError(kind, OpQuery, "", err))
		return false
	}
	kept := id.NewIDSet(keep...)
	ok := true
	for _, rec := range recs {
		if v := rec.ID(); !kept.Has(v) {
			ok = prune(ctx, v) && ok
		}
	}
	return ok
}

func (c *cascade) deleter(kind store.Kind) func(context.Context, id.ID) bool {
	return func(ctx context.Context, v id.ID) bool {
		return c.deleteRow(ctx, kind, v)
	}
}

// deleteRow removes one row. A row that is already gone counts as removed.
func (c *cascade) deleteRow(ctx context.Context, kind store.Kind, v id.ID) bool {
	err := c.s.gateway.Delete(ctx, kind, v)
	if errors.Is(err, sentinel.ErrNotFound) {
		return true
	}
	c.s.recordWrite(ctx, kind, OpDelete, v, err)
	if err != nil {
		c.fail(newOpError(kind, OpDelete, v, err))
		return false
	}
	return true
}

// pruneRegulation removes a regulation after its additional information and
// the theme and verbal type links it owns.
func (c *cascade) pruneRegulation(ctx context.Context, v id.ID) bool {
	m := c.s.mappers
	ok := c.pruneMissing(ctx, m.Information.Kind(), m.Information.ByParent(v), nil, c.deleter(m.Information.Kind()))
	ok = c.unlinkOwned(ctx, m.RegulationThemes, v) && ok
	ok = c.unlinkOwned(ctx, m.VerbalTypes, v) && ok
	if !ok {
		return false
	}
	return c.deleteRow(ctx, m.Regulations.Kind(), v)
}

func (c *cascade) pruneProposition(ctx context.Context, v id.ID) bool {
	m := c.s.mappers
	if !c.unlinkOwned(ctx, m.PropositionThemes, v) {
		return false
	}
	return c.deleteRow(ctx, m.Propositions.Kind(), v)
}

// pruneGroup removes a regulation group with its whole subtree and every
// link to plans and features.
func (c *cascade) pruneGroup(ctx context.Context, v id.ID) bool {
	m := c.s.mappers
	ok := c.pruneMissing(ctx, m.Regulations.Kind(), m.Regulations.ByParent(v), nil, c.pruneRegulation)
	ok = c.pruneMissing(ctx, m.Propositions.Kind(), m.Propositions.ByParent(v), nil, c.pruneProposition) && ok
	ok = c.unlinkOwned(ctx, m.GroupLinks, v) && ok
	if !ok {
		return false
	}
	return c.deleteRow(ctx, m.Groups.Kind(), v)
}

func (c *cascade) unlinkOwned(ctx context.Context, assoc mapper.Association, owner id.ID) bool {
	links, err := c.s.Links().ForOwner(ctx, assoc, owner, "")
	return c.unlinkEach(ctx, assoc, links, err)
}

// unlinkEach removes links, recording err from the lookup that produced them.
func (c *cascade) unlinkEach(ctx context.Context, assoc mapper.Association, links []models.Link, err error) bool {
	if err != nil {
		c.fail(err)
		return false
	}
	ok := true
	for _, l := range links {
		if err := c.s.Links().Unlink(ctx, assoc, l); err != nil {
			c.fail(err)
			ok = false
		}
	}
	return ok
}

func (c *cascade) ensure(ctx context.Context, assoc mapper.Association, l models.Link) {
	if _, err := c.s.Links().Ensure(ctx, assoc, l); err != nil {
		c.fail(err)
	}
}

// ensureAll links owner to every non-zero target.
func (c *cascade) ensureAll(ctx context.Context, assoc mapper.Association, owner id.ID, targetKind string, targets []id.ID) {
	for _, t := range targets {
		if t.IsZero() {
			continue
		}
		c.ensure(ctx, assoc, assoc.Link(owner, targetKind, t))
	}
}
