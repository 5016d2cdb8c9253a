package service

import (
	"context"
	"errors"

	"arho/internal/plan/mapper"
	"arho/internal/plan/models"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
	"arho/pkg/platform/sentinel"
)

// Reconciler keeps many-to-many link rows in line with in-memory id lists.
// Errors it returns are *OpError.
type Reconciler struct {
	s *Service
}

// ForOwner lists the links owned by ownerID, narrowed to targetKind when it
// is non-empty. Rows of a shared table that belong to another owner column
// are skipped.
func (r *Reconciler) ForOwner(ctx context.Context, assoc mapper.Association, ownerID id.ID, targetKind string) ([]models.Link, error) {
	return r.query(ctx, assoc, ownerID, targetKind, "")
}

// ForTarget lists the links pointing at targetID of targetKind.
func (r *Reconciler) ForTarget(ctx context.Context, assoc mapper.Association, targetKind string, targetID id.ID) ([]models.Link, error) {
	return r.query(ctx, assoc, "", targetKind, targetID)
}

func (r *Reconciler) query(ctx context.Context, assoc mapper.Association, ownerID id.ID, targetKind string, targetID id.ID) ([]models.Link, error) {
	recs, err := r.s.gateway.Query(ctx, assoc.Kind(), assoc.Filter(ownerID, targetKind, targetID))
	if err != nil {
		return nil, newOpError(assoc.Kind(), OpQuery, ownerID, err)
	}
	links := make([]models.Link, 0, len(recs))
	for _, rec := range recs {
		l := assoc.FromRecord(rec)
		if l.OwnerID.IsZero() {
			continue
		}
		if targetKind != "" && l.TargetKind != targetKind {
			continue
		}
		links = append(links, l)
	}
	return links, nil
}

// Dangling returns the persisted links of ownerID and targetKind whose target
// is not in desired.
func (r *Reconciler) Dangling(ctx context.Context, assoc mapper.Association, ownerID id.ID, targetKind string, desired []id.ID) ([]models.Link, error) {
	links, err := r.ForOwner(ctx, assoc, ownerID, targetKind)
	if err != nil {
		return nil, err
	}
	keep := id.NewIDSet(desired...)
	var out []models.Link
	for _, l := range links {
		if !keep.Has(l.TargetID) {
			out = append(out, l)
		}
	}
	return out, nil
}

// DanglingOwners returns the persisted links to targetID whose owner is not
// in desiredOwners.
func (r *Reconciler) DanglingOwners(ctx context.Context, assoc mapper.Association, targetKind string, targetID id.ID, desiredOwners []id.ID) ([]models.Link, error) {
	links, err := r.ForTarget(ctx, assoc, targetKind, targetID)
	if err != nil {
		return nil, err
	}
	keep := id.NewIDSet(desiredOwners...)
	var out []models.Link
	for _, l := range links {
		if !keep.Has(l.OwnerID) {
			out = append(out, l)
		}
	}
	return out, nil
}

// Ensure creates the link unless a row with the same composite key exists.
// It reports whether a row was created.
func (r *Reconciler) Ensure(ctx context.Context, assoc mapper.Association, l models.Link) (bool, error) {
	if l.OwnerID.IsZero() || l.TargetID.IsZero() {
		return false, &OpError{
			Kind: assoc.Kind(),
			Op:   OpLink,
			Err:  dErrors.New(dErrors.CodeInvalidInput, "link needs both owner and target"),
		}
	}
	existing, err := r.query(ctx, assoc, l.OwnerID, l.TargetKind, l.TargetID)
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if e.Key() == l.Key() {
			return false, nil
		}
	}
	_, err = r.s.gateway.Upsert(ctx, assoc.Kind(), assoc.ToRecord(l), "")
	r.s.recordLink(ctx, assoc.Kind(), OpLink, l, err)
	if err != nil {
		return false, newOpError(assoc.Kind(), OpLink, l.OwnerID, err)
	}
	return true, nil
}

// Unlink removes the link row. A link without row id removes every row with
// its composite key; a missing row is not an error.
func (r *Reconciler) Unlink(ctx context.Context, assoc mapper.Association, l models.Link) error {
	targets := []models.Link{l}
	if l.ID.IsZero() {
		existing, err := r.query(ctx, assoc, l.OwnerID, l.TargetKind, l.TargetID)
		if err != nil {
			return err
		}
		targets = targets[:0]
		for _, e := range existing {
			if e.Key() == l.Key() {
				targets = append(targets, e)
			}
		}
	}
	for _, t := range targets {
		err := r.s.gateway.Delete(ctx, assoc.Kind(), t.ID)
		if errors.Is(err, sentinel.ErrNotFound) {
			continue
		}
		r.s.recordLink(ctx, assoc.Kind(), OpUnlink, t, err)
		if err != nil {
			return newOpError(assoc.Kind(), OpUnlink, t.ID, err)
		}
	}
	return nil
}
