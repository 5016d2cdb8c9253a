package models

import id "arho/pkg/domain"

// Scope is the active selection a caller works in. It replaces any process-wide
// notion of "current plan": every query and save that depends on it takes it
// explicitly.
type Scope struct {
	PlanMatterID id.ID `json:"plan_matter_id,omitempty"`
	PlanID       id.ID `json:"plan_id,omitempty"`
}

// HasPlan reports whether a plan is selected.
func (s Scope) HasPlan() bool { return !s.PlanID.IsZero() }

// Link is one many-to-many association row. OwnerID is the side that is being
// saved, TargetKind narrows which table or layer TargetID points to.
type Link struct {
	ID         id.ID  `json:"id,omitempty"`
	OwnerID    id.ID  `json:"owner_id"`
	TargetKind string `json:"target_kind"`
	TargetID   id.ID  `json:"target_id"`
}

// Key returns the composite key that identifies the association.
func (l Link) Key() LinkKey {
	return LinkKey{OwnerID: l.OwnerID, TargetKind: l.TargetKind, TargetID: l.TargetID}
}

// LinkKey is the identity of a link row independent of its row id.
type LinkKey struct {
	OwnerID    id.ID
	TargetKind string
	TargetID   id.ID
}
