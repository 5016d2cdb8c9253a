// Package models holds the land-use plan domain model: entities with identity,
// content hashing and write intent.
package models

import (
	"arho/internal/plan/fingerprint"
	id "arho/pkg/domain"
)

// State is embedded in every persisted entity.
//
// Invariants:
//   - ID is zero until the store accepts the first insert and never changes after
//   - Modified is true for fresh entities and for edited snapshots that differ
//     from their original
type State struct {
	ID       id.ID `json:"id,omitempty"`
	Modified bool  `json:"modified"`
}

// Fresh returns the state of an entity that has never been written.
func Fresh() State {
	return State{Modified: true}
}

// Loaded returns the state of an entity read back from the store.
func Loaded(v id.ID) State {
	return State{ID: v}
}

func (s *State) Identity() id.ID { return s.ID }

func (s *State) IsModified() bool { return s.Modified }

// IsNew reports whether the entity has never been persisted.
func (s *State) IsNew() bool { return s.ID.IsZero() }

// MarkSaved records the identifier returned by a successful write and clears
// the write intent.
func (s *State) MarkSaved(v id.ID) {
	s.ID = v
	s.Modified = false
}

func (s *State) MarkModified() { s.Modified = true }

// Detach clears the identifier so the next save inserts a fresh copy.
func (s *State) Detach() {
	s.ID = ""
	s.Modified = true
}

// Entity is the capability every persisted entity exposes to the orchestrator.
type Entity interface {
	fingerprint.Hashable
	Identity() id.ID
	IsModified() bool
	IsNew() bool
	MarkSaved(id.ID)
	MarkModified()
}

var (
	_ Entity = (*PlanMatter)(nil)
	_ Entity = (*Plan)(nil)
	_ Entity = (*PlanObject)(nil)
	_ Entity = (*RegulationGroup)(nil)
	_ Entity = (*Regulation)(nil)
	_ Entity = (*Proposition)(nil)
	_ Entity = (*AdditionalInformation)(nil)
	_ Entity = (*Document)(nil)
)
