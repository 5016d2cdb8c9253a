// Package audit records who-wrote-what events for the plan store. Events are
// emitted by the orchestrator after each successful row write or link change.
package audit

import (
	"context"
	"time"

	id "arho/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryContent covers writes that change plan content.
	CategoryContent EventCategory = "content"
	// CategoryRelation covers many-to-many link changes.
	CategoryRelation EventCategory = "relation"
)

// Action names what happened to the row.
type Action string

const (
	ActionInserted Action = "inserted"
	ActionUpdated  Action = "updated"
	ActionDeleted  Action = "deleted"
	ActionLinked   Action = "linked"
	ActionUnlinked Action = "unlinked"
)

var actionCategories = map[Action]EventCategory{
	ActionInserted: CategoryContent,
	ActionUpdated:  CategoryContent,
	ActionDeleted:  CategoryContent,
	ActionLinked:   CategoryRelation,
	ActionUnlinked: CategoryRelation,
}

// Category returns the category of a. Unknown actions are content events.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryContent
}

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    Action
	// Kind is the table the row lives in.
	Kind     string
	EntityID id.ID
	// TargetID is the other end of a link event.
	TargetID id.ID
	// PlanID scopes the event to the plan the caller was working in, if any.
	PlanID    id.ID
	RequestID string
}

// Store persists events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityID id.ID) ([]Event, error)
}
