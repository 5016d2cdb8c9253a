package handler

import (
	"arho/internal/plan/models"
	"arho/internal/plan/service"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// SaveRequest is the body of every save endpoint. Entity is the full tree to
// save; its modified flags carry the caller's write intent.
type SaveRequest[T any] struct {
	Scope    models.Scope `json:"scope"`
	ParentID id.ID        `json:"parent_id,omitempty"`
	Entity   *T           `json:"entity"`
}

func (r *SaveRequest[T]) Validate() error {
	if r.Entity == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "entity is required")
	}
	return nil
}

// GroupLinksRequest addresses groups and features for the library endpoints.
type GroupLinksRequest struct {
	GroupIDs []id.ID              `json:"group_ids"`
	Features []service.FeatureRef `json:"features"`
}

func (r *GroupLinksRequest) Validate() error {
	if len(r.GroupIDs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "group_ids are required")
	}
	if len(r.Features) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "features are required")
	}
	return nil
}

// MatchRequest is the body of POST /regulation-groups/match.
type MatchRequest struct {
	Scope   models.Scope            `json:"scope"`
	Group   *models.RegulationGroup `json:"group"`
	Feature service.FeatureRef      `json:"feature"`
}

func (r *MatchRequest) Validate() error {
	if r.Group == nil {
		return dErrors.New(dErrors.CodeInvalidInput, "group is required")
	}
	if r.Feature.ID.IsZero() {
		return dErrors.New(dErrors.CodeInvalidInput, "feature.id is required")
	}
	return nil
}
