package handler

import (
	"arho/internal/plan/service"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// SaveResponse answers a save with the saved tree.
type SaveResponse[T any] struct {
	ID       id.ID             `json:"id"`
	Entity   *T                `json:"entity"`
	Failures []FailureResponse `json:"failures,omitempty"`
}

// FailureResponse is one failed store operation of a cascade.
type FailureResponse struct {
	Kind  string `json:"kind"`
	Op    string `json:"op"`
	ID    id.ID  `json:"id,omitempty"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type FailuresResponse struct {
	Failures []FailureResponse `json:"failures"`
}

type DeleteGroupsResponse struct {
	Changed  bool              `json:"changed"`
	Failures []FailureResponse `json:"failures,omitempty"`
}

type MatchResponse struct {
	ID       id.ID             `json:"id"`
	Outcome  string            `json:"outcome"`
	Failures []FailureResponse `json:"failures,omitempty"`
}

func failures(report *service.SaveReport) []FailureResponse {
	if report == nil {
		return nil
	}
	out := make([]FailureResponse, 0, len(report.Failures))
	for _, f := range report.Failures {
		out = append(out, FailureResponse{
			Kind:  string(f.Kind),
			Op:    string(f.Op),
			ID:    f.ID,
			Code:  string(dErrors.CodeOf(f.Err)),
			Error: f.Error(),
		})
	}
	return out
}
