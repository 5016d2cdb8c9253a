package service

import (
	"context"
	"time"

	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	dErrors "arho/pkg/domain-errors"
)

// Delete calls remove the entity's own row and nothing else. Children and
// association rows stay; the in-memory entity is left as it was.

func (s *Service) DeletePlanMatter(ctx context.Context, m *models.PlanMatter) error {
	if m == nil {
		return errNilEntity(s.mappers.PlanMatters.Kind())
	}
	return s.delete(ctx, s.mappers.PlanMatters.Kind(), m.ID)
}

func (s *Service) DeletePlan(ctx context.Context, p *models.Plan) error {
	if p == nil {
		return errNilEntity(s.mappers.Plans.Kind())
	}
	return s.delete(ctx, s.mappers.Plans.Kind(), p.ID)
}

// DeletePlanObject removes a feature row from its layer.
func (s *Service) DeletePlanObject(ctx context.Context, o *models.PlanObject) error {
	if o == nil {
		return errNilEntity("plan_object")
	}
	fm, err := s.mappers.Feature(o.Layer)
	if err != nil {
		return &OpError{
			Kind: store.Kind(o.Layer),
			Op:   OpDelete,
			ID:   o.ID,
			Err:  dErrors.Wrap(err, dErrors.CodeValidation, "unknown plan object layer"),
		}
	}
	return s.delete(ctx, fm.Kind(), o.ID)
}

func (s *Service) DeleteRegulationGroup(ctx context.Context, g *models.RegulationGroup) error {
	if g == nil {
		return errNilEntity(s.mappers.Groups.Kind())
	}
	return s.delete(ctx, s.mappers.Groups.Kind(), g.ID)
}

func (s *Service) DeleteRegulation(ctx context.Context, r *models.Regulation) error {
	if r == nil {
		return errNilEntity(s.mappers.Regulations.Kind())
	}
	return s.delete(ctx, s.mappers.Regulations.Kind(), r.ID)
}

func (s *Service) DeleteProposition(ctx context.Context, p *models.Proposition) error {
	if p == nil {
		return errNilEntity(s.mappers.Propositions.Kind())
	}
	return s.delete(ctx, s.mappers.Propositions.Kind(), p.ID)
}

func (s *Service) DeleteAdditionalInformation(ctx context.Context, a *models.AdditionalInformation) error {
	if a == nil {
		return errNilEntity(s.mappers.Information.Kind())
	}
	return s.delete(ctx, s.mappers.Information.Kind(), a.ID)
}

func (s *Service) DeleteDocument(ctx context.Context, d *models.Document) error {
	if d == nil {
		return errNilEntity(s.mappers.Documents.Kind())
	}
	return s.delete(ctx, s.mappers.Documents.Kind(), d.ID)
}

func (s *Service) delete(ctx context.Context, kind store.Kind, v id.ID) error {
	start := time.Now()
	ctx, span := s.startSpan(ctx, kind, "delete", models.Scope{})
	return s.finish(span, kind, "delete", start, nil, s.deleteRow(ctx, kind, v))
}

func (s *Service) deleteRow(ctx context.Context, kind store.Kind, v id.ID) error {
	if v.IsZero() {
		return &OpError{Kind: kind, Op: OpDelete, Err: dErrors.New(dErrors.CodeInvalidInput, "entity has not been saved")}
	}
	err := s.gateway.Delete(ctx, kind, v)
	s.recordWrite(ctx, kind, OpDelete, v, err)
	if err != nil {
		return newOpError(kind, OpDelete, v, err)
	}
	return nil
}
