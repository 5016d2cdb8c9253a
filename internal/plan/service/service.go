// Package service is the plan orchestrator: cascading saves and deletes of
// entity trees, association reconciliation and regulation group library
// operations on top of a store.Gateway.
package service

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"arho/internal/plan/mapper"
	"arho/internal/plan/metrics"
	"arho/internal/plan/models"
	"arho/internal/plan/store"
	id "arho/pkg/domain"
	"arho/pkg/platform/audit"
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates plan persistence. It never spawns goroutines; every
// call runs to completion on the caller's goroutine.
type Service struct {
	gateway          store.Gateway
	mappers          *mapper.Set
	logger           *slog.Logger
	auditPublisher   AuditPublisher
	metrics          *metrics.Metrics
	tracer           trace.Tracer
	generalGroupType id.ID
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithMappers replaces the default mapper set.
func WithMappers(m *mapper.Set) Option {
	return func(s *Service) {
		s.mappers = m
	}
}

// WithGeneralGroupType sets the regulation group type code that marks general
// regulation groups. Such groups are excluded from the active plan library.
func WithGeneralGroupType(v id.ID) Option {
	return func(s *Service) {
		s.generalGroupType = v
	}
}

// New constructs a Service on gateway.
func New(gateway store.Gateway, opts ...Option) *Service {
	s := &Service{gateway: gateway}
	for _, opt := range opts {
		opt(s)
	}
	if s.mappers == nil {
		s.mappers = mapper.Default()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("arho/internal/plan/service")
	}
	return s
}

// Links returns the association reconciler bound to the service's gateway.
func (s *Service) Links() *Reconciler {
	return &Reconciler{s: s}
}

// startSpan opens the span of a top-level call.
func (s *Service) startSpan(ctx context.Context, kind store.Kind, op string, scope models.Scope) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "plan."+op,
		trace.WithAttributes(
			attribute.String("plan.kind", string(kind)),
			attribute.String("plan.plan_id", string(scope.PlanID)),
		))
}

// finish closes a top-level call: a node failure wins over the child report.
func (s *Service) finish(span trace.Span, kind store.Kind, op string, start time.Time, report *SaveReport, nodeErr error) error {
	defer span.End()
	if s.metrics != nil {
		s.metrics.ObserveCascade(string(kind), op, start)
	}
	err := nodeErr
	if err == nil {
		err = report.err()
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		if report != nil {
			span.SetAttributes(attribute.Int("plan.failures", len(report.Failures)))
		}
	}
	return err
}

// recordWrite logs, counts and audits one row write.
func (s *Service) recordWrite(ctx context.Context, kind store.Kind, op Op, v id.ID, err error) {
	outcome := metrics.OutcomeOK
	if err != nil {
		outcome = metrics.OutcomeFailed
		s.logger.ErrorContext(ctx, "plan write failed",
			"kind", kind,
			"op", op,
			"id", v,
			"error", err,
		)
	}
	s.incrementWrite(kind, op, outcome)
	if err != nil {
		return
	}
	action := audit.ActionUpdated
	switch op {
	case OpInsert:
		action = audit.ActionInserted
	case OpDelete:
		action = audit.ActionDeleted
	}
	s.logAudit(ctx, audit.Event{Action: action, Kind: string(kind), EntityID: v})
}

// recordLink logs, counts and audits one association row change.
func (s *Service) recordLink(ctx context.Context, kind store.Kind, op Op, l models.Link, err error) {
	if err != nil {
		s.logger.ErrorContext(ctx, "plan link change failed",
			"kind", kind,
			"op", op,
			"owner_id", l.OwnerID,
			"target_kind", l.TargetKind,
			"target_id", l.TargetID,
			"error", err,
		)
		s.incrementWrite(kind, op, metrics.OutcomeFailed)
		return
	}
	s.incrementWrite(kind, op, metrics.OutcomeOK)
	if s.metrics != nil {
		s.metrics.IncrementLink(string(kind), string(op))
	}
	action := audit.ActionLinked
	if op == OpUnlink {
		action = audit.ActionUnlinked
	}
	s.logAudit(ctx, audit.Event{Action: action, Kind: string(kind), EntityID: l.OwnerID, TargetID: l.TargetID})
}

func (s *Service) incrementWrite(kind store.Kind, op Op, outcome string) {
	if s.metrics != nil {
		s.metrics.IncrementWrite(string(kind), string(op), outcome)
	}
}

type scopeKey struct{}

// withScope carries the caller's selection so audit events name the plan.
func withScope(ctx context.Context, scope models.Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

func (s *Service) logAudit(ctx context.Context, event audit.Event) {
	if scope, ok := ctx.Value(scopeKey{}).(models.Scope); ok {
		event.PlanID = scope.PlanID
	}
	s.logger.InfoContext(ctx, string(event.Action),
		"log_type", "audit",
		"kind", event.Kind,
		"entity_id", event.EntityID,
	)
	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "action", event.Action, "error", err)
	}
}
