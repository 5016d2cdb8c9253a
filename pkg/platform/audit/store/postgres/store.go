package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "arho/pkg/domain"
	audit "arho/pkg/platform/audit"
	txcontext "arho/pkg/platform/tx"
)

// Store implements audit.Store on a PostgreSQL audit_events table.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	timestamp TIMESTAMPTZ NOT NULL,
	action TEXT NOT NULL,
	kind TEXT NOT NULL,
	entity_id TEXT,
	target_id TEXT,
	plan_id TEXT,
	request_id TEXT
)`

// Migrate creates the audit table if it is missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create audit_events: %w", err)
	}
	return nil
}

// Append inserts an event. The category is always derived from the action.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	query := `
		INSERT INTO audit_events (id, category, timestamp, action, kind, entity_id, target_id, plan_id, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.NewString(),
		string(event.Action.Category()),
		event.Timestamp.UTC(),
		string(event.Action),
		event.Kind,
		nullable(event.EntityID),
		nullable(event.TargetID),
		nullable(event.PlanID),
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByEntity returns events touching entityID, oldest first.
func (s *Store) ListByEntity(ctx context.Context, entityID id.ID) ([]audit.Event, error) {
	query := `
		SELECT category, timestamp, action, kind, entity_id, target_id, plan_id, request_id
		FROM audit_events
		WHERE entity_id = $1 OR target_id = $1
		ORDER BY timestamp ASC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(entityID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e                           audit.Event
			category, action            string
			entity, target, plan, reqID sql.NullString
		)
		if err := rows.Scan(&category, &e.Timestamp, &action, &e.Kind, &entity, &target, &plan, &reqID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.Action = audit.Action(action)
		e.EntityID = id.ID(entity.String)
		e.TargetID = id.ID(target.String)
		e.PlanID = id.ID(plan.String)
		e.RequestID = reqID.String
		events = append(events, e)
	}
	return events, rows.Err()
}

func nullable(v id.ID) any {
	if v.IsZero() {
		return nil
	}
	return string(v)
}
