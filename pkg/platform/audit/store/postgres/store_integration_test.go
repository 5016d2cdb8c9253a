//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "arho/pkg/platform/audit"
	"arho/pkg/platform/audit/store/postgres"
	"arho/pkg/platform/tx"
	"arho/pkg/testutil/containers"
)

func TestStoreAgainstPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	pg := containers.GetManager().GetPostgres(t)
	ctx := context.Background()
	s := postgres.New(pg.DB)
	require.NoError(t, s.Migrate(ctx))
	require.NoError(t, s.Migrate(ctx), "migrate is idempotent")
	require.NoError(t, pg.TruncateTables(ctx, "audit_events"))

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Append(ctx, audit.Event{
		Timestamp: at, Action: audit.ActionInserted, Kind: "plan", EntityID: "plan-1", RequestID: "req-1",
	}))
	require.NoError(t, s.Append(ctx, audit.Event{
		Timestamp: at.Add(time.Second), Action: audit.ActionLinked, Kind: "regulation_group_association",
		EntityID: "group-1", TargetID: "plan-1",
	}))

	events, err := s.ListByEntity(ctx, "plan-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, audit.CategoryContent, events[0].Category)
	assert.Equal(t, "req-1", events[0].RequestID)
	assert.True(t, at.Equal(events[0].Timestamp))
	assert.Equal(t, audit.CategoryRelation, events[1].Category)
	assert.Equal(t, "group-1", string(events[1].EntityID))
	assert.True(t, events[1].PlanID.IsZero())

	t.Run("rolled back transaction drops the event", func(t *testing.T) {
		sqlTx, err := pg.DB.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, s.Append(tx.WithTx(ctx, sqlTx), audit.Event{Action: audit.ActionDeleted, Kind: "line", EntityID: "line-1"}))
		require.NoError(t, sqlTx.Rollback())

		events, err := s.ListByEntity(ctx, "line-1")
		require.NoError(t, err)
		assert.Empty(t, events)
	})
}
