package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "arho/pkg/platform/audit"
)

func TestInMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()

	require.NoError(t, s.Append(ctx, audit.Event{Action: audit.ActionInserted, Kind: "plan", EntityID: "plan-1"}))
	require.NoError(t, s.Append(ctx, audit.Event{Action: audit.ActionLinked, Kind: "regulation_group_association", EntityID: "group-1", TargetID: "plan-1"}))
	require.NoError(t, s.Append(ctx, audit.Event{Action: audit.ActionDeleted, Kind: "line", EntityID: "line-1"}))

	events, err := s.ListByEntity(ctx, "plan-1")
	require.NoError(t, err)
	require.Len(t, events, 2, "entity and link target both match")
	assert.Equal(t, audit.CategoryContent, events[0].Category)
	assert.Equal(t, audit.CategoryRelation, events[1].Category)
	assert.False(t, events[0].Timestamp.IsZero())

	all, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	all[0].Kind = "mutated"
	again, err := s.ListAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "plan", again[0].Kind, "ListAll returns a copy")
}
