package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "arho/pkg/domain"
	audit "arho/pkg/platform/audit"
	"arho/pkg/platform/audit/store/memory"
	"arho/pkg/requestcontext"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	groupID := id.NewID()
	err := pub.Emit(context.Background(), audit.Event{
		Action:   audit.ActionInserted,
		Kind:     "plan_regulation_group",
		EntityID: groupID,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), groupID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionInserted, events[0].Action)
	assert.Equal(t, audit.CategoryContent, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	groupID := id.NewID()
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			Action:   audit.ActionLinked,
			Kind:     "regulation_group_association",
			EntityID: groupID,
			TargetID: id.NewID(),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByEntity(context.Background(), groupID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
	assert.Equal(t, audit.CategoryRelation, events[0].Category)
}

func TestPublisher_BufferFull_DoesNotBlock(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := pub.Emit(context.Background(), audit.Event{Action: audit.ActionUpdated})
			if err != nil {
				assert.ErrorIs(t, err, ErrBufferFull)
			}
		}()
	}
	wg.Wait()
}

func TestPublisher_Timestamps(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	t.Run("sets missing timestamp", func(t *testing.T) {
		entity := id.NewID()
		before := time.Now()
		require.NoError(t, pub.Emit(context.Background(), audit.Event{Action: audit.ActionDeleted, EntityID: entity}))
		after := time.Now()

		events, err := pub.List(context.Background(), entity)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.Before(before))
		assert.False(t, events[0].Timestamp.After(after))
	})

	t.Run("preserves existing timestamp", func(t *testing.T) {
		entity := id.NewID()
		custom := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		require.NoError(t, pub.Emit(context.Background(), audit.Event{
			Action: audit.ActionUpdated, EntityID: entity, Timestamp: custom,
		}))

		events, err := pub.List(context.Background(), entity)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, custom, events[0].Timestamp)
	})

	t.Run("uses request time and id from context", func(t *testing.T) {
		entity := id.NewID()
		at := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(context.Background(), at)
		ctx = requestcontext.WithRequestID(ctx, "req-42")
		require.NoError(t, pub.Emit(ctx, audit.Event{Action: audit.ActionInserted, EntityID: entity}))

		events, err := pub.List(context.Background(), entity)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, at, events[0].Timestamp)
		assert.Equal(t, "req-42", events[0].RequestID)
	})
}

func TestPublisher_ListMatchesLinkTargets(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	feature := id.NewID()
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		Action: audit.ActionUnlinked, EntityID: id.NewID(), TargetID: feature,
	}))

	events, err := pub.List(context.Background(), feature)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
