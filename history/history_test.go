package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStoreWithClient(client, "", ttl)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestAppendAndMessages(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleUser, Content: "What were total sales?"}))
	require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleAssistant, Content: "Total sales were $2,300."}))

	messages, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
	assert.Equal(t, "What were total sales?", messages[0].Content)
	assert.Equal(t, RoleAssistant, messages[1].Role)
	assert.False(t, messages[0].CreatedAt.IsZero())
}

func TestMessagesUnknownSession(t *testing.T) {
	store, _ := newTestStore(t, 0)

	messages, err := store.Messages(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSessionsAreIsolated(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", Message{Role: RoleUser, Content: "one"}))
	require.NoError(t, store.Append(ctx, "b", Message{Role: RoleUser, Content: "two"}))

	messages, err := store.Messages(ctx, "a")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "one", messages[0].Content)
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleUser, Content: "hello"}))
	require.NoError(t, store.Clear(ctx, "s1"))

	messages, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)

	// Clearing an already-empty session is not an error.
	assert.NoError(t, store.Clear(ctx, "s1"))
}

func TestAppendRefreshesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleUser, Content: "hi"}))
	mr.FastForward(30 * time.Second)
	require.NoError(t, store.Append(ctx, "s1", Message{Role: RoleAssistant, Content: "hello"}))
	mr.FastForward(45 * time.Second)

	// 75s after the first append but only 45s after the refresh, so the
	// session is still alive.
	messages, err := store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, messages, 2)

	mr.FastForward(time.Minute)
	messages, err = store.Messages(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}
