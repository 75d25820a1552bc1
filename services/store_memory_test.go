package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venuepulse/models"
)

func createTestSession(t *testing.T, store *MemorySessionStore) *models.Session {
	t.Helper()
	session, err := store.Create(context.Background(), models.CreateSessionRequest{
		OperatorID:   "op-7",
		OperatorName: "Jordan Diaz",
		StandID:      "stand-3",
		StandName:    "North Grill",
		CurrentTab:   "overview",
	})
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	return session
}

func TestCreateDefaultsStatusToOnline(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	session := createTestSession(t, store)
	assert.Equal(t, models.StatusOnline, session.Status)
	assert.False(t, session.StartedAt.IsZero())
}

func TestHeartbeatIsLastWriteWins(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	session := createTestSession(t, store)
	ctx := context.Background()

	_, err := store.Heartbeat(ctx, session.ID, models.HeartbeatUpdate{
		CurrentTab: models.StrPtr("inventory"),
	})
	require.NoError(t, err)

	updated, err := store.Heartbeat(ctx, session.ID, models.HeartbeatUpdate{
		Status: models.StatusPtr(models.StatusBusy),
	})
	require.NoError(t, err)

	assert.Equal(t, "inventory", updated.CurrentTab)
	assert.Equal(t, models.StatusBusy, updated.Status)
	assert.Equal(t, "North Grill", updated.StandName)
}

func TestHeartbeatRefreshesTTL(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	session := createTestSession(t, store)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	// 50s in: still alive, heartbeat refreshes.
	now = now.Add(50 * time.Second)
	_, err := store.Heartbeat(ctx, session.ID, models.HeartbeatUpdate{})
	require.NoError(t, err)

	// 50s after the refresh the session is still there.
	now = now.Add(50 * time.Second)
	_, err = store.Get(ctx, session.ID)
	require.NoError(t, err)

	// But 2m of silence expires it.
	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = store.Heartbeat(ctx, session.ID, models.HeartbeatUpdate{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEndRemovesSession(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	session := createTestSession(t, store)
	ctx := context.Background()

	require.NoError(t, store.End(ctx, session.ID))

	_, err := store.Get(ctx, session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// Ending an unknown session is not an error.
	assert.NoError(t, store.End(ctx, "nope"))
}

func TestListActiveSkipsExpired(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	stale := createTestSession(t, store)
	now = now.Add(2 * time.Minute)
	fresh := createTestSession(t, store)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, fresh.ID, active[0].ID)
	assert.NotEqual(t, stale.ID, active[0].ID)
}

func TestPruneExpired(t *testing.T) {
	store := NewMemorySessionStore(time.Minute)
	ctx := context.Background()

	now := time.Now()
	store.SetClock(func() time.Time { return now })

	createTestSession(t, store)
	createTestSession(t, store)
	now = now.Add(2 * time.Minute)
	keeper := createTestSession(t, store)

	pruned, err := store.PruneExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)

	active, err := store.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, keeper.ID, active[0].ID)
}
