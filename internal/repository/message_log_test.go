package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drivesafe-backend/internal/models"
)

func message(sessionID uuid.UUID, text string, sender models.Sender) models.ChatMessage {
	return models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Text:      text,
		Sender:    sender,
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func texts(msgs []models.ChatMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

func TestMemoryMessageLog_KeepsOrder(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryMessageLog(10, 0)
	sessionID := uuid.New()

	require.NoError(t, log.Append(ctx, message(sessionID, "hi", models.SenderUser)))
	require.NoError(t, log.Append(ctx, message(sessionID, "hello", models.SenderAssistant)))
	require.NoError(t, log.Append(ctx, message(uuid.New(), "other", models.SenderUser)))

	msgs, err := log.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"hi", "hello"}, texts(msgs))
}

func TestMemoryMessageLog_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	log := NewMemoryMessageLog(3, 0)
	sessionID := uuid.New()

	for i := 1; i <= 7; i++ {
		require.NoError(t, log.Append(ctx, message(sessionID, fmt.Sprintf("m%d", i), models.SenderUser)))
	}

	msgs, err := log.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"m5", "m6", "m7"}, texts(msgs))
}

func TestMemoryMessageLog_UnknownSessionIsEmpty(t *testing.T) {
	msgs, err := NewMemoryMessageLog(5, 0).List(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestMemoryMessageLog_ExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	log := NewMemoryMessageLog(5, time.Hour)
	log.now = func() time.Time { return now }

	idle := uuid.New()
	require.NoError(t, log.Append(ctx, message(idle, "old", models.SenderUser)))

	now = now.Add(2 * time.Hour)
	msgs, err := log.List(ctx, idle)
	require.NoError(t, err)
	assert.Empty(t, msgs)

	require.NoError(t, log.Append(ctx, message(uuid.New(), "new", models.SenderUser)))
	assert.Len(t, log.sessions, 1)
}

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisMessageLog_AppendAndList(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	log := NewRedisMessageLog(client, 10, time.Hour)
	sessionID := uuid.New()

	first := message(sessionID, "is fog dangerous?", models.SenderUser)
	require.NoError(t, log.Append(ctx, first))
	require.NoError(t, log.Append(ctx, message(sessionID, "yes", models.SenderAssistant)))

	msgs, err := log.List(ctx, sessionID)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, first.ID, msgs[0].ID)
	assert.Equal(t, models.SenderUser, msgs[0].Sender)
	assert.True(t, first.CreatedAt.Equal(msgs[0].CreatedAt))
	assert.Equal(t, "yes", msgs[1].Text)
}

func TestRedisMessageLog_TrimsToCapacity(t *testing.T) {
	ctx := context.Background()
	_, client := newTestRedis(t)
	log := NewRedisMessageLog(client, 2, time.Hour)
	sessionID := uuid.New()

	for _, text := range []string{"a", "b", "c", "d"} {
		require.NoError(t, log.Append(ctx, message(sessionID, text, models.SenderUser)))
	}

	msgs, err := log.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, texts(msgs))
}

func TestRedisMessageLog_Expires(t *testing.T) {
	ctx := context.Background()
	mr, client := newTestRedis(t)
	log := NewRedisMessageLog(client, 5, 30*time.Minute)
	sessionID := uuid.New()

	require.NoError(t, log.Append(ctx, message(sessionID, "a", models.SenderUser)))
	assert.Equal(t, 30*time.Minute, mr.TTL(chatLogKey(sessionID)))

	mr.FastForward(31 * time.Minute)

	msgs, err := log.List(ctx, sessionID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestRedisMessageLog_Unavailable(t *testing.T) {
	mr, client := newTestRedis(t)
	log := NewRedisMessageLog(client, 5, time.Minute)
	mr.Close()

	err := log.Append(context.Background(), message(uuid.New(), "a", models.SenderUser))
	assert.Error(t, err)

	_, err = log.List(context.Background(), uuid.New())
	assert.Error(t, err)
}
