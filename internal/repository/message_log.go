package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"drivesafe-backend/internal/models"
)

// MessageLog keeps a bounded, ordered conversation log per chat session.
type MessageLog interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	List(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
}

type ring struct {
	buf      []models.ChatMessage
	start    int
	count    int
	lastSeen time.Time
}

func (r *ring) push(msg models.ChatMessage) {
	if r.count < len(r.buf) {
		r.buf[(r.start+r.count)%len(r.buf)] = msg
		r.count++
		return
	}
	r.buf[r.start] = msg
	r.start = (r.start + 1) % len(r.buf)
}

func (r *ring) items() []models.ChatMessage {
	out := make([]models.ChatMessage, r.count)
	for i := 0; i < r.count; i++ {
		out[i] = r.buf[(r.start+i)%len(r.buf)]
	}
	return out
}

// MemoryMessageLog holds each session's log in a fixed-size ring buffer.
// Sessions idle for longer than ttl are dropped on the next append.
type MemoryMessageLog struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*ring
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryMessageLog(capacity int, ttl time.Duration) *MemoryMessageLog {
	if capacity < 1 {
		capacity = 1
	}
	return &MemoryMessageLog{
		sessions: make(map[uuid.UUID]*ring),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (l *MemoryMessageLog) Append(ctx context.Context, msg models.ChatMessage) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.evictIdle(now)

	r, ok := l.sessions[msg.SessionID]
	if !ok {
		r = &ring{buf: make([]models.ChatMessage, l.capacity)}
		l.sessions[msg.SessionID] = r
	}
	r.push(msg)
	r.lastSeen = now
	return nil
}

func (l *MemoryMessageLog) List(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	r, ok := l.sessions[sessionID]
	if !ok || l.expired(r, l.now()) {
		return []models.ChatMessage{}, nil
	}
	return r.items(), nil
}

func (l *MemoryMessageLog) evictIdle(now time.Time) {
	for id, r := range l.sessions {
		if l.expired(r, now) {
			delete(l.sessions, id)
		}
	}
}

func (l *MemoryMessageLog) expired(r *ring, now time.Time) bool {
	return l.ttl > 0 && now.Sub(r.lastSeen) > l.ttl
}

// RedisMessageLog stores each session as a capped Redis list that expires
// after ttl of inactivity.
type RedisMessageLog struct {
	redis    *redis.Client
	capacity int
	ttl      time.Duration
}

func NewRedisMessageLog(client *redis.Client, capacity int, ttl time.Duration) *RedisMessageLog {
	if capacity < 1 {
		capacity = 1
	}
	return &RedisMessageLog{redis: client, capacity: capacity, ttl: ttl}
}

func chatLogKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("chat_log:%s", sessionID.String())
}

func (l *RedisMessageLog) Append(ctx context.Context, msg models.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode chat message: %w", err)
	}

	key := chatLogKey(msg.SessionID)
	pipe := l.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-l.capacity), -1)
	if l.ttl > 0 {
		pipe.Expire(ctx, key, l.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

func (l *RedisMessageLog) List(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	items, err := l.redis.LRange(ctx, chatLogKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read chat log: %w", err)
	}

	msgs := make([]models.ChatMessage, 0, len(items))
	for _, item := range items {
		var msg models.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to decode chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
