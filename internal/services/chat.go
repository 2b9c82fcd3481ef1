package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"drivesafe-backend/internal/metrics"
	"drivesafe-backend/internal/models"
)

// FailureReply is shown in place of an assistant reply whenever generation fails.
const FailureReply = "Sorry, I encountered an error. Please try again."

type messageLog interface {
	Append(ctx context.Context, msg models.ChatMessage) error
	List(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error)
}

// ChatService is the chat pipeline boundary. Generation errors are logged and
// turned into FailureReply; they never reach the caller.
type ChatService struct {
	generator   Generator
	backend     string
	log         messageLog
	logger      *zap.Logger
	rateChan    chan struct{} // Token bucket
	rateTimeout time.Duration
	sessions    *sessionLocks
	now         func() time.Time
}

func NewChatService(generator Generator, backend string, log messageLog, logger *zap.Logger, concurrentReqs int) *ChatService {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &ChatService{
		generator:   generator,
		backend:     backend,
		log:         log,
		logger:      logger.With(zap.String("component", "chat")),
		rateChan:    rateChan,
		rateTimeout: 5 * time.Minute,
		sessions:    newSessionLocks(),
		now:         time.Now,
	}
}

// acquireRate blocks until a rate slot is available
func (s *ChatService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.rateTimeout):
		return fmt.Errorf("timeout waiting for generation rate slot")
	}
}

func (s *ChatService) releaseRate() {
	s.rateChan <- struct{}{}
}

// SendMessage runs one single-turn exchange for a session. Calls for the same
// session are handled one at a time so replies are logged in request order.
func (s *ChatService) SendMessage(ctx context.Context, sessionID uuid.UUID, text string) (models.ChatReply, error) {
	if strings.TrimSpace(text) == "" {
		return models.ChatReply{}, &ValidationError{Fields: map[string]string{"message": "Message is required"}}
	}

	if err := s.sessions.acquire(ctx, sessionID); err != nil {
		// Nothing is recorded without the session lock.
		s.report(sessionID, "cancelled", err)
		return models.ChatReply{Text: FailureReply, Failed: true}, nil
	}
	defer s.sessions.release(sessionID)

	s.record(ctx, sessionID, text, models.SenderUser)

	if err := s.acquireRate(ctx); err != nil {
		return s.fail(ctx, sessionID, "rate_limited", err), nil
	}
	defer s.releaseRate()

	start := s.now()
	raw, err := s.generator.Generate(ctx, text)
	metrics.ChatRequestDuration.WithLabelValues(s.backend).Observe(s.now().Sub(start).Seconds())
	if err != nil {
		return s.fail(ctx, sessionID, ChatErrorKind(err), err), nil
	}

	reply := CleanResponseText(raw)
	s.record(ctx, sessionID, reply, models.SenderAssistant)
	metrics.ChatRequests.WithLabelValues("ok").Inc()

	return models.ChatReply{Text: reply}, nil
}

// History returns the session's conversation log, oldest first.
func (s *ChatService) History(ctx context.Context, sessionID uuid.UUID) ([]models.ChatMessage, error) {
	msgs, err := s.log.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load chat history: %w", err)
	}
	return msgs, nil
}

// fail reports the cause and records the apology. Callers hold the session lock.
func (s *ChatService) fail(ctx context.Context, sessionID uuid.UUID, kind string, cause error) models.ChatReply {
	s.report(sessionID, kind, cause)
	s.record(ctx, sessionID, FailureReply, models.SenderAssistant)
	return models.ChatReply{Text: FailureReply, Failed: true}
}

func (s *ChatService) report(sessionID uuid.UUID, kind string, cause error) {
	fields := []zap.Field{
		zap.String("session_id", sessionID.String()),
		zap.String("kind", kind),
		zap.Error(cause),
	}
	var transportErr *TransportError
	if errors.As(cause, &transportErr) && transportErr.StatusCode != 0 {
		fields = append(fields,
			zap.Int("status_code", transportErr.StatusCode),
			zap.String("response_body", transportErr.Body),
		)
	}
	s.logger.Error("chat generation failed", fields...)
	metrics.ChatRequests.WithLabelValues(kind).Inc()
}

// record appends to the log. A log failure does not fail the exchange.
func (s *ChatService) record(ctx context.Context, sessionID uuid.UUID, text string, sender models.Sender) {
	msg := models.ChatMessage{
		ID:        uuid.New(),
		SessionID: sessionID,
		Text:      text,
		Sender:    sender,
		CreatedAt: s.now(),
	}
	if err := s.log.Append(context.WithoutCancel(ctx), msg); err != nil {
		s.logger.Warn("failed to append chat message",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
	}
}

type sessionLock struct {
	ch   chan struct{}
	refs int
}

// sessionLocks hands out one lock per session and forgets it once unused.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sessionLock
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[uuid.UUID]*sessionLock)}
}

func (s *sessionLocks) acquire(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sessionLock{ch: make(chan struct{}, 1)}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		s.drop(id, l)
		return ctx.Err()
	}
}

func (s *sessionLocks) release(id uuid.UUID) {
	s.mu.Lock()
	l := s.locks[id]
	s.mu.Unlock()

	<-l.ch
	s.drop(id, l)
}

func (s *sessionLocks) drop(id uuid.UUID, l *sessionLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, id)
	}
}

func (s *sessionLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
