package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/schema"

	"hotelbot/internal/consolidate"
	"hotelbot/internal/logger"
	"hotelbot/internal/memory"
	"hotelbot/internal/session"
	"hotelbot/pkg"
)

// Generator is the slice of the capability gateway the service depends on.
type Generator interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// Service runs one conversational turn: load memory, compose context,
// generate a reply, record the turn, consolidate preferences, persist.
type Service struct {
	gateway  Generator
	sessions session.Store
	memories memory.Store
	strategy consolidate.Strategy
	composer *Composer

	mu        sync.Mutex
	userLocks map[string]*sync.Mutex
}

func NewService(gateway Generator, sessions session.Store, memories memory.Store, strategy consolidate.Strategy, composer *Composer) *Service {
	return &Service{
		gateway:   gateway,
		sessions:  sessions,
		memories:  memories,
		strategy:  strategy,
		composer:  composer,
		userLocks: make(map[string]*sync.Mutex),
	}
}

// userLock serializes long-term writes per user. It is never held across
// a generation call.
func (s *Service) userLock(userID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.userLocks[userID] = lock
	}
	return lock
}

// Respond handles one user turn and returns the assistant's reply.
//
// A generation failure aborts the turn with no state written: nothing is
// appended to the session and no consolidation runs. Consolidation and
// persistence failures degrade gracefully; the reply is still returned.
func (s *Service) Respond(ctx context.Context, userID, sessionID, input string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("user id cannot be empty")
	}
	if sessionID == "" {
		sessionID = userID
	}

	mem, err := s.memories.Load(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("load long-term memory: %w", err)
	}

	conversation, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("load session history: %w", err)
	}

	messages := s.composer.Compose(mem, conversation, input)
	out, err := s.gateway.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	reply := out.Content

	if err := s.sessions.Append(ctx, sessionID, schema.UserMessage(input)); err != nil {
		return "", fmt.Errorf("append user message: %w", err)
	}
	if err := s.sessions.Append(ctx, sessionID, schema.AssistantMessage(reply, nil)); err != nil {
		return "", fmt.Errorf("append assistant message: %w", err)
	}

	s.consolidateAndPersist(ctx, userID, sessionID, mem, pkg.Turn{
		UserInput:         input,
		AssistantResponse: reply,
	})

	return reply, nil
}

// consolidateAndPersist updates the long-term record after a completed
// turn. Failures here are logged, never surfaced to the user.
func (s *Service) consolidateAndPersist(ctx context.Context, userID, sessionID string, mem *pkg.LongTermMemory, turn pkg.Turn) {
	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("failed to read history for consolidation")
		history = []*schema.Message{
			schema.UserMessage(turn.UserInput),
			schema.AssistantMessage(turn.AssistantResponse, nil),
		}
	}

	if err := s.strategy.Consolidate(ctx, mem, turn, history); err != nil {
		logger.Warn().Err(err).Str("user_id", userID).Msg("preference consolidation failed")
	}

	lock := s.userLock(userID)
	lock.Lock()
	err = s.memories.Save(ctx, userID, mem)
	lock.Unlock()
	if err != nil {
		logger.Error().Err(err).Str("user_id", userID).Msg("failed to persist long-term memory")
	}
}
