package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/lentera-backend/internal/config"
	"github.com/stemsi/lentera-backend/internal/repository"
)

// AnswerService handles the answer fast lane: writes land in a Redis hash
// for instant reads and are queued for async persistence to PostgreSQL.
// The caller is responsible for gating writes through the session
// accounting service first.
type AnswerService struct {
	answerRepo *repository.AnswerRepository
	rdb        *redis.Client
	log        zerolog.Logger
}

// NewAnswerService creates a new AnswerService.
func NewAnswerService(answerRepo *repository.AnswerRepository, rdb *redis.Client, log zerolog.Logger) *AnswerService {
	return &AnswerService{
		answerRepo: answerRepo,
		rdb:        rdb,
		log:        log.With().Str("component", "answer_service").Logger(),
	}
}

// queuedAnswer is the wire format pushed onto the persistence queue.
type queuedAnswer struct {
	SessionID  string          `json:"session_id"`
	ItemNumber int             `json:"item_number"`
	Payload    json.RawMessage `json:"payload"`
}

// SaveAnswer stores the answer in the session's Redis hash and enqueues it
// for durable persistence.
func (s *AnswerService) SaveAnswer(ctx context.Context, sessionID uuid.UUID, itemNumber int, payload json.RawMessage) error {
	answersKey := config.CacheKey.SessionAnswersKey(sessionID.String())
	field := strconv.Itoa(itemNumber)

	if err := s.rdb.HSet(ctx, answersKey, field, string(payload)).Err(); err != nil {
		return fmt.Errorf("fast-lane write: %w", err)
	}

	item, err := json.Marshal(queuedAnswer{
		SessionID:  sessionID.String(),
		ItemNumber: itemNumber,
		Payload:    payload,
	})
	if err != nil {
		return fmt.Errorf("marshal queue item: %w", err)
	}

	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistAnswersQueue, item).Err(); err != nil {
		return fmt.Errorf("enqueue answer: %w", err)
	}
	return nil
}

// DeleteAnswer removes the answer from the fast lane and synchronously
// from PostgreSQL. Deletes are rare enough that they skip the queue.
func (s *AnswerService) DeleteAnswer(ctx context.Context, sessionID uuid.UUID, itemNumber int) error {
	answersKey := config.CacheKey.SessionAnswersKey(sessionID.String())
	if err := s.rdb.HDel(ctx, answersKey, strconv.Itoa(itemNumber)).Err(); err != nil {
		return fmt.Errorf("fast-lane delete: %w", err)
	}
	if err := s.answerRepo.Delete(ctx, sessionID, itemNumber); err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	return nil
}

// GetAnswers returns the session's current answers keyed by item number.
// Redis is authoritative while the session is live; on a miss (eviction,
// restart) the hash is rebuilt from PostgreSQL.
func (s *AnswerService) GetAnswers(ctx context.Context, sessionID uuid.UUID) (map[string]string, error) {
	answersKey := config.CacheKey.SessionAnswersKey(sessionID.String())

	answers, err := s.rdb.HGetAll(ctx, answersKey).Result()
	if err != nil {
		return nil, fmt.Errorf("fast-lane read: %w", err)
	}
	if len(answers) > 0 {
		return answers, nil
	}

	// Cache miss or empty session: fall back to the durable copy.
	persisted, err := s.answerRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	if len(persisted) == 0 {
		return map[string]string{}, nil
	}

	answers = make(map[string]string, len(persisted))
	fields := make(map[string]interface{}, len(persisted))
	for _, a := range persisted {
		field := strconv.Itoa(a.ItemNumber)
		answers[field] = string(a.Payload)
		fields[field] = string(a.Payload)
	}

	// Self-heal so the next read is fast.
	if err := s.rdb.HSet(ctx, answersKey, fields).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Self-heal cache write failed")
	}

	return answers, nil
}
