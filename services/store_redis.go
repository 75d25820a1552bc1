package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"venuepulse/models"
	"venuepulse/utils"
)

const (
	sessionKeyPrefix = "session:"
	activeSetKey     = "active_sessions"
)

// RedisSessionStore keeps session records in Redis under a TTL so sessions
// whose clients vanish without calling End fade out on their own.
type RedisSessionStore struct {
	redis  *redis.Client
	logger *utils.Logger
	ttl    time.Duration
}

func NewRedisSessionStore(redisClient *redis.Client, logger *utils.Logger, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{
		redis:  redisClient,
		logger: logger,
		ttl:    ttl,
	}
}

func (s *RedisSessionStore) Create(ctx context.Context, req models.CreateSessionRequest) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		ID:           uuid.NewString(),
		OperatorID:   req.OperatorID,
		OperatorName: req.OperatorName,
		StandID:      req.StandID,
		StandName:    req.StandName,
		Section:      req.Section,
		CurrentTab:   req.CurrentTab,
		Status:       req.Status,
		Sandbox:      req.Sandbox,
		StartedAt:    now,
		LastSeen:     now,
	}
	if session.Status == "" {
		session.Status = models.StatusOnline
	}

	if err := s.write(ctx, session); err != nil {
		return nil, err
	}

	s.logger.Info("session created", "session_id", session.ID, "operator_id", session.OperatorID, "sandbox", session.Sandbox)
	return session, nil
}

func (s *RedisSessionStore) Heartbeat(ctx context.Context, id string, update models.HeartbeatUpdate) (*models.Session, error) {
	session, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	applyUpdate(session, update)
	session.LastSeen = time.Now()

	if err := s.write(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *RedisSessionStore) End(ctx context.Context, id string) error {
	key := sessionKeyPrefix + id

	pipe := s.redis.Pipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, activeSetKey, id)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	s.logger.Info("session removed", "session_id", id)
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session data: %w", err)
	}
	return &session, nil
}

func (s *RedisSessionStore) ListActive(ctx context.Context) ([]models.Session, error) {
	ids, err := s.redis.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list active sessions: %w", err)
	}
	if len(ids) == 0 {
		return []models.Session{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, sessionKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get session data: %w", err)
	}

	sessions := make([]models.Session, 0, len(ids))
	var expired []string
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// Record expired out from under the index.
				expired = append(expired, ids[i])
				continue
			}
			s.logger.Error("failed reading session", "session_id", ids[i], "error", err)
			continue
		}

		var session models.Session
		if err := json.Unmarshal([]byte(data), &session); err != nil {
			s.logger.Error("failed unmarshaling session", "session_id", ids[i], "error", err)
			continue
		}
		sessions = append(sessions, session)
	}

	if len(expired) > 0 {
		s.redis.SRem(ctx, activeSetKey, expired)
	}

	return sessions, nil
}

func (s *RedisSessionStore) PruneExpired(ctx context.Context) (int, error) {
	ids, err := s.redis.SMembers(ctx, activeSetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list active sessions: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.IntCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Exists(ctx, sessionKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("failed to check sessions: %w", err)
	}

	var expired []string
	for i, cmd := range cmds {
		if cmd.Val() == 0 {
			expired = append(expired, ids[i])
		}
	}
	if len(expired) > 0 {
		if err := s.redis.SRem(ctx, activeSetKey, expired).Err(); err != nil {
			return 0, fmt.Errorf("failed to prune sessions: %w", err)
		}
	}
	return len(expired), nil
}

// write persists the record and refreshes both TTLs in one round trip.
func (s *RedisSessionStore) write(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session data: %w", err)
	}

	pipe := s.redis.Pipeline()
	pipe.Set(ctx, sessionKeyPrefix+session.ID, data, s.ttl)
	pipe.SAdd(ctx, activeSetKey, session.ID)
	pipe.Expire(ctx, activeSetKey, s.ttl*2) // Keep the index alive longer

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}
