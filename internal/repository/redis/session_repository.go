package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-assessment-be/internal/entity"
	"ai-assessment-be/internal/repository/contract"

	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "workflow:session:"

// SessionRepository stores sessions as JSON so several API instances can
// serve the same user.
type SessionRepository struct {
	rdb *goredis.Client
	ttl time.Duration
}

var _ contract.SessionRepository = &SessionRepository{}

func NewSessionRepository(rdb *goredis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func sessionKey(sessionId string) string {
	return keyPrefix + sessionId
}

func (r *SessionRepository) Save(ctx context.Context, session *entity.Session) error {
	payload, err := encodeSession(session)
	if err != nil {
		return err
	}
	if err := r.rdb.Set(ctx, sessionKey(session.Id), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("save session %s: %w", session.Id, err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, sessionId string) (*entity.Session, bool, error) {
	payload, err := r.rdb.Get(ctx, sessionKey(sessionId)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load session %s: %w", sessionId, err)
	}

	session, err := decodeSession(payload)
	if err != nil {
		return nil, false, err
	}
	return session, true, nil
}

func encodeSession(session *entity.Session) ([]byte, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session %s: %w", session.Id, err)
	}
	return payload, nil
}

func decodeSession(payload []byte) (*entity.Session, error) {
	var session entity.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}
