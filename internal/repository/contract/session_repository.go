package contract

import (
	"context"

	"ai-assessment-be/internal/entity"
)

// SessionRepository persists one workflow session per id.
// Get returns (nil, false, nil) when the session does not exist.
type SessionRepository interface {
	Get(ctx context.Context, sessionId string) (*entity.Session, bool, error)
	Save(ctx context.Context, session *entity.Session) error
}
