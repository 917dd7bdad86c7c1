package repository

import (
	"context"
	"time"

	"github.com/greenfield-academy/admin-api/internal/models"
)

// SessionRepository stores admin sessions in Redis, keyed by device token.
// Replaces the previous client-held token scatter with a single server-side
// session record with a defined lifecycle.
type SessionRepository struct {
	cache *CacheRepository
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(cache *CacheRepository) *SessionRepository {
	return &SessionRepository{cache: cache}
}

func sessionKey(deviceToken string) string {
	return "session:" + deviceToken
}

// Save stores the session until its device token expires.
func (r *SessionRepository) Save(ctx context.Context, session *models.Session, ttl time.Duration) error {
	return r.cache.Set(ctx, sessionKey(session.DeviceToken), session, ttl)
}

// Find loads the session for a device token. Returns ErrCacheMiss when absent.
func (r *SessionRepository) Find(ctx context.Context, deviceToken string) (*models.Session, error) {
	var session models.Session
	if err := r.cache.Get(ctx, sessionKey(deviceToken), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete removes the session, ending it server-side.
func (r *SessionRepository) Delete(ctx context.Context, deviceToken string) error {
	return r.cache.Delete(ctx, sessionKey(deviceToken))
}
