package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/classifieds-import-api/internal/models"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "bulk_import:session:"

// sessionRepo keeps validation sessions in Redis. Expiry rides on the key
// TTL, so an expired session simply stops existing and no sweeper is
// needed.
type sessionRepo struct {
	client *redis.Client
}

// NewSessionRepo creates a new Redis-backed session repository
func NewSessionRepo(client *redis.Client) SessionRepository {
	return &sessionRepo{client: client}
}

// Save stores the session under its id with a TTL derived from ExpiresAt.
// Re-saving an existing session keeps its original deadline.
func (r *sessionRepo) Save(ctx context.Context, session *models.ValidationSession) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	return r.client.Set(ctx, sessionKeyPrefix+session.ID, payload, ttl).Err()
}

// Get retrieves a session by id; (nil, nil) when unknown or expired.
func (r *sessionRepo) Get(ctx context.Context, id string) (*models.ValidationSession, error) {
	payload, err := r.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session models.ValidationSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &session, nil
}

// Delete removes a session before its natural expiry.
func (r *sessionRepo) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKeyPrefix+id).Err()
}
