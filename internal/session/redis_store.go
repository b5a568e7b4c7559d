// Package session keeps per-user dialogue state in redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"trustline/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

// record is the stored JSON envelope. The draft is decoded by its flow tag.
type record struct {
	State     models.State    `json:"state"`
	Flow      models.Flow     `json:"flow,omitempty"`
	Draft     json.RawMessage `json:"draft,omitempty"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// RedisStore implements session storage using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a store from an existing Redis client. Sessions idle for longer
// than ttl expire and read back as idle.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: keyPrefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + userID
}

// Get returns the user's session. A missing key is an idle session, not an error.
func (s *RedisStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return &models.Session{UserID: userID, State: models.StateIdle}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrCorruptSession, err)
	}
	draft, err := decodeDraft(rec.Flow, rec.Draft)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		UserID:    userID,
		State:     rec.State,
		Draft:     draft,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Save upserts the session and refreshes its TTL.
func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	if sess == nil || sess.UserID == "" {
		return errors.New("session: user id is required")
	}
	sess.UpdatedAt = s.now().UTC()

	rec := record{State: sess.State, UpdatedAt: sess.UpdatedAt}
	if sess.Draft != nil {
		draft, err := json.Marshal(sess.Draft)
		if err != nil {
			return fmt.Errorf("marshal draft: %w", err)
		}
		rec.Flow = sess.Draft.Flow()
		rec.Draft = draft
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Clear deletes the session; the next Get returns idle.
func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

func decodeDraft(flow models.Flow, raw json.RawMessage) (models.Draft, error) {
	if len(raw) == 0 || flow == models.FlowNone {
		return nil, nil
	}
	var draft models.Draft
	switch flow {
	case models.FlowReport:
		draft = &models.ReportDraft{}
	case models.FlowStatus:
		draft = &models.StatusDraft{}
	case models.FlowFollowup:
		draft = &models.FollowupDraft{}
	case models.FlowReviewer:
		draft = &models.ReviewerDraft{}
	default:
		return nil, fmt.Errorf("%w: unknown draft flow %q", models.ErrCorruptSession, flow)
	}
	if err := json.Unmarshal(raw, draft); err != nil {
		return nil, fmt.Errorf("%w: %s draft: %v", models.ErrCorruptSession, flow, err)
	}
	return draft, nil
}
