// Package storage is the durable layer: cases, transcript and audit log, the reviewer
// directory and the organization catalog live in PostgreSQL through gorm; redis carries
// cross-instance fan-out for the web channel.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"trustline/backend/internal/auth"
	"trustline/backend/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("storage: record not found")

const (
	catalogCacheSize = 256
	catalogCacheTTL  = 5 * time.Minute
)

type Service struct {
	DB    *gorm.DB
	Redis *redis.Client

	hasher     *auth.Hasher
	newShortID func() (string, error)
	now        func() time.Time

	orgCache *expirable.LRU[string, []models.Organization]
	catCache *expirable.LRU[string, []models.Category]
}

type Option func(*Service)

// WithHasher replaces the access-code hasher.
func WithHasher(h *auth.Hasher) Option {
	return func(s *Service) { s.hasher = h }
}

// WithShortIDGenerator replaces the random short-id source.
func WithShortIDGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.newShortID = gen }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewStorageService Constructor. rdb may be nil for tools that never publish.
func NewStorageService(db *gorm.DB, rdb *redis.Client, opts ...Option) *Service {
	s := &Service{
		DB:         db,
		Redis:      rdb,
		hasher:     auth.NewHasher(auth.DefaultParams),
		newShortID: GenerateShortID,
		now:        func() time.Time { return time.Now().UTC() },
		orgCache:   expirable.NewLRU[string, []models.Organization](catalogCacheSize, nil, catalogCacheTTL),
		catCache:   expirable.NewLRU[string, []models.Category](catalogCacheSize, nil, catalogCacheTTL),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates every table the service owns.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Case{},
		&models.CaseMessage{},
		&models.AuditEntry{},
		&models.Reviewer{},
		&models.AccessCode{},
		&models.Organization{},
		&models.Category{},
	)
}

// Ping checks the database and, when configured, redis.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.Redis != nil {
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}

// PublishFrame публікує кадр для веб-клієнта в Redis Pub/Sub, щоб його доставив інстанс,
// який тримає websocket-з'єднання.
func (s *Service) PublishFrame(ctx context.Context, channel string, payload any) error {
	if s.Redis == nil {
		return errors.New("storage: redis is not configured")
	}
	msgBytes, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.Redis.Publish(ctx, channel, string(msgBytes)).Err()
}

// SubscribeFrames subscribes to the web delivery channel.
func (s *Service) SubscribeFrames(ctx context.Context, channel string) *redis.PubSub {
	return s.Redis.Subscribe(ctx, channel)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func logError(op string, err error) error {
	if err != nil && !errors.Is(err, ErrNotFound) {
		log.Printf("ERROR: storage %s: %v", op, err)
	}
	return err
}
