package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"pizza-franchise-api/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RevocationStore is the shared denylist. Writes must be visible to every
// subsequent IsRevoked call, from any instance, once they return.
type RevocationStore interface {
	// Revoke denylists one token until it would have expired anyway; ttl is
	// the time left until expiresAt on the caller's clock.
	Revoke(ctx context.Context, tokenID string, userID uint, expiresAt time.Time, ttl time.Duration) error
	// RevokeUser revokes every token of the user issued at or before at.
	// maxTTL bounds how long the marker must be kept.
	RevokeUser(ctx context.Context, userID uint, at time.Time, maxTTL time.Duration) error
	IsRevoked(ctx context.Context, tokenID string, userID uint, issuedAt time.Time) (bool, error)
}

// issuedBefore compares at token resolution: iat carries whole seconds, so
// a token issued in the same second as the marker counts as revoked.
func issuedBefore(issuedAt, marker time.Time) bool {
	return !issuedAt.After(marker.Truncate(time.Second))
}

// GormRevocationStore keeps the denylist in the main database.
type GormRevocationStore struct {
	db *gorm.DB
}

func NewGormRevocationStore(db *gorm.DB) *GormRevocationStore {
	return &GormRevocationStore{db: db}
}

func (s *GormRevocationStore) Revoke(ctx context.Context, tokenID string, userID uint, expiresAt time.Time, _ time.Duration) error {
	row := models.RevokedToken{JTI: tokenID, UserID: userID, ExpiresAt: expiresAt}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row).Error
}

func (s *GormRevocationStore) RevokeUser(ctx context.Context, userID uint, at time.Time, _ time.Duration) error {
	row := models.UserRevocation{UserID: userID, RevokedAt: at}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"revoked_at"}),
		}).
		Create(&row).Error
}

func (s *GormRevocationStore) IsRevoked(ctx context.Context, tokenID string, userID uint, issuedAt time.Time) (bool, error) {
	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&models.RevokedToken{}).Where("jti = ?", tokenID).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return true, nil
	}

	var marker models.UserRevocation
	err := db.Where("user_id = ?", userID).Take(&marker).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return issuedBefore(issuedAt, marker.RevokedAt), nil
}

// PurgeExpired drops denylist rows for tokens that have expired on their own.
func (s *GormRevocationStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&models.RevokedToken{})
	return res.RowsAffected, res.Error
}

// RedisRevocationStore shares the denylist between instances through redis.
// Keys expire with the tokens they revoke.
type RedisRevocationStore struct {
	client *redis.Client
	prefix string
}

func NewRedisRevocationStore(addr, password string, db int) (*RedisRevocationStore, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisRevocationStore{client: client, prefix: "pizza:revoked:"}, nil
}

// Ping checks connectivity at startup.
func (s *RedisRevocationStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisRevocationStore) Close() error {
	return s.client.Close()
}

func (s *RedisRevocationStore) tokenKey(tokenID string) string {
	return s.prefix + "jti:" + tokenID
}

func (s *RedisRevocationStore) userKey(userID uint) string {
	return s.prefix + "user:" + strconv.FormatUint(uint64(userID), 10)
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, tokenID string, userID uint, _ time.Time, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.client.Set(ctx, s.tokenKey(tokenID), userID, ttl).Err()
}

func (s *RedisRevocationStore) RevokeUser(ctx context.Context, userID uint, at time.Time, maxTTL time.Duration) error {
	return s.client.Set(ctx, s.userKey(userID), at.UnixNano(), maxTTL+time.Minute).Err()
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, tokenID string, userID uint, issuedAt time.Time) (bool, error) {
	vals, err := s.client.MGet(ctx, s.tokenKey(tokenID), s.userKey(userID)).Result()
	if err != nil {
		return false, err
	}
	if len(vals) != 2 {
		return false, fmt.Errorf("unexpected redis MGET reply of %d values", len(vals))
	}
	if vals[0] != nil {
		return true, nil
	}
	if vals[1] == nil {
		return false, nil
	}
	raw, ok := vals[1].(string)
	if !ok {
		return false, fmt.Errorf("unexpected redis marker type %T", vals[1])
	}
	nanos, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("parse redis marker: %w", err)
	}
	return issuedBefore(issuedAt, time.Unix(0, nanos)), nil
}

var (
	_ RevocationStore = (*GormRevocationStore)(nil)
	_ RevocationStore = (*RedisRevocationStore)(nil)
)
