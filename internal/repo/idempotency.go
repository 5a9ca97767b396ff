package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
)

// GetReplay returns a non-expired stored reply for (sessionID, key) or
// ErrNotFound.
func GetReplay(ctx context.Context, db *gorm.DB, sessionID, key string, now time.Time) (*domain.ChatReplay, error) {
	if strings.TrimSpace(key) == "" {
		return nil, ErrNotFound
	}
	var rec domain.ChatReplay
	err := db.WithContext(ctx).
		Where("session_id = ? AND key = ? AND expires_at > ?", sessionID, key, now).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// CreateReplay stores reply for (sessionID, key) until now+ttl. A second
// insert for the same pair returns ErrDuplicate. Expired rows for the pair
// are cleared first so a key can be reused after its window.
func CreateReplay(ctx context.Context, db *gorm.DB, sessionID, key, reply string, ttl time.Duration) (*domain.ChatReplay, error) {
	now := time.Now().UTC()
	if err := db.WithContext(ctx).
		Where("session_id = ? AND key = ? AND expires_at <= ?", sessionID, key, now).
		Delete(&domain.ChatReplay{}).Error; err != nil {
		return nil, err
	}
	rec := &domain.ChatReplay{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Key:       key,
		Reply:     reply,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return rec, nil
}
