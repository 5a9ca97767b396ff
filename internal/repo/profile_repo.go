package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
)

// CreateUserProfile inserts the profile for userID with the supplied fields;
// unspecified fields keep their column defaults. A second profile for the
// same user is rejected with ErrDuplicate.
func CreateUserProfile(ctx context.Context, db *gorm.DB, userID uint, f domain.ProfileFields) (*domain.UserProfile, error) {
	now := time.Now().UTC()
	p := &domain.UserProfile{UserID: userID, CreatedAt: now, UpdatedAt: now}
	f.Apply(p)
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return p, nil
}

// GetUserProfile returns the profile of userID or ErrNotFound.
func GetUserProfile(ctx context.Context, db *gorm.DB, userID uint) (*domain.UserProfile, error) {
	var p domain.UserProfile
	if err := db.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateUserProfile merges the supplied fields into the existing profile of
// userID. Fields left nil are not touched. Returns ErrNotFound when the user
// has no profile yet.
func UpdateUserProfile(ctx context.Context, db *gorm.DB, userID uint, f domain.ProfileFields) (*domain.UserProfile, error) {
	p, err := GetUserProfile(ctx, db, userID)
	if err != nil {
		return nil, err
	}
	if f.Empty() {
		return p, nil
	}

	now := time.Now().UTC()
	cols := f.Columns()
	cols["updated_at"] = now
	if err := db.WithContext(ctx).Model(&domain.UserProfile{}).Where("id = ?", p.ID).Updates(cols).Error; err != nil {
		return nil, err
	}
	f.Apply(p)
	p.UpdatedAt = now
	return p, nil
}
