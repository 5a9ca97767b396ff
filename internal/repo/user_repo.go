// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the User model.
//
// Every function runs as its own unit of work against the *gorm.DB it is
// given; callers that need atomicity across several calls pass a transaction
// handle (tx) obtained from db.Transaction.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/opc-agent/internal/domain"
)

// CreateUser inserts a new user with all three timestamps set to now.
// A duplicate contact surfaces as ErrDuplicate.
func CreateUser(ctx context.Context, db *gorm.DB, contact string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		ContactInfo:  contact,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActiveAt: now,
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return u, nil
}

// GetUser loads a user by id or returns ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id uint) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByContact loads a user by its unique contact string or returns
// ErrNotFound.
func GetUserByContact(ctx context.Context, db *gorm.DB, contact string) (*domain.User, error) {
	var u domain.User
	if err := db.WithContext(ctx).Where("contact_info = ?", contact).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// EnsureUser returns the user for contact, inserting it first when absent.
// The insert uses ON CONFLICT DO NOTHING against the unique contact index,
// so two concurrent callers converge on the same row. created reports
// whether this call inserted it.
func EnsureUser(ctx context.Context, db *gorm.DB, contact string) (u *domain.User, created bool, err error) {
	now := time.Now().UTC()
	cand := &domain.User{
		ContactInfo:  contact,
		CreatedAt:    now,
		UpdatedAt:    now,
		LastActiveAt: now,
	}
	res := db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "contact_info"}}, DoNothing: true}).
		Create(cand)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 && cand.ID != 0 {
		return cand, true, nil
	}
	u, err = GetUserByContact(ctx, db, contact)
	if err != nil {
		return nil, false, err
	}
	return u, false, nil
}

// TouchUserLastActive sets last_active_at (and updated_at) to now.
// Returns ErrNotFound when no user has the given id.
func TouchUserLastActive(ctx context.Context, db *gorm.DB, id uint) error {
	now := time.Now().UTC()
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_active_at": now, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUsers returns the total number of users.
func CountUsers(ctx context.Context, db *gorm.DB) (int64, error) {
	var n int64
	err := db.WithContext(ctx).Model(&domain.User{}).Count(&n).Error
	return n, err
}

// ListUsersPage returns users ordered by most recent activity, then id.
func ListUsersPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Order("last_active_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
