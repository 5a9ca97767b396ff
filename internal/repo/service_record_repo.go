package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
)

// CreateServiceRecord inserts a fulfillment record, not yet joined.
func CreateServiceRecord(ctx context.Context, db *gorm.DB, userID uint, paymentID *uint, pdfURL string) (*domain.ServiceRecord, error) {
	now := time.Now().UTC()
	rec := &domain.ServiceRecord{
		UserID:    userID,
		PaymentID: paymentID,
		PDFURL:    pdfURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

// GetServiceRecord returns the user's earliest service record (lowest id)
// or ErrNotFound.
func GetServiceRecord(ctx context.Context, db *gorm.DB, userID uint) (*domain.ServiceRecord, error) {
	var rec domain.ServiceRecord
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Take(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListServiceRecords returns all of the user's service records in insertion
// order.
func ListServiceRecords(ctx context.Context, db *gorm.DB, userID uint) ([]domain.ServiceRecord, error) {
	var out []domain.ServiceRecord
	err := db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&out).Error
	return out, err
}

// UpdateServiceRecord applies a partial update. When GroupJoined is set to
// true, group_joined_at is written with COALESCE so an existing timestamp is
// never replaced. Returns the reloaded row, or ErrNotFound.
func UpdateServiceRecord(ctx context.Context, db *gorm.DB, id uint, f domain.ServiceRecordFields) (*domain.ServiceRecord, error) {
	now := time.Now().UTC()
	cols := map[string]any{"updated_at": now}
	if f.PDFURL != nil {
		cols["pdf_url"] = *f.PDFURL
	}
	if f.GroupJoined != nil {
		cols["group_joined"] = *f.GroupJoined
		if *f.GroupJoined {
			cols["group_joined_at"] = gorm.Expr("COALESCE(group_joined_at, ?)", now)
		}
	}

	res := db.WithContext(ctx).Model(&domain.ServiceRecord{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	var rec domain.ServiceRecord
	if err := db.WithContext(ctx).First(&rec, id).Error; err != nil {
		return nil, err
	}
	return &rec, nil
}
