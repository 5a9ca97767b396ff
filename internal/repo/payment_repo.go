package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
)

// CreatePayment appends a payment for userID. Status defaults to pending
// and method to domain.DefaultPaymentMethod.
func CreatePayment(ctx context.Context, db *gorm.DB, userID uint, f domain.PaymentFields) (*domain.Payment, error) {
	status := f.Status
	if status == "" {
		status = domain.PaymentPending
	}
	if !status.Valid() {
		return nil, ErrInvalidTransition
	}
	method := f.Method
	if method == "" {
		method = domain.DefaultPaymentMethod
	}
	now := time.Now().UTC()
	p := &domain.Payment{
		UserID:        userID,
		Amount:        f.Amount.Round(2),
		PaymentMethod: method,
		PaymentProof:  f.Proof,
		PaymentStatus: status,
		TransactionID: f.TransactionID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPayment loads a payment by id or returns ErrNotFound.
func GetPayment(ctx context.Context, db *gorm.DB, id uint) (*domain.Payment, error) {
	var p domain.Payment
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPayments returns the user's payments in insertion order.
func ListPayments(ctx context.Context, db *gorm.DB, userID uint) ([]domain.Payment, error) {
	var out []domain.Payment
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// UpdatePaymentStatus moves a payment to status, optionally recording the
// gateway transaction id. Only pending → paid and paid → refunded are
// accepted; anything else returns ErrInvalidTransition. The update is
// conditioned on the status that was read, so a concurrent change also
// yields ErrInvalidTransition.
func UpdatePaymentStatus(ctx context.Context, db *gorm.DB, id uint, status domain.PaymentStatus, txID *string) (*domain.Payment, error) {
	p, err := GetPayment(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !p.PaymentStatus.CanTransitionTo(status) {
		return nil, ErrInvalidTransition
	}

	now := time.Now().UTC()
	cols := map[string]any{"payment_status": status, "updated_at": now}
	if txID != nil {
		cols["transaction_id"] = *txID
	}
	res := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("id = ? AND payment_status = ?", id, p.PaymentStatus).
		Updates(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrInvalidTransition
	}

	p.PaymentStatus = status
	p.UpdatedAt = now
	if txID != nil {
		p.TransactionID = txID
	}
	return p, nil
}
