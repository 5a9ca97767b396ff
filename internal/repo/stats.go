// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides aggregate queries used by the admin
// API and CLI.
package repo

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
)

// CustomerStats summarizes the customer tables.
type CustomerStats struct {
	Users        int64           `json:"users"`
	Profiles     int64           `json:"profiles"`
	Payments     int64           `json:"payments"`
	PaidPayments int64           `json:"paid_payments"`
	Revenue      decimal.Decimal `json:"revenue"`
	GroupJoined  int64           `json:"group_joined"`
	LastActiveAt *time.Time      `json:"last_active_at,omitempty"`
}

// Stats computes CustomerStats. Revenue sums paid amounts in Go using
// decimal arithmetic rather than SQL SUM, which SQLite evaluates in floating
// point.
func Stats(ctx context.Context, db *gorm.DB) (CustomerStats, error) {
	var s CustomerStats
	q := db.WithContext(ctx)

	if err := q.Model(&domain.User{}).Count(&s.Users).Error; err != nil {
		return s, err
	}
	if err := q.Model(&domain.UserProfile{}).Count(&s.Profiles).Error; err != nil {
		return s, err
	}
	if err := q.Model(&domain.Payment{}).Count(&s.Payments).Error; err != nil {
		return s, err
	}

	var paid []decimal.Decimal
	if err := q.Model(&domain.Payment{}).
		Where("payment_status = ?", domain.PaymentPaid).
		Pluck("amount", &paid).Error; err != nil {
		return s, err
	}
	s.PaidPayments = int64(len(paid))
	s.Revenue = decimal.Zero
	for _, a := range paid {
		s.Revenue = s.Revenue.Add(a)
	}

	if err := q.Model(&domain.ServiceRecord{}).
		Where("group_joined = ?", true).
		Distinct("user_id").
		Count(&s.GroupJoined).Error; err != nil {
		return s, err
	}

	if s.Users > 0 {
		// Avoid MAX() -> TEXT in SQLite.
		var row struct{ LastActiveAt time.Time }
		if err := q.Model(&domain.User{}).
			Select("last_active_at").
			Order("last_active_at DESC").
			Limit(1).
			Scan(&row).Error; err != nil {
			return s, err
		}
		s.LastActiveAt = &row.LastActiveAt
	}
	return s, nil
}
