// Package services – CustomerService
//
// This file implements the composite customer operations used by the agent
// tools and the admin API. Each operation runs inside a single database
// transaction, so a customer upsert, or a payment together with its service
// record, either commits completely or not at all.
//
// Identity: a customer is identified by its normalized contact string
// (domain.NormalizeContact). Users are created with an atomic
// insert-if-absent against the unique contact index.
package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/repo"
	"github.com/tbourn/opc-agent/internal/utils"
)

// CustomerService implements the customer use-cases on top of the repo
// package. It is safe for concurrent use.
type CustomerService struct {
	// DB is the database handle; every method opens its own transaction.
	DB *gorm.DB
}

// NewCustomerService constructs a CustomerService.
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{DB: db}
}

// SaveCustomerResult identifies the rows touched by SaveCustomerInfo.
type SaveCustomerResult struct {
	UserID      uint   `json:"user_id"`
	ProfileID   uint   `json:"profile_id"`
	ContactInfo string `json:"contact_info"`
}

// PaymentInput describes a payment to append to the ledger.
type PaymentInput struct {
	Amount decimal.Decimal
	Method string
	Proof  string
	PDFURL string
}

// SavePaymentResult identifies the rows created by SavePaymentAndService.
type SavePaymentResult struct {
	UserID          uint   `json:"user_id"`
	ContactInfo     string `json:"contact_info"`
	PaymentID       uint   `json:"payment_id"`
	ServiceRecordID uint   `json:"service_record_id"`
}

// CustomerSummary is the read-only fan-out returned by GetCustomerSummary.
type CustomerSummary struct {
	User            domain.User             `json:"user"`
	Profile         *domain.UserProfile     `json:"profile"`
	Recommendations []domain.Recommendation `json:"recommendations"`
	Payments        []domain.Payment        `json:"payments"`
	ServiceRecord   *domain.ServiceRecord   `json:"service_record"`
}

// JoinResult is the outcome of MarkJoinedGroup. When AlreadyJoined is true
// the record was left untouched and Record.GroupJoinedAt is the original
// timestamp.
type JoinResult struct {
	User          domain.User
	Record        domain.ServiceRecord
	AlreadyJoined bool
}

func tracer() trace.Tracer { return otel.Tracer("services/CustomerService") }

func normalizeContact(contact string) (string, error) {
	c := domain.NormalizeContact(contact)
	if c == "" {
		return "", ErrEmptyContact
	}
	return c, nil
}

// SaveCustomerInfo upserts the customer identified by contact:
//  1. the user is looked up by contact and created when absent;
//  2. the profile is merged when present, else created with f;
//  3. last_active_at is touched.
//
// Calling it repeatedly with the same contact never creates a second user or
// profile; fields supplied later overwrite earlier values and omitted fields
// are kept.
func (s *CustomerService) SaveCustomerInfo(ctx context.Context, contact string, f domain.ProfileFields) (*SaveCustomerResult, error) {
	contact, err := normalizeContact(contact)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer().Start(ctx, "SaveCustomerInfo")
	defer span.End()

	var out SaveCustomerResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, created, err := repo.EnsureUser(ctx, tx, contact)
		if err != nil {
			return err
		}
		span.SetAttributes(attribute.Int("user.id", int(u.ID)), attribute.Bool("user.created", created))

		p, err := repo.UpdateUserProfile(ctx, tx, u.ID, f)
		if errors.Is(err, repo.ErrNotFound) {
			p, err = repo.CreateUserProfile(ctx, tx, u.ID, f)
		}
		if err != nil {
			return err
		}

		if err := repo.TouchUserLastActive(ctx, tx, u.ID); err != nil {
			return err
		}
		out = SaveCustomerResult{UserID: u.ID, ProfileID: p.ID, ContactInfo: u.ContactInfo}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &out, nil
}

// SavePaymentAndService appends a paid Payment and a new ServiceRecord linked
// to it, creating the user first when needed, and touches last_active_at.
// It never updates an existing payment: N calls produce N payments and N
// service records.
func (s *CustomerService) SavePaymentAndService(ctx context.Context, contact string, in PaymentInput) (*SavePaymentResult, error) {
	contact, err := normalizeContact(contact)
	if err != nil {
		return nil, err
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	ctx, span := tracer().Start(ctx, "SavePaymentAndService",
		trace.WithAttributes(attribute.String("payment.amount", in.Amount.StringFixed(2))),
	)
	defer span.End()

	var out SavePaymentResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, _, err := repo.EnsureUser(ctx, tx, contact)
		if err != nil {
			return err
		}
		p, err := repo.CreatePayment(ctx, tx, u.ID, domain.PaymentFields{
			Amount: in.Amount,
			Method: in.Method,
			Proof:  in.Proof,
			Status: domain.PaymentPaid,
		})
		if err != nil {
			return err
		}
		rec, err := repo.CreateServiceRecord(ctx, tx, u.ID, &p.ID, in.PDFURL)
		if err != nil {
			return err
		}
		if err := repo.TouchUserLastActive(ctx, tx, u.ID); err != nil {
			return err
		}
		out = SavePaymentResult{UserID: u.ID, ContactInfo: u.ContactInfo, PaymentID: p.ID, ServiceRecordID: rec.ID}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &out, nil
}

// GetCustomerSummary assembles everything known about contact. It returns
// (nil, nil) when the user does not exist, which is distinct from an
// existing user whose profile is still empty.
func (s *CustomerService) GetCustomerSummary(ctx context.Context, contact string) (*CustomerSummary, error) {
	contact, err := normalizeContact(contact)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer().Start(ctx, "GetCustomerSummary")
	defer span.End()

	var out *CustomerSummary
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.GetUserByContact(ctx, tx, contact)
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		sum := &CustomerSummary{User: *u}

		if p, err := repo.GetUserProfile(ctx, tx, u.ID); err == nil {
			sum.Profile = p
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		if sum.Recommendations, err = repo.ListRecommendations(ctx, tx, u.ID); err != nil {
			return err
		}
		if sum.Payments, err = repo.ListPayments(ctx, tx, u.ID); err != nil {
			return err
		}

		if rec, err := repo.GetServiceRecord(ctx, tx, u.ID); err == nil {
			sum.ServiceRecord = rec
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}
		out = sum
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return out, nil
}

// SaveRecommendation appends a recommendation for an existing customer.
// Returns ErrUserNotFound when the contact is unknown.
func (s *CustomerService) SaveRecommendation(ctx context.Context, contact string, f domain.RecommendationFields) (*domain.Recommendation, error) {
	contact, err := normalizeContact(contact)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer().Start(ctx, "SaveRecommendation",
		trace.WithAttributes(attribute.String("project.name", f.ProjectName)),
	)
	defer span.End()

	var out *domain.Recommendation
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.GetUserByContact(ctx, tx, contact)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		out, err = repo.CreateRecommendation(ctx, tx, u.ID, f)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// MarkJoinedGroup records that the customer joined the community group.
// It reads the user and their service record first and only writes when the
// record is not yet joined, so group_joined_at is set exactly once.
//
// Errors: ErrUserNotFound, ErrServiceRecordNotFound, or a storage error.
func (s *CustomerService) MarkJoinedGroup(ctx context.Context, contact string) (*JoinResult, error) {
	contact, err := normalizeContact(contact)
	if err != nil {
		return nil, err
	}
	ctx, span := tracer().Start(ctx, "MarkJoinedGroup")
	defer span.End()

	var out JoinResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		u, err := repo.GetUserByContact(ctx, tx, contact)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		rec, err := repo.GetServiceRecord(ctx, tx, u.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrServiceRecordNotFound
		}
		if err != nil {
			return err
		}

		out.User = *u
		if rec.GroupJoined && rec.GroupJoinedAt != nil {
			out.Record = *rec
			out.AlreadyJoined = true
			return nil
		}

		joined := true
		updated, err := repo.UpdateServiceRecord(ctx, tx, rec.ID, domain.ServiceRecordFields{GroupJoined: &joined})
		if err != nil {
			return err
		}
		out.Record = *updated
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("group.already_joined", out.AlreadyJoined))
	return &out, nil
}

// ListCustomers returns a page of users (most recently active first) and
// the total count. Page bounds follow utils.NewPage.
func (s *CustomerService) ListCustomers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	p := utils.NewPage(page, pageSize)

	total, err := repo.CountUsers(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.User{}, 0, nil
	}
	items, err := repo.ListUsersPage(ctx, s.DB, p.Offset(), p.Size)
	return items, total, err
}

// Stats returns aggregate customer statistics.
func (s *CustomerService) Stats(ctx context.Context) (repo.CustomerStats, error) {
	return repo.Stats(ctx, s.DB)
}
