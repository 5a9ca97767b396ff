package handlers

import (
	"context"

	"github.com/tbourn/opc-agent/internal/config"
	"github.com/tbourn/opc-agent/internal/domain"
	"github.com/tbourn/opc-agent/internal/repo"
	"github.com/tbourn/opc-agent/internal/services"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "opc-agent"

// ChatSender runs one chat turn, serving idempotent replays.
type ChatSender interface {
	Send(ctx context.Context, sessionID, message, idemKey string) (reply string, replayed bool, err error)
}

// CustomerReader is the read side of the customer service used by the admin
// endpoints.
type CustomerReader interface {
	GetCustomerSummary(ctx context.Context, contact string) (*services.CustomerSummary, error)
	ListCustomers(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	Stats(ctx context.Context) (repo.CustomerStats, error)
}

// Options carries the static content served by the handlers.
type Options struct {
	// Welcome is the greeting returned by GET /api/welcome.
	Welcome string
	// Payment feeds the payment info and QR endpoints.
	Payment config.PaymentConfig
	// ShareURL is the link shared when a request names none.
	ShareURL string
}

// Handlers groups the HTTP endpoints. Customers may be nil when the admin
// API is disabled.
type Handlers struct {
	chat      ChatSender
	customers CustomerReader
	opts      Options
}

// New constructs Handlers bound to the given services.
func New(chat ChatSender, customers CustomerReader, opts Options) *Handlers {
	return &Handlers{chat: chat, customers: customers, opts: opts}
}
