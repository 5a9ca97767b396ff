package tools

import (
	"github.com/tbourn/opc-agent/internal/config"
)

// Deps wires the tool palette to its backends. A nil Reports leaves
// generate_opc_pdf unregistered.
type Deps struct {
	Customers     CustomerStore
	Reports       ReportGenerator
	Payment       config.PaymentConfig
	Group         config.GroupConfig
	PublicBaseURL string
}

// New builds the full registry.
func New(d Deps) *Registry {
	r := NewRegistry()
	if d.Customers != nil {
		registerCustomerTools(r, d.Customers)
	}
	registerPaymentTools(r, d.Payment, d.Group, d.PublicBaseURL)
	if d.Reports != nil {
		registerReportTools(r, d.Reports)
	}
	return r
}
