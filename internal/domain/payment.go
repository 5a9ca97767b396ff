package domain

// PaymentStatus is the lifecycle state of a Payment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
)

// DefaultPaymentMethod is recorded when the caller does not name one.
const DefaultPaymentMethod = "微信支付"

// Valid reports whether s is one of the known states.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

// CanTransitionTo reports whether a payment in state s may move to next.
// The only edges are pending → paid and paid → refunded; writing the same
// state again is a no-op and allowed.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case PaymentPending:
		return next == PaymentPaid
	case PaymentPaid:
		return next == PaymentRefunded
	}
	return false
}
