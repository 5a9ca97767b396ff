// Package services defines the business logic of the OPC incubator bot:
// customer upserts and summaries, the fulfillment ledger, report generation,
// and the chat use-case in front of the agent. This file centralizes the
// service-level error values so callers can branch with errors.Is.
//
// Translation into user-facing text (tool replies) or HTTP status codes is
// performed by the tools and handlers packages.
package services

import "errors"

// Customer-related errors.
var (
	// ErrEmptyContact is returned when a contact string is blank after
	// normalization.
	ErrEmptyContact = errors.New("contact info is empty")

	// ErrUserNotFound indicates that no user exists for the given contact.
	ErrUserNotFound = errors.New("user not found")

	// ErrServiceRecordNotFound indicates that the user has no fulfillment
	// record yet (i.e. has not paid).
	ErrServiceRecordNotFound = errors.New("service record not found")

	// ErrInvalidAmount is returned when a payment amount is not positive.
	ErrInvalidAmount = errors.New("payment amount must be positive")
)

// Chat-related errors.
var (
	// ErrEmptyMessage is returned when a chat message is blank.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageTooLong is returned when a chat message exceeds the
	// configured rune limit.
	ErrMessageTooLong = errors.New("message too long")
)
