// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. Generic codes mirror HTTP status semantics, the rest name
// the operation that failed.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "customer not found"
//	}
package handlers

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeNotFound     = "not_found"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeChatFailed       = "chat_failed"
	ErrCodeListFailed       = "list_failed"
	ErrCodeLookupFailed     = "lookup_failed"
	ErrCodeQRCodeFailed     = "qrcode_failed"
	ErrCodeNotConfigured    = "not_configured"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)
