package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrCodeNotFound      = errors.New("redemption code not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrConflict          = errors.New("conflicting state")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrTicketUnavailable = errors.New("ticket unavailable")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrValidation        = errors.New("validation failed")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrEncodingFailed    = errors.New("code encoding failed")
	ErrUpstream          = errors.New("upstream failure")
)
