package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrNotConfigured      = errors.New("integration not configured")
	ErrQuotaExceeded      = errors.New("daily quota exceeded")
	ErrPlanRequired       = errors.New("pro plan required")
	ErrUpstreamQuery      = errors.New("upstream query failed")
	ErrInvalidSeed        = errors.New("seed keyword required")
	ErrInvalidUpgradeCode = errors.New("invalid upgrade code")
	ErrCodeConsumed       = errors.New("upgrade code already used")
	ErrBusy               = errors.New("request already in flight")
)
