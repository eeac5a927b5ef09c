package domain

import (
	"context"
	"time"
)

// AccountRepository defines access methods for account records.
type AccountRepository interface {
	// Get fetches an account by id, returning ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Account, error)
	// CreateIfAbsent inserts a default free account for the identity, merging
	// profile fields into an existing row without ever touching its plan.
	CreateIfAbsent(ctx context.Context, account *Account) (*Account, error)
	// SaveUsage persists the day-scoped usage counter.
	SaveUsage(ctx context.Context, id string, usageCount int, lastUsageDate string) error
	// Upgrade flips the plan to pro and records the audit trail.
	Upgrade(ctx context.Context, id, code string, at time.Time) (*Account, error)
}

// UpgradeCodeRepository is the server-side single-use code registry.
type UpgradeCodeRepository interface {
	// Mint stores a freshly issued code.
	Mint(ctx context.Context, code string) error
	// Redeem consumes a code exactly once. ErrInvalidUpgradeCode is returned
	// for unknown codes, ErrCodeConsumed for ones already spent.
	Redeem(ctx context.Context, code, accountID string) error
}
