// Package quota holds the plan and quota policy: pure admission and sizing
// decisions for mining requests, with no dependency on transport or
// presentation state.
package quota

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"goldminer/internal/domain"
)

const (
	// FreeDailyLimit is the number of mining requests a free account may
	// issue per calendar day.
	FreeDailyLimit = 10
	// FreeResultLimit and ProResultLimit size a single mining response.
	FreeResultLimit = 5
	ProResultLimit  = 15
)

var upgradeCodePattern = regexp.MustCompile(`^GKM-PRO-[A-Z0-9]{8}$`)

// DateKey formats a time as the calendar-day key used for usage counters.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// CheckQuota decides whether the account may issue a mining request today.
// Pro accounts are always admitted. Free accounts are denied only when the
// counter belongs to today and has reached the daily limit; a counter from a
// prior date is stale and counts as zero.
func CheckQuota(account domain.Account, today string) error {
	if !account.IsFree() {
		return nil
	}
	if account.LastUsageDate == today && account.UsageCount >= FreeDailyLimit {
		return fmt.Errorf("free plan used %d/%d today: %w", account.UsageCount, FreeDailyLimit, domain.ErrQuotaExceeded)
	}
	return nil
}

// ResultLimit returns how many keyword records a single mining request grants.
func ResultLimit(plan domain.Plan) int {
	if plan == domain.PlanPro {
		return ProResultLimit
	}
	return FreeResultLimit
}

// CanExpandLongTail reports whether the plan grants long-tail expansion.
func CanExpandLongTail(plan domain.Plan) bool {
	return plan == domain.PlanPro
}

// RecordUsage returns the account with its usage counter advanced for the
// given day. Same-day calls increment; a stale or empty date resets the
// counter to one. The caller persists the result.
func RecordUsage(account domain.Account, today string) domain.Account {
	if account.LastUsageDate == today {
		account.UsageCount++
		return account
	}
	account.UsageCount = 1
	account.LastUsageDate = today
	return account
}

// NormalizeUpgradeCode uppercases and trims a client-supplied code.
func NormalizeUpgradeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidateUpgradeCode normalizes the code and checks it against the issued
// format. The pattern gate runs before any registry lookup; a mismatch is a
// validation failure with no state change.
func ValidateUpgradeCode(code string) (string, error) {
	normalized := NormalizeUpgradeCode(code)
	if !upgradeCodePattern.MatchString(normalized) {
		return "", fmt.Errorf("code %q: %w", normalized, domain.ErrInvalidUpgradeCode)
	}
	return normalized, nil
}
