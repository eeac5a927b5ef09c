package quota

import (
	"errors"
	"testing"

	"goldminer/internal/domain"
)

const today = "2026-08-28"

func TestCheckQuota(t *testing.T) {
	tests := []struct {
		name    string
		account domain.Account
		denied  bool
	}{
		{
			name:    "free at limit today is denied",
			account: domain.Account{Plan: domain.PlanFree, UsageCount: 10, LastUsageDate: today},
			denied:  true,
		},
		{
			name:    "free over limit today is denied",
			account: domain.Account{Plan: domain.PlanFree, UsageCount: 14, LastUsageDate: today},
			denied:  true,
		},
		{
			name:    "free under limit today is allowed",
			account: domain.Account{Plan: domain.PlanFree, UsageCount: 9, LastUsageDate: today},
		},
		{
			name:    "stale counter from a prior day is allowed regardless of count",
			account: domain.Account{Plan: domain.PlanFree, UsageCount: 999, LastUsageDate: "2026-08-27"},
		},
		{
			name:    "never used is allowed",
			account: domain.Account{Plan: domain.PlanFree},
		},
		{
			name:    "pro at limit is still allowed",
			account: domain.Account{Plan: domain.PlanPro, UsageCount: 10, LastUsageDate: today},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := CheckQuota(tc.account, today)
			if tc.denied {
				if !errors.Is(err, domain.ErrQuotaExceeded) {
					t.Fatalf("CheckQuota() = %v, want ErrQuotaExceeded", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CheckQuota() unexpected error: %v", err)
			}
		})
	}
}

func TestRecordUsageResetsStaleCounter(t *testing.T) {
	account := domain.Account{Plan: domain.PlanFree, UsageCount: 7, LastUsageDate: "2026-08-01"}
	got := RecordUsage(account, today)
	if got.UsageCount != 1 || got.LastUsageDate != today {
		t.Fatalf("RecordUsage() = {count: %d, date: %s}, want {count: 1, date: %s}", got.UsageCount, got.LastUsageDate, today)
	}
}

func TestRecordUsageTwiceSameDayIncrementsByTwo(t *testing.T) {
	account := domain.Account{Plan: domain.PlanFree, UsageCount: 3, LastUsageDate: today}
	got := RecordUsage(RecordUsage(account, today), today)
	if got.UsageCount != account.UsageCount+2 {
		t.Fatalf("UsageCount = %d, want %d", got.UsageCount, account.UsageCount+2)
	}
	if got.LastUsageDate != today {
		t.Fatalf("LastUsageDate = %s, want %s", got.LastUsageDate, today)
	}
}

func TestResultLimitIsPure(t *testing.T) {
	for i := 0; i < 3; i++ {
		if got := ResultLimit(domain.PlanPro); got != 15 {
			t.Fatalf("ResultLimit(pro) = %d, want 15", got)
		}
		if got := ResultLimit(domain.PlanFree); got != 5 {
			t.Fatalf("ResultLimit(free) = %d, want 5", got)
		}
	}
}

func TestCanExpandLongTail(t *testing.T) {
	if CanExpandLongTail(domain.PlanFree) {
		t.Fatal("CanExpandLongTail(free) = true, want false")
	}
	if !CanExpandLongTail(domain.PlanPro) {
		t.Fatal("CanExpandLongTail(pro) = false, want true")
	}
}

func TestValidateUpgradeCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
		ok   bool
	}{
		{name: "canonical code", code: "GKM-PRO-AB12CD34", want: "GKM-PRO-AB12CD34", ok: true},
		{name: "lowercase input is normalized", code: "gkm-pro-ab12cd34", want: "GKM-PRO-AB12CD34", ok: true},
		{name: "surrounding whitespace is trimmed", code: "  GKM-PRO-00000000 ", want: "GKM-PRO-00000000", ok: true},
		{name: "wrong length", code: "GKM-PRO-123"},
		{name: "wrong prefix", code: "GKX-PRO-AB12CD34"},
		{name: "empty", code: ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateUpgradeCode(tc.code)
			if !tc.ok {
				if !errors.Is(err, domain.ErrInvalidUpgradeCode) {
					t.Fatalf("ValidateUpgradeCode(%q) = %v, want ErrInvalidUpgradeCode", tc.code, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateUpgradeCode(%q) unexpected error: %v", tc.code, err)
			}
			if got != tc.want {
				t.Fatalf("ValidateUpgradeCode(%q) = %q, want %q", tc.code, got, tc.want)
			}
		})
	}
}
