// Package miner orchestrates mining requests: it applies the quota policy,
// calls the AI query adapter, keeps per-user session state, and persists
// usage counters.
package miner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"goldminer/internal/domain"
	"goldminer/internal/quota"
)

// KeywordProvider is the AI query adapter contract.
type KeywordProvider interface {
	MineKeywords(ctx context.Context, seed string, count int, market string) ([]domain.KeywordRecord, error)
	ExpandLongTail(ctx context.Context, keyword string) ([]domain.LongTailPhrase, error)
	SearchInsights(ctx context.Context, keyword, market string) (*domain.SearchInsight, error)
}

// Service is the application controller. Each authenticated user gets a
// session holding the transient result list, the long-tail list, and the
// rolling activity log; sessions are dropped wholesale on sign-out.
type Service struct {
	accounts domain.AccountRepository
	codes    domain.UpgradeCodeRepository
	provider KeywordProvider
	logger   zerolog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

// session tracks one user's in-memory state. The mining and expanding flags
// enforce the single-in-flight discipline: at most one request per channel,
// so responses are applied in request order by construction.
type session struct {
	mu        sync.Mutex
	mining    bool
	expanding bool
	keywords  []domain.KeywordRecord
	longTails []domain.LongTailPhrase
	activity  *domain.ActivityLog
}

func NewService(accounts domain.AccountRepository, codes domain.UpgradeCodeRepository, provider KeywordProvider, logger zerolog.Logger) *Service {
	return &Service{
		accounts: accounts,
		codes:    codes,
		provider: provider,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

func (s *Service) session(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{activity: domain.NewActivityLog()}
		s.sessions[userID] = sess
	}
	return sess
}

// EnsureAccount loads the account for a verified identity, creating the
// default free record when none exists. The create path is idempotent and
// never clobbers the plan of a concurrently created row.
func (s *Service) EnsureAccount(ctx context.Context, id, email, displayName string) (*domain.Account, error) {
	account, err := s.accounts.CreateIfAbsent(ctx, &domain.Account{
		ID:          id,
		Email:       email,
		DisplayName: displayName,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure account: %w", err)
	}

	sess := s.session(id)
	name := account.DisplayName
	if name == "" {
		name = account.Email
	}
	planLabel := "free"
	if account.Plan == domain.PlanPro {
		planLabel = "premium"
	}
	sess.activity.Append(domain.LogSuccess, fmt.Sprintf("Welcome, %s! Your %s plan is active.", name, planLabel))
	return account, nil
}

// SubmitSeed runs one mining request for the user. It rejects empty seeds,
// enforces the daily quota, allows a single request in flight, and persists
// the advanced usage counter for free accounts after a successful response.
func (s *Service) SubmitSeed(ctx context.Context, userID, seed, market string) ([]domain.KeywordRecord, error) {
	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	sess := s.session(userID)

	if seed = trimSeed(seed); seed == "" {
		sess.activity.Append(domain.LogWarning, "Enter a keyword to mine.")
		return nil, domain.ErrInvalidSeed
	}

	today := quota.DateKey(s.now())
	if err := quota.CheckQuota(*account, today); err != nil {
		sess.activity.Append(domain.LogWarning,
			fmt.Sprintf("Free plan daily limit (%d) reached. Upgrade to pro for more.", quota.FreeDailyLimit))
		return nil, err
	}

	sess.mu.Lock()
	if sess.mining {
		sess.mu.Unlock()
		return nil, fmt.Errorf("mining: %w", domain.ErrBusy)
	}
	sess.mining = true
	sess.keywords = nil
	sess.mu.Unlock()
	defer func() {
		sess.mu.Lock()
		sess.mining = false
		sess.mu.Unlock()
	}()

	sess.activity.Append(domain.LogInfo, fmt.Sprintf("Running analysis engine for %q...", seed))

	records, err := s.provider.MineKeywords(ctx, seed, quota.ResultLimit(account.Plan), market)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			sess.activity.Append(domain.LogError, "Gemini API key is not configured. Mining is disabled.")
		} else {
			sess.activity.Append(domain.LogError, "Keyword engine error. Please try again.")
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("mining failed")
		return nil, err
	}

	sess.mu.Lock()
	sess.keywords = records
	sess.mu.Unlock()

	suffix := ""
	if account.IsFree() {
		suffix = fmt.Sprintf(" (pro plan returns %d)", quota.ProResultLimit)
	}
	sess.activity.Append(domain.LogSuccess,
		fmt.Sprintf("Analysis complete! Found %d golden keywords.%s", len(records), suffix))

	if account.IsFree() {
		updated := quota.RecordUsage(*account, today)
		if err := s.accounts.SaveUsage(ctx, userID, updated.UsageCount, updated.LastUsageDate); err != nil {
			// Results are already in hand; a failed counter write is logged
			// and the request still succeeds.
			s.logger.Error().Err(err).Str("user_id", userID).Msg("usage update failed")
			sess.activity.Append(domain.LogError, "Failed to record usage.")
		}
	}
	return records, nil
}

// ExpandLongTail runs one long-tail expansion for a selected keyword. The
// plan gate lives here, server-side, not only in presentation.
func (s *Service) ExpandLongTail(ctx context.Context, userID, keyword string) ([]domain.LongTailPhrase, error) {
	account, err := s.accounts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	sess := s.session(userID)

	if keyword = trimSeed(keyword); keyword == "" {
		sess.activity.Append(domain.LogWarning, "Select a keyword to expand.")
		return nil, domain.ErrInvalidSeed
	}
	if !quota.CanExpandLongTail(account.Plan) {
		sess.activity.Append(domain.LogWarning, "Long-tail expansion requires the pro plan.")
		return nil, domain.ErrPlanRequired
	}

	sess.mu.Lock()
	if sess.expanding {
		sess.mu.Unlock()
		return nil, fmt.Errorf("expanding: %w", domain.ErrBusy)
	}
	sess.expanding = true
	sess.longTails = nil
	sess.mu.Unlock()
	defer func() {
		sess.mu.Lock()
		sess.expanding = false
		sess.mu.Unlock()
	}()

	phrases, err := s.provider.ExpandLongTail(ctx, keyword)
	if err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			sess.activity.Append(domain.LogError, "Gemini API key is not configured. Expansion is disabled.")
		} else {
			sess.activity.Append(domain.LogError, "Long-tail expansion failed.")
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("long-tail expansion failed")
		return nil, err
	}

	sess.mu.Lock()
	sess.longTails = phrases
	sess.mu.Unlock()
	sess.activity.Append(domain.LogSuccess, fmt.Sprintf("Expanded %q into %d long-tail phrases.", keyword, len(phrases)))
	return phrases, nil
}

// SearchInsights fetches a search-grounded market summary for a keyword.
func (s *Service) SearchInsights(ctx context.Context, userID, keyword, market string) (*domain.SearchInsight, error) {
	if _, err := s.accounts.Get(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	if keyword = trimSeed(keyword); keyword == "" {
		return nil, domain.ErrInvalidSeed
	}
	return s.provider.SearchInsights(ctx, keyword, market)
}

// RedeemUpgradeCode validates the code format, consumes it from the registry
// exactly once, and flips the account to pro with an audit trail.
func (s *Service) RedeemUpgradeCode(ctx context.Context, userID, code string) (*domain.Account, error) {
	sess := s.session(userID)

	normalized, err := quota.ValidateUpgradeCode(code)
	if err != nil {
		sess.activity.Append(domain.LogError, "Upgrade failed. Check the code and try again.")
		return nil, err
	}
	if err := s.codes.Redeem(ctx, normalized, userID); err != nil {
		sess.activity.Append(domain.LogError, "Upgrade failed. Check the code and try again.")
		return nil, err
	}
	account, err := s.accounts.Upgrade(ctx, userID, normalized, s.now())
	if err != nil {
		return nil, fmt.Errorf("persist upgrade: %w", err)
	}
	sess.activity.Append(domain.LogSuccess, "Upgraded to the pro plan!")
	return account, nil
}

// SignOut drops the user's session: account context, result list, long-tail
// list, and activity log all go with it.
func (s *Service) SignOut(userID string) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Activity returns the retained activity entries for the user, oldest first.
func (s *Service) Activity(userID string) []domain.LogEntry {
	return s.session(userID).activity.Entries()
}

// Results returns the current transient result list.
func (s *Service) Results(userID string) []domain.KeywordRecord {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.KeywordRecord, len(sess.keywords))
	copy(out, sess.keywords)
	return out
}

// LongTails returns the current transient long-tail list.
func (s *Service) LongTails(userID string) []domain.LongTailPhrase {
	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]domain.LongTailPhrase, len(sess.longTails))
	copy(out, sess.longTails)
	return out
}

func trimSeed(s string) string {
	return strings.TrimSpace(s)
}
