package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"goldminer/internal/domain"
	"goldminer/internal/infra"
	"goldminer/internal/sqlinline"
)

// AccountRepositoryPG implements domain.AccountRepository backed by PostgreSQL.
type AccountRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewAccountRepository(sql infra.SQLExecutor) *AccountRepositoryPG {
	return &AccountRepositoryPG{sql: sql}
}

// Get fetches an account by id.
func (r *AccountRepositoryPG) Get(ctx context.Context, id string) (*domain.Account, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectAccountByID, id)
	return scanAccount(row)
}

// CreateIfAbsent inserts a default free account, merging profile fields into
// an existing row. The conflict clause only touches email and display name,
// so a concurrent duplicate creation can never overwrite an existing plan or
// usage counter.
func (r *AccountRepositoryPG) CreateIfAbsent(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertAccount, account.ID, account.Email, account.DisplayName)
	return scanAccount(row)
}

// SaveUsage persists the day-scoped usage counter. The write is optimistic:
// concurrent sessions mutating the same account can lose an update, which is
// an accepted limitation of the usage model.
func (r *AccountRepositoryPG) SaveUsage(ctx context.Context, id string, usageCount int, lastUsageDate string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateAccountUsage, id, usageCount, lastUsageDate)
	return err
}

// Upgrade flips the plan to pro and records which code was redeemed when.
func (r *AccountRepositoryPG) Upgrade(ctx context.Context, id, code string, at time.Time) (*domain.Account, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QUpgradeAccountPlan, id, code, at)
	return scanAccount(row)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	err := row.Scan(&a.ID, &a.Email, &a.DisplayName, &a.Plan, &a.UsageCount,
		&a.LastUsageDate, &a.UpgradeCode, &a.UpgradedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

var _ domain.AccountRepository = (*AccountRepositoryPG)(nil)
