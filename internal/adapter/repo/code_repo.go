package repo

import (
	"context"
	"fmt"

	"goldminer/internal/domain"
	"goldminer/internal/infra"
	"goldminer/internal/sqlinline"
)

// UpgradeCodeRepositoryPG is the server-issued single-use code registry.
type UpgradeCodeRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewUpgradeCodeRepository(sql infra.SQLExecutor) *UpgradeCodeRepositoryPG {
	return &UpgradeCodeRepositoryPG{sql: sql}
}

// Mint stores a freshly issued code.
func (r *UpgradeCodeRepositoryPG) Mint(ctx context.Context, code string) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertUpgradeCode, code)
	return err
}

// Redeem consumes a code exactly once via a conditional update. Replaying a
// consumed code or presenting an unknown one fails without side effects.
func (r *UpgradeCodeRepositoryPG) Redeem(ctx context.Context, code, accountID string) error {
	row := r.sql.QueryRow(ctx, sqlinline.QRedeemUpgradeCode, code, accountID)
	var redeemed string
	if err := row.Scan(&redeemed); err != nil {
		if !infra.IsNoRows(err) {
			return err
		}
		// Either the code never existed or it was already spent.
		var existing string
		var used bool
		lookup := r.sql.QueryRow(ctx, sqlinline.QSelectUpgradeCode, code)
		if err := lookup.Scan(&existing, &used); err != nil {
			if infra.IsNoRows(err) {
				return fmt.Errorf("code %q not issued: %w", code, domain.ErrInvalidUpgradeCode)
			}
			return err
		}
		if used {
			return domain.ErrCodeConsumed
		}
		return fmt.Errorf("code %q not redeemable: %w", code, domain.ErrInvalidUpgradeCode)
	}
	return nil
}

var _ domain.UpgradeCodeRepository = (*UpgradeCodeRepositoryPG)(nil)
