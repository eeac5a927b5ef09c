// planadmin flips account plans and mints single-use upgrade codes. It talks
// to the database directly and is meant for operators, not end users.
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"goldminer/internal/infra"
	"goldminer/internal/sqlinline"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func main() {
	var (
		idFlag        string
		emailFlag     string
		planFlag      string
		mintFlag      int
		keepUsageFlag bool
	)

	flag.StringVar(&idFlag, "id", "", "account ID to update")
	flag.StringVar(&emailFlag, "email", "", "account email to update")
	flag.StringVar(&planFlag, "plan", "", "plan to assign (free, pro)")
	flag.IntVar(&mintFlag, "mint", 0, "number of upgrade codes to mint")
	flag.BoolVar(&keepUsageFlag, "keep-usage", false, "preserve the current usage counter instead of resetting it")
	flag.Parse()

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "planadmin").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	switch {
	case mintFlag > 0:
		mintCodes(ctx, runner, mintFlag)
	case planFlag != "":
		setPlan(ctx, runner, idFlag, emailFlag, planFlag, keepUsageFlag)
	default:
		exitWithError(errors.New("nothing to do: pass -plan or -mint"))
	}
}

func mintCodes(ctx context.Context, runner *infra.SQLRunner, n int) {
	for i := 0; i < n; i++ {
		code, err := newUpgradeCode()
		if err != nil {
			exitWithError(fmt.Errorf("failed to generate code: %w", err))
		}
		if _, err := runner.Exec(ctx, sqlinline.QInsertUpgradeCode, code); err != nil {
			exitWithError(fmt.Errorf("failed to store code: %w", err))
		}
		fmt.Println(code)
	}
}

// newUpgradeCode draws the eight-character suffix from an alphabet without
// the lookalikes 0/O and 1/I.
func newUpgradeCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("GKM-PRO-")
	for _, c := range buf {
		b.WriteByte(codeAlphabet[int(c)%len(codeAlphabet)])
	}
	return b.String(), nil
}

func setPlan(ctx context.Context, runner *infra.SQLRunner, id, email, plan string, keepUsage bool) {
	plan = strings.ToLower(strings.TrimSpace(plan))
	switch plan {
	case "free", "pro":
	default:
		exitWithError(fmt.Errorf("unsupported plan %q", plan))
	}

	id = strings.TrimSpace(id)
	email = strings.TrimSpace(email)
	if id == "" && email == "" {
		exitWithError(errors.New("either -id or -email must be provided"))
	}

	if id == "" {
		row := runner.QueryRow(ctx, sqlinline.QSelectAccountByEmail, email)
		var (
			displayName, accPlan, lastUsage, code string
			usage                                 int
			upgradedAt                            *time.Time
			createdAt, updatedAt                  time.Time
		)
		if err := row.Scan(&id, &email, &displayName, &accPlan, &usage, &lastUsage, &code, &upgradedAt, &createdAt, &updatedAt); err != nil {
			exitWithError(fmt.Errorf("failed to load account: %w", err))
		}
	}

	row := runner.QueryRow(ctx, sqlinline.QSetAccountPlan, id, plan, keepUsage)
	var (
		updatedID, updatedEmail, updatedPlan string
		usageCount                           int
	)
	if err := row.Scan(&updatedID, &updatedEmail, &updatedPlan, &usageCount); err != nil {
		exitWithError(fmt.Errorf("failed to update plan: %w", err))
	}
	fmt.Printf("Account %s (%s) set to plan %s (usage_count=%d)\n", updatedID, updatedEmail, updatedPlan, usageCount)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
