// migrate applies the schema. Statements are idempotent so the command can
// run on every deploy.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

var statements = []string{
	`create table if not exists accounts (
		id              text primary key,
		email           text not null,
		display_name    text not null default '',
		plan            text not null default 'free',
		usage_count     int  not null default 0,
		last_usage_date text,
		upgrade_code    text,
		upgraded_at     timestamptz,
		created_at      timestamptz not null default now(),
		updated_at      timestamptz not null default now()
	)`,
	`create unique index if not exists accounts_email_idx on accounts (email)`,
	`create table if not exists upgrade_codes (
		code       text primary key,
		used_by    text references accounts (id),
		used_at    timestamptz,
		created_at timestamptz not null default now()
	)`,
	`create table if not exists integration_tokens (
		provider   text primary key,
		token      text not null,
		properties jsonb not null default '{}'::jsonb,
		created_at timestamptz not null default now(),
		updated_at timestamptz not null default now()
	)`,
}

func main() {
	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetConnMaxLifetime(time.Minute)
	if err := db.Ping(); err != nil {
		fmt.Fprintf(os.Stderr, "ping database: %v\n", err)
		os.Exit(1)
	}

	for i, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			fmt.Fprintf(os.Stderr, "statement %d failed: %v\n", i+1, err)
			os.Exit(1)
		}
	}
	fmt.Printf("applied %d statements\n", len(statements))
}
