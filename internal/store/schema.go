package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CreateSchema creates the quote tables.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS submitted_quote (
    reference TEXT PRIMARY KEY,
    insurance_type TEXT NOT NULL,
    status TEXT NOT NULL,
    agent_id TEXT NOT NULL DEFAULT '',
    total TEXT NOT NULL,
    submitted_at TIMESTAMP NOT NULL,
    draft TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_submitted_quote_line ON submitted_quote(insurance_type)`,
	`CREATE INDEX IF NOT EXISTS idx_submitted_quote_status ON submitted_quote(status)`,
	`CREATE INDEX IF NOT EXISTS idx_submitted_quote_submitted_at ON submitted_quote(submitted_at)`,
}
