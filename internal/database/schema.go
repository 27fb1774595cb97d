package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is idempotent so it can run on every start
var schema = []string{
	`CREATE TABLE IF NOT EXISTS campaigns (
		id                            UUID PRIMARY KEY,
		name                          TEXT NOT NULL,
		description                   TEXT,
		status                        TEXT NOT NULL DEFAULT 'DRAFT'
			CHECK (status IN ('DRAFT', 'SCHEDULED', 'ACTIVE', 'PAUSED', 'ENDED')),
		start_date                    TIMESTAMPTZ NOT NULL,
		end_date                      TIMESTAMPTZ NOT NULL,
		applies_to                    TEXT[] NOT NULL,
		only_products_with_permission BOOLEAN NOT NULL DEFAULT TRUE,
		discount_source               TEXT NOT NULL
			CHECK (discount_source IN ('PRODUCT_PERMISSION', 'ARTIST_DEFAULT', 'OVERRIDE')),
		max_discount_percent          NUMERIC(5, 2) NOT NULL
			CHECK (max_discount_percent >= 0 AND max_discount_percent <= 50),
		use_max_as_override           BOOLEAN NOT NULL DEFAULT FALSE,
		badge_text                    TEXT NOT NULL DEFAULT '',
		badge_text_localized          TEXT NOT NULL DEFAULT '',
		created_by                    TEXT NOT NULL DEFAULT '',
		total_orders                  BIGINT NOT NULL DEFAULT 0,
		total_revenue                 NUMERIC(14, 2) NOT NULL DEFAULT 0,
		total_discount                NUMERIC(14, 2) NOT NULL DEFAULT 0,
		created_at                    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (start_date < end_date),
		CHECK (cardinality(applies_to) > 0)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_campaigns_status_window
		ON campaigns (status, start_date, end_date)`,
}

// Migrate creates the campaign table and its lookup index
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
