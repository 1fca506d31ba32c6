package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Recur store.
var Migrations = migrate.NewGroup("recur")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_recur_prices",
			Version: "20250101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_prices (
    denomination TEXT NOT NULL,
    tier         SMALLINT NOT NULL,
    amount       TEXT NOT NULL DEFAULT '0',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    PRIMARY KEY (denomination, tier)
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_prices`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_recur_subscriptions",
			Version: "20250101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_subscriptions (
    address      TEXT PRIMARY KEY,
    seq          BIGSERIAL,
    expires_at   BIGINT NOT NULL DEFAULT 0,
    denomination TEXT NOT NULL DEFAULT '',
    auto_renew   BOOLEAN NOT NULL DEFAULT FALSE,
    tier         SMALLINT NOT NULL DEFAULT 0,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_recur_subs_seq ON recur_subscriptions (seq);
CREATE INDEX IF NOT EXISTS idx_recur_subs_expires ON recur_subscriptions (expires_at) WHERE auto_renew;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_subscriptions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_recur_receipts",
			Version: "20250101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_receipts (
    id           TEXT PRIMARY KEY,
    payer        TEXT NOT NULL DEFAULT '',
    treasury     TEXT NOT NULL DEFAULT '',
    denomination TEXT NOT NULL DEFAULT '',
    tier         SMALLINT NOT NULL DEFAULT 0,
    kind         TEXT NOT NULL DEFAULT '',
    amount       TEXT NOT NULL DEFAULT '0',
    refunded     TEXT NOT NULL DEFAULT '0',
    batch_run_id TEXT NOT NULL DEFAULT '',
    created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_recur_receipts_payer ON recur_receipts (payer, created_at);
CREATE INDEX IF NOT EXISTS idx_recur_receipts_batch ON recur_receipts (batch_run_id) WHERE batch_run_id <> '';
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_receipts`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_recur_settings",
			Version: "20250101000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS recur_settings (
    id             SMALLINT PRIMARY KEY,
    treasury       TEXT NOT NULL DEFAULT '',
    period_policy  TEXT NOT NULL DEFAULT 'months',
    period_months  INT NOT NULL DEFAULT 1,
    period_seconds BIGINT NOT NULL DEFAULT 0,
    renew_window   BIGINT NOT NULL DEFAULT 0,
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS recur_settings`)
				return err
			},
		},
	)
}
