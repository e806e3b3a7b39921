package postgres

import (
	"context"
	"fmt"
)

const ddl = `
-- Categories table (system rows seeded by the setup command, user rows
-- created by the dashboard)
CREATE TABLE IF NOT EXISTS categories (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    name VARCHAR(100) NOT NULL,
    icon VARCHAR(50) DEFAULT '',
    color VARCHAR(9) DEFAULT '',
    is_system BOOLEAN DEFAULT false,
    user_id UUID DEFAULT NULL,
    created_at TIMESTAMPTZ DEFAULT NOW(),

    UNIQUE(name)
);

-- Transactions extracted from bank notification emails
CREATE TABLE IF NOT EXISTS transactions (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL,
    amount NUMERIC(14,2) NOT NULL,
    description TEXT NOT NULL,
    date TIMESTAMPTZ NOT NULL,
    source VARCHAR(50) NOT NULL,
    transaction_type VARCHAR(20) NOT NULL,
    email_id VARCHAR(255) DEFAULT '',
    email_subject TEXT DEFAULT '',
    needs_categorization BOOLEAN DEFAULT false,
    bank VARCHAR(50) DEFAULT '',
    category_id UUID REFERENCES categories(id) ON DELETE SET NULL,
    created_at TIMESTAMPTZ DEFAULT NOW()
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_transactions_user_id ON transactions(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date);
CREATE INDEX IF NOT EXISTS idx_transactions_pending ON transactions(user_id) WHERE needs_categorization;

-- Unique index for idempotent Gmail imports (one row per user and email)
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_unique_email
ON transactions(user_id, email_id) WHERE email_id <> '';
`

// migrateDDL adds new columns to tables created before they existed
const migrateDDL = `
-- Add bank column if not exists
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'bank') THEN
        ALTER TABLE transactions ADD COLUMN bank VARCHAR(50) DEFAULT '';
    END IF;
END $$;

-- Add needs_categorization column if not exists
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'needs_categorization') THEN
        ALTER TABLE transactions ADD COLUMN needs_categorization BOOLEAN DEFAULT false;
    END IF;
END $$;

-- Add email provenance columns if not exists
DO $$ BEGIN
    IF NOT EXISTS (SELECT 1 FROM information_schema.columns
                   WHERE table_name = 'transactions' AND column_name = 'email_id') THEN
        ALTER TABLE transactions ADD COLUMN email_id VARCHAR(255) DEFAULT '';
        ALTER TABLE transactions ADD COLUMN email_subject TEXT DEFAULT '';
    END IF;
END $$;

-- Recreate the idempotency index in case the table predates it
CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_unique_email
ON transactions(user_id, email_id) WHERE email_id <> '';
`

// EnsureSchema creates tables if they don't exist and runs migrations
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.Pool.Exec(ctx, ddl)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	// Run migrations for existing tables
	_, err = db.Pool.Exec(ctx, migrateDDL)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
