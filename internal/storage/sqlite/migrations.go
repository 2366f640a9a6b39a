package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// All dates are stored as Unix seconds; NULL marks an unset optional date.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    preferred_currency TEXT NOT NULL DEFAULT 'HTG',
    is_active INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS accounts (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    institution TEXT,
    provider TEXT,
    currency TEXT NOT NULL,
    balance REAL NOT NULL DEFAULT 0,
    initial_balance REAL NOT NULL DEFAULT 0,
    color TEXT NOT NULL DEFAULT '#3B82F6',
    icon TEXT NOT NULL DEFAULT '💳',
    is_active INTEGER NOT NULL DEFAULT 1,
    include_in_total INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS transactions (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    type TEXT NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL,
    account_id TEXT,
    to_account_id TEXT,
    fee REAL NOT NULL DEFAULT 0,
    category TEXT,
    description TEXT NOT NULL DEFAULT '',
    date INTEGER NOT NULL,
    linked_module TEXT,
    linked_id TEXT,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS budgets (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    category TEXT NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL,
    period TEXT NOT NULL DEFAULT 'monthly',
    start_date INTEGER NOT NULL,
    end_date INTEGER NOT NULL,
    icon TEXT NOT NULL DEFAULT '🎯',
    color TEXT NOT NULL DEFAULT '#667eea',
    alert_threshold INTEGER NOT NULL DEFAULT 80,
    status TEXT NOT NULL DEFAULT 'draft',
    source_account_id TEXT,
    allocated_at INTEGER,
    returned_at INTEGER,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS sols (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    name TEXT NOT NULL,
    type TEXT NOT NULL,
    amount REAL NOT NULL,
    currency TEXT NOT NULL,
    frequency TEXT NOT NULL,
    start_date INTEGER NOT NULL,
    end_date INTEGER,
    current_recipient_index INTEGER NOT NULL DEFAULT 0,
    next_payment_date INTEGER NOT NULL,
    total_contributions REAL NOT NULL DEFAULT 0,
    target_amount REAL NOT NULL DEFAULT 0,
    is_active INTEGER NOT NULL DEFAULT 1,
    description TEXT NOT NULL DEFAULT '',
    icon TEXT NOT NULL DEFAULT '🤝',
    color TEXT NOT NULL DEFAULT '#667eea',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS sol_members (
    sol_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    phone TEXT NOT NULL DEFAULT '',
    has_received INTEGER NOT NULL DEFAULT 0,
    received_date INTEGER,
    PRIMARY KEY (sol_id, position),
    FOREIGN KEY (sol_id) REFERENCES sols(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_accounts_user ON accounts(user_id, is_active);
CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date);
CREATE INDEX IF NOT EXISTS idx_transactions_user_account ON transactions(user_id, account_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user_type_date ON transactions(user_id, type, date);
CREATE INDEX IF NOT EXISTS idx_transactions_user_category_date ON transactions(user_id, category, date);
CREATE INDEX IF NOT EXISTS idx_budgets_user_category ON budgets(user_id, category);
CREATE INDEX IF NOT EXISTS idx_budgets_status_end ON budgets(status, end_date);
CREATE INDEX IF NOT EXISTS idx_sols_user ON sols(user_id, is_active);
CREATE INDEX IF NOT EXISTS idx_sol_members_sol ON sol_members(sol_id);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
