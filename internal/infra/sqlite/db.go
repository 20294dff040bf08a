// Package sqlite is the local record store: a single SQLite file (or an
// in-memory database) holding expenses, income, budgets, recipients and
// remittances. It implements port.RecordStore.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/boddenberg/family-finance-go/internal/port"
)

var tracer = otel.Tracer("sqlite")

// Times are stored as fixed-width UTC text so ORDER BY on the column sorts
// chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

var _ port.RecordStore = (*DB)(nil)

// DB is the SQLite-backed record store.
type DB struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the database at path and applies the
// schema. Use ":memory:" for a throwaway store.
func Open(path string, logger *zap.Logger) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared and serialises writers.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	for _, stmt := range Migrations() {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	logger.Info("sqlite store opened", zap.String("path", path))
	return &DB{db: db, logger: logger, now: time.Now}, nil
}

// Migrations returns the schema statements, one statement per string.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS expenses (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL,
			amount          REAL NOT NULL,
			category        TEXT NOT NULL,
			subcategory     TEXT NOT NULL DEFAULT '',
			description     TEXT NOT NULL,
			date            TEXT NOT NULL,
			payment_method  TEXT NOT NULL DEFAULT '',
			location        TEXT NOT NULL DEFAULT '',
			recurring       INTEGER NOT NULL DEFAULT 0,
			tags            TEXT,
			payment_details TEXT,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses(user_id, date)`,

		`CREATE TABLE IF NOT EXISTS income (
			id          TEXT PRIMARY KEY,
			user_id     TEXT NOT NULL,
			amount      REAL NOT NULL,
			source      TEXT NOT NULL,
			type        TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			date        TEXT NOT NULL,
			recurring   INTEGER NOT NULL DEFAULT 0,
			frequency   TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_income_user_date ON income(user_id, date)`,

		`CREATE TABLE IF NOT EXISTS budgets (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			category   TEXT NOT NULL,
			amount     REAL NOT NULL,
			spent      REAL NOT NULL DEFAULT 0,
			period     TEXT NOT NULL,
			rollover   INTEGER NOT NULL DEFAULT 0,
			color      TEXT NOT NULL DEFAULT '',
			icon       TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_budgets_user ON budgets(user_id)`,

		`CREATE TABLE IF NOT EXISTS recipients (
			id               TEXT PRIMARY KEY,
			user_id          TEXT NOT NULL,
			name             TEXT NOT NULL,
			relationship     TEXT NOT NULL,
			phone            TEXT NOT NULL DEFAULT '',
			email            TEXT NOT NULL DEFAULT '',
			city             TEXT NOT NULL DEFAULT '',
			country          TEXT NOT NULL DEFAULT '',
			bank_name        TEXT NOT NULL DEFAULT '',
			account_name     TEXT NOT NULL DEFAULT '',
			account_number   TEXT NOT NULL DEFAULT '',
			preferred_method TEXT NOT NULL DEFAULT '',
			notes            TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recipients_user ON recipients(user_id)`,

		`CREATE TABLE IF NOT EXISTS remittances (
			id                 TEXT PRIMARY KEY,
			user_id            TEXT NOT NULL,
			recipient_id       TEXT NOT NULL,
			recipient_name     TEXT NOT NULL DEFAULT '',
			amount             REAL NOT NULL,
			currency           TEXT NOT NULL,
			exchange_rate      REAL NOT NULL,
			local_amount       REAL NOT NULL,
			local_currency     TEXT NOT NULL,
			transfer_method    TEXT NOT NULL,
			transfer_fee       REAL NOT NULL DEFAULT 0,
			total_cost         REAL NOT NULL,
			purpose            TEXT NOT NULL DEFAULT '',
			delivery_option    TEXT NOT NULL DEFAULT '',
			status             TEXT NOT NULL,
			transfer_reference TEXT NOT NULL DEFAULT '',
			expected_delivery  TEXT,
			notes              TEXT NOT NULL DEFAULT '',
			date               TEXT NOT NULL,
			created_at         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_remittances_user_date ON remittances(user_id, date)`,
	}
}

// Close closes the underlying database.
func (s *DB) Close() error {
	return s.db.Close()
}

// Ping checks the database is reachable.
func (s *DB) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ─── Column helpers ─────────────────────────────────────────────────────────

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// jsonColumn encodes v for a nullable TEXT column; nil values stay NULL.
func jsonColumn(v any, isNil bool) (sql.NullString, error) {
	if isNil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
