/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements engine.ReceivingStore and engine.TaxonomyStore using
  SQLite. The same patterns apply to MySQL (see store/mysql), which
  matches the upstream reporting database - only dialect differences.

KEY TABLES:
  receiving_records: one row per natural key, overwritten on conflict
  order_taxonomy:    the classification table as configured

UPSERT SEMANTICS:
  ApplyOps runs the whole plan in one transaction using
  INSERT ... ON CONFLICT(receipt_id, order_ref, system_ref)
  DO UPDATE. Key columns are write-once; every other column
  overwrites. Re-applying a plan only touches updated_at.

WAL MODE:
  Opened with WAL for better read concurrency and crash recovery.

SEE ALSO:
  - engine/store.go: interface definitions
  - engine/store/memory.go: in-memory implementation for testing
  - store/mysql/mysql.go: MySQL implementation
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/receiving-engine/engine"
)

// Store implements the storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS receiving_records (
		receipt_id     TEXT NOT NULL,
		order_ref      TEXT NOT NULL,
		system_ref     TEXT NOT NULL,
		part_id        TEXT NOT NULL DEFAULT '',
		raw_order_type TEXT NOT NULL DEFAULT '',
		order_class    TEXT NOT NULL DEFAULT 'UNKNOWN',
		ship_from      TEXT NOT NULL DEFAULT '',
		ship_to        TEXT NOT NULL DEFAULT '',
		country        TEXT NOT NULL DEFAULT '',
		quantity       INTEGER NOT NULL DEFAULT 0,
		event_date     TEXT,
		fiscal_week    TEXT NOT NULL DEFAULT 'Unknown',
		fiscal_year    TEXT NOT NULL DEFAULT 'Unknown',
		fiscal_quarter TEXT NOT NULL DEFAULT 'Unknown',
		fiscal_month   TEXT NOT NULL DEFAULT 'Unknown',
		count_receipt  INTEGER NOT NULL DEFAULT 0,
		count_order    INTEGER NOT NULL DEFAULT 0,
		updated_at     TEXT NOT NULL,
		PRIMARY KEY (receipt_id, order_ref, system_ref)
	);

	CREATE INDEX IF NOT EXISTS idx_records_event_date
		ON receiving_records(event_date);
	CREATE INDEX IF NOT EXISTS idx_records_fiscal
		ON receiving_records(fiscal_year, fiscal_week);

	CREATE TABLE IF NOT EXISTS order_taxonomy (
		raw_code    TEXT PRIMARY KEY,
		order_class TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECEIVING STORE
// =============================================================================

func (s *Store) ExistingKeys(ctx context.Context) (map[engine.NaturalKey]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT receipt_id, order_ref, system_ref FROM receiving_records`)
	if err != nil {
		return nil, fmt.Errorf("failed to load keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[engine.NaturalKey]bool)
	for rows.Next() {
		var k engine.NaturalKey
		if err := rows.Scan(&k.ReceiptID, &k.OrderRef, &k.SystemRef); err != nil {
			return nil, err
		}
		keys[k] = true
	}
	return keys, rows.Err()
}

func (s *Store) ExistingRecords(ctx context.Context) ([]engine.NormalizedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, selectColumns+` FROM receiving_records
		ORDER BY receipt_id, order_ref, system_ref`)
}

// RecordsByDateRange returns persisted records whose event date falls
// in [from, to].
func (s *Store) RecordsByDateRange(ctx context.Context, from, to time.Time) ([]engine.NormalizedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryRecords(ctx, selectColumns+` FROM receiving_records
		WHERE event_date IS NOT NULL AND event_date BETWEEN ? AND ?
		ORDER BY event_date`,
		from.UTC().Format(dateLayout), to.UTC().Format(dateLayout))
}

// ApplyOps applies the whole plan in one transaction. Either every op
// lands or none do.
func (s *Store) ApplyOps(ctx context.Context, ops []engine.UpsertOp) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.PrepareContext(ctx, upsertQuery)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(dateLayout)
	for _, op := range ops {
		args := make([]any, 0, len(engine.NonKeyColumns)+4)
		args = append(args, op.Key.ReceiptID, op.Key.OrderRef, op.Key.SystemRef)
		for _, col := range engine.NonKeyColumns {
			args = append(args, op.Fields[col])
		}
		args = append(args, now)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to upsert %s: %w", op.Key, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// TAXONOMY STORE
// =============================================================================

// SyncTaxonomy upserts the configured classification table, mirroring
// the upstream reporting schema.
func (s *Store) SyncTaxonomy(ctx context.Context, table map[string]engine.OrderClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for code, class := range table {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO order_taxonomy (raw_code, order_class) VALUES (?, ?)
			ON CONFLICT(raw_code) DO UPDATE SET order_class = excluded.order_class`,
			code, string(class))
		if err != nil {
			return fmt.Errorf("failed to sync taxonomy %q: %w", code, err)
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// QUERY HELPERS
// =============================================================================

const dateLayout = "2006-01-02 15:04:05"

const selectColumns = `SELECT receipt_id, order_ref, system_ref, part_id,
	raw_order_type, order_class, ship_from, ship_to, country, quantity,
	event_date, fiscal_week, fiscal_year, fiscal_quarter, fiscal_month,
	count_receipt, count_order`

var upsertQuery = buildUpsertQuery()

// buildUpsertQuery derives the statement from the shared column list
// so the store and the planner cannot drift apart.
func buildUpsertQuery() string {
	cols := append([]string{engine.ColReceiptID, engine.ColOrderRef, engine.ColSystemRef},
		engine.NonKeyColumns...)
	cols = append(cols, "updated_at")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	updates := make([]string, 0, len(engine.NonKeyColumns)+1)
	for _, col := range engine.NonKeyColumns {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}
	updates = append(updates, "updated_at = excluded.updated_at")

	return fmt.Sprintf(`INSERT INTO receiving_records (%s) VALUES (%s)
		ON CONFLICT(receipt_id, order_ref, system_ref) DO UPDATE SET %s`,
		strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "))
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]engine.NormalizedRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var out []engine.NormalizedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanRecord(rows *sql.Rows) (engine.NormalizedRecord, error) {
	var rec engine.NormalizedRecord
	var orderClass string
	var eventDate sql.NullString

	err := rows.Scan(
		&rec.ReceiptID, &rec.OrderRef, &rec.SystemRef, &rec.PartID,
		&rec.RawOrderType, &orderClass, &rec.ShipFrom, &rec.ShipTo,
		&rec.Country, &rec.Quantity, &eventDate, &rec.FiscalWeek,
		&rec.FiscalYear, &rec.FiscalQuarter, &rec.FiscalMonth,
		&rec.CountReceipt, &rec.CountOrder,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan record: %w", err)
	}

	rec.OrderClass = engine.OrderClass(orderClass)
	if eventDate.Valid && eventDate.String != "" {
		if t, perr := time.ParseInLocation(dateLayout, eventDate.String, time.UTC); perr == nil {
			rec.EventDate = &t
		}
	}
	return rec, nil
}
