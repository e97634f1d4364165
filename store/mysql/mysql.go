/*
Package mysql provides a MySQL-backed implementation of the storage
interfaces, matching the upstream reporting database.

PURPOSE:
  Same contract as store/sqlite with MySQL dialect differences:
  ON DUPLICATE KEY UPDATE instead of ON CONFLICT, DATETIME columns,
  and no process-level mutex - the server's concurrency control
  applies.

DSN:
  Standard go-sql-driver DSN, e.g.
  user:pass@tcp(localhost:3306)/receiving?parseTime=true

SEE ALSO:
  - engine/store.go: interface definitions
  - store/sqlite/sqlite.go: SQLite implementation
*/
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/warp/receiving-engine/engine"
)

// Store implements the storage interfaces using MySQL.
type Store struct {
	db *sql.DB
}

// New opens a MySQL store with the given DSN and ensures the schema.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

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
	statements := []string{`
	CREATE TABLE IF NOT EXISTS order_taxonomy (
		raw_code    VARCHAR(255) PRIMARY KEY,
		order_class VARCHAR(32) NOT NULL
	)`, `
	CREATE TABLE IF NOT EXISTS receiving_records (
		receipt_id     VARCHAR(255) NOT NULL,
		order_ref      VARCHAR(255) NOT NULL,
		system_ref     VARCHAR(255) NOT NULL,
		part_id        VARCHAR(255) NOT NULL DEFAULT '',
		raw_order_type VARCHAR(255) NOT NULL DEFAULT '',
		order_class    VARCHAR(32)  NOT NULL DEFAULT 'UNKNOWN',
		ship_from      VARCHAR(255) NOT NULL DEFAULT '',
		ship_to        VARCHAR(255) NOT NULL DEFAULT '',
		country        VARCHAR(64)  NOT NULL DEFAULT '',
		quantity       BIGINT NOT NULL DEFAULT 0,
		event_date     DATETIME NULL,
		fiscal_week    VARCHAR(10) NOT NULL DEFAULT 'Unknown',
		fiscal_year    VARCHAR(10) NOT NULL DEFAULT 'Unknown',
		fiscal_quarter VARCHAR(10) NOT NULL DEFAULT 'Unknown',
		fiscal_month   VARCHAR(10) NOT NULL DEFAULT 'Unknown',
		count_receipt  INT NOT NULL DEFAULT 0,
		count_order    INT NOT NULL DEFAULT 0,
		updated_at     DATETIME NOT NULL,
		PRIMARY KEY (receipt_id, order_ref, system_ref),
		KEY idx_records_event_date (event_date),
		KEY idx_records_fiscal (fiscal_year, fiscal_week)
	)`}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// RECEIVING STORE
// =============================================================================

func (s *Store) ExistingKeys(ctx context.Context) (map[engine.NaturalKey]bool, error) {
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
	return s.queryRecords(ctx, selectColumns+` FROM receiving_records
		ORDER BY receipt_id, order_ref, system_ref`)
}

// RecordsByDateRange returns persisted records whose event date falls
// in [from, to].
func (s *Store) RecordsByDateRange(ctx context.Context, from, to time.Time) ([]engine.NormalizedRecord, error) {
	return s.queryRecords(ctx, selectColumns+` FROM receiving_records
		WHERE event_date IS NOT NULL AND event_date BETWEEN ? AND ?
		ORDER BY event_date`,
		from.UTC(), to.UTC())
}

// ApplyOps applies the whole plan in one transaction.
func (s *Store) ApplyOps(ctx context.Context, ops []engine.UpsertOp) error {
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

func (s *Store) SyncTaxonomy(ctx context.Context, table map[string]engine.OrderClass) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for code, class := range table {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO order_taxonomy (raw_code, order_class) VALUES (?, ?)
			ON DUPLICATE KEY UPDATE order_class = VALUES(order_class)`,
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

func buildUpsertQuery() string {
	cols := append([]string{engine.ColReceiptID, engine.ColOrderRef, engine.ColSystemRef},
		engine.NonKeyColumns...)
	cols = append(cols, "updated_at")

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	updates := make([]string, 0, len(engine.NonKeyColumns)+1)
	for _, col := range engine.NonKeyColumns {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", col, col))
	}
	updates = append(updates, "updated_at = VALUES(updated_at)")

	return fmt.Sprintf(`INSERT INTO receiving_records (%s) VALUES (%s)
		ON DUPLICATE KEY UPDATE %s`,
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
	var eventDate sql.NullTime

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
	if eventDate.Valid {
		t := eventDate.Time.UTC()
		rec.EventDate = &t
	}
	return rec, nil
}
