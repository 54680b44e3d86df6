package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"bilancio/internal/core"
)

// ErrNotFound is returned when a row does not exist or belongs to another owner.
var ErrNotFound = errors.New("not found")

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	// modernc.org/sqlite serializes writes through a single connection
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// --- Transactions ---

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions (id, owner_id, amount_cents, kind, category_id, description, date)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.OwnerID, tx.Amount.Cents, string(tx.Kind), tx.CategoryID, tx.Description, tx.Date.String())
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", tx.ID,
		"kind", tx.Kind,
		"amount_cents", tx.Amount.Cents,
		"category_id", tx.CategoryID)

	return tx, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, amount_cents, kind, category_id, description, date
		FROM transactions
		WHERE id = ? AND owner_id = ?`, id, ownerID)

	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Transaction{}, ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// ListTransactions returns the owner's records within [from, to]. A zero date
// leaves that bound open.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string, from, to core.Date) ([]core.Transaction, error) {
	query := `
		SELECT id, owner_id, amount_cents, kind, category_id, description, date
		FROM transactions
		WHERE owner_id = ?`
	args := []any{ownerID}

	if !from.IsEmpty() {
		query += ` AND date >= ?`
		args = append(args, from.String())
	}
	if !to.IsEmpty() {
		query += ` AND date <= ?`
		args = append(args, to.String())
	}
	query += ` ORDER BY date DESC, created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET amount_cents = ?, kind = ?, category_id = ?, description = ?, date = ?,
		    synced = 0, sync_error = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?`,
		tx.Amount.Cents, string(tx.Kind), tx.CategoryID, tx.Description, tx.Date.String(),
		tx.ID, tx.OwnerID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM transactions WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Categories ---

func (r *SQLiteRepository) ListCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, kind, icon, color FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var kind string
		if err := rows.Scan(&c.ID, &c.Name, &kind, &c.Icon, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Kind = core.Kind(kind)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return out, nil
}

// CategoryCatalog returns all categories keyed by ID.
func (r *SQLiteRepository) CategoryCatalog(ctx context.Context) (map[string]core.Category, error) {
	categories, err := r.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]core.Category, len(categories))
	for _, c := range categories {
		catalog[c.ID] = c
	}
	return catalog, nil
}

// --- Recurring schedules ---

func (r *SQLiteRepository) CreateSchedule(ctx context.Context, s core.RecurringSchedule) (core.RecurringSchedule, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_schedules
			(id, owner_id, amount_cents, description, category_id, kind, frequency, start_date, end_date, next_date, active)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, s.OwnerID, s.Amount.Cents, s.Description, s.CategoryID, string(s.Kind), string(s.Frequency),
		s.StartDate.String(), nullDate(s.EndDate), s.NextOccurrence.String(), boolToInt(s.Active))
	if err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("create schedule: %w", err)
	}

	slog.InfoContext(ctx, "Recurring schedule saved",
		"id", s.ID,
		"frequency", s.Frequency,
		"amount_cents", s.Amount.Cents)

	return s, nil
}

func (r *SQLiteRepository) GetSchedule(ctx context.Context, ownerID, id string) (core.RecurringSchedule, error) {
	row := r.db.QueryRowContext(ctx, scheduleColumns+` WHERE id = ? AND owner_id = ?`, id, ownerID)
	s, err := scanSchedule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.RecurringSchedule{}, ErrNotFound
		}
		return core.RecurringSchedule{}, fmt.Errorf("get schedule: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) ListSchedules(ctx context.Context, ownerID string) ([]core.RecurringSchedule, error) {
	rows, err := r.db.QueryContext(ctx, scheduleColumns+` WHERE owner_id = ? ORDER BY next_date`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *SQLiteRepository) UpdateSchedule(ctx context.Context, s core.RecurringSchedule) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_schedules
		SET amount_cents = ?, description = ?, category_id = ?, kind = ?, frequency = ?,
		    start_date = ?, end_date = ?, next_date = ?, active = ?
		WHERE id = ? AND owner_id = ?`,
		s.Amount.Cents, s.Description, s.CategoryID, string(s.Kind), string(s.Frequency),
		s.StartDate.String(), nullDate(s.EndDate), s.NextOccurrence.String(), boolToInt(s.Active),
		s.ID, s.OwnerID)
	if err != nil {
		return fmt.Errorf("update schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteSchedule(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM recurring_schedules WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListDueSchedules returns every active schedule whose next occurrence is on
// or before asOf, across all owners.
func (r *SQLiteRepository) ListDueSchedules(ctx context.Context, asOf core.Date) ([]core.RecurringSchedule, error) {
	rows, err := r.db.QueryContext(ctx, scheduleColumns+`
		WHERE active = 1 AND next_date <= ?
		ORDER BY next_date`, asOf.String())
	if err != nil {
		return nil, fmt.Errorf("list due schedules: %w", err)
	}
	defer rows.Close()
	return collectSchedules(rows)
}

func (r *SQLiteRepository) AdvanceSchedule(ctx context.Context, id string, next core.Date) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_schedules SET next_date = ? WHERE id = ?`, next.String(), id)
	if err != nil {
		return fmt.Errorf("advance schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeactivateSchedule(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_schedules SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate schedule: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	slog.InfoContext(ctx, "Recurring schedule deactivated", "id", id)
	return nil
}

// --- Backup bookkeeping ---

// PendingBackupRecord carries the minimal data needed to enqueue a backup.
type PendingBackupRecord struct {
	ID        string
	OwnerID   string
	CreatedAt time.Time
}

func (r *SQLiteRepository) ListPendingBackup(ctx context.Context, limit int) ([]PendingBackupRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, owner_id, created_at
		FROM transactions
		WHERE synced = 0 AND sync_error = 0
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending backup: %w", err)
	}
	defer rows.Close()

	var out []PendingBackupRecord
	for rows.Next() {
		var p PendingBackupRecord
		var createdAt string
		if err := rows.Scan(&p.ID, &p.OwnerID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan pending backup: %w", err)
		}
		p.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending backup: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) MarkBackedUp(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET synced = 1, sync_error = 0, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark backed up: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as backed up", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkBackupError(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET sync_error = 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark backup error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with backup error", "id", id)
	return nil
}

// RecordBackup appends an audit row to backup_log.
func (r *SQLiteRepository) RecordBackup(ctx context.Context, ownerID, recordID, action, status, errMsg string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO backup_log (id, owner_id, record_id, action, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), ownerID, recordID, action, status, errMsg)
	if err != nil {
		return fmt.Errorf("record backup: %w", err)
	}
	return nil
}

// --- scanning helpers ---

const scheduleColumns = `
	SELECT id, owner_id, amount_cents, description, category_id, kind, frequency,
	       start_date, end_date, next_date, active
	FROM recurring_schedules`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var tx core.Transaction
	var kind, date string
	if err := row.Scan(&tx.ID, &tx.OwnerID, &tx.Amount.Cents, &kind, &tx.CategoryID, &tx.Description, &date); err != nil {
		return core.Transaction{}, err
	}
	tx.Kind = core.Kind(kind)
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", date, err)
	}
	tx.Date = d
	return tx, nil
}

func scanSchedule(row rowScanner) (core.RecurringSchedule, error) {
	var s core.RecurringSchedule
	var kind, frequency, start, next string
	var end sql.NullString
	var active int
	if err := row.Scan(&s.ID, &s.OwnerID, &s.Amount.Cents, &s.Description, &s.CategoryID,
		&kind, &frequency, &start, &end, &next, &active); err != nil {
		return core.RecurringSchedule{}, err
	}
	s.Kind = core.Kind(kind)
	s.Frequency = core.Frequency(frequency)
	s.Active = active != 0

	var err error
	if s.StartDate, err = core.ParseDate(start); err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("parse start_date %q: %w", start, err)
	}
	if end.Valid {
		if s.EndDate, err = core.ParseDate(end.String); err != nil {
			return core.RecurringSchedule{}, fmt.Errorf("parse end_date %q: %w", end.String, err)
		}
	}
	if s.NextOccurrence, err = core.ParseDate(next); err != nil {
		return core.RecurringSchedule{}, fmt.Errorf("parse next_date %q: %w", next, err)
	}
	return s, nil
}

func collectSchedules(rows *sql.Rows) ([]core.RecurringSchedule, error) {
	var out []core.RecurringSchedule
	for rows.Next() {
		s, err := scanSchedule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return out, nil
}

func nullDate(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
