package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"hubtrack/internal/core"
	"hubtrack/internal/store"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var _ store.Store = (*SQLiteRepository)(nil)

const timeLayout = time.RFC3339Nano

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	dsn := "file:" + dbPath +
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// mapError translates driver constraint failures into core error kinds.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", core.ErrNotFound, err)
		}
		if se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(se.Error(), "UNIQUE") {
			return fmt.Errorf("%w: %v", core.ErrDuplicateKey, err)
		}
	}
	return err
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// Entrepreneurs

const entrepreneurColumns = `id, name, surname, id_number, email, phone, hub, status, created_at`

func scanEntrepreneur(row interface{ Scan(...any) error }) (core.Entrepreneur, error) {
	var (
		e       core.Entrepreneur
		created string
	)
	if err := row.Scan(&e.ID, &e.Name, &e.Surname, &e.IDNumber, &e.Email, &e.Phone, &e.Hub, &e.Status, &created); err != nil {
		return core.Entrepreneur{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return core.Entrepreneur{}, err
	}
	e.CreatedAt = t
	return e, nil
}

func (r *SQLiteRepository) InsertEntrepreneur(ctx context.Context, e core.Entrepreneur) (core.Entrepreneur, error) {
	e.Email = core.NormalizeEmail(e.Email)
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entrepreneurs (name, surname, id_number, email, phone, hub, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Surname, e.IDNumber, e.Email, e.Phone, string(e.Hub), string(e.Status), formatTime(e.CreatedAt))
	if err != nil {
		return core.Entrepreneur{}, fmt.Errorf("insert entrepreneur: %w", mapError(err))
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.Entrepreneur{}, fmt.Errorf("entrepreneur id: %w", err)
	}
	slog.DebugContext(ctx, "Entrepreneur saved to SQLite", "entrepreneur_id", e.ID, "hub", e.Hub)
	return e, nil
}

func (r *SQLiteRepository) GetEntrepreneur(ctx context.Context, id int64) (core.Entrepreneur, error) {
	e, err := scanEntrepreneur(r.db.QueryRowContext(ctx,
		`SELECT `+entrepreneurColumns+` FROM entrepreneurs WHERE id = ?`, id))
	if err != nil {
		return core.Entrepreneur{}, fmt.Errorf("get entrepreneur %d: %w", id, mapError(err))
	}
	return e, nil
}

func (r *SQLiteRepository) ListEntrepreneurs(ctx context.Context) ([]core.Entrepreneur, error) {
	return listEntrepreneurs(ctx, r.db)
}

func listEntrepreneurs(ctx context.Context, q querier) ([]core.Entrepreneur, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+entrepreneurColumns+` FROM entrepreneurs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list entrepreneurs: %w", err)
	}
	defer rows.Close()
	out := make([]core.Entrepreneur, 0)
	for rows.Next() {
		e, err := scanEntrepreneur(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entrepreneur: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) SetEntrepreneurStatus(ctx context.Context, id int64, status core.AccountStatus) (core.Entrepreneur, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE entrepreneurs SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return core.Entrepreneur{}, fmt.Errorf("update entrepreneur status: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Entrepreneur{}, fmt.Errorf("update entrepreneur %d: %w", id, core.ErrNotFound)
	}
	return r.GetEntrepreneur(ctx, id)
}

// Businesses

const businessColumns = `id, entrepreneur_id, name, registration_number, business_type, industry, turnover_range, years_operating, created_at`

func scanBusiness(row interface{ Scan(...any) error }) (core.Business, error) {
	var (
		b       core.Business
		created string
	)
	if err := row.Scan(&b.ID, &b.EntrepreneurID, &b.Name, &b.RegistrationNumber, &b.Type,
		&b.Industry, &b.TurnoverRange, &b.YearsOperating, &created); err != nil {
		return core.Business{}, err
	}
	t, err := parseTime(created)
	if err != nil {
		return core.Business{}, err
	}
	b.CreatedAt = t
	return b, nil
}

func (r *SQLiteRepository) InsertBusiness(ctx context.Context, b core.Business) (core.Business, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO businesses (entrepreneur_id, name, registration_number, business_type, industry, turnover_range, years_operating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.EntrepreneurID, b.Name, b.RegistrationNumber, string(b.Type), b.Industry, string(b.TurnoverRange), b.YearsOperating, formatTime(b.CreatedAt))
	if err != nil {
		return core.Business{}, fmt.Errorf("insert business: %w", mapError(err))
	}
	if b.ID, err = res.LastInsertId(); err != nil {
		return core.Business{}, fmt.Errorf("business id: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBusiness(ctx context.Context, id int64) (core.Business, error) {
	b, err := scanBusiness(r.db.QueryRowContext(ctx,
		`SELECT `+businessColumns+` FROM businesses WHERE id = ?`, id))
	if err != nil {
		return core.Business{}, fmt.Errorf("get business %d: %w", id, mapError(err))
	}
	return b, nil
}

func (r *SQLiteRepository) ListBusinessesByEntrepreneur(ctx context.Context, entrepreneurID int64) ([]core.Business, error) {
	return listBusinesses(ctx, r.db, `WHERE entrepreneur_id = ?`, entrepreneurID)
}

func (r *SQLiteRepository) ListBusinesses(ctx context.Context) ([]core.Business, error) {
	return listBusinesses(ctx, r.db, "")
}

func listBusinesses(ctx context.Context, q querier, where string, args ...any) ([]core.Business, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+businessColumns+` FROM businesses `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	defer rows.Close()
	out := make([]core.Business, 0)
	for rows.Next() {
		b, err := scanBusiness(rows)
		if err != nil {
			return nil, fmt.Errorf("scan business: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Payments

const paymentColumns = `id, business_id, entrepreneur_id, month, year, status, notes, created_at, updated_at, updated_by`

func scanPayment(row interface{ Scan(...any) error }) (core.PaymentRecord, error) {
	var (
		p                core.PaymentRecord
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.BusinessID, &p.EntrepreneurID, &p.Month, &p.Year,
		&p.Status, &p.Notes, &created, &updated, &p.UpdatedBy); err != nil {
		return core.PaymentRecord{}, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return core.PaymentRecord{}, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return core.PaymentRecord{}, err
	}
	return p, nil
}

func (r *SQLiteRepository) InsertPayment(ctx context.Context, p core.PaymentRecord) (core.PaymentRecord, core.PaymentStatusChange, error) {
	var change core.PaymentStatusChange
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO payments (business_id, entrepreneur_id, month, year, status, notes, created_at, updated_at, updated_by)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.BusinessID, p.EntrepreneurID, p.Month, p.Year, string(p.Status), p.Notes,
			formatTime(p.CreatedAt), formatTime(p.UpdatedAt), string(p.UpdatedBy))
		if err != nil {
			return fmt.Errorf("insert payment: %w", mapError(err))
		}
		if p.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("payment id: %w", err)
		}
		change, err = insertChange(ctx, tx, core.PaymentStatusChange{
			PaymentID: p.ID,
			To:        p.Status,
			Actor:     p.UpdatedBy,
			At:        p.CreatedAt,
		})
		return err
	})
	if err != nil {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, err
	}
	slog.InfoContext(ctx, "Payment saved to SQLite",
		"payment_id", p.ID, "business_id", p.BusinessID, "month", p.Month, "year", p.Year, "status", p.Status)
	return p, change, nil
}

func (r *SQLiteRepository) GetPayment(ctx context.Context, id int64) (core.PaymentRecord, error) {
	return getPayment(ctx, r.db, id)
}

func getPayment(ctx context.Context, q querier, id int64) (core.PaymentRecord, error) {
	p, err := scanPayment(q.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ?`, id))
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("get payment %d: %w", id, mapError(err))
	}
	return p, nil
}

func (r *SQLiteRepository) ListPaymentsByBusiness(ctx context.Context, businessID int64) ([]core.PaymentRecord, error) {
	return listPayments(ctx, r.db, `WHERE business_id = ?`, businessID)
}

func (r *SQLiteRepository) ListPaymentsByEntrepreneur(ctx context.Context, entrepreneurID int64) ([]core.PaymentRecord, error) {
	return listPayments(ctx, r.db, `WHERE entrepreneur_id = ?`, entrepreneurID)
}

func listPayments(ctx context.Context, q querier, where string, args ...any) ([]core.PaymentRecord, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments `+where+` ORDER BY year DESC, month DESC, business_id, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	out := make([]core.PaymentRecord, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdatePaymentStatus(ctx context.Context, id int64, to core.PaymentStatus, actor core.Role, at time.Time) (core.PaymentRecord, core.PaymentStatusChange, error) {
	var (
		next   core.PaymentRecord
		change core.PaymentStatusChange
	)
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getPayment(ctx, tx, id)
		if err != nil {
			return err
		}
		next, change = current.Apply(to, actor, at)
		if _, err := tx.ExecContext(ctx,
			`UPDATE payments SET status = ?, updated_at = ?, updated_by = ? WHERE id = ?`,
			string(next.Status), formatTime(next.UpdatedAt), string(next.UpdatedBy), id); err != nil {
			return fmt.Errorf("update payment status: %w", mapError(err))
		}
		change, err = insertChange(ctx, tx, change)
		return err
	})
	if err != nil {
		return core.PaymentRecord{}, core.PaymentStatusChange{}, err
	}
	return next, change, nil
}

// Status history

func insertChange(ctx context.Context, tx *sql.Tx, c core.PaymentStatusChange) (core.PaymentStatusChange, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payment_status_changes (payment_id, from_status, to_status, actor, changed_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.PaymentID, string(c.From), string(c.To), string(c.Actor), formatTime(c.At))
	if err != nil {
		return core.PaymentStatusChange{}, fmt.Errorf("insert status change: %w", mapError(err))
	}
	if c.ID, err = res.LastInsertId(); err != nil {
		return core.PaymentStatusChange{}, fmt.Errorf("status change id: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) listChanges(ctx context.Context, query string, args ...any) ([]core.PaymentStatusChange, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, payment_id, from_status, to_status, actor, changed_at, synced
		 FROM payment_status_changes `+query, args...)
	if err != nil {
		return nil, fmt.Errorf("list status changes: %w", err)
	}
	defer rows.Close()
	out := make([]core.PaymentStatusChange, 0)
	for rows.Next() {
		var (
			c  core.PaymentStatusChange
			at string
		)
		if err := rows.Scan(&c.ID, &c.PaymentID, &c.From, &c.To, &c.Actor, &at, &c.Synced); err != nil {
			return nil, fmt.Errorf("scan status change: %w", err)
		}
		if c.At, err = parseTime(at); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) PaymentHistory(ctx context.Context, paymentID int64) ([]core.PaymentStatusChange, error) {
	if _, err := r.GetPayment(ctx, paymentID); err != nil {
		return nil, err
	}
	return r.listChanges(ctx, `WHERE payment_id = ? ORDER BY id`, paymentID)
}

func (r *SQLiteRepository) ListUnsyncedChanges(ctx context.Context, limit int) ([]core.PaymentStatusChange, error) {
	if limit <= 0 {
		limit = -1
	}
	return r.listChanges(ctx, `WHERE synced = 0 ORDER BY id LIMIT ?`, limit)
}

func (r *SQLiteRepository) MarkChangeSynced(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE payment_status_changes SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark status change synced: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mark status change %d synced: %w", id, core.ErrNotFound)
	}
	slog.DebugContext(ctx, "Status change marked as synced", "change_id", id)
	return nil
}

// Cohort assignments

const assignmentColumns = `id, entrepreneur_id, cohort_name, cohort_year, hub, bootcamp_status, assigned_date, attendance, total_sessions`

func scanAssignment(row interface{ Scan(...any) error }) (core.CohortAssignment, error) {
	var (
		a        core.CohortAssignment
		assigned string
	)
	if err := row.Scan(&a.ID, &a.EntrepreneurID, &a.CohortName, &a.CohortYear, &a.Hub,
		&a.BootcampStatus, &assigned, &a.Attendance, &a.TotalSessions); err != nil {
		return core.CohortAssignment{}, err
	}
	t, err := parseTime(assigned)
	if err != nil {
		return core.CohortAssignment{}, err
	}
	a.AssignedDate = t
	return a, nil
}

func (r *SQLiteRepository) InsertAssignment(ctx context.Context, a core.CohortAssignment) (core.CohortAssignment, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO cohort_assignments (entrepreneur_id, cohort_name, cohort_year, hub, bootcamp_status, assigned_date, attendance, total_sessions)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.EntrepreneurID, a.CohortName, a.CohortYear, string(a.Hub), string(a.BootcampStatus), formatTime(a.AssignedDate), a.Attendance, a.TotalSessions)
	if err != nil {
		return core.CohortAssignment{}, fmt.Errorf("insert cohort assignment: %w", mapError(err))
	}
	if a.ID, err = res.LastInsertId(); err != nil {
		return core.CohortAssignment{}, fmt.Errorf("cohort assignment id: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) GetAssignment(ctx context.Context, id int64) (core.CohortAssignment, error) {
	a, err := scanAssignment(r.db.QueryRowContext(ctx,
		`SELECT `+assignmentColumns+` FROM cohort_assignments WHERE id = ?`, id))
	if err != nil {
		return core.CohortAssignment{}, fmt.Errorf("get cohort assignment %d: %w", id, mapError(err))
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateAssignment(ctx context.Context, a core.CohortAssignment) (core.CohortAssignment, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE cohort_assignments SET bootcamp_status = ?, attendance = ?, total_sessions = ? WHERE id = ?`,
		string(a.BootcampStatus), a.Attendance, a.TotalSessions, a.ID)
	if err != nil {
		return core.CohortAssignment{}, fmt.Errorf("update cohort assignment: %w", mapError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.CohortAssignment{}, fmt.Errorf("update cohort assignment %d: %w", a.ID, core.ErrNotFound)
	}
	return r.GetAssignment(ctx, a.ID)
}

func (r *SQLiteRepository) ListAssignments(ctx context.Context, f core.Filter) ([]core.CohortAssignment, error) {
	var (
		conds []string
		args  []any
	)
	if f.CohortYear != nil {
		conds = append(conds, "cohort_year = ?")
		args = append(args, *f.CohortYear)
	}
	if f.Hub != "" {
		conds = append(conds, "hub = ?")
		args = append(args, f.Hub)
	}
	if f.Status != "" {
		conds = append(conds, "bootcamp_status = ?")
		args = append(args, f.Status)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}
	return listAssignments(ctx, r.db, where, args...)
}

func listAssignments(ctx context.Context, q querier, where string, args ...any) ([]core.CohortAssignment, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+assignmentColumns+` FROM cohort_assignments `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list cohort assignments: %w", err)
	}
	defer rows.Close()
	out := make([]core.CohortAssignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cohort assignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Snapshot reads every table inside a single transaction so the aggregator
// sees one consistent state.
func (r *SQLiteRepository) Snapshot(ctx context.Context) (core.Snapshot, error) {
	var snap core.Snapshot
	err := r.withReadTx(ctx, func(tx *sql.Tx) error {
		var err error
		if snap.Entrepreneurs, err = listEntrepreneurs(ctx, tx); err != nil {
			return err
		}
		if snap.Businesses, err = listBusinesses(ctx, tx, ""); err != nil {
			return err
		}
		if snap.Payments, err = listPayments(ctx, tx, ""); err != nil {
			return err
		}
		snap.Assignments, err = listAssignments(ctx, tx, "")
		return err
	})
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("snapshot: %w", err)
	}
	return snap, nil
}

// withReadTx runs fn in a deferred read-only transaction. Under WAL it reads a
// stable snapshot without taking the write reservation that _txlock=immediate
// gives every other transaction.
func (r *SQLiteRepository) withReadTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("begin read transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	return fn(tx)
}

func (r *SQLiteRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapError(err))
	}
	return nil
}
