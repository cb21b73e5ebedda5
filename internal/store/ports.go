package store

import (
	"context"
	"time"

	"hubtrack/internal/core"
)

// Ports implemented by the memory and SQLite backends. Missing rows are
// reported as core.ErrNotFound and unique-key violations as
// core.ErrDuplicateKey.
type (
	EntrepreneurStore interface {
		// InsertEntrepreneur assigns the ID. Emails are unique case-insensitively.
		InsertEntrepreneur(ctx context.Context, e core.Entrepreneur) (core.Entrepreneur, error)
		GetEntrepreneur(ctx context.Context, id int64) (core.Entrepreneur, error)
		ListEntrepreneurs(ctx context.Context) ([]core.Entrepreneur, error)
		SetEntrepreneurStatus(ctx context.Context, id int64, status core.AccountStatus) (core.Entrepreneur, error)
	}

	BusinessStore interface {
		// InsertBusiness assigns the ID. Registration numbers are unique.
		InsertBusiness(ctx context.Context, b core.Business) (core.Business, error)
		GetBusiness(ctx context.Context, id int64) (core.Business, error)
		ListBusinessesByEntrepreneur(ctx context.Context, entrepreneurID int64) ([]core.Business, error)
		ListBusinesses(ctx context.Context) ([]core.Business, error)
	}

	PaymentStore interface {
		// InsertPayment stores p and its creation history entry atomically.
		// A second record for the same (business, month, year) fails with
		// core.ErrDuplicateKey.
		InsertPayment(ctx context.Context, p core.PaymentRecord) (core.PaymentRecord, core.PaymentStatusChange, error)
		GetPayment(ctx context.Context, id int64) (core.PaymentRecord, error)
		ListPaymentsByBusiness(ctx context.Context, businessID int64) ([]core.PaymentRecord, error)
		ListPaymentsByEntrepreneur(ctx context.Context, entrepreneurID int64) ([]core.PaymentRecord, error)
		// UpdatePaymentStatus applies the write to the current record and
		// appends the history entry in one step.
		UpdatePaymentStatus(ctx context.Context, id int64, to core.PaymentStatus, actor core.Role, at time.Time) (core.PaymentRecord, core.PaymentStatusChange, error)
		PaymentHistory(ctx context.Context, paymentID int64) ([]core.PaymentStatusChange, error)
	}

	// LedgerOutbox exposes history entries not yet mirrored to the ledger.
	LedgerOutbox interface {
		ListUnsyncedChanges(ctx context.Context, limit int) ([]core.PaymentStatusChange, error)
		MarkChangeSynced(ctx context.Context, id int64) error
	}

	CohortStore interface {
		InsertAssignment(ctx context.Context, a core.CohortAssignment) (core.CohortAssignment, error)
		GetAssignment(ctx context.Context, id int64) (core.CohortAssignment, error)
		UpdateAssignment(ctx context.Context, a core.CohortAssignment) (core.CohortAssignment, error)
		// ListAssignments applies the cohort year, hub and status of f.
		ListAssignments(ctx context.Context, f core.Filter) ([]core.CohortAssignment, error)
	}

	// Snapshotter returns a consistent copy of every store for aggregation.
	Snapshotter interface {
		Snapshot(ctx context.Context) (core.Snapshot, error)
	}

	Store interface {
		EntrepreneurStore
		BusinessStore
		PaymentStore
		LedgerOutbox
		CohortStore
		Snapshotter
		Close() error
	}
)
