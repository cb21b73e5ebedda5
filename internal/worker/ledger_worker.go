package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hubtrack/internal/amqp"
	"hubtrack/internal/core"
	"hubtrack/internal/sheets"
	"hubtrack/internal/store"
)

// Source is the part of the store the ledger worker reads and marks.
type Source interface {
	store.PaymentStore
	store.LedgerOutbox
}

// LedgerWorker mirrors payment status changes from the store to the ledger.
type LedgerWorker struct {
	store     Source
	ledger    sheets.LedgerWriter
	batchSize int
	locks     changeLocks
}

func NewLedgerWorker(src Source, ledger sheets.LedgerWriter, batchSize int) *LedgerWorker {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &LedgerWorker{
		store:     src,
		ledger:    ledger,
		batchSize: batchSize,
	}
}

// HandlePaymentStatus processes a single payment status message from AMQP.
// Messages for unknown or already synced changes are acknowledged without
// touching the ledger.
func (w *LedgerWorker) HandlePaymentStatus(ctx context.Context, msg *amqp.PaymentStatusMessage) error {
	slog.InfoContext(ctx, "Processing payment status message",
		"message_id", msg.MessageID,
		"change_id", msg.ChangeID,
		"payment_id", msg.PaymentID)

	p, err := w.store.GetPayment(ctx, msg.PaymentID)
	if errors.Is(err, core.ErrNotFound) {
		slog.WarnContext(ctx, "Payment not found, dropping message", "payment_id", msg.PaymentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}
	history, err := w.store.PaymentHistory(ctx, msg.PaymentID)
	if err != nil {
		return fmt.Errorf("get payment history: %w", err)
	}

	for _, change := range history {
		if change.ID != msg.ChangeID {
			continue
		}
		if change.Synced {
			slog.DebugContext(ctx, "Change already synced", "change_id", change.ID)
			return nil
		}
		return w.syncChange(ctx, p, change)
	}

	slog.WarnContext(ctx, "Change not found in payment history, dropping message",
		"change_id", msg.ChangeID, "payment_id", msg.PaymentID)
	return nil
}

// ProcessPending syncs up to one batch of unsynced changes. It is the backup
// path for lost AMQP messages.
func (w *LedgerWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedChanges(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list unsynced changes: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending status changes", "count", len(pending))
	for _, change := range pending {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.syncPending(ctx, change); err != nil {
			slog.ErrorContext(ctx, "Failed to sync status change",
				"change_id", change.ID, "payment_id", change.PaymentID, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck reconciles unsynced changes after downtime. Changes whose
// rows already reached the ledger are only marked, so a crash between append
// and mark does not duplicate rows.
func (w *LedgerWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.store.ListUnsyncedChanges(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("list unsynced changes for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending status changes found on startup")
		return nil
	}

	var present map[int64]struct{}
	if r, ok := w.ledger.(sheets.LedgerReader); ok {
		present, err = r.ListChangeIDs(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Could not read ledger, syncing without reconciliation", "error", err)
		}
	}

	slog.InfoContext(ctx, "Found pending status changes on startup, processing...",
		"count", len(pending))

	var synced, reconciled, failed int
	for _, change := range pending {
		if _, ok := present[change.ID]; ok {
			if err := w.store.MarkChangeSynced(ctx, change.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to mark change synced", "change_id", change.ID, "error", err)
				failed++
				continue
			}
			reconciled++
			continue
		}
		if err := w.syncPending(ctx, change); err != nil {
			slog.ErrorContext(ctx, "Failed to sync status change during startup",
				"change_id", change.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"reconciled", reconciled,
		"errors", failed)
	return nil
}

// Run sweeps pending changes every interval until ctx is done.
func (w *LedgerWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func (w *LedgerWorker) syncPending(ctx context.Context, change core.PaymentStatusChange) error {
	p, err := w.store.GetPayment(ctx, change.PaymentID)
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}
	return w.syncChange(ctx, p, change)
}

// syncChange appends change to the ledger at most once. The AMQP handler and
// the sweep may hold stale copies of the same change, so the synced flag is
// read again while the change is locked.
func (w *LedgerWorker) syncChange(ctx context.Context, p core.PaymentRecord, change core.PaymentStatusChange) error {
	if err := w.locks.lock(ctx, change.ID); err != nil {
		return err
	}
	defer w.locks.unlock(change.ID)

	synced, err := w.isSynced(ctx, change)
	if err != nil {
		return err
	}
	if synced {
		slog.DebugContext(ctx, "Change already synced", "change_id", change.ID)
		return nil
	}

	ref, err := w.ledger.AppendEntry(ctx, sheets.NewEntry(p, change))
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	// The row is written; a failed mark only means a later reconciliation.
	if err := w.store.MarkChangeSynced(ctx, change.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to mark change synced", "change_id", change.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced payment status change",
		"change_id", change.ID,
		"payment_id", p.ID,
		"status", change.To,
		"ledger_ref", ref)
	return nil
}

func (w *LedgerWorker) isSynced(ctx context.Context, change core.PaymentStatusChange) (bool, error) {
	history, err := w.store.PaymentHistory(ctx, change.PaymentID)
	if err != nil {
		return false, fmt.Errorf("get payment history: %w", err)
	}
	for _, c := range history {
		if c.ID == change.ID {
			return c.Synced, nil
		}
	}
	return false, fmt.Errorf("change %d: %w", change.ID, core.ErrNotFound)
}

// changeLocks is a set of per-change mutexes.
type changeLocks struct {
	mu   sync.Mutex
	held map[int64]chan struct{}
}

func (l *changeLocks) lock(ctx context.Context, id int64) error {
	for {
		l.mu.Lock()
		if l.held == nil {
			l.held = make(map[int64]chan struct{})
		}
		done, busy := l.held[id]
		if !busy {
			l.held[id] = make(chan struct{})
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *changeLocks) unlock(id int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if done, ok := l.held[id]; ok {
		close(done)
		delete(l.held, id)
	}
}
