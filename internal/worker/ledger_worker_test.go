package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"hubtrack/internal/amqp"
	"hubtrack/internal/core"
	"hubtrack/internal/sheets"
	ledgermem "hubtrack/internal/sheets/memory"
	"hubtrack/internal/store/memory"
)

var t0 = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

// seedPayment stores a pending payment and then marks it paid, producing two
// unsynced status changes.
func seedPayment(t *testing.T, st *memory.Store) (core.PaymentRecord, []core.PaymentStatusChange) {
	t.Helper()
	ctx := context.Background()
	e, err := st.InsertEntrepreneur(ctx, core.Entrepreneur{
		Name: "Sipho", Surname: "Ndlovu", IDNumber: "1", Email: "sipho@example.com",
		Hub: core.HubBellville, Status: core.AccountActive, CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("insert entrepreneur: %v", err)
	}
	b, err := st.InsertBusiness(ctx, core.Business{
		EntrepreneurID: e.ID, Name: "Spaza", RegistrationNumber: "R1",
		Type: core.BusinessCC, TurnoverRange: core.TurnoverUpTo50k, CreatedAt: t0,
	})
	if err != nil {
		t.Fatalf("insert business: %v", err)
	}
	p, err := core.NewPendingPayment(core.EntrepreneurIdentity(e.ID), b, 4, 2024, t0)
	if err != nil {
		t.Fatalf("new payment: %v", err)
	}
	p, created, err := st.InsertPayment(ctx, p)
	if err != nil {
		t.Fatalf("insert payment: %v", err)
	}
	p, paid, err := st.UpdatePaymentStatus(ctx, p.ID, core.StatusPaid, core.RoleAdmin, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("update status: %v", err)
	}
	return p, []core.PaymentStatusChange{created, paid}
}

func unsynced(t *testing.T, st *memory.Store) int {
	t.Helper()
	list, err := st.ListUnsyncedChanges(context.Background(), 0)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}
	return len(list)
}

func TestHandlePaymentStatus(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	w := NewLedgerWorker(st, ledger, 10)
	ctx := context.Background()

	p, changes := seedPayment(t, st)
	msg := amqp.NewPaymentStatusMessage(p, changes[1])

	if err := w.HandlePaymentStatus(ctx, msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	entries := ledger.Entries()
	if len(entries) != 1 {
		t.Fatalf("ledger has %d rows, want 1", len(entries))
	}
	got := entries[0]
	if got.ChangeID != changes[1].ID || got.From != core.StatusPending || got.To != core.StatusPaid ||
		got.Actor != core.RoleAdmin || got.Month != 4 || got.Year != 2024 || got.BusinessID != p.BusinessID {
		t.Fatalf("ledger row = %+v", got)
	}
	if n := unsynced(t, st); n != 1 {
		t.Fatalf("unsynced = %d, want 1", n)
	}

	// Redelivery of the same message leaves the ledger alone.
	if err := w.HandlePaymentStatus(ctx, msg); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(ledger.Entries()) != 1 {
		t.Fatalf("redelivery appended a duplicate row")
	}
}

func TestHandlePaymentStatus_UnknownTargetsAreDropped(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	w := NewLedgerWorker(st, ledger, 10)
	p, _ := seedPayment(t, st)

	tests := []struct {
		name string
		msg  *amqp.PaymentStatusMessage
	}{
		{"unknown payment", &amqp.PaymentStatusMessage{PaymentID: 999, ChangeID: 1}},
		{"unknown change", &amqp.PaymentStatusMessage{PaymentID: p.ID, ChangeID: 999}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.HandlePaymentStatus(context.Background(), tt.msg); err != nil {
				t.Fatalf("handle: %v", err)
			}
		})
	}
	if len(ledger.Entries()) != 0 {
		t.Fatalf("ledger should be empty, got %d rows", len(ledger.Entries()))
	}
}

func TestHandlePaymentStatus_LedgerFailureIsRetryable(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	ledger.FailWith(errors.New("quota exceeded"))
	w := NewLedgerWorker(st, ledger, 10)

	p, changes := seedPayment(t, st)
	if err := w.HandlePaymentStatus(context.Background(), amqp.NewPaymentStatusMessage(p, changes[0])); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if n := unsynced(t, st); n != 2 {
		t.Fatalf("unsynced = %d, want 2", n)
	}
}

func TestProcessPending(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	w := NewLedgerWorker(st, ledger, 1)
	ctx := context.Background()
	seedPayment(t, st)

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if n := unsynced(t, st); n != 1 {
		t.Fatalf("after one batch of 1, unsynced = %d", n)
	}
	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if n := unsynced(t, st); n != 0 {
		t.Fatalf("unsynced = %d, want 0", n)
	}
	entries := ledger.Entries()
	if len(entries) != 2 || entries[0].To != core.StatusPending || entries[1].To != core.StatusPaid {
		t.Fatalf("ledger rows out of order: %+v", entries)
	}

	if err := w.ProcessPending(ctx); err != nil {
		t.Fatalf("empty sweep: %v", err)
	}
	if len(ledger.Entries()) != 2 {
		t.Fatalf("empty sweep appended rows")
	}
}

// gatedLedger holds every append until release is closed.
type gatedLedger struct {
	*ledgermem.Ledger
	entered chan struct{}
	release chan struct{}
}

func (g *gatedLedger) AppendEntry(ctx context.Context, e sheets.Entry) (string, error) {
	g.entered <- struct{}{}
	<-g.release
	return g.Ledger.AppendEntry(ctx, e)
}

func TestConcurrentDeliveryAndSweepAppendOnce(t *testing.T) {
	st := memory.New()
	ledger := &gatedLedger{
		Ledger:  ledgermem.New(),
		entered: make(chan struct{}, 4),
		release: make(chan struct{}),
	}
	w := NewLedgerWorker(st, ledger, 10)
	ctx := context.Background()

	p, changes := seedPayment(t, st)
	stale, err := st.ListUnsyncedChanges(ctx, 0)
	if err != nil {
		t.Fatalf("list unsynced: %v", err)
	}

	errs := make(chan error, 2)
	go func() { errs <- w.HandlePaymentStatus(ctx, amqp.NewPaymentStatusMessage(p, changes[1])) }()
	<-ledger.entered
	go func() {
		for _, c := range stale {
			if c.ID == changes[1].ID {
				errs <- w.syncPending(ctx, c)
				return
			}
		}
		errs <- errors.New("change missing from unsynced list")
	}()
	close(ledger.release)

	for range 2 {
		if err := <-errs; err != nil {
			t.Fatalf("sync: %v", err)
		}
	}
	var rows int
	for _, e := range ledger.Entries() {
		if e.ChangeID == changes[1].ID {
			rows++
		}
	}
	if rows != 1 {
		t.Fatalf("change %d has %d ledger rows, want 1", changes[1].ID, rows)
	}

	// A sweep holding a copy read before the delivery finished skips the row.
	for _, c := range stale {
		if c.ID != changes[1].ID {
			continue
		}
		if err := w.syncPending(ctx, c); err != nil {
			t.Fatalf("stale sweep: %v", err)
		}
	}
	if len(ledger.Entries()) != 1 {
		t.Fatalf("stale sweep appended a duplicate: %+v", ledger.Entries())
	}
}

func TestProcessPending_FailuresStayUnsynced(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	ledger.FailWith(errors.New("unavailable"))
	w := NewLedgerWorker(st, ledger, 10)
	seedPayment(t, st)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if n := unsynced(t, st); n != 2 {
		t.Fatalf("unsynced = %d, want 2", n)
	}
}

func TestStartupSyncCheck_ReconcilesRowsAlreadyInLedger(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	w := NewLedgerWorker(st, ledger, 10)
	ctx := context.Background()

	p, changes := seedPayment(t, st)
	// Simulate a crash after the append but before the mark.
	if _, err := ledger.AppendEntry(ctx, sheets.NewEntry(p, changes[0])); err != nil {
		t.Fatalf("pre-append: %v", err)
	}

	if err := w.StartupSyncCheck(ctx); err != nil {
		t.Fatalf("startup check: %v", err)
	}
	if n := unsynced(t, st); n != 0 {
		t.Fatalf("unsynced = %d, want 0", n)
	}
	if got := len(ledger.Entries()); got != 2 {
		t.Fatalf("ledger rows = %d, want 2 (no duplicate)", got)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	st := memory.New()
	ledger := ledgermem.New()
	w := NewLedgerWorker(st, ledger, 10)
	seedPayment(t, st)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for unsynced(t, st) != 0 {
		select {
		case <-deadline:
			t.Fatal("periodic sweep did not sync pending changes")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
