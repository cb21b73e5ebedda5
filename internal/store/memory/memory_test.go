package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hubtrack/internal/core"
)

var now = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func seed(t *testing.T, s *Store) (core.Entrepreneur, core.Business) {
	t.Helper()
	ctx := context.Background()
	e, err := s.InsertEntrepreneur(ctx, core.Entrepreneur{
		Name: "Thandi", Surname: "Mokoena", IDNumber: "1", Email: "thandi@example.com",
		Hub: core.HubDunoon, Status: core.AccountActive, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("insert entrepreneur: %v", err)
	}
	b, err := s.InsertBusiness(ctx, core.Business{
		EntrepreneurID: e.ID, Name: "Spaza", RegistrationNumber: "REG-1",
		Type: core.BusinessCC, TurnoverRange: core.TurnoverUpTo50k, CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("insert business: %v", err)
	}
	return e, b
}

func pending(b core.Business, month, year int) core.PaymentRecord {
	return core.PaymentRecord{
		BusinessID: b.ID, EntrepreneurID: b.EntrepreneurID, Month: month, Year: year,
		Status: core.StatusPending, CreatedAt: now, UpdatedAt: now, UpdatedBy: core.RoleEntrepreneur,
	}
}

func TestUniqueIndexes(t *testing.T) {
	s := New()
	ctx := context.Background()
	e, b := seed(t, s)

	_, err := s.InsertEntrepreneur(ctx, core.Entrepreneur{Email: "  THANDI@example.com", Hub: core.HubBellville})
	if !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("duplicate email: got %v", err)
	}
	_, err = s.InsertBusiness(ctx, core.Business{EntrepreneurID: e.ID, RegistrationNumber: "REG-1"})
	if !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("duplicate registration: got %v", err)
	}
	_, err = s.InsertBusiness(ctx, core.Business{EntrepreneurID: 999, RegistrationNumber: "REG-2"})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown owner: got %v", err)
	}

	if _, _, err := s.InsertPayment(ctx, pending(b, 1, 2025)); err != nil {
		t.Fatalf("first payment: %v", err)
	}
	if _, _, err := s.InsertPayment(ctx, pending(b, 1, 2025)); !errors.Is(err, core.ErrDuplicateKey) {
		t.Fatalf("duplicate payment: got %v", err)
	}
	list, _ := s.ListPaymentsByBusiness(ctx, b.ID)
	if len(list) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(list))
	}
}

func TestConcurrentDuplicateCreates(t *testing.T) {
	s := New()
	_, b := seed(t, s)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		dupes     int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := s.InsertPayment(context.Background(), pending(b, 6, 2025))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, core.ErrDuplicateKey):
				dupes++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 || dupes != workers-1 {
		t.Fatalf("successes=%d dupes=%d", successes, dupes)
	}
}

func TestUpdatePaymentStatusHistory(t *testing.T) {
	s := New()
	ctx := context.Background()
	_, b := seed(t, s)

	p, created, err := s.InsertPayment(ctx, pending(b, 2, 2025))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.From != "" || created.To != core.StatusPending {
		t.Fatalf("creation change: %+v", created)
	}

	later := now.Add(time.Hour)
	updated, change, err := s.UpdatePaymentStatus(ctx, p.ID, core.StatusPaid, core.RoleAdmin, later)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != core.StatusPaid || updated.UpdatedBy != core.RoleAdmin {
		t.Fatalf("updated: %+v", updated)
	}
	if change.From != core.StatusPending || change.To != core.StatusPaid {
		t.Fatalf("change: %+v", change)
	}

	if _, _, err := s.UpdatePaymentStatus(ctx, 12345, core.StatusPaid, core.RoleAdmin, later); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown id: got %v", err)
	}

	history, err := s.PaymentHistory(ctx, p.ID)
	if err != nil || len(history) != 2 {
		t.Fatalf("history: %+v, %v", history, err)
	}

	unsynced, _ := s.ListUnsyncedChanges(ctx, 10)
	if len(unsynced) != 2 {
		t.Fatalf("unsynced: %d", len(unsynced))
	}
	if err := s.MarkChangeSynced(ctx, unsynced[0].ID); err != nil {
		t.Fatalf("mark synced: %v", err)
	}
	unsynced, _ = s.ListUnsyncedChanges(ctx, 10)
	if len(unsynced) != 1 || unsynced[0].ID != change.ID {
		t.Fatalf("after mark: %+v", unsynced)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	e, b := seed(t, s)
	if _, _, err := s.InsertPayment(ctx, pending(b, 3, 2025)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	snap.Entrepreneurs[0].Name = "changed"
	snap.Payments[0].Status = core.StatusPaid

	got, _ := s.GetEntrepreneur(ctx, e.ID)
	if got.Name != "Thandi" {
		t.Fatalf("snapshot aliases the store")
	}
	again, _ := s.Snapshot(ctx)
	if again.Payments[0].Status != core.StatusPending {
		t.Fatalf("snapshot aliases payments")
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := s.Snapshot(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled snapshot: got %v", err)
	}
}

func TestAssignments(t *testing.T) {
	s := New()
	ctx := context.Background()
	e, _ := seed(t, s)

	a, err := s.InsertAssignment(ctx, core.CohortAssignment{
		EntrepreneurID: e.ID, CohortName: "A", CohortYear: 2024, Hub: e.Hub, BootcampStatus: core.BootcampActive,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	a.Attendance, a.TotalSessions, a.BootcampStatus = 4, 5, core.BootcampCompleted
	if _, err := s.UpdateAssignment(ctx, a); err != nil {
		t.Fatalf("update: %v", err)
	}

	list, _ := s.ListAssignments(ctx, core.Filter{Status: "completed"}.WithCohortYear(2024))
	if len(list) != 1 || list[0].Attendance != 4 {
		t.Fatalf("list: %+v", list)
	}
	if list, _ := s.ListAssignments(ctx, core.Filter{Hub: "Atlantis"}); len(list) != 0 {
		t.Fatalf("unknown hub: %+v", list)
	}
	if _, err := s.InsertAssignment(ctx, core.CohortAssignment{EntrepreneurID: 999}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("unknown entrepreneur: got %v", err)
	}
}
