package core

import (
	"errors"
	"testing"
	"time"
)

var t0 = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func TestParsePaymentStatus(t *testing.T) {
	for _, s := range PaymentStatuses {
		got, err := ParsePaymentStatus(string(s))
		if err != nil || got != s {
			t.Fatalf("%s: got %v, %v", s, got, err)
		}
	}
	for _, raw := range []string{"", "PAID", "refunded"} {
		if _, err := ParsePaymentStatus(raw); !errors.Is(err, ErrInvalidStatus) {
			t.Fatalf("%q: expected ErrInvalidStatus, got %v", raw, err)
		}
	}
}

func TestNewPendingPayment(t *testing.T) {
	b := validBusiness()
	b.ID = 10
	b.EntrepreneurID = 1

	p, err := NewPendingPayment(EntrepreneurIdentity(1), b, 3, 2025, t0)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if p.Status != StatusPending || p.BusinessID != 10 || p.EntrepreneurID != 1 || p.UpdatedBy != RoleEntrepreneur {
		t.Fatalf("unexpected record %+v", p)
	}

	cases := []struct {
		who   Identity
		month int
		year  int
		want  error
	}{
		{Admin(), 3, 2025, ErrForbidden},
		{EntrepreneurIdentity(2), 3, 2025, ErrNotOwner},
		{EntrepreneurIdentity(1), 13, 2025, ErrInvalidMonth},
		{EntrepreneurIdentity(1), 0, 2025, ErrInvalidMonth},
		{EntrepreneurIdentity(1), 1, 1990, ErrInvalidYear},
		// ownership is checked before the period
		{EntrepreneurIdentity(2), 13, 2025, ErrNotOwner},
	}
	for i, tc := range cases {
		if _, err := NewPendingPayment(tc.who, b, tc.month, tc.year, t0); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestNewAdminPayment(t *testing.T) {
	b := validBusiness()
	b.ID = 4

	p, err := NewAdminPayment(Admin(), b, 1, 2025, "", "", t0)
	if err != nil || p.Status != StatusPending || p.UpdatedBy != RoleAdmin {
		t.Fatalf("default status: %+v, %v", p, err)
	}
	p, err = NewAdminPayment(Admin(), b, 1, 2025, "overdue", "late", t0)
	if err != nil || p.Status != StatusOverdue || p.Notes != "late" {
		t.Fatalf("explicit status: %+v, %v", p, err)
	}
	if _, err := NewAdminPayment(EntrepreneurIdentity(1), b, 1, 2025, "paid", "", t0); !errors.Is(err, ErrForbidden) {
		t.Fatalf("entrepreneur: got %v", err)
	}
	if _, err := NewAdminPayment(Admin(), b, 1, 2025, "bogus", "", t0); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("bogus status: got %v", err)
	}
}

func TestCheckTransition(t *testing.T) {
	// any state to any state for administrators, including self-transitions
	for _, to := range PaymentStatuses {
		got, err := CheckTransition(Admin(), string(to))
		if err != nil || got != to {
			t.Fatalf("admin -> %s: %v, %v", to, got, err)
		}
	}
	if _, err := CheckTransition(EntrepreneurIdentity(1), "paid"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("entrepreneur: got %v", err)
	}
	// forbidden wins over an invalid target
	if _, err := CheckTransition(EntrepreneurIdentity(1), "bogus"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("entrepreneur bogus: got %v", err)
	}
	if _, err := CheckTransition(Identity{}, "paid"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous: got %v", err)
	}
	if _, err := CheckTransition(Admin(), "bogus"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("admin bogus: got %v", err)
	}
}

func TestApplyRecordsHistory(t *testing.T) {
	p := PaymentRecord{ID: 9, Status: StatusPending, UpdatedBy: RoleEntrepreneur, UpdatedAt: t0}
	later := t0.Add(time.Hour)
	next, change := p.Apply(StatusPaid, RoleAdmin, later)

	if next.Status != StatusPaid || next.UpdatedBy != RoleAdmin || !next.UpdatedAt.Equal(later) {
		t.Fatalf("unexpected record %+v", next)
	}
	if change.PaymentID != 9 || change.From != StatusPending || change.To != StatusPaid || change.Actor != RoleAdmin {
		t.Fatalf("unexpected change %+v", change)
	}
	if p.Status != StatusPending {
		t.Fatalf("Apply mutated the receiver")
	}
}

func TestIdentityAccess(t *testing.T) {
	if !Admin().CanAccessEntrepreneur(5) {
		t.Fatalf("admin should access everyone")
	}
	if !EntrepreneurIdentity(5).CanAccessEntrepreneur(5) {
		t.Fatalf("owner should access self")
	}
	if EntrepreneurIdentity(4).CanAccessEntrepreneur(5) {
		t.Fatalf("other entrepreneur should not access")
	}
	if err := EntrepreneurIdentity(1).RequireAdmin(); !errors.Is(err, ErrForbidden) {
		t.Fatalf("got %v", err)
	}
}
