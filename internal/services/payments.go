package services

import (
	"context"
	"fmt"
	"log/slog"

	"hubtrack/internal/core"
)

// CreatePayment records a pending monthly payment for one of the calling
// entrepreneur's businesses.
func (s *HubService) CreatePayment(ctx context.Context, who core.Identity, businessID int64, month, year int) (core.PaymentRecord, error) {
	if who.Role != core.RoleEntrepreneur {
		return core.PaymentRecord{}, core.ErrForbidden
	}
	b, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	p, err := core.NewPendingPayment(who, b, month, year, s.now())
	if err != nil {
		return core.PaymentRecord{}, err
	}
	return s.insertPayment(ctx, p)
}

// CreatePaymentAsAdmin records a payment with an explicit initial status.
func (s *HubService) CreatePaymentAsAdmin(ctx context.Context, who core.Identity, businessID int64, month, year int, status, notes string) (core.PaymentRecord, error) {
	if err := who.RequireAdmin(); err != nil {
		return core.PaymentRecord{}, err
	}
	b, err := s.store.GetBusiness(ctx, businessID)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	p, err := core.NewAdminPayment(who, b, month, year, status, notes, s.now())
	if err != nil {
		return core.PaymentRecord{}, err
	}
	return s.insertPayment(ctx, p)
}

func (s *HubService) insertPayment(ctx context.Context, p core.PaymentRecord) (core.PaymentRecord, error) {
	created, change, err := s.store.InsertPayment(ctx, p)
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("create payment: %w", err)
	}
	slog.InfoContext(ctx, "Payment created",
		"payment_id", created.ID,
		"business_id", created.BusinessID,
		"status", created.Status,
		"actor", created.UpdatedBy)
	s.publish(ctx, created, change)
	return created, nil
}

// SetPaymentStatus overwrites a payment's status. Only administrators may
// write statuses; a failed call leaves the record unchanged.
func (s *HubService) SetPaymentStatus(ctx context.Context, who core.Identity, paymentID int64, status string) (core.PaymentRecord, error) {
	if !who.IsAdmin() {
		return core.PaymentRecord{}, core.ErrForbidden
	}
	if _, err := s.store.GetPayment(ctx, paymentID); err != nil {
		return core.PaymentRecord{}, err
	}
	to, err := core.CheckTransition(who, status)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	updated, change, err := s.store.UpdatePaymentStatus(ctx, paymentID, to, who.Role, s.now())
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("set payment status: %w", err)
	}
	slog.InfoContext(ctx, "Payment status updated",
		"payment_id", updated.ID,
		"from", change.From,
		"status", updated.Status,
		"actor", who.Role)
	s.publish(ctx, updated, change)
	return updated, nil
}

// ListPaymentsForEntrepreneur returns an entrepreneur's payments, most recent
// period first. Entrepreneurs may only read their own.
func (s *HubService) ListPaymentsForEntrepreneur(ctx context.Context, who core.Identity, entrepreneurID int64) ([]core.PaymentRecord, error) {
	if !who.CanAccessEntrepreneur(entrepreneurID) {
		return nil, core.ErrForbidden
	}
	list, err := s.store.ListPaymentsByEntrepreneur(ctx, entrepreneurID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	core.SortPayments(list)
	return list, nil
}

// ListAllPayments returns every payment matching f with display fields joined.
func (s *HubService) ListAllPayments(ctx context.Context, who core.Identity, f core.Filter) ([]core.PaymentView, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all payments: %w", err)
	}
	core.SortPayments(snap.Payments)
	return f.Payments(core.JoinPayments(snap, snap.Payments)), nil
}

// PaymentHistory returns the status history of a payment, oldest first.
func (s *HubService) PaymentHistory(ctx context.Context, who core.Identity, paymentID int64) ([]core.PaymentStatusChange, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	history, err := s.store.PaymentHistory(ctx, paymentID)
	if err != nil {
		return nil, fmt.Errorf("payment history: %w", err)
	}
	return history, nil
}
