package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hubtrack/internal/amqp"
	"hubtrack/internal/core"
	"hubtrack/internal/store"
)

// PaymentPublisher announces payment status changes to the ledger worker.
type PaymentPublisher interface {
	PublishPaymentStatus(ctx context.Context, msg *amqp.PaymentStatusMessage) error
}

// HubService orchestrates entrepreneur, payment and cohort operations over a
// store. Every call takes the caller's verified identity.
type HubService struct {
	store     store.Store
	publisher PaymentPublisher
	now       func() time.Time
}

// NewHubService wires a store and an optional publisher. A nil publisher
// disables event publishing.
func NewHubService(st store.Store, publisher PaymentPublisher) *HubService {
	return &HubService{
		store:     st,
		publisher: publisher,
		now:       time.Now,
	}
}

type RegisterInput struct {
	Name     string
	Surname  string
	IDNumber string
	Email    string
	Phone    string
	Hub      string
}

// RegisterEntrepreneur creates an active entrepreneur account.
func (s *HubService) RegisterEntrepreneur(ctx context.Context, in RegisterInput) (core.Entrepreneur, error) {
	e := core.Entrepreneur{
		Name:      strings.TrimSpace(in.Name),
		Surname:   strings.TrimSpace(in.Surname),
		IDNumber:  strings.TrimSpace(in.IDNumber),
		Email:     core.NormalizeEmail(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		Hub:       core.Hub(strings.TrimSpace(in.Hub)),
		Status:    core.AccountActive,
		CreatedAt: s.now(),
	}
	if err := e.Validate(); err != nil {
		return core.Entrepreneur{}, err
	}
	created, err := s.store.InsertEntrepreneur(ctx, e)
	if err != nil {
		return core.Entrepreneur{}, fmt.Errorf("register entrepreneur: %w", err)
	}
	slog.InfoContext(ctx, "Entrepreneur registered", "entrepreneur_id", created.ID, "hub", created.Hub)
	return created, nil
}

// ListEntrepreneurs returns the entrepreneurs matching f, newest first.
func (s *HubService) ListEntrepreneurs(ctx context.Context, who core.Identity, f core.Filter) ([]core.Entrepreneur, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	list, err := s.store.ListEntrepreneurs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entrepreneurs: %w", err)
	}
	core.SortEntrepreneurs(list)
	return f.Entrepreneurs(list), nil
}

// ToggleEntrepreneurStatus flips an entrepreneur between active and inactive.
func (s *HubService) ToggleEntrepreneurStatus(ctx context.Context, who core.Identity, entrepreneurID int64) (core.Entrepreneur, error) {
	if err := who.RequireAdmin(); err != nil {
		return core.Entrepreneur{}, err
	}
	e, err := s.store.GetEntrepreneur(ctx, entrepreneurID)
	if err != nil {
		return core.Entrepreneur{}, err
	}
	updated, err := s.store.SetEntrepreneurStatus(ctx, e.ID, e.Status.Toggled())
	if err != nil {
		return core.Entrepreneur{}, fmt.Errorf("toggle entrepreneur status: %w", err)
	}
	slog.InfoContext(ctx, "Entrepreneur status changed",
		"entrepreneur_id", updated.ID, "from", e.Status, "to", updated.Status)
	return updated, nil
}

type BusinessInput struct {
	Name               string
	RegistrationNumber string
	Type               string
	Industry           string
	TurnoverRange      string
	YearsOperating     int
}

// AddBusiness registers a business owned by the calling entrepreneur.
func (s *HubService) AddBusiness(ctx context.Context, who core.Identity, in BusinessInput) (core.Business, error) {
	if who.Role != core.RoleEntrepreneur {
		return core.Business{}, core.ErrForbidden
	}
	b := core.Business{
		EntrepreneurID:     who.EntrepreneurID,
		Name:               strings.TrimSpace(in.Name),
		RegistrationNumber: strings.TrimSpace(in.RegistrationNumber),
		Type:               core.BusinessType(in.Type),
		Industry:           strings.TrimSpace(in.Industry),
		TurnoverRange:      core.TurnoverRange(in.TurnoverRange),
		YearsOperating:     in.YearsOperating,
		CreatedAt:          s.now(),
	}
	if err := b.Validate(); err != nil {
		return core.Business{}, err
	}
	created, err := s.store.InsertBusiness(ctx, b)
	if err != nil {
		return core.Business{}, fmt.Errorf("add business: %w", err)
	}
	slog.InfoContext(ctx, "Business registered",
		"business_id", created.ID, "entrepreneur_id", created.EntrepreneurID)
	return created, nil
}

// ListBusinesses returns the calling entrepreneur's businesses, oldest first.
func (s *HubService) ListBusinesses(ctx context.Context, who core.Identity) ([]core.Business, error) {
	if who.Role != core.RoleEntrepreneur {
		return nil, core.ErrForbidden
	}
	list, err := s.store.ListBusinessesByEntrepreneur(ctx, who.EntrepreneurID)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	core.SortBusinesses(list)
	return list, nil
}

// ListAllBusinesses returns every business with its owner, for administrators.
func (s *HubService) ListAllBusinesses(ctx context.Context, who core.Identity) ([]core.BusinessView, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all businesses: %w", err)
	}
	core.SortBusinesses(snap.Businesses)
	return core.JoinBusinesses(snap, snap.Businesses), nil
}

// GetAdminReport computes the global counts and hub rollup as of now.
func (s *HubService) GetAdminReport(ctx context.Context, who core.Identity, now time.Time) (core.AdminReport, error) {
	if err := who.RequireAdmin(); err != nil {
		return core.AdminReport{}, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return core.AdminReport{}, fmt.Errorf("admin report: %w", err)
	}
	return core.BuildAdminReport(snap, now), nil
}

// Ready reports whether the backing store can serve requests.
func (s *HubService) Ready(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store. The publisher is owned by the caller.
func (s *HubService) Close() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Close(); err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}

func (s *HubService) publish(ctx context.Context, p core.PaymentRecord, change core.PaymentStatusChange) {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP publisher not available, skipping payment status message",
			"payment_id", p.ID)
		return
	}
	msg := amqp.NewPaymentStatusMessage(p, change)
	if err := s.publisher.PublishPaymentStatus(ctx, msg); err != nil {
		// The change stays unsynced and the worker sweep picks it up.
		level := slog.LevelError
		if errors.Is(err, amqp.ErrCircuitOpen) {
			level = slog.LevelWarn
		}
		slog.Log(ctx, level, "Failed to publish payment status message",
			"payment_id", p.ID, "change_id", change.ID, "error", err)
	}
}
