package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"hubtrack/internal/core"
)

// Dashboard is what an entrepreneur sees after signing in.
type Dashboard struct {
	Entrepreneur core.Entrepreneur
	Businesses   []core.Business
	Payments     []core.PaymentRecord
	Summary      core.EntrepreneurSummary
	LatestCohort *core.CohortAssignment
}

// GetDashboard loads the calling entrepreneur's profile, businesses, payments
// and cohorts concurrently.
func (s *HubService) GetDashboard(ctx context.Context, who core.Identity) (Dashboard, error) {
	if who.Role != core.RoleEntrepreneur {
		return Dashboard{}, core.ErrForbidden
	}

	var (
		d           Dashboard
		assignments []core.CohortAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		e, err := s.store.GetEntrepreneur(gctx, who.EntrepreneurID)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		d.Entrepreneur = e
		return nil
	})
	g.Go(func() error {
		list, err := s.store.ListBusinessesByEntrepreneur(gctx, who.EntrepreneurID)
		if err != nil {
			return fmt.Errorf("load businesses: %w", err)
		}
		core.SortBusinesses(list)
		d.Businesses = list
		return nil
	})
	g.Go(func() error {
		list, err := s.store.ListPaymentsByEntrepreneur(gctx, who.EntrepreneurID)
		if err != nil {
			return fmt.Errorf("load payments: %w", err)
		}
		core.SortPayments(list)
		d.Payments = list
		return nil
	})
	g.Go(func() error {
		list, err := s.store.ListAssignments(gctx, core.Filter{})
		if err != nil {
			return fmt.Errorf("load cohorts: %w", err)
		}
		assignments = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Summary = core.SummarizePayments(d.Payments)
	for _, a := range assignments {
		if a.EntrepreneurID != who.EntrepreneurID {
			continue
		}
		if d.LatestCohort == nil || a.CohortYear > d.LatestCohort.CohortYear ||
			(a.CohortYear == d.LatestCohort.CohortYear && a.ID > d.LatestCohort.ID) {
			latest := a
			d.LatestCohort = &latest
		}
	}
	return d, nil
}
