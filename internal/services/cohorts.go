package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hubtrack/internal/core"
)

// AssignCohort enrolls an entrepreneur in a bootcamp cohort. The hub is
// copied from the entrepreneur's current hub.
func (s *HubService) AssignCohort(ctx context.Context, who core.Identity, entrepreneurID int64, cohortName string, cohortYear int) (core.CohortAssignment, error) {
	if err := who.RequireAdmin(); err != nil {
		return core.CohortAssignment{}, err
	}
	e, err := s.store.GetEntrepreneur(ctx, entrepreneurID)
	if err != nil {
		return core.CohortAssignment{}, err
	}
	a, err := core.NewAssignment(e, strings.TrimSpace(cohortName), cohortYear, s.now())
	if err != nil {
		return core.CohortAssignment{}, err
	}
	created, err := s.store.InsertAssignment(ctx, a)
	if err != nil {
		return core.CohortAssignment{}, fmt.Errorf("assign cohort: %w", err)
	}
	slog.InfoContext(ctx, "Cohort assigned",
		"assignment_id", created.ID,
		"entrepreneur_id", created.EntrepreneurID,
		"cohort_year", created.CohortYear,
		"hub", created.Hub)
	return created, nil
}

// AssignmentUpdate carries the optional fields an administrator may change.
type AssignmentUpdate struct {
	BootcampStatus string
	Attendance     *int
	TotalSessions  *int
}

// UpdateAssignment changes bootcamp status and attendance of an assignment.
func (s *HubService) UpdateAssignment(ctx context.Context, who core.Identity, assignmentID int64, in AssignmentUpdate) (core.CohortAssignment, error) {
	if err := who.RequireAdmin(); err != nil {
		return core.CohortAssignment{}, err
	}
	a, err := s.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return core.CohortAssignment{}, err
	}
	if in.BootcampStatus != "" {
		a.BootcampStatus = core.BootcampStatus(in.BootcampStatus)
	}
	if in.Attendance != nil {
		a.Attendance = *in.Attendance
	}
	if in.TotalSessions != nil {
		a.TotalSessions = *in.TotalSessions
	}
	if err := a.Validate(); err != nil {
		return core.CohortAssignment{}, err
	}
	updated, err := s.store.UpdateAssignment(ctx, a)
	if err != nil {
		return core.CohortAssignment{}, fmt.Errorf("update assignment: %w", err)
	}
	return updated, nil
}

// ListCohortAssignments returns assignments matching the cohort year, hub and
// bootcamp status of f, joined with entrepreneur display fields.
func (s *HubService) ListCohortAssignments(ctx context.Context, who core.Identity, f core.Filter) ([]core.AssignmentView, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cohort assignments: %w", err)
	}
	list := f.Assignments(snap.Assignments)
	core.SortAssignments(list)
	return core.JoinAssignments(snap, list), nil
}

// ListCohortOverview summarizes assignments per (cohort year, hub). Only the
// cohort year and hub of f apply.
func (s *HubService) ListCohortOverview(ctx context.Context, who core.Identity, f core.Filter) ([]core.CohortSummary, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	list, err := s.store.ListAssignments(ctx, core.Filter{Hub: f.Hub, CohortYear: f.CohortYear})
	if err != nil {
		return nil, fmt.Errorf("cohort overview: %w", err)
	}
	return core.CohortOverview(list, core.Filter{}), nil
}

// GetCohortDetails lists every member of the cohort year in hub.
func (s *HubService) GetCohortDetails(ctx context.Context, who core.Identity, year int, hub string) ([]core.CohortDetail, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	snap, err := s.store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("cohort details: %w", err)
	}
	return core.CohortDetails(snap, year, core.Hub(hub)), nil
}
