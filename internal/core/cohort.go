package core

import (
	"cmp"
	"slices"
	"time"
)

// CohortSummary is the per-(cohort year, hub) rollup.
type CohortSummary struct {
	CohortYear       int
	Hub              Hub
	TotalMembers     int
	ActiveMembers    int
	CompletedMembers int
}

// CohortDetail is one assigned entrepreneur within a cohort year and hub.
type CohortDetail struct {
	AssignmentID   int64
	EntrepreneurID int64
	Name           string
	Surname        string
	Email          string
	CohortName     string
	BusinessName   string
	Attendance     int
	TotalSessions  int
	AttendanceRate int // percent
	PaidPayments   int
	TotalPayments  int
	PaymentRate    int // percent
	BootcampStatus BootcampStatus
	AssignedDate   time.Time
}

// AssignmentView is an assignment joined with the entrepreneur's display fields.
type AssignmentView struct {
	Assignment CohortAssignment
	Name       string
	Surname    string
	Email      string
}

// NewAssignment builds a cohort assignment for e, copying e's current hub.
func NewAssignment(e Entrepreneur, cohortName string, cohortYear int, now time.Time) (CohortAssignment, error) {
	a := CohortAssignment{
		EntrepreneurID: e.ID,
		CohortName:     cohortName,
		CohortYear:     cohortYear,
		Hub:            e.Hub,
		BootcampStatus: BootcampActive,
		AssignedDate:   now,
	}
	if err := a.Validate(); err != nil {
		return CohortAssignment{}, err
	}
	return a, nil
}

// compareHubs orders enumerated hubs first in enumeration order, then any
// other values alphabetically.
func compareHubs(a, b Hub) int {
	ao, bo := a.order(), b.order()
	switch {
	case ao >= 0 && bo >= 0:
		return cmp.Compare(ao, bo)
	case ao >= 0:
		return -1
	case bo >= 0:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// SortAssignments orders assignments by hub, cohort year, then id.
func SortAssignments(list []CohortAssignment) {
	slices.SortStableFunc(list, func(a, b CohortAssignment) int {
		if c := compareHubs(a.Hub, b.Hub); c != 0 {
			return c
		}
		if c := cmp.Compare(a.CohortYear, b.CohortYear); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// CohortOverview groups the assignments matching f by (cohort year, hub).
// Rows are ordered by hub order, then ascending year.
func CohortOverview(assignments []CohortAssignment, f Filter) []CohortSummary {
	type key struct {
		year int
		hub  Hub
	}
	groups := make(map[key]*CohortSummary)
	for _, a := range assignments {
		if !f.matchYear(a.CohortYear) || !f.matchHub(a.Hub) {
			continue
		}
		k := key{a.CohortYear, a.Hub}
		s, ok := groups[k]
		if !ok {
			s = &CohortSummary{CohortYear: a.CohortYear, Hub: a.Hub}
			groups[k] = s
		}
		s.TotalMembers++
		switch a.BootcampStatus {
		case BootcampActive:
			s.ActiveMembers++
		case BootcampCompleted:
			s.CompletedMembers++
		}
	}

	out := make([]CohortSummary, 0, len(groups))
	for _, s := range groups {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b CohortSummary) int {
		if c := compareHubs(a.Hub, b.Hub); c != 0 {
			return c
		}
		return cmp.Compare(a.CohortYear, b.CohortYear)
	})
	return out
}

// CohortDetails lists every assignment for (year, hub) joined with the
// entrepreneur, their primary business and their payment completion.
func CohortDetails(snap Snapshot, year int, hub Hub) []CohortDetail {
	owners := make(map[int64]Entrepreneur, len(snap.Entrepreneurs))
	for _, e := range snap.Entrepreneurs {
		owners[e.ID] = e
	}

	businesses := append([]Business(nil), snap.Businesses...)
	SortBusinesses(businesses)
	primary := make(map[int64]string)
	for _, b := range businesses {
		if _, ok := primary[b.EntrepreneurID]; !ok {
			primary[b.EntrepreneurID] = b.Name
		}
	}

	type tally struct{ paid, total int }
	payments := make(map[int64]tally)
	for _, p := range snap.Payments {
		t := payments[p.EntrepreneurID]
		t.total++
		if p.Status == StatusPaid {
			t.paid++
		}
		payments[p.EntrepreneurID] = t
	}

	matching := Filter{Hub: string(hub)}.WithCohortYear(year).Assignments(snap.Assignments)
	SortAssignments(matching)

	out := make([]CohortDetail, 0, len(matching))
	for _, a := range matching {
		d := CohortDetail{
			AssignmentID:   a.ID,
			EntrepreneurID: a.EntrepreneurID,
			Name:           PlaceholderUnknown,
			Surname:        PlaceholderUnknown,
			CohortName:     a.CohortName,
			BusinessName:   PlaceholderNA,
			Attendance:     a.Attendance,
			TotalSessions:  a.TotalSessions,
			AttendanceRate: PaymentRate(a.Attendance, a.TotalSessions),
			BootcampStatus: a.BootcampStatus,
			AssignedDate:   a.AssignedDate,
		}
		if e, ok := owners[a.EntrepreneurID]; ok {
			d.Name, d.Surname, d.Email = e.Name, e.Surname, e.Email
		}
		if name, ok := primary[a.EntrepreneurID]; ok {
			d.BusinessName = name
		}
		t := payments[a.EntrepreneurID]
		d.PaidPayments, d.TotalPayments = t.paid, t.total
		d.PaymentRate = PaymentRate(t.paid, t.total)
		out = append(out, d)
	}
	return out
}

// JoinAssignments attaches entrepreneur display fields to assignments.
func JoinAssignments(snap Snapshot, assignments []CohortAssignment) []AssignmentView {
	owners := make(map[int64]Entrepreneur, len(snap.Entrepreneurs))
	for _, e := range snap.Entrepreneurs {
		owners[e.ID] = e
	}
	out := make([]AssignmentView, 0, len(assignments))
	for _, a := range assignments {
		v := AssignmentView{Assignment: a, Name: PlaceholderUnknown, Surname: PlaceholderUnknown}
		if e, ok := owners[a.EntrepreneurID]; ok {
			v.Name, v.Surname, v.Email = e.Name, e.Surname, e.Email
		}
		out = append(out, v)
	}
	return out
}
