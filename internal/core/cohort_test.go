package core

import "testing"

func TestCohortOverview(t *testing.T) {
	snap := sampleSnapshot()
	snap.Assignments = append(snap.Assignments,
		CohortAssignment{ID: 4, EntrepreneurID: 2, CohortName: "C", CohortYear: 2022, Hub: HubDunoon, BootcampStatus: BootcampActive},
	)

	rows := CohortOverview(snap.Assignments, Filter{})
	if len(rows) != 3 {
		t.Fatalf("got %d rows: %+v", len(rows), rows)
	}
	// hub order first, then ascending year
	if rows[0].Hub != HubDunoon || rows[0].CohortYear != 2022 ||
		rows[1].Hub != HubDunoon || rows[1].CohortYear != 2024 ||
		rows[2].Hub != HubBellville {
		t.Fatalf("order: %+v", rows)
	}
	if rows[1].TotalMembers != 2 || rows[1].ActiveMembers != 1 || rows[1].CompletedMembers != 1 {
		t.Fatalf("dunoon 2024: %+v", rows[1])
	}
	for _, r := range rows {
		if r.ActiveMembers+r.CompletedMembers > r.TotalMembers {
			t.Fatalf("member counts exceed total: %+v", r)
		}
	}

	filtered := CohortOverview(snap.Assignments, Filter{Hub: "Bellville"})
	if len(filtered) != 1 || filtered[0].TotalMembers != 1 {
		t.Fatalf("hub filter: %+v", filtered)
	}
	if got := CohortOverview(snap.Assignments, Filter{}.WithCohortYear(1999)); len(got) != 0 {
		t.Fatalf("year with no cohorts: %+v", got)
	}
}

func TestCohortDetails(t *testing.T) {
	snap := sampleSnapshot()
	rows := CohortDetails(snap, 2024, HubDunoon)
	if len(rows) != 2 {
		t.Fatalf("got %d rows", len(rows))
	}

	first := rows[0]
	if first.Name != "Thandi" || first.BusinessName != "Spaza One" {
		t.Fatalf("primary business should be the earliest: %+v", first)
	}
	if first.TotalPayments != 3 || first.PaidPayments != 1 || first.PaymentRate != 33 || first.AttendanceRate != 33 {
		t.Fatalf("first row rates: %+v", first)
	}

	second := rows[1]
	if second.BusinessName != PlaceholderNA || second.PaymentRate != 0 || second.TotalPayments != 0 {
		t.Fatalf("entrepreneur without business or payments: %+v", second)
	}
	if second.BootcampStatus != BootcampCompleted {
		t.Fatalf("status: %+v", second)
	}
}

func TestCohortDetailsMissingEntrepreneur(t *testing.T) {
	snap := Snapshot{Assignments: []CohortAssignment{
		{ID: 1, EntrepreneurID: 42, CohortName: "X", CohortYear: 2024, Hub: HubKhayelitsha, BootcampStatus: BootcampActive},
	}}
	rows := CohortDetails(snap, 2024, HubKhayelitsha)
	if len(rows) != 1 || rows[0].Name != PlaceholderUnknown || rows[0].BusinessName != PlaceholderNA {
		t.Fatalf("unexpected rows: %+v", rows)
	}
	if got := CohortDetails(snap, 2024, HubDunoon); len(got) != 0 {
		t.Fatalf("other hub should be empty: %+v", got)
	}
}

func TestJoinAssignments(t *testing.T) {
	snap := sampleSnapshot()
	views := JoinAssignments(snap, snap.Assignments)
	if views[0].Name != "Thandi" || views[2].Surname != "Ndlovu" {
		t.Fatalf("views: %+v", views)
	}
}
