package core

import (
	"errors"
	"testing"
	"time"
)

func validEntrepreneur() Entrepreneur {
	return Entrepreneur{
		Name:     "Thandi",
		Surname:  "Mokoena",
		IDNumber: "9001015009087",
		Email:    "thandi@example.com",
		Hub:      HubDunoon,
		Status:   AccountActive,
	}
}

func validBusiness() Business {
	return Business{
		EntrepreneurID:     1,
		Name:               "Spaza One",
		RegistrationNumber: "2020/123456/07",
		Type:               BusinessPtyLtd,
		Industry:           "Retail",
		TurnoverRange:      TurnoverUpTo50k,
		YearsOperating:     3,
	}
}

func TestEntrepreneurValidate(t *testing.T) {
	if err := validEntrepreneur().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Entrepreneur)
		want   error
	}{
		{func(e *Entrepreneur) { e.Name = "  " }, ErrEmptyName},
		{func(e *Entrepreneur) { e.Surname = "" }, ErrEmptySurname},
		{func(e *Entrepreneur) { e.IDNumber = "" }, ErrInvalidIDNumber},
		{func(e *Entrepreneur) { e.IDNumber = "12345678901234" }, ErrInvalidIDNumber},
		{func(e *Entrepreneur) { e.Email = "nope" }, ErrInvalidEmail},
		{func(e *Entrepreneur) { e.Email = "@example.com" }, ErrInvalidEmail},
		{func(e *Entrepreneur) { e.Email = "a b@example.com" }, ErrInvalidEmail},
		{func(e *Entrepreneur) { e.Hub = "Atlantis" }, ErrInvalidHub},
	}
	for i, tc := range cases {
		e := validEntrepreneur()
		tc.mutate(&e)
		if err := e.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
		if !IsValidation(tc.want) {
			t.Fatalf("case %d: %v should be a validation error", i, tc.want)
		}
	}
}

func TestBusinessValidate(t *testing.T) {
	if err := validBusiness().Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		mutate func(*Business)
		want   error
	}{
		{func(b *Business) { b.Name = "" }, ErrEmptyBusinessName},
		{func(b *Business) { b.RegistrationNumber = " " }, ErrEmptyRegistration},
		{func(b *Business) { b.Type = "LLC" }, ErrInvalidBusinessType},
		{func(b *Business) { b.TurnoverRange = "lots" }, ErrInvalidTurnover},
		{func(b *Business) { b.YearsOperating = -1 }, ErrInvalidYearsOperating},
	}
	for i, tc := range cases {
		b := validBusiness()
		tc.mutate(&b)
		if err := b.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestCohortAssignmentValidate(t *testing.T) {
	good := CohortAssignment{
		EntrepreneurID: 1,
		CohortName:     "Cohort A",
		CohortYear:     2024,
		Hub:            HubBellville,
		BootcampStatus: BootcampActive,
		Attendance:     3,
		TotalSessions:  10,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bad := []struct {
		mutate func(*CohortAssignment)
		want   error
	}{
		{func(a *CohortAssignment) { a.CohortName = "" }, ErrEmptyCohortName},
		{func(a *CohortAssignment) { a.CohortYear = 1999 }, ErrInvalidYear},
		{func(a *CohortAssignment) { a.BootcampStatus = "paused" }, ErrInvalidStatus},
		{func(a *CohortAssignment) { a.Attendance = 11 }, ErrInvalidAttendance},
		{func(a *CohortAssignment) { a.Attendance = -1 }, ErrInvalidAttendance},
	}
	for i, tc := range bad {
		a := good
		tc.mutate(&a)
		if err := a.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestMonthAndYearBounds(t *testing.T) {
	for _, m := range []int{0, 13, -1} {
		if err := ValidateMonth(m); !errors.Is(err, ErrInvalidMonth) {
			t.Fatalf("month %d: got %v", m, err)
		}
	}
	for _, m := range []int{1, 12} {
		if err := ValidateMonth(m); err != nil {
			t.Fatalf("month %d: got %v", m, err)
		}
	}
	for _, y := range []int{MinYear - 1, MaxYear + 1, 0, -2025} {
		if err := ValidateYear(y); !errors.Is(err, ErrInvalidYear) {
			t.Fatalf("year %d: got %v", y, err)
		}
	}
	for _, y := range []int{MinYear, 2025, MaxYear} {
		if err := ValidateYear(y); err != nil {
			t.Fatalf("year %d: got %v", y, err)
		}
	}
}

func TestHubOrderAndToggle(t *testing.T) {
	for i, h := range Hubs {
		if !h.IsValid() || h.order() != i {
			t.Fatalf("hub %s out of order", h)
		}
	}
	if Hub("Nowhere").IsValid() {
		t.Fatalf("unknown hub reported valid")
	}
	if AccountActive.Toggled() != AccountInactive || AccountInactive.Toggled() != AccountActive {
		t.Fatalf("toggle does not flip")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Thandi@Example.COM "); got != "thandi@example.com" {
		t.Fatalf("got %q", got)
	}
}

func TestNewAssignmentCopiesHub(t *testing.T) {
	e := validEntrepreneur()
	e.ID = 7
	e.Hub = HubKhayelitsha
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	a, err := NewAssignment(e, "Cohort B", 2024, now)
	if err != nil {
		t.Fatalf("unexpected: %v", err)
	}
	if a.Hub != HubKhayelitsha || a.EntrepreneurID != 7 || a.BootcampStatus != BootcampActive {
		t.Fatalf("unexpected assignment %+v", a)
	}
	if _, err := NewAssignment(e, "", 2024, now); !errors.Is(err, ErrEmptyCohortName) {
		t.Fatalf("expected empty cohort name, got %v", err)
	}
}
