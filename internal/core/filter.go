package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// Filter holds the administrator-supplied criteria. Empty fields do not
// filter; set fields are AND-combined. Values outside the recognized sets
// match nothing rather than failing.
type Filter struct {
	Search     string
	Hub        string
	Status     string
	CohortYear *int
}

// ParseFilter reads the recognized keys (search, hub, status, cohortYear)
// from query values. Other keys are ignored.
func ParseFilter(q url.Values) (Filter, error) {
	f := Filter{
		Search: strings.TrimSpace(q.Get("search")),
		Hub:    strings.TrimSpace(q.Get("hub")),
		Status: strings.TrimSpace(q.Get("status")),
	}
	if v := strings.TrimSpace(q.Get("cohortYear")); v != "" {
		year, err := strconv.Atoi(v)
		if err != nil {
			return Filter{}, fmt.Errorf("%w: cohortYear %q is not numeric", ErrInvalidFilter, v)
		}
		f.CohortYear = &year
	}
	return f, nil
}

// WithCohortYear returns a copy of f restricted to year.
func (f Filter) WithCohortYear(year int) Filter {
	f.CohortYear = &year
	return f
}

func (f Filter) matchSearch(fields ...string) bool {
	needle := strings.ToLower(strings.TrimSpace(f.Search))
	if needle == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (f Filter) matchHub(h Hub) bool {
	return f.Hub == "" || string(h) == f.Hub
}

func (f Filter) matchStatus(status string) bool {
	return f.Status == "" || status == f.Status
}

func (f Filter) matchYear(year int) bool {
	return f.CohortYear == nil || *f.CohortYear == year
}

// MatchEntrepreneur applies search, hub and account status.
func (f Filter) MatchEntrepreneur(e Entrepreneur) bool {
	return f.matchSearch(e.Name, e.Surname, e.Email) &&
		f.matchHub(e.Hub) &&
		f.matchStatus(string(e.Status))
}

// MatchPayment applies search and hub against the owning entrepreneur and
// status against the payment status.
func (f Filter) MatchPayment(v PaymentView) bool {
	return f.matchSearch(v.EntrepreneurName, v.EntrepreneurSurname, v.EntrepreneurEmail) &&
		f.matchHub(v.Hub) &&
		f.matchStatus(string(v.Payment.Status))
}

// MatchAssignment applies cohort year, hub and bootcamp status.
func (f Filter) MatchAssignment(a CohortAssignment) bool {
	return f.matchYear(a.CohortYear) &&
		f.matchHub(a.Hub) &&
		f.matchStatus(string(a.BootcampStatus))
}

// Entrepreneurs returns the entrepreneurs matching f, preserving order.
func (f Filter) Entrepreneurs(in []Entrepreneur) []Entrepreneur {
	out := make([]Entrepreneur, 0, len(in))
	for _, e := range in {
		if f.MatchEntrepreneur(e) {
			out = append(out, e)
		}
	}
	return out
}

// Payments returns the payment views matching f, preserving order.
func (f Filter) Payments(in []PaymentView) []PaymentView {
	out := make([]PaymentView, 0, len(in))
	for _, v := range in {
		if f.MatchPayment(v) {
			out = append(out, v)
		}
	}
	return out
}

// Assignments returns the assignments matching f, preserving order.
func (f Filter) Assignments(in []CohortAssignment) []CohortAssignment {
	out := make([]CohortAssignment, 0, len(in))
	for _, a := range in {
		if f.MatchAssignment(a) {
			out = append(out, a)
		}
	}
	return out
}
