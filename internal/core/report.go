package core

import (
	"cmp"
	"slices"
	"time"
)

// RecentWindow is the trailing window counted as recent registrations.
const RecentWindow = 30 * 24 * time.Hour

// Snapshot is a consistent copy of every store the aggregator reads.
type Snapshot struct {
	Entrepreneurs []Entrepreneur
	Businesses    []Business
	Payments      []PaymentRecord
	Assignments   []CohortAssignment
}

// PaymentView is a payment joined with its business and owner display fields.
type PaymentView struct {
	Payment             PaymentRecord
	BusinessName        string
	EntrepreneurName    string
	EntrepreneurSurname string
	EntrepreneurEmail   string
	Hub                 Hub
}

// StatusCounts counts payments per status.
type StatusCounts struct {
	Pending int
	Paid    int
	Unpaid  int
	Overdue int
}

// HubSummary is the per-hub rollup.
type HubSummary struct {
	Hub                 Hub
	TotalEntrepreneurs  int
	ActiveEntrepreneurs int
	TotalBusinesses     int
	TotalPayments       int
	PaidPayments        int
	PaymentRate         int // percent
}

// AdminReport holds the global counts and the per-hub rollup.
type AdminReport struct {
	GeneratedAt         time.Time
	TotalEntrepreneurs  int
	TotalBusinesses     int
	Payments            StatusCounts
	RecentRegistrations int
	TotalAssignments    int
	Hubs                []HubSummary
}

// PaymentRate returns paid/total as an integer percent rounded half up,
// or 0 when total is 0.
func PaymentRate(paid, total int) int {
	if total <= 0 {
		return 0
	}
	return (paid*200 + total) / (total * 2)
}

func (c *StatusCounts) add(s PaymentStatus) {
	switch s {
	case StatusPending:
		c.Pending++
	case StatusPaid:
		c.Paid++
	case StatusUnpaid:
		c.Unpaid++
	case StatusOverdue:
		c.Overdue++
	}
}

// Total returns the number of counted payments.
func (c StatusCounts) Total() int {
	return c.Pending + c.Paid + c.Unpaid + c.Overdue
}

// CountStatuses classifies every payment into exactly one status bucket.
func CountStatuses(payments []PaymentRecord) StatusCounts {
	var c StatusCounts
	for _, p := range payments {
		c.add(p.Status)
	}
	return c
}

// BuildAdminReport computes the global counts and hub rollup for snap.
func BuildAdminReport(snap Snapshot, now time.Time) AdminReport {
	report := AdminReport{
		GeneratedAt:        now,
		TotalEntrepreneurs: len(snap.Entrepreneurs),
		TotalBusinesses:    len(snap.Businesses),
		Payments:           CountStatuses(snap.Payments),
		TotalAssignments:   len(snap.Assignments),
		Hubs:               HubRollup(snap),
	}
	cutoff := now.Add(-RecentWindow)
	for _, e := range snap.Entrepreneurs {
		if e.CreatedAt.After(cutoff) && !e.CreatedAt.After(now) {
			report.RecentRegistrations++
		}
	}
	return report
}

// HubRollup summarizes each enumerated hub that has at least one entrepreneur,
// in hub order.
func HubRollup(snap Snapshot) []HubSummary {
	hubOf := make(map[int64]Hub, len(snap.Entrepreneurs))
	byHub := make(map[Hub]*HubSummary, len(Hubs))
	for _, e := range snap.Entrepreneurs {
		if !e.Hub.IsValid() {
			continue
		}
		hubOf[e.ID] = e.Hub
		s, ok := byHub[e.Hub]
		if !ok {
			s = &HubSummary{Hub: e.Hub}
			byHub[e.Hub] = s
		}
		s.TotalEntrepreneurs++
		if e.Status == AccountActive {
			s.ActiveEntrepreneurs++
		}
	}
	for _, b := range snap.Businesses {
		if s, ok := byHub[hubOf[b.EntrepreneurID]]; ok {
			s.TotalBusinesses++
		}
	}
	for _, p := range snap.Payments {
		if s, ok := byHub[hubOf[p.EntrepreneurID]]; ok {
			s.TotalPayments++
			if p.Status == StatusPaid {
				s.PaidPayments++
			}
		}
	}

	out := make([]HubSummary, 0, len(byHub))
	for _, h := range Hubs {
		if s, ok := byHub[h]; ok {
			s.PaymentRate = PaymentRate(s.PaidPayments, s.TotalPayments)
			out = append(out, *s)
		}
	}
	return out
}

// JoinPayments attaches business and owner display fields to each payment.
// Missing join targets render as PlaceholderUnknown.
func JoinPayments(snap Snapshot, payments []PaymentRecord) []PaymentView {
	businesses := make(map[int64]Business, len(snap.Businesses))
	for _, b := range snap.Businesses {
		businesses[b.ID] = b
	}
	owners := make(map[int64]Entrepreneur, len(snap.Entrepreneurs))
	for _, e := range snap.Entrepreneurs {
		owners[e.ID] = e
	}

	out := make([]PaymentView, 0, len(payments))
	for _, p := range payments {
		v := PaymentView{
			Payment:             p,
			BusinessName:        PlaceholderUnknown,
			EntrepreneurName:    PlaceholderUnknown,
			EntrepreneurSurname: PlaceholderUnknown,
			Hub:                 Hub(PlaceholderUnknown),
		}
		if b, ok := businesses[p.BusinessID]; ok {
			v.BusinessName = b.Name
		}
		if e, ok := owners[p.EntrepreneurID]; ok {
			v.EntrepreneurName = e.Name
			v.EntrepreneurSurname = e.Surname
			v.EntrepreneurEmail = e.Email
			v.Hub = e.Hub
		}
		out = append(out, v)
	}
	return out
}

// SortPayments orders payments most recent period first, then by business
// and id.
func SortPayments(payments []PaymentRecord) {
	slices.SortStableFunc(payments, func(a, b PaymentRecord) int {
		if c := cmp.Compare(b.Period(), a.Period()); c != 0 {
			return c
		}
		if c := cmp.Compare(a.BusinessID, b.BusinessID); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortEntrepreneurs orders entrepreneurs newest registration first.
func SortEntrepreneurs(list []Entrepreneur) {
	slices.SortStableFunc(list, func(a, b Entrepreneur) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
}

// SortBusinesses orders businesses by creation, oldest first.
func SortBusinesses(list []Business) {
	slices.SortStableFunc(list, func(a, b Business) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// EntrepreneurSummary is the payment overview shown on an entrepreneur's dashboard.
type EntrepreneurSummary struct {
	TotalMonths int
	Counts      StatusCounts
	Outstanding int // unpaid + overdue
	PaymentRate int
}

// SummarizePayments builds the dashboard summary of one entrepreneur's payments.
func SummarizePayments(payments []PaymentRecord) EntrepreneurSummary {
	c := CountStatuses(payments)
	return EntrepreneurSummary{
		TotalMonths: len(payments),
		Counts:      c,
		Outstanding: c.Unpaid + c.Overdue,
		PaymentRate: PaymentRate(c.Paid, len(payments)),
	}
}

// BusinessView is a business joined with its owner's display fields.
type BusinessView struct {
	Business            Business
	EntrepreneurName    string
	EntrepreneurSurname string
	Hub                 Hub
}

// JoinBusinesses attaches owner display fields to each business.
func JoinBusinesses(snap Snapshot, businesses []Business) []BusinessView {
	owners := make(map[int64]Entrepreneur, len(snap.Entrepreneurs))
	for _, e := range snap.Entrepreneurs {
		owners[e.ID] = e
	}
	out := make([]BusinessView, 0, len(businesses))
	for _, b := range businesses {
		v := BusinessView{
			Business:            b,
			EntrepreneurName:    PlaceholderUnknown,
			EntrepreneurSurname: PlaceholderUnknown,
			Hub:                 Hub(PlaceholderUnknown),
		}
		if e, ok := owners[b.EntrepreneurID]; ok {
			v.EntrepreneurName, v.EntrepreneurSurname, v.Hub = e.Name, e.Surname, e.Hub
		}
		out = append(out, v)
	}
	return out
}
