package http

import (
	"time"

	"hubtrack/internal/core"
	"hubtrack/internal/services"
)

// JSON shapes of the API. Core types carry no wire tags.

type entrepreneurDTO struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	IDNumber  string    `json:"id_number"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Hub       string    `json:"hub"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func toEntrepreneur(e core.Entrepreneur) entrepreneurDTO {
	return entrepreneurDTO{
		ID:        e.ID,
		Name:      e.Name,
		Surname:   e.Surname,
		IDNumber:  e.IDNumber,
		Email:     e.Email,
		Phone:     e.Phone,
		Hub:       string(e.Hub),
		Status:    string(e.Status),
		CreatedAt: e.CreatedAt,
	}
}

type businessDTO struct {
	ID                 int64     `json:"id"`
	EntrepreneurID     int64     `json:"entrepreneur_id"`
	Name               string    `json:"business_name"`
	RegistrationNumber string    `json:"registration_number"`
	Type               string    `json:"business_type"`
	Industry           string    `json:"industry,omitempty"`
	TurnoverRange      string    `json:"turnover_range"`
	YearsOperating     int       `json:"years_operating"`
	CreatedAt          time.Time `json:"created_at"`

	EntrepreneurName    string `json:"entrepreneur_name,omitempty"`
	EntrepreneurSurname string `json:"entrepreneur_surname,omitempty"`
	Hub                 string `json:"hub,omitempty"`
}

func toBusiness(b core.Business) businessDTO {
	return businessDTO{
		ID:                 b.ID,
		EntrepreneurID:     b.EntrepreneurID,
		Name:               b.Name,
		RegistrationNumber: b.RegistrationNumber,
		Type:               string(b.Type),
		Industry:           b.Industry,
		TurnoverRange:      string(b.TurnoverRange),
		YearsOperating:     b.YearsOperating,
		CreatedAt:          b.CreatedAt,
	}
}

func toBusinessView(v core.BusinessView) businessDTO {
	d := toBusiness(v.Business)
	d.EntrepreneurName = v.EntrepreneurName
	d.EntrepreneurSurname = v.EntrepreneurSurname
	d.Hub = string(v.Hub)
	return d
}

type paymentDTO struct {
	ID             int64     `json:"id"`
	BusinessID     int64     `json:"business_id"`
	EntrepreneurID int64     `json:"entrepreneur_id"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	Status         string    `json:"status"`
	Notes          string    `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	UpdatedBy      string    `json:"updated_by"`

	BusinessName        string `json:"business_name,omitempty"`
	EntrepreneurName    string `json:"entrepreneur_name,omitempty"`
	EntrepreneurSurname string `json:"entrepreneur_surname,omitempty"`
	EntrepreneurEmail   string `json:"entrepreneur_email,omitempty"`
	Hub                 string `json:"hub,omitempty"`
}

func toPayment(p core.PaymentRecord) paymentDTO {
	return paymentDTO{
		ID:             p.ID,
		BusinessID:     p.BusinessID,
		EntrepreneurID: p.EntrepreneurID,
		Month:          p.Month,
		Year:           p.Year,
		Status:         string(p.Status),
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		UpdatedBy:      string(p.UpdatedBy),
	}
}

func toPaymentView(v core.PaymentView) paymentDTO {
	d := toPayment(v.Payment)
	d.BusinessName = v.BusinessName
	d.EntrepreneurName = v.EntrepreneurName
	d.EntrepreneurSurname = v.EntrepreneurSurname
	d.EntrepreneurEmail = v.EntrepreneurEmail
	d.Hub = string(v.Hub)
	return d
}

type statusChangeDTO struct {
	ID        int64     `json:"id"`
	PaymentID int64     `json:"payment_id"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	At        time.Time `json:"at"`
	Synced    bool      `json:"synced"`
}

func toStatusChange(c core.PaymentStatusChange) statusChangeDTO {
	return statusChangeDTO{
		ID:        c.ID,
		PaymentID: c.PaymentID,
		From:      string(c.From),
		To:        string(c.To),
		Actor:     string(c.Actor),
		At:        c.At,
		Synced:    c.Synced,
	}
}

type statusCountsDTO struct {
	Total   int `json:"total"`
	Pending int `json:"pending"`
	Paid    int `json:"paid"`
	Unpaid  int `json:"unpaid"`
	Overdue int `json:"overdue"`
}

func toStatusCounts(c core.StatusCounts) statusCountsDTO {
	return statusCountsDTO{Total: c.Total(), Pending: c.Pending, Paid: c.Paid, Unpaid: c.Unpaid, Overdue: c.Overdue}
}

type hubSummaryDTO struct {
	Hub                 string `json:"hub"`
	TotalEntrepreneurs  int    `json:"total_entrepreneurs"`
	ActiveEntrepreneurs int    `json:"active_entrepreneurs"`
	TotalBusinesses     int    `json:"total_businesses"`
	TotalPayments       int    `json:"total_payments"`
	PaidPayments        int    `json:"paid_payments"`
	PaymentRate         int    `json:"payment_rate"`
}

type adminReportDTO struct {
	GeneratedAt         time.Time       `json:"generated_at"`
	TotalEntrepreneurs  int             `json:"total_entrepreneurs"`
	TotalBusinesses     int             `json:"total_businesses"`
	Payments            statusCountsDTO `json:"payments"`
	RecentRegistrations int             `json:"recent_registrations"`
	TotalAssignments    int             `json:"total_assignments"`
	Hubs                []hubSummaryDTO `json:"hubs"`
}

func toAdminReport(r core.AdminReport) adminReportDTO {
	hubs := make([]hubSummaryDTO, 0, len(r.Hubs))
	for _, h := range r.Hubs {
		hubs = append(hubs, hubSummaryDTO{
			Hub:                 string(h.Hub),
			TotalEntrepreneurs:  h.TotalEntrepreneurs,
			ActiveEntrepreneurs: h.ActiveEntrepreneurs,
			TotalBusinesses:     h.TotalBusinesses,
			TotalPayments:       h.TotalPayments,
			PaidPayments:        h.PaidPayments,
			PaymentRate:         h.PaymentRate,
		})
	}
	return adminReportDTO{
		GeneratedAt:         r.GeneratedAt,
		TotalEntrepreneurs:  r.TotalEntrepreneurs,
		TotalBusinesses:     r.TotalBusinesses,
		Payments:            toStatusCounts(r.Payments),
		RecentRegistrations: r.RecentRegistrations,
		TotalAssignments:    r.TotalAssignments,
		Hubs:                hubs,
	}
}

type assignmentDTO struct {
	ID             int64     `json:"id"`
	EntrepreneurID int64     `json:"entrepreneur_id"`
	CohortName     string    `json:"cohort_name"`
	CohortYear     int       `json:"cohort_year"`
	Hub            string    `json:"hub"`
	BootcampStatus string    `json:"bootcamp_status"`
	AssignedDate   time.Time `json:"assigned_date"`
	Attendance     int       `json:"attendance"`
	TotalSessions  int       `json:"total_sessions"`

	Name    string `json:"name,omitempty"`
	Surname string `json:"surname,omitempty"`
	Email   string `json:"email,omitempty"`
}

func toAssignment(a core.CohortAssignment) assignmentDTO {
	return assignmentDTO{
		ID:             a.ID,
		EntrepreneurID: a.EntrepreneurID,
		CohortName:     a.CohortName,
		CohortYear:     a.CohortYear,
		Hub:            string(a.Hub),
		BootcampStatus: string(a.BootcampStatus),
		AssignedDate:   a.AssignedDate,
		Attendance:     a.Attendance,
		TotalSessions:  a.TotalSessions,
	}
}

func toAssignmentView(v core.AssignmentView) assignmentDTO {
	d := toAssignment(v.Assignment)
	d.Name, d.Surname, d.Email = v.Name, v.Surname, v.Email
	return d
}

type cohortSummaryDTO struct {
	CohortYear       int    `json:"cohort_year"`
	Hub              string `json:"hub"`
	TotalMembers     int    `json:"total_members"`
	ActiveMembers    int    `json:"active_members"`
	CompletedMembers int    `json:"completed_members"`
}

func toCohortSummary(c core.CohortSummary) cohortSummaryDTO {
	return cohortSummaryDTO{
		CohortYear:       c.CohortYear,
		Hub:              string(c.Hub),
		TotalMembers:     c.TotalMembers,
		ActiveMembers:    c.ActiveMembers,
		CompletedMembers: c.CompletedMembers,
	}
}

type cohortDetailDTO struct {
	AssignmentID   int64     `json:"assignment_id"`
	EntrepreneurID int64     `json:"entrepreneur_id"`
	Name           string    `json:"name"`
	Surname        string    `json:"surname"`
	Email          string    `json:"email"`
	CohortName     string    `json:"cohort_name"`
	BusinessName   string    `json:"business_name"`
	Attendance     int       `json:"attendance"`
	TotalSessions  int       `json:"total_sessions"`
	AttendanceRate int       `json:"attendance_rate"`
	PaidPayments   int       `json:"paid_payments"`
	TotalPayments  int       `json:"total_payments"`
	PaymentRate    int       `json:"payment_rate"`
	BootcampStatus string    `json:"bootcamp_status"`
	AssignedDate   time.Time `json:"assigned_date"`
}

func toCohortDetail(d core.CohortDetail) cohortDetailDTO {
	return cohortDetailDTO{
		AssignmentID:   d.AssignmentID,
		EntrepreneurID: d.EntrepreneurID,
		Name:           d.Name,
		Surname:        d.Surname,
		Email:          d.Email,
		CohortName:     d.CohortName,
		BusinessName:   d.BusinessName,
		Attendance:     d.Attendance,
		TotalSessions:  d.TotalSessions,
		AttendanceRate: d.AttendanceRate,
		PaidPayments:   d.PaidPayments,
		TotalPayments:  d.TotalPayments,
		PaymentRate:    d.PaymentRate,
		BootcampStatus: string(d.BootcampStatus),
		AssignedDate:   d.AssignedDate,
	}
}

type summaryDTO struct {
	TotalMonths int             `json:"total_months"`
	Counts      statusCountsDTO `json:"counts"`
	Outstanding int             `json:"outstanding"`
	PaymentRate int             `json:"payment_rate"`
}

type dashboardDTO struct {
	Entrepreneur entrepreneurDTO `json:"entrepreneur"`
	Businesses   []businessDTO   `json:"businesses"`
	Payments     []paymentDTO    `json:"payments"`
	Summary      summaryDTO      `json:"summary"`
	LatestCohort *assignmentDTO  `json:"latest_cohort,omitempty"`
}

func toDashboard(d services.Dashboard) dashboardDTO {
	out := dashboardDTO{
		Entrepreneur: toEntrepreneur(d.Entrepreneur),
		Businesses:   mapSlice(d.Businesses, toBusiness),
		Payments:     mapSlice(d.Payments, toPayment),
		Summary: summaryDTO{
			TotalMonths: d.Summary.TotalMonths,
			Counts:      toStatusCounts(d.Summary.Counts),
			Outstanding: d.Summary.Outstanding,
			PaymentRate: d.Summary.PaymentRate,
		},
	}
	if d.LatestCohort != nil {
		a := toAssignment(*d.LatestCohort)
		out.LatestCohort = &a
	}
	return out
}

// mapSlice converts every element and never returns nil, so empty lists
// encode as [].
func mapSlice[T, U any](in []T, f func(T) U) []U {
	out := make([]U, 0, len(in))
	for _, v := range in {
		out = append(out, f(v))
	}
	return out
}
