package http

import (
	"bytes"
	"fmt"
	"net/http"

	"hubtrack/internal/core"
	"hubtrack/internal/export"
	"hubtrack/internal/services"
)

func (s *Server) handleAdminReport(w http.ResponseWriter, r *http.Request, who core.Identity) {
	report, err := s.svc.GetAdminReport(r.Context(), who, s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAdminReport(report))
}

// handleExportReport streams the admin report and cohort overview as an
// XLSX workbook. The workbook is rendered fully before any byte is sent so
// failures still produce a JSON error.
func (s *Server) handleExportReport(w http.ResponseWriter, r *http.Request, who core.Identity) {
	now := s.now()
	report, err := s.svc.GetAdminReport(r.Context(), who, now)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cohorts, err := s.svc.ListCohortOverview(r.Context(), who, core.Filter{})
	if err != nil {
		writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteAdminReport(&buf, report, cohorts); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="hubtrack-report-%s.xlsx"`, now.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleListEntrepreneurs(w http.ResponseWriter, r *http.Request, who core.Identity) {
	f, err := core.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.ListEntrepreneurs(r.Context(), who, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toEntrepreneur))
}

// handleToggleEntrepreneur flips the account between active and inactive.
func (s *Server) handleToggleEntrepreneur(w http.ResponseWriter, r *http.Request, who core.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.svc.ToggleEntrepreneurStatus(r.Context(), who, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEntrepreneur(e))
}

func (s *Server) handleListPayments(w http.ResponseWriter, r *http.Request, who core.Identity) {
	f, err := core.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.ListAllPayments(r.Context(), who, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toPaymentView))
}

type adminPaymentRequest struct {
	BusinessID int64  `json:"business_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

func (s *Server) handleAdminCreatePayment(w http.ResponseWriter, r *http.Request, who core.Identity) {
	var req adminPaymentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.CreatePaymentAsAdmin(r.Context(), who, req.BusinessID, req.Month, req.Year, req.Status, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayment(p))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetPaymentStatus(w http.ResponseWriter, r *http.Request, who core.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.SetPaymentStatus(r.Context(), who, id, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPayment(p))
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request, who core.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	history, err := s.svc.PaymentHistory(r.Context(), who, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(history, toStatusChange))
}

func (s *Server) handleListAllBusinesses(w http.ResponseWriter, r *http.Request, who core.Identity) {
	list, err := s.svc.ListAllBusinesses(r.Context(), who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toBusinessView))
}

func (s *Server) handleListAssignments(w http.ResponseWriter, r *http.Request, who core.Identity) {
	f, err := core.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.ListCohortAssignments(r.Context(), who, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toAssignmentView))
}

func (s *Server) handleCohortOverview(w http.ResponseWriter, r *http.Request, who core.Identity) {
	f, err := core.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.svc.ListCohortOverview(r.Context(), who, f)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toCohortSummary))
}

// handleCohortDetails requires both cohortYear and hub.
func (s *Server) handleCohortDetails(w http.ResponseWriter, r *http.Request, who core.Identity) {
	f, err := core.ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if f.CohortYear == nil || f.Hub == "" {
		writeError(w, r, fmt.Errorf("%w: cohortYear and hub are required", core.ErrInvalidFilter))
		return
	}
	list, err := s.svc.GetCohortDetails(r.Context(), who, *f.CohortYear, f.Hub)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toCohortDetail))
}

type assignRequest struct {
	EntrepreneurID int64  `json:"entrepreneur_id"`
	CohortName     string `json:"cohort_name"`
	CohortYear     int    `json:"cohort_year"`
}

func (s *Server) handleAssignCohort(w http.ResponseWriter, r *http.Request, who core.Identity) {
	var req assignRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.svc.AssignCohort(r.Context(), who, req.EntrepreneurID, req.CohortName, req.CohortYear)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAssignment(a))
}

type assignmentUpdateRequest struct {
	BootcampStatus string `json:"bootcamp_status"`
	Attendance     *int   `json:"attendance"`
	TotalSessions  *int   `json:"total_sessions"`
}

func (s *Server) handleUpdateAssignment(w http.ResponseWriter, r *http.Request, who core.Identity) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req assignmentUpdateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	a, err := s.svc.UpdateAssignment(r.Context(), who, id, services.AssignmentUpdate{
		BootcampStatus: req.BootcampStatus,
		Attendance:     req.Attendance,
		TotalSessions:  req.TotalSessions,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAssignment(a))
}
