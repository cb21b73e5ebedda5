package http

import (
	"net/http"

	"hubtrack/internal/core"
	"hubtrack/internal/services"
)

type registerRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	IDNumber string `json:"id_number"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Hub      string `json:"hub"`
}

type registerResponse struct {
	Entrepreneur entrepreneurDTO `json:"entrepreneur"`
	Token        string          `json:"token"`
	ExpiresIn    int64           `json:"expires_in"`
}

// handleRegister creates an entrepreneur account and returns a bearer
// token for it.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.svc.RegisterEntrepreneur(r.Context(), services.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		IDNumber: req.IDNumber,
		Email:    req.Email,
		Phone:    req.Phone,
		Hub:      req.Hub,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	token, err := s.auth.Issue(core.EntrepreneurIdentity(e.ID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		Entrepreneur: toEntrepreneur(e),
		Token:        token,
		ExpiresIn:    int64(s.auth.TTL().Seconds()),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, who core.Identity) {
	d, err := s.svc.GetDashboard(r.Context(), who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboard(d))
}

type businessRequest struct {
	Name               string `json:"business_name"`
	RegistrationNumber string `json:"registration_number"`
	Type               string `json:"business_type"`
	Industry           string `json:"industry"`
	TurnoverRange      string `json:"turnover_range"`
	YearsOperating     int    `json:"years_operating"`
}

func (s *Server) handleAddBusiness(w http.ResponseWriter, r *http.Request, who core.Identity) {
	var req businessRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	b, err := s.svc.AddBusiness(r.Context(), who, services.BusinessInput{
		Name:               req.Name,
		RegistrationNumber: req.RegistrationNumber,
		Type:               req.Type,
		Industry:           req.Industry,
		TurnoverRange:      req.TurnoverRange,
		YearsOperating:     req.YearsOperating,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBusiness(b))
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request, who core.Identity) {
	list, err := s.svc.ListBusinesses(r.Context(), who)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toBusiness))
}

type paymentRequest struct {
	BusinessID int64 `json:"business_id"`
	Month      int   `json:"month"`
	Year       int   `json:"year"`
}

func (s *Server) handleCreatePayment(w http.ResponseWriter, r *http.Request, who core.Identity) {
	var req paymentRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := s.svc.CreatePayment(r.Context(), who, req.BusinessID, req.Month, req.Year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPayment(p))
}

// handleListOwnPayments lists the caller's payments. Administrators name the
// entrepreneur with ?entrepreneur_id.
func (s *Server) handleListOwnPayments(w http.ResponseWriter, r *http.Request, who core.Identity) {
	entrepreneurID := who.EntrepreneurID
	id, ok, err := queryID(r, "entrepreneur_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if ok {
		entrepreneurID = id
	}
	list, err := s.svc.ListPaymentsForEntrepreneur(r.Context(), who, entrepreneurID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapSlice(list, toPayment))
}
