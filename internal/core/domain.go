package core

import (
	"strings"
	"time"
)

const (
	HubDunoon      Hub = "Dunoon"
	HubKhayelitsha Hub = "Khayelitsha"
	HubBellville   Hub = "Bellville"
)

const (
	AccountActive   AccountStatus = "active"
	AccountInactive AccountStatus = "inactive"
)

const (
	BusinessPtyLtd         BusinessType = "PTY LTD"
	BusinessCC             BusinessType = "CC"
	BusinessSoleProprietor BusinessType = "Sole Proprietor"
	BusinessPartnership    BusinessType = "Partnership"
)

const (
	TurnoverUpTo50k  TurnoverRange = "R0-R50k"
	TurnoverUpTo100k TurnoverRange = "R50k-R100k"
	TurnoverUpTo500k TurnoverRange = "R100k-R500k"
	TurnoverUpTo1M   TurnoverRange = "R500k-R1M"
	TurnoverOver1M   TurnoverRange = "R1M+"
)

const (
	BootcampActive    BootcampStatus = "active"
	BootcampCompleted BootcampStatus = "completed"
	BootcampInactive  BootcampStatus = "inactive"
)

// Placeholders used when a join target is missing.
const (
	PlaceholderUnknown = "unknown"
	PlaceholderNA      = "N/A"
)

// Hubs lists every hub in reporting order.
var Hubs = []Hub{HubDunoon, HubKhayelitsha, HubBellville}

type (
	Hub            string
	AccountStatus  string
	BusinessType   string
	TurnoverRange  string
	BootcampStatus string

	Entrepreneur struct {
		ID        int64
		Name      string
		Surname   string
		IDNumber  string
		Email     string
		Phone     string
		Hub       Hub
		Status    AccountStatus
		CreatedAt time.Time
	}

	Business struct {
		ID                 int64
		EntrepreneurID     int64
		Name               string
		RegistrationNumber string
		Type               BusinessType
		Industry           string
		TurnoverRange      TurnoverRange
		YearsOperating     int
		CreatedAt          time.Time
	}

	CohortAssignment struct {
		ID             int64
		EntrepreneurID int64
		CohortName     string
		CohortYear     int
		Hub            Hub // copied from the entrepreneur when assigned
		BootcampStatus BootcampStatus
		AssignedDate   time.Time
		Attendance     int
		TotalSessions  int
	}
)

// IsValid reports whether h is one of the enumerated hubs.
func (h Hub) IsValid() bool {
	return h.order() >= 0
}

// order returns the reporting position of h, or -1 for unknown hubs.
func (h Hub) order() int {
	for i, v := range Hubs {
		if v == h {
			return i
		}
	}
	return -1
}

func (s AccountStatus) IsValid() bool {
	return s == AccountActive || s == AccountInactive
}

// Toggled flips active and inactive.
func (s AccountStatus) Toggled() AccountStatus {
	if s == AccountActive {
		return AccountInactive
	}
	return AccountActive
}

func (t BusinessType) IsValid() bool {
	switch t {
	case BusinessPtyLtd, BusinessCC, BusinessSoleProprietor, BusinessPartnership:
		return true
	default:
		return false
	}
}

func (r TurnoverRange) IsValid() bool {
	switch r {
	case TurnoverUpTo50k, TurnoverUpTo100k, TurnoverUpTo500k, TurnoverUpTo1M, TurnoverOver1M:
		return true
	default:
		return false
	}
}

func (s BootcampStatus) IsValid() bool {
	switch s {
	case BootcampActive, BootcampCompleted, BootcampInactive:
		return true
	default:
		return false
	}
}

// NormalizeEmail lowercases and trims an email for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (e Entrepreneur) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(e.Surname) == "" {
		return ErrEmptySurname
	}
	if id := strings.TrimSpace(e.IDNumber); id == "" || len(id) > 13 {
		return ErrInvalidIDNumber
	}
	email := strings.TrimSpace(e.Email)
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || strings.ContainsAny(email, " \t\n") {
		return ErrInvalidEmail
	}
	if !e.Hub.IsValid() {
		return ErrInvalidHub
	}
	return nil
}

func (b Business) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyBusinessName
	}
	if strings.TrimSpace(b.RegistrationNumber) == "" {
		return ErrEmptyRegistration
	}
	if !b.Type.IsValid() {
		return ErrInvalidBusinessType
	}
	if !b.TurnoverRange.IsValid() {
		return ErrInvalidTurnover
	}
	if b.YearsOperating < 0 || b.YearsOperating > 200 {
		return ErrInvalidYearsOperating
	}
	return nil
}

func (a CohortAssignment) Validate() error {
	if strings.TrimSpace(a.CohortName) == "" {
		return ErrEmptyCohortName
	}
	if err := ValidateYear(a.CohortYear); err != nil {
		return err
	}
	if !a.BootcampStatus.IsValid() {
		return ErrInvalidStatus
	}
	if a.Attendance < 0 || a.TotalSessions < 0 || a.Attendance > a.TotalSessions {
		return ErrInvalidAttendance
	}
	return nil
}

// ValidateMonth checks month is in 1..12.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// Payment and cohort years must fall in [MinYear, MaxYear].
const (
	MinYear = 2000
	MaxYear = 2100
)

// ValidateYear checks year is in MinYear..MaxYear.
func ValidateYear(year int) error {
	if year < MinYear || year > MaxYear {
		return ErrInvalidYear
	}
	return nil
}
