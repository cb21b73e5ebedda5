package core

import "errors"

// Error kinds returned to the routing layer. Match with errors.Is.
var (
	ErrDuplicateKey  = errors.New("duplicate key")
	ErrNotFound      = errors.New("not found")
	ErrNotOwner      = errors.New("not owner")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Validation errors.
var (
	ErrInvalidMonth          = errors.New("invalid month")
	ErrInvalidYear           = errors.New("invalid year")
	ErrInvalidHub            = errors.New("invalid hub")
	ErrEmptyName             = errors.New("empty name")
	ErrEmptySurname          = errors.New("empty surname")
	ErrInvalidEmail          = errors.New("invalid email")
	ErrInvalidIDNumber       = errors.New("invalid ID number")
	ErrEmptyBusinessName     = errors.New("empty business name")
	ErrEmptyRegistration     = errors.New("empty registration number")
	ErrInvalidBusinessType   = errors.New("invalid business type")
	ErrInvalidTurnover       = errors.New("invalid turnover range")
	ErrInvalidYearsOperating = errors.New("invalid years operating")
	ErrEmptyCohortName       = errors.New("empty cohort name")
	ErrInvalidAttendance     = errors.New("invalid attendance")
)

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrInvalidStatus, ErrInvalidFilter, ErrInvalidMonth, ErrInvalidYear,
		ErrInvalidHub, ErrEmptyName, ErrEmptySurname, ErrInvalidEmail,
		ErrInvalidIDNumber, ErrEmptyBusinessName, ErrEmptyRegistration,
		ErrInvalidBusinessType, ErrInvalidTurnover, ErrInvalidYearsOperating,
		ErrEmptyCohortName, ErrInvalidAttendance,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
