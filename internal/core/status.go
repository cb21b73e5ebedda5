package core

import (
	"fmt"
	"time"
)

const (
	StatusPending PaymentStatus = "pending"
	StatusPaid    PaymentStatus = "paid"
	StatusUnpaid  PaymentStatus = "unpaid"
	StatusOverdue PaymentStatus = "overdue"
)

const (
	RoleEntrepreneur Role = "entrepreneur"
	RoleAdmin        Role = "admin"
)

// PaymentStatuses lists every payment status in reporting order.
var PaymentStatuses = []PaymentStatus{StatusPending, StatusPaid, StatusUnpaid, StatusOverdue}

type (
	PaymentStatus string

	// Role is the actor kind asserted by the authenticator.
	Role string

	// Identity is the verified caller of a core operation.
	Identity struct {
		Role           Role
		EntrepreneurID int64 // zero for administrators
	}

	PaymentRecord struct {
		ID             int64
		BusinessID     int64
		EntrepreneurID int64 // owner of BusinessID at creation
		Month          int
		Year           int
		Status         PaymentStatus
		Notes          string
		CreatedAt      time.Time
		UpdatedAt      time.Time
		UpdatedBy      Role
	}

	// PaymentStatusChange is one entry of a payment's status history.
	// From is empty for the creating write.
	PaymentStatusChange struct {
		ID        int64
		PaymentID int64
		From      PaymentStatus
		To        PaymentStatus
		Actor     Role
		At        time.Time
		Synced    bool
	}
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusUnpaid, StatusOverdue:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input to a PaymentStatus.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	s := PaymentStatus(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
	}
	return s, nil
}

func (r Role) IsValid() bool {
	return r == RoleEntrepreneur || r == RoleAdmin
}

// Admin returns an administrator identity.
func Admin() Identity {
	return Identity{Role: RoleAdmin}
}

// EntrepreneurIdentity returns the identity of entrepreneur id.
func EntrepreneurIdentity(id int64) Identity {
	return Identity{Role: RoleEntrepreneur, EntrepreneurID: id}
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// RequireAdmin fails with ErrForbidden unless the identity is an administrator.
func (i Identity) RequireAdmin() error {
	if !i.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// CanAccessEntrepreneur reports whether i may read data owned by entrepreneurID.
func (i Identity) CanAccessEntrepreneur(entrepreneurID int64) bool {
	return i.IsAdmin() || (i.Role == RoleEntrepreneur && i.EntrepreneurID == entrepreneurID)
}

// NewPendingPayment builds the record an entrepreneur creates for one of their businesses.
func NewPendingPayment(owner Identity, b Business, month, year int, now time.Time) (PaymentRecord, error) {
	if owner.Role != RoleEntrepreneur {
		return PaymentRecord{}, ErrForbidden
	}
	if b.EntrepreneurID != owner.EntrepreneurID {
		return PaymentRecord{}, ErrNotOwner
	}
	if err := ValidateMonth(month); err != nil {
		return PaymentRecord{}, err
	}
	if err := ValidateYear(year); err != nil {
		return PaymentRecord{}, err
	}
	return PaymentRecord{
		BusinessID:     b.ID,
		EntrepreneurID: b.EntrepreneurID,
		Month:          month,
		Year:           year,
		Status:         StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
		UpdatedBy:      RoleEntrepreneur,
	}, nil
}

// NewAdminPayment builds a record created directly by an administrator with
// an arbitrary initial status. An empty status means pending.
func NewAdminPayment(actor Identity, b Business, month, year int, status string, notes string, now time.Time) (PaymentRecord, error) {
	if err := actor.RequireAdmin(); err != nil {
		return PaymentRecord{}, err
	}
	if err := ValidateMonth(month); err != nil {
		return PaymentRecord{}, err
	}
	if err := ValidateYear(year); err != nil {
		return PaymentRecord{}, err
	}
	initial := StatusPending
	if status != "" {
		s, err := ParsePaymentStatus(status)
		if err != nil {
			return PaymentRecord{}, err
		}
		initial = s
	}
	return PaymentRecord{
		BusinessID:     b.ID,
		EntrepreneurID: b.EntrepreneurID,
		Month:          month,
		Year:           year,
		Status:         initial,
		Notes:          notes,
		CreatedAt:      now,
		UpdatedAt:      now,
		UpdatedBy:      RoleAdmin,
	}, nil
}

// CheckTransition decides whether actor may write status to to. It does not
// look at the current status: administrators may move any state to any state.
func CheckTransition(actor Identity, to string) (PaymentStatus, error) {
	if actor.Role == RoleEntrepreneur {
		return "", ErrForbidden
	}
	if err := actor.RequireAdmin(); err != nil {
		return "", err
	}
	return ParsePaymentStatus(to)
}

// Apply returns p with the new status written by actor at now, together with
// the history entry describing the write.
func (p PaymentRecord) Apply(to PaymentStatus, actor Role, now time.Time) (PaymentRecord, PaymentStatusChange) {
	change := PaymentStatusChange{
		PaymentID: p.ID,
		From:      p.Status,
		To:        to,
		Actor:     actor,
		At:        now,
	}
	p.Status = to
	p.UpdatedAt = now
	p.UpdatedBy = actor
	return p, change
}

// Period returns the sortable year*100+month value of the record.
func (p PaymentRecord) Period() int {
	return p.Year*100 + p.Month
}
