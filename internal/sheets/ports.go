package sheets

import (
	"context"
	"time"

	"hubtrack/internal/core"
)

// Entry is one row of the payment status ledger: a status change together
// with the payment it belongs to.
type Entry struct {
	ChangeID       int64
	PaymentID      int64
	BusinessID     int64
	EntrepreneurID int64
	Month          int
	Year           int
	From           core.PaymentStatus
	To             core.PaymentStatus
	Actor          core.Role
	ChangedAt      time.Time
}

// NewEntry builds the ledger row for change on p.
func NewEntry(p core.PaymentRecord, change core.PaymentStatusChange) Entry {
	return Entry{
		ChangeID:       change.ID,
		PaymentID:      p.ID,
		BusinessID:     p.BusinessID,
		EntrepreneurID: p.EntrepreneurID,
		Month:          p.Month,
		Year:           p.Year,
		From:           change.From,
		To:             change.To,
		Actor:          change.Actor,
		ChangedAt:      change.At,
	}
}

// Ports for outbound adapters.
type (
	LedgerWriter interface {
		AppendEntry(ctx context.Context, e Entry) (rowRef string, err error)
	}

	// LedgerReader lists the change ids already present in the ledger.
	LedgerReader interface {
		ListChangeIDs(ctx context.Context) (map[int64]struct{}, error)
	}

	Ledger interface {
		LedgerWriter
		LedgerReader
	}
)
