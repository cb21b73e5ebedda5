package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"hubtrack/internal/core"
)

// PaymentStatusMessage announces one entry of a payment's status history.
// The ledger worker mirrors it to the spreadsheet and marks the change synced.
type PaymentStatusMessage struct {
	MessageID      string    `json:"message_id"`
	ChangeID       int64     `json:"change_id"`
	PaymentID      int64     `json:"payment_id"`
	BusinessID     int64     `json:"business_id"`
	EntrepreneurID int64     `json:"entrepreneur_id"`
	Month          int       `json:"month"`
	Year           int       `json:"year"`
	From           string    `json:"from,omitempty"`
	To             string    `json:"to"`
	Actor          string    `json:"actor"`
	ChangedAt      time.Time `json:"changed_at"`
	Timestamp      time.Time `json:"timestamp"`
}

// NewPaymentStatusMessage builds the message for change applied to p.
func NewPaymentStatusMessage(p core.PaymentRecord, change core.PaymentStatusChange) *PaymentStatusMessage {
	return &PaymentStatusMessage{
		MessageID:      uuid.NewString(),
		ChangeID:       change.ID,
		PaymentID:      p.ID,
		BusinessID:     p.BusinessID,
		EntrepreneurID: p.EntrepreneurID,
		Month:          p.Month,
		Year:           p.Year,
		From:           string(change.From),
		To:             string(change.To),
		Actor:          string(change.Actor),
		ChangedAt:      change.At,
		Timestamp:      time.Now(),
	}
}

// Change converts the message back to the history entry it describes.
func (m *PaymentStatusMessage) Change() core.PaymentStatusChange {
	return core.PaymentStatusChange{
		ID:        m.ChangeID,
		PaymentID: m.PaymentID,
		From:      core.PaymentStatus(m.From),
		To:        core.PaymentStatus(m.To),
		Actor:     core.Role(m.Actor),
		At:        m.ChangedAt,
	}
}

func (m *PaymentStatusMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PaymentStatusMessageFromJSON(data []byte) (*PaymentStatusMessage, error) {
	var msg PaymentStatusMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
