package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"khata/internal/core"
)

const (
	EventExpenseRecorded = "expense.recorded"
	EventExpenseDeleted  = "expense.deleted"
)

// LedgerEvent announces a mutation of the expense ledger. Consumers
// treat it as a change notification and re-read the store for detail;
// the payload carries just enough to know which month moved.
type LedgerEvent struct {
	Type        string    `json:"type"`
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category,omitempty"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewExpenseRecordedEvent(e core.Expense) *LedgerEvent {
	return &LedgerEvent{
		Type:        EventExpenseRecorded,
		ID:          e.ID,
		UserID:      e.UserID,
		AmountCents: e.Amount.Cents,
		Category:    string(e.Category),
		Date:        e.Date,
		Timestamp:   time.Now(),
	}
}

func NewExpenseDeletedEvent(userID, id int64, refund core.Money) *LedgerEvent {
	return &LedgerEvent{
		Type:        EventExpenseDeleted,
		ID:          id,
		UserID:      userID,
		AmountCents: refund.Cents,
		Timestamp:   time.Now(),
	}
}

func (e *LedgerEvent) Validate() error {
	switch e.Type {
	case EventExpenseRecorded, EventExpenseDeleted:
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ID <= 0 {
		return fmt.Errorf("event id must be positive, got %d", e.ID)
	}
	if e.UserID <= 0 {
		return fmt.Errorf("event user id must be positive, got %d", e.UserID)
	}
	return nil
}

func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
