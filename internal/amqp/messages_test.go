package amqp

import (
	"testing"
	"time"

	"khata/internal/core"
)

func TestNewExpenseRecordedEvent(t *testing.T) {
	e := core.Expense{
		ID:       7,
		UserID:   1,
		Amount:   core.Money{Cents: 1050},
		Category: core.CategoryFood,
		Date:     "2024-03-01",
	}

	ev := NewExpenseRecordedEvent(e)

	if ev.Type != EventExpenseRecorded {
		t.Errorf("Type = %q, want %q", ev.Type, EventExpenseRecorded)
	}
	if ev.ID != 7 || ev.UserID != 1 || ev.AmountCents != 1050 {
		t.Errorf("unexpected fields: %+v", ev)
	}
	if ev.Category != "Food" || ev.Date != "2024-03-01" {
		t.Errorf("unexpected category/date: %+v", ev)
	}
	if ev.Timestamp.IsZero() || time.Since(ev.Timestamp) > time.Second {
		t.Error("Timestamp should be recent")
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestNewExpenseDeletedEvent(t *testing.T) {
	ev := NewExpenseDeletedEvent(1, 7, core.Money{Cents: 750})

	if ev.Type != EventExpenseDeleted {
		t.Errorf("Type = %q, want %q", ev.Type, EventExpenseDeleted)
	}
	if ev.AmountCents != 750 {
		t.Errorf("AmountCents = %d, want 750", ev.AmountCents)
	}
	if err := ev.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLedgerEventValidate(t *testing.T) {
	bads := []*LedgerEvent{
		{Type: "expense.updated", ID: 1, UserID: 1},
		{Type: EventExpenseRecorded, ID: 0, UserID: 1},
		{Type: EventExpenseDeleted, ID: 1, UserID: 0},
	}
	for i, ev := range bads {
		if err := ev.Validate(); err == nil {
			t.Errorf("case %d: Validate() should fail for %+v", i, ev)
		}
	}
}

func TestLedgerEvent_JSON(t *testing.T) {
	ev := &LedgerEvent{
		Type:        EventExpenseRecorded,
		ID:          12,
		UserID:      1,
		AmountCents: 300,
		Category:    "Transport",
		Date:        "2024-03-02",
		Timestamp:   time.Date(2024, 3, 2, 12, 0, 0, 0, time.UTC),
	}

	body, err := ev.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := LedgerEventFromJSON(body)
	if err != nil {
		t.Fatalf("LedgerEventFromJSON() error = %v", err)
	}

	if parsed.Type != ev.Type || parsed.ID != ev.ID || parsed.AmountCents != ev.AmountCents {
		t.Errorf("round trip mismatch: %+v", parsed)
	}
	if !parsed.Timestamp.Equal(ev.Timestamp) {
		t.Errorf("Timestamp = %v, want %v", parsed.Timestamp, ev.Timestamp)
	}
}

func TestLedgerEvent_InvalidJSON(t *testing.T) {
	if _, err := LedgerEventFromJSON([]byte(`{"id": "nope"}`)); err == nil {
		t.Error("LedgerEventFromJSON() should fail with invalid JSON")
	}
}
