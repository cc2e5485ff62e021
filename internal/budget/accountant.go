// Package budget enforces the spending ceiling over the expense
// ledger. The accountant is the single writer for one user: all
// mutations flow through it so the remaining budget and the stored
// records never drift apart.
package budget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/storage"
)

// EventPublisher emits ledger change events. *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Accountant tracks the remaining budget for a single user and guards
// every ledger mutation with it. The remaining amount lives in memory
// only; it resets to zero on restart until a new ceiling is set.
type Accountant struct {
	mu        sync.Mutex
	userID    int64
	remaining core.Money
	store     *storage.Repository
	events    EventPublisher
}

// NewAccountant binds an accountant to one user. events may be nil,
// in which case ledger events are simply not published.
func NewAccountant(userID int64, store *storage.Repository, events EventPublisher) *Accountant {
	return &Accountant{
		userID: userID,
		store:  store,
		events: events,
	}
}

func (a *Accountant) UserID() int64 {
	return a.userID
}

// Remaining reports the budget left for spending.
func (a *Accountant) Remaining() core.Money {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.remaining
}

// SetBudget replaces the remaining budget with a new ceiling. Any
// previous remainder is discarded, not accumulated. Zero is a valid
// ceiling; negative is not.
func (a *Accountant) SetBudget(ceiling core.Money) error {
	if ceiling.Cents < 0 {
		return fmt.Errorf("budget ceiling must not be negative: %w", core.ErrInvalidAmount)
	}

	a.mu.Lock()
	a.remaining = ceiling
	a.mu.Unlock()

	slog.Info("Budget set", "user_id", a.userID, "ceiling_cents", ceiling.Cents)
	return nil
}

// RecordExpense validates the expense, checks it against the remaining
// budget and persists it. The check and the decrement happen under one
// lock, so concurrent callers can never jointly overspend. Returns
// core.ErrBudgetExceeded without touching the ledger when the amount
// does not fit. The event publish happens after the lock is released;
// a slow broker must not stall other budget operations.
func (a *Accountant) RecordExpense(ctx context.Context, amount core.Money, recipient string, mode core.PaymentMode, category core.Category) (core.Expense, error) {
	candidate := core.Expense{
		UserID:    a.userID,
		Amount:    amount,
		Recipient: recipient,
		Mode:      mode,
		Category:  category,
		Date:      time.Now().Format(core.DateLayout),
		Time:      time.Now().Format(core.TimeLayout),
	}
	if err := candidate.Validate(); err != nil {
		return core.Expense{}, err
	}

	a.mu.Lock()

	if amount.Cents > a.remaining.Cents {
		remaining := a.remaining
		a.mu.Unlock()
		slog.WarnContext(ctx, "Expense rejected: budget exceeded",
			"user_id", a.userID,
			"amount_cents", amount.Cents,
			"remaining_cents", remaining.Cents)
		return core.Expense{}, core.ErrBudgetExceeded
	}

	e, err := a.store.Insert(ctx, a.userID, amount, recipient, mode, category, time.Time{})
	if err != nil {
		a.mu.Unlock()
		return core.Expense{}, err
	}

	a.remaining.Cents -= amount.Cents
	a.mu.Unlock()

	a.publish(ctx, amqp.NewExpenseRecordedEvent(e))

	return e, nil
}

// DeleteExpense removes the expense and refunds its amount to the
// remaining budget. Returns the refunded amount.
func (a *Accountant) DeleteExpense(ctx context.Context, id int64) (core.Money, error) {
	a.mu.Lock()

	refund, err := a.store.DeleteByID(ctx, a.userID, id)
	if err != nil {
		a.mu.Unlock()
		return core.Money{}, err
	}

	a.remaining.Cents += refund.Cents
	remaining := a.remaining
	a.mu.Unlock()

	slog.InfoContext(ctx, "Expense refunded",
		"user_id", a.userID,
		"id", id,
		"refund_cents", refund.Cents,
		"remaining_cents", remaining.Cents)

	a.publish(ctx, amqp.NewExpenseDeletedEvent(a.userID, id, refund))

	return refund, nil
}

// publish sends a ledger event best-effort. A broker outage must not
// fail the mutation that already committed.
func (a *Accountant) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if a.events == nil {
		return
	}
	if err := a.events.PublishEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish ledger event",
			"error", err,
			"type", ev.Type,
			"id", ev.ID)
	}
}
