// Package worker consumes ledger events and produces spending digests.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"khata/internal/amqp"
	"khata/internal/core"
	"khata/internal/storage"
)

// DigestWorker recomputes monthly spending summaries whenever the
// ledger changes. Events carry only identifiers; the worker re-reads
// the store for the actual numbers.
type DigestWorker struct {
	store *storage.Repository
}

func NewDigestWorker(store *storage.Repository) *DigestWorker {
	return &DigestWorker{store: store}
}

// HandleEvent processes one ledger event by refreshing the overview
// for the month the event touched.
func (w *DigestWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	year, month, err := eventMonth(ev)
	if err != nil {
		return err
	}

	overview, err := w.store.MonthOverview(ctx, ev.UserID, year, month)
	if err != nil {
		return fmt.Errorf("refresh month overview: %w", err)
	}

	slog.InfoContext(ctx, "Month overview refreshed",
		"type", ev.Type,
		"user_id", ev.UserID,
		"year", overview.Year,
		"month", overview.Month,
		"total_cents", overview.Total.Cents,
		"active_days", len(overview.ByDay))

	return nil
}

// MonthlyDigest logs the month total and its per-day breakdown.
func (w *DigestWorker) MonthlyDigest(ctx context.Context, userID int64, year, month int) error {
	overview, err := w.store.MonthOverview(ctx, userID, year, month)
	if err != nil {
		return fmt.Errorf("build monthly digest: %w", err)
	}

	slog.InfoContext(ctx, "Monthly digest",
		"user_id", userID,
		"year", year,
		"month", month,
		"total", overview.Total.Decimal())

	for _, day := range overview.ByDay {
		slog.InfoContext(ctx, "Daily total",
			"user_id", userID,
			"date", day.Date,
			"total", day.Total.Decimal())
	}

	return nil
}

// eventMonth picks the year-month an event belongs to: the expense
// date for recorded events, the event timestamp otherwise (deleted
// events do not carry the original date).
func eventMonth(ev *amqp.LedgerEvent) (int, int, error) {
	if ev.Date != "" {
		d, err := time.Parse(core.DateLayout, ev.Date)
		if err != nil {
			return 0, 0, fmt.Errorf("parse event date %q: %w", ev.Date, err)
		}
		return d.Year(), int(d.Month()), nil
	}

	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.Year(), int(ts.Month()), nil
}
