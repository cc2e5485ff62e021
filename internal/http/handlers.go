package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"khata/internal/core"
)

type budgetResponse struct {
	Remaining      string `json:"remaining"`
	RemainingCents int64  `json:"remaining_cents"`
}

type expenseResponse struct {
	ID            int64  `json:"id"`
	Amount        string `json:"amount"`
	AmountCents   int64  `json:"amount_cents"`
	Recipient     string `json:"recipient"`
	ModeOfPayment string `json:"mode_of_payment"`
	Category      string `json:"category"`
	Date          string `json:"date"`
	Time          string `json:"time"`
}

type categoryTotalResponse struct {
	Category   string `json:"category"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type dailyTotalResponse struct {
	Date       string `json:"date"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type monthReportResponse struct {
	Year       int    `json:"year"`
	Month      int    `json:"month"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:            e.ID,
		Amount:        e.Amount.Decimal(),
		AmountCents:   e.Amount.Cents,
		Recipient:     e.Recipient,
		ModeOfPayment: string(e.Mode),
		Category:      string(e.Category),
		Date:          e.Date,
		Time:          e.Time,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain errors onto HTTP status codes. Validation
// failures are 422, an expense that does not fit the budget is 409,
// a missing record is 404, everything else is a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrBudgetExceeded):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "error", err, "url", r.URL.Path)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	remaining := s.accountant.Remaining()
	writeJSON(w, http.StatusOK, budgetResponse{
		Remaining:      remaining.Decimal(),
		RemainingCents: remaining.Cents,
	})
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount string `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	cents, err := core.ParseBudgetToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.accountant.SetBudget(core.Money{Cents: cents}); err != nil {
		writeError(w, r, err)
		return
	}

	remaining := s.accountant.Remaining()
	writeJSON(w, http.StatusOK, budgetResponse{
		Remaining:      remaining.Decimal(),
		RemainingCents: remaining.Cents,
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount        string `json:"amount"`
		Recipient     string `json:"recipient"`
		ModeOfPayment string `json:"mode_of_payment"`
		Category      string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	mode, err := core.ParsePaymentMode(req.ModeOfPayment)
	if err != nil {
		writeError(w, r, err)
		return
	}
	category, err := core.ParseCategory(req.Category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	e, err := s.accountant.RecordExpense(r.Context(), core.Money{Cents: cents}, req.Recipient, mode, category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports()
	writeJSON(w, http.StatusCreated, toExpenseResponse(e))
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListAll(r.Context(), s.accountant.UserID())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, toExpenseResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid expense id"})
		return
	}

	refund, err := s.accountant.DeleteExpense(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.invalidateReports()

	remaining := s.accountant.Remaining()
	writeJSON(w, http.StatusOK, struct {
		Refund         string `json:"refund"`
		RefundCents    int64  `json:"refund_cents"`
		Remaining      string `json:"remaining"`
		RemainingCents int64  `json:"remaining_cents"`
	}{
		Refund:         refund.Decimal(),
		RefundCents:    refund.Cents,
		Remaining:      remaining.Decimal(),
		RemainingCents: remaining.Cents,
	})
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	userID := s.accountant.UserID()
	key := "categories"

	totals, cached := s.categoryCache.Get(key)
	if !cached {
		var err error
		totals, err = s.store.SumByCategory(r.Context(), userID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.categoryCache.Set(key, totals)
	}

	out := make([]categoryTotalResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, categoryTotalResponse{
			Category:   string(t.Category),
			Total:      t.Total.Decimal(),
			TotalCents: t.Total.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	overview, err := s.monthOverview(r, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, monthReportResponse{
		Year:       overview.Year,
		Month:      overview.Month,
		Total:      overview.Total.Decimal(),
		TotalCents: overview.Total.Cents,
	})
}

func (s *Server) handleDailyReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	overview, err := s.monthOverview(r, year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]dailyTotalResponse, 0, len(overview.ByDay))
	for _, d := range overview.ByDay {
		out = append(out, dailyTotalResponse{
			Date:       d.Date,
			Total:      d.Total.Decimal(),
			TotalCents: d.Total.Cents,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) monthOverview(r *http.Request, year, month int) (core.MonthOverview, error) {
	key := monthCacheKey(year, month)
	if overview, cached := s.overviewCache.Get(key); cached {
		slog.DebugContext(r.Context(), "Overview cache hit", "year", year, "month", month)
		return overview, nil
	}

	overview, err := s.store.MonthOverview(r.Context(), s.accountant.UserID(), year, month)
	if err != nil {
		return core.MonthOverview{}, err
	}

	s.overviewCache.Set(key, overview)
	return overview, nil
}

// parseYearMonth reads the year and month query parameters, defaulting
// to the current month when absent.
func parseYearMonth(r *http.Request) (int, int, error) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return 0, 0, errors.New("invalid year parameter")
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, errors.New("invalid month parameter")
		}
		month = m
	}

	return year, month, nil
}
