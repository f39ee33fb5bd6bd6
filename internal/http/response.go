package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bilancio/internal/core"
	"bilancio/internal/log"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

type transactionResponse struct {
	ID          int64     `json:"id"`
	Kind        core.Kind `json:"kind"`
	Amount      string    `json:"amount"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Date        core.Date `json:"date"`
	RecordedAt  time.Time `json:"recorded_at"`
}

func toTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		Kind:        t.Kind,
		Amount:      t.Amount.String(),
		AmountCents: t.Amount.Cents,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.OccurredOn,
		RecordedAt:  t.RecordedAt,
	}
}

func toTransactionList(txs []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	return out
}

type summaryResponse struct {
	TotalIncome       string `json:"total_income"`
	TotalExpense      string `json:"total_expense"`
	NetBalance        string `json:"net_balance"`
	TotalIncomeCents  int64  `json:"total_income_cents"`
	TotalExpenseCents int64  `json:"total_expense_cents"`
	NetBalanceCents   int64  `json:"net_balance_cents"`
	IncomeCount       int    `json:"income_count"`
	ExpenseCount      int    `json:"expense_count"`
	TotalCount        int    `json:"total_count"`
}

func toSummaryResponse(s core.Summary) summaryResponse {
	return summaryResponse{
		TotalIncome:       s.TotalIncome.String(),
		TotalExpense:      s.TotalExpense.String(),
		NetBalance:        s.NetBalance.String(),
		TotalIncomeCents:  s.TotalIncome.Cents,
		TotalExpenseCents: s.TotalExpense.Cents,
		NetBalanceCents:   s.NetBalance.Cents,
		IncomeCount:       s.IncomeCount,
		ExpenseCount:      s.ExpenseCount,
		TotalCount:        s.TotalCount,
	}
}

type categoryTotalResponse struct {
	Category   string `json:"category"`
	Total      string `json:"total"`
	TotalCents int64  `json:"total_cents"`
	Count      int    `json:"count"`
}

type categorySummaryResponse struct {
	Income  []categoryTotalResponse `json:"income"`
	Expense []categoryTotalResponse `json:"expense"`
}

func toCategoryTotals(groups []core.CategoryTotal) []categoryTotalResponse {
	out := make([]categoryTotalResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, categoryTotalResponse{
			Category:   g.Category,
			Total:      g.Total.String(),
			TotalCents: g.Total.Cents,
			Count:      g.Count,
		})
	}
	return out
}

func toCategorySummaryResponse(cs core.CategorySummary) categorySummaryResponse {
	return categorySummaryResponse{
		Income:  toCategoryTotals(cs.Income),
		Expense: toCategoryTotals(cs.Expense),
	}
}

type dashboardResponse struct {
	Recent  []transactionResponse `json:"recent"`
	Summary summaryResponse       `json:"summary"`
}

func toDashboardResponse(d services.Dashboard) dashboardResponse {
	return dashboardResponse{
		Recent:  toTransactionList(d.Recent),
		Summary: toSummaryResponse(d.Summary),
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps ledger errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON error body. Storage details stay in the
// log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	resp := errorResponse{Error: err.Error()}

	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		resp = errorResponse{Error: verr.Error(), Field: verr.Field}
	case status == http.StatusNotFound:
		resp.Error = core.ErrNotFound.Error()
	case status == http.StatusInternalServerError:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		if errors.Is(err, core.ErrStorage) {
			resp.Error = core.ErrStorage.Error()
		} else {
			resp.Error = "internal error"
		}
		resp.RequestID = trace.RequestID(r.Context())
	}
	writeJSON(w, status, resp)
}

// badRequest reports a body that could not be decoded at all.
func badRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
