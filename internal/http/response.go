package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"tracker/internal/core"
)

type transactionResponse struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Type        core.Kind   `json:"type"`
	Amount      json.Number `json:"amount"`
	Currency    string      `json:"currency"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	Date        time.Time   `json:"date"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type summaryResponse struct {
	TotalIncome       json.Number            `json:"total_income"`
	TotalExpense      json.Number            `json:"total_expense"`
	Balance           json.Number            `json:"balance"`
	CategoryBreakdown map[string]json.Number `json:"category_breakdown"`
}

type categoriesResponse struct {
	Categories []string `json:"categories"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// number renders d as an exact JSON number.
func number(d decimal.Decimal) json.Number {
	return json.Number(core.FormatAmount(d))
}

func newTransactionResponse(t core.Transaction) transactionResponse {
	return transactionResponse{
		ID:          t.ID,
		UserID:      t.UserID,
		Type:        t.Type,
		Amount:      number(t.Amount),
		Currency:    t.Currency,
		Category:    t.Category,
		Description: t.Description,
		Date:        t.Date.UTC(),
		CreatedAt:   t.CreatedAt.UTC(),
		UpdatedAt:   t.UpdatedAt.UTC(),
	}
}

func newTransactionList(items []core.Transaction) []transactionResponse {
	out := make([]transactionResponse, 0, len(items))
	for _, t := range items {
		out = append(out, newTransactionResponse(t))
	}
	return out
}

func newSummaryResponse(s core.Summary) summaryResponse {
	breakdown := make(map[string]json.Number, len(s.CategoryBreakdown))
	for cat, v := range s.CategoryBreakdown {
		breakdown[cat] = number(v)
	}
	return summaryResponse{
		TotalIncome:       number(s.TotalIncome),
		TotalExpense:      number(s.TotalExpense),
		Balance:           number(s.Balance),
		CategoryBreakdown: breakdown,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
