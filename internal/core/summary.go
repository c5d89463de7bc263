package core

import "github.com/shopspring/decimal"

// Summary aggregates a set of transactions.
type Summary struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	Balance      decimal.Decimal
	// CategoryBreakdown maps a category to its signed net: income adds,
	// expense subtracts. Categories without transactions are absent.
	CategoryBreakdown map[string]decimal.Decimal
}

// Summarize totals txs with exact decimal arithmetic.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		TotalIncome:       decimal.Zero,
		TotalExpense:      decimal.Zero,
		CategoryBreakdown: make(map[string]decimal.Decimal),
	}
	for _, t := range txs {
		net := s.CategoryBreakdown[t.Category]
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
			net = net.Add(t.Amount)
		case Expense:
			s.TotalExpense = s.TotalExpense.Add(t.Amount)
			net = net.Sub(t.Amount)
		default:
			continue
		}
		s.CategoryBreakdown[t.Category] = net
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)
	return s
}
