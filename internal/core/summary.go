package core

import "sort"

// Summary is the flat aggregate over every transaction in the ledger.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
	NetBalance   Money // may be negative
	IncomeCount  int
	ExpenseCount int
	TotalCount   int
}

// CategoryTotal is the sum and count of one (kind, category) group.
type CategoryTotal struct {
	Category string
	Total    Money
	Count    int
}

// CategorySummary splits the per-category groups by kind. Each slice is
// ordered by Total descending, then Category ascending.
type CategorySummary struct {
	Income  []CategoryTotal
	Expense []CategoryTotal
}

// Summarize computes totals and counts per kind. An empty input yields the
// zero Summary.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch t.Kind {
		case Income:
			s.TotalIncome.Cents += t.Amount.Cents
			s.IncomeCount++
		case Expense:
			s.TotalExpense.Cents += t.Amount.Cents
			s.ExpenseCount++
		}
	}
	s.NetBalance = Money{Cents: s.TotalIncome.Cents - s.TotalExpense.Cents}
	s.TotalCount = s.IncomeCount + s.ExpenseCount
	return s
}

// SummarizeByCategory groups txs by (kind, category).
func SummarizeByCategory(txs []Transaction) CategorySummary {
	type key struct {
		kind     Kind
		category string
	}
	groups := make(map[key]*CategoryTotal)
	var order []key
	for _, t := range txs {
		k := key{t.Kind, t.Category}
		g, ok := groups[k]
		if !ok {
			g = &CategoryTotal{Category: t.Category}
			groups[k] = g
			order = append(order, k)
		}
		g.Total.Cents += t.Amount.Cents
		g.Count++
	}

	cs := CategorySummary{
		Income:  []CategoryTotal{},
		Expense: []CategoryTotal{},
	}
	for _, k := range order {
		switch k.kind {
		case Income:
			cs.Income = append(cs.Income, *groups[k])
		case Expense:
			cs.Expense = append(cs.Expense, *groups[k])
		}
	}
	sortTotals(cs.Income)
	sortTotals(cs.Expense)
	return cs
}

func sortTotals(ct []CategoryTotal) {
	sort.Slice(ct, func(i, j int) bool {
		if ct[i].Total.Cents != ct[j].Total.Cents {
			return ct[i].Total.Cents > ct[j].Total.Cents
		}
		return ct[i].Category < ct[j].Category
	})
}

// SortLedger orders txs in place by Less.
func SortLedger(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return Less(txs[i], txs[j])
	})
}
