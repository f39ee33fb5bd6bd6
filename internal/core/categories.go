package core

// Suggested category labels offered to the UI. They are hints only; any
// label is accepted when storing a transaction.
var (
	ExpenseCategories = []string{
		"Food & Dining", "Transportation", "Shopping", "Entertainment",
		"Bills & Utilities", "Healthcare", "Education", "Travel",
		"Groceries", "Rent", "Insurance", "Other",
	}

	IncomeCategories = []string{
		"Salary", "Freelance", "Business", "Investment",
		"Rental Income", "Gift", "Bonus", "Other",
	}
)

// CategoryHints returns the suggestions for kind, or nil for an unknown kind.
func CategoryHints(k Kind) []string {
	switch k {
	case Income:
		return append([]string(nil), IncomeCategories...)
	case Expense:
		return append([]string(nil), ExpenseCategories...)
	}
	return nil
}
