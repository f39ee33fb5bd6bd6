package storage

// Transaction is a row of the transactions table.
type Transaction struct {
	ID          int64
	Kind        string
	AmountCents int64
	Category    string
	Description string
	OccurredOn  string
	RecordedAt  string
}
