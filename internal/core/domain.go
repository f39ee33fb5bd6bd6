package core

import (
	"strings"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"
)

// DateLayout is the wire and storage format of a Date.
const DateLayout = "2006-01-02"

type (
	// Kind discriminates income from expense. The sign of a transaction is
	// carried here, never by its amount.
	Kind string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// NewTransaction is the caller-supplied part of a transaction, before the
	// store assigns an ID and a recording timestamp.
	NewTransaction struct {
		Kind        Kind
		Amount      Money
		Category    string
		Description string
		OccurredOn  Date // zero means today
	}

	Transaction struct {
		ID          int64
		Kind        Kind
		Amount      Money
		Category    string
		Description string
		OccurredOn  Date
		RecordedAt  time.Time
	}

	// Patch is a sparse update. A nil field is left untouched.
	Patch struct {
		Kind        *Kind
		Amount      *Money
		Category    *string
		Description *string
		OccurredOn  *Date
	}
)

// ParseKind accepts "income" or "expense" in any case.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if err := k.Validate(); err != nil {
		return "", err
	}
	return k, nil
}

func (k Kind) IsValid() bool {
	return k == Income || k == Expense
}

func (k Kind) Validate() error {
	if !k.IsValid() {
		return Invalid("kind", "must be income or expense, got %q", string(k))
	}
	return nil
}

func (k Kind) String() string { return string(k) }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in t's location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current date in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid("date", "must be YYYY-MM-DD, got %q", s)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return Invalid("date", "cannot be zero")
	}
	return nil
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON overrides the promoted time.Time encoding so a Date is always
// written as "YYYY-MM-DD".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	return d.UnmarshalText([]byte(s))
}

func (m Money) Validate() error {
	if m.Cents < 0 {
		return Invalid("amount", "must not be negative")
	}
	return nil
}

func (nt NewTransaction) Validate() error {
	if err := nt.Kind.Validate(); err != nil {
		return err
	}
	if err := nt.Amount.Validate(); err != nil {
		return err
	}
	return nil
}

// Build stamps the store-assigned fields onto nt. A zero OccurredOn becomes
// the date of recordedAt.
func (nt NewTransaction) Build(id int64, recordedAt time.Time) Transaction {
	occurred := nt.OccurredOn
	if occurred.IsZero() {
		occurred = DateOf(recordedAt)
	}
	return Transaction{
		ID:          id,
		Kind:        nt.Kind,
		Amount:      nt.Amount,
		Category:    nt.Category,
		Description: nt.Description,
		OccurredOn:  occurred,
		RecordedAt:  recordedAt,
	}
}

func (p Patch) IsEmpty() bool {
	return p.Kind == nil && p.Amount == nil && p.Category == nil &&
		p.Description == nil && p.OccurredOn == nil
}

func (p Patch) Validate() error {
	if p.IsEmpty() {
		return Invalid("patch", "no fields to update")
	}
	if p.Kind != nil {
		if err := p.Kind.Validate(); err != nil {
			return err
		}
	}
	if p.Amount != nil {
		if err := p.Amount.Validate(); err != nil {
			return err
		}
	}
	if p.OccurredOn != nil {
		if err := p.OccurredOn.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns t with every field present in p replaced. ID and RecordedAt
// are never touched.
func (p Patch) Apply(t Transaction) Transaction {
	if p.Kind != nil {
		t.Kind = *p.Kind
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.OccurredOn != nil {
		t.OccurredOn = *p.OccurredOn
	}
	return t
}

// Less reports whether a sorts before b in ledger order: most recent
// OccurredOn first, then most recent RecordedAt, then highest ID.
func Less(a, b Transaction) bool {
	if !a.OccurredOn.Equal(b.OccurredOn.Time) {
		return a.OccurredOn.After(b.OccurredOn.Time)
	}
	if !a.RecordedAt.Equal(b.RecordedAt) {
		return a.RecordedAt.After(b.RecordedAt)
	}
	return a.ID > b.ID
}
