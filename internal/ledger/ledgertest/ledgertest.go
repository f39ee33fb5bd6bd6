// Package ledgertest is a behavioural test suite shared by every
// ledger.Store implementation.
package ledgertest

import (
	"context"
	"errors"
	"testing"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Factory returns an empty store. It should register its own cleanup.
type Factory func(t *testing.T) ledger.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s ledger.Store)
	}{
		{"RoundTrip", testRoundTrip},
		{"DefaultDate", testDefaultDate},
		{"ValidationRejection", testValidationRejection},
		{"GetMissing", testGetMissing},
		{"Ordering", testOrdering},
		{"TieBreak", testTieBreak},
		{"Limit", testLimit},
		{"UpdateSemantics", testUpdateSemantics},
		{"UpdateErrors", testUpdateErrors},
		{"DeleteIdempotent", testDeleteIdempotent},
		{"IDsNotReused", testIDsNotReused},
		{"Aggregation", testAggregation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newStore(t))
		})
	}
}

func mustCreate(t *testing.T, s ledger.Store, nt core.NewTransaction) core.Transaction {
	t.Helper()
	tx, err := s.Create(context.Background(), nt)
	if err != nil {
		t.Fatalf("create %+v: %v", nt, err)
	}
	return tx
}

// AssertEqual fails unless a and b agree on every field.
func AssertEqual(t *testing.T, got, want core.Transaction) {
	t.Helper()
	if got.ID != want.ID ||
		got.Kind != want.Kind ||
		got.Amount != want.Amount ||
		got.Category != want.Category ||
		got.Description != want.Description ||
		got.OccurredOn.String() != want.OccurredOn.String() ||
		!got.RecordedAt.Equal(want.RecordedAt) {
		t.Fatalf("transaction mismatch:\n got %+v\nwant %+v", got, want)
	}
}

func testRoundTrip(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	nt := core.NewTransaction{
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 1234},
		Category:    "not a predefined category",
		Description: "",
		OccurredOn:  core.NewDate(2024, 3, 15),
	}
	created := mustCreate(t, s, nt)
	if created.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if created.RecordedAt.IsZero() {
		t.Fatalf("expected recorded_at to be stamped")
	}

	got, err := s.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	AssertEqual(t, got, created)
	if got.Kind != nt.Kind || got.Amount != nt.Amount || got.Category != nt.Category ||
		got.Description != nt.Description || got.OccurredOn.String() != "2024-03-15" {
		t.Fatalf("stored fields differ from input: %+v", got)
	}
}

func testDefaultDate(t *testing.T, s ledger.Store) {
	created := mustCreate(t, s, core.NewTransaction{Kind: core.Income, Amount: core.Money{Cents: 1}})
	if created.OccurredOn.IsZero() {
		t.Fatalf("expected occurred_on to default to today")
	}
	if created.OccurredOn.String() != core.DateOf(created.RecordedAt).String() {
		t.Fatalf("default occurred_on %s does not match recorded_at %s", created.OccurredOn, created.RecordedAt)
	}
}

func testValidationRejection(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	bads := []core.NewTransaction{
		{Kind: "bogus", Amount: core.Money{Cents: 1000}, Category: "x"},
		{Kind: core.Expense, Amount: core.Money{Cents: -500}, Category: "x"},
	}
	for _, nt := range bads {
		_, err := s.Create(ctx, nt)
		if !errors.Is(err, core.ErrValidation) {
			t.Fatalf("create %+v: expected validation error, got %v", nt, err)
		}
	}
	all, err := s.List(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("rejected creates must not persist anything, found %d", len(all))
	}
}

func testGetMissing(t *testing.T, s ledger.Store) {
	_, err := s.Get(context.Background(), 999)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func testOrdering(t *testing.T, s ledger.Store) {
	for _, d := range []core.Date{core.NewDate(2024, 1, 1), core.NewDate(2024, 1, 3), core.NewDate(2024, 1, 2)} {
		mustCreate(t, s, core.NewTransaction{Kind: core.Expense, Amount: core.Money{Cents: 100}, OccurredOn: d})
	}
	list, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"2024-01-03", "2024-01-02", "2024-01-01"}
	if len(list) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(list))
	}
	for i, w := range want {
		if list[i].OccurredOn.String() != w {
			t.Fatalf("position %d: got %s, want %s", i, list[i].OccurredOn, w)
		}
	}
}

func testTieBreak(t *testing.T, s ledger.Store) {
	day := core.NewDate(2024, 6, 1)
	first := mustCreate(t, s, core.NewTransaction{Kind: core.Income, OccurredOn: day})
	second := mustCreate(t, s, core.NewTransaction{Kind: core.Income, OccurredOn: day})
	third := mustCreate(t, s, core.NewTransaction{Kind: core.Income, OccurredOn: day})

	list, err := s.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []int64{third.ID, second.ID, first.ID}
	for i, id := range want {
		if list[i].ID != id {
			t.Fatalf("position %d: got id %d, want %d", i, list[i].ID, id)
		}
	}
}

func testLimit(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	for d := 1; d <= 5; d++ {
		mustCreate(t, s, core.NewTransaction{Kind: core.Expense, OccurredOn: core.NewDate(2024, 2, d)})
	}
	head, err := s.List(ctx, 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(head) != 2 || head[0].OccurredOn.String() != "2024-02-05" || head[1].OccurredOn.String() != "2024-02-04" {
		t.Fatalf("unexpected head: %+v", head)
	}
	all, err := s.List(ctx, 0)
	if err != nil || len(all) != 5 {
		t.Fatalf("expected 5 records unbounded, got %d (err=%v)", len(all), err)
	}
	more, err := s.List(ctx, 50)
	if err != nil || len(more) != 5 {
		t.Fatalf("limit above size should return all, got %d (err=%v)", len(more), err)
	}
}

func testUpdateSemantics(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	orig := mustCreate(t, s, core.NewTransaction{
		Kind:        core.Expense,
		Amount:      core.Money{Cents: 500},
		Category:    "Food",
		Description: "lunch",
		OccurredOn:  core.NewDate(2024, 1, 10),
	})

	cat := "X"
	updated, err := s.Update(ctx, orig.ID, core.Patch{Category: &cat})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := orig
	want.Category = "X"
	AssertEqual(t, updated, want)

	got, err := s.Get(ctx, orig.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	AssertEqual(t, got, want)

	kind := core.Income
	amount := core.Money{Cents: 0}
	desc := ""
	date := core.NewDate(2023, 12, 31)
	full, err := s.Update(ctx, orig.ID, core.Patch{Kind: &kind, Amount: &amount, Description: &desc, OccurredOn: &date})
	if err != nil {
		t.Fatalf("full update: %v", err)
	}
	want = core.Transaction{
		ID:          orig.ID,
		Kind:        core.Income,
		Amount:      core.Money{Cents: 0},
		Category:    "X",
		Description: "",
		OccurredOn:  date,
		RecordedAt:  orig.RecordedAt,
	}
	AssertEqual(t, full, want)
}

func testUpdateErrors(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	cat := "X"
	if _, err := s.Update(ctx, 12345, core.Patch{Category: &cat}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	orig := mustCreate(t, s, core.NewTransaction{Kind: core.Expense, Amount: core.Money{Cents: 700}, Category: "Rent"})
	if _, err := s.Update(ctx, orig.ID, core.Patch{}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for empty patch, got %v", err)
	}

	neg := core.Money{Cents: -5}
	if _, err := s.Update(ctx, orig.ID, core.Patch{Amount: &neg, Category: &cat}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for negative amount, got %v", err)
	}
	bogus := core.Kind("bogus")
	if _, err := s.Update(ctx, orig.ID, core.Patch{Kind: &bogus}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for bogus kind, got %v", err)
	}

	got, err := s.Get(ctx, orig.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	AssertEqual(t, got, orig)
}

func testDeleteIdempotent(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	created := mustCreate(t, s, core.NewTransaction{Kind: core.Income, Amount: core.Money{Cents: 1}})

	ok, err := s.Delete(ctx, created.ID)
	if err != nil || !ok {
		t.Fatalf("first delete: ok=%v err=%v", ok, err)
	}
	ok, err = s.Delete(ctx, created.ID)
	if err != nil || ok {
		t.Fatalf("second delete: ok=%v err=%v", ok, err)
	}
	if _, err := s.Get(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("deleted record still readable: %v", err)
	}
}

func testIDsNotReused(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	a := mustCreate(t, s, core.NewTransaction{Kind: core.Income})
	b := mustCreate(t, s, core.NewTransaction{Kind: core.Income})
	if _, err := s.Delete(ctx, b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c := mustCreate(t, s, core.NewTransaction{Kind: core.Income})
	if c.ID == a.ID || c.ID == b.ID || c.ID < b.ID {
		t.Fatalf("id reused or decreased: a=%d b=%d c=%d", a.ID, b.ID, c.ID)
	}
}

func testAggregation(t *testing.T, s ledger.Store) {
	ctx := context.Background()
	agg := ledger.NewAggregator(s)

	empty, err := agg.Summarize(ctx)
	if err != nil || empty != (core.Summary{}) {
		t.Fatalf("empty ledger should summarize to zero: %+v (err=%v)", empty, err)
	}

	mustCreate(t, s, core.NewTransaction{Kind: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary"})
	exp := mustCreate(t, s, core.NewTransaction{Kind: core.Expense, Amount: core.Money{Cents: 30000}, Category: "Food"})

	sum, err := agg.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	want := core.Summary{
		TotalIncome:  core.Money{Cents: 100000},
		TotalExpense: core.Money{Cents: 30000},
		NetBalance:   core.Money{Cents: 70000},
		IncomeCount:  1,
		ExpenseCount: 1,
		TotalCount:   2,
	}
	if sum != want {
		t.Fatalf("got %+v, want %+v", sum, want)
	}

	cs, err := agg.SummarizeByCategory(ctx)
	if err != nil {
		t.Fatalf("summarize by category: %v", err)
	}
	if len(cs.Income) != 1 || cs.Income[0].Category != "Salary" || cs.Income[0].Count != 1 {
		t.Fatalf("unexpected income groups: %+v", cs.Income)
	}
	if len(cs.Expense) != 1 || cs.Expense[0].Total.Cents != 30000 {
		t.Fatalf("unexpected expense groups: %+v", cs.Expense)
	}

	// Deleted records leave the aggregates.
	if _, err := s.Delete(ctx, exp.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	sum, err = agg.Summarize(ctx)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalCount != 1 || sum.NetBalance.Cents != 100000 {
		t.Fatalf("unexpected summary after delete: %+v", sum)
	}
}
