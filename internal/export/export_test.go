package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"bilancio/internal/core"
)

func sample() []core.Transaction {
	rec := time.Date(2024, 1, 3, 10, 0, 0, 0, time.UTC)
	return []core.Transaction{
		{ID: 2, Kind: core.Expense, Amount: core.Money{Cents: 30000}, Category: "Food & Dining", Description: "dinner, with \"friends\"", OccurredOn: core.NewDate(2024, 1, 3), RecordedAt: rec},
		{ID: 1, Kind: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary", OccurredOn: core.NewDate(2024, 1, 1), RecordedAt: rec.Add(-time.Hour)},
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": CSV, "CSV": CSV, "json": JSON, "yml": YAML, "yaml": YAML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err=%v, want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, CSV, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 || strings.Join(records[0], ",") != strings.Join(Header, ",") {
		t.Fatalf("unexpected csv: %v", records)
	}
	if records[1][2] != "300.00" || records[1][4] != "dinner, with \"friends\"" || records[1][5] != "2024-01-03" {
		t.Fatalf("unexpected first row: %v", records[1])
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var rows []Row
	if err := json.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[1].Kind != "income" || rows[1].Amount != "1000.00" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, YAML, sample()); err != nil {
		t.Fatalf("write: %v", err)
	}
	var rows []Row
	if err := yaml.Unmarshal(buf.Bytes(), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 2 || rows[0].Category != "Food & Dining" || rows[0].Date != "2024-01-03" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, JSON, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Fatalf("expected empty array, got %q", buf.String())
	}
}
