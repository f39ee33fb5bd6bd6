// Package export writes the ledger in interchange formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"bilancio/internal/core"
)

type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	YAML Format = "yaml"
)

// ParseFormat accepts csv, json, yaml (and yml). Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "yaml", "yml":
		return YAML, nil
	}
	return "", core.Invalid("format", "must be csv, json or yaml, got %q", s)
}

func (f Format) ContentType() string {
	switch f {
	case JSON:
		return "application/json"
	case YAML:
		return "application/yaml"
	default:
		return "text/csv; charset=utf-8"
	}
}

func (f Format) Extension() string { return string(f) }

// Row is the flat, format-neutral shape of one exported transaction.
type Row struct {
	ID          int64  `json:"id" yaml:"id"`
	Kind        string `json:"kind" yaml:"kind"`
	Amount      string `json:"amount" yaml:"amount"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	Date        string `json:"date" yaml:"date"`
	RecordedAt  string `json:"recorded_at" yaml:"recorded_at"`
}

// Header lists the column names in Row order.
var Header = []string{"id", "kind", "amount", "category", "description", "date", "recorded_at"}

func ToRows(txs []core.Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, Row{
			ID:          t.ID,
			Kind:        string(t.Kind),
			Amount:      t.Amount.String(),
			Category:    t.Category,
			Description: t.Description,
			Date:        t.OccurredOn.String(),
			RecordedAt:  t.RecordedAt.Format(time.RFC3339),
		})
	}
	return rows
}

// Strings returns the row in Header order.
func (r Row) Strings() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Kind,
		r.Amount,
		r.Category,
		r.Description,
		r.Date,
		r.RecordedAt,
	}
}

// Encoder is a strategy for one output format.
type Encoder interface {
	Encode(w io.Writer, rows []Row) error
}

type CSVEncoder struct{}

func (CSVEncoder) Encode(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(r.Strings()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type JSONEncoder struct{}

func (JSONEncoder) Encode(w io.Writer, rows []Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

type YAMLEncoder struct{}

func (YAMLEncoder) Encode(w io.Writer, rows []Row) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rows); err != nil {
		return err
	}
	return enc.Close()
}

func EncoderFor(f Format) Encoder {
	switch f {
	case JSON:
		return JSONEncoder{}
	case YAML:
		return YAMLEncoder{}
	default:
		return CSVEncoder{}
	}
}

// Write encodes txs to w in format f.
func Write(w io.Writer, f Format, txs []core.Transaction) error {
	if err := EncoderFor(f).Encode(w, ToRows(txs)); err != nil {
		return fmt.Errorf("export %s: %w", f, err)
	}
	return nil
}
