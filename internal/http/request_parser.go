// Package http exposes the ledger as a JSON API.
//
// This file parses request bodies. Both JSON objects and form-encoded bodies
// are accepted so that plain HTML forms can post to the same endpoints.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

const maxBodyBytes = 1 << 20

// RequestBodyParser reads a request body once and exposes its fields
// uniformly whether it was JSON or form data.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	err      error
}

func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse decodes the body. An empty body parses as an empty form.
func (p *RequestBodyParser) Parse() error {
	if p.err != nil {
		return fmt.Errorf("read body: %w", p.err)
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			return fmt.Errorf("decode JSON body: %w", err)
		}
		return nil
	}
	if trimmed[0] == '[' {
		return errors.New("decode JSON body: expected an object")
	}

	var err error
	p.formData, err = url.ParseQuery(trimmed)
	if err != nil {
		return fmt.Errorf("decode form body: %w", err)
	}
	return nil
}

// Has reports whether key was sent, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// Get returns a sanitized string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// amount reads the amount field. JSON numbers and decimal strings are both
// accepted.
func (p *RequestBodyParser) amount() (core.Money, error) {
	if p.jsonData != nil {
		if f, ok := p.jsonData["amount"].(float64); ok {
			return core.AmountFromFloat(f)
		}
	}
	return core.ParseAmount(p.Get("amount"))
}

// kindKey returns the field carrying the kind; "type" is accepted as an
// alias for "kind".
func (p *RequestBodyParser) kindKey() string {
	if !p.Has("kind") && p.Has("type") {
		return "type"
	}
	return "kind"
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}

// parseNewTransaction builds a create request. The date defaults to today
// when omitted or blank.
func parseNewTransaction(p *RequestBodyParser) (core.NewTransaction, error) {
	kind, err := core.ParseKind(p.Get(p.kindKey()))
	if err != nil {
		return core.NewTransaction{}, err
	}
	amount, err := p.amount()
	if err != nil {
		return core.NewTransaction{}, err
	}

	nt := core.NewTransaction{
		Kind:        kind,
		Amount:      amount,
		Category:    p.Get("category"),
		Description: p.Get("description"),
	}
	if d := p.Get("date"); d != "" {
		if nt.OccurredOn, err = core.ParseDate(d); err != nil {
			return core.NewTransaction{}, err
		}
	}
	return nt, nil
}

// parsePatch builds an update. With full set every field is taken from the
// body, as an edit form posts them all; otherwise only the fields present
// are changed.
func parsePatch(p *RequestBodyParser, full bool) (core.Patch, error) {
	var patch core.Patch

	if key := p.kindKey(); full || p.Has(key) {
		k, err := core.ParseKind(p.Get(key))
		if err != nil {
			return core.Patch{}, err
		}
		patch.Kind = &k
	}
	if full || p.Has("amount") {
		m, err := p.amount()
		if err != nil {
			return core.Patch{}, err
		}
		patch.Amount = &m
	}
	if full || p.Has("category") {
		c := p.Get("category")
		patch.Category = &c
	}
	if full || p.Has("description") {
		d := p.Get("description")
		patch.Description = &d
	}
	if full || p.Has("date") {
		d, err := core.ParseDate(p.Get("date"))
		if err != nil {
			return core.Patch{}, err
		}
		patch.OccurredOn = &d
	}
	return patch, nil
}

// parseLimit reads the optional limit query parameter. Absent means no
// limit.
func parseLimit(q url.Values) (int, error) {
	v := strings.TrimSpace(q.Get("limit"))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 0, core.Invalid("limit", "must be a positive integer, got %q", v)
	}
	return n, nil
}
