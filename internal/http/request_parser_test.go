package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"bilancio/internal/core"
)

func newParser(t *testing.T, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	p := NewRequestBodyParser(httptest.NewRecorder(), req)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse(%q): %v", body, err)
	}
	return p
}

func TestRequestBodyParser_Parse(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		key     string
		want    string
		wantHas bool
	}{
		{"json string", `{"category":"Food"}`, "category", "Food", true},
		{"json number", `{"amount":12.5}`, "amount", "12.5", true},
		{"json null is absent", `{"category":null}`, "category", "", false},
		{"form value", "category=Food&amount=3", "category", "Food", true},
		{"form empty value is present", "description=", "description", "", true},
		{"control characters stripped", "{\"description\":\" lunch\\u0007 \"}", "description", "lunch", true},
		{"empty body", "", "category", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newParser(t, tt.body)
			if got := p.Get(tt.key); got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if got := p.Has(tt.key); got != tt.wantHas {
				t.Errorf("Has(%q) = %v, want %v", tt.key, got, tt.wantHas)
			}
		})
	}
}

func TestRequestBodyParser_RejectsMalformed(t *testing.T) {
	for _, body := range []string{`{"kind":`, `[1,2]`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		p := NewRequestBodyParser(httptest.NewRecorder(), req)
		if err := p.Parse(); err == nil {
			t.Errorf("Parse(%q) expected error", body)
		}
	}
}

func TestParseNewTransaction(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      core.NewTransaction
		wantField string
	}{
		{
			name: "json with number amount",
			body: `{"kind":"income","amount":1000,"category":"Salary","date":"2024-01-01"}`,
			want: core.NewTransaction{Kind: core.Income, Amount: core.Money{Cents: 100000}, Category: "Salary", OccurredOn: core.NewDate(2024, 1, 1)},
		},
		{
			name: "form with type alias and comma decimal",
			body: "type=Expense&amount=12,345&description=lunch",
			want: core.NewTransaction{Kind: core.Expense, Amount: core.Money{Cents: 1235}, Description: "lunch"},
		},
		{
			name: "zero amount allowed",
			body: `{"kind":"expense","amount":"0"}`,
			want: core.NewTransaction{Kind: core.Expense},
		},
		{name: "bogus kind", body: `{"kind":"bogus","amount":5}`, wantField: "kind"},
		{name: "negative amount", body: `{"kind":"expense","amount":-5}`, wantField: "amount"},
		{name: "missing amount", body: `{"kind":"expense"}`, wantField: "amount"},
		{name: "bad date", body: `{"kind":"expense","amount":1,"date":"01/02/2024"}`, wantField: "date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nt, err := parseNewTransaction(newParser(t, tt.body))
			if tt.wantField != "" {
				var verr *core.ValidationError
				if !errors.As(err, &verr) || verr.Field != tt.wantField {
					t.Fatalf("expected validation error on %s, got %v", tt.wantField, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if nt != tt.want {
				t.Errorf("got %+v, want %+v", nt, tt.want)
			}
		})
	}
}

func TestParsePatch_Sparse(t *testing.T) {
	patch, err := parsePatch(newParser(t, `{"category":"Bonus"}`), false)
	if err != nil {
		t.Fatalf("parsePatch: %v", err)
	}
	if patch.Category == nil || *patch.Category != "Bonus" {
		t.Errorf("expected category Bonus, got %v", patch.Category)
	}
	if patch.Kind != nil || patch.Amount != nil || patch.Description != nil || patch.OccurredOn != nil {
		t.Errorf("expected only category set, got %+v", patch)
	}

	empty, err := parsePatch(newParser(t, `{}`), false)
	if err != nil {
		t.Fatalf("parsePatch: %v", err)
	}
	if !empty.IsEmpty() {
		t.Errorf("expected empty patch, got %+v", empty)
	}
}

func TestParsePatch_Full(t *testing.T) {
	body := "kind=expense&amount=7.5&category=Food&description=&date=2024-02-03"
	patch, err := parsePatch(newParser(t, body), true)
	if err != nil {
		t.Fatalf("parsePatch: %v", err)
	}
	if *patch.Kind != core.Expense || patch.Amount.Cents != 750 || *patch.Category != "Food" {
		t.Errorf("unexpected patch %+v", patch)
	}
	if patch.Description == nil || *patch.Description != "" {
		t.Errorf("expected description cleared, got %v", patch.Description)
	}

	if _, err := parsePatch(newParser(t, "kind=expense&amount=1"), true); !errors.Is(err, core.ErrValidation) {
		t.Errorf("expected validation error for missing date, got %v", err)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		query   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"limit=5", 5, false},
		{"limit=0", 0, true},
		{"limit=-3", 0, true},
		{"limit=many", 0, true},
	}
	for _, tt := range tests {
		q, _ := url.ParseQuery(tt.query)
		got, err := parseLimit(q)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseLimit(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tt.query, got, tt.want)
		}
	}
}

func TestExtractClientIP(t *testing.T) {
	tests := []struct {
		name   string
		remote string
		xff    string
		want   string
	}{
		{"direct peer", "203.0.113.9:5555", "", "203.0.113.9"},
		{"untrusted peer ignores header", "203.0.113.9:5555", "198.51.100.1", "203.0.113.9"},
		{"trusted proxy forwards", "10.0.0.2:5555", "198.51.100.1, 10.0.0.2", "198.51.100.1"},
		{"trusted proxy with garbage header", "127.0.0.1:5555", "not-an-ip", "127.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if got := extractClientIP(req); got != tt.want {
				t.Errorf("extractClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
