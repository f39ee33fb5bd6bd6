package core

import (
	"errors"
	"math"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12,345", 1235, true},
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"1000", 100000, true},
		{"-5", 0, false},
		{"-0.01", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else {
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("%q expected validation error, got %v", tc.in, err)
			}
		}
	}
}

func TestAmountFromFloat(t *testing.T) {
	m, err := AmountFromFloat(10.5)
	if err != nil || m.Cents != 1050 {
		t.Fatalf("expected 1050, got %d (err=%v)", m.Cents, err)
	}
	if _, err := AmountFromFloat(-5); err == nil {
		t.Fatalf("expected error for negative")
	}
	if _, err := AmountFromFloat(math.NaN()); err == nil {
		t.Fatalf("expected error for NaN")
	}
	if _, err := AmountFromFloat(math.Inf(1)); err == nil {
		t.Fatalf("expected error for Inf")
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 1230}
	if m.String() != "12.30" {
		t.Fatalf("unexpected string: %s", m.String())
	}
	if m.Float() != 12.3 {
		t.Fatalf("unexpected float: %v", m.Float())
	}
	if (Money{Cents: -70000}).String() != "-700.00" {
		t.Fatalf("negative balances must format with sign")
	}
}
