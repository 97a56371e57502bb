package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{" 2.50 ", "2.5", true},
		{"-5", "", false},
		{"+5", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"Inf", "", false},
		{"NaN", "", false},
		{"10000000000000", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestSignedAmount(t *testing.T) {
	m := decimal.RequireFromString("42.5")
	if got := SignedAmount(Income, m); !got.Equal(m) {
		t.Fatalf("income expected %s, got %s", m, got)
	}
	if got := SignedAmount(Expense, m); !got.Equal(m.Neg()) {
		t.Fatalf("expense expected -%s, got %s", m, got)
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.NewFromInt(100)); got != "+$100" {
		t.Fatalf("got %q", got)
	}
	if got := FormatAmount(decimal.RequireFromString("-30.5")); got != "$30.5" {
		t.Fatalf("got %q", got)
	}
}
