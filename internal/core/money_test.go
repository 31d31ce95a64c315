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
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.5", true},
		{".5", "0.5", true},
		{"5.", "5", true},
		{"999999999.99", "999999999.99", true},
		{"1000000000", "", false},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1e5", "", false},
		{"NaN", "", false},
		{"Inf", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"١٢", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error, got %s", tc.in, got)
		}
	}
}

func TestValidateAmount(t *testing.T) {
	if err := ValidateAmount(decimal.RequireFromString("0.01")); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	for _, s := range []string{"0", "-5", "1.001", "1000000000"} {
		if err := ValidateAmount(decimal.RequireFromString(s)); err == nil {
			t.Fatalf("%s expected error", s)
		}
	}
}

func TestAccumulateRoundsEveryStep(t *testing.T) {
	sum := decimal.Zero
	for i := 0; i < 3; i++ {
		sum = Accumulate(sum, decimal.RequireFromString("0.005"))
	}
	// 0.01, 0.02 (0.015 rounds up), 0.03 (0.025 rounds up)
	if !sum.Equal(decimal.RequireFromString("0.03")) {
		t.Fatalf("expected 0.03, got %s", sum)
	}
}

func TestCentsRoundTrip(t *testing.T) {
	d := decimal.RequireFromString("123.45")
	if c := ToCents(d); c != 12345 {
		t.Fatalf("expected 12345, got %d", c)
	}
	if !FromCents(12345).Equal(d) {
		t.Fatalf("expected %s, got %s", d, FromCents(12345))
	}
}
