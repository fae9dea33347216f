package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"500", "500"},
		{"500.00", "500.00"},
		{"$12.34", "12.34"},
		{" 7.5 ", "7.5"},
		{"-3.50", "-3.50"},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.input)
		if err != nil {
			t.Fatalf("ParseAmount(%q): unexpected error %v", tc.input, err)
		}
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestParseAmountRejectsInvalid(t *testing.T) {
	cases := []struct {
		input string
		want  error
	}{
		{"", ErrInvalidAmount},
		{"abc", ErrInvalidAmount},
		{"$", ErrInvalidAmount},
		{"1.234", ErrTooManyDecimals},
		{"0.001", ErrTooManyDecimals},
	}
	for _, tc := range cases {
		if _, err := ParseAmount(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("ParseAmount(%q): got %v, want %v", tc.input, err, tc.want)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(decimal.RequireFromString("1234.5")); got != "$1234.50" {
		t.Fatalf("FormatAmount = %q, want $1234.50", got)
	}
	if got := FormatAmount(decimal.Zero); got != "$0.00" {
		t.Fatalf("FormatAmount(0) = %q, want $0.00", got)
	}
}
