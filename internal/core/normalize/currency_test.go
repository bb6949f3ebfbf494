package normalize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatCurrency(t *testing.T) {
	tests := map[string]string{
		"0":       "$0.00",
		"250":     "$250.00",
		"4200.5":  "$4200.50",
		"99.999":  "$100.00",
		"1850.25": "$1850.25",
	}
	for in, want := range tests {
		if got := FormatCurrency(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatCurrency(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{raw: "$1,234.50", want: "1234.5", ok: true},
		{raw: "₹ 12,000", want: "12000", ok: true},
		{raw: "150.", want: "150", ok: true},
		{raw: "", ok: false},
		{raw: "$", ok: false},
		{raw: "abc", ok: false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.raw)
		if ok != tt.ok {
			t.Fatalf("ParseAmount(%q) ok = %v, want %v", tt.raw, ok, tt.ok)
		}
		if ok && !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Fatalf("ParseAmount(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}
}
