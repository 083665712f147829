package utils

import "testing"

func TestFormatCurrencyVND(t *testing.T) {
	tests := []struct {
		amount int64
		want   string
	}{
		{0, "0 ₫"},
		{999, "999 ₫"},
		{1000, "1.000 ₫"},
		{120000, "120.000 ₫"},
		{1200000, "1.200.000 ₫"},
		{-45000, "-45.000 ₫"},
	}
	for _, tt := range tests {
		if got := FormatCurrencyVND(tt.amount); got != tt.want {
			t.Errorf("FormatCurrencyVND(%d) = %q, want %q", tt.amount, got, tt.want)
		}
	}
}
