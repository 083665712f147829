package utils

import (
	"strconv"
	"strings"
)

// FormatCurrencyVND formats a whole-dong amount with dot thousand separators.
// Example: 1200000 -> "1.200.000 ₫"
func FormatCurrencyVND(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	digits := strconv.FormatInt(amount, 10)

	var groups []string
	for i := len(digits); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{digits[start:i]}, groups...)
	}

	return sign + strings.Join(groups, ".") + " ₫"
}
