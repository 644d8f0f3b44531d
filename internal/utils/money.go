package utils

import (
	"fmt"
	"math"
	"strings"
)

// RoundMoney rounds to cents.
func RoundMoney(x float64) float64 {
	return math.Round(x*100) / 100
}

// FormatPrice renders an amount with its currency code, e.g. "EUR 1,250.00".
func FormatPrice(amount float64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	whole := int64(amount)
	cents := int64(math.Round((amount - float64(whole)) * 100))
	if cents == 100 {
		whole++
		cents = 0
	}
	out := fmt.Sprintf("%s%s.%02d", sign, formatThousand(whole), cents)
	if c := strings.TrimSpace(currency); c != "" {
		return strings.ToUpper(c) + " " + out
	}
	return out
}

func formatThousand(n int64) string {
	str := fmt.Sprintf("%d", n)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
