package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

const MoneyScale = 2

// Ceil2 rounds towards positive infinity at cent precision.
func Ceil2(amount decimal.Decimal) decimal.Decimal {
	return amount.RoundCeil(MoneyScale)
}

func ParseAmount(raw string) (decimal.Decimal, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return decimal.Zero, false
	}

	parsed, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, false
	}

	return Ceil2(parsed), true
}

func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MoneyScale)
}
