// Package validation holds the field rules every mutating operation is gated
// on. The predicates never touch the store.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	MaxAddressLength  = 100
	MinPasswordLength = 4
	MaxPasswordLength = 64
	RateScale         = 4
)

var (
	MinInterestRate = decimal.Zero
	MaxInterestRate = decimal.NewFromInt(1)
)

func ValidID(id int) bool {
	return id >= domain.MinID
}

func ValidName(name string) bool {
	return strings.TrimSpace(name) != ""
}

func ValidAge(age int) bool {
	return age >= 0
}

// ValidBalance accepts non-negative amounts with at most two fractional digits.
func ValidBalance(balance decimal.Decimal) bool {
	if balance.IsNegative() {
		return false
	}
	return hasMoneyScale(balance)
}

// ValidBalanceForKind lets a balance owing account carry a negative balance
// as long as its magnitude is a valid balance.
func ValidBalanceForKind(balance decimal.Decimal, kind domain.AccountKind) bool {
	if kind == domain.AccountKindBalanceOwing && balance.IsNegative() {
		return ValidBalance(balance.Neg())
	}
	return ValidBalance(balance)
}

// ValidOpeningBalance checks the amount a teller enters when opening an
// account. It is always a non-negative magnitude; balance owing accounts
// negate it before insert. Tax free savings accounts must open at the minimum.
func ValidOpeningBalance(balance decimal.Decimal, kind domain.AccountKind) bool {
	if !ValidBalance(balance) {
		return false
	}
	if kind == domain.AccountKindTaxFreeSaving {
		return balance.GreaterThanOrEqual(domain.TFSAMinimumBalance)
	}
	return true
}

func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && hasMoneyScale(amount)
}

// ValidInterestRate accepts fractions in [0,1] with at most RateScale
// fractional digits, the precision of the interest_rate column.
func ValidInterestRate(rate decimal.Decimal) bool {
	if rate.LessThan(MinInterestRate) || rate.GreaterThan(MaxInterestRate) {
		return false
	}
	return rate.Equal(rate.Truncate(RateScale))
}

func ValidAddress(address string) bool {
	length := utf8.RuneCountInString(address)
	return length >= 1 && length <= MaxAddressLength
}

func ValidPassword(password string) bool {
	length := utf8.RuneCountInString(password)
	return length >= MinPasswordLength && length <= MaxPasswordLength
}

func ValidMessage(message string) bool {
	length := utf8.RuneCountInString(message)
	return length >= 1 && length <= domain.MaxMessageLength
}

func hasMoneyScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Truncate(domain.MoneyScale))
}
