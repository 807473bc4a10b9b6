package domain

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountKindChequing         AccountKind = "CHEQUING"
	AccountKindSaving           AccountKind = "SAVING"
	AccountKindTaxFreeSaving    AccountKind = "TFSA"
	AccountKindRestrictedSaving AccountKind = "RESTRICTED"
	AccountKindBalanceOwing     AccountKind = "OWING"
)

// AccountKinds lists every account type in the order they are seeded.
var AccountKinds = []AccountKind{
	AccountKindChequing,
	AccountKindSaving,
	AccountKindTaxFreeSaving,
	AccountKindRestrictedSaving,
	AccountKindBalanceOwing,
}

// TFSAMinimumBalance is the balance a TFSA must hold at creation and below
// which a withdrawal migrates it to a savings account.
var TFSAMinimumBalance = decimal.NewFromInt(5000)

func ParseAccountKind(token string) (AccountKind, bool) {
	normalized := AccountKind(strings.ToUpper(strings.TrimSpace(token)))
	for _, kind := range AccountKinds {
		if kind == normalized {
			return kind, true
		}
	}
	return "", false
}

// AccountRecord is an account row as the store holds it.
type AccountRecord struct {
	ID      int
	Name    string
	Balance decimal.Decimal
	TypeID  int
}

type Account struct {
	ID           int
	Name         string
	Balance      decimal.Decimal
	Kind         AccountKind
	TypeID       int
	InterestRate *decimal.Decimal
}

type BalanceWriter interface {
	UpdateAccountBalance(ctx context.Context, id int, balance decimal.Decimal) error
}

func (a *Account) IsOwing() bool {
	return a.Kind == AccountKindBalanceOwing
}

// AccrueInterest applies the resolved interest rate and reports the interest
// amount together with whether the new balance reached the store. The
// in-memory balance only moves when it did.
func (a *Account) AccrueInterest(ctx context.Context, writer BalanceWriter) (decimal.Decimal, error) {
	if a.InterestRate == nil {
		return decimal.Zero, nil
	}

	multiplier := decimal.NewFromInt(1).Add(*a.InterestRate)
	newBalance := Ceil2(a.Balance.Mul(multiplier))
	interest := newBalance.Sub(a.Balance)

	if err := writer.UpdateAccountBalance(ctx, a.ID, newBalance); err != nil {
		return interest, err
	}

	a.Balance = newBalance
	return interest, nil
}
