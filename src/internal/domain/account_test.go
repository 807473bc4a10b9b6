package domain_test

import (
	"context"
	"errors"
	"testing"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type balanceWriterStub struct {
	updateFn func(ctx context.Context, id int, balance decimal.Decimal) error
	written  []decimal.Decimal
}

func (s *balanceWriterStub) UpdateAccountBalance(ctx context.Context, id int, balance decimal.Decimal) error {
	s.written = append(s.written, balance)
	if s.updateFn != nil {
		return s.updateFn(ctx, id, balance)
	}
	return nil
}

func TestAccrueInterestWithoutRateIsZero(t *testing.T) {
	writer := &balanceWriterStub{}
	account := &domain.Account{ID: 1, Balance: decimal.RequireFromString("250.00")}

	interest, err := account.AccrueInterest(context.Background(), writer)
	require.NoError(t, err)
	require.True(t, interest.IsZero())
	require.Empty(t, writer.written)
	require.Equal(t, "250.00", domain.FormatAmount(account.Balance))
}

func TestAccrueInterestRoundsUp(t *testing.T) {
	cases := []struct {
		balance  string
		rate     string
		interest string
		after    string
	}{
		{balance: "100.00", rate: "0.01", interest: "1.00", after: "101.00"},
		{balance: "33.33", rate: "0.02", interest: "0.67", after: "34.00"},
		{balance: "10.01", rate: "0.03", interest: "0.31", after: "10.32"},
		{balance: "-100.00", rate: "0.02", interest: "-2.00", after: "-102.00"},
		{balance: "500.00", rate: "0", interest: "0.00", after: "500.00"},
	}

	for _, tc := range cases {
		rate := decimal.RequireFromString(tc.rate)
		account := &domain.Account{ID: 7, Balance: decimal.RequireFromString(tc.balance), InterestRate: &rate}

		interest, err := account.AccrueInterest(context.Background(), &balanceWriterStub{})
		require.NoError(t, err)
		require.Equal(t, tc.interest, domain.FormatAmount(interest), tc.balance)
		require.Equal(t, tc.after, domain.FormatAmount(account.Balance), tc.balance)
	}
}

func TestAccrueInterestKeepsBalanceWhenWriteFails(t *testing.T) {
	writeErr := errors.New("write failed")
	writer := &balanceWriterStub{
		updateFn: func(context.Context, int, decimal.Decimal) error { return writeErr },
	}
	rate := decimal.RequireFromString("0.01")
	account := &domain.Account{ID: 3, Balance: decimal.RequireFromString("100.00"), InterestRate: &rate}

	interest, err := account.AccrueInterest(context.Background(), writer)
	require.ErrorIs(t, err, writeErr)
	require.Equal(t, "1.00", domain.FormatAmount(interest))
	require.Equal(t, "100.00", domain.FormatAmount(account.Balance))
}

func TestParseAmountRoundsUp(t *testing.T) {
	cases := map[string]string{
		"12":       "12.00",
		" 12.5 ":   "12.50",
		"12.341":   "12.35",
		"12.3400":  "12.34",
		"-12.349":  "-12.34",
		"0.000001": "0.01",
	}

	for raw, want := range cases {
		amount, ok := domain.ParseAmount(raw)
		require.True(t, ok, raw)
		require.Equal(t, want, domain.FormatAmount(amount), raw)
	}

	for _, raw := range []string{"", "abc", "1,000"} {
		_, ok := domain.ParseAmount(raw)
		require.False(t, ok, raw)
	}
}

func TestParseAccountKindAndRole(t *testing.T) {
	kind, ok := domain.ParseAccountKind(" tfsa ")
	require.True(t, ok)
	require.Equal(t, domain.AccountKindTaxFreeSaving, kind)

	_, ok = domain.ParseAccountKind("LOAN")
	require.False(t, ok)

	role, ok := domain.ParseRole("teller")
	require.True(t, ok)
	require.Equal(t, domain.RoleTeller, role)
}

func TestTransactionErrorMatchesByKind(t *testing.T) {
	err := domain.NewTransactionError(domain.KindInsufficientFunds, "balance too low", nil)

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.NotErrorIs(t, err, domain.ErrDoesNotOwn)
	require.Equal(t, "InsufficientFunds: balance too low", err.Error())

	cause := errors.New("timeout")
	wrapped := domain.NewTransactionError(domain.KindConnectionFailed, "update to database failed", cause)
	require.ErrorIs(t, wrapped, cause)

	kind, ok := domain.ErrorKindOf(wrapped)
	require.True(t, ok)
	require.Equal(t, domain.KindConnectionFailed, kind)
}

func TestLookupTableRequiresEveryEntry(t *testing.T) {
	roles := []domain.RoleEntry{{ID: 1, Name: "ADMIN"}, {ID: 2, Name: "TELLER"}, {ID: 3, Name: "CUSTOMER"}}
	types := []domain.AccountTypeEntry{{ID: 1, Name: "CHEQUING"}, {ID: 2, Name: "SAVING"}}

	_, err := domain.NewLookupTable(roles, types)
	require.ErrorContains(t, err, "TFSA")

	types = append(types,
		domain.AccountTypeEntry{ID: 3, Name: "TFSA"},
		domain.AccountTypeEntry{ID: 4, Name: "RESTRICTED"},
		domain.AccountTypeEntry{ID: 5, Name: "OWING"},
	)
	table, err := domain.NewLookupTable(roles, types)
	require.NoError(t, err)
	require.Equal(t, 2, table.RoleID(domain.RoleTeller))
	require.Equal(t, domain.InvalidID, table.RoleID(domain.Role("AUDITOR")))

	kind, ok := table.AccountKind(5)
	require.True(t, ok)
	require.Equal(t, domain.AccountKindBalanceOwing, kind)
}
