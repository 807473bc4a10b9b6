package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/memory"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDepositRoundsUpToCents(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "100.00")

	require.NoError(t, f.teller.MakeDeposit(f.ctx, accountID, decimal.RequireFromString("10.001")))
	require.Equal(t, "110.01", domain.FormatAmount(f.balance(t, accountID)))
}

func TestDepositRejectsNonPositiveAmount(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "100.00")

	for _, raw := range []string{"0", "-5", "-0.001"} {
		err := f.teller.MakeDeposit(f.ctx, accountID, decimal.RequireFromString(raw))
		requireKind(t, err, domain.KindIllegalAmount)
		require.True(t, errors.Is(err, domain.ErrIllegalAmount))
	}
	require.Equal(t, "100.00", domain.FormatAmount(f.balance(t, accountID)))
}

func TestDepositRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "100.00")

	require.True(t, f.teller.DeAuthenticateCustomer())
	f.newCustomer(t, "Dan")

	err := f.teller.MakeDeposit(f.ctx, accountID, decimal.NewFromInt(5))
	require.ErrorIs(t, err, domain.ErrDoesNotOwn)
	require.Equal(t, "100.00", domain.FormatAmount(f.balance(t, accountID)))
}

func TestWithdrawalInsufficientFundsLeavesBalance(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "50.00")

	err := f.teller.MakeWithdrawal(f.ctx, accountID, decimal.RequireFromString("50.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, "50.00", domain.FormatAmount(f.balance(t, accountID)))

	require.NoError(t, f.teller.MakeWithdrawal(f.ctx, accountID, decimal.RequireFromString("50.00")))
	require.True(t, f.balance(t, accountID).IsZero())
}

func TestWithdrawalFromOwingAccountIsRedirected(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindBalanceOwing, "100.00")
	require.Equal(t, "-100.00", domain.FormatAmount(f.balance(t, accountID)))

	err := f.teller.MakeWithdrawal(f.ctx, accountID, decimal.NewFromInt(10))
	requireKind(t, err, domain.KindInsufficientFunds)
	require.Contains(t, err.Error(), "Add Loans")
}

func TestAddLoansGrowsDebt(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	owingID := f.newAccount(t, domain.AccountKindBalanceOwing, "100.00")
	chequingID := f.newAccount(t, domain.AccountKindChequing, "100.00")

	require.NoError(t, f.teller.AddLoans(f.ctx, owingID, decimal.RequireFromString("50.50")))
	require.Equal(t, "-150.50", domain.FormatAmount(f.balance(t, owingID)))

	err := f.teller.AddLoans(f.ctx, owingID, decimal.Zero)
	require.ErrorIs(t, err, domain.ErrIllegalAmount)

	err = f.teller.AddLoans(f.ctx, chequingID, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrDoesNotOwn)
}

func TestTaxFreeSavingMigratesBelowMinimum(t *testing.T) {
	f := newFixture(t)
	tfsaTypeID := f.bank.Lookup().AccountTypeID(domain.AccountKindTaxFreeSaving)
	require.True(t, f.admin.UpdateInterestRate(f.ctx, decimal.Zero, tfsaTypeID))

	customerID := f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindTaxFreeSaving, "5200.00")

	before, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)

	require.NoError(t, f.teller.MakeWithdrawal(f.ctx, accountID, decimal.RequireFromString("300.00")))

	account, err := f.store.GetAccount(f.ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, "4900.00", domain.FormatAmount(account.Balance))
	require.Equal(t, f.bank.Lookup().AccountTypeID(domain.AccountKindSaving), account.TypeID)

	after, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)

	notice := after[len(after)-1]
	require.False(t, notice.Viewed)
	require.Contains(t, notice.Text, "TFSA")
	require.Contains(t, notice.Text, "SAVINGS")
}

func TestTaxFreeSavingAboveMinimumStays(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindTaxFreeSaving, "6000.00")

	require.NoError(t, f.teller.MakeWithdrawal(f.ctx, accountID, decimal.NewFromInt(1000)))

	account, err := f.store.GetAccount(f.ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, f.bank.Lookup().AccountTypeID(domain.AccountKindTaxFreeSaving), account.TypeID)

	messages, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestMakeNewAccountRejectsInvalidOpenings(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	lookup := f.bank.Lookup()

	require.Equal(t, domain.InvalidID, f.teller.MakeNewAccount(f.ctx, "tfsa", decimal.NewFromInt(4999), lookup.AccountTypeID(domain.AccountKindTaxFreeSaving)))
	require.Equal(t, domain.InvalidID, f.teller.MakeNewAccount(f.ctx, "neg", decimal.NewFromInt(-1), lookup.AccountTypeID(domain.AccountKindChequing)))
	require.Equal(t, domain.InvalidID, f.teller.MakeNewAccount(f.ctx, "", decimal.NewFromInt(1), lookup.AccountTypeID(domain.AccountKindChequing)))
	require.Equal(t, domain.InvalidID, f.teller.MakeNewAccount(f.ctx, "bogus", decimal.NewFromInt(1), 42))
	require.Equal(t, domain.InvalidID, f.teller.MakeNewAccount(f.ctx, "loan", decimal.NewFromInt(-100), lookup.AccountTypeID(domain.AccountKindBalanceOwing)))

	accounts, err := f.teller.ListAccounts(f.ctx)
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestOwingAccountOpensAsDebt(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")

	accountID := f.newAccount(t, domain.AccountKindBalanceOwing, "100.00")
	require.Equal(t, "-100.00", domain.FormatAmount(f.balance(t, accountID)))

	zeroID := f.newAccount(t, domain.AccountKindBalanceOwing, "0")
	require.True(t, f.balance(t, zeroID).IsZero())
}

func TestCustomerScopedCallsNeedBinding(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "10.00")
	require.True(t, f.teller.DeAuthenticateCustomer())

	err := f.teller.MakeDeposit(f.ctx, accountID, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrCustomerNotBound)

	_, err = f.teller.CheckBalance(f.ctx, accountID)
	require.ErrorIs(t, err, domain.ErrCustomerNotBound)

	_, err = f.teller.GiveInterestAll(f.ctx)
	require.ErrorIs(t, err, domain.ErrCustomerNotBound)

	require.Equal(t, domain.InvalidID, f.teller.MakeNewAccount(f.ctx, "x", decimal.NewFromInt(1), 1))
	require.Equal(t, domain.InvalidID, f.teller.CheckAccount(f.ctx, accountID, decimal.Zero))

	ids, err := f.teller.ListCustomerMessageIDs(f.ctx)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestDeAuthenticateCustomerTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")

	require.True(t, f.teller.DeAuthenticateCustomer())
	require.Equal(t, domain.InvalidID, f.teller.CustomerID())

	require.False(t, f.teller.DeAuthenticateCustomer())
	require.Equal(t, domain.InvalidID, f.teller.CustomerID())
}

func TestSetCustomerRules(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")

	require.False(t, f.teller.SetCustomer(f.ctx, customerID), "a bound customer must be released first")

	require.True(t, f.teller.DeAuthenticateCustomer())
	require.False(t, f.teller.SetCustomer(f.ctx, adminID))
	require.False(t, f.teller.SetCustomer(f.ctx, 99))

	require.True(t, f.teller.SetCustomer(f.ctx, customerID))
	require.False(t, f.teller.AuthenticateCustomer(f.ctx, "wrong-password"))
	require.True(t, f.teller.AuthenticateCustomer(f.ctx, customerPass))
}

func TestCheckBalanceTotalSumsOwnedAccounts(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	first := f.newAccount(t, domain.AccountKindChequing, "10.25")
	f.newAccount(t, domain.AccountKindSaving, "20.50")
	f.newAccount(t, domain.AccountKindBalanceOwing, "5.00")

	total, err := f.teller.CheckBalanceTotal(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "25.75", domain.FormatAmount(total))

	single, err := f.teller.CheckBalance(f.ctx, first)
	require.NoError(t, err)
	require.Equal(t, "10.25", domain.FormatAmount(single))
}

func TestGiveInterestSingleAccount(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "100.00")

	interest, err := f.teller.GiveInterest(f.ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, "1.00", domain.FormatAmount(interest))
	require.Equal(t, "101.00", domain.FormatAmount(f.balance(t, accountID)))

	messages, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Text, "$1.00")
}

func TestGiveInterestAllSendsOneNotice(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")
	chequing := f.newAccount(t, domain.AccountKindChequing, "100.00")
	saving := f.newAccount(t, domain.AccountKindSaving, "33.33")

	total, err := f.teller.GiveInterestAll(f.ctx)
	require.NoError(t, err)
	// 100.00 * 1.01 = 101.00 and ceil(33.33 * 1.02) = ceil(33.9966) = 34.00
	require.Equal(t, "1.67", domain.FormatAmount(total))
	require.Equal(t, "101.00", domain.FormatAmount(f.balance(t, chequing)))
	require.Equal(t, "34.00", domain.FormatAmount(f.balance(t, saving)))

	messages, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Text, "totaling $1.67")
}

func TestGiveInterestAllWithoutAccountsIsSilent(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")

	total, err := f.teller.GiveInterestAll(f.ctx)
	require.NoError(t, err)
	require.True(t, total.IsZero())

	messages, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestGiveInterestReportsInterestWhenWriteFails(t *testing.T) {
	store := memory.NewStore()
	stub := &storeStub{Store: store}
	f := newFixtureWithStore(t, store, stub)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "100.00")

	stub.updateAccountBalanceFn = func(context.Context, int, decimal.Decimal) error {
		return errors.New("connection reset")
	}

	interest, err := f.teller.GiveInterest(f.ctx, accountID)
	require.NoError(t, err)
	require.Equal(t, "1.00", domain.FormatAmount(interest))
	require.Equal(t, "100.00", domain.FormatAmount(f.balance(t, accountID)))

	err = f.teller.MakeDeposit(f.ctx, accountID, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrConnectionFailed)
}

func TestGiveInterestAllSkipsFailedWrites(t *testing.T) {
	store := memory.NewStore()
	stub := &storeStub{Store: store}
	f := newFixtureWithStore(t, store, stub)
	customerID := f.newCustomer(t, "Cora")
	chequing := f.newAccount(t, domain.AccountKindChequing, "100.00")
	saving := f.newAccount(t, domain.AccountKindSaving, "100.00")

	stub.updateAccountBalanceFn = func(ctx context.Context, id int, balance decimal.Decimal) error {
		if id == chequing {
			return errors.New("connection reset")
		}
		return store.UpdateAccountBalance(ctx, id, balance)
	}

	total, err := f.teller.GiveInterestAll(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "3.00", domain.FormatAmount(total))
	require.Equal(t, "100.00", domain.FormatAmount(f.balance(t, chequing)))
	require.Equal(t, "102.00", domain.FormatAmount(f.balance(t, saving)))

	messages, err := f.store.GetMessages(f.ctx, customerID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Text, "totaling $3.00")
}

func TestGiveInterestRequiresOwnership(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "100.00")
	require.True(t, f.teller.DeAuthenticateCustomer())
	otherID := f.newCustomer(t, "Dan")

	_, err := f.teller.GiveInterest(f.ctx, accountID)
	require.ErrorIs(t, err, domain.ErrDoesNotOwn)
	require.Equal(t, "100.00", domain.FormatAmount(f.balance(t, accountID)))

	messages, err := f.store.GetMessages(f.ctx, otherID)
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestCreateJointAccount(t *testing.T) {
	f := newFixture(t)
	firstID := f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "10.00")
	require.True(t, f.teller.DeAuthenticateCustomer())
	secondID := f.newCustomer(t, "Dan")
	tellerID := f.teller.User().ID

	require.False(t, f.teller.CreateJointAccount(f.ctx, accountID, tellerID))
	owns, err := f.store.UserOwnsAccount(f.ctx, tellerID, accountID)
	require.NoError(t, err)
	require.False(t, owns)

	require.True(t, f.teller.CreateJointAccount(f.ctx, accountID, secondID))
	require.True(t, f.bank.Guard().OwnsAccount(f.ctx, firstID, accountID))
	require.True(t, f.bank.Guard().OwnsAccount(f.ctx, secondID, accountID))

	require.False(t, f.teller.CreateJointAccount(f.ctx, accountID, secondID), "duplicate association")

	messages, err := f.store.GetMessages(f.ctx, secondID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Contains(t, messages[0].Text, "joint account")

	require.NoError(t, f.teller.MakeDeposit(f.ctx, accountID, decimal.NewFromInt(5)))
	require.Equal(t, "15.00", domain.FormatAmount(f.balance(t, accountID)))
}

func TestTellerMessages(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")
	tellerID := f.teller.User().ID

	require.Equal(t, domain.InvalidID, f.teller.LeaveMessage(f.ctx, tellerID, "tellers cannot be messaged here"))
	require.Equal(t, domain.InvalidID, f.teller.LeaveMessage(f.ctx, customerID, ""))
	require.Equal(t, domain.InvalidID, f.teller.LeaveMessage(f.ctx, customerID, strings.Repeat("x", domain.MaxMessageLength+1)))

	toCustomer := f.teller.LeaveMessage(f.ctx, customerID, "your card is ready")
	require.NotEqual(t, domain.InvalidID, toCustomer)
	bound := f.teller.LeaveCustomerMessage(f.ctx, "please visit the branch")
	require.NotEqual(t, domain.InvalidID, bound)

	ids, err := f.teller.ListCustomerMessageIDs(f.ctx)
	require.NoError(t, err)
	require.Equal(t, []int{toCustomer, bound}, ids)

	text, err := f.teller.ViewMessage(f.ctx, toCustomer)
	require.NoError(t, err)
	require.Equal(t, "your card is ready", text)

	message, err := f.store.GetMessage(f.ctx, toCustomer)
	require.NoError(t, err)
	require.True(t, message.Viewed)

	toTeller := f.admin.LeaveMessage(f.ctx, tellerID, "staff meeting")
	require.True(t, f.teller.DeAuthenticateCustomer())

	own, err := f.teller.ListMessageIDs(f.ctx)
	require.NoError(t, err)
	require.Equal(t, []int{toTeller}, own)

	_, err = f.teller.ViewMessage(f.ctx, bound)
	require.ErrorIs(t, err, domain.ErrDoesNotOwn)
	message, err = f.store.GetMessage(f.ctx, bound)
	require.NoError(t, err)
	require.False(t, message.Viewed)
}

func TestAccountListFilters(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	chequing := f.newAccount(t, domain.AccountKindChequing, "1.00")
	f.newAccount(t, domain.AccountKindRestrictedSaving, "1.00")
	owing := f.newAccount(t, domain.AccountKindBalanceOwing, "1.00")

	all, err := f.teller.ListAccounts(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	depositable, err := f.teller.DepositableAccounts(f.ctx)
	require.NoError(t, err)
	require.Equal(t, []int{chequing, owing}, accountIDs(depositable))

	withdrawable, err := f.teller.WithdrawableAccounts(f.ctx)
	require.NoError(t, err)
	require.Equal(t, []int{chequing}, accountIDs(withdrawable))
}

func TestUpdateCustomerDetailsNeedsPassword(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")

	require.False(t, f.teller.UpdateUserName(f.ctx, "Corinne", customerID, "wrong-password"))
	require.True(t, f.teller.UpdateUserName(f.ctx, "Corinne", customerID, customerPass))
	require.True(t, f.teller.UpdateUserAge(f.ctx, 29, customerID, customerPass))
	require.True(t, f.teller.UpdateUserAddress(f.ctx, "9 New Street", customerID, customerPass))
	require.False(t, f.teller.UpdateUserAddress(f.ctx, strings.Repeat("a", 101), customerID, customerPass))
	require.False(t, f.teller.UpdateUserAge(f.ctx, 40, f.teller.User().ID, tellerPass), "only customers are updated")

	record, err := f.store.GetUser(f.ctx, customerID)
	require.NoError(t, err)
	require.Equal(t, "Corinne", record.Name)
	require.Equal(t, 29, record.Age)
	require.Equal(t, "9 New Street", record.Address)

	require.True(t, f.teller.UpdateUserPassword(f.ctx, "new-secret", customerID, customerPass))
	_, err = f.bank.LoginAtm(f.ctx, customerID, customerPass)
	require.ErrorIs(t, err, domain.ErrAuthenticationFailed)
	_, err = f.bank.LoginAtm(f.ctx, customerID, "new-secret")
	require.NoError(t, err)
}

func TestLogoutClosesTerminal(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "1.00")

	f.teller.Logout()
	require.Nil(t, f.teller.User())

	err := f.teller.MakeDeposit(f.ctx, accountID, decimal.NewFromInt(1))
	require.ErrorIs(t, err, domain.ErrSessionClosed)
	require.False(t, f.teller.SetCustomer(f.ctx, customerID))
	require.Equal(t, domain.InvalidID, f.teller.MakeNewUser(f.ctx, "Eve", 30, "4 Road", customerPass))

	_, err = f.teller.ListMessages(f.ctx)
	require.ErrorIs(t, err, domain.ErrSessionClosed)
}

func accountIDs(accounts []*domain.Account) []int {
	ids := make([]int, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.ID)
	}
	return ids
}
