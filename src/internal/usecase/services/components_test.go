package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/memory"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/usecase/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestAccountFactoryCreateRejectsUnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.bank.Factory().Create("MORTGAGE")
	require.ErrorIs(t, err, domain.ErrUnknownAccountType)

	account, err := f.bank.Factory().Create("restricted")
	require.NoError(t, err)
	require.Equal(t, domain.AccountKindRestrictedSaving, account.Kind)
	require.Equal(t, domain.InvalidID, account.ID)
	require.Nil(t, account.InterestRate)
}

func TestAccountFactoryLoadHydratesVariant(t *testing.T) {
	f := newFixture(t)
	f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindBalanceOwing, "12.00")

	account, err := f.bank.Factory().Load(f.ctx, accountID)
	require.NoError(t, err)
	require.True(t, account.IsOwing())
	require.Equal(t, "-12.00", domain.FormatAmount(account.Balance))
	require.NotNil(t, account.InterestRate)
	require.True(t, account.InterestRate.Equal(decimal.RequireFromString("0.02")))

	_, err = f.bank.Factory().Load(f.ctx, 99)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestAuthorizationGuardOwnership(t *testing.T) {
	f := newFixture(t)
	customerID := f.newCustomer(t, "Cora")
	accountID := f.newAccount(t, domain.AccountKindChequing, "1.00")
	guard := f.bank.Guard()

	require.True(t, guard.OwnsAccount(f.ctx, customerID, accountID))
	require.False(t, guard.OwnsAccount(f.ctx, customerID, accountID+1))
	require.False(t, guard.OwnsAccount(f.ctx, domain.InvalidID, accountID))

	_, err := f.store.InsertOwnership(f.ctx, adminID, accountID)
	require.NoError(t, err)
	require.False(t, guard.OwnsAccount(f.ctx, adminID, accountID), "only customers own accounts")

	require.True(t, guard.OwnsAccountOfKind(f.ctx, customerID, accountID, domain.AccountKindChequing))
	require.False(t, guard.OwnsAccountOfKind(f.ctx, customerID, accountID, domain.AccountKindSaving))

	require.True(t, guard.IsRole(f.teller.User(), domain.RoleTeller))
	require.False(t, guard.IsRole(nil, domain.RoleTeller))
}

func TestNotificationServiceValidatesRecipientAndText(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	notifier := services.NewNotificationService(store)

	require.Equal(t, domain.InvalidID, notifier.Notify(ctx, 1, "nobody home"))

	roleID, err := store.InsertRole(ctx, "CUSTOMER")
	require.NoError(t, err)
	userID, err := store.InsertUser(ctx, domain.UserRecord{Name: "Ana", Age: 30, Address: "1 Main", RoleID: roleID}, "hash")
	require.NoError(t, err)

	require.Equal(t, domain.InvalidID, notifier.Notify(ctx, userID, ""))
	require.Equal(t, domain.InvalidID, notifier.Notify(ctx, userID, strings.Repeat("m", domain.MaxMessageLength+1)))

	messageID := notifier.Notify(ctx, userID, strings.Repeat("m", domain.MaxMessageLength))
	require.Equal(t, 1, messageID)

	interestID := notifier.NotifyInterest(ctx, userID, 4, decimal.RequireFromString("0.5"))
	message, err := store.GetMessage(ctx, interestID)
	require.NoError(t, err)
	require.Equal(t, "SYSTEM: interest of $0.50 has been added to account with ID 4.", message.Text)
	require.False(t, message.Viewed)
}

func TestLoadLookupTableNeedsSeededStore(t *testing.T) {
	_, err := services.LoadLookupTable(context.Background(), memory.NewStore())
	require.Error(t, err)
}
