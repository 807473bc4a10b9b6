package memory_test

import (
	"context"
	"testing"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/memory"
	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var _ repo_interfaces.Store = (*memory.Store)(nil)

func TestStoreHandsOutDenseIDs(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	typeID, err := store.InsertAccountType(ctx, "CHEQUING", decimal.RequireFromString("0.01"))
	require.NoError(t, err)
	require.Equal(t, 1, typeID)

	for want := 1; want <= 3; want++ {
		id, err := store.InsertAccount(ctx, "acct", decimal.NewFromInt(10), typeID)
		require.NoError(t, err)
		require.Equal(t, want, id)
	}

	_, err = store.GetAccount(ctx, 4)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestStoreOwnershipIsUnique(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	roleID, err := store.InsertRole(ctx, "CUSTOMER")
	require.NoError(t, err)
	typeID, err := store.InsertAccountType(ctx, "SAVING", decimal.Zero)
	require.NoError(t, err)
	userID, err := store.InsertUser(ctx, domain.UserRecord{Name: "Ana", Age: 30, Address: "1 Main", RoleID: roleID}, "hash")
	require.NoError(t, err)
	accountID, err := store.InsertAccount(ctx, "savings", decimal.NewFromInt(1), typeID)
	require.NoError(t, err)

	_, err = store.InsertOwnership(ctx, userID, accountID)
	require.NoError(t, err)

	_, err = store.InsertOwnership(ctx, userID, accountID)
	require.ErrorIs(t, err, domain.ErrDuplicateRecord)

	owns, err := store.UserOwnsAccount(ctx, userID, accountID)
	require.NoError(t, err)
	require.True(t, owns)

	ids, err := store.GetOwnedAccountIDs(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, []int{accountID}, ids)
}

func TestStoreRejectsDanglingReferences(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.InsertAccount(ctx, "orphan", decimal.Zero, 9)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = store.InsertMessage(ctx, 1, "hello")
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}
