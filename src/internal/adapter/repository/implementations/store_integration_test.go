package implementations_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/implementations"
	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/bootstrap"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/security"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

var _ repo_interfaces.Store = (*implementations.Store)(nil)

var migrationsDir = filepath.Join("..", "..", "..", "..", "migrations")

// startPostgres runs a throwaway database and returns its DSN. The tests need
// a container runtime, so they only run with BANK_INTEGRATION=1.
func startPostgres(t *testing.T) string {
	t.Helper()

	if os.Getenv("BANK_INTEGRATION") != "1" {
		t.Skip("set BANK_INTEGRATION=1 to run Postgres integration tests")
	}

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("branch_bank_db"),
		postgres.WithUsername("db_user"),
		postgres.WithPassword("db_password"),
		postgres.BasicWaitStrategies(),
	)
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func openMigrated(t *testing.T, driver string, dsn string) *sql.DB {
	t.Helper()

	db, err := implementations.Open(context.Background(), driver, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = implementations.RunMigrations(context.Background(), db, migrationsDir)
	require.NoError(t, err)
	return db
}

func TestPostgresStore(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db := openMigrated(t, "postgres", dsn)
	applied, err := implementations.RunMigrations(ctx, db, migrationsDir)
	require.NoError(t, err)
	require.Empty(t, applied, "migrations are only applied once")

	store := implementations.NewStore(db)
	hasher := security.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, bootstrap.Apply(ctx, store, hasher, bootstrap.DefaultSeed()))
	require.NoError(t, bootstrap.Apply(ctx, store, hasher, bootstrap.DefaultSeed()))

	t.Run("seeded lookup rows", func(t *testing.T) {
		roles, err := store.ListRoles(ctx)
		require.NoError(t, err)
		require.Len(t, roles, 3)

		types, err := store.ListAccountTypes(ctx)
		require.NoError(t, err)
		require.Len(t, types, 5)

		rate, err := store.GetInterestRate(ctx, 3)
		require.NoError(t, err)
		require.True(t, rate.Equal(decimal.RequireFromString("0.03")))

		_, err = store.GetInterestRate(ctx, 42)
		require.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("users", func(t *testing.T) {
		admin, err := store.GetUser(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 1, admin.RoleID)

		id, err := store.InsertUser(ctx, domain.UserRecord{Name: "Cora", Age: 28, Address: "3 Customer Lane", RoleID: 3}, "digest")
		require.NoError(t, err)
		require.Equal(t, 2, id)

		require.NoError(t, store.UpdateUserDetails(ctx, domain.UserRecord{ID: id, Name: "Cora B", Age: 29, Address: "4 Customer Lane", RoleID: 3}))
		require.NoError(t, store.UpdateUserPassword(ctx, id, "new-digest"))

		user, err := store.GetUser(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Cora B", user.Name)
		require.Equal(t, 29, user.Age)

		hash, err := store.GetPasswordHash(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "new-digest", hash)

		_, err = store.GetUser(ctx, 99)
		require.ErrorIs(t, err, domain.ErrRecordNotFound)
		require.ErrorIs(t, store.UpdateUserRole(ctx, 99, 2), domain.ErrRecordNotFound)
	})

	t.Run("accounts and ownership", func(t *testing.T) {
		accountID, err := store.InsertAccount(ctx, "Everyday", decimal.RequireFromString("10.50"), 1)
		require.NoError(t, err)
		require.Equal(t, 1, accountID)

		require.NoError(t, store.UpdateAccountBalance(ctx, accountID, decimal.RequireFromString("-2.25")))
		require.NoError(t, store.UpdateAccountType(ctx, accountID, 5))

		account, err := store.GetAccount(ctx, accountID)
		require.NoError(t, err)
		require.Equal(t, "-2.25", account.Balance.StringFixed(2))
		require.Equal(t, 5, account.TypeID)

		_, err = store.InsertOwnership(ctx, 2, accountID)
		require.NoError(t, err)
		_, err = store.InsertOwnership(ctx, 2, accountID)
		require.ErrorIs(t, err, domain.ErrDuplicateRecord)
		_, err = store.InsertOwnership(ctx, 99, accountID)
		require.ErrorIs(t, err, domain.ErrRecordNotFound)

		owns, err := store.UserOwnsAccount(ctx, 2, accountID)
		require.NoError(t, err)
		require.True(t, owns)

		ids, err := store.GetOwnedAccountIDs(ctx, 2)
		require.NoError(t, err)
		require.Equal(t, []int{accountID}, ids)

		_, err = store.InsertAccount(ctx, "Broken", decimal.Zero, 42)
		require.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("messages", func(t *testing.T) {
		messageID, err := store.InsertMessage(ctx, 2, "hello")
		require.NoError(t, err)
		require.NoError(t, store.MarkMessageViewed(ctx, messageID))

		message, err := store.GetMessage(ctx, messageID)
		require.NoError(t, err)
		require.True(t, message.Viewed)

		messages, err := store.GetMessages(ctx, 2)
		require.NoError(t, err)
		require.Len(t, messages, 1)
	})
}

func TestPostgresDenseIDsUnderConcurrency(t *testing.T) {
	dsn := startPostgres(t)
	ctx := context.Background()

	db := openMigrated(t, "pgx", dsn)
	store := implementations.NewStore(db)
	require.NoError(t, bootstrap.Apply(ctx, store, security.NewBcryptHasher(bcrypt.MinCost), bootstrap.DefaultSeed()))

	const inserts = 20
	var group errgroup.Group
	for i := 0; i < inserts; i++ {
		group.Go(func() error {
			_, err := store.InsertAccount(ctx, "Concurrent", decimal.NewFromInt(1), 1)
			return err
		})
	}
	require.NoError(t, group.Wait())

	for id := 1; id <= inserts; id++ {
		_, err := store.GetAccount(ctx, id)
		require.NoError(t, err, "account %d", id)
	}
	_, err := store.GetAccount(ctx, inserts+1)
	require.ErrorIs(t, err, domain.ErrRecordNotFound)
}
