package repo_interfaces

import (
	"context"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
)

type RoleRepository interface {
	ListRoles(ctx context.Context) ([]domain.RoleEntry, error)
	InsertRole(ctx context.Context, name string) (int, error)
}

type UserRepository interface {
	GetUser(ctx context.Context, id int) (domain.UserRecord, error)
	InsertUser(ctx context.Context, user domain.UserRecord, passwordHash string) (int, error)
	UpdateUserRole(ctx context.Context, id int, roleID int) error
	UpdateUserDetails(ctx context.Context, user domain.UserRecord) error
	UpdateUserPassword(ctx context.Context, id int, passwordHash string) error
	GetPasswordHash(ctx context.Context, id int) (string, error)
}

type OwnershipRepository interface {
	UserOwnsAccount(ctx context.Context, userID int, accountID int) (bool, error)
	InsertOwnership(ctx context.Context, userID int, accountID int) (int, error)
	GetOwnedAccountIDs(ctx context.Context, userID int) ([]int, error)
}
