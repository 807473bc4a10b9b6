package services

import (
	"context"
	"errors"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
)

type guardSource interface {
	repo_interfaces.UserRepository
	repo_interfaces.AccountRepository
	repo_interfaces.OwnershipRepository
}

// AuthorizationGuard answers ownership and role questions against the store.
// None of its predicates mutate anything.
type AuthorizationGuard struct {
	store  guardSource
	lookup *domain.LookupTable
}

func NewAuthorizationGuard(store guardSource, lookup *domain.LookupTable) *AuthorizationGuard {
	return &AuthorizationGuard{store: store, lookup: lookup}
}

func (g *AuthorizationGuard) IsRole(user *domain.User, role domain.Role) bool {
	return user.Is(role)
}

// HasRole reports whether the stored user currently holds role.
func (g *AuthorizationGuard) HasRole(ctx context.Context, userID int, role domain.Role) bool {
	if !validation.ValidID(userID) {
		return false
	}

	user, err := g.store.GetUser(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("authorization guard role lookup failed", err, logger.Fields{
				"userId": userID,
			})
		}
		return false
	}

	return user.RoleID == g.lookup.RoleID(role)
}

// OwnsAccount is true only for customers with an ownership association to
// the account.
func (g *AuthorizationGuard) OwnsAccount(ctx context.Context, userID int, accountID int) bool {
	if !validation.ValidID(userID) || !validation.ValidID(accountID) {
		return false
	}
	if !g.HasRole(ctx, userID, domain.RoleCustomer) {
		return false
	}

	owns, err := g.store.UserOwnsAccount(ctx, userID, accountID)
	if err != nil {
		logger.Error("authorization guard ownership lookup failed", err, logger.Fields{
			"userId":    userID,
			"accountId": accountID,
		})
		return false
	}

	return owns
}

func (g *AuthorizationGuard) IsAccountKind(ctx context.Context, accountID int, kind domain.AccountKind) bool {
	typeID, err := g.store.GetAccountType(ctx, accountID)
	if err != nil {
		return false
	}
	return typeID == g.lookup.AccountTypeID(kind)
}

// OwnsAccountOfKind combines OwnsAccount with an account type check.
func (g *AuthorizationGuard) OwnsAccountOfKind(ctx context.Context, userID int, accountID int, kind domain.AccountKind) bool {
	return g.OwnsAccount(ctx, userID, accountID) && g.IsAccountKind(ctx, accountID, kind)
}
