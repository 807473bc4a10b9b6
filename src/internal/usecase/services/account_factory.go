package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
)

type accountSource interface {
	repo_interfaces.AccountRepository
	repo_interfaces.AccountTypeRepository
}

type AccountFactory struct {
	store  accountSource
	lookup *domain.LookupTable
}

func NewAccountFactory(store accountSource, lookup *domain.LookupTable) *AccountFactory {
	return &AccountFactory{store: store, lookup: lookup}
}

// Create returns an empty account of the variant named by token. Unknown
// tokens are rejected rather than mapped to a default variant.
func (f *AccountFactory) Create(token string) (*domain.Account, error) {
	kind, ok := domain.ParseAccountKind(token)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAccountType, token)
	}

	return &domain.Account{
		ID:     domain.InvalidID,
		Kind:   kind,
		TypeID: f.lookup.AccountTypeID(kind),
	}, nil
}

// Finalize resolves the type id and interest rate of an account whose id has
// been set. A missing rate leaves InterestRate nil.
func (f *AccountFactory) Finalize(ctx context.Context, account *domain.Account) error {
	typeID, err := f.store.GetAccountType(ctx, account.ID)
	if err != nil {
		return fmt.Errorf("resolve account type: %w", err)
	}
	account.TypeID = typeID

	rate, err := f.store.GetInterestRate(ctx, typeID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			account.InterestRate = nil
			return nil
		}
		return fmt.Errorf("resolve interest rate: %w", err)
	}
	account.InterestRate = &rate

	return nil
}

// Load reads an account row and hydrates it into the matching variant.
func (f *AccountFactory) Load(ctx context.Context, id int) (*domain.Account, error) {
	record, err := f.store.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	kind, ok := f.lookup.AccountKind(record.TypeID)
	if !ok {
		return nil, fmt.Errorf("%w: type id %d", domain.ErrUnknownAccountType, record.TypeID)
	}

	account, err := f.Create(string(kind))
	if err != nil {
		return nil, err
	}
	account.ID = record.ID
	account.Name = record.Name
	account.Balance = record.Balance

	if err := f.Finalize(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}
