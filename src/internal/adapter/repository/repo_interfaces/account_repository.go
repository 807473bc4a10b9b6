package repo_interfaces

import (
	"context"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
)

type AccountRepository interface {
	GetAccount(ctx context.Context, id int) (domain.AccountRecord, error)
	InsertAccount(ctx context.Context, name string, balance decimal.Decimal, typeID int) (int, error)
	UpdateAccountBalance(ctx context.Context, id int, balance decimal.Decimal) error
	UpdateAccountType(ctx context.Context, id int, typeID int) error
	GetAccountType(ctx context.Context, id int) (int, error)
}

type AccountTypeRepository interface {
	ListAccountTypes(ctx context.Context) ([]domain.AccountTypeEntry, error)
	InsertAccountType(ctx context.Context, name string, rate decimal.Decimal) (int, error)
	GetInterestRate(ctx context.Context, typeID int) (decimal.Decimal, error)
	UpdateInterestRate(ctx context.Context, typeID int, rate decimal.Decimal) error
}
