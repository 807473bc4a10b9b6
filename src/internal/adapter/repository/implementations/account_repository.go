package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/shopspring/decimal"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetAccount(ctx context.Context, id int) (domain.AccountRecord, error) {
	const query = `
SELECT id, name, balance, type_id
FROM accounts
WHERE id = $1`

	var account domain.AccountRecord
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Name,
		&account.Balance,
		&account.TypeID,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AccountRecord{}, domain.ErrRecordNotFound
		}
		logger.Error("account repository get failed", err, logger.Fields{
			"accountId": id,
		})
		return domain.AccountRecord{}, fmt.Errorf("get account: %w", err)
	}

	return account, nil
}

func (r *AccountRepository) InsertAccount(ctx context.Context, name string, balance decimal.Decimal, typeID int) (int, error) {
	logger.Info("account repository insert", logger.Fields{
		"name":    name,
		"balance": domain.FormatAmount(balance),
		"typeId":  typeID,
	})

	id, err := insertDense(ctx, r.db, "accounts", "name, balance, type_id", "$2, $3, $4", name, balance, typeID)
	if err != nil {
		logger.Error("account repository insert failed", err, logger.Fields{
			"name":   name,
			"typeId": typeID,
		})
		return domain.InvalidID, fmt.Errorf("insert account: %w", err)
	}

	logger.Info("account repository insert success", logger.Fields{
		"accountId": id,
	})
	return id, nil
}

func (r *AccountRepository) UpdateAccountBalance(ctx context.Context, id int, balance decimal.Decimal) error {
	logger.Info("account repository update balance", logger.Fields{
		"accountId": id,
		"balance":   domain.FormatAmount(balance),
	})

	const query = `
UPDATE accounts
SET balance = $2,
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, balance)
	if err != nil {
		logger.Error("account repository update balance failed", err, logger.Fields{
			"accountId": id,
		})
		return fmt.Errorf("update account balance: %w", err)
	}

	return requireOneRow(result, "update account balance")
}

func (r *AccountRepository) UpdateAccountType(ctx context.Context, id int, typeID int) error {
	logger.Info("account repository update type", logger.Fields{
		"accountId": id,
		"typeId":    typeID,
	})

	const query = `
UPDATE accounts
SET type_id = $2,
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, typeID)
	if err != nil {
		logger.Error("account repository update type failed", err, logger.Fields{
			"accountId": id,
			"typeId":    typeID,
		})
		return fmt.Errorf("update account type: %w", translateError(err))
	}

	return requireOneRow(result, "update account type")
}

func (r *AccountRepository) GetAccountType(ctx context.Context, id int) (int, error) {
	var typeID int
	if err := r.db.QueryRowContext(ctx, `SELECT type_id FROM accounts WHERE id = $1`, id).Scan(&typeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.InvalidID, domain.ErrRecordNotFound
		}
		return domain.InvalidID, fmt.Errorf("get account type: %w", err)
	}

	return typeID, nil
}

type AccountTypeRepository struct {
	db *sql.DB
}

func NewAccountTypeRepository(db *sql.DB) *AccountTypeRepository {
	return &AccountTypeRepository{db: db}
}

func (r *AccountTypeRepository) ListAccountTypes(ctx context.Context) ([]domain.AccountTypeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM account_types ORDER BY id`)
	if err != nil {
		logger.Error("account type repository list failed", err, nil)
		return nil, fmt.Errorf("list account types: %w", err)
	}
	defer rows.Close()

	types := make([]domain.AccountTypeEntry, 0)
	for rows.Next() {
		var entry domain.AccountTypeEntry
		if err := rows.Scan(&entry.ID, &entry.Name); err != nil {
			return nil, fmt.Errorf("scan account type: %w", err)
		}
		types = append(types, entry)
	}

	return types, rows.Err()
}

func (r *AccountTypeRepository) InsertAccountType(ctx context.Context, name string, rate decimal.Decimal) (int, error) {
	id, err := insertDense(ctx, r.db, "account_types", "name, interest_rate", "$2, $3", name, rate)
	if err != nil {
		logger.Error("account type repository insert failed", err, logger.Fields{
			"name": name,
		})
		return domain.InvalidID, fmt.Errorf("insert account type: %w", err)
	}

	return id, nil
}

func (r *AccountTypeRepository) GetInterestRate(ctx context.Context, typeID int) (decimal.Decimal, error) {
	var rate decimal.Decimal
	if err := r.db.QueryRowContext(ctx, `SELECT interest_rate FROM account_types WHERE id = $1`, typeID).Scan(&rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return decimal.Zero, domain.ErrRecordNotFound
		}
		return decimal.Zero, fmt.Errorf("get interest rate: %w", err)
	}

	return rate, nil
}

func (r *AccountTypeRepository) UpdateInterestRate(ctx context.Context, typeID int, rate decimal.Decimal) error {
	logger.Info("account type repository update interest rate", logger.Fields{
		"typeId": typeID,
		"rate":   rate.String(),
	})

	result, err := r.db.ExecContext(ctx, `UPDATE account_types SET interest_rate = $2 WHERE id = $1`, typeID, rate)
	if err != nil {
		logger.Error("account type repository update interest rate failed", err, logger.Fields{
			"typeId": typeID,
		})
		return fmt.Errorf("update interest rate: %w", err)
	}

	return requireOneRow(result, "update interest rate")
}
