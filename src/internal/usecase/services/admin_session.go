package services

import (
	"context"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
	"github.com/shopspring/decimal"
)

// AdminSession is a teller terminal with oversight operations on top.
type AdminSession struct {
	*TellerSession
}

func (a *AdminSession) ListUsers(ctx context.Context, role domain.Role) ([]*domain.User, error) {
	if !a.open() {
		return nil, domain.ErrSessionClosed
	}

	roleID := a.bank.lookup.RoleID(role)
	userIDs, err := a.bank.AllUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*domain.User, 0)
	for _, userID := range userIDs {
		record, err := a.bank.store.GetUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		if record.RoleID != roleID {
			continue
		}

		user, err := a.bank.loadUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		users = append(users, user)
	}

	return users, nil
}

// CreateNewUser stores a user of any role without binding it to the terminal.
func (a *AdminSession) CreateNewUser(ctx context.Context, name string, age int, address string, password string, role domain.Role) int {
	if !a.open() {
		return domain.InvalidID
	}

	userID := a.bank.insertUser(ctx, name, age, address, password, role)
	if userID != domain.InvalidID {
		logger.Info("admin user created", logger.Fields{
			"sessionId": a.id,
			"userId":    userID,
			"role":      string(role),
		})
	}
	return userID
}

// PromoteTeller turns a teller into an admin. Any other role is left alone.
func (a *AdminSession) PromoteTeller(ctx context.Context, tellerID int) bool {
	if !a.open() || !a.bank.guard.HasRole(ctx, tellerID, domain.RoleTeller) {
		return false
	}

	if err := a.bank.store.UpdateUserRole(ctx, tellerID, a.bank.lookup.RoleID(domain.RoleAdmin)); err != nil {
		logger.Error("admin promote teller failed", err, logger.Fields{
			"sessionId": a.id,
			"tellerId":  tellerID,
		})
		return false
	}

	logger.Info("admin promote teller success", logger.Fields{
		"sessionId": a.id,
		"tellerId":  tellerID,
	})
	return true
}

func (a *AdminSession) UpdateInterestRate(ctx context.Context, rate decimal.Decimal, typeID int) bool {
	if !a.open() || !validation.ValidInterestRate(rate) {
		return false
	}
	if _, ok := a.bank.lookup.AccountKind(typeID); !ok {
		return false
	}

	if err := a.bank.store.UpdateInterestRate(ctx, typeID, rate); err != nil {
		logger.Error("admin update interest rate failed", err, logger.Fields{
			"sessionId": a.id,
			"typeId":    typeID,
		})
		return false
	}

	logger.Info("admin update interest rate success", logger.Fields{
		"sessionId": a.id,
		"typeId":    typeID,
		"rate":      rate.String(),
	})
	return true
}

// GetBankTotal sums every account balance in the store, debts included.
func (a *AdminSession) GetBankTotal(ctx context.Context) (decimal.Decimal, error) {
	if !a.open() {
		return decimal.Zero, domain.ErrSessionClosed
	}

	accountIDs, err := a.bank.AllAccountIDs(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bank total: %w", err)
	}

	total := decimal.Zero
	for _, accountID := range accountIDs {
		account, err := a.bank.store.GetAccount(ctx, accountID)
		if err != nil {
			return decimal.Zero, fmt.Errorf("bank total: %w", err)
		}
		total = total.Add(account.Balance)
	}

	return total, nil
}

// PeekMessage reads any message without checking ownership and without
// marking it viewed.
func (a *AdminSession) PeekMessage(ctx context.Context, messageID int) (string, error) {
	if !a.open() {
		return "", domain.ErrSessionClosed
	}

	message, err := a.bank.store.GetMessage(ctx, messageID)
	if err != nil {
		return "", err
	}
	return message.Text, nil
}

// ViewMessage only reads the admin's own inbox.
func (a *AdminSession) ViewMessage(ctx context.Context, messageID int) (string, error) {
	if !a.open() {
		return "", domain.ErrSessionClosed
	}
	return a.bank.viewMessage(ctx, a.teller, messageID)
}

// LeaveMessage writes to any user's inbox.
func (a *AdminSession) LeaveMessage(ctx context.Context, userID int, text string) int {
	if !a.open() {
		return domain.InvalidID
	}
	return a.bank.notifier.Notify(ctx, userID, text)
}
