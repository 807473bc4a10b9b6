package services

import (
	"context"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/shopspring/decimal"
)

// AtmSession is a customer's self-service channel. It is bound to exactly
// one authenticated customer until DeAuthenticate.
type AtmSession struct {
	id       string
	bank     *Bank
	customer *domain.User
}

func newAtmSession(bank *Bank, customer *domain.User) *AtmSession {
	return &AtmSession{
		id:       newSessionID(),
		bank:     bank,
		customer: customer,
	}
}

func (s *AtmSession) ID() string {
	return s.id
}

// Customer returns the bound customer, or nil once the session is closed.
func (s *AtmSession) Customer() *domain.User {
	return s.customer
}

func (s *AtmSession) Authenticated() bool {
	return s.customer != nil && s.customer.Authenticated
}

func (s *AtmSession) bound() (*domain.User, error) {
	if !s.Authenticated() {
		return nil, domain.ErrSessionClosed
	}
	return s.customer, nil
}

func (s *AtmSession) CheckBalance(ctx context.Context, accountID int) (decimal.Decimal, error) {
	customer, err := s.bound()
	if err != nil {
		return decimal.Zero, err
	}

	if !s.bank.guard.OwnsAccount(ctx, customer.ID, accountID) {
		return decimal.Zero, domain.NewTransactionError(domain.KindDoesNotOwn, doesNotOwnAccountMessage, nil)
	}

	account, err := s.bank.store.GetAccount(ctx, accountID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("check balance: %w", err)
	}

	return account.Balance, nil
}

func (s *AtmSession) MakeDeposit(ctx context.Context, accountID int, amount decimal.Decimal) error {
	customer, err := s.bound()
	if err != nil {
		return err
	}

	logger.Info("atm deposit request", logger.Fields{
		"sessionId": s.id,
		"accountId": accountID,
		"amount":    amount.String(),
	})

	if err := s.bank.deposit(ctx, customer.ID, accountID, amount); err != nil {
		logger.Error("atm deposit failed", err, logger.Fields{
			"sessionId": s.id,
			"accountId": accountID,
		})
		return err
	}

	s.refresh(ctx)
	logger.Info("atm deposit success", logger.Fields{
		"sessionId": s.id,
		"accountId": accountID,
	})
	return nil
}

func (s *AtmSession) MakeWithdrawal(ctx context.Context, accountID int, amount decimal.Decimal) error {
	customer, err := s.bound()
	if err != nil {
		return err
	}

	logger.Info("atm withdrawal request", logger.Fields{
		"sessionId": s.id,
		"accountId": accountID,
		"amount":    amount.String(),
	})

	if err := s.bank.withdraw(ctx, customer.ID, accountID, amount); err != nil {
		logger.Error("atm withdrawal failed", err, logger.Fields{
			"sessionId": s.id,
			"accountId": accountID,
		})
		return err
	}

	s.refresh(ctx)
	logger.Info("atm withdrawal success", logger.Fields{
		"sessionId": s.id,
		"accountId": accountID,
	})
	return nil
}

func (s *AtmSession) refresh(ctx context.Context) {
	if err := s.bank.refreshAccounts(ctx, s.customer); err != nil {
		logger.Error("atm refresh accounts failed", err, logger.Fields{
			"sessionId": s.id,
		})
	}
}

func (s *AtmSession) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	customer, err := s.bound()
	if err != nil {
		return nil, err
	}

	if err := s.bank.refreshAccounts(ctx, customer); err != nil {
		return nil, err
	}

	accounts := make([]*domain.Account, len(customer.Accounts))
	copy(accounts, customer.Accounts)
	return accounts, nil
}

func (s *AtmSession) ListMessages(ctx context.Context) ([]domain.Message, error) {
	customer, err := s.bound()
	if err != nil {
		return nil, err
	}
	return s.bank.store.GetMessages(ctx, customer.ID)
}

func (s *AtmSession) ListMessageIDs(ctx context.Context) ([]int, error) {
	customer, err := s.bound()
	if err != nil {
		return nil, err
	}

	if err := s.bank.refreshMessageIDs(ctx, customer); err != nil {
		return nil, err
	}

	ids := make([]int, len(customer.MessageIDs))
	copy(ids, customer.MessageIDs)
	return ids, nil
}

// ViewMessage returns a message addressed to the customer and marks it viewed.
func (s *AtmSession) ViewMessage(ctx context.Context, messageID int) (string, error) {
	customer, err := s.bound()
	if err != nil {
		return "", err
	}
	return s.bank.viewMessage(ctx, customer, messageID)
}

// CheckAccount migrates a TFSA to savings when balance is under the minimum
// and returns the id of the notification sent, or domain.InvalidID.
func (s *AtmSession) CheckAccount(ctx context.Context, accountID int, balance decimal.Decimal) int {
	customer, err := s.bound()
	if err != nil {
		return domain.InvalidID
	}
	if !s.bank.guard.OwnsAccount(ctx, customer.ID, accountID) {
		return domain.InvalidID
	}
	return s.bank.checkAccount(ctx, customer.ID, accountID, balance)
}

func (s *AtmSession) DeAuthenticate() {
	if s.customer == nil {
		return
	}

	logger.Info("atm session closed", logger.Fields{
		"sessionId":  s.id,
		"customerId": s.customer.ID,
	})
	s.customer.Authenticated = false
	s.customer = nil
}
