package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/security"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	doesNotOwnAccountMessage = "user does not own account"
	doesNotOwnMessageMessage = "user does not own message"
	illegalAmountMessage     = "amount must be positive"
	connectionFailedMessage  = "update to database failed"
	insufficientFundsMessage = "insufficient funds, current balance is less than given amount"
	owingWithdrawalMessage   = "Add loans to an Balance Owing Account using the Add Loans option."
)

// Bank wires the store, the lookup table and the credential verifier into the
// components every session works through. One Bank can back many sessions.
type Bank struct {
	store    repo_interfaces.Store
	lookup   *domain.LookupTable
	verifier security.CredentialVerifier
	factory  *AccountFactory
	guard    *AuthorizationGuard
	notifier *NotificationService
	locks    *accountLocks
}

func NewBank(store repo_interfaces.Store, lookup *domain.LookupTable, verifier security.CredentialVerifier, lockTimeout time.Duration) *Bank {
	return &Bank{
		store:    store,
		lookup:   lookup,
		verifier: verifier,
		factory:  NewAccountFactory(store, lookup),
		guard:    NewAuthorizationGuard(store, lookup),
		notifier: NewNotificationService(store),
		locks:    newAccountLocks(lockTimeout),
	}
}

func (b *Bank) Lookup() *domain.LookupTable {
	return b.lookup
}

func (b *Bank) Factory() *AccountFactory {
	return b.factory
}

func (b *Bank) Guard() *AuthorizationGuard {
	return b.guard
}

func (b *Bank) Notifier() *NotificationService {
	return b.notifier
}

func (b *Bank) LoginAtm(ctx context.Context, customerID int, password string) (*AtmSession, error) {
	customer, err := b.authenticate(ctx, customerID, password, domain.RoleCustomer)
	if err != nil {
		return nil, err
	}

	session := newAtmSession(b, customer)
	logger.Info("atm session opened", logger.Fields{
		"sessionId":  session.ID(),
		"customerId": customer.ID,
	})
	return session, nil
}

func (b *Bank) LoginTeller(ctx context.Context, tellerID int, password string) (*TellerSession, error) {
	teller, err := b.authenticate(ctx, tellerID, password, domain.RoleTeller)
	if err != nil {
		return nil, err
	}

	session := newTellerSession(b, teller)
	logger.Info("teller session opened", logger.Fields{
		"sessionId": session.ID(),
		"tellerId":  teller.ID,
	})
	return session, nil
}

func (b *Bank) LoginAdmin(ctx context.Context, adminID int, password string) (*AdminSession, error) {
	admin, err := b.authenticate(ctx, adminID, password, domain.RoleAdmin)
	if err != nil {
		return nil, err
	}

	session := &AdminSession{TellerSession: newTellerSession(b, admin)}
	logger.Info("admin session opened", logger.Fields{
		"sessionId": session.ID(),
		"adminId":   admin.ID,
	})
	return session, nil
}

func (b *Bank) authenticate(ctx context.Context, userID int, password string, role domain.Role) (*domain.User, error) {
	if !validation.ValidID(userID) {
		return nil, domain.ErrAuthenticationFailed
	}

	user, err := b.loadUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return nil, domain.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("login: %w", err)
	}

	if !b.guard.IsRole(user, role) {
		logger.Warn("login role mismatch", logger.Fields{
			"userId":   userID,
			"expected": string(role),
			"actual":   string(user.Role),
		})
		return nil, domain.ErrRoleMismatch
	}

	if !b.verifyPassword(ctx, userID, password) {
		logger.Warn("login password mismatch", logger.Fields{
			"userId": userID,
		})
		return nil, domain.ErrAuthenticationFailed
	}

	user.Authenticated = true
	return user, nil
}

func (b *Bank) verifyPassword(ctx context.Context, userID int, password string) bool {
	digest, err := b.store.GetPasswordHash(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			logger.Error("password hash lookup failed", err, logger.Fields{
				"userId": userID,
			})
		}
		return false
	}

	return b.verifier.Verify(digest, password)
}

// loadUser reads a user with its message ids and, for customers, the
// accounts they own.
func (b *Bank) loadUser(ctx context.Context, userID int) (*domain.User, error) {
	record, err := b.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	role, ok := b.lookup.RoleName(record.RoleID)
	if !ok {
		return nil, fmt.Errorf("user %d has unknown role id %d", userID, record.RoleID)
	}

	user := &domain.User{
		ID:      record.ID,
		Name:    record.Name,
		Age:     record.Age,
		Address: record.Address,
		RoleID:  record.RoleID,
		Role:    role,
	}

	if err := b.refreshMessageIDs(ctx, user); err != nil {
		return nil, err
	}
	if user.Is(domain.RoleCustomer) {
		if err := b.refreshAccounts(ctx, user); err != nil {
			return nil, err
		}
	}

	return user, nil
}

func (b *Bank) refreshAccounts(ctx context.Context, user *domain.User) error {
	ids, err := b.store.GetOwnedAccountIDs(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("refresh accounts: %w", err)
	}

	accounts := make([]*domain.Account, 0, len(ids))
	for _, id := range ids {
		account, err := b.factory.Load(ctx, id)
		if err != nil {
			return fmt.Errorf("refresh account %d: %w", id, err)
		}
		accounts = append(accounts, account)
	}

	user.Accounts = accounts
	return nil
}

func (b *Bank) refreshMessageIDs(ctx context.Context, user *domain.User) error {
	messages, err := b.store.GetMessages(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("refresh message ids: %w", err)
	}

	ids := make([]int, 0, len(messages))
	for _, message := range messages {
		ids = append(ids, message.ID)
	}

	user.MessageIDs = ids
	return nil
}

// insertUser validates and stores a new user, returning domain.InvalidID when
// any field is rejected.
func (b *Bank) insertUser(ctx context.Context, name string, age int, address string, password string, role domain.Role) int {
	name = strings.TrimSpace(name)
	if !validation.ValidName(name) || !validation.ValidAge(age) ||
		!validation.ValidAddress(address) || !validation.ValidPassword(password) {
		logger.Warn("user insert rejected", logger.Fields{
			"name": name,
			"role": string(role),
		})
		return domain.InvalidID
	}

	roleID := b.lookup.RoleID(role)
	if roleID == domain.InvalidID {
		return domain.InvalidID
	}

	digest, err := b.verifier.Hash(password)
	if err != nil {
		logger.Error("user insert hash failed", err, nil)
		return domain.InvalidID
	}

	userID, err := b.store.InsertUser(ctx, domain.UserRecord{
		Name:    name,
		Age:     age,
		Address: address,
		RoleID:  roleID,
	}, digest)
	if err != nil {
		logger.Error("user insert failed", err, logger.Fields{
			"name": name,
			"role": string(role),
		})
		return domain.InvalidID
	}

	return userID
}

// probeIDs walks ids upwards from 1 until exists reports a missing record.
// The store guarantees dense ids, so the first gap is the end.
func probeIDs(ctx context.Context, exists func(context.Context, int) error) ([]int, error) {
	ids := make([]int, 0)
	for id := domain.MinID; ; id++ {
		if err := exists(ctx, id); err != nil {
			if errors.Is(err, domain.ErrRecordNotFound) {
				return ids, nil
			}
			return nil, err
		}
		ids = append(ids, id)
	}
}

func (b *Bank) AllUserIDs(ctx context.Context) ([]int, error) {
	return probeIDs(ctx, func(ctx context.Context, id int) error {
		_, err := b.store.GetUser(ctx, id)
		return err
	})
}

func (b *Bank) AllAccountIDs(ctx context.Context) ([]int, error) {
	return probeIDs(ctx, func(ctx context.Context, id int) error {
		_, err := b.store.GetAccount(ctx, id)
		return err
	})
}

func (b *Bank) viewMessage(ctx context.Context, user *domain.User, messageID int) (string, error) {
	if err := b.refreshMessageIDs(ctx, user); err != nil {
		return "", err
	}
	if !user.HasMessage(messageID) {
		return "", domain.NewTransactionError(domain.KindDoesNotOwn, doesNotOwnMessageMessage, nil)
	}

	message, err := b.store.GetMessage(ctx, messageID)
	if err != nil {
		return "", fmt.Errorf("view message: %w", err)
	}

	if err := b.store.MarkMessageViewed(ctx, messageID); err != nil {
		logger.Error("mark message viewed failed", err, logger.Fields{
			"messageId": messageID,
		})
	}

	return message.Text, nil
}

func (b *Bank) deposit(ctx context.Context, customerID int, accountID int, amount decimal.Decimal) error {
	if !b.guard.OwnsAccount(ctx, customerID, accountID) {
		return domain.NewTransactionError(domain.KindDoesNotOwn, doesNotOwnAccountMessage, nil)
	}

	amount = domain.Ceil2(amount)
	if !amount.IsPositive() {
		return domain.NewTransactionError(domain.KindIllegalAmount, illegalAmountMessage, nil)
	}

	release, err := b.locks.acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer release()

	account, err := b.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	newBalance := domain.Ceil2(account.Balance.Add(amount))
	if err := b.store.UpdateAccountBalance(ctx, accountID, newBalance); err != nil {
		return domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	return nil
}

// withdraw refuses balance owing accounts on every channel; loans go through
// addLoans.
func (b *Bank) withdraw(ctx context.Context, customerID int, accountID int, amount decimal.Decimal) error {
	if !b.guard.OwnsAccount(ctx, customerID, accountID) {
		return domain.NewTransactionError(domain.KindDoesNotOwn, doesNotOwnAccountMessage, nil)
	}
	if b.guard.IsAccountKind(ctx, accountID, domain.AccountKindBalanceOwing) {
		return domain.NewTransactionError(domain.KindInsufficientFunds, owingWithdrawalMessage, nil)
	}

	amount = domain.Ceil2(amount)
	if !amount.IsPositive() {
		return domain.NewTransactionError(domain.KindIllegalAmount, illegalAmountMessage, nil)
	}

	release, err := b.locks.acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer release()

	account, err := b.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	if account.Balance.LessThan(amount) {
		return domain.NewTransactionError(domain.KindInsufficientFunds, insufficientFundsMessage, nil)
	}

	newBalance := account.Balance.Sub(amount)
	if err := b.store.UpdateAccountBalance(ctx, accountID, newBalance); err != nil {
		return domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	b.migrateTaxFreeSaving(ctx, customerID, accountID, newBalance)
	return nil
}

// migrateTaxFreeSaving turns a TFSA whose balance fell under the minimum into
// a savings account and tells the customer. It returns the notification id or
// domain.InvalidID when nothing changed.
func (b *Bank) migrateTaxFreeSaving(ctx context.Context, customerID int, accountID int, balance decimal.Decimal) int {
	if !b.guard.IsAccountKind(ctx, accountID, domain.AccountKindTaxFreeSaving) {
		return domain.InvalidID
	}
	if !balance.LessThan(domain.TFSAMinimumBalance) {
		return domain.InvalidID
	}

	savingTypeID := b.lookup.AccountTypeID(domain.AccountKindSaving)
	if err := b.store.UpdateAccountType(ctx, accountID, savingTypeID); err != nil {
		logger.Error("tfsa migration failed", err, logger.Fields{
			"accountId": accountID,
		})
		return domain.InvalidID
	}

	logger.Info("tfsa migrated to saving", logger.Fields{
		"accountId":  accountID,
		"customerId": customerID,
		"balance":    domain.FormatAmount(balance),
	})
	return b.notifier.NotifySavingsMigration(ctx, customerID, accountID)
}

func (b *Bank) addLoans(ctx context.Context, customerID int, accountID int, amount decimal.Decimal) error {
	if !b.guard.OwnsAccountOfKind(ctx, customerID, accountID, domain.AccountKindBalanceOwing) {
		return domain.NewTransactionError(domain.KindDoesNotOwn, "this is not a balance owing account owned by the user", nil)
	}

	amount = domain.Ceil2(amount)
	if !amount.IsPositive() {
		return domain.NewTransactionError(domain.KindIllegalAmount, illegalAmountMessage, nil)
	}

	release, err := b.locks.acquire(ctx, accountID)
	if err != nil {
		return err
	}
	defer release()

	account, err := b.store.GetAccount(ctx, accountID)
	if err != nil {
		return domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	newBalance := account.Balance.Add(amount.Neg())
	if err := b.store.UpdateAccountBalance(ctx, accountID, newBalance); err != nil {
		return domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	return nil
}

// accrue applies interest to one account under its lock. A failed balance
// write is logged and the computed interest is still returned.
func (b *Bank) accrue(ctx context.Context, accountID int) (decimal.Decimal, error) {
	release, err := b.locks.acquire(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	defer release()

	account, err := b.factory.Load(ctx, accountID)
	if err != nil {
		return decimal.Zero, domain.NewTransactionError(domain.KindConnectionFailed, connectionFailedMessage, err)
	}

	interest, err := account.AccrueInterest(ctx, b.store)
	if err != nil {
		logger.Error("interest balance write failed", err, logger.Fields{
			"accountId": accountID,
			"interest":  domain.FormatAmount(interest),
		})
	}

	return interest, nil
}

// checkAccount migrates a TFSA to savings when the proposed balance is under
// the minimum. It returns the notification id, or domain.InvalidID.
func (b *Bank) checkAccount(ctx context.Context, customerID int, accountID int, balance decimal.Decimal) int {
	if !validation.ValidID(accountID) {
		return domain.InvalidID
	}
	return b.migrateTaxFreeSaving(ctx, customerID, accountID, domain.Ceil2(balance))
}

func newSessionID() string {
	return uuid.NewString()
}
