package services

import (
	"context"
	"strings"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
	"github.com/shopspring/decimal"
)

// TellerSession is a teller's terminal. Customer-scoped operations run
// through an ATM sub-session that exists between AuthenticateCustomer and
// DeAuthenticateCustomer.
type TellerSession struct {
	id         string
	bank       *Bank
	teller     *domain.User
	customerID int
	atm        *AtmSession
}

func newTellerSession(bank *Bank, teller *domain.User) *TellerSession {
	return &TellerSession{
		id:         newSessionID(),
		bank:       bank,
		teller:     teller,
		customerID: domain.InvalidID,
	}
}

func (t *TellerSession) ID() string {
	return t.id
}

// User returns the logged in teller (or admin), or nil after Logout.
func (t *TellerSession) User() *domain.User {
	return t.teller
}

func (t *TellerSession) CustomerID() int {
	return t.customerID
}

func (t *TellerSession) open() bool {
	return t.teller != nil && t.teller.Authenticated
}

func (t *TellerSession) boundAtm() (*AtmSession, error) {
	if !t.open() {
		return nil, domain.ErrSessionClosed
	}
	if t.atm == nil || !t.atm.Authenticated() {
		return nil, domain.ErrCustomerNotBound
	}
	return t.atm, nil
}

// SetCustomer selects the customer the next AuthenticateCustomer binds. It
// fails for non-customers and while another customer is still bound.
func (t *TellerSession) SetCustomer(ctx context.Context, customerID int) bool {
	if !t.open() || t.atm != nil {
		return false
	}
	if !t.bank.guard.HasRole(ctx, customerID, domain.RoleCustomer) {
		return false
	}

	t.customerID = customerID
	return true
}

func (t *TellerSession) AuthenticateCustomer(ctx context.Context, password string) bool {
	if !t.open() || t.atm != nil || t.customerID == domain.InvalidID {
		return false
	}

	customer, err := t.bank.authenticate(ctx, t.customerID, password, domain.RoleCustomer)
	if err != nil {
		logger.Warn("teller customer authentication failed", logger.Fields{
			"sessionId":  t.id,
			"customerId": t.customerID,
		})
		return false
	}

	t.atm = newAtmSession(t.bank, customer)
	logger.Info("teller customer bound", logger.Fields{
		"sessionId":  t.id,
		"customerId": t.customerID,
	})
	return true
}

// DeAuthenticateCustomer unbinds the customer. It returns false when no
// customer was bound.
func (t *TellerSession) DeAuthenticateCustomer() bool {
	if t.atm == nil {
		return false
	}

	t.atm.DeAuthenticate()
	t.atm = nil
	t.customerID = domain.InvalidID
	return true
}

func (t *TellerSession) CheckBalance(ctx context.Context, accountID int) (decimal.Decimal, error) {
	atm, err := t.boundAtm()
	if err != nil {
		return decimal.Zero, err
	}
	return atm.CheckBalance(ctx, accountID)
}

// CheckBalanceTotal sums the balances of every account the customer owns.
func (t *TellerSession) CheckBalanceTotal(ctx context.Context) (decimal.Decimal, error) {
	accounts, err := t.ListAccounts(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}
	return total, nil
}

func (t *TellerSession) MakeDeposit(ctx context.Context, accountID int, amount decimal.Decimal) error {
	atm, err := t.boundAtm()
	if err != nil {
		return err
	}
	return atm.MakeDeposit(ctx, accountID, amount)
}

func (t *TellerSession) MakeWithdrawal(ctx context.Context, accountID int, amount decimal.Decimal) error {
	atm, err := t.boundAtm()
	if err != nil {
		return err
	}
	return atm.MakeWithdrawal(ctx, accountID, amount)
}

func (t *TellerSession) ListAccounts(ctx context.Context) ([]*domain.Account, error) {
	atm, err := t.boundAtm()
	if err != nil {
		return nil, err
	}
	return atm.ListAccounts(ctx)
}

// DepositableAccounts lists the customer's accounts a teller may deposit into.
func (t *TellerSession) DepositableAccounts(ctx context.Context) ([]*domain.Account, error) {
	return t.filterAccounts(ctx, domain.AccountKindRestrictedSaving)
}

// WithdrawableAccounts lists the customer's accounts a teller may withdraw from.
func (t *TellerSession) WithdrawableAccounts(ctx context.Context) ([]*domain.Account, error) {
	return t.filterAccounts(ctx, domain.AccountKindRestrictedSaving, domain.AccountKindBalanceOwing)
}

func (t *TellerSession) filterAccounts(ctx context.Context, excluded ...domain.AccountKind) ([]*domain.Account, error) {
	accounts, err := t.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*domain.Account, 0, len(accounts))
	for _, account := range accounts {
		skip := false
		for _, kind := range excluded {
			if account.Kind == kind {
				skip = true
				break
			}
		}
		if !skip {
			filtered = append(filtered, account)
		}
	}
	return filtered, nil
}

func (t *TellerSession) AddLoans(ctx context.Context, accountID int, amount decimal.Decimal) error {
	if _, err := t.boundAtm(); err != nil {
		return err
	}

	logger.Info("teller add loans request", logger.Fields{
		"sessionId": t.id,
		"accountId": accountID,
		"amount":    amount.String(),
	})

	if err := t.bank.addLoans(ctx, t.customerID, accountID, amount); err != nil {
		logger.Error("teller add loans failed", err, logger.Fields{
			"sessionId": t.id,
			"accountId": accountID,
		})
		return err
	}

	t.atm.refresh(ctx)
	return nil
}

// GiveInterest accrues interest on one of the customer's accounts and tells
// the customer how much was added.
func (t *TellerSession) GiveInterest(ctx context.Context, accountID int) (decimal.Decimal, error) {
	if _, err := t.boundAtm(); err != nil {
		return decimal.Zero, err
	}

	if !t.bank.guard.OwnsAccount(ctx, t.customerID, accountID) {
		return decimal.Zero, domain.NewTransactionError(domain.KindDoesNotOwn, doesNotOwnAccountMessage, nil)
	}

	interest, err := t.bank.accrue(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}

	t.bank.notifier.NotifyInterest(ctx, t.customerID, accountID, interest)
	logger.Info("teller give interest success", logger.Fields{
		"sessionId": t.id,
		"accountId": accountID,
		"interest":  domain.FormatAmount(interest),
	})
	return interest, nil
}

// GiveInterestAll accrues interest on every account the customer owns and
// sends one notification with the total. Accounts already updated stay
// updated when a later one fails.
func (t *TellerSession) GiveInterestAll(ctx context.Context) (decimal.Decimal, error) {
	if _, err := t.boundAtm(); err != nil {
		return decimal.Zero, err
	}

	accountIDs, err := t.bank.store.GetOwnedAccountIDs(ctx, t.customerID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(accountIDs) == 0 {
		return decimal.Zero, nil
	}

	total := decimal.Zero
	for _, accountID := range accountIDs {
		interest, err := t.bank.accrue(ctx, accountID)
		if err != nil {
			logger.Error("teller give interest skipped account", err, logger.Fields{
				"sessionId": t.id,
				"accountId": accountID,
			})
			continue
		}
		total = total.Add(interest)
	}

	t.bank.notifier.NotifyTotalInterest(ctx, t.customerID, total)
	logger.Info("teller give interest all success", logger.Fields{
		"sessionId": t.id,
		"accounts":  len(accountIDs),
		"interest":  domain.FormatAmount(total),
	})
	return total, nil
}

// MakeNewUser creates a customer and binds the terminal to them.
func (t *TellerSession) MakeNewUser(ctx context.Context, name string, age int, address string, password string) int {
	if !t.open() {
		return domain.InvalidID
	}

	userID := t.bank.insertUser(ctx, name, age, address, password, domain.RoleCustomer)
	if userID == domain.InvalidID {
		return domain.InvalidID
	}

	t.DeAuthenticateCustomer()
	t.SetCustomer(ctx, userID)
	t.AuthenticateCustomer(ctx, password)

	logger.Info("teller new customer created", logger.Fields{
		"sessionId":  t.id,
		"customerId": userID,
	})
	return userID
}

// MakeNewAccount opens an account for the bound customer. Balance owing
// accounts take the opening balance as a debt.
func (t *TellerSession) MakeNewAccount(ctx context.Context, name string, balance decimal.Decimal, typeID int) int {
	if _, err := t.boundAtm(); err != nil {
		return domain.InvalidID
	}

	kind, ok := t.bank.lookup.AccountKind(typeID)
	name = strings.TrimSpace(name)
	balance = domain.Ceil2(balance)
	if !ok || !validation.ValidName(name) || !validation.ValidOpeningBalance(balance, kind) {
		logger.Warn("teller new account rejected", logger.Fields{
			"sessionId": t.id,
			"typeId":    typeID,
			"balance":   balance.String(),
		})
		return domain.InvalidID
	}

	if kind == domain.AccountKindBalanceOwing {
		balance = balance.Neg()
	}

	accountID, err := t.bank.store.InsertAccount(ctx, name, balance, typeID)
	if err != nil {
		logger.Error("teller new account insert failed", err, logger.Fields{
			"sessionId": t.id,
		})
		return domain.InvalidID
	}

	if _, err := t.bank.store.InsertOwnership(ctx, t.customerID, accountID); err != nil {
		logger.Error("teller new account ownership failed", err, logger.Fields{
			"sessionId": t.id,
			"accountId": accountID,
		})
		return domain.InvalidID
	}

	t.atm.refresh(ctx)
	logger.Info("teller new account created", logger.Fields{
		"sessionId":  t.id,
		"accountId":  accountID,
		"customerId": t.customerID,
		"kind":       string(kind),
	})
	return accountID
}

// CreateJointAccount adds userID as another owner of accountID.
func (t *TellerSession) CreateJointAccount(ctx context.Context, accountID int, userID int) bool {
	if !t.open() || !validation.ValidID(accountID) {
		return false
	}
	if !t.bank.guard.HasRole(ctx, userID, domain.RoleCustomer) {
		return false
	}

	if _, err := t.bank.store.InsertOwnership(ctx, userID, accountID); err != nil {
		logger.Error("teller joint account failed", err, logger.Fields{
			"sessionId": t.id,
			"accountId": accountID,
			"userId":    userID,
		})
		return false
	}

	t.bank.notifier.NotifyJointAccount(ctx, userID, accountID)
	return true
}

// LeaveMessage writes to a customer's inbox.
func (t *TellerSession) LeaveMessage(ctx context.Context, userID int, text string) int {
	if !t.open() || !t.bank.guard.HasRole(ctx, userID, domain.RoleCustomer) {
		return domain.InvalidID
	}
	return t.bank.notifier.Notify(ctx, userID, text)
}

// LeaveCustomerMessage writes to the inbox of the selected customer.
func (t *TellerSession) LeaveCustomerMessage(ctx context.Context, text string) int {
	if !t.open() || t.customerID == domain.InvalidID {
		return domain.InvalidID
	}
	return t.bank.notifier.Notify(ctx, t.customerID, text)
}

// ViewMessage reads one of the teller's own messages, falling back to the
// bound customer's inbox.
func (t *TellerSession) ViewMessage(ctx context.Context, messageID int) (string, error) {
	if !t.open() {
		return "", domain.ErrSessionClosed
	}

	if err := t.bank.refreshMessageIDs(ctx, t.teller); err != nil {
		return "", err
	}
	if t.teller.HasMessage(messageID) {
		return t.bank.viewMessage(ctx, t.teller, messageID)
	}

	if t.atm != nil {
		return t.atm.ViewMessage(ctx, messageID)
	}
	return "", domain.NewTransactionError(domain.KindDoesNotOwn, doesNotOwnMessageMessage, nil)
}

func (t *TellerSession) ListMessages(ctx context.Context) ([]domain.Message, error) {
	if !t.open() {
		return nil, domain.ErrSessionClosed
	}
	return t.bank.store.GetMessages(ctx, t.teller.ID)
}

func (t *TellerSession) ListMessageIDs(ctx context.Context) ([]int, error) {
	if !t.open() {
		return nil, domain.ErrSessionClosed
	}

	if err := t.bank.refreshMessageIDs(ctx, t.teller); err != nil {
		return nil, err
	}

	ids := make([]int, len(t.teller.MessageIDs))
	copy(ids, t.teller.MessageIDs)
	return ids, nil
}

// ListCustomerMessageIDs is empty when no customer is bound.
func (t *TellerSession) ListCustomerMessageIDs(ctx context.Context) ([]int, error) {
	atm, err := t.boundAtm()
	if err != nil {
		return []int{}, nil
	}
	return atm.ListMessageIDs(ctx)
}

func (t *TellerSession) CheckAccount(ctx context.Context, accountID int, balance decimal.Decimal) int {
	atm, err := t.boundAtm()
	if err != nil {
		return domain.InvalidID
	}
	return atm.CheckAccount(ctx, accountID, balance)
}

func (t *TellerSession) UpdateUserName(ctx context.Context, name string, userID int, userPassword string) bool {
	name = strings.TrimSpace(name)
	if !validation.ValidName(name) {
		return false
	}
	return t.updateCustomer(ctx, userID, userPassword, func(record *domain.UserRecord) {
		record.Name = name
	})
}

func (t *TellerSession) UpdateUserAge(ctx context.Context, age int, userID int, userPassword string) bool {
	if !validation.ValidAge(age) {
		return false
	}
	return t.updateCustomer(ctx, userID, userPassword, func(record *domain.UserRecord) {
		record.Age = age
	})
}

func (t *TellerSession) UpdateUserAddress(ctx context.Context, address string, userID int, userPassword string) bool {
	if !validation.ValidAddress(address) {
		return false
	}
	return t.updateCustomer(ctx, userID, userPassword, func(record *domain.UserRecord) {
		record.Address = address
	})
}

func (t *TellerSession) UpdateUserPassword(ctx context.Context, password string, userID int, userPassword string) bool {
	if !validation.ValidPassword(password) || !t.customerCredentials(ctx, userID, userPassword) {
		return false
	}

	digest, err := t.bank.verifier.Hash(password)
	if err != nil {
		logger.Error("teller update password hash failed", err, logger.Fields{
			"sessionId": t.id,
			"userId":    userID,
		})
		return false
	}

	if err := t.bank.store.UpdateUserPassword(ctx, userID, digest); err != nil {
		logger.Error("teller update password failed", err, logger.Fields{
			"sessionId": t.id,
			"userId":    userID,
		})
		return false
	}
	return true
}

func (t *TellerSession) customerCredentials(ctx context.Context, userID int, password string) bool {
	if !t.open() || !t.bank.guard.HasRole(ctx, userID, domain.RoleCustomer) {
		return false
	}
	return t.bank.verifyPassword(ctx, userID, password)
}

func (t *TellerSession) updateCustomer(ctx context.Context, userID int, password string, apply func(*domain.UserRecord)) bool {
	if !t.customerCredentials(ctx, userID, password) {
		return false
	}

	record, err := t.bank.store.GetUser(ctx, userID)
	if err != nil {
		return false
	}
	apply(&record)

	if err := t.bank.store.UpdateUserDetails(ctx, record); err != nil {
		logger.Error("teller update customer failed", err, logger.Fields{
			"sessionId": t.id,
			"userId":    userID,
		})
		return false
	}

	logger.Info("teller update customer success", logger.Fields{
		"sessionId": t.id,
		"userId":    userID,
	})
	return true
}

// Logout unbinds any customer and closes the terminal.
func (t *TellerSession) Logout() {
	if t.teller == nil {
		return
	}

	t.DeAuthenticateCustomer()
	logger.Info("teller session closed", logger.Fields{
		"sessionId": t.id,
		"userId":    t.teller.ID,
	})
	t.teller.Authenticated = false
	t.teller = nil
}
