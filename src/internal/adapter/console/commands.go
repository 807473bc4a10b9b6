package console

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/adapter/snapshot"
	"github.com/api-sage/branch-teller-core/src/internal/commons"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
)

func (c *Console) login(ctx context.Context, args *argReader) commons.Response[any] {
	kind := strings.ToLower(args.next("kind"))
	userID := args.number("id")
	password := args.next("password")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}

	c.logout()

	var sessionID string
	switch kind {
	case "atm":
		atm, err := c.bank.LoginAtm(ctx, userID, password)
		if err != nil {
			return failed("login failed", err)
		}
		c.atm = atm
		sessionID = atm.ID()
	case "teller":
		teller, err := c.bank.LoginTeller(ctx, userID, password)
		if err != nil {
			return failed("login failed", err)
		}
		c.teller = teller
		sessionID = teller.ID()
	case "admin":
		admin, err := c.bank.LoginAdmin(ctx, userID, password)
		if err != nil {
			return failed("login failed", err)
		}
		c.admin = admin
		c.teller = admin.TellerSession
		sessionID = admin.ID()
	default:
		return invalidArgs(fmt.Errorf("kind must be atm, teller or admin"))
	}

	return commons.SuccessResponse[any]("logged in", map[string]any{
		"sessionId": sessionID,
		"kind":      kind,
		"userId":    userID,
	})
}

func (c *Console) logoutCommand(_ context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.atm == nil && c.teller == nil {
		return noSession
	}
	c.logout()
	return commons.SuccessResponse[any]("logged out", nil)
}

func (c *Console) setCustomer(ctx context.Context, args *argReader) commons.Response[any] {
	customerID := args.number("customerId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	if !c.teller.SetCustomer(ctx, customerID) {
		return rejected("customer not set")
	}
	return commons.SuccessResponse[any]("customer set", idView{ID: customerID})
}

func (c *Console) authCustomer(ctx context.Context, args *argReader) commons.Response[any] {
	password := args.next("password")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	if !c.teller.AuthenticateCustomer(ctx, password) {
		return rejected("customer not authenticated")
	}
	return commons.SuccessResponse[any]("customer authenticated", idView{ID: c.teller.CustomerID()})
}

func (c *Console) deauthCustomer(_ context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	if !c.teller.DeAuthenticateCustomer() {
		return rejected("no customer was bound")
	}
	return commons.SuccessResponse[any]("customer released", nil)
}

func (c *Console) newUser(ctx context.Context, args *argReader) commons.Response[any] {
	name := args.next("name")
	age := args.number("age")
	address := args.next("address")
	password := args.next("password")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}

	userID := c.teller.MakeNewUser(ctx, name, age, address, password)
	if userID == domain.InvalidID {
		return rejected("customer not created")
	}
	return commons.SuccessResponse[any]("customer created", idView{ID: userID})
}

func (c *Console) newAccount(ctx context.Context, args *argReader) commons.Response[any] {
	name := args.next("name")
	balance := args.amount("balance")
	kind := args.accountKind("type")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}

	accountID := c.teller.MakeNewAccount(ctx, name, balance, c.bank.Lookup().AccountTypeID(kind))
	if accountID == domain.InvalidID {
		return rejected("account not created")
	}
	return commons.SuccessResponse[any]("account created", idView{ID: accountID})
}

func (c *Console) joint(ctx context.Context, args *argReader) commons.Response[any] {
	accountID := args.number("accountId")
	userID := args.number("userId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	if !c.teller.CreateJointAccount(ctx, accountID, userID) {
		return rejected("joint account not created")
	}
	return commons.SuccessResponse[any]("joint account created", idView{ID: accountID})
}

func (c *Console) loan(ctx context.Context, args *argReader) commons.Response[any] {
	accountID := args.number("accountId")
	amount := args.amount("amount")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	if err := c.teller.AddLoans(ctx, accountID, amount); err != nil {
		return failed("loan failed", err)
	}
	return commons.SuccessResponse[any]("loan added", amountView{Amount: domain.FormatAmount(amount)})
}

func (c *Console) interest(ctx context.Context, args *argReader) commons.Response[any] {
	if c.teller == nil {
		return needTeller
	}

	if !args.has() {
		total, err := c.teller.GiveInterestAll(ctx)
		if err != nil {
			return failed("interest failed", err)
		}
		return commons.SuccessResponse[any]("interest added to all accounts", amountView{Amount: domain.FormatAmount(total)})
	}

	accountID := args.number("accountId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	interest, err := c.teller.GiveInterest(ctx, accountID)
	if err != nil {
		return failed("interest failed", err)
	}
	return commons.SuccessResponse[any]("interest added", amountView{Amount: domain.FormatAmount(interest)})
}

func (c *Console) depositable(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	accounts, err := c.teller.DepositableAccounts(ctx)
	if err != nil {
		return failed("list failed", err)
	}
	return commons.SuccessResponse[any]("depositable accounts", accountViews(accounts))
}

func (c *Console) withdrawable(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	accounts, err := c.teller.WithdrawableAccounts(ctx)
	if err != nil {
		return failed("list failed", err)
	}
	return commons.SuccessResponse[any]("withdrawable accounts", accountViews(accounts))
}

func (c *Console) leaveMessage(ctx context.Context, args *argReader) commons.Response[any] {
	userID := args.number("userId")
	text := args.next("text")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}

	var messageID int
	switch {
	case c.admin != nil:
		messageID = c.admin.LeaveMessage(ctx, userID, text)
	case c.teller != nil:
		messageID = c.teller.LeaveMessage(ctx, userID, text)
	default:
		return needTeller
	}

	if messageID == domain.InvalidID {
		return rejected("message not sent")
	}
	return commons.SuccessResponse[any]("message sent", idView{ID: messageID})
}

func (c *Console) leaveCustomerMessage(ctx context.Context, args *argReader) commons.Response[any] {
	text := args.next("text")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}

	messageID := c.teller.LeaveCustomerMessage(ctx, text)
	if messageID == domain.InvalidID {
		return rejected("message not sent")
	}
	return commons.SuccessResponse[any]("message sent", idView{ID: messageID})
}

func (c *Console) customerMessageIDs(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	ids, err := c.teller.ListCustomerMessageIDs(ctx)
	if err != nil {
		return failed("list failed", err)
	}
	return commons.SuccessResponse[any]("customer message ids", ids)
}

func (c *Console) updateName(ctx context.Context, args *argReader) commons.Response[any] {
	userID, password := args.number("userId"), args.next("customerPassword")
	value := args.next("name")
	return c.updateCustomer(args, func() bool {
		return c.teller.UpdateUserName(ctx, value, userID, password)
	})
}

func (c *Console) updateAge(ctx context.Context, args *argReader) commons.Response[any] {
	userID, password := args.number("userId"), args.next("customerPassword")
	value := args.number("age")
	return c.updateCustomer(args, func() bool {
		return c.teller.UpdateUserAge(ctx, value, userID, password)
	})
}

func (c *Console) updateAddress(ctx context.Context, args *argReader) commons.Response[any] {
	userID, password := args.number("userId"), args.next("customerPassword")
	value := args.next("address")
	return c.updateCustomer(args, func() bool {
		return c.teller.UpdateUserAddress(ctx, value, userID, password)
	})
}

func (c *Console) updatePassword(ctx context.Context, args *argReader) commons.Response[any] {
	userID, password := args.number("userId"), args.next("customerPassword")
	value := args.next("newPassword")
	return c.updateCustomer(args, func() bool {
		return c.teller.UpdateUserPassword(ctx, value, userID, password)
	})
}

func (c *Console) updateCustomer(args *argReader, apply func() bool) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.teller == nil {
		return needTeller
	}
	if !apply() {
		return rejected("customer not updated")
	}
	return commons.SuccessResponse[any]("customer updated", nil)
}

func (c *Console) balance(ctx context.Context, args *argReader) commons.Response[any] {
	channel, ok := c.customer()
	if !ok {
		return noSession
	}

	if !args.has() {
		if c.teller == nil {
			return needTeller
		}
		total, err := c.teller.CheckBalanceTotal(ctx)
		if err != nil {
			return failed("balance failed", err)
		}
		return commons.SuccessResponse[any]("total balance", amountView{Amount: domain.FormatAmount(total)})
	}

	accountID := args.number("accountId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	balance, err := channel.CheckBalance(ctx, accountID)
	if err != nil {
		return failed("balance failed", err)
	}
	return commons.SuccessResponse[any]("balance", amountView{Amount: domain.FormatAmount(balance)})
}

func (c *Console) deposit(ctx context.Context, args *argReader) commons.Response[any] {
	accountID := args.number("accountId")
	amount := args.amount("amount")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	channel, ok := c.customer()
	if !ok {
		return noSession
	}
	if err := channel.MakeDeposit(ctx, accountID, amount); err != nil {
		return failed("deposit failed", err)
	}
	return commons.SuccessResponse[any]("deposit complete", amountView{Amount: domain.FormatAmount(amount)})
}

func (c *Console) withdraw(ctx context.Context, args *argReader) commons.Response[any] {
	accountID := args.number("accountId")
	amount := args.amount("amount")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	channel, ok := c.customer()
	if !ok {
		return noSession
	}
	if err := channel.MakeWithdrawal(ctx, accountID, amount); err != nil {
		return failed("withdrawal failed", err)
	}
	return commons.SuccessResponse[any]("withdrawal complete", amountView{Amount: domain.FormatAmount(amount)})
}

func (c *Console) accounts(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	channel, ok := c.customer()
	if !ok {
		return noSession
	}
	accounts, err := channel.ListAccounts(ctx)
	if err != nil {
		return failed("list failed", err)
	}
	return commons.SuccessResponse[any]("accounts", accountViews(accounts))
}

func (c *Console) checkAccount(ctx context.Context, args *argReader) commons.Response[any] {
	accountID := args.number("accountId")
	balance := args.amount("balance")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	channel, ok := c.customer()
	if !ok {
		return noSession
	}

	messageID := channel.CheckAccount(ctx, accountID, balance)
	if messageID == domain.InvalidID {
		return commons.SuccessResponse[any]("account unchanged", nil)
	}
	return commons.SuccessResponse[any]("account migrated to savings", idView{ID: messageID})
}

func (c *Console) messages(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	inbox, ok := c.inbox()
	if !ok {
		return noSession
	}
	messages, err := inbox.ListMessages(ctx)
	if err != nil {
		return failed("list failed", err)
	}
	return commons.SuccessResponse[any]("messages", messageViews(messages))
}

func (c *Console) messageIDs(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	inbox, ok := c.inbox()
	if !ok {
		return noSession
	}
	ids, err := inbox.ListMessageIDs(ctx)
	if err != nil {
		return failed("list failed", err)
	}
	return commons.SuccessResponse[any]("message ids", ids)
}

func (c *Console) view(ctx context.Context, args *argReader) commons.Response[any] {
	messageID := args.number("messageId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	inbox, ok := c.inbox()
	if !ok {
		return noSession
	}
	text, err := inbox.ViewMessage(ctx, messageID)
	if err != nil {
		return failed("view failed", err)
	}
	return commons.SuccessResponse[any]("message", messageView{ID: messageID, Text: text, Viewed: true})
}

func (c *Console) users(ctx context.Context, args *argReader) commons.Response[any] {
	role := args.role("role")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}

	users, err := c.admin.ListUsers(ctx, role)
	if err != nil {
		return failed("list failed", err)
	}

	views := make([]userView, 0, len(users))
	for _, user := range users {
		view := userView{ID: user.ID, Name: user.Name, Age: user.Age, Address: user.Address, Role: string(user.Role)}
		for _, account := range user.Accounts {
			view.Accounts = append(view.Accounts, account.ID)
		}
		views = append(views, view)
	}
	return commons.SuccessResponse[any]("users", views)
}

func (c *Console) createUser(ctx context.Context, args *argReader) commons.Response[any] {
	role := args.role("role")
	name := args.next("name")
	age := args.number("age")
	address := args.next("address")
	password := args.next("password")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}

	userID := c.admin.CreateNewUser(ctx, name, age, address, password, role)
	if userID == domain.InvalidID {
		return rejected("user not created")
	}
	return commons.SuccessResponse[any]("user created", idView{ID: userID})
}

func (c *Console) promote(ctx context.Context, args *argReader) commons.Response[any] {
	tellerID := args.number("tellerId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}
	if !c.admin.PromoteTeller(ctx, tellerID) {
		return rejected("teller not promoted")
	}
	return commons.SuccessResponse[any]("teller promoted", idView{ID: tellerID})
}

func (c *Console) rate(ctx context.Context, args *argReader) commons.Response[any] {
	kind := args.accountKind("type")
	rate := args.rate("rate")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}
	if !c.admin.UpdateInterestRate(ctx, rate, c.bank.Lookup().AccountTypeID(kind)) {
		return rejected("interest rate not updated")
	}
	return commons.SuccessResponse[any]("interest rate updated", map[string]string{
		"type": string(kind),
		"rate": rate.String(),
	})
}

func (c *Console) total(ctx context.Context, args *argReader) commons.Response[any] {
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}
	total, err := c.admin.GetBankTotal(ctx)
	if err != nil {
		return failed("total failed", err)
	}
	return commons.SuccessResponse[any]("bank total", amountView{Amount: domain.FormatAmount(total)})
}

func (c *Console) peek(ctx context.Context, args *argReader) commons.Response[any] {
	messageID := args.number("messageId")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}
	text, err := c.admin.PeekMessage(ctx, messageID)
	if err != nil {
		return failed("peek failed", err)
	}
	return commons.SuccessResponse[any]("message", messageView{ID: messageID, Text: text})
}

func (c *Console) export(ctx context.Context, args *argReader) commons.Response[any] {
	path := args.next("path")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}
	if c.admin == nil {
		return needAdmin
	}

	summary, err := exportFile(ctx, c.store, path)
	if err != nil {
		return failed("export failed", err)
	}
	return commons.SuccessResponse[any]("store exported", summary)
}

// exportFile writes to a temporary file and renames it over path.
func exportFile(ctx context.Context, store repo_interfaces.Store, path string) (snapshot.Summary, error) {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return snapshot.Summary{}, err
	}

	summary, err := snapshot.Export(ctx, store, file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return snapshot.Summary{}, err
	}

	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return snapshot.Summary{}, fmt.Errorf("replace %s: %w", path, err)
	}
	return summary, nil
}

// importSnapshot only works against an empty store, so it needs no session.
func (c *Console) importSnapshot(ctx context.Context, args *argReader) commons.Response[any] {
	path := args.next("path")
	if err := args.done(); err != nil {
		return invalidArgs(err)
	}

	file, err := os.Open(path)
	if err != nil {
		return failed("import failed", err)
	}
	defer file.Close()

	summary, err := snapshot.Import(ctx, file, c.store)
	if err != nil {
		if errors.Is(err, snapshot.ErrStoreNotEmpty) {
			return failed("import refused", fmt.Errorf("%w: wipe the store and retry", err))
		}
		return failed("import failed", err)
	}
	return commons.SuccessResponse[any]("store imported", summary)
}
