// Package console drives the session engine from a line oriented operator
// terminal. Every command answers with one JSON response envelope.
package console

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/commons"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/usecase/services"
	"github.com/shopspring/decimal"
)

type customerChannel interface {
	CheckBalance(ctx context.Context, accountID int) (decimal.Decimal, error)
	MakeDeposit(ctx context.Context, accountID int, amount decimal.Decimal) error
	MakeWithdrawal(ctx context.Context, accountID int, amount decimal.Decimal) error
	ListAccounts(ctx context.Context) ([]*domain.Account, error)
	CheckAccount(ctx context.Context, accountID int, balance decimal.Decimal) int
}

type messageChannel interface {
	ListMessages(ctx context.Context) ([]domain.Message, error)
	ListMessageIDs(ctx context.Context) ([]int, error)
	ViewMessage(ctx context.Context, messageID int) (string, error)
}

type handler func(ctx context.Context, args *argReader) commons.Response[any]

type Console struct {
	bank  *services.Bank
	store repo_interfaces.Store
	out   *json.Encoder

	atm    *services.AtmSession
	teller *services.TellerSession
	admin  *services.AdminSession

	handlers map[string]handler
}

func New(bank *services.Bank, store repo_interfaces.Store, out io.Writer) *Console {
	c := &Console{
		bank:  bank,
		store: store,
		out:   json.NewEncoder(out),
	}
	c.handlers = c.routes()
	return c
}

// Run reads commands from in until EOF, "quit" or ctx is cancelled.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		if err := c.out.Encode(c.Execute(ctx, line)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}

	c.logout()
	return scanner.Err()
}

// Execute runs a single command line.
func (c *Console) Execute(ctx context.Context, line string) commons.Response[any] {
	start := time.Now()

	args, err := splitArgs(line)
	if err != nil {
		return commons.ErrorResponse[any]("invalid command", err.Error())
	}
	if len(args) == 0 {
		return commons.ErrorResponse[any]("invalid command", "empty command")
	}

	name := strings.ToLower(args[0])
	h, ok := c.handlers[name]
	if !ok {
		return commons.ErrorResponse[any]("unknown command", fmt.Sprintf("%q is not a command, try help", name))
	}

	response := h(ctx, &argReader{args: args[1:]})
	logger.Info("console command", logger.Fields{
		"command":    name,
		"success":    response.Success,
		"durationMs": time.Since(start).Milliseconds(),
	})
	return response
}

func (c *Console) routes() map[string]handler {
	return map[string]handler{
		"help":   c.help,
		"login":  c.login,
		"logout": c.logoutCommand,

		"set-customer":      c.setCustomer,
		"auth-customer":     c.authCustomer,
		"deauth-customer":   c.deauthCustomer,
		"new-user":          c.newUser,
		"new-account":       c.newAccount,
		"joint":             c.joint,
		"loan":              c.loan,
		"interest":          c.interest,
		"depositable":       c.depositable,
		"withdrawable":      c.withdrawable,
		"message":           c.leaveMessage,
		"message-customer":  c.leaveCustomerMessage,
		"customer-messages": c.customerMessageIDs,
		"update-name":       c.updateName,
		"update-age":        c.updateAge,
		"update-address":    c.updateAddress,
		"update-password":   c.updatePassword,

		"balance":       c.balance,
		"deposit":       c.deposit,
		"withdraw":      c.withdraw,
		"accounts":      c.accounts,
		"check-account": c.checkAccount,
		"messages":      c.messages,
		"message-ids":   c.messageIDs,
		"view":          c.view,

		"users":       c.users,
		"create-user": c.createUser,
		"promote":     c.promote,
		"rate":        c.rate,
		"total":       c.total,
		"peek":        c.peek,

		"export": c.export,
		"import": c.importSnapshot,
	}
}

func (c *Console) help(_ context.Context, args *argReader) commons.Response[any] {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return commons.SuccessResponse[any]("available commands", names)
}

func (c *Console) customer() (customerChannel, bool) {
	switch {
	case c.atm != nil:
		return c.atm, true
	case c.teller != nil:
		return c.teller, true
	default:
		return nil, false
	}
}

func (c *Console) inbox() (messageChannel, bool) {
	switch {
	case c.atm != nil:
		return c.atm, true
	case c.admin != nil:
		return c.admin, true
	case c.teller != nil:
		return c.teller, true
	default:
		return nil, false
	}
}

func (c *Console) logout() {
	if c.atm != nil {
		c.atm.DeAuthenticate()
	}
	if c.teller != nil {
		c.teller.Logout()
	}
	c.atm, c.teller, c.admin = nil, nil, nil
}

var noSession = commons.ErrorResponse[any]("not logged in", "log in first with: login atm|teller|admin <id> <password>")
var needTeller = commons.ErrorResponse[any]("not allowed", "this command needs a teller or admin session")
var needAdmin = commons.ErrorResponse[any]("not allowed", "this command needs an admin session")

func invalidArgs(err error) commons.Response[any] {
	return commons.ErrorResponse[any]("validation failed", err.Error())
}

func failed(message string, err error) commons.Response[any] {
	return commons.FailureResponse[any](message, err)
}

func rejected(message string) commons.Response[any] {
	return commons.ErrorResponse[any](message, "the request was rejected")
}

type accountView struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Balance      string `json:"balance"`
	InterestRate string `json:"interestRate,omitempty"`
}

func accountViews(accounts []*domain.Account) []accountView {
	views := make([]accountView, 0, len(accounts))
	for _, account := range accounts {
		view := accountView{
			ID:      account.ID,
			Name:    account.Name,
			Kind:    string(account.Kind),
			Balance: domain.FormatAmount(account.Balance),
		}
		if account.InterestRate != nil {
			view.InterestRate = account.InterestRate.String()
		}
		views = append(views, view)
	}
	return views
}

type userView struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Address  string `json:"address"`
	Role     string `json:"role"`
	Accounts []int  `json:"accounts,omitempty"`
}

type messageView struct {
	ID     int    `json:"id"`
	Text   string `json:"text"`
	Viewed bool   `json:"viewed"`
}

func messageViews(messages []domain.Message) []messageView {
	views := make([]messageView, 0, len(messages))
	for _, message := range messages {
		views = append(views, messageView{ID: message.ID, Text: message.Text, Viewed: message.Viewed})
	}
	return views
}

type idView struct {
	ID int `json:"id"`
}

type amountView struct {
	Amount string `json:"amount"`
}
