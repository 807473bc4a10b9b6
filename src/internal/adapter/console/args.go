package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
)

var errUnterminatedQuote = errors.New("unterminated quote")

// splitArgs splits a command line on spaces, keeping double quoted runs
// together.
func splitArgs(line string) ([]string, error) {
	args := make([]string, 0)
	var current strings.Builder
	inQuotes := false
	hasToken := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			hasToken = true
		case (r == ' ' || r == '\t') && !inQuotes:
			if hasToken {
				args = append(args, current.String())
				current.Reset()
				hasToken = false
			}
		default:
			current.WriteRune(r)
			hasToken = true
		}
	}

	if inQuotes {
		return nil, errUnterminatedQuote
	}
	if hasToken {
		args = append(args, current.String())
	}
	return args, nil
}

type argReader struct {
	args []string
	pos  int
	err  error
}

func (a *argReader) next(name string) string {
	if a.err != nil {
		return ""
	}
	if a.pos >= len(a.args) {
		a.err = fmt.Errorf("missing argument %s", name)
		return ""
	}
	value := a.args[a.pos]
	a.pos++
	return value
}

func (a *argReader) has() bool {
	return a.pos < len(a.args)
}

func (a *argReader) number(name string) int {
	raw := a.next(name)
	if a.err != nil {
		return domain.InvalidID
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		a.err = fmt.Errorf("%s must be a whole number", name)
		return domain.InvalidID
	}
	return value
}

func (a *argReader) amount(name string) decimal.Decimal {
	raw := a.next(name)
	if a.err != nil {
		return decimal.Zero
	}
	value, ok := domain.ParseAmount(raw)
	if !ok {
		a.err = fmt.Errorf("%s must be a decimal amount", name)
		return decimal.Zero
	}
	return value
}

func (a *argReader) rate(name string) decimal.Decimal {
	raw := a.next(name)
	if a.err != nil {
		return decimal.Zero
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		a.err = fmt.Errorf("%s must be a decimal fraction", name)
		return decimal.Zero
	}
	return value
}

func (a *argReader) role(name string) domain.Role {
	raw := a.next(name)
	if a.err != nil {
		return ""
	}
	role, ok := domain.ParseRole(raw)
	if !ok {
		a.err = fmt.Errorf("%s must be one of ADMIN, TELLER, CUSTOMER", name)
	}
	return role
}

func (a *argReader) accountKind(name string) domain.AccountKind {
	raw := a.next(name)
	if a.err != nil {
		return ""
	}
	kind, ok := domain.ParseAccountKind(raw)
	if !ok {
		a.err = fmt.Errorf("%s must be one of CHEQUING, SAVING, TFSA, RESTRICTED, OWING", name)
	}
	return kind
}

// done reports the first parse error, or an error for leftover arguments.
func (a *argReader) done() error {
	if a.err != nil {
		return a.err
	}
	if a.pos < len(a.args) {
		return fmt.Errorf("unexpected argument %q", a.args[a.pos])
	}
	return nil
}
