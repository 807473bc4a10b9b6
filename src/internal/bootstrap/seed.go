// Package bootstrap seeds an empty store with the lookup rows and first users
// the engine needs before anyone can log in.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/security"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type AccountTypeSeed struct {
	Name         string `yaml:"name"`
	InterestRate string `yaml:"interestRate"`
}

type UserSeed struct {
	Name     string `yaml:"name"`
	Age      int    `yaml:"age"`
	Address  string `yaml:"address"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

type Seed struct {
	Roles        []string          `yaml:"roles"`
	AccountTypes []AccountTypeSeed `yaml:"accountTypes"`
	Users        []UserSeed        `yaml:"users"`
}

// DefaultSeed mirrors src/config/seed.yaml and is used when no file is given.
func DefaultSeed() Seed {
	return Seed{
		Roles: []string{
			string(domain.RoleAdmin),
			string(domain.RoleTeller),
			string(domain.RoleCustomer),
		},
		AccountTypes: []AccountTypeSeed{
			{Name: string(domain.AccountKindChequing), InterestRate: "0.01"},
			{Name: string(domain.AccountKindSaving), InterestRate: "0.02"},
			{Name: string(domain.AccountKindTaxFreeSaving), InterestRate: "0.03"},
			{Name: string(domain.AccountKindRestrictedSaving), InterestRate: "0.04"},
			{Name: string(domain.AccountKindBalanceOwing), InterestRate: "0.02"},
		},
		Users: []UserSeed{
			{Name: "Branch Admin", Age: 40, Address: "1 Main Street", Role: string(domain.RoleAdmin), Password: "admin-change-me"},
		},
	}
}

func LoadSeed(path string) (Seed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file %q: %w", path, err)
	}

	return ParseSeed(raw)
}

func ParseSeed(raw []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}

	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (s Seed) Validate() error {
	problems := make([]string, 0)

	for _, name := range s.Roles {
		if _, ok := domain.ParseRole(name); !ok {
			problems = append(problems, fmt.Sprintf("unknown role %q", name))
		}
	}

	for _, accountType := range s.AccountTypes {
		if _, ok := domain.ParseAccountKind(accountType.Name); !ok {
			problems = append(problems, fmt.Sprintf("unknown account type %q", accountType.Name))
			continue
		}
		rate, err := decimal.NewFromString(strings.TrimSpace(accountType.InterestRate))
		if err != nil || !validation.ValidInterestRate(rate) {
			problems = append(problems, fmt.Sprintf("account type %s has invalid interest rate %q", accountType.Name, accountType.InterestRate))
		}
	}

	for _, user := range s.Users {
		if _, ok := domain.ParseRole(user.Role); !ok {
			problems = append(problems, fmt.Sprintf("user %q has unknown role %q", user.Name, user.Role))
		}
		if !validation.ValidName(user.Name) || !validation.ValidAge(user.Age) ||
			!validation.ValidAddress(user.Address) || !validation.ValidPassword(user.Password) {
			problems = append(problems, fmt.Sprintf("user %q has invalid details", user.Name))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid seed: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Apply inserts missing roles and account types, and the seed users when the
// store holds no users yet. Running it twice changes nothing.
func Apply(ctx context.Context, store repo_interfaces.Store, hasher security.CredentialVerifier, seed Seed) error {
	if err := seed.Validate(); err != nil {
		return err
	}

	roles, err := store.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	existingRoles := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		existingRoles[strings.ToUpper(role.Name)] = struct{}{}
	}
	for _, name := range seed.Roles {
		role, _ := domain.ParseRole(name)
		if _, ok := existingRoles[string(role)]; ok {
			continue
		}
		if _, err := store.InsertRole(ctx, string(role)); err != nil {
			return fmt.Errorf("seed role %s: %w", role, err)
		}
		logger.Info("seed role inserted", logger.Fields{"role": string(role)})
	}

	types, err := store.ListAccountTypes(ctx)
	if err != nil {
		return fmt.Errorf("seed account types: %w", err)
	}
	existingTypes := make(map[string]struct{}, len(types))
	for _, accountType := range types {
		existingTypes[strings.ToUpper(accountType.Name)] = struct{}{}
	}
	for _, accountType := range seed.AccountTypes {
		kind, _ := domain.ParseAccountKind(accountType.Name)
		if _, ok := existingTypes[string(kind)]; ok {
			continue
		}
		rate, _ := decimal.NewFromString(strings.TrimSpace(accountType.InterestRate))
		if _, err := store.InsertAccountType(ctx, string(kind), rate); err != nil {
			return fmt.Errorf("seed account type %s: %w", kind, err)
		}
		logger.Info("seed account type inserted", logger.Fields{
			"accountType": string(kind),
			"rate":        rate.String(),
		})
	}

	if _, err := store.GetUser(ctx, domain.MinID); err == nil {
		return nil
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return fmt.Errorf("seed users: %w", err)
	}

	roles, err = store.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	roleIDs := make(map[domain.Role]int, len(roles))
	for _, entry := range roles {
		if role, ok := domain.ParseRole(entry.Name); ok {
			roleIDs[role] = entry.ID
		}
	}

	for _, user := range seed.Users {
		role, _ := domain.ParseRole(user.Role)
		roleID, ok := roleIDs[role]
		if !ok {
			return fmt.Errorf("seed user %q: role %s is not in the store", user.Name, role)
		}

		digest, err := hasher.Hash(user.Password)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", user.Name, err)
		}

		userID, err := store.InsertUser(ctx, domain.UserRecord{
			Name:    strings.TrimSpace(user.Name),
			Age:     user.Age,
			Address: user.Address,
			RoleID:  roleID,
		}, digest)
		if err != nil {
			return fmt.Errorf("seed user %q: %w", user.Name, err)
		}
		logger.Info("seed user inserted", logger.Fields{
			"userId": userID,
			"role":   string(role),
		})
	}

	return nil
}
