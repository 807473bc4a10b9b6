package services

import (
	"context"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
)

type lookupSource interface {
	repo_interfaces.RoleRepository
	repo_interfaces.AccountTypeRepository
}

// LoadLookupTable reads the role and account type rows once and freezes them
// into a table the engine can share between sessions.
func LoadLookupTable(ctx context.Context, store lookupSource) (*domain.LookupTable, error) {
	roles, err := store.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roles: %w", err)
	}

	types, err := store.ListAccountTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load account types: %w", err)
	}

	table, err := domain.NewLookupTable(roles, types)
	if err != nil {
		logger.Error("lookup table build failed", err, logger.Fields{
			"roles":        len(roles),
			"accountTypes": len(types),
		})
		return nil, err
	}

	logger.Info("lookup table loaded", logger.Fields{
		"roles":        len(roles),
		"accountTypes": len(types),
	})
	return table, nil
}
