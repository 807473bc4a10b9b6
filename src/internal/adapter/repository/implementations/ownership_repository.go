package implementations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
)

type OwnershipRepository struct {
	db *sql.DB
}

func NewOwnershipRepository(db *sql.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

func (r *OwnershipRepository) UserOwnsAccount(ctx context.Context, userID int, accountID int) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM user_accounts WHERE user_id = $1 AND account_id = $2
)`

	var owns bool
	if err := r.db.QueryRowContext(ctx, query, userID, accountID).Scan(&owns); err != nil {
		logger.Error("ownership repository lookup failed", err, logger.Fields{
			"userId":    userID,
			"accountId": accountID,
		})
		return false, fmt.Errorf("user owns account: %w", err)
	}

	return owns, nil
}

func (r *OwnershipRepository) InsertOwnership(ctx context.Context, userID int, accountID int) (int, error) {
	logger.Info("ownership repository insert", logger.Fields{
		"userId":    userID,
		"accountId": accountID,
	})

	const query = `
INSERT INTO user_accounts (user_id, account_id)
VALUES ($1, $2)
RETURNING id`

	var id int
	if err := r.db.QueryRowContext(ctx, query, userID, accountID).Scan(&id); err != nil {
		translated := translateError(err)
		logger.Error("ownership repository insert failed", translated, logger.Fields{
			"userId":    userID,
			"accountId": accountID,
		})
		return domain.InvalidID, translated
	}

	return id, nil
}

func (r *OwnershipRepository) GetOwnedAccountIDs(ctx context.Context, userID int) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT account_id FROM user_accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		logger.Error("ownership repository list failed", err, logger.Fields{
			"userId": userID,
		})
		return nil, fmt.Errorf("get owned account ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan owned account id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
