package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetUser(ctx context.Context, id int) (domain.UserRecord, error) {
	const query = `
SELECT id, name, age, address, role_id
FROM users
WHERE id = $1`

	var user domain.UserRecord
	if err := scanUser(r.db.QueryRowContext(ctx, query, id), &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.UserRecord{}, domain.ErrRecordNotFound
		}
		logger.Error("user repository get failed", err, logger.Fields{
			"userId": id,
		})
		return domain.UserRecord{}, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func (r *UserRepository) InsertUser(ctx context.Context, user domain.UserRecord, passwordHash string) (int, error) {
	logger.Info("user repository insert", logger.Fields{
		"name":   user.Name,
		"roleId": user.RoleID,
	})

	id, err := insertDense(ctx, r.db, "users", "name, age, address, role_id, password_hash", "$2, $3, $4, $5, $6",
		user.Name, user.Age, user.Address, user.RoleID, passwordHash)
	if err != nil {
		logger.Error("user repository insert failed", err, logger.Fields{
			"name":   user.Name,
			"roleId": user.RoleID,
		})
		return domain.InvalidID, fmt.Errorf("insert user: %w", err)
	}

	logger.Info("user repository insert success", logger.Fields{
		"userId": id,
	})
	return id, nil
}

func (r *UserRepository) UpdateUserRole(ctx context.Context, id int, roleID int) error {
	logger.Info("user repository update role", logger.Fields{
		"userId": id,
		"roleId": roleID,
	})

	result, err := r.db.ExecContext(ctx, `UPDATE users SET role_id = $2, updated_at = NOW() WHERE id = $1`, id, roleID)
	if err != nil {
		logger.Error("user repository update role failed", err, logger.Fields{
			"userId": id,
		})
		return fmt.Errorf("update user role: %w", translateError(err))
	}

	return requireOneRow(result, "update user role")
}

func (r *UserRepository) UpdateUserDetails(ctx context.Context, user domain.UserRecord) error {
	const query = `
UPDATE users
SET name = $2,
	age = $3,
	address = $4,
	updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Age, user.Address)
	if err != nil {
		logger.Error("user repository update details failed", err, logger.Fields{
			"userId": user.ID,
		})
		return fmt.Errorf("update user details: %w", err)
	}

	return requireOneRow(result, "update user details")
}

func (r *UserRepository) UpdateUserPassword(ctx context.Context, id int, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`, id, passwordHash)
	if err != nil {
		logger.Error("user repository update password failed", err, logger.Fields{
			"userId": id,
		})
		return fmt.Errorf("update user password: %w", err)
	}

	return requireOneRow(result, "update user password")
}

func (r *UserRepository) GetPasswordHash(ctx context.Context, id int) (string, error) {
	var passwordHash string
	if err := r.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id = $1`, id).Scan(&passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrRecordNotFound
		}
		logger.Error("user repository get password hash failed", err, logger.Fields{
			"userId": id,
		})
		return "", fmt.Errorf("get password hash: %w", err)
	}

	return passwordHash, nil
}

func scanUser(row rowScanner, user *domain.UserRecord) error {
	return row.Scan(
		&user.ID,
		&user.Name,
		&user.Age,
		&user.Address,
		&user.RoleID,
	)
}

type RoleRepository struct {
	db *sql.DB
}

func NewRoleRepository(db *sql.DB) *RoleRepository {
	return &RoleRepository{db: db}
}

func (r *RoleRepository) ListRoles(ctx context.Context) ([]domain.RoleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		logger.Error("role repository list failed", err, nil)
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	roles := make([]domain.RoleEntry, 0)
	for rows.Next() {
		var entry domain.RoleEntry
		if err := rows.Scan(&entry.ID, &entry.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, entry)
	}

	return roles, rows.Err()
}

func (r *RoleRepository) InsertRole(ctx context.Context, name string) (int, error) {
	id, err := insertDense(ctx, r.db, "roles", "name", "$2", name)
	if err != nil {
		logger.Error("role repository insert failed", err, logger.Fields{
			"name": name,
		})
		return domain.InvalidID, fmt.Errorf("insert role: %w", err)
	}

	return id, nil
}
