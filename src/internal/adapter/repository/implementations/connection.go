package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
)

const (
	postgresUniqueViolation     = "23505"
	postgresForeignKeyViolation = "23503"
)

// Open connects through database/sql with either the lib/pq ("postgres") or
// the pgx ("pgx") driver.
func Open(ctx context.Context, driver string, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", driver, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// Sessions share one pool; a single branch never needs many connections.
	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(15 * time.Minute)

	return db, nil
}

// translateError maps constraint violations from either driver onto the
// domain sentinels.
func translateError(err error) error {
	code := ""

	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}

	switch code {
	case postgresUniqueViolation:
		return domain.ErrDuplicateRecord
	case postgresForeignKeyViolation:
		return domain.ErrRecordNotFound
	default:
		return err
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

// insertDense assigns the next id under a table lock so ids never skip, which
// the engine's id-probing enumeration relies on.
func insertDense(ctx context.Context, db *sql.DB, table string, columns string, placeholders string, args ...any) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return domain.InvalidID, fmt.Errorf("begin insert into %s: %w", table, err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`LOCK TABLE %s IN SHARE ROW EXCLUSIVE MODE`, table)); err != nil {
		_ = tx.Rollback()
		return domain.InvalidID, fmt.Errorf("lock %s: %w", table, err)
	}

	var id int
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COALESCE(MAX(id), 0) + 1 FROM %s`, table)).Scan(&id); err != nil {
		_ = tx.Rollback()
		return domain.InvalidID, fmt.Errorf("next id for %s: %w", table, err)
	}

	query := fmt.Sprintf(`INSERT INTO %s (id, %s) VALUES ($1, %s)`, table, columns, placeholders)
	if _, err := tx.ExecContext(ctx, query, append([]any{id}, args...)...); err != nil {
		_ = tx.Rollback()
		return domain.InvalidID, translateError(err)
	}

	if err := tx.Commit(); err != nil {
		return domain.InvalidID, fmt.Errorf("commit insert into %s: %w", table, err)
	}

	return id, nil
}

func requireOneRow(result sql.Result, op string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if rowsAffected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
