package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) InsertMessage(ctx context.Context, recipientID int, text string) (int, error) {
	logger.Info("message repository insert", logger.Fields{
		"recipientId": recipientID,
	})

	const query = `
INSERT INTO user_messages (user_id, message)
VALUES ($1, $2)
RETURNING id`

	var id int
	if err := r.db.QueryRowContext(ctx, query, recipientID, text).Scan(&id); err != nil {
		translated := translateError(err)
		logger.Error("message repository insert failed", translated, logger.Fields{
			"recipientId": recipientID,
		})
		return domain.InvalidID, translated
	}

	return id, nil
}

func (r *MessageRepository) GetMessage(ctx context.Context, id int) (domain.Message, error) {
	const query = `
SELECT id, user_id, message, viewed
FROM user_messages
WHERE id = $1`

	var message domain.Message
	if err := scanMessage(r.db.QueryRowContext(ctx, query, id), &message); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, domain.ErrRecordNotFound
		}
		logger.Error("message repository get failed", err, logger.Fields{
			"messageId": id,
		})
		return domain.Message{}, fmt.Errorf("get message: %w", err)
	}

	return message, nil
}

func (r *MessageRepository) GetMessages(ctx context.Context, userID int) ([]domain.Message, error) {
	const query = `
SELECT id, user_id, message, viewed
FROM user_messages
WHERE user_id = $1
ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		logger.Error("message repository list failed", err, logger.Fields{
			"userId": userID,
		})
		return nil, fmt.Errorf("get messages: %w", err)
	}
	defer rows.Close()

	messages := make([]domain.Message, 0)
	for rows.Next() {
		var message domain.Message
		if err := scanMessage(rows, &message); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, message)
	}

	return messages, rows.Err()
}

func (r *MessageRepository) MarkMessageViewed(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE user_messages SET viewed = TRUE WHERE id = $1`, id)
	if err != nil {
		logger.Error("message repository mark viewed failed", err, logger.Fields{
			"messageId": id,
		})
		return fmt.Errorf("mark message viewed: %w", err)
	}

	return requireOneRow(result, "mark message viewed")
}

func scanMessage(row rowScanner, message *domain.Message) error {
	return row.Scan(
		&message.ID,
		&message.RecipientID,
		&message.Text,
		&message.Viewed,
	)
}
