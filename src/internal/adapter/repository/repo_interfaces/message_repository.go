package repo_interfaces

import (
	"context"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
)

type MessageRepository interface {
	InsertMessage(ctx context.Context, recipientID int, text string) (int, error)
	GetMessage(ctx context.Context, id int) (domain.Message, error)
	GetMessages(ctx context.Context, userID int) ([]domain.Message, error)
	MarkMessageViewed(ctx context.Context, id int) error
}
