package services

import (
	"context"
	"fmt"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	totalInterestMessage    = "SYSTEM: interest totaling $%s has been added to all accounts."
	accountInterestMessage  = "SYSTEM: interest of $%s has been added to account with ID %d."
	savingsMigrationMessage = "SYSTEM: TFSA balance was under $%s. Account with ID %d has now been transformed into a SAVINGS account."
	jointAccountMessage     = "SYSTEM: a joint account with ID %d has been created."
)

type notificationSource interface {
	repo_interfaces.UserRepository
	repo_interfaces.MessageRepository
}

type NotificationService struct {
	store notificationSource
}

func NewNotificationService(store notificationSource) *NotificationService {
	return &NotificationService{store: store}
}

// Notify inserts an unread message for recipientID and returns its id, or
// domain.InvalidID when the text or recipient is rejected.
func (s *NotificationService) Notify(ctx context.Context, recipientID int, text string) int {
	if !validation.ValidID(recipientID) || !validation.ValidMessage(text) {
		logger.Warn("notification rejected", logger.Fields{
			"recipientId": recipientID,
			"length":      len(text),
		})
		return domain.InvalidID
	}

	if _, err := s.store.GetUser(ctx, recipientID); err != nil {
		logger.Error("notification recipient lookup failed", err, logger.Fields{
			"recipientId": recipientID,
		})
		return domain.InvalidID
	}

	messageID, err := s.store.InsertMessage(ctx, recipientID, text)
	if err != nil {
		logger.Error("notification insert failed", err, logger.Fields{
			"recipientId": recipientID,
		})
		return domain.InvalidID
	}

	logger.Info("notification sent", logger.Fields{
		"recipientId": recipientID,
		"messageId":   messageID,
	})
	return messageID
}

func (s *NotificationService) NotifyInterest(ctx context.Context, recipientID int, accountID int, interest decimal.Decimal) int {
	return s.Notify(ctx, recipientID, fmt.Sprintf(accountInterestMessage, domain.FormatAmount(interest), accountID))
}

func (s *NotificationService) NotifyTotalInterest(ctx context.Context, recipientID int, interest decimal.Decimal) int {
	return s.Notify(ctx, recipientID, fmt.Sprintf(totalInterestMessage, domain.FormatAmount(interest)))
}

func (s *NotificationService) NotifySavingsMigration(ctx context.Context, recipientID int, accountID int) int {
	return s.Notify(ctx, recipientID, fmt.Sprintf(savingsMigrationMessage, domain.FormatAmount(domain.TFSAMinimumBalance), accountID))
}

func (s *NotificationService) NotifyJointAccount(ctx context.Context, recipientID int, accountID int) int {
	return s.Notify(ctx, recipientID, fmt.Sprintf(jointAccountMessage, accountID))
}
