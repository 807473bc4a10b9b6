package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
)

type encoder struct {
	out *json.Encoder
}

func (e *encoder) write(recordType string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", recordType, err)
	}
	if err := e.out.Encode(envelope{Type: recordType, Data: raw}); err != nil {
		return fmt.Errorf("write %s record: %w", recordType, err)
	}
	return nil
}

// Export writes every role, account type, user, account, ownership and
// message in the store to w.
func Export(ctx context.Context, store repo_interfaces.Store, w io.Writer) (Summary, error) {
	var summary Summary

	buffered := bufio.NewWriter(w)
	enc := &encoder{out: json.NewEncoder(buffered)}

	if err := enc.write(recordHeader, headerRecord{Version: FormatVersion, ExportedAt: time.Now().UTC()}); err != nil {
		return summary, err
	}

	roles, err := store.ListRoles(ctx)
	if err != nil {
		return summary, fmt.Errorf("export roles: %w", err)
	}
	for _, role := range roles {
		if err := enc.write(recordRole, roleRecord{ID: role.ID, Name: role.Name}); err != nil {
			return summary, err
		}
		summary.Roles++
	}

	types, err := store.ListAccountTypes(ctx)
	if err != nil {
		return summary, fmt.Errorf("export account types: %w", err)
	}
	for _, accountType := range types {
		rate, err := store.GetInterestRate(ctx, accountType.ID)
		if err != nil {
			return summary, fmt.Errorf("export interest rate %d: %w", accountType.ID, err)
		}
		if err := enc.write(recordAccountType, accountTypeRecord{ID: accountType.ID, Name: accountType.Name, InterestRate: rate}); err != nil {
			return summary, err
		}
		summary.AccountTypes++
	}

	userIDs := make([]int, 0)
	for id := domain.MinID; ; id++ {
		user, err := store.GetUser(ctx, id)
		if errors.Is(err, domain.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("export user %d: %w", id, err)
		}
		digest, err := store.GetPasswordHash(ctx, id)
		if err != nil {
			return summary, fmt.Errorf("export user %d credentials: %w", id, err)
		}
		if err := enc.write(recordUser, userRecord{
			ID:           user.ID,
			Name:         user.Name,
			Age:          user.Age,
			Address:      user.Address,
			RoleID:       user.RoleID,
			PasswordHash: digest,
		}); err != nil {
			return summary, err
		}
		userIDs = append(userIDs, id)
		summary.Users++
	}

	for id := domain.MinID; ; id++ {
		account, err := store.GetAccount(ctx, id)
		if errors.Is(err, domain.ErrRecordNotFound) {
			break
		}
		if err != nil {
			return summary, fmt.Errorf("export account %d: %w", id, err)
		}
		if err := enc.write(recordAccount, accountRecord{
			ID:      account.ID,
			Name:    account.Name,
			Balance: account.Balance,
			TypeID:  account.TypeID,
		}); err != nil {
			return summary, err
		}
		summary.Accounts++
	}

	messages := make([]domain.Message, 0)
	for _, userID := range userIDs {
		accountIDs, err := store.GetOwnedAccountIDs(ctx, userID)
		if err != nil {
			return summary, fmt.Errorf("export ownerships of user %d: %w", userID, err)
		}
		for _, accountID := range accountIDs {
			if err := enc.write(recordOwnership, ownershipRecord{UserID: userID, AccountID: accountID}); err != nil {
				return summary, err
			}
			summary.Ownerships++
		}

		inbox, err := store.GetMessages(ctx, userID)
		if err != nil {
			return summary, fmt.Errorf("export messages of user %d: %w", userID, err)
		}
		messages = append(messages, inbox...)
	}

	sortMessages(messages)
	for _, message := range messages {
		if err := enc.write(recordMessage, messageRecord{
			ID:          message.ID,
			RecipientID: message.RecipientID,
			Text:        message.Text,
			Viewed:      message.Viewed,
		}); err != nil {
			return summary, err
		}
		summary.Messages++
	}

	if err := buffered.Flush(); err != nil {
		return summary, fmt.Errorf("flush snapshot: %w", err)
	}

	logger.Info("snapshot exported", logger.Fields{
		"users":    summary.Users,
		"accounts": summary.Accounts,
		"messages": summary.Messages,
	})
	return summary, nil
}
