package snapshot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/api-sage/branch-teller-core/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/api-sage/branch-teller-core/src/internal/logger"
	"github.com/api-sage/branch-teller-core/src/internal/validation"
)

var ErrStoreNotEmpty = errors.New("snapshot import needs an empty store")
var ErrUnsupportedVersion = errors.New("unsupported snapshot version")

// maxRecordSize bounds one JSON line; messages are the largest records.
const maxRecordSize = 1 << 20

// Import restores a snapshot into an empty store. Role, account type, user
// and account ids must come back exactly as exported, which holds for any
// store that hands out dense ids.
//
// The whole stream is decoded and validated before the first write, so a
// malformed snapshot leaves the store empty. A store error during the write
// phase can still leave rows behind; the store must then be wiped before the
// next import.
func Import(ctx context.Context, r io.Reader, store repo_interfaces.Store) (Summary, error) {
	var summary Summary

	if err := requireEmpty(ctx, store); err != nil {
		return summary, err
	}

	steps, err := decode(r)
	if err != nil {
		return summary, err
	}

	for _, step := range steps {
		if err := restore(ctx, store, step.env, &summary); err != nil {
			return summary, fmt.Errorf("snapshot line %d: %w", step.line, err)
		}
	}

	logger.Info("snapshot imported", logger.Fields{
		"users":    summary.Users,
		"accounts": summary.Accounts,
		"messages": summary.Messages,
	})
	return summary, nil
}

type step struct {
	line int
	env  envelope
}

// decode reads every record after the header and checks it against the
// field rules without touching the store.
func decode(r io.Reader) ([]step, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

	var steps []step
	kinds := make(map[int]domain.AccountKind)
	line := 0
	sawHeader := false
	for scanner.Scan() {
		line++
		if len(scanner.Bytes()) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(scanner.Bytes(), &env); err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", line, err)
		}

		if !sawHeader {
			if env.Type != recordHeader {
				return nil, fmt.Errorf("snapshot line %d: expected header, got %q", line, env.Type)
			}
			var header headerRecord
			if err := json.Unmarshal(env.Data, &header); err != nil {
				return nil, fmt.Errorf("snapshot header: %w", err)
			}
			if header.Version != FormatVersion {
				return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
			}
			sawHeader = true
			continue
		}

		if err := check(env, kinds); err != nil {
			return nil, fmt.Errorf("snapshot line %d: %w", line, err)
		}
		steps = append(steps, step{line: line, env: env})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !sawHeader {
		return nil, fmt.Errorf("snapshot is empty")
	}
	return steps, nil
}

func check(env envelope, kinds map[int]domain.AccountKind) error {
	switch env.Type {
	case recordRole:
		var rec roleRecord
		return json.Unmarshal(env.Data, &rec)

	case recordAccountType:
		var rec accountTypeRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		kind, ok := domain.ParseAccountKind(rec.Name)
		if !ok {
			return fmt.Errorf("unknown account type %q", rec.Name)
		}
		if !validation.ValidInterestRate(rec.InterestRate) {
			return fmt.Errorf("account type %s: invalid interest rate %s", rec.Name, rec.InterestRate)
		}
		kinds[rec.ID] = kind
		return nil

	case recordUser:
		var rec userRecord
		return json.Unmarshal(env.Data, &rec)

	case recordAccount:
		var rec accountRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		kind, ok := kinds[rec.TypeID]
		if !ok {
			return fmt.Errorf("account %d: unknown type id %d", rec.ID, rec.TypeID)
		}
		if !validation.ValidBalanceForKind(rec.Balance, kind) {
			return fmt.Errorf("account %d: invalid %s balance %s", rec.ID, kind, rec.Balance)
		}
		return nil

	case recordOwnership:
		var rec ownershipRecord
		return json.Unmarshal(env.Data, &rec)

	case recordMessage:
		var rec messageRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		if !validation.ValidMessage(rec.Text) {
			return fmt.Errorf("message %d: invalid text length", rec.ID)
		}
		return nil

	default:
		return fmt.Errorf("unknown record type %q", env.Type)
	}
}

func requireEmpty(ctx context.Context, store repo_interfaces.Store) error {
	roles, err := store.ListRoles(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	types, err := store.ListAccountTypes(ctx)
	if err != nil {
		return fmt.Errorf("check store: %w", err)
	}
	if len(roles) > 0 || len(types) > 0 {
		return ErrStoreNotEmpty
	}

	if _, err := store.GetUser(ctx, domain.MinID); !errors.Is(err, domain.ErrRecordNotFound) {
		if err != nil {
			return fmt.Errorf("check store: %w", err)
		}
		return ErrStoreNotEmpty
	}
	if _, err := store.GetAccount(ctx, domain.MinID); !errors.Is(err, domain.ErrRecordNotFound) {
		if err != nil {
			return fmt.Errorf("check store: %w", err)
		}
		return ErrStoreNotEmpty
	}
	return nil
}

func restore(ctx context.Context, store repo_interfaces.Store, env envelope, summary *Summary) error {
	switch env.Type {
	case recordRole:
		var rec roleRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		id, err := store.InsertRole(ctx, rec.Name)
		if err = sameID("role", rec.ID, id, err); err != nil {
			return err
		}
		summary.Roles++

	case recordAccountType:
		var rec accountTypeRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		id, err := store.InsertAccountType(ctx, rec.Name, rec.InterestRate)
		if err = sameID("account type", rec.ID, id, err); err != nil {
			return err
		}
		summary.AccountTypes++

	case recordUser:
		var rec userRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		id, err := store.InsertUser(ctx, domain.UserRecord{
			Name:    rec.Name,
			Age:     rec.Age,
			Address: rec.Address,
			RoleID:  rec.RoleID,
		}, rec.PasswordHash)
		if err = sameID("user", rec.ID, id, err); err != nil {
			return err
		}
		summary.Users++

	case recordAccount:
		var rec accountRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		id, err := store.InsertAccount(ctx, rec.Name, rec.Balance, rec.TypeID)
		if err = sameID("account", rec.ID, id, err); err != nil {
			return err
		}
		summary.Accounts++

	case recordOwnership:
		var rec ownershipRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		if _, err := store.InsertOwnership(ctx, rec.UserID, rec.AccountID); err != nil {
			return fmt.Errorf("restore ownership %d/%d: %w", rec.UserID, rec.AccountID, err)
		}
		summary.Ownerships++

	case recordMessage:
		var rec messageRecord
		if err := json.Unmarshal(env.Data, &rec); err != nil {
			return err
		}
		id, err := store.InsertMessage(ctx, rec.RecipientID, rec.Text)
		if err != nil {
			return fmt.Errorf("restore message %d: %w", rec.ID, err)
		}
		if rec.Viewed {
			if err := store.MarkMessageViewed(ctx, id); err != nil {
				return fmt.Errorf("restore message %d viewed flag: %w", rec.ID, err)
			}
		}
		summary.Messages++

	default:
		return fmt.Errorf("unknown record type %q", env.Type)
	}

	return nil
}

func sameID(kind string, want int, got int, err error) error {
	if err != nil {
		return fmt.Errorf("restore %s %d: %w", kind, want, err)
	}
	if got != want {
		return fmt.Errorf("restore %s: expected id %d, store assigned %d", kind, want, got)
	}
	return nil
}

func sortMessages(messages []domain.Message) {
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ID < messages[j].ID
	})
}
