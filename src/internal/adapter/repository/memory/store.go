package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"github.com/shopspring/decimal"
)

type accountTypeRow struct {
	entry domain.AccountTypeEntry
	rate  decimal.Decimal
}

type userRow struct {
	record       domain.UserRecord
	passwordHash string
}

type ownershipRow struct {
	id        int
	userID    int
	accountID int
}

// Store keeps every table in slices so that ids stay dense: the row with id n
// lives at index n-1.
type Store struct {
	mu           sync.RWMutex
	roles        []domain.RoleEntry
	accountTypes []accountTypeRow
	users        []userRow
	accounts     []domain.AccountRecord
	ownerships   []ownershipRow
	messages     []domain.Message
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) ListRoles(_ context.Context) ([]domain.RoleEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.RoleEntry, len(s.roles))
	copy(out, s.roles)
	return out, nil
}

func (s *Store) InsertRole(_ context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, role := range s.roles {
		if strings.EqualFold(role.Name, name) {
			return domain.InvalidID, domain.ErrDuplicateRecord
		}
	}

	id := len(s.roles) + 1
	s.roles = append(s.roles, domain.RoleEntry{ID: id, Name: name})
	return id, nil
}

func (s *Store) ListAccountTypes(_ context.Context) ([]domain.AccountTypeEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.AccountTypeEntry, 0, len(s.accountTypes))
	for _, row := range s.accountTypes {
		out = append(out, row.entry)
	}
	return out, nil
}

func (s *Store) InsertAccountType(_ context.Context, name string, rate decimal.Decimal) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, row := range s.accountTypes {
		if strings.EqualFold(row.entry.Name, name) {
			return domain.InvalidID, domain.ErrDuplicateRecord
		}
	}

	id := len(s.accountTypes) + 1
	s.accountTypes = append(s.accountTypes, accountTypeRow{
		entry: domain.AccountTypeEntry{ID: id, Name: name},
		rate:  rate,
	})
	return id, nil
}

func (s *Store) GetInterestRate(_ context.Context, typeID int) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !inRange(typeID, len(s.accountTypes)) {
		return decimal.Zero, domain.ErrRecordNotFound
	}
	return s.accountTypes[typeID-1].rate, nil
}

func (s *Store) UpdateInterestRate(_ context.Context, typeID int, rate decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(typeID, len(s.accountTypes)) {
		return domain.ErrRecordNotFound
	}
	s.accountTypes[typeID-1].rate = rate
	return nil
}

func (s *Store) GetUser(_ context.Context, id int) (domain.UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !inRange(id, len(s.users)) {
		return domain.UserRecord{}, domain.ErrRecordNotFound
	}
	return s.users[id-1].record, nil
}

func (s *Store) InsertUser(_ context.Context, user domain.UserRecord, passwordHash string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(user.RoleID, len(s.roles)) {
		return domain.InvalidID, domain.ErrRecordNotFound
	}

	user.ID = len(s.users) + 1
	s.users = append(s.users, userRow{record: user, passwordHash: passwordHash})
	return user.ID, nil
}

func (s *Store) UpdateUserRole(_ context.Context, id int, roleID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(id, len(s.users)) || !inRange(roleID, len(s.roles)) {
		return domain.ErrRecordNotFound
	}
	s.users[id-1].record.RoleID = roleID
	return nil
}

func (s *Store) UpdateUserDetails(_ context.Context, user domain.UserRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(user.ID, len(s.users)) {
		return domain.ErrRecordNotFound
	}
	row := &s.users[user.ID-1].record
	row.Name = user.Name
	row.Age = user.Age
	row.Address = user.Address
	return nil
}

func (s *Store) UpdateUserPassword(_ context.Context, id int, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(id, len(s.users)) {
		return domain.ErrRecordNotFound
	}
	s.users[id-1].passwordHash = passwordHash
	return nil
}

func (s *Store) GetPasswordHash(_ context.Context, id int) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !inRange(id, len(s.users)) {
		return "", domain.ErrRecordNotFound
	}
	return s.users[id-1].passwordHash, nil
}

func (s *Store) GetAccount(_ context.Context, id int) (domain.AccountRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !inRange(id, len(s.accounts)) {
		return domain.AccountRecord{}, domain.ErrRecordNotFound
	}
	return s.accounts[id-1], nil
}

func (s *Store) InsertAccount(_ context.Context, name string, balance decimal.Decimal, typeID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(typeID, len(s.accountTypes)) {
		return domain.InvalidID, domain.ErrRecordNotFound
	}

	id := len(s.accounts) + 1
	s.accounts = append(s.accounts, domain.AccountRecord{
		ID:      id,
		Name:    name,
		Balance: balance,
		TypeID:  typeID,
	})
	return id, nil
}

func (s *Store) UpdateAccountBalance(_ context.Context, id int, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(id, len(s.accounts)) {
		return domain.ErrRecordNotFound
	}
	s.accounts[id-1].Balance = balance
	return nil
}

func (s *Store) UpdateAccountType(_ context.Context, id int, typeID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(id, len(s.accounts)) || !inRange(typeID, len(s.accountTypes)) {
		return domain.ErrRecordNotFound
	}
	s.accounts[id-1].TypeID = typeID
	return nil
}

func (s *Store) GetAccountType(_ context.Context, id int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !inRange(id, len(s.accounts)) {
		return domain.InvalidID, domain.ErrRecordNotFound
	}
	return s.accounts[id-1].TypeID, nil
}

func (s *Store) UserOwnsAccount(_ context.Context, userID int, accountID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, row := range s.ownerships {
		if row.userID == userID && row.accountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) InsertOwnership(_ context.Context, userID int, accountID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(userID, len(s.users)) || !inRange(accountID, len(s.accounts)) {
		return domain.InvalidID, domain.ErrRecordNotFound
	}
	for _, row := range s.ownerships {
		if row.userID == userID && row.accountID == accountID {
			return domain.InvalidID, domain.ErrDuplicateRecord
		}
	}

	id := len(s.ownerships) + 1
	s.ownerships = append(s.ownerships, ownershipRow{id: id, userID: userID, accountID: accountID})
	return id, nil
}

func (s *Store) GetOwnedAccountIDs(_ context.Context, userID int) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0)
	for _, row := range s.ownerships {
		if row.userID == userID {
			ids = append(ids, row.accountID)
		}
	}
	return ids, nil
}

func (s *Store) InsertMessage(_ context.Context, recipientID int, text string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(recipientID, len(s.users)) {
		return domain.InvalidID, domain.ErrRecordNotFound
	}

	id := len(s.messages) + 1
	s.messages = append(s.messages, domain.Message{ID: id, RecipientID: recipientID, Text: text})
	return id, nil
}

func (s *Store) GetMessage(_ context.Context, id int) (domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !inRange(id, len(s.messages)) {
		return domain.Message{}, domain.ErrRecordNotFound
	}
	return s.messages[id-1], nil
}

func (s *Store) GetMessages(_ context.Context, userID int) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Message, 0)
	for _, message := range s.messages {
		if message.RecipientID == userID {
			out = append(out, message)
		}
	}
	return out, nil
}

func (s *Store) MarkMessageViewed(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !inRange(id, len(s.messages)) {
		return domain.ErrRecordNotFound
	}
	s.messages[id-1].Viewed = true
	return nil
}

func inRange(id int, length int) bool {
	return id >= domain.MinID && id <= length
}
