package implementations

import "database/sql"

// Store bundles the Postgres repositories behind a single value so it can be
// handed to the session engine as one record store.
type Store struct {
	*RoleRepository
	*AccountTypeRepository
	*UserRepository
	*AccountRepository
	*OwnershipRepository
	*MessageRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		RoleRepository:        NewRoleRepository(db),
		AccountTypeRepository: NewAccountTypeRepository(db),
		UserRepository:        NewUserRepository(db),
		AccountRepository:     NewAccountRepository(db),
		OwnershipRepository:   NewOwnershipRepository(db),
		MessageRepository:     NewMessageRepository(db),
	}
}
