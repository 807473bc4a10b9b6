package repo_interfaces

// Store is the record store the session engine runs against. Implementations
// must hand out dense, gap-free, increasing ids starting at 1 for users and
// accounts; the engine enumerates both by probing ids upwards from 1.
type Store interface {
	RoleRepository
	AccountTypeRepository
	UserRepository
	AccountRepository
	OwnershipRepository
	MessageRepository
}
