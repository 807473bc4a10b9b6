package domain

import "fmt"

type RoleEntry struct {
	ID   int
	Name string
}

type AccountTypeEntry struct {
	ID   int
	Name string
}

// LookupTable maps role and account-type names to store ids. It is built once
// at startup and never mutated afterwards.
type LookupTable struct {
	roleIDs   map[Role]int
	roleNames map[int]Role
	typeIDs   map[AccountKind]int
	typeNames map[int]AccountKind
}

func NewLookupTable(roles []RoleEntry, types []AccountTypeEntry) (*LookupTable, error) {
	table := &LookupTable{
		roleIDs:   make(map[Role]int, len(roles)),
		roleNames: make(map[int]Role, len(roles)),
		typeIDs:   make(map[AccountKind]int, len(types)),
		typeNames: make(map[int]AccountKind, len(types)),
	}

	for _, entry := range roles {
		role, ok := ParseRole(entry.Name)
		if !ok {
			continue
		}
		table.roleIDs[role] = entry.ID
		table.roleNames[entry.ID] = role
	}

	for _, entry := range types {
		kind, ok := ParseAccountKind(entry.Name)
		if !ok {
			continue
		}
		table.typeIDs[kind] = entry.ID
		table.typeNames[entry.ID] = kind
	}

	for _, role := range Roles {
		if _, ok := table.roleIDs[role]; !ok {
			return nil, fmt.Errorf("lookup table: role %s is not defined in the store", role)
		}
	}
	for _, kind := range AccountKinds {
		if _, ok := table.typeIDs[kind]; !ok {
			return nil, fmt.Errorf("lookup table: account type %s is not defined in the store", kind)
		}
	}

	return table, nil
}

func (t *LookupTable) RoleID(role Role) int {
	if id, ok := t.roleIDs[role]; ok {
		return id
	}
	return InvalidID
}

func (t *LookupTable) RoleName(roleID int) (Role, bool) {
	role, ok := t.roleNames[roleID]
	return role, ok
}

func (t *LookupTable) AccountTypeID(kind AccountKind) int {
	if id, ok := t.typeIDs[kind]; ok {
		return id
	}
	return InvalidID
}

func (t *LookupTable) AccountKind(typeID int) (AccountKind, bool) {
	kind, ok := t.typeNames[typeID]
	return kind, ok
}
