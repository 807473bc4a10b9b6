package domain

import "strings"

type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleTeller   Role = "TELLER"
	RoleCustomer Role = "CUSTOMER"
)

var Roles = []Role{RoleAdmin, RoleTeller, RoleCustomer}

func ParseRole(token string) (Role, bool) {
	normalized := Role(strings.ToUpper(strings.TrimSpace(token)))
	for _, role := range Roles {
		if role == normalized {
			return role, true
		}
	}
	return "", false
}

// UserRecord is a user row as the store holds it, without credentials.
type UserRecord struct {
	ID      int
	Name    string
	Age     int
	Address string
	RoleID  int
}

type User struct {
	ID            int
	Name          string
	Age           int
	Address       string
	RoleID        int
	Role          Role
	Authenticated bool
	MessageIDs    []int

	// Accounts is only populated for customers.
	Accounts []*Account
}

func (u *User) Is(role Role) bool {
	return u != nil && u.Role == role
}

func (u *User) HasMessage(messageID int) bool {
	for _, id := range u.MessageIDs {
		if id == messageID {
			return true
		}
	}
	return false
}
