// Package snapshot writes and reads the whole record store as a stream of
// typed JSON lines. The first line is a header carrying the format version.
package snapshot

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const FormatVersion = 1

const (
	recordHeader      = "header"
	recordRole        = "role"
	recordAccountType = "account_type"
	recordUser        = "user"
	recordAccount     = "account"
	recordOwnership   = "ownership"
	recordMessage     = "message"
)

type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type headerRecord struct {
	Version    int       `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
}

type roleRecord struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type accountTypeRecord struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	InterestRate decimal.Decimal `json:"interestRate"`
}

type userRecord struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Age          int    `json:"age"`
	Address      string `json:"address"`
	RoleID       int    `json:"roleId"`
	PasswordHash string `json:"passwordHash"`
}

type accountRecord struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Balance decimal.Decimal `json:"balance"`
	TypeID  int             `json:"typeId"`
}

type ownershipRecord struct {
	UserID    int `json:"userId"`
	AccountID int `json:"accountId"`
}

type messageRecord struct {
	ID          int    `json:"id"`
	RecipientID int    `json:"recipientId"`
	Text        string `json:"text"`
	Viewed      bool   `json:"viewed"`
}

// Summary counts the records moved by an export or import.
type Summary struct {
	Roles        int `json:"roles"`
	AccountTypes int `json:"accountTypes"`
	Users        int `json:"users"`
	Accounts     int `json:"accounts"`
	Ownerships   int `json:"ownerships"`
	Messages     int `json:"messages"`
}
