package domain

import "errors"

// InvalidID is returned in place of a store id when a request is rejected
// before it reaches the store.
const InvalidID = -1

// MinID is the first id a store hands out.
const MinID = 1

var ErrRecordNotFound = errors.New("Record not found")
var ErrDuplicateRecord = errors.New("Record already exists")

var ErrAuthenticationFailed = errors.New("authentication failed")
var ErrRoleMismatch = errors.New("user does not hold the required role")
var ErrSessionClosed = errors.New("session is logged out")
var ErrCustomerNotBound = errors.New("no authenticated customer is bound to this session")
var ErrUnknownAccountType = errors.New("unknown account type")

type ErrorKind string

const (
	KindIllegalAmount     ErrorKind = "IllegalAmount"
	KindDoesNotOwn        ErrorKind = "DoesNotOwn"
	KindInsufficientFunds ErrorKind = "InsufficientFunds"
	KindConnectionFailed  ErrorKind = "ConnectionFailed"
)

// TransactionError reports a business rule violated while an operation was
// already running against the store.
type TransactionError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *TransactionError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *TransactionError) Unwrap() error {
	return e.Err
}

// Is matches any TransactionError of the same kind, so callers can write
// errors.Is(err, domain.ErrInsufficientFunds).
func (e *TransactionError) Is(target error) bool {
	var other *TransactionError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

var (
	ErrIllegalAmount     = &TransactionError{Kind: KindIllegalAmount, Message: "amount must be positive"}
	ErrDoesNotOwn        = &TransactionError{Kind: KindDoesNotOwn, Message: "user does not own account"}
	ErrInsufficientFunds = &TransactionError{Kind: KindInsufficientFunds, Message: "insufficient funds"}
	ErrConnectionFailed  = &TransactionError{Kind: KindConnectionFailed, Message: "update to database failed"}
)

func NewTransactionError(kind ErrorKind, message string, cause error) *TransactionError {
	return &TransactionError{Kind: kind, Message: message, Err: cause}
}

func ErrorKindOf(err error) (ErrorKind, bool) {
	var txErr *TransactionError
	if errors.As(err, &txErr) {
		return txErr.Kind, true
	}
	return "", false
}
