package services

import (
	"context"
	"sync"
	"time"

	"github.com/api-sage/branch-teller-core/src/internal/domain"
	"golang.org/x/sync/semaphore"
)

const accountBusyMessage = "account is busy, try again"

// accountLocks serializes balance read-compute-write sequences per account
// across every session sharing a Bank.
type accountLocks struct {
	mu      sync.Mutex
	locks   map[int]*semaphore.Weighted // never shrinks; bounded by the account count
	timeout time.Duration
}

func newAccountLocks(timeout time.Duration) *accountLocks {
	return &accountLocks{
		locks:   make(map[int]*semaphore.Weighted),
		timeout: timeout,
	}
}

func (l *accountLocks) forAccount(accountID int) *semaphore.Weighted {
	l.mu.Lock()
	defer l.mu.Unlock()

	lock, ok := l.locks[accountID]
	if !ok {
		lock = semaphore.NewWeighted(1)
		l.locks[accountID] = lock
	}
	return lock
}

// acquire blocks until the account is free, ctx is done or the lock timeout
// passes. A timeout surfaces as a ConnectionFailed transaction error.
func (l *accountLocks) acquire(ctx context.Context, accountID int) (func(), error) {
	lock := l.forAccount(accountID)

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	if err := lock.Acquire(waitCtx, 1); err != nil {
		return nil, domain.NewTransactionError(domain.KindConnectionFailed, accountBusyMessage, err)
	}

	return func() { lock.Release(1) }, nil
}
