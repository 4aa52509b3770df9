// Package memory provides process-local implementations of the repository
// contracts. It backs the "memory" persistence driver used in development and tests.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"chatty/internal/domain/entity"
	"chatty/internal/domain/repository"
)

// Store holds users and OTP records behind a single mutex.
type Store struct {
	mu    sync.RWMutex
	users map[string]*entity.User // keyed by normalized email
	otps  []*entity.PasswordResetOTP

	// txMu serializes transactions against each other.
	txMu sync.Mutex
	now  func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*entity.User),
		now:   time.Now,
	}
}

// UserRepo returns a user repository backed by the store.
func (s *Store) UserRepo() repository.UserRepository {
	return &userRepository{store: s}
}

// OTPRepo returns an OTP repository backed by the store.
func (s *Store) OTPRepo() repository.OTPRepository {
	return &otpRepository{store: s}
}

// TransactionManager returns a transaction manager that reverts the
// transaction's own writes when the callback fails.
func (s *Store) TransactionManager() repository.TransactionManager {
	return &transactionManager{store: s}
}

// undoLog collects inverse operations of the writes made inside one transaction.
// Entries run under the store write lock.
type undoLog struct {
	ops []func()
}

func (l *undoLog) record(op func()) {
	if l != nil {
		l.ops = append(l.ops, op)
	}
}

func (l *undoLog) rollback(s *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := len(l.ops) - 1; i >= 0; i-- {
		l.ops[i]()
	}
	l.ops = nil
}

// txScope hands out repositories that log their writes to the transaction.
type txScope struct {
	store *Store
	undo  *undoLog
}

func (t *txScope) UserRepo() repository.UserRepository {
	return &userRepository{store: t.store, undo: t.undo}
}

func (t *txScope) OTPRepo() repository.OTPRepository {
	return &otpRepository{store: t.store, undo: t.undo}
}

type transactionManager struct {
	store *Store
}

// Execute runs fn and undoes fn's writes when it returns an error or panics.
// Writes made outside the transaction in the meantime are left untouched.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repository.RepositoryFactory) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tm.store.txMu.Lock()
	defer tm.store.txMu.Unlock()

	undo := &undoLog{}
	committed := false
	defer func() {
		if !committed {
			undo.rollback(tm.store)
		}
	}()

	if err := fn(&txScope{store: tm.store, undo: undo}); err != nil {
		return err
	}
	committed = true

	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
