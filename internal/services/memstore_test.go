package services

import (
	"context"
	"sync"

	"github.com/ruralpay/accountledger/internal/models"
	"github.com/ruralpay/accountledger/internal/repository"
)

// memStore is an in-process stand-in for the Postgres repositories. Reads
// return copies and Update enforces the row version like the SQL store does.
type memStore struct {
	mu           sync.Mutex
	users        map[int64]models.User
	accounts     map[string]models.Account
	transactions []models.Transaction
	nextID       int64

	// afterLastNumber runs once LastAccountNumber has read, outside the mutex
	afterLastNumber func()
}

func newMemStore(users ...models.User) *memStore {
	s := &memStore{
		users:    make(map[int64]models.User),
		accounts: make(map[string]models.Account),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) FindByID(_ context.Context, userID int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) FindByAccountNumber(_ context.Context, accountNumber string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[accountNumber]
	if !ok {
		return nil, models.ErrAccountNotFound
	}
	return &a, nil
}

func (s *memStore) FindByUserID(_ context.Context, userID int64) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Account
	for _, a := range s.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) CountByUserID(ctx context.Context, userID int64) (int, error) {
	accounts, err := s.FindByUserID(ctx, userID)
	return len(accounts), err
}

func (s *memStore) LastAccountNumber(_ context.Context) (string, bool, error) {
	s.mu.Lock()
	last := ""
	for number := range s.accounts {
		if number > last {
			last = number
		}
	}
	s.mu.Unlock()

	if s.afterLastNumber != nil {
		s.afterLastNumber()
	}
	return last, last != "", nil
}

func (s *memStore) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.AccountNumber]; ok {
		return repository.ErrDuplicateAccountNumber
	}
	s.nextID++
	account.ID = s.nextID
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *memStore) Update(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.accounts[account.AccountNumber]
	if !ok || stored.Version != account.Version {
		return repository.ErrConcurrentUpdate
	}
	account.Version++
	s.accounts[account.AccountNumber] = *account
	return nil
}

func (s *memStore) Save(_ context.Context, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	tx.ID = s.nextID
	s.transactions = append(s.transactions, *tx)
	return nil
}

func (s *memStore) FindByTransactionID(_ context.Context, transactionID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.TransactionID == transactionID {
			return &tx, nil
		}
	}
	return nil, models.ErrTransactionNotFound
}

func (s *memStore) HasSuccessfulCancel(_ context.Context, transactionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, tx := range s.transactions {
		if tx.ReferenceTransactionID == transactionID &&
			tx.Type == models.TransactionTypeCancel && tx.Result == models.TransactionResultSuccess {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) seedAccount(account models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	account.ID = s.nextID
	s.accounts[account.AccountNumber] = account
}

func (s *memStore) account(accountNumber string) models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[accountNumber]
}

func (s *memStore) entries() []models.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Transaction(nil), s.transactions...)
}
