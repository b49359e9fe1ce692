package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/ruralpay/accountledger/internal/audit"
	"github.com/ruralpay/accountledger/internal/models"
)

const accountNumberLength = 10

type AccountService struct {
	users              UserRepository
	accounts           AccountRepository
	store              TxRunner
	audit              *audit.Logger
	maxAccountsPerUser int
	firstAccountNumber string
	now                func() time.Time
}

func NewAccountService(users UserRepository, accounts AccountRepository, store TxRunner, auditLogger *audit.Logger,
	maxAccountsPerUser int, firstAccountNumber string) *AccountService {
	return &AccountService{
		users:              users,
		accounts:           accounts,
		store:              store,
		audit:              auditLogger,
		maxAccountsPerUser: maxAccountsPerUser,
		firstAccountNumber: firstAccountNumber,
		now:                time.Now,
	}
}

// CreateAccount opens an ACTIVE account for userID under the next sequential account number.
// Callers serialize creations of the same user so the account limit holds, and
// all creations so two users never draw the same number.
func (s *AccountService) CreateAccount(ctx context.Context, userID, initialBalance int64) (*models.Account, error) {
	if initialBalance < 0 {
		return nil, models.ErrInvalidAmount
	}

	var account *models.Account
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return err
		}

		count, err := s.accounts.CountByUserID(ctx, userID)
		if err != nil {
			return err
		}
		if count >= s.maxAccountsPerUser {
			return models.ErrMaxAccountsPerUserExceeded
		}

		accountNumber, err := s.nextAccountNumber(ctx)
		if err != nil {
			return err
		}

		account = &models.Account{
			UserID:        userID,
			AccountNumber: accountNumber,
			Status:        models.AccountStatusActive,
			Balance:       initialBalance,
			RegisteredAt:  s.now(),
		}
		return s.accounts.Create(ctx, account)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ACCOUNT] Created account %s for user %d with balance %d", account.AccountNumber, userID, initialBalance)
	return account, nil
}

func (s *AccountService) nextAccountNumber(ctx context.Context) (string, error) {
	last, ok, err := s.accounts.LastAccountNumber(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return s.firstAccountNumber, nil
	}

	n, err := strconv.ParseInt(last, 10, 64)
	if err != nil {
		return "", fmt.Errorf("malformed account number %q: %w", last, err)
	}
	next := strconv.FormatInt(n+1, 10)
	if len(next) > accountNumberLength {
		return "", fmt.Errorf("account numbers exhausted after %s", last)
	}
	return next, nil
}

// CloseAccount unregisters an account once ownership is confirmed and its balance is empty
func (s *AccountService) CloseAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error) {
	var account *models.Account
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return err
		}

		var err error
		account, err = s.accounts.FindByAccountNumber(ctx, accountNumber)
		if err != nil {
			return err
		}
		if !account.OwnedBy(userID) {
			return models.ErrUserAccountMismatch
		}

		if err := account.Close(s.now()); err != nil {
			return err
		}
		return s.accounts.Update(ctx, account)
	})
	if err != nil {
		if s.audit != nil {
			s.audit.LogRejection("CLOSE", accountNumber, 0, err)
		}
		return nil, err
	}

	log.Printf("[ACCOUNT] Closed account %s of user %d", accountNumber, userID)
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, accountNumber string) (*models.Account, error) {
	return s.accounts.FindByAccountNumber(ctx, accountNumber)
}

func (s *AccountService) GetAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.accounts.FindByUserID(ctx, userID)
}
