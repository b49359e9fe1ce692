package services

import (
	"context"
	"errors"
	"log"

	"github.com/ruralpay/accountledger/internal/lock"
	"github.com/ruralpay/accountledger/internal/models"
)

// Ledger is the entry point for account and balance operations. Every mutation
// runs under the lock of the account it touches.
type Ledger struct {
	accounts       *AccountService
	transactions   *TransactionService
	guard          *lock.Guard
	recordFailures bool
}

func NewLedger(accounts *AccountService, transactions *TransactionService, guard *lock.Guard, recordFailures bool) *Ledger {
	return &Ledger{
		accounts:       accounts,
		transactions:   transactions,
		guard:          guard,
		recordFailures: recordFailures,
	}
}

// CreateAccount holds the user lock for the account limit, then the allocation
// lock for the sequential number. Locks are always taken in that order.
func (l *Ledger) CreateAccount(ctx context.Context, userID, initialBalance int64) (*models.Account, error) {
	return lock.Run(ctx, l.guard, lock.UserScope(userID), func(ctx context.Context) (*models.Account, error) {
		return lock.Run(ctx, l.guard, lock.AllocationScope, func(ctx context.Context) (*models.Account, error) {
			return l.accounts.CreateAccount(ctx, userID, initialBalance)
		})
	})
}

func (l *Ledger) CloseAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error) {
	return lock.Run(ctx, l.guard, accountNumber, func(ctx context.Context) (*models.Account, error) {
		return l.accounts.CloseAccount(ctx, userID, accountNumber)
	})
}

func (l *Ledger) GetAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error) {
	return l.accounts.GetAccountsByUser(ctx, userID)
}

// AccountOwner returns the id of the user holding accountNumber
func (l *Ledger) AccountOwner(ctx context.Context, accountNumber string) (int64, error) {
	account, err := l.accounts.GetAccount(ctx, accountNumber)
	if err != nil {
		return 0, err
	}
	return account.UserID, nil
}

func (l *Ledger) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	return lock.Run(ctx, l.guard, accountNumber, func(ctx context.Context) (*models.Transaction, error) {
		entry, err := l.transactions.UseBalance(ctx, userID, accountNumber, amount)
		if err != nil && l.shouldRecord(err) {
			if _, recErr := l.transactions.SaveFailedUse(ctx, accountNumber, amount); recErr != nil {
				log.Printf("[TRANSACTION] Could not record failed use on %s: %v", accountNumber, recErr)
			}
		}
		return entry, err
	})
}

func (l *Ledger) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	return lock.Run(ctx, l.guard, accountNumber, func(ctx context.Context) (*models.Transaction, error) {
		entry, err := l.transactions.CancelBalance(ctx, transactionID, accountNumber, amount)
		if err != nil && l.shouldRecord(err) {
			if _, recErr := l.transactions.SaveFailedCancel(ctx, accountNumber, amount); recErr != nil {
				log.Printf("[TRANSACTION] Could not record failed cancel on %s: %v", accountNumber, recErr)
			}
		}
		return entry, err
	})
}

func (l *Ledger) QueryTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return l.transactions.QueryTransaction(ctx, transactionID)
}

// shouldRecord selects the rejections that leave a FAIL entry: domain errors
// against an account that exists. Storage failures are not recorded.
func (l *Ledger) shouldRecord(err error) bool {
	if !l.recordFailures {
		return false
	}
	if _, ok := models.CodeOf(err); !ok {
		return false
	}
	return !errors.Is(err, models.ErrAccountNotFound) && !errors.Is(err, models.ErrInvalidAmount)
}
