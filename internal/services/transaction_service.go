package services

import (
	"context"
	"log"
	"time"

	"github.com/ruralpay/accountledger/internal/audit"
	"github.com/ruralpay/accountledger/internal/models"
)

// TransactionService validates and applies balance mutations. Callers must hold
// the account lock for the whole call.
type TransactionService struct {
	users             UserRepository
	accounts          AccountRepository
	transactions      TransactionRepository
	store             TxRunner
	recorder          *TransactionRecorder
	audit             *audit.Logger
	cancelWindowYears int
	now               func() time.Time
}

func NewTransactionService(users UserRepository, accounts AccountRepository, transactions TransactionRepository,
	store TxRunner, recorder *TransactionRecorder, auditLogger *audit.Logger, cancelWindowYears int) *TransactionService {
	return &TransactionService{
		users:             users,
		accounts:          accounts,
		transactions:      transactions,
		store:             store,
		recorder:          recorder,
		audit:             auditLogger,
		cancelWindowYears: cancelWindowYears,
		now:               time.Now,
	}
}

// UseBalance debits amount from the user's account and records a USE entry.
// A rejected request writes nothing; see SaveFailedUse.
func (s *TransactionService) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var entry *models.Transaction
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.users.FindByID(ctx, userID); err != nil {
			return err
		}

		account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if err := validateUseBalance(userID, account, amount); err != nil {
			return err
		}

		if err := account.Debit(amount); err != nil {
			return err
		}
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}

		entry, err = s.recorder.Record(ctx, models.TransactionTypeUse, models.TransactionResultSuccess, account, amount)
		return err
	})
	if err != nil {
		s.logRejection("USE", accountNumber, amount, err)
		return nil, err
	}

	log.Printf("[TRANSACTION] USE %s on %s: amount=%d balance=%d", entry.TransactionID, accountNumber, amount, entry.BalanceSnapshot)
	s.logEntry(entry)
	return entry, nil
}

func validateUseBalance(userID int64, account *models.Account, amount int64) error {
	if !account.OwnedBy(userID) {
		return models.ErrUserAccountMismatch
	}
	if !account.IsActive() {
		return models.ErrAccountAlreadyClosed
	}
	if amount > account.Balance {
		return models.ErrAmountExceedsBalance
	}
	return nil
}

// CancelBalance reverses a successful USE entry in full and records a CANCEL entry
func (s *TransactionService) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	var entry *models.Transaction
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		original, err := s.transactions.FindByTransactionID(ctx, transactionID)
		if err != nil {
			return err
		}

		account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
		if err != nil {
			return err
		}

		if err := s.validateCancelBalance(ctx, original, account, amount); err != nil {
			return err
		}

		if err := account.Credit(amount); err != nil {
			return err
		}
		if err := s.accounts.Update(ctx, account); err != nil {
			return err
		}

		entry, err = s.recorder.Record(ctx, models.TransactionTypeCancel, models.TransactionResultSuccess, account, amount,
			WithReference(original.TransactionID))
		return err
	})
	if err != nil {
		s.logRejection("CANCEL", accountNumber, amount, err)
		return nil, err
	}

	log.Printf("[TRANSACTION] CANCEL %s of %s on %s: amount=%d balance=%d",
		entry.TransactionID, transactionID, accountNumber, amount, entry.BalanceSnapshot)
	s.logEntry(entry)
	return entry, nil
}

func (s *TransactionService) validateCancelBalance(ctx context.Context, original *models.Transaction, account *models.Account, amount int64) error {
	if original.AccountID != account.ID {
		return models.ErrTransactionAccountMismatch
	}
	if amount != original.Amount {
		return models.ErrCancelMustBeFull
	}
	if original.TransactedAt.Before(s.now().AddDate(-s.cancelWindowYears, 0, 0)) {
		return models.ErrCancellationExpired
	}
	if !original.IsSuccessfulUse() {
		return models.ErrTransactionNotCancellable
	}

	cancelled, err := s.transactions.HasSuccessfulCancel(ctx, original.TransactionID)
	if err != nil {
		return err
	}
	if cancelled {
		return models.ErrTransactionAlreadyCancelled
	}
	return nil
}

func (s *TransactionService) QueryTransaction(ctx context.Context, transactionID string) (*models.Transaction, error) {
	return s.transactions.FindByTransactionID(ctx, transactionID)
}

// SaveFailedUse records a USE attempt that was rejected, leaving the balance untouched
func (s *TransactionService) SaveFailedUse(ctx context.Context, accountNumber string, amount int64) (*models.Transaction, error) {
	return s.saveFailed(ctx, models.TransactionTypeUse, accountNumber, amount)
}

// SaveFailedCancel records a CANCEL attempt that was rejected, leaving the balance untouched
func (s *TransactionService) SaveFailedCancel(ctx context.Context, accountNumber string, amount int64) (*models.Transaction, error) {
	return s.saveFailed(ctx, models.TransactionTypeCancel, accountNumber, amount)
}

func (s *TransactionService) saveFailed(ctx context.Context, txType models.TransactionType, accountNumber string, amount int64) (*models.Transaction, error) {
	account, err := s.accounts.FindByAccountNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	entry, err := s.recorder.Record(ctx, txType, models.TransactionResultFail, account, amount)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to record failed %s on %s: %v", txType, accountNumber, err)
		return nil, err
	}

	s.logEntry(entry)
	return entry, nil
}

func (s *TransactionService) logEntry(entry *models.Transaction) {
	if s.audit != nil {
		s.audit.LogEntry(entry)
	}
}

func (s *TransactionService) logRejection(operation, accountNumber string, amount int64, err error) {
	if _, ok := models.CodeOf(err); !ok {
		log.Printf("[TRANSACTION] %s on %s failed: %v", operation, accountNumber, err)
	}
	if s.audit != nil {
		s.audit.LogRejection(operation, accountNumber, amount, err)
	}
}
