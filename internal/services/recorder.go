package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ruralpay/accountledger/internal/models"
)

type RecordOption func(*models.Transaction)

// WithReference links a CANCEL entry to the USE entry it reverses
func WithReference(transactionID string) RecordOption {
	return func(tx *models.Transaction) {
		tx.ReferenceTransactionID = transactionID
	}
}

// TransactionRecorder writes ledger entries. It reads the account to snapshot
// its balance and never changes it.
type TransactionRecorder struct {
	transactions TransactionRepository
	now          func() time.Time
	newID        func() string
}

func NewTransactionRecorder(transactions TransactionRepository) *TransactionRecorder {
	return &TransactionRecorder{
		transactions: transactions,
		now:          time.Now,
		newID:        newTransactionID,
	}
}

func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Record persists one entry for account. For SUCCESS the caller has already
// applied the mutation, so the snapshot is the post-mutation balance.
func (r *TransactionRecorder) Record(ctx context.Context, txType models.TransactionType, result models.TransactionResult,
	account *models.Account, amount int64, opts ...RecordOption) (*models.Transaction, error) {
	tx := &models.Transaction{
		TransactionID:   r.newID(),
		Type:            txType,
		Result:          result,
		AccountID:       account.ID,
		AccountNumber:   account.AccountNumber,
		Amount:          amount,
		BalanceSnapshot: account.Balance,
		TransactedAt:    r.now(),
	}
	for _, opt := range opts {
		opt(tx)
	}

	if err := r.transactions.Save(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}
