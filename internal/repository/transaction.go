package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/ruralpay/accountledger/internal/models"
)

// TransactionRepository stores ledger entries. Entries are never updated or deleted.
type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Save(ctx context.Context, tx *models.Transaction) error {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO transactions (transaction_id, transaction_type, result_type, account_id, amount, balance_snapshot, reference_transaction_id, transacted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		tx.TransactionID, string(tx.Type), string(tx.Result), tx.AccountID, tx.Amount,
		tx.BalanceSnapshot, nullString(tx.ReferenceTransactionID), tx.TransactedAt,
	).Scan(&tx.ID, &tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("save transaction %s: %w", tx.TransactionID, err)
	}
	return nil
}

func (r *TransactionRepository) FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT t.id, t.transaction_id, t.transaction_type, t.result_type, t.account_id, a.account_number,
			t.amount, t.balance_snapshot, COALESCE(t.reference_transaction_id, ''), t.transacted_at, t.created_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE t.transaction_id = $1`, transactionID).Scan(
		&tx.ID,
		&tx.TransactionID,
		&tx.Type,
		&tx.Result,
		&tx.AccountID,
		&tx.AccountNumber,
		&tx.Amount,
		&tx.BalanceSnapshot,
		&tx.ReferenceTransactionID,
		&tx.TransactedAt,
		&tx.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTransactionNotFound
	}
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch transaction %s: %v", transactionID, err)
		return nil, fmt.Errorf("find transaction %s: %w", transactionID, err)
	}
	return &tx, nil
}

// HasSuccessfulCancel reports whether a successful CANCEL already reverses transactionID
func (r *TransactionRepository) HasSuccessfulCancel(ctx context.Context, transactionID string) (bool, error) {
	var exists bool
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transactions
			WHERE reference_transaction_id = $1 AND transaction_type = $2 AND result_type = $3
		)`, transactionID, string(models.TransactionTypeCancel), string(models.TransactionResultSuccess)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check cancellation of %s: %w", transactionID, err)
	}
	return exists, nil
}
