package services

import (
	"context"

	"github.com/ruralpay/accountledger/internal/models"
)

// UserRepository is the read-only user directory
type UserRepository interface {
	FindByID(ctx context.Context, userID int64) (*models.User, error)
}

type AccountRepository interface {
	FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error)
	FindByUserID(ctx context.Context, userID int64) ([]models.Account, error)
	CountByUserID(ctx context.Context, userID int64) (int, error)
	LastAccountNumber(ctx context.Context) (string, bool, error)
	Create(ctx context.Context, account *models.Account) error
	Update(ctx context.Context, account *models.Account) error
}

type TransactionRepository interface {
	Save(ctx context.Context, tx *models.Transaction) error
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Transaction, error)
	HasSuccessfulCancel(ctx context.Context, transactionID string) (bool, error)
}

// TxRunner makes every repository call made with the context passed to fn
// commit or roll back together.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
