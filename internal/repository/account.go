package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ruralpay/accountledger/internal/models"
)

const accountColumns = `id, user_id, account_number, status, balance, version, registered_at, closed_at, created_at, updated_at`

type AccountRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var account models.Account
	var closedAt sql.NullTime
	err := row.Scan(
		&account.ID,
		&account.UserID,
		&account.AccountNumber,
		&account.Status,
		&account.Balance,
		&account.Version,
		&account.RegisteredAt,
		&closedAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		account.ClosedAt = &t
	}
	return &account, nil
}

func (r *AccountRepository) FindByAccountNumber(ctx context.Context, accountNumber string) (*models.Account, error) {
	row := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, accountNumber)

	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", accountNumber, err)
	}
	return account, nil
}

func (r *AccountRepository) FindByUserID(ctx context.Context, userID int64) ([]models.Account, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts of user %d: %w", userID, err)
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) CountByUserID(ctx context.Context, userID int64) (int, error) {
	var count int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count accounts of user %d: %w", userID, err)
	}
	return count, nil
}

// LastAccountNumber returns the highest allocated account number, if any
func (r *AccountRepository) LastAccountNumber(ctx context.Context) (string, bool, error) {
	var accountNumber string
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT account_number FROM accounts ORDER BY account_number DESC LIMIT 1`).Scan(&accountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("last account number: %w", err)
	}
	return accountNumber, true, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	err := conn(ctx, r.db).QueryRowContext(ctx, `
		INSERT INTO accounts (user_id, account_number, status, balance, registered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version, created_at, updated_at`,
		account.UserID, account.AccountNumber, string(account.Status), account.Balance, account.RegisteredAt,
	).Scan(&account.ID, &account.Version, &account.CreatedAt, &account.UpdatedAt)

	if isUniqueViolation(err) {
		return ErrDuplicateAccountNumber
	}
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// Update persists balance, status and closure time guarded by the row version
func (r *AccountRepository) Update(ctx context.Context, account *models.Account) error {
	var closedAt sql.NullTime
	if account.ClosedAt != nil {
		closedAt = sql.NullTime{Time: *account.ClosedAt, Valid: true}
	}
	now := r.now()

	result, err := conn(ctx, r.db).ExecContext(ctx, `
		UPDATE accounts
		SET status = $1, balance = $2, closed_at = $3, version = version + 1, updated_at = $4
		WHERE id = $5 AND version = $6`,
		string(account.Status), account.Balance, closedAt, now, account.ID, account.Version)
	if err != nil {
		return fmt.Errorf("update account %s: %w", account.AccountNumber, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return fmt.Errorf("account %s: %w", account.AccountNumber, ErrConcurrentUpdate)
	}

	account.Version++
	account.UpdatedAt = now
	return nil
}
