package models

import (
	"time"
)

type AccountStatus string

const (
	AccountStatusActive AccountStatus = "ACTIVE"
	AccountStatusClosed AccountStatus = "CLOSED"
)

// Account holds a single balance in the smallest currency unit.
// Balance and Status only change through Debit, Credit and Close.
type Account struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	AccountNumber string        `json:"account_number" db:"account_number"`
	Status        AccountStatus `json:"status" db:"status"`
	Balance       int64         `json:"balance" db:"balance"`
	Version       int           `json:"version" db:"version"` // for optimistic locking
	RegisteredAt  time.Time     `json:"registered_at" db:"registered_at"`
	ClosedAt      *time.Time    `json:"closed_at,omitempty" db:"closed_at"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

func (a *Account) OwnedBy(userID int64) bool {
	return a.UserID == userID
}

// Debit withdraws amount from the balance
func (a *Account) Debit(amount int64) error {
	if !a.IsActive() {
		return ErrAccountAlreadyClosed
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	if amount > a.Balance {
		return ErrAmountExceedsBalance
	}
	a.Balance -= amount
	return nil
}

// Credit adds amount back to the balance
func (a *Account) Credit(amount int64) error {
	if !a.IsActive() {
		return ErrAccountAlreadyClosed
	}
	if amount < 0 {
		return ErrInvalidAmount
	}
	a.Balance += amount
	return nil
}

// Close moves the account to CLOSED. It is irreversible and requires an empty balance.
func (a *Account) Close(now time.Time) error {
	if !a.IsActive() {
		return ErrAccountAlreadyClosed
	}
	if a.Balance != 0 {
		return ErrBalanceNotEmpty
	}
	a.Status = AccountStatusClosed
	a.ClosedAt = &now
	return nil
}
