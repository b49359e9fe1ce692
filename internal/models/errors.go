package models

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a terminal rejection of an account or balance operation
type ErrorCode string

const (
	UserNotFound                ErrorCode = "USER_NOT_FOUND"
	AccountNotFound             ErrorCode = "ACCOUNT_NOT_FOUND"
	UserAccountMismatch         ErrorCode = "USER_ACCOUNT_MISMATCH"
	AccountAlreadyClosed        ErrorCode = "ACCOUNT_ALREADY_CLOSED"
	BalanceNotEmpty             ErrorCode = "BALANCE_NOT_EMPTY"
	AmountExceedsBalance        ErrorCode = "AMOUNT_EXCEEDS_BALANCE"
	InvalidAmount               ErrorCode = "INVALID_AMOUNT"
	TransactionNotFound         ErrorCode = "TRANSACTION_NOT_FOUND"
	TransactionAccountMismatch  ErrorCode = "TRANSACTION_ACCOUNT_MISMATCH"
	CancelMustBeFull            ErrorCode = "CANCEL_MUST_BE_FULL"
	CancellationExpired         ErrorCode = "CANCELLATION_EXPIRED"
	TransactionNotCancellable   ErrorCode = "TRANSACTION_NOT_CANCELLABLE"
	TransactionAlreadyCancelled ErrorCode = "TRANSACTION_ALREADY_CANCELLED"
	LockUnavailable             ErrorCode = "LOCK_UNAVAILABLE"
	MaxAccountsPerUserExceeded  ErrorCode = "MAX_ACCOUNTS_PER_USER_EXCEEDED"
	InvalidRequest              ErrorCode = "INVALID_REQUEST"
	Unauthorized                ErrorCode = "UNAUTHORIZED"
	InternalServerError         ErrorCode = "INTERNAL_SERVER_ERROR"
)

var descriptions = map[ErrorCode]string{
	UserNotFound:                "user not found",
	AccountNotFound:             "account not found",
	UserAccountMismatch:         "user does not own the account",
	AccountAlreadyClosed:        "account is already closed",
	BalanceNotEmpty:             "account balance is not empty",
	AmountExceedsBalance:        "amount exceeds account balance",
	InvalidAmount:               "invalid amount",
	TransactionNotFound:         "transaction not found",
	TransactionAccountMismatch:  "transaction does not belong to the account",
	CancelMustBeFull:            "partial cancellation is not allowed",
	CancellationExpired:         "transactions older than one year cannot be cancelled",
	TransactionNotCancellable:   "only successful use transactions can be cancelled",
	TransactionAlreadyCancelled: "transaction is already cancelled",
	LockUnavailable:             "account is in use by another transaction",
	MaxAccountsPerUserExceeded:  "maximum number of accounts per user reached",
	InvalidRequest:              "invalid request",
	Unauthorized:                "request identity does not match the authenticated user",
	InternalServerError:         "internal server error",
}

// Description returns the human readable message for the code
func (c ErrorCode) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return string(c)
}

// AccountError is returned for every precondition violation of the ledger
type AccountError struct {
	Code    ErrorCode
	Message string
}

func NewAccountError(code ErrorCode) *AccountError {
	return &AccountError{Code: code, Message: code.Description()}
}

func (e *AccountError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any AccountError carrying the same code
func (e *AccountError) Is(target error) bool {
	t, ok := target.(*AccountError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrUserNotFound                = NewAccountError(UserNotFound)
	ErrAccountNotFound             = NewAccountError(AccountNotFound)
	ErrUserAccountMismatch         = NewAccountError(UserAccountMismatch)
	ErrAccountAlreadyClosed        = NewAccountError(AccountAlreadyClosed)
	ErrBalanceNotEmpty             = NewAccountError(BalanceNotEmpty)
	ErrAmountExceedsBalance        = NewAccountError(AmountExceedsBalance)
	ErrInvalidAmount               = NewAccountError(InvalidAmount)
	ErrTransactionNotFound         = NewAccountError(TransactionNotFound)
	ErrTransactionAccountMismatch  = NewAccountError(TransactionAccountMismatch)
	ErrCancelMustBeFull            = NewAccountError(CancelMustBeFull)
	ErrCancellationExpired         = NewAccountError(CancellationExpired)
	ErrTransactionNotCancellable   = NewAccountError(TransactionNotCancellable)
	ErrTransactionAlreadyCancelled = NewAccountError(TransactionAlreadyCancelled)
	ErrLockUnavailable             = NewAccountError(LockUnavailable)
	ErrMaxAccountsPerUserExceeded  = NewAccountError(MaxAccountsPerUserExceeded)
)

// CodeOf extracts the error code from err, if err is (or wraps) an AccountError
func CodeOf(err error) (ErrorCode, bool) {
	var accErr *AccountError
	if errors.As(err, &accErr) {
		return accErr.Code, true
	}
	return "", false
}
