package models

import (
	"time"
)

type TransactionType string

const (
	TransactionTypeUse    TransactionType = "USE"
	TransactionTypeCancel TransactionType = "CANCEL"
)

type TransactionResult string

const (
	TransactionResultSuccess TransactionResult = "SUCCESS"
	TransactionResultFail    TransactionResult = "FAIL"
)

// Transaction is an append-only ledger entry for one balance mutation attempt
type Transaction struct {
	ID                     int64             `json:"id" db:"id"`
	TransactionID          string            `json:"transaction_id" db:"transaction_id"` // idempotency key
	Type                   TransactionType   `json:"type" db:"transaction_type"`
	Result                 TransactionResult `json:"result" db:"result_type"`
	AccountID              int64             `json:"account_id" db:"account_id"`
	AccountNumber          string            `json:"account_number"`
	Amount                 int64             `json:"amount" db:"amount"`
	BalanceSnapshot        int64             `json:"balance_snapshot" db:"balance_snapshot"`
	ReferenceTransactionID string            `json:"reference_transaction_id,omitempty" db:"reference_transaction_id"`
	TransactedAt           time.Time         `json:"transacted_at" db:"transacted_at"`
	CreatedAt              time.Time         `json:"created_at" db:"created_at"`
}

func (t *Transaction) IsSuccessfulUse() bool {
	return t.Type == TransactionTypeUse && t.Result == TransactionResultSuccess
}
