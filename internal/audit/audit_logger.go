package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/ruralpay/accountledger/internal/models"
)

type Event struct {
	Timestamp       time.Time `json:"timestamp"`
	EventType       string    `json:"event_type"`
	TransactionID   string    `json:"transaction_id,omitempty"`
	AccountNumber   string    `json:"account_number,omitempty"`
	Amount          int64     `json:"amount,omitempty"`
	BalanceSnapshot int64     `json:"balance_snapshot"`
	Status          string    `json:"status"`
	Details         any       `json:"details,omitempty"`
}

// Sink receives every audit line. Defaults to log.Printf.
type Sink func(format string, v ...any)

type Logger struct {
	sink Sink
	now  func() time.Time
}

func NewLogger() *Logger {
	return &Logger{sink: log.Printf, now: time.Now}
}

// NewLoggerWithSink is used by tests to capture events
func NewLoggerWithSink(sink Sink) *Logger {
	return &Logger{sink: sink, now: time.Now}
}

// LogEntry records a ledger entry that was written, successful or failed
func (a *Logger) LogEntry(tx *models.Transaction) {
	a.log(Event{
		EventType:       string(tx.Type),
		TransactionID:   tx.TransactionID,
		AccountNumber:   tx.AccountNumber,
		Amount:          tx.Amount,
		BalanceSnapshot: tx.BalanceSnapshot,
		Status:          string(tx.Result),
		Details:         referenceDetails(tx.ReferenceTransactionID),
	})
}

// LogRejection records a request that was refused before any mutation
func (a *Logger) LogRejection(operation, accountNumber string, amount int64, err error) {
	code, ok := models.CodeOf(err)
	if !ok {
		code = models.InternalServerError
	}
	a.log(Event{
		EventType:     operation,
		AccountNumber: accountNumber,
		Amount:        amount,
		Status:        "REJECTED",
		Details:       map[string]string{"error_code": string(code), "error": err.Error()},
	})
}

// LogLockFailure records a lock that could not be obtained for key
func (a *Logger) LogLockFailure(key string, err error) {
	a.log(Event{
		EventType: "LOCK",
		Status:    "FAILED",
		Details:   map[string]string{"key": key, "error": err.Error()},
	})
}

func (a *Logger) log(event Event) {
	event.Timestamp = a.now()
	data, _ := json.Marshal(event)
	a.sink("AUDIT: %s", string(data))
}

func referenceDetails(ref string) any {
	if ref == "" {
		return nil
	}
	return map[string]string{"reference_transaction_id": ref}
}
