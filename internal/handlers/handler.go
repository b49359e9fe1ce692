package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/ruralpay/accountledger/internal/middleware"
	"github.com/ruralpay/accountledger/internal/models"
	"github.com/ruralpay/accountledger/internal/services"
)

const maxBodyBytes = 1_048_576 // 1 MB

// Ledger is the account and balance surface the handlers drive
type Ledger interface {
	CreateAccount(ctx context.Context, userID, initialBalance int64) (*models.Account, error)
	CloseAccount(ctx context.Context, userID int64, accountNumber string) (*models.Account, error)
	GetAccountsByUser(ctx context.Context, userID int64) ([]models.Account, error)
	AccountOwner(ctx context.Context, accountNumber string) (int64, error)
	UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (*models.Transaction, error)
	CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (*models.Transaction, error)
	QueryTransaction(ctx context.Context, transactionID string) (*models.Transaction, error)
}

// decodeRequest reads a single JSON object into dst and validates it.
// It writes the error response itself and reports whether the caller may go on.
func decodeRequest(w http.ResponseWriter, r *http.Request, validator *services.ValidationHelper, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, models.InvalidRequest, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, models.InvalidRequest, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}

	if err := validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, models.InvalidRequest, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

// authorizeUser rejects requests acting for a user other than the authenticated one.
// Without authentication every user id is accepted.
func authorizeUser(w http.ResponseWriter, r *http.Request, userID int64) bool {
	authenticated, ok := middleware.UserIDFromContext(r.Context())
	if !ok || authenticated == userID {
		return true
	}
	services.SendError(w, models.NewAccountError(models.Unauthorized))
	return false
}

// authorizeAccount rejects requests touching an account the authenticated user does not own.
// An unknown account is left to the ledger so its own error ordering applies.
func authorizeAccount(w http.ResponseWriter, r *http.Request, ledger Ledger, accountNumber string) bool {
	if _, ok := middleware.UserIDFromContext(r.Context()); !ok {
		return true
	}

	owner, err := ledger.AccountOwner(r.Context(), accountNumber)
	if errors.Is(err, models.ErrAccountNotFound) {
		return true
	}
	if err != nil {
		sendLedgerError(w, r, err)
		return false
	}
	return authorizeUser(w, r, owner)
}

func sendLedgerError(w http.ResponseWriter, r *http.Request, err error) {
	if _, ok := models.CodeOf(err); !ok {
		log.Printf("[HTTP] %s %s failed: %v", r.Method, r.URL.Path, err)
	}
	services.SendError(w, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
