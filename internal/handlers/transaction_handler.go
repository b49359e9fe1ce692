package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ruralpay/accountledger/internal/models"
	"github.com/ruralpay/accountledger/internal/services"
)

type TransactionHandler struct {
	ledger    Ledger
	validator *services.ValidationHelper
}

func NewTransactionHandler(ledger Ledger, minAmount, maxAmount int64) (*TransactionHandler, error) {
	validator := services.NewValidationHelper()
	if err := validator.RegisterAmountBounds(minAmount, maxAmount); err != nil {
		return nil, err
	}
	return &TransactionHandler{
		ledger:    ledger,
		validator: validator,
	}, nil
}

type UseBalanceRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"amount"`
}

type CancelBalanceRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
	Amount        int64  `json:"amount" validate:"amount"`
}

type TransactionResponse struct {
	AccountNumber     string                   `json:"accountNumber"`
	TransactionResult models.TransactionResult `json:"transactionResult"`
	TransactionID     string                   `json:"transactionId"`
	Amount            int64                    `json:"amount"`
	TransactedAt      time.Time                `json:"transactedAt"`
}

type QueryTransactionResponse struct {
	AccountNumber     string                   `json:"accountNumber"`
	TransactionType   models.TransactionType   `json:"transactionType"`
	TransactionResult models.TransactionResult `json:"transactionResult"`
	TransactionID     string                   `json:"transactionId"`
	Amount            int64                    `json:"amount"`
	BalanceSnapshot   int64                    `json:"balanceSnapshot"`
	TransactedAt      time.Time                `json:"transactedAt"`
}

func toTransactionResponse(tx *models.Transaction) TransactionResponse {
	return TransactionResponse{
		AccountNumber:     tx.AccountNumber,
		TransactionResult: tx.Result,
		TransactionID:     tx.TransactionID,
		Amount:            tx.Amount,
		TransactedAt:      tx.TransactedAt,
	}
}

// UseBalance debits an account
// @Summary Use balance
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body UseBalanceRequest true "Debit request"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /transaction/use [post]
func (h *TransactionHandler) UseBalance(w http.ResponseWriter, r *http.Request) {
	var req UseBalanceRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}
	if !authorizeUser(w, r, req.UserID) {
		return
	}

	tx, err := h.ledger.UseBalance(r.Context(), req.UserID, req.AccountNumber, req.Amount)
	if err != nil {
		sendLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// CancelBalance reverses a previous use in full
// @Summary Cancel balance use
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body CancelBalanceRequest true "Cancel request"
// @Success 200 {object} TransactionResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /transaction/cancel [post]
func (h *TransactionHandler) CancelBalance(w http.ResponseWriter, r *http.Request) {
	var req CancelBalanceRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}
	if !authorizeAccount(w, r, h.ledger, req.AccountNumber) {
		return
	}

	tx, err := h.ledger.CancelBalance(r.Context(), req.TransactionID, req.AccountNumber, req.Amount)
	if err != nil {
		sendLedgerError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

// QueryTransaction returns one ledger entry
// @Summary Query transaction
// @Tags transactions
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} QueryTransactionResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /transaction/{transactionId} [get]
func (h *TransactionHandler) QueryTransaction(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "transactionId")

	tx, err := h.ledger.QueryTransaction(r.Context(), transactionID)
	if err != nil {
		sendLedgerError(w, r, err)
		return
	}
	if !authorizeAccount(w, r, h.ledger, tx.AccountNumber) {
		return
	}

	writeJSON(w, http.StatusOK, QueryTransactionResponse{
		AccountNumber:     tx.AccountNumber,
		TransactionType:   tx.Type,
		TransactionResult: tx.Result,
		TransactionID:     tx.TransactionID,
		Amount:            tx.Amount,
		BalanceSnapshot:   tx.BalanceSnapshot,
		TransactedAt:      tx.TransactedAt,
	})
}
