package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ruralpay/accountledger/internal/models"
	"github.com/ruralpay/accountledger/internal/services"
)

type AccountHandler struct {
	ledger    Ledger
	validator *services.ValidationHelper
}

func NewAccountHandler(ledger Ledger) *AccountHandler {
	return &AccountHandler{
		ledger:    ledger,
		validator: services.NewValidationHelper(),
	}
}

type CreateAccountRequest struct {
	UserID         int64  `json:"userId" validate:"required,min=1"`
	InitialBalance *int64 `json:"initialBalance" validate:"required,min=0"`
}

type CreateAccountResponse struct {
	UserID        int64     `json:"userId"`
	AccountNumber string    `json:"accountNumber"`
	RegisteredAt  time.Time `json:"registeredAt"`
}

type CloseAccountRequest struct {
	UserID        int64  `json:"userId" validate:"required,min=1"`
	AccountNumber string `json:"accountNumber" validate:"required,len=10,numeric"`
}

type CloseAccountResponse struct {
	UserID         int64     `json:"userId"`
	AccountNumber  string    `json:"accountNumber"`
	UnregisteredAt time.Time `json:"unregisteredAt"`
}

type AccountInfo struct {
	AccountNumber string               `json:"accountNumber"`
	Balance       int64                `json:"balance"`
	Status        models.AccountStatus `json:"status"`
}

// CreateAccount opens a new account
// @Summary Create account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CreateAccountRequest true "Owner and initial balance"
// @Success 201 {object} CreateAccountResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 404 {object} services.ErrorResponse
// @Router /account [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}
	if !authorizeUser(w, r, req.UserID) {
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), req.UserID, *req.InitialBalance)
	if err != nil {
		sendLedgerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateAccountResponse{
		UserID:        account.UserID,
		AccountNumber: account.AccountNumber,
		RegisteredAt:  account.RegisteredAt,
	})
}

// CloseAccount unregisters an account with an empty balance
// @Summary Close account
// @Tags accounts
// @Accept json
// @Produce json
// @Param request body CloseAccountRequest true "Owner and account number"
// @Success 200 {object} CloseAccountResponse
// @Failure 400 {object} services.ErrorResponse
// @Failure 403 {object} services.ErrorResponse
// @Failure 409 {object} services.ErrorResponse
// @Router /account [delete]
func (h *AccountHandler) CloseAccount(w http.ResponseWriter, r *http.Request) {
	var req CloseAccountRequest
	if !decodeRequest(w, r, h.validator, &req) {
		return
	}
	if !authorizeUser(w, r, req.UserID) {
		return
	}

	account, err := h.ledger.CloseAccount(r.Context(), req.UserID, req.AccountNumber)
	if err != nil {
		sendLedgerError(w, r, err)
		return
	}

	resp := CloseAccountResponse{UserID: account.UserID, AccountNumber: account.AccountNumber}
	if account.ClosedAt != nil {
		resp.UnregisteredAt = *account.ClosedAt
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetAccounts lists the accounts of a user
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param user_id query int true "User ID"
// @Success 200 {array} AccountInfo
// @Failure 404 {object} services.ErrorResponse
// @Router /account [get]
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID < 1 {
		services.SendErrorResponse(w, models.InvalidRequest, "user_id query parameter must be a positive integer", http.StatusBadRequest, nil)
		return
	}
	if !authorizeUser(w, r, userID) {
		return
	}

	accounts, err := h.ledger.GetAccountsByUser(r.Context(), userID)
	if err != nil {
		sendLedgerError(w, r, err)
		return
	}

	infos := make([]AccountInfo, 0, len(accounts))
	for _, a := range accounts {
		infos = append(infos, AccountInfo{AccountNumber: a.AccountNumber, Balance: a.Balance, Status: a.Status})
	}
	writeJSON(w, http.StatusOK, infos)
}
