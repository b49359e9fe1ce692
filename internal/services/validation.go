package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ruralpay/accountledger/internal/models"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	ErrorCode    models.ErrorCode  `json:"errorCode"`
	ErrorMessage string            `json:"errorMessage"`
	Details      map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// RegisterAmountBounds adds the "amount" tag, accepting values in [minAmount, maxAmount]
func (vh *ValidationHelper) RegisterAmountBounds(minAmount, maxAmount int64) error {
	if minAmount > maxAmount {
		return fmt.Errorf("invalid amount bounds: min %d exceeds max %d", minAmount, maxAmount)
	}
	if err := vh.validator.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		v := fl.Field().Int()
		return v >= minAmount && v <= maxAmount
	}); err != nil {
		return fmt.Errorf("failed to register amount validation: %w", err)
	}
	return nil
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, code models.ErrorCode, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{ErrorCode: code, ErrorMessage: message}
	var validationErrors validator.ValidationErrors
	if errors.As(validationErr, &validationErrors) {
		errorResp.Details = make(map[string]string)
		for _, err := range validationErrors {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}

// SendError maps err onto its HTTP status and writes it. Errors outside the
// ledger taxonomy are logged by the caller and reported as internal errors.
func SendError(w http.ResponseWriter, err error) {
	code, ok := models.CodeOf(err)
	if !ok {
		SendErrorResponse(w, models.InternalServerError, models.InternalServerError.Description(), http.StatusInternalServerError, nil)
		return
	}
	SendErrorResponse(w, code, code.Description(), StatusFor(code), nil)
}

// StatusFor returns the HTTP status of an error code
func StatusFor(code models.ErrorCode) int {
	switch code {
	case models.UserNotFound, models.AccountNotFound, models.TransactionNotFound:
		return http.StatusNotFound
	case models.UserAccountMismatch, models.TransactionAccountMismatch, models.Unauthorized:
		return http.StatusForbidden
	case models.LockUnavailable:
		return http.StatusConflict
	case models.InternalServerError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
