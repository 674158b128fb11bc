package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	AccountNotFound     ErrorCode = "account_not_found"
	TransactionNotFound ErrorCode = "transaction_not_found"
	DuplicateAccount    ErrorCode = "duplicate_account"
	DuplicateReference  ErrorCode = "duplicate_reference"
	AlreadySettled      ErrorCode = "already_settled"
	AmountMismatch      ErrorCode = "amount_mismatch"
	InsufficientBalance ErrorCode = "insufficient_balance"
	GatewayUnavailable  ErrorCode = "gateway_unavailable"
	InvalidInput        ErrorCode = "invalid_input"
	InvalidAmount       ErrorCode = "invalid_amount"
	InternalError       ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// HTTPStatus maps the stable error code to the status the API reports.
// GatewayUnavailable is the only retryable code.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case AccountNotFound, TransactionNotFound:
		return http.StatusNotFound
	case DuplicateAccount, DuplicateReference, AlreadySettled:
		return http.StatusConflict
	case AmountMismatch, InsufficientBalance:
		return http.StatusUnprocessableEntity
	case GatewayUnavailable:
		return http.StatusServiceUnavailable
	case InvalidInput, InvalidAmount:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrAccountNotFound     = NewAppError(AccountNotFound, "account not found")
	ErrTransactionNotFound = NewAppError(TransactionNotFound, "no transaction recorded for reference")
	ErrDuplicateAccount    = NewAppError(DuplicateAccount, "account already exists")
	ErrDuplicateReference  = NewAppError(DuplicateReference, "payment reference already recorded")
	ErrAlreadySettled      = NewAppError(AlreadySettled, "payment reference already settled")
	ErrAmountMismatch      = NewAppError(AmountMismatch, "gateway amount does not match recorded intent")
	ErrInsufficientBalance = NewAppError(InsufficientBalance, "insufficient balance")
	ErrGatewayUnavailable  = NewAppError(GatewayUnavailable, "payment gateway unavailable, retry later")
	ErrInvalidAmount       = NewAppError(InvalidAmount, "amount must be positive")
	ErrInvalidAccountID    = NewAppError(InvalidInput, "invalid account id")

	ErrCannotBeginTransaction = NewAppError(InternalError, "store is already inside a transaction")
)
