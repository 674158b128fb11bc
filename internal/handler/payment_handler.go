package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
	"ebuspay/internal/service"
)

type PaymentHandler struct {
	reconciliation *service.ReconciliationService
	accountService *service.AccountService
}

func NewPaymentHandler(reconciliation *service.ReconciliationService, accountService *service.AccountService) *PaymentHandler {
	return &PaymentHandler{
		reconciliation: reconciliation,
		accountService: accountService,
	}
}

type InitializeRequest struct {
	AccountID string `json:"account_id"`
	Amount    string `json:"amount"`
	Purpose   string `json:"purpose"`
	Email     string `json:"email,omitempty"`
}

func (h *PaymentHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	var req InitializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	purpose, err := domain.ParsePurpose(req.Purpose)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "purpose must be deposit or service"))
		return
	}

	result, err := h.reconciliation.Initialize(r.Context(), &service.InitializeIntentRequest{
		AccountID: req.AccountID,
		Amount:    amount,
		Purpose:   purpose,
		Email:     req.Email,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

type VerifyRequest struct {
	Reference string `json:"reference"`
}

type VerifyResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Balance   string `json:"balance"`
}

func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}
	if req.Reference == "" {
		writeError(w, errors.NewAppError(errors.InvalidInput, "reference is required"))
		return
	}

	result, err := h.reconciliation.Verify(r.Context(), req.Reference)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, VerifyResponse{
		Reference: result.Reference,
		Status:    string(result.Status),
		Balance:   result.Balance.String(),
	})
}

type DebitRequest struct {
	AccountID   string `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

type DebitResponse struct {
	Reference string `json:"reference"`
	Balance   string `json:"balance"`
}

func (h *PaymentHandler) Debit(w http.ResponseWriter, r *http.Request) {
	var req DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	result, err := h.accountService.Pay(req.AccountID, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, DebitResponse{
		Reference: result.Reference,
		Balance:   result.Balance.String(),
	})
}

type TransferRequest struct {
	SourceAccountID      string `json:"source_account_id"`
	DestinationAccountID string `json:"destination_account_id"`
	Amount               string `json:"amount"`
	Description          string `json:"description"`
}

type TransferResponse struct {
	Reference     string `json:"reference"`
	SourceBalance string `json:"source_balance"`
}

func (h *PaymentHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.NewAppError(errors.InvalidInput, "invalid request body").WithDetails(err.Error()))
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeError(w, errors.NewAppError(errors.InvalidAmount, "invalid amount format").WithDetails(err.Error()))
		return
	}

	result, err := h.accountService.Transfer(req.SourceAccountID, req.DestinationAccountID, amount, req.Description)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransferResponse{
		Reference:     result.Reference,
		SourceBalance: result.SourceBalance.String(),
	})
}
