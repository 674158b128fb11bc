package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"ebuspay/internal/errors"
	"ebuspay/internal/service"
)

type AccountHandler struct {
	accountService *service.AccountService
}

func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

type AccountResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Active    bool   `json:"active"`
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accountService.CreateAccount()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, AccountResponse{
		AccountID: account.ID.String(),
		Balance:   account.Balance.String(),
		Active:    account.Active,
	})
}

func (h *AccountHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	if err := h.accountService.Deactivate(vars["account_id"]); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"account_id": vars["account_id"], "active": "false"})
}

func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	account, err := h.accountService.GetAccount(vars["account_id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"account_id": account.ID.String(),
		"balance":    account.Balance.String(),
	})
}

type TransactionResponse struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Status      string `json:"status"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

func (h *AccountHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, errors.NewAppError(errors.InvalidInput, "limit must be an integer"))
			return
		}
		limit = parsed
	}

	transactions, err := h.accountService.History(vars["account_id"], limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response := make([]TransactionResponse, 0, len(transactions))
	for _, tx := range transactions {
		response = append(response, TransactionResponse{
			ID:          tx.ID.String(),
			Reference:   tx.Reference,
			Type:        string(tx.Type),
			Amount:      tx.Amount.String(),
			Status:      string(tx.Status),
			Description: tx.Description,
			CreatedAt:   tx.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
