package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Account struct {
	ID        uuid.UUID       `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type AccountRepository interface {
	CreateAccount(account *Account) error
	GetAccount(id uuid.UUID) (*Account, error)
	// GetAccountForUpdate locks the account row for the duration of the
	// enclosing store transaction. Balance read-modify-write must go
	// through this, never through GetAccount.
	GetAccountForUpdate(id uuid.UUID) (*Account, error)
	UpdateAccountBalance(id uuid.UUID, newBalance decimal.Decimal) error
	DeactivateAccount(id uuid.UUID) error
}
