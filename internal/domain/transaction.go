package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s TransactionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

type TransactionType string

const (
	TypeDeposit        TransactionType = "deposit"
	TypeWithdrawal     TransactionType = "withdrawal"
	TypeServicePayment TransactionType = "service-payment"
	TypeTransfer       TransactionType = "transfer"
)

// Transaction is one ledger entry. Reference is the idempotency key: it is
// unique across all transactions for all time, and a completed transaction
// is immutable thereafter.
type Transaction struct {
	ID          uuid.UUID         `json:"id"`
	AccountID   uuid.UUID         `json:"account_id"`
	Reference   string            `json:"reference"`
	Type        TransactionType   `json:"type"`
	Amount      decimal.Decimal   `json:"amount"`
	Status      TransactionStatus `json:"status"`
	Description string            `json:"description"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

type TransactionRepository interface {
	// CreateTransaction inserts the entry. The reference unique constraint
	// is checked by the insert itself; a collision is reported as
	// errors.ErrDuplicateReference.
	CreateTransaction(tx *Transaction) error
	GetTransactionByReference(reference string) (*Transaction, error)
	// GetTransactionByReferenceForUpdate locks the entry row for the
	// duration of the enclosing store transaction.
	GetTransactionByReferenceForUpdate(reference string) (*Transaction, error)
	ListTransactionsByAccount(accountID uuid.UUID, limit int) ([]Transaction, error)
	UpdateTransactionStatus(id uuid.UUID, status TransactionStatus) error
}
