package repository

import (
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
)

// stubExecutor returns a scripted error from Exec so the driver-error
// translation can be exercised without a database.
type stubExecutor struct {
	execErr error
}

func (s *stubExecutor) Exec(query string, args ...interface{}) (sql.Result, error) {
	return nil, s.execErr
}

func (s *stubExecutor) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return nil, sql.ErrConnDone
}

func (s *stubExecutor) QueryRow(query string, args ...interface{}) *sql.Row {
	return nil
}

func newPendingEntry() *domain.Transaction {
	return &domain.Transaction{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Reference: "DEP-test",
		Type:      domain.TypeDeposit,
		Amount:    decimal.RequireFromString("500"),
		Status:    domain.StatusPending,
	}
}

func TestCreateTransactionTranslatesReferenceCollision(t *testing.T) {
	repo := &transactionRepository{
		db: &stubExecutor{execErr: &pq.Error{
			Code:       "23505",
			Constraint: "idx_transactions_reference",
		}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := repo.CreateTransaction(newPendingEntry())
	assert.Equal(t, errors.ErrDuplicateReference, err)
}

func TestCreateTransactionIDCollisionIsNotDuplicateReference(t *testing.T) {
	repo := &transactionRepository{
		db: &stubExecutor{execErr: &pq.Error{
			Code:       "23505",
			Constraint: "transactions_pkey",
		}},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := repo.CreateTransaction(newPendingEntry())
	require.Error(t, err)
	assert.NotEqual(t, errors.ErrDuplicateReference, err)

	appErr, ok := err.(*errors.AppError)
	require.True(t, ok)
	assert.Equal(t, errors.InternalError, appErr.Code)
}
