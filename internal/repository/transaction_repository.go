package repository

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
)

type transactionRepository struct {
	db     SQLExecutor
	logger *slog.Logger
}

const transactionColumns = `id, account_id, reference, type, amount, status, description, created_at, updated_at`

// CreateTransaction inserts the ledger entry. The unique index on reference
// is the anti-double-processing guard: a concurrent insert with the same
// reference loses the race at the database, not in application code.
func (r *transactionRepository) CreateTransaction(tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions
		(id, account_id, reference, type, amount, status, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	now := time.Now().UTC()

	_, err := r.db.Exec(
		query,
		tx.ID,
		tx.AccountID,
		tx.Reference,
		string(tx.Type),
		tx.Amount.String(),
		string(tx.Status),
		tx.Description,
		now,
		now,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			if pqErr.Constraint == "idx_transactions_reference" {
				r.logger.Warn("Duplicate payment reference", "reference", tx.Reference)
				return errors.ErrDuplicateReference
			}
			// A collision on any other unique constraint (the id primary
			// key) is not a reference replay and must not read like one.
			r.logger.Error("Unique constraint violation on transaction insert",
				"transaction_id", tx.ID, "constraint", pqErr.Constraint)
			return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(pqErr.Error())
		}
		r.logger.Error("Failed to create transaction",
			"account_id", tx.AccountID,
			"reference", tx.Reference,
			"amount", tx.Amount,
			"error", err)
		return errors.NewAppError(errors.InternalError, "failed to create transaction").WithDetails(err.Error())
	}

	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.logger.Info("Transaction created",
		"transaction_id", tx.ID, "reference", tx.Reference, "status", tx.Status)
	return nil
}

func (r *transactionRepository) GetTransactionByReference(reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`

	return r.scanTransaction(r.db.QueryRow(query, reference))
}

func (r *transactionRepository) GetTransactionByReferenceForUpdate(reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1 FOR UPDATE`

	return r.scanTransaction(r.db.QueryRow(query, reference))
}

func (r *transactionRepository) scanTransaction(row *sql.Row) (*domain.Transaction, error) {
	var tx domain.Transaction
	var amountStr, txType, status string

	err := row.Scan(
		&tx.ID,
		&tx.AccountID,
		&tx.Reference,
		&txType,
		&amountStr,
		&status,
		&tx.Description,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get transaction", "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to get transaction").WithDetails(err.Error())
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
	}
	tx.Amount = amount
	tx.Type = domain.TransactionType(txType)
	tx.Status = domain.TransactionStatus(status)

	return &tx, nil
}

func (r *transactionRepository) ListTransactionsByAccount(accountID uuid.UUID, limit int) ([]domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(query, accountID, limit)
	if err != nil {
		r.logger.Error("Failed to list transactions", "account_id", accountID, "error", err)
		return nil, errors.NewAppError(errors.InternalError, "failed to list transactions").WithDetails(err.Error())
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var tx domain.Transaction
		var amountStr, txType, status string

		if err := rows.Scan(
			&tx.ID,
			&tx.AccountID,
			&tx.Reference,
			&txType,
			&amountStr,
			&status,
			&tx.Description,
			&tx.CreatedAt,
			&tx.UpdatedAt,
		); err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to scan transaction").WithDetails(err.Error())
		}

		amount, err := decimal.NewFromString(amountStr)
		if err != nil {
			return nil, errors.NewAppError(errors.InternalError, "failed to parse amount").WithDetails(err.Error())
		}
		tx.Amount = amount
		tx.Type = domain.TransactionType(txType)
		tx.Status = domain.TransactionStatus(status)

		transactions = append(transactions, tx)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.NewAppError(errors.InternalError, "failed to iterate transactions").WithDetails(err.Error())
	}

	return transactions, nil
}

func (r *transactionRepository) UpdateTransactionStatus(id uuid.UUID, status domain.TransactionStatus) error {
	query := `UPDATE transactions SET status = $1, updated_at = $2 WHERE id = $3`

	_, err := r.db.Exec(query, string(status), time.Now().UTC(), id)
	if err != nil {
		r.logger.Error("Failed to update transaction status",
			"transaction_id", id, "status", status, "error", err)
		return errors.NewAppError(errors.InternalError, "failed to update transaction status").WithDetails(err.Error())
	}

	r.logger.Info("Transaction status updated", "transaction_id", id, "status", status)
	return nil
}
