package repository

import (
	"database/sql"
	"log/slog"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
)

// SQLExecutor is the subset of database/sql shared by *sql.DB and *sql.Tx,
// letting the repositories run against either.
type SQLExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// Store is the Postgres-backed ledger. It satisfies domain.Ledger and is
// the only component that touches the accounts and transactions tables.
type Store struct {
	executor SQLExecutor
	logger   *slog.Logger
}

func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{
		executor: db,
		logger:   logger,
	}
}

var _ domain.Ledger = (*Store)(nil)

func (s *Store) Accounts() domain.AccountRepository {
	return &accountRepository{db: s.executor, logger: s.logger}
}

func (s *Store) Transactions() domain.TransactionRepository {
	return &transactionRepository{db: s.executor, logger: s.logger}
}

// WithTransaction executes fn inside a database transaction. Row locks taken
// by the ForUpdate lookups are held until commit, which is what serializes
// concurrent settlements and debits on the same account.
func (s *Store) WithTransaction(fn func(domain.Ledger) error) error {
	db, ok := s.executor.(*sql.DB)
	if !ok {
		return errors.ErrCannotBeginTransaction
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.NewAppError(errors.InternalError, "failed to begin transaction").WithDetails(err.Error())
	}

	txStore := &Store{executor: tx, logger: s.logger}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.NewAppError(errors.InternalError, "failed to commit transaction").WithDetails(err.Error())
	}
	return nil
}
