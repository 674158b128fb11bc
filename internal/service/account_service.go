package service

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200
)

// AccountService handles balance and history reads plus internal spends
// that never touch the payment gateway.
type AccountService struct {
	ledger domain.Ledger
	logger *slog.Logger
}

func NewAccountService(ledger domain.Ledger, logger *slog.Logger) *AccountService {
	return &AccountService{
		ledger: ledger,
		logger: logger,
	}
}

func (s *AccountService) CreateAccount() (*domain.Account, error) {
	account := &domain.Account{
		ID:      uuid.New(),
		Balance: decimal.Zero,
		Active:  true,
	}

	if err := s.ledger.Accounts().CreateAccount(account); err != nil {
		return nil, err
	}

	s.logger.Info("Account opened", "account_id", account.ID)
	return account, nil
}

func (s *AccountService) GetAccount(accountID string) (*domain.Account, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, errors.ErrInvalidAccountID
	}

	return s.ledger.Accounts().GetAccount(id)
}

// Deactivate closes the wallet without deleting it; the transaction log
// keeps referencing the account forever.
func (s *AccountService) Deactivate(accountID string) error {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return errors.ErrInvalidAccountID
	}

	if err := s.ledger.Accounts().DeactivateAccount(id); err != nil {
		return err
	}

	s.logger.Info("Account deactivated", "account_id", id)
	return nil
}

func (s *AccountService) History(accountID string, limit int) ([]domain.Transaction, error) {
	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, errors.ErrInvalidAccountID
	}

	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}

	// Existence check first so an unknown account is a 404, not an empty
	// list.
	if _, err := s.ledger.Accounts().GetAccount(id); err != nil {
		return nil, err
	}

	return s.ledger.Transactions().ListTransactionsByAccount(id, limit)
}

type DebitResult struct {
	Reference string          `json:"reference"`
	Balance   decimal.Decimal `json:"balance"`
}

// Pay spends from the wallet for a service purchase. The balance check,
// decrement and ledger append commit as one unit; concurrent debits contend
// on the account row lock and can never drive the balance negative.
func (s *AccountService) Pay(accountID string, amount decimal.Decimal, description string) (*DebitResult, error) {
	return s.debit(accountID, amount, domain.TypeServicePayment, "PAY", description)
}

// Withdraw moves wallet funds out of the system.
func (s *AccountService) Withdraw(accountID string, amount decimal.Decimal, description string) (*DebitResult, error) {
	return s.debit(accountID, amount, domain.TypeWithdrawal, "WDR", description)
}

func (s *AccountService) debit(accountID string, amount decimal.Decimal, txType domain.TransactionType, prefix, description string) (*DebitResult, error) {
	s.logger.Info("Processing debit",
		"account_id", accountID, "amount", amount, "type", txType)

	id, err := uuid.Parse(accountID)
	if err != nil {
		return nil, errors.ErrInvalidAccountID
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, errors.ErrInvalidAmount
	}

	reference := domain.NewReference(prefix)
	var newBalance decimal.Decimal

	err = s.ledger.WithTransaction(func(l domain.Ledger) error {
		account, err := l.Accounts().GetAccountForUpdate(id)
		if err != nil {
			return err
		}
		if !account.Active {
			return errors.NewAppError(errors.InvalidInput, "account is deactivated")
		}

		if account.Balance.LessThan(amount) {
			return errors.ErrInsufficientBalance
		}

		newBalance = account.Balance.Sub(amount)
		if err := l.Accounts().UpdateAccountBalance(id, newBalance); err != nil {
			return err
		}

		return l.Transactions().CreateTransaction(&domain.Transaction{
			ID:          uuid.New(),
			AccountID:   id,
			Reference:   reference,
			Type:        txType,
			Amount:      amount,
			Status:      domain.StatusCompleted,
			Description: description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Debit completed",
		"account_id", id, "reference", reference, "new_balance", newBalance)
	return &DebitResult{
		Reference: reference,
		Balance:   newBalance,
	}, nil
}

type TransferResult struct {
	Reference     string          `json:"reference"`
	SourceBalance decimal.Decimal `json:"source_balance"`
}

// Transfer moves funds between two wallets, recording a debit leg on the
// source and a credit leg on the destination under related references.
func (s *AccountService) Transfer(sourceID, destinationID string, amount decimal.Decimal, description string) (*TransferResult, error) {
	s.logger.Info("Processing transfer",
		"source_account_id", sourceID, "destination_account_id", destinationID, "amount", amount)

	source, err := uuid.Parse(sourceID)
	if err != nil {
		return nil, errors.ErrInvalidAccountID
	}
	destination, err := uuid.Parse(destinationID)
	if err != nil {
		return nil, errors.ErrInvalidAccountID
	}
	if source == destination {
		return nil, errors.NewAppError(errors.InvalidInput, "cannot transfer to the same account")
	}
	if amount.IsNegative() || amount.IsZero() {
		return nil, errors.ErrInvalidAmount
	}

	reference := domain.NewReference("TRF")
	var sourceBalance decimal.Decimal

	err = s.ledger.WithTransaction(func(l domain.Ledger) error {
		// Lock rows in a fixed order so two opposite transfers cannot
		// deadlock.
		first, second := source, destination
		if second.String() < first.String() {
			first, second = second, first
		}

		accounts := map[uuid.UUID]*domain.Account{}
		for _, id := range []uuid.UUID{first, second} {
			account, err := l.Accounts().GetAccountForUpdate(id)
			if err != nil {
				return err
			}
			if !account.Active {
				return errors.NewAppError(errors.InvalidInput, "account is deactivated")
			}
			accounts[id] = account
		}

		if accounts[source].Balance.LessThan(amount) {
			return errors.ErrInsufficientBalance
		}

		sourceBalance = accounts[source].Balance.Sub(amount)
		if err := l.Accounts().UpdateAccountBalance(source, sourceBalance); err != nil {
			return err
		}
		if err := l.Accounts().UpdateAccountBalance(destination, accounts[destination].Balance.Add(amount)); err != nil {
			return err
		}

		if err := l.Transactions().CreateTransaction(&domain.Transaction{
			ID:          uuid.New(),
			AccountID:   source,
			Reference:   reference,
			Type:        domain.TypeTransfer,
			Amount:      amount,
			Status:      domain.StatusCompleted,
			Description: description,
		}); err != nil {
			return err
		}
		return l.Transactions().CreateTransaction(&domain.Transaction{
			ID:          uuid.New(),
			AccountID:   destination,
			Reference:   reference + "-CR",
			Type:        domain.TypeTransfer,
			Amount:      amount,
			Status:      domain.StatusCompleted,
			Description: description,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Transfer completed",
		"reference", reference, "source_balance", sourceBalance)
	return &TransferResult{
		Reference:     reference,
		SourceBalance: sourceBalance,
	}, nil
}
