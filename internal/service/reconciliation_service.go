package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
	"ebuspay/internal/gateway"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// ReconciliationService owns the pending→terminal lifecycle of payment
// references. It guarantees at most one balance effect per reference no
// matter how many times, or how concurrently, verification is attempted.
type ReconciliationService struct {
	ledger        domain.Ledger
	gateway       gateway.Client
	minimumCharge decimal.Decimal
	tolerance     decimal.Decimal
	logger        *slog.Logger
}

func NewReconciliationService(
	ledger domain.Ledger,
	gatewayClient gateway.Client,
	minimumCharge decimal.Decimal,
	tolerance decimal.Decimal,
	logger *slog.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		ledger:        ledger,
		gateway:       gatewayClient,
		minimumCharge: minimumCharge,
		tolerance:     tolerance,
		logger:        logger,
	}
}

type InitializeIntentRequest struct {
	AccountID string
	Amount    decimal.Decimal
	Purpose   domain.IntentPurpose
	Email     string
}

type InitializeIntentResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url,omitempty"`
}

type VerifyIntentResult struct {
	Reference string                   `json:"reference"`
	Status    domain.TransactionStatus `json:"status"`
	Balance   decimal.Decimal          `json:"balance"`
}

// Initialize records a pending intent and hands back the reference the
// caller completes payment against.
func (s *ReconciliationService) Initialize(ctx context.Context, req *InitializeIntentRequest) (*InitializeIntentResult, error) {
	s.logger.Info("Initializing payment intent",
		"account_id", req.AccountID, "amount", req.Amount, "purpose", req.Purpose)

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		return nil, errors.ErrInvalidAccountID
	}

	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, errors.ErrInvalidAmount
	}
	// The gateway wire format is integer kobo; anything finer than two
	// decimal places would be truncated in transit and could never match
	// the recorded intent on verification.
	if !req.Amount.Mul(minorUnitsPerMajor).IsInteger() {
		return nil, errors.NewAppError(errors.InvalidAmount,
			"amount cannot have more than two decimal places")
	}
	if req.Amount.LessThan(s.minimumCharge) {
		return nil, errors.NewAppErrorf(errors.InvalidAmount,
			"amount is below the minimum charge of %s", s.minimumCharge)
	}

	account, err := s.ledger.Accounts().GetAccount(accountID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, errors.NewAppError(errors.InvalidInput, "account is deactivated")
	}

	reference := domain.NewReference(referencePrefix(req.Purpose))

	email := req.Email
	if email == "" {
		email = fmt.Sprintf("%s@wallet.ebuspay.app", accountID)
	}

	// The gateway call happens before anything is persisted: if it fails,
	// no pending intent is left behind that can never settle.
	gwResult, err := s.gateway.Initialize(ctx, gateway.InitializeRequest{
		Email:     email,
		Amount:    req.Amount,
		Reference: reference,
	})
	if err != nil {
		s.logger.Warn("Gateway initialize failed", "reference", reference, "error", err)
		return nil, err
	}

	intent := &domain.Transaction{
		ID:          uuid.New(),
		AccountID:   accountID,
		Reference:   reference,
		Type:        req.Purpose.TransactionType(),
		Amount:      req.Amount,
		Status:      domain.StatusPending,
		Description: fmt.Sprintf("%s via paystack", req.Purpose),
	}
	if err := s.ledger.Transactions().CreateTransaction(intent); err != nil {
		return nil, err
	}

	s.logger.Info("Payment intent recorded", "reference", reference, "transaction_id", intent.ID)
	return &InitializeIntentResult{
		Reference:        reference,
		AuthorizationURL: gwResult.AuthorizationURL,
	}, nil
}

// Verify drives one reference to its terminal state. The gateway call runs
// before the settle transaction so no row lock is ever held across the
// network; the settle itself re-checks status under lock, which makes
// concurrent and repeated verification of the same reference safe.
func (s *ReconciliationService) Verify(ctx context.Context, reference string) (*VerifyIntentResult, error) {
	s.logger.Info("Verifying payment", "reference", reference)

	tx, err := s.ledger.Transactions().GetTransactionByReference(reference)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, errors.ErrTransactionNotFound
	}

	if tx.Status.Terminal() {
		return s.cachedOutcome(tx)
	}

	gwResult, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		// Reference stays pending; the caller may retry any number of
		// times without risk.
		s.logger.Warn("Gateway verify failed", "reference", reference, "error", err)
		return nil, err
	}

	var (
		status     domain.TransactionStatus
		balance    decimal.Decimal
		mismatched bool
	)

	err = s.ledger.WithTransaction(func(l domain.Ledger) error {
		locked, err := l.Transactions().GetTransactionByReferenceForUpdate(reference)
		if err != nil {
			return err
		}
		if locked == nil {
			return errors.ErrTransactionNotFound
		}

		if locked.Status.Terminal() {
			// A concurrent verify settled first. Observe, don't touch.
			account, err := l.Accounts().GetAccount(locked.AccountID)
			if err != nil {
				return err
			}
			status = locked.Status
			balance = account.Balance
			return nil
		}

		if gwResult.Outcome != gateway.OutcomeSuccess {
			if err := l.Transactions().UpdateTransactionStatus(locked.ID, domain.StatusFailed); err != nil {
				return err
			}
			account, err := l.Accounts().GetAccount(locked.AccountID)
			if err != nil {
				return err
			}
			status = domain.StatusFailed
			balance = account.Balance
			return nil
		}

		if gwResult.Amount.Sub(locked.Amount).Abs().GreaterThan(s.tolerance) {
			s.logger.Warn("Gateway amount mismatch",
				"reference", reference,
				"expected", locked.Amount,
				"reported", gwResult.Amount)
			// The failed transition must commit even though the caller
			// gets an error, so it is flagged rather than returned here.
			if err := l.Transactions().UpdateTransactionStatus(locked.ID, domain.StatusFailed); err != nil {
				return err
			}
			mismatched = true
			status = domain.StatusFailed
			return nil
		}

		account, err := l.Accounts().GetAccountForUpdate(locked.AccountID)
		if err != nil {
			return err
		}

		newBalance := account.Balance.Add(locked.Amount)
		if err := l.Accounts().UpdateAccountBalance(account.ID, newBalance); err != nil {
			return err
		}
		if err := l.Transactions().UpdateTransactionStatus(locked.ID, domain.StatusCompleted); err != nil {
			return err
		}

		status = domain.StatusCompleted
		balance = newBalance
		return nil
	})
	if err != nil {
		return nil, err
	}
	if mismatched {
		return nil, errors.ErrAmountMismatch
	}

	s.logger.Info("Payment settled", "reference", reference, "status", status, "balance", balance)
	return &VerifyIntentResult{
		Reference: reference,
		Status:    status,
		Balance:   balance,
	}, nil
}

func (s *ReconciliationService) cachedOutcome(tx *domain.Transaction) (*VerifyIntentResult, error) {
	account, err := s.ledger.Accounts().GetAccount(tx.AccountID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Returning settled outcome for reference",
		"reference", tx.Reference, "status", tx.Status)
	return &VerifyIntentResult{
		Reference: tx.Reference,
		Status:    tx.Status,
		Balance:   account.Balance,
	}, nil
}

func referencePrefix(purpose domain.IntentPurpose) string {
	if purpose == domain.PurposeService {
		return "SVC"
	}
	return "DEP"
}
