package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"ebuspay/internal/domain"
	"ebuspay/internal/errors"
	"ebuspay/internal/gateway"
)

// memLedger is an in-memory domain.Ledger for unit tests. WithTransaction
// serializes on one mutex, which mirrors the per-account serialization the
// Postgres store gets from row locks.
type memLedger struct {
	mu           sync.Mutex
	accounts     map[uuid.UUID]*domain.Account
	transactions map[string]*domain.Transaction
	seq          int64
}

func newMemLedger() *memLedger {
	return &memLedger{
		accounts:     make(map[uuid.UUID]*domain.Account),
		transactions: make(map[string]*domain.Transaction),
	}
}

func (l *memLedger) Accounts() domain.AccountRepository {
	return &memAccounts{l: l, lock: true}
}

func (l *memLedger) Transactions() domain.TransactionRepository {
	return &memTransactions{l: l, lock: true}
}

func (l *memLedger) WithTransaction(fn func(domain.Ledger) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(&lockedLedger{l: l})
}

// lockedLedger is the view handed to WithTransaction callbacks; the caller
// already holds the mutex.
type lockedLedger struct {
	l *memLedger
}

func (t *lockedLedger) Accounts() domain.AccountRepository {
	return &memAccounts{l: t.l, lock: false}
}

func (t *lockedLedger) Transactions() domain.TransactionRepository {
	return &memTransactions{l: t.l, lock: false}
}

func (t *lockedLedger) WithTransaction(fn func(domain.Ledger) error) error {
	return fn(t)
}

type memAccounts struct {
	l    *memLedger
	lock bool
}

func (r *memAccounts) acquire() func() {
	if !r.lock {
		return func() {}
	}
	r.l.mu.Lock()
	return r.l.mu.Unlock
}

func (r *memAccounts) CreateAccount(account *domain.Account) error {
	defer r.acquire()()
	if _, ok := r.l.accounts[account.ID]; ok {
		return errors.ErrDuplicateAccount
	}
	copied := *account
	copied.CreatedAt = time.Now().UTC()
	copied.UpdatedAt = copied.CreatedAt
	r.l.accounts[account.ID] = &copied
	return nil
}

func (r *memAccounts) GetAccount(id uuid.UUID) (*domain.Account, error) {
	defer r.acquire()()
	account, ok := r.l.accounts[id]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *memAccounts) GetAccountForUpdate(id uuid.UUID) (*domain.Account, error) {
	return r.GetAccount(id)
}

func (r *memAccounts) UpdateAccountBalance(id uuid.UUID, newBalance decimal.Decimal) error {
	defer r.acquire()()
	account, ok := r.l.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Balance = newBalance
	account.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memAccounts) DeactivateAccount(id uuid.UUID) error {
	defer r.acquire()()
	account, ok := r.l.accounts[id]
	if !ok {
		return errors.ErrAccountNotFound
	}
	account.Active = false
	return nil
}

type memTransactions struct {
	l    *memLedger
	lock bool
}

func (r *memTransactions) acquire() func() {
	if !r.lock {
		return func() {}
	}
	r.l.mu.Lock()
	return r.l.mu.Unlock
}

func (r *memTransactions) CreateTransaction(tx *domain.Transaction) error {
	defer r.acquire()()
	if _, ok := r.l.transactions[tx.Reference]; ok {
		return errors.ErrDuplicateReference
	}
	r.l.seq++
	copied := *tx
	copied.CreatedAt = time.Unix(r.l.seq, 0).UTC()
	copied.UpdatedAt = copied.CreatedAt
	r.l.transactions[tx.Reference] = &copied
	return nil
}

func (r *memTransactions) GetTransactionByReference(reference string) (*domain.Transaction, error) {
	defer r.acquire()()
	tx, ok := r.l.transactions[reference]
	if !ok {
		return nil, nil
	}
	copied := *tx
	return &copied, nil
}

func (r *memTransactions) GetTransactionByReferenceForUpdate(reference string) (*domain.Transaction, error) {
	return r.GetTransactionByReference(reference)
}

func (r *memTransactions) ListTransactionsByAccount(accountID uuid.UUID, limit int) ([]domain.Transaction, error) {
	defer r.acquire()()
	var result []domain.Transaction
	for _, tx := range r.l.transactions {
		if tx.AccountID == accountID {
			result = append(result, *tx)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *memTransactions) UpdateTransactionStatus(id uuid.UUID, status domain.TransactionStatus) error {
	defer r.acquire()()
	for _, tx := range r.l.transactions {
		if tx.ID == id {
			tx.Status = status
			tx.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return errors.ErrTransactionNotFound
}

// fakeGateway scripts gateway behavior per reference.
type fakeGateway struct {
	mu sync.Mutex

	initErr     error
	verifyErr   error
	outcomes    map[string]gateway.VerifyOutcome
	amounts     map[string]decimal.Decimal
	initCalls   int
	verifyCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		outcomes: make(map[string]gateway.VerifyOutcome),
		amounts:  make(map[string]decimal.Decimal),
	}
}

func (g *fakeGateway) confirm(reference string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[reference] = gateway.OutcomeSuccess
	g.amounts[reference] = amount
}

func (g *fakeGateway) decline(reference string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outcomes[reference] = gateway.OutcomeFailure
	g.amounts[reference] = decimal.Zero
}

func (g *fakeGateway) Initialize(_ context.Context, req gateway.InitializeRequest) (*gateway.InitializeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.initCalls++
	if g.initErr != nil {
		return nil, g.initErr
	}
	return &gateway.InitializeResult{
		Reference:        req.Reference,
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
	}, nil
}

func (g *fakeGateway) Verify(_ context.Context, reference string) (*gateway.VerifyResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	outcome, ok := g.outcomes[reference]
	if !ok {
		return nil, errors.ErrGatewayUnavailable
	}
	return &gateway.VerifyResult{
		Reference: reference,
		Outcome:   outcome,
		Amount:    g.amounts[reference],
		PaidAt:    time.Now().UTC(),
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
