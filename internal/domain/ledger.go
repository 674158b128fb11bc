package domain

// Ledger is the single source of truth for account balances and the
// transaction log. It is the only component permitted to mutate either;
// services reach storage exclusively through it.
type Ledger interface {
	Accounts() AccountRepository
	Transactions() TransactionRepository
	// WithTransaction runs fn inside one storage transaction. Everything
	// fn does through the passed Ledger commits or rolls back as a unit.
	WithTransaction(fn func(Ledger) error) error
}
