package rainbow

import "errors"

// Store owns the four logical tables. Begin opens a transaction; all
// handler mutations run inside one and become visible only on Commit, so
// a failed action (including a failed inline dispatch) leaves no trace.
type Store interface {
	Begin() (Tx, error)
	Close() error
}

// Tx is one atomic view of the tables. Implementations enforce the
// structural invariants at this boundary: at most one stat row per scope,
// singleton config/display, unique stakes secondary key, no removal of a
// non-zero balance row.
type Tx interface {
	Stats(code SymbolCode) (CurrencyStats, bool, error)
	PutStats(st CurrencyStats) error
	EraseStats(code SymbolCode) error

	Config(code SymbolCode) (CurrencyConfig, bool, error)
	PutConfig(code SymbolCode, cfg CurrencyConfig) error
	EraseConfig(code SymbolCode) error

	Display(code SymbolCode) (CurrencyDisplay, bool, error)
	PutDisplay(code SymbolCode, d CurrencyDisplay) error
	EraseDisplay(code SymbolCode) error

	// Stakes returns the scope's rows in primary-key order.
	Stakes(code SymbolCode) ([]StakeStats, error)
	StakeByKey(code SymbolCode, key StakeKey) (StakeStats, bool, error)
	// InsertStake assigns and returns the next primary key.
	InsertStake(code SymbolCode, row StakeStats) (uint64, error)
	UpdateStake(code SymbolCode, row StakeStats) error
	EraseStake(code SymbolCode, index uint64) error
	EraseStakes(code SymbolCode) error

	Account(owner Name, code SymbolCode) (Account, bool, error)
	PutAccount(owner Name, acct Account) error
	EraseAccount(owner Name, code SymbolCode) error
	// AccountsBySymbol returns every balance row in the scope.
	AccountsBySymbol(code SymbolCode) ([]AccountBalance, error)
	// AccountsByOwner returns every balance row the owner holds.
	AccountsByOwner(owner Name) ([]Account, error)

	// Symbols lists every scope with a stat row.
	Symbols() ([]SymbolCode, error)

	Commit() error
	Rollback() error
}

// Structural-invariant violations surfaced by stores.
var (
	ErrDuplicateStakeKey = errors.New("stake token already present in stakes table")
	ErrAccountNotEmpty   = errors.New("cannot remove account with non-zero balance")
	ErrStakeRowMissing   = errors.New("stake row does not exist")
)
