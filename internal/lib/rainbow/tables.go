package rainbow

import "time"

// CurrencyStats is the stat table: the monetary facts for one symbol
// scope. At most one row exists per scope and its key is the supply
// symbol code.
type CurrencyStats struct {
	Supply    Asset
	MaxSupply Asset
	Issuer    Name
}

func (s CurrencyStats) Code() SymbolCode { return s.Supply.Symbol.Code }

// CurrencyConfig is the configs singleton: policy for one symbol scope.
// It is created atomically with CurrencyStats and destroyed only by
// approve(reject_and_clear) while supply is zero.
type CurrencyConfig struct {
	MembershipMgr     MembershipPolicy
	WithdrawalMgr     Name
	WithdrawTo        Name
	FreezeMgr         Name
	RedeemLockedUntil time.Time
	ConfigLockedUntil time.Time
	TransfersFrozen   bool
	Approved          bool
}

// CurrencyDisplay is the displays singleton: presentation metadata with no
// effect on ledger semantics.
type CurrencyDisplay struct {
	Name       string
	Logo       string
	LogoLarge  string
	WebLink    string
	Background string
	JSONMeta   string
}

// StakeStats is one stakes row: a staking relationship binding the scope
// symbol to a collateral token held by an escrow account.
type StakeStats struct {
	Index              uint64
	TokenBucket        Asset
	StakePerBucket     Asset
	StakeTokenContract Name
	StakeTo            StakeTarget
	Deferred           bool
	Proportional       bool
}

// StakeKey is the u128 secondary key (spb.symbol.raw << 64) | contract,
// unique within a scope.
type StakeKey struct {
	SymbolRaw uint64
	Contract  Name
}

func (s StakeStats) Key() StakeKey {
	return StakeKey{SymbolRaw: s.StakePerBucket.Symbol.Raw(), Contract: s.StakeTokenContract}
}

// Account is one balance row, scoped per owner and keyed by symbol code.
// RAMPayer is fixed when the row is created and never changes.
type Account struct {
	Balance  Asset
	RAMPayer Name
}

// AccountBalance pairs an owner with their balance row for scope-wide
// queries (supply reconciliation, the daemon API).
type AccountBalance struct {
	Owner   Name
	Account Account
}
