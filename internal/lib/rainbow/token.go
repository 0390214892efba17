package rainbow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/chuck-h/rainbow-go/internal/lib/misc"
)

// Token is the ledger client: every action handler runs one atomic
// transaction against the Store, resolves its required authority, and
// hands any collateral-move intents to the Host before committing.
type Token struct {
	logger *slog.Logger
	host   Host
	store  Store
}

func New(logger *slog.Logger, host Host, store Store) *Token {
	return &Token{logger: logger, host: host, store: store}
}

// exec wraps one action: stage mutations, dispatch intents, commit. Any
// error (including a failed inline transfer) rolls everything back.
func (t *Token) exec(action string, fn func(tx Tx) ([]TransferIntent, error)) (err error) {
	defer func() { countAction(action, err) }()
	tx, err := t.store.Begin()
	if err != nil {
		return fmt.Errorf("begin %s: %w", action, err)
	}
	intents, err := fn(tx)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	for _, intent := range intents {
		if derr := t.host.DispatchInline(intent); derr != nil {
			_ = tx.Rollback()
			return hostErr(derr)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", action, err)
	}
	return nil
}

func (t *Token) requireAuths(reqs []AuthRequirement) error {
	for _, r := range reqs {
		var err error
		if r.Permission.Empty() {
			err = t.host.RequireAuth(r.Actor)
		} else {
			err = t.host.RequireAuth2(r.Actor, r.Permission)
		}
		if err != nil {
			return authorizationErr("missing authority of %s: %v", r.Actor, err)
		}
	}
	return nil
}

func checkMemo(memo string) error {
	if len(memo) > MaxMemoLen {
		return validationErr("memo has more than 256 bytes")
	}
	return nil
}

// normalizeLockTime maps the empty (zero) lock to now and bounds both
// locks to a sane window around the current time.
func normalizeLockTime(tm, now time.Time, what string) (time.Time, error) {
	if tm.IsZero() {
		return now, nil
	}
	if tm.Before(now.Add(-LockPastWindow)) || tm.After(now.Add(LockFutureWindow)) {
		return time.Time{}, validationErr("%s date is out of range", what)
	}
	return tm, nil
}

func subBalance(tx Tx, owner Name, value Asset) error {
	acct, ok, err := tx.Account(owner, value.Symbol.Code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNoBalanceRow
	}
	if acct.Balance.Amount < value.Amount {
		return ErrOverdrawn
	}
	acct.Balance, err = acct.Balance.Sub(value)
	if err != nil {
		return validationErr("%v", err)
	}
	return tx.PutAccount(owner, acct)
}

func addBalance(tx Tx, owner Name, value Asset, ramPayer Name) error {
	acct, ok, err := tx.Account(owner, value.Symbol.Code)
	if err != nil {
		return err
	}
	if !ok {
		// first credit creates the row; the payer is fixed here
		return tx.PutAccount(owner, Account{Balance: value, RAMPayer: ramPayer})
	}
	acct.Balance, err = acct.Balance.Add(value)
	if err != nil {
		return validationErr("%v", err)
	}
	return tx.PutAccount(owner, acct)
}

// CreateParams carries the create action payload. Zero lock times mean
// "now", i.e. the corresponding capability is unlocked immediately.
type CreateParams struct {
	Issuer            Name
	MaxSupply         Asset
	MembershipMgr     MembershipPolicy
	WithdrawalMgr     Name
	WithdrawTo        Name
	FreezeMgr         Name
	RedeemLockedUntil time.Time
	ConfigLockedUntil time.Time
}

// Create creates a brand-new token or reconfigures an existing one. New
// symbols additionally need the contract owner's createtoken permission
// and start unapproved.
func (t *Token) Create(p CreateParams) error {
	return t.exec("create", func(tx Tx) ([]TransferIntent, error) {
		sym := p.MaxSupply.Symbol
		if !sym.IsValid() {
			return nil, validationErr("invalid symbol name")
		}
		if !p.MaxSupply.IsValid() {
			return nil, validationErr("invalid supply")
		}
		if p.MaxSupply.Amount <= 0 {
			return nil, validationErr("max-supply must be positive")
		}
		if mgr, ok := p.MembershipMgr.Manager(); ok && !t.host.AccountExists(mgr) {
			return nil, validationErr("membership_mgr account does not exist")
		}
		if !t.host.AccountExists(p.WithdrawalMgr) {
			return nil, validationErr("withdrawal_mgr account does not exist")
		}
		if !t.host.AccountExists(p.WithdrawTo) {
			return nil, validationErr("withdraw_to account does not exist")
		}
		if !t.host.AccountExists(p.FreezeMgr) {
			return nil, validationErr("freeze_mgr account does not exist")
		}
		now := t.host.Now()
		redeemUntil, err := normalizeLockTime(p.RedeemLockedUntil, now, "redeem lock")
		if err != nil {
			return nil, err
		}
		configUntil, err := normalizeLockTime(p.ConfigLockedUntil, now, "config lock")
		if err != nil {
			return nil, err
		}
		st, exists, err := tx.Stats(sym.Code)
		if err != nil {
			return nil, err
		}
		if err := t.requireAuths(CreateAuthority(p.Issuer, t.host.Self(), exists)); err != nil {
			return nil, err
		}
		if exists {
			cfg, ok, err := tx.Config(sym.Code)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, preconditionErr("token config does not exist")
			}
			if !ConfigUnlocked(cfg, now) {
				return nil, ErrConfigLocked
			}
			if st.Issuer != p.Issuer {
				return nil, preconditionErr("mismatched issuer account")
			}
			if st.Supply.Amount != 0 {
				if sym != st.Supply.Symbol {
					return nil, preconditionErr("cannot change symbol precision with outstanding supply")
				}
				if p.MaxSupply.Amount < st.Supply.Amount {
					return nil, preconditionErr("cannot reduce maximum below outstanding supply")
				}
			}
			st.Supply.Symbol = sym
			st.MaxSupply = p.MaxSupply
			cfg.MembershipMgr = p.MembershipMgr
			cfg.WithdrawalMgr = p.WithdrawalMgr
			cfg.WithdrawTo = p.WithdrawTo
			cfg.FreezeMgr = p.FreezeMgr
			cfg.RedeemLockedUntil = redeemUntil
			cfg.ConfigLockedUntil = configUntil
			if err := tx.PutStats(st); err != nil {
				return nil, err
			}
			if err := tx.PutConfig(sym.Code, cfg); err != nil {
				return nil, err
			}
			misc.Infof(t.logger, "reconfigured token %s", sym.Code)
			return nil, nil
		}
		if err := tx.PutStats(CurrencyStats{
			Supply:    Asset{Amount: 0, Symbol: sym},
			MaxSupply: p.MaxSupply,
			Issuer:    p.Issuer,
		}); err != nil {
			return nil, err
		}
		if err := tx.PutConfig(sym.Code, CurrencyConfig{
			MembershipMgr:     p.MembershipMgr,
			WithdrawalMgr:     p.WithdrawalMgr,
			WithdrawTo:        p.WithdrawTo,
			FreezeMgr:         p.FreezeMgr,
			RedeemLockedUntil: redeemUntil,
			ConfigLockedUntil: configUntil,
		}); err != nil {
			return nil, err
		}
		if err := tx.PutDisplay(sym.Code, CurrencyDisplay{}); err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "created token %s, max supply %s", sym.Code, p.MaxSupply)
		return nil, nil
	})
}

// Approve marks a token live, or with rejectAndClear tears down every row
// in the scope while supply is still zero.
func (t *Token) Approve(code SymbolCode, rejectAndClear bool) error {
	return t.exec("approve", func(tx Tx) ([]TransferIntent, error) {
		if !code.IsValid() {
			return nil, validationErr("invalid symbol code")
		}
		st, ok, err := tx.Stats(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenMissing
		}
		if err := t.requireAuths(ApproveAuthority(t.host.Self())); err != nil {
			return nil, err
		}
		if rejectAndClear {
			if st.Supply.Amount != 0 {
				return nil, preconditionErr("cannot reject token with outstanding supply")
			}
			if err := tx.EraseStakes(code); err != nil {
				return nil, err
			}
			if err := tx.EraseConfig(code); err != nil {
				return nil, err
			}
			if err := tx.EraseDisplay(code); err != nil {
				return nil, err
			}
			if err := tx.EraseStats(code); err != nil {
				return nil, err
			}
			misc.Infof(t.logger, "rejected and cleared token %s", code)
			return nil, nil
		}
		cfg, ok, err := tx.Config(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		cfg.Approved = true
		if err := tx.PutConfig(code, cfg); err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "approved token %s", code)
		return nil, nil
	})
}

// SetStakeParams carries the setstake payload. The scope symbol is the
// TokenBucket symbol.
type SetStakeParams struct {
	Issuer             Name
	TokenBucket        Asset
	StakePerBucket     Asset
	StakeTokenContract Name
	StakeTo            StakeTarget
	Deferred           bool
	Proportional       bool
	Memo               string
}

// SetStake creates, retunes, or removes one staking relationship. With
// outstanding supply the old relationship must be destaked (stake per
// bucket driven to zero, releasing escrow) before the terms can change.
func (t *Token) SetStake(p SetStakeParams) error {
	return t.exec("setstake", func(tx Tx) ([]TransferIntent, error) {
		if err := checkMemo(p.Memo); err != nil {
			return nil, err
		}
		stakeSym := p.StakePerBucket.Symbol
		if !stakeSym.IsValid() {
			return nil, validationErr("invalid stake symbol name")
		}
		if !p.StakePerBucket.IsValid() {
			return nil, validationErr("invalid stake")
		}
		if p.StakePerBucket.Amount < 0 {
			return nil, validationErr("stake per bucket must be non-negative")
		}
		if !p.TokenBucket.IsValid() || p.TokenBucket.Amount <= 0 {
			return nil, validationErr("token bucket must be positive")
		}
		if !t.host.AccountExists(p.StakeTokenContract) {
			return nil, validationErr("stake token contract account does not exist")
		}
		if escrow, ok := p.StakeTo.Escrow(); ok && !t.host.AccountExists(escrow) {
			return nil, validationErr("stake_to account does not exist")
		}
		code := p.TokenBucket.Symbol.Code
		st, ok, err := tx.Stats(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenMissing
		}
		if err := t.requireAuths(SetStakeAuthority(p.Issuer)); err != nil {
			return nil, err
		}
		cfg, ok, err := tx.Config(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		if !ConfigUnlocked(cfg, t.host.Now()) {
			return nil, ErrConfigLocked
		}
		if st.Issuer != p.Issuer {
			return nil, preconditionErr("mismatched issuer account")
		}
		if p.TokenBucket.Symbol != st.Supply.Symbol {
			return nil, validationErr("token bucket symbol precision mismatch")
		}
		// The issuer funds stakes from its own holdings of the collateral
		// token; an open (possibly zero) balance row proves the precision.
		bal, ok := t.host.TokenBalance(p.StakeTokenContract, p.Issuer, stakeSym.Code)
		if !ok {
			return nil, preconditionErr("issuer must have a balance in the stake token")
		}
		if bal.Symbol != stakeSym {
			return nil, validationErr("stake token symbol precision mismatch")
		}

		key := StakeKey{SymbolRaw: stakeSym.Raw(), Contract: p.StakeTokenContract}
		sk, found, err := tx.StakeByKey(code, key)
		if err != nil {
			return nil, err
		}
		var intents []TransferIntent
		if found {
			restaking := sk.TokenBucket != p.TokenBucket ||
				sk.StakePerBucket != p.StakePerBucket ||
				sk.StakeTo != p.StakeTo ||
				sk.Deferred != p.Deferred ||
				sk.Proportional != p.Proportional
			destaking := sk.StakeTo == p.StakeTo && p.StakePerBucket.Amount == 0
			if st.Supply.Amount != 0 {
				if destaking && !p.Deferred {
					intents, err = unstakeOne(sk, st.Issuer, st.Supply.Amount)
					if err != nil {
						return nil, err
					}
				} else if restaking {
					if sk.StakePerBucket.Amount != 0 {
						return nil, ErrMustDestake
					}
				}
			}
			if p.StakeTo.Delete() {
				if err := tx.EraseStake(code, sk.Index); err != nil {
					return nil, err
				}
				misc.Infof(t.logger, "removed stake row %d for %s", sk.Index, code)
				return intents, nil
			}
			sk.TokenBucket = p.TokenBucket
			sk.StakePerBucket = p.StakePerBucket
			sk.StakeTo = p.StakeTo
			sk.Deferred = p.Deferred
			sk.Proportional = p.Proportional
			if err := tx.UpdateStake(code, sk); err != nil {
				return nil, err
			}
			if restaking && !p.Deferred && st.Supply.Amount != 0 {
				more, err := stakeOne(st, sk, st.Supply.Amount)
				if err != nil {
					return nil, err
				}
				intents = append(intents, more...)
			}
			return intents, nil
		}
		rows, err := tx.Stakes(code)
		if err != nil {
			return nil, err
		}
		if len(rows) >= MaxStakeCount {
			return nil, ErrStakeCount
		}
		if p.StakeTo.Delete() {
			return nil, validationErr("invalid stake_to account")
		}
		row := StakeStats{
			TokenBucket:        p.TokenBucket,
			StakePerBucket:     p.StakePerBucket,
			StakeTokenContract: p.StakeTokenContract,
			StakeTo:            p.StakeTo,
			Deferred:           p.Deferred,
			Proportional:       p.Proportional,
		}
		// a new row never retro-stakes outstanding supply; collateral for
		// already-issued tokens moves only on future issues
		if row.Index, err = tx.InsertStake(code, row); err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "added stake row %d for %s: %s per %s",
			row.Index, code, p.StakePerBucket, p.TokenBucket)
		return nil, nil
	})
}

// Issue mints quantity to the issuer's own balance and stakes collateral
// for every non-deferred stake relationship.
func (t *Token) Issue(quantity Asset, memo string) error {
	return t.exec("issue", func(tx Tx) ([]TransferIntent, error) {
		sym := quantity.Symbol
		if !sym.IsValid() {
			return nil, validationErr("invalid symbol name")
		}
		if err := checkMemo(memo); err != nil {
			return nil, err
		}
		st, ok, err := tx.Stats(sym.Code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token with symbol does not exist, create token before issue")
		}
		if err := t.requireAuths(IssueAuthority(st)); err != nil {
			return nil, err
		}
		cfg, ok, err := tx.Config(sym.Code)
		if err != nil {
			return nil, err
		}
		if !ok || !cfg.Approved {
			return nil, ErrNotApproved
		}
		if !quantity.IsValid() {
			return nil, validationErr("invalid quantity")
		}
		if quantity.Amount <= 0 {
			return nil, validationErr("must issue positive quantity")
		}
		if sym != st.Supply.Symbol {
			return nil, validationErr("symbol precision mismatch")
		}
		if quantity.Amount > st.MaxSupply.Amount-st.Supply.Amount {
			return nil, preconditionErr("quantity exceeds available supply")
		}
		if st.Supply, err = st.Supply.Add(quantity); err != nil {
			return nil, validationErr("%v", err)
		}
		if err := tx.PutStats(st); err != nil {
			return nil, err
		}
		rows, err := tx.Stakes(sym.Code)
		if err != nil {
			return nil, err
		}
		intents, err := stakeAll(st, rows, quantity.Amount)
		if err != nil {
			return nil, err
		}
		if err := addBalance(tx, st.Issuer, quantity, st.Issuer); err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "issued %s, supply now %s", quantity, st.Supply)
		return intents, nil
	})
}

// Retire burns quantity from owner's balance and releases proportional
// collateral from every stake relationship. While bearer redemption is
// time-locked only the issuer may retire.
func (t *Token) Retire(owner Name, quantity Asset, memo string) error {
	return t.exec("retire", func(tx Tx) ([]TransferIntent, error) {
		sym := quantity.Symbol
		if !sym.IsValid() {
			return nil, validationErr("invalid symbol name")
		}
		if err := checkMemo(memo); err != nil {
			return nil, err
		}
		st, ok, err := tx.Stats(sym.Code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenMissing
		}
		cfg, ok, err := tx.Config(sym.Code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		if RedeemUnlocked(cfg, t.host.Now()) {
			if cfg.TransfersFrozen {
				return nil, ErrTransfersFrozen
			}
		} else if owner != st.Issuer {
			return nil, preconditionErr("bearer redeem is disabled")
		}
		if err := t.requireAuths(RetireAuthority(owner)); err != nil {
			return nil, err
		}
		if !quantity.IsValid() {
			return nil, validationErr("invalid quantity")
		}
		if quantity.Amount <= 0 {
			return nil, validationErr("must retire positive quantity")
		}
		if sym != st.Supply.Symbol {
			return nil, validationErr("symbol precision mismatch")
		}
		if quantity.Amount > st.Supply.Amount {
			return nil, ErrOverdrawn
		}
		if st.Supply, err = st.Supply.Sub(quantity); err != nil {
			return nil, validationErr("%v", err)
		}
		if err := tx.PutStats(st); err != nil {
			return nil, err
		}
		if err := subBalance(tx, owner, quantity); err != nil {
			return nil, err
		}
		rows, err := tx.Stakes(sym.Code)
		if err != nil {
			return nil, err
		}
		intents, err := unstakeAll(rows, owner, quantity.Amount)
		if err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "retired %s from %s, supply now %s", quantity, owner, st.Supply)
		return intents, nil
	})
}

// Transfer moves quantity between holders. The withdrawal manager may pull
// funds to the configured withdraw_to without the sender's signature,
// bypassing the freeze; everyone else needs the sender's authority and an
// unfrozen token (the issuer excepted).
func (t *Token) Transfer(from, to Name, quantity Asset, memo string) error {
	return t.exec("transfer", func(tx Tx) ([]TransferIntent, error) {
		if from == to {
			return nil, validationErr("cannot transfer to self")
		}
		if !t.host.AccountExists(from) {
			return nil, validationErr("from account does not exist")
		}
		if !t.host.AccountExists(to) {
			return nil, validationErr("to account does not exist")
		}
		code := quantity.Symbol.Code
		st, ok, err := tx.Stats(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenMissing
		}
		cfg, ok, err := tx.Config(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		if !cfg.MembershipMgr.Open() {
			if _, ok, err := tx.Account(to, code); err != nil {
				return nil, err
			} else if !ok {
				return nil, preconditionErr("to account must have membership")
			}
		}
		t.host.RequireRecipient(from)
		t.host.RequireRecipient(to)
		if !quantity.IsValid() {
			return nil, validationErr("invalid quantity")
		}
		if quantity.Amount <= 0 {
			return nil, validationErr("must transfer positive quantity")
		}
		if quantity.Symbol != st.Supply.Symbol {
			return nil, validationErr("symbol precision mismatch")
		}
		if err := checkMemo(memo); err != nil {
			return nil, err
		}
		reqs, withdrawing := TransferAuthority(cfg, from, to, t.host.HasAuth)
		if err := t.requireAuths(reqs); err != nil {
			return nil, err
		}
		if !withdrawing && from != st.Issuer && cfg.TransfersFrozen {
			return nil, ErrTransfersFrozen
		}
		payer := from
		if t.host.HasAuth(to) {
			payer = to
		}
		if err := subBalance(tx, from, quantity); err != nil {
			return nil, err
		}
		if err := addBalance(tx, to, quantity, payer); err != nil {
			return nil, err
		}
		misc.Debugf(t.logger, "transferred %s from %s to %s", quantity, from, to)
		return nil, nil
	})
}

// Open creates a zero balance row for owner at ramPayer's expense. Gated
// membership additionally requires the membership manager's signature.
func (t *Token) Open(owner Name, code SymbolCode, ramPayer Name) error {
	return t.exec("open", func(tx Tx) ([]TransferIntent, error) {
		if !t.host.AccountExists(owner) {
			return nil, validationErr("owner account does not exist")
		}
		if !code.IsValid() {
			return nil, validationErr("invalid symbol code")
		}
		st, ok, err := tx.Stats(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrTokenMissing
		}
		cfg, ok, err := tx.Config(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		if err := t.requireAuths(OpenAuthority(cfg, ramPayer)); err != nil {
			return nil, err
		}
		if _, ok, err := tx.Account(owner, code); err != nil {
			return nil, err
		} else if ok {
			return nil, nil
		}
		return nil, tx.PutAccount(owner, Account{
			Balance:  Asset{Amount: 0, Symbol: st.Supply.Symbol},
			RAMPayer: ramPayer,
		})
	})
}

// Close removes owner's zero balance row, freeing its RAM.
func (t *Token) Close(owner Name, code SymbolCode) error {
	return t.exec("close", func(tx Tx) ([]TransferIntent, error) {
		if !code.IsValid() {
			return nil, validationErr("invalid symbol code")
		}
		if _, ok, err := tx.Stats(code); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrTokenMissing
		}
		cfg, ok, err := tx.Config(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		if err := t.requireAuths(CloseAuthority(cfg, owner, t.host.HasAuth)); err != nil {
			return nil, err
		}
		acct, ok, err := tx.Account(owner, code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("balance row already deleted or never existed")
		}
		if acct.Balance.Amount != 0 {
			return nil, preconditionErr("cannot close because the balance is not zero")
		}
		return nil, tx.EraseAccount(owner, code)
	})
}

// Freeze flips the global transfer freeze for the symbol.
func (t *Token) Freeze(code SymbolCode, freeze bool, memo string) error {
	return t.exec("freeze", func(tx Tx) ([]TransferIntent, error) {
		if !code.IsValid() {
			return nil, validationErr("invalid symbol code")
		}
		if err := checkMemo(memo); err != nil {
			return nil, err
		}
		if _, ok, err := tx.Stats(code); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrTokenMissing
		}
		cfg, ok, err := tx.Config(code)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, preconditionErr("token config does not exist")
		}
		if err := t.requireAuths(FreezeAuthority(cfg)); err != nil {
			return nil, err
		}
		cfg.TransfersFrozen = freeze
		if err := tx.PutConfig(code, cfg); err != nil {
			return nil, err
		}
		misc.Infof(t.logger, "token %s transfers_frozen set to %v", code, freeze)
		return nil, nil
	})
}
