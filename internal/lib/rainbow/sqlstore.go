package rainbow

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLStore persists the tables in a single SQLite database. One writer at
// a time matches the deterministic scheduling model, so plain transactions
// give the required atomicity.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(path string) (*SQLStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &SQLStore{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS stat (
		code TEXT PRIMARY KEY,
		supply INTEGER NOT NULL,
		max_supply INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		issuer TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS configs (
		code TEXT PRIMARY KEY,
		membership_mgr TEXT NOT NULL,
		withdrawal_mgr TEXT NOT NULL,
		withdraw_to TEXT NOT NULL,
		freeze_mgr TEXT NOT NULL,
		redeem_locked_until INTEGER NOT NULL,
		config_locked_until INTEGER NOT NULL,
		transfers_frozen INTEGER NOT NULL DEFAULT 0,
		approved INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS displays (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		logo TEXT NOT NULL DEFAULT '',
		logo_lg TEXT NOT NULL DEFAULT '',
		web_link TEXT NOT NULL DEFAULT '',
		background TEXT NOT NULL DEFAULT '',
		json_meta TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS stakes (
		code TEXT NOT NULL,
		idx INTEGER NOT NULL,
		bucket_amount INTEGER NOT NULL,
		bucket_symbol TEXT NOT NULL,
		spb_amount INTEGER NOT NULL,
		spb_symbol TEXT NOT NULL,
		contract TEXT NOT NULL,
		stake_to TEXT NOT NULL,
		deferred INTEGER NOT NULL DEFAULT 0,
		proportional INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (code, idx),
		UNIQUE (code, spb_symbol, contract)
	);

	CREATE TABLE IF NOT EXISTS stake_seq (
		code TEXT PRIMARY KEY,
		next INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS accounts (
		owner TEXT NOT NULL,
		code TEXT NOT NULL,
		amount INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		ram_payer TEXT NOT NULL,
		PRIMARY KEY (owner, code)
	);
	CREATE INDEX IF NOT EXISTS accounts_by_code ON accounts(code);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLStore) Begin() (Tx, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (s *SQLStore) Close() error { return s.db.Close() }

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) Commit() error   { return t.tx.Commit() }
func (t *sqlTx) Rollback() error { return t.tx.Rollback() }

func timeToDB(tm time.Time) int64 {
	if tm.IsZero() {
		return 0
	}
	return tm.UnixMilli()
}

func timeFromDB(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func nameFromDB(s string) (Name, error) {
	if s == "" {
		return 0, nil
	}
	return NewName(s)
}

func assetFromDB(amount int64, symbol string) (Asset, error) {
	sym, err := ParseSymbol(symbol)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Amount: amount, Symbol: sym}, nil
}

func (t *sqlTx) Stats(code SymbolCode) (CurrencyStats, bool, error) {
	row := t.tx.QueryRow(
		`SELECT supply, max_supply, symbol, issuer FROM stat WHERE code = ?`, code.String())
	var (
		supply, maxSupply int64
		symbol, issuer    string
	)
	err := row.Scan(&supply, &maxSupply, &symbol, &issuer)
	if errors.Is(err, sql.ErrNoRows) {
		return CurrencyStats{}, false, nil
	}
	if err != nil {
		return CurrencyStats{}, false, err
	}
	sym, err := ParseSymbol(symbol)
	if err != nil {
		return CurrencyStats{}, false, err
	}
	iss, err := nameFromDB(issuer)
	if err != nil {
		return CurrencyStats{}, false, err
	}
	return CurrencyStats{
		Supply:    Asset{Amount: supply, Symbol: sym},
		MaxSupply: Asset{Amount: maxSupply, Symbol: sym},
		Issuer:    iss,
	}, true, nil
}

func (t *sqlTx) PutStats(st CurrencyStats) error {
	_, err := t.tx.Exec(
		`INSERT INTO stat (code, supply, max_supply, symbol, issuer) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET supply=excluded.supply, max_supply=excluded.max_supply,
		 symbol=excluded.symbol, issuer=excluded.issuer`,
		st.Code().String(), st.Supply.Amount, st.MaxSupply.Amount,
		st.Supply.Symbol.String(), st.Issuer.String())
	return err
}

func (t *sqlTx) EraseStats(code SymbolCode) error {
	_, err := t.tx.Exec(`DELETE FROM stat WHERE code = ?`, code.String())
	return err
}

func (t *sqlTx) Config(code SymbolCode) (CurrencyConfig, bool, error) {
	row := t.tx.QueryRow(
		`SELECT membership_mgr, withdrawal_mgr, withdraw_to, freeze_mgr,
		        redeem_locked_until, config_locked_until, transfers_frozen, approved
		 FROM configs WHERE code = ?`, code.String())
	var (
		mgr, wmgr, wto, fmgr string
		redeemMs, configMs   int64
		frozen, approved     bool
	)
	err := row.Scan(&mgr, &wmgr, &wto, &fmgr, &redeemMs, &configMs, &frozen, &approved)
	if errors.Is(err, sql.ErrNoRows) {
		return CurrencyConfig{}, false, nil
	}
	if err != nil {
		return CurrencyConfig{}, false, err
	}
	mgrName, err := nameFromDB(mgr)
	if err != nil {
		return CurrencyConfig{}, false, err
	}
	wmgrName, err := nameFromDB(wmgr)
	if err != nil {
		return CurrencyConfig{}, false, err
	}
	wtoName, err := nameFromDB(wto)
	if err != nil {
		return CurrencyConfig{}, false, err
	}
	fmgrName, err := nameFromDB(fmgr)
	if err != nil {
		return CurrencyConfig{}, false, err
	}
	return CurrencyConfig{
		MembershipMgr:     MembershipFromName(mgrName),
		WithdrawalMgr:     wmgrName,
		WithdrawTo:        wtoName,
		FreezeMgr:         fmgrName,
		RedeemLockedUntil: timeFromDB(redeemMs),
		ConfigLockedUntil: timeFromDB(configMs),
		TransfersFrozen:   frozen,
		Approved:          approved,
	}, true, nil
}

func (t *sqlTx) PutConfig(code SymbolCode, cfg CurrencyConfig) error {
	_, err := t.tx.Exec(
		`INSERT INTO configs (code, membership_mgr, withdrawal_mgr, withdraw_to, freeze_mgr,
		   redeem_locked_until, config_locked_until, transfers_frozen, approved)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET membership_mgr=excluded.membership_mgr,
		   withdrawal_mgr=excluded.withdrawal_mgr, withdraw_to=excluded.withdraw_to,
		   freeze_mgr=excluded.freeze_mgr, redeem_locked_until=excluded.redeem_locked_until,
		   config_locked_until=excluded.config_locked_until,
		   transfers_frozen=excluded.transfers_frozen, approved=excluded.approved`,
		code.String(), cfg.MembershipMgr.WireName().String(), cfg.WithdrawalMgr.String(),
		cfg.WithdrawTo.String(), cfg.FreezeMgr.String(),
		timeToDB(cfg.RedeemLockedUntil), timeToDB(cfg.ConfigLockedUntil),
		cfg.TransfersFrozen, cfg.Approved)
	return err
}

func (t *sqlTx) EraseConfig(code SymbolCode) error {
	_, err := t.tx.Exec(`DELETE FROM configs WHERE code = ?`, code.String())
	return err
}

func (t *sqlTx) Display(code SymbolCode) (CurrencyDisplay, bool, error) {
	row := t.tx.QueryRow(
		`SELECT name, logo, logo_lg, web_link, background, json_meta FROM displays WHERE code = ?`,
		code.String())
	var d CurrencyDisplay
	err := row.Scan(&d.Name, &d.Logo, &d.LogoLarge, &d.WebLink, &d.Background, &d.JSONMeta)
	if errors.Is(err, sql.ErrNoRows) {
		return CurrencyDisplay{}, false, nil
	}
	if err != nil {
		return CurrencyDisplay{}, false, err
	}
	return d, true, nil
}

func (t *sqlTx) PutDisplay(code SymbolCode, d CurrencyDisplay) error {
	_, err := t.tx.Exec(
		`INSERT INTO displays (code, name, logo, logo_lg, web_link, background, json_meta)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET name=excluded.name, logo=excluded.logo,
		   logo_lg=excluded.logo_lg, web_link=excluded.web_link,
		   background=excluded.background, json_meta=excluded.json_meta`,
		code.String(), d.Name, d.Logo, d.LogoLarge, d.WebLink, d.Background, d.JSONMeta)
	return err
}

func (t *sqlTx) EraseDisplay(code SymbolCode) error {
	_, err := t.tx.Exec(`DELETE FROM displays WHERE code = ?`, code.String())
	return err
}

func (t *sqlTx) scanStakes(rows *sql.Rows) ([]StakeStats, error) {
	defer rows.Close()
	var out []StakeStats
	for rows.Next() {
		var (
			r                            StakeStats
			bucketAmt, spbAmt            int64
			bucketSym, spbSym, ctr, skTo string
		)
		if err := rows.Scan(&r.Index, &bucketAmt, &bucketSym, &spbAmt, &spbSym,
			&ctr, &skTo, &r.Deferred, &r.Proportional); err != nil {
			return nil, err
		}
		bucket, err := assetFromDB(bucketAmt, bucketSym)
		if err != nil {
			return nil, err
		}
		spb, err := assetFromDB(spbAmt, spbSym)
		if err != nil {
			return nil, err
		}
		contract, err := nameFromDB(ctr)
		if err != nil {
			return nil, err
		}
		to, err := nameFromDB(skTo)
		if err != nil {
			return nil, err
		}
		r.TokenBucket = bucket
		r.StakePerBucket = spb
		r.StakeTokenContract = contract
		r.StakeTo = StakeTargetFromName(to)
		out = append(out, r)
	}
	return out, rows.Err()
}

const stakeCols = `idx, bucket_amount, bucket_symbol, spb_amount, spb_symbol,
	contract, stake_to, deferred, proportional`

func (t *sqlTx) Stakes(code SymbolCode) ([]StakeStats, error) {
	rows, err := t.tx.Query(
		`SELECT `+stakeCols+` FROM stakes WHERE code = ? ORDER BY idx`, code.String())
	if err != nil {
		return nil, err
	}
	return t.scanStakes(rows)
}

func (t *sqlTx) StakeByKey(code SymbolCode, key StakeKey) (StakeStats, bool, error) {
	rows, err := t.tx.Query(
		`SELECT `+stakeCols+` FROM stakes WHERE code = ? AND spb_symbol = ? AND contract = ?`,
		code.String(), SymbolFromRaw(key.SymbolRaw).String(), key.Contract.String())
	if err != nil {
		return StakeStats{}, false, err
	}
	found, err := t.scanStakes(rows)
	if err != nil {
		return StakeStats{}, false, err
	}
	if len(found) == 0 {
		return StakeStats{}, false, nil
	}
	return found[0], true, nil
}

func (t *sqlTx) InsertStake(code SymbolCode, row StakeStats) (uint64, error) {
	var next uint64
	err := t.tx.QueryRow(`SELECT next FROM stake_seq WHERE code = ?`, code.String()).Scan(&next)
	if errors.Is(err, sql.ErrNoRows) {
		next = 0
	} else if err != nil {
		return 0, err
	}
	row.Index = next
	_, err = t.tx.Exec(
		`INSERT INTO stakes (code, `+stakeCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.String(), row.Index, row.TokenBucket.Amount, row.TokenBucket.Symbol.String(),
		row.StakePerBucket.Amount, row.StakePerBucket.Symbol.String(),
		row.StakeTokenContract.String(), row.StakeTo.WireName().String(),
		row.Deferred, row.Proportional)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return 0, ErrDuplicateStakeKey
		}
		return 0, err
	}
	_, err = t.tx.Exec(
		`INSERT INTO stake_seq (code, next) VALUES (?, ?)
		 ON CONFLICT(code) DO UPDATE SET next=excluded.next`, code.String(), next+1)
	return row.Index, err
}

func (t *sqlTx) UpdateStake(code SymbolCode, row StakeStats) error {
	res, err := t.tx.Exec(
		`UPDATE stakes SET bucket_amount=?, bucket_symbol=?, spb_amount=?, spb_symbol=?,
		   contract=?, stake_to=?, deferred=?, proportional=? WHERE code=? AND idx=?`,
		row.TokenBucket.Amount, row.TokenBucket.Symbol.String(),
		row.StakePerBucket.Amount, row.StakePerBucket.Symbol.String(),
		row.StakeTokenContract.String(), row.StakeTo.WireName().String(),
		row.Deferred, row.Proportional, code.String(), row.Index)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return ErrDuplicateStakeKey
		}
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrStakeRowMissing
	}
	return nil
}

func (t *sqlTx) EraseStake(code SymbolCode, index uint64) error {
	res, err := t.tx.Exec(`DELETE FROM stakes WHERE code=? AND idx=?`, code.String(), index)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrStakeRowMissing
	}
	return nil
}

func (t *sqlTx) EraseStakes(code SymbolCode) error {
	if _, err := t.tx.Exec(`DELETE FROM stakes WHERE code=?`, code.String()); err != nil {
		return err
	}
	_, err := t.tx.Exec(`DELETE FROM stake_seq WHERE code=?`, code.String())
	return err
}

func (t *sqlTx) Account(owner Name, code SymbolCode) (Account, bool, error) {
	row := t.tx.QueryRow(
		`SELECT amount, symbol, ram_payer FROM accounts WHERE owner=? AND code=?`,
		owner.String(), code.String())
	var (
		amount        int64
		symbol, payer string
	)
	err := row.Scan(&amount, &symbol, &payer)
	if errors.Is(err, sql.ErrNoRows) {
		return Account{}, false, nil
	}
	if err != nil {
		return Account{}, false, err
	}
	bal, err := assetFromDB(amount, symbol)
	if err != nil {
		return Account{}, false, err
	}
	payerName, err := nameFromDB(payer)
	if err != nil {
		return Account{}, false, err
	}
	return Account{Balance: bal, RAMPayer: payerName}, true, nil
}

func (t *sqlTx) PutAccount(owner Name, acct Account) error {
	_, err := t.tx.Exec(
		`INSERT INTO accounts (owner, code, amount, symbol, ram_payer) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(owner, code) DO UPDATE SET amount=excluded.amount, symbol=excluded.symbol,
		   ram_payer=excluded.ram_payer`,
		owner.String(), acct.Balance.Symbol.Code.String(), acct.Balance.Amount,
		acct.Balance.Symbol.String(), acct.RAMPayer.String())
	return err
}

func (t *sqlTx) EraseAccount(owner Name, code SymbolCode) error {
	var amount int64
	err := t.tx.QueryRow(`SELECT amount FROM accounts WHERE owner=? AND code=?`,
		owner.String(), code.String()).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	if amount != 0 {
		return ErrAccountNotEmpty
	}
	_, err = t.tx.Exec(`DELETE FROM accounts WHERE owner=? AND code=?`, owner.String(), code.String())
	return err
}

func (t *sqlTx) AccountsBySymbol(code SymbolCode) ([]AccountBalance, error) {
	rows, err := t.tx.Query(
		`SELECT owner, amount, symbol, ram_payer FROM accounts WHERE code=? ORDER BY owner`,
		code.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []AccountBalance
	for rows.Next() {
		var (
			owner, symbol, payer string
			amount               int64
		)
		if err := rows.Scan(&owner, &amount, &symbol, &payer); err != nil {
			return nil, err
		}
		ownerName, err := nameFromDB(owner)
		if err != nil {
			return nil, err
		}
		bal, err := assetFromDB(amount, symbol)
		if err != nil {
			return nil, err
		}
		payerName, err := nameFromDB(payer)
		if err != nil {
			return nil, err
		}
		out = append(out, AccountBalance{Owner: ownerName, Account: Account{Balance: bal, RAMPayer: payerName}})
	}
	return out, rows.Err()
}

func (t *sqlTx) AccountsByOwner(owner Name) ([]Account, error) {
	rows, err := t.tx.Query(
		`SELECT amount, symbol, ram_payer FROM accounts WHERE owner=? ORDER BY code`,
		owner.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var (
			symbol, payer string
			amount        int64
		)
		if err := rows.Scan(&amount, &symbol, &payer); err != nil {
			return nil, err
		}
		bal, err := assetFromDB(amount, symbol)
		if err != nil {
			return nil, err
		}
		payerName, err := nameFromDB(payer)
		if err != nil {
			return nil, err
		}
		out = append(out, Account{Balance: bal, RAMPayer: payerName})
	}
	return out, rows.Err()
}

func (t *sqlTx) Symbols() ([]SymbolCode, error) {
	rows, err := t.tx.Query(`SELECT code FROM stat ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []SymbolCode
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		sc, err := ParseSymbolCode(code)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}
