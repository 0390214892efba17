package rainbow

// Read-side accessors. Each one runs in its own transaction so callers
// see a consistent snapshot without holding the store open.

func (t *Token) GetStats(code SymbolCode) (CurrencyStats, bool, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return CurrencyStats{}, false, err
	}
	defer tx.Rollback()
	return tx.Stats(code)
}

func (t *Token) GetConfig(code SymbolCode) (CurrencyConfig, bool, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return CurrencyConfig{}, false, err
	}
	defer tx.Rollback()
	return tx.Config(code)
}

func (t *Token) GetDisplay(code SymbolCode) (CurrencyDisplay, bool, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return CurrencyDisplay{}, false, err
	}
	defer tx.Rollback()
	return tx.Display(code)
}

func (t *Token) GetStakes(code SymbolCode) ([]StakeStats, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return tx.Stakes(code)
}

// GetSupply returns the outstanding supply, or a zero amount when the
// token does not exist.
func (t *Token) GetSupply(code SymbolCode) (Asset, error) {
	st, ok, err := t.GetStats(code)
	if err != nil || !ok {
		return Asset{}, err
	}
	return st.Supply, nil
}

// GetBalance returns owner's balance; the bool reports whether a balance
// row exists.
func (t *Token) GetBalance(owner Name, code SymbolCode) (Asset, bool, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return Asset{}, false, err
	}
	defer tx.Rollback()
	acct, ok, err := tx.Account(owner, code)
	if err != nil || !ok {
		return Asset{}, false, err
	}
	return acct.Balance, true, nil
}

func (t *Token) GetAccounts(code SymbolCode) ([]AccountBalance, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return tx.AccountsBySymbol(code)
}

func (t *Token) GetHoldings(owner Name) ([]Asset, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	rows, err := tx.AccountsByOwner(owner)
	if err != nil {
		return nil, err
	}
	out := make([]Asset, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Balance)
	}
	return out, nil
}

func (t *Token) Symbols() ([]SymbolCode, error) {
	tx, err := t.store.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	return tx.Symbols()
}
