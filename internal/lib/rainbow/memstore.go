package rainbow

import (
	"sort"
	"sync"
)

// MemStore is the in-memory Store used by tests and the CLI's transient
// mode. Transactions mutate a deep copy and swap it in on Commit, which
// gives the single-writer transactional semantics the handlers assume.
type MemStore struct {
	mu    sync.Mutex
	state *memState
}

type memState struct {
	stats     map[SymbolCode]CurrencyStats
	configs   map[SymbolCode]CurrencyConfig
	displays  map[SymbolCode]CurrencyDisplay
	stakes    map[SymbolCode]map[uint64]StakeStats
	nextStake map[SymbolCode]uint64
	accounts  map[Name]map[SymbolCode]Account
}

func newMemState() *memState {
	return &memState{
		stats:     map[SymbolCode]CurrencyStats{},
		configs:   map[SymbolCode]CurrencyConfig{},
		displays:  map[SymbolCode]CurrencyDisplay{},
		stakes:    map[SymbolCode]map[uint64]StakeStats{},
		nextStake: map[SymbolCode]uint64{},
		accounts:  map[Name]map[SymbolCode]Account{},
	}
}

func (s *memState) clone() *memState {
	c := newMemState()
	for k, v := range s.stats {
		c.stats[k] = v
	}
	for k, v := range s.configs {
		c.configs[k] = v
	}
	for k, v := range s.displays {
		c.displays[k] = v
	}
	for k, rows := range s.stakes {
		m := make(map[uint64]StakeStats, len(rows))
		for i, r := range rows {
			m[i] = r
		}
		c.stakes[k] = m
	}
	for k, v := range s.nextStake {
		c.nextStake[k] = v
	}
	for owner, rows := range s.accounts {
		m := make(map[SymbolCode]Account, len(rows))
		for code, a := range rows {
			m[code] = a
		}
		c.accounts[owner] = m
	}
	return c
}

func NewMemStore() *MemStore {
	return &MemStore{state: newMemState()}
}

func (m *MemStore) Begin() (Tx, error) {
	m.mu.Lock()
	return &memTx{store: m, state: m.state.clone()}, nil
}

func (m *MemStore) Close() error { return nil }

type memTx struct {
	store *MemStore
	state *memState
	done  bool
}

func (t *memTx) Commit() error {
	if !t.done {
		t.store.state = t.state
		t.done = true
		t.store.mu.Unlock()
	}
	return nil
}

func (t *memTx) Rollback() error {
	if !t.done {
		t.done = true
		t.store.mu.Unlock()
	}
	return nil
}

func (t *memTx) Stats(code SymbolCode) (CurrencyStats, bool, error) {
	st, ok := t.state.stats[code]
	return st, ok, nil
}

func (t *memTx) PutStats(st CurrencyStats) error {
	t.state.stats[st.Code()] = st
	return nil
}

func (t *memTx) EraseStats(code SymbolCode) error {
	delete(t.state.stats, code)
	return nil
}

func (t *memTx) Config(code SymbolCode) (CurrencyConfig, bool, error) {
	cfg, ok := t.state.configs[code]
	return cfg, ok, nil
}

func (t *memTx) PutConfig(code SymbolCode, cfg CurrencyConfig) error {
	t.state.configs[code] = cfg
	return nil
}

func (t *memTx) EraseConfig(code SymbolCode) error {
	delete(t.state.configs, code)
	return nil
}

func (t *memTx) Display(code SymbolCode) (CurrencyDisplay, bool, error) {
	d, ok := t.state.displays[code]
	return d, ok, nil
}

func (t *memTx) PutDisplay(code SymbolCode, d CurrencyDisplay) error {
	t.state.displays[code] = d
	return nil
}

func (t *memTx) EraseDisplay(code SymbolCode) error {
	delete(t.state.displays, code)
	return nil
}

func (t *memTx) Stakes(code SymbolCode) ([]StakeStats, error) {
	rows := make([]StakeStats, 0, len(t.state.stakes[code]))
	for _, r := range t.state.stakes[code] {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	return rows, nil
}

func (t *memTx) StakeByKey(code SymbolCode, key StakeKey) (StakeStats, bool, error) {
	for _, r := range t.state.stakes[code] {
		if r.Key() == key {
			return r, true, nil
		}
	}
	return StakeStats{}, false, nil
}

func (t *memTx) InsertStake(code SymbolCode, row StakeStats) (uint64, error) {
	if _, found, _ := t.StakeByKey(code, row.Key()); found {
		return 0, ErrDuplicateStakeKey
	}
	if t.state.stakes[code] == nil {
		t.state.stakes[code] = map[uint64]StakeStats{}
	}
	row.Index = t.state.nextStake[code]
	t.state.nextStake[code] = row.Index + 1
	t.state.stakes[code][row.Index] = row
	return row.Index, nil
}

func (t *memTx) UpdateStake(code SymbolCode, row StakeStats) error {
	rows := t.state.stakes[code]
	if _, ok := rows[row.Index]; !ok {
		return ErrStakeRowMissing
	}
	if other, found, _ := t.StakeByKey(code, row.Key()); found && other.Index != row.Index {
		return ErrDuplicateStakeKey
	}
	rows[row.Index] = row
	return nil
}

func (t *memTx) EraseStake(code SymbolCode, index uint64) error {
	if _, ok := t.state.stakes[code][index]; !ok {
		return ErrStakeRowMissing
	}
	delete(t.state.stakes[code], index)
	return nil
}

func (t *memTx) EraseStakes(code SymbolCode) error {
	delete(t.state.stakes, code)
	delete(t.state.nextStake, code)
	return nil
}

func (t *memTx) Account(owner Name, code SymbolCode) (Account, bool, error) {
	a, ok := t.state.accounts[owner][code]
	return a, ok, nil
}

func (t *memTx) PutAccount(owner Name, acct Account) error {
	if t.state.accounts[owner] == nil {
		t.state.accounts[owner] = map[SymbolCode]Account{}
	}
	t.state.accounts[owner][acct.Balance.Symbol.Code] = acct
	return nil
}

func (t *memTx) EraseAccount(owner Name, code SymbolCode) error {
	if a, ok := t.state.accounts[owner][code]; ok && a.Balance.Amount != 0 {
		return ErrAccountNotEmpty
	}
	delete(t.state.accounts[owner], code)
	return nil
}

func (t *memTx) AccountsBySymbol(code SymbolCode) ([]AccountBalance, error) {
	var out []AccountBalance
	for owner, rows := range t.state.accounts {
		if a, ok := rows[code]; ok {
			out = append(out, AccountBalance{Owner: owner, Account: a})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Owner < out[j].Owner })
	return out, nil
}

func (t *memTx) AccountsByOwner(owner Name) ([]Account, error) {
	var out []Account
	for _, a := range t.state.accounts[owner] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Balance.Symbol.Code < out[j].Balance.Symbol.Code
	})
	return out, nil
}

func (t *memTx) Symbols() ([]SymbolCode, error) {
	out := make([]SymbolCode, 0, len(t.state.stats))
	for code := range t.state.stats {
		out = append(out, code)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
