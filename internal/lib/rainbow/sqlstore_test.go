package rainbow

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	store, err := NewSQLStore(filepath.Join(t.TempDir(), "rainbow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLStoreStatsRoundTrip(t *testing.T) {
	store := openTestStore(t)
	st := CurrencyStats{
		Supply:    MustAsset("12.34 RBW"),
		MaxSupply: MustAsset("1000.00 RBW"),
		Issuer:    MustName("alice"),
	}

	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.PutStats(st))
	require.NoError(t, tx.Commit())

	tx, err = store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	got, ok, err := tx.Stats(st.Code())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, st, got)

	syms, err := tx.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []SymbolCode{st.Code()}, syms)
}

func TestSQLStoreConfigRoundTrip(t *testing.T) {
	store := openTestStore(t)
	code := MustSymbolCode("RBW")
	until := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := CurrencyConfig{
		MembershipMgr:     ManagedMembership(MustName("membermgr")),
		WithdrawalMgr:     MustName("withdrawmgr"),
		WithdrawTo:        MustName("sinkaccount"),
		FreezeMgr:         MustName("freezemgr"),
		RedeemLockedUntil: until,
		ConfigLockedUntil: until.Add(24 * time.Hour),
		TransfersFrozen:   true,
		Approved:          true,
	}

	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.PutConfig(code, cfg))
	require.NoError(t, tx.Commit())

	tx, err = store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	got, ok, err := tx.Config(code)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg, got)

	// open membership survives via the sentinel encoding
	cfg.MembershipMgr = OpenMembership()
	require.NoError(t, tx.PutConfig(code, cfg))
	got, ok, err = tx.Config(code)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, got.MembershipMgr.Open())
}

func TestSQLStoreStakeUniqueKey(t *testing.T) {
	store := openTestStore(t)
	code := MustSymbolCode("RBW")
	row := seedStakeRow(0)

	tx, err := store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	idx, err := tx.InsertStake(code, row)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	_, err = tx.InsertStake(code, row)
	assert.ErrorIs(t, err, ErrDuplicateStakeKey)

	// same contract with a different collateral symbol is a distinct row
	other := row
	other.StakePerBucket = MustAsset("1.00 TLOS")
	_, err = tx.InsertStake(code, other)
	require.NoError(t, err)

	rows, err := tx.Stakes(code)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, row.StakePerBucket, rows[0].StakePerBucket)
}

func TestSQLStoreAccounts(t *testing.T) {
	store := openTestStore(t)
	code := MustSymbolCode("RBW")
	bob := MustName("bob")
	carol := MustName("carol")

	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.PutAccount(bob, Account{Balance: MustAsset("5.00 RBW"), RAMPayer: bob}))
	require.NoError(t, tx.PutAccount(carol, Account{Balance: MustAsset("0.00 RBW"), RAMPayer: bob}))
	require.NoError(t, tx.PutAccount(bob, Account{Balance: MustAsset("1.0000 SEED"), RAMPayer: bob}))
	require.NoError(t, tx.Commit())

	tx, err = store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	byCode, err := tx.AccountsBySymbol(code)
	require.NoError(t, err)
	require.Len(t, byCode, 2)

	byOwner, err := tx.AccountsByOwner(bob)
	require.NoError(t, err)
	require.Len(t, byOwner, 2)

	assert.ErrorIs(t, tx.EraseAccount(bob, code), ErrAccountNotEmpty)
	require.NoError(t, tx.EraseAccount(carol, code))
}
