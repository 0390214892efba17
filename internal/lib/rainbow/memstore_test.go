package rainbow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStoreCommitAndRollback(t *testing.T) {
	store := NewMemStore()
	code := MustSymbolCode("RBW")
	st := CurrencyStats{
		Supply:    MustAsset("0.00 RBW"),
		MaxSupply: MustAsset("1000.00 RBW"),
		Issuer:    MustName("alice"),
	}

	tx, err := store.Begin()
	require.NoError(t, err)
	require.NoError(t, tx.PutStats(st))
	require.NoError(t, tx.Commit())

	// rolled-back writes leave no trace
	tx, err = store.Begin()
	require.NoError(t, err)
	st.Supply = MustAsset("500.00 RBW")
	require.NoError(t, tx.PutStats(st))
	require.NoError(t, tx.Rollback())

	tx, err = store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()
	got, ok, err := tx.Stats(code)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, MustAsset("0.00 RBW"), got.Supply)
}

func TestMemStoreStakeRows(t *testing.T) {
	store := NewMemStore()
	code := MustSymbolCode("RBW")
	row := seedStakeRow(0)

	tx, err := store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	idx, err := tx.InsertStake(code, row)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), idx)

	// same collateral symbol+contract is one relationship
	_, err = tx.InsertStake(code, row)
	assert.ErrorIs(t, err, ErrDuplicateStakeKey)

	other := row
	other.StakeTokenContract = MustName("eosio.token")
	idx, err = tx.InsertStake(code, other)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), idx)

	rows, err := tx.Stakes(code)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Less(t, rows[0].Index, rows[1].Index)

	got, found, err := tx.StakeByKey(code, other.Key())
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, uint64(1), got.Index)

	require.NoError(t, tx.EraseStake(code, 0))
	assert.ErrorIs(t, tx.EraseStake(code, 0), ErrStakeRowMissing)

	// erased indexes are never reused
	idx, err = tx.InsertStake(code, row)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), idx)
}

func TestMemStoreAccountRows(t *testing.T) {
	store := NewMemStore()
	code := MustSymbolCode("RBW")
	bob := MustName("bob")

	tx, err := store.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	require.NoError(t, tx.PutAccount(bob, Account{Balance: MustAsset("5.00 RBW"), RAMPayer: bob}))
	assert.ErrorIs(t, tx.EraseAccount(bob, code), ErrAccountNotEmpty)

	require.NoError(t, tx.PutAccount(bob, Account{Balance: MustAsset("0.00 RBW"), RAMPayer: bob}))
	require.NoError(t, tx.EraseAccount(bob, code))
	_, ok, err := tx.Account(bob, code)
	require.NoError(t, err)
	assert.False(t, ok)
}
