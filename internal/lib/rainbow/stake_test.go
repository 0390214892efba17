package rainbow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStakeRow(index uint64) StakeStats {
	return StakeStats{
		Index:              index,
		TokenBucket:        MustAsset("1.00 RBW"),
		StakePerBucket:     MustAsset("5.0000 SEED"),
		StakeTokenContract: MustName("token.seeds"),
		StakeTo:            StakeEscrow(MustName("escrow.seeds")),
	}
}

func TestStakeOne(t *testing.T) {
	st := CurrencyStats{
		Supply:    MustAsset("20.00 RBW"),
		MaxSupply: MustAsset("1000.00 RBW"),
		Issuer:    MustName("alice"),
	}
	intents, err := stakeOne(st, seedStakeRow(0), 2000)
	require.NoError(t, err)
	require.Len(t, intents, 1)

	in := intents[0]
	assert.Equal(t, MustName("token.seeds"), in.Contract)
	assert.Equal(t, MustName("alice"), in.From)
	assert.Equal(t, MustName("escrow.seeds"), in.To)
	assert.Equal(t, MustAsset("100.0000 SEED"), in.Quantity)
	assert.Equal(t, "rainbow stake", in.Memo)
	assert.Equal(t, MustName("alice"), in.Permission.Actor)
	assert.Equal(t, ActivePermission, in.Permission.Permission)
}

func TestStakeOneSkipsEmptyRows(t *testing.T) {
	st := CurrencyStats{Supply: MustAsset("20.00 RBW"), Issuer: MustName("alice")}

	zero := seedStakeRow(0)
	zero.StakePerBucket.Amount = 0
	intents, err := stakeOne(st, zero, 2000)
	require.NoError(t, err)
	assert.Empty(t, intents)

	// collateral below one smallest unit floors away
	tiny := seedStakeRow(1)
	tiny.StakePerBucket = MustAsset("0.0001 SEED")
	intents, err = stakeOne(st, tiny, 50) // 50*1/100 = 0
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestUnstakeOne(t *testing.T) {
	owner := MustName("bob")
	intents, err := unstakeOne(seedStakeRow(0), owner, 400)
	require.NoError(t, err)
	require.Len(t, intents, 1)

	in := intents[0]
	assert.Equal(t, MustName("escrow.seeds"), in.From)
	assert.Equal(t, owner, in.To)
	assert.Equal(t, MustAsset("20.0000 SEED"), in.Quantity)
	assert.Equal(t, "rainbow unstake", in.Memo)
	assert.Equal(t, MustName("escrow.seeds"), in.Permission.Actor)
}

func TestStakeAllSkipsDeferred(t *testing.T) {
	st := CurrencyStats{Supply: MustAsset("20.00 RBW"), Issuer: MustName("alice")}

	deferred := seedStakeRow(1)
	deferred.Deferred = true
	other := seedStakeRow(2)
	other.StakePerBucket = MustAsset("0.50 TLOS")
	other.StakeTokenContract = MustName("eosio.token")
	other.StakeTo = StakeEscrow(MustName("escrow.tlos"))

	intents, err := stakeAll(st, []StakeStats{seedStakeRow(0), deferred, other}, 1000)
	require.NoError(t, err)
	require.Len(t, intents, 2, "deferred row contributes nothing on issue")
	assert.Equal(t, MustAsset("50.0000 SEED"), intents[0].Quantity)
	assert.Equal(t, MustAsset("5.00 TLOS"), intents[1].Quantity)
}

func TestUnstakeAllIncludesDeferred(t *testing.T) {
	deferred := seedStakeRow(1)
	deferred.Deferred = true

	intents, err := unstakeAll([]StakeStats{seedStakeRow(0), deferred}, MustName("bob"), 1000)
	require.NoError(t, err)
	assert.Len(t, intents, 2, "retire releases deferred collateral too")
}

func TestStakeProportionality(t *testing.T) {
	// staking q1 then q2 moves the same collateral as staking q1+q2 when
	// both quantities are whole buckets
	st := CurrencyStats{Supply: MustAsset("100.00 RBW"), Issuer: MustName("alice")}
	row := seedStakeRow(0)

	a, err := stakeOne(st, row, 3000)
	require.NoError(t, err)
	b, err := stakeOne(st, row, 5000)
	require.NoError(t, err)
	both, err := stakeOne(st, row, 8000)
	require.NoError(t, err)
	assert.Equal(t, both[0].Quantity.Amount, a[0].Quantity.Amount+b[0].Quantity.Amount)
}
