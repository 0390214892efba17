package simhost

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chuck-h/rainbow-go/internal/lib/rainbow"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadFixture(t *testing.T) {
	fixture := `
self: rainbo.token
accounts: [alice, bob, escrow.seeds]
signers: [alice]
tokens:
  - contract: token.seeds
    balances:
      alice: 120.0000 SEED
`
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o644))

	host, err := LoadFixture(discard(), path)
	require.NoError(t, err)

	assert.Equal(t, rainbow.MustName("rainbo.token"), host.Self())
	assert.True(t, host.AccountExists(rainbow.MustName("alice")))
	assert.True(t, host.AccountExists(rainbow.MustName("token.seeds")), "funded contracts exist implicitly")
	assert.False(t, host.AccountExists(rainbow.MustName("mallory")))
	assert.True(t, host.HasAuth(rainbow.MustName("alice")))
	assert.False(t, host.HasAuth(rainbow.MustName("bob")))

	bal, ok := host.TokenBalance(rainbow.MustName("token.seeds"), rainbow.MustName("alice"), rainbow.MustSymbolCode("SEED"))
	require.True(t, ok)
	assert.Equal(t, rainbow.MustAsset("120.0000 SEED"), bal)
}

func TestLoadFixtureBadName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chain.yaml")
	require.NoError(t, os.WriteFile(path, []byte("self: NotAName\n"), 0o644))
	_, err := LoadFixture(discard(), path)
	require.Error(t, err)
}

func TestDispatchInlineMovesCollateral(t *testing.T) {
	host := New(discard(), rainbow.MustName("rainbo.token"))
	contract := rainbow.MustName("token.seeds")
	alice := rainbow.MustName("alice")
	escrow := rainbow.MustName("escrow.seeds")
	host.AddAccount(alice, escrow)
	host.FundCollateral(contract, alice, rainbow.MustAsset("10.0000 SEED"))

	intent := rainbow.TransferIntent{
		Permission: rainbow.PermissionLevel{Actor: alice, Permission: rainbow.ActivePermission},
		Contract:   contract,
		From:       alice,
		To:         escrow,
		Quantity:   rainbow.MustAsset("4.0000 SEED"),
		Memo:       "rainbow stake",
	}
	require.NoError(t, host.DispatchInline(intent))

	from, _ := host.TokenBalance(contract, alice, rainbow.MustSymbolCode("SEED"))
	to, _ := host.TokenBalance(contract, escrow, rainbow.MustSymbolCode("SEED"))
	assert.Equal(t, rainbow.MustAsset("6.0000 SEED"), from)
	assert.Equal(t, rainbow.MustAsset("4.0000 SEED"), to)

	moves := host.Dispatched()
	require.Len(t, moves, 1)
	assert.NotEmpty(t, moves[0].TxID)

	// an overdraw fails and moves nothing
	intent.Quantity = rainbow.MustAsset("100.0000 SEED")
	require.Error(t, host.DispatchInline(intent))
	from, _ = host.TokenBalance(contract, alice, rainbow.MustSymbolCode("SEED"))
	assert.Equal(t, rainbow.MustAsset("6.0000 SEED"), from)
}
