package rainbow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testSelf  = MustName("rainbo.token")
	testIssuer = MustName("alice")
)

func authOf(reqs []AuthRequirement) []Name {
	out := make([]Name, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.Actor)
	}
	return out
}

func TestCreateAuthority(t *testing.T) {
	reqs := CreateAuthority(testIssuer, testSelf, false)
	require.Len(t, reqs, 2)
	assert.Equal(t, testIssuer, reqs[0].Actor)
	assert.Equal(t, testSelf, reqs[1].Actor)
	assert.Equal(t, CreateTokenPermission, reqs[1].Permission)

	reqs = CreateAuthority(testIssuer, testSelf, true)
	require.Len(t, reqs, 1)
	assert.Equal(t, testIssuer, reqs[0].Actor)
}

func TestTransferAuthority(t *testing.T) {
	mgr := MustName("withdrawmgr")
	sink := MustName("sinkaccount")
	from := MustName("bob")
	cfg := CurrencyConfig{WithdrawalMgr: mgr, WithdrawTo: sink}

	mgrSigned := func(n Name) bool { return n == mgr }
	nobodySigned := func(Name) bool { return false }

	reqs, withdrawing := TransferAuthority(cfg, from, sink, mgrSigned)
	assert.True(t, withdrawing)
	assert.Equal(t, []Name{mgr}, authOf(reqs))

	// manager signed but destination is not withdraw_to: normal transfer
	reqs, withdrawing = TransferAuthority(cfg, from, MustName("carol"), mgrSigned)
	assert.False(t, withdrawing)
	assert.Equal(t, []Name{from}, authOf(reqs))

	reqs, withdrawing = TransferAuthority(cfg, from, sink, nobodySigned)
	assert.False(t, withdrawing)
	assert.Equal(t, []Name{from}, authOf(reqs))
}

func TestOpenAuthority(t *testing.T) {
	payer := MustName("bob")
	mgr := MustName("membermgr")

	reqs := OpenAuthority(CurrencyConfig{MembershipMgr: OpenMembership()}, payer)
	assert.Equal(t, []Name{payer}, authOf(reqs))

	reqs = OpenAuthority(CurrencyConfig{MembershipMgr: ManagedMembership(mgr)}, payer)
	assert.Equal(t, []Name{payer, mgr}, authOf(reqs))
}

func TestCloseAuthority(t *testing.T) {
	owner := MustName("bob")
	mgr := MustName("membermgr")
	gated := CurrencyConfig{MembershipMgr: ManagedMembership(mgr)}

	reqs := CloseAuthority(gated, owner, func(n Name) bool { return n == mgr })
	assert.Equal(t, []Name{mgr}, authOf(reqs))

	reqs = CloseAuthority(gated, owner, func(Name) bool { return false })
	assert.Equal(t, []Name{owner}, authOf(reqs))

	reqs = CloseAuthority(CurrencyConfig{MembershipMgr: OpenMembership()}, owner, func(Name) bool { return true })
	assert.Equal(t, []Name{owner}, authOf(reqs))
}

func TestLockWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	cfg := CurrencyConfig{
		ConfigLockedUntil: now.Add(time.Hour),
		RedeemLockedUntil: now.Add(-time.Hour),
	}
	assert.False(t, ConfigUnlocked(cfg, now))
	assert.True(t, RedeemUnlocked(cfg, now))

	// a lock expiring exactly now is open
	cfg.ConfigLockedUntil = now
	assert.True(t, ConfigUnlocked(cfg, now))
}
