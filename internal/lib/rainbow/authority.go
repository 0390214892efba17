package rainbow

import "time"

// AuthRequirement is one signer the current action must carry. A zero
// Permission means the account's default (active) authority.
type AuthRequirement struct {
	Actor      Name
	Permission Name
}

// The resolver functions are pure: they map (action, current state) to the
// required signer set without touching the tables. Handlers feed the
// result to the Host. Where the matrix depends on which signatures are
// actually present (transfer withdraw mode, close), the caller passes the
// Host's HasAuth.

// CreateAuthority returns the signers create needs. Brand-new symbols
// additionally need the contract owner's createtoken permission.
func CreateAuthority(issuer Name, self Name, exists bool) []AuthRequirement {
	reqs := []AuthRequirement{{Actor: issuer}}
	if !exists {
		reqs = append(reqs, AuthRequirement{Actor: self, Permission: CreateTokenPermission})
	}
	return reqs
}

// ApproveAuthority: only the contract owner may approve or reject a token.
func ApproveAuthority(self Name) []AuthRequirement {
	return []AuthRequirement{{Actor: self}}
}

// SetStakeAuthority: the issuer reconfigures stake relationships.
func SetStakeAuthority(issuer Name) []AuthRequirement {
	return []AuthRequirement{{Actor: issuer}}
}

// IssueAuthority: only the issuer mints.
func IssueAuthority(st CurrencyStats) []AuthRequirement {
	return []AuthRequirement{{Actor: st.Issuer}}
}

// RetireAuthority: the owner burns their own tokens. Whether a non-issuer
// owner is *permitted* to is a time-gated precondition checked separately.
func RetireAuthority(owner Name) []AuthRequirement {
	return []AuthRequirement{{Actor: owner}}
}

// TransferAuthority resolves the transfer matrix. In withdraw mode (the
// withdrawal manager signed and the destination is the configured
// withdraw_to) the sender's authority is not required and the freeze check
// does not apply.
func TransferAuthority(cfg CurrencyConfig, from, to Name, hasAuth func(Name) bool) (reqs []AuthRequirement, withdrawing bool) {
	if hasAuth(cfg.WithdrawalMgr) && to == cfg.WithdrawTo {
		return []AuthRequirement{{Actor: cfg.WithdrawalMgr}}, true
	}
	return []AuthRequirement{{Actor: from}}, false
}

// OpenAuthority: the RAM payer always signs; gated membership also needs
// the membership manager.
func OpenAuthority(cfg CurrencyConfig, ramPayer Name) []AuthRequirement {
	reqs := []AuthRequirement{{Actor: ramPayer}}
	if mgr, ok := cfg.MembershipMgr.Manager(); ok {
		reqs = append(reqs, AuthRequirement{Actor: mgr})
	}
	return reqs
}

// CloseAuthority: the membership manager may close any account; otherwise
// the owner closes their own.
func CloseAuthority(cfg CurrencyConfig, owner Name, hasAuth func(Name) bool) []AuthRequirement {
	if mgr, ok := cfg.MembershipMgr.Manager(); ok && hasAuth(mgr) {
		return []AuthRequirement{{Actor: mgr}}
	}
	return []AuthRequirement{{Actor: owner}}
}

// FreezeAuthority: only the freeze manager flips the freeze flag.
func FreezeAuthority(cfg CurrencyConfig) []AuthRequirement {
	return []AuthRequirement{{Actor: cfg.FreezeMgr}}
}

// ConfigUnlocked reports whether reconfiguration (create-on-existing,
// setstake) is currently allowed.
func ConfigUnlocked(cfg CurrencyConfig, now time.Time) bool {
	return !cfg.ConfigLockedUntil.After(now)
}

// RedeemUnlocked reports whether bearer redemption is currently allowed.
func RedeemUnlocked(cfg CurrencyConfig, now time.Time) bool {
	return !cfg.RedeemLockedUntil.After(now)
}
