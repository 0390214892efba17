package rainbow

import "time"

// PermissionLevel names the authority an inline action is signed with.
type PermissionLevel struct {
	Actor      Name
	Permission Name
}

// TransferIntent is one collateral move the stake engine wants executed on
// another token contract. Intents are dispatched in emission order and any
// failure aborts the whole action.
type TransferIntent struct {
	Permission PermissionLevel
	Contract   Name
	From       Name
	To         Name
	Quantity   Asset
	Memo       string
}

// Host is the boundary to the chain runtime. Implementations must be
// deterministic within one action: every call observes the same time and
// the same auth set.
type Host interface {
	// Now returns the current transaction time.
	Now() time.Time
	// Self returns the account the ledger contract itself runs as; it is
	// the contract owner consulted by approve and new-symbol create.
	Self() Name
	// AccountExists reports whether an account exists on the host chain.
	AccountExists(n Name) bool
	// HasAuth reports whether the current action carries n's authority.
	HasAuth(n Name) bool
	// RequireAuth fails the action unless n's authority is present.
	RequireAuth(n Name) error
	// RequireAuth2 fails the action unless n's named permission is present.
	RequireAuth2(n Name, permission Name) error
	// RequireRecipient registers n for an action notification.
	RequireRecipient(n Name)
	// TokenBalance reads owner's balance row in another token contract.
	TokenBalance(contract Name, owner Name, code SymbolCode) (Asset, bool)
	// DispatchInline synchronously executes a collateral transfer on the
	// target token contract. An error aborts (rolls back) the whole action.
	DispatchInline(intent TransferIntent) error
}
