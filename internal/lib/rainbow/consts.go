package rainbow

import "time"

const (
	// MaxStakeCount caps the stake relationships per symbol.
	MaxStakeCount = 5

	// MaxMemoLen bounds every memo argument, in bytes.
	MaxMemoLen = 256

	// Display field limits.
	MaxDisplayNameLen = 32
	MaxDisplayURLLen  = 256
	MaxJSONMetaLen    = 1024

	// Lock timestamps must fall within this window around the current time.
	LockPastWindow   = 10 * 365 * 24 * time.Hour
	LockFutureWindow = 100 * 365 * 24 * time.Hour
)

// Memos attached to the collateral moves the stake engine emits.
const (
	stakeMemo   = "rainbow stake"
	unstakeMemo = "rainbow unstake"
)
