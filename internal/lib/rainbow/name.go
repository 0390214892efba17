package rainbow

import (
	"fmt"
	"strings"
)

// Name is an account or permission name packed into a uint64 using the
// chain's base32 scheme: up to 12 characters from ".12345abcdefghijklmnopqrstuvwxyz"
// at 5 bits each, plus an optional 13th character restricted to ".12345a-j".
type Name uint64

const nameChars = ".12345abcdefghijklmnopqrstuvwxyz"

func charToValue(c byte) (uint64, bool) {
	switch {
	case c == '.':
		return 0, true
	case c >= '1' && c <= '5':
		return uint64(c-'1') + 1, true
	case c >= 'a' && c <= 'z':
		return uint64(c-'a') + 6, true
	}
	return 0, false
}

// NewName parses s into a packed Name. Empty strings produce the zero Name.
func NewName(s string) (Name, error) {
	if len(s) > 13 {
		return 0, fmt.Errorf("name %q is longer than 13 characters", s)
	}
	var value uint64
	for i := 0; i < len(s); i++ {
		v, ok := charToValue(s[i])
		if !ok {
			return 0, fmt.Errorf("name %q contains invalid character %q", s, s[i])
		}
		if i < 12 {
			value |= (v & 0x1f) << uint(64-5*(i+1))
		} else {
			if v > 0x0f {
				return 0, fmt.Errorf("13th character of name %q out of range", s)
			}
			value |= v & 0x0f
		}
	}
	return Name(value), nil
}

// MustName is NewName for compile-time constants; it panics on bad input.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) String() string {
	if n == 0 {
		return ""
	}
	var sb strings.Builder
	v := uint64(n)
	for i := 0; i < 12; i++ {
		c := nameChars[(v>>uint(64-5*(i+1)))&0x1f]
		sb.WriteByte(c)
	}
	if tail := v & 0x0f; tail != 0 {
		sb.WriteByte(nameChars[tail])
	}
	return strings.TrimRight(sb.String(), ".")
}

// Empty reports whether the name is the zero value.
func (n Name) Empty() bool { return n == 0 }

// Sentinel account names carried on the wire. In memory these are modeled
// as the tagged MembershipPolicy and StakeTarget types so a real account
// can never collide with the control value.
var (
	AllowAllAcct    = MustName("allowallacct")
	DeleteStakeAcct = MustName("deletestake")

	// ActivePermission is the permission inline transfers are signed with.
	ActivePermission = MustName("active")
	// CreateTokenPermission is the contract-owner named permission that
	// gates creation of brand-new symbols.
	CreateTokenPermission = MustName("createtoken")
)

// MembershipPolicy is the membership_mgr column: either open membership
// (any account may receive a balance row) or gated by a manager account.
type MembershipPolicy struct {
	open bool
	mgr  Name
}

func OpenMembership() MembershipPolicy { return MembershipPolicy{open: true} }

func ManagedMembership(mgr Name) MembershipPolicy { return MembershipPolicy{mgr: mgr} }

// MembershipFromName maps the wire encoding (sentinel allowallacct) to the
// tagged form.
func MembershipFromName(n Name) MembershipPolicy {
	if n == AllowAllAcct {
		return OpenMembership()
	}
	return ManagedMembership(n)
}

// Open reports whether membership is ungated.
func (m MembershipPolicy) Open() bool { return m.open }

// Manager returns the managing account when membership is gated.
func (m MembershipPolicy) Manager() (Name, bool) {
	if m.open {
		return 0, false
	}
	return m.mgr, true
}

// WireName returns the on-the-wire account name, using the sentinel for
// open membership.
func (m MembershipPolicy) WireName() Name {
	if m.open {
		return AllowAllAcct
	}
	return m.mgr
}

// StakeTarget is the stake_to column: either an escrow account or the
// delete marker that removes the stake row.
type StakeTarget struct {
	del bool
	to  Name
}

func StakeEscrow(to Name) StakeTarget { return StakeTarget{to: to} }

func StakeDelete() StakeTarget { return StakeTarget{del: true} }

// StakeTargetFromName maps the wire encoding (sentinel deletestake) to the
// tagged form.
func StakeTargetFromName(n Name) StakeTarget {
	if n == DeleteStakeAcct {
		return StakeDelete()
	}
	return StakeEscrow(n)
}

// Delete reports whether this target marks the row for removal.
func (t StakeTarget) Delete() bool { return t.del }

// Escrow returns the escrow account when the target is not a deletion.
func (t StakeTarget) Escrow() (Name, bool) {
	if t.del {
		return 0, false
	}
	return t.to, true
}

// WireName returns the on-the-wire account name, using the sentinel for
// deletion.
func (t StakeTarget) WireName() Name {
	if t.del {
		return DeleteStakeAcct
	}
	return t.to
}
