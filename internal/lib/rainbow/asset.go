package rainbow

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// MaxAssetAmount bounds every asset amount; max_supply must stay below
// 2^62 so intermediate sums cannot overflow int64.
const MaxAssetAmount int64 = (1 << 62) - 1

// MaxPrecision is the largest number of decimal places a symbol may carry.
const MaxPrecision = 18

// SymbolCode is a 1..7 character uppercase token code packed little-endian
// into a uint64, one byte per character.
type SymbolCode uint64

// ParseSymbolCode parses an uppercase code such as "RBW".
func ParseSymbolCode(s string) (SymbolCode, error) {
	if len(s) < 1 || len(s) > 7 {
		return 0, fmt.Errorf("symbol code %q must be 1..7 characters", s)
	}
	var raw uint64
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < 'A' || c > 'Z' {
			return 0, fmt.Errorf("symbol code %q must be uppercase A-Z", s)
		}
		raw = raw<<8 | uint64(c)
	}
	return SymbolCode(raw), nil
}

// MustSymbolCode is ParseSymbolCode for constants; it panics on bad input.
func MustSymbolCode(s string) SymbolCode {
	sc, err := ParseSymbolCode(s)
	if err != nil {
		panic(err)
	}
	return sc
}

func (sc SymbolCode) String() string {
	var sb strings.Builder
	for v := uint64(sc); v != 0; v >>= 8 {
		sb.WriteByte(byte(v & 0xff))
	}
	return sb.String()
}

// IsValid reports whether the packed code is 1..7 uppercase characters.
func (sc SymbolCode) IsValid() bool {
	v := uint64(sc)
	if v == 0 {
		return false
	}
	seenEnd := false
	for i := 0; i < 8; i++ {
		c := byte(v & 0xff)
		v >>= 8
		if c == 0 {
			seenEnd = true
			continue
		}
		if seenEnd || c < 'A' || c > 'Z' || i == 7 {
			return false
		}
	}
	return true
}

// Symbol couples a code with its decimal precision.
type Symbol struct {
	Precision uint8
	Code      SymbolCode
}

// NewSymbol builds a symbol from a precision and code string.
func NewSymbol(precision uint8, code string) (Symbol, error) {
	sc, err := ParseSymbolCode(code)
	if err != nil {
		return Symbol{}, err
	}
	s := Symbol{Precision: precision, Code: sc}
	if !s.IsValid() {
		return Symbol{}, fmt.Errorf("invalid symbol precision %d", precision)
	}
	return s, nil
}

// MustSymbol is NewSymbol for constants; it panics on bad input.
func MustSymbol(precision uint8, code string) Symbol {
	s, err := NewSymbol(precision, code)
	if err != nil {
		panic(err)
	}
	return s
}

func (s Symbol) IsValid() bool {
	return s.Precision <= MaxPrecision && s.Code.IsValid()
}

// Raw packs the symbol as code<<8|precision, the form used in the stakes
// secondary key.
func (s Symbol) Raw() uint64 {
	return uint64(s.Code)<<8 | uint64(s.Precision)
}

// SymbolFromRaw is the inverse of Raw.
func SymbolFromRaw(raw uint64) Symbol {
	return Symbol{Precision: uint8(raw & 0xff), Code: SymbolCode(raw >> 8)}
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// ParseSymbol parses the "4,SEED" form produced by String.
func ParseSymbol(str string) (Symbol, error) {
	parts := strings.SplitN(str, ",", 2)
	if len(parts) != 2 {
		return Symbol{}, fmt.Errorf("symbol %q must be precision,CODE", str)
	}
	prec, err := strconv.ParseUint(parts[0], 10, 8)
	if err != nil || prec > MaxPrecision {
		return Symbol{}, fmt.Errorf("symbol %q has invalid precision", str)
	}
	return NewSymbol(uint8(prec), parts[1])
}

// Asset is a fixed-point quantity of one symbol. Amount is expressed in
// the symbol's smallest unit.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// IsValid reports whether the symbol is well formed and the amount within
// the global magnitude bound.
func (a Asset) IsValid() bool {
	return a.Symbol.IsValid() && a.Amount <= MaxAssetAmount && a.Amount >= -MaxAssetAmount
}

// Add returns a+b, failing on symbol mismatch or overflow.
func (a Asset) Add(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("attempt to add assets with different symbol")
	}
	sum := a.Amount + b.Amount
	if (b.Amount > 0 && sum < a.Amount) || (b.Amount < 0 && sum > a.Amount) ||
		sum > MaxAssetAmount || sum < -MaxAssetAmount {
		return Asset{}, fmt.Errorf("asset addition overflow")
	}
	return Asset{Amount: sum, Symbol: a.Symbol}, nil
}

// Sub returns a-b, failing on symbol mismatch or overflow.
func (a Asset) Sub(b Asset) (Asset, error) {
	if a.Symbol != b.Symbol {
		return Asset{}, fmt.Errorf("attempt to subtract assets with different symbol")
	}
	return a.Add(Asset{Amount: -b.Amount, Symbol: b.Symbol})
}

func (a Asset) String() string {
	sign := ""
	amt := a.Amount
	if amt < 0 {
		sign = "-"
		amt = -amt
	}
	p := int64(1)
	for i := uint8(0); i < a.Symbol.Precision; i++ {
		p *= 10
	}
	whole := amt / p
	if a.Symbol.Precision == 0 {
		return fmt.Sprintf("%s%d %s", sign, whole, a.Symbol.Code)
	}
	frac := amt % p
	return fmt.Sprintf("%s%d.%0*d %s", sign, whole, a.Symbol.Precision, frac, a.Symbol.Code)
}

// ParseAsset parses quantities like "100.00 RBW". The number of decimal
// places fixes the symbol precision.
func ParseAsset(s string) (Asset, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Asset{}, fmt.Errorf("asset %q must be '<amount> <CODE>'", s)
	}
	numStr, codeStr := fields[0], fields[1]
	neg := false
	if strings.HasPrefix(numStr, "-") {
		neg = true
		numStr = numStr[1:]
	}
	intPart := numStr
	fracPart := ""
	if dot := strings.IndexByte(numStr, '.'); dot >= 0 {
		intPart, fracPart = numStr[:dot], numStr[dot+1:]
	}
	if intPart == "" && fracPart == "" {
		return Asset{}, fmt.Errorf("asset %q has no digits", s)
	}
	if len(fracPart) > MaxPrecision {
		return Asset{}, fmt.Errorf("asset %q exceeds maximum precision %d", s, MaxPrecision)
	}
	digits := intPart + fracPart
	if digits == "" {
		digits = "0"
	}
	amt, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return Asset{}, fmt.Errorf("asset %q has invalid amount: %w", s, err)
	}
	if neg {
		amt = -amt
	}
	sym, err := NewSymbol(uint8(len(fracPart)), codeStr)
	if err != nil {
		return Asset{}, err
	}
	a := Asset{Amount: amt, Symbol: sym}
	if !a.IsValid() {
		return Asset{}, fmt.Errorf("asset %q amount out of range", s)
	}
	return a, nil
}

// MustAsset is ParseAsset for test fixtures and constants.
func MustAsset(s string) Asset {
	a, err := ParseAsset(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ScaleToBucket computes the collateral owed for quantity tokens under a
// (token_bucket, stake_per_bucket) stake row:
//
//	collateral = floor(quantity * spb.Amount / bucket.Amount)
//
// The multiply runs widened so the int64 product cannot wrap; rounding is
// always toward zero. The result carries the collateral symbol.
func ScaleToBucket(quantity int64, bucket, perBucket Asset) (Asset, error) {
	if quantity < 0 {
		return Asset{}, fmt.Errorf("cannot scale negative quantity %d", quantity)
	}
	if bucket.Amount <= 0 {
		return Asset{}, fmt.Errorf("token bucket must be positive")
	}
	if perBucket.Amount < 0 {
		return Asset{}, fmt.Errorf("stake per bucket must be non-negative")
	}
	num := new(uint256.Int).Mul(uint256.NewInt(uint64(quantity)), uint256.NewInt(uint64(perBucket.Amount)))
	num.Div(num, uint256.NewInt(uint64(bucket.Amount)))
	if !num.IsUint64() || num.Uint64() > uint64(math.MaxInt64) {
		return Asset{}, fmt.Errorf("scaled stake quantity overflows")
	}
	out := Asset{Amount: int64(num.Uint64()), Symbol: perBucket.Symbol}
	if !out.IsValid() {
		return Asset{}, fmt.Errorf("scaled stake quantity out of range")
	}
	return out, nil
}
