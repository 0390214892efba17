package rainbow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAsset(t *testing.T) {
	tests := []struct {
		in        string
		amount    int64
		precision uint8
		code      string
	}{
		{"100.00 RBW", 10000, 2, "RBW"},
		{"0.0001 SEED", 1, 4, "SEED"},
		{"25 VOTES", 25, 0, "VOTES"},
		{"-3.5 TLOS", -35, 1, "TLOS"},
		{"4611686018427387903 MAX", MaxAssetAmount, 0, "MAX"},
	}
	for _, tc := range tests {
		a, err := ParseAsset(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.amount, a.Amount, tc.in)
		assert.Equal(t, tc.precision, a.Symbol.Precision, tc.in)
		assert.Equal(t, tc.code, a.Symbol.Code.String(), tc.in)
		assert.Equal(t, tc.in, a.String(), "round trip")
	}
}

func TestParseAssetRejects(t *testing.T) {
	for _, s := range []string{
		"100.00",                    // missing code
		"100.00 rbw",                // lowercase code
		"1.0 TOOLONGCD",             // >7 char code
		"4611686018427387904 BIG",   // over 2^62-1
		"1.0000000000000000000 DEEP", // >18 decimals
		"abc RBW",
	} {
		_, err := ParseAsset(s)
		assert.Error(t, err, s)
	}
}

func TestAssetAddSub(t *testing.T) {
	a := MustAsset("10.00 RBW")
	b := MustAsset("2.50 RBW")

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, MustAsset("12.50 RBW"), sum)

	diff, err := a.Sub(b)
	require.NoError(t, err)
	assert.Equal(t, MustAsset("7.50 RBW"), diff)

	_, err = a.Add(MustAsset("1.0000 SEED"))
	assert.Error(t, err, "mismatched symbol")

	_, err = a.Add(MustAsset("1.000 RBW"))
	assert.Error(t, err, "mismatched precision is a different symbol")

	big := Asset{Amount: MaxAssetAmount, Symbol: a.Symbol}
	_, err = big.Add(Asset{Amount: 1, Symbol: a.Symbol})
	assert.Error(t, err, "overflow")
}

func TestSymbolRawRoundTrip(t *testing.T) {
	sym := MustSymbol(4, "SEED")
	back := SymbolFromRaw(sym.Raw())
	assert.Equal(t, sym, back)
	assert.Equal(t, "4,SEED", sym.String())
}

func TestScaleToBucket(t *testing.T) {
	bucket := MustAsset("1.00 RBW")
	perBucket := MustAsset("5.0000 SEED")

	tests := []struct {
		name     string
		quantity int64
		want     string
	}{
		{"whole buckets", 2000, "100.0000 SEED"}, // 20.00 RBW
		{"one bucket", 100, "5.0000 SEED"},
		{"fractional floors down", 33, "1.6500 SEED"},
		{"zero quantity", 0, "0.0000 SEED"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ScaleToBucket(tc.quantity, bucket, perBucket)
			require.NoError(t, err)
			assert.Equal(t, MustAsset(tc.want), got)
		})
	}
}

func TestScaleToBucketFloor(t *testing.T) {
	// 7 tokens at 1/3 collateral each: 7*1/3 = 2.33.. floors to 2.
	bucket := Asset{Amount: 3, Symbol: MustSymbol(0, "RBW")}
	perBucket := Asset{Amount: 1, Symbol: MustSymbol(0, "SEED")}
	got, err := ScaleToBucket(7, bucket, perBucket)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Amount)
}

func TestScaleToBucketWidened(t *testing.T) {
	// quantity * perBucket overflows int64 but the result fits.
	bucket := Asset{Amount: MaxAssetAmount, Symbol: MustSymbol(0, "RBW")}
	perBucket := Asset{Amount: MaxAssetAmount, Symbol: MustSymbol(0, "SEED")}
	got, err := ScaleToBucket(MaxAssetAmount, bucket, perBucket)
	require.NoError(t, err)
	assert.Equal(t, MaxAssetAmount, got.Amount)
}

func TestScaleToBucketOverflow(t *testing.T) {
	bucket := Asset{Amount: 1, Symbol: MustSymbol(0, "RBW")}
	perBucket := Asset{Amount: MaxAssetAmount, Symbol: MustSymbol(0, "SEED")}
	_, err := ScaleToBucket(MaxAssetAmount, bucket, perBucket)
	assert.Error(t, err)
}
