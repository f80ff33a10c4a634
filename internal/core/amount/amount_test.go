package amount

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalDropsString(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`"1380000000"`), &a))

	assert.True(t, a.IsNative())
	assert.Equal(t, "XRP", a.Currency())
	assert.Equal(t, "XRP", a.CurrencyKey())
	assert.Equal(t, "1380000000", a.String())
	assert.True(t, a.Value().Equal(decimal.NewFromInt(1380000000)))
}

func TestUnmarshalIssuedObject(t *testing.T) {
	raw := `{"currency":"USD","issuer":"rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq","value":"855.80217"}`

	var a Amount
	require.NoError(t, json.Unmarshal([]byte(raw), &a))

	assert.False(t, a.IsNative())
	assert.Equal(t, "USD", a.Currency())
	assert.Equal(t, "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq", a.Issuer())
	assert.Equal(t, "USD.rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq", a.CurrencyKey())
	assert.Equal(t, "855.80217", a.String())
}

func TestUnmarshalInvalidValue(t *testing.T) {
	var a Amount
	require.Error(t, json.Unmarshal([]byte(`"not-a-number"`), &a))
}

func TestMarshalRoundTrip(t *testing.T) {
	for _, raw := range []string{
		`"1380000000"`,
		`{"currency":"USD","issuer":"rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq","value":"520"}`,
	} {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(raw), &a))
		out, err := json.Marshal(a)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	}
}

func TestToXRP(t *testing.T) {
	a, err := NewDrops("1380000000")
	require.NoError(t, err)

	x := a.ToXRP()
	assert.Equal(t, "1380.000000", x.String())
	assert.True(t, x.Value().Equal(decimal.NewFromInt(1380)))

	// A second conversion must not shift the value again.
	assert.Equal(t, "1380.000000", x.ToXRP().String())
}

func TestToXRPLeavesIssuedAlone(t *testing.T) {
	a, err := NewIssued("USD", "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq", "520")
	require.NoError(t, err)
	assert.Equal(t, "520", a.ToXRP().String())
}

func TestDropsToXRPString(t *testing.T) {
	assert.Equal(t, "53930.109305", DropsToXRPString("53930109305"))
	// Already converted or non-drops values pass through.
	assert.Equal(t, "53930.109305", DropsToXRPString("53930.109305"))
	assert.Equal(t, "garbage", DropsToXRPString("garbage"))
}

func TestCmpUsesDecimalValue(t *testing.T) {
	a, err := NewIssued("USD", "r1", "0.3")
	require.NoError(t, err)
	b, err := NewIssued("USD", "r1", "0.30")
	require.NoError(t, err)
	assert.Equal(t, 0, a.Cmp(b))
	assert.True(t, a.Equal(b))
}
