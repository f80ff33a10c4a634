package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	usdIssuer = "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq"
	eurIssuer = "rvYAfWj5gh67oV6fW32ZzP3Aw4Eubs59B"
)

func TestCurrencyKey(t *testing.T) {
	assert.Equal(t, "XRP", XRP.Key())
	assert.Equal(t, "USD."+usdIssuer, Currency{Code: "USD", Issuer: usdIssuer}.Key())
}

func TestCurrencyValidate(t *testing.T) {
	assert.NoError(t, XRP.Validate())
	assert.NoError(t, Currency{Code: "USD", Issuer: usdIssuer}.Validate())
	assert.Error(t, Currency{}.Validate())
	assert.Error(t, Currency{Code: "USD"}.Validate())
}

func TestCurrencyMarshalJSON(t *testing.T) {
	native, err := json.Marshal(XRP)
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":"XRP"}`, string(native))

	issued, err := json.Marshal(Currency{Code: "USD", Issuer: usdIssuer})
	require.NoError(t, err)
	assert.JSONEq(t, `{"currency":"USD","issuer":"`+usdIssuer+`"}`, string(issued))
}

func TestBuildBookSpecsCoversEveryMarketOnce(t *testing.T) {
	currencies := []Currency{
		XRP,
		{Code: "USD", Issuer: usdIssuer},
		{Code: "EUR", Issuer: eurIssuer},
	}

	specs := BuildBookSpecs(currencies)
	require.Len(t, specs, 3)

	pairs := make([]string, len(specs))
	for i, spec := range specs {
		pairs[i] = spec.Pair()
	}
	assert.ElementsMatch(t, []string{
		"XRP/USD." + usdIssuer,
		"XRP/EUR." + eurIssuer,
		"USD." + usdIssuer + "/EUR." + eurIssuer,
	}, pairs)
}

func TestChunkBookSpecs(t *testing.T) {
	specs := make([]BookSpec, 23)

	chunks := ChunkBookSpecs(specs, 10)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], 10)
	assert.Len(t, chunks[1], 10)
	assert.Len(t, chunks[2], 3)

	assert.Empty(t, ChunkBookSpecs(nil, 10))

	// A non-positive size falls back to the default.
	chunks = ChunkBookSpecs(specs, 0)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0], DefaultChunkSize)
}
