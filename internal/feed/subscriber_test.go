package feed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLbooks/internal/core/book"
)

const bookSnapshotJSON = `{
  "asks": [
    {
      "Account": "rfEVtF3h7j9uGGvCW7Cma465dwoqyJW1kG",
      "BookDirectory": "79C54A4EBD69AB2EADCE313042F36092BE432423CC6A4F784E16083316697A00",
      "BookNode": "0",
      "Flags": 0,
      "OwnerNode": "0",
      "PreviousTxnID": "BF80AB94ECE325F5BF99230297942DD05A348EB08FFBB1C1309EDEF38429EF83",
      "PreviousTxnLgrSeq": 71316518,
      "Sequence": 2880874,
      "TakerGets": "1380000000",
      "TakerPays": {
        "currency": "USD",
        "issuer": "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq",
        "value": "855.80217"
      },
      "index": "CFF4CFB39DD62FFCF45E89AEBB128BC78C0D51D7969955D467A42DCBF0E9BF15",
      "owner_funds": "12925147440",
      "quality": "0.0000006201465"
    }
  ],
  "bids": [
    {
      "Account": "rUerwiGtq3Et6dUQJpEw4BJ6hH5vzdPtfN",
      "BookDirectory": "F0B9A528CE25FE77C51C38040A7FEC016C2C841E74C1418D5B06D5073CE0313B",
      "BookNode": "0",
      "Flags": 0,
      "OwnerNode": "0",
      "PreviousTxnID": "6B2074B898774F568F10913507CBABDBA0709A1BE65077AC3615051AE857D56A",
      "PreviousTxnLgrSeq": 69179487,
      "Sequence": 62,
      "TakerGets": {
        "currency": "USD",
        "issuer": "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq",
        "value": "520"
      },
      "TakerPays": "1000000000",
      "index": "2269FFC617DAAA154A261661811BE1C645BB38B8B6B3BC97391F63BA0B1E393A",
      "quality": "1923076.923076923"
    }
  ]
}`

const streamEventJSON = `{
  "ledger_index": 71316521,
  "meta": {
    "AffectedNodes": [
      {
        "CreatedNode": {
          "LedgerEntryType": "Offer",
          "LedgerIndex": "C7E3B90B3731C182906181FB77C51A9CEA181E0401D39C5B1409F85259B6E3BB",
          "NewFields": {
            "Account": "r3Vh9ZmQxd3C5CPEB8q7VbRuMPxwuC634n",
            "BookDirectory": "79C54A4EBD69AB2EADCE313042F36092BE432423CC6A4F784E16A57BA7A80000",
            "Sequence": 74738545,
            "TakerGets": "53860000000",
            "TakerPays": {
              "currency": "USD",
              "issuer": "rhub8VRN55s94qWKDv6jmDy1pUykJzF3wq",
              "value": "34332.5184"
            }
          }
        }
      }
    ]
  },
  "transaction": {
    "hash": "7FAB18A8E29BDB4D0669D8F91A0A614BC1DB1CB9FB5A6E1ADAAF39E2B1843457",
    "owner_funds": "53930109305"
  },
  "type": "transaction",
  "validated": true
}`

func usdBookSpec() BookSpec {
	return BookSpec{Base: XRP, Counter: Currency{Code: "USD", Issuer: usdIssuer}}
}

func newTestSubscriber(t *testing.T) (*Subscriber, *book.Store) {
	t.Helper()
	store := book.NewStore(book.StoreConfig{ConvertToXRP: true})
	sub, err := NewSubscriber(store, []BookSpec{usdBookSpec()}, Options{}, zap.NewNop())
	require.NoError(t, err)
	return sub, store
}

func TestNewSubscriberRejectsBadInput(t *testing.T) {
	store := book.NewStore(book.StoreConfig{})

	_, err := NewSubscriber(store, nil, Options{}, nil)
	require.Error(t, err)

	_, err = NewSubscriber(store, []BookSpec{{Base: XRP, Counter: Currency{Code: "USD"}}}, Options{}, nil)
	require.Error(t, err)
}

func TestSeedSnapshotStoresPreparedBook(t *testing.T) {
	sub, store := newTestSubscriber(t)

	sub.seedSnapshot("test", usdBookSpec(), &Message{
		ID:     1,
		Type:   "response",
		Status: "success",
		Result: json.RawMessage(bookSnapshotJSON),
	})

	b, err := store.Get("XRP/USD." + usdIssuer)
	require.NoError(t, err)
	require.Len(t, b.Asks, 1)
	require.Len(t, b.Bids, 1)
	// Seeding converts units and derives qualities before storing.
	assert.Equal(t, "1380.000000", b.Asks[0].TakerGets.String())
	assert.Equal(t, "0.620146500000", b.Asks[0].Quality)
	assert.Equal(t, "0.52", b.Bids[0].Quality)
	require.NotNil(t, b.Spread)
}

func TestSeedSnapshotFailureKeepsPairTracked(t *testing.T) {
	sub, store := newTestSubscriber(t)

	sub.seedSnapshot("test", usdBookSpec(), &Message{
		ID:           1,
		Type:         "response",
		Status:       "error",
		ErrorMessage: "srcCurMalformed",
	})

	b, err := store.Get("XRP/USD." + usdIssuer)
	require.NoError(t, err)
	assert.Empty(t, b.Asks)
	assert.Empty(t, b.Bids)
	assert.Nil(t, b.Spread)
	assert.Len(t, store.Illiquid(), 1)
}

func TestHandleMessageCorrelatesResponses(t *testing.T) {
	sub, store := newTestSubscriber(t)
	pending := map[int]BookSpec{7: usdBookSpec()}

	// An unknown id is ignored.
	sub.handleMessage("test", &Message{ID: 3, Type: "response", Status: "success"}, nil, pending)
	assert.Len(t, pending, 1)

	sub.handleMessage("test", &Message{
		ID:     7,
		Type:   "response",
		Status: "success",
		Result: json.RawMessage(bookSnapshotJSON),
	}, nil, pending)
	assert.Empty(t, pending)

	_, err := store.Get("XRP/USD." + usdIssuer)
	require.NoError(t, err)
}

func TestApplyTransactionMergesOnce(t *testing.T) {
	sub, store := newTestSubscriber(t)
	sub.seedSnapshot("test", usdBookSpec(), &Message{
		ID:     1,
		Type:   "response",
		Status: "success",
		Result: json.RawMessage(bookSnapshotJSON),
	})

	// Other connections redeliver the same transaction; only the first
	// copy may reach the store.
	sub.applyTransaction("test", []byte(streamEventJSON))
	sub.applyTransaction("test", []byte(streamEventJSON))

	b, err := store.Get("XRP/USD." + usdIssuer)
	require.NoError(t, err)
	require.Len(t, b.Asks, 2)
	assert.Equal(t, "0.637440000000", b.Asks[1].Quality)
}

func TestApplyTransactionIgnoresUnvalidated(t *testing.T) {
	sub, store := newTestSubscriber(t)
	sub.seedSnapshot("test", usdBookSpec(), &Message{
		ID:     1,
		Type:   "response",
		Status: "success",
		Result: json.RawMessage(bookSnapshotJSON),
	})

	var event map[string]any
	require.NoError(t, json.Unmarshal([]byte(streamEventJSON), &event))
	event["validated"] = false
	raw, err := json.Marshal(event)
	require.NoError(t, err)

	sub.applyTransaction("test", raw)

	b, err := store.Get("XRP/USD." + usdIssuer)
	require.NoError(t, err)
	assert.Len(t, b.Asks, 1)
}
