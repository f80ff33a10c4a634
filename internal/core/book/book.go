package book

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OrderBook is the reconstructed state of one market. Asks are sorted
// ascending and bids descending by quality. ExchangeRate is the quality
// of the most recently consumed offer and stays nil until a trade
// happens; Spread is nil whenever either side is empty, which is
// distinct from a legitimate zero spread.
type OrderBook struct {
	Asks         []Offer
	Bids         []Offer
	CurrencyPair string
	ExchangeRate *decimal.Decimal
	Spread       *decimal.Decimal
}

// DeriveCurrencyPair derives the canonical "BASE/COUNTER" pair string
// from a book's sides. Bids orient the pair as TakerPays/TakerGets,
// asks as TakerGets/TakerPays, so both sides agree on the same string.
func DeriveCurrencyPair(asks, bids []Offer) (string, error) {
	switch {
	case len(bids) > 0:
		return bids[0].TakerPays.CurrencyKey() + "/" + bids[0].TakerGets.CurrencyKey(), nil
	case len(asks) > 0:
		return asks[0].TakerGets.CurrencyKey() + "/" + asks[0].TakerPays.CurrencyKey(), nil
	}
	return "", ErrEmptyOrderBook
}

// ReciprocalPair flips a "BASE/COUNTER" pair string. "A/B" and "B/A"
// name the same market viewed from opposite sides.
func ReciprocalPair(pair string) string {
	base, counter, ok := strings.Cut(pair, "/")
	if !ok {
		return pair
	}
	return counter + "/" + base
}

// Clone returns a deep enough copy for snapshot isolation: offers are
// value types, so fresh slices suffice.
func (b *OrderBook) Clone() *OrderBook {
	c := &OrderBook{
		Asks:         make([]Offer, len(b.Asks)),
		Bids:         make([]Offer, len(b.Bids)),
		CurrencyPair: b.CurrencyPair,
	}
	copy(c.Asks, b.Asks)
	copy(c.Bids, b.Bids)
	if b.ExchangeRate != nil {
		r := *b.ExchangeRate
		c.ExchangeRate = &r
	}
	if b.Spread != nil {
		s := *b.Spread
		c.Spread = &s
	}
	return c
}

// IsLiquid reports whether the book's spread exists and sits below the
// given percentage threshold. Books without a computable spread are
// never liquid: an empty side means there is nothing to trade against.
func (b *OrderBook) IsLiquid(threshold decimal.Decimal) bool {
	return b.Spread != nil && !b.Spread.IsNegative() && b.Spread.LessThan(threshold)
}
