package feed

import (
	"encoding/json"
	"fmt"
)

// DefaultChunkSize is the number of book subscriptions carried by one
// connection. Public clusters reject subscribe commands naming too many
// books at once, so the book list is spread over several connections.
const DefaultChunkSize = 10

// Currency identifies one side of a market. The native currency has
// code "XRP" and no issuer; every other currency needs one.
type Currency struct {
	Code   string
	Issuer string
}

// XRP is the native currency.
var XRP = Currency{Code: "XRP"}

// IsNative reports whether the currency is XRP.
func (c Currency) IsNative() bool {
	return c.Code == "XRP" && c.Issuer == ""
}

// Key renders the currency the way currency pairs spell it.
func (c Currency) Key() string {
	if c.IsNative() {
		return "XRP"
	}
	return c.Code + "." + c.Issuer
}

// Validate rejects currencies the ledger cannot represent.
func (c Currency) Validate() error {
	if c.Code == "" {
		return fmt.Errorf("currency code must not be empty")
	}
	if c.IsNative() {
		return nil
	}
	if c.Issuer == "" {
		return fmt.Errorf("currency %s: issued currency needs an issuer", c.Code)
	}
	return nil
}

// MarshalJSON renders the currency as a book_offers taker side.
func (c Currency) MarshalJSON() ([]byte, error) {
	if c.IsNative() {
		return json.Marshal(map[string]string{"currency": "XRP"})
	}
	return json.Marshal(map[string]string{"currency": c.Code, "issuer": c.Issuer})
}

// BookSpec names one market to subscribe to.
type BookSpec struct {
	Base    Currency `json:"taker_gets"`
	Counter Currency `json:"taker_pays"`
}

// Pair returns the canonical pair string of the market.
func (b BookSpec) Pair() string {
	return b.Base.Key() + "/" + b.Counter.Key()
}

// BuildBookSpecs pairs every currency with every other one, each market
// once. With XRP in the list this yields the XRP books plus every
// issued-currency cross.
func BuildBookSpecs(currencies []Currency) []BookSpec {
	var specs []BookSpec
	for i := 0; i < len(currencies); i++ {
		for j := i + 1; j < len(currencies); j++ {
			specs = append(specs, BookSpec{Base: currencies[i], Counter: currencies[j]})
		}
	}
	return specs
}

// ChunkBookSpecs splits the specs into chunks of at most size entries.
func ChunkBookSpecs(specs []BookSpec, size int) [][]BookSpec {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks [][]BookSpec
	for len(specs) > size {
		chunks = append(chunks, specs[:size])
		specs = specs[size:]
	}
	if len(specs) > 0 {
		chunks = append(chunks, specs)
	}
	return chunks
}
