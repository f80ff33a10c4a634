package book

import (
	"github.com/LeJamon/goXRPLbooks/internal/core/amount"
)

// lsfSell is the offer flag marking a sell offer.
const lsfSell = 0x00020000

// OfferStatus describes what a transaction did to an offer.
type OfferStatus string

const (
	StatusCreated         OfferStatus = "created"
	StatusPartiallyFilled OfferStatus = "partially-filled"
	StatusFilled          OfferStatus = "filled"
	StatusCancelled       OfferStatus = "cancelled"
)

// Offer is a resting order on one side of an order book. PreviousTxnID
// and PreviousTxnLgrSeq always name the last transaction that touched
// the offer, not the transaction that created it; they are the handle
// later diffs use to find the entry again.
type Offer struct {
	Account           string        `json:"Account"`
	BookDirectory     string        `json:"BookDirectory"`
	BookNode          string        `json:"BookNode"`
	Flags             uint32        `json:"Flags"`
	OwnerNode         string        `json:"OwnerNode"`
	PreviousTxnID     string        `json:"PreviousTxnID"`
	PreviousTxnLgrSeq uint32        `json:"PreviousTxnLgrSeq"`
	Sequence          uint32        `json:"Sequence"`
	TakerGets         amount.Amount `json:"TakerGets"`
	TakerPays         amount.Amount `json:"TakerPays"`
	Index             string        `json:"index"`
	Quality           string        `json:"quality"`
	OwnerFunds        string        `json:"owner_funds,omitempty"`
	TakerGetsFunded   string        `json:"taker_gets_funded,omitempty"`
	TakerPaysFunded   string        `json:"taker_pays_funded,omitempty"`
}

// IsSell reports whether the sell flag is set on the offer.
func (o Offer) IsSell() bool { return o.Flags&lsfSell != 0 }

// pairKey returns the offer's own pair orientation,
// "TakerPays-currency/TakerGets-currency".
func (o Offer) pairKey() string {
	return o.TakerPays.CurrencyKey() + "/" + o.TakerGets.CurrencyKey()
}

// MatchKey identifies a live offer inside a book side. Modified and
// deleted diffs carry the match key of the entry they apply to.
type MatchKey struct {
	PreviousTxnID     string
	PreviousTxnLgrSeq uint32
}

func (o Offer) matches(key MatchKey) bool {
	return o.PreviousTxnID == key.PreviousTxnID &&
		o.PreviousTxnLgrSeq == key.PreviousTxnLgrSeq
}
