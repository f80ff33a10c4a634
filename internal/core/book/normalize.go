package book

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLbooks/internal/core/amount"
)

// DiffKind classifies what a transaction did to an offer ledger entry.
type DiffKind int

const (
	DiffCreated DiffKind = iota
	DiffModified
	DiffDeleted
)

func (k DiffKind) String() string {
	switch k {
	case DiffCreated:
		return "created"
	case DiffModified:
		return "modified"
	case DiffDeleted:
		return "deleted"
	}
	return "unknown"
}

// OfferDiff is a normalized offer change extracted from one affected
// node. Offer holds the authoritative field set for the diff's kind,
// already unit-converted and with provenance rewritten to the current
// transaction. Match is nil for created offers, which are new by
// definition.
type OfferDiff struct {
	Kind  DiffKind
	Match *MatchKey
	Offer Offer

	// hadPreviousTakerPays distinguishes a filled offer from a
	// cancelled one when the entry was deleted: a deletion caused by
	// consumption records the prior TakerPays in PreviousFields.
	hadPreviousTakerPays bool
}

// Status derives the offer's resulting status. A modified offer with no
// remaining TakerGets is treated as filled and is removed from the book
// in the same pass.
func (d OfferDiff) Status() OfferStatus {
	switch d.Kind {
	case DiffCreated:
		return StatusCreated
	case DiffModified:
		if d.Offer.TakerGets.Value().Sign() > 0 {
			return StatusPartiallyFilled
		}
		return StatusFilled
	default:
		if d.hadPreviousTakerPays {
			return StatusFilled
		}
		return StatusCancelled
	}
}

// NormalizeOffers extracts a normalized diff for every offer ledger
// entry the transaction touched. pair orients each diff's quality;
// toXRP converts native drops amounts to XRP units. Non-offer nodes are
// filtered out before normalization.
func NormalizeOffers(txn *Transaction, pair string, toXRP bool) ([]OfferDiff, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	ownerFunds := txn.OwnerFunds
	if toXRP && ownerFunds != "" {
		ownerFunds = amount.DropsToXRPString(ownerFunds)
	}
	var diffs []OfferDiff
	for _, node := range txn.offerNodes() {
		diff, err := normalizeOffer(node, txn.Hash, txn.LedgerIndex, pair, toXRP, ownerFunds)
		if err != nil {
			return nil, err
		}
		diffs = append(diffs, diff)
	}
	return diffs, nil
}

// normalizeOffer builds one OfferDiff from an affected offer node. The
// authoritative field set is NewFields for created nodes and
// FinalFields otherwise; Account, Sequence, TakerGets and TakerPays
// must be present there.
func normalizeOffer(node AffectedNode, txnHash string, ledgerSeq uint32, pair string, toXRP bool, ownerFunds string) (OfferDiff, error) {
	content, kind := node.content()

	source := content.FinalFields
	if kind == DiffCreated {
		source = content.NewFields
	}
	if source == nil {
		return OfferDiff{}, fmt.Errorf("%s offer node %s has no field source: %w",
			kind, content.LedgerIndex, ErrMissingField)
	}
	if err := requireOfferFields(source, kind, content.LedgerIndex); err != nil {
		return OfferDiff{}, err
	}

	takerGets := *source.TakerGets
	takerPays := *source.TakerPays
	if toXRP {
		takerGets = takerGets.ToXRP()
		takerPays = takerPays.ToXRP()
	}
	quality := DeriveQuality(takerGets, takerPays, pair)

	offer := Offer{
		Account:           source.Account,
		BookDirectory:     orZero(source.BookDirectory),
		BookNode:          orZero(source.BookNode),
		Flags:             source.Flags,
		OwnerNode:         orZero(source.OwnerNode),
		PreviousTxnID:     txnHash,
		PreviousTxnLgrSeq: ledgerSeq,
		Sequence:          source.Sequence,
		TakerGets:         takerGets,
		TakerPays:         takerPays,
		Index:             content.LedgerIndex,
		Quality:           quality,
		OwnerFunds:        ownerFunds,
	}
	if ownerFunds != "" {
		offer.TakerGetsFunded, offer.TakerPaysFunded = deriveFundedAmounts(ownerFunds, quality, takerGets)
	}

	diff := OfferDiff{Kind: kind, Offer: offer}
	switch kind {
	case DiffModified:
		diff.Match = &MatchKey{
			PreviousTxnID:     content.PreviousTxnID,
			PreviousTxnLgrSeq: content.PreviousTxnLgrSeq,
		}
	case DiffDeleted:
		diff.Match = &MatchKey{
			PreviousTxnID:     content.FinalFields.PreviousTxnID,
			PreviousTxnLgrSeq: content.FinalFields.PreviousTxnLgrSeq,
		}
	}
	if content.PreviousFields != nil && content.PreviousFields.TakerPays != nil {
		diff.hadPreviousTakerPays = true
	}
	return diff, nil
}

// requireOfferFields rejects nodes whose authoritative field set lacks
// a field the book cannot be maintained without.
func requireOfferFields(f *OfferFields, kind DiffKind, index string) error {
	missing := ""
	switch {
	case f.Account == "":
		missing = "Account"
	case f.Sequence == 0:
		missing = "Sequence"
	case f.TakerGets == nil:
		missing = "TakerGets"
	case f.TakerPays == nil:
		missing = "TakerPays"
	}
	if missing != "" {
		return fmt.Errorf("%s offer node %s: %s: %w", kind, index, missing, ErrMissingField)
	}
	return nil
}

// deriveFundedAmounts computes the funded portions of an offer whose
// owner holds less than its full TakerGets amount. A fully funded offer
// gets no funded fields at all.
func deriveFundedAmounts(ownerFunds, quality string, takerGets amount.Amount) (getsFunded, paysFunded string) {
	funds, err := decimal.NewFromString(ownerFunds)
	if err != nil {
		return "", ""
	}
	if takerGets.Value().GreaterThan(funds) {
		q := qualityDecimal(quality)
		return ownerFunds, FormatSignificant(funds.Mul(q), qualitySigDigits)
	}
	return "", ""
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
