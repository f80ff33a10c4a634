package book

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Merger applies per-transaction offer diffs to order books. It is
// stateless and safe for concurrent use; callers must feed diffs for
// the same currency pair in ledger order.
type Merger struct {
	toXRP bool
}

// NewMerger returns a merger. toXRP converts native drops amounts to
// XRP units while merging.
func NewMerger(toXRP bool) *Merger {
	return &Merger{toXRP: toXRP}
}

// Apply merges one transaction into a book and returns the updated
// book; the input book is left untouched. A nil transaction re-derives
// qualities, re-sorts both sides and recomputes the spread without
// applying any diff, which is how freshly fetched snapshots are
// prepared.
//
// The returned book's ExchangeRate is the quality of the offer this
// pass consumed, or the previous rate if nothing traded.
func (m *Merger) Apply(b *OrderBook, txn *Transaction) (*OrderBook, error) {
	updated := b.Clone()

	pair := updated.CurrencyPair
	if pair == "" {
		derived, err := DeriveCurrencyPair(updated.Asks, updated.Bids)
		if err != nil {
			return nil, err
		}
		pair = derived
		updated.CurrencyPair = pair
	}

	if txn != nil {
		diffs, err := NormalizeOffers(txn, pair, m.toXRP)
		if err != nil {
			return nil, err
		}
		for _, diff := range diffs {
			if err := m.applyDiff(updated, pair, diff); err != nil {
				return nil, err
			}
		}
	}

	m.rederiveSide(updated.Asks, pair)
	m.rederiveSide(updated.Bids, pair)
	sortSide(updated.Asks, false)
	sortSide(updated.Bids, true)

	spread, err := deriveSpread(updated.Asks, updated.Bids)
	if err != nil {
		return nil, err
	}
	updated.Spread = spread
	return updated, nil
}

// applyDiff routes one normalized diff to the side it belongs to. An
// offer whose own orientation matches the canonical pair sits on the
// bid side; the reciprocal orientation sits on the ask side; any other
// pair does not concern this book and is skipped.
func (m *Merger) applyDiff(b *OrderBook, pair string, diff OfferDiff) error {
	var side *[]Offer
	switch diff.Offer.pairKey() {
	case pair:
		side = &b.Bids
	case ReciprocalPair(pair):
		side = &b.Asks
	default:
		return nil
	}

	switch status := diff.Status(); status {
	case StatusCreated:
		*side = append(*side, diff.Offer)

	case StatusPartiallyFilled:
		if !replaceOffer(*side, *diff.Match, diff.Offer) {
			return fmt.Errorf("modified offer %s (%s, ledger %d) not present in book %s: %w",
				diff.Offer.Index, diff.Match.PreviousTxnID, diff.Match.PreviousTxnLgrSeq,
				pair, ErrInvariantViolation)
		}
		b.ExchangeRate = rateFromQuality(diff.Offer.Quality)

	case StatusFilled, StatusCancelled:
		// A modified offer drained to zero is removed right away. Its
		// deletion node in the same transaction then matches nothing,
		// so a missing match is a no-op here: deletions routinely name
		// offers outside the snapshot depth or consumed before the
		// stream attached.
		if diff.Kind == DiffModified && !removeOffer(side, *diff.Match) {
			return fmt.Errorf("filled offer %s (%s, ledger %d) not present in book %s: %w",
				diff.Offer.Index, diff.Match.PreviousTxnID, diff.Match.PreviousTxnLgrSeq,
				pair, ErrInvariantViolation)
		}
		if diff.Kind == DiffDeleted {
			removeOffer(side, *diff.Match)
		}
		if status == StatusFilled {
			b.ExchangeRate = rateFromQuality(diff.Offer.Quality)
		}
	}
	return nil
}

// rederiveSide reconverts units and recomputes quality for every offer
// on a side. Stored qualities may predate a unit conversion or carry
// the ledger's raw drops-based ratio from the snapshot, so they are
// never trusted across a merge.
func (m *Merger) rederiveSide(side []Offer, pair string) {
	for i := range side {
		if m.toXRP {
			side[i].TakerGets = side[i].TakerGets.ToXRP()
			side[i].TakerPays = side[i].TakerPays.ToXRP()
		}
		side[i].Quality = DeriveQuality(side[i].TakerGets, side[i].TakerPays, pair)
	}
}

// sortSide orders a side by quality, ascending for asks and descending
// for bids. The sort is stable so equal-quality offers keep their
// insertion order.
func sortSide(side []Offer, descending bool) {
	sort.SliceStable(side, func(i, j int) bool {
		cmp := qualityDecimal(side[i].Quality).Cmp(qualityDecimal(side[j].Quality))
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
}

// deriveSpread computes the quoted spread from the tip entries of both
// sides; nil when either side is empty.
func deriveSpread(asks, bids []Offer) (*decimal.Decimal, error) {
	if len(asks) == 0 || len(bids) == 0 {
		return nil, nil
	}
	spread, err := quotedSpread(qualityDecimal(asks[0].Quality), qualityDecimal(bids[0].Quality))
	if err != nil {
		return nil, err
	}
	return &spread, nil
}

func replaceOffer(side []Offer, key MatchKey, offer Offer) bool {
	for i := range side {
		if side[i].matches(key) {
			side[i] = offer
			return true
		}
	}
	return false
}

func removeOffer(side *[]Offer, key MatchKey) bool {
	for i := range *side {
		if (*side)[i].matches(key) {
			*side = append((*side)[:i], (*side)[i+1:]...)
			return true
		}
	}
	return false
}

func rateFromQuality(quality string) *decimal.Decimal {
	d := qualityDecimal(quality)
	return &d
}
