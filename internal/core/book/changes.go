package book

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLbooks/internal/core/amount"
)

// rippleEpochOffset converts seconds since the ledger's epoch
// (2000-01-01) to a Unix timestamp.
const rippleEpochOffset = 0x386D4380

// expirationLayout is the display format for offer expirations.
const expirationLayout = "2006-01-02 15:04:05"

// ChangedAmount is one side of an order change. Final is the amount
// after the transaction; Previous carries the value that side held
// before, present only when the transaction modified the offer.
type ChangedAmount struct {
	Final    *amount.Amount
	Previous *decimal.Decimal
}

// OrderChange describes what one transaction did to one offer, in
// trader terms rather than book terms.
type OrderChange struct {
	Account       string
	Sequence      uint32
	Status        OfferStatus
	Direction     string
	Quality       string
	Expiration    string
	TakerGets     ChangedAmount
	TakerPays     ChangedAmount
	TotalReceived *amount.Amount
	TotalPaid     *amount.Amount
}

// ParseOrderBookChanges extracts every offer change a transaction
// caused, grouped by the account that owns the offer.
func ParseOrderBookChanges(txn *Transaction) (map[string][]OrderChange, error) {
	if err := txn.Validate(); err != nil {
		return nil, err
	}
	changes := make(map[string][]OrderChange)
	for _, node := range txn.offerNodes() {
		change := parseOrderChange(node)
		changes[change.Account] = append(changes[change.Account], change)
	}
	return changes, nil
}

// parseOrderChange builds the trader-facing view of one affected offer
// node.
func parseOrderChange(node AffectedNode) OrderChange {
	content, kind := node.content()
	status := changeStatus(content, kind)

	change := OrderChange{
		Status:     status,
		Quality:    changeQuality(content),
		Expiration: changeExpiration(content),
		TakerGets:  parseChangedAmount(content, status, fieldTakerGets),
		TakerPays:  parseChangedAmount(content, status, fieldTakerPays),
	}

	switch {
	case content.FinalFields != nil:
		change.Account = content.FinalFields.Account
		change.Sequence = content.FinalFields.Sequence
	case content.NewFields != nil:
		change.Account = content.NewFields.Account
		change.Sequence = content.NewFields.Sequence
	}

	sell := content.FinalFields != nil && content.FinalFields.Flags&lsfSell != 0
	change.Direction = "buy"
	if sell {
		change.Direction = "sell"
	}
	// What the taker receives is the quantity side and what they pay is
	// the price side, which swap with the offer's direction.
	if change.Direction == "buy" {
		change.TotalReceived = change.TakerPays.Final
		change.TotalPaid = change.TakerGets.Final
	} else {
		change.TotalReceived = change.TakerGets.Final
		change.TotalPaid = change.TakerPays.Final
	}
	return change
}

// changeStatus classifies the node for the trader-facing report. Unlike
// the merge path, a deletion only counts as filled when the node
// records a prior TakerPays, i.e. the offer was consumed rather than
// cancelled.
func changeStatus(content *NodeContent, kind DiffKind) OfferStatus {
	switch kind {
	case DiffCreated:
		return StatusCreated
	case DiffModified:
		return StatusPartiallyFilled
	default:
		if content.PreviousFields != nil && content.PreviousFields.TakerPays != nil {
			return StatusFilled
		}
		return StatusCancelled
	}
}

type changeField int

const (
	fieldTakerGets changeField = iota
	fieldTakerPays
)

func fieldAmount(f *OfferFields, field changeField) *amount.Amount {
	if f == nil {
		return nil
	}
	if field == fieldTakerGets {
		return f.TakerGets
	}
	return f.TakerPays
}

// parseChangedAmount picks the amount for one side of the change: new
// fields for created offers, final fields for cancellations, and the
// final amount plus the prior value for fills.
func parseChangedAmount(content *NodeContent, status OfferStatus, field changeField) ChangedAmount {
	switch status {
	case StatusCreated:
		return ChangedAmount{Final: fieldAmount(content.NewFields, field)}
	case StatusCancelled:
		return ChangedAmount{Final: fieldAmount(content.FinalFields, field)}
	}
	changed := ChangedAmount{Final: fieldAmount(content.FinalFields, field)}
	if prev := fieldAmount(content.PreviousFields, field); prev != nil {
		v := prev.Value()
		changed.Previous = &v
	}
	return changed
}

// changeQuality is the offer's raw TakerPays/TakerGets price with
// native sides in XRP units, unoriented because the report has no book
// to orient against.
func changeQuality(content *NodeContent) string {
	fields := content.FinalFields
	if fields == nil {
		fields = content.NewFields
	}
	if fields == nil || fields.TakerGets == nil || fields.TakerPays == nil {
		return "0"
	}
	gets := fields.TakerGets.ToXRP()
	pays := fields.TakerPays.ToXRP()
	if gets.IsZero() || pays.IsZero() {
		return "0"
	}
	return formatPlain(div(pays.Value(), gets.Value()))
}

// changeExpiration formats the offer's expiration, empty when the offer
// never expires.
func changeExpiration(content *NodeContent) string {
	fields := content.FinalFields
	if fields == nil {
		fields = content.NewFields
	}
	if fields == nil || fields.Expiration == nil {
		return ""
	}
	ts := int64(*fields.Expiration) + rippleEpochOffset
	return time.Unix(ts, 0).UTC().Format(expirationLayout)
}
