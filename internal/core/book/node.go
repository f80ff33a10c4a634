package book

import (
	"fmt"

	"github.com/LeJamon/goXRPLbooks/internal/core/amount"
)

// ledgerEntryOffer is the LedgerEntryType consumed by this package.
// Affected nodes of any other entry type are ignored.
const ledgerEntryOffer = "Offer"

// OfferFields is the field set of an offer ledger entry as it appears
// inside NewFields, FinalFields or PreviousFields of an affected node.
// Nodes of other entry types unmarshal into it too; their unrelated
// fields are simply dropped.
type OfferFields struct {
	Account           string         `json:"Account,omitempty"`
	BookDirectory     string         `json:"BookDirectory,omitempty"`
	BookNode          string         `json:"BookNode,omitempty"`
	Flags             uint32         `json:"Flags,omitempty"`
	OwnerNode         string         `json:"OwnerNode,omitempty"`
	Sequence          uint32         `json:"Sequence,omitempty"`
	TakerGets         *amount.Amount `json:"TakerGets,omitempty"`
	TakerPays         *amount.Amount `json:"TakerPays,omitempty"`
	Expiration        *uint32        `json:"Expiration,omitempty"`
	PreviousTxnID     string         `json:"PreviousTxnID,omitempty"`
	PreviousTxnLgrSeq uint32         `json:"PreviousTxnLgrSeq,omitempty"`
}

// NodeContent is the body shared by CreatedNode, ModifiedNode and
// DeletedNode entries. PreviousTxnID and PreviousTxnLgrSeq appear at
// this level for modified nodes only; deleted nodes carry them inside
// FinalFields.
type NodeContent struct {
	LedgerEntryType   string       `json:"LedgerEntryType"`
	LedgerIndex       string       `json:"LedgerIndex"`
	NewFields         *OfferFields `json:"NewFields,omitempty"`
	FinalFields       *OfferFields `json:"FinalFields,omitempty"`
	PreviousFields    *OfferFields `json:"PreviousFields,omitempty"`
	PreviousTxnID     string       `json:"PreviousTxnID,omitempty"`
	PreviousTxnLgrSeq uint32       `json:"PreviousTxnLgrSeq,omitempty"`
}

// AffectedNode is one element of a transaction's meta AffectedNodes
// array. Exactly one of the three members is set.
type AffectedNode struct {
	Created  *NodeContent `json:"CreatedNode,omitempty"`
	Modified *NodeContent `json:"ModifiedNode,omitempty"`
	Deleted  *NodeContent `json:"DeletedNode,omitempty"`
}

// content returns the populated node body and its diff kind.
func (n AffectedNode) content() (*NodeContent, DiffKind) {
	switch {
	case n.Created != nil:
		return n.Created, DiffCreated
	case n.Modified != nil:
		return n.Modified, DiffModified
	case n.Deleted != nil:
		return n.Deleted, DiffDeleted
	}
	return nil, DiffKind(-1)
}

// TxnMeta is the metadata of a validated transaction.
type TxnMeta struct {
	AffectedNodes []AffectedNode `json:"AffectedNodes"`
}

// Transaction is the normalized per-transaction diff event the core
// consumes: the hash and ledger sequence of the transaction plus the
// ledger entries it touched.
type Transaction struct {
	Hash        string   `json:"hash"`
	LedgerIndex uint32   `json:"ledger_index"`
	Meta        *TxnMeta `json:"meta"`
	OwnerFunds  string   `json:"owner_funds,omitempty"`
}

// Validate checks that the fields every parser depends on are present.
func (t *Transaction) Validate() error {
	if t.Meta == nil {
		return fmt.Errorf("transaction %s: meta: %w", t.Hash, ErrMissingField)
	}
	if t.Hash == "" {
		return fmt.Errorf("transaction hash: %w", ErrMissingField)
	}
	if t.LedgerIndex == 0 {
		return fmt.Errorf("transaction %s: ledger_index: %w", t.Hash, ErrMissingField)
	}
	return nil
}

// offerNodes returns the affected nodes whose entry type is Offer.
func (t *Transaction) offerNodes() []AffectedNode {
	var nodes []AffectedNode
	for _, n := range t.Meta.AffectedNodes {
		c, _ := n.content()
		if c != nil && c.LedgerEntryType == ledgerEntryOffer {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// SubscriptionTransaction is the shape a book subscription stream
// delivers: the transaction object is nested and the metadata sits
// beside it at the top level.
type SubscriptionTransaction struct {
	Transaction *struct {
		Hash       string `json:"hash"`
		OwnerFunds string `json:"owner_funds,omitempty"`
	} `json:"transaction"`
	Meta        *TxnMeta `json:"meta"`
	LedgerIndex uint32   `json:"ledger_index"`
	Validated   bool     `json:"validated"`
	Type        string   `json:"type"`
}

// Normalize flattens a subscription stream message into a Transaction.
func (s *SubscriptionTransaction) Normalize() (*Transaction, error) {
	if s.Transaction == nil {
		return nil, fmt.Errorf("subscription message: transaction: %w", ErrMissingField)
	}
	t := &Transaction{
		Hash:        s.Transaction.Hash,
		LedgerIndex: s.LedgerIndex,
		Meta:        s.Meta,
		OwnerFunds:  s.Transaction.OwnerFunds,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
