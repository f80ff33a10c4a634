package book

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// DefaultLiquidThreshold is the quoted-spread percentage below which a
// book counts as liquid.
const DefaultLiquidThreshold = 1

// StoreConfig configures a Store.
type StoreConfig struct {
	// LiquidThreshold is the spread percentage below which a book is
	// classified liquid. Zero means DefaultLiquidThreshold.
	LiquidThreshold decimal.Decimal

	// ConvertToXRP makes merges convert native drops amounts to XRP
	// units.
	ConvertToXRP bool
}

// Store holds the authoritative order book per currency pair. Updates
// to a single pair are serialized on a per-pair lock so diffs apply in
// ledger order, while different pairs never contend. Reads hand out
// copies, so a caller can never observe a half-applied transaction.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*storeEntry

	merger    *Merger
	threshold decimal.Decimal
}

type storeEntry struct {
	mu   sync.RWMutex
	book *OrderBook
}

// NewStore creates an empty store.
func NewStore(cfg StoreConfig) *Store {
	threshold := cfg.LiquidThreshold
	if threshold.IsZero() {
		threshold = decimal.New(DefaultLiquidThreshold, 0)
	}
	return &Store{
		entries:   make(map[string]*storeEntry),
		merger:    NewMerger(cfg.ConvertToXRP),
		threshold: threshold,
	}
}

// Set inserts or replaces the book for its currency pair. A book
// arriving without an exchange rate keeps the stored entry's previous
// rate: the rate only ever changes when a merge produces a new one.
func (s *Store) Set(b *OrderBook) {
	e := s.entry(b.CurrencyPair, true)
	e.mu.Lock()
	defer e.mu.Unlock()
	incoming := b.Clone()
	if incoming.ExchangeRate == nil && e.book != nil {
		incoming.ExchangeRate = e.book.ExchangeRate
	}
	e.book = incoming
}

// Seed prepares a freshly fetched snapshot and stores it: units are
// converted, qualities derived, both sides sorted and the spread
// computed before the book becomes visible. An empty book with a known
// pair is stored as-is, which keeps failed or vacant markets tracked as
// illiquid.
func (s *Store) Seed(b *OrderBook) error {
	prepared, err := s.merger.Apply(b, nil)
	if err != nil {
		return fmt.Errorf("seed %s: %w", b.CurrencyPair, err)
	}
	s.Set(prepared)
	return nil
}

// Get returns a copy of the book for the pair, falling back to the
// reciprocal pair, which names the same market.
func (s *Store) Get(pair string) (*OrderBook, error) {
	e := s.entry(pair, false)
	if e == nil {
		e = s.entry(ReciprocalPair(pair), false)
	}
	if e == nil {
		return nil, fmt.Errorf("%s: %w", pair, ErrBookNotFound)
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.book == nil {
		return nil, fmt.Errorf("%s: %w", pair, ErrBookNotFound)
	}
	return e.book.Clone(), nil
}

// Apply merges one transaction into every held book. Updates are
// serialized per pair; an error on one book does not stop the others,
// and all failures are returned joined.
func (s *Store) Apply(txn *Transaction) error {
	var errs []error
	for _, pair := range s.Pairs() {
		e := s.entry(pair, false)
		if e == nil {
			continue
		}
		e.mu.Lock()
		if e.book == nil {
			e.mu.Unlock()
			continue
		}
		updated, err := s.merger.Apply(e.book, txn)
		if err != nil {
			e.mu.Unlock()
			if errors.Is(err, ErrEmptyOrderBook) {
				continue
			}
			errs = append(errs, fmt.Errorf("book %s: %w", pair, err))
			continue
		}
		if updated.ExchangeRate == nil {
			updated.ExchangeRate = e.book.ExchangeRate
		}
		e.book = updated
		e.mu.Unlock()
	}
	return errors.Join(errs...)
}

// All returns copies of every held book.
func (s *Store) All() []*OrderBook {
	books := make([]*OrderBook, 0, len(s.Pairs()))
	for _, pair := range s.Pairs() {
		if b, err := s.Get(pair); err == nil {
			books = append(books, b)
		}
	}
	return books
}

// Pairs returns the currency pairs currently held.
func (s *Store) Pairs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pairs := make([]string, 0, len(s.entries))
	for pair := range s.entries {
		pairs = append(pairs, pair)
	}
	return pairs
}

// Liquid returns the books whose spread exists and sits below the
// configured threshold.
func (s *Store) Liquid() []*OrderBook {
	return s.filter(true)
}

// Illiquid returns the books that are not liquid, including every book
// with an empty side.
func (s *Store) Illiquid() []*OrderBook {
	return s.filter(false)
}

func (s *Store) filter(liquid bool) []*OrderBook {
	var books []*OrderBook
	for _, b := range s.All() {
		if b.IsLiquid(s.threshold) == liquid {
			books = append(books, b)
		}
	}
	return books
}

func (s *Store) entry(pair string, create bool) *storeEntry {
	s.mu.RLock()
	e := s.entries[pair]
	s.mu.RUnlock()
	if e != nil || !create {
		return e
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[pair]; e == nil {
		e = &storeEntry{}
		s.entries[pair] = e
	}
	return e
}
