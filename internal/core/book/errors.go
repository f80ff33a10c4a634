package book

import "errors"

var (
	// ErrMissingField indicates a required field was absent from the
	// authoritative field set of an affected node or transaction.
	ErrMissingField = errors.New("required field missing")

	// ErrEmptyOrderBook indicates a currency pair could not be derived
	// because both sides of the book are empty.
	ErrEmptyOrderBook = errors.New("order book is empty")

	// ErrBookNotFound indicates neither the requested pair nor its
	// reciprocal is present in the store.
	ErrBookNotFound = errors.New("order book not found")

	// ErrInvariantViolation indicates upstream data contradicts the
	// book's invariants, e.g. a negative spread or a partial fill of an
	// offer the book has never seen. The caller is expected to drop the
	// book and resubscribe for a fresh snapshot.
	ErrInvariantViolation = errors.New("order book invariant violation")
)
