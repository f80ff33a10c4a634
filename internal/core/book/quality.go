package book

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/LeJamon/goXRPLbooks/internal/core/amount"
)

const (
	// divPrecision is the number of decimal places carried through
	// inexact divisions.
	divPrecision = 28

	// qualitySigDigits is the significant-digit precision quality and
	// funded amounts are formatted to.
	qualitySigDigits = 12
)

var (
	one     = decimal.New(1, 0)
	two     = decimal.New(2, 0)
	hundred = decimal.New(100, 0)
)

// div divides a by b. Exact quotients are returned with a minimal
// coefficient; inexact quotients are rounded to divPrecision decimal
// places and keep their full coefficient, so FormatSignificant can tell
// "0.52" apart from a rounded 0.5200...0.
func div(a, b decimal.Decimal) decimal.Decimal {
	q, r := a.QuoRem(b, divPrecision)
	if r.IsZero() {
		return trimTrailingZeros(q)
	}
	return a.DivRound(b, divPrecision)
}

// trimTrailingZeros drops trailing zero digits from the coefficient
// without changing the value.
func trimTrailingZeros(d decimal.Decimal) decimal.Decimal {
	c := new(big.Int).Set(d.Coefficient())
	exp := d.Exponent()
	ten := big.NewInt(10)
	q, m := new(big.Int), new(big.Int)
	for exp < 0 && c.Sign() != 0 {
		q.QuoRem(c, ten, m)
		if m.Sign() != 0 {
			break
		}
		c.Set(q)
		exp++
	}
	return decimal.NewFromBigInt(c, exp)
}

// formatPlain renders a decimal in plain fixed-point notation, keeping
// every digit of its coefficient.
func formatPlain(d decimal.Decimal) string {
	if d.Exponent() < 0 {
		return d.StringFixed(-d.Exponent())
	}
	return d.String()
}

// FormatSignificant renders a decimal in plain fixed-point notation,
// rounded to sig significant digits when its coefficient carries more.
// Trailing zeros produced by the rounding are kept ("0.620146500000"),
// while short exact values print as-is ("0.52"). Scientific notation is
// never emitted.
func FormatSignificant(d decimal.Decimal, sig int) string {
	if d.IsZero() {
		return "0"
	}
	n := int32(d.NumDigits())
	if n <= int32(sig) {
		return formatPlain(d)
	}
	places := -d.Exponent() - (n - int32(sig))
	r := d.Round(places)
	if places > 0 {
		return r.StringFixed(places)
	}
	return r.StringFixed(0)
}

// DeriveQuality returns the offer's price expressed in the orientation
// of the canonical pair string, as counter units per base unit. When
// the offer's own TakerPays/TakerGets orientation already matches the
// pair, the price is TakerGets.value / TakerPays.value; when it is the
// reciprocal the ratio is inverted. Either value being zero yields "0".
func DeriveQuality(takerGets, takerPays amount.Amount, pair string) string {
	if takerGets.IsZero() || takerPays.IsZero() {
		return "0"
	}
	q := div(takerGets.Value(), takerPays.Value())
	offerPair := takerPays.CurrencyKey() + "/" + takerGets.CurrencyKey()
	if offerPair != pair {
		q = div(one, q)
	}
	return FormatSignificant(q, qualitySigDigits)
}

// qualityDecimal parses a stored quality string. Offers always carry a
// quality this package formatted itself, so a parse failure is a bug;
// it degrades to zero rather than panicking mid-sort.
func qualityDecimal(q string) decimal.Decimal {
	d, err := decimal.NewFromString(q)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// quotedSpread computes the quoted spread between the tip ask and tip
// bid qualities: (ask - bid) / ((ask + bid) / 2) * 100. A negative
// result means the book is crossed, which only upstream corruption can
// produce, and is surfaced as ErrInvariantViolation rather than
// clamped.
func quotedSpread(askQuality, bidQuality decimal.Decimal) (decimal.Decimal, error) {
	diff := askQuality.Sub(bidQuality)
	midpoint := div(askQuality.Add(bidQuality), two)
	spread := div(diff, midpoint).Mul(hundred)
	if spread.IsNegative() {
		return decimal.Zero, fmt.Errorf(
			"ask quality %s below bid quality %s (spread %s): %w",
			askQuality, bidQuality, spread, ErrInvariantViolation)
	}
	return spread, nil
}
