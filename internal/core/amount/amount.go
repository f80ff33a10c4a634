package amount

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DropsPerXRP is the number of drops in one XRP.
const DropsPerXRP = 1_000_000

// dropsShift is the decimal exponent between drops and XRP.
const dropsShift = 6

// Amount is a currency amount on the ledger: either native XRP or an
// issued token. Native amounts arrive on the wire as a bare string of
// drops; issued amounts as a {currency, issuer, value} object. The
// original textual value is preserved so that amounts round-trip
// byte-for-byte through JSON.
type Amount struct {
	currency string
	issuer   string
	value    decimal.Decimal
	raw      string
	native   bool
}

// NewDrops returns a native amount from a drops string, e.g. "1380000000".
func NewDrops(drops string) (Amount, error) {
	v, err := decimal.NewFromString(drops)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid drops amount %q: %w", drops, err)
	}
	return Amount{value: v, raw: drops, native: true}, nil
}

// NewIssued returns an issued-token amount.
func NewIssued(currency, issuer, value string) (Amount, error) {
	v, err := decimal.NewFromString(value)
	if err != nil {
		return Amount{}, fmt.Errorf("invalid %s amount %q: %w", currency, value, err)
	}
	return Amount{currency: currency, issuer: issuer, value: v, raw: value}, nil
}

// IsNative reports whether the amount is denominated in XRP.
func (a Amount) IsNative() bool { return a.native }

// IsZero reports whether the amount's value is zero. The zero Amount is zero.
func (a Amount) IsZero() bool { return a.value.IsZero() }

// Currency returns the currency code, or "XRP" for native amounts.
func (a Amount) Currency() string {
	if a.native {
		return "XRP"
	}
	return a.currency
}

// Issuer returns the issuing account, empty for native amounts.
func (a Amount) Issuer() string { return a.issuer }

// Value returns the amount's numeric value as an exact decimal.
func (a Amount) Value() decimal.Decimal { return a.value }

// String returns the textual value the amount was built from.
func (a Amount) String() string { return a.raw }

// CurrencyKey returns the side of a currency-pair string this amount
// belongs to: "XRP" for native amounts, "CODE.ISSUER" otherwise.
func (a Amount) CurrencyKey() string {
	if a.native {
		return "XRP"
	}
	return a.currency + "." + a.issuer
}

// Cmp compares the numeric values of two amounts.
func (a Amount) Cmp(b Amount) int { return a.value.Cmp(b.value) }

// Equal reports whether two amounts have the same currency and value.
func (a Amount) Equal(b Amount) bool {
	return a.native == b.native && a.currency == b.currency &&
		a.issuer == b.issuer && a.value.Equal(b.value)
}

// ToXRP converts a native drops amount to XRP units with an exact
// decimal shift, formatting the value with six decimal places
// ("1380000000" becomes "1380.000000"). Issued amounts and already
// converted native amounts pass through unchanged, so conversion is
// idempotent across repeated merge passes.
func (a Amount) ToXRP() Amount {
	if !a.native || strings.Contains(a.raw, ".") {
		return a
	}
	v := a.value.Shift(-dropsShift)
	return Amount{value: v, raw: v.StringFixed(dropsShift), native: true}
}

// DropsToXRPString converts a bare drops string to XRP units.
// Values that are not plain drops integers are returned unchanged.
func DropsToXRPString(s string) string {
	if strings.Contains(s, ".") {
		return s
	}
	a, err := NewDrops(s)
	if err != nil {
		return s
	}
	return a.ToXRP().String()
}

type issuedJSON struct {
	Currency string `json:"currency"`
	Issuer   string `json:"issuer"`
	Value    string `json:"value"`
}

// UnmarshalJSON accepts both wire shapes: a bare string of drops for
// XRP and a currency/issuer/value object for issued tokens.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var drops string
		if err := json.Unmarshal(data, &drops); err != nil {
			return err
		}
		parsed, err := NewDrops(drops)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}
	var obj issuedJSON
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	parsed, err := NewIssued(obj.Currency, obj.Issuer, obj.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalJSON writes the amount back in its wire shape.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.native {
		return json.Marshal(a.raw)
	}
	return json.Marshal(issuedJSON{Currency: a.currency, Issuer: a.issuer, Value: a.raw})
}
