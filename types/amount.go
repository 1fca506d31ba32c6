// Package types provides common types used across Recur.
package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount represents a monetary value in the smallest unit of its
// denomination. All arithmetic is arbitrary-precision integer — no floating
// point. Token prices are commonly quoted at 1e18 scale, so proration math
// (price × remaining seconds) does not fit in int64.
//
// Examples:
//   - Units("usdc", 49_000_000) = 49 USDC (6 decimals)
//   - Wei(big.NewInt(1e18))     = 1 unit of the native currency
type Amount struct {
	value *big.Int
	denom string
}

// NativeDenom is the sentinel denomination for the native currency.
const NativeDenom = "native"

// NewAmount creates an Amount from a big.Int value. The value is copied;
// the caller keeps ownership of v.
func NewAmount(denom string, v *big.Int) Amount {
	if v == nil {
		v = new(big.Int)
	}
	return Amount{value: new(big.Int).Set(v), denom: strings.ToLower(denom)}
}

// Units creates an Amount from an int64 count of smallest units.
func Units(denom string, units int64) Amount {
	return Amount{value: big.NewInt(units), denom: strings.ToLower(denom)}
}

// Wei creates an Amount in the native denomination.
func Wei(v *big.Int) Amount { return NewAmount(NativeDenom, v) }

// ZeroAmount returns a zero Amount in the specified denomination.
func ZeroAmount(denom string) Amount {
	return Amount{value: new(big.Int), denom: strings.ToLower(denom)}
}

// ParseAmount parses a base-10 integer string into an Amount.
func ParseAmount(denom, s string) (Amount, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: parse amount %q: not a base-10 integer", s)
	}
	return Amount{value: v, denom: strings.ToLower(denom)}, nil
}

// MustParseAmount is like ParseAmount but panics on error. Use for
// hardcoded values.
func MustParseAmount(denom, s string) Amount {
	a, err := ParseAmount(denom, s)
	if err != nil {
		panic(err.Error())
	}
	return a
}

// Denom returns the denomination identifier.
func (a Amount) Denom() string { return a.denom }

// BigInt returns a copy of the underlying integer value.
func (a Amount) BigInt() *big.Int {
	if a.value == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(a.value)
}

func (a Amount) val() *big.Int {
	if a.value == nil {
		return new(big.Int)
	}
	return a.value
}

// Arithmetic operations

// Add adds two Amounts. Panics if denominations don't match.
func (a Amount) Add(other Amount) Amount {
	a.assertSameDenom(other)
	return Amount{value: new(big.Int).Add(a.val(), other.val()), denom: a.denom}
}

// Subtract subtracts another Amount. Panics if denominations don't match.
func (a Amount) Subtract(other Amount) Amount {
	a.assertSameDenom(other)
	return Amount{value: new(big.Int).Sub(a.val(), other.val()), denom: a.denom}
}

// MulInt64 multiplies the Amount by a scalar.
func (a Amount) MulInt64(n int64) Amount {
	return Amount{value: new(big.Int).Mul(a.val(), big.NewInt(n)), denom: a.denom}
}

// DivInt64 divides the Amount by a scalar. Uses truncated integer division.
func (a Amount) DivInt64(n int64) Amount {
	if n == 0 {
		panic("types: amount division by zero")
	}
	return Amount{value: new(big.Int).Quo(a.val(), big.NewInt(n)), denom: a.denom}
}

// Prorate scales the Amount by num/den using full-width intermediate math.
// Panics if den is zero.
func (a Amount) Prorate(num, den int64) Amount {
	if den == 0 {
		panic("types: prorate division by zero")
	}
	v := new(big.Int).Mul(a.val(), big.NewInt(num))
	v.Quo(v, big.NewInt(den))
	return Amount{value: v, denom: a.denom}
}

// Comparison methods

// IsZero returns true if the value is zero.
func (a Amount) IsZero() bool { return a.val().Sign() == 0 }

// IsPositive returns true if the value is greater than zero.
func (a Amount) IsPositive() bool { return a.val().Sign() > 0 }

// IsNegative returns true if the value is less than zero.
func (a Amount) IsNegative() bool { return a.val().Sign() < 0 }

// Equal returns true if both Amounts have the same value and denomination.
func (a Amount) Equal(other Amount) bool {
	return a.denom == other.denom && a.val().Cmp(other.val()) == 0
}

// LessThan returns true if this Amount is less than other. Panics if
// denominations don't match.
func (a Amount) LessThan(other Amount) bool {
	a.assertSameDenom(other)
	return a.val().Cmp(other.val()) < 0
}

// GreaterThan returns true if this Amount is greater than other. Panics if
// denominations don't match.
func (a Amount) GreaterThan(other Amount) bool {
	a.assertSameDenom(other)
	return a.val().Cmp(other.val()) > 0
}

// Max returns the larger of two Amounts. Panics if denominations don't match.
func (a Amount) Max(other Amount) Amount {
	a.assertSameDenom(other)
	if a.val().Cmp(other.val()) >= 0 {
		return a
	}
	return other
}

// String returns "<value> <denom>", e.g. "1000000000000000000 native".
func (a Amount) String() string {
	return a.val().String() + " " + a.denom
}

// MarshalJSON implements json.Marshaler. The value is encoded as a string
// since it may exceed the range of a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value string `json:"value"`
		Denom string `json:"denom"`
	}{
		Value: a.val().String(),
		Denom: a.denom,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value string `json:"value"`
		Denom string `json:"denom"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseAmount(raw.Denom, raw.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// assertSameDenom panics if denominations don't match.
func (a Amount) assertSameDenom(other Amount) {
	if a.denom != other.denom {
		panic(fmt.Sprintf("types: denomination mismatch: %s != %s", a.denom, other.denom))
	}
}

// SumAmounts calculates the sum of multiple Amounts. All must share a
// denomination.
func SumAmounts(values ...Amount) Amount {
	if len(values) == 0 {
		return ZeroAmount(NativeDenom)
	}
	result := values[0]
	for i := 1; i < len(values); i++ {
		result = result.Add(values[i])
	}
	return result
}
