package types

import (
	"database/sql/driver"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an account address.
const AddressLength = 20

// Address identifies a subscriber or treasury account. It is a fixed-length
// byte value, conventionally rendered as 0x-prefixed lowercase hex.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. It is never a valid treasury.
var ZeroAddress Address

// ParseAddress parses a 0x-prefixed (or bare) hex string into an Address.
func ParseAddress(s string) (Address, error) {
	raw := strings.TrimPrefix(strings.ToLower(s), "0x")
	if len(raw) != AddressLength*2 {
		return Address{}, fmt.Errorf("types: parse address %q: want %d hex chars, got %d", s, AddressLength*2, len(raw))
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return Address{}, fmt.Errorf("types: parse address %q: %w", s, err)
	}
	var a Address
	copy(a[:], b)
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on error. Use for
// hardcoded address values.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err.Error())
	}
	return a
}

// BytesToAddress builds an Address from a byte slice, left-padding or
// truncating to AddressLength (rightmost bytes win, matching the usual
// word-to-address convention).
func BytesToAddress(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// IsZero reports whether the address is the zero value.
func (a Address) IsZero() bool { return a == ZeroAddress }

// String returns the 0x-prefixed lowercase hex representation.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns an abbreviated "0x1234…abcd" form for log output.
func (a Address) Short() string {
	s := a.String()
	return s[:6] + "…" + s[len(s)-4:]
}

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = ZeroAddress
		return nil
	}
	parsed, err := ParseAddress(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for database storage.
func (a Address) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (a *Address) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*a = ZeroAddress
		return nil
	case string:
		return a.UnmarshalText([]byte(v))
	case []byte:
		return a.UnmarshalText(v)
	default:
		return fmt.Errorf("types: cannot scan %T into Address", src)
	}
}
