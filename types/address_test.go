package types

import (
	"bytes"
	"testing"
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"with prefix", "0x00112233445566778899aabbccddeeff00112233", "0x00112233445566778899aabbccddeeff00112233", false},
		{"bare hex", "00112233445566778899aabbccddeeff00112233", "0x00112233445566778899aabbccddeeff00112233", false},
		{"uppercase normalized", "0x00112233445566778899AABBCCDDEEFF00112233", "0x00112233445566778899aabbccddeeff00112233", false},
		{"too short", "0x1234", "", true},
		{"too long", "0x00112233445566778899aabbccddeeff0011223344", "", true},
		{"not hex", "0xzz112233445566778899aabbccddeeff00112233", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := ParseAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.String() != tt.want {
				t.Errorf("got %s, want %s", a, tt.want)
			}
		})
	}
}

func TestAddressZero(t *testing.T) {
	if !ZeroAddress.IsZero() {
		t.Error("ZeroAddress should be zero")
	}
	a := MustParseAddress("0x0000000000000000000000000000000000000001")
	if a.IsZero() {
		t.Error("non-zero address should not be zero")
	}
}

func TestAddressShort(t *testing.T) {
	a := MustParseAddress("0x00112233445566778899aabbccddeeff00112233")
	if got := a.Short(); got != "0x0011…2233" {
		t.Errorf("got %s", got)
	}
}

func TestBytesToAddress(t *testing.T) {
	// Short input is left-padded.
	a := BytesToAddress([]byte{0x01, 0x02})
	want := MustParseAddress("0x0000000000000000000000000000000000000102")
	if a != want {
		t.Errorf("got %s, want %s", a, want)
	}

	// Long input keeps the rightmost bytes.
	long := bytes.Repeat([]byte{0xff}, 24)
	long[23] = 0xab
	b := BytesToAddress(long)
	if b[AddressLength-1] != 0xab {
		t.Errorf("rightmost byte lost: %s", b)
	}
}

func TestAddressTextRoundTrip(t *testing.T) {
	a := MustParseAddress("0x00112233445566778899aabbccddeeff00112233")
	data, err := a.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Address
	if err := back.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != a {
		t.Errorf("round trip: got %s, want %s", back, a)
	}

	var empty Address
	if err := empty.UnmarshalText(nil); err != nil {
		t.Fatalf("unmarshal empty: %v", err)
	}
	if !empty.IsZero() {
		t.Error("empty text should decode to zero address")
	}
}

func TestAddressScan(t *testing.T) {
	want := MustParseAddress("0x00112233445566778899aabbccddeeff00112233")

	var a Address
	if err := a.Scan("0x00112233445566778899aabbccddeeff00112233"); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	if a != want {
		t.Errorf("got %s, want %s", a, want)
	}

	var b Address
	if err := b.Scan([]byte("0x00112233445566778899aabbccddeeff00112233")); err != nil {
		t.Fatalf("scan bytes: %v", err)
	}
	if b != want {
		t.Errorf("got %s, want %s", b, want)
	}

	var c Address
	if err := c.Scan(nil); err != nil {
		t.Fatalf("scan nil: %v", err)
	}
	if !c.IsZero() {
		t.Error("nil should scan to zero address")
	}

	var d Address
	if err := d.Scan(42); err == nil {
		t.Error("expected error scanning int")
	}
}
