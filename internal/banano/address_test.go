package banano

import (
	"bytes"
	"strings"
	"testing"
)

func testPublicKey(fill byte) []byte {
	pub := make([]byte, 32)
	for i := range pub {
		pub[i] = fill ^ byte(i*7)
	}
	return pub
}

func TestAddress_RoundTrip(t *testing.T) {
	for _, fill := range []byte{0x00, 0x01, 0x42, 0xff} {
		pub := testPublicKey(fill)

		address, err := EncodeAddress(pub)
		if err != nil {
			t.Fatalf("EncodeAddress: %v", err)
		}

		if !strings.HasPrefix(address, "ban_") {
			t.Errorf("address missing ban_ prefix: %s", address)
		}
		if len(address) != len("ban_")+60 {
			t.Errorf("address length = %d, want %d", len(address), len("ban_")+60)
		}

		decoded, err := ParsePublicKey(address)
		if err != nil {
			t.Fatalf("ParsePublicKey(%s): %v", address, err)
		}
		if !bytes.Equal(decoded, pub) {
			t.Errorf("round trip mismatch for fill %#x", fill)
		}
	}
}

func TestParsePublicKey_Invalid(t *testing.T) {
	pub := testPublicKey(0x42)
	valid, err := EncodeAddress(pub)
	if err != nil {
		t.Fatalf("EncodeAddress: %v", err)
	}

	tests := []struct {
		name    string
		address string
	}{
		{"empty", ""},
		{"wrong prefix", "nano_" + valid[len("ban_"):]},
		{"truncated", valid[:len(valid)-1]},
		{"bad character", valid[:len(valid)-1] + "0"}, // 0 is not in the alphabet
		{"corrupted checksum", flipLastChar(valid)},
		{"padding bits set", "ban_" + strings.Repeat("z", 60)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePublicKey(tt.address); err == nil {
				t.Errorf("expected error for %q", tt.address)
			}
		})
	}
}

func TestValidAddress(t *testing.T) {
	address, err := EncodeAddress(testPublicKey(0x07))
	if err != nil {
		t.Fatalf("EncodeAddress: %v", err)
	}

	if !ValidAddress(address) {
		t.Errorf("ValidAddress(%s) = false", address)
	}
	if ValidAddress("ban_junk") {
		t.Error("ValidAddress accepted garbage")
	}
	// In-alphabet, correct length, but the padding bits are set; must be
	// rejected, not panic.
	if ValidAddress("ban_" + strings.Repeat("z", 60)) {
		t.Error("ValidAddress accepted address with padding bits set")
	}
}

func TestEncodeAddress_WrongKeySize(t *testing.T) {
	if _, err := EncodeAddress(make([]byte, 31)); err == nil {
		t.Error("expected error for short key")
	}
}

// flipLastChar swaps the final character for a different alphabet character,
// breaking the checksum without leaving the alphabet.
func flipLastChar(address string) string {
	last := address[len(address)-1]
	replacement := byte('1')
	if last == '1' {
		replacement = '3'
	}
	return address[:len(address)-1] + string(replacement)
}
