package banano

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Banano addresses are a ban_ prefix followed by 60 characters of the
// account base32 alphabet: 4 padding bits, the 256-bit public key and a
// 40-bit blake2b checksum in reversed byte order.
const (
	addressPrefix  = "ban_"
	addressBodyLen = 60
	checksumLen    = 5
)

const addressAlphabet = "13456789abcdefghijkmnopqrstuwxyz"

// ErrInvalidAddress is returned when an address fails decoding or its
// checksum does not match.
var ErrInvalidAddress = errors.New("invalid address")

var addressCharValue = func() map[byte]uint {
	m := make(map[byte]uint, len(addressAlphabet))
	for i := 0; i < len(addressAlphabet); i++ {
		m[addressAlphabet[i]] = uint(i)
	}
	return m
}()

// ParsePublicKey decodes a ban_ address into its 32-byte public key,
// verifying the embedded checksum.
func ParsePublicKey(address string) ([]byte, error) {
	if !strings.HasPrefix(address, addressPrefix) {
		return nil, fmt.Errorf("%w: missing %s prefix", ErrInvalidAddress, addressPrefix)
	}
	body := address[len(addressPrefix):]
	if len(body) != addressBodyLen {
		return nil, fmt.Errorf("%w: body length %d", ErrInvalidAddress, len(body))
	}

	value := new(big.Int)
	for i := 0; i < len(body); i++ {
		v, ok := addressCharValue[body[i]]
		if !ok {
			return nil, fmt.Errorf("%w: character %q", ErrInvalidAddress, body[i])
		}
		value.Lsh(value, 5)
		value.Or(value, big.NewInt(int64(v)))
	}

	// Low 40 bits are the checksum, the rest is the key.
	checksum := make([]byte, checksumLen)
	new(big.Int).And(value, big.NewInt(0).SetBytes([]byte{0xff, 0xff, 0xff, 0xff, 0xff})).FillBytes(checksum)

	// The 4 padding bits ahead of the key must be zero; a key wider than
	// 256 bits would make FillBytes panic below.
	key := new(big.Int).Rsh(value, checksumLen*8)
	if key.BitLen() > 256 {
		return nil, fmt.Errorf("%w: padding bits set", ErrInvalidAddress)
	}

	pub := make([]byte, 32)
	key.FillBytes(pub)

	if !bytes.Equal(checksum, addressChecksum(pub)) {
		return nil, fmt.Errorf("%w: checksum mismatch", ErrInvalidAddress)
	}

	return pub, nil
}

// EncodeAddress encodes a 32-byte public key as a ban_ address.
func EncodeAddress(publicKey []byte) (string, error) {
	if len(publicKey) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(publicKey))
	}

	value := new(big.Int).SetBytes(publicKey)
	value.Lsh(value, checksumLen*8)
	value.Or(value, new(big.Int).SetBytes(addressChecksum(publicKey)))

	body := make([]byte, addressBodyLen)
	mask := big.NewInt(31)
	digit := new(big.Int)
	for i := addressBodyLen - 1; i >= 0; i-- {
		digit.And(value, mask)
		body[i] = addressAlphabet[digit.Uint64()]
		value.Rsh(value, 5)
	}

	return addressPrefix + string(body), nil
}

// ValidAddress reports whether the address decodes with a correct checksum.
func ValidAddress(address string) bool {
	_, err := ParsePublicKey(address)
	return err == nil
}

// addressChecksum computes the 5-byte blake2b digest of the key, reversed.
func addressChecksum(publicKey []byte) []byte {
	h, _ := blake2b.New(checksumLen, nil)
	h.Write(publicKey)
	sum := h.Sum(nil)
	for i, j := 0, len(sum)-1; i < j; i, j = i+1, j-1 {
		sum[i], sum[j] = sum[j], sum[i]
	}
	return sum
}
