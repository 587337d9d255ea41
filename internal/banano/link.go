package banano

import (
	"bytes"
	"encoding/hex"
	"unicode/utf8"
)

// DecodeLinkMessage extracts the chat text a sender embedded in the 32-byte
// link field of a send block: UTF-8 bytes, zero-padded to the right.
// Returns the empty string when the link carries no decodable text.
func DecodeLinkMessage(link string) string {
	data, err := hex.DecodeString(link)
	if err != nil || len(data) != 32 {
		return ""
	}

	if i := bytes.IndexByte(data, 0); i >= 0 {
		// Reject payloads with text after the padding, they are not messages.
		if !isZero(data[i:]) {
			return ""
		}
		data = data[:i]
	}

	if !utf8.Valid(data) {
		return ""
	}
	return string(data)
}

func isZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
