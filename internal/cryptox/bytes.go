package cryptox

import (
	"encoding/base64"
	"strings"
)

// DecodeBase64 decodes standard-alphabet base64 text leniently: every
// character outside [A-Za-z0-9+/=] (line breaks, whitespace, data-URI
// debris) is dropped, and missing trailing padding is tolerated.
//
// The cleaned text is decoded in independent 4-character blocks, so padding
// ends only its own block and concatenated padded chunks such as "AA==AA=="
// decode to one byte per chunk.
func DecodeBase64(s string) []byte {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == '+', r == '/', r == '=':
			return r
		default:
			return -1
		}
	}, s)

	out := make([]byte, 0, len(cleaned)/4*3+2)
	var buf [3]byte
	for i := 0; i < len(cleaned); i += 4 {
		block := strings.ReplaceAll(cleaned[i:min(i+4, len(cleaned))], "=", "")
		// A lone character carries fewer than 8 bits.
		if len(block) < 2 {
			continue
		}
		n, _ := base64.RawStdEncoding.Decode(buf[:], []byte(block))
		out = append(out, buf[:n]...)
	}
	return out
}

// ConcatBytes returns a new slice holding all parts in order.
func ConcatBytes(parts ...[]byte) []byte {
	total := 0
	for _, p := range parts {
		total += len(p)
	}

	out := make([]byte, 0, total)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// XORBytes returns left XOR right. The result has len(left) bytes; right
// must be at least as long as left.
func XORBytes(left, right []byte) []byte {
	out := make([]byte, len(left))
	for i := range left {
		out[i] = left[i] ^ right[i]
	}
	return out
}
