package cryptox

import (
	"crypto/sha256"
	"encoding/binary"
)

const (
	// KeySize is the symmetric key length for every scheme.
	KeySize = 32

	// KeystreamNonceSize is the nonce prefix length of keystream payloads.
	KeystreamNonceSize = 16

	keystreamBlockSize = sha256.Size
)

// DeriveKeystream returns length pseudo-random bytes derived from key and
// nonce. Block i is SHA-256(key ‖ nonce ‖ uint32_be(i)); the final block is
// truncated to fill exactly length bytes.
func DeriveKeystream(key, nonce []byte, length int) []byte {
	if length <= 0 {
		return []byte{}
	}

	out := make([]byte, 0, length)
	seed := make([]byte, len(key)+len(nonce)+4)
	copy(seed, key)
	copy(seed[len(key):], nonce)
	counter := seed[len(key)+len(nonce):]

	for i := uint32(0); len(out) < length; i++ {
		binary.BigEndian.PutUint32(counter, i)
		block := sha256.Sum256(seed)
		n := min(keystreamBlockSize, length-len(out))
		out = append(out, block[:n]...)
	}
	return out
}

// KeystreamCipher is the digest-counter stream cipher. Payloads are
// nonce(16) ‖ ciphertext, with len(ciphertext) == len(plaintext).
type KeystreamCipher struct{}

// Name implements Cipher.
func (KeystreamCipher) Name() string { return "keystream" }

// Suffix implements Cipher.
func (KeystreamCipher) Suffix() string { return ".enc" }

// Encrypt XORs data with a keystream derived from key and a fresh random
// nonce and returns nonce ‖ ciphertext.
func (KeystreamCipher) Encrypt(data, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	nonce, err := randomBytes(KeystreamNonceSize)
	if err != nil {
		return nil, err
	}

	stream := DeriveKeystream(key, nonce, len(data))
	return ConcatBytes(nonce, XORBytes(data, stream)), nil
}

// Decrypt splits payload into nonce and ciphertext and reverses Encrypt.
// A wrong key yields garbage rather than an error.
func (KeystreamCipher) Decrypt(payload, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}
	if len(payload) < KeystreamNonceSize {
		return nil, ErrPayloadTooShort
	}

	nonce := payload[:KeystreamNonceSize]
	ciphertext := payload[KeystreamNonceSize:]

	stream := DeriveKeystream(key, nonce, len(ciphertext))
	return XORBytes(ciphertext, stream), nil
}
