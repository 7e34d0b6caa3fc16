package cryptox

import (
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// AEADCipher seals blobs with XChaCha20-Poly1305. Payloads are
// nonce(24) ‖ ciphertext ‖ tag(16).
type AEADCipher struct{}

// Name implements Cipher.
func (AEADCipher) Name() string { return "xchacha20poly1305" }

// Suffix implements Cipher.
func (AEADCipher) Suffix() string { return ".xenc" }

// Encrypt seals data under key with a fresh random nonce.
func (AEADCipher) Encrypt(data, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	nonce, err := randomBytes(aead.NonceSize())
	if err != nil {
		return nil, err
	}

	return aead.Seal(nonce, nonce, data, nil), nil
}

// Decrypt opens a payload produced by Encrypt.
func (AEADCipher) Decrypt(payload, key []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, ErrInvalidKeySize
	}

	if len(payload) < aead.NonceSize()+aead.Overhead() {
		return nil, ErrPayloadTooShort
	}

	nonce, sealed := payload[:aead.NonceSize()], payload[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}
