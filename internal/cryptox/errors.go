package cryptox

import "errors"

var (
	// ErrInvalidKeySize is returned when a key is not exactly KeySize bytes.
	ErrInvalidKeySize = errors.New("cryptox: key must be 32 bytes")

	// ErrPayloadTooShort is returned when an encrypted payload is shorter
	// than its nonce.
	ErrPayloadTooShort = errors.New("cryptox: payload shorter than nonce")

	// ErrAuthenticationFailed is returned by authenticated schemes when the
	// payload was modified or encrypted under another key.
	ErrAuthenticationFailed = errors.New("cryptox: message authentication failed")

	// ErrUnknownCipher is returned for an unsupported scheme name or suffix.
	ErrUnknownCipher = errors.New("cryptox: unknown cipher")
)
