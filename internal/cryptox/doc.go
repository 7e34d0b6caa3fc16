// Package cryptox implements the byte-level primitives used to keep photos
// encrypted at rest: a lenient base64 decoder, byte concatenation and XOR
// helpers, and the ciphers that produce the on-disk blob payloads.
//
// Two schemes are available, selected by name or by blob file suffix:
//
//   - keystream (".enc"): nonce(16) ‖ plaintext XOR keystream, where the
//     keystream is SHA-256(key ‖ nonce ‖ counter) in 32-byte blocks. It
//     provides confidentiality only; a flipped ciphertext bit decrypts to a
//     flipped plaintext bit without any error.
//   - xchacha20poly1305 (".xenc"): nonce(24) ‖ AEAD sealed box. Tampering is
//     detected and reported as ErrAuthenticationFailed.
//
// All ciphers take a 32-byte key (KeySize).
package cryptox
