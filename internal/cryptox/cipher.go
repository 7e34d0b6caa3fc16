package cryptox

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// Cipher encrypts photo payloads with a 32-byte key. Suffix is the file
// name suffix marking blobs written with the scheme.
type Cipher interface {
	Name() string
	Suffix() string
	Encrypt(data, key []byte) ([]byte, error)
	Decrypt(payload, key []byte) ([]byte, error)
}

// DefaultCipherName is the scheme used when none is configured.
const DefaultCipherName = "keystream"

var ciphers = []Cipher{KeystreamCipher{}, AEADCipher{}}

// Ciphers returns every supported scheme.
func Ciphers() []Cipher {
	out := make([]Cipher, len(ciphers))
	copy(out, ciphers)
	return out
}

// CipherByName returns the scheme registered under name.
func CipherByName(name string) (Cipher, error) {
	for _, c := range ciphers {
		if c.Name() == name {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, name)
}

// CipherBySuffix returns the scheme whose suffix terminates fileName.
func CipherBySuffix(fileName string) (Cipher, error) {
	for _, c := range ciphers {
		if strings.HasSuffix(fileName, c.Suffix()) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: no scheme for %q", ErrUnknownCipher, fileName)
}

func randomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("random bytes: %w", err)
	}
	return b, nil
}
