package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
)

// envelopeMagic and the IV length are fixed by spec §6 "Encrypted
// envelope": magic(4B) || iv(12B) || ciphertext, AES-GCM with a
// 12-byte nonce.
var envelopeMagic = [4]byte{'F', 'G', 'E', 'C'}

const gcmNonceSize = 12

// Crypto seals and opens the wire envelope wrapping a transport
// message. The key is either supplied raw (NewCrypto) or derived from a
// session password (NewCryptoFromPassword).
type Crypto struct {
	gcm cipher.AEAD
}

// NewCrypto builds a Crypto from a 16/24/32-byte AES key.
func NewCrypto(key []byte) (*Crypto, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid AES key: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("transport: gcm init: %w", err)
	}
	return &Crypto{gcm: gcm}, nil
}

// NewCryptoFromPassword derives a 32-byte AES-256 key from a session
// password via SHA-256 (spec §4.4 "Security": "a pre-shared key
// derived from a session password (SHA-256)") and builds a Crypto from
// it. Both sides of a match derive the same key from the same
// password exchanged out of band (e.g. typed in by both players),
// without ever putting the password itself on the wire.
func NewCryptoFromPassword(password string) (*Crypto, error) {
	key := sha256.Sum256([]byte(password))
	return NewCrypto(key[:])
}

// Seal encrypts plaintext into the FGEC envelope: magic || iv || ct.
func (c *Crypto) Seal(plaintext []byte) ([]byte, error) {
	iv := make([]byte, gcmNonceSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("transport: iv: %w", err)
	}

	out := make([]byte, 0, len(envelopeMagic)+len(iv)+len(plaintext)+c.gcm.Overhead())
	out = append(out, envelopeMagic[:]...)
	out = append(out, iv...)
	out = c.gcm.Seal(out, iv, plaintext, nil)
	return out, nil
}

// Open decrypts an FGEC envelope produced by Seal, verifying the magic
// and authentication tag.
func (c *Crypto) Open(envelope []byte) ([]byte, error) {
	if len(envelope) < len(envelopeMagic)+gcmNonceSize {
		return nil, fmt.Errorf("transport: %w: envelope too short", ErrInvalidEnvelope)
	}
	for i, b := range envelopeMagic {
		if envelope[i] != b {
			return nil, fmt.Errorf("transport: %w: bad magic", ErrInvalidEnvelope)
		}
	}

	iv := envelope[len(envelopeMagic) : len(envelopeMagic)+gcmNonceSize]
	ciphertext := envelope[len(envelopeMagic)+gcmNonceSize:]

	plaintext, err := c.gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("transport: %w: %v", ErrInvalidEnvelope, err)
	}
	return plaintext, nil
}
