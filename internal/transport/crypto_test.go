package transport

import (
	"bytes"
	"testing"
)

func testKey() []byte {
	return []byte("0123456789abcdef0123456789abcdef") // 32 bytes => AES-256
}

func TestCryptoSealOpenRoundTrip(t *testing.T) {
	c, err := NewCrypto(testKey())
	if err != nil {
		t.Fatalf("NewCrypto: %v", err)
	}
	plaintext := []byte(`{"t":"i","f":42,"b":7}`)

	envelope, err := c.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if !bytes.HasPrefix(envelope, envelopeMagic[:]) {
		t.Fatal("envelope missing FGEC magic prefix")
	}

	got, err := c.Open(envelope)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open = %q, want %q", got, plaintext)
	}
}

func TestCryptoOpenRejectsTamperedCiphertext(t *testing.T) {
	c, _ := NewCrypto(testKey())
	envelope, _ := c.Seal([]byte("hello"))
	envelope[len(envelope)-1] ^= 0xFF

	if _, err := c.Open(envelope); err == nil {
		t.Fatal("expected tampering to be detected")
	}
}

func TestCryptoOpenRejectsBadMagic(t *testing.T) {
	c, _ := NewCrypto(testKey())
	envelope, _ := c.Seal([]byte("hello"))
	envelope[0] = 'X'

	if _, err := c.Open(envelope); err == nil {
		t.Fatal("expected bad magic to be rejected")
	}
}

func TestCryptoOpenRejectsShortEnvelope(t *testing.T) {
	c, _ := NewCrypto(testKey())
	if _, err := c.Open([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected a short envelope to be rejected")
	}
}

func TestNewCryptoFromPasswordDerivesUsableKey(t *testing.T) {
	c, err := NewCryptoFromPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("NewCryptoFromPassword: %v", err)
	}
	plaintext := []byte("hello")
	envelope, err := c.Seal(plaintext)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	got, err := c.Open(envelope)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if string(got) != string(plaintext) {
		t.Fatalf("Open = %q, want %q", got, plaintext)
	}
}

func TestNewCryptoFromPasswordIsDeterministicAndDistinct(t *testing.T) {
	a, err := NewCryptoFromPassword("same-password")
	if err != nil {
		t.Fatalf("NewCryptoFromPassword(a): %v", err)
	}
	b, err := NewCryptoFromPassword("same-password")
	if err != nil {
		t.Fatalf("NewCryptoFromPassword(b): %v", err)
	}
	envelope, err := a.Seal([]byte("hello"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := b.Open(envelope); err != nil {
		t.Fatalf("expected the same password to derive the same key, got: %v", err)
	}

	other, err := NewCryptoFromPassword("different-password")
	if err != nil {
		t.Fatalf("NewCryptoFromPassword(other): %v", err)
	}
	if _, err := other.Open(envelope); err == nil {
		t.Fatal("expected a different password to derive a different key")
	}
}
