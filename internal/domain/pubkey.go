package domain

import (
	"fmt"

	"github.com/mr-tron/base58"
)

// PublicKeyLength is the size of an ed25519 public key / Solana account address.
const PublicKeyLength = 32

// PublicKey is an opaque 32-byte on-chain account identifier.
// Its text form is base58 (Bitcoin alphabet), as used by Solana.
type PublicKey [PublicKeyLength]byte

// ParsePublicKey decodes a base58 string into a PublicKey.
func ParsePublicKey(s string) (PublicKey, error) {
	var k PublicKey
	if s == "" {
		return k, fmt.Errorf("empty public key")
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return k, fmt.Errorf("invalid base58 public key %q: %w", s, err)
	}
	if len(raw) != PublicKeyLength {
		return k, fmt.Errorf("invalid public key %q: decoded to %d bytes, want %d", s, len(raw), PublicKeyLength)
	}
	copy(k[:], raw)
	return k, nil
}

// MustPublicKey is ParsePublicKey for package-level constants and tests.
func MustPublicKey(s string) PublicKey {
	k, err := ParsePublicKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// PublicKeyFromBytes copies b into a PublicKey. b must be exactly 32 bytes.
func PublicKeyFromBytes(b []byte) (PublicKey, error) {
	var k PublicKey
	if len(b) != PublicKeyLength {
		return k, fmt.Errorf("public key must be %d bytes, got %d", PublicKeyLength, len(b))
	}
	copy(k[:], b)
	return k, nil
}

func (k PublicKey) String() string { return base58.Encode(k[:]) }

// IsZero reports whether k is the all-zero key (the "default" public key).
func (k PublicKey) IsZero() bool { return k == PublicKey{} }

func (k PublicKey) Bytes() []byte { return k[:] }

func (k PublicKey) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
