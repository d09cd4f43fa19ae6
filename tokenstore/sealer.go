package tokenstore

import (
	"crypto/rand"
	"fmt"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	nonceLength = 24
	keyLength   = 32

	// The key must be stable across restarts, so the salt is fixed per application.
	sealerSalt = "fee-portal/tokenstore/v1"
)

// Sealer encrypts values at rest with NaCl secretbox.
type Sealer struct {
	key [keyLength]byte
}

// NewSealer derives the sealing key from secret with argon2id.
func NewSealer(secret string) *Sealer {
	s := &Sealer{}
	derived := argon2.IDKey([]byte(secret), []byte(sealerSalt), 1, 64*1024, 2, keyLength)
	copy(s.key[:], derived)
	return s
}

// Seal returns nonce || box
func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("tokenstore: failed to generate nonce: %w", err)
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *Sealer) Open(sealed []byte) ([]byte, error) {
	if len(sealed) < nonceLength+secretbox.Overhead {
		return nil, errors.ErrSealed
	}
	var nonce [nonceLength]byte
	copy(nonce[:], sealed[:nonceLength])

	plain, ok := secretbox.Open(nil, sealed[nonceLength:], &nonce, &s.key)
	if !ok {
		return nil, errors.ErrSealed
	}
	return plain, nil
}
