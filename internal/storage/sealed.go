package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

var ErrUnsealFailed = errors.New("stored token could not be decrypted")

// SealedStore encrypts tokens with NaCl secretbox before handing them to the inner store.
type SealedStore struct {
	inner TokenStore
	key   *[32]byte
}

func NewSealedStore(inner TokenStore, key *[32]byte) *SealedStore {
	return &SealedStore{inner: inner, key: key}
}

func (s *SealedStore) Load(ctx context.Context) (string, error) {
	stored, err := s.inner.Load(ctx)
	if err != nil || stored == "" {
		return "", err
	}

	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil || len(raw) < 24 {
		return "", ErrUnsealFailed
	}

	var nonce [24]byte
	copy(nonce[:], raw[:24])
	plain, ok := secretbox.Open(nil, raw[24:], &nonce, s.key)
	if !ok {
		return "", ErrUnsealFailed
	}
	return string(plain), nil
}

func (s *SealedStore) Save(ctx context.Context, token string) error {
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, s.key)
	return s.inner.Save(ctx, base64.StdEncoding.EncodeToString(sealed))
}

func (s *SealedStore) Clear(ctx context.Context) error {
	return s.inner.Clear(ctx)
}
