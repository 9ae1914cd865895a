// Copyright 2022 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package keys

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/piprate/factom-did/internal/zero"
)

const onChainPubKeyFieldBase58 = "publicKeyBase58"

// EdDSAKey is an Ed25519 key pair.
type EdDSAKey struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

var _ Key = (*EdDSAKey)(nil)

// GenerateEdDSA creates a fresh Ed25519 key pair.
func GenerateEdDSA() (*EdDSAKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return &EdDSAKey{pub: pub, priv: priv}, nil
}

// NewEdDSA constructs an EdDSAKey from raw public and/or private bytes. At
// least one must be supplied. Ed25519 requires a 32-byte seed for the
// private key and a 32-byte value for the public key. If both are given,
// the derived public key must match the supplied one.
func NewEdDSA(pub, priv []byte) (*EdDSAKey, error) {
	if pub == nil && priv == nil {
		return nil, fmt.Errorf("%w: no key material supplied", ErrInvalidKeyMaterial)
	}

	switch {
	case priv != nil:
		if len(priv) != ed25519.SeedSize {
			return nil, fmt.Errorf("%w: ed25519 private key must be a %d-byte seed", ErrInvalidKeyMaterial, ed25519.SeedSize)
		}
		signingKey := ed25519.NewKeyFromSeed(priv)
		verifyingKey := signingKey.Public().(ed25519.PublicKey)
		if pub != nil {
			if len(pub) != ed25519.PublicKeySize {
				return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes", ErrInvalidKeyMaterial, ed25519.PublicKeySize)
			}
			if !verifyingKey.Equal(ed25519.PublicKey(pub)) {
				return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidKeyMaterial)
			}
		}
		return &EdDSAKey{pub: verifyingKey, priv: signingKey}, nil
	default:
		if len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("%w: ed25519 public key must be %d bytes", ErrInvalidKeyMaterial, ed25519.PublicKeySize)
		}
		return &EdDSAKey{pub: ed25519.PublicKey(pub)}, nil
	}
}

func (k *EdDSAKey) Sign(digest []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("%w: no private key set", ErrInvalidKeyMaterial)
	}
	return ed25519.Sign(k.priv, digest), nil
}

func (k *EdDSAKey) Verify(digest, sig []byte) bool {
	return ed25519.Verify(k.pub, digest, sig)
}

func (k *EdDSAKey) PublicKeyBytes() []byte {
	return k.pub
}

func (k *EdDSAKey) PrivateKeyBytes() []byte {
	if k.priv == nil {
		return nil
	}
	return k.priv.Seed()
}

func (k *EdDSAKey) OnChainField() string {
	return onChainPubKeyFieldBase58
}

func (k *EdDSAKey) OnChainValue() string {
	return base58.Encode(k.pub)
}

func (k *EdDSAKey) Zero() {
	if k.priv == nil {
		return
	}
	zero.Bytes(k.priv)
	k.priv = nil
}
