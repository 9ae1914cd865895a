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
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/mr-tron/base58"
)

const (
	ecdsaPrivKeyLen = 32
	ecdsaPubKeyLen  = 64
)

// ECDSAKey is a secp256k1 key pair.
type ECDSAKey struct {
	pub  *btcec.PublicKey
	priv *btcec.PrivateKey
}

var _ Key = (*ECDSAKey)(nil)

// GenerateECDSA creates a fresh secp256k1 key pair.
func GenerateECDSA() (*ECDSAKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate secp256k1 key: %w", err)
	}
	return &ECDSAKey{pub: priv.PubKey(), priv: priv}, nil
}

// NewECDSA constructs an ECDSAKey from raw public and/or private bytes.
// The private key is a 32-byte scalar; the public key is a 64-byte
// uncompressed curve point (X||Y, no leading format byte). If both are
// given, the derived public key must match the supplied one.
func NewECDSA(pub, priv []byte) (*ECDSAKey, error) {
	if pub == nil && priv == nil {
		return nil, fmt.Errorf("%w: no key material supplied", ErrInvalidKeyMaterial)
	}

	switch {
	case priv != nil:
		if len(priv) != ecdsaPrivKeyLen {
			return nil, fmt.Errorf("%w: ecdsa private key must be a %d-byte scalar", ErrInvalidKeyMaterial, ecdsaPrivKeyLen)
		}
		privKey, pubKey := btcec.PrivKeyFromBytes(priv)
		if pub != nil {
			want, err := decodeUncompressedPoint(pub)
			if err != nil {
				return nil, err
			}
			if !pubKey.IsEqual(want) {
				return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidKeyMaterial)
			}
		}
		return &ECDSAKey{pub: pubKey, priv: privKey}, nil
	default:
		pubKey, err := decodeUncompressedPoint(pub)
		if err != nil {
			return nil, err
		}
		return &ECDSAKey{pub: pubKey}, nil
	}
}

func decodeUncompressedPoint(pub []byte) (*btcec.PublicKey, error) {
	if len(pub) != ecdsaPubKeyLen {
		return nil, fmt.Errorf("%w: ecdsa public key must be a %d-byte encoded point", ErrInvalidKeyMaterial, ecdsaPubKeyLen)
	}
	// btcec expects the SEC1 uncompressed form, which is the 0x04 prefix
	// followed by the 64-byte X||Y point.
	full := make([]byte, 0, ecdsaPubKeyLen+1)
	full = append(full, 0x04)
	full = append(full, pub...)
	pubKey, err := btcec.ParsePubKey(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return pubKey, nil
}

func (k *ECDSAKey) Sign(digest []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("%w: no private key set", ErrInvalidKeyMaterial)
	}
	sig := ecdsa.Sign(k.priv, digest)
	return sig.Serialize(), nil
}

func (k *ECDSAKey) Verify(digest, sig []byte) bool {
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(digest, k.pub)
}

func (k *ECDSAKey) PublicKeyBytes() []byte {
	// Drop the 0x04 prefix: the on-chain representation is the bare
	// 64-byte X||Y point, per the method specification.
	full := k.pub.SerializeUncompressed()
	return full[1:]
}

func (k *ECDSAKey) PrivateKeyBytes() []byte {
	if k.priv == nil {
		return nil
	}
	return k.priv.Serialize()
}

func (k *ECDSAKey) OnChainField() string {
	return onChainPubKeyFieldBase58
}

func (k *ECDSAKey) OnChainValue() string {
	return base58.Encode(k.PublicKeyBytes())
}

// Zero drops the private scalar. btcec.PrivateKey does not expose its
// internal field for in-place wiping, so this only releases the
// reference for the garbage collector rather than overwriting memory.
func (k *ECDSAKey) Zero() {
	k.priv = nil
}
