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
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
)

const (
	onChainPubKeyFieldPEM = "publicKeyPem"
	rsaKeyBits            = 2048
)

// RSAKey is an RSA key pair, encoded on-chain as PEM.
type RSAKey struct {
	pub  *rsa.PublicKey
	priv *rsa.PrivateKey
}

var _ Key = (*RSAKey)(nil)

// GenerateRSA creates a fresh 2048-bit RSA key pair.
func GenerateRSA() (*RSAKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, rsaKeyBits)
	if err != nil {
		return nil, fmt.Errorf("generate rsa key: %w", err)
	}
	return &RSAKey{pub: &priv.PublicKey, priv: priv}, nil
}

// NewRSA constructs an RSAKey from PEM-encoded public and/or private key
// bytes. If both are given, the derived public key must match the
// supplied one.
func NewRSA(pubPEM, privPEM []byte) (*RSAKey, error) {
	if pubPEM == nil && privPEM == nil {
		return nil, fmt.Errorf("%w: no key material supplied", ErrInvalidKeyMaterial)
	}

	switch {
	case privPEM != nil:
		priv, err := parseRSAPrivateKeyPEM(privPEM)
		if err != nil {
			return nil, err
		}
		if pubPEM != nil {
			pub, err := parseRSAPublicKeyPEM(pubPEM)
			if err != nil {
				return nil, err
			}
			if !pub.Equal(&priv.PublicKey) {
				return nil, fmt.Errorf("%w: public key does not match private key", ErrInvalidKeyMaterial)
			}
		}
		return &RSAKey{pub: &priv.PublicKey, priv: priv}, nil
	default:
		pub, err := parseRSAPublicKeyPEM(pubPEM)
		if err != nil {
			return nil, err
		}
		return &RSAKey{pub: pub}, nil
	}
}

func parseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: malformed RSA private key PEM", ErrInvalidKeyMaterial)
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		if pk8, err2 := x509.ParsePKCS8PrivateKey(block.Bytes); err2 == nil {
			if rsaKey, ok := pk8.(*rsa.PrivateKey); ok {
				return rsaKey, nil
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return key, nil
}

func parseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: malformed RSA public key PEM", ErrInvalidKeyMaterial)
	}
	if pub, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return pub, nil
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidKeyMaterial)
	}
	return rsaKey, nil
}

func (k *RSAKey) Sign(digest []byte) ([]byte, error) {
	if k.priv == nil {
		return nil, fmt.Errorf("%w: no private key set", ErrInvalidKeyMaterial)
	}
	return rsa.SignPKCS1v15(rand.Reader, k.priv, crypto.SHA256, digest)
}

func (k *RSAKey) Verify(digest, sig []byte) bool {
	return rsa.VerifyPKCS1v15(k.pub, crypto.SHA256, digest, sig) == nil
}

// PublicKeyBytes returns the PKCS#1 PEM encoding of the public key, the
// form NewRSA accepts.
func (k *RSAKey) PublicKeyBytes() []byte {
	return []byte(k.OnChainValue())
}

// PrivateKeyBytes returns the PKCS#1 PEM encoding of the private key, the
// form NewRSA accepts, or nil if only the public half is held.
func (k *RSAKey) PrivateKeyBytes() []byte {
	if k.priv == nil {
		return nil
	}
	return pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k.priv)})
}

func (k *RSAKey) OnChainField() string {
	return onChainPubKeyFieldPEM
}

func (k *RSAKey) OnChainValue() string {
	block := &pem.Block{
		Type:  "RSA PUBLIC KEY",
		Bytes: x509.MarshalPKCS1PublicKey(k.pub),
	}
	return string(pem.EncodeToMemory(block))
}

// Zero drops the private key. rsa.PrivateKey holds its scalars as
// big.Int, which offers no in-place wipe, so this only releases the
// reference for the garbage collector rather than overwriting memory.
func (k *RSAKey) Zero() {
	k.priv = nil
}
