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

// Package keys implements the three signature schemes the did:factom
// method recognises, behind one uniform Key interface: EdDSA (Ed25519),
// ECDSA (secp256k1) and RSA. Callers outside this package never branch on
// the concrete type — they sign, verify and read the on-chain encoding
// through the interface.
package keys

import "errors"

// ErrInvalidKeyMaterial is returned when key bytes are malformed, the
// wrong width, or a supplied public/private pair does not correspond.
var ErrInvalidKeyMaterial = errors.New("invalid key material")

// Key is the uniform contract every supported signature scheme satisfies.
type Key interface {
	// Sign signs a 32-byte digest. Fails if no private half is set.
	Sign(digest []byte) ([]byte, error)

	// Verify reports whether sig is a valid signature of digest. It never
	// returns an error: a malformed signature simply fails verification.
	Verify(digest, sig []byte) bool

	// PublicKeyBytes returns the public key in the form the scheme's
	// constructor accepts: raw bytes for EdDSA/ECDSA, PEM for RSA.
	PublicKeyBytes() []byte

	// PrivateKeyBytes returns the private key in the form the scheme's
	// constructor accepts (raw bytes for EdDSA/ECDSA, PEM for RSA), or nil
	// if this Key only holds a public half.
	PrivateKeyBytes() []byte

	// OnChainField is the JSON field name the public key is recorded
	// under: "publicKeyBase58" for EdDSA/ECDSA, "publicKeyPem" for RSA.
	OnChainField() string

	// OnChainValue is the encoded public key value for that field.
	OnChainValue() string

	// Zero wipes the private half from memory, where the underlying
	// representation allows it, and drops the reference. Sign fails
	// with ErrInvalidKeyMaterial after Zero is called.
	Zero()
}
