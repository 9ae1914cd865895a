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

package client

import "fmt"

// KeyType identifies the signature scheme behind a ManagementKey or
// DIDKey.
type KeyType string

const (
	EdDSA KeyType = "Ed25519VerificationKey"
	ECDSA KeyType = "ECDSASecp256k1VerificationKey"
	RSA   KeyType = "RSAVerificationKey"
)

// ParseKeyType converts an on-chain key type string to a KeyType.
func ParseKeyType(s string) (KeyType, error) {
	switch KeyType(s) {
	case EdDSA, ECDSA, RSA:
		return KeyType(s), nil
	default:
		return "", fmt.Errorf("%w: unknown key type %q", ErrValidation, s)
	}
}

// EntryType is the value of ExtID[0] for each on-chain entry kind.
type EntryType string

const (
	EntryTypeCreate         EntryType = "DIDManagement"
	EntryTypeUpdate         EntryType = "DIDUpdate"
	EntryTypeVersionUpgrade EntryType = "DIDMethodVersionUpgrade"
	EntryTypeDeactivation   EntryType = "DIDDeactivation"
)

// DIDKeyPurpose is a role a DIDKey may serve. A DIDKey carries one or
// both.
type DIDKeyPurpose string

const (
	PublicKeyPurpose      DIDKeyPurpose = "publicKey"
	AuthenticationKeyPurpose DIDKeyPurpose = "authentication"
)

// ParseDIDKeyPurpose converts an on-chain purpose string to a
// DIDKeyPurpose.
func ParseDIDKeyPurpose(s string) (DIDKeyPurpose, error) {
	switch DIDKeyPurpose(s) {
	case PublicKeyPurpose, AuthenticationKeyPurpose:
		return DIDKeyPurpose(s), nil
	default:
		return "", fmt.Errorf("%w: unknown DID key purpose %q", ErrValidation, s)
	}
}

// Network is the Factom network a DID's chain is recorded on.
type Network string

const (
	Mainnet     Network = "mainnet"
	Testnet     Network = "testnet"
	Unspecified Network = ""
)

// ParseNetwork converts a network tag to a Network. An empty string is
// the valid "unspecified" network.
func ParseNetwork(s string) (Network, error) {
	switch Network(s) {
	case Mainnet, Testnet, Unspecified:
		return Network(s), nil
	default:
		return "", fmt.Errorf("%w: unknown network %q", ErrValidation, s)
	}
}
