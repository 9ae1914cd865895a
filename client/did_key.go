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

import (
	"fmt"

	"github.com/piprate/factom-did/client/keys"
)

// DIDKey is an application-level key usable for authentication, request
// signing, encryption or decryption. Purpose carries one or both of
// PublicKeyPurpose and AuthenticationKeyPurpose.
type DIDKey struct {
	abstractDIDKey
	Purpose []DIDKeyPurpose
}

// NewDIDKey validates its inputs and builds a DIDKey. purpose must list
// one or two distinct DIDKeyPurpose values.
func NewDIDKey(alias string, purpose []DIDKeyPurpose, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (*DIDKey, error) {
	if len(purpose) != 1 && len(purpose) != 2 {
		return nil, fmt.Errorf("%w: purpose must contain one or two values", ErrValidation)
	}
	seen := make(map[DIDKeyPurpose]bool, len(purpose))
	for _, p := range purpose {
		switch p {
		case PublicKeyPurpose, AuthenticationKeyPurpose:
		default:
			return nil, fmt.Errorf("%w: purpose must contain only valid DIDKeyPurpose values", ErrValidation)
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: purpose values must be distinct", ErrValidation)
		}
		seen[p] = true
	}

	base, err := newAbstractDIDKey(alias, keyType, controller, priorityRequirement, publicKey, privateKey)
	if err != nil {
		return nil, err
	}
	purposeCopy := make([]DIDKeyPurpose, len(purpose))
	copy(purposeCopy, purpose)
	return &DIDKey{abstractDIDKey: base, Purpose: purposeCopy}, nil
}

func (k *DIDKey) Alias() string            { return k.alias }
func (k *DIDKey) KeyType() KeyType         { return k.keyType }
func (k *DIDKey) Controller() string       { return k.controller }
func (k *DIDKey) PriorityRequirement() *int { return k.priorityRequirement }
func (k *DIDKey) Underlying() keys.Key     { return k.underlying }
func (k *DIDKey) FullID(did string) string { return k.fullID(did) }
func (k *DIDKey) Rotate() error            { return k.rotate() }

// Zero wipes this key's private material from memory, where the
// underlying representation allows it.
func (k *DIDKey) Zero() { k.zero() }

// HasPurpose reports whether the key carries the given purpose.
func (k *DIDKey) HasPurpose(p DIDKeyPurpose) bool {
	for _, have := range k.Purpose {
		if have == p {
			return true
		}
	}
	return false
}

// ToEntryDict renders the key as an on-chain entry-dict fragment for the
// given entry schema version.
func (k *DIDKey) ToEntryDict(did, version string) (map[string]any, error) {
	if version != EntrySchemaV100 {
		return nil, fmt.Errorf("unknown schema version: %s", version)
	}
	d := k.entryDictFields(did)
	purpose := make([]string, len(k.Purpose))
	for i, p := range k.Purpose {
		purpose[i] = string(p)
	}
	d["purpose"] = purpose
	return d, nil
}

// DIDKeyFromEntryDict reconstructs a public-key-only DIDKey from its
// on-chain entry-dict representation.
func DIDKeyFromEntryDict(entryDict map[string]any, version string) (*DIDKey, error) {
	if version != EntrySchemaV100 {
		return nil, fmt.Errorf("unknown schema version: %s", version)
	}

	keyType, err := ParseKeyType(stringField(entryDict, "type"))
	if err != nil {
		return nil, err
	}
	pub, err := decodePublicKeyField(entryDict)
	if err != nil {
		return nil, err
	}

	rawPurpose, _ := entryDict["purpose"].([]any)
	purpose := make([]DIDKeyPurpose, 0, len(rawPurpose))
	for _, rp := range rawPurpose {
		s, _ := rp.(string)
		p, err := ParseDIDKeyPurpose(s)
		if err != nil {
			return nil, err
		}
		purpose = append(purpose, p)
	}

	return NewDIDKey(
		aliasFromFullID(stringField(entryDict, "id")),
		purpose,
		keyType,
		stringField(entryDict, "controller"),
		priorityRequirementFromEntryDict(entryDict),
		pub,
		nil,
	)
}
