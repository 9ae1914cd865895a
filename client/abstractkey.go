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
	"strings"

	"github.com/mr-tron/base58"
	"github.com/piprate/factom-did/client/keys"
	"github.com/rs/zerolog/log"
)

// abstractDIDKey holds the fields and behaviour common to ManagementKey
// and DIDKey: an alias, an underlying signature key, a controller DID
// and an optional priority requirement.
type abstractDIDKey struct {
	alias               string
	keyType             KeyType
	controller          string
	priorityRequirement *int
	underlying          keys.Key
}

func newAbstractDIDKey(alias string, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (abstractDIDKey, error) {
	if err := validateAlias(alias); err != nil {
		return abstractDIDKey{}, err
	}
	if err := validateKeyType(keyType); err != nil {
		return abstractDIDKey{}, err
	}
	if err := validateDID(controller); err != nil {
		return abstractDIDKey{}, err
	}
	if err := validatePriorityRequirement(priorityRequirement); err != nil {
		return abstractDIDKey{}, err
	}

	underlying, err := newUnderlyingKey(keyType, publicKey, privateKey)
	if err != nil {
		return abstractDIDKey{}, err
	}

	return abstractDIDKey{
		alias:               alias,
		keyType:             keyType,
		controller:          controller,
		priorityRequirement: priorityRequirement,
		underlying:          underlying,
	}, nil
}

// newUnderlyingKey dispatches to the keys subpackage constructor matching
// keyType. publicKey/privateKey are the on-chain raw encodings: base58
// payload bytes for EdDSA/ECDSA, PEM bytes for RSA.
func newUnderlyingKey(keyType KeyType, publicKey, privateKey []byte) (keys.Key, error) {
	switch keyType {
	case EdDSA:
		return keys.NewEdDSA(publicKey, privateKey)
	case ECDSA:
		return keys.NewECDSA(publicKey, privateKey)
	case RSA:
		return keys.NewRSA(publicKey, privateKey)
	default:
		return nil, fmt.Errorf("%w: unsupported signature type %q", ErrValidation, keyType)
	}
}

// fullID constructs the full key identifier: the owning DID plus the
// key's alias as a fragment.
func (k abstractDIDKey) fullID(did string) string {
	return fmt.Sprintf("%s#%s", did, k.alias)
}

// freshKeyMaterial generates a new key pair of the given type and
// returns its on-chain public/private encodings, ready to pass to
// NewManagementKey/NewDIDKey.
func freshKeyMaterial(keyType KeyType) (publicKey, privateKey []byte, err error) {
	var k keys.Key
	switch keyType {
	case EdDSA:
		k, err = keys.GenerateEdDSA()
	case ECDSA:
		k, err = keys.GenerateECDSA()
	case RSA:
		k, err = keys.GenerateRSA()
	default:
		return nil, nil, fmt.Errorf("%w: unsupported signature type %q", ErrValidation, keyType)
	}
	if err != nil {
		return nil, nil, err
	}
	return k.PublicKeyBytes(), k.PrivateKeyBytes(), nil
}

// rotate replaces the underlying key pair with a freshly generated one
// of the same type. The key must currently hold a private key.
func (k *abstractDIDKey) rotate() error {
	if k.underlying.PrivateKeyBytes() == nil {
		return fmt.Errorf("%w: cannot rotate a key with no private material", ErrInvalidKeyMaterial)
	}
	switch k.keyType {
	case EdDSA:
		generated, err := keys.GenerateEdDSA()
		if err != nil {
			return err
		}
		k.underlying = generated
	case ECDSA:
		generated, err := keys.GenerateECDSA()
		if err != nil {
			return err
		}
		k.underlying = generated
	case RSA:
		generated, err := keys.GenerateRSA()
		if err != nil {
			return err
		}
		k.underlying = generated
	default:
		return fmt.Errorf("%w: unsupported signature type %q", ErrValidation, k.keyType)
	}
	log.Info().Str("alias", k.alias).Str("keyType", string(k.keyType)).Msg("rotated key pair")
	return nil
}

// zero wipes the key's private material from memory, where the
// underlying representation allows it.
func (k *abstractDIDKey) zero() {
	k.underlying.Zero()
}

// entryDictFields returns the on-chain fields shared by ManagementKey and
// DIDKey entry-dict representations: id, type, controller, the public
// key field and, when set, priorityRequirement.
func (k abstractDIDKey) entryDictFields(did string) map[string]any {
	d := map[string]any{
		"id":                k.fullID(did),
		"type":              string(k.keyType),
		"controller":        k.controller,
		k.underlying.OnChainField(): k.underlying.OnChainValue(),
	}
	if k.priorityRequirement != nil {
		d["priorityRequirement"] = *k.priorityRequirement
	}
	return d
}

// aliasFromFullID extracts the fragment (alias) portion of a full key or
// service identifier.
func aliasFromFullID(fullID string) string {
	idx := strings.LastIndex(fullID, "#")
	if idx < 0 {
		return fullID
	}
	return fullID[idx+1:]
}

// decodePublicKeyField extracts and decodes the public key material from
// an on-chain entry dict, regardless of whether it was encoded as
// publicKeyBase58 or publicKeyPem.
func decodePublicKeyField(entryDict map[string]any) ([]byte, error) {
	if v, ok := entryDict["publicKeyBase58"]; ok {
		s, _ := v.(string)
		decoded, err := base58.Decode(s)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed base58 public key: %v", ErrInvalidKeyMaterial, err)
		}
		return decoded, nil
	}
	if v, ok := entryDict["publicKeyPem"]; ok {
		s, _ := v.(string)
		return []byte(s), nil
	}
	return nil, fmt.Errorf("%w: entry dict has no recognised public key field", ErrInvalidKeyMaterial)
}

func priorityRequirementFromEntryDict(entryDict map[string]any) *int {
	v, ok := entryDict["priorityRequirement"]
	if !ok {
		return nil
	}
	switch n := v.(type) {
	case float64:
		i := int(n)
		return &i
	case int:
		return &n
	default:
		return nil
	}
}
