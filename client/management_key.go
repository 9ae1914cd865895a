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

// ManagementKey signs updates for an existing DID. Priority is a
// non-negative integer showing the key's hierarchical level: keys with
// lower priority override keys with higher priority.
type ManagementKey struct {
	abstractDIDKey
	Priority int
}

// NewManagementKey validates its inputs and builds a ManagementKey. Pass
// nil for publicKey/privateKey that aren't available; at least one of
// the two must be non-nil.
func NewManagementKey(alias string, priority int, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (*ManagementKey, error) {
	if priority < 0 {
		return nil, fmt.Errorf("%w: priority must be a non-negative integer", ErrValidation)
	}
	base, err := newAbstractDIDKey(alias, keyType, controller, priorityRequirement, publicKey, privateKey)
	if err != nil {
		return nil, err
	}
	return &ManagementKey{abstractDIDKey: base, Priority: priority}, nil
}

func (k *ManagementKey) Alias() string                { return k.alias }
func (k *ManagementKey) KeyType() KeyType              { return k.keyType }
func (k *ManagementKey) Controller() string            { return k.controller }
func (k *ManagementKey) PriorityRequirement() *int     { return k.priorityRequirement }
func (k *ManagementKey) Underlying() keys.Key          { return k.underlying }
func (k *ManagementKey) FullID(did string) string      { return k.fullID(did) }
func (k *ManagementKey) Rotate() error                 { return k.rotate() }

// Zero wipes this key's private material from memory, where the
// underlying representation allows it.
func (k *ManagementKey) Zero() { k.zero() }

// ToEntryDict renders the key as an on-chain entry-dict fragment for the
// given entry schema version.
func (k *ManagementKey) ToEntryDict(did, version string) (map[string]any, error) {
	if version != EntrySchemaV100 {
		return nil, fmt.Errorf("unknown schema version: %s", version)
	}
	d := k.entryDictFields(did)
	d["priority"] = k.Priority
	return d, nil
}

// ManagementKeyFromEntryDict reconstructs a public-key-only ManagementKey
// from its on-chain entry-dict representation.
func ManagementKeyFromEntryDict(entryDict map[string]any, version string) (*ManagementKey, error) {
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
	priority, ok := numberField(entryDict, "priority")
	if !ok {
		return nil, fmt.Errorf("%w: entry dict is missing priority", ErrValidation)
	}

	return NewManagementKey(
		aliasFromFullID(stringField(entryDict, "id")),
		priority,
		keyType,
		stringField(entryDict, "controller"),
		priorityRequirementFromEntryDict(entryDict),
		pub,
		nil,
	)
}

func stringField(d map[string]any, key string) string {
	v, _ := d[key].(string)
	return v
}

func numberField(d map[string]any, key string) (int, bool) {
	v, ok := d[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
