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
	"crypto/rand"
	"fmt"
	"strings"

	"github.com/piprate/factom-did/internal/jsonw"
)

// DID builds a DID document: it accumulates management keys, DID keys
// and services, and exports the result as a DIDManagement entry ready
// to be recorded on-chain. A freshly generated DID is unbound to any
// network until Mainnet or Testnet is called.
type DID struct {
	id                 string
	managementKeys     []*ManagementKey
	didKeys            []*DIDKey
	services           []*Service
	network            Network
	specVersion        string
	usedKeyAliases     map[string]bool
	usedServiceAliases map[string]bool
	nonce              []byte
}

// GenerateDID creates a new, unrecorded DID with a random chain-id
// nonce and no keys or services yet.
func GenerateDID(specVersion string) (*DID, error) {
	nonce := make([]byte, 32)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate did nonce: %w", err)
	}
	chainID := CalculateChainID([][]byte{
		[]byte(EntryTypeCreate),
		[]byte(EntrySchemaV100),
		nonce,
	})
	return &DID{
		id:                 fmt.Sprintf("%s:%s", DIDMethodName, chainID),
		network:            Unspecified,
		specVersion:        specVersion,
		usedKeyAliases:     make(map[string]bool),
		usedServiceAliases: make(map[string]bool),
		nonce:              nonce,
	}, nil
}

// FromState rebuilds a DID builder around a chain that already exists,
// using the currently active keys and services a resolver produced for
// it. The result has no chain-id nonce of its own since the chain was
// created earlier; it exists so Update, MethodVersionUpgrade and
// Deactivate can be driven against previously resolved state without
// re-deriving the DID from scratch.
func FromState(chainID string, network Network, specVersion string, managementKeys []*ManagementKey, didKeys []*DIDKey, services []*Service) (*DID, error) {
	d := &DID{
		id:                 fmt.Sprintf("%s:%s", DIDMethodName, chainID),
		network:            network,
		specVersion:        specVersion,
		usedKeyAliases:     make(map[string]bool),
		usedServiceAliases: make(map[string]bool),
	}
	for _, k := range managementKeys {
		if err := d.checkAliasUnique(d.usedKeyAliases, k.Alias()); err != nil {
			return nil, err
		}
		d.managementKeys = append(d.managementKeys, k)
	}
	for _, k := range didKeys {
		if err := d.checkAliasUnique(d.usedKeyAliases, k.Alias()); err != nil {
			return nil, err
		}
		d.didKeys = append(d.didKeys, k)
	}
	for _, s := range services {
		if err := d.checkAliasUnique(d.usedServiceAliases, s.Alias); err != nil {
			return nil, err
		}
		d.services = append(d.services, s)
	}
	return d, nil
}

// AttachSigningKey replaces a previously public-key-only management key
// with one carrying the given private key material, so a DID rebuilt
// from resolved chain state (which only ever sees public keys) can sign
// updates. It fails if no management key with the given alias exists.
func (d *DID) AttachSigningKey(alias string, privateKey []byte) error {
	for i, k := range d.managementKeys {
		if k.Alias() != alias {
			continue
		}
		rebuilt, err := NewManagementKey(alias, k.Priority, k.KeyType(), k.Controller(), k.PriorityRequirement(), k.Underlying().PublicKeyBytes(), privateKey)
		if err != nil {
			return err
		}
		d.managementKeys[i] = rebuilt
		return nil
	}
	return fmt.Errorf("%w: no management key with alias %q", ErrValidation, alias)
}

// ID returns the DID identifier, including the network tag once Mainnet
// or Testnet has been called.
func (d *DID) ID() string {
	if d.network == Unspecified {
		return d.id
	}
	return fmt.Sprintf("%s:%s:%s", DIDMethodName, d.network, d.Chain())
}

// Chain returns the chain id component of the DID.
func (d *DID) Chain() string {
	parts := strings.Split(d.id, ":")
	return parts[len(parts)-1]
}

// Network reports the network this DID is bound to.
func (d *DID) Network() Network {
	return d.network
}

// Mainnet binds the DID to the Factom mainnet and returns d for
// chaining.
func (d *DID) Mainnet() *DID {
	d.network = Mainnet
	return d
}

// Testnet binds the DID to the Factom testnet and returns d for
// chaining.
func (d *DID) Testnet() *DID {
	d.network = Testnet
	return d
}

// Zero wipes the private material of every management key and DID key
// accumulated so far. The DID remains usable for reading its public
// state (IDs, entry dicts already built), but can no longer sign.
func (d *DID) Zero() {
	for _, k := range d.managementKeys {
		k.Zero()
	}
	for _, k := range d.didKeys {
		k.Zero()
	}
}

// ManagementKeys returns the management keys accumulated so far.
func (d *DID) ManagementKeys() []*ManagementKey { return d.managementKeys }

// DIDKeys returns the DID keys accumulated so far.
func (d *DID) DIDKeys() []*DIDKey { return d.didKeys }

// Services returns the services accumulated so far.
func (d *DID) Services() []*Service { return d.services }

func (d *DID) checkAliasUnique(used map[string]bool, alias string) error {
	if used[alias] {
		return fmt.Errorf("%w: alias %q is already in use", ErrDuplicateAlias, alias)
	}
	used[alias] = true
	return nil
}

// AddManagementKey builds and appends a new management key. An empty
// controller defaults to the DID itself.
func (d *DID) AddManagementKey(alias string, priority int, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (*DID, error) {
	if controller == "" {
		controller = d.ID()
	}
	key, err := NewManagementKey(alias, priority, keyType, controller, priorityRequirement, publicKey, privateKey)
	if err != nil {
		return nil, err
	}
	if err := d.checkAliasUnique(d.usedKeyAliases, alias); err != nil {
		return nil, err
	}
	d.managementKeys = append(d.managementKeys, key)
	return d, nil
}

// AddDIDKey builds and appends a new DID key. An empty controller
// defaults to the DID itself.
func (d *DID) AddDIDKey(alias string, purpose []DIDKeyPurpose, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (*DID, error) {
	if controller == "" {
		controller = d.ID()
	}
	key, err := NewDIDKey(alias, purpose, keyType, controller, priorityRequirement, publicKey, privateKey)
	if err != nil {
		return nil, err
	}
	if err := d.checkAliasUnique(d.usedKeyAliases, alias); err != nil {
		return nil, err
	}
	d.didKeys = append(d.didKeys, key)
	return d, nil
}

// AddService builds and appends a new service.
func (d *DID) AddService(alias, serviceType, endpoint string, priorityRequirement *int, customFields map[string]any) (*DID, error) {
	service, err := NewService(alias, serviceType, endpoint, priorityRequirement, customFields)
	if err != nil {
		return nil, err
	}
	if err := d.checkAliasUnique(d.usedServiceAliases, alias); err != nil {
		return nil, err
	}
	d.services = append(d.services, service)
	return d, nil
}

// Update returns a DIDUpdater to accumulate changes for a DIDUpdate
// entry. The DID must already have at least one management key.
func (d *DID) Update() (*DIDUpdater, error) {
	if len(d.managementKeys) == 0 {
		return nil, fmt.Errorf("cannot update DID without management keys")
	}
	return newDIDUpdater(d), nil
}

// MethodVersionUpgrade returns a DIDVersionUpgrader to build a
// DIDMethodVersionUpgrade entry targeting newSpecVersion.
func (d *DID) MethodVersionUpgrade(newSpecVersion string) (*DIDVersionUpgrader, error) {
	if len(d.managementKeys) == 0 {
		return nil, fmt.Errorf("cannot upgrade method spec version for DID without management keys")
	}
	return newDIDVersionUpgrader(d, newSpecVersion)
}

// Deactivate returns a DIDDeactivator to build a DIDDeactivation entry.
func (d *DID) Deactivate() (*DIDDeactivator, error) {
	if len(d.managementKeys) == 0 {
		return nil, fmt.Errorf("cannot deactivate DID without a management key of priority 0")
	}
	return newDIDDeactivator(d), nil
}

// didDocument builds the content object recorded in a DIDManagement
// entry.
func (d *DID) didDocument() (map[string]any, error) {
	managementKeys := make([]map[string]any, len(d.managementKeys))
	for i, k := range d.managementKeys {
		entry, err := k.ToEntryDict(d.ID(), d.specVersion)
		if err != nil {
			return nil, err
		}
		managementKeys[i] = entry
	}
	if len(managementKeys) < 1 {
		return nil, ErrNoManagementKeys
	}
	hasPriorityZero := false
	for _, k := range managementKeys {
		if p, _ := k["priority"].(int); p == 0 {
			hasPriorityZero = true
			break
		}
	}
	if !hasPriorityZero {
		return nil, ErrNoPriorityZeroKey
	}

	doc := map[string]any{
		"didMethodVersion": d.specVersion,
		"managementKey":    managementKeys,
	}

	if len(d.didKeys) > 0 {
		didKeys := make([]map[string]any, len(d.didKeys))
		for i, k := range d.didKeys {
			entry, err := k.ToEntryDict(d.ID(), d.specVersion)
			if err != nil {
				return nil, err
			}
			didKeys[i] = entry
		}
		doc["didKey"] = didKeys
	}

	if len(d.services) > 0 {
		services := make([]map[string]any, len(d.services))
		for i, s := range d.services {
			entry, err := s.ToEntryDict(d.ID(), d.specVersion)
			if err != nil {
				return nil, err
			}
			services[i] = entry
		}
		doc["service"] = services
	}

	return doc, nil
}

// EntryData is the ExtIDs and content of an on-chain entry, ready to be
// submitted via the chainio package.
type EntryData struct {
	ExtIDs  [][]byte
	Content []byte
}

// ExportEntryData renders the DID's accumulated keys and services as a
// DIDManagement entry. It fails if there are no management keys, no
// priority-0 management key, or the entry would exceed EntrySizeLimit.
func (d *DID) ExportEntryData() (*EntryData, error) {
	doc, err := d.didDocument()
	if err != nil {
		return nil, err
	}

	content, err := jsonw.MarshalCanonical(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal did document: %w", err)
	}

	extIDs := [][]byte{
		[]byte(EntryTypeCreate),
		[]byte(EntrySchemaV100),
		d.nonce,
	}

	size := CalculateEntrySize(extIDs, content)
	if size > EntrySizeLimit {
		return nil, fmt.Errorf("%w: entry is %d bytes, limit is %d", ErrEntrySizeExceeded, size, EntrySizeLimit)
	}

	return &EntryData{ExtIDs: extIDs, Content: content}, nil
}
