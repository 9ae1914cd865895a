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

package resolver

import (
	"fmt"
	"math"

	"github.com/Masterminds/semver/v3"
	"github.com/piprate/factom-did/client"
)

// processManagementEntry extracts the management keys, DID keys and
// services from a DIDManagement entry's parsed content. It is only
// ever called for the first entry on a chain, which the caller has
// already schema-validated; it still enforces the logic rules that a
// schema cannot express (network/chain match, no duplicate aliases,
// at least one priority-0 management key).
func processManagementEntry(chainID string, content map[string]any, network client.Network) (managementKeys map[string]*client.ManagementKey, didKeys map[string]*client.DIDKey, services map[string]*client.Service, methodVersion string, err error) {
	managementKeys = make(map[string]*client.ManagementKey)
	didKeys = make(map[string]*client.DIDKey)
	services = make(map[string]*client.Service)

	methodVersion, _ = content["didMethodVersion"].(string)

	rawManagementKeys, _ := content["managementKey"].([]any)
	foundPriorityZero := false
	for _, raw := range rawManagementKeys {
		keyData, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, nil, "", fmt.Errorf("%w: management key entry is not an object", errMalformedManagementEntry)
		}
		id, _ := keyData["id"].(string)
		if !validateKeyIDAgainstChainID(id, chainID) {
			return nil, nil, nil, "", fmt.Errorf("%w: invalid key identifier %q for chain id %q", errMalformedManagementEntry, id, chainID)
		}
		if !validateIDAgainstNetwork(id, network) {
			return nil, nil, nil, "", fmt.Errorf("%w: invalid key identifier %q for network %q", errMalformedManagementEntry, id, network)
		}
		alias := aliasOf(id)
		if _, exists := managementKeys[alias]; exists {
			return nil, nil, nil, "", fmt.Errorf("%w: duplicate management key found", errMalformedManagementEntry)
		}
		key, err := client.ManagementKeyFromEntryDict(keyData, client.EntrySchemaV100)
		if err != nil {
			return nil, nil, nil, "", fmt.Errorf("%w: %v", errMalformedManagementEntry, err)
		}
		managementKeys[alias] = key
		if key.Priority == 0 {
			foundPriorityZero = true
		}
	}
	if !foundPriorityZero {
		return nil, nil, nil, "", fmt.Errorf("%w: entry must contain at least one management key with priority 0", errMalformedManagementEntry)
	}

	rawDIDKeys, _ := content["didKey"].([]any)
	for _, raw := range rawDIDKeys {
		keyData, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, nil, "", fmt.Errorf("%w: DID key entry is not an object", errMalformedManagementEntry)
		}
		id, _ := keyData["id"].(string)
		if !validateIDAgainstNetwork(id, network) {
			return nil, nil, nil, "", fmt.Errorf("%w: invalid key identifier %q for network %q", errMalformedManagementEntry, id, network)
		}
		alias := aliasOf(id)
		if _, exists := didKeys[alias]; exists {
			return nil, nil, nil, "", fmt.Errorf("%w: duplicate DID key found", errMalformedManagementEntry)
		}
		key, err := client.DIDKeyFromEntryDict(keyData, client.EntrySchemaV100)
		if err != nil {
			return nil, nil, nil, "", fmt.Errorf("%w: %v", errMalformedManagementEntry, err)
		}
		didKeys[alias] = key
	}

	rawServices, _ := content["service"].([]any)
	for _, raw := range rawServices {
		serviceData, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, nil, "", fmt.Errorf("%w: service entry is not an object", errMalformedManagementEntry)
		}
		id, _ := serviceData["id"].(string)
		if !validateIDAgainstNetwork(id, network) {
			return nil, nil, nil, "", fmt.Errorf("%w: invalid service identifier %q for network %q", errMalformedManagementEntry, id, network)
		}
		alias := aliasOf(id)
		if _, exists := services[alias]; exists {
			return nil, nil, nil, "", fmt.Errorf("%w: duplicate service found", errMalformedManagementEntry)
		}
		service, err := client.ServiceFromEntryDict(serviceData, client.EntrySchemaV100)
		if err != nil {
			return nil, nil, nil, "", fmt.Errorf("%w: %v", errMalformedManagementEntry, err)
		}
		services[alias] = service
	}

	return managementKeys, didKeys, services, methodVersion, nil
}

// processUpdateEntry applies a DIDUpdate entry's staged revocations and
// additions to the resolver's active state. It reports whether the
// entry was applied (false means it was skipped and the caller should
// increment SkippedEntries).
func processUpdateEntry(chainID string, extIDs [][]byte, content []byte, parsedContent map[string]any, st *State, allKeys map[allKeysKey]bool, network client.Network) bool {
	if st.MethodVersion != client.DIDMethodSpecV020 {
		return false
	}

	keyID := string(extIDs[2])
	signingKey, ok := st.ActiveManagementKeys[aliasOf(keyID)]
	if !ok || !validateSignature(extIDs, content, signingKey) {
		return false
	}

	managementKeysToRevoke := map[string]bool{}
	didKeysToRevoke := map[string]bool{}
	didKeyPurposesToRevoke := map[string]client.DIDKeyPurpose{}
	servicesToRevoke := map[string]bool{}
	newManagementKeys := map[string]*client.ManagementKey{}
	newDIDKeys := map[string]*client.DIDKey{}
	newServices := map[string]*client.Service{}

	requiredPriority := math.MaxInt32

	if revoke, ok := parsedContent["revoke"].(map[string]any); ok {
		var skip bool
		requiredPriority, skip = processManagementKeyRevocations(revoke, requiredPriority, managementKeysToRevoke, st.ActiveManagementKeys, chainID, network)
		if skip {
			return false
		}
		requiredPriority, skip = processDIDKeyRevocations(revoke, requiredPriority, didKeysToRevoke, didKeyPurposesToRevoke, st.ActiveDIDKeys, network)
		if skip {
			return false
		}
		requiredPriority, skip = processServiceRevocations(revoke, requiredPriority, servicesToRevoke, st.ActiveServices, network)
		if skip {
			return false
		}
	}

	if add, ok := parsedContent["add"].(map[string]any); ok {
		var skip bool
		requiredPriority, skip = processManagementKeyAdditions(add, requiredPriority, newManagementKeys, st.ActiveManagementKeys, allKeys, chainID, network)
		if skip {
			return false
		}
		skip = processDIDKeyAdditions(add, newDIDKeys, st.ActiveDIDKeys, allKeys, network)
		if skip {
			return false
		}
		skip = processServiceAdditions(add, newServices, st.ActiveServices, network)
		if skip {
			return false
		}
	}

	if signingKey.Priority > requiredPriority {
		return false
	}

	if !existsManagementKeyWithPriorityZero(st.ActiveManagementKeys, newManagementKeys, managementKeysToRevoke) {
		return false
	}

	if applySelfRevocationRules(signingKey, newManagementKeys, managementKeysToRevoke) {
		return false
	}

	for alias := range managementKeysToRevoke {
		delete(st.ActiveManagementKeys, alias)
	}
	for alias, key := range newManagementKeys {
		st.ActiveManagementKeys[alias] = key
	}
	for alias := range didKeysToRevoke {
		delete(st.ActiveDIDKeys, alias)
	}
	for alias, key := range newDIDKeys {
		st.ActiveDIDKeys[alias] = key
	}
	for alias, revokedPurpose := range didKeyPurposesToRevoke {
		key, ok := st.ActiveDIDKeys[alias]
		if !ok {
			continue
		}
		remaining := make([]client.DIDKeyPurpose, 0, len(key.Purpose))
		for _, p := range key.Purpose {
			if p != revokedPurpose {
				remaining = append(remaining, p)
			}
		}
		stripped, err := client.NewDIDKey(key.Alias(), remaining, key.KeyType(), key.Controller(), key.PriorityRequirement(), key.Underlying().PublicKeyBytes(), key.Underlying().PrivateKeyBytes())
		if err == nil {
			st.ActiveDIDKeys[alias] = stripped
		}
	}
	for alias := range servicesToRevoke {
		delete(st.ActiveServices, alias)
	}
	for alias, service := range newServices {
		st.ActiveServices[alias] = service
	}

	return true
}

func processManagementKeyRevocations(revoke map[string]any, requiredPriority int, toRevoke map[string]bool, active map[string]*client.ManagementKey, chainID string, network client.Network) (int, bool) {
	items, _ := revoke["managementKey"].([]any)
	for _, raw := range items {
		keyData, ok := raw.(map[string]any)
		if !ok {
			return requiredPriority, true
		}
		id, _ := keyData["id"].(string)
		alias := aliasOf(id)
		activeKey, exists := active[alias]
		if !validateKeyIDAgainstChainID(id, chainID) || !validateIDAgainstNetwork(id, network) || !exists || toRevoke[alias] {
			return requiredPriority, true
		}
		toRevoke[alias] = true
		if activeKey.PriorityRequirement() != nil {
			requiredPriority = minInt(requiredPriority, *activeKey.PriorityRequirement())
		} else {
			requiredPriority = minInt(requiredPriority, activeKey.Priority)
		}
	}
	return requiredPriority, false
}

func processDIDKeyRevocations(revoke map[string]any, requiredPriority int, toRevoke map[string]bool, purposesToRevoke map[string]client.DIDKeyPurpose, active map[string]*client.DIDKey, network client.Network) (int, bool) {
	items, _ := revoke["didKey"].([]any)
	for _, raw := range items {
		keyData, ok := raw.(map[string]any)
		if !ok {
			return requiredPriority, true
		}
		id, _ := keyData["id"].(string)
		alias := aliasOf(id)
		activeKey, exists := active[alias]
		if !exists || toRevoke[alias] || !validateIDAgainstNetwork(id, network) {
			return requiredPriority, true
		}

		if rawPurposes, hasPurpose := keyData["purpose"].([]any); hasPurpose {
			purposes := make([]client.DIDKeyPurpose, 0, len(rawPurposes))
			seen := map[client.DIDKeyPurpose]bool{}
			for _, rp := range rawPurposes {
				s, _ := rp.(string)
				p, err := client.ParseDIDKeyPurpose(s)
				if err != nil {
					return requiredPriority, true
				}
				if seen[p] {
					return requiredPriority, true
				}
				seen[p] = true
				if !activeKey.HasPurpose(p) {
					return requiredPriority, true
				}
				purposes = append(purposes, p)
			}
			if len(purposes) == len(activeKey.Purpose) {
				toRevoke[alias] = true
			} else if len(purposes) == 1 {
				purposesToRevoke[alias] = purposes[0]
			} else {
				return requiredPriority, true
			}
		} else {
			delete(purposesToRevoke, alias)
			toRevoke[alias] = true
		}

		if activeKey.PriorityRequirement() != nil {
			requiredPriority = minInt(requiredPriority, *activeKey.PriorityRequirement())
		}
	}
	return requiredPriority, false
}

func processServiceRevocations(revoke map[string]any, requiredPriority int, toRevoke map[string]bool, active map[string]*client.Service, network client.Network) (int, bool) {
	items, _ := revoke["service"].([]any)
	for _, raw := range items {
		serviceData, ok := raw.(map[string]any)
		if !ok {
			return requiredPriority, true
		}
		id, _ := serviceData["id"].(string)
		alias := aliasOf(id)
		activeService, exists := active[alias]
		if !exists || toRevoke[alias] || !validateIDAgainstNetwork(id, network) {
			return requiredPriority, true
		}
		toRevoke[alias] = true
		if activeService.PriorityRequirement != nil {
			requiredPriority = minInt(requiredPriority, *activeService.PriorityRequirement)
		}
	}
	return requiredPriority, false
}

func processManagementKeyAdditions(add map[string]any, requiredPriority int, newKeys map[string]*client.ManagementKey, active map[string]*client.ManagementKey, allKeys map[allKeysKey]bool, chainID string, network client.Network) (int, bool) {
	items, _ := add["managementKey"].([]any)
	for _, raw := range items {
		keyData, ok := raw.(map[string]any)
		if !ok {
			return requiredPriority, true
		}
		id, _ := keyData["id"].(string)
		alias := aliasOf(id)
		_, alreadyNew := newKeys[alias]
		_, alreadyActive := active[alias]
		if !validateKeyIDAgainstChainID(id, chainID) || !validateIDAgainstNetwork(id, network) || alreadyNew || alreadyActive {
			return requiredPriority, true
		}
		newKey, err := client.ManagementKeyFromEntryDict(keyData, client.EntrySchemaV100)
		if err != nil {
			return requiredPriority, true
		}
		if allKeys[managementKeyIdentity(newKey)] {
			return requiredPriority, true
		}
		newKeys[alias] = newKey
		requiredPriority = minInt(requiredPriority, newKey.Priority)
	}
	return requiredPriority, false
}

func processDIDKeyAdditions(add map[string]any, newKeys map[string]*client.DIDKey, active map[string]*client.DIDKey, allKeys map[allKeysKey]bool, network client.Network) bool {
	items, _ := add["didKey"].([]any)
	for _, raw := range items {
		keyData, ok := raw.(map[string]any)
		if !ok {
			return true
		}
		id, _ := keyData["id"].(string)
		alias := aliasOf(id)
		_, alreadyNew := newKeys[alias]
		_, alreadyActive := active[alias]
		if alreadyNew || alreadyActive || !validateIDAgainstNetwork(id, network) {
			return true
		}
		newKey, err := client.DIDKeyFromEntryDict(keyData, client.EntrySchemaV100)
		if err != nil {
			return true
		}
		if allKeys[didKeyIdentity(newKey)] {
			return true
		}
		newKeys[alias] = newKey
	}
	return false
}

func processServiceAdditions(add map[string]any, newServices map[string]*client.Service, active map[string]*client.Service, network client.Network) bool {
	items, _ := add["service"].([]any)
	for _, raw := range items {
		serviceData, ok := raw.(map[string]any)
		if !ok {
			return true
		}
		id, _ := serviceData["id"].(string)
		alias := aliasOf(id)
		_, alreadyNew := newServices[alias]
		_, alreadyActive := active[alias]
		if alreadyNew || alreadyActive || !validateIDAgainstNetwork(id, network) {
			return true
		}
		service, err := client.ServiceFromEntryDict(serviceData, client.EntrySchemaV100)
		if err != nil {
			return true
		}
		newServices[alias] = service
	}
	return false
}

// applySelfRevocationRules enforces that a non-priority-0 signing key
// cannot add a peer of equal priority without also revoking itself: if
// exactly one same-priority addition is staged and the signing key is
// not already being revoked, its revocation is forced; if more than one
// same-priority addition is staged, the whole entry is skipped.
func applySelfRevocationRules(signingKey *client.ManagementKey, newManagementKeys map[string]*client.ManagementKey, managementKeysToRevoke map[string]bool) bool {
	if signingKey.Priority == 0 {
		return false
	}
	numSamePriority := 0
	for _, k := range newManagementKeys {
		if k.Priority == signingKey.Priority {
			numSamePriority++
		}
	}
	if numSamePriority == 0 {
		return false
	}
	if numSamePriority > 1 {
		return true
	}
	if !managementKeysToRevoke[signingKey.Alias()] {
		managementKeysToRevoke[signingKey.Alias()] = true
	}
	return false
}

func existsManagementKeyWithPriorityZero(active map[string]*client.ManagementKey, newKeys map[string]*client.ManagementKey, toRevoke map[string]bool) bool {
	remaining := make(map[string]*client.ManagementKey, len(active)+len(newKeys))
	for alias, k := range active {
		if !toRevoke[alias] {
			remaining[alias] = k
		}
	}
	for alias, k := range newKeys {
		remaining[alias] = k
	}
	if len(remaining) == 0 {
		return false
	}
	min := math.MaxInt32
	for _, k := range remaining {
		if k.Priority < min {
			min = k.Priority
		}
	}
	return min == 0
}

// processVersionUpgradeEntry applies a DIDMethodVersionUpgrade entry. It
// reports the method version to use afterwards and whether the entry
// was applied.
func processVersionUpgradeEntry(extIDs [][]byte, content []byte, parsedContent map[string]any, st *State) (newMethodVersion string, applied bool) {
	if st.MethodVersion != client.DIDMethodSpecV020 {
		return st.MethodVersion, false
	}
	keyID := string(extIDs[2])
	signingKey, ok := st.ActiveManagementKeys[aliasOf(keyID)]
	if !ok {
		return st.MethodVersion, false
	}
	targetVersion, _ := parsedContent["didMethodVersion"].(string)
	if !isMethodVersionUpgrade(st.MethodVersion, targetVersion) {
		return st.MethodVersion, false
	}
	if !validateSignature(extIDs, content, signingKey) {
		return st.MethodVersion, false
	}
	return targetVersion, true
}

func isMethodVersionUpgrade(current, target string) bool {
	currentVer, err := semver.NewVersion(current)
	if err != nil {
		return false
	}
	targetVer, err := semver.NewVersion(target)
	if err != nil {
		return false
	}
	return targetVer.GreaterThan(currentVer)
}

// processDeactivationEntry applies a DIDDeactivation entry: on success
// it clears every active map. It reports whether the entry was applied.
func processDeactivationEntry(extIDs [][]byte, content []byte, st *State) bool {
	if st.MethodVersion != client.DIDMethodSpecV020 {
		return false
	}
	keyID := string(extIDs[2])
	signingKey, ok := st.ActiveManagementKeys[aliasOf(keyID)]
	if !ok || signingKey.Priority != 0 || !validateSignature(extIDs, content, signingKey) {
		return false
	}
	for k := range st.ActiveManagementKeys {
		delete(st.ActiveManagementKeys, k)
	}
	for k := range st.ActiveDIDKeys {
		delete(st.ActiveDIDKeys, k)
	}
	for k := range st.ActiveServices {
		delete(st.ActiveServices, k)
	}
	return true
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
