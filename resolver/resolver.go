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

	"github.com/piprate/factom-did/chainio"
	"github.com/piprate/factom-did/client"
	"github.com/piprate/factom-did/internal/jsonw"
	"github.com/piprate/factom-did/resolver/schema"
	"github.com/rs/zerolog/log"
)

// ResolveDIDChain replays every entry on a DIDManagement chain, in the
// order the chain stores them, and returns the resulting state: the
// DID's active management keys, DID keys and services, the method
// version in force, and a count of entries that were encountered but
// could not be applied.
//
// The first entry must be a well-formed DIDManagement entry; if it is
// not, resolution aborts and returns ErrInvalidDIDChain. Every entry
// after that is processed on a best-effort basis: a malformed or
// inapplicable entry is silently skipped (and counted) rather than
// aborting resolution, since a chain is an append-only log that
// anyone can write to and a resolver must tolerate garbage written by
// someone other than the DID's controller.
func ResolveDIDChain(entries []chainio.Entry, chainID string, network client.Network) (*State, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: chain has no entries", ErrInvalidDIDChain)
	}

	st := newState()
	allKeys := map[allKeysKey]bool{}
	processedHashes := map[string]bool{}
	keepParsing := true

	first := entries[0]
	if err := applyFirstEntry(first, chainID, network, st, allKeys); err != nil {
		return nil, err
	}
	if first.EntryHash != "" {
		processedHashes[first.EntryHash] = true
	}
	for _, k := range st.ActiveManagementKeys {
		allKeys[managementKeyIdentity(k)] = true
	}
	for _, k := range st.ActiveDIDKeys {
		allKeys[didKeyIdentity(k)] = true
	}

	for i, e := range entries[1:] {
		if !keepParsing {
			st.SkippedEntries++
			continue
		}

		if e.EntryHash != "" {
			if processedHashes[e.EntryHash] {
				log.Debug().Str("chain", chainID).Int("entry", i+1).Msg("skipping duplicate entry hash")
				st.SkippedEntries++
				continue
			}
			processedHashes[e.EntryHash] = true
		}

		applied, terminal := applySubsequentEntry(e, chainID, network, st, allKeys)
		if !applied {
			log.Debug().Str("chain", chainID).Int("entry", i+1).Msg("skipping entry that could not be applied")
			st.SkippedEntries++
			continue
		}
		if terminal {
			log.Info().Str("chain", chainID).Int("entry", i+1).Msg("chain deactivated, remaining entries will be skipped")
			keepParsing = false
		}
	}

	return st, nil
}

func applyFirstEntry(e chainio.Entry, chainID string, network client.Network, st *State, allKeys map[allKeysKey]bool) error {
	extIDs := e.ExtIDs
	content := e.Content

	if !validateManagementEntryExtIDs(extIDs) {
		return fmt.Errorf("%w: invalid ExtIDs on first entry", ErrInvalidDIDChain)
	}

	var parsed map[string]any
	if err := jsonw.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("%w: first entry content is not valid JSON: %v", ErrInvalidDIDChain, err)
	}
	if err := schema.ValidateManagementEntry(parsed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDIDChain, err)
	}

	managementKeys, didKeys, services, methodVersion, err := processManagementEntry(chainID, parsed, network)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDIDChain, err)
	}

	st.ActiveManagementKeys = managementKeys
	st.ActiveDIDKeys = didKeys
	st.ActiveServices = services
	st.MethodVersion = methodVersion
	return nil
}

// applySubsequentEntry dispatches a non-first entry to the processor
// matching its declared entry type, reporting whether it was applied
// and whether it terminates further resolution (Deactivation).
func applySubsequentEntry(e chainio.Entry, chainID string, network client.Network, st *State, allKeys map[allKeysKey]bool) (applied bool, terminal bool) {
	extIDs := e.ExtIDs
	content := e.Content

	if len(extIDs) == 0 {
		return false, false
	}
	entryType := client.EntryType(extIDs[0])

	switch entryType {
	case client.EntryTypeUpdate:
		if !validateUpdateLikeExtIDs(extIDs, client.EntryTypeUpdate, chainID, network) {
			return false, false
		}
		var parsed map[string]any
		if err := jsonw.Unmarshal(content, &parsed); err != nil {
			return false, false
		}
		if err := schema.ValidateUpdateEntry(parsed); err != nil {
			return false, false
		}
		ok := processUpdateEntry(chainID, extIDs, content, parsed, st, allKeys, network)
		if ok {
			for _, k := range st.ActiveManagementKeys {
				allKeys[managementKeyIdentity(k)] = true
			}
			for _, k := range st.ActiveDIDKeys {
				allKeys[didKeyIdentity(k)] = true
			}
		}
		return ok, false

	case client.EntryTypeVersionUpgrade:
		if !validateUpdateLikeExtIDs(extIDs, client.EntryTypeVersionUpgrade, chainID, network) {
			return false, false
		}
		var parsed map[string]any
		if err := jsonw.Unmarshal(content, &parsed); err != nil {
			return false, false
		}
		if err := schema.ValidateMethodVersionUpgradeEntry(parsed); err != nil {
			return false, false
		}
		newVersion, ok := processVersionUpgradeEntry(extIDs, content, parsed, st)
		if ok {
			st.MethodVersion = newVersion
		}
		return ok, false

	case client.EntryTypeDeactivation:
		if !validateUpdateLikeExtIDs(extIDs, client.EntryTypeDeactivation, chainID, network) {
			return false, false
		}
		if err := schema.ValidateEmptyEntry(content); err != nil {
			return false, false
		}
		ok := processDeactivationEntry(extIDs, content, st)
		return ok, ok

	default:
		return false, false
	}
}
