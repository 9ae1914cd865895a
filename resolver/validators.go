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
	"crypto/sha256"
	"regexp"
	"strings"

	"github.com/piprate/factom-did/client"
)

var fullKeyIDRe = regexp.MustCompile(`^did:factom:(mainnet:|testnet:)?[a-f0-9]{64}#[a-zA-Z0-9-]{1,32}$`)

// aliasOf returns the fragment (alias) portion of a full or partial key
// or service identifier.
func aliasOf(id string) string {
	idx := strings.LastIndex(id, "#")
	if idx < 0 {
		return id
	}
	return id[idx+1:]
}

func validateExtIDsLength(extIDs [][]byte, minLength int) bool {
	return len(extIDs) >= minLength
}

func validateEntryType(extIDs [][]byte, want client.EntryType) bool {
	return len(extIDs) > 0 && string(extIDs[0]) == string(want)
}

func validateSchemaVersion(extIDs [][]byte, version string) bool {
	return len(extIDs) > 1 && string(extIDs[1]) == version
}

func validateFullKeyIdentifierExtID(extIDs [][]byte) bool {
	if len(extIDs) < 3 {
		return false
	}
	return fullKeyIDRe.MatchString(string(extIDs[2]))
}

// validateManagementEntryExtIDs validates the ExtIDs of a DIDManagement
// entry: correct length, type and schema version.
func validateManagementEntryExtIDs(extIDs [][]byte) bool {
	return validateExtIDsLength(extIDs, 2) &&
		validateEntryType(extIDs, client.EntryTypeCreate) &&
		validateSchemaVersion(extIDs, client.EntrySchemaV100)
}

// validateUpdateLikeExtIDs validates the shared ExtID shape of Update,
// VersionUpgrade and Deactivation entries: at least 4 ExtIDs, matching entry
// type and schema version, a well-formed signing key id that matches
// this chain and network.
func validateUpdateLikeExtIDs(extIDs [][]byte, entryType client.EntryType, chainID string, network client.Network) bool {
	return validateExtIDsLength(extIDs, 4) &&
		validateEntryType(extIDs, entryType) &&
		validateSchemaVersion(extIDs, client.EntrySchemaV100) &&
		validateFullKeyIdentifierExtID(extIDs) &&
		validateKeyIDAgainstChainID(string(extIDs[2]), chainID) &&
		validateIDAgainstNetwork(string(extIDs[2]), network)
}

// validateKeyIDAgainstChainID checks that a full or partial key/service
// id names the given chain, when it names any chain at all.
func validateKeyIDAgainstChainID(id, chainID string) bool {
	if !strings.Contains(id, ":") {
		return true
	}
	withoutFragment := id
	if idx := strings.Index(withoutFragment, "#"); idx >= 0 {
		withoutFragment = withoutFragment[:idx]
	}
	parts := strings.Split(withoutFragment, ":")
	return parts[len(parts)-1] == chainID
}

// validateIDAgainstNetwork checks that a full or partial key/service id
// names the given network, when it specifies one at all.
func validateIDAgainstNetwork(id string, network client.Network) bool {
	if !strings.Contains(id, ":") {
		return true
	}
	withoutFragment := id
	if idx := strings.Index(withoutFragment, "#"); idx >= 0 {
		withoutFragment = withoutFragment[:idx]
	}
	parts := strings.Split(withoutFragment, ":")
	if len(parts) == 4 {
		return parts[2] == string(network)
	}
	return true
}

// validateSignature checks the signature carried in the fourth ExtID of
// an Update/VersionUpgrade/Deactivation entry: it must cover the first
// three ExtIDs plus the entry content.
func validateSignature(extIDs [][]byte, content []byte, signingKey *client.ManagementKey) bool {
	if len(extIDs) < 4 {
		return false
	}
	h := sha256.New()
	for i := 0; i < 3; i++ {
		h.Write(extIDs[i])
	}
	h.Write(content)
	return signingKey.Underlying().Verify(h.Sum(nil), extIDs[3])
}
