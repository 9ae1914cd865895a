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
	"crypto/sha256"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/piprate/factom-did/internal/jsonw"
)

// DIDVersionUpgrader builds a signed DIDMethodVersionUpgrade entry,
// raising the DID's method spec version.
type DIDVersionUpgrader struct {
	did            *DID
	newSpecVersion string
}

func newDIDVersionUpgrader(did *DID, newSpecVersion string) (*DIDVersionUpgrader, error) {
	current, err := semver.NewVersion(did.specVersion)
	if err != nil {
		return nil, fmt.Errorf("parse current method spec version: %w", err)
	}
	target, err := semver.NewVersion(newSpecVersion)
	if err != nil {
		return nil, fmt.Errorf("parse target method spec version: %w", err)
	}
	if !target.GreaterThan(current) {
		return nil, fmt.Errorf("%w: %s is not greater than %s", ErrNotAnUpgrade, newSpecVersion, did.specVersion)
	}
	return &DIDVersionUpgrader{did: did, newSpecVersion: newSpecVersion}, nil
}

// ExportEntryData constructs a signed DIDMethodVersionUpgrade entry,
// signed by the DID's priority-0 management key.
func (u *DIDVersionUpgrader) ExportEntryData() (*EntryData, error) {
	signingKey := lowestPriorityKey(u.did.managementKeys)
	if signingKey.Priority != 0 {
		return nil, fmt.Errorf("%w: version upgrade requires a priority-0 management key", ErrNoPriorityZeroKey)
	}

	entryContent, err := jsonw.MarshalCanonical(map[string]any{"didMethodVersion": u.newSpecVersion})
	if err != nil {
		return nil, fmt.Errorf("marshal version upgrade content: %w", err)
	}

	fullSigningKeyID := signingKey.FullID(u.did.ID())
	dataToSign := string(EntryTypeVersionUpgrade) + EntrySchemaV100 + fullSigningKeyID + string(entryContent)
	digest := sha256.Sum256([]byte(dataToSign))
	signature, err := signingKey.underlying.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign version upgrade entry: %w", err)
	}

	extIDs := [][]byte{
		[]byte(EntryTypeVersionUpgrade),
		[]byte(EntrySchemaV100),
		[]byte(fullSigningKeyID),
		signature,
	}

	size := CalculateEntrySize(extIDs, entryContent)
	if size > EntrySizeLimit {
		return nil, fmt.Errorf("%w: entry is %d bytes, limit is %d", ErrEntrySizeExceeded, size, EntrySizeLimit)
	}

	u.did.specVersion = u.newSpecVersion

	return &EntryData{ExtIDs: extIDs, Content: entryContent}, nil
}
