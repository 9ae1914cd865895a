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
)

// DIDDeactivator builds a signed DIDDeactivation entry for an existing
// DID. The signing key is fixed at construction time to the DID's
// priority-0 management key.
type DIDDeactivator struct {
	did        *DID
	signingKey *ManagementKey
}

func newDIDDeactivator(did *DID) *DIDDeactivator {
	signingKey := lowestPriorityKey(did.managementKeys)
	return &DIDDeactivator{did: did, signingKey: signingKey}
}

// ExportEntryData constructs a signed DIDDeactivation entry. Returns
// ErrNoPriorityZeroKey if the DID's highest-authority management key is
// not priority 0.
func (d *DIDDeactivator) ExportEntryData() (*EntryData, error) {
	if d.signingKey.Priority != 0 {
		return nil, fmt.Errorf("%w: deactivation requires a priority-0 management key", ErrNoPriorityZeroKey)
	}

	fullSigningKeyID := d.signingKey.FullID(d.did.ID())
	dataToSign := string(EntryTypeDeactivation) + EntrySchemaV100 + fullSigningKeyID
	digest := sha256.Sum256([]byte(dataToSign))
	signature, err := d.signingKey.underlying.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign deactivation entry: %w", err)
	}

	extIDs := [][]byte{
		[]byte(EntryTypeDeactivation),
		[]byte(EntrySchemaV100),
		[]byte(fullSigningKeyID),
		signature,
	}

	return &EntryData{ExtIDs: extIDs, Content: []byte{}}, nil
}
