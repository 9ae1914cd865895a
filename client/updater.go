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
	"math"
	"sort"

	"github.com/piprate/factom-did/internal/jsonw"
)

// DIDUpdater accumulates key/service additions and revocations against a
// DID and, once satisfied, signs and serializes them into a DIDUpdate
// entry. It compares the DID's key/service slices at export time against
// the snapshot taken when the updater was created, so additions and
// revocations are just mutations of the underlying DID made through its
// own builder methods.
type DIDUpdater struct {
	did                    *DID
	origManagementKeys     map[*ManagementKey]bool
	origDIDKeys            map[*DIDKey]bool
	origServices           map[*Service]bool
	didKeyPurposesToRevoke map[string]DIDKeyPurpose
}

func newDIDUpdater(did *DID) *DIDUpdater {
	u := &DIDUpdater{
		did:                    did,
		origManagementKeys:     make(map[*ManagementKey]bool, len(did.managementKeys)),
		origDIDKeys:            make(map[*DIDKey]bool, len(did.didKeys)),
		origServices:           make(map[*Service]bool, len(did.services)),
		didKeyPurposesToRevoke: make(map[string]DIDKeyPurpose),
	}
	for _, k := range did.managementKeys {
		u.origManagementKeys[k] = true
	}
	for _, k := range did.didKeys {
		u.origDIDKeys[k] = true
	}
	for _, s := range did.services {
		u.origServices[s] = true
	}
	return u
}

// AddManagementKey adds a management key to the underlying DID.
func (u *DIDUpdater) AddManagementKey(alias string, priority int, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (*DIDUpdater, error) {
	if _, err := u.did.AddManagementKey(alias, priority, keyType, controller, priorityRequirement, publicKey, privateKey); err != nil {
		return nil, err
	}
	return u, nil
}

// AddDIDKey adds a DID key to the underlying DID.
func (u *DIDUpdater) AddDIDKey(alias string, purpose []DIDKeyPurpose, keyType KeyType, controller string, priorityRequirement *int, publicKey, privateKey []byte) (*DIDUpdater, error) {
	if _, err := u.did.AddDIDKey(alias, purpose, keyType, controller, priorityRequirement, publicKey, privateKey); err != nil {
		return nil, err
	}
	return u, nil
}

// AddService adds a service to the underlying DID.
func (u *DIDUpdater) AddService(alias, serviceType, endpoint string, priorityRequirement *int, customFields map[string]any) (*DIDUpdater, error) {
	if _, err := u.did.AddService(alias, serviceType, endpoint, priorityRequirement, customFields); err != nil {
		return nil, err
	}
	return u, nil
}

// RevokeManagementKey removes the management key with the given alias
// from the underlying DID.
func (u *DIDUpdater) RevokeManagementKey(alias string) *DIDUpdater {
	kept := u.did.managementKeys[:0:0]
	for _, k := range u.did.managementKeys {
		if k.alias != alias {
			kept = append(kept, k)
		}
	}
	u.did.managementKeys = kept
	return u
}

// RevokeDIDKey removes the DID key with the given alias from the
// underlying DID.
func (u *DIDUpdater) RevokeDIDKey(alias string) *DIDUpdater {
	kept := u.did.didKeys[:0:0]
	for _, k := range u.did.didKeys {
		if k.alias != alias {
			kept = append(kept, k)
		}
	}
	u.did.didKeys = kept
	return u
}

// RevokeService removes the service with the given alias from the
// underlying DID.
func (u *DIDUpdater) RevokeService(alias string) *DIDUpdater {
	kept := u.did.services[:0:0]
	for _, s := range u.did.services {
		if s.Alias != alias {
			kept = append(kept, s)
		}
	}
	u.did.services = kept
	return u
}

// RevokeDIDKeyPurpose revokes a single purpose of a DID key. If the
// purpose named is the key's only purpose, the whole key is revoked
// instead.
func (u *DIDUpdater) RevokeDIDKeyPurpose(alias string, purpose DIDKeyPurpose) *DIDUpdater {
	switch purpose {
	case PublicKeyPurpose, AuthenticationKeyPurpose:
	default:
		return u
	}
	var key *DIDKey
	for _, k := range u.did.didKeys {
		if k.alias == alias {
			key = k
			break
		}
	}
	if key == nil {
		return u
	}
	if !key.HasPurpose(purpose) {
		return u
	}
	if len(key.Purpose) == 1 {
		return u.RevokeDIDKey(alias)
	}
	u.didKeyPurposesToRevoke[alias] = purpose
	return u
}

// RotateManagementKey replaces the named management key with a freshly
// generated key pair of the same type, alias, controller, priority and
// priorityRequirement. The key is swapped for a new object rather than
// mutated in place, so exportState's pointer-identity diff stages the
// rotation as a revocation of the old key plus an addition of the new
// one, like any other update.
func (u *DIDUpdater) RotateManagementKey(alias string) (*DIDUpdater, error) {
	for i, k := range u.did.managementKeys {
		if k.alias != alias {
			continue
		}
		pub, priv, err := freshKeyMaterial(k.keyType)
		if err != nil {
			return u, err
		}
		rotated, err := NewManagementKey(k.alias, k.Priority, k.keyType, k.controller, k.priorityRequirement, pub, priv)
		if err != nil {
			return u, err
		}
		u.did.managementKeys[i] = rotated
		return u, nil
	}
	return u, nil
}

// RotateDIDKey replaces the named DID key with a freshly generated key
// pair of the same type, alias, controller, purpose and
// priorityRequirement. As with RotateManagementKey, the key is swapped
// for a new object so the rotation is visible to exportState's
// pointer-identity diff.
func (u *DIDUpdater) RotateDIDKey(alias string) (*DIDUpdater, error) {
	for i, k := range u.did.didKeys {
		if k.alias != alias {
			continue
		}
		pub, priv, err := freshKeyMaterial(k.keyType)
		if err != nil {
			return u, err
		}
		rotated, err := NewDIDKey(k.alias, k.Purpose, k.keyType, k.controller, k.priorityRequirement, pub, priv)
		if err != nil {
			return u, err
		}
		u.did.didKeys[i] = rotated
		return u, nil
	}
	return u, nil
}

// GetUpdated applies any staged purpose-level revocations to the
// underlying DID's key set and returns it.
func (u *DIDUpdater) GetUpdated() *DID {
	if len(u.didKeyPurposesToRevoke) == 0 {
		return u.did
	}
	newKeys := make([]*DIDKey, 0, len(u.did.didKeys))
	for _, key := range u.did.didKeys {
		revokedPurpose, ok := u.didKeyPurposesToRevoke[key.alias]
		if !ok {
			newKeys = append(newKeys, key)
			continue
		}
		remaining := make([]DIDKeyPurpose, 0, len(key.Purpose))
		for _, p := range key.Purpose {
			if p != revokedPurpose {
				remaining = append(remaining, p)
			}
		}
		stripped, err := NewDIDKey(key.alias, remaining, key.keyType, key.controller, key.priorityRequirement, key.underlying.PublicKeyBytes(), key.underlying.PrivateKeyBytes())
		if err != nil {
			newKeys = append(newKeys, key)
			continue
		}
		newKeys = append(newKeys, stripped)
	}
	u.did.didKeys = newKeys
	return u.did
}

// exportState diffs the DID's current key/service slices against the
// snapshot taken when the updater was created. It is computed fresh on
// each call since RevokeX/AddX methods mutate u.did directly.
func (u *DIDUpdater) exportState() (revokedMgmt []*ManagementKey, revokedDIDKeys []*DIDKey, revokedServices []*Service, newMgmt []*ManagementKey, newDIDKeys []*DIDKey, newServices []*Service) {
	currentMgmt := make(map[*ManagementKey]bool, len(u.did.managementKeys))
	for _, k := range u.did.managementKeys {
		currentMgmt[k] = true
		if !u.origManagementKeys[k] {
			newMgmt = append(newMgmt, k)
		}
	}
	for k := range u.origManagementKeys {
		if !currentMgmt[k] {
			revokedMgmt = append(revokedMgmt, k)
		}
	}

	currentDIDKeys := make(map[*DIDKey]bool, len(u.did.didKeys))
	for _, k := range u.did.didKeys {
		currentDIDKeys[k] = true
		if !u.origDIDKeys[k] {
			newDIDKeys = append(newDIDKeys, k)
		}
	}
	for k := range u.origDIDKeys {
		if !currentDIDKeys[k] {
			revokedDIDKeys = append(revokedDIDKeys, k)
		}
	}

	currentServices := make(map[*Service]bool, len(u.did.services))
	for _, s := range u.did.services {
		currentServices[s] = true
		if !u.origServices[s] {
			newServices = append(newServices, s)
		}
	}
	for s := range u.origServices {
		if !currentServices[s] {
			revokedServices = append(revokedServices, s)
		}
	}
	return
}

func existsManagementKeyWithPriorityZero(orig map[*ManagementKey]bool, newKeys, revoked []*ManagementKey) bool {
	remaining := make(map[*ManagementKey]bool, len(orig))
	for k := range orig {
		remaining[k] = true
	}
	for _, k := range newKeys {
		remaining[k] = true
	}
	for _, k := range revoked {
		delete(remaining, k)
	}
	if len(remaining) == 0 {
		return false
	}
	min := math.MaxInt32
	for k := range remaining {
		if k.Priority < min {
			min = k.Priority
		}
	}
	return min == 0
}

func lowerRequiredPriority(current int, candidate *int) int {
	if candidate != nil && *candidate < current {
		return *candidate
	}
	return current
}

// ExportEntryData constructs a signed DIDUpdate entry from the
// accumulated additions and revocations. It returns (nil, nil) if
// nothing changed.
func (u *DIDUpdater) ExportEntryData() (*EntryData, error) {
	revokedMgmt, revokedDIDKeys, revokedServices, newMgmt, newDIDKeys, newServices := u.exportState()

	if !existsManagementKeyWithPriorityZero(u.origManagementKeys, newMgmt, revokedMgmt) {
		return nil, fmt.Errorf("%w: update would leave no management keys of priority zero", ErrNoPriorityZeroKey)
	}

	requiredPriority := math.MaxInt32

	revoke := map[string][]map[string]any{}
	for _, key := range revokedMgmt {
		revoke["managementKey"] = append(revoke["managementKey"], map[string]any{"id": key.alias})
		requiredPriority = lowerRequiredPriority(requiredPriority, key.priorityRequirement)
		if key.priorityRequirement == nil {
			p := key.Priority
			requiredPriority = lowerRequiredPriority(requiredPriority, &p)
		}
	}
	for _, key := range revokedDIDKeys {
		revoke["didKey"] = append(revoke["didKey"], map[string]any{"id": key.alias})
		requiredPriority = lowerRequiredPriority(requiredPriority, key.priorityRequirement)
	}
	for alias, purpose := range u.didKeyPurposesToRevoke {
		revoke["didKey"] = append(revoke["didKey"], map[string]any{
			"id":      alias,
			"purpose": []string{string(purpose)},
		})
	}
	for _, service := range revokedServices {
		revoke["service"] = append(revoke["service"], map[string]any{"id": service.Alias})
		requiredPriority = lowerRequiredPriority(requiredPriority, service.PriorityRequirement)
	}

	add := map[string][]map[string]any{}
	for _, key := range newMgmt {
		entry, err := key.ToEntryDict(u.did.ID(), EntrySchemaV100)
		if err != nil {
			return nil, err
		}
		add["managementKey"] = append(add["managementKey"], entry)
		p := key.Priority
		requiredPriority = lowerRequiredPriority(requiredPriority, &p)
	}
	for _, key := range newDIDKeys {
		entry, err := key.ToEntryDict(u.did.ID(), EntrySchemaV100)
		if err != nil {
			return nil, err
		}
		add["didKey"] = append(add["didKey"], entry)
	}
	for _, service := range newServices {
		entry, err := service.ToEntryDict(u.did.ID(), EntrySchemaV100)
		if err != nil {
			return nil, err
		}
		add["service"] = append(add["service"], entry)
	}

	if len(revoke) == 0 && len(add) == 0 {
		return nil, nil
	}

	// Sign with the pre-update snapshot's highest-authority key, not the
	// post-mutation set: the resolver looks up the signer in its active
	// key set *before* applying this entry's own additions, so signing
	// with a key this same update just added would make the entry
	// unverifiable and the resolver would skip it.
	origMgmt := make([]*ManagementKey, 0, len(u.origManagementKeys))
	for k := range u.origManagementKeys {
		origMgmt = append(origMgmt, k)
	}
	signingKey := lowestPriorityKey(origMgmt)
	if signingKey.Priority > requiredPriority {
		return nil, fmt.Errorf("%w: update requires a key with priority <= %d, but the highest-authority key available has priority %d",
			ErrInsufficientPriority, requiredPriority, signingKey.Priority)
	}

	content := map[string]any{}
	if len(revoke) > 0 {
		content["revoke"] = revoke
	}
	if len(add) > 0 {
		content["add"] = add
	}
	entryContent, err := jsonw.MarshalCanonical(content)
	if err != nil {
		return nil, fmt.Errorf("marshal update content: %w", err)
	}

	fullSigningKeyID := signingKey.FullID(u.did.ID())
	dataToSign := string(EntryTypeUpdate) + EntrySchemaV100 + fullSigningKeyID + string(entryContent)
	digest := sha256.Sum256([]byte(dataToSign))
	signature, err := signingKey.underlying.Sign(digest[:])
	if err != nil {
		return nil, fmt.Errorf("sign update entry: %w", err)
	}

	extIDs := [][]byte{
		[]byte(EntryTypeUpdate),
		[]byte(EntrySchemaV100),
		[]byte(fullSigningKeyID),
		signature,
	}

	size := CalculateEntrySize(extIDs, entryContent)
	if size > EntrySizeLimit {
		return nil, fmt.Errorf("%w: entry is %d bytes, limit is %d", ErrEntrySizeExceeded, size, EntrySizeLimit)
	}

	return &EntryData{ExtIDs: extIDs, Content: entryContent}, nil
}

// lowestPriorityKey returns the management key with the lowest priority
// number, i.e. the highest authority.
func lowestPriorityKey(keys []*ManagementKey) *ManagementKey {
	sorted := make([]*ManagementKey, len(keys))
	copy(sorted, keys)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	return sorted[0]
}
