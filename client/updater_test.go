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

package client_test

import (
	"testing"

	"github.com/piprate/factom-did/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDID(t *testing.T) *client.DID {
	t.Helper()
	did, err := client.GenerateDID(client.DIDMethodSpecV020)
	require.NoError(t, err)
	did.Testnet()
	_, err = did.AddManagementKey("key-0", 0, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)
	return did
}

func TestDIDUpdater_ExportEntryData_NoChangesReturnsNil(t *testing.T) {
	did := newTestDID(t)
	u, err := did.Update()
	require.NoError(t, err)

	data, err := u.ExportEntryData()
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestDIDUpdater_ExportEntryData_AddManagementKeySignedByExistingKey(t *testing.T) {
	did := newTestDID(t)
	u, err := did.Update()
	require.NoError(t, err)

	_, err = u.AddManagementKey("key-1", 1, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	data, err := u.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, []byte(client.EntryTypeUpdate), data.ExtIDs[0])
	assert.Contains(t, string(data.ExtIDs[2]), "key-0")
}

func TestDIDUpdater_ExportEntryData_RevocationWithPriorityRequirementIsSigned(t *testing.T) {
	did := newTestDID(t)
	_, err := did.AddManagementKey("key-1", 1, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	requirement := 0
	_, err = did.AddDIDKey("auth-1", []client.DIDKeyPurpose{client.AuthenticationKeyPurpose}, client.EdDSA, "", &requirement, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	u, err := did.Update()
	require.NoError(t, err)

	// Revoking a DID key whose priorityRequirement is 0 demands a
	// priority-0 signer; the builder always signs with the
	// lowest-priority (highest-authority) key available, so this is
	// satisfied automatically here by key-0.
	u.RevokeDIDKey("auth-1")
	data, err := u.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
}

func TestDIDUpdater_RotateManagementKey_ChangesUnderlyingKeyMaterial(t *testing.T) {
	did := newTestDID(t)
	before := did.ManagementKeys()[0].Underlying().PublicKeyBytes()

	u, err := did.Update()
	require.NoError(t, err)
	_, err = u.RotateManagementKey("key-0")
	require.NoError(t, err)

	after := did.ManagementKeys()[0].Underlying().PublicKeyBytes()
	assert.NotEqual(t, before, after)

	// A rotation is staged as a revocation of the old key plus an
	// addition of the new one, so it must produce a real entry, not the
	// (nil, nil) ExportEntryData returns when nothing changed.
	data, err := u.ExportEntryData()
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Equal(t, []byte(client.EntryTypeUpdate), data.ExtIDs[0])
	assert.Contains(t, string(data.Content), "key-0")
}

func TestDIDUpdater_RevokeDIDKeyPurpose_RevokesWholeKeyWhenOnlyPurpose(t *testing.T) {
	did := newTestDID(t)
	_, err := did.AddDIDKey("auth-1", []client.DIDKeyPurpose{client.AuthenticationKeyPurpose}, client.EdDSA, "", nil, nil, newEdDSAKeyMaterial(t))
	require.NoError(t, err)

	u, err := did.Update()
	require.NoError(t, err)
	u.RevokeDIDKeyPurpose("auth-1", client.AuthenticationKeyPurpose)

	updated := u.GetUpdated()
	assert.Empty(t, updated.DIDKeys())
}
